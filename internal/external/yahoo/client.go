package yahoo

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Rahul711sharma/momentum-analysis/internal/contracts"
	"github.com/Rahul711sharma/momentum-analysis/pkg/httputil"
	"github.com/Rahul711sharma/momentum-analysis/pkg/logger"
)

// DefaultBaseURL is the public chart API host
const DefaultBaseURL = "https://query1.finance.yahoo.com"

// ErrNoData is returned when the chart carries no usable closes
var ErrNoData = errors.New("yahoo: no data")

// Client handles communication with the Yahoo Finance chart API
// ⭐ SSOT: Yahoo Finance API 호출은 이 클라이언트에서만
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	baseURL    string
}

// NewClient creates a new Yahoo Finance client
func NewClient(httpClient *httputil.Client, log *logger.Logger, baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		httpClient: httpClient,
		logger:     log.WithModule("yahoo"),
		baseURL:    strings.TrimRight(baseURL, "/"),
	}
}

// Name identifies the source in load results
func (c *Client) Name() string { return "yahoo" }

// Load fetches daily closes between from and to (inclusive)
func (c *Client) Load(ctx context.Context, ticker string, from, to time.Time) (*contracts.PriceSeries, error) {
	params := url.Values{}
	params.Set("interval", "1d")
	params.Set("period1", fmt.Sprintf("%d", contracts.NormalizeDate(from).Unix()))
	// period2는 배타적이므로 하루 더함
	params.Set("period2", fmt.Sprintf("%d", contracts.NormalizeDate(to).AddDate(0, 0, 1).Unix()))
	params.Set("events", "div,splits")
	return c.fetch(ctx, ticker, params)
}

// FetchRange fetches daily closes for a Yahoo range token such as "2y" or "6mo"
func (c *Client) FetchRange(ctx context.Context, ticker, rng string) (*contracts.PriceSeries, error) {
	params := url.Values{}
	params.Set("interval", "1d")
	params.Set("range", rng)
	params.Set("events", "div,splits")
	return c.fetch(ctx, ticker, params)
}

func (c *Client) fetch(ctx context.Context, ticker string, params url.Values) (*contracts.PriceSeries, error) {
	fullURL := fmt.Sprintf("%s/v8/finance/chart/%s?%s", c.baseURL, url.PathEscape(ticker), params.Encode())

	var resp chartResponse
	if err := c.httpClient.GetJSON(ctx, fullURL, &resp); err != nil {
		var statusErr *httputil.StatusError
		if errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusNotFound {
			return nil, fmt.Errorf("%s: %w", ticker, ErrNoData)
		}
		return nil, fmt.Errorf("fetch chart %s: %w", ticker, err)
	}

	points, err := parseChart(&resp)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ticker, err)
	}

	c.logger.WithFields(map[string]interface{}{
		"ticker": ticker,
		"count":  len(points),
	}).Debug("Fetched closes")

	return contracts.SortedPriceSeries(ticker, points)
}

// parseChart converts the chart payload into daily points.
// Timestamps are shifted by the exchange offset so each bar keeps its local trading date.
// Adjusted closes are preferred when present.
func parseChart(resp *chartResponse) ([]contracts.PricePoint, error) {
	if resp.Chart.Error != nil {
		return nil, fmt.Errorf("%w: %s %s", ErrNoData, resp.Chart.Error.Code, resp.Chart.Error.Description)
	}
	if len(resp.Chart.Result) == 0 {
		return nil, ErrNoData
	}

	result := resp.Chart.Result[0]
	var closes []*float64
	if len(result.Indicators.AdjClose) > 0 && len(result.Indicators.AdjClose[0].AdjClose) > 0 {
		closes = result.Indicators.AdjClose[0].AdjClose
	} else if len(result.Indicators.Quote) > 0 {
		closes = result.Indicators.Quote[0].Close
	}

	points := make([]contracts.PricePoint, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		if i >= len(closes) || closes[i] == nil {
			continue
		}
		v := *closes[i]
		if math.IsNaN(v) || v <= 0 {
			continue
		}
		local := time.Unix(ts+result.Meta.GMTOffset, 0).UTC()
		points = append(points, contracts.PricePoint{Date: contracts.NormalizeDate(local), Close: v})
	}

	if len(points) == 0 {
		return nil, ErrNoData
	}
	return points, nil
}
