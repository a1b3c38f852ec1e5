package httputil

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/Rahul711sharma/momentum-analysis/pkg/logger"
)

// ErrCircuitOpen is returned while the breaker rejects requests
var ErrCircuitOpen = errors.New("circuit breaker open")

// StatusError is a non-2xx response left after retries
type StatusError struct {
	StatusCode int
	URL        string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d from %s", e.StatusCode, e.URL)
}

const userAgent = "Mozilla/5.0 (momentum-analysis)"

// Client layers pacing, retry and circuit breaking over net/http.
// Calls pass limiter → breaker → retry loop, in that order.
// ⭐ SSOT: 모든 외부 HTTP 요청은 이 클라이언트를 통해서만 수행
type Client struct {
	http    *http.Client
	logger  *logger.Logger
	backoff Backoff
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker
}

// New returns a client with the default backoff. timeout <= 0 means 30s.
// ⭐ SSOT: http.Client 인스턴스는 여기서만 생성
func New(log *logger.Logger, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		http:    &http.Client{Timeout: timeout},
		logger:  log.WithModule("http"),
		backoff: defaultBackoff,
	}
}

// WithRetry retries up to n times, starting at base and doubling
func (c *Client) WithRetry(n int, base time.Duration) *Client {
	c.backoff.Retries, c.backoff.Base = n, base
	return c
}

func (c *Client) DisableRetry() *Client {
	c.backoff.Retries = 0
	return c
}

// WithRateLimit paces requests to perSecond with a burst of one
func (c *Client) WithRateLimit(perSecond int) *Client {
	if perSecond > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
	}
	return c
}

// WithCircuitBreaker opens after `trip` consecutive failed calls and lets a
// single probe through once cooldown has passed.
func (c *Client) WithCircuitBreaker(name string, trip uint32, cooldown time.Duration) *Client {
	c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     cooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= trip
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			c.logger.WithFields(map[string]interface{}{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			}).Warn("Circuit breaker state changed")
		},
	})
	return c
}

// Get issues a GET. The caller closes the body of a successful response.
func (c *Client) Get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request %s: %w", url, err)
	}
	req.Header.Set("User-Agent", userAgent)

	start := time.Now()
	resp, err := c.send(req)
	log := c.logger.WithFields(map[string]interface{}{
		"url":      url,
		"duration": time.Since(start).String(),
	})
	if err != nil {
		log.WithError(err).Warn("HTTP request failed")
		return nil, err
	}
	log.WithField("status", resp.StatusCode).Debug("HTTP request completed")
	return resp, nil
}

// GetJSON decodes the body of a successful GET into dest
func (c *Client) GetJSON(ctx context.Context, url string, dest any) error {
	resp, err := c.Get(ctx, url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("decode response from %s: %w", url, err)
	}
	return nil
}

func (c *Client) send(req *http.Request) (*http.Response, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(req.Context()); err != nil {
			return nil, fmt.Errorf("rate limit: %w", err)
		}
	}
	if c.breaker == nil {
		return c.withRetry(req)
	}

	out, err := c.breaker.Execute(func() (interface{}, error) {
		return c.withRetry(req)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, fmt.Errorf("%w: %s", ErrCircuitOpen, c.breaker.Name())
	}
	if err != nil {
		return nil, err
	}
	return out.(*http.Response), nil
}

// withRetry repeats transport errors and retryable statuses per c.backoff.
// Any final non-2xx becomes a *StatusError.
func (c *Client) withRetry(req *http.Request) (*http.Response, error) {
	for n := 0; ; n++ {
		resp, err := c.http.Do(req)
		retryable := err != nil || IsRetryableError(resp.StatusCode)
		if !retryable || n >= c.backoff.Retries {
			if err != nil {
				return nil, err
			}
			if resp.StatusCode/100 != 2 {
				discard(resp)
				return nil, &StatusError{StatusCode: resp.StatusCode, URL: req.URL.String()}
			}
			return resp, nil
		}
		if resp != nil {
			discard(resp)
		}

		delay := c.backoff.Delay(n + 1)
		c.logger.WithFields(map[string]interface{}{
			"attempt": n + 1,
			"delay":   delay.String(),
			"url":     req.URL.String(),
		}).Warn("Retrying HTTP request")
		if !sleep(req.Context(), delay) {
			return nil, req.Context().Err()
		}
	}
}

func discard(resp *http.Response) {
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
}
