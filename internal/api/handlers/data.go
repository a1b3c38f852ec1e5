package handlers

import (
	"context"
	"net/http"

	"github.com/Rahul711sharma/momentum-analysis/internal/s0_data/collector"
	"github.com/Rahul711sharma/momentum-analysis/pkg/logger"
)

// collectWorkers is the fan-out used for API-triggered refreshes
const collectWorkers = 5

// PriceCollector refreshes cached closes (implemented by collector.Collector)
type PriceCollector interface {
	FetchAllPrices(ctx context.Context, tickers []string, cfg collector.Config) ([]collector.FetchResult, error)
}

// DataHandler serves price collection
type DataHandler struct {
	collector PriceCollector
	universe  []string
	logger    *logger.Logger
}

// NewDataHandler collects universe when a request names no tickers
func NewDataHandler(col PriceCollector, universe []string, log *logger.Logger) *DataHandler {
	return &DataHandler{collector: col, universe: universe, logger: log.WithModule("api.data")}
}

// CollectRequest fields are optional; the range defaults to "2y"
type CollectRequest struct {
	Tickers []string `json:"tickers"`
	Range   string   `json:"range"`
}

// CollectResult is one ticker's refresh outcome
type CollectResult struct {
	Ticker     string `json:"ticker"`
	PriceCount int    `json:"price_count"`
	Error      string `json:"error,omitempty"`
}

type CollectResponse struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Failed  []string        `json:"failed"`
	Results []CollectResult `json:"results"`
}

// Collect refreshes the price cache.
// POST /api/data/collect
func (h *DataHandler) Collect(w http.ResponseWriter, r *http.Request) {
	var req CollectRequest
	if err := decodeOptional(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if len(req.Tickers) == 0 {
		req.Tickers = h.universe
	}

	log := h.logger.WithFields(map[string]interface{}{
		"tickers": len(req.Tickers),
		"range":   req.Range,
	})
	log.Info("Price collection requested")

	fetched, err := h.collector.FetchAllPrices(r.Context(), req.Tickers,
		collector.Config{Workers: collectWorkers, Range: req.Range})
	if err != nil {
		log.WithError(err).Error("Price collection failed")
		respondError(w, http.StatusInternalServerError, "Failed to collect prices")
		return
	}

	out := make([]CollectResult, 0, len(fetched))
	for _, f := range fetched {
		res := CollectResult{Ticker: f.Ticker, PriceCount: f.PriceCount}
		if f.Error != nil {
			res.Error = f.Error.Error()
		}
		out = append(out, res)
	}
	respondJSON(w, http.StatusOK, CollectResponse{
		Status:  "success",
		Message: "Price data collected",
		Failed:  nonNil(collector.FailedTickers(fetched)),
		Results: out,
	})
}
