package selection

import (
	"sort"

	"github.com/Rahul711sharma/momentum-analysis/internal/contracts"
	"github.com/Rahul711sharma/momentum-analysis/pkg/logger"
)

// RankedTicker is one entry of a top-K selection
type RankedTicker struct {
	Rank   int                     `json:"rank"`
	Ticker string                  `json:"ticker"`
	Score  float64                 `json:"score"`
	Metric *contracts.PeriodMetric `json:"-"`
}

// Ranker selects the top-K tickers by return-to-risk score
// ⭐ SSOT: 랭킹 로직은 여기서만
type Ranker struct {
	logger *logger.Logger
}

// NewRanker creates a new ranker
func NewRanker(logger *logger.Logger) *Ranker {
	return &Ranker{
		logger: logger,
	}
}

// Rank orders metrics by score descending. Undefined scores are dropped and
// ties keep their input order.
func (r *Ranker) Rank(metrics []*contracts.PeriodMetric) []RankedTicker {
	ranked := make([]RankedTicker, 0, len(metrics))
	for _, m := range metrics {
		if m == nil || !m.HasScore() {
			continue
		}
		ranked = append(ranked, RankedTicker{
			Ticker: m.Ticker,
			Score:  m.Score,
			Metric: m,
		})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})

	for i := range ranked {
		ranked[i].Rank = i + 1
	}
	return ranked
}

// SelectTopK returns at most k ranked tickers. Fewer than k valid candidates
// yields fewer entries, never padding.
func (r *Ranker) SelectTopK(metrics []*contracts.PeriodMetric, k int) []RankedTicker {
	ranked := r.Rank(metrics)
	if k < len(ranked) {
		ranked = ranked[:k]
	}

	if len(ranked) > 0 {
		r.logger.WithFields(map[string]interface{}{
			"candidates": len(metrics),
			"selected":   len(ranked),
			"top_ticker": ranked[0].Ticker,
			"top_score":  ranked[0].Score,
		}).Debug("Top-K selected")
	}

	return ranked
}

// Tickers extracts tickers in rank order
func Tickers(ranked []RankedTicker) []string {
	out := make([]string, len(ranked))
	for i, r := range ranked {
		out[i] = r.Ticker
	}
	return out
}
