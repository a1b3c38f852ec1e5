package strategyconfig

import (
	"fmt"
	"time"
)

// ValidationError represents a validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Warning represents a non-fatal warning
type Warning struct {
	Code    string
	Message string
}

// Validate checks all hard constraints
// SSOT: 모든 강제 제약 조건을 여기서 검증
func Validate(cfg *Config) error {
	// === Meta ===
	if cfg.Meta.StrategyID == "" {
		return ValidationError{"meta.strategy_id", "required"}
	}

	// === Universe ===
	if len(cfg.Universe.Tickers) == 0 {
		return ValidationError{"universe.tickers", "must not be empty"}
	}
	seen := make(map[string]bool, len(cfg.Universe.Tickers))
	for i, ticker := range cfg.Universe.Tickers {
		if ticker == "" {
			return ValidationError{fmt.Sprintf("universe.tickers[%d]", i), "must not be blank"}
		}
		if seen[ticker] {
			return ValidationError{fmt.Sprintf("universe.tickers[%d]", i), fmt.Sprintf("duplicate ticker %q", ticker)}
		}
		seen[ticker] = true
	}

	// === Backtest ===
	b := cfg.Backtest
	if b.Cadence != "monthly" && b.Cadence != "weekly" {
		return ValidationError{"backtest.cadence", "must be monthly or weekly"}
	}
	switch b.Mode {
	case "aggregate", "positions", "both":
	default:
		return ValidationError{"backtest.mode", "must be aggregate, positions or both"}
	}
	if b.SelectionAnchor != "rolling" && b.SelectionAnchor != "final" {
		return ValidationError{"backtest.selection_anchor", "must be rolling or final"}
	}
	if b.TopK < 1 {
		return ValidationError{"backtest.top_k", "must be >= 1"}
	}
	if b.SpanYears < 1 {
		return ValidationError{"backtest.span_years", "must be >= 1"}
	}
	if b.Today != "" {
		if _, err := time.Parse("2006-01-02", b.Today); err != nil {
			return ValidationError{"backtest.today", "must be YYYY-MM-DD"}
		}
	}

	// === Metrics ===
	m := cfg.Metrics
	if len(m.LookbackMonths) == 0 {
		return ValidationError{"metrics.lookback_months", "must not be empty"}
	}
	months := make(map[int]bool, len(m.LookbackMonths))
	for i, n := range m.LookbackMonths {
		if n <= 0 {
			return ValidationError{fmt.Sprintf("metrics.lookback_months[%d]", i), "must be > 0"}
		}
		if months[n] {
			return ValidationError{fmt.Sprintf("metrics.lookback_months[%d]", i), fmt.Sprintf("duplicate window %d", n)}
		}
		months[n] = true
	}
	if m.TrailingBars < 2 {
		return ValidationError{"metrics.trailing_bars", "must be >= 2"}
	}
	if m.AnnualizationDays < 1 {
		return ValidationError{"metrics.annualization_days", "must be >= 1"}
	}

	// === Investment ===
	if cfg.Investment.Amount <= 0 {
		return ValidationError{"investment.amount", "must be > 0"}
	}
	if cfg.Investment.WeeklyDivisor <= 0 {
		return ValidationError{"investment.weekly_divisor", "must be > 0"}
	}

	return nil
}

// Warn checks recommended constraints (non-fatal)
func Warn(cfg *Config) []Warning {
	var warnings []Warning

	// 종목 수보다 큰 top_k
	if cfg.Backtest.TopK > len(cfg.Universe.Tickers) {
		warnings = append(warnings, Warning{
			Code:    "TOPK_EXCEEDS_UNIVERSE",
			Message: fmt.Sprintf("top_k=%d > %d tickers: every period holds the whole universe", cfg.Backtest.TopK, len(cfg.Universe.Tickers)),
		})
	}

	// 12개월 창이 trailing_bars에 들어가지 않을 수 있음
	maxMonths := 0
	for _, n := range cfg.Metrics.LookbackMonths {
		if n > maxMonths {
			maxMonths = n
		}
	}
	if cfg.Metrics.TrailingBars < maxMonths*21 {
		warnings = append(warnings, Warning{
			Code:    "SHORT_TRAILING_WINDOW",
			Message: fmt.Sprintf("trailing_bars=%d may not cover the %d-month lookback", cfg.Metrics.TrailingBars, maxMonths),
		})
	}

	if cfg.Backtest.Cadence == "weekly" && cfg.Backtest.SelectionAnchor == "final" {
		warnings = append(warnings, Warning{
			Code:    "LOOKAHEAD",
			Message: "final anchor ranks with end-of-window data: results are look-ahead biased",
		})
	}

	return warnings
}
