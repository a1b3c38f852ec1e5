package strategyconfig

import (
	"fmt"
	"time"
)

// Config는 모멘텀 백테스트 전략의 전체 설정
type Config struct {
	Meta       Meta       `yaml:"meta" json:"meta"`
	Universe   Universe   `yaml:"universe" json:"universe"`
	Backtest   Backtest   `yaml:"backtest" json:"backtest"`
	Metrics    Metrics    `yaml:"metrics" json:"metrics"`
	Investment Investment `yaml:"investment" json:"investment"`
}

// Meta 메타 정보
type Meta struct {
	StrategyID string `yaml:"strategy_id" json:"strategy_id"`
	Version    string `yaml:"version" json:"version"`
}

// Universe 분석 대상 종목
type Universe struct {
	Tickers []string `yaml:"tickers" json:"tickers"`
}

// Backtest 리밸런싱 루프 설정
type Backtest struct {
	Cadence         string `yaml:"cadence" json:"cadence"`                   // monthly | weekly
	Mode            string `yaml:"mode" json:"mode"`                         // aggregate | positions | both
	TopK            int    `yaml:"top_k" json:"top_k"`                       // 기본 10
	SpanYears       int    `yaml:"span_years" json:"span_years"`             // 기본 1
	Today           string `yaml:"today" json:"today"`                       // YYYY-MM-DD, 비어 있으면 실행일
	SelectionAnchor string `yaml:"selection_anchor" json:"selection_anchor"` // rolling | final
}

// Metrics 지표 윈도우
type Metrics struct {
	LookbackMonths    []int `yaml:"lookback_months" json:"lookback_months"`
	TrailingBars      int   `yaml:"trailing_bars" json:"trailing_bars"`
	AnnualizationDays int   `yaml:"annualization_days" json:"annualization_days"`
}

// Investment 기간별 투자금
type Investment struct {
	Amount        float64 `yaml:"amount" json:"amount"`
	WeeklyDivisor float64 `yaml:"weekly_divisor" json:"weekly_divisor"`
}

// Default returns the configuration used when no strategy file is given
func Default() *Config {
	return &Config{
		Meta: Meta{StrategyID: "momentum_default", Version: "1"},
		Backtest: Backtest{
			Cadence:         "monthly",
			Mode:            "both",
			TopK:            10,
			SpanYears:       1,
			SelectionAnchor: "rolling",
		},
		Metrics: Metrics{
			LookbackMonths:    []int{12, 6, 3},
			TrailingBars:      252,
			AnnualizationDays: 252,
		},
		Investment: Investment{
			Amount:        100000,
			WeeklyDivisor: 52,
		},
	}
}

// Clone returns a deep copy that can be overridden without touching c
func (c *Config) Clone() *Config {
	cp := *c
	cp.Universe.Tickers = append([]string(nil), c.Universe.Tickers...)
	cp.Metrics.LookbackMonths = append([]int(nil), c.Metrics.LookbackMonths...)
	return &cp
}

// ResolveToday returns the configured anchor date, or now's calendar date
// (UTC) when none is set.
func (b Backtest) ResolveToday(now time.Time) (time.Time, error) {
	if b.Today == "" {
		now = now.UTC()
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC), nil
	}
	t, err := time.Parse("2006-01-02", b.Today)
	if err != nil {
		return time.Time{}, fmt.Errorf("backtest.today: %w", err)
	}
	return t, nil
}

// RunSnapshot captures the exact configuration of one run for reproducibility
type RunSnapshot struct {
	ConfigHash string    `json:"config_hash"`
	ConfigYAML string    `json:"config_yaml,omitempty"`
	StrategyID string    `json:"strategy_id"`
	RunID      string    `json:"run_id"`
	CreatedAt  time.Time `json:"created_at"`
}
