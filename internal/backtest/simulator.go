package backtest

import (
	"fmt"
	"time"

	"github.com/Rahul711sharma/momentum-analysis/internal/contracts"
	"github.com/Rahul711sharma/momentum-analysis/pkg/logger"
)

// PriceLookup answers as-of close queries
type PriceLookup interface {
	AsOf(ticker string, t time.Time) (float64, bool)
}

// Position is an open holding
type Position struct {
	Ticker   string  `json:"ticker"`
	Shares   float64 `json:"shares"`
	BuyPrice float64 `json:"buy_price"`
	BoughtIn string  `json:"bought_in"`
}

// Ledger holds the accounting of a position-tracked run
type Ledger struct {
	// LegacyTotal is the running sum of sell proceeds plus every period-end
	// marking of open positions. A held position is counted once per period
	// and again when sold, so it is not a net asset value.
	LegacyTotal float64 `json:"legacy_total"`
	// Contributed is the cash spent on buys
	Contributed float64 `json:"contributed"`
	// RealizedProceeds is the cash received from sells
	RealizedProceeds float64 `json:"realized_proceeds"`
	// MarketValue is the last period-end marking of open positions
	MarketValue float64 `json:"market_value"`
}

// NetAssetValue is realized cash plus the current marking
func (l Ledger) NetAssetValue() float64 {
	return l.RealizedProceeds + l.MarketValue
}

// Simulator tracks the portfolio across periods
// ⭐ SSOT: 포지션 상태 변경은 여기서만
type Simulator struct {
	logger *logger.Logger

	positions []*Position
	buys      []contracts.Trade
	sells     []contracts.Trade
	ledger    Ledger
}

// NewSimulator creates a simulator with an empty portfolio
func NewSimulator(logger *logger.Logger) *Simulator {
	return &Simulator{
		logger:    logger,
		positions: make([]*Position, 0),
		buys:      make([]contracts.Trade, 0),
		sells:     make([]contracts.Trade, 0),
	}
}

// Rebalance runs the sell, buy and valuation phases of one period against
// the ranked selection. Tickers without an as-of price are skipped for that
// phase and reported as skip events.
func (s *Simulator) Rebalance(period contracts.Period, selected []string, prices PriceLookup, budget float64) []contracts.SkipEvent {
	var skips []contracts.SkipEvent
	skip := func(ticker string, phase contracts.Phase, err error) {
		skips = append(skips, contracts.SkipEvent{
			Period: period.Label,
			Ticker: ticker,
			Phase:  phase,
			Reason: contracts.ReasonOf(err),
		})
		s.logger.WithFields(map[string]interface{}{
			"period": period.Label,
			"ticker": ticker,
			"phase":  string(phase),
		}).WithError(err).Debug("Skipped ticker")
	}

	inSelection := make(map[string]bool, len(selected))
	for _, t := range selected {
		inSelection[t] = true
	}

	// 1. 매도: 선택에서 빠진 보유 종목
	kept := s.positions[:0]
	for _, pos := range s.positions {
		if inSelection[pos.Ticker] {
			kept = append(kept, pos)
			continue
		}
		price, ok := prices.AsOf(pos.Ticker, period.End)
		if !ok {
			skip(pos.Ticker, contracts.PhaseSell, noPrice(pos.Ticker, period.End))
			kept = append(kept, pos)
			continue
		}
		trade := contracts.Trade{
			Ticker:    pos.Ticker,
			Period:    period.Label,
			Price:     price,
			Direction: contracts.TradeSell,
			Shares:    pos.Shares,
		}
		s.sells = append(s.sells, trade)
		s.ledger.RealizedProceeds += trade.Value()
		s.ledger.LegacyTotal += trade.Value()
	}
	s.positions = kept

	// 2. 매수: 신규 편입 종목 (랭킹 순서)
	if len(selected) > 0 {
		allocation := budget / float64(len(selected))
		for _, ticker := range selected {
			if s.holding(ticker) {
				continue
			}
			price, ok := prices.AsOf(ticker, period.Start)
			if !ok || price <= 0 {
				skip(ticker, contracts.PhaseBuy, noPrice(ticker, period.Start))
				continue
			}
			pos := &Position{
				Ticker:   ticker,
				Shares:   allocation / price,
				BuyPrice: price,
				BoughtIn: period.Label,
			}
			s.positions = append(s.positions, pos)
			s.buys = append(s.buys, contracts.Trade{
				Ticker:    ticker,
				Period:    period.Label,
				Price:     price,
				Direction: contracts.TradeBuy,
				Shares:    pos.Shares,
			})
			s.ledger.Contributed += allocation
		}
	}

	// 3. 평가: 기간 말 시가 평가
	var marked float64
	for _, pos := range s.positions {
		price, ok := prices.AsOf(pos.Ticker, period.End)
		if !ok {
			skip(pos.Ticker, contracts.PhaseValuation, noPrice(pos.Ticker, period.End))
			continue
		}
		marked += pos.Shares * price
	}
	s.ledger.MarketValue = marked
	s.ledger.LegacyTotal += marked

	return skips
}

// Holdings returns open positions in the order they were opened
func (s *Simulator) Holdings() []Position {
	out := make([]Position, len(s.positions))
	for i, p := range s.positions {
		out[i] = *p
	}
	return out
}

// HeldTickers returns the tickers currently held
func (s *Simulator) HeldTickers() []string {
	out := make([]string, len(s.positions))
	for i, p := range s.positions {
		out[i] = p.Ticker
	}
	return out
}

// Buys returns the buy ledger
func (s *Simulator) Buys() []contracts.Trade {
	return append([]contracts.Trade(nil), s.buys...)
}

// Sells returns the sell ledger
func (s *Simulator) Sells() []contracts.Trade {
	return append([]contracts.Trade(nil), s.sells...)
}

// Ledger returns the accounting totals
func (s *Simulator) Ledger() Ledger {
	return s.ledger
}

func (s *Simulator) holding(ticker string) bool {
	for _, p := range s.positions {
		if p.Ticker == ticker {
			return true
		}
	}
	return false
}

func noPrice(ticker string, at time.Time) error {
	return fmt.Errorf("%s at %s: %w", ticker, at.Format("2006-01-02"), contracts.ErrNoAsOfPrice)
}
