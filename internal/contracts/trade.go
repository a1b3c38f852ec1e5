package contracts

// TradeDirection is buy or sell
type TradeDirection string

const (
	TradeBuy  TradeDirection = "buy"
	TradeSell TradeDirection = "sell"
)

// Trade is one position-open or position-close event
type Trade struct {
	Ticker    string         `json:"ticker" csv:"ticker"`
	Period    string         `json:"period" csv:"period"`
	Price     float64        `json:"price" csv:"price"`
	Direction TradeDirection `json:"direction" csv:"direction"`
	Shares    float64        `json:"shares" csv:"shares"`
}

// Value returns shares * price
func (t Trade) Value() float64 {
	return t.Shares * t.Price
}
