package models

import "time"

// Order represents a single buy/sell instruction and its resolution.
// Orders are immutable once recorded in the account history.
type Order struct {
	ID           string      `json:"id"`
	Symbol       string      `json:"symbol"`
	Side         OrderSide   `json:"side"`
	Type         OrderType   `json:"type"`
	Quantity     int         `json:"quantity"`
	LimitPrice   float64     `json:"limit_price,omitempty"`
	Status       OrderStatus `json:"status"`
	FillPrice    float64     `json:"fill_price,omitempty"`
	Commission   float64     `json:"commission,omitempty"`
	RealizedPnL  float64     `json:"realized_pnl,omitempty"`
	RejectReason string      `json:"reject_reason,omitempty"`
	SubmittedAt  time.Time   `json:"submitted_at"`
}

// Filled reports whether the order resolved to a fill.
func (o *Order) Filled() bool {
	return o.Status == OrderStatusFilled
}

// Notional returns the cash value of the order at its fill price.
func (o *Order) Notional() float64 {
	return float64(o.Quantity) * o.FillPrice
}

// Position represents an open long holding in one symbol.
type Position struct {
	Symbol      string  `json:"symbol"`
	Quantity    int     `json:"quantity"`
	AverageCost float64 `json:"average_cost"`
}

// CostBasisTotal returns the total amount paid for the position at its
// volume-weighted average cost.
func (p *Position) CostBasisTotal() float64 {
	return float64(p.Quantity) * p.AverageCost
}
