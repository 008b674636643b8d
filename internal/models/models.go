// Package models provides domain models for the paper trading engine.
package models

import (
	"time"
)

// OrderSide represents the side of an order.
type OrderSide string

const (
	OrderSideBuy  OrderSide = "BUY"
	OrderSideSell OrderSide = "SELL"
)

// OrderType represents the type of an order.
type OrderType string

const (
	OrderTypeMarket OrderType = "MARKET"
	OrderTypeLimit  OrderType = "LIMIT"
)

// OrderStatus represents the resolution state of an order. PENDING is
// transient: every order is resolved to FILLED or REJECTED before
// SubmitOrder returns.
type OrderStatus string

const (
	OrderStatusPending  OrderStatus = "PENDING"
	OrderStatusFilled   OrderStatus = "FILLED"
	OrderStatusRejected OrderStatus = "REJECTED"
)

// Quote represents a market quote for a symbol.
type Quote struct {
	Symbol        string    `json:"symbol"`
	Price         float64   `json:"price"`
	Change        float64   `json:"change"`
	ChangePercent float64   `json:"change_percent"`
	Volume        int64     `json:"volume"`
	Timestamp     time.Time `json:"timestamp"`
}

// Candle represents OHLCV data for a time period.
type Candle struct {
	Timestamp time.Time `json:"timestamp"`
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Close     float64   `json:"close"`
	Volume    int64     `json:"volume"`
}

// HistoricalSummary holds a series of candles together with basic
// statistics over the requested window.
type HistoricalSummary struct {
	Symbol        string   `json:"symbol"`
	Period        string   `json:"period"`
	Interval      string   `json:"interval"`
	StartPrice    float64  `json:"start_price"`
	EndPrice      float64  `json:"end_price"`
	Change        float64  `json:"change"`
	ChangePercent float64  `json:"change_percent"`
	High          float64  `json:"high"`
	Low           float64  `json:"low"`
	AvgVolume     float64  `json:"avg_volume"`
	Candles       []Candle `json:"candles"`
}
