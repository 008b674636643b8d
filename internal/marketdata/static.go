package marketdata

import (
	"context"
	"math"
	"sync"
	"time"

	apperrors "paper-trader/internal/errors"
	"paper-trader/internal/models"
)

// Compile-time interface check.
var _ Gateway = (*StaticGateway)(nil)

// StaticGateway implements Gateway with fixed in-memory prices. It backs
// the offline mock mode and tests; prices only move when set explicitly.
type StaticGateway struct {
	mu      sync.RWMutex
	prices  map[string]float64
	failing map[string]bool
}

// defaultMockPrice is served for symbols with no explicit price.
const defaultMockPrice = 150.50

// NewStaticGateway creates a static gateway with no preset prices.
func NewStaticGateway() *StaticGateway {
	return &StaticGateway{
		prices:  make(map[string]float64),
		failing: make(map[string]bool),
	}
}

// SetPrice sets the quoted price for a symbol.
func (g *StaticGateway) SetPrice(symbol string, price float64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.prices[symbol] = price
	delete(g.failing, symbol)
}

// SetFailing marks a symbol so that lookups for it fail with a
// data-unavailable error.
func (g *StaticGateway) SetFailing(symbol string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.failing[symbol] = true
}

// GetQuote returns the configured price for the symbol, or the default
// mock price when none was set.
func (g *StaticGateway) GetQuote(ctx context.Context, symbol string) (*models.Quote, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperrors.NewDataError(symbol, "context done", apperrors.ErrDataUnavailable)
	}

	g.mu.RLock()
	defer g.mu.RUnlock()

	if g.failing[symbol] {
		return nil, apperrors.NewDataError(symbol, "simulated outage", apperrors.ErrDataUnavailable)
	}

	price, ok := g.prices[symbol]
	if !ok {
		price = defaultMockPrice
	}

	return &models.Quote{
		Symbol:        symbol,
		Price:         price,
		Change:        2.30,
		ChangePercent: 1.55,
		Volume:        65000000,
		Timestamp:     time.Now(),
	}, nil
}

// GetHistorical returns a deterministic synthetic candle series ending at
// the configured price.
func (g *StaticGateway) GetHistorical(ctx context.Context, symbol, period, interval string) ([]models.Candle, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperrors.NewDataError(symbol, "context done", apperrors.ErrDataUnavailable)
	}

	g.mu.RLock()
	failing := g.failing[symbol]
	endPrice, ok := g.prices[symbol]
	g.mu.RUnlock()

	if failing {
		return nil, apperrors.NewDataError(symbol, "simulated outage", apperrors.ErrDataUnavailable)
	}
	if _, err := periodStart(period, time.Now()); err != nil {
		return nil, err
	}
	if !ok {
		endPrice = defaultMockPrice
	}

	const days = 30
	candles := make([]models.Candle, 0, days)
	now := time.Now()
	for i := 0; i < days; i++ {
		// Gentle sine wave around the end price, deterministic per offset.
		offset := float64(days - 1 - i)
		price := endPrice * (1 - 0.002*offset + 0.01*math.Sin(offset/3))
		candles = append(candles, models.Candle{
			Timestamp: now.AddDate(0, 0, -(days - 1 - i)),
			Open:      price * 0.995,
			High:      price * 1.01,
			Low:       price * 0.99,
			Close:     price,
			Volume:    5000000,
		})
	}
	return candles, nil
}
