// Package ledger holds the simulated account state: cash, open positions,
// and the chronological order history. The ledger performs no business
// validation; mutation preconditions are the executor's responsibility.
package ledger

import (
	"fmt"
	"sort"
	"sync"
	"time"

	apperrors "paper-trader/internal/errors"
	"paper-trader/internal/models"
)

// Account is the single simulated brokerage account.
type Account struct {
	mu          sync.RWMutex
	cash        float64
	initialCash float64
	positions   map[string]*models.Position
	orders      []models.Order
	dailyPnL    map[string]float64 // date (2006-01-02) -> realized P&L
}

// New creates an account with the given starting cash.
func New(startingCash float64) (*Account, error) {
	if startingCash <= 0 {
		return nil, apperrors.Wrapf(apperrors.ErrConfigInvalid, "starting cash must be positive, got %.2f", startingCash)
	}
	return &Account{
		cash:        startingCash,
		initialCash: startingCash,
		positions:   make(map[string]*models.Position),
		dailyPnL:    make(map[string]float64),
	}, nil
}

// Reset reinitializes the account: cash set to startingCash, positions and
// order history cleared.
func (a *Account) Reset(startingCash float64) error {
	if startingCash <= 0 {
		return apperrors.Wrapf(apperrors.ErrConfigInvalid, "starting cash must be positive, got %.2f", startingCash)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	a.cash = startingCash
	a.initialCash = startingCash
	a.positions = make(map[string]*models.Position)
	a.orders = nil
	a.dailyPnL = make(map[string]float64)
	return nil
}

// ApplyBuy decrements cash by qty*price+commission and adds the shares to
// the position at a recomputed volume-weighted average cost.
//
// Precondition (caller-checked): cash >= qty*price+commission. A violation
// is a programming error in the executor and panics.
func (a *Account) ApplyBuy(symbol string, qty int, price, commission float64) {
	a.mu.Lock()
	defer a.mu.Unlock()

	cost := float64(qty)*price + commission
	if a.cash < cost {
		panic(fmt.Sprintf("ledger: ApplyBuy %s qty=%d price=%.2f needs %.2f, cash %.2f", symbol, qty, price, cost, a.cash))
	}

	a.cash -= cost

	pos, ok := a.positions[symbol]
	if !ok {
		a.positions[symbol] = &models.Position{
			Symbol:      symbol,
			Quantity:    qty,
			AverageCost: price,
		}
		return
	}

	totalCost := pos.AverageCost*float64(pos.Quantity) + price*float64(qty)
	pos.Quantity += qty
	pos.AverageCost = totalCost / float64(pos.Quantity)
}

// ApplySell increments cash by qty*price-commission, decrements the
// position, and removes it when the quantity reaches zero. The average
// cost is never changed by a sell. It returns the realized P&L of the
// sale, which is also accumulated into the day's realized total.
//
// Precondition (caller-checked): the position exists with at least qty
// shares. A violation is a programming error in the executor and panics.
func (a *Account) ApplySell(symbol string, qty int, price, commission float64) float64 {
	a.mu.Lock()
	defer a.mu.Unlock()

	pos, ok := a.positions[symbol]
	if !ok || pos.Quantity < qty {
		held := 0
		if ok {
			held = pos.Quantity
		}
		panic(fmt.Sprintf("ledger: ApplySell %s qty=%d but held %d", symbol, qty, held))
	}

	a.cash += float64(qty)*price - commission

	realized := float64(qty)*(price-pos.AverageCost) - commission

	pos.Quantity -= qty
	if pos.Quantity == 0 {
		delete(a.positions, symbol)
	}

	day := time.Now().Format("2006-01-02")
	a.dailyPnL[day] += realized

	return realized
}

// RecordOrder appends the resolved order to the history. No validation.
func (a *Account) RecordOrder(order models.Order) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.orders = append(a.orders, order)
}

// Cash returns the current uncommitted cash balance.
func (a *Account) Cash() float64 {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.cash
}

// InitialCash returns the cash balance the account was created with.
func (a *Account) InitialCash() float64 {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.initialCash
}

// Position returns a copy of the open position for symbol, if any.
func (a *Account) Position(symbol string) (models.Position, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	pos, ok := a.positions[symbol]
	if !ok {
		return models.Position{}, false
	}
	return *pos, true
}

// Positions returns copies of all open positions, sorted by symbol.
func (a *Account) Positions() []models.Position {
	a.mu.RLock()
	defer a.mu.RUnlock()

	positions := make([]models.Position, 0, len(a.positions))
	for _, p := range a.positions {
		positions = append(positions, *p)
	}
	sort.Slice(positions, func(i, j int) bool {
		return positions[i].Symbol < positions[j].Symbol
	})
	return positions
}

// OrderHistory returns the full order history in submission order.
func (a *Account) OrderHistory() []models.Order {
	a.mu.RLock()
	defer a.mu.RUnlock()

	orders := make([]models.Order, len(a.orders))
	copy(orders, a.orders)
	return orders
}

// RealizedPnL returns the realized P&L recorded for the given day
// (2006-01-02 format).
func (a *Account) RealizedPnL(day string) float64 {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.dailyPnL[day]
}

// TodayRealizedPnL returns the realized P&L recorded for the current day.
func (a *Account) TodayRealizedPnL() float64 {
	return a.RealizedPnL(time.Now().Format("2006-01-02"))
}

// DailyPnL returns a copy of the per-day realized P&L map.
func (a *Account) DailyPnL() map[string]float64 {
	a.mu.RLock()
	defer a.mu.RUnlock()

	out := make(map[string]float64, len(a.dailyPnL))
	for k, v := range a.dailyPnL {
		out[k] = v
	}
	return out
}
