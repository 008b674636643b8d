// Package store provides the order journal: an append-only audit trail of
// resolved orders. The engine writes through to it but never reads it back
// to rebuild account state.
package store

import (
	"context"
	"time"

	"paper-trader/internal/models"
)

// OrderJournal is the write side used by the executor.
type OrderJournal interface {
	// LogOrder appends a resolved order to the journal.
	LogOrder(ctx context.Context, order *models.Order) error
}

// Journal is the full journal interface, including the query side used by
// the history command.
type Journal interface {
	OrderJournal

	// GetOrders returns journal entries matching the filter, newest first.
	GetOrders(ctx context.Context, filter OrderFilter) ([]models.Order, error)

	// Close releases the underlying resources.
	Close() error
}

// OrderFilter represents filters for querying journaled orders.
type OrderFilter struct {
	Symbol    string
	Side      models.OrderSide
	Status    models.OrderStatus
	StartDate time.Time
	EndDate   time.Time
	Limit     int
}
