// Package engine turns trade requests into trade facts. The executor is
// the only entry point that mutates the ledger, and it always leaves the
// ledger consistent: every submitted order is resolved to FILLED or
// REJECTED and recorded before SubmitOrder returns.
package engine

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"paper-trader/internal/ledger"
	"paper-trader/internal/logging"
	"paper-trader/internal/marketdata"
	"paper-trader/internal/models"
	"paper-trader/internal/store"
)

// Rejection reasons surfaced on orders. These are stable strings that
// callers (and AI tools) branch on.
const (
	ReasonInvalidSymbol     = "invalid symbol"
	ReasonInvalidQuantity   = "quantity must be a positive integer"
	ReasonInvalidOrderType  = "invalid order type"
	ReasonMissingLimitPrice = "limit price required for LIMIT orders"
	ReasonDataUnavailable   = "market data unavailable"
	ReasonLimitNotSatisfied = "limit not satisfied"
	ReasonInsufficientFunds = "insufficient funds"
	ReasonPositionTooLarge  = "position size exceeds risk limit"
	ReasonInsufficientQty   = "insufficient position"
	ReasonDailyLossExceeded = "daily loss limit exceeded"
)

// OrderRequest is a trade request prior to validation.
type OrderRequest struct {
	Symbol     string
	Side       models.OrderSide
	Type       models.OrderType
	Quantity   int
	LimitPrice float64
}

// Executor validates order requests, resolves fills against live market
// data, and commits the results to the ledger.
type Executor struct {
	// mu serializes the whole validate-then-commit sequence so that two
	// concurrent buys cannot both pass the cash check against a stale
	// balance.
	mu sync.Mutex

	account    *ledger.Account
	gateway    marketdata.Gateway
	journal    store.OrderJournal
	limits     RiskLimits
	commission float64
	log        zerolog.Logger
}

// Config holds executor construction parameters. Journal may be nil.
type Config struct {
	Account    *ledger.Account
	Gateway    marketdata.Gateway
	Journal    store.OrderJournal
	Limits     RiskLimits
	Commission float64
}

// NewExecutor creates an executor wired with the given dependencies.
func NewExecutor(cfg Config, logger zerolog.Logger) *Executor {
	return &Executor{
		account:    cfg.Account,
		gateway:    cfg.Gateway,
		journal:    cfg.Journal,
		limits:     cfg.Limits,
		commission: cfg.Commission,
		log:        logger.With().Str("component", "executor").Logger(),
	}
}

// Account returns the ledger the executor mutates.
func (e *Executor) Account() *ledger.Account {
	return e.account
}

// SubmitOrder runs an order through validation, price resolution, risk
// checks, and commit. The returned order is always resolved and already
// recorded in the account history; a rejection is a normal outcome, not
// an error. The error return is reserved for request-independent failures
// and is currently always nil.
func (e *Executor) SubmitOrder(ctx context.Context, req OrderRequest) (*models.Order, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	order := &models.Order{
		ID:          newOrderID(),
		Symbol:      strings.ToUpper(strings.TrimSpace(req.Symbol)),
		Side:        req.Side,
		Type:        req.Type,
		Quantity:    req.Quantity,
		LimitPrice:  req.LimitPrice,
		Status:      models.OrderStatusPending,
		SubmittedAt: time.Now(),
	}

	if reason := e.validateStructure(order); reason != "" {
		return e.reject(ctx, order, reason), nil
	}

	quote, err := e.gateway.GetQuote(ctx, order.Symbol)
	if err != nil {
		symLog := logging.WithSymbol(e.log, order.Symbol)
		symLog.Warn().Err(err).Msg("Quote fetch failed, rejecting order")
		return e.reject(ctx, order, ReasonDataUnavailable), nil
	}

	fillPrice, ok := resolvePrice(order, quote.Price)
	if !ok {
		return e.reject(ctx, order, ReasonLimitNotSatisfied), nil
	}

	if reason := e.checkBusinessRules(ctx, order, fillPrice); reason != "" {
		return e.reject(ctx, order, reason), nil
	}

	e.commit(order, fillPrice)
	e.record(ctx, order)

	logging.LogFill(e.log, order.ID, order.Symbol, string(order.Side), order.Quantity, order.FillPrice)
	return order, nil
}

// validateStructure checks the request shape before any I/O. It returns
// the rejection reason, or "" when the order is well-formed.
func (e *Executor) validateStructure(order *models.Order) string {
	if !validSymbol(order.Symbol) {
		return ReasonInvalidSymbol
	}
	if order.Quantity <= 0 {
		return ReasonInvalidQuantity
	}
	switch order.Type {
	case models.OrderTypeMarket:
	case models.OrderTypeLimit:
		if order.LimitPrice <= 0 {
			return ReasonMissingLimitPrice
		}
	default:
		return ReasonInvalidOrderType
	}
	if order.Side != models.OrderSideBuy && order.Side != models.OrderSideSell {
		return ReasonInvalidOrderType
	}
	return ""
}

// resolvePrice determines the execution price from the current quote.
// Limit orders resolve immediately: they fill at the quote when the limit
// condition is satisfied and are rejected otherwise. There is no resting
// order book.
func resolvePrice(order *models.Order, quotePrice float64) (float64, bool) {
	if order.Type == models.OrderTypeLimit {
		if order.Side == models.OrderSideBuy && quotePrice > order.LimitPrice {
			return 0, false
		}
		if order.Side == models.OrderSideSell && quotePrice < order.LimitPrice {
			return 0, false
		}
	}
	return quotePrice, true
}

// commit applies the fill to the ledger and marks the order FILLED.
func (e *Executor) commit(order *models.Order, fillPrice float64) {
	order.FillPrice = fillPrice
	order.Commission = e.commission
	order.Status = models.OrderStatusFilled

	if order.Side == models.OrderSideBuy {
		e.account.ApplyBuy(order.Symbol, order.Quantity, fillPrice, e.commission)
	} else {
		order.RealizedPnL = e.account.ApplySell(order.Symbol, order.Quantity, fillPrice, e.commission)
	}
}

// reject marks the order REJECTED and records it for the audit trail. No
// cash or position mutation happens on this path.
func (e *Executor) reject(ctx context.Context, order *models.Order, reason string) *models.Order {
	order.Status = models.OrderStatusRejected
	order.RejectReason = reason
	e.record(ctx, order)
	logging.LogRejection(e.log, order.ID, order.Symbol, string(order.Side), reason)
	return order
}

// record appends the order to the account history and, when a journal is
// configured, writes it through best-effort.
func (e *Executor) record(ctx context.Context, order *models.Order) {
	e.account.RecordOrder(*order)
	if e.journal != nil {
		if err := e.journal.LogOrder(ctx, order); err != nil {
			ordLog := logging.WithOrderID(e.log, order.ID)
			ordLog.Warn().Err(err).Msg("Journal write failed")
		}
	}
}

// validSymbol reports whether s is a plausible uppercase ticker.
func validSymbol(s string) bool {
	if s == "" || len(s) > 10 {
		return false
	}
	for _, r := range s {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}

// newOrderID generates a short unique order ID.
func newOrderID() string {
	id := uuid.New()
	return fmt.Sprintf("order-%x", id[:4])
}
