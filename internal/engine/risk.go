package engine

import (
	"context"

	apperrors "paper-trader/internal/errors"
	"paper-trader/internal/models"
)

// RiskLimits holds the pre-trade risk thresholds, in account currency.
type RiskLimits struct {
	// MaxPositionSize caps the notional value of a single buy order.
	MaxPositionSize float64
	// MaxDailyLoss caps the session's combined realized and unrealized
	// loss; once breached, further orders are rejected.
	MaxDailyLoss float64
}

// checkBusinessRules validates the priced order against ledger state and
// risk limits. It returns the rejection reason, or "" when the order may
// commit.
func (e *Executor) checkBusinessRules(ctx context.Context, order *models.Order, fillPrice float64) string {
	switch order.Side {
	case models.OrderSideBuy:
		required := float64(order.Quantity)*fillPrice + e.commission
		if e.account.Cash() < required {
			return ReasonInsufficientFunds
		}
		if e.limits.MaxPositionSize > 0 && required > e.limits.MaxPositionSize {
			e.log.Warn().
				Err(apperrors.NewRiskError("max_position_size", required, e.limits.MaxPositionSize, "order notional over limit")).
				Str("symbol", order.Symbol).
				Msg("Risk limit breached")
			return ReasonPositionTooLarge
		}
	case models.OrderSideSell:
		pos, ok := e.account.Position(order.Symbol)
		if !ok || pos.Quantity < order.Quantity {
			return ReasonInsufficientQty
		}
	}

	if e.limits.MaxDailyLoss > 0 {
		if loss := e.sessionLoss(ctx, order.Symbol, fillPrice); loss > e.limits.MaxDailyLoss {
			e.log.Warn().
				Err(apperrors.NewRiskError("max_daily_loss", loss, e.limits.MaxDailyLoss, "session loss over limit")).
				Str("symbol", order.Symbol).
				Msg("Risk limit breached")
			return ReasonDailyLossExceeded
		}
	}

	return ""
}

// sessionLoss computes the session's cumulative loss: today's realized
// P&L plus the unrealized P&L of every open position, negated so a
// positive value means a loss. The quote just fetched for the order's
// symbol is reused; other symbols are priced fresh, and a symbol whose
// quote is unavailable contributes zero rather than failing the check.
func (e *Executor) sessionLoss(ctx context.Context, quotedSymbol string, quotedPrice float64) float64 {
	pnl := e.account.TodayRealizedPnL()

	for _, pos := range e.account.Positions() {
		price := quotedPrice
		if pos.Symbol != quotedSymbol {
			quote, err := e.gateway.GetQuote(ctx, pos.Symbol)
			if err != nil {
				continue
			}
			price = quote.Price
		}
		pnl += float64(pos.Quantity) * (price - pos.AverageCost)
	}

	return -pnl
}
