// Package portfolio derives read-only views over the ledger plus live
// quotes. It never mutates account state.
package portfolio

import (
	"context"

	"github.com/rs/zerolog"

	"paper-trader/internal/ledger"
	"paper-trader/internal/marketdata"
	"paper-trader/internal/models"
)

// PositionView is a position enriched with live pricing. When the gateway
// cannot supply a price, PriceAvailable is false and the cost basis stands
// in for the market price; the view degrades instead of failing.
type PositionView struct {
	Symbol               string  `json:"symbol"`
	Quantity             int     `json:"quantity"`
	AverageCost          float64 `json:"average_cost"`
	CurrentPrice         float64 `json:"current_price"`
	MarketValue          float64 `json:"market_value"`
	UnrealizedPnL        float64 `json:"unrealized_pnl"`
	UnrealizedPnLPercent float64 `json:"unrealized_pnl_percent"`
	Weight               float64 `json:"weight"`
	PriceAvailable       bool    `json:"price_available"`
}

// Summary is the account-level snapshot.
type Summary struct {
	Cash             float64        `json:"cash"`
	InitialCash      float64        `json:"initial_cash"`
	TotalEquity      float64        `json:"total_equity"`
	UnrealizedPnL    float64        `json:"unrealized_pnl"`
	TodayRealizedPnL float64        `json:"today_realized_pnl"`
	Positions        []PositionView `json:"positions"`
}

// Analysis holds portfolio composition and performance metrics.
type Analysis struct {
	TotalEquity          float64        `json:"total_equity"`
	Cash                 float64        `json:"cash"`
	CashPercent          float64        `json:"cash_percent"`
	Invested             float64        `json:"invested"`
	InvestedPercent      float64        `json:"invested_percent"`
	UnrealizedPnL        float64        `json:"unrealized_pnl"`
	UnrealizedPnLPercent float64        `json:"unrealized_pnl_percent"`
	TotalReturnPercent   float64        `json:"total_return_percent"`
	NumPositions         int            `json:"num_positions"`
	Positions            []PositionView `json:"positions"`
	MostConcentrated     string         `json:"most_concentrated,omitempty"`
	DailyPnL             *DailyPnLStats `json:"daily_pnl,omitempty"`
}

// DailyPnLStats summarizes the per-day realized P&L history.
type DailyPnLStats struct {
	Avg   float64 `json:"avg"`
	Best  float64 `json:"best"`
	Worst float64 `json:"worst"`
}

// Analyzer computes derived portfolio metrics.
type Analyzer struct {
	account *ledger.Account
	gateway marketdata.Gateway
	log     zerolog.Logger
}

// NewAnalyzer creates an analyzer over the given account and gateway.
func NewAnalyzer(account *ledger.Account, gateway marketdata.Gateway, logger zerolog.Logger) *Analyzer {
	return &Analyzer{
		account: account,
		gateway: gateway,
		log:     logger.With().Str("component", "analyzer").Logger(),
	}
}

// Gateway returns the market data source the analyzer reads from.
func (a *Analyzer) Gateway() marketdata.Gateway {
	return a.gateway
}

// Summary returns the current account snapshot: cash, priced positions,
// and total equity.
func (a *Analyzer) Summary(ctx context.Context) *Summary {
	views, equity, unrealized := a.pricedPositions(ctx)

	return &Summary{
		Cash:             a.account.Cash(),
		InitialCash:      a.account.InitialCash(),
		TotalEquity:      equity,
		UnrealizedPnL:    unrealized,
		TodayRealizedPnL: a.account.TodayRealizedPnL(),
		Positions:        views,
	}
}

// Analyze computes composition and performance metrics for the portfolio.
func (a *Analyzer) Analyze(ctx context.Context) *Analysis {
	views, equity, unrealized := a.pricedPositions(ctx)

	cash := a.account.Cash()
	invested := equity - cash

	var investedCost float64
	for _, v := range views {
		investedCost += float64(v.Quantity) * v.AverageCost
	}

	analysis := &Analysis{
		TotalEquity:   equity,
		Cash:          cash,
		Invested:      invested,
		UnrealizedPnL: unrealized,
		NumPositions:  len(views),
		Positions:     views,
	}

	if equity > 0 {
		analysis.CashPercent = cash / equity * 100
		analysis.InvestedPercent = invested / equity * 100

		var maxWeight float64
		for i := range views {
			views[i].Weight = views[i].MarketValue / equity * 100
			if views[i].Weight > maxWeight {
				maxWeight = views[i].Weight
				analysis.MostConcentrated = views[i].Symbol
			}
		}
	}
	if investedCost > 0 {
		analysis.UnrealizedPnLPercent = unrealized / investedCost * 100
	}

	initial := a.account.InitialCash()
	if initial > 0 {
		analysis.TotalReturnPercent = (equity - initial) / initial * 100
	}

	if daily := a.account.DailyPnL(); len(daily) > 0 {
		stats := &DailyPnLStats{}
		first := true
		var sum float64
		for _, v := range daily {
			sum += v
			if first || v > stats.Best {
				stats.Best = v
			}
			if first || v < stats.Worst {
				stats.Worst = v
			}
			first = false
		}
		stats.Avg = sum / float64(len(daily))
		analysis.DailyPnL = stats
	}

	return analysis
}

// pricedPositions fetches a fresh quote for every held symbol and returns
// the priced views together with total equity and total unrealized P&L.
// A failed quote degrades that position to its cost basis.
func (a *Analyzer) pricedPositions(ctx context.Context) ([]PositionView, float64, float64) {
	positions := a.account.Positions()
	views := make([]PositionView, 0, len(positions))

	equity := a.account.Cash()
	var unrealized float64

	for _, pos := range positions {
		view := PositionView{
			Symbol:      pos.Symbol,
			Quantity:    pos.Quantity,
			AverageCost: pos.AverageCost,
		}

		quote, err := a.gateway.GetQuote(ctx, pos.Symbol)
		if err != nil {
			a.log.Warn().Err(err).Str("symbol", pos.Symbol).Msg("Price unavailable, using cost basis")
			view.CurrentPrice = pos.AverageCost
			view.PriceAvailable = false
		} else {
			view.CurrentPrice = quote.Price
			view.PriceAvailable = true
		}

		view.MarketValue = float64(view.Quantity) * view.CurrentPrice
		if view.PriceAvailable {
			view.UnrealizedPnL = float64(view.Quantity) * (view.CurrentPrice - view.AverageCost)
			if view.AverageCost > 0 {
				view.UnrealizedPnLPercent = (view.CurrentPrice - view.AverageCost) / view.AverageCost * 100
			}
		}

		equity += view.MarketValue
		unrealized += view.UnrealizedPnL
		views = append(views, view)
	}

	return views, equity, unrealized
}

// Historical fetches candles for the window and summarizes them.
func (a *Analyzer) Historical(ctx context.Context, symbol, period, interval string) (*models.HistoricalSummary, error) {
	candles, err := a.gateway.GetHistorical(ctx, symbol, period, interval)
	if err != nil {
		return nil, err
	}
	return marketdata.Summarize(symbol, period, interval, candles), nil
}
