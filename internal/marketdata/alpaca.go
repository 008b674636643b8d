package marketdata

import (
	"context"
	"time"

	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"
	"github.com/rs/zerolog"

	apperrors "paper-trader/internal/errors"
	"paper-trader/internal/logging"
	"paper-trader/internal/models"
	"paper-trader/pkg/utils"
)

// Compile-time interface check.
var _ Gateway = (*AlpacaGateway)(nil)

// AlpacaGateway implements Gateway using the Alpaca market-data API.
type AlpacaGateway struct {
	client  *marketdata.Client
	timeout time.Duration
	retry   utils.RetryConfig
	log     zerolog.Logger
}

// AlpacaConfig holds configuration for the Alpaca gateway.
type AlpacaConfig struct {
	APIKey    string
	APISecret string
	DataURL   string
	Timeout   time.Duration
}

// NewAlpacaGateway creates a gateway backed by the Alpaca data API.
func NewAlpacaGateway(cfg AlpacaConfig, logger zerolog.Logger) *AlpacaGateway {
	opts := marketdata.ClientOpts{
		APIKey:    cfg.APIKey,
		APISecret: cfg.APISecret,
	}
	if cfg.DataURL != "" {
		opts.BaseURL = cfg.DataURL
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	retry := utils.DefaultRetryConfig()
	retry.MaxAttempts = 2

	return &AlpacaGateway{
		client:  marketdata.NewClient(opts),
		timeout: timeout,
		retry:   retry,
		log:     logger.With().Str("gateway", "alpaca").Logger(),
	}
}

// GetQuote fetches a snapshot for the symbol and derives the quote from
// its latest trade and daily bars.
func (g *AlpacaGateway) GetQuote(ctx context.Context, symbol string) (*models.Quote, error) {
	start := time.Now()

	snap, err := callWithTimeout(ctx, g.timeout, func() (*marketdata.Snapshot, error) {
		return utils.RetryWithResult(ctx, g.retry, func() (*marketdata.Snapshot, error) {
			return g.client.GetSnapshot(symbol, marketdata.GetSnapshotRequest{})
		})
	})
	if err != nil {
		logging.LogQuote(g.log, symbol, 0, time.Since(start), err)
		return nil, apperrors.NewDataError(symbol, "snapshot fetch failed", apperrors.Wrap(err, apperrors.ErrDataUnavailable.Error()))
	}
	if snap == nil || snap.LatestTrade == nil {
		err := apperrors.NewDataError(symbol, "no trade data", apperrors.ErrDataUnavailable)
		logging.LogQuote(g.log, symbol, 0, time.Since(start), err)
		return nil, err
	}

	quote := &models.Quote{
		Symbol:    symbol,
		Price:     snap.LatestTrade.Price,
		Timestamp: snap.LatestTrade.Timestamp,
	}
	if snap.DailyBar != nil {
		quote.Volume = int64(snap.DailyBar.Volume)
	}
	if snap.PrevDailyBar != nil && snap.PrevDailyBar.Close != 0 {
		quote.Change = quote.Price - snap.PrevDailyBar.Close
		quote.ChangePercent = quote.Change / snap.PrevDailyBar.Close * 100
	}

	logging.LogQuote(g.log, symbol, quote.Price, time.Since(start), nil)
	return quote, nil
}

// GetHistorical fetches OHLCV bars for the requested period and interval.
func (g *AlpacaGateway) GetHistorical(ctx context.Context, symbol, period, interval string) ([]models.Candle, error) {
	now := time.Now()
	windowStart, err := periodStart(period, now)
	if err != nil {
		return nil, err
	}

	timeframe, err := intervalTimeFrame(interval)
	if err != nil {
		return nil, err
	}

	bars, err := callWithTimeout(ctx, g.timeout, func() ([]marketdata.Bar, error) {
		return utils.RetryWithResult(ctx, g.retry, func() ([]marketdata.Bar, error) {
			return g.client.GetBars(symbol, marketdata.GetBarsRequest{
				TimeFrame: timeframe,
				Start:     windowStart,
				End:       now,
			})
		})
	})
	if err != nil {
		return nil, apperrors.NewDataError(symbol, "bar fetch failed", apperrors.Wrap(err, apperrors.ErrDataUnavailable.Error()))
	}
	if len(bars) == 0 {
		return nil, apperrors.NewDataError(symbol, "no bars in window", apperrors.ErrDataUnavailable)
	}

	candles := make([]models.Candle, 0, len(bars))
	for _, b := range bars {
		candles = append(candles, models.Candle{
			Timestamp: b.Timestamp,
			Open:      b.Open,
			High:      b.High,
			Low:       b.Low,
			Close:     b.Close,
			Volume:    int64(b.Volume),
		})
	}
	return candles, nil
}

// intervalTimeFrame maps an interval string onto an Alpaca timeframe.
func intervalTimeFrame(interval string) (marketdata.TimeFrame, error) {
	switch interval {
	case "1m":
		return marketdata.OneMin, nil
	case "5m":
		return marketdata.NewTimeFrame(5, marketdata.Min), nil
	case "15m":
		return marketdata.NewTimeFrame(15, marketdata.Min), nil
	case "30m":
		return marketdata.NewTimeFrame(30, marketdata.Min), nil
	case "1h":
		return marketdata.OneHour, nil
	case "1d":
		return marketdata.OneDay, nil
	case "1wk":
		return marketdata.NewTimeFrame(1, marketdata.Week), nil
	case "1mo":
		return marketdata.NewTimeFrame(1, marketdata.Month), nil
	default:
		return marketdata.TimeFrame{}, apperrors.NewValidationError("interval", interval, "unknown interval")
	}
}

// callWithTimeout runs fn in a goroutine and fails closed when the context
// or the deadline expires first. The SDK client has no context support, so
// an expired call is abandoned rather than cancelled.
func callWithTimeout[T any](ctx context.Context, timeout time.Duration, fn func() (T, error)) (T, error) {
	var zero T

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type result struct {
		value T
		err   error
	}
	ch := make(chan result, 1)
	go func() {
		v, err := fn()
		ch <- result{value: v, err: err}
	}()

	select {
	case <-ctx.Done():
		return zero, apperrors.Wrap(ctx.Err(), apperrors.ErrTimeout.Error())
	case r := <-ch:
		return r.value, r.err
	}
}
