// Package marketdata provides access to quotes and historical bars. The
// engine treats the gateway as an untrusted, possibly-slow dependency:
// every call is bounded by a timeout and fails closed.
package marketdata

import (
	"context"
	"strings"
	"time"

	apperrors "paper-trader/internal/errors"
	"paper-trader/internal/models"
)

// Gateway is the contract for a market data source.
type Gateway interface {
	// GetQuote returns the current quote for a symbol. It fails with an
	// error wrapping errors.ErrDataUnavailable on timeout or upstream
	// failure.
	GetQuote(ctx context.Context, symbol string) (*models.Quote, error)

	// GetHistorical returns ordered OHLCV candles for the given period
	// (1d, 5d, 1mo, 3mo, 6mo, 1y, 2y, 5y, ytd, max) and interval
	// (1m, 5m, 15m, 30m, 1h, 1d, 1wk, 1mo).
	GetHistorical(ctx context.Context, symbol, period, interval string) ([]models.Candle, error)
}

// periodStart resolves a period string to its window start relative to now.
func periodStart(period string, now time.Time) (time.Time, error) {
	switch strings.ToLower(period) {
	case "1d":
		return now.AddDate(0, 0, -1), nil
	case "5d":
		return now.AddDate(0, 0, -5), nil
	case "1mo":
		return now.AddDate(0, -1, 0), nil
	case "3mo":
		return now.AddDate(0, -3, 0), nil
	case "6mo":
		return now.AddDate(0, -6, 0), nil
	case "1y":
		return now.AddDate(-1, 0, 0), nil
	case "2y":
		return now.AddDate(-2, 0, 0), nil
	case "5y":
		return now.AddDate(-5, 0, 0), nil
	case "ytd":
		return time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, now.Location()), nil
	case "max":
		return now.AddDate(-20, 0, 0), nil
	default:
		return time.Time{}, apperrors.NewValidationError("period", period, "unknown period")
	}
}

// Summarize computes window statistics over an ordered candle series.
func Summarize(symbol, period, interval string, candles []models.Candle) *models.HistoricalSummary {
	s := &models.HistoricalSummary{
		Symbol:   symbol,
		Period:   period,
		Interval: interval,
		Candles:  candles,
	}
	if len(candles) == 0 {
		return s
	}

	first, last := candles[0], candles[len(candles)-1]
	s.StartPrice = first.Close
	s.EndPrice = last.Close
	s.Change = last.Close - first.Close
	if first.Close != 0 {
		s.ChangePercent = s.Change / first.Close * 100
	}

	s.High = candles[0].High
	s.Low = candles[0].Low
	var totalVolume int64
	for _, c := range candles {
		if c.High > s.High {
			s.High = c.High
		}
		if c.Low < s.Low {
			s.Low = c.Low
		}
		totalVolume += c.Volume
	}
	s.AvgVolume = float64(totalVolume) / float64(len(candles))

	return s
}
