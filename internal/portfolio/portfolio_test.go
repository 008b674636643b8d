package portfolio

import (
	"context"
	"math"
	"reflect"
	"testing"

	"github.com/rs/zerolog"

	"paper-trader/internal/ledger"
	"paper-trader/internal/marketdata"
)

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-6
}

func TestSummaryPricesPositions(t *testing.T) {
	account, err := ledger.New(100000)
	if err != nil {
		t.Fatalf("ledger.New: %v", err)
	}
	account.ApplyBuy("AAPL", 10, 150.0, 0)
	account.ApplyBuy("AAPL", 10, 160.0, 0) // avg 155

	gateway := marketdata.NewStaticGateway()
	gateway.SetPrice("AAPL", 170.0)

	analyzer := NewAnalyzer(account, gateway, zerolog.Nop())
	summary := analyzer.Summary(context.Background())

	if !approx(summary.Cash, 96900.0) {
		t.Errorf("cash = %.2f, want 96900.00", summary.Cash)
	}
	if len(summary.Positions) != 1 {
		t.Fatalf("positions len = %d, want 1", len(summary.Positions))
	}

	view := summary.Positions[0]
	if !view.PriceAvailable {
		t.Error("price should be available")
	}
	if !approx(view.CurrentPrice, 170.0) {
		t.Errorf("current price = %.2f, want 170.00", view.CurrentPrice)
	}
	if !approx(view.UnrealizedPnL, 300.0) {
		t.Errorf("unrealized = %.2f, want 300.00", view.UnrealizedPnL)
	}
	if !approx(view.UnrealizedPnLPercent, (170.0-155.0)/155.0*100) {
		t.Errorf("unrealized %% = %.4f, want %.4f", view.UnrealizedPnLPercent, (170.0-155.0)/155.0*100)
	}
	if !approx(view.MarketValue, 3400.0) {
		t.Errorf("market value = %.2f, want 3400.00", view.MarketValue)
	}

	if !approx(summary.TotalEquity, 96900.0+3400.0) {
		t.Errorf("equity = %.2f, want %.2f", summary.TotalEquity, 96900.0+3400.0)
	}
	if !approx(summary.UnrealizedPnL, 300.0) {
		t.Errorf("total unrealized = %.2f, want 300.00", summary.UnrealizedPnL)
	}
}

func TestSummaryDegradesWhenQuoteFails(t *testing.T) {
	account, _ := ledger.New(100000)
	account.ApplyBuy("AAPL", 10, 150.0, 0)
	account.ApplyBuy("TSLA", 5, 200.0, 0)

	gateway := marketdata.NewStaticGateway()
	gateway.SetPrice("AAPL", 160.0)
	gateway.SetFailing("TSLA")

	analyzer := NewAnalyzer(account, gateway, zerolog.Nop())
	summary := analyzer.Summary(context.Background())

	if len(summary.Positions) != 2 {
		t.Fatalf("positions len = %d, want 2", len(summary.Positions))
	}

	// Positions are sorted, so AAPL comes first.
	aapl, tsla := summary.Positions[0], summary.Positions[1]

	if !aapl.PriceAvailable {
		t.Error("AAPL price should be available")
	}
	if tsla.PriceAvailable {
		t.Error("TSLA price should be unavailable")
	}
	// The degraded position is carried at cost with zero unrealized P&L.
	if !approx(tsla.CurrentPrice, 200.0) {
		t.Errorf("TSLA carried at %.2f, want cost basis 200.00", tsla.CurrentPrice)
	}
	if tsla.UnrealizedPnL != 0 {
		t.Errorf("TSLA unrealized = %.2f, want 0", tsla.UnrealizedPnL)
	}
	if !approx(summary.UnrealizedPnL, 100.0) {
		t.Errorf("total unrealized = %.2f, want 100.00 (AAPL only)", summary.UnrealizedPnL)
	}
}

func TestSummaryIdempotent(t *testing.T) {
	account, _ := ledger.New(100000)
	account.ApplyBuy("AAPL", 10, 150.0, 0)
	account.ApplyBuy("TSLA", 5, 200.0, 0)

	gateway := marketdata.NewStaticGateway()
	gateway.SetPrice("AAPL", 160.0)
	gateway.SetPrice("TSLA", 210.0)

	analyzer := NewAnalyzer(account, gateway, zerolog.Nop())

	first := analyzer.Summary(context.Background())
	second := analyzer.Summary(context.Background())

	// Reading the summary mutates nothing, so a second read with no
	// intervening order is identical.
	if !reflect.DeepEqual(first, second) {
		t.Errorf("summaries differ:\nfirst:  %+v\nsecond: %+v", first, second)
	}

	// A price move changes only equity and the priced fields; the ledger
	// state underneath stays fixed.
	gateway.SetPrice("AAPL", 180.0)
	third := analyzer.Summary(context.Background())

	if third.Cash != first.Cash {
		t.Errorf("cash moved on a price change: %.2f -> %.2f", first.Cash, third.Cash)
	}
	if third.InitialCash != first.InitialCash {
		t.Errorf("initial cash moved: %.2f -> %.2f", first.InitialCash, third.InitialCash)
	}
	if third.TodayRealizedPnL != first.TodayRealizedPnL {
		t.Errorf("realized P&L moved: %.2f -> %.2f", first.TodayRealizedPnL, third.TodayRealizedPnL)
	}
	if len(third.Positions) != len(first.Positions) {
		t.Fatalf("position count changed: %d -> %d", len(first.Positions), len(third.Positions))
	}
	for i := range third.Positions {
		if third.Positions[i].Symbol != first.Positions[i].Symbol ||
			third.Positions[i].Quantity != first.Positions[i].Quantity ||
			third.Positions[i].AverageCost != first.Positions[i].AverageCost {
			t.Errorf("held position changed on a price change: %+v -> %+v", first.Positions[i], third.Positions[i])
		}
	}
	if third.TotalEquity == first.TotalEquity {
		t.Error("equity should reflect the new price")
	}
	if !approx(third.Positions[0].CurrentPrice, 180.0) {
		t.Errorf("AAPL price = %.2f, want 180.00", third.Positions[0].CurrentPrice)
	}
}

func TestAnalyzeComposition(t *testing.T) {
	account, _ := ledger.New(100000)
	account.ApplyBuy("AAPL", 20, 155.0, 0)
	account.ApplyBuy("TSLA", 5, 200.0, 0)

	gateway := marketdata.NewStaticGateway()
	gateway.SetPrice("AAPL", 170.0)
	gateway.SetPrice("TSLA", 180.0)

	analyzer := NewAnalyzer(account, gateway, zerolog.Nop())
	analysis := analyzer.Analyze(context.Background())

	cash := 100000.0 - 20*155.0 - 5*200.0 // 95900
	aaplValue := 20 * 170.0               // 3400
	tslaValue := 5 * 180.0                // 900
	equity := cash + aaplValue + tslaValue

	if !approx(analysis.TotalEquity, equity) {
		t.Errorf("equity = %.2f, want %.2f", analysis.TotalEquity, equity)
	}
	if !approx(analysis.Invested, aaplValue+tslaValue) {
		t.Errorf("invested = %.2f, want %.2f", analysis.Invested, aaplValue+tslaValue)
	}
	if !approx(analysis.CashPercent+analysis.InvestedPercent, 100.0) {
		t.Errorf("cash%% + invested%% = %.4f, want 100", analysis.CashPercent+analysis.InvestedPercent)
	}
	if analysis.NumPositions != 2 {
		t.Errorf("num positions = %d, want 2", analysis.NumPositions)
	}
	if analysis.MostConcentrated != "AAPL" {
		t.Errorf("most concentrated = %s, want AAPL", analysis.MostConcentrated)
	}

	var weightSum float64
	for _, p := range analysis.Positions {
		weightSum += p.Weight
	}
	if !approx(weightSum+analysis.CashPercent, 100.0) {
		t.Errorf("weights + cash%% = %.4f, want 100", weightSum+analysis.CashPercent)
	}

	unrealized := 20*(170.0-155.0) + 5*(180.0-200.0) // 300 - 100 = 200
	if !approx(analysis.UnrealizedPnL, unrealized) {
		t.Errorf("unrealized = %.2f, want %.2f", analysis.UnrealizedPnL, unrealized)
	}
	wantReturn := (equity - 100000.0) / 100000.0 * 100
	if !approx(analysis.TotalReturnPercent, wantReturn) {
		t.Errorf("total return %% = %.4f, want %.4f", analysis.TotalReturnPercent, wantReturn)
	}
}

func TestAnalyzeEmptyAccount(t *testing.T) {
	account, _ := ledger.New(100000)
	analyzer := NewAnalyzer(account, marketdata.NewStaticGateway(), zerolog.Nop())

	analysis := analyzer.Analyze(context.Background())

	if analysis.NumPositions != 0 {
		t.Errorf("num positions = %d, want 0", analysis.NumPositions)
	}
	if !approx(analysis.CashPercent, 100.0) {
		t.Errorf("cash %% = %.2f, want 100", analysis.CashPercent)
	}
	if analysis.MostConcentrated != "" {
		t.Errorf("most concentrated = %q, want empty", analysis.MostConcentrated)
	}
	if analysis.DailyPnL != nil {
		t.Error("daily stats should be nil with no realized history")
	}
	if !approx(analysis.TotalReturnPercent, 0) {
		t.Errorf("total return %% = %.4f, want 0", analysis.TotalReturnPercent)
	}
}

func TestAnalyzeDailyStats(t *testing.T) {
	account, _ := ledger.New(100000)
	account.ApplyBuy("AAPL", 10, 100.0, 0)
	account.ApplySell("AAPL", 10, 120.0, 0) // +200 realized today

	analyzer := NewAnalyzer(account, marketdata.NewStaticGateway(), zerolog.Nop())
	analysis := analyzer.Analyze(context.Background())

	if analysis.DailyPnL == nil {
		t.Fatal("expected daily stats")
	}
	if !approx(analysis.DailyPnL.Avg, 200.0) {
		t.Errorf("avg = %.2f, want 200.00", analysis.DailyPnL.Avg)
	}
	if !approx(analysis.DailyPnL.Best, 200.0) || !approx(analysis.DailyPnL.Worst, 200.0) {
		t.Errorf("best/worst = %.2f/%.2f, want 200.00/200.00", analysis.DailyPnL.Best, analysis.DailyPnL.Worst)
	}
}

func TestHistoricalSummarizesCandles(t *testing.T) {
	account, _ := ledger.New(100000)
	gateway := marketdata.NewStaticGateway()
	gateway.SetPrice("AAPL", 150.0)

	analyzer := NewAnalyzer(account, gateway, zerolog.Nop())

	summary, err := analyzer.Historical(context.Background(), "AAPL", "1mo", "1d")
	if err != nil {
		t.Fatalf("Historical: %v", err)
	}
	if summary.Symbol != "AAPL" {
		t.Errorf("symbol = %s, want AAPL", summary.Symbol)
	}
	if len(summary.Candles) != 30 {
		t.Errorf("candles = %d, want 30", len(summary.Candles))
	}
	if summary.High < summary.Low {
		t.Errorf("high %.2f < low %.2f", summary.High, summary.Low)
	}
}

func TestHistoricalPropagatesDataErrors(t *testing.T) {
	account, _ := ledger.New(100000)
	gateway := marketdata.NewStaticGateway()
	gateway.SetFailing("AAPL")

	analyzer := NewAnalyzer(account, gateway, zerolog.Nop())

	if _, err := analyzer.Historical(context.Background(), "AAPL", "1mo", "1d"); err == nil {
		t.Fatal("expected error for failing symbol")
	}
}
