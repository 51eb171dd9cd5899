package backtest

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "riskledger/internal/errors"
	"riskledger/internal/models"
	"riskledger/internal/risk"
	"riskledger/internal/strategy"
)

// scriptStrategy plays back a fixed decision per date and ignores the
// regime, so runner tests control exactly what trades happen.
type scriptStrategy struct {
	decisions map[string]*models.Decision
}

func (s scriptStrategy) Decide(date time.Time, _ string, _ int, _ int) *models.Decision {
	return s.decisions[date.Format("2006-01-02")]
}

var runBase = time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)

func flatBars(n int, open, close float64) []models.Bar {
	bars := make([]models.Bar, n)
	for i := range bars {
		bars[i] = models.Bar{
			Date:  runBase.AddDate(0, 0, i),
			Open:  open,
			High:  close,
			Low:   open,
			Close: close,
		}
	}
	return bars
}

func baseConfig(bars []models.Bar, strat strategy.Strategy) RunConfig {
	return RunConfig{
		Symbol:      "AAPL.US",
		Bars:        bars,
		Regimes:     make([]int, len(bars)),
		Strategy:    strat,
		InitialCash: 100_000,
		SlippageBps: 0,
		Commission:  1,
		Limits:      risk.DefaultLimits(),
		VaR:         risk.DefaultVaRSpec(),
	}
}

func TestRunMarkToMarket(t *testing.T) {
	bars := []models.Bar{
		{Date: runBase, Open: 100, High: 110, Low: 100, Close: 110},
		{Date: runBase.AddDate(0, 0, 1), Open: 110, High: 120, Low: 110, Close: 120},
	}
	strat := scriptStrategy{decisions: map[string]*models.Decision{
		"2024-01-02": {Side: models.SideBuy, Qty: 25},
	}}

	result, err := NewRunner(zerolog.Nop()).Run(baseConfig(bars, strat))
	require.NoError(t, err)
	require.Len(t, result.Series, 2)

	// day one: buy 25 @ 100 open, commission 1, mark at 110 close
	day1 := result.Series[0]
	assert.Equal(t, 97_499.0, day1.Cash)
	assert.Equal(t, 2_750.0, day1.MarketValue)
	assert.Equal(t, 100_249.0, day1.Equity)
	assert.Equal(t, 0.0, day1.DailyPnL)
	assert.Nil(t, day1.VaR, "two bars never fill a VaR window")

	// day two: no trade, position marks up with the close
	day2 := result.Series[1]
	assert.Equal(t, 97_499.0, day2.Cash)
	assert.Equal(t, 100_499.0, day2.Equity)
	assert.Equal(t, 250.0, day2.DailyPnL)
	assert.Equal(t, 0.0, day2.Drawdown)

	require.Len(t, result.Fills, 1)
	assert.Equal(t, 25, result.Fills[0].Qty)

	assert.Equal(t, "AAPL.US", result.Summary.Symbol)
	assert.Equal(t, bars[0].Date, result.Summary.Start)
	assert.Equal(t, bars[1].Date, result.Summary.End)
	assert.Equal(t, 100_499.0, result.Summary.FinalEquity)
	assert.Equal(t, 1, result.Summary.NumFills)
	assert.Nil(t, result.Summary.MaxVaR)
}

func TestRunAppliesSlippageAgainstTheTrader(t *testing.T) {
	bars := flatBars(2, 100, 100)
	strat := scriptStrategy{decisions: map[string]*models.Decision{
		"2024-01-02": {Side: models.SideBuy, Qty: 10},
		"2024-01-03": {Side: models.SideSell, Qty: 10},
	}}

	cfg := baseConfig(bars, strat)
	cfg.SlippageBps = 2

	result, err := NewRunner(zerolog.Nop()).Run(cfg)
	require.NoError(t, err)
	require.Len(t, result.Fills, 2)

	assert.InDelta(t, 100.02, result.Fills[0].Price, 1e-9, "buys fill above the open")
	assert.InDelta(t, 99.98, result.Fills[1].Price, 1e-9, "sells fill below the open")
}

func TestRunAbsorbsClampedFills(t *testing.T) {
	bars := flatBars(1, 100, 100)
	strat := scriptStrategy{decisions: map[string]*models.Decision{
		"2024-01-02": {Side: models.SideBuy, Qty: 100},
	}}

	cfg := baseConfig(bars, strat)
	cfg.InitialCash = 1_000

	result, err := NewRunner(zerolog.Nop()).Run(cfg)
	require.NoError(t, err)

	// cash covers 9 shares plus commission; the shortfall is not an error
	require.Len(t, result.Fills, 1)
	assert.Equal(t, 9, result.Fills[0].Qty)
	assert.Equal(t, 99.0, result.Cash)
}

func TestRunVaRWarmupInSeries(t *testing.T) {
	bars := flatBars(30, 100, 100)

	cfg := baseConfig(bars, scriptStrategy{})
	cfg.VaR.Window = 20

	result, err := NewRunner(zerolog.Nop()).Run(cfg)
	require.NoError(t, err)
	require.Len(t, result.Series, 30)

	for i := 0; i < 19; i++ {
		assert.Nil(t, result.Series[i].VaR, "index %d", i)
	}
	for i := 19; i < 30; i++ {
		require.NotNil(t, result.Series[i].VaR, "index %d", i)
	}
	require.NotNil(t, result.Summary.MaxVaR)
	assert.Equal(t, 0.0, *result.Summary.MaxVaR, "a flat series carries no VaR")
}

func TestRunAlertsSortedByDateThenType(t *testing.T) {
	bars := flatBars(3, 100, 100)
	strat := scriptStrategy{decisions: map[string]*models.Decision{
		"2024-01-02": {Side: models.SideBuy, Qty: 10},
	}}

	cfg := baseConfig(bars, strat)
	// zero limits make every day breach both gross exposure and drawdown
	cfg.Limits = risk.Limits{MaxGrossExposure: 0, MaxDrawdown: 0, MaxVaR: 1}

	result, err := NewRunner(zerolog.Nop()).Run(cfg)
	require.NoError(t, err)
	require.Len(t, result.Alerts, 6)

	for i := 1; i < len(result.Alerts); i++ {
		prev, cur := result.Alerts[i-1], result.Alerts[i]
		ok := prev.Date.Before(cur.Date) ||
			(prev.Date.Equal(cur.Date) && prev.Type <= cur.Type)
		assert.True(t, ok, "alerts out of order at %d: %v then %v", i, prev, cur)
	}
	assert.Equal(t, models.AlertDrawdown, result.Alerts[0].Type)
	assert.Equal(t, models.AlertGrossExposure, result.Alerts[1].Type)
}

func TestRunValidation(t *testing.T) {
	bars := flatBars(2, 100, 100)
	strat := scriptStrategy{}

	cases := []struct {
		name   string
		mutate func(*RunConfig)
	}{
		{"empty symbol", func(c *RunConfig) { c.Symbol = "" }},
		{"no bars", func(c *RunConfig) { c.Bars = nil; c.Regimes = nil }},
		{"nil strategy", func(c *RunConfig) { c.Strategy = nil }},
		{"regimes misaligned", func(c *RunConfig) { c.Regimes = []int{1} }},
		{"non-positive cash", func(c *RunConfig) { c.InitialCash = 0 }},
		{"negative commission", func(c *RunConfig) { c.Commission = -1 }},
		{"var window too small", func(c *RunConfig) { c.VaR.Window = 19 }},
		{"var alpha out of range", func(c *RunConfig) { c.VaR.Alpha = 1 }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := baseConfig(bars, strat)
			tc.mutate(&cfg)
			_, err := NewRunner(zerolog.Nop()).Run(cfg)
			assert.ErrorIs(t, err, apperrors.ErrConfigInvalid)
		})
	}
}
