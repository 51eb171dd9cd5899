// Package backtest walks a daily bar series, simulating fills and
// aggregating PnL and risk over the resulting snapshot history.
package backtest

import (
	"sort"

	"github.com/rs/zerolog"

	apperrors "riskledger/internal/errors"
	"riskledger/internal/models"
	"riskledger/internal/portfolio"
	"riskledger/internal/risk"
	"riskledger/internal/strategy"
)

// RunConfig describes one simulation run. All values are fixed before the
// run starts and never mutated by it.
type RunConfig struct {
	Symbol string
	Bars   []models.Bar

	// Regimes carries the externally computed trend signal, one value
	// per bar. The runner passes it through to the strategy untouched.
	Regimes  []int
	Strategy strategy.Strategy

	InitialCash float64
	SlippageBps float64
	Commission  float64

	Limits risk.Limits
	VaR    risk.VaRSpec
}

// Runner executes simulation runs. The zero value is usable; the logger
// only adds per-fill debug output.
type Runner struct {
	logger zerolog.Logger
}

// NewRunner creates a runner that logs through the given logger.
func NewRunner(logger zerolog.Logger) *Runner {
	return &Runner{logger: logger}
}

// Run walks the bar sequence one day at a time: a strategy decision at
// the open (slippage-adjusted, fixed commission), a mark-to-market
// snapshot at the close. After the walk it derives drawdown, daily PnL
// and rolling VaR over the snapshot series and evaluates limits for
// every date.
//
// Structural problems abort the run before it starts. Clamped or dropped
// fills do not; the ledger absorbs those silently.
func (r *Runner) Run(cfg RunConfig) (*Result, error) {
	if err := validate(cfg); err != nil {
		return nil, err
	}

	ledger, err := portfolio.NewLedger(cfg.InitialCash)
	if err != nil {
		return nil, err
	}

	snaps := make([]models.Snapshot, 0, len(cfg.Bars))
	for i, bar := range cfg.Bars {
		pos := ledger.GetPosition(cfg.Symbol)
		decision := cfg.Strategy.Decide(bar.Date, cfg.Symbol, cfg.Regimes[i], pos.Qty)

		if decision != nil {
			fill := models.Fill{
				Date:       bar.Date,
				Symbol:     cfg.Symbol,
				Side:       decision.Side,
				Qty:        decision.Qty,
				Price:      applySlippage(bar.Open, decision.Side, cfg.SlippageBps),
				Commission: cfg.Commission,
			}
			if err := ledger.ApplyFill(fill); err != nil {
				return nil, err
			}
			r.logger.Debug().
				Time("date", bar.Date).
				Str("side", string(decision.Side)).
				Int("requested_qty", decision.Qty).
				Float64("price", fill.Price).
				Msg("fill submitted")
		}

		snaps = append(snaps, ledger.Snapshot(bar.Date, map[string]float64{cfg.Symbol: bar.Close}))
	}

	equity := make([]float64, len(snaps))
	for i, snap := range snaps {
		equity[i] = snap.Equity
	}

	drawdown := risk.Drawdown(equity)

	// Daily PnL for VaR is the first difference of equity; day one is 0.
	dailyPnL := make([]float64, len(equity))
	for i := 1; i < len(equity); i++ {
		dailyPnL[i] = equity[i] - equity[i-1]
	}

	varSeries, err := risk.RollingVaR(dailyPnL, cfg.VaR.Window, cfg.VaR.Alpha)
	if err != nil {
		return nil, err
	}

	series := make([]SeriesRow, len(snaps))
	var alerts []models.Alert
	for i, snap := range snaps {
		series[i] = SeriesRow{
			Snapshot: snap,
			Drawdown: drawdown[i],
			DailyPnL: dailyPnL[i],
			VaR:      varSeries[i],
		}
		alerts = append(alerts, risk.CheckLimits(snap, drawdown[i], varSeries[i], cfg.Limits)...)
	}

	sort.SliceStable(alerts, func(i, j int) bool {
		if !alerts[i].Date.Equal(alerts[j].Date) {
			return alerts[i].Date.Before(alerts[j].Date)
		}
		return alerts[i].Type < alerts[j].Type
	})

	result := &Result{
		Series:      series,
		Positions:   ledger.Positions(),
		Cash:        ledger.Cash(),
		RealizedPnL: ledger.RealizedPnL(),
		Fills:       ledger.Fills(),
		Alerts:      alerts,
		Summary:     buildSummary(cfg, series, ledger.Fills(), alerts),
	}

	r.logger.Info().
		Str("symbol", cfg.Symbol).
		Int("bars", len(cfg.Bars)).
		Int("fills", len(result.Fills)).
		Int("alerts", len(result.Alerts)).
		Float64("final_equity", result.Summary.FinalEquity).
		Msg("run complete")

	return result, nil
}

func validate(cfg RunConfig) error {
	if cfg.Symbol == "" {
		return apperrors.NewConfigError("symbol", "must not be empty")
	}
	if len(cfg.Bars) == 0 {
		return apperrors.NewConfigError("bars", "no bars in range")
	}
	if cfg.Strategy == nil {
		return apperrors.NewConfigError("strategy", "must not be nil")
	}
	if len(cfg.Regimes) != len(cfg.Bars) {
		return apperrors.NewConfigError("regimes", "must align one-to-one with bars")
	}
	if cfg.InitialCash <= 0 {
		return apperrors.NewConfigError("initial_cash", "must be positive")
	}
	if cfg.Commission < 0 {
		return apperrors.NewConfigError("commission", "must not be negative")
	}
	if cfg.VaR.Window < risk.MinVaRWindow {
		return apperrors.NewConfigError("var_window", "window too small; use >= 20")
	}
	if cfg.VaR.Alpha <= 0 || cfg.VaR.Alpha >= 1 {
		return apperrors.NewConfigError("var_alpha", "alpha must be in (0, 1)")
	}
	return nil
}

// applySlippage moves the fill price against the trader by the configured
// basis points: buys fill higher, sells fill lower.
func applySlippage(price float64, side models.Side, bps float64) float64 {
	slip := bps / 10_000
	if side == models.SideSell {
		return price * (1 - slip)
	}
	return price * (1 + slip)
}
