package cli

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"riskledger/internal/backtest"
	"riskledger/internal/config"
	apperrors "riskledger/internal/errors"
	"riskledger/internal/logging"
	"riskledger/internal/marketdata"
	"riskledger/internal/report"
	"riskledger/internal/risk"
	"riskledger/internal/store"
	"riskledger/internal/strategy"
)

const dateLayout = "2006-01-02"

func newRunCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <symbol>",
		Short: "Simulate fills over a daily price series and aggregate PnL and risk",
		Long: `Download (or reuse) the Stooq daily OHLCV series for a symbol, walk it
day by day applying moving-average crossover fills to a ledger, then
compute drawdown and rolling historical VaR over the resulting equity
series and evaluate the configured risk limits for every date.

Outputs are written to the output directory: pnl_timeseries.csv,
positions.csv, alerts.csv and risk_report.json. The run summary is also
recorded in the local run store (see 'riskledger runs').`,
		Example: `  riskledger run spy.us
  riskledger run aapl.us --start 2015-01-01 --cash 250000
  riskledger run spy.us --fast 10 --slow 50 --var-window 100`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSimulation(cmd, app, args[0])
		},
	}

	flags := cmd.Flags()
	flags.String("start", "", "start date YYYY-MM-DD")
	flags.String("end", "", "end date YYYY-MM-DD")
	flags.Float64("cash", 0, "initial cash")
	flags.Float64("slippage-bps", 0, "slippage in bps applied on fill price")
	flags.Float64("commission", 0, "fixed commission per fill")
	flags.Int("fast", 0, "fast MA window")
	flags.Int("slow", 0, "slow MA window")
	flags.Int("trade-size", 0, "shares per trade event")
	flags.Int("var-window", 0, "rolling window length for historical VaR")
	flags.Float64("var-alpha", 0, "VaR confidence level (e.g. 0.99)")
	flags.Float64("max-gross", 0, "max gross exposure before alert")
	flags.Float64("max-dd", 0, "max drawdown before alert")
	flags.Float64("max-var", 0, "max VaR before alert")
	flags.String("cache-dir", "", "cache directory for downloaded CSVs")
	flags.String("out-dir", "", "output directory")
	flags.Bool("force-download", false, "re-download even if cached")
	flags.Bool("no-save", false, "do not record the run in the run store")

	return cmd
}

func runSimulation(cmd *cobra.Command, app *App, symbol string) error {
	output := NewOutput(cmd)
	cfg := *app.Config
	applyRunFlags(cmd, &cfg)

	start, end, err := parseRange(cmd)
	if err != nil {
		return err
	}

	logger := logging.WithSymbol(app.Logger, symbol)
	ctx := context.Background()

	force, _ := cmd.Flags().GetBool("force-download")
	client := marketdata.NewStooqClient(time.Duration(cfg.Data.TimeoutSeconds) * time.Second)
	csvPath, err := client.Download(ctx, symbol, cfg.Data.CacheDir, force)
	if err != nil {
		output.Error("Failed to fetch price data: %v", err)
		return err
	}
	logger.Debug().Str("path", csvPath).Msg("price data ready")

	bars, err := marketdata.LoadCSV(csvPath)
	if err != nil {
		output.Error("Failed to load price data: %v", err)
		return err
	}
	bars = marketdata.FilterRange(bars, start, end)

	stratCfg := strategy.Config{
		Fast:      cfg.Strategy.Fast,
		Slow:      cfg.Strategy.Slow,
		TradeSize: cfg.Strategy.TradeSize,
	}
	if len(bars) < strategy.MinHistory(stratCfg) {
		err := apperrors.NewConfigError("bars",
			"not enough rows for the MA windows; use an earlier start or smaller windows")
		output.Error("%v", err)
		return err
	}

	closes := make([]float64, len(bars))
	for i, bar := range bars {
		closes[i] = bar.Close
	}
	regimes := strategy.Regimes(closes, stratCfg.Fast, stratCfg.Slow)

	runner := backtest.NewRunner(logger)
	result, err := runner.Run(backtest.RunConfig{
		Symbol:      symbol,
		Bars:        bars,
		Regimes:     regimes,
		Strategy:    strategy.NewCrossover(stratCfg),
		InitialCash: cfg.Execution.InitialCash,
		SlippageBps: cfg.Execution.SlippageBps,
		Commission:  cfg.Execution.Commission,
		Limits: risk.Limits{
			MaxGrossExposure: cfg.Risk.MaxGrossExposure,
			MaxDrawdown:      cfg.Risk.MaxDrawdown,
			MaxVaR:           cfg.Risk.MaxVaR,
		},
		VaR: risk.VaRSpec{
			Window: cfg.Risk.VaRWindow,
			Alpha:  cfg.Risk.VaRAlpha,
		},
	})
	if err != nil {
		output.Error("Run failed: %v", err)
		return err
	}

	paths, err := report.WriteAll(cfg.Data.OutDir, result)
	if err != nil {
		output.Error("Failed to write outputs: %v", err)
		return err
	}

	runID := saveRun(ctx, cmd, app, result)

	if output.IsJSON() {
		return output.JSON(map[string]interface{}{
			"run_id":  runID,
			"summary": result.Summary,
			"outputs": paths,
		})
	}

	report.PrintSummary(output.Writer(), result)
	output.Println()
	for _, p := range paths {
		output.Dim("  wrote %s", p)
	}
	if runID != "" {
		output.Dim("  recorded as %s", runID)
	}
	return nil
}

// saveRun records the run in the store; failures are logged, not fatal,
// since the file outputs already carry the result.
func saveRun(ctx context.Context, cmd *cobra.Command, app *App, result *backtest.Result) string {
	noSave, _ := cmd.Flags().GetBool("no-save")
	if noSave || app.Store == nil {
		return ""
	}

	now := time.Now()
	rec := &store.RunRecord{
		ID:        store.NewRunID(now),
		CreatedAt: now,
		Summary:   result.Summary,
	}
	if err := app.Store.SaveRun(ctx, rec, result.Fills, result.Alerts); err != nil {
		app.Logger.Warn().Err(err).Msg("failed to record run")
		return ""
	}
	return rec.ID
}

func applyRunFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("cash") {
		cfg.Execution.InitialCash, _ = flags.GetFloat64("cash")
	}
	if flags.Changed("slippage-bps") {
		cfg.Execution.SlippageBps, _ = flags.GetFloat64("slippage-bps")
	}
	if flags.Changed("commission") {
		cfg.Execution.Commission, _ = flags.GetFloat64("commission")
	}
	if flags.Changed("fast") {
		cfg.Strategy.Fast, _ = flags.GetInt("fast")
	}
	if flags.Changed("slow") {
		cfg.Strategy.Slow, _ = flags.GetInt("slow")
	}
	if flags.Changed("trade-size") {
		cfg.Strategy.TradeSize, _ = flags.GetInt("trade-size")
	}
	if flags.Changed("var-window") {
		cfg.Risk.VaRWindow, _ = flags.GetInt("var-window")
	}
	if flags.Changed("var-alpha") {
		cfg.Risk.VaRAlpha, _ = flags.GetFloat64("var-alpha")
	}
	if flags.Changed("max-gross") {
		cfg.Risk.MaxGrossExposure, _ = flags.GetFloat64("max-gross")
	}
	if flags.Changed("max-dd") {
		cfg.Risk.MaxDrawdown, _ = flags.GetFloat64("max-dd")
	}
	if flags.Changed("max-var") {
		cfg.Risk.MaxVaR, _ = flags.GetFloat64("max-var")
	}
	if flags.Changed("cache-dir") {
		cfg.Data.CacheDir, _ = flags.GetString("cache-dir")
	}
	if flags.Changed("out-dir") {
		cfg.Data.OutDir, _ = flags.GetString("out-dir")
	}
}

func parseRange(cmd *cobra.Command) (time.Time, time.Time, error) {
	var start, end time.Time

	if s, _ := cmd.Flags().GetString("start"); s != "" {
		t, err := time.Parse(dateLayout, s)
		if err != nil {
			return start, end, apperrors.NewConfigError("start", "must be YYYY-MM-DD")
		}
		start = t
	}
	if s, _ := cmd.Flags().GetString("end"); s != "" {
		t, err := time.Parse(dateLayout, s)
		if err != nil {
			return start, end, apperrors.NewConfigError("end", "must be YYYY-MM-DD")
		}
		end = t
	}
	return start, end, nil
}
