package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"riskledger/internal/store"
	"riskledger/pkg/utils"
)

func newRunsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Browse recorded simulation runs",
	}

	cmd.AddCommand(newRunsListCmd(app))
	cmd.AddCommand(newRunsShowCmd(app))
	return cmd
}

func newRunsListCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recorded runs, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if app.Store == nil {
				output.Error("Run store unavailable")
				return fmt.Errorf("run store unavailable")
			}

			symbol, _ := cmd.Flags().GetString("symbol")
			limit, _ := cmd.Flags().GetInt("limit")

			runs, err := app.Store.ListRuns(context.Background(), symbol, limit)
			if err != nil {
				output.Error("Failed to list runs: %v", err)
				return err
			}

			if output.IsJSON() {
				return output.JSON(runs)
			}
			if len(runs) == 0 {
				output.Dim("No recorded runs.")
				return nil
			}

			output.Printf("%-22s %-10s %-12s %-12s %14s %9s %6s %7s\n",
				"ID", "SYMBOL", "START", "END", "FINAL EQUITY", "MAX DD", "FILLS", "ALERTS")
			for _, run := range runs {
				output.Printf("%-22s %-10s %-12s %-12s %14.2f %8.2f%% %6d %7d\n",
					run.ID, run.Summary.Symbol,
					run.Summary.Start.Format(dateLayout), run.Summary.End.Format(dateLayout),
					run.Summary.FinalEquity, run.Summary.MaxDrawdown*100,
					run.Summary.NumFills, run.Summary.NumAlerts)
			}
			return nil
		},
	}

	cmd.Flags().StringP("symbol", "s", "", "filter by symbol")
	cmd.Flags().IntP("limit", "n", 20, "maximum runs to show")
	return cmd
}

func newRunsShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show a recorded run with its fills and alerts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if app.Store == nil {
				output.Error("Run store unavailable")
				return fmt.Errorf("run store unavailable")
			}

			detail, err := app.Store.GetRun(context.Background(), args[0])
			if err != nil {
				output.Error("Failed to load run: %v", err)
				return err
			}

			if output.IsJSON() {
				return output.JSON(detail)
			}
			printRunDetail(output, detail)
			return nil
		},
	}
}

func printRunDetail(output *Output, detail *store.RunDetail) {
	s := detail.Summary
	output.Bold("%s  %s  %s → %s", detail.ID, s.Symbol,
		s.Start.Format(dateLayout), s.End.Format(dateLayout))
	output.Printf("  Initial cash: %s   Final equity: %s   Max drawdown: %.2f%%\n",
		utils.FormatMoney(s.InitialCash), utils.FormatMoney(s.FinalEquity), s.MaxDrawdown*100)
	if s.MaxVaR != nil {
		output.Printf("  Max VaR: %s (window %d, alpha %.2f)\n", utils.FormatMoney(*s.MaxVaR), s.VaR.Window, s.VaR.Alpha)
	}

	output.Println()
	output.Printf("Fills (%d):\n", len(detail.Fills))
	for _, fill := range detail.Fills {
		output.Printf("  %s  %-4s %6d @ %10.4f  comm %.2f\n",
			fill.Date.Format(dateLayout), fill.Side, fill.Qty, fill.Price, fill.Commission)
	}

	output.Println()
	if len(detail.Alerts) == 0 {
		output.Success("No alerts.")
		return
	}
	output.Warn("Alerts (%d):", len(detail.Alerts))
	for _, alert := range detail.Alerts {
		output.Warn("  %s  %-20s value=%.2f limit=%.2f",
			alert.Date.Format(dateLayout), alert.Type, alert.Value, alert.Limit)
	}
}
