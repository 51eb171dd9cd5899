package report

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	"riskledger/internal/backtest"
	"riskledger/pkg/utils"
)

// PrintSummary writes a human-readable run summary to w.
func PrintSummary(w io.Writer, result *backtest.Result) {
	s := result.Summary

	color.New(color.Bold).Fprintf(w, "%s  %s → %s\n", s.Symbol, s.Start.Format(dateLayout), s.End.Format(dateLayout))
	fmt.Fprintln(w)

	fmt.Fprintf(w, "  Initial cash:   %s\n", utils.FormatMoney(s.InitialCash))
	pnl := s.FinalEquity - s.InitialCash
	fmt.Fprintf(w, "  Final equity:   %s  (%s)\n", utils.FormatMoney(s.FinalEquity), pnlString(pnl))
	fmt.Fprintf(w, "  Realized PnL:   %s\n", pnlString(result.RealizedPnL))
	fmt.Fprintf(w, "  Max drawdown:   %.2f%%\n", s.MaxDrawdown*100)
	if s.MaxVaR != nil {
		fmt.Fprintf(w, "  Max VaR:        %s\n", utils.FormatMoney(*s.MaxVaR))
	} else {
		fmt.Fprintf(w, "  Max VaR:        n/a (insufficient history for window %d)\n", s.VaR.Window)
	}
	fmt.Fprintf(w, "  Fills:          %d\n", s.NumFills)

	if s.NumAlerts > 0 {
		color.New(color.FgYellow).Fprintf(w, "  Alerts:         %d\n", s.NumAlerts)
		for _, alert := range result.Alerts {
			color.New(color.FgYellow).Fprintf(w, "    %s  %-20s value=%.2f limit=%.2f\n",
				alert.Date.Format(dateLayout), alert.Type, alert.Value, alert.Limit)
		}
	} else {
		color.New(color.FgGreen).Fprintf(w, "  Alerts:         none\n")
	}
}

func pnlString(v float64) string {
	if v >= 0 {
		return color.GreenString("%s", utils.FormatPnL(v))
	}
	return color.RedString("%s", utils.FormatPnL(v))
}
