package cli

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	apperrors "riskledger/internal/errors"
	"riskledger/internal/marketdata"
)

func newFetchCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fetch <symbol>",
		Short: "Download and cache the daily price series for a symbol",
		Long: `Download the Stooq daily OHLCV CSV for a symbol into the cache
directory. Subsequent runs reuse the cached file unless --force is given.`,
		Example: `  riskledger fetch spy.us
  riskledger fetch aapl.us --force`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			symbol := args[0]

			cacheDir := app.Config.Data.CacheDir
			if dir, _ := cmd.Flags().GetString("cache-dir"); dir != "" {
				cacheDir = dir
			}
			force, _ := cmd.Flags().GetBool("force")

			client := marketdata.NewStooqClient(time.Duration(app.Config.Data.TimeoutSeconds) * time.Second)
			path, err := client.Download(context.Background(), symbol, cacheDir, force)
			if err != nil {
				output.Error("Failed to fetch %s: %v", symbol, err)
				return err
			}

			bars, err := marketdata.LoadCSV(path)
			if err != nil {
				output.Error("Downloaded file is not usable: %v", err)
				return err
			}
			if len(bars) == 0 {
				err := &apperrors.DataError{Path: path, Reason: "no usable rows"}
				output.Error("%v", err)
				return err
			}

			if output.IsJSON() {
				return output.JSON(map[string]interface{}{
					"symbol": symbol,
					"path":   path,
					"bars":   len(bars),
				})
			}
			output.Success("Fetched %s: %d bars (%s → %s)", symbol, len(bars),
				bars[0].Date.Format(dateLayout), bars[len(bars)-1].Date.Format(dateLayout))
			output.Dim("  cached at %s", path)
			return nil
		},
	}

	cmd.Flags().Bool("force", false, "re-download even if cached")
	cmd.Flags().String("cache-dir", "", "cache directory (default from config)")

	return cmd
}
