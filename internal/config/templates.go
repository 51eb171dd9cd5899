package config

import (
	"os"
	"path/filepath"
)

const configTemplate = `# riskledger configuration

[data]
cache_dir = "data"
out_dir = "outputs"
timeout_seconds = 20

[execution]
initial_cash = 100000.0
slippage_bps = 2.0
commission = 1.0

[strategy]
fast = 20
slow = 100
trade_size = 25

[risk]
max_gross_exposure = 200000.0
max_drawdown = 0.20
max_var = 2500.0
var_window = 250
var_alpha = 0.99
`

// writeTemplate writes a commented default config.toml so first-time
// users have something to edit.
func writeTemplate(configDir string) error {
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return err
	}
	path := filepath.Join(configDir, "config.toml")
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	return os.WriteFile(path, []byte(configTemplate), 0644)
}
