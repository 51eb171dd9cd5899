package risk

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// Property: for any PnL series the rolling VaR is never negative and is
// absent exactly while the window has not filled.
func TestProperty_RollingVaRNonNegativeWithExactWarmup(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200

	properties := gopter.NewProperties(parameters)

	properties.Property("VaR >= 0 outside the warm-up, nil inside", prop.ForAll(
		func(pnl []float64) bool {
			const window = 20
			out, err := RollingVaR(pnl, window, 0.99)
			if err != nil {
				return false
			}
			for i, v := range out {
				if i < window-1 {
					if v != nil {
						return false
					}
					continue
				}
				if v == nil || *v < 0 {
					return false
				}
			}
			return true
		},
		gen.SliceOf(gen.Float64Range(-10_000, 10_000)),
	))

	properties.TestingRun(t)
}

// Property: for any positive equity series the drawdown stays in [0, 1)
// and is zero at every running high.
func TestProperty_DrawdownBounded(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200

	properties := gopter.NewProperties(parameters)

	properties.Property("0 <= drawdown < 1, zero at new highs", prop.ForAll(
		func(equity []float64) bool {
			dd := Drawdown(equity)
			if len(dd) != len(equity) {
				return false
			}
			peak := 0.0
			for i, eq := range equity {
				if dd[i] < 0 || dd[i] >= 1 {
					return false
				}
				if eq >= peak {
					peak = eq
					if dd[i] != 0 {
						return false
					}
				}
			}
			return true
		},
		gen.SliceOf(gen.Float64Range(1, 1_000_000)),
	))

	properties.TestingRun(t)
}
