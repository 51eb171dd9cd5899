// Package strategy generates trade decisions from a trend regime signal.
package strategy

import (
	"time"

	"riskledger/internal/models"
)

// Strategy decides whether to trade on a given day. Implementations must
// be pure: the decision depends only on the arguments.
type Strategy interface {
	// Decide returns the trade for the day, or nil for no trade.
	// regime is an externally computed trend signal; its semantics are
	// owned by the implementation.
	Decide(date time.Time, symbol string, regime int, currentQty int) *models.Decision
}

// Config holds the moving-average crossover parameters.
type Config struct {
	Fast      int
	Slow      int
	TradeSize int // shares per trade event, capped by cash / position
}

// DefaultConfig returns the default crossover parameters.
func DefaultConfig() Config {
	return Config{Fast: 20, Slow: 100, TradeSize: 25}
}

// MinHistory returns the minimum number of bars required before the
// crossover signal is usable.
func MinHistory(cfg Config) int {
	n := cfg.Fast
	if cfg.Slow > n {
		n = cfg.Slow
	}
	return n + 5
}

// Crossover accumulates while the fast MA is above the slow MA and sells
// down in chunks while it is below. Intentionally simple; the point of
// this repo is the risk and portfolio aggregation, not alpha.
type Crossover struct {
	cfg Config
}

// NewCrossover creates a crossover strategy.
func NewCrossover(cfg Config) *Crossover {
	return &Crossover{cfg: cfg}
}

// Decide implements Strategy. Regime 1 means long regime (accumulate),
// regime 0 means flat regime (de-risk). Anything else is ignored.
func (c *Crossover) Decide(_ time.Time, _ string, regime int, currentQty int) *models.Decision {
	if regime != 0 && regime != 1 {
		return nil
	}

	if regime == 1 {
		return &models.Decision{Side: models.SideBuy, Qty: c.cfg.TradeSize}
	}

	if currentQty <= 0 {
		return nil
	}
	qty := c.cfg.TradeSize
	if currentQty < qty {
		qty = currentQty
	}
	return &models.Decision{Side: models.SideSell, Qty: qty}
}
