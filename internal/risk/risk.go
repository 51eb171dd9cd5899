// Package risk computes rolling risk measures and evaluates limit breaches.
package risk

import (
	"math"
	"sort"

	apperrors "riskledger/internal/errors"
	"riskledger/internal/models"
)

// MinVaRWindow is the smallest accepted rolling VaR window.
const MinVaRWindow = 20

// Limits holds the configured risk limits. Immutable for the life of a run.
type Limits struct {
	MaxGrossExposure float64
	MaxDrawdown      float64 // fraction in [0,1)
	MaxVaR           float64 // currency units
}

// DefaultLimits returns the default risk limits.
func DefaultLimits() Limits {
	return Limits{
		MaxGrossExposure: 200_000,
		MaxDrawdown:      0.20,
		MaxVaR:           2_500,
	}
}

// VaRSpec holds the rolling historical VaR parameters.
type VaRSpec struct {
	Window int
	Alpha  float64 // 0.99 => 99% VaR
}

// DefaultVaRSpec returns the default VaR parameters.
func DefaultVaRSpec() VaRSpec {
	return VaRSpec{Window: 250, Alpha: 0.99}
}

// RollingVaR computes historical VaR over a trailing window of realized PnL:
//
//	VaR[i] = max(0, -quantile(pnl[i-window+1 .. i], 1-alpha))
//
// Entries before the first full window are nil, meaning insufficient
// history rather than zero risk. The quantile uses linear interpolation
// between order statistics over the sorted window.
func RollingVaR(pnl []float64, window int, alpha float64) ([]*float64, error) {
	if window < MinVaRWindow {
		return nil, apperrors.NewConfigError("var_window", "window too small; use >= 20")
	}
	if alpha <= 0 || alpha >= 1 {
		return nil, apperrors.NewConfigError("var_alpha", "alpha must be in (0, 1)")
	}

	out := make([]*float64, len(pnl))
	buf := make([]float64, window)
	for i := window - 1; i < len(pnl); i++ {
		copy(buf, pnl[i-window+1:i+1])
		sort.Float64s(buf)
		v := math.Max(0, -quantileSorted(buf, 1-alpha))
		out[i] = &v
	}
	return out, nil
}

// quantileSorted computes the q-quantile of an ascending-sorted slice
// using linear interpolation between the surrounding order statistics.
func quantileSorted(sorted []float64, q float64) float64 {
	n := len(sorted)
	if n == 1 {
		return sorted[0]
	}
	pos := q * float64(n-1)
	lo := int(math.Floor(pos))
	if lo >= n-1 {
		return sorted[n-1]
	}
	frac := pos - float64(lo)
	return sorted[lo] + frac*(sorted[lo+1]-sorted[lo])
}

// Drawdown returns the fractional decline of equity from its running
// peak, one value per input point. The peak includes the current point,
// so drawdown is zero at every new high. A zero peak yields zero.
func Drawdown(equity []float64) []float64 {
	out := make([]float64, len(equity))
	peak := math.Inf(-1)
	for i, eq := range equity {
		if eq > peak {
			peak = eq
		}
		if peak == 0 {
			out[i] = 0
		} else {
			out[i] = (peak - eq) / peak
		}
	}
	return out
}

// CheckLimits evaluates one snapshot against the limits and returns zero
// or more alerts. varValue is nil during the VaR warm-up period, which
// suppresses only the VaR check. The call is stateless: it depends only
// on its arguments, and no alert suppresses another.
func CheckLimits(snap models.Snapshot, drawdown float64, varValue *float64, limits Limits) []models.Alert {
	var alerts []models.Alert

	if snap.GrossExposure > limits.MaxGrossExposure {
		alerts = append(alerts, models.Alert{
			Date:  snap.Date,
			Type:  models.AlertGrossExposure,
			Value: snap.GrossExposure,
			Limit: limits.MaxGrossExposure,
		})
	}

	if drawdown >= limits.MaxDrawdown {
		alerts = append(alerts, models.Alert{
			Date:  snap.Date,
			Type:  models.AlertDrawdown,
			Value: drawdown,
			Limit: limits.MaxDrawdown,
		})
	}

	if varValue != nil && *varValue > limits.MaxVaR {
		alerts = append(alerts, models.Alert{
			Date:  snap.Date,
			Type:  models.AlertVaR,
			Value: *varValue,
			Limit: limits.MaxVaR,
		})
	}

	// sanity
	if snap.Equity <= 0 {
		alerts = append(alerts, models.Alert{
			Date:  snap.Date,
			Type:  models.AlertEquityNonPositive,
			Value: snap.Equity,
			Limit: 0,
		})
	}

	return alerts
}
