package backtest

import (
	"time"

	"riskledger/internal/models"
	"riskledger/internal/risk"
)

// SeriesRow is one dated row of the run's time series: the day's
// snapshot plus the risk measures derived after the walk. VaR is nil
// during the warm-up period, meaning insufficient history, not zero risk.
type SeriesRow struct {
	models.Snapshot
	Drawdown float64
	DailyPnL float64
	VaR      *float64
}

// Summary condenses a run for reporting and storage.
type Summary struct {
	Symbol           string
	Start            time.Time
	End              time.Time
	InitialCash      float64
	FinalEquity      float64
	FinalDrawdown    float64
	MaxDrawdown      float64
	MaxGrossExposure float64
	MaxVaR           *float64 // nil when the run never left the warm-up
	NumFills         int
	NumAlerts        int

	Limits      risk.Limits
	VaR         risk.VaRSpec
	SlippageBps float64
	Commission  float64
}

// Result is the full outcome of one run.
type Result struct {
	Series      []SeriesRow
	Positions   []models.Position
	Cash        float64
	RealizedPnL float64
	Fills       []models.Fill
	Alerts      []models.Alert
	Summary     Summary
}

func buildSummary(cfg RunConfig, series []SeriesRow, fills []models.Fill, alerts []models.Alert) Summary {
	s := Summary{
		Symbol:      cfg.Symbol,
		Start:       series[0].Date,
		End:         series[len(series)-1].Date,
		InitialCash: cfg.InitialCash,
		FinalEquity: series[len(series)-1].Equity,
		NumFills:    len(fills),
		NumAlerts:   len(alerts),
		Limits:      cfg.Limits,
		VaR:         cfg.VaR,
		SlippageBps: cfg.SlippageBps,
		Commission:  cfg.Commission,
	}

	s.FinalDrawdown = series[len(series)-1].Drawdown
	for _, row := range series {
		if row.Drawdown > s.MaxDrawdown {
			s.MaxDrawdown = row.Drawdown
		}
		if row.GrossExposure > s.MaxGrossExposure {
			s.MaxGrossExposure = row.GrossExposure
		}
		if row.VaR != nil && (s.MaxVaR == nil || *row.VaR > *s.MaxVaR) {
			v := *row.VaR
			s.MaxVaR = &v
		}
	}
	return s
}
