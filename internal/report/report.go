// Package report writes run results to files and the terminal.
package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"

	"riskledger/internal/backtest"
	"riskledger/internal/models"
)

const dateLayout = "2006-01-02"

// File names written into the output directory.
const (
	SeriesFile    = "pnl_timeseries.csv"
	PositionsFile = "positions.csv"
	AlertsFile    = "alerts.csv"
	ReportFile    = "risk_report.json"
)

type seriesRecord struct {
	Date          string   `csv:"Date"`
	Cash          float64  `csv:"Cash"`
	MarketValue   float64  `csv:"MarketValue"`
	Equity        float64  `csv:"Equity"`
	RealizedPnL   float64  `csv:"RealizedPnL"`
	UnrealizedPnL float64  `csv:"UnrealizedPnL"`
	GrossExposure float64  `csv:"GrossExposure"`
	NetExposure   float64  `csv:"NetExposure"`
	Drawdown      float64  `csv:"Drawdown"`
	DailyPnL      float64  `csv:"DailyPnL"`
	VaR           *float64 `csv:"VaR"`
}

type positionRecord struct {
	Symbol      string  `csv:"Symbol"`
	Qty         int     `csv:"Qty"`
	AvgCost     float64 `csv:"AvgCost"`
	Cash        float64 `csv:"Cash"`
	RealizedPnL float64 `csv:"RealizedPnL"`
}

type alertRecord struct {
	Date  string  `csv:"Date"`
	Type  string  `csv:"Type"`
	Value float64 `csv:"Value"`
	Limit float64 `csv:"Limit"`
}

// WriteAll writes the full set of artifacts for a run into outDir and
// returns the paths written.
func WriteAll(outDir string, result *backtest.Result) ([]string, error) {
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return nil, fmt.Errorf("creating output dir: %w", err)
	}

	paths := []string{
		filepath.Join(outDir, SeriesFile),
		filepath.Join(outDir, PositionsFile),
		filepath.Join(outDir, AlertsFile),
		filepath.Join(outDir, ReportFile),
	}

	if err := WriteSeriesCSV(paths[0], result.Series); err != nil {
		return nil, err
	}
	if err := WritePositionsCSV(paths[1], result); err != nil {
		return nil, err
	}
	if err := WriteAlertsCSV(paths[2], result.Alerts); err != nil {
		return nil, err
	}
	if err := WriteReportJSON(paths[3], result.Summary); err != nil {
		return nil, err
	}
	return paths, nil
}

// WriteSeriesCSV writes the per-date time series. A nil VaR becomes an
// empty cell, keeping the warm-up period distinguishable from zero.
func WriteSeriesCSV(path string, series []backtest.SeriesRow) error {
	records := make([]*seriesRecord, 0, len(series))
	for _, row := range series {
		records = append(records, &seriesRecord{
			Date:          row.Date.Format(dateLayout),
			Cash:          row.Cash,
			MarketValue:   row.MarketValue,
			Equity:        row.Equity,
			RealizedPnL:   row.RealizedPnL,
			UnrealizedPnL: row.UnrealizedPnL,
			GrossExposure: row.GrossExposure,
			NetExposure:   row.NetExposure,
			Drawdown:      row.Drawdown,
			DailyPnL:      row.DailyPnL,
			VaR:           row.VaR,
		})
	}
	return writeCSV(path, &records)
}

// WritePositionsCSV writes the end-of-run position and cash state, one
// row per symbol touched during the run.
func WritePositionsCSV(path string, result *backtest.Result) error {
	records := make([]*positionRecord, 0, len(result.Positions))
	for _, pos := range result.Positions {
		records = append(records, &positionRecord{
			Symbol:      pos.Symbol,
			Qty:         pos.Qty,
			AvgCost:     pos.AvgCost,
			Cash:        result.Cash,
			RealizedPnL: result.RealizedPnL,
		})
	}
	return writeCSV(path, &records)
}

// WriteAlertsCSV writes the ordered alert list. No alerts produces an
// empty file rather than a lone header row.
func WriteAlertsCSV(path string, alerts []models.Alert) error {
	if len(alerts) == 0 {
		return os.WriteFile(path, nil, 0644)
	}

	records := make([]*alertRecord, 0, len(alerts))
	for _, alert := range alerts {
		records = append(records, &alertRecord{
			Date:  alert.Date.Format(dateLayout),
			Type:  string(alert.Type),
			Value: alert.Value,
			Limit: alert.Limit,
		})
	}
	return writeCSV(path, &records)
}

func writeCSV(path string, records interface{}) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()

	if err := gocsv.MarshalFile(records, f); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// jsonReport mirrors the risk_report.json layout.
type jsonReport struct {
	Symbol           string       `json:"symbol"`
	Start            string       `json:"start"`
	End              string       `json:"end"`
	InitialCash      float64      `json:"initial_cash"`
	FinalEquity      float64      `json:"final_equity"`
	FinalDrawdown    float64      `json:"final_drawdown"`
	MaxDrawdown      float64      `json:"max_drawdown"`
	MaxGrossExposure float64      `json:"max_gross_exposure"`
	MaxVaR           *float64     `json:"max_var"`
	NumFills         int          `json:"num_fills"`
	NumAlerts        int          `json:"num_alerts"`
	Limits           jsonLimits   `json:"limits"`
	VaR              jsonVaRSpec  `json:"var"`
	Execution        jsonExecCost `json:"execution"`
}

type jsonLimits struct {
	MaxGrossExposure float64 `json:"max_gross_exposure"`
	MaxDrawdown      float64 `json:"max_drawdown"`
	MaxVaR           float64 `json:"max_var"`
}

type jsonVaRSpec struct {
	Window int     `json:"window"`
	Alpha  float64 `json:"alpha"`
}

type jsonExecCost struct {
	SlippageBps float64 `json:"slippage_bps"`
	Commission  float64 `json:"commission"`
}

// WriteReportJSON writes the run summary. max_var is null when the run
// never produced a VaR value.
func WriteReportJSON(path string, summary backtest.Summary) error {
	report := jsonReport{
		Symbol:           summary.Symbol,
		Start:            summary.Start.Format(dateLayout),
		End:              summary.End.Format(dateLayout),
		InitialCash:      summary.InitialCash,
		FinalEquity:      summary.FinalEquity,
		FinalDrawdown:    summary.FinalDrawdown,
		MaxDrawdown:      summary.MaxDrawdown,
		MaxGrossExposure: summary.MaxGrossExposure,
		MaxVaR:           summary.MaxVaR,
		NumFills:         summary.NumFills,
		NumAlerts:        summary.NumAlerts,
		Limits: jsonLimits{
			MaxGrossExposure: summary.Limits.MaxGrossExposure,
			MaxDrawdown:      summary.Limits.MaxDrawdown,
			MaxVaR:           summary.Limits.MaxVaR,
		},
		VaR: jsonVaRSpec{
			Window: summary.VaR.Window,
			Alpha:  summary.VaR.Alpha,
		},
		Execution: jsonExecCost{
			SlippageBps: summary.SlippageBps,
			Commission:  summary.Commission,
		},
	}

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
