package models

import "time"

// AlertType identifies which risk limit was breached.
type AlertType string

const (
	AlertGrossExposure     AlertType = "GROSS_EXPOSURE"
	AlertDrawdown          AlertType = "DRAWDOWN"
	AlertVaR               AlertType = "VAR"
	AlertEquityNonPositive AlertType = "EQUITY_NONPOSITIVE"
)

// Alert records a single limit breach. Alerts are produced by the risk
// engine and consumed only for reporting.
type Alert struct {
	Date  time.Time
	Type  AlertType
	Value float64
	Limit float64
}
