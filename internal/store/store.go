// Package store provides persistence for completed run histories.
package store

import (
	"context"
	"fmt"
	"time"

	"riskledger/internal/backtest"
	"riskledger/internal/models"
)

// RunRecord is one stored run: identity, timing and the run summary.
type RunRecord struct {
	ID        string
	CreatedAt time.Time
	Summary   backtest.Summary
}

// RunDetail is a stored run with its fills and alerts.
type RunDetail struct {
	RunRecord
	Fills  []models.Fill
	Alerts []models.Alert
}

// RunStore defines the interface for run persistence.
type RunStore interface {
	SaveRun(ctx context.Context, run *RunRecord, fills []models.Fill, alerts []models.Alert) error
	ListRuns(ctx context.Context, symbol string, limit int) ([]RunRecord, error)
	GetRun(ctx context.Context, id string) (*RunDetail, error)
	Close() error
}

// NewRunID returns a fresh identifier for a run.
func NewRunID(now time.Time) string {
	return fmt.Sprintf("RUN_%s", now.UTC().Format("20060102_150405"))
}
