package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	apperrors "riskledger/internal/errors"
	"riskledger/internal/models"
	"riskledger/internal/risk"
)

// SQLiteStore implements RunStore using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite-based run store.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return store, nil
}

// initSchema creates all required tables and indexes.
func (s *SQLiteStore) initSchema() error {
	schema := `
	-- Completed runs, one row per simulation
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		created_at DATETIME NOT NULL,
		symbol TEXT NOT NULL,
		start_date DATETIME NOT NULL,
		end_date DATETIME NOT NULL,
		initial_cash REAL NOT NULL,
		final_equity REAL NOT NULL,
		final_drawdown REAL NOT NULL,
		max_drawdown REAL NOT NULL,
		max_gross_exposure REAL NOT NULL,
		max_var REAL,
		num_fills INTEGER NOT NULL,
		num_alerts INTEGER NOT NULL,
		config TEXT NOT NULL
	);

	-- Accepted fills per run
	CREATE TABLE IF NOT EXISTS fills (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		date DATETIME NOT NULL,
		symbol TEXT NOT NULL,
		side TEXT NOT NULL,
		qty INTEGER NOT NULL,
		price REAL NOT NULL,
		commission REAL NOT NULL,
		FOREIGN KEY (run_id) REFERENCES runs(id)
	);

	-- Limit breaches per run
	CREATE TABLE IF NOT EXISTS alerts (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		date DATETIME NOT NULL,
		type TEXT NOT NULL,
		value REAL NOT NULL,
		limit_value REAL NOT NULL,
		FOREIGN KEY (run_id) REFERENCES runs(id)
	);

	CREATE INDEX IF NOT EXISTS idx_runs_symbol ON runs(symbol, created_at);
	CREATE INDEX IF NOT EXISTS idx_fills_run ON fills(run_id);
	CREATE INDEX IF NOT EXISTS idx_alerts_run ON alerts(run_id);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// runConfig is the JSON blob stored alongside each run so a stored run
// can be interpreted without the config files it was launched with.
type runConfig struct {
	Limits      risk.Limits  `json:"limits"`
	VaR         risk.VaRSpec `json:"var"`
	SlippageBps float64      `json:"slippage_bps"`
	Commission  float64      `json:"commission"`
}

// SaveRun persists a run with its fills and alerts in one transaction.
func (s *SQLiteStore) SaveRun(ctx context.Context, run *RunRecord, fills []models.Fill, alerts []models.Alert) error {
	cfgJSON, err := json.Marshal(runConfig{
		Limits:      run.Summary.Limits,
		VaR:         run.Summary.VaR,
		SlippageBps: run.Summary.SlippageBps,
		Commission:  run.Summary.Commission,
	})
	if err != nil {
		return fmt.Errorf("failed to encode run config: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var maxVaR sql.NullFloat64
	if run.Summary.MaxVaR != nil {
		maxVaR = sql.NullFloat64{Float64: *run.Summary.MaxVaR, Valid: true}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (id, created_at, symbol, start_date, end_date, initial_cash, final_equity, final_drawdown, max_drawdown, max_gross_exposure, max_var, num_fills, num_alerts, config)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, run.ID, run.CreatedAt, run.Summary.Symbol, run.Summary.Start, run.Summary.End,
		run.Summary.InitialCash, run.Summary.FinalEquity, run.Summary.FinalDrawdown,
		run.Summary.MaxDrawdown, run.Summary.MaxGrossExposure, maxVaR,
		run.Summary.NumFills, run.Summary.NumAlerts, string(cfgJSON))
	if err != nil {
		return fmt.Errorf("failed to save run: %w", err)
	}

	for _, fill := range fills {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO fills (run_id, date, symbol, side, qty, price, commission)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, run.ID, fill.Date, fill.Symbol, string(fill.Side), fill.Qty, fill.Price, fill.Commission)
		if err != nil {
			return fmt.Errorf("failed to save fill: %w", err)
		}
	}

	for _, alert := range alerts {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO alerts (run_id, date, type, value, limit_value)
			VALUES (?, ?, ?, ?, ?)
		`, run.ID, alert.Date, string(alert.Type), alert.Value, alert.Limit)
		if err != nil {
			return fmt.Errorf("failed to save alert: %w", err)
		}
	}

	return tx.Commit()
}

const runColumns = "id, created_at, symbol, start_date, end_date, initial_cash, final_equity, final_drawdown, max_drawdown, max_gross_exposure, max_var, num_fills, num_alerts, config"

// ListRuns returns stored runs, newest first, optionally filtered by symbol.
func (s *SQLiteStore) ListRuns(ctx context.Context, symbol string, limit int) ([]RunRecord, error) {
	query := "SELECT " + runColumns + " FROM runs WHERE 1=1"
	args := []interface{}{}

	if symbol != "" {
		query += " AND symbol = ?"
		args = append(args, symbol)
	}
	query += " ORDER BY created_at DESC"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []RunRecord
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

// GetRun returns one stored run with its fills and alerts.
func (s *SQLiteStore) GetRun(ctx context.Context, id string) (*RunDetail, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+runColumns+" FROM runs WHERE id = ?", id)
	run, err := scanRun(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrRunNotFound, id)
	}
	if err != nil {
		return nil, err
	}

	detail := &RunDetail{RunRecord: *run}

	fillRows, err := s.db.QueryContext(ctx, `
		SELECT date, symbol, side, qty, price, commission FROM fills WHERE run_id = ? ORDER BY id
	`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query fills: %w", err)
	}
	defer fillRows.Close()
	for fillRows.Next() {
		var fill models.Fill
		var side string
		if err := fillRows.Scan(&fill.Date, &fill.Symbol, &side, &fill.Qty, &fill.Price, &fill.Commission); err != nil {
			return nil, fmt.Errorf("failed to scan fill: %w", err)
		}
		fill.Side = models.Side(side)
		detail.Fills = append(detail.Fills, fill)
	}
	if err := fillRows.Err(); err != nil {
		return nil, err
	}

	alertRows, err := s.db.QueryContext(ctx, `
		SELECT date, type, value, limit_value FROM alerts WHERE run_id = ? ORDER BY id
	`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query alerts: %w", err)
	}
	defer alertRows.Close()
	for alertRows.Next() {
		var alert models.Alert
		var typ string
		if err := alertRows.Scan(&alert.Date, &typ, &alert.Value, &alert.Limit); err != nil {
			return nil, fmt.Errorf("failed to scan alert: %w", err)
		}
		alert.Type = models.AlertType(typ)
		detail.Alerts = append(detail.Alerts, alert)
	}
	return detail, alertRows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(row rowScanner) (*RunRecord, error) {
	var run RunRecord
	var maxVaR sql.NullFloat64
	var cfgJSON string

	err := row.Scan(&run.ID, &run.CreatedAt, &run.Summary.Symbol, &run.Summary.Start,
		&run.Summary.End, &run.Summary.InitialCash, &run.Summary.FinalEquity,
		&run.Summary.FinalDrawdown, &run.Summary.MaxDrawdown, &run.Summary.MaxGrossExposure,
		&maxVaR, &run.Summary.NumFills, &run.Summary.NumAlerts, &cfgJSON)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan run: %w", err)
	}

	if maxVaR.Valid {
		v := maxVaR.Float64
		run.Summary.MaxVaR = &v
	}

	var cfg runConfig
	if err := json.Unmarshal([]byte(cfgJSON), &cfg); err == nil {
		run.Summary.Limits = cfg.Limits
		run.Summary.VaR = cfg.VaR
		run.Summary.SlippageBps = cfg.SlippageBps
		run.Summary.Commission = cfg.Commission
	}
	return &run, nil
}

var _ RunStore = (*SQLiteStore)(nil)
