// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package history keeps an append-only SQLite ledger of completed runs.
// A run is recorded in one transaction after the batch finishes; nothing
// is persisted mid-run.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/page-mill/pkg/types"
)

const dbFile = "page-mill.db"

// Store manages the run-history SQLite database.
type Store struct {
	db *sql.DB
}

// Open opens or creates the history database at dir/page-mill.db, creating
// the schema if it does not exist.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating history directory: %w", err)
	}

	dbPath := filepath.Join(dir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening history database: %w", err)
	}

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			started_at TEXT NOT NULL,
			finished_at TEXT NOT NULL,
			dest_dir TEXT,
			backend TEXT,
			mode TEXT,
			succeeded INTEGER NOT NULL,
			failed INTEGER NOT NULL,
			timed_out INTEGER NOT NULL,
			notified INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS outcomes (
			run_id TEXT NOT NULL REFERENCES runs(id),
			domain TEXT NOT NULL,
			url TEXT NOT NULL,
			status TEXT NOT NULL,
			processing_time REAL,
			error_message TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_outcomes_run_id ON outcomes(run_id)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Record writes one completed run and its grouped outcomes in a single
// transaction.
func (s *Store) Record(ctx context.Context, run types.Run, report types.Report) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, started_at, finished_at, dest_dir, backend, mode, succeeded, failed, timed_out, notified)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID,
		run.StartedAt.UTC().Format(time.RFC3339Nano),
		run.FinishedAt.UTC().Format(time.RFC3339Nano),
		run.DestDir, string(run.Backend), string(run.Mode),
		run.Succeeded, run.Failed, run.TimedOut, run.Notified,
	)
	if err != nil {
		return fmt.Errorf("inserting run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO outcomes (run_id, domain, url, status, processing_time, error_message)
		 VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for _, group := range report {
		for _, o := range group.URLs {
			var processingTime sql.NullFloat64
			if o.ProcessingTime != nil {
				processingTime = sql.NullFloat64{Float64: *o.ProcessingTime, Valid: true}
			}
			var errorMessage sql.NullString
			if o.ErrorMessage != "" {
				errorMessage = sql.NullString{String: o.ErrorMessage, Valid: true}
			}
			if _, err := stmt.ExecContext(ctx, run.ID, group.Domain, o.URL, string(o.Status), processingTime, errorMessage); err != nil {
				return fmt.Errorf("inserting outcome for %s: %w", o.URL, err)
			}
		}
	}

	return tx.Commit()
}

// Runs returns recorded runs, newest first, up to limit (0 means all).
func (s *Store) Runs(ctx context.Context, limit int) ([]types.Run, error) {
	query := `SELECT id, started_at, finished_at, dest_dir, backend, mode, succeeded, failed, timed_out, notified
		 FROM runs ORDER BY started_at DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var runs []types.Run
	for rows.Next() {
		var r types.Run
		var started, finished, backend, mode string
		if err := rows.Scan(&r.ID, &started, &finished, &r.DestDir, &backend, &mode,
			&r.Succeeded, &r.Failed, &r.TimedOut, &r.Notified); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		r.StartedAt, _ = time.Parse(time.RFC3339Nano, started)
		r.FinishedAt, _ = time.Parse(time.RFC3339Nano, finished)
		r.Backend = types.ConversionBackend(backend)
		r.Mode = types.RunMode(mode)
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Outcomes reconstructs the grouped report recorded for runID, in report
// order: domains ascending, URLs ascending within a domain.
func (s *Store) Outcomes(ctx context.Context, runID string) (types.Report, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT domain, url, status, processing_time, error_message
		 FROM outcomes WHERE run_id = ? ORDER BY domain, url`, runID)
	if err != nil {
		return nil, fmt.Errorf("querying outcomes: %w", err)
	}
	defer rows.Close()

	var report types.Report
	for rows.Next() {
		var domain, url, status string
		var processingTime sql.NullFloat64
		var errorMessage sql.NullString
		if err := rows.Scan(&domain, &url, &status, &processingTime, &errorMessage); err != nil {
			return nil, fmt.Errorf("scanning outcome: %w", err)
		}

		o := types.Outcome{URL: url, Status: types.Status(status)}
		if processingTime.Valid {
			v := processingTime.Float64
			o.ProcessingTime = &v
			o.ProcessingTimeFormatted = types.FormatSeconds(v)
		}
		if errorMessage.Valid {
			o.ErrorMessage = errorMessage.String
		}

		if len(report) == 0 || report[len(report)-1].Domain != domain {
			report = append(report, types.DomainReport{Domain: domain})
		}
		last := &report[len(report)-1]
		last.URLs = append(last.URLs, o)
	}
	if len(report) == 0 {
		return nil, fmt.Errorf("run %s not found", runID)
	}
	return report, rows.Err()
}
