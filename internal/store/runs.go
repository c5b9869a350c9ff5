// Demoscope - Demo Recording Cheat Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/demoscope

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/demoscope/internal/analysis"
	"github.com/tomtom215/demoscope/internal/demo"
	"github.com/tomtom215/demoscope/internal/detection"
	"github.com/tomtom215/demoscope/internal/metrics"
	"github.com/tomtom215/demoscope/internal/steamid"
)

// Run is the stored summary of one analysis.
type Run struct {
	ID         string    `json:"run_id"`
	Input      string    `json:"input"`
	Map        string    `json:"map"`
	ServerIP   string    `json:"server_ip"`
	Author     string    `json:"author"`
	Duration   demo.Tick `json:"duration"`
	Detections int       `json:"detections"`
	CreatedAt  time.Time `json:"created_at"`
}

// SaveRun stores report under runID in one transaction. Saving the same
// run id again replaces the earlier row and its findings.
func (s *Store) SaveRun(ctx context.Context, runID, input string, report *analysis.Report) (err error) {
	start := time.Now()
	defer func() { metrics.RecordStoreQuery("save_run", time.Since(start), err) }()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM runs WHERE run_id = ?`, runID); err != nil {
		return fmt.Errorf("failed to replace run: %w", err)
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (run_id, input, map, server_ip, author, duration, detections, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, input, report.Map, report.ServerIP, report.Author,
		int64(report.Duration), len(report.Detections),
		time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO findings (run_id, seq, tick, algorithm, player, data) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare finding insert: %w", err)
	}
	defer closeQuietly(stmt)

	for i, f := range report.Detections {
		data := string(f.Data)
		if data == "" {
			data = "null"
		}
		if _, err = stmt.ExecContext(ctx, runID, i, int64(f.Tick), f.Algorithm, int64(f.Player), data); err != nil {
			return fmt.Errorf("failed to insert finding %d: %w", i, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit run: %w", err)
	}
	return nil
}

// GetRun returns the summary stored for runID.
func (s *Store) GetRun(ctx context.Context, runID string) (run *Run, err error) {
	start := time.Now()
	defer func() { metrics.RecordStoreQuery("get_run", time.Since(start), err) }()

	row := s.db.QueryRowContext(ctx,
		`SELECT run_id, input, map, server_ip, author, duration, detections, created_at
		 FROM runs WHERE run_id = ?`, runID)
	run, err = scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, runID)
	}
	return run, err
}

// ListRuns returns stored runs, newest first.
func (s *Store) ListRuns(ctx context.Context) (runs []Run, err error) {
	start := time.Now()
	defer func() { metrics.RecordStoreQuery("list_runs", time.Since(start), err) }()

	rows, err := s.db.QueryContext(ctx,
		`SELECT run_id, input, map, server_ip, author, duration, detections, created_at
		 FROM runs ORDER BY created_at DESC, run_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer closeQuietly(rows)

	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

// ListFindings returns the findings of runID in their report order.
func (s *Store) ListFindings(ctx context.Context, runID string) (findings []detection.Finding, err error) {
	start := time.Now()
	defer func() { metrics.RecordStoreQuery("list_findings", time.Since(start), err) }()

	rows, err := s.db.QueryContext(ctx,
		`SELECT tick, algorithm, player, data FROM findings WHERE run_id = ? ORDER BY seq`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to list findings: %w", err)
	}
	defer closeQuietly(rows)

	findings = []detection.Finding{}
	for rows.Next() {
		var (
			tick   int64
			player int64
			data   string
			f      detection.Finding
		)
		if err := rows.Scan(&tick, &f.Algorithm, &player, &data); err != nil {
			return nil, fmt.Errorf("failed to scan finding: %w", err)
		}
		f.Tick = demo.Tick(tick)
		f.Player = steamid.ID(uint64(player))
		f.Data = json.RawMessage(data)
		findings = append(findings, f)
	}
	return findings, rows.Err()
}

// PlayerCounts returns the number of findings per player across all runs
// for one detector.
func (s *Store) PlayerCounts(ctx context.Context, algorithm string) (counts map[steamid.ID]int, err error) {
	start := time.Now()
	defer func() { metrics.RecordStoreQuery("player_counts", time.Since(start), err) }()

	rows, err := s.db.QueryContext(ctx,
		`SELECT player, COUNT(*) FROM findings WHERE algorithm = ? GROUP BY player`, algorithm)
	if err != nil {
		return nil, fmt.Errorf("failed to count findings: %w", err)
	}
	defer closeQuietly(rows)

	counts = make(map[steamid.ID]int)
	for rows.Next() {
		var player int64
		var n int
		if err := rows.Scan(&player, &n); err != nil {
			return nil, fmt.Errorf("failed to scan count: %w", err)
		}
		counts[steamid.ID(uint64(player))] = n
	}
	return counts, rows.Err()
}

// DeleteRun removes a run and its findings.
func (s *Store) DeleteRun(ctx context.Context, runID string) (err error) {
	start := time.Now()
	defer func() { metrics.RecordStoreQuery("delete_run", time.Since(start), err) }()

	res, err := s.db.ExecContext(ctx, `DELETE FROM runs WHERE run_id = ?`, runID)
	if err != nil {
		return fmt.Errorf("failed to delete run: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, runID)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*Run, error) {
	var (
		run      Run
		duration int64
		created  string
	)
	err := row.Scan(&run.ID, &run.Input, &run.Map, &run.ServerIP, &run.Author, &duration, &run.Detections, &created)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan run: %w", err)
	}
	run.Duration = demo.Tick(duration)
	if t, perr := time.Parse(time.RFC3339Nano, created); perr == nil {
		run.CreatedAt = t
	}
	return &run, nil
}
