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
	"io"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/tomtom215/demoscope/internal/logging"
)

// ErrNotFound is returned when a run id has no stored row.
var ErrNotFound = errors.New("run not found")

// schemaTimeout bounds schema and checkpoint statements.
const schemaTimeout = 30 * time.Second

// Store persists analysis runs and their findings in a local SQLite file.
// All access goes through one connection; it is safe for concurrent use.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens (or creates) the database at path and applies the schema.
func Open(path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("empty store path")
	}
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("failed to create store directory %s: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	ctx, cancel := context.WithTimeout(context.Background(), schemaTimeout)
	defer cancel()

	if err := initPragmas(ctx, db); err != nil {
		closeQuietly(db)
		return nil, err
	}
	if err := initSchema(ctx, db); err != nil {
		closeQuietly(db)
		return nil, err
	}

	logging.Debug().Str("path", path).Msg("Store opened")
	return &Store{db: db, path: path}, nil
}

func initPragmas(ctx context.Context, db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA foreign_keys=ON;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			return fmt.Errorf("failed to apply %q: %w", p, err)
		}
	}
	return nil
}

func initSchema(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			run_id      TEXT PRIMARY KEY,
			input       TEXT NOT NULL,
			map         TEXT NOT NULL,
			server_ip   TEXT NOT NULL,
			author      TEXT NOT NULL,
			duration    INTEGER NOT NULL,
			detections  INTEGER NOT NULL,
			created_at  TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS findings (
			run_id     TEXT NOT NULL REFERENCES runs(run_id) ON DELETE CASCADE,
			seq        INTEGER NOT NULL,
			tick       INTEGER NOT NULL,
			algorithm  TEXT NOT NULL,
			player     INTEGER NOT NULL,
			data       TEXT NOT NULL,
			PRIMARY KEY (run_id, seq)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_findings_player ON findings(player);`,
		`CREATE INDEX IF NOT EXISTS idx_findings_algorithm ON findings(algorithm);`,
	}
	for _, s := range stmts {
		if _, err := db.ExecContext(ctx, s); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}
	return nil
}

// Path returns the database file path.
func (s *Store) Path() string { return s.path }

// Close checkpoints the WAL and closes the database.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), schemaTimeout)
	defer cancel()
	if _, err := s.db.ExecContext(ctx, "PRAGMA wal_checkpoint(TRUNCATE);"); err != nil {
		logging.Warn().Err(err).Msg("Store checkpoint failed")
	}
	err := s.db.Close()
	s.db = nil
	return err
}

// closeQuietly closes a resource in an error path where the close error is
// not actionable.
func closeQuietly(c io.Closer) {
	if c != nil {
		_ = c.Close()
	}
}
