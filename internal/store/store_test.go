// Demoscope - Demo Recording Cheat Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/demoscope

package store

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"github.com/goccy/go-json"

	"github.com/tomtom215/demoscope/internal/analysis"
	"github.com/tomtom215/demoscope/internal/detection"
	"github.com/tomtom215/demoscope/internal/steamid"
)

const (
	alice = steamid.ID(76561197960265729)
	bob   = steamid.ID(76561197960265730)
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "nested", "runs.db"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func testReport() *analysis.Report {
	return &analysis.Report{
		ServerIP: "192.0.2.10:27015",
		Duration: 4000,
		Author:   "SourceTV",
		Map:      "cp_process_final",
		Detections: []detection.Finding{
			{Tick: 100, Algorithm: detection.NameOOBPitch, Player: alice, Data: json.RawMessage(`{"pitch":91}`)},
			{Tick: 250, Algorithm: detection.NameAimSnap, Player: bob, Data: json.RawMessage(`{"deltas":[0.01,0.02,14,0.01]}`)},
			{Tick: 300, Algorithm: detection.NameOOBPitch, Player: alice, Data: json.RawMessage(`{"pitch":-95}`)},
		},
	}
}

func TestStore_SaveAndLoad(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	if err := s.SaveRun(ctx, "run-1", "match.jsonl", testReport()); err != nil {
		t.Fatalf("SaveRun() error = %v", err)
	}

	run, err := s.GetRun(ctx, "run-1")
	if err != nil {
		t.Fatalf("GetRun() error = %v", err)
	}
	if run.Input != "match.jsonl" || run.Map != "cp_process_final" || run.Duration != 4000 || run.Detections != 3 {
		t.Errorf("GetRun() = %+v", run)
	}
	if run.CreatedAt.IsZero() {
		t.Error("CreatedAt not set")
	}

	findings, err := s.ListFindings(ctx, "run-1")
	if err != nil {
		t.Fatalf("ListFindings() error = %v", err)
	}
	want := testReport().Detections
	if len(findings) != len(want) {
		t.Fatalf("got %d findings, want %d", len(findings), len(want))
	}
	for i := range want {
		got := findings[i]
		if got.Tick != want[i].Tick || got.Algorithm != want[i].Algorithm || got.Player != want[i].Player {
			t.Errorf("finding %d = %+v, want %+v", i, got, want[i])
		}
		if string(got.Data) != string(want[i].Data) {
			t.Errorf("finding %d data = %s, want %s", i, got.Data, want[i].Data)
		}
	}
}

func TestStore_SaveReplacesRun(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	if err := s.SaveRun(ctx, "run-1", "a.jsonl", testReport()); err != nil {
		t.Fatalf("SaveRun() error = %v", err)
	}
	empty := &analysis.Report{Map: "koth_product", Detections: []detection.Finding{}}
	if err := s.SaveRun(ctx, "run-1", "a.jsonl", empty); err != nil {
		t.Fatalf("second SaveRun() error = %v", err)
	}

	findings, err := s.ListFindings(ctx, "run-1")
	if err != nil {
		t.Fatalf("ListFindings() error = %v", err)
	}
	if len(findings) != 0 {
		t.Errorf("got %d findings after replace, want 0", len(findings))
	}
	runs, err := s.ListRuns(ctx)
	if err != nil {
		t.Fatalf("ListRuns() error = %v", err)
	}
	if len(runs) != 1 || runs[0].Map != "koth_product" {
		t.Errorf("ListRuns() = %+v", runs)
	}
}

func TestStore_PlayerCounts(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	for _, id := range []string{"run-1", "run-2"} {
		if err := s.SaveRun(ctx, id, id+".jsonl", testReport()); err != nil {
			t.Fatalf("SaveRun(%s) error = %v", id, err)
		}
	}

	counts, err := s.PlayerCounts(ctx, detection.NameOOBPitch)
	if err != nil {
		t.Fatalf("PlayerCounts() error = %v", err)
	}
	if counts[alice] != 4 || counts[bob] != 0 {
		t.Errorf("PlayerCounts() = %v", counts)
	}
}

func TestStore_NotFound(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	if _, err := s.GetRun(ctx, "nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetRun() error = %v, want ErrNotFound", err)
	}
	if err := s.DeleteRun(ctx, "nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("DeleteRun() error = %v, want ErrNotFound", err)
	}
}

func TestStore_DeleteCascades(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	if err := s.SaveRun(ctx, "run-1", "a.jsonl", testReport()); err != nil {
		t.Fatalf("SaveRun() error = %v", err)
	}
	if err := s.DeleteRun(ctx, "run-1"); err != nil {
		t.Fatalf("DeleteRun() error = %v", err)
	}

	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM findings`).Scan(&n); err != nil {
		t.Fatalf("count findings: %v", err)
	}
	if n != 0 {
		t.Errorf("%d findings left after delete", n)
	}
}

func TestStore_ReopenKeepsData(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "runs.db")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if err := s.SaveRun(ctx, "run-1", "a.jsonl", testReport()); err != nil {
		t.Fatalf("SaveRun() error = %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("sql.Open() error = %v", err)
	}
	defer db.Close()
	var mapName string
	if err := db.QueryRow(`SELECT map FROM runs WHERE run_id = 'run-1'`).Scan(&mapName); err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	if mapName != "cp_process_final" {
		t.Errorf("map = %q", mapName)
	}
}

func TestOpen_EmptyPath(t *testing.T) {
	if _, err := Open(""); err == nil {
		t.Error("Open(\"\") should fail")
	}
}
