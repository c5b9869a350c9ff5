// Demoscope - Demo Recording Cheat Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/demoscope

package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goccy/go-json"

	"github.com/tomtom215/demoscope/internal/config"
	"github.com/tomtom215/demoscope/internal/demo"
	"github.com/tomtom215/demoscope/internal/detection"
	"github.com/tomtom215/demoscope/internal/store"
)

func writeStream(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	enc, err := demo.Create(path)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if err := enc.WriteHeader(demo.Header{Map: "cp_sunshine", Server: "203.0.113.5:27015", Nick: "STV", Ticks: 3}); err != nil {
		t.Fatalf("WriteHeader() error = %v", err)
	}
	for tick := demo.Tick(1); tick <= 3; tick++ {
		if err := enc.WriteMessage(tick, &demo.Message{Type: demo.MessageNetTick}); err != nil {
			t.Fatalf("WriteMessage() error = %v", err)
		}
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	return path
}

func runCLI(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	t.Setenv(config.ConfigPathEnvVar, "")
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestRun_ListDetectors(t *testing.T) {
	code, out, _ := runCLI(t, "-l")
	if code != exitOK {
		t.Fatalf("exit code = %d", code)
	}
	for _, want := range []string{
		"angle_repetition (default)",
		detection.NameOOBPitch + " (default)",
		detection.NameAimSnap + "\n",
		detection.NameViewAnglesCSV + "\n",
		detection.NameWriteToFile + "\n",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestRun_QuietJSON(t *testing.T) {
	input := writeStream(t, t.TempDir(), "match.jsonl")

	code, out, errOut := runCLI(t, "-i", input, "-q")
	if code != exitOK {
		t.Fatalf("exit code = %d, stderr = %s", code, errOut)
	}
	if errOut != "" {
		t.Errorf("quiet mode wrote diagnostics: %s", errOut)
	}
	if strings.Count(out, "\n") != 1 {
		t.Errorf("want one compact JSON line, got %q", out)
	}

	var report struct {
		Map        string            `json:"map"`
		ServerIP   string            `json:"server_ip"`
		Duration   int               `json:"duration"`
		Detections []json.RawMessage `json:"detections"`
	}
	if err := json.Unmarshal([]byte(out), &report); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if report.Map != "cp_sunshine" || report.ServerIP != "203.0.113.5:27015" || report.Duration != 3 {
		t.Errorf("report = %+v", report)
	}
	if report.Detections == nil {
		t.Error("detections should be an empty list, not null")
	}
}

func TestRun_ProgressOnByDefault(t *testing.T) {
	input := writeStream(t, t.TempDir(), "match.jsonl")

	code, _, errOut := runCLI(t, "-i", input)
	if code != exitOK {
		t.Fatalf("exit code = %d, stderr = %s", code, errOut)
	}
	if !strings.Contains(errOut, "Processing tick 1") {
		t.Errorf("stderr missing progress report:\n%s", errOut)
	}

	_, _, errOut = runCLI(t, "-i", input, "-Q")
	if strings.Contains(errOut, "Processing tick") {
		t.Errorf("quiet run reported progress:\n%s", errOut)
	}
}

func TestRun_OutputModes(t *testing.T) {
	input := writeStream(t, t.TempDir(), "match.jsonl")

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"count", []string{"-c"}, "Total detections: 0\n"},
		{"pretty quiet", []string{"-Q"}, "{\n  \"server_ip\""},
		{"default is pretty", nil, "{\n  \"server_ip\""},
		{"metadata", []string{"-m", "-c"}, "Map: cp_sunshine\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, out, errOut := runCLI(t, append([]string{"-i", input}, tt.args...)...)
			if code != exitOK {
				t.Fatalf("exit code = %d, stderr = %s", code, errOut)
			}
			if !strings.Contains(out, tt.want) {
				t.Errorf("output = %q, want it to contain %q", out, tt.want)
			}
		})
	}
}

func TestRun_ConfigErrors(t *testing.T) {
	input := writeStream(t, t.TempDir(), "match.jsonl")

	tests := []struct {
		name string
		args []string
	}{
		{"no input", []string{"-q"}},
		{"unknown detector", []string{"-i", input, "-a", "wallhack"}},
		{"bad flag", []string{"-x"}},
		{"missing params file", []string{"-i", input, "-p", filepath.Join(t.TempDir(), "missing.json")}},
		{"missing config file", []string{"-i", input, "-config", filepath.Join(t.TempDir(), "missing.yaml")}},
		{"quiet with metadata", []string{"-i", input, "-q", "-m"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if code, _, _ := runCLI(t, tt.args...); code != exitConfig {
				t.Errorf("exit code = %d, want %d", code, exitConfig)
			}
		})
	}
}

func TestRun_FailedInputKeepsOthers(t *testing.T) {
	dir := t.TempDir()
	good := writeStream(t, dir, "good.jsonl")
	missing := filepath.Join(dir, "missing.jsonl")

	code, out, _ := runCLI(t, "-i", good, "-i", missing, "-q")
	if code != exitInputFailed {
		t.Errorf("exit code = %d, want %d", code, exitInputFailed)
	}
	if !strings.Contains(out, "cp_sunshine") {
		t.Errorf("report of the good input missing: %q", out)
	}
}

func TestRun_StoreAndMetrics(t *testing.T) {
	dir := t.TempDir()
	input := writeStream(t, dir, "match.jsonl")
	dbPath := filepath.Join(dir, "runs.db")
	promPath := filepath.Join(dir, "demoscope.prom")

	code, _, errOut := runCLI(t, "-i", input, "-q", "-db", dbPath, "-metrics", promPath)
	if code != exitOK {
		t.Fatalf("exit code = %d, stderr = %s", code, errOut)
	}

	s, err := store.Open(dbPath)
	if err != nil {
		t.Fatalf("store.Open() error = %v", err)
	}
	defer s.Close()
	runs, err := s.ListRuns(context.Background())
	if err != nil {
		t.Fatalf("ListRuns() error = %v", err)
	}
	if len(runs) != 1 || runs[0].Input != input || runs[0].Map != "cp_sunshine" {
		t.Errorf("ListRuns() = %+v", runs)
	}

	prom, err := os.ReadFile(promPath)
	if err != nil {
		t.Fatalf("metrics textfile not written: %v", err)
	}
	if !strings.Contains(string(prom), "demoscope_") {
		t.Errorf("textfile has no demoscope metrics:\n%s", prom)
	}
}
