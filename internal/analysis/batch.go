// Demoscope - Demo Recording Cheat Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/demoscope

package analysis

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/tomtom215/demoscope/internal/demo"
	"github.com/tomtom215/demoscope/internal/detection"
	"github.com/tomtom215/demoscope/internal/logging"
)

// BatchOptions configures RunBatch.
type BatchOptions struct {
	// Registry supplies detectors. Nil means detection.DefaultRegistry.
	Registry *detection.Registry

	// Detectors names the detectors to run; empty selects the defaults.
	Detectors []string

	// Params overrides detector parameters for every run.
	Params detection.ParamsDocument

	// OutputDir is the root for dump detector output. With more than one
	// input each run writes to a subdirectory named after its input.
	OutputDir string

	// Workers bounds concurrent runs. Values below 1 mean one.
	Workers int

	// Config is applied to every run; the logger gains input and run_id fields.
	Config Config
}

// BatchResult is the outcome of one input.
type BatchResult struct {
	Input  string
	RunID  string
	Report *Report
	Err    error
}

// RunBatch analyzes each input independently, up to opts.Workers at a time.
// Results are returned in input order. A failing input is reported in its
// result and does not stop the others; the returned error is only set for
// configuration problems found before any run starts, or cancellation.
//
//nolint:gocritic // BatchOptions carries a zerolog.Logger by value
func RunBatch(ctx context.Context, inputs []string, opts BatchOptions) ([]BatchResult, error) {
	if opts.Registry == nil {
		opts.Registry = detection.DefaultRegistry()
	}
	// Fail fast on unknown names and bad params before opening any file.
	trial, err := opts.Registry.Select(opts.Detectors, detection.Options{Logger: logging.Nop()})
	if err != nil {
		return nil, err
	}
	if err := detection.ApplyParams(trial, opts.Params, logging.Nop()); err != nil {
		return nil, err
	}

	results := make([]BatchResult, len(inputs))
	var g errgroup.Group
	g.SetLimit(max(opts.Workers, 1))

	for i, input := range inputs {
		results[i] = BatchResult{Input: input, RunID: logging.GenerateRunID()}
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				results[i].Err = err
				return nil
			}
			outDir := opts.OutputDir
			if len(inputs) > 1 && outDir != "" {
				outDir = filepath.Join(outDir, runDirName(input, i))
			}
			report, err := runFile(ctx, input, outDir, results[i].RunID, opts)
			results[i].Report, results[i].Err = report, err
			return nil
		})
	}
	_ = g.Wait()

	return results, ctx.Err()
}

// RunFile analyzes a single input with a fresh set of detectors.
//
//nolint:gocritic // BatchOptions carries a zerolog.Logger by value
func RunFile(ctx context.Context, input string, opts BatchOptions) (*Report, error) {
	if opts.Registry == nil {
		opts.Registry = detection.DefaultRegistry()
	}
	return runFile(ctx, input, opts.OutputDir, logging.GenerateRunID(), opts)
}

//nolint:gocritic // BatchOptions carries a zerolog.Logger by value
func runFile(ctx context.Context, input, outDir, runID string, opts BatchOptions) (*Report, error) {
	logger := opts.Config.Logger.With().Str("input", input).Str("run_id", runID).Logger()
	ctx = logging.ContextWithRunID(ctx, runID)
	ctx = logging.ContextWithLogger(ctx, logger)

	detectors, err := opts.Registry.Select(opts.Detectors, detection.Options{OutputDir: outDir, Logger: logger})
	if err != nil {
		return nil, err
	}
	if err := detection.ApplyParams(detectors, opts.Params, logger); err != nil {
		return nil, err
	}

	dec, err := demo.Open(input)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", input, err)
	}
	defer func() { _ = dec.Close() }()

	cfg := opts.Config
	cfg.Logger = logger
	report, err := Run(ctx, dec, detectors, cfg)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", input, err)
	}
	return report, nil
}

// runDirName derives a per-input directory name from the file name.
func runDirName(input string, index int) string {
	base := filepath.Base(input)
	for _, ext := range []string{".zst", ".jsonl", ".json"} {
		base = strings.TrimSuffix(base, ext)
	}
	if base == "" || base == "." || base == string(filepath.Separator) {
		return fmt.Sprintf("input-%d", index)
	}
	return fmt.Sprintf("%03d-%s", index, base)
}
