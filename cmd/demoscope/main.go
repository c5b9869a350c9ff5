// Demoscope - Demo Recording Cheat Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/demoscope

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/tomtom215/demoscope/internal/analysis"
	"github.com/tomtom215/demoscope/internal/config"
	"github.com/tomtom215/demoscope/internal/detection"
	"github.com/tomtom215/demoscope/internal/logging"
	"github.com/tomtom215/demoscope/internal/metrics"
	"github.com/tomtom215/demoscope/internal/store"
)

// Exit codes.
const (
	exitOK          = 0
	exitConfig      = 1
	exitInputFailed = 2
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// stringList is a repeatable string flag.
type stringList []string

func (s *stringList) String() string { return strings.Join(*s, ",") }

func (s *stringList) Set(v string) error {
	*s = append(*s, v)
	return nil
}

type cliFlags struct {
	inputs      stringList
	detectors   stringList
	params      string
	quiet       bool
	quietPretty bool
	count       bool
	metadata    bool
	list        bool
	configPath  string
	dbPath      string
	metricsPath string
}

func parseFlags(args []string, stderr io.Writer) (*cliFlags, *flag.FlagSet, error) {
	f := &cliFlags{}
	fs := flag.NewFlagSet("demoscope", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Var(&f.inputs, "i", "input record stream `path` (repeatable)")
	fs.Var(&f.detectors, "a", "detector to run (repeatable); default detectors when omitted")
	fs.StringVar(&f.params, "p", "", "detector parameter JSON `file`")
	fs.BoolVar(&f.quiet, "q", false, "silence all output except the final JSON")
	fs.BoolVar(&f.quietPretty, "Q", false, "same as -q, with indented JSON")
	fs.BoolVar(&f.count, "c", false, "print a detection count instead of JSON")
	fs.BoolVar(&f.metadata, "m", false, "print demo metadata before the report")
	fs.BoolVar(&f.list, "l", false, "list available detectors and exit")
	fs.StringVar(&f.configPath, "config", "", "YAML config `file`")
	fs.StringVar(&f.dbPath, "db", "", "SQLite run history `path`")
	fs.StringVar(&f.metricsPath, "metrics", "", "Prometheus textfile output `path`")
	fs.Usage = func() {
		fmt.Fprintln(fs.Output(), "Usage: demoscope -i PATH [-i PATH]... [options]")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}
	return f, fs, nil
}

// overrides maps the flags the user set onto config paths.
func (f *cliFlags) overrides(fs *flag.FlagSet) map[string]any {
	out := make(map[string]any)
	fs.Visit(func(fl *flag.Flag) {
		switch fl.Name {
		case "a":
			out["analysis.detectors"] = []string(f.detectors)
		case "p":
			out["analysis.params_path"] = f.params
		case "q":
			out["output.quiet"] = true
			out["output.format"] = "json"
		case "c":
			out["output.format"] = "count"
		case "m":
			out["output.metadata"] = f.metadata
		case "db":
			out["store.path"] = f.dbPath
		case "metrics":
			out["metrics.textfile_path"] = f.metricsPath
		}
	})
	// -q and -Q pick the format over -c.
	if f.quietPretty {
		out["output.quiet"] = true
		out["output.format"] = "pretty"
	}
	return out
}

//nolint:gocyclo // sequential CLI setup
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	flags, fs, err := parseFlags(args, stderr)
	if errors.Is(err, flag.ErrHelp) {
		return exitOK
	}
	if err != nil {
		return exitConfig
	}

	registry := detection.DefaultRegistry()
	if flags.list {
		listDetectors(stdout, registry)
		return exitOK
	}

	cfg, err := config.Load(config.LoadOptions{Path: flags.configPath, Overrides: flags.overrides(fs)})
	if err != nil {
		fmt.Fprintf(stderr, "demoscope: %v\n", err)
		return exitConfig
	}

	logger := newLogger(cfg, stderr)
	logging.SetLogger(logger)

	if len(flags.inputs) == 0 {
		logger.Error().Msg("No input file path provided (use -i)")
		return exitConfig
	}

	var params detection.ParamsDocument
	if cfg.Analysis.ParamsPath != "" {
		params, err = detection.LoadParams(cfg.Analysis.ParamsPath)
		if err != nil {
			logger.Error().Err(err).Msg("Failed to load detector parameters")
			return exitConfig
		}
	}

	var runs *store.Store
	if cfg.Store.Path != "" {
		runs, err = store.Open(cfg.Store.Path)
		if err != nil {
			logger.Error().Err(err).Msg("Failed to open run store")
			return exitConfig
		}
		defer func() {
			if err := runs.Close(); err != nil {
				logger.Error().Err(err).Msg("Error closing run store")
			}
		}()
	}

	results, err := analysis.RunBatch(ctx, flags.inputs, analysis.BatchOptions{
		Registry:  registry,
		Detectors: cfg.Analysis.Detectors,
		Params:    params,
		OutputDir: cfg.Analysis.DumpDir,
		Workers:   cfg.Analysis.Workers,
		Config: analysis.Config{
			Logger:   logger,
			Progress: cfg.Analysis.Progress && !cfg.Output.Quiet,
		},
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error().Err(err).Msg("Invalid analysis configuration")
		return exitConfig
	}

	code := exitOK
	for _, res := range results {
		if res.Err != nil {
			logger.Error().Err(res.Err).Str("input", res.Input).Str("run_id", res.RunID).Msg("Analysis failed")
			code = exitInputFailed
			continue
		}
		if err := writeReport(stdout, res.Report, cfg.Output); err != nil {
			logger.Error().Err(err).Msg("Failed to write report")
			code = exitInputFailed
		}
		if runs != nil {
			if err := runs.SaveRun(ctx, res.RunID, res.Input, res.Report); err != nil {
				logger.Error().Err(err).Str("run_id", res.RunID).Msg("Failed to store run")
			}
		}
	}

	if cfg.Metrics.TextfilePath != "" {
		if err := metrics.WriteTextfile(cfg.Metrics.TextfilePath); err != nil {
			logger.Warn().Err(err).Msg("Failed to write metrics textfile")
		}
	}
	return code
}

// newLogger builds the run logger on stderr. Quiet mode disables it.
func newLogger(cfg *config.Config, stderr io.Writer) zerolog.Logger {
	level := cfg.Logging.Level
	if cfg.Output.Quiet {
		level = "disabled"
	}
	return logging.New(logging.Config{
		Level:     level,
		Format:    cfg.Logging.Format,
		Caller:    cfg.Logging.Caller,
		Timestamp: true,
		Output:    stderr,
	})
}

func writeReport(w io.Writer, report *analysis.Report, out config.OutputConfig) error {
	if out.Metadata {
		if err := report.WriteMetadata(w); err != nil {
			return err
		}
	}
	switch out.Format {
	case "count":
		return report.WriteCount(w)
	case "json":
		return report.WriteJSON(w, false)
	default:
		return report.WriteJSON(w, true)
	}
}

func listDetectors(w io.Writer, registry *detection.Registry) {
	defaults := make(map[string]bool)
	for _, name := range registry.Defaults() {
		defaults[name] = true
	}
	for _, name := range registry.Names() {
		if defaults[name] {
			fmt.Fprintf(w, "%s (default)\n", name)
		} else {
			fmt.Fprintln(w, name)
		}
	}
}
