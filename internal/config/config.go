// Demoscope - Demo Recording Cheat Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/demoscope

package config

// Config is the complete analyzer configuration.
type Config struct {
	Logging  LoggingConfig  `koanf:"logging"`
	Analysis AnalysisConfig `koanf:"analysis"`
	Output   OutputConfig   `koanf:"output"`
	Store    StoreConfig    `koanf:"store"`
	Metrics  MetricsConfig  `koanf:"metrics"`
}

// LoggingConfig controls diagnostic output on stderr.
type LoggingConfig struct {
	Level  string `koanf:"level" validate:"loglevel"`
	Format string `koanf:"format" validate:"oneof=json console"`
	Caller bool   `koanf:"caller"`
}

// AnalysisConfig selects detectors and tunes the run.
type AnalysisConfig struct {
	// Detectors to run. Empty runs every detector enabled by default.
	Detectors []string `koanf:"detectors" validate:"dive,identifier"`

	// ParamsPath is a JSON document of per-detector parameter overrides.
	ParamsPath string `koanf:"params_path" validate:"omitempty,filepath"`

	// Progress logs a "Processing tick" line once per second. Quiet output
	// turns it off.
	Progress bool `koanf:"progress"`

	// Workers bounds how many inputs are analyzed concurrently.
	Workers int `koanf:"workers" validate:"gte=1,lte=64"`

	// DumpDir receives the output of the dump detectors.
	DumpDir string `koanf:"dump_dir" validate:"required"`
}

// OutputConfig controls the report written to stdout.
type OutputConfig struct {
	// Format is json, pretty (indented json) or count (a text tally).
	Format string `koanf:"format" validate:"oneof=json pretty count"`

	// Quiet silences all diagnostics so stdout carries only the report.
	Quiet bool `koanf:"quiet"`

	// Metadata prints the demo header summary before the report.
	Metadata bool `koanf:"metadata"`
}

// StoreConfig enables the SQLite run history.
type StoreConfig struct {
	// Path of the database file. Empty disables the store.
	Path string `koanf:"path" validate:"omitempty,filepath"`
}

// MetricsConfig controls the Prometheus textfile written after a run.
type MetricsConfig struct {
	// TextfilePath, when set, receives the run metrics in text exposition
	// format for node_exporter's textfile collector.
	TextfilePath string `koanf:"textfile_path" validate:"omitempty,filepath"`
}

// defaultConfig returns the built-in defaults. They are loaded first and
// overridden by the config file, environment and flags.
func defaultConfig() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
			Caller: false,
		},
		Analysis: AnalysisConfig{
			Detectors: []string{},
			Progress:  true,
			Workers:   1,
			DumpDir:   ".",
		},
		Output: OutputConfig{
			Format: "pretty",
		},
	}
}

// Default returns a copy of the built-in defaults.
func Default() *Config {
	return defaultConfig()
}
