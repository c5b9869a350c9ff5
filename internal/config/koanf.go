// Demoscope - Demo Recording Cheat Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/demoscope

package config

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths searched for a config file, in order.
var DefaultConfigPaths = []string{
	"demoscope.yaml",
	"demoscope.yml",
}

// ConfigPathEnvVar overrides the config file path.
const ConfigPathEnvVar = "DEMOSCOPE_CONFIG"

// EnvPrefix is the prefix of every configuration environment variable.
const EnvPrefix = "DEMOSCOPE_"

// LoadOptions controls Load.
type LoadOptions struct {
	// Path is an explicit config file. It must exist when set. When empty,
	// DEMOSCOPE_CONFIG and then DefaultConfigPaths are tried.
	Path string

	// Overrides are applied last, keyed by koanf path (e.g. "output.format").
	// The command line uses them for flags the user actually set.
	Overrides map[string]any
}

// Load builds the configuration from four layers, later layers winning:
// built-in defaults, the YAML config file, DEMOSCOPE_* environment
// variables, and opts.Overrides. The result is validated.
func Load(opts LoadOptions) (*Config, error) {
	k := koanf.New(".")

	// Layer 1: defaults
	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// Layer 2: config file (optional)
	configPath, err := resolveConfigFile(opts.Path)
	if err != nil {
		return nil, err
	}
	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// Layer 3: environment
	// DEMOSCOPE_OUTPUT_FORMAT -> output.format
	if err := k.Load(env.Provider(EnvPrefix, ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	// Layer 4: flags
	keys := make([]string, 0, len(opts.Overrides))
	for key := range opts.Overrides {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if err := k.Set(key, opts.Overrides[key]); err != nil {
			return nil, fmt.Errorf("failed to set %s: %w", key, err)
		}
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// resolveConfigFile returns the config file to load, or "" for none.
func resolveConfigFile(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file: %w", err)
		}
		return explicit, nil
	}
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err != nil {
			return "", fmt.Errorf("config file from %s: %w", ConfigPathEnvVar, err)
		}
		return envPath, nil
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}
	return "", nil
}

// sliceConfigPaths are parsed from comma-separated strings when they come
// from the environment or a flag.
var sliceConfigPaths = []string{
	"analysis.detectors",
}

func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		val := k.Get(path)
		strVal, ok := val.(string)
		if !ok {
			continue
		}
		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if err := k.Set(path, trimmed); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

// envKeys maps environment variable names, without the prefix and
// lower-cased, to koanf paths.
var envKeys = map[string]string{
	"log_level":             "logging.level",
	"log_format":            "logging.format",
	"log_caller":            "logging.caller",
	"detectors":             "analysis.detectors",
	"params":                "analysis.params_path",
	"progress":              "analysis.progress",
	"workers":               "analysis.workers",
	"dump_dir":              "analysis.dump_dir",
	"output_format":         "output.format",
	"quiet":                 "output.quiet",
	"metadata":              "output.metadata",
	"db":                    "store.path",
	"metrics_textfile_path": "metrics.textfile_path",
}

// envTransformFunc maps DEMOSCOPE_* variables to config paths. Unknown
// variables are dropped.
//
// Examples:
//   - DEMOSCOPE_LOG_LEVEL -> logging.level
//   - DEMOSCOPE_WORKERS -> analysis.workers
//   - DEMOSCOPE_DB -> store.path
func envTransformFunc(key string) string {
	key = strings.ToLower(strings.TrimPrefix(key, EnvPrefix))
	return envKeys[key]
}
