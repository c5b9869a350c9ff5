// Demoscope - Demo Recording Cheat Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/demoscope

// Package logging provides centralized zerolog-based structured logging for Demoscope.
//
// The package keeps one global logger for the CLI and offers New for
// components that take an explicit logger, such as the analyzer and its
// detectors. Quiet report modes are expressed by handing those components a
// logger at a higher level (or zerolog.Nop) rather than through a global flag.
//
// # Quick Start
//
//	logging.Init(logging.Config{
//	    Level:  "info",
//	    Format: "console",
//	})
//
//	logging.Info().Str("input", path).Msg("analysis started")
//	logging.Error().Err(err).Msg("analysis failed")
//
//	// Run-scoped logging
//	ctx = logging.ContextWithRunID(ctx, logging.GenerateRunID())
//	logging.Ctx(ctx).Info().Msg("report written")
//
// # Configuration
//
// Environment Variables (through internal/config):
//
//	DEMOSCOPE_LOG_LEVEL   - trace, debug, info, warn, error, disabled (default: info)
//	DEMOSCOPE_LOG_FORMAT  - json, console (default: console)
//	DEMOSCOPE_LOG_CALLER  - include caller file:line (default: false)
//
// Log output always goes to stderr so that reports written to stdout stay
// machine-readable.
//
// # Best Practices
//
// Always terminate log chains with .Msg() or .Send():
//
//	logging.Info().Str("key", "value").Msg("message")  // Correct
//	logging.Info().Str("key", "value")                 // WRONG - log not emitted
package logging
