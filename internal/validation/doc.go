// Demoscope - Demo Recording Cheat Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/demoscope

/*
Package validation provides struct validation using go-playground/validator v10.

A single validator instance is built on first use and shared; it caches
struct metadata and is safe for concurrent use. Two custom tags are
registered on top of the built-in set:

  - loglevel: a zerolog level name (trace, debug, info, warn, error, disabled)
  - identifier: a lower-case snake_case name, used for detector names

Failures are returned as *Error, which lists one FieldError per rejected
field with a readable message:

	type AnalysisConfig struct {
	    Workers   int      `koanf:"workers" validate:"gte=1,lte=64"`
	    Detectors []string `koanf:"detectors" validate:"dive,identifier"`
	}

	if err := validation.ValidateStruct(&cfg); err != nil {
	    return fmt.Errorf("invalid configuration: %w", err)
	}
*/
package validation
