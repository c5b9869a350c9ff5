// Demoscope - Demo Recording Cheat Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/demoscope

package config

import (
	"fmt"

	"github.com/tomtom215/demoscope/internal/validation"
)

// Validate checks field constraints and cross-field rules.
func (c *Config) Validate() error {
	if err := validation.ValidateStruct(c); err != nil {
		return err
	}
	return c.validateOutput()
}

// validateOutput rejects metadata in quiet mode, where stdout must hold
// nothing but the report.
func (c *Config) validateOutput() error {
	if c.Output.Quiet && c.Output.Metadata {
		return fmt.Errorf("output.quiet and output.metadata are mutually exclusive")
	}
	return nil
}
