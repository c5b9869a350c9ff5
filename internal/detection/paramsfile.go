// Demoscope - Demo Recording Cheat Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/demoscope

package detection

import (
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

// paramsSchema describes a parameter override document:
// {"detector": {"param": number | bool}}.
const paramsSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "additionalProperties": {
    "type": "object",
    "additionalProperties": {
      "type": ["number", "boolean"]
    }
  }
}`

var compiledParamsSchema = jsonschema.MustCompileString("params.schema.json", paramsSchema)

// ParamsDocument maps detector name to parameter overrides.
type ParamsDocument map[string]map[string]any

// ParseParams decodes and validates a parameter override document.
func ParseParams(data []byte) (ParamsDocument, error) {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to decode params: %w", err)
	}
	if err := compiledParamsSchema.Validate(raw); err != nil {
		return nil, fmt.Errorf("invalid params document: %w", err)
	}

	doc := make(ParamsDocument)
	for det, v := range raw.(map[string]any) {
		values, _ := v.(map[string]any)
		doc[det] = values
	}
	return doc, nil
}

// LoadParams reads and validates a parameter override file.
func LoadParams(path string) (ParamsDocument, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read params file: %w", err)
	}
	return ParseParams(data)
}

// ApplyParams overlays doc onto the selected detectors. Unknown detectors
// and unknown parameter names are logged at debug level and skipped; a value
// of the wrong type is an error.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func ApplyParams(detectors []Detector, doc ParamsDocument, logger zerolog.Logger) error {
	byName := make(map[string]Detector, len(detectors))
	for _, d := range detectors {
		byName[d.Name()] = d
	}

	var errs []error
	for _, det := range sortedKeys(doc) {
		d, ok := byName[det]
		if !ok {
			logger.Debug().Str("detector", det).Msg("Ignoring params for unselected detector")
			continue
		}
		tunable, ok := d.(Tunable)
		if !ok {
			logger.Debug().Str("detector", det).Msg("Detector has no parameters")
			continue
		}
		params := tunable.Params()
		values := doc[det]
		for _, name := range sortedKeys(values) {
			err := params.Set(name, values[name])
			switch {
			case err == nil:
				logger.Debug().Str("detector", det).Str("param", name).Interface("value", values[name]).Msg("Parameter set")
			case errors.Is(err, ErrUnknownParam):
				logger.Debug().Str("detector", det).Str("param", name).Msg("Ignoring unknown parameter")
			default:
				errs = append(errs, fmt.Errorf("%s: %w", det, err))
			}
		}
	}
	return errors.Join(errs...)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
