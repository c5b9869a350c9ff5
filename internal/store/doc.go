// Demoscope - Demo Recording Cheat Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/demoscope

/*
Package store keeps a local history of analysis runs in SQLite.

Each run is one row in the runs table, keyed by the run id the analyzer
attaches to its logs. Findings are stored in report order with their
metadata as raw JSON, so a stored run can be rendered again exactly as the
original report.

The database uses the pure-Go modernc.org/sqlite driver with WAL
journaling and a single connection:

	s, err := store.Open("demoscope.db")
	if err != nil {
		return err
	}
	defer s.Close()

	if err := s.SaveRun(ctx, runID, input, report); err != nil {
		return err
	}
*/
package store
