// Demoscope - Demo Recording Cheat Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/demoscope

/*
Package world reconstructs game state from decoded demo records.

A Builder owns the single live state of a recording: the players in the
order they were first seen, every standing building keyed by entity handle,
the world bounds and the current tick. It applies entity deltas,
string-table entries, game events and temp entities one record at a time.

Detectors never see the live state. At every tick boundary the analyzer asks
the Builder for a Snapshot, a point-in-time copy that stays valid after the
Builder moves on:

	b := world.NewBuilder()
	for rec := range records {
	    _ = b.Apply(rec)
	}
	view := b.View() // visible, alive, human players only

# Property Mapping

Updates are routed by server class name (CTFPlayer, CTFPlayerResource,
CWorld, CObjectSentrygun, CObjectDispenser, CObjectTeleporter) and then by
send-table/prop name. Props this package does not model are ignored, and a
value of an unexpected type reads as zero.

# Identities

Players are tracked by entity handle, which the engine reuses. Findings are
keyed by SteamID64 instead, taken from the userinfo string table. Snapshots
carry an immutable identity index so detectors can resolve user ids (from
game events) and entity ids (from temp entities) to SteamIDs.
*/
package world
