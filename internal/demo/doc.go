// Demoscope - Demo Recording Cheat Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/demoscope

/*
Package demo defines the decoded record stream consumed by the analyzer.

Binary demo parsing is done upstream by a dedicated parser. That parser
emits one JSON document per line (optionally zstd-compressed) describing
the demo header, server classes, string tables and per-tick messages. This
package owns that contract: the Go types for every record, tolerant
property-value accessors, a streaming Decoder and a matching Encoder.

# Stream Layout

	{"kind":"header","header":{"map":"pl_upward","ticks":120000,...}}
	{"kind":"datatables","classes":[{"id":247,"name":"CTFPlayer"},...]}
	{"kind":"stringtable","table":{"name":"userinfo","entries":[...]}}
	{"kind":"message","tick":1,"message":{"type":"packet_entities","entities":[...]}}
	{"kind":"message","tick":1,"message":{"type":"net_tick"}}

A tick's messages always precede the net_tick marker that closes it.

# Property Values

Property values are tagged so integer and float props survive JSON:

	{"int":125}  {"float":-12.5}  {"vector":[1,2,3]}  {"vectorxy":[1,2]}
	{"string":"x"}  {"array":[{"int":3},{"int":4}]}

Accessors never fail. A value read as the wrong type yields the zero value,
which matches how the engine itself treats unknown or missing props.
*/
package demo
