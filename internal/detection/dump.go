// Demoscope - Demo Recording Cheat Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/demoscope

package detection

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/tomtom215/demoscope/internal/demo"
	"github.com/tomtom215/demoscope/internal/world"
)

// ParamWriteBatchSize is how many lines a dump detector writes between flushes.
const ParamWriteBatchSize = "write_batch_size"

// Extensions of the dump outputs.
const (
	extJSONLines = ".jsonl.zst"
	extCSV       = ".csv"
)

// dumpFile streams JSON lines to a zstd file under the output directory.
type dumpFile struct {
	name    string
	ext     string
	dir     string
	params  *Params
	logger  zerolog.Logger
	enc     *demo.Encoder
	pending int64
	written int64
}

func newDumpFile(name, ext string, opts Options, batchSize int64) dumpFile {
	return dumpFile{
		name:   name,
		ext:    ext,
		dir:    opts.OutputDir,
		params: NewParams().DefineInt(ParamWriteBatchSize, batchSize),
		logger: opts.Logger,
	}
}

func (f *dumpFile) path() string {
	return filepath.Join(f.dir, f.name+f.ext)
}

func (f *dumpFile) open() error {
	enc, err := demo.Create(f.path())
	if err != nil {
		return fmt.Errorf("failed to create dump file: %w", err)
	}
	f.enc = enc
	f.logger.Debug().Str("path", f.path()).Msg("Dump file opened")
	return nil
}

func (f *dumpFile) write(v any) error {
	if f.enc == nil {
		return errors.New("dump file not open")
	}
	if err := f.enc.Encode(v); err != nil {
		return err
	}
	f.written++
	f.pending++
	if f.pending >= max(f.params.Int(ParamWriteBatchSize), 1) {
		f.pending = 0
		return f.enc.Flush()
	}
	return nil
}

// Close flushes and closes the file. It is safe to call more than once.
func (f *dumpFile) Close() error {
	if f.enc == nil {
		return nil
	}
	err := f.enc.Close()
	f.enc = nil
	f.logger.Debug().Str("path", f.path()).Int64("lines", f.written).Msg("Dump file closed")
	return err
}

// WriteToFileDetector writes every tick's detector view to
// <output dir>/write_to_file.jsonl.zst. It never reports findings.
type WriteToFileDetector struct {
	dumpFile
}

// NewWriteToFile creates a write_to_file detector.
func NewWriteToFile(opts Options) *WriteToFileDetector {
	return &WriteToFileDetector{newDumpFile(NameWriteToFile, extJSONLines, opts, 1024)}
}

// Name returns the detector name.
func (d *WriteToFileDetector) Name() string { return NameWriteToFile }

// EnabledByDefault reports false.
func (d *WriteToFileDetector) EnabledByDefault() bool { return false }

// Params returns the tunable parameters.
func (d *WriteToFileDetector) Params() *Params { return d.params }

// Init creates the output file.
func (d *WriteToFileDetector) Init(context.Context) error { return d.open() }

// OnTick writes the snapshot.
func (d *WriteToFileDetector) OnTick(_ context.Context, snap *world.Snapshot) ([]Finding, error) {
	return nil, d.write(snap)
}

// Finish closes the output file.
func (d *WriteToFileDetector) Finish(context.Context) ([]Finding, error) {
	return nil, d.Close()
}

// messageLine is one line of the all_messages dump.
type messageLine struct {
	Tick    demo.Tick     `json:"tick"`
	Message *demo.Message `json:"message"`
}

// AllMessagesDetector writes every delivered message to
// <output dir>/all_messages.jsonl.zst. It never reports findings.
type AllMessagesDetector struct {
	dumpFile
}

// NewAllMessages creates an all_messages detector.
func NewAllMessages(opts Options) *AllMessagesDetector {
	return &AllMessagesDetector{newDumpFile(NameAllMessages, extJSONLines, opts, 2048)}
}

// Name returns the detector name.
func (d *AllMessagesDetector) Name() string { return NameAllMessages }

// EnabledByDefault reports false.
func (d *AllMessagesDetector) EnabledByDefault() bool { return false }

// Params returns the tunable parameters.
func (d *AllMessagesDetector) Params() *Params { return d.params }

// Init creates the output file.
func (d *AllMessagesDetector) Init(context.Context) error { return d.open() }

// HandledMessages asks for every message type.
func (d *AllMessagesDetector) HandledMessages() MessageFilter { return AllMessages() }

// OnMessage writes the message.
func (d *AllMessagesDetector) OnMessage(_ context.Context, msg *demo.Message, _ *world.Snapshot, tick demo.Tick) ([]Finding, error) {
	return nil, d.write(messageLine{Tick: tick, Message: msg})
}

// Finish closes the output file.
func (d *AllMessagesDetector) Finish(context.Context) ([]Finding, error) {
	return nil, d.Close()
}
