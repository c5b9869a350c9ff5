// Demoscope - Demo Recording Cheat Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/demoscope

package demo

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-json"
	"github.com/klauspost/compress/zstd"
)

// Encoder writes values as JSON Lines, optionally zstd-compressed.
// It is used to produce record streams and the analyzer's dump files.
type Encoder struct {
	w      *bufio.Writer
	zw     *zstd.Encoder
	closer io.Closer
}

// NewEncoder wraps w. When compress is set the output is a zstd stream.
func NewEncoder(w io.Writer, compress bool) (*Encoder, error) {
	e := &Encoder{}
	if compress {
		zw, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedFastest))
		if err != nil {
			return nil, err
		}
		e.zw = zw
		w = zw
	}
	e.w = bufio.NewWriterSize(w, 128*1024)
	return e, nil
}

// Create creates path (and its parent directories). Paths ending in
// ".zst" are compressed.
func Create(path string) (*Encoder, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	e, err := NewEncoder(f, strings.HasSuffix(path, ".zst"))
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	e.closer = f
	return e, nil
}

// Encode writes v as one line.
func (e *Encoder) Encode(v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}
	if _, err := e.w.Write(b); err != nil {
		return err
	}
	return e.w.WriteByte('\n')
}

// WriteHeader writes the header record that opens a stream.
func (e *Encoder) WriteHeader(h Header) error {
	return e.Encode(Record{Kind: RecordHeader, Header: &h})
}

// WriteMessage writes a message record for tick.
func (e *Encoder) WriteMessage(tick Tick, msg *Message) error {
	return e.Encode(Record{Kind: RecordMessage, Tick: tick, Message: msg})
}

// Flush writes buffered lines through to the underlying writer.
func (e *Encoder) Flush() error {
	if err := e.w.Flush(); err != nil {
		return err
	}
	if e.zw != nil {
		return e.zw.Flush()
	}
	return nil
}

// Close flushes and closes the compressor and the underlying file, if any.
func (e *Encoder) Close() error {
	err := e.w.Flush()
	if e.zw != nil {
		if zerr := e.zw.Close(); err == nil {
			err = zerr
		}
	}
	if e.closer != nil {
		if cerr := e.closer.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
