// Demoscope - Demo Recording Cheat Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/demoscope

package demo

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/goccy/go-json"
	"github.com/klauspost/compress/zstd"
)

var (
	// ErrMalformedRecord marks a single undecodable record. The stream
	// remains usable and the caller may continue with the next record.
	ErrMalformedRecord = errors.New("demo: malformed record")

	// ErrInvalidStream is returned when the stream cannot be read at all,
	// for example when the header record is missing.
	ErrInvalidStream = errors.New("demo: invalid record stream")
)

// zstdMagic is the frame magic number of a zstd stream.
var zstdMagic = []byte{0x28, 0xB5, 0x2F, 0xFD}

// maxLineSize bounds a single record line.
const maxLineSize = 64 << 20

// Decoder yields decoded records in stream order.
type Decoder interface {
	// Header returns the demo header read when the stream was opened.
	Header() Header

	// Next returns the next record. It returns io.EOF at the end of the
	// stream and an error wrapping ErrMalformedRecord for a bad record.
	Next(ctx context.Context) (*Record, error)
}

// StreamDecoder reads a JSON Lines record stream, transparently
// decompressing zstd input.
type StreamDecoder struct {
	r      *bufio.Reader
	zr     *zstd.Decoder
	closer io.Closer
	header Header
	line   int
}

// NewDecoder reads the header record from r and returns a decoder
// positioned at the first record after it.
func NewDecoder(r io.Reader) (*StreamDecoder, error) {
	d := &StreamDecoder{}
	br := bufio.NewReaderSize(r, 256*1024)
	magic, err := br.Peek(len(zstdMagic))
	if err == nil && bytes.Equal(magic, zstdMagic) {
		zr, err := zstd.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidStream, err)
		}
		d.zr = zr
		br = bufio.NewReaderSize(zr, 256*1024)
	}
	d.r = br

	rec, err := d.Next(context.Background())
	if err != nil {
		d.Close()
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty stream", ErrInvalidStream)
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidStream, err)
	}
	if rec.Kind != RecordHeader {
		d.Close()
		return nil, fmt.Errorf("%w: first record is %q, want header", ErrInvalidStream, rec.Kind)
	}
	d.header = *rec.Header
	return d, nil
}

// Open opens a record stream file. The caller must Close the decoder.
func Open(path string) (*StreamDecoder, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open demo stream: %w", err)
	}
	d, err := NewDecoder(f)
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	d.closer = f
	return d, nil
}

// Header implements Decoder.
func (d *StreamDecoder) Header() Header {
	return d.header
}

// Next implements Decoder.
func (d *StreamDecoder) Next(ctx context.Context) (*Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	for {
		line, err := d.readLine()
		if err != nil {
			return nil, err
		}
		d.line++
		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}

		var rec Record
		if err := json.Unmarshal(line, &rec); err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrMalformedRecord, d.line, err)
		}
		if err := rec.validate(); err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrMalformedRecord, d.line, err)
		}
		return &rec, nil
	}
}

func (d *StreamDecoder) readLine() ([]byte, error) {
	var buf []byte
	for {
		chunk, err := d.r.ReadSlice('\n')
		buf = append(buf, chunk...)
		switch {
		case err == nil:
			return buf, nil
		case errors.Is(err, bufio.ErrBufferFull):
			if len(buf) > maxLineSize {
				return nil, fmt.Errorf("%w: line %d exceeds %d bytes", ErrInvalidStream, d.line+1, maxLineSize)
			}
		case errors.Is(err, io.EOF):
			if len(buf) > 0 {
				return buf, nil
			}
			return nil, io.EOF
		default:
			return nil, err
		}
	}
}

// Line returns the number of lines consumed so far.
func (d *StreamDecoder) Line() int {
	return d.line
}

// Close releases the decompressor and the underlying file, if any.
func (d *StreamDecoder) Close() error {
	if d.zr != nil {
		d.zr.Close()
		d.zr = nil
	}
	if d.closer != nil {
		err := d.closer.Close()
		d.closer = nil
		return err
	}
	return nil
}
