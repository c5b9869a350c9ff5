// Demoscope - Demo Recording Cheat Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/demoscope

package analysis

import (
	"fmt"
	"io"
	"math"
	"sort"

	"github.com/goccy/go-json"

	"github.com/tomtom215/demoscope/internal/demo"
	"github.com/tomtom215/demoscope/internal/detection"
	"github.com/tomtom215/demoscope/internal/steamid"
)

const unknown = "unknown"

// Report is the result of one analysis run.
type Report struct {
	ServerIP   string              `json:"server_ip"`
	Duration   demo.Tick           `json:"duration"`
	Author     string              `json:"author"`
	Map        string              `json:"map"`
	Detections []detection.Finding `json:"detections"`

	header    demo.Header
	hasHeader bool
}

func (a *Analyzer) report() *Report {
	r := &Report{
		ServerIP:   unknown,
		Duration:   a.lastTick,
		Author:     unknown,
		Map:        unknown,
		Detections: a.findings,
		header:     a.header,
		hasHeader:  a.hasHeader,
	}
	if r.Detections == nil {
		r.Detections = []detection.Finding{}
	}
	if a.hasHeader {
		r.ServerIP = orUnknown(a.header.Server)
		r.Author = orUnknown(a.header.Nick)
		r.Map = orUnknown(a.header.Map)
	}
	return r
}

func orUnknown(s string) string {
	if s == "" {
		return unknown
	}
	return s
}

// Header returns the demo header, if the stream had one.
func (r *Report) Header() (demo.Header, bool) {
	return r.header, r.hasHeader
}

// TickCount returns the header's tick count, or the last processed tick
// when the header under-reports it.
func (r *Report) TickCount() uint32 {
	return max(r.header.Ticks, uint32(r.Duration))
}

// WriteJSON writes the report as one JSON document followed by a newline.
func (r *Report) WriteJSON(w io.Writer, pretty bool) error {
	var (
		b   []byte
		err error
	)
	if pretty {
		b, err = json.MarshalIndent(r, "", "  ")
	} else {
		b, err = json.Marshal(r)
	}
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}
	b = append(b, '\n')
	_, err = w.Write(b)
	return err
}

type playerCount struct {
	id    steamid.ID
	count int
}

// WriteCount writes a tally of findings per detector and per player.
// Detectors are listed by name; players by count, most first.
func (r *Report) WriteCount(w io.Writer) error {
	if _, err := fmt.Fprintf(w, "Total detections: %d\n", len(r.Detections)); err != nil {
		return err
	}
	if len(r.Detections) == 0 {
		return nil
	}

	byAlgorithm := make(map[string]map[steamid.ID]int)
	for _, f := range r.Detections {
		counts, ok := byAlgorithm[f.Algorithm]
		if !ok {
			counts = make(map[steamid.ID]int)
			byAlgorithm[f.Algorithm] = counts
		}
		counts[f.Player]++
	}
	algorithms := make([]string, 0, len(byAlgorithm))
	for name := range byAlgorithm {
		algorithms = append(algorithms, name)
	}
	sort.Strings(algorithms)

	if _, err := fmt.Fprintln(w, "Detections by Algorithm:"); err != nil {
		return err
	}
	for _, name := range algorithms {
		counts := byAlgorithm[name]
		players := make([]playerCount, 0, len(counts))
		total := 0
		for id, n := range counts {
			players = append(players, playerCount{id: id, count: n})
			total += n
		}
		sort.Slice(players, func(i, j int) bool {
			if players[i].count != players[j].count {
				return players[i].count > players[j].count
			}
			return players[i].id < players[j].id
		})

		if _, err := fmt.Fprintf(w, "  %s: %d players, %d detections\n", name, len(players), total); err != nil {
			return err
		}
		for _, p := range players {
			if _, err := fmt.Fprintf(w, "    %s: %d\n", p.id, p.count); err != nil {
				return err
			}
		}
	}
	return nil
}

// WriteMetadata writes the header summary. Nothing is written when the
// stream had no header.
func (r *Report) WriteMetadata(w io.Writer) error {
	if !r.hasHeader {
		return nil
	}
	_, err := fmt.Fprintf(w, "Map: %s\nDuration: %s (%d ticks)\nUser: %s\nServer: %s\n",
		r.header.Map, FormatDuration(r.header.Duration), r.TickCount(), r.header.Nick, r.header.Server)
	return err
}

// FormatDuration renders seconds as hh:mm:ss.mmm.
func FormatDuration(seconds float32) string {
	s := math.Max(float64(seconds), 0)
	total := int64(math.Floor(s))
	ms := int64(math.Floor((s - float64(total)) * 1000))
	return fmt.Sprintf("%02d:%02d:%02d.%03d", total/3600, total%3600/60, total%60, ms)
}
