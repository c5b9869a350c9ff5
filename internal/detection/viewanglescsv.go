// Demoscope - Demo Recording Cheat Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/demoscope

package detection

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/tomtom215/demoscope/internal/demo"
	"github.com/tomtom215/demoscope/internal/steamid"
	"github.com/tomtom215/demoscope/internal/world"
)

var viewAnglesCSVHeader = []string{
	"tick", "name", "steam_id",
	"origin_x", "origin_y", "origin_z",
	"viewangle", "pitchangle", "va_delta", "pa_delta",
}

type viewAngleRow struct {
	tick      demo.Tick
	name      string
	steamID   string
	origin    mgl32.Vec3
	angles    Angles
	yawRate   float64
	pitchRate float64
}

func (r *viewAngleRow) record() []string {
	return []string{
		strconv.FormatUint(uint64(r.tick), 10),
		r.name,
		r.steamID,
		formatFloat32(r.origin.X()),
		formatFloat32(r.origin.Y()),
		formatFloat32(r.origin.Z()),
		formatFloat32(r.angles.Yaw),
		formatFloat32(r.angles.Pitch),
		strconv.FormatFloat(r.yawRate, 'g', -1, 64),
		strconv.FormatFloat(r.pitchRate, 'g', -1, 64),
	}
}

func formatFloat32(v float32) string {
	return strconv.FormatFloat(float64(v), 'g', -1, 32)
}

// ViewAnglesCSVDetector writes the view angles of every visible player at
// every tick to <output dir>/viewangles_to_csv.csv, sorted by SteamID and
// then tick. va_delta and pa_delta are per-tick rates against the previous
// tick the player was visible on, NaN when there is none. It never reports
// findings.
type ViewAnglesCSVDetector struct {
	dumpFile
	file *os.File

	rows     []viewAngleRow
	prev     map[steamid.ID]Angles
	next     map[steamid.ID]Angles
	prevTick demo.Tick
}

// NewViewAnglesCSV creates a viewangles_to_csv detector.
func NewViewAnglesCSV(opts Options) *ViewAnglesCSVDetector {
	return &ViewAnglesCSVDetector{
		dumpFile: newDumpFile(NameViewAnglesCSV, extCSV, opts, 2048),
		prev:     make(map[steamid.ID]Angles),
		next:     make(map[steamid.ID]Angles),
	}
}

// Name returns the detector name.
func (d *ViewAnglesCSVDetector) Name() string { return NameViewAnglesCSV }

// EnabledByDefault reports false.
func (d *ViewAnglesCSVDetector) EnabledByDefault() bool { return false }

// Params returns the tunable parameters.
func (d *ViewAnglesCSVDetector) Params() *Params { return d.params }

// Init creates the output file and writes the header row.
func (d *ViewAnglesCSVDetector) Init(context.Context) error {
	if err := os.MkdirAll(filepath.Dir(d.path()), 0o755); err != nil {
		return fmt.Errorf("failed to create dump directory: %w", err)
	}
	f, err := os.Create(d.path())
	if err != nil {
		return fmt.Errorf("failed to create dump file: %w", err)
	}
	w := csv.NewWriter(f)
	if err := w.Write(viewAnglesCSVHeader); err != nil {
		_ = f.Close()
		return err
	}
	w.Flush()
	if err := w.Error(); err != nil {
		_ = f.Close()
		return err
	}
	d.file = f
	d.logger.Debug().Str("path", d.path()).Msg("Dump file opened")
	return nil
}

// OnTick records one row per visible player.
func (d *ViewAnglesCSVDetector) OnTick(_ context.Context, snap *world.Snapshot) ([]Finding, error) {
	if d.file == nil {
		return nil, errors.New("dump file not open")
	}
	gap := snap.Tick - d.prevTick
	if snap.Tick < d.prevTick {
		gap = 0
	}

	clear(d.next)
	for i := range snap.Players {
		p := &snap.Players[i]
		id, ok := p.Identity()
		if !ok {
			continue
		}
		cur := AnglesOf(p)
		row := viewAngleRow{
			tick:      snap.Tick,
			name:      p.Info.Name,
			steamID:   p.Info.SteamID,
			origin:    p.Position,
			angles:    cur,
			yawRate:   math.NaN(),
			pitchRate: math.NaN(),
		}
		if prev, ok := d.prev[id]; ok {
			row.yawRate, row.pitchRate = ViewAngleDelta(prev, cur, gap)
		}
		d.rows = append(d.rows, row)
		d.next[id] = cur
	}
	d.prev, d.next = d.next, d.prev
	d.prevTick = snap.Tick
	return nil, nil
}

// Finish writes the buffered rows and closes the file.
func (d *ViewAnglesCSVDetector) Finish(context.Context) ([]Finding, error) {
	if d.file == nil {
		return nil, errors.New("dump file not open")
	}
	// Rows arrive in tick order, so a stable sort keeps ticks ascending.
	slices.SortStableFunc(d.rows, func(a, b viewAngleRow) int {
		return strings.Compare(a.steamID, b.steamID)
	})

	w := csv.NewWriter(d.file)
	batch := max(d.params.Int(ParamWriteBatchSize), 1)
	for i := range d.rows {
		if err := w.Write(d.rows[i].record()); err != nil {
			return nil, errors.Join(err, d.Close())
		}
		d.written++
		if int64(i+1)%batch == 0 {
			w.Flush()
			if err := w.Error(); err != nil {
				return nil, errors.Join(err, d.Close())
			}
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, errors.Join(err, d.Close())
	}
	d.rows = nil
	return nil, d.Close()
}

// Close closes the file. Rows not yet written by Finish are dropped. It is
// safe to call more than once.
func (d *ViewAnglesCSVDetector) Close() error {
	if d.file == nil {
		return nil
	}
	err := d.file.Close()
	d.file = nil
	d.logger.Debug().Str("path", d.path()).Int64("lines", d.written).Msg("Dump file closed")
	return err
}
