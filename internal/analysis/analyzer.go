// Demoscope - Demo Recording Cheat Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/demoscope

package analysis

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/tomtom215/demoscope/internal/cache"
	"github.com/tomtom215/demoscope/internal/demo"
	"github.com/tomtom215/demoscope/internal/detection"
	"github.com/tomtom215/demoscope/internal/metrics"
	"github.com/tomtom215/demoscope/internal/world"
)

// ErrInvalidState is returned when a lifecycle method is called out of order.
var ErrInvalidState = errors.New("invalid analyzer state")

// State is the analyzer lifecycle position.
type State uint8

const (
	StateUninitialized State = iota
	StateInitialized
	StateRunning
	StateFinished
)

var stateNames = [...]string{"uninitialized", "initialized", "running", "finished"}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "unknown"
}

// Detector phases used in logs and metrics.
const (
	phaseInit    = "init"
	phaseMessage = "message"
	phaseTick    = "tick"
	phaseFinish  = "finish"
)

// tpsWindow is the number of progress samples averaged for ticks per second.
const tpsWindow = 10

// Config configures one analyzer.
type Config struct {
	// Logger receives progress and diagnostics. A disabled logger makes the
	// run silent.
	Logger zerolog.Logger

	// Progress enables the once-per-second "Processing tick" report.
	Progress bool
}

// runner wraps one detector with its optional hooks resolved once.
type runner struct {
	name    string
	det     detection.Detector
	active  bool
	message detection.MessageHandler
	filter  detection.MessageFilter
	tick    detection.TickHandler
}

type progressSample struct {
	at   time.Time
	tick demo.Tick
}

// Analyzer drives one recording through the world builder and detectors.
//
// Lifecycle: New, Init, any number of Handle calls, Finish. Methods called
// out of that order return ErrInvalidState. Not safe for concurrent use;
// independent analyzers may run in parallel.
type Analyzer struct {
	logger  zerolog.Logger
	cfg     Config
	builder *world.Builder
	runners []*runner
	state   State

	header    demo.Header
	hasHeader bool
	findings  []detection.Finding

	lastView *world.Snapshot
	lastTick demo.Tick
	ticked   bool
	ticks    int

	progress rate.Sometimes
	samples  *cache.Ring[progressSample]
	now      func() time.Time
}

// New creates an analyzer over detectors.
//
//nolint:gocritic // Config carries a zerolog.Logger by value
func New(detectors []detection.Detector, cfg Config) *Analyzer {
	runners := make([]*runner, 0, len(detectors))
	for _, d := range detectors {
		r := &runner{name: d.Name(), det: d, active: true}
		if mh, ok := d.(detection.MessageHandler); ok {
			r.message = mh
			r.filter = mh.HandledMessages()
		}
		if th, ok := d.(detection.TickHandler); ok {
			r.tick = th
		}
		runners = append(runners, r)
	}

	return &Analyzer{
		logger:   cfg.Logger,
		cfg:      cfg,
		builder:  world.NewBuilder(),
		runners:  runners,
		progress: rate.Sometimes{Interval: time.Second},
		samples:  cache.NewRing[progressSample](tpsWindow),
		now:      time.Now,
	}
}

// State returns the lifecycle state.
func (a *Analyzer) State() State { return a.state }

// Builder exposes the live world builder for inspection.
func (a *Analyzer) Builder() *world.Builder { return a.builder }

// SetHeader records the demo header used for progress and the report.
func (a *Analyzer) SetHeader(h demo.Header) {
	a.header = h
	a.hasHeader = true
}

// Init initializes every detector. A detector whose Init fails is logged
// and left out of the rest of the run.
func (a *Analyzer) Init(ctx context.Context) error {
	if a.state != StateUninitialized {
		return fmt.Errorf("%w: Init called while %s", ErrInvalidState, a.state)
	}

	for _, r := range a.runners {
		initializer, ok := r.det.(detection.Initializer)
		if !ok {
			continue
		}
		if err := initializer.Init(ctx); err != nil {
			r.active = false
			a.detectorError(r, phaseInit, err)
			a.logger.Warn().Str("detector", r.name).Msg("Detector disabled for this run")
		}
	}

	a.state = StateInitialized
	a.logger.Debug().Int("detectors", a.activeCount()).Msg("Analyzer initialized")
	return nil
}

// Handle applies one record to the world state and dispatches it to the
// detectors. A net_tick message closes the tick: every detector's OnTick
// runs with a fresh snapshot, after all of that tick's messages.
func (a *Analyzer) Handle(ctx context.Context, rec *demo.Record) error {
	switch a.state {
	case StateInitialized:
		a.state = StateRunning
	case StateRunning:
	default:
		return fmt.Errorf("%w: Handle called while %s", ErrInvalidState, a.state)
	}

	if rec.Kind == demo.RecordHeader {
		if rec.Header != nil {
			a.SetHeader(*rec.Header)
		}
		return nil
	}

	metrics.RecordRecord(string(rec.Kind))
	if err := a.builder.Apply(rec); err != nil {
		// Builder state is unchanged for the failing entry.
		a.logger.Warn().Err(err).Uint32("tick", uint32(rec.Tick)).Msg("Failed to apply record")
	}

	if rec.Kind != demo.RecordMessage || rec.Message == nil {
		return nil
	}
	msg := rec.Message
	tick := a.builder.Tick()

	var view *world.Snapshot
	for _, r := range a.runners {
		if !r.active || r.message == nil || !r.filter.Handles(msg.Type) {
			continue
		}
		if view == nil {
			view = a.builder.Refresh(a.lastView)
		}
		findings, err := r.message.OnMessage(ctx, msg, view, tick)
		a.collect(r, phaseMessage, findings, err)
	}

	if msg.Type == demo.MessageNetTick {
		a.endTick(ctx, tick)
	}
	return nil
}

func (a *Analyzer) endTick(ctx context.Context, tick demo.Tick) {
	if a.ticked && tick == a.lastTick {
		return
	}
	a.ticked = true
	a.lastTick = tick
	a.ticks++
	metrics.RecordTick()

	if a.cfg.Progress {
		a.progress.Do(func() { a.reportProgress(tick) })
	}

	view := a.builder.View()
	a.lastView = view
	for _, r := range a.runners {
		if !r.active || r.tick == nil {
			continue
		}
		findings, err := r.tick.OnTick(ctx, view)
		a.collect(r, phaseTick, findings, err)
	}
}

func (a *Analyzer) reportProgress(tick demo.Tick) {
	a.samples.Push(progressSample{at: a.now(), tick: tick})

	var tps float64
	oldest, _ := a.samples.Oldest()
	newest, _ := a.samples.Newest()
	if elapsed := newest.at.Sub(oldest.at).Seconds(); elapsed > 0 {
		tps = float64(newest.tick-oldest.tick) / elapsed
	}

	var remaining uint32
	if a.header.Ticks > uint32(tick) {
		remaining = a.header.Ticks - uint32(tick)
	}
	a.logger.Info().
		Uint32("tick", uint32(tick)).
		Uint32("remaining", remaining).
		Float64("tps", tps).
		Msgf("Processing tick %d (%d remaining, %.0f tps)", tick, remaining, tps)
}

// Finish calls every detector's Finish and returns the report.
func (a *Analyzer) Finish(ctx context.Context) (*Report, error) {
	if a.state != StateInitialized && a.state != StateRunning {
		return nil, fmt.Errorf("%w: Finish called while %s", ErrInvalidState, a.state)
	}

	for _, r := range a.runners {
		if !r.active {
			continue
		}
		if f, ok := r.det.(detection.Finisher); ok {
			findings, err := f.Finish(ctx)
			a.collect(r, phaseFinish, findings, err)
		}
		if rt, ok := r.det.(detection.Retractor); ok && rt.Retracted() > 0 {
			metrics.RecordRetracted(r.name, rt.Retracted())
			a.logger.Debug().Str("detector", r.name).Int("retracted", rt.Retracted()).Msg("Findings retracted")
		}
	}
	a.closeDetectors()
	a.state = StateFinished

	a.logger.Debug().
		Int("ticks", a.ticks).
		Int("findings", len(a.findings)).
		Msg("Analysis finished")
	return a.report(), nil
}

// Close releases detector resources without finishing the run. It is used
// when a run is aborted and is a no-op after Finish.
func (a *Analyzer) Close() error {
	if a.state == StateFinished {
		return nil
	}
	err := a.closeDetectors()
	a.state = StateFinished
	return err
}

func (a *Analyzer) closeDetectors() error {
	var errs []error
	for _, r := range a.runners {
		if c, ok := r.det.(io.Closer); ok {
			if err := c.Close(); err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", r.name, err))
			}
		}
	}
	return errors.Join(errs...)
}

// collect keeps the findings of a successful callback. A failed callback
// is logged and its findings are discarded.
func (a *Analyzer) collect(r *runner, phase string, findings []detection.Finding, err error) {
	if err != nil {
		a.detectorError(r, phase, err)
		return
	}
	if len(findings) == 0 {
		return
	}
	a.findings = append(a.findings, findings...)
	metrics.RecordFindings(r.name, len(findings))
}

func (a *Analyzer) detectorError(r *runner, phase string, err error) {
	err = fmt.Errorf("%s: %w", r.name, err)
	metrics.RecordDetectorError(r.name, phase)
	a.logger.Warn().Err(err).Str("detector", r.name).Str("phase", phase).Msg("Detector error")
}

func (a *Analyzer) activeCount() int {
	n := 0
	for _, r := range a.runners {
		if r.active {
			n++
		}
	}
	return n
}

// Findings returns the findings collected so far.
func (a *Analyzer) Findings() []detection.Finding { return a.findings }

// Run drives a full analysis of dec. Malformed records are logged and
// skipped; any other decoder error aborts the run.
//
//nolint:gocritic // Config carries a zerolog.Logger by value
func Run(ctx context.Context, dec demo.Decoder, detectors []detection.Detector, cfg Config) (report *Report, err error) {
	start := time.Now()
	metrics.TrackActiveRun(true)
	defer func() {
		metrics.TrackActiveRun(false)
		metrics.RecordRun(time.Since(start), err)
	}()

	a := New(detectors, cfg)
	a.SetHeader(dec.Header())
	if err := a.Init(ctx); err != nil {
		return nil, err
	}
	a.logger.Info().Str("map", dec.Header().Map).Int("detectors", a.activeCount()).Msg("Starting analysis")

	for {
		if err := ctx.Err(); err != nil {
			_ = a.Close()
			return nil, err
		}
		rec, err := dec.Next(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		if errors.Is(err, demo.ErrMalformedRecord) {
			metrics.RecordDecodeError()
			a.logger.Warn().Err(err).Msg("Skipping malformed record")
			continue
		}
		if err != nil {
			_ = a.Close()
			return nil, fmt.Errorf("failed to read record: %w", err)
		}
		if err := a.Handle(ctx, rec); err != nil {
			_ = a.Close()
			return nil, err
		}
	}

	report, err = a.Finish(ctx)
	if err != nil {
		return nil, err
	}
	elapsed := time.Since(start)
	a.logger.Info().
		Int("ticks", a.ticks).
		Int("findings", len(report.Detections)).
		Dur("elapsed", elapsed).
		Msgf("Done! (Processed %d ticks in %.2f seconds)", a.ticks, elapsed.Seconds())
	return report, nil
}
