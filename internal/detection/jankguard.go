// Demoscope - Demo Recording Cheat Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/demoscope

package detection

import (
	"github.com/tomtom215/demoscope/internal/demo"
	"github.com/tomtom215/demoscope/internal/steamid"
	"github.com/tomtom215/demoscope/internal/world"
)

// Suppression parameters shared by every JankGuard user.
const (
	ParamSpawnWindow       = "spawn_window"
	ParamFireWindow        = "fire_window"
	ParamRequireRecentFire = "require_recent_fire"
)

const (
	defaultSpawnWindow = 60
	defaultFireWindow  = 5

	// teleportDistanceSq is the squared distance a player may move between
	// two consecutive ticks before the move counts as a teleport.
	teleportDistanceSq = 256 * 256
)

// defineGuardParams adds the shared suppression parameters to p.
func defineGuardParams(p *Params) *Params {
	return p.
		DefineInt(ParamSpawnWindow, defaultSpawnWindow).
		DefineInt(ParamFireWindow, defaultFireWindow).
		DefineBool(ParamRequireRecentFire, false)
}

type jankState struct {
	lastSpawn    demo.Tick
	lastTeleport demo.Tick
	lastFire     demo.Tick
	spawned      bool
	teleported   bool
	fired        bool

	prev    world.Player
	hasPrev bool

	// acked is the discontinuity tick a caller was last told about.
	acked    demo.Tick
	hasAcked bool
}

// discontinuity returns the most recent spawn or teleport tick.
func (s *jankState) discontinuity() (demo.Tick, bool) {
	switch {
	case s.spawned && s.teleported:
		return max(s.lastSpawn, s.lastTeleport), true
	case s.spawned:
		return s.lastSpawn, true
	case s.teleported:
		return s.lastTeleport, true
	default:
		return 0, false
	}
}

// JankGuard tracks per-identity spawn, teleport and fire history so
// detectors can ignore the legitimate angle jumps around those events.
// Each detector owns its own guard. Not safe for concurrent use.
type JankGuard struct {
	params *Params
	states map[steamid.ID]*jankState
	seen   map[steamid.ID]bool
}

// NewJankGuard returns a guard reading its windows from params.
func NewJankGuard(params *Params) *JankGuard {
	return &JankGuard{
		params: params,
		states: make(map[steamid.ID]*jankState),
		seen:   make(map[steamid.ID]bool),
	}
}

// HandledMessages lists the messages the guard needs.
func (g *JankGuard) HandledMessages() MessageFilter {
	return OnlyMessages(demo.MessageGameEvent, demo.MessageTempEntities)
}

func (g *JankGuard) state(id steamid.ID) *jankState {
	st, ok := g.states[id]
	if !ok {
		st = &jankState{}
		g.states[id] = st
	}
	return st
}

// OnMessage records spawn and teleport events and weapon fire.
func (g *JankGuard) OnMessage(msg *demo.Message, snap *world.Snapshot, tick demo.Tick) {
	switch msg.Type {
	case demo.MessageGameEvent:
		if msg.Event == nil {
			return
		}
		if _, ok := msg.Event.Fields[demo.FieldUserID]; !ok {
			return
		}
		id, ok := snap.IdentityForUser(msg.Event.UserID())
		if !ok {
			return
		}
		switch msg.Event.Name {
		case demo.EventPlayerSpawn, demo.EventPostInventoryApplication:
			g.MarkSpawn(id, tick)
		case demo.EventPlayerTeleported:
			g.MarkTeleport(id, tick)
		}
	case demo.MessageTempEntities:
		for i := range msg.TempEntities {
			entity, ok := msg.TempEntities[i].Shooter()
			if !ok {
				continue
			}
			if id, ok := snap.IdentityForEntity(entity); ok {
				g.MarkFire(id, tick)
			}
		}
	}
}

// OnTick detects implicit teleports and stores each player as the
// previous-tick state. Players missing from snap lose their previous state.
func (g *JankGuard) OnTick(snap *world.Snapshot) {
	clear(g.seen)
	for i := range snap.Players {
		p := &snap.Players[i]
		id, ok := p.Identity()
		if !ok {
			continue
		}
		g.seen[id] = true
		st := g.state(id)
		if st.hasPrev {
			d := p.Position.Sub(st.prev.Position)
			if d.Dot(d) > teleportDistanceSq {
				g.MarkTeleport(id, snap.Tick)
			}
		}
		if p.ShotFired != 0 && (!st.fired || p.ShotFired > st.lastFire) {
			st.lastFire, st.fired = p.ShotFired, true
		}
		st.prev, st.hasPrev = *p, true
	}
	for id, st := range g.states {
		if !g.seen[id] {
			st.hasPrev = false
		}
	}
}

// MarkSpawn records a spawn for id.
func (g *JankGuard) MarkSpawn(id steamid.ID, tick demo.Tick) {
	st := g.state(id)
	st.lastSpawn, st.spawned = tick, true
}

// MarkTeleport records a teleport for id.
func (g *JankGuard) MarkTeleport(id steamid.ID, tick demo.Tick) {
	st := g.state(id)
	st.lastTeleport, st.teleported = tick, true
}

// MarkFire records weapon fire for id.
func (g *JankGuard) MarkFire(id steamid.ID, tick demo.Tick) {
	st := g.state(id)
	st.lastFire, st.fired = tick, true
}

// Previous returns id's player state from the previous tick.
func (g *JankGuard) Previous(id steamid.ID) (world.Player, bool) {
	st, ok := g.states[id]
	if !ok || !st.hasPrev {
		return world.Player{}, false
	}
	return st.prev, true
}

func since(last, tick demo.Tick) demo.Tick {
	if last > tick {
		return 0
	}
	return tick - last
}

// Spawned returns the ticks since id last spawned.
func (g *JankGuard) Spawned(id steamid.ID, tick demo.Tick) (demo.Tick, bool) {
	st, ok := g.states[id]
	if !ok || !st.spawned {
		return 0, false
	}
	return since(st.lastSpawn, tick), true
}

// Teleported returns the ticks since id last teleported.
func (g *JankGuard) Teleported(id steamid.ID, tick demo.Tick) (demo.Tick, bool) {
	st, ok := g.states[id]
	if !ok || !st.teleported {
		return 0, false
	}
	return since(st.lastTeleport, tick), true
}

// Fired returns the ticks since id last fired.
func (g *JankGuard) Fired(id steamid.ID, tick demo.Tick) (demo.Tick, bool) {
	st, ok := g.states[id]
	if !ok || !st.fired {
		return 0, false
	}
	return since(st.lastFire, tick), true
}

// Suppressed reports whether id is inside the spawn/teleport window at tick.
func (g *JankGuard) Suppressed(id steamid.ID, tick demo.Tick) bool {
	st, ok := g.states[id]
	if !ok {
		return false
	}
	event, ok := st.discontinuity()
	if !ok {
		return false
	}
	return int64(since(event, tick)) < g.params.Int(ParamSpawnWindow)
}

// Opened calls fn once for every spawn or teleport recorded since the
// previous call, with the identity and the tick of the event.
func (g *JankGuard) Opened(fn func(id steamid.ID, event demo.Tick)) {
	for id, st := range g.states {
		event, ok := st.discontinuity()
		if !ok || (st.hasAcked && st.acked == event) {
			continue
		}
		st.acked, st.hasAcked = event, true
		fn(id, event)
	}
}

// SpawnWindow returns the configured spawn/teleport window in ticks.
func (g *JankGuard) SpawnWindow() int64 {
	return g.params.Int(ParamSpawnWindow)
}

// FireBlocks reports whether recent weapon fire rules out a finding for id.
// By default firing within fire_window suppresses; with
// require_recent_fire set, a finding needs fire within the window instead.
func (g *JankGuard) FireBlocks(id steamid.ID, tick demo.Tick) bool {
	window := g.params.Int(ParamFireWindow)
	n, ok := g.Fired(id, tick)
	recent := ok && int64(n) < window
	if g.params.Bool(ParamRequireRecentFire) {
		return !recent
	}
	return recent
}
