// Demoscope - Demo Recording Cheat Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/demoscope

package world

import (
	"errors"
	"fmt"

	"github.com/tomtom215/demoscope/internal/demo"
	"github.com/tomtom215/demoscope/internal/steamid"
)

// Server class names routed by ApplyEntity.
const (
	ClassNamePlayer         = "CTFPlayer"
	ClassNamePlayerResource = "CTFPlayerResource"
	ClassNameWorld          = "CWorld"
	ClassNameSentry         = "CObjectSentrygun"
	ClassNameDispenser      = "CObjectDispenser"
	ClassNameTeleporter     = "CObjectTeleporter"
)

// Builder maintains the live game state of one recording.
// It is not safe for concurrent use.
type Builder struct {
	players     []*Player
	playerIndex map[demo.EntityID]int
	buildings   *Buildings
	world       *World
	tick        demo.Tick
	classNames  map[demo.ClassID]string
	ids         *identities
}

// NewBuilder returns an empty builder.
func NewBuilder() *Builder {
	return &Builder{
		playerIndex: make(map[demo.EntityID]int),
		buildings:   NewBuildings(),
		classNames:  make(map[demo.ClassID]string),
		ids:         newIdentities(),
	}
}

// Tick returns the tick of the most recent message record.
func (b *Builder) Tick() demo.Tick { return b.tick }

// SetTick sets the current tick.
func (b *Builder) SetTick(t demo.Tick) { b.tick = t }

// Apply routes one record to the matching handler. The only error it
// returns is a userinfo entry whose data cannot be decoded; state is left
// as it was for that entry.
func (b *Builder) Apply(rec *demo.Record) error {
	switch rec.Kind {
	case demo.RecordDataTables:
		b.SetServerClasses(rec.Classes)
	case demo.RecordStringTable:
		if rec.Table != nil {
			return b.ApplyStringTable(rec.Table)
		}
	case demo.RecordMessage:
		b.tick = rec.Tick
		if rec.Message != nil {
			return b.applyMessage(rec.Message)
		}
	}
	return nil
}

func (b *Builder) applyMessage(msg *demo.Message) error {
	switch msg.Type {
	case demo.MessagePacketEntities:
		for i := range msg.Entities {
			b.ApplyEntity(&msg.Entities[i])
		}
	case demo.MessageGameEvent:
		if msg.Event != nil {
			b.ApplyGameEvent(msg.Event)
		}
	case demo.MessageTempEntities:
		b.ApplyTempEntities(msg.TempEntities)
	case demo.MessageCreateStringTable, demo.MessageUpdateStringTable:
		if msg.Table != nil {
			return b.ApplyStringTable(msg.Table)
		}
	}
	return nil
}

// SetServerClasses records the class-id to class-name table.
func (b *Builder) SetServerClasses(classes []demo.ServerClass) {
	for _, c := range classes {
		b.classNames[c.ID] = c.Name
	}
}

// ClassName resolves a server class id.
func (b *Builder) ClassName(id demo.ClassID) (string, bool) {
	name, ok := b.classNames[id]
	return name, ok
}

// ApplyEntity applies one entity delta. Entities of classes without a
// handler are ignored.
func (b *Builder) ApplyEntity(e *demo.PacketEntity) {
	name, ok := b.classNames[e.ServerClass]
	if !ok {
		return
	}
	switch name {
	case ClassNamePlayer:
		b.handlePlayer(e)
	case ClassNamePlayerResource:
		b.handlePlayerResource(e)
	case ClassNameWorld:
		b.handleWorld(e)
	case ClassNameSentry:
		b.handleBuilding(e, KindSentry)
	case ClassNameDispenser:
		b.handleBuilding(e, KindDispenser)
	case ClassNameTeleporter:
		b.handleBuilding(e, KindTeleporter)
	}
}

// ApplyStringTable applies a full or partial string table. Only the
// userinfo table is consumed.
func (b *Builder) ApplyStringTable(table *demo.StringTable) error {
	if table.Name != demo.UserInfoTable {
		return nil
	}
	var errs []error
	for i := range table.Entries {
		if err := b.ApplyStringEntry(table.Name, &table.Entries[i]); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// ApplyStringEntry attaches the identity decoded from a userinfo entry to
// the player at entity index+1, creating the player if needed. Entries
// without user data (disconnected slots) are ignored.
func (b *Builder) ApplyStringEntry(table string, entry *demo.StringTableEntry) error {
	if table != demo.UserInfoTable || len(entry.Extra) == 0 {
		return nil
	}
	raw, err := demo.ParsePlayerInfo(entry.Extra)
	if err != nil {
		return fmt.Errorf("userinfo entry %d: %w", entry.Index, err)
	}

	info := &UserInfo{
		Name:     raw.Name,
		UserID:   raw.UserID,
		SteamID:  raw.GUID,
		EntityID: demo.EntityID(entry.Index + 1),
	}
	if id, err := steamid.Parse(raw.GUID); err == nil {
		info.ID = id
	}

	b.GetOrCreatePlayer(info.EntityID).Info = info
	b.ids = b.ids.with(info)
	return nil
}

// ApplyGameEvent handles round resets and building destruction.
func (b *Builder) ApplyGameEvent(ev *demo.GameEvent) {
	switch ev.Name {
	case demo.EventRoundStart, demo.EventTeamplayRoundStart:
		b.buildings.clear()
	case demo.EventObjectDestroyed:
		b.RemoveBuilding(demo.EntityID(ev.Int(demo.FieldIndex)))
	}
}

// ApplyTempEntities records the current tick as the last shot of every
// known player named by a tracer or fire animation.
func (b *Builder) ApplyTempEntities(events []demo.TempEntity) {
	for i := range events {
		entity, ok := events[i].Shooter()
		if !ok {
			continue
		}
		if p, ok := b.Player(entity); ok {
			p.ShotFired = b.tick
		}
	}
}

// Player returns the live player for entity, if it exists.
func (b *Builder) Player(entity demo.EntityID) (*Player, bool) {
	i, ok := b.playerIndex[entity]
	if !ok {
		return nil, false
	}
	return b.players[i], true
}

// Players returns the number of known players.
func (b *Builder) Players() int { return len(b.players) }

// GetOrCreatePlayer returns the player for entity, appending a zero-valued
// one in creation order if it does not exist yet.
func (b *Builder) GetOrCreatePlayer(entity demo.EntityID) *Player {
	if p, ok := b.Player(entity); ok {
		return p
	}
	p := &Player{Entity: entity}
	b.playerIndex[entity] = len(b.players)
	b.players = append(b.players, p)
	return p
}

// Building returns the live building at handle.
func (b *Builder) Building(handle demo.EntityID) (Building, bool) {
	return b.buildings.Get(handle)
}

// Buildings returns the number of standing buildings.
func (b *Builder) Buildings() int { return b.buildings.Len() }

// GetOrCreateBuilding returns the building at handle, creating one of kind
// if absent. An existing building keeps its original kind.
func (b *Builder) GetOrCreateBuilding(handle demo.EntityID, kind BuildingKind) Building {
	if bl, ok := b.buildings.Get(handle); ok {
		return bl
	}
	bl := newBuilding(kind, handle)
	b.buildings.set(handle, bl)
	return bl
}

// RemoveBuilding deletes the building at handle. Removing a handle that
// does not exist is a no-op.
func (b *Builder) RemoveBuilding(handle demo.EntityID) {
	b.buildings.remove(handle)
}

// World returns the world bounds, once seen.
func (b *Builder) World() (*World, bool) {
	return b.world, b.world != nil
}

// View returns a snapshot containing only visible players (see
// Player.Visible). The builder's own state is not filtered.
func (b *Builder) View() *Snapshot {
	return b.snapshot(true)
}

// Full returns a snapshot of every known player.
func (b *Builder) Full() *Snapshot {
	return b.snapshot(false)
}

func (b *Builder) snapshot(visibleOnly bool) *Snapshot {
	players := make([]Player, 0, len(b.players))
	for _, p := range b.players {
		if visibleOnly && !p.Visible() {
			continue
		}
		players = append(players, *p)
	}
	return &Snapshot{
		Tick:      b.tick,
		Players:   players,
		Buildings: b.buildings.clone(),
		World:     b.world,
		ids:       b.ids,
	}
}

// Refresh returns a shallow copy of s carrying the builder's current tick
// and identity index. Message handlers use it to resolve identities that
// arrived after s was taken without paying for a new copy of the players.
// A nil s yields an empty snapshot.
func (b *Builder) Refresh(s *Snapshot) *Snapshot {
	var out Snapshot
	if s != nil {
		out = *s
	}
	out.Tick = b.tick
	out.ids = b.ids
	return &out
}
