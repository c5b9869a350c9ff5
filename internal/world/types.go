// Demoscope - Demo Recording Cheat Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/demoscope

package world

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/tomtom215/demoscope/internal/demo"
	"github.com/tomtom215/demoscope/internal/steamid"
)

// Class is a TF2 player class.
type Class uint8

const (
	ClassOther Class = iota
	ClassScout
	ClassSniper
	ClassSoldier
	ClassDemoman
	ClassMedic
	ClassHeavy
	ClassPyro
	ClassSpy
	ClassEngineer
)

var classNames = [...]string{"Other", "Scout", "Sniper", "Soldier", "Demoman", "Medic", "Heavy", "Pyro", "Spy", "Engineer"}

// ClassFromInt maps the networked class number, defaulting to ClassOther.
func ClassFromInt(v int64) Class {
	if v < 0 || v >= int64(len(classNames)) {
		return ClassOther
	}
	return Class(v)
}

func (c Class) String() string {
	if int(c) < len(classNames) {
		return classNames[c]
	}
	return classNames[0]
}

// MarshalText implements encoding.TextMarshaler.
func (c Class) MarshalText() ([]byte, error) { return []byte(c.String()), nil }

// Team is a TF2 team.
type Team uint8

const (
	TeamOther Team = iota
	TeamSpectator
	TeamRed
	TeamBlue
)

var teamNames = [...]string{"Other", "Spectator", "Red", "Blue"}

// TeamFromInt maps the networked team number, defaulting to TeamOther.
func TeamFromInt(v int64) Team {
	if v < 0 || v >= int64(len(teamNames)) {
		return TeamOther
	}
	return Team(v)
}

func (t Team) String() string {
	if int(t) < len(teamNames) {
		return teamNames[t]
	}
	return teamNames[0]
}

// MarshalText implements encoding.TextMarshaler.
func (t Team) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

// LifeState is the networked m_lifeState of a player.
type LifeState uint8

const (
	Alive LifeState = iota
	Dying
	Death
	Respawnable
)

var lifeStateNames = [...]string{"Alive", "Dying", "Death", "Respawnable"}

// LifeStateFromInt maps the networked value. Unknown values are Alive.
func LifeStateFromInt(v int64) LifeState {
	if v < 0 || v >= int64(len(lifeStateNames)) {
		return Alive
	}
	return LifeState(v)
}

func (s LifeState) String() string {
	if int(s) < len(lifeStateNames) {
		return lifeStateNames[s]
	}
	return lifeStateNames[0]
}

// MarshalText implements encoding.TextMarshaler.
func (s LifeState) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// UserInfo is the identity attached to a player from the userinfo table.
type UserInfo struct {
	Name     string        `json:"name"`
	UserID   demo.UserID   `json:"userId"`
	SteamID  string        `json:"steamId"`
	EntityID demo.EntityID `json:"entityId"`

	// ID is the parsed SteamID64; zero for bots and unparsable ids.
	ID steamid.ID `json:"-"`
}

// IsBot reports whether the info belongs to a server-side fake player.
func (u *UserInfo) IsBot() bool {
	return u.SteamID == steamid.Bot
}

// Player is the reconstructed state of one player entity.
type Player struct {
	Entity     demo.EntityID `json:"entity"`
	Position   mgl32.Vec3    `json:"position"`
	Health     uint16        `json:"health"`
	MaxHealth  uint16        `json:"max_health"`
	Class      Class         `json:"class"`
	Team       Team          `json:"team"`
	ViewAngle  float32       `json:"view_angle"`
	PitchAngle float32       `json:"pitch_angle"`
	State      LifeState     `json:"state"`
	Info       *UserInfo     `json:"info"`
	Charge     uint8         `json:"charge"`
	SimTime    uint16        `json:"simtime"`
	Ping       uint16        `json:"ping"`
	InPVS      bool          `json:"in_pvs"`
	ShotFired  demo.Tick     `json:"shot_fired"`
}

// Identity returns the player's SteamID64, if known and not a bot.
func (p *Player) Identity() (steamid.ID, bool) {
	if p.Info == nil || p.Info.ID == 0 {
		return 0, false
	}
	return p.Info.ID, true
}

// Visible reports whether the player belongs in the detector view: in the
// observer's PVS, alive, and a human with a known identity.
func (p *Player) Visible() bool {
	if !p.InPVS || p.State != Alive || p.Info == nil || p.Info.IsBot() {
		return false
	}
	return p.Info.ID != 0
}

// World holds the map boundaries.
type World struct {
	BoundaryMin mgl32.Vec3 `json:"boundary_min"`
	BoundaryMax mgl32.Vec3 `json:"boundary_max"`
}

// Contains reports whether pos lies inside the world bounds.
func (w *World) Contains(pos mgl32.Vec3) bool {
	for i := range 3 {
		if pos[i] < w.BoundaryMin[i] || pos[i] > w.BoundaryMax[i] {
			return false
		}
	}
	return true
}

// BuildingKind is the variant of a building.
type BuildingKind uint8

const (
	KindSentry BuildingKind = iota
	KindDispenser
	KindTeleporter
)

func (k BuildingKind) String() string {
	switch k {
	case KindSentry:
		return "Sentry"
	case KindDispenser:
		return "Dispenser"
	case KindTeleporter:
		return "Teleporter"
	default:
		return fmt.Sprintf("BuildingKind(%d)", uint8(k))
	}
}

// Building is a Sentry, Dispenser or Teleporter.
type Building interface {
	Base() *BuildingBase
	Kind() BuildingKind
	clone() Building
}

// BuildingBase holds the fields every building shares.
type BuildingBase struct {
	Entity    demo.EntityID `json:"entity"`
	Builder   demo.EntityID `json:"builder"`
	Position  mgl32.Vec3    `json:"position"`
	Level     uint8         `json:"level"`
	MaxHealth uint16        `json:"max_health"`
	Health    uint16        `json:"health"`
	Building  bool          `json:"building"`
	Sapped    bool          `json:"sapped"`
	Team      Team          `json:"team"`
	Angle     float32       `json:"angle"`
}

// Base returns the shared fields.
func (b *BuildingBase) Base() *BuildingBase { return b }

// Sentry is an engineer sentry gun.
type Sentry struct {
	BuildingBase
	PlayerControlled bool          `json:"player_controlled"`
	AutoAimTarget    demo.EntityID `json:"auto_aim_target"`
	Shells           uint16        `json:"shells"`
	Rockets          uint16        `json:"rockets"`
	IsMini           bool          `json:"is_mini"`
}

// Kind implements Building.
func (*Sentry) Kind() BuildingKind { return KindSentry }

func (s *Sentry) clone() Building {
	c := *s
	return &c
}

// Dispenser is an engineer dispenser.
type Dispenser struct {
	BuildingBase
	Healing []demo.EntityID `json:"healing"`
	Metal   uint16          `json:"metal"`
}

// Kind implements Building.
func (*Dispenser) Kind() BuildingKind { return KindDispenser }

// clone shares Healing; the builder replaces the slice and never edits it.
func (d *Dispenser) clone() Building {
	c := *d
	return &c
}

// Teleporter is an engineer teleporter entrance or exit.
type Teleporter struct {
	BuildingBase
	IsEntrance       bool          `json:"is_entrance"`
	OtherEnd         demo.EntityID `json:"other_end"`
	RechargeTime     float32       `json:"recharge_time"`
	RechargeDuration float32       `json:"recharge_duration"`
	TimesUsed        uint16        `json:"times_used"`
	YawToExit        float32       `json:"yaw_to_exit"`
}

// Kind implements Building.
func (*Teleporter) Kind() BuildingKind { return KindTeleporter }

func (t *Teleporter) clone() Building {
	c := *t
	return &c
}

func newBuilding(kind BuildingKind, entity demo.EntityID) Building {
	base := BuildingBase{Entity: entity}
	switch kind {
	case KindDispenser:
		return &Dispenser{BuildingBase: base}
	case KindTeleporter:
		return &Teleporter{BuildingBase: base}
	default:
		return &Sentry{BuildingBase: base}
	}
}
