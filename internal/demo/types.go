// Demoscope - Demo Recording Cheat Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/demoscope

package demo

import (
	"fmt"
)

// Tick is one simulation step of the recording.
type Tick uint32

// EntityID is the session-local index of an entity in the edict table.
type EntityID uint32

// UserID is the server-assigned user id carried by game events.
type UserID uint16

// ClassID indexes the server class list sent in the datatables record.
type ClassID uint16

// EntityHandleMask extracts the entity index from a networked EHANDLE.
const EntityHandleMask = 0x7FF

// EntityFromHandle converts a networked entity handle to its entity index.
func EntityFromHandle(handle int64) EntityID {
	return EntityID(handle & EntityHandleMask)
}

// Header is the demo file header.
type Header struct {
	DemoType string  `json:"demo_type"`
	Version  uint32  `json:"version"`
	Protocol uint32  `json:"protocol"`
	Server   string  `json:"server"`
	Nick     string  `json:"nick"`
	Map      string  `json:"map"`
	Game     string  `json:"game"`
	Duration float32 `json:"duration"`
	Ticks    uint32  `json:"ticks"`
	Frames   uint32  `json:"frames"`
	Signon   uint32  `json:"signon"`
}

// ServerClass maps a class id to its networked class name.
type ServerClass struct {
	ID   ClassID `json:"id"`
	Name string  `json:"name"`
}

// RecordKind discriminates the top-level records of a stream.
type RecordKind string

const (
	RecordHeader      RecordKind = "header"
	RecordDataTables  RecordKind = "datatables"
	RecordStringTable RecordKind = "stringtable"
	RecordMessage     RecordKind = "message"
)

// Record is one line of the decoded stream.
type Record struct {
	Kind    RecordKind    `json:"kind"`
	Tick    Tick          `json:"tick,omitempty"`
	Header  *Header       `json:"header,omitempty"`
	Classes []ServerClass `json:"classes,omitempty"`
	Table   *StringTable  `json:"table,omitempty"`
	Message *Message      `json:"message,omitempty"`
}

// validate checks that the payload required by Kind is present.
func (r *Record) validate() error {
	switch r.Kind {
	case RecordHeader:
		if r.Header == nil {
			return fmt.Errorf("header record without header")
		}
	case RecordDataTables:
	case RecordStringTable:
		if r.Table == nil {
			return fmt.Errorf("stringtable record without table")
		}
	case RecordMessage:
		if r.Message == nil {
			return fmt.Errorf("message record without message")
		}
	default:
		return fmt.Errorf("unknown record kind %q", r.Kind)
	}
	return nil
}

// MessageType identifies the kind of a network message.
type MessageType uint8

const (
	MessageUnknown MessageType = iota
	MessageNetTick
	MessagePacketEntities
	MessageGameEvent
	MessageTempEntities
	MessageCreateStringTable
	MessageUpdateStringTable
	MessageServerInfo
	MessageUserMessage
)

var messageTypeNames = map[MessageType]string{
	MessageNetTick:           "net_tick",
	MessagePacketEntities:    "packet_entities",
	MessageGameEvent:         "game_event",
	MessageTempEntities:      "temp_entities",
	MessageCreateStringTable: "create_string_table",
	MessageUpdateStringTable: "update_string_table",
	MessageServerInfo:        "server_info",
	MessageUserMessage:       "user_message",
}

func (t MessageType) String() string {
	if name, ok := messageTypeNames[t]; ok {
		return name
	}
	return "unknown"
}

// MarshalText implements encoding.TextMarshaler.
func (t MessageType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *MessageType) UnmarshalText(b []byte) error {
	for mt, name := range messageTypeNames {
		if name == string(b) {
			*t = mt
			return nil
		}
	}
	return fmt.Errorf("unknown message type %q", b)
}

// Message is a network message belonging to a tick.
type Message struct {
	Type         MessageType    `json:"type"`
	Entities     []PacketEntity `json:"entities,omitempty"`
	Event        *GameEvent     `json:"event,omitempty"`
	TempEntities []TempEntity   `json:"temp_entities,omitempty"`
	Table        *StringTable   `json:"table,omitempty"`
}

// UpdateType is the kind of change a packet entity describes.
type UpdateType uint8

const (
	UpdatePreserve UpdateType = iota
	UpdateEnter
	UpdateLeave
	UpdateDelete
)

var updateTypeNames = [...]string{"preserve", "enter", "leave", "delete"}

func (u UpdateType) String() string {
	if int(u) < len(updateTypeNames) {
		return updateTypeNames[u]
	}
	return "preserve"
}

// MarshalText implements encoding.TextMarshaler.
func (u UpdateType) MarshalText() ([]byte, error) {
	return []byte(u.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (u *UpdateType) UnmarshalText(b []byte) error {
	for i, name := range updateTypeNames {
		if name == string(b) {
			*u = UpdateType(i)
			return nil
		}
	}
	return fmt.Errorf("unknown update type %q", b)
}

// SendProp is one changed property of an entity.
type SendProp struct {
	Table string    `json:"table"`
	Name  string    `json:"name"`
	Value PropValue `json:"value"`
}

// PacketEntity is a delta update for one entity.
type PacketEntity struct {
	Index       EntityID   `json:"index"`
	ServerClass ClassID    `json:"class"`
	UpdateType  UpdateType `json:"update"`
	InPVS       bool       `json:"in_pvs"`
	Props       []SendProp `json:"props,omitempty"`
}

// Prop returns the value of the named property, if present in this update.
func (e *PacketEntity) Prop(table, name string) (PropValue, bool) {
	return findProp(e.Props, table, name)
}

// GameEvent is a named game event with its key/value fields.
type GameEvent struct {
	Name   string               `json:"name"`
	Fields map[string]PropValue `json:"fields,omitempty"`
}

// Game event names and field keys consumed by the analyzer.
const (
	EventRoundStart               = "round_start"
	EventTeamplayRoundStart       = "teamplay_round_start"
	EventObjectDestroyed          = "object_destroyed"
	EventPlayerSpawn              = "player_spawn"
	EventPostInventoryApplication = "post_inventory_application"
	EventPlayerTeleported         = "player_teleported"

	FieldUserID = "userid"
	FieldIndex  = "index"
)

// Int returns an integer field, or zero.
func (e *GameEvent) Int(key string) int64 {
	return e.Fields[key].Int()
}

// UserID returns the "userid" field.
func (e *GameEvent) UserID() UserID {
	return UserID(e.Int(FieldUserID))
}

// TempEntity is one temporary entity (effects, tracers, animation events).
type TempEntity struct {
	ClassID   ClassID    `json:"class"`
	ClassName string     `json:"class_name,omitempty"`
	Props     []SendProp `json:"props,omitempty"`
}

// Prop returns the value of the named property.
func (t *TempEntity) Prop(table, name string) (PropValue, bool) {
	return findProp(t.Props, table, name)
}

// Temp entity props that name the player responsible for a shot.
const (
	TableFireBullets   = "DT_TEFireBullets"
	PropFireBullets    = "m_iPlayer"
	TablePlayerAnim    = "DT_TEPlayerAnimEvent"
	PropPlayerAnimUser = "m_hPlayer"
)

// Shooter returns the entity that fired, for bullet tracer and player
// animation temp entities. Tracers carry a plain entity index, animation
// events a networked handle.
func (t *TempEntity) Shooter() (EntityID, bool) {
	if v, ok := t.Prop(TableFireBullets, PropFireBullets); ok && v.Kind() == KindInt {
		return EntityID(v.Int()), true
	}
	if v, ok := t.Prop(TablePlayerAnim, PropPlayerAnimUser); ok && v.Kind() == KindInt {
		return EntityFromHandle(v.Int()), true
	}
	return 0, false
}

// StringTable holds entries of a named string table.
type StringTable struct {
	Name    string             `json:"name"`
	Entries []StringTableEntry `json:"entries,omitempty"`
}

// StringTableEntry is one indexed string table row with optional user data.
type StringTableEntry struct {
	Index int    `json:"index"`
	Text  string `json:"text,omitempty"`
	Extra []byte `json:"extra,omitempty"`
}

func findProp(props []SendProp, table, name string) (PropValue, bool) {
	for i := range props {
		if props[i].Name == name && props[i].Table == table {
			return props[i].Value, true
		}
	}
	return PropValue{}, false
}
