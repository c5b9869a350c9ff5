// Demoscope - Demo Recording Cheat Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/demoscope

package detection

import (
	"context"
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/tomtom215/demoscope/internal/demo"
	"github.com/tomtom215/demoscope/internal/steamid"
	"github.com/tomtom215/demoscope/internal/world"
)

const testClassPlayer demo.ClassID = 1

// scene drives a world.Builder the way the analyzer does so detector tests
// see real snapshots with a working identity index.
type scene struct {
	t *testing.T
	b *world.Builder
}

func newScene(t *testing.T) *scene {
	t.Helper()
	b := world.NewBuilder()
	b.SetServerClasses([]demo.ServerClass{{ID: testClassPlayer, Name: world.ClassNamePlayer}})
	return &scene{t: t, b: b}
}

// addPlayer creates a visible player and returns its identity.
func (s *scene) addPlayer(entity demo.EntityID, uid demo.UserID, account uint64) steamid.ID {
	s.t.Helper()
	id := steamid.ID(76561197960265728 + account)
	info := demo.PlayerInfo{Name: "p", UserID: uid, GUID: id.Steam3()}
	entry := demo.StringTableEntry{Index: int(entity) - 1, Extra: info.Bytes()}
	if err := s.b.ApplyStringEntry(demo.UserInfoTable, &entry); err != nil {
		s.t.Fatalf("ApplyStringEntry() error = %v", err)
	}
	s.b.ApplyEntity(&demo.PacketEntity{Index: entity, ServerClass: testClassPlayer, InPVS: true})
	return id
}

func (s *scene) aim(entity demo.EntityID, yaw, pitch float32) {
	s.b.ApplyEntity(&demo.PacketEntity{
		Index:       entity,
		ServerClass: testClassPlayer,
		InPVS:       true,
		Props: []demo.SendProp{
			{Table: "DT_TFNonLocalPlayerExclusive", Name: "m_angEyeAngles[1]", Value: demo.FloatValue(yaw)},
			{Table: "DT_TFNonLocalPlayerExclusive", Name: "m_angEyeAngles[0]", Value: demo.FloatValue(pitch)},
		},
	})
}

func (s *scene) move(entity demo.EntityID, pos mgl32.Vec3) {
	s.b.ApplyEntity(&demo.PacketEntity{
		Index:       entity,
		ServerClass: testClassPlayer,
		InPVS:       true,
		Props: []demo.SendProp{
			{Table: "DT_TFNonLocalPlayerExclusive", Name: "m_vecOrigin", Value: demo.VectorXYValue(pos.Vec2())},
			{Table: "DT_TFNonLocalPlayerExclusive", Name: "m_vecOrigin[2]", Value: demo.FloatValue(pos[2])},
		},
	})
}

func (s *scene) hide(entity demo.EntityID) {
	s.b.ApplyEntity(&demo.PacketEntity{Index: entity, ServerClass: testClassPlayer, InPVS: false})
}

// view returns the detector view at tick.
func (s *scene) view(tick demo.Tick) *world.Snapshot {
	s.b.SetTick(tick)
	return s.b.View()
}

// event delivers a game event carrying uid to d at tick.
func (s *scene) event(d MessageHandler, tick demo.Tick, name string, uid demo.UserID) {
	s.t.Helper()
	s.b.SetTick(tick)
	msg := &demo.Message{
		Type: demo.MessageGameEvent,
		Event: &demo.GameEvent{
			Name:   name,
			Fields: map[string]demo.PropValue{demo.FieldUserID: demo.IntValue(int64(uid))},
		},
	}
	if _, err := d.OnMessage(context.Background(), msg, s.b.Refresh(nil), tick); err != nil {
		s.t.Fatalf("OnMessage() error = %v", err)
	}
}

func runTick(t *testing.T, d TickHandler, snap *world.Snapshot) []Finding {
	t.Helper()
	findings, err := d.OnTick(context.Background(), snap)
	if err != nil {
		t.Fatalf("OnTick(%d) error = %v", snap.Tick, err)
	}
	return findings
}

func finish(t *testing.T, d Finisher) []Finding {
	t.Helper()
	findings, err := d.Finish(context.Background())
	if err != nil {
		t.Fatalf("Finish() error = %v", err)
	}
	return findings
}
