// Demoscope - Demo Recording Cheat Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/demoscope

package world

import (
	"errors"
	"strings"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/goccy/go-json"

	"github.com/tomtom215/demoscope/internal/demo"
	"github.com/tomtom215/demoscope/internal/steamid"
)

const (
	classPlayer demo.ClassID = iota + 1
	classResource
	classWorld
	classSentry
	classDispenser
	classTeleporter
)

func newTestBuilder() *Builder {
	b := NewBuilder()
	b.SetServerClasses([]demo.ServerClass{
		{ID: classPlayer, Name: ClassNamePlayer},
		{ID: classResource, Name: ClassNamePlayerResource},
		{ID: classWorld, Name: ClassNameWorld},
		{ID: classSentry, Name: ClassNameSentry},
		{ID: classDispenser, Name: ClassNameDispenser},
		{ID: classTeleporter, Name: ClassNameTeleporter},
	})
	return b
}

func prop(table, name string, v demo.PropValue) demo.SendProp {
	return demo.SendProp{Table: table, Name: name, Value: v}
}

func userInfoEntry(entity demo.EntityID, uid demo.UserID, guid string) demo.StringTableEntry {
	info := demo.PlayerInfo{Name: "player" + guid, UserID: uid, GUID: guid}
	return demo.StringTableEntry{Index: int(entity) - 1, Extra: info.Bytes()}
}

// addVisiblePlayer creates an alive, in-PVS player with a Steam identity.
func addVisiblePlayer(t *testing.T, b *Builder, entity demo.EntityID, uid demo.UserID, account int) {
	t.Helper()
	guid := steamid.ID(76561197960265728 + uint64(account)).Steam3()
	entry := userInfoEntry(entity, uid, guid)
	if err := b.ApplyStringEntry(demo.UserInfoTable, &entry); err != nil {
		t.Fatalf("ApplyStringEntry() error = %v", err)
	}
	b.ApplyEntity(&demo.PacketEntity{Index: entity, ServerClass: classPlayer, InPVS: true})
}

func TestBuilder_PlayerProps(t *testing.T) {
	t.Parallel()

	b := newTestBuilder()
	b.ApplyEntity(&demo.PacketEntity{
		Index:       4,
		ServerClass: classPlayer,
		InPVS:       true,
		Props: []demo.SendProp{
			prop(tableBasePlayer, "m_iHealth", demo.IntValue(150)),
			prop(tableBasePlayer, "m_iMaxHealth", demo.IntValue(175)),
			prop(tableBasePlayer, "m_lifeState", demo.IntValue(2)),
			prop(tableNonLocalPlayer, "m_vecOrigin", demo.VectorXYValue(mgl32.Vec2{10, 20})),
			prop(tableNonLocalPlayer, "m_vecOrigin[2]", demo.FloatValue(30)),
			prop(tableLocalPlayer, "m_angEyeAngles[0]", demo.FloatValue(-12.5)),
			prop(tableNonLocalPlayer, "m_angEyeAngles[1]", demo.FloatValue(270)),
			prop(tableBaseEntity, "m_flSimulationTime", demo.IntValue(99)),
			prop(tableBasePlayer, "m_iUnmodelled", demo.IntValue(1)),
			prop(tableBasePlayer, "m_iHealth", demo.StringValue("not a number")),
		},
	})

	p, ok := b.Player(4)
	if !ok {
		t.Fatal("player 4 not created")
	}
	if p.Health != 0 {
		t.Errorf("Health = %d, want 0 after mistyped update", p.Health)
	}
	if p.MaxHealth != 175 {
		t.Errorf("MaxHealth = %d, want 175", p.MaxHealth)
	}
	if p.State != Death {
		t.Errorf("State = %v, want Death", p.State)
	}
	if want := (mgl32.Vec3{10, 20, 30}); p.Position != want {
		t.Errorf("Position = %v, want %v", p.Position, want)
	}
	if p.PitchAngle != -12.5 || p.ViewAngle != 270 {
		t.Errorf("angles = (%v, %v), want (-12.5, 270)", p.PitchAngle, p.ViewAngle)
	}
	if p.SimTime != 99 {
		t.Errorf("SimTime = %d, want 99", p.SimTime)
	}
	if !p.InPVS {
		t.Error("InPVS = false, want true")
	}
}

func TestBuilder_PlayerCreationOrder(t *testing.T) {
	t.Parallel()

	b := newTestBuilder()
	for _, ent := range []demo.EntityID{9, 2, 5, 2} {
		b.GetOrCreatePlayer(ent)
	}

	snap := b.Full()
	got := make([]demo.EntityID, 0, len(snap.Players))
	for _, p := range snap.Players {
		got = append(got, p.Entity)
	}
	want := []demo.EntityID{9, 2, 5}
	if len(got) != len(want) {
		t.Fatalf("players = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("players = %v, want %v", got, want)
		}
	}
}

func TestBuilder_PlayerResource(t *testing.T) {
	t.Parallel()

	b := newTestBuilder()
	b.GetOrCreatePlayer(3)
	b.ApplyEntity(&demo.PacketEntity{
		Index:       70,
		ServerClass: classResource,
		Props: []demo.SendProp{
			prop("m_iTeam", "003", demo.IntValue(3)),
			prop("m_iPlayerClass", "003", demo.IntValue(2)),
			prop("m_iChargeLevel", "003", demo.IntValue(80)),
			prop("m_iPing", "003", demo.IntValue(45)),
			prop("m_iMaxHealth", "003", demo.IntValue(125)),
			prop("m_iTeam", "007", demo.IntValue(2)),
			prop("m_iTeam", "notanindex", demo.IntValue(2)),
		},
	})

	p, _ := b.Player(3)
	if p.Team != TeamBlue || p.Class != ClassSniper {
		t.Errorf("team/class = %v/%v, want Blue/Sniper", p.Team, p.Class)
	}
	if p.Charge != 80 || p.Ping != 45 || p.MaxHealth != 125 {
		t.Errorf("charge/ping/maxhealth = %d/%d/%d, want 80/45/125", p.Charge, p.Ping, p.MaxHealth)
	}
	if _, ok := b.Player(7); ok {
		t.Error("player resource must not create players")
	}
}

func TestBuilder_WorldSetOnce(t *testing.T) {
	t.Parallel()

	b := newTestBuilder()
	b.ApplyEntity(&demo.PacketEntity{ServerClass: classWorld, Props: []demo.SendProp{
		prop(tableWorld, "m_WorldMins", demo.VectorValue(mgl32.Vec3{-1, -1, -1})),
	}})
	if _, ok := b.World(); ok {
		t.Fatal("world set with only one bound")
	}

	b.ApplyEntity(&demo.PacketEntity{ServerClass: classWorld, Props: []demo.SendProp{
		prop(tableWorld, "m_WorldMins", demo.VectorValue(mgl32.Vec3{-100, -100, -50})),
		prop(tableWorld, "m_WorldMaxs", demo.VectorValue(mgl32.Vec3{100, 100, 50})),
	}})
	b.ApplyEntity(&demo.PacketEntity{ServerClass: classWorld, Props: []demo.SendProp{
		prop(tableWorld, "m_WorldMins", demo.VectorValue(mgl32.Vec3{0, 0, 0})),
		prop(tableWorld, "m_WorldMaxs", demo.VectorValue(mgl32.Vec3{1, 1, 1})),
	}})

	w, ok := b.World()
	if !ok {
		t.Fatal("world not set")
	}
	if w.BoundaryMax != (mgl32.Vec3{100, 100, 50}) {
		t.Errorf("BoundaryMax = %v, want first observed bounds", w.BoundaryMax)
	}
	if !w.Contains(mgl32.Vec3{0, 0, 0}) || w.Contains(mgl32.Vec3{0, 0, 60}) {
		t.Error("Contains() disagrees with bounds")
	}
}

func TestBuilder_Buildings(t *testing.T) {
	t.Parallel()

	b := newTestBuilder()
	b.ApplyEntity(&demo.PacketEntity{
		Index:       120,
		ServerClass: classSentry,
		Props: []demo.SendProp{
			prop(tableBaseEntity, "m_vecOrigin", demo.VectorValue(mgl32.Vec3{1, 2, 3})),
			prop(tableBaseEntity, "m_iTeamNum", demo.IntValue(2)),
			prop(tableBaseObject, "m_iUpgradeLevel", demo.IntValue(3)),
			prop(tableBaseObject, "m_hBuilder", demo.IntValue(0x1C0004)),
			prop(tableBaseObject, "m_iHealth", demo.IntValue(216)),
			prop(tableBaseObject, "m_bHasSapper", demo.IntValue(1)),
			prop(tableBaseObject, "m_bMiniBuilding", demo.IntValue(1)),
			prop(tableObjectSentrygun, "m_iAmmoShells", demo.IntValue(200)),
			prop(tableObjectSentrygun, "m_iAmmoRockets", demo.IntValue(20)),
		},
	})
	b.ApplyEntity(&demo.PacketEntity{
		Index:       80,
		ServerClass: classDispenser,
		Props: []demo.SendProp{
			prop(tableObjectDispenser, "m_iAmmoMetal", demo.IntValue(400)),
			prop(tableObjectDispenser, dispenserHealingArray, demo.ArrayValue(demo.IntValue(0x10003), demo.IntValue(0x20005))),
		},
	})
	b.ApplyEntity(&demo.PacketEntity{
		Index:       95,
		ServerClass: classTeleporter,
		Props: []demo.SendProp{
			prop(tableBaseObject, "m_iObjectMode", demo.IntValue(0)),
			prop(tableObjectTeleporter, "m_iTimesUsed", demo.IntValue(7)),
			prop(tableObjectTeleporter, "m_flYawToExit", demo.FloatValue(45)),
		},
	})

	bl, ok := b.Building(120)
	if !ok {
		t.Fatal("sentry not created")
	}
	sentry, ok := bl.(*Sentry)
	if !ok {
		t.Fatalf("building 120 is %v, want Sentry", bl.Kind())
	}
	if sentry.Level != 3 || sentry.Health != 216 || !sentry.Sapped || sentry.Team != TeamRed {
		t.Errorf("sentry base = %+v", sentry.BuildingBase)
	}
	if sentry.Builder != 4 {
		t.Errorf("Builder = %d, want 4", sentry.Builder)
	}
	if !sentry.IsMini || sentry.Shells != 200 || sentry.Rockets != 20 {
		t.Errorf("sentry = %+v", sentry)
	}

	disp, _ := b.Building(80)
	if d := disp.(*Dispenser); d.Metal != 400 || len(d.Healing) != 2 || d.Healing[1] != 5 {
		t.Errorf("dispenser = %+v", d)
	}
	tele, _ := b.Building(95)
	if tp := tele.(*Teleporter); !tp.IsEntrance || tp.TimesUsed != 7 || tp.YawToExit != 45 {
		t.Errorf("teleporter = %+v", tp)
	}

	// A later update from another class keeps the original variant.
	b.ApplyEntity(&demo.PacketEntity{Index: 120, ServerClass: classDispenser, Props: []demo.SendProp{
		prop(tableObjectDispenser, "m_iAmmoMetal", demo.IntValue(1)),
		prop(tableBaseObject, "m_iHealth", demo.IntValue(100)),
	}})
	bl, _ = b.Building(120)
	if bl.Kind() != KindSentry {
		t.Errorf("variant changed to %v", bl.Kind())
	}
	if bl.Base().Health != 100 {
		t.Errorf("shared fields not applied: Health = %d", bl.Base().Health)
	}

	if got := b.Full().Buildings.Handles(); len(got) != 3 || got[0] != 80 || got[1] != 95 || got[2] != 120 {
		t.Errorf("Handles() = %v, want [80 95 120]", got)
	}
}

func TestBuilder_DeleteIsIdempotent(t *testing.T) {
	t.Parallel()

	b := newTestBuilder()
	b.ApplyEntity(&demo.PacketEntity{Index: 50, ServerClass: classSentry})

	del := &demo.PacketEntity{
		Index:       50,
		ServerClass: classSentry,
		UpdateType:  demo.UpdateDelete,
		Props:       []demo.SendProp{prop(tableBaseObject, "m_iHealth", demo.IntValue(100))},
	}
	b.ApplyEntity(del)
	if b.Buildings() != 0 {
		t.Fatalf("Buildings() = %d after delete, want 0", b.Buildings())
	}

	// Deleting again, or deleting an unknown handle, changes nothing.
	b.ApplyEntity(del)
	b.ApplyEntity(&demo.PacketEntity{Index: 51, ServerClass: classTeleporter, UpdateType: demo.UpdateDelete})
	b.RemoveBuilding(999)
	if b.Buildings() != 0 {
		t.Errorf("Buildings() = %d, want 0", b.Buildings())
	}
	if _, ok := b.Building(51); ok {
		t.Error("delete of an unknown handle created a building")
	}
}

func TestBuilder_GameEvents(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		event     demo.GameEvent
		wantCount int
	}{
		{"round start clears all", demo.GameEvent{Name: demo.EventRoundStart}, 0},
		{"teamplay round start clears all", demo.GameEvent{Name: demo.EventTeamplayRoundStart}, 0},
		{
			"object destroyed removes one",
			demo.GameEvent{Name: demo.EventObjectDestroyed, Fields: map[string]demo.PropValue{demo.FieldIndex: demo.IntValue(11)}},
			2,
		},
		{
			"object destroyed unknown index",
			demo.GameEvent{Name: demo.EventObjectDestroyed, Fields: map[string]demo.PropValue{demo.FieldIndex: demo.IntValue(99)}},
			3,
		},
		{"unrelated event", demo.GameEvent{Name: "player_death"}, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			b := newTestBuilder()
			b.GetOrCreateBuilding(10, KindSentry)
			b.GetOrCreateBuilding(11, KindDispenser)
			b.GetOrCreateBuilding(12, KindTeleporter)

			b.ApplyGameEvent(&tt.event)
			if got := b.Buildings(); got != tt.wantCount {
				t.Errorf("Buildings() = %d, want %d", got, tt.wantCount)
			}
		})
	}
}

func TestBuilder_RoundStartOnEmptyMap(t *testing.T) {
	t.Parallel()

	b := newTestBuilder()
	b.ApplyGameEvent(&demo.GameEvent{Name: demo.EventRoundStart})
	if b.Buildings() != 0 {
		t.Errorf("Buildings() = %d, want 0", b.Buildings())
	}
}

func TestBuilder_UserInfo(t *testing.T) {
	t.Parallel()

	b := newTestBuilder()
	err := b.ApplyStringTable(&demo.StringTable{
		Name: demo.UserInfoTable,
		Entries: []demo.StringTableEntry{
			userInfoEntry(2, 17, "[U:1:22202]"),
			userInfoEntry(3, 18, "BOT"),
			{Index: 5, Text: "5"},
		},
	})
	if err != nil {
		t.Fatalf("ApplyStringTable() error = %v", err)
	}

	p, ok := b.Player(2)
	if !ok || p.Info == nil {
		t.Fatal("player 2 not created from userinfo")
	}
	if p.Info.UserID != 17 || p.Info.SteamID != "[U:1:22202]" || p.Info.EntityID != 2 {
		t.Errorf("Info = %+v", p.Info)
	}
	if id, ok := p.Identity(); !ok || id != 76561197960287930 {
		t.Errorf("Identity() = (%d, %v)", id, ok)
	}

	bot, _ := b.Player(3)
	if _, ok := bot.Identity(); ok {
		t.Error("bot must not have an identity")
	}
	if _, ok := b.Player(6); ok {
		t.Error("entry without user data must not create a player")
	}

	snap := b.Full()
	if id, ok := snap.IdentityForUser(17); !ok || id != 76561197960287930 {
		t.Errorf("IdentityForUser(17) = (%d, %v)", id, ok)
	}
	if id, ok := snap.IdentityForEntity(2); !ok || id != 76561197960287930 {
		t.Errorf("IdentityForEntity(2) = (%d, %v)", id, ok)
	}
	if _, ok := snap.IdentityForUser(18); ok {
		t.Error("bot user id resolved to an identity")
	}
}

func TestBuilder_UserInfoDecodeError(t *testing.T) {
	t.Parallel()

	b := newTestBuilder()
	err := b.ApplyStringTable(&demo.StringTable{
		Name: demo.UserInfoTable,
		Entries: []demo.StringTableEntry{
			{Index: 0, Extra: []byte{1, 2, 3}},
			userInfoEntry(4, 9, "[U:1:5]"),
		},
	})
	if !errors.Is(err, demo.ErrShortPlayerInfo) {
		t.Fatalf("error = %v, want ErrShortPlayerInfo", err)
	}
	if _, ok := b.Player(4); !ok {
		t.Error("valid entry after a bad one was not applied")
	}
}

func TestBuilder_ViewFilter(t *testing.T) {
	t.Parallel()

	b := newTestBuilder()
	addVisiblePlayer(t, b, 1, 1, 100)
	addVisiblePlayer(t, b, 2, 2, 200)
	addVisiblePlayer(t, b, 3, 3, 300)

	// Entity 2 leaves the PVS, entity 3 dies, entity 4 is a bot, entity 5 has no info.
	b.ApplyEntity(&demo.PacketEntity{Index: 2, ServerClass: classPlayer, InPVS: false})
	b.ApplyEntity(&demo.PacketEntity{Index: 3, ServerClass: classPlayer, InPVS: true, Props: []demo.SendProp{
		prop(tableBasePlayer, "m_lifeState", demo.IntValue(1)),
	}})
	botEntry := userInfoEntry(4, 4, "BOT")
	if err := b.ApplyStringEntry(demo.UserInfoTable, &botEntry); err != nil {
		t.Fatal(err)
	}
	b.ApplyEntity(&demo.PacketEntity{Index: 4, ServerClass: classPlayer, InPVS: true})
	b.ApplyEntity(&demo.PacketEntity{Index: 5, ServerClass: classPlayer, InPVS: true})

	view := b.View()
	if len(view.Players) != 1 || view.Players[0].Entity != 1 {
		t.Errorf("View() players = %+v, want only entity 1", view.Players)
	}
	if full := b.Full(); len(full.Players) != 5 {
		t.Errorf("Full() players = %d, want 5", len(full.Players))
	}
}

func TestSnapshot_IsolatedFromLiveState(t *testing.T) {
	t.Parallel()

	b := newTestBuilder()
	addVisiblePlayer(t, b, 1, 1, 100)
	b.SetTick(10)
	b.ApplyEntity(&demo.PacketEntity{Index: 60, ServerClass: classSentry, Props: []demo.SendProp{
		prop(tableBaseObject, "m_iHealth", demo.IntValue(150)),
	}})

	snap := b.View()

	b.SetTick(11)
	b.ApplyEntity(&demo.PacketEntity{Index: 1, ServerClass: classPlayer, InPVS: true, Props: []demo.SendProp{
		prop(tableNonLocalPlayer, "m_angEyeAngles[1]", demo.FloatValue(90)),
	}})
	b.ApplyEntity(&demo.PacketEntity{Index: 60, ServerClass: classSentry, Props: []demo.SendProp{
		prop(tableBaseObject, "m_iHealth", demo.IntValue(1)),
	}})
	b.ApplyGameEvent(&demo.GameEvent{Name: demo.EventRoundStart})

	if snap.Tick != 10 {
		t.Errorf("snapshot tick = %d, want 10", snap.Tick)
	}
	if snap.Players[0].ViewAngle != 0 {
		t.Errorf("snapshot player mutated: ViewAngle = %v", snap.Players[0].ViewAngle)
	}
	bl, ok := snap.Buildings.Get(60)
	if !ok || bl.Base().Health != 150 {
		t.Errorf("snapshot building mutated or removed: %v %v", bl, ok)
	}
}

func TestBuilder_RefreshCarriesNewIdentities(t *testing.T) {
	t.Parallel()

	b := newTestBuilder()
	snap := b.View()

	entry := userInfoEntry(7, 33, "[U:1:77]")
	if err := b.ApplyStringEntry(demo.UserInfoTable, &entry); err != nil {
		t.Fatal(err)
	}
	if _, ok := snap.IdentityForUser(33); ok {
		t.Error("old snapshot sees identity added later")
	}
	if _, ok := b.Refresh(snap).IdentityForUser(33); !ok {
		t.Error("Refresh() snapshot does not resolve new identity")
	}
	if _, ok := b.Refresh(nil).IdentityForEntity(7); !ok {
		t.Error("Refresh(nil) does not resolve new identity")
	}
}

func TestBuilder_ShotFired(t *testing.T) {
	t.Parallel()

	b := newTestBuilder()
	b.GetOrCreatePlayer(6)
	err := b.Apply(&demo.Record{Kind: demo.RecordMessage, Tick: 42, Message: &demo.Message{
		Type: demo.MessageTempEntities,
		TempEntities: []demo.TempEntity{{
			Props: []demo.SendProp{prop(demo.TableFireBullets, demo.PropFireBullets, demo.IntValue(6))},
		}},
	}})
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	p, _ := b.Player(6)
	if p.ShotFired != 42 {
		t.Errorf("ShotFired = %d, want 42", p.ShotFired)
	}
}

func TestBuilder_UnknownClassIgnored(t *testing.T) {
	t.Parallel()

	b := newTestBuilder()
	b.ApplyEntity(&demo.PacketEntity{Index: 1, ServerClass: 999})
	b.ApplyEntity(&demo.PacketEntity{Index: 2, ServerClass: 0})
	if b.Players() != 0 || b.Buildings() != 0 {
		t.Error("entities of unknown classes changed state")
	}
}

func TestSnapshot_JSON(t *testing.T) {
	t.Parallel()

	b := newTestBuilder()
	addVisiblePlayer(t, b, 1, 1, 100)
	b.GetOrCreateBuilding(30, KindTeleporter)
	b.GetOrCreateBuilding(4, KindSentry)

	data, err := json.Marshal(b.View())
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	out := string(data)
	if !strings.Contains(out, `"state":"Alive"`) || !strings.Contains(out, `"class":"Other"`) {
		t.Errorf("enums not encoded by name: %s", out)
	}
	sentry := strings.Index(out, `{"Sentry"`)
	tele := strings.Index(out, `{"Teleporter"`)
	if sentry < 0 || tele < 0 || sentry > tele {
		t.Errorf("buildings not encoded in handle order: %s", out)
	}
}
