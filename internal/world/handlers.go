// Demoscope - Demo Recording Cheat Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/demoscope

package world

import (
	"strconv"

	"github.com/tomtom215/demoscope/internal/demo"
)

// Send tables read by the handlers.
const (
	tableBasePlayer        = "DT_BasePlayer"
	tableLocalPlayer       = "DT_TFLocalPlayerExclusive"
	tableNonLocalPlayer    = "DT_TFNonLocalPlayerExclusive"
	tableBaseEntity        = "DT_BaseEntity"
	tableWorld             = "DT_WORLD"
	tableBaseObject        = "DT_BaseObject"
	tableObjectSentrygun   = "DT_ObjectSentrygun"
	tableObjectDispenser   = "DT_ObjectDispenser"
	tableObjectTeleporter  = "DT_ObjectTeleporter"
	dispenserHealingArray  = "healing_array"
	teleporterModeEntrance = 0
)

func (b *Builder) handlePlayer(e *demo.PacketEntity) {
	p := b.GetOrCreatePlayer(e.Index)
	p.InPVS = e.InPVS

	for i := range e.Props {
		prop := &e.Props[i]
		switch prop.Table {
		case tableBasePlayer:
			switch prop.Name {
			case "m_iHealth":
				p.Health = uint16(prop.Value.Int())
			case "m_iMaxHealth":
				p.MaxHealth = uint16(prop.Value.Int())
			case "m_lifeState":
				p.State = LifeStateFromInt(prop.Value.Int())
			}
		case tableLocalPlayer, tableNonLocalPlayer:
			switch prop.Name {
			case "m_vecOrigin":
				xy := prop.Value.VectorXY()
				p.Position[0], p.Position[1] = xy[0], xy[1]
			case "m_vecOrigin[2]":
				p.Position[2] = prop.Value.Float()
			case "m_angEyeAngles[0]":
				p.PitchAngle = prop.Value.Float()
			case "m_angEyeAngles[1]":
				p.ViewAngle = prop.Value.Float()
			}
		case tableBaseEntity:
			if prop.Name == "m_flSimulationTime" {
				p.SimTime = uint16(prop.Value.Int())
			}
		}
	}
}

// handlePlayerResource propagates the resource entity's per-player arrays.
// Each prop is named by the player's entity index and its table names the
// array. Players not seen yet are skipped.
func (b *Builder) handlePlayerResource(e *demo.PacketEntity) {
	for i := range e.Props {
		prop := &e.Props[i]
		index, err := strconv.ParseUint(prop.Name, 10, 32)
		if err != nil {
			continue
		}
		p, ok := b.Player(demo.EntityID(index))
		if !ok {
			continue
		}
		v := prop.Value.Int()
		switch prop.Table {
		case "m_iTeam":
			p.Team = TeamFromInt(v)
		case "m_iMaxHealth":
			p.MaxHealth = uint16(v)
		case "m_iPlayerClass":
			p.Class = ClassFromInt(v)
		case "m_iChargeLevel":
			p.Charge = uint8(v)
		case "m_iPing":
			p.Ping = uint16(v)
		}
	}
}

// handleWorld sets the world bounds the first time both are present.
func (b *Builder) handleWorld(e *demo.PacketEntity) {
	if b.world != nil {
		return
	}
	mins, okMin := e.Prop(tableWorld, "m_WorldMins")
	maxs, okMax := e.Prop(tableWorld, "m_WorldMaxs")
	if !okMin || !okMax || !mins.IsVector() || !maxs.IsVector() {
		return
	}
	b.world = &World{BoundaryMin: mins.Vector(), BoundaryMax: maxs.Vector()}
}

func (b *Builder) handleBuilding(e *demo.PacketEntity, kind BuildingKind) {
	if e.UpdateType == demo.UpdateDelete {
		b.RemoveBuilding(e.Index)
		return
	}

	bl := b.GetOrCreateBuilding(e.Index, kind)
	applyBuildingBase(bl.Base(), e.Props)

	switch v := bl.(type) {
	case *Sentry:
		if kind == KindSentry {
			applySentry(v, e.Props)
		}
	case *Dispenser:
		if kind == KindDispenser {
			applyDispenser(v, e.Props)
		}
	case *Teleporter:
		if kind == KindTeleporter {
			applyTeleporter(v, e.Props)
		}
	}
}

func applyBuildingBase(base *BuildingBase, props []demo.SendProp) {
	for i := range props {
		prop := &props[i]
		switch prop.Table {
		case tableBaseEntity:
			switch prop.Name {
			case "m_vecOrigin":
				base.Position = prop.Value.Vector()
			case "m_iTeamNum":
				base.Team = TeamFromInt(prop.Value.Int())
			case "m_angRotation":
				base.Angle = yawOf(prop.Value)
			}
		case tableBaseObject:
			switch prop.Name {
			case "m_bHasSapper":
				base.Sapped = prop.Value.Bool()
			case "m_bBuilding":
				base.Building = prop.Value.Bool()
			case "m_iUpgradeLevel":
				base.Level = uint8(prop.Value.Int())
			case "m_hBuilder":
				base.Builder = demo.EntityFromHandle(prop.Value.Int())
			case "m_iMaxHealth":
				base.MaxHealth = uint16(prop.Value.Int())
			case "m_iHealth":
				base.Health = uint16(prop.Value.Int())
			}
		}
	}
}

func applySentry(s *Sentry, props []demo.SendProp) {
	for i := range props {
		prop := &props[i]
		switch prop.Table {
		case tableBaseObject:
			if prop.Name == "m_bMiniBuilding" {
				s.IsMini = prop.Value.Bool()
			}
		case tableObjectSentrygun:
			switch prop.Name {
			case "m_bPlayerControlled":
				s.PlayerControlled = prop.Value.Bool()
			case "m_hAutoAimTarget":
				s.AutoAimTarget = demo.EntityFromHandle(prop.Value.Int())
			case "m_iAmmoShells":
				s.Shells = uint16(prop.Value.Int())
			case "m_iAmmoRockets":
				s.Rockets = uint16(prop.Value.Int())
			}
		case tableNonLocalPlayer:
			if prop.Name == "m_angEyeAngles[1]" {
				s.Angle = prop.Value.Float()
			}
		}
	}
}

func applyDispenser(d *Dispenser, props []demo.SendProp) {
	for i := range props {
		prop := &props[i]
		switch {
		case prop.Table == tableObjectDispenser && prop.Name == "m_iAmmoMetal":
			d.Metal = uint16(prop.Value.Int())
		case prop.Name == dispenserHealingArray:
			elems := prop.Value.Array()
			healing := make([]demo.EntityID, 0, len(elems))
			for _, el := range elems {
				healing = append(healing, demo.EntityFromHandle(el.Int()))
			}
			d.Healing = healing
		}
	}
}

func applyTeleporter(t *Teleporter, props []demo.SendProp) {
	for i := range props {
		prop := &props[i]
		switch prop.Table {
		case tableObjectTeleporter:
			switch prop.Name {
			case "m_flRechargeTime":
				t.RechargeTime = prop.Value.Float()
			case "m_flCurrentRechargeDuration":
				t.RechargeDuration = prop.Value.Float()
			case "m_iTimesUsed":
				t.TimesUsed = uint16(prop.Value.Int())
			case "m_bMatchBuilding":
				t.OtherEnd = demo.EntityID(prop.Value.Int())
			case "m_flYawToExit":
				t.YawToExit = prop.Value.Float()
			}
		case tableBaseObject:
			if prop.Name == "m_iObjectMode" {
				t.IsEntrance = prop.Value.Int() == teleporterModeEntrance
			}
		}
	}
}

// yawOf reads a facing angle from either a rotation vector (pitch, yaw,
// roll) or a bare float.
func yawOf(v demo.PropValue) float32 {
	if v.Kind() == demo.KindVector {
		return v.Vector()[1]
	}
	return v.Float()
}
