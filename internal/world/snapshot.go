// Demoscope - Demo Recording Cheat Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/demoscope

package world

import (
	"maps"

	"github.com/tomtom215/demoscope/internal/demo"
	"github.com/tomtom215/demoscope/internal/steamid"
)

// identities resolves user ids and entity ids to SteamIDs.
// An instance is never modified once a snapshot references it.
type identities struct {
	byUser       map[demo.UserID]steamid.ID
	userByEntity map[demo.EntityID]demo.UserID
}

func newIdentities() *identities {
	return &identities{
		byUser:       make(map[demo.UserID]steamid.ID),
		userByEntity: make(map[demo.EntityID]demo.UserID),
	}
}

// with returns a copy of ids that also maps info.
func (ids *identities) with(info *UserInfo) *identities {
	next := &identities{
		byUser:       maps.Clone(ids.byUser),
		userByEntity: maps.Clone(ids.userByEntity),
	}
	next.userByEntity[info.EntityID] = info.UserID
	if info.ID != 0 {
		next.byUser[info.UserID] = info.ID
	} else {
		delete(next.byUser, info.UserID)
	}
	return next
}

// Snapshot is the state handed to detectors for one tick. It is never
// modified after it is built.
type Snapshot struct {
	Tick      demo.Tick  `json:"tick"`
	Players   []Player   `json:"players"`
	Buildings *Buildings `json:"buildings"`
	World     *World     `json:"world"`

	ids *identities
}

// IdentityForUser resolves a game-event user id.
func (s *Snapshot) IdentityForUser(uid demo.UserID) (steamid.ID, bool) {
	if s == nil || s.ids == nil {
		return 0, false
	}
	id, ok := s.ids.byUser[uid]
	return id, ok
}

// IdentityForEntity resolves a player entity id.
func (s *Snapshot) IdentityForEntity(entity demo.EntityID) (steamid.ID, bool) {
	if s == nil || s.ids == nil {
		return 0, false
	}
	uid, ok := s.ids.userByEntity[entity]
	if !ok {
		return 0, false
	}
	return s.IdentityForUser(uid)
}

// PlayerByIdentity finds a player of the snapshot by SteamID.
func (s *Snapshot) PlayerByIdentity(id steamid.ID) (*Player, bool) {
	if s == nil {
		return nil, false
	}
	for i := range s.Players {
		if pid, ok := s.Players[i].Identity(); ok && pid == id {
			return &s.Players[i], true
		}
	}
	return nil, false
}
