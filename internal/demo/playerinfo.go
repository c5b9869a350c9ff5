// Demoscope - Demo Recording Cheat Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/demoscope

package demo

import (
	"bytes"
	"encoding/binary"
	"errors"
)

// UserInfoTable is the string table holding per-player identity records.
const UserInfoTable = "userinfo"

// player_info_t field offsets (32-bit layout, little-endian).
const (
	nameLen          = 32
	guidLen          = 33
	offsetUserID     = 32
	offsetGUID       = 36
	offsetFriendsID  = 72
	offsetFriendsNm  = 76
	offsetFakePlayer = 108
	offsetHLTV       = 109

	// PlayerInfoSize is the full encoded size including custom file CRCs.
	PlayerInfoSize = 132

	minPlayerInfoSize = offsetHLTV + 1
)

// ErrShortPlayerInfo is returned when userinfo extra data is truncated.
var ErrShortPlayerInfo = errors.New("demo: userinfo data too short")

// PlayerInfo is the decoded user data of a userinfo string table entry.
type PlayerInfo struct {
	Name        string
	UserID      UserID
	GUID        string
	FriendsID   uint32
	FriendsName string
	FakePlayer  bool
	HLTV        bool
}

// ParsePlayerInfo decodes the user data of a userinfo entry.
func ParsePlayerInfo(data []byte) (PlayerInfo, error) {
	if len(data) < minPlayerInfoSize {
		return PlayerInfo{}, ErrShortPlayerInfo
	}
	return PlayerInfo{
		Name:        cString(data[:nameLen]),
		UserID:      UserID(binary.LittleEndian.Uint32(data[offsetUserID:])),
		GUID:        cString(data[offsetGUID : offsetGUID+guidLen]),
		FriendsID:   binary.LittleEndian.Uint32(data[offsetFriendsID:]),
		FriendsName: cString(data[offsetFriendsNm : offsetFriendsNm+nameLen]),
		FakePlayer:  data[offsetFakePlayer] != 0,
		HLTV:        data[offsetHLTV] != 0,
	}, nil
}

// Bytes encodes the info in the layout read by ParsePlayerInfo.
// Strings longer than their field are truncated.
func (p PlayerInfo) Bytes() []byte {
	data := make([]byte, PlayerInfoSize)
	copy(data[:nameLen-1], p.Name)
	binary.LittleEndian.PutUint32(data[offsetUserID:], uint32(p.UserID))
	copy(data[offsetGUID:offsetGUID+guidLen-1], p.GUID)
	binary.LittleEndian.PutUint32(data[offsetFriendsID:], p.FriendsID)
	copy(data[offsetFriendsNm:offsetFriendsNm+nameLen-1], p.FriendsName)
	if p.FakePlayer {
		data[offsetFakePlayer] = 1
	}
	if p.HLTV {
		data[offsetHLTV] = 1
	}
	return data
}

func cString(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	return string(b)
}
