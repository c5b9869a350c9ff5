// Demoscope - Demo Recording Cheat Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/demoscope

// Package steamid converts the textual account identifiers found in demo
// user-info tables into 64-bit Steam IDs.
//
// Demos record identities in Steam3 form ("[U:1:22202]") on current servers
// and in legacy Steam2 form ("STEAM_0:1:11101") on older ones. Bots are
// recorded as "BOT" and have no persistent identity.
package steamid

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ID is a 64-bit Steam ID for an individual account in the public universe.
type ID uint64

// individualBase is the SteamID64 of account 0 (universe public, type individual, instance 1).
const individualBase ID = 76561197960265728

// Bot is the identity string recorded for server-side fake players.
const Bot = "BOT"

var (
	// ErrBot is returned when parsing the placeholder identity of a bot.
	ErrBot = errors.New("steamid: bot has no persistent identity")

	// ErrInvalid is returned when a string is not a recognised identity format.
	ErrInvalid = errors.New("steamid: invalid identity")
)

// Parse decodes a Steam3, Steam2 or decimal SteamID64 string.
func Parse(s string) (ID, error) {
	s = strings.TrimSpace(s)
	switch {
	case s == "":
		return 0, ErrInvalid
	case s == Bot:
		return 0, ErrBot
	case strings.HasPrefix(s, "["):
		return parseSteam3(s)
	case strings.HasPrefix(s, "STEAM_"):
		return parseSteam2(s)
	default:
		n, err := strconv.ParseUint(s, 10, 64)
		if err != nil || ID(n) < individualBase {
			return 0, fmt.Errorf("%w: %q", ErrInvalid, s)
		}
		return ID(n), nil
	}
}

// parseSteam3 handles "[U:1:<account>]".
func parseSteam3(s string) (ID, error) {
	inner, ok := strings.CutSuffix(strings.TrimPrefix(s, "["), "]")
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrInvalid, s)
	}
	parts := strings.Split(inner, ":")
	if len(parts) != 3 || parts[0] != "U" {
		return 0, fmt.Errorf("%w: %q", ErrInvalid, s)
	}
	account, err := strconv.ParseUint(parts[2], 10, 32)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalid, s)
	}
	return individualBase + ID(account), nil
}

// parseSteam2 handles "STEAM_<universe>:<y>:<z>" where account = z*2 + y.
func parseSteam2(s string) (ID, error) {
	parts := strings.Split(strings.TrimPrefix(s, "STEAM_"), ":")
	if len(parts) != 3 {
		return 0, fmt.Errorf("%w: %q", ErrInvalid, s)
	}
	y, err := strconv.ParseUint(parts[1], 10, 1)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalid, s)
	}
	z, err := strconv.ParseUint(parts[2], 10, 31)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalid, s)
	}
	return individualBase + ID(z*2+y), nil
}

// AccountID returns the 32-bit account number.
func (id ID) AccountID() uint32 {
	return uint32(id - individualBase)
}

// Steam3 formats the ID as "[U:1:<account>]".
func (id ID) Steam3() string {
	return "[U:1:" + strconv.FormatUint(uint64(id.AccountID()), 10) + "]"
}

// String returns the decimal SteamID64.
func (id ID) String() string {
	return strconv.FormatUint(uint64(id), 10)
}
