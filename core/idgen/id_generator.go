// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

// Package idgen makes short identifiers for requests and server instances.
package idgen

import (
	"crypto/rand"
	"encoding/base64"
	"time"
)

const (
	timeLayout   = "150405"
	entropyBytes = 3

	// Length is the length of every generated ID.
	Length = len(timeLayout) + entropyBytes/3*4
)

// Make returns an ID made of the current UTC time of day and 3 random bytes,
// for example "142501Xa9_". IDs sort by time within a day.
func Make() string {
	return MakeAt(time.Now())
}

// MakeAt is Make for a given time.
func MakeAt(t time.Time) string {
	var entropy [entropyBytes]byte

	_, _ = rand.Read(entropy[:])

	return t.UTC().Format(timeLayout) + base64.RawURLEncoding.EncodeToString(entropy[:])
}
