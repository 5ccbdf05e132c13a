// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package limiter

import (
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

var (
	cleanupMu     sync.Mutex
	lastCleanupAt time.Time
)

// DoCleanup removes expired limiters in the background, at most once per
// CleanupInterval.
func DoCleanup() {
	now := timeNow()

	cleanupMu.Lock()
	defer cleanupMu.Unlock()

	if lastCleanupAt.IsZero() {
		lastCleanupAt = now

		return
	}

	if now.Sub(lastCleanupAt) < CleanupInterval {
		return
	}

	lastCleanupAt = now

	go func() {
		count := cleanupExpiredLimiters()

		log.Debug().
			Time("start", now).
			Dur("dur", time.Since(now)).
			Int("removed", count).
			Msg("limiter cleanup")
	}()
}
