// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package limiter

import (
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"codeberg.org/tscat/tscat/config"
)

const (
	ReloadRate            = 0.1             // 6 reloads per minute for a network.
	ReloadBurst           = 3               // Maximum reload tokens for a network.
	LimiterExpiryDuration = time.Hour       // How long to keep limiters in memory before cleanup.
	CleanupInterval       = 5 * time.Minute // Interval between limiter cleanup runs.

	reloadKeySuffix = ":reload"
)

var (
	limiters sync.Map   // In-memory storage for rate limiters, keyed by network.
	timeNow  = time.Now // Wrapper for time.Now, which allows us to mock it in tests.
)

// limiterWrapper holds a rate limiter and the time it was last used.
type limiterWrapper struct {
	limiter    *rate.Limiter
	key        string
	lastAccess time.Time
	mu         sync.Mutex
}

// serializableLimiter is the JSON form of a limiterWrapper.
type serializableLimiter struct {
	Key        string    `json:"key"`
	LastAccess time.Time `json:"last_access"`
	Rate       float64   `json:"rate"`
	Burst      int       `json:"burst"`
	Tokens     float64   `json:"tokens"`
}

// Save writes the state of all limiters to w as a JSON array.
func Save(w io.Writer) error {
	stateToSave := make([]serializableLimiter, 0)

	limiters.Range(func(key, value any) bool {
		limWrapper, ok := value.(*limiterWrapper)
		if !ok {
			log.Warn().Any("key", key).
				Msg("Skipping invalid limiter type during state save")

			return true
		}

		limWrapper.mu.Lock()
		stateToSave = append(stateToSave, serializableLimiter{
			Key:        limWrapper.key,
			LastAccess: limWrapper.lastAccess,
			Rate:       float64(limWrapper.limiter.Limit()),
			Burst:      limWrapper.limiter.Burst(),
			Tokens:     limWrapper.limiter.TokensAt(timeNow()),
		})
		limWrapper.mu.Unlock()

		return true
	})

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")

	if err := encoder.Encode(stateToSave); err != nil {
		return err
	}

	log.Info().Int("count", len(stateToSave)).Msg("Saved limiter state")

	return nil
}

// InitFile replaces the in-memory limiters with the state read from r.
//
// An empty reader is not an error. Expired entries are dropped.
func InitFile(r io.Reader) error {
	var loadedState []serializableLimiter

	if err := json.NewDecoder(r).Decode(&loadedState); err != nil {
		if errors.Is(err, io.EOF) {
			log.Info().Msg("Limiter state file is empty, starting fresh")

			return nil
		}

		return err
	}

	limiters.Clear()

	now := timeNow()
	loaded := 0

	for _, sl := range loadedState {
		if sl.Key == "" || now.Sub(sl.LastAccess) > LimiterExpiryDuration {
			continue
		}

		lim := rate.NewLimiter(rate.Limit(sl.Rate), sl.Burst)
		// Spend what the network had already used.
		lim.AllowN(now, max(0, sl.Burst-int(sl.Tokens)))

		limiters.Store(sl.Key, &limiterWrapper{
			limiter:    lim,
			key:        sl.Key,
			lastAccess: sl.LastAccess,
		})

		loaded++
	}

	log.Info().Int("count", loaded).Msg("Loaded limiter state")

	return nil
}

// Init restores the limiter state from the configured state file.
// Failures are logged and leave a fresh state.
func Init() {
	limiterStateFile := config.Global.Limiter.StateFilepath

	file, err := os.Open(limiterStateFile) // #nosec:G304
	if err != nil {
		if os.IsNotExist(err) {
			log.Info().Str("file", limiterStateFile).
				Msg("Limiter state file not found, starting with a fresh state")
		} else {
			log.Warn().Err(err).Str("file", limiterStateFile).
				Msg("Could not open limiter state file; starting with a fresh state")
		}

		return
	}
	defer file.Close()

	if err := InitFile(file); err != nil {
		log.Warn().Err(err).Str("file", limiterStateFile).
			Msg("Could not parse limiter state file; starting with a fresh state")
	}
}

// Fini saves the limiter state to the configured state file.
func Fini() {
	limiterStateFile := config.Global.Limiter.StateFilepath

	log.Info().Str("file", limiterStateFile).Msg("Saving limiter state")

	if err := os.MkdirAll(filepath.Dir(limiterStateFile), 0o750); err != nil {
		log.Warn().Err(err).Str("file", limiterStateFile).
			Msg("Failed to create limiter state directory")

		return
	}

	file, err := os.Create(limiterStateFile) // #nosec:G304
	if err != nil {
		log.Warn().Err(err).Str("file", limiterStateFile).
			Msg("Failed to create limiter state file for saving")

		return
	}
	defer file.Close()

	if err := Save(file); err != nil {
		log.Warn().Err(err).Str("file", limiterStateFile).
			Msg("Failed to write limiter state")
	}
}

// allow consumes one token from limiter and reports whether that succeeded.
func (limiter *limiterWrapper) allow() bool {
	limiter.mu.Lock()
	defer limiter.mu.Unlock()

	limiter.lastAccess = timeNow()

	return limiter.limiter.AllowN(limiter.lastAccess, 1)
}

// getOrCreateLimiter returns the limiter stored under key, creating one with
// the given rate and burst if there is none.
func getOrCreateLimiter(key string, rateLim float64, burstLim int) *limiterWrapper {
	if value, ok := limiters.Load(key); ok {
		if limWrapper, ok := value.(*limiterWrapper); ok {
			return limWrapper
		}
	}

	value, _ := limiters.LoadOrStore(key, &limiterWrapper{
		limiter:    rate.NewLimiter(rate.Limit(rateLim), burstLim),
		key:        key,
		lastAccess: timeNow(),
	})

	limWrapper, _ := value.(*limiterWrapper)

	return limWrapper
}

// networkLimiter returns the general limiter of a network.
func networkLimiter(network string) *limiterWrapper {
	return getOrCreateLimiter(network, config.Global.Limiter.Rate, config.Global.Limiter.Burst)
}

// reloadLimiter returns the limiter for catalog reloads of a network.
func reloadLimiter(network string) *limiterWrapper {
	return getOrCreateLimiter(network+reloadKeySuffix, ReloadRate, ReloadBurst)
}

// cleanupExpiredLimiters removes limiters that haven't been accessed for the expiry duration.
func cleanupExpiredLimiters() int {
	now := timeNow()
	expiredCount := 0

	limiters.Range(func(key, value any) bool {
		limWrapper, ok := value.(*limiterWrapper)
		if !ok {
			limiters.Delete(key)

			expiredCount++

			return true
		}

		limWrapper.mu.Lock()
		lastAccess := limWrapper.lastAccess
		limWrapper.mu.Unlock()

		if now.Sub(lastAccess) > LimiterExpiryDuration {
			limiters.Delete(key)

			expiredCount++
		}

		return true
	})

	return expiredCount
}
