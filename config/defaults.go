// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package config

import "time"

const (
	// Default catalog reload interval in minutes. Zero disables periodic reloads.
	defaultReloadIntervalMinutes = 0

	// Default limiter rate, in requests per second per network.
	defaultLimiterRate  = 10.0
	defaultLimiterBurst = 200
)

// SetDefaults populates the configuration with default values.
func (cfg *ServerConfig) SetDefaults() {
	cfg.Basic.Host = "localhost"
	cfg.Basic.Port = "8383"

	cfg.Catalog.Dir = "./translations"
	cfg.Catalog.Domain = ""
	cfg.Catalog.BaseLocale = "en"
	cfg.Catalog.LoadConcurrency = 0
	cfg.Catalog.CacheSize = 64
	cfg.Catalog.CompressCache = true
	cfg.Catalog.ReloadInterval = defaultReloadIntervalMinutes * time.Minute
	cfg.Catalog.AsyncLoad = true

	cfg.Log.Level = "info"
	cfg.Log.Outputs = []string{"/dev/stderr"}
	cfg.Log.Format = "console"

	cfg.Limiter.Enabled = false
	cfg.Limiter.StateFilepath = "./data/limiter_state.json"
	cfg.Limiter.Rate = defaultLimiterRate
	cfg.Limiter.Burst = defaultLimiterBurst
	cfg.Limiter.FilterLocal = false
	cfg.Limiter.IPv4Prefix = 24
	cfg.Limiter.IPv6Prefix = 48

	cfg.Metrics.Enabled = true
	cfg.Metrics.Path = "/metrics"

	cfg.Internationalization.StrictMissingKeys = false
}
