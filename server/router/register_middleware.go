// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package router

import (
	"codeberg.org/tscat/tscat/config"
	"codeberg.org/tscat/tscat/server/middleware"
	"codeberg.org/tscat/tscat/server/middleware/limiter"
	"codeberg.org/tscat/tscat/server/middleware/set_request_context"
	"codeberg.org/tscat/tscat/store"
)

// RegisterMiddleware installs the middleware chain. The limiter restores
// its saved state here when enabled.
func (router *Router) RegisterMiddleware(st *store.Store) {
	// the first middleware is the most outer / first executed one
	router.Use(middleware.WithServerTiming)
	router.Use(middleware.NormalizeURL)                    // handle trailing slashes
	router.Use(set_request_context.WithRequestContext(st)) // needed for everything else
	router.Use(middleware.SetResponseHeaders)              // needs the negotiated language

	if config.Global.Limiter.Enabled {
		limiter.Init()

		router.Use(limiter.Evaluate)
	}
}
