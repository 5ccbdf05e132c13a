// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package router

import (
	"errors"
	"net/http"
	"net/http/pprof"
	"runtime/trace"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"codeberg.org/tscat/tscat/config"
	"codeberg.org/tscat/tscat/server/metrics"
	"codeberg.org/tscat/tscat/server/middleware"
	"codeberg.org/tscat/tscat/server/routes"
)

var errNoRoute = errors.New("no such endpoint")

// DefineRoutes sets up all the routes of the catalog API.
func (router *Router) DefineRoutes(api *routes.API) {
	router.API("GET /healthz", api.Health)

	router.API("GET /api/v1/languages", api.Languages)
	router.API("POST /api/v1/language", api.SetLanguage)
	router.API("GET /api/v1/resolve", api.Resolve)
	router.API("GET /api/v1/catalogs/{lang}/stats", api.CatalogStats)
	router.API("GET /api/v1/catalogs/{lang}/issues", api.CatalogIssues)
	router.API("GET /api/v1/catalogs/{lang}/export", api.CatalogExport)
	router.API("POST "+routes.ReloadPath, api.ReloadCatalogs)

	if config.Global.Metrics.Enabled {
		router.Handle("GET "+config.Global.Metrics.Path, metrics.Handler())
	}

	// Everything else answers with a JSON 404.
	router.API("/", func(w http.ResponseWriter, r *http.Request) error {
		return middleware.NewHTTPError(http.StatusNotFound, errNoRoute)
	})

	if config.Global.Development.InDevelopment {
		registerDebugRoutes(router)
	}
}

var (
	flightRecorder          = trace.NewFlightRecorder(trace.FlightRecorderConfig{MinAge: time.Minute})
	startFlightRecorderOnce sync.Once
)

func registerDebugRoutes(router *Router) {
	startFlightRecorderOnce.Do(func() {
		if err := flightRecorder.Start(); err != nil {
			log.Warn().Err(err).Msg("Failed to start flight recorder")
		}
	})

	router.HandleFunc("GET /debug/pprof/", pprof.Index)
	router.HandleFunc("GET /debug/pprof/cmdline", pprof.Cmdline)
	router.HandleFunc("GET /debug/pprof/profile", pprof.Profile)
	router.HandleFunc("GET /debug/pprof/symbol", pprof.Symbol)
	router.HandleFunc("GET /debug/pprof/trace", pprof.Trace)
	router.HandleFunc("GET /debug/flight", func(w http.ResponseWriter, r *http.Request) {
		_, _ = flightRecorder.WriteTo(w)
	})
}
