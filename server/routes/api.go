// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

/*
Package routes implements the HTTP API of the catalog server.

All handlers have the signature expected by middleware.CatchError and return
JSON. Errors meant for the client are returned as *middleware.HTTPError.
*/
package routes

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"golang.org/x/text/language"

	"codeberg.org/tscat/tscat/core/audit"
	"codeberg.org/tscat/tscat/server/metrics"
	"codeberg.org/tscat/tscat/server/middleware"
	"codeberg.org/tscat/tscat/server/request_context"
	"codeberg.org/tscat/tscat/store"
)

// ReloadPath is the path of the catalog reload endpoint.
const ReloadPath = "/api/v1/reload"

var (
	errReloadInProgress = errors.New("a catalog reload is already running")
	errInvalidLanguage  = errors.New("invalid language tag")
	errUnknownLanguage  = errors.New("no catalog is loaded for this language")
)

// API serves catalogs of a store.
type API struct {
	Store *store.Store

	// ReloadToken, when set, must be presented as a bearer token to reload.
	ReloadToken string

	reloadMu sync.Mutex
}

// New returns an API for st.
func New(st *store.Store, reloadToken string) *API {
	return &API{Store: st, ReloadToken: reloadToken}
}

// Reload reloads the catalogs of the store, recording the load in metrics
// and the audit log. It fails with errReloadInProgress if another reload has
// not finished yet.
func (api *API) Reload(ctx context.Context, requestID string) error {
	if !api.reloadMu.TryLock() {
		return errReloadInProgress
	}
	defer api.reloadMu.Unlock()

	span := audit.Span{
		Destination: audit.ToCatalog,
		RequestID:   requestID,
		Method:      "LOAD",
		URL:         "catalogs",
	}

	ctx = span.Begin(ctx)
	err := api.Store.Load(ctx)
	span.End()

	span.StatusCode = http.StatusOK
	if err != nil {
		span.StatusCode = http.StatusServiceUnavailable
		span.Error = err
	}

	span.Size = len(api.Store.Locales())
	span.Log()

	metrics.ObserveLoad(span.Duration(), err, api.Store.Locales())

	return err
}

// ObserveInitialLoad records a load that was started outside of Reload, such
// as the first load on startup.
func (api *API) ObserveInitialLoad(d time.Duration, err error) {
	metrics.ObserveLoad(d, err, api.Store.Locales())
}

// locale resolves the {lang} path value to a loaded locale.
func (api *API) locale(r *http.Request) (*store.Locale, error) {
	tag, err := language.Parse(r.PathValue("lang"))
	if err != nil {
		return nil, middleware.NewHTTPError(http.StatusBadRequest, errInvalidLanguage)
	}

	loc := api.Store.Locale(tag)
	if loc == nil {
		return nil, middleware.NewHTTPError(http.StatusNotFound, errUnknownLanguage)
	}

	return loc, nil
}

func requestID(r *http.Request) string {
	return request_context.FromRequest(r).RequestID
}
