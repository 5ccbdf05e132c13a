// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package routes

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"

	"codeberg.org/tscat/tscat/server/middleware"
	"codeberg.org/tscat/tscat/server/utils"
)

var errBadReloadToken = errors.New("missing or invalid reload token")

type reloadResponse struct {
	Loads     int64    `json:"loads"`
	Languages []string `json:"languages"`
	Failed    []string `json:"failed,omitempty"`
}

// ReloadCatalogs reloads the catalog directory. When a reload token is
// configured, it must be sent as "Authorization: Bearer <token>".
func (api *API) ReloadCatalogs(w http.ResponseWriter, r *http.Request) error {
	if api.ReloadToken != "" && !api.authorized(r) {
		w.Header().Set("WWW-Authenticate", `Bearer realm="tscat"`)

		return middleware.NewHTTPError(http.StatusUnauthorized, errBadReloadToken)
	}

	if err := api.Reload(r.Context(), requestID(r)); err != nil {
		if errors.Is(err, errReloadInProgress) {
			return middleware.NewHTTPError(http.StatusConflict, err)
		}

		return middleware.NewHTTPError(http.StatusServiceUnavailable, err)
	}

	resp := reloadResponse{Loads: api.Store.Loads()}

	for _, tag := range api.Store.Languages() {
		resp.Languages = append(resp.Languages, tag.String())
	}

	for _, loc := range api.Store.Locales() {
		if loc.Err != nil {
			resp.Failed = append(resp.Failed, loc.Path)
		}
	}

	return utils.WriteJSON(w, http.StatusOK, resp)
}

func (api *API) authorized(r *http.Request) bool {
	token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok {
		return false
	}

	return subtle.ConstantTimeCompare([]byte(strings.TrimSpace(token)), []byte(api.ReloadToken)) == 1
}
