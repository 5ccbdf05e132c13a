// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package routes

import (
	"net/http"

	"codeberg.org/tscat/tscat/server/utils"
)

type healthResponse struct {
	Status string `json:"status"`
	Loads  int64  `json:"loads"`
}

// Health answers 200 once the catalogs have been loaded at least once, and
// 503 while the first load is still running.
func (api *API) Health(w http.ResponseWriter, r *http.Request) error {
	loads := api.Store.Loads()
	if loads == 0 {
		return utils.WriteJSON(w, http.StatusServiceUnavailable, healthResponse{Status: "loading"})
	}

	return utils.WriteJSON(w, http.StatusOK, healthResponse{Status: "ok", Loads: loads})
}
