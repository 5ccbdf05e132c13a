// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package routes

import (
	"errors"
	"net/http"
	"strconv"

	"codeberg.org/tscat/tscat/i18n"
	"codeberg.org/tscat/tscat/server/metrics"
	"codeberg.org/tscat/tscat/server/middleware"
	"codeberg.org/tscat/tscat/server/utils"
)

var (
	errMissingSource = errors.New(`query parameter "source" is required`)
	errInvalidN      = errors.New(`query parameter "n" must be an integer`)
)

type resolveResponse struct {
	Lang   string `json:"lang"`
	Text   string `json:"text"`
	Found  bool   `json:"found"`
	Known  bool   `json:"known"`
	Status string `json:"status,omitempty"`
	Form   *int   `json:"form,omitempty"`
	Defect bool   `json:"defect,omitempty"`
}

// Resolve looks up one message for the negotiated language.
//
// Query parameters: context, source (required), comment and n. Without n,
// numerus messages resolve to their first form.
func (api *API) Resolve(w http.ResponseWriter, r *http.Request) error {
	query := r.URL.Query()

	q := i18n.Query{
		Context: query.Get("context"),
		Source:  query.Get("source"),
		Comment: query.Get("comment"),
	}

	if q.Source == "" {
		return middleware.NewHTTPError(http.StatusBadRequest, errMissingSource)
	}

	if raw := query.Get("n"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return middleware.NewHTTPError(http.StatusBadRequest, errInvalidN)
		}

		q.N, q.HasN = n, true
	}

	tag := api.selected(r)
	res := api.Store.Translator(tag).Lookup(q)

	metrics.ObserveLookup(tag.String(), res)

	resp := resolveResponse{
		Lang:   tag.String(),
		Text:   res.Text,
		Found:  res.Found,
		Known:  res.Known,
		Defect: res.Defect,
	}

	if res.Known {
		resp.Status = res.Status.String()
	}

	if res.FormIndex >= 0 {
		resp.Form = &res.FormIndex
	}

	return utils.WriteJSON(w, http.StatusOK, resp)
}
