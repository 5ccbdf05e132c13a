// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package routes

import (
	"net/http"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"

	"codeberg.org/tscat/tscat/server/request_context"
	"codeberg.org/tscat/tscat/server/utils"
	"codeberg.org/tscat/tscat/store"
)

type languageInfo struct {
	Tag      string    `json:"tag"`
	Name     string    `json:"name"`
	Base     bool      `json:"base,omitempty"`
	File     string    `json:"file,omitempty"`
	Messages int       `json:"messages"`
	Issues   int       `json:"issues"`
	Error    string    `json:"error,omitempty"`
	LoadedAt time.Time `json:"loaded_at,omitzero"`
}

type languagesResponse struct {
	Selected  string         `json:"selected"`
	Languages []languageInfo `json:"languages"`
}

// Languages lists the supported languages with a summary of their catalogs.
// "selected" is the language negotiated for this request.
func (api *API) Languages(w http.ResponseWriter, r *http.Request) error {
	base := api.Store.BaseTag()

	resp := languagesResponse{
		Selected: api.selected(r).String(),
	}

	for _, tag := range api.Store.Languages() {
		info := languageInfo{
			Tag:  tag.String(),
			Name: languageName(tag),
			Base: tag == base,
		}

		if loc := api.Store.Locale(tag); loc != nil {
			describeLocale(&info, loc)
		}

		resp.Languages = append(resp.Languages, info)
	}

	return utils.WriteJSON(w, http.StatusOK, resp)
}

// selected returns the negotiated language of r, negotiating it if no
// middleware did.
func (api *API) selected(r *http.Request) language.Tag {
	if lang := request_context.FromRequest(r).Lang; lang != language.Und {
		return lang
	}

	return api.Store.FromRequest(r)
}

func describeLocale(info *languageInfo, loc *store.Locale) {
	info.File = loc.Path
	info.LoadedAt = loc.LoadedAt
	info.Issues = len(loc.Issues)

	if loc.Err != nil {
		info.Error = loc.Err.Error()

		return
	}

	info.Messages = loc.Catalog.Stats().Messages
}

// languageName is the name of tag in its own language, falling back to English.
func languageName(tag language.Tag) string {
	if name := display.Self.Name(tag); name != "" {
		return name
	}

	return display.English.Tags().Name(tag)
}
