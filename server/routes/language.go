// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package routes

import (
	"net/http"
	"strings"
	"time"

	"golang.org/x/text/language"

	"codeberg.org/tscat/tscat/server/middleware"
	"codeberg.org/tscat/tscat/server/utils"
	"codeberg.org/tscat/tscat/store"
)

// languageCookieMaxAge is how long a language choice is remembered.
const languageCookieMaxAge = 365 * 24 * time.Hour

type languageResponse struct {
	Lang string `json:"lang"`
}

// SetLanguage stores the preferred language of the client in a cookie.
//
// The form value "lang" names the language; "auto" clears the preference so
// that Accept-Language decides again. The response carries the language
// that now applies.
func (api *API) SetLanguage(w http.ResponseWriter, r *http.Request) error {
	value := strings.TrimSpace(r.FormValue(store.LangParam))

	cookie := &http.Cookie{
		Name:     store.LangCookie,
		Path:     "/",
		HttpOnly: true,
		Secure:   utils.IsConnectionSecure(r),
		SameSite: http.SameSiteLaxMode,
	}

	var applied language.Tag

	if value == "" || strings.EqualFold(value, "auto") {
		cookie.MaxAge = -1
		r.Header.Del("Cookie")
		applied = api.Store.FromRequest(r)
	} else {
		tag, err := language.Parse(value)
		if err != nil {
			return middleware.NewHTTPError(http.StatusBadRequest, errInvalidLanguage)
		}

		applied = api.Store.Match(tag)
		cookie.Value = applied.String()
		cookie.MaxAge = int(languageCookieMaxAge.Seconds())
	}

	http.SetCookie(w, cookie)

	return utils.WriteJSON(w, http.StatusOK, languageResponse{Lang: applied.String()})
}
