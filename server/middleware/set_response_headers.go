// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package middleware

import (
	"maps"
	"net/http"
	"strings"

	"codeberg.org/tscat/tscat/config"
	"codeberg.org/tscat/tscat/server/request_context"
)

// baseHeaders defines the default headers to be set in responses.
//
// Tscat-Version and Tscat-Revision are added dynamically in SetResponseHeaders.
var baseHeaders = http.Header{
	"Referrer-Policy":         {"no-referrer"},
	"X-Frame-Options":         {"DENY"},
	"X-Content-Type-Options":  {"nosniff"},
	"Content-Security-Policy": {"default-src 'none'; frame-ancestors 'none';"},
	"Vary":                    {"Accept-Language, Cookie"},
}

// SetResponseHeaders adds default headers to HTTP responses.
//
// It must run after WithRequestContext so that the negotiated locale is known.
func SetResponseHeaders(w http.ResponseWriter, r *http.Request, next http.Handler) {
	headers := w.Header()

	maps.Insert(headers, maps.All(baseHeaders))

	setCacheControl(headers, r.URL.Path)

	headers.Set("Tscat-Version", config.BuildVersion)
	headers.Set("Tscat-Revision", config.Global.Build.Revision())

	if lang := request_context.FromRequest(r).Lang; lang.String() != "und" {
		headers.Set("Content-Language", lang.String())
	}

	next.ServeHTTP(w, r)
}

// setCacheControl keeps API answers out of shared caches, since a reload can
// change any of them.
func setCacheControl(headers http.Header, path string) {
	cacheControl := "private, no-cache"

	if strings.HasPrefix(path, "/api/") {
		cacheControl = "no-store"
	}

	headers.Set("Cache-Control", cacheControl)
}
