// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/text/language"

	"codeberg.org/tscat/tscat/config"
	"codeberg.org/tscat/tscat/server/request_context"
)

func TestSetResponseHeaders(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path         string
		lang         language.Tag
		cacheControl string
		contentLang  string
	}{
		{"/api/v1/languages", language.Make("sl-SI"), "no-store", "sl-SI"},
		{"/healthz", language.Und, "private, no-cache", ""},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			t.Parallel()

			req := createTestRequest(t)
			req.URL.Path = tt.path
			request_context.FromRequest(req).Lang = tt.lang

			rr := httptest.NewRecorder()
			Wrap(SetResponseHeaders, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})).ServeHTTP(rr, req)

			assert.Equal(t, tt.cacheControl, rr.Header().Get("Cache-Control"))
			assert.Equal(t, tt.contentLang, rr.Header().Get("Content-Language"))
			assert.Equal(t, "nosniff", rr.Header().Get("X-Content-Type-Options"))
			assert.Equal(t, config.BuildVersion, rr.Header().Get("Tscat-Version"))
		})
	}
}
