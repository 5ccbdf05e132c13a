// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package set_request_context

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"testing/fstest"

	"codeberg.org/tscat/tscat/i18n"
	"codeberg.org/tscat/tscat/server/middleware"
	"codeberg.org/tscat/tscat/server/request_context"
	"codeberg.org/tscat/tscat/store"
)

const slCatalog = `<?xml version="1.0" encoding="utf-8"?>
<!DOCTYPE TS>
<TS version="2.1" language="sl_SI">
<context>
    <name>QIMessageBox</name>
    <message>
        <source>OK</source>
        <translation>V redu</translation>
    </message>
</context>
</TS>
`

func newStore(t *testing.T) *store.Store {
	t.Helper()

	st, err := store.New(fstest.MapFS{"VirtualBox_sl.ts": {Data: []byte(slCatalog)}}, store.Options{Domain: "VirtualBox"})
	if err != nil {
		t.Fatalf("store.New: %v", err)
	}

	if err := st.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}

	return st
}

// TestWithRequestContext_AttachesContext tests that request context is properly attached.
func TestWithRequestContext_AttachesContext(t *testing.T) {
	t.Parallel()

	var (
		requestID  string
		statusCode int
		lang       string
		text       string
	)

	handler := middleware.Wrap(WithRequestContext(newStore(t)), http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := request_context.FromRequest(r)

		requestID = ctx.RequestID
		statusCode = ctx.StatusCode
		lang = ctx.Lang.String()
		text = i18n.Tr(r.Context(), "QIMessageBox", "OK")

		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/test?lang=sl", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("Expected status %d, got %d", http.StatusOK, rr.Code)
	}

	if requestID == "" {
		t.Error("Expected request ID to be set")
	}

	if statusCode != http.StatusOK {
		t.Errorf("Expected status code %d in context, got %d", http.StatusOK, statusCode)
	}

	if lang != "sl-SI" {
		t.Errorf("Expected language sl-SI, got %q", lang)
	}

	if text != "V redu" {
		t.Errorf("Expected translated text, got %q", text)
	}
}

// TestWithRequestContext_GeneratesUniqueRequestIDs tests that each request gets a unique ID.
func TestWithRequestContext_GeneratesUniqueRequestIDs(t *testing.T) {
	t.Parallel()

	var requestIDs []string

	handler := middleware.Wrap(WithRequestContext(nil), http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestIDs = append(requestIDs, request_context.FromRequest(r).RequestID)

		w.WriteHeader(http.StatusOK)
	}))

	for range 3 {
		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/test", nil))
	}

	if len(requestIDs) != 3 {
		t.Fatalf("Expected 3 request IDs, got %d", len(requestIDs))
	}

	seen := make(map[string]bool)
	for _, id := range requestIDs {
		if seen[id] {
			t.Errorf("Duplicate request ID found: %s", id)
		}

		seen[id] = true
	}
}

// TestWithRequestContext_UnsupportedLanguage falls back to the base locale.
func TestWithRequestContext_UnsupportedLanguage(t *testing.T) {
	t.Parallel()

	var text, lang string

	handler := middleware.Wrap(WithRequestContext(newStore(t)), http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		lang = request_context.FromRequest(r).Lang.String()
		text = i18n.Tr(r.Context(), "QIMessageBox", "OK")
	}))

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set("Accept-Language", "ja-JP")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if lang != "en" || text != "OK" {
		t.Errorf("Expected base locale and source text, got %q and %q", lang, text)
	}
}
