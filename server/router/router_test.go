// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"codeberg.org/tscat/tscat/config"
	"codeberg.org/tscat/tscat/server/middleware"
	"codeberg.org/tscat/tscat/server/routes"
	"codeberg.org/tscat/tscat/store"
)

func newTestRouter(t *testing.T) *Router {
	t.Helper()

	sl, err := os.ReadFile("../../linguist/testdata/VirtualBox_sl.ts")
	require.NoError(t, err)

	st, err := store.New(fstest.MapFS{"VirtualBox_sl.ts": {Data: sl}}, store.Options{Domain: "VirtualBox"})
	require.NoError(t, err)

	api := routes.New(st, "")
	require.NoError(t, api.Reload(context.Background(), "test"))

	router := NewRouter()
	router.DefineRoutes(api)
	router.RegisterMiddleware(st)

	return router
}

func TestMetricsRoute(t *testing.T) {
	saved := config.Global
	t.Cleanup(func() { config.Global = saved })

	config.Global.Metrics.Enabled = true
	config.Global.Metrics.Path = "/metrics"

	router := newTestRouter(t)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "tscat_catalog_messages")
}

func TestRouter(t *testing.T) {
	t.Parallel()

	router := newTestRouter(t)

	tests := []struct {
		name   string
		method string
		target string
		header http.Header
		status int
		check  func(t *testing.T, rr *httptest.ResponseRecorder)
	}{
		{
			name:   "resolve with negotiated language",
			method: http.MethodGet,
			target: "/api/v1/resolve?context=QIMessageBox&source=Cancel",
			header: http.Header{"Accept-Language": {"sl-SI, en;q=0.8"}},
			status: http.StatusOK,
			check: func(t *testing.T, rr *httptest.ResponseRecorder) {
				t.Helper()

				assert.Equal(t, "Prekliči", gjson.Get(rr.Body.String(), "text").String())
				assert.Equal(t, "sl-SI", rr.Header().Get("Content-Language"))
				assert.Equal(t, "no-store", rr.Header().Get("Cache-Control"))
				assert.Contains(t, rr.Header().Get("Server-Timing"), "user$GET$")
			},
		},
		{
			name:   "cookie preference",
			method: http.MethodGet,
			target: "/api/v1/languages",
			header: http.Header{"Cookie": {store.LangCookie + "=sl"}},
			status: http.StatusOK,
			check: func(t *testing.T, rr *httptest.ResponseRecorder) {
				t.Helper()

				assert.Equal(t, "sl-SI", gjson.Get(rr.Body.String(), "selected").String())
			},
		},
		{
			name:   "catalog stats path value",
			method: http.MethodGet,
			target: "/api/v1/catalogs/sl-SI/stats",
			status: http.StatusOK,
			check: func(t *testing.T, rr *httptest.ResponseRecorder) {
				t.Helper()

				assert.Equal(t, "sl_SI", gjson.Get(rr.Body.String(), "language").String())
			},
		},
		{
			name:   "trailing slash",
			method: http.MethodGet,
			target: "/api/v1/languages/",
			status: http.StatusPermanentRedirect,
		},
		{
			name:   "unknown route",
			method: http.MethodGet,
			target: "/wp-admin",
			status: http.StatusNotFound,
			check: func(t *testing.T, rr *httptest.ResponseRecorder) {
				t.Helper()

				assert.Equal(t, "no such endpoint", gjson.Get(rr.Body.String(), "error").String())
				assert.NotEmpty(t, gjson.Get(rr.Body.String(), "request_id").String())
			},
		},
		{
			name:   "health",
			method: http.MethodGet,
			target: "/healthz",
			status: http.StatusOK,
		},
		{
			name:   "reload",
			method: http.MethodPost,
			target: routes.ReloadPath,
			status: http.StatusOK,
			check: func(t *testing.T, rr *httptest.ResponseRecorder) {
				t.Helper()

				assert.True(t, strings.HasPrefix(rr.Header().Get("Content-Type"), "application/json"))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(tt.method, tt.target, nil)
			for k, v := range tt.header {
				r.Header[k] = v
			}

			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, r)

			require.Equal(t, tt.status, rr.Code, rr.Body.String())

			if tt.check != nil {
				tt.check(t, rr)
			}
		})
	}
}

func TestMiddlewareOrder(t *testing.T) {
	t.Parallel()

	var order []string

	trace := func(name string) middleware.Middleware {
		return func(w http.ResponseWriter, r *http.Request, next http.Handler) {
			order = append(order, name)
			next.ServeHTTP(w, r)
		}
	}

	router := NewRouter()
	router.HandleFunc("GET /ping", func(w http.ResponseWriter, r *http.Request) {
		order = append(order, "handler")
	})

	router.Use(trace("outer"))
	router.Use(trace("inner"))

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/ping", nil))

	assert.Equal(t, []string{"outer", "inner", "handler"}, order)
}
