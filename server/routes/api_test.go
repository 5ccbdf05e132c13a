// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package routes

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"codeberg.org/tscat/tscat/server/middleware"
	"codeberg.org/tscat/tscat/store"
)

const passwordPrompt = "This virtual machine is password protected. Please enter the %n encryption password(s) below."

func testFS(t *testing.T) fstest.MapFS {
	t.Helper()

	sl, err := os.ReadFile("../../linguist/testdata/VirtualBox_sl.ts")
	require.NoError(t, err)

	return fstest.MapFS{
		"VirtualBox_sl.ts":    {Data: sl},
		"VirtualBox_pt_BR.ts": {Data: []byte(`<TS version="2.1" language="pt_BR"><context>`)},
	}
}

func newTestAPI(t *testing.T, fsys fstest.MapFS, token string) *API {
	t.Helper()

	st, err := store.New(fsys, store.Options{Domain: "VirtualBox"})
	require.NoError(t, err)

	api := New(st, token)
	require.NoError(t, api.Reload(context.Background(), "test"))

	return api
}

// do runs handler behind CatchError, as the router does.
func do(api *API, handler func(http.ResponseWriter, *http.Request) error, r *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	middleware.CatchError(handler).ServeHTTP(rr, r)

	return rr
}

func TestHealth(t *testing.T) {
	t.Parallel()

	st, err := store.New(testFS(t), store.Options{Domain: "VirtualBox"})
	require.NoError(t, err)

	api := New(st, "")

	rr := do(api, api.Health, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	assert.Equal(t, "loading", gjson.Get(rr.Body.String(), "status").String())

	require.NoError(t, api.Reload(context.Background(), ""))

	rr = do(api, api.Health, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, int64(1), gjson.Get(rr.Body.String(), "loads").Int())
}

func TestLanguages(t *testing.T) {
	t.Parallel()

	api := newTestAPI(t, testFS(t), "")

	r := httptest.NewRequest(http.MethodGet, "/api/v1/languages", nil)
	r.Header.Set("Accept-Language", "sl")

	rr := do(api, api.Languages, r)
	require.Equal(t, http.StatusOK, rr.Code)

	body := rr.Body.String()
	assert.Equal(t, "sl-SI", gjson.Get(body, "selected").String())
	assert.Equal(t, `["en","pt-BR","sl-SI"]`, gjson.Get(body, "languages.#.tag").Raw)
	assert.True(t, gjson.Get(body, "languages.0.base").Bool())
	assert.NotEmpty(t, gjson.Get(body, "languages.0.name").String())
	assert.Contains(t, gjson.Get(body, `languages.#(tag=="sl-SI").name`).String(), "sloven")
	assert.Equal(t, int64(11), gjson.Get(body, `languages.#(tag=="sl-SI").messages`).Int())
	assert.NotEmpty(t, gjson.Get(body, `languages.#(tag=="pt-BR").error`).String())
}

func TestResolve(t *testing.T) {
	t.Parallel()

	api := newTestAPI(t, testFS(t), "")

	tests := []struct {
		name   string
		query  url.Values
		status int
		text   string
		found  bool
		form   int64
		extra  string
	}{
		{
			name:   "finished",
			query:  url.Values{"lang": {"sl"}, "context": {"QIMessageBox"}, "source": {"OK"}},
			status: http.StatusOK, text: "V redu", found: true, form: -1,
		},
		{
			name:   "comment disambiguates",
			query:  url.Values{"lang": {"sl"}, "context": {"QIMessageBox"}, "source": {"&Details (%1)"}, "comment": {"button"}},
			status: http.StatusOK, text: "&Podrobnosti (%1)", found: true, form: -1,
		},
		{
			name:   "unfinished falls back to source",
			query:  url.Values{"lang": {"sl"}, "context": {"UIActionPool"}, "source": {"Tools"}},
			status: http.StatusOK, text: "Tools", found: false, form: -1, extra: "unfinished",
		},
		{
			name:   "vanished is not served",
			query:  url.Values{"lang": {"sl"}, "context": {"UIActionPool"}, "source": {"Show &Log..."}},
			status: http.StatusOK, text: "Show &Log...", found: false, form: -1,
		},
		{
			name:   "dual plural",
			query:  url.Values{"lang": {"sl"}, "context": {"UIAddDiskEncryptionPasswordDialog"}, "source": {passwordPrompt}, "n": {"102"}},
			status: http.StatusOK, text: "Ta navidezni računalnik je zaščiten z geslom. Spodaj vnesite %n šifrirni gesli.", found: true, form: 1,
		},
		{
			name:   "base language",
			query:  url.Values{"lang": {"en"}, "context": {"QIMessageBox"}, "source": {"OK"}},
			status: http.StatusOK, text: "OK", found: false, form: -1,
		},
		{
			name:   "missing source",
			query:  url.Values{"context": {"QIMessageBox"}},
			status: http.StatusBadRequest,
		},
		{
			name:   "bad quantity",
			query:  url.Values{"source": {"x"}, "n": {"many"}},
			status: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rr := do(api, api.Resolve, httptest.NewRequest(http.MethodGet, "/api/v1/resolve?"+tt.query.Encode(), nil))
			require.Equal(t, tt.status, rr.Code, rr.Body.String())

			if tt.status != http.StatusOK {
				assert.NotEmpty(t, gjson.Get(rr.Body.String(), "error").String())

				return
			}

			body := rr.Body.String()
			assert.Equal(t, tt.text, gjson.Get(body, "text").String())
			assert.Equal(t, tt.found, gjson.Get(body, "found").Bool())

			if tt.form >= 0 {
				assert.Equal(t, tt.form, gjson.Get(body, "form").Int())
			} else {
				assert.False(t, gjson.Get(body, "form").Exists())
			}

			if tt.extra != "" {
				assert.Equal(t, tt.extra, gjson.Get(body, "status").String())
			}
		})
	}
}

func TestCatalogStatsAndIssues(t *testing.T) {
	t.Parallel()

	fsys := testFS(t)
	fsys["VirtualBox_cs.ts"] = &fstest.MapFile{Data: []byte(`<TS version="2.1" language="cs_CZ">
<context>
    <name>UIDiskList</name>
    <message numerus="yes">
        <source>%n disk(s)</source>
        <translation><numerusform>%n disk</numerusform></translation>
    </message>
</context>
</TS>`)}

	api := newTestAPI(t, fsys, "")

	tests := []struct {
		name    string
		lang    string
		handler func(http.ResponseWriter, *http.Request) error
		status  int
		path    string
		want    string
	}{
		{"stats", "sl-SI", api.CatalogStats, http.StatusOK, "messages", "11"},
		{"stats unfinished", "sl-SI", api.CatalogStats, http.StatusOK, "unfinished", "1"},
		{"stats file", "sl-SI", api.CatalogStats, http.StatusOK, "file", "VirtualBox_sl.ts"},
		{"no issues", "sl-SI", api.CatalogIssues, http.StatusOK, "issues.#", "0"},
		{"plural issue", "cs-CZ", api.CatalogIssues, http.StatusOK, "issues.0.kind", "plural-form-count"},
		{"issue key", "cs-CZ", api.CatalogIssues, http.StatusOK, "issues.0.key.source", "%n disk(s)"},
		{"broken", "pt-BR", api.CatalogStats, http.StatusUnprocessableEntity, "status", "422"},
		{"not loaded", "ja", api.CatalogStats, http.StatusNotFound, "status", "404"},
		{"language only is not exact", "sl", api.CatalogIssues, http.StatusNotFound, "status", "404"},
		{"invalid", "!!", api.CatalogStats, http.StatusBadRequest, "status", "400"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			r := httptest.NewRequest(http.MethodGet, "/api/v1/catalogs/x", nil)
			r.SetPathValue("lang", tt.lang)

			rr := do(api, tt.handler, r)
			require.Equal(t, tt.status, rr.Code, rr.Body.String())
			assert.Equal(t, tt.want, gjson.Get(rr.Body.String(), tt.path).String())
		})
	}
}

func TestCatalogExport(t *testing.T) {
	t.Parallel()

	api := newTestAPI(t, testFS(t), "")

	export := func(format string) *httptest.ResponseRecorder {
		r := httptest.NewRequest(http.MethodGet, "/api/v1/catalogs/sl-SI/export?format="+format, nil)
		r.SetPathValue("lang", "sl-SI")

		return do(api, api.CatalogExport, r)
	}

	ts := export("")
	require.Equal(t, http.StatusOK, ts.Code)
	assert.Contains(t, ts.Header().Get("Content-Disposition"), `filename="VirtualBox_sl.ts"`)
	assert.Contains(t, ts.Body.String(), `<TS version="2.1" language="sl_SI"`)
	assert.Contains(t, ts.Body.String(), `<translation>V redu</translation>`)

	po := export("po")
	require.Equal(t, http.StatusOK, po.Code)
	assert.Contains(t, po.Header().Get("Content-Disposition"), `filename="VirtualBox_sl.po"`)
	assert.Contains(t, po.Body.String(), `msgstr "V redu"`)

	assert.Equal(t, http.StatusBadRequest, export("xliff").Code)
}

func TestReloadCatalogs(t *testing.T) {
	t.Parallel()

	fsys := testFS(t)
	api := newTestAPI(t, fsys, "s3cret")

	reload := func(auth string) *httptest.ResponseRecorder {
		r := httptest.NewRequest(http.MethodPost, ReloadPath, nil)
		if auth != "" {
			r.Header.Set("Authorization", auth)
		}

		return do(api, api.ReloadCatalogs, r)
	}

	rr := reload("")
	require.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.NotEmpty(t, rr.Header().Get("WWW-Authenticate"))

	assert.Equal(t, http.StatusUnauthorized, reload("Bearer nope").Code)

	delete(fsys, "VirtualBox_pt_BR.ts")

	rr = reload("Bearer s3cret")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	body := rr.Body.String()
	assert.Equal(t, int64(2), gjson.Get(body, "loads").Int())
	assert.Equal(t, `["en","sl-SI"]`, gjson.Get(body, "languages").Raw)
	assert.False(t, gjson.Get(body, "failed").Exists())
}

func TestReloadInProgress(t *testing.T) {
	t.Parallel()

	api := newTestAPI(t, testFS(t), "")

	api.reloadMu.Lock()
	defer api.reloadMu.Unlock()

	rr := do(api, api.ReloadCatalogs, httptest.NewRequest(http.MethodPost, ReloadPath, nil))
	assert.Equal(t, http.StatusConflict, rr.Code)
}

func TestSetLanguage(t *testing.T) {
	t.Parallel()

	api := newTestAPI(t, testFS(t), "")

	post := func(value string) *httptest.ResponseRecorder {
		r := httptest.NewRequest(http.MethodPost, "/api/v1/language", strings.NewReader(url.Values{"lang": {value}}.Encode()))
		r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		r.Header.Set("Accept-Language", "pt-BR")
		r.AddCookie(&http.Cookie{Name: store.LangCookie, Value: "sl-SI"})

		return do(api, api.SetLanguage, r)
	}

	rr := post("sl")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "sl-SI", gjson.Get(rr.Body.String(), "lang").String())

	cookies := rr.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "sl-SI", cookies[0].Value)
	assert.Positive(t, cookies[0].MaxAge)

	rr = post("auto")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "pt-BR", gjson.Get(rr.Body.String(), "lang").String())
	assert.Negative(t, rr.Result().Cookies()[0].MaxAge)

	assert.Equal(t, http.StatusBadRequest, post("!!").Code)
}
