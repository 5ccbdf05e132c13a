// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package store

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"testing/fstest"

	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	"codeberg.org/tscat/tscat/i18n"
	"codeberg.org/tscat/tscat/linguist"
)

func tsFile(lang, body string) []byte {
	return []byte(`<?xml version="1.0" encoding="utf-8"?>
<!DOCTYPE TS>
<TS version="2.1" language="` + lang + `">
` + body + `
</TS>
`)
}

func okMessage(translation string) string {
	return `<context>
    <name>QIMessageBox</name>
    <message>
        <source>OK</source>
        <translation>` + translation + `</translation>
    </message>
</context>`
}

func compress(t *testing.T, data []byte) []byte {
	t.Helper()

	enc, err := zstd.NewWriter(nil)
	require.NoError(t, err)

	defer enc.Close()

	return enc.EncodeAll(data, nil)
}

func testFS(t *testing.T) fstest.MapFS {
	t.Helper()

	sl, err := os.ReadFile("../linguist/testdata/VirtualBox_sl.ts")
	require.NoError(t, err)

	return fstest.MapFS{
		"VirtualBox_sl.ts":     {Data: sl},
		"VirtualBox_de.ts":     {Data: tsFile("de_DE", okMessage("OK-de"))},
		"VirtualBox_fr.ts.zst": {Data: compress(t, tsFile("fr", okMessage("D'accord")))},
		"VirtualBox_pt_BR.ts":  {Data: []byte("<TS version=\"2.1\" language=\"pt_BR\"><context>")},
		"Other_it.ts":          {Data: tsFile("it", okMessage("Va bene"))},
		"README.md":            {Data: []byte("# catalogs")},
		"old/VirtualBox_ja.ts": {Data: tsFile("ja", okMessage("OK-ja"))},
	}
}

func newTestStore(t *testing.T, fsys fstest.MapFS) *Store {
	t.Helper()

	s, err := New(fsys, Options{Domain: "VirtualBox", Concurrency: 2, CacheSize: 8, CompressCache: true})
	require.NoError(t, err)

	return s
}

func tagStrings(tags []language.Tag) []string {
	out := make([]string, len(tags))
	for i, t := range tags {
		out[i] = t.String()
	}

	return out
}

func TestLoad(t *testing.T) {
	t.Parallel()

	s := newTestStore(t, testFS(t))
	require.NoError(t, s.Load(context.Background()))

	assert.Equal(t, []string{"de-DE", "en", "fr", "pt-BR", "sl-SI"}, tagStrings(s.Languages()))
	assert.Equal(t, int64(1), s.Loads())

	tests := []struct {
		name string
		tag  string
		want string
	}{
		{"exact", "sl-SI", "V redu"},
		{"language only", "sl", "V redu"},
		{"language attribute", "de-DE", "OK-de"},
		{"compressed", "fr", "D'accord"},
		{"corrupt serves source", "pt-BR", "OK"},
		{"unsupported falls back to base", "ja", "OK"},
		{"base", "en", "OK"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			tr := s.Translator(language.Make(tt.tag))
			require.NotNil(t, tr)
			assert.Equal(t, tt.want, tr.Resolve("QIMessageBox", "OK", ""))
		})
	}
}

func TestLoadRecordsErrorsAndIssues(t *testing.T) {
	t.Parallel()

	fsys := testFS(t)
	fsys["VirtualBox_cs.ts"] = &fstest.MapFile{Data: tsFile("cs_CZ", `<context>
    <name>UIDiskList</name>
    <message numerus="yes">
        <source>%n disk(s)</source>
        <translation>
            <numerusform>%n disk</numerusform>
            <numerusform>%n disky</numerusform>
        </translation>
    </message>
</context>`)}

	s := newTestStore(t, fsys)
	require.NoError(t, s.Load(context.Background()))

	broken := s.Locale(language.Make("pt-BR"))
	require.NotNil(t, broken)

	var perr *linguist.ParseError
	require.ErrorAs(t, broken.Err, &perr)
	assert.Nil(t, broken.Catalog)
	assert.Equal(t, "VirtualBox_pt_BR.ts", broken.Path)

	issues := s.Issues(language.Make("cs-CZ"))
	require.Len(t, issues, 1)
	assert.Equal(t, linguist.PluralFormCount, issues[0].Kind)

	assert.Empty(t, s.Issues(language.Make("sl-SI")))
	assert.Equal(t, 11, s.Catalog(language.Make("sl-SI")).Stats().Messages)
	assert.Nil(t, s.Catalog(language.Make("sl")))
}

func TestBeforeLoad(t *testing.T) {
	t.Parallel()

	s := newTestStore(t, testFS(t))

	assert.Equal(t, []string{"en"}, tagStrings(s.Languages()))
	assert.Empty(t, s.Locales())
	assert.Equal(t, "OK", s.Translator(language.Make("sl")).Resolve("QIMessageBox", "OK", ""))
}

func TestLoadAsync(t *testing.T) {
	t.Parallel()

	s := newTestStore(t, testFS(t))

	require.NoError(t, <-s.LoadAsync(context.Background()))
	assert.Equal(t, "V redu", s.Translator(language.Make("sl")).Resolve("QIMessageBox", "OK", ""))
}

func TestLoadCanceled(t *testing.T) {
	t.Parallel()

	s := newTestStore(t, testFS(t))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.ErrorIs(t, s.Load(ctx), context.Canceled)
	assert.Equal(t, []string{"en"}, tagStrings(s.Languages()))
	assert.Zero(t, s.Loads())
}

func TestReload(t *testing.T) {
	t.Parallel()

	fsys := testFS(t)
	s := newTestStore(t, fsys)
	require.NoError(t, s.Load(context.Background()))

	sl := s.Translator(language.Make("sl"))
	de := s.Locale(language.Make("de-DE"))
	fr := s.Translator(language.Make("fr"))

	fsys["VirtualBox_sl.ts"] = &fstest.MapFile{Data: tsFile("sl_SI", okMessage("Potrdi"))}
	delete(fsys, "VirtualBox_fr.ts.zst")

	require.NoError(t, s.Load(context.Background()))

	// Handed out translators follow the reload.
	assert.Equal(t, "Potrdi", sl.Resolve("QIMessageBox", "OK", ""))
	assert.Same(t, sl, s.Translator(language.Make("sl")))

	// Unchanged files are not parsed again.
	assert.Same(t, de, s.Locale(language.Make("de-DE")))

	// Removed locales serve source text.
	assert.Equal(t, "OK", fr.Resolve("QIMessageBox", "OK", ""))
	assert.Nil(t, s.Locale(language.Make("fr")))
	assert.Equal(t, []string{"de-DE", "en", "pt-BR", "sl-SI"}, tagStrings(s.Languages()))
}

func TestDuplicateLocale(t *testing.T) {
	t.Parallel()

	fsys := fstest.MapFS{
		"app_de.ts":    {Data: tsFile("de", okMessage("Erste"))},
		"app_de_AT.ts": {Data: tsFile("de", okMessage("Zweite"))},
	}

	s, err := New(fsys, Options{})
	require.NoError(t, err)
	require.NoError(t, s.Load(context.Background()))

	require.Len(t, s.Locales(), 1)
	assert.Equal(t, "app_de.ts", s.Locale(language.German).Path)
	assert.Equal(t, "Erste", s.Translator(language.German).Resolve("QIMessageBox", "OK", ""))
}

func TestLocaleFromName(t *testing.T) {
	t.Parallel()

	plain, err := New(fstest.MapFS{}, Options{})
	require.NoError(t, err)

	domain, err := New(fstest.MapFS{}, Options{Domain: "qt"})
	require.NoError(t, err)

	tests := []struct {
		store *Store
		name  string
		want  string
	}{
		{plain, "sl_SI.ts", "sl-SI"},
		{plain, "VirtualBox_sl.ts", "sl"},
		{plain, "qt_pt_BR.ts.zst", "pt-BR"},
		{plain, "app_sr_Latn_RS.ts", "sr-Latn-RS"},
		{plain, "README.ts", ""},
		{domain, "qt_pt_BR.ts", "pt-BR"},
		{domain, "qt_xx_YYY.ts", ""},
	}

	for _, tt := range tests {
		got, err := tt.store.localeFromName(tt.name)
		if tt.want == "" {
			require.ErrorIs(t, err, ErrNoLocale, tt.name)

			continue
		}

		require.NoError(t, err, tt.name)
		assert.Equal(t, tt.want, got.String(), tt.name)
	}
}

func TestFromRequest(t *testing.T) {
	t.Parallel()

	s := newTestStore(t, testFS(t))
	require.NoError(t, s.Load(context.Background()))

	tests := []struct {
		name           string
		query          string
		cookie         string
		acceptLanguage string
		want           string
	}{
		{"nothing", "", "", "", "en"},
		{"query wins", "?lang=de-DE", "sl-SI", "fr", "de-DE"},
		{"cookie before header", "", "sl-SI", "fr", "sl-SI"},
		{"header", "", "", "fr-CH, fr;q=0.9", "fr"},
		{"auto ignores cookie", "?lang=auto", "sl-SI", "fr", "fr"},
		{"unsupported", "", "", "ja", "en"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			r := httptest.NewRequest(http.MethodGet, "/"+tt.query, nil)
			if tt.cookie != "" {
				r.AddCookie(&http.Cookie{Name: LangCookie, Value: tt.cookie})
			}

			if tt.acceptLanguage != "" {
				r.Header.Set("Accept-Language", tt.acceptLanguage)
			}

			assert.Equal(t, tt.want, s.FromRequest(r).String())
		})
	}

	assert.Equal(t, language.English, s.FromRequest(nil))
}

func TestWithRequest(t *testing.T) {
	t.Parallel()

	s := newTestStore(t, testFS(t))
	require.NoError(t, s.Load(context.Background()))

	r := httptest.NewRequest(http.MethodGet, "/?lang=sl", nil)
	ctx := s.WithRequest(context.Background(), r)

	assert.Equal(t, "V redu", i18n.Tr(ctx, "QIMessageBox", "OK"))
	assert.Equal(t, "sl_SI", i18n.TranslatorFrom(ctx).Language())
}
