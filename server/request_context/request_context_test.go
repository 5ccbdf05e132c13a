// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package request_context

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	"codeberg.org/tscat/tscat/i18n"
	"codeberg.org/tscat/tscat/store"
)

const deCatalog = `<?xml version="1.0" encoding="utf-8"?>
<!DOCTYPE TS>
<TS version="2.1" language="de">
<context>
    <name>Dialog</name>
    <message>
        <source>Cancel</source>
        <translation>Abbrechen</translation>
    </message>
</context>
</TS>
`

func TestFromContext_Missing(t *testing.T) {
	t.Parallel()

	rc := FromContext(context.Background())
	require.NotNil(t, rc)
	assert.Empty(t, rc.RequestID)
	assert.Zero(t, rc.StatusCode)
}

func TestWithRequestContext(t *testing.T) {
	t.Parallel()

	st, err := store.New(fstest.MapFS{"app_de.ts": {Data: []byte(deCatalog)}}, store.Options{})
	require.NoError(t, err)
	require.NoError(t, st.Load(context.Background()))

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Accept-Language", "de-AT, en;q=0.5")

	ctx := WithRequestContext(r.Context(), r, st)
	rc := FromContext(ctx)

	assert.NotEmpty(t, rc.RequestID)
	assert.Equal(t, http.StatusOK, rc.StatusCode)
	assert.Equal(t, "de", rc.Lang.String())
	assert.Equal(t, "Abbrechen", i18n.Tr(ctx, "Dialog", "Cancel"))
}

func TestWithRequestContext_NoStore(t *testing.T) {
	t.Parallel()

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	rc := FromRequest(r.WithContext(WithRequestContext(r.Context(), r, nil)))

	assert.Equal(t, language.Und, rc.Lang)
	assert.NotEmpty(t, rc.RequestID)
}
