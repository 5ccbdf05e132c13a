// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package utils

import (
	"crypto/tls"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

func TestWriteError(t *testing.T) {
	t.Parallel()

	rr := httptest.NewRecorder()
	require.NoError(t, WriteError(rr, http.StatusNotFound, "", "abc"))

	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "application/json; charset=utf-8", rr.Header().Get("Content-Type"))

	body := rr.Body.String()
	assert.Equal(t, int64(404), gjson.Get(body, "status").Int())
	assert.Equal(t, "Not Found", gjson.Get(body, "error").String())
	assert.Equal(t, "abc", gjson.Get(body, "request_id").String())
}

func TestWriteJSON_Unmarshalable(t *testing.T) {
	t.Parallel()

	rr := httptest.NewRecorder()
	require.Error(t, WriteJSON(rr, http.StatusOK, func() {}))
	assert.Zero(t, rr.Body.Len())
}

func TestIsConnectionSecure(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		remoteAddr string
		proto      string
		tls        bool
		want       bool
	}{
		{"tls", "203.0.113.5:1234", "", true, true},
		{"private proxy", "10.0.0.2:1234", "https", false, true},
		{"loopback proxy", "127.0.0.1:1234", "https", false, true},
		{"public proxy", "203.0.113.5:1234", "https", false, false},
		{"plain", "10.0.0.2:1234", "", false, false},
		{"garbage", "nonsense", "https", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.RemoteAddr = tt.remoteAddr

			if tt.proto != "" {
				r.Header.Set("X-Forwarded-Proto", tt.proto)
			}

			if tt.tls {
				r.TLS = &tls.ConnectionState{}
			}

			assert.Equal(t, tt.want, IsConnectionSecure(r))
		})
	}
}
