// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"codeberg.org/tscat/tscat/server/request_context"
)

// createTestRequest creates a test HTTP request with request context.
func createTestRequest(t *testing.T) *http.Request {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, "/test", nil)

	return req.WithContext(request_context.WithRequestContext(req.Context(), req, nil))
}

func TestCatchError_Success(t *testing.T) {
	t.Parallel()

	handler := CatchError(func(w http.ResponseWriter, r *http.Request) error {
		w.Header().Set("X-Test", "yes")
		w.WriteHeader(http.StatusCreated)
		_, err := w.Write([]byte(`{"status": "success"}`))

		return err
	})

	req := createTestRequest(t)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusCreated, rr.Code)
	assert.Equal(t, `{"status": "success"}`, rr.Body.String())
	assert.Equal(t, "yes", rr.Header().Get("X-Test"))

	ctx := request_context.FromRequest(req)
	assert.NoError(t, ctx.RequestError)
	assert.Equal(t, http.StatusCreated, ctx.StatusCode)
}

func TestCatchError_HandlerError(t *testing.T) {
	t.Parallel()

	testError := errors.New("open /secret/path: permission denied")
	handler := CatchError(func(w http.ResponseWriter, r *http.Request) error {
		_, _ = w.Write([]byte("partial"))

		return testError
	})

	req := createTestRequest(t)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	require.Equal(t, http.StatusInternalServerError, rr.Code)

	body := rr.Body.String()
	assert.Equal(t, "Internal Server Error", gjson.Get(body, "error").String())
	assert.Equal(t, request_context.FromRequest(req).RequestID, gjson.Get(body, "request_id").String())
	assert.NotContains(t, body, "partial")
	assert.NotContains(t, body, "secret")

	assert.ErrorIs(t, request_context.FromRequest(req).RequestError, testError)
}

func TestCatchError_HTTPError(t *testing.T) {
	t.Parallel()

	handler := CatchError(func(w http.ResponseWriter, r *http.Request) error {
		return NewHTTPError(http.StatusBadRequest, errors.New(`missing "source"`))
	})

	req := createTestRequest(t)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	require.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, `missing "source"`, gjson.Get(rr.Body.String(), "error").String())
	assert.Equal(t, int64(400), gjson.Get(rr.Body.String(), "status").Int())
	assert.Equal(t, http.StatusBadRequest, request_context.FromRequest(req).StatusCode)
}

func TestCatchError_NotFound(t *testing.T) {
	t.Parallel()

	handler := CatchError(func(w http.ResponseWriter, r *http.Request) error {
		w.WriteHeader(http.StatusNotFound)

		return nil
	})

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, createTestRequest(t))

	require.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "Not Found", gjson.Get(rr.Body.String(), "error").String())
}

func TestHTTPError(t *testing.T) {
	t.Parallel()

	inner := errors.New("inner")

	assert.ErrorIs(t, NewHTTPError(http.StatusConflict, inner), inner)
	assert.Equal(t, "Conflict", (&HTTPError{Status: http.StatusConflict}).Error())
}
