// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package middleware

import (
	"errors"
	"maps"
	"net/http"
	"net/http/httptest"

	"github.com/rs/zerolog/log"

	"codeberg.org/tscat/tscat/config"
	"codeberg.org/tscat/tscat/core/audit"
	"codeberg.org/tscat/tscat/server/metrics"
	"codeberg.org/tscat/tscat/server/request_context"
	"codeberg.org/tscat/tscat/server/utils"
)

// HTTPError is an error that carries the status code to answer with.
type HTTPError struct {
	Status int
	Err    error
}

func (e *HTTPError) Error() string {
	if e.Err == nil {
		return http.StatusText(e.Status)
	}

	return e.Err.Error()
}

func (e *HTTPError) Unwrap() error {
	return e.Err
}

// NewHTTPError returns an error answered with status and err's message.
func NewHTTPError(status int, err error) error {
	return &HTTPError{Status: status, Err: err}
}

// CatchError wraps HTTP handlers that return an error, providing centralized
// error handling, response buffering, and request logging.
//
// The handler's output is buffered using an httptest.ResponseRecorder. After
// it runs:
//   - An *HTTPError discards the buffered body and answers with its status
//     and message as JSON. Headers set by the handler are kept.
//   - Any other error written without an error status (status < 400) is an
//     unhandled internal error: the buffered response is discarded and a
//     generic 500 JSON body is sent. Its message is not exposed.
//   - A bare 404 without a body is replaced by a JSON 404 body.
//   - Otherwise the buffered response is written to the client.
//
// Finally, it records the request in the metrics and logs it via the audit
// package.
func CatchError(handler func(w http.ResponseWriter, r *http.Request) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := request_context.FromRequest(r)

		span := audit.Span{
			Destination: audit.ToUser,
			RequestID:   ctx.RequestID,
			Method:      r.Method,
			URL:         r.URL.String(),
		}

		_ = span.Begin(r.Context())

		recorder := httptest.NewRecorder()

		err := handler(recorder, r)

		ctx.RequestError = err

		var httpErr *HTTPError

		switch {
		case errors.As(err, &httpErr):
			ctx.StatusCode = httpErr.Status
			maps.Copy(w.Header(), recorder.Header())
			span.Size = writeError(w, ctx.StatusCode, httpErr.Error(), ctx.RequestID)

		case err != nil && recorder.Code < http.StatusBadRequest:
			ctx.StatusCode = http.StatusInternalServerError
			span.Size = writeError(w, ctx.StatusCode, "", ctx.RequestID)

		case recorder.Code == http.StatusNotFound && recorder.Body.Len() == 0:
			ctx.StatusCode = http.StatusNotFound
			span.Size = writeError(w, ctx.StatusCode, "", ctx.RequestID)

		default:
			ctx.StatusCode = recorder.Code
			maps.Copy(w.Header(), recorder.Header())
			w.WriteHeader(recorder.Code)

			n, err := recorder.Body.WriteTo(w)
			if err != nil {
				log.Err(err).Msg("Failed to write response body")
			}

			span.Size = int(n)
		}

		span.End()

		span.StatusCode = ctx.StatusCode
		span.Error = ctx.RequestError

		metrics.ObserveRequest(r.Method, ctx.StatusCode, span.Duration())

		if !config.Global.ShouldSkipServerLogging(r.URL.Path) {
			span.Log()
		}
	}
}

func writeError(w http.ResponseWriter, status int, message, requestID string) int {
	cw := &countingWriter{ResponseWriter: w}

	if err := utils.WriteError(cw, status, message, requestID); err != nil {
		log.Err(err).Msg("Failed to write error response")
	}

	return cw.n
}

type countingWriter struct {
	http.ResponseWriter

	n int
}

func (cw *countingWriter) Write(p []byte) (int, error) {
	n, err := cw.ResponseWriter.Write(p)
	cw.n += n

	return n, err
}
