// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package set_request_context

import (
	"net/http"

	"codeberg.org/tscat/tscat/server/middleware"
	"codeberg.org/tscat/tscat/server/request_context"
	"codeberg.org/tscat/tscat/store"
)

// WithRequestContext returns a middleware that attaches a RequestContext,
// and the translator for the negotiated locale of st, to each HTTP request.
func WithRequestContext(st *store.Store) middleware.Middleware {
	return func(w http.ResponseWriter, r *http.Request, next http.Handler) {
		next.ServeHTTP(w, r.WithContext(request_context.WithRequestContext(r.Context(), r, st)))
	}
}
