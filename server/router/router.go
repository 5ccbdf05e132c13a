// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

// Package router assembles the HTTP handler of the catalog server.
package router

import (
	"net/http"
	"slices"

	"codeberg.org/tscat/tscat/server/middleware"
)

// Router is a http.ServeMux behind a middleware chain.
type Router struct {
	*http.ServeMux

	middlewares []middleware.Middleware
	handler     http.Handler
}

// NewRouter creates a new Router instance.
func NewRouter() *Router {
	mux := http.NewServeMux()

	return &Router{ServeMux: mux, handler: mux}
}

// Use appends m to the chain. The first middleware added is the outermost.
func (router *Router) Use(m middleware.Middleware) {
	router.middlewares = append(router.middlewares, m)

	var h http.Handler = router.ServeMux
	for _, m := range slices.Backward(router.middlewares) {
		h = middleware.Wrap(m, h)
	}

	router.handler = h
}

// API registers an error-returning handler for pattern. Errors become JSON
// responses, see [middleware.CatchError].
func (router *Router) API(pattern string, handler func(w http.ResponseWriter, r *http.Request) error) {
	router.HandleFunc(pattern, middleware.CatchError(handler))
}

func (router *Router) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	router.handler.ServeHTTP(w, r)
}
