// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

/*
Package middleware provides the HTTP middleware chain of the catalog server.

A Middleware receives the next handler explicitly; Wrap turns one into an
http.Handler. Handlers that can fail are wrapped with CatchError, which
buffers their output and answers errors with a JSON body.
*/
package middleware
