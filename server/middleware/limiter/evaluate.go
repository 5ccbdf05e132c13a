// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package limiter

import (
	"math"
	"net/http"
	"strconv"

	"github.com/rs/zerolog/log"

	"codeberg.org/tscat/tscat/config"
	"codeberg.org/tscat/tscat/server/request_context"
	"codeberg.org/tscat/tscat/server/utils"
)

// Rate limiting header names.
//
// ref: https://www.ietf.org/archive/id/draft-polli-ratelimit-headers-02.html
const (
	HeaderRateLimitLimit     string = "RateLimit-Limit"
	HeaderRateLimitRemaining string = "RateLimit-Remaining"
	HeaderRateLimitReset     string = "RateLimit-Reset"
)

// Evaluate is the entrypoint to the limiter middleware.
//
// Checks run in order: excluded paths, the pass and block lists, local
// clients (unless FilterLocal is set), then the token bucket of the client's
// network. Reload requests also spend a token from the reload bucket.
func Evaluate(w http.ResponseWriter, r *http.Request, next http.Handler) {
	defer DoCleanup()

	if isExcludedPath(r.URL.Path) {
		next.ServeHTTP(w, r)

		return
	}

	requestID := request_context.FromRequest(r).RequestID

	client, err := newClientInfo(r)
	if err != nil {
		log.Warn().Err(err).
			Str("remote_addr", r.RemoteAddr).
			Msg("Request blocked, cannot identify client")

		_ = utils.WriteError(w, http.StatusBadRequest, "cannot identify client", requestID)

		return
	}

	if allowed, blocked := client.checkIPLists(); allowed {
		next.ServeHTTP(w, r)

		return
	} else if blocked {
		log.Warn().
			Str("ip", client.ip.String()).
			Str("network", client.network.String()).
			Msg("Request blocked, IP in block-list")

		_ = utils.WriteError(w, http.StatusForbidden, "IP in block-list", requestID)

		return
	}

	if !config.Global.Limiter.FilterLocal && client.isLocal() {
		next.ServeHTTP(w, r)

		return
	}

	network := client.network.String()
	limiter := networkLimiter(network)

	if isReloadRequest(r) {
		if reload := reloadLimiter(network); !reload.allow() {
			reject(w, reload, client, "Reload rate limit exceeded", requestID)

			return
		}
	}

	if !limiter.allow() {
		reject(w, limiter, client, "Rate limit exceeded", requestID)

		return
	}

	addRateLimitHeaders(w, limiter)
	next.ServeHTTP(w, r)
}

func reject(w http.ResponseWriter, limiter *limiterWrapper, client *ClientInfo, reason, requestID string) {
	log.Warn().
		Str("ip", client.ip.String()).
		Str("network", client.network.String()).
		Str("reason", reason).
		Msg("Request blocked, exceeded rate limit")

	addRateLimitHeaders(w, limiter)

	_ = utils.WriteError(w, http.StatusTooManyRequests, reason, requestID)
}

// addRateLimitHeaders adds rate limiting information to the response headers.
func addRateLimitHeaders(w http.ResponseWriter, limiter *limiterWrapper) {
	limiter.mu.Lock()
	currentTokens := limiter.limiter.TokensAt(timeNow())
	burst := limiter.limiter.Burst()
	limit := limiter.limiter.Limit()
	limiter.mu.Unlock()

	remaining := max(0, int(math.Min(float64(burst), currentTokens)))

	// Seconds until the bucket is full again.
	var resetTime int64

	if currentTokens < float64(burst) && limit > 0 {
		resetTime = int64(math.Ceil((float64(burst) - currentTokens) / float64(limit)))
	}

	resetStr := strconv.FormatInt(resetTime, 10)

	w.Header().Set(HeaderRateLimitLimit, strconv.Itoa(burst))
	w.Header().Set(HeaderRateLimitRemaining, strconv.Itoa(remaining))
	w.Header().Set(HeaderRateLimitReset, resetStr)

	if remaining == 0 {
		w.Header().Set("Retry-After", resetStr)
	}
}
