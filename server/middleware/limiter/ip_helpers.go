// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package limiter

import (
	"net"
	"net/http"
	"net/netip"
	"strings"

	"github.com/rs/zerolog/log"
)

// getClientIP extracts the client's IP address from an HTTP request with proxy awareness.
//
// Proxy headers (X-Real-IP, X-Forwarded-For) are only trusted when the
// connection comes from a private or loopback address.
func getClientIP(r *http.Request) string {
	remoteIP := r.RemoteAddr
	if ip, _, err := net.SplitHostPort(remoteIP); err == nil {
		remoteIP = ip
	}

	addr, err := netip.ParseAddr(remoteIP)
	if err != nil {
		return remoteIP
	}

	addr = addr.Unmap()
	if !addr.IsPrivate() && !addr.IsLoopback() {
		if r.Header.Get("X-Real-IP") != "" || r.Header.Get("X-Forwarded-For") != "" {
			log.Debug().
				Str("remote_ip", remoteIP).
				Msg("Request from untrusted source, ignoring proxy headers")
		}

		return remoteIP
	}

	if realIP := strings.TrimSpace(r.Header.Get("X-Real-IP")); realIP != "" {
		return realIP
	}

	// The last hop appended by our own proxy.
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if i := strings.LastIndexByte(xff, ','); i >= 0 {
			xff = xff[i+1:]
		}

		if last := strings.TrimSpace(xff); last != "" {
			return last
		}
	}

	return remoteIP
}

// ipMatchesList reports whether addr equals one of the entries or lies in one
// of the CIDR ranges.
func ipMatchesList(addr netip.Addr, entries []string) bool {
	for _, entry := range entries {
		if strings.Contains(entry, "/") {
			if prefix, err := netip.ParsePrefix(entry); err == nil && prefix.Contains(addr) {
				return true
			}

			continue
		}

		if other, err := netip.ParseAddr(entry); err == nil && other.Unmap() == addr {
			return true
		}
	}

	return false
}

// getNetwork returns the network of addr using the prefix length for its family.
func getNetwork(addr netip.Addr, ipv4Prefix, ipv6Prefix int) (netip.Prefix, error) {
	if addr.Is4() {
		return addr.Prefix(ipv4Prefix)
	}

	return addr.Prefix(ipv6Prefix)
}
