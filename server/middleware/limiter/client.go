// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package limiter

import (
	"errors"
	"net/http"
	"net/netip"
	"strings"

	"codeberg.org/tscat/tscat/config"
	"codeberg.org/tscat/tscat/server/routes"
)

var (
	errMissingClientIP = errors.New("missing client IP")
	errInvalidIPFormat = errors.New("invalid IP format")
)

// ClientInfo is the network identity of the client of one request.
type ClientInfo struct {
	ip      netip.Addr
	network netip.Prefix
}

func newClientInfo(r *http.Request) (*ClientInfo, error) {
	realIP := getClientIP(r)
	if realIP == "" {
		return nil, errMissingClientIP
	}

	addr, err := netip.ParseAddr(realIP)
	if err != nil {
		return nil, errInvalidIPFormat
	}

	addr = addr.Unmap()

	network, err := getNetwork(addr, config.Global.Limiter.IPv4Prefix, config.Global.Limiter.IPv6Prefix)
	if err != nil {
		return nil, err
	}

	return &ClientInfo{ip: addr, network: network}, nil
}

// checkIPLists checks if the client's IP is on the pass or block list.
//
// Returns (allowed, blocked); at most one is true.
func (c *ClientInfo) checkIPLists() (bool, bool) {
	if ipMatchesList(c.ip, config.Global.Limiter.PassIPs) {
		return true, false
	}

	if ipMatchesList(c.ip, config.Global.Limiter.BlockIPs) {
		return false, true
	}

	return false, false
}

// isLocal reports whether the client is on this host or a link-local network.
func (c *ClientInfo) isLocal() bool {
	return c.ip.IsLoopback() || c.ip.IsLinkLocalUnicast()
}

// isExcludedPath reports whether path skips the limiter entirely.
func isExcludedPath(path string) bool {
	if strings.HasPrefix(path, "/healthz") {
		return true
	}

	return config.Global.Metrics.Enabled && path == config.Global.Metrics.Path
}

// isReloadRequest reports whether r asks for a catalog reload.
func isReloadRequest(r *http.Request) bool {
	return r.Method == http.MethodPost && r.URL.Path == routes.ReloadPath
}
