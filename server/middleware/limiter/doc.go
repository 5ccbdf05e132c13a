// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

/*
Package limiter is a middleware that rate limits HTTP requests per client network.

Clients are grouped by IP network (see the IPv4Prefix and IPv6Prefix
settings) and each network shares one token bucket. Catalog reloads draw from
a separate, much smaller bucket. Limiter state can be saved on shutdown and
restored on start.
*/
package limiter
