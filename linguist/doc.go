// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

/*
Package linguist reads, checks and writes Qt Linguist translation catalogs
(.ts files).

A catalog is a tree of contexts, each holding messages identified by
(context, source, comment). The package keeps everything a .ts file carries,
including tooling-only data such as source locations and translator comments,
so a catalog can be parsed, edited and written back without losing data.

# Parsing

[Parse] and [Decode] accept format versions 1.1, 2.0 and 2.1. Failures are
reported as a [*ParseError] wrapping [ErrMalformedXML] or
[ErrUnsupportedVersion]. Relative locations are resolved to absolute
(file, line) pairs while reading, and repeated context blocks are merged into
the first one.

# Checking

[Validate] never fails; it returns the integrity problems it finds so that a
loader can log them and keep going.

# Writing

[Encode] writes the layout Qt tools produce. [WritePO] exports a gettext PO
file, and [Merge] applies the result of a source scan to an existing catalog.
*/
package linguist
