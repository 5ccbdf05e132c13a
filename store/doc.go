// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

/*
Package store loads a directory of Qt Linguist catalogs, one per locale, and
hands out translators for them.

Catalogs are read from the root of an [io/fs.FS]:

	<domain>_<locale>.ts
	<domain>_<locale>.ts.zst

The locale is taken from the catalog's language attribute when it is well
formed, otherwise from the file name. The base locale is always supported and
is what unmatched preferences fall back to.

A file that cannot be read or parsed is logged and its locale serves source
text. Files that did not change since the previous load are not parsed again.
*/
package store
