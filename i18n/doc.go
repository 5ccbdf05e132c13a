// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

/*
Package i18n resolves strings against Qt Linguist catalogs. A string is
identified by its Qt context (conventionally the class name), the original
English source text, and an optional disambiguating comment.

# Quick start

Build an [Index] from a parsed catalog, wrap it in a [Translator] and store
that in the request context:

	ix := i18n.NewIndex(catalog, i18n.Options{})
	ctx = i18n.WithTranslator(ctx, i18n.NewTranslator(ix))

Translate strings with calls such as:

	i18n.Tr(ctx, "QIMessageBox", "OK")
	i18n.TrC(ctx, "QIMessageBox", "&Details (%1)", "button") // disambiguation via comment
	i18n.TrN(ctx, "UIAddDiskEncryptionPasswordDialog", "%n password(s)", n)

Translations can be used directly in templ templates:

	{ i18n.Tr(ctx, "UIActionPool", "Tools") }
	@i18n.Message{Context: "UIActionPool", Source: "Tools"}

# Fallback

Unfinished and missing translations return the source text unchanged;
vanished and obsolete messages never take part in lookups. When
StrictMissingKeys is enabled, missing lookups are logged once per
locale and key and the returned text is visibly wrapped as "⟦...⟧".

Placeholders such as %n and %1 are returned as they are; substituting
them is up to the caller.

# Reloading

[Translator.Swap] replaces the whole index atomically. Lookups never block
and never observe a partially built index.
*/
package i18n
