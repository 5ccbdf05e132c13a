// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package i18n

import (
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"codeberg.org/tscat/tscat/linguist"
)

// logger returns the logger used by package i18n. It is derived on use so that
// it follows the global logger installed by the config package.
func logger() zerolog.Logger {
	return log.With().Str("sys", "i18n").Logger()
}

// logMissing logs a missing translation once per (index, key) pair.
func (ix *Index) logMissing(key linguist.Key) {
	if _, loaded := ix.logged.LoadOrStore("missing\x00"+buildLogKey(key), struct{}{}); loaded {
		return
	}

	l := logger()
	l.Warn().
		Str("locale", ix.language).
		Str("key", buildLogKey(key)).
		Msg("Missing translation")
}

// logDefect logs a plural form index that is out of range once per (index, key) pair.
func (ix *Index) logDefect(key linguist.Key, form, forms int) {
	if _, loaded := ix.logged.LoadOrStore("defect\x00"+buildLogKey(key), struct{}{}); loaded {
		return
	}

	l := logger()
	l.Error().
		Str("locale", ix.language).
		Str("key", buildLogKey(key)).
		Int("form", form).
		Int("forms", forms).
		Msg("Plural form out of range, using last form")
}

// eot separates msgctxt from msgid in gettext keys.
const eot = "\x04"

// buildLogKey composes the logging key like gettext "ctx<sep>msgid", using the
// same msgctxt as PO exports.
func buildLogKey(key linguist.Key) string {
	return linguist.POContext(key) + eot + key.Source
}
