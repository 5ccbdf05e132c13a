// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package store

import (
	"context"
	"net/http"
	"slices"
	"strings"

	"golang.org/x/text/language"

	"codeberg.org/tscat/tscat/i18n"
	"codeberg.org/tscat/tscat/linguist"
)

const (
	// LangParam is the URL query parameter holding a preferred UI language.
	LangParam = "lang"

	// LangCookie is the cookie holding a preferred UI language.
	LangCookie = "tscat_lang"
)

// BaseTag returns the tag of the base locale.
func (s *Store) BaseTag() language.Tag {
	return s.baseTag
}

// Languages returns the supported tags, base locale included, sorted by tag string.
// The returned slice is a copy and is safe to retain.
func (s *Store) Languages() []language.Tag {
	out := slices.Clone(s.snap.Load().tags)

	slices.SortFunc(out, func(a, b language.Tag) int { return strings.Compare(a.String(), b.String()) })

	return out
}

// Locales returns the loaded catalogs sorted by tag string.
func (s *Store) Locales() []*Locale {
	snap := s.snap.Load()

	out := make([]*Locale, 0, len(snap.locales))
	for _, loc := range snap.locales {
		out = append(out, loc)
	}

	slices.SortFunc(out, func(a, b *Locale) int { return strings.Compare(a.Tag.String(), b.Tag.String()) })

	return out
}

// Match returns the supported tag closest to t. Unsupported languages match
// the base locale.
func (s *Store) Match(t language.Tag) language.Tag {
	return s.snap.Load().match(t.String())
}

// Locale returns the catalog loaded for exactly t, or nil.
func (s *Store) Locale(t language.Tag) *Locale {
	return s.snap.Load().locales[t.String()]
}

// Catalog returns the parsed catalog for exactly t, or nil.
func (s *Store) Catalog(t language.Tag) *linguist.Catalog {
	if loc := s.Locale(t); loc != nil {
		return loc.Catalog
	}

	return nil
}

// Issues returns the validation issues of the catalog for exactly t.
func (s *Store) Issues(t language.Tag) []linguist.Issue {
	if loc := s.Locale(t); loc != nil {
		return loc.Issues
	}

	return nil
}

// Translator returns the translator for the locale that best matches t.
//
// The returned translator stays valid across reloads: it serves the new
// catalog once a reload installs it. It is never nil.
func (s *Store) Translator(t language.Tag) *i18n.Translator {
	snap := s.snap.Load()

	if loc, ok := snap.locales[snap.match(t.String()).String()]; ok {
		return loc.Translator
	}

	return s.base
}

// FromRequest returns the best supported tag for r by inspecting user preferences
// in priority order:
// 1) query parameter [LangParam]
// 2) cookie [LangCookie]
// 3) Accept-Language header
//
// If [LangParam] is "auto" (case-insensitive), the cookie is ignored and only
// the Accept-Language header is considered. A nil r gives the base locale.
func (s *Store) FromRequest(r *http.Request) language.Tag {
	if r == nil {
		return s.baseTag
	}

	q := r.URL.Query().Get(LangParam)
	auto := strings.EqualFold(q, "auto")

	preferred := make([]string, 0, 3)
	if q != "" && !auto {
		preferred = append(preferred, q)
	}

	if !auto {
		if c, err := r.Cookie(LangCookie); err == nil && c.Value != "" {
			preferred = append(preferred, c.Value)
		}
	}

	if al := r.Header.Get("Accept-Language"); al != "" {
		preferred = append(preferred, al)
	}

	return s.snap.Load().match(preferred...)
}

// WithRequest installs the translator matching r in ctx.
func (s *Store) WithRequest(ctx context.Context, r *http.Request) context.Context {
	return i18n.WithTranslator(ctx, s.Translator(s.FromRequest(r)))
}
