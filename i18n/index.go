// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package i18n

import (
	"slices"
	"sync"
	"sync/atomic"

	"codeberg.org/tscat/tscat/linguist"
	"codeberg.org/tscat/tscat/plural"
)

// Options configures an Index.
type Options struct {
	// StrictMissingKeys logs each missing lookup once and wraps the returned
	// source text as "⟦...⟧".
	StrictMissingKeys bool
}

// Query is a single lookup.
type Query struct {
	Context string
	Source  string
	Comment string

	// N is the quantity for numerus messages; it is ignored unless HasN is set.
	N    int
	HasN bool
}

func (q Query) key() linguist.Key {
	return linguist.Key{Context: q.Context, Source: q.Source, Comment: q.Comment}
}

// Result is the outcome of a lookup.
type Result struct {
	// Text is the translation, or the source text when none applies.
	Text string

	// Found reports whether Text is a translation.
	Found bool

	// Known reports whether the catalog has an active message for the key.
	Known bool

	// Status is the status of the matched message.
	Status linguist.TranslationType

	// FormIndex is the numerus form used, or -1 for plain messages.
	FormIndex int

	// Defect reports that the plural rule asked for a form the message does
	// not carry; the last form was used instead.
	Defect bool
}

type entry struct {
	numerus    bool
	translated bool
	status     linguist.TranslationType
	text       string
	forms      []string
}

func (e *entry) hasText() bool {
	if !e.numerus {
		return e.text != ""
	}

	return slices.ContainsFunc(e.forms, func(form string) bool { return form != "" })
}

// Index is an immutable lookup table built from one catalog.
//
// The nil *Index is valid and returns source text for every lookup.
type Index struct {
	language string
	rule     plural.Rule
	opts     Options
	entries  map[linguist.Key]*entry

	// logged deduplicates missing-key and defect logs.
	logged  *sync.Map
	defects atomic.Int64
}

// NewIndex builds an index over the active messages of c. Vanished and
// obsolete messages are left out. A nil catalog gives an empty index.
//
// When a key occurs more than once, the first occurrence with a usable
// translation wins.
func NewIndex(c *linguist.Catalog, opts Options) *Index {
	ix := &Index{
		opts:    opts,
		entries: make(map[linguist.Key]*entry),
		logged:  &sync.Map{},
	}

	if c == nil {
		return ix
	}

	ix.language = c.Language
	ix.rule = plural.ForLanguage(c.Language)

	for ctx, m := range c.All() {
		if !m.Translation.Type.Active() {
			continue
		}

		key := m.Key(ctx.Name)
		if prev, ok := ix.entries[key]; ok && prev.translated {
			continue
		}

		e := &entry{
			numerus: m.Numerus,
			status:  m.Translation.Type,
		}

		if m.Numerus {
			e.forms = make([]string, len(m.Translation.Forms))
			for i, form := range m.Translation.Forms {
				e.forms[i] = linguist.FirstVariant(form)
			}
		} else {
			e.text = linguist.FirstVariant(m.Translation.Text)
		}

		e.translated = m.Translation.Type == linguist.Finished && e.hasText()
		ix.entries[key] = e
	}

	return ix
}

// Language returns the catalog locale, e.g. "sl_SI".
func (ix *Index) Language() string {
	if ix == nil {
		return ""
	}

	return ix.language
}

// Len returns the number of distinct active keys.
func (ix *Index) Len() int {
	if ix == nil {
		return 0
	}

	return len(ix.entries)
}

// Defects returns how many lookups hit a plural form the message does not carry.
func (ix *Index) Defects() int64 {
	if ix == nil {
		return 0
	}

	return ix.defects.Load()
}

// Resolve returns the translation of a plain message, or source.
// Numerus messages resolve to their first form.
func (ix *Index) Resolve(context, source, comment string) string {
	return ix.Lookup(Query{Context: context, Source: source, Comment: comment}).Text
}

// ResolveN returns the plural form of a numerus message for quantity n, or source.
func (ix *Index) ResolveN(context, source, comment string, n int) string {
	return ix.Lookup(Query{Context: context, Source: source, Comment: comment, N: n, HasN: true}).Text
}

// Lookup resolves q. It never returns an empty Text for a non-empty source.
func (ix *Index) Lookup(q Query) Result {
	res := Result{Text: q.Source, FormIndex: -1}

	if ix == nil {
		return res
	}

	key := q.key()

	e, ok := ix.entries[key]
	if !ok {
		return ix.missing(key, res)
	}

	res.Known = true
	res.Status = e.status

	if !e.translated {
		return ix.missing(key, res)
	}

	if !e.numerus {
		res.Text = e.text
		res.Found = true

		return res
	}

	form := 0
	if q.HasN {
		form = ix.rule.Index(q.N)
	}

	if form >= len(e.forms) {
		res.Defect = true
		ix.defects.Add(1)
		ix.logDefect(key, form, len(e.forms))

		form = len(e.forms) - 1
	}

	res.FormIndex = form

	if e.forms[form] == "" {
		return ix.missing(key, res)
	}

	res.Text = e.forms[form]
	res.Found = true

	return res
}

func (ix *Index) missing(key linguist.Key, res Result) Result {
	if !ix.opts.StrictMissingKeys {
		return res
	}

	ix.logMissing(key)

	res.Text = "⟦" + res.Text + "⟧"

	return res
}
