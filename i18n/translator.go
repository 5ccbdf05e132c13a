// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package i18n

import "sync/atomic"

// Translator serves lookups from a replaceable Index.
//
// Swapping installs a whole new index at once; lookups already running keep
// the index they started with. The zero value, and a nil *Translator, return
// source text.
type Translator struct {
	current atomic.Pointer[Index]
}

// NewTranslator returns a Translator serving ix, which may be nil.
func NewTranslator(ix *Index) *Translator {
	t := &Translator{}
	t.current.Store(ix)

	return t
}

// Swap installs ix and returns the previous index.
func (t *Translator) Swap(ix *Index) *Index {
	return t.current.Swap(ix)
}

// Index returns the index currently served, which may be nil.
func (t *Translator) Index() *Index {
	if t == nil {
		return nil
	}

	return t.current.Load()
}

// Language returns the locale of the current index.
func (t *Translator) Language() string {
	return t.Index().Language()
}

// Lookup resolves q against the current index.
func (t *Translator) Lookup(q Query) Result {
	return t.Index().Lookup(q)
}

// Resolve is [Index.Resolve] on the current index.
func (t *Translator) Resolve(context, source, comment string) string {
	return t.Index().Resolve(context, source, comment)
}

// ResolveN is [Index.ResolveN] on the current index.
func (t *Translator) ResolveN(context, source, comment string, n int) string {
	return t.Index().ResolveN(context, source, comment, n)
}
