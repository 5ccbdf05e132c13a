// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package i18n

import "context"

type contextKeyType struct{}

var translatorKey = contextKeyType{}

// WithTranslator stores t in ctx and returns a derived context that carries it.
//
// The returned context should be passed to downstream code that performs
// translations. The ctx must not be nil.
func WithTranslator(ctx context.Context, t *Translator) context.Context {
	return context.WithValue(ctx, translatorKey, t)
}

// TranslatorFrom returns the Translator stored in ctx, or nil. A nil
// *Translator is safe to use and returns source text.
func TranslatorFrom(ctx context.Context) *Translator {
	if ctx == nil {
		return nil
	}

	t, _ := ctx.Value(translatorKey).(*Translator)

	return t
}

// Tr translates source within the named Qt context using the translator in ctx.
//
// If no translation applies, Tr returns source unchanged, or visibly wrapped
// if strict mode is enabled.
func Tr(ctx context.Context, contextName, source string) string {
	return TranslatorFrom(ctx).Resolve(contextName, source, "")
}

// TrC is Tr with a disambiguating comment, matching Qt's tr(source, comment).
func TrC(ctx context.Context, contextName, source, comment string) string {
	return TranslatorFrom(ctx).Resolve(contextName, source, comment)
}

// TrN translates a numerus message, picking the plural form for n.
func TrN(ctx context.Context, contextName, source string, n int) string {
	return TranslatorFrom(ctx).ResolveN(contextName, source, "", n)
}

// TrNC is the commented variant of TrN.
func TrNC(ctx context.Context, contextName, source, comment string, n int) string {
	return TranslatorFrom(ctx).ResolveN(contextName, source, comment, n)
}
