// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package i18n

import (
	"context"
	"io"
)

// Translatable is a value that can translate itself using a context.
// Types such as [Message] implement Translatable.
type Translatable interface {
	Tr(ctx context.Context) string
}

// Message is a translatable string identified the way catalogs identify it.
//
// Construct with Message{Context: "QIMessageBox", Source: "OK"} and call Tr(ctx)
// to resolve using the translator in ctx.
//
// Source should be the original English UI text, not an invented key.
type Message struct {
	Context string
	Source  string
	Comment string
}

// Tr translates this message. It is equivalent to calling [TrC] with the same fields.
func (m Message) Tr(ctx context.Context) string {
	return TrC(ctx, m.Context, m.Source, m.Comment)
}

func (m Message) Render(ctx context.Context, w io.Writer) error {
	_, err := io.WriteString(w, m.Tr(ctx))

	return err
}
