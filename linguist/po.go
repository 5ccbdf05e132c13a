// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package linguist

import (
	"fmt"
	"io"
	"strings"

	"codeberg.org/tscat/tscat/plural"
)

// POContext returns the msgctxt under which k is exported.
func POContext(k Key) string {
	if k.Comment == "" {
		return k.Context
	}

	return k.Context + "|" + k.Comment
}

// WritePO exports c as a gettext PO file using rule for the Plural-Forms header.
//
// Unfinished messages get empty msgstr values. Vanished and obsolete messages
// are written as #~ entries.
func WritePO(w io.Writer, c *Catalog, rule plural.Rule) error {
	var b strings.Builder

	writePOHeader(&b, c, rule)

	for ctx, m := range c.All() {
		fmt.Fprintln(&b)
		writePOEntry(&b, m.Key(ctx.Name), m, rule)
	}

	if _, err := io.WriteString(w, b.String()); err != nil {
		return fmt.Errorf("writing po: %w", err)
	}

	return nil
}

func writePOHeader(b *strings.Builder, c *Catalog, rule plural.Rule) {
	fmt.Fprintln(b, `msgid ""`)
	fmt.Fprintln(b, `msgstr ""`)
	fmt.Fprintf(b, "\"Language: %s\\n\"\n", c.Language)

	if c.SourceLanguage != "" {
		fmt.Fprintf(b, "\"X-Source-Language: %s\\n\"\n", c.SourceLanguage)
	}

	fmt.Fprintln(b, `"MIME-Version: 1.0\n"`)
	fmt.Fprintln(b, `"Content-Type: text/plain; charset=UTF-8\n"`)
	fmt.Fprintln(b, `"Content-Transfer-Encoding: 8bit\n"`)
	fmt.Fprintf(b, "\"Plural-Forms: %s\\n\"\n", rule.GettextExpr())
	fmt.Fprintln(b, `"X-Qt-Contexts: true\n"`)
}

func writePOEntry(b *strings.Builder, key Key, m *Message, rule plural.Rule) {
	for line := range strings.SplitSeq(m.ExtraComment, "\n") {
		if line != "" {
			fmt.Fprintf(b, "#. %s\n", line)
		}
	}

	for line := range strings.SplitSeq(m.TranslatorComment, "\n") {
		if line != "" {
			fmt.Fprintf(b, "# %s\n", line)
		}
	}

	if len(m.Locations) > 0 {
		fmt.Fprint(b, "#:")

		for _, loc := range m.Locations {
			if loc.Line >= 0 {
				fmt.Fprintf(b, " %s:%d", loc.File, loc.Line)
			} else {
				fmt.Fprintf(b, " %s", loc.File)
			}
		}

		fmt.Fprintln(b)
	}

	prefix := ""
	if !m.Translation.Type.Active() {
		prefix = "#~ "
	}

	finished := m.Translation.Type != Unfinished

	fmt.Fprintf(b, "%smsgctxt %s\n", prefix, poQuote(POContext(key)))
	fmt.Fprintf(b, "%smsgid %s\n", prefix, poQuote(m.Source))

	if !m.Numerus {
		text := ""
		if finished {
			text = FirstVariant(m.Translation.Text)
		}

		fmt.Fprintf(b, "%smsgstr %s\n", prefix, poQuote(text))

		return
	}

	fmt.Fprintf(b, "%smsgid_plural %s\n", prefix, poQuote(m.Source))

	count := max(rule.Count(), len(m.Translation.Forms))
	for i := range count {
		form := ""
		if finished && i < len(m.Translation.Forms) {
			form = FirstVariant(m.Translation.Forms[i])
		}

		fmt.Fprintf(b, "%smsgstr[%d] %s\n", prefix, i, poQuote(form))
	}
}

// poQuote quotes s the way gettext reads it back. Only ASCII specials and
// control bytes are escaped; other UTF-8 is written as is.
func poQuote(s string) string {
	var b strings.Builder

	b.Grow(len(s) + 2)
	b.WriteByte('"')

	for i := range len(s) {
		c := s[i]

		switch c {
		case '"', '\\':
			b.WriteByte('\\')
			b.WriteByte(c)
		case '\n':
			b.WriteString(`\n`)
		case '\t':
			b.WriteString(`\t`)
		case '\r':
			b.WriteString(`\r`)
		default:
			if c < 0x20 || c == 0x7f {
				fmt.Fprintf(&b, `\%03o`, c)
			} else {
				b.WriteByte(c)
			}
		}
	}

	b.WriteByte('"')

	return b.String()
}
