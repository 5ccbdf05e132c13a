// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package linguist

import (
	"bytes"
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"
	"unicode"
)

// MarshalOptions controls the output of Encode.
type MarshalOptions struct {
	// RelativeLocations writes line numbers as offsets from the previous
	// location of the same file and omits repeated file names.
	RelativeLocations bool
}

// Marshal returns the .ts encoding of c.
func Marshal(c *Catalog, opts MarshalOptions) ([]byte, error) {
	var buf bytes.Buffer

	if err := Encode(&buf, c, opts); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// Encode writes c to w in the layout produced by Qt tools.
func Encode(w io.Writer, c *Catalog, opts MarshalOptions) error {
	e := encoder{opts: opts}
	e.catalog(c)

	if _, err := io.WriteString(w, e.b.String()); err != nil {
		return fmt.Errorf("writing catalog: %w", err)
	}

	return nil
}

type encoder struct {
	b    strings.Builder
	opts MarshalOptions
}

const (
	indentMessage = "    "
	indentField   = "        "
	indentForm    = "            "
)

func (e *encoder) catalog(c *Catalog) {
	version := c.Version
	if version == "" {
		version = DefaultVersion
	}

	e.b.WriteString("<?xml version=\"1.0\" encoding=\"utf-8\"?>\n<!DOCTYPE TS>\n")
	fmt.Fprintf(&e.b, "<TS version=\"%s\"", protect(version))

	if c.Language != "" {
		fmt.Fprintf(&e.b, " language=\"%s\"", protect(c.Language))
	}

	if c.SourceLanguage != "" {
		fmt.Fprintf(&e.b, " sourcelanguage=\"%s\"", protect(c.SourceLanguage))
	}

	e.b.WriteString(">\n")

	if len(c.Dependencies) > 0 {
		e.b.WriteString("<dependencies>\n")

		for _, dep := range c.Dependencies {
			fmt.Fprintf(&e.b, "<dependency catalog=\"%s\"/>\n", protect(dep))
		}

		e.b.WriteString("</dependencies>\n")
	}

	for _, ctx := range c.Contexts {
		e.context(ctx)
	}

	e.b.WriteString("</TS>\n")
}

func (e *encoder) context(ctx *Context) {
	e.b.WriteString("<context>\n")
	e.element(indentMessage, "name", ctx.Name)

	if ctx.Comment != "" {
		e.element(indentMessage, "comment", ctx.Comment)
	}

	state := &locationState{lines: make(map[string]int)}
	for _, m := range ctx.Messages {
		e.message(m, state)
	}

	e.b.WriteString("</context>\n")
}

func (e *encoder) message(m *Message, state *locationState) {
	e.b.WriteString(indentMessage + "<message")

	if m.ID != "" {
		fmt.Fprintf(&e.b, " id=\"%s\"", protect(m.ID))
	}

	if m.Numerus {
		e.b.WriteString(" numerus=\"yes\"")
	}

	e.b.WriteString(">\n")

	for _, loc := range m.Locations {
		e.location(loc, state)
	}

	e.element(indentField, "source", m.Source)

	optional := []struct{ name, value string }{
		{"oldsource", m.OldSource},
		{"comment", m.Comment},
		{"oldcomment", m.OldComment},
		{"extracomment", m.ExtraComment},
		{"translatorcomment", m.TranslatorComment},
	}
	for _, f := range optional {
		if f.value != "" {
			e.element(indentField, f.name, f.value)
		}
	}

	e.translation(m)

	for _, name := range slices.Sorted(maps.Keys(m.Extra)) {
		e.element(indentField, "extra-"+name, m.Extra[name])
	}

	e.b.WriteString(indentMessage + "</message>\n")
}

func (e *encoder) location(loc Location, state *locationState) {
	e.b.WriteString(indentField + "<location")

	if !e.opts.RelativeLocations || loc.File != state.file {
		fmt.Fprintf(&e.b, " filename=\"%s\"", protect(loc.File))
		state.file = loc.File
	}

	if loc.Line >= 0 {
		if e.opts.RelativeLocations {
			fmt.Fprintf(&e.b, " line=\"%+d\"", loc.Line-state.lines[loc.File])
			state.lines[loc.File] = loc.Line
		} else {
			fmt.Fprintf(&e.b, " line=\"%d\"", loc.Line)
		}
	}

	e.b.WriteString("/>\n")
}

func (e *encoder) translation(m *Message) {
	tr := m.Translation

	e.b.WriteString(indentField + "<translation")

	if tr.Type != Finished {
		fmt.Fprintf(&e.b, " type=\"%s\"", tr.Type)
	}

	switch {
	case len(tr.Forms) > 0:
		e.b.WriteString(">\n")

		for _, form := range tr.Forms {
			e.variants(indentForm, "numerusform", form)
		}

		e.b.WriteString(indentField + "</translation>\n")

	case strings.Contains(tr.Text, variantSeparator):
		e.b.WriteString(" variants=\"yes\">\n")
		e.lengthVariants(indentForm, tr.Text)
		e.b.WriteString(indentField + "</translation>\n")

	default:
		fmt.Fprintf(&e.b, ">%s</translation>\n", protect(tr.Text))
	}
}

// variants writes a single-valued element, expanding length variants when present.
func (e *encoder) variants(indent, name, value string) {
	if !strings.Contains(value, variantSeparator) {
		e.element(indent, name, value)

		return
	}

	fmt.Fprintf(&e.b, "%s<%s variants=\"yes\">\n", indent, name)
	e.lengthVariants(indent+indentMessage, value)
	fmt.Fprintf(&e.b, "%s</%s>\n", indent, name)
}

func (e *encoder) lengthVariants(indent, value string) {
	for variant := range strings.SplitSeq(value, variantSeparator) {
		e.element(indent, "lengthvariant", variant)
	}
}

func (e *encoder) element(indent, name, value string) {
	fmt.Fprintf(&e.b, "%s<%s>%s</%s>\n", indent, name, protect(value), name)
}

// protect escapes s the way Qt tools do: markup characters become entities,
// control characters become <byte> elements and non-ASCII spaces become
// numeric references.
func protect(s string) string {
	var b strings.Builder

	b.Grow(len(s))

	for _, r := range s {
		switch r {
		case '"':
			b.WriteString("&quot;")
		case '&':
			b.WriteString("&amp;")
		case '>':
			b.WriteString("&gt;")
		case '<':
			b.WriteString("&lt;")
		case '\'':
			b.WriteString("&apos;")
		default:
			switch {
			case r < 0x20 && r != '\n' && r != '\t':
				fmt.Fprintf(&b, "<byte value=\"x%x\"/>", r)
			case r > 0x7f && unicode.IsSpace(r):
				fmt.Fprintf(&b, "&#x%x;", r)
			default:
				b.WriteRune(r)
			}
		}
	}

	return b.String()
}
