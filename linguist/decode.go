// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package linguist

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/net/html/charset"
)

var (
	ErrMalformedXML       = errors.New("malformed catalog")
	ErrUnsupportedVersion = errors.New("unsupported catalog version")
)

var supportedVersions = map[string]bool{
	"1.1": true,
	"2.0": true,
	"2.1": true,
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ParseError describes why a catalog could not be read.
//
// Kind is ErrMalformedXML or ErrUnsupportedVersion; both match with errors.Is.
type ParseError struct {
	Kind error
	Line int // 0 when unknown
	Err  error
}

func (e *ParseError) Error() string {
	var b strings.Builder

	b.WriteString(e.Kind.Error())

	if e.Line > 0 {
		fmt.Fprintf(&b, " (line %d)", e.Line)
	}

	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}

	return b.String()
}

func (e *ParseError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}

	return []error{e.Kind, e.Err}
}

// Decode reads a catalog from r.
func Decode(r io.Reader) (*Catalog, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading catalog: %w", err)
	}

	return Parse(data)
}

// Parse reads a catalog from data.
func Parse(data []byte) (*Catalog, error) {
	d := xml.NewDecoder(bytes.NewReader(bytes.TrimPrefix(data, utf8BOM)))
	d.CharsetReader = charset.NewReaderLabel

	p := &parser{d: d}

	root, err := p.root()
	if err != nil {
		return nil, err
	}

	version := attr(root, "version")
	if !supportedVersions[version] {
		line, _ := d.InputPos()

		return nil, &ParseError{
			Kind: ErrUnsupportedVersion,
			Line: line,
			Err:  fmt.Errorf("version %q", version),
		}
	}

	c := &Catalog{
		Version:        version,
		Language:       attr(root, "language"),
		SourceLanguage: attr(root, "sourcelanguage"),
	}

	if err := p.catalog(c); err != nil {
		return nil, err
	}

	if err := p.trailer(); err != nil {
		return nil, err
	}

	return c, nil
}

type parser struct {
	d *xml.Decoder
}

// locationState tracks relative locations within one <context> block.
type locationState struct {
	file  string
	lines map[string]int
}

func (p *parser) fail(err error) error {
	line, _ := p.d.InputPos()

	var syntaxErr *xml.SyntaxError
	if errors.As(err, &syntaxErr) {
		line = syntaxErr.Line
	}

	return &ParseError{Kind: ErrMalformedXML, Line: line, Err: err}
}

// next returns the next token; reaching the end of input is an error.
func (p *parser) next() (xml.Token, error) {
	tok, err := p.d.Token()
	if err != nil {
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}

		return nil, p.fail(err)
	}

	return tok, nil
}

func (p *parser) skip() error {
	if err := p.d.Skip(); err != nil {
		return p.fail(err)
	}

	return nil
}

func (p *parser) root() (xml.StartElement, error) {
	for {
		tok, err := p.d.Token()
		if errors.Is(err, io.EOF) {
			return xml.StartElement{}, p.fail(errors.New("no root element"))
		}

		if err != nil {
			return xml.StartElement{}, p.fail(err)
		}

		if start, ok := tok.(xml.StartElement); ok {
			if start.Name.Local != "TS" {
				return xml.StartElement{}, p.fail(fmt.Errorf("root element <%s>, want <TS>", start.Name.Local))
			}

			return start, nil
		}
	}
}

// trailer consumes everything after </TS> so that trailing garbage is reported.
func (p *parser) trailer() error {
	for {
		tok, err := p.d.Token()
		if errors.Is(err, io.EOF) {
			return nil
		}

		if err != nil {
			return p.fail(err)
		}

		if start, ok := tok.(xml.StartElement); ok {
			return p.fail(fmt.Errorf("unexpected element <%s> after </TS>", start.Name.Local))
		}
	}
}

func (p *parser) catalog(c *Catalog) error {
	for {
		tok, err := p.next()
		if err != nil {
			return err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "context":
				ctx, err := p.context()
				if err != nil {
					return err
				}

				if existing := c.Context(ctx.Name); existing != nil {
					existing.Messages = append(existing.Messages, ctx.Messages...)
					if existing.Comment == "" {
						existing.Comment = ctx.Comment
					}
				} else {
					c.Contexts = append(c.Contexts, ctx)
				}

			case "dependencies":
				deps, err := p.dependencies()
				if err != nil {
					return err
				}

				c.Dependencies = append(c.Dependencies, deps...)

			default:
				if err := p.skip(); err != nil {
					return err
				}
			}

		case xml.EndElement:
			return nil
		}
	}
}

func (p *parser) dependencies() ([]string, error) {
	var deps []string

	for {
		tok, err := p.next()
		if err != nil {
			return nil, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == "dependency" {
				deps = append(deps, attr(t, "catalog"))
			}

			if err := p.skip(); err != nil {
				return nil, err
			}

		case xml.EndElement:
			return deps, nil
		}
	}
}

func (p *parser) context() (*Context, error) {
	ctx := &Context{}
	state := &locationState{lines: make(map[string]int)}

	for {
		tok, err := p.next()
		if err != nil {
			return nil, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "name":
				if ctx.Name, err = p.text(); err != nil {
					return nil, err
				}

			case "comment":
				if ctx.Comment, err = p.text(); err != nil {
					return nil, err
				}

			case "message":
				m, err := p.message(t, state)
				if err != nil {
					return nil, err
				}

				ctx.Messages = append(ctx.Messages, m)

			default:
				if err := p.skip(); err != nil {
					return nil, err
				}
			}

		case xml.EndElement:
			return ctx, nil
		}
	}
}

func (p *parser) message(start xml.StartElement, state *locationState) (*Message, error) {
	m := &Message{
		ID:      attr(start, "id"),
		Numerus: attr(start, "numerus") == "yes",
	}

	for {
		tok, err := p.next()
		if err != nil {
			return nil, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			name := t.Name.Local

			var field *string

			switch name {
			case "location":
				m.Locations = append(m.Locations, state.resolve(attr(t, "filename"), attr(t, "line")))

				if err := p.skip(); err != nil {
					return nil, err
				}

				continue

			case "translation":
				if m.Translation, err = p.translation(t); err != nil {
					return nil, err
				}

				continue

			case "source":
				field = &m.Source
			case "oldsource":
				field = &m.OldSource
			case "comment":
				field = &m.Comment
			case "oldcomment":
				field = &m.OldComment
			case "extracomment":
				field = &m.ExtraComment
			case "translatorcomment":
				field = &m.TranslatorComment
			}

			switch {
			case field != nil:
				if *field, err = p.text(); err != nil {
					return nil, err
				}

			case strings.HasPrefix(name, "extra-"):
				value, err := p.text()
				if err != nil {
					return nil, err
				}

				if m.Extra == nil {
					m.Extra = make(map[string]string)
				}

				m.Extra[strings.TrimPrefix(name, "extra-")] = value

			default:
				if err := p.skip(); err != nil {
					return nil, err
				}
			}

		case xml.EndElement:
			return m, nil
		}
	}
}

func (p *parser) translation(start xml.StartElement) (Translation, error) {
	tr := Translation{Type: translationType(attr(start, "type"))}

	c, err := p.content()
	if err != nil {
		return tr, err
	}

	tr.Forms = c.forms

	tr.Text = c.text
	if len(tr.Forms) > 0 && strings.TrimSpace(tr.Text) == "" {
		tr.Text = ""
	}

	return tr, nil
}

func (p *parser) text() (string, error) {
	c, err := p.content()

	return c.text, err
}

type content struct {
	text  string
	forms []string
}

// content reads up to the end of the element just opened, decoding <byte>
// escapes, joining <lengthvariant> children and collecting <numerusform>
// children separately.
func (p *parser) content() (content, error) {
	var (
		text     strings.Builder
		variants []string
		c        content
	)

	for {
		tok, err := p.next()
		if err != nil {
			return c, err
		}

		switch t := tok.(type) {
		case xml.CharData:
			text.Write(t)

		case xml.StartElement:
			switch t.Name.Local {
			case "byte":
				r, err := byteValue(attr(t, "value"))
				if err != nil {
					return c, p.fail(err)
				}

				text.WriteRune(r)

				if err := p.skip(); err != nil {
					return c, err
				}

			case "lengthvariant":
				v, err := p.text()
				if err != nil {
					return c, err
				}

				variants = append(variants, v)

			case "numerusform":
				form, err := p.text()
				if err != nil {
					return c, err
				}

				c.forms = append(c.forms, form)

			default:
				if err := p.skip(); err != nil {
					return c, err
				}
			}

		case xml.EndElement:
			if len(variants) > 0 {
				c.text = strings.Join(variants, variantSeparator)
			} else {
				c.text = text.String()
			}

			return c, nil
		}
	}
}

// resolve turns a location element into an absolute location. A line that is
// not a number is recorded as unknown.
func (s *locationState) resolve(filename, line string) Location {
	if filename == "" {
		filename = s.file
	} else {
		s.file = filename
	}

	loc := Location{File: filename, Line: -1}
	if line == "" {
		return loc
	}

	n, err := strconv.Atoi(line)
	if err != nil {
		return loc
	}

	if line[0] == '+' || line[0] == '-' {
		n += s.lines[filename]
	}

	s.lines[filename] = n
	loc.Line = n

	return loc
}

func translationType(s string) TranslationType {
	switch TranslationType(s) {
	case Unfinished:
		return Unfinished
	case Vanished:
		return Vanished
	case Obsolete:
		return Obsolete
	default:
		return Finished
	}
}

func byteValue(v string) (rune, error) {
	var (
		n   uint64
		err error
	)

	if hex, ok := strings.CutPrefix(v, "x"); ok {
		n, err = strconv.ParseUint(hex, 16, 32)
	} else {
		n, err = strconv.ParseUint(v, 10, 32)
	}

	if err != nil {
		return 0, fmt.Errorf("byte value %q: %w", v, err)
	}

	return rune(n), nil
}

func attr(start xml.StartElement, name string) string {
	for _, a := range start.Attr {
		if a.Name.Local == name {
			return a.Value
		}
	}

	return ""
}
