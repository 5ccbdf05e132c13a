// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package linguist

import (
	"iter"
	"strings"
)

// DefaultVersion is the format version written for new catalogs.
const DefaultVersion = "2.1"

// variantSeparator joins the length variants of a single translation, as Qt does
// in memory.
const variantSeparator = "\u009c"

// TranslationType is the status of a translation.
type TranslationType string

const (
	Finished   TranslationType = ""
	Unfinished TranslationType = "unfinished"
	Vanished   TranslationType = "vanished"
	Obsolete   TranslationType = "obsolete"
)

// Active reports whether messages with this status take part in lookups.
func (t TranslationType) Active() bool {
	return t == Finished || t == Unfinished
}

func (t TranslationType) String() string {
	if t == Finished {
		return "finished"
	}

	return string(t)
}

// Key identifies a message within a catalog.
type Key struct {
	Context string `json:"context"           yaml:"context"`
	Source  string `json:"source"            yaml:"source"`
	Comment string `json:"comment,omitempty" yaml:"comment,omitempty"`
}

func (k Key) String() string {
	if k.Comment == "" {
		return k.Context + "/" + k.Source
	}

	return k.Context + "/" + k.Source + " (" + k.Comment + ")"
}

// Translation holds either a single text or, for numerus messages, the
// ordered plural forms.
type Translation struct {
	Type  TranslationType
	Text  string
	Forms []string
}

// IsEmpty reports whether the translation carries no text at all.
func (t Translation) IsEmpty() bool {
	if t.Text != "" {
		return false
	}

	for _, form := range t.Forms {
		if form != "" {
			return false
		}
	}

	return true
}

// FirstVariant returns s up to its first length-variant separator.
func FirstVariant(s string) string {
	first, _, _ := strings.Cut(s, variantSeparator)

	return first
}

// Location is a source reference. Line is -1 when unknown.
type Location struct {
	File string
	Line int
}

// Message is a single translatable string.
type Message struct {
	ID                string
	Source            string
	OldSource         string
	Comment           string
	OldComment        string
	ExtraComment      string
	TranslatorComment string
	Locations         []Location
	Numerus           bool
	Translation       Translation

	// Extra holds extra-* elements keyed by their name without the prefix.
	Extra map[string]string
}

// Key returns the identity of m inside the named context.
func (m *Message) Key(context string) Key {
	return Key{Context: context, Source: m.Source, Comment: m.Comment}
}

// Context groups the messages of one UI class.
type Context struct {
	Name     string
	Comment  string
	Messages []*Message
}

// Catalog is a parsed .ts document.
type Catalog struct {
	Version        string
	Language       string
	SourceLanguage string
	Dependencies   []string
	Contexts       []*Context
}

// NewCatalog returns an empty catalog for language.
func NewCatalog(language string) *Catalog {
	return &Catalog{Version: DefaultVersion, Language: language}
}

// Context returns the first context with the given name, or nil.
func (c *Catalog) Context(name string) *Context {
	for _, ctx := range c.Contexts {
		if ctx.Name == name {
			return ctx
		}
	}

	return nil
}

// AddContext returns the context with the given name, appending it when absent.
func (c *Catalog) AddContext(name string) *Context {
	if ctx := c.Context(name); ctx != nil {
		return ctx
	}

	ctx := &Context{Name: name}
	c.Contexts = append(c.Contexts, ctx)

	return ctx
}

// Find returns the first message with key k in any status, or nil.
func (c *Catalog) Find(k Key) *Message {
	for ctx, m := range c.All() {
		if ctx.Name == k.Context && m.Source == k.Source && m.Comment == k.Comment {
			return m
		}
	}

	return nil
}

// All iterates over every message in file order.
func (c *Catalog) All() iter.Seq2[*Context, *Message] {
	return func(yield func(*Context, *Message) bool) {
		for _, ctx := range c.Contexts {
			for _, m := range ctx.Messages {
				if !yield(ctx, m) {
					return
				}
			}
		}
	}
}

// Stats summarizes a catalog.
type Stats struct {
	Language   string `json:"language"   yaml:"language"`
	Contexts   int    `json:"contexts"   yaml:"contexts"`
	Messages   int    `json:"messages"   yaml:"messages"`
	Numerus    int    `json:"numerus"    yaml:"numerus"`
	Finished   int    `json:"finished"   yaml:"finished"`
	Unfinished int    `json:"unfinished" yaml:"unfinished"`
	Vanished   int    `json:"vanished"   yaml:"vanished"`
	Obsolete   int    `json:"obsolete"   yaml:"obsolete"`
}

// Stats counts messages by status.
func (c *Catalog) Stats() Stats {
	s := Stats{Language: c.Language, Contexts: len(c.Contexts)}

	for _, m := range c.All() {
		s.Messages++

		if m.Numerus {
			s.Numerus++
		}

		switch m.Translation.Type {
		case Finished:
			s.Finished++
		case Unfinished:
			s.Unfinished++
		case Vanished:
			s.Vanished++
		case Obsolete:
			s.Obsolete++
		}
	}

	return s
}
