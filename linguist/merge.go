// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package linguist

import (
	"maps"
	"slices"

	"codeberg.org/tscat/tscat/plural"
)

// Extracted is a message found by scanning application sources.
type Extracted struct {
	Context      string
	Source       string
	Comment      string
	ExtraComment string
	Numerus      bool
	Locations    []Location
}

func (x Extracted) key() Key {
	return Key{Context: x.Context, Source: x.Source, Comment: x.Comment}
}

// Merge applies a source scan to existing and returns the updated catalog.
// existing is not modified and may be nil, in which case language names the
// target locale of the new catalog.
//
// Messages still present in the scan keep their translation and take the
// scanned locations. Messages gone from the scan become vanished when they
// carry a translation and are dropped otherwise; obsolete messages are kept
// as they are. New messages are added as unfinished. A new message whose
// context and comment match exactly one disappearing translated message is
// treated as an edited source: it inherits that translation as unfinished,
// with OldSource recording the previous text.
func Merge(existing *Catalog, extracted []Extracted, language string) *Catalog {
	if existing == nil {
		existing = NewCatalog(language)
	}

	out := &Catalog{
		Version:        existing.Version,
		Language:       existing.Language,
		SourceLanguage: existing.SourceLanguage,
		Dependencies:   slices.Clone(existing.Dependencies),
	}

	rule := plural.ForLanguage(out.Language)
	scan, order := groupExtracted(extracted)
	consumed := make(map[Key]bool, len(scan))

	// Pass 1: existing messages, in file order.
	var gone []*goneMessage

	for _, ctx := range existing.Contexts {
		next := out.AddContext(ctx.Name)
		if next.Comment == "" {
			next.Comment = ctx.Comment
		}

		for _, m := range ctx.Messages {
			key := m.Key(ctx.Name)
			found, ok := scan[key]

			if ok && !consumed[key] {
				consumed[key] = true
				next.Messages = append(next.Messages, refresh(m, found, rule))

				continue
			}

			switch {
			case m.Translation.Type == Obsolete:
				next.Messages = append(next.Messages, cloneMessage(m))

			case !m.Translation.IsEmpty():
				vanished := cloneMessage(m)
				vanished.Translation.Type = Vanished
				vanished.Locations = nil
				next.Messages = append(next.Messages, vanished)

				if m.Translation.Type.Active() {
					gone = append(gone, &goneMessage{context: ctx.Name, msg: vanished})
				}
			}
		}
	}

	// Pass 2: new messages, in scan order.
	for _, key := range order {
		if consumed[key] {
			continue
		}

		found := scan[key]
		ctx := out.AddContext(found.Context)
		m := &Message{
			Source:       found.Source,
			Comment:      found.Comment,
			ExtraComment: found.ExtraComment,
			Numerus:      found.Numerus,
			Locations:    slices.Clone(found.Locations),
			Translation:  emptyTranslation(found.Numerus, rule),
		}

		if prev := editedFrom(gone, found); prev != nil {
			m.OldSource = prev.msg.Source
			m.Translation = prev.msg.Translation
			m.Translation.Forms = slices.Clone(prev.msg.Translation.Forms)
			m.Translation.Type = Unfinished
			prev.superseded = true
		}

		ctx.Messages = append(ctx.Messages, m)
	}

	dropSuperseded(out, gone)

	return out
}

type goneMessage struct {
	context    string
	msg        *Message
	superseded bool
}

func groupExtracted(extracted []Extracted) (map[Key]Extracted, []Key) {
	scan := make(map[Key]Extracted, len(extracted))
	order := make([]Key, 0, len(extracted))

	for _, x := range extracted {
		key := x.key()

		if prev, ok := scan[key]; ok {
			prev.Locations = append(prev.Locations, x.Locations...)
			prev.Numerus = prev.Numerus || x.Numerus

			if prev.ExtraComment == "" {
				prev.ExtraComment = x.ExtraComment
			}

			scan[key] = prev

			continue
		}

		x.Locations = slices.Clone(x.Locations)
		scan[key] = x
		order = append(order, key)
	}

	return scan, order
}

func refresh(m *Message, found Extracted, rule plural.Rule) *Message {
	next := cloneMessage(m)
	next.Locations = slices.Clone(found.Locations)
	next.Numerus = found.Numerus

	if found.ExtraComment != "" {
		next.ExtraComment = found.ExtraComment
	}

	switch next.Translation.Type {
	case Vanished, Obsolete:
		if next.Translation.IsEmpty() {
			next.Translation.Type = Unfinished
		} else {
			next.Translation.Type = Finished
		}
	}

	if next.Numerus && len(next.Translation.Forms) == 0 {
		next.Translation = emptyTranslation(true, rule)
	}

	return next
}

// editedFrom returns the single disappearing message that found replaces, if any.
func editedFrom(gone []*goneMessage, found Extracted) *goneMessage {
	var match *goneMessage

	for _, g := range gone {
		if g.superseded || g.context != found.Context || g.msg.Comment != found.Comment || g.msg.Numerus != found.Numerus {
			continue
		}

		if match != nil {
			return nil
		}

		match = g
	}

	return match
}

func dropSuperseded(c *Catalog, gone []*goneMessage) {
	drop := make(map[*Message]bool)

	for _, g := range gone {
		if g.superseded {
			drop[g.msg] = true
		}
	}

	contexts := c.Contexts[:0]

	for _, ctx := range c.Contexts {
		ctx.Messages = slices.DeleteFunc(ctx.Messages, func(m *Message) bool { return drop[m] })
		if len(ctx.Messages) > 0 {
			contexts = append(contexts, ctx)
		}
	}

	c.Contexts = contexts
}

func emptyTranslation(numerus bool, rule plural.Rule) Translation {
	tr := Translation{Type: Unfinished}
	if numerus {
		tr.Forms = make([]string, rule.Count())
	}

	return tr
}

func cloneMessage(m *Message) *Message {
	next := *m
	next.Locations = slices.Clone(m.Locations)
	next.Translation.Forms = slices.Clone(m.Translation.Forms)
	next.Extra = maps.Clone(m.Extra)

	return &next
}
