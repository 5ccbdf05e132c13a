// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package linguist

import (
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/text/language"

	"codeberg.org/tscat/tscat/plural"
)

// IssueKind classifies a validation finding.
type IssueKind string

const (
	DuplicateMessage IssueKind = "duplicate-message"
	// DuplicateContext is reported for catalogs built in memory. Parse merges
	// repeated <context> blocks, so parsed catalogs never carry it.
	DuplicateContext      IssueKind = "duplicate-context"
	PluralFormCount       IssueKind = "plural-form-count"
	MalformedLocale       IssueKind = "malformed-locale"
	UnexpectedPluralForms IssueKind = "unexpected-plural-forms"
	EmptyContextName      IssueKind = "empty-context-name"
)

// Issue is a non-fatal integrity problem.
type Issue struct {
	Kind   IssueKind `json:"kind"             yaml:"kind"`
	Key    Key       `json:"key"              yaml:"key"`
	Detail string    `json:"detail,omitempty" yaml:"detail,omitempty"`
}

func (i Issue) String() string {
	var b strings.Builder

	b.WriteString(string(i.Kind))

	if i.Key != (Key{}) {
		b.WriteString(" ")
		b.WriteString(i.Key.String())
	}

	if i.Detail != "" {
		b.WriteString(": ")
		b.WriteString(i.Detail)
	}

	return b.String()
}

// localePattern matches language[_Script][_territory], e.g. sl_SI, sr_Latn_RS, es_419.
var localePattern = regexp.MustCompile(`^[a-z]{2,3}(_[A-Z][a-z]{3})?(_([A-Z]{2}|[0-9]{3}))?$`)

// ValidLocale reports whether s is a well-formed catalog locale.
func ValidLocale(s string) bool {
	if !localePattern.MatchString(s) {
		return false
	}

	_, err := language.Parse(strings.ReplaceAll(s, "_", "-"))

	return err == nil
}

// Validate checks c and returns every problem found, in document order.
func Validate(c *Catalog) []Issue {
	var issues []Issue

	if !ValidLocale(c.Language) {
		issues = append(issues, Issue{
			Kind:   MalformedLocale,
			Detail: fmt.Sprintf("language %q", c.Language),
		})
	}

	rule := plural.ForLanguage(c.Language)
	contexts := make(map[string]bool, len(c.Contexts))
	seen := make(map[Key]bool)

	for _, ctx := range c.Contexts {
		if ctx.Name == "" {
			issues = append(issues, Issue{Kind: EmptyContextName, Detail: fmt.Sprintf("%d messages", len(ctx.Messages))})
		}

		if contexts[ctx.Name] {
			issues = append(issues, Issue{Kind: DuplicateContext, Key: Key{Context: ctx.Name}})
		}

		contexts[ctx.Name] = true

		for _, m := range ctx.Messages {
			key := m.Key(ctx.Name)

			if seen[key] {
				issues = append(issues, Issue{Kind: DuplicateMessage, Key: key})
			}

			seen[key] = true

			switch {
			case m.Numerus && len(m.Translation.Forms) != rule.Count():
				issues = append(issues, Issue{
					Kind:   PluralFormCount,
					Key:    key,
					Detail: fmt.Sprintf("%d forms, %s needs %d", len(m.Translation.Forms), c.Language, rule.Count()),
				})

			case !m.Numerus && len(m.Translation.Forms) > 0:
				issues = append(issues, Issue{
					Kind:   UnexpectedPluralForms,
					Key:    key,
					Detail: fmt.Sprintf("%d forms on a non-numerus message", len(m.Translation.Forms)),
				})
			}
		}
	}

	return issues
}
