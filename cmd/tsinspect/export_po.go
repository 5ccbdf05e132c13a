// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package main

import (
	"bytes"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/leonelquinteros/gotext"

	"codeberg.org/tscat/tscat/i18n"
	"codeberg.org/tscat/tscat/linguist"
	"codeberg.org/tscat/tscat/plural"
)

// Quantities checked for numerus messages. They cover every category of the
// rules in package plural.
var verifyQuantities = []int{0, 1, 2, 3, 4, 5, 11, 12, 21, 22, 25, 100, 101, 102, 103, 104, 111, 1000}

func exportPOCmd(args []string, stdout io.Writer) error {
	fs := newFlagSet("export-po")
	out := fs.String("o", "", "output path, stdout when empty")
	verify := fs.Bool("verify", false, "check that a gettext runtime resolves the export like the catalog")

	if err := fs.Parse(args); err != nil {
		return err
	}

	path, err := oneFile(fs)
	if err != nil {
		return err
	}

	c, err := readCatalog(path)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := linguist.WritePO(&buf, c, plural.ForLanguage(c.Language)); err != nil {
		return err
	}

	if *verify {
		if mismatches := verifyPO(c, buf.Bytes()); len(mismatches) > 0 {
			for _, m := range mismatches {
				logger().Warn().Str("file", path).Msg(m)
			}

			return fmt.Errorf("%w: %d lookups differ", errPOMismatch, len(mismatches))
		}
	}

	return writeOutput(*out, buf.Bytes(), stdout)
}

// verifyPO parses po with gotext and compares its lookups with those of the
// catalog index. Keys that occur more than once in c are skipped since the two
// disagree on which occurrence wins. So are messages holding control
// characters other than newline and tab, which PO has no portable escape for.
func verifyPO(c *linguist.Catalog, po []byte) []string {
	parsed := gotext.NewPo()
	parsed.Parse(po)

	ix := i18n.NewIndex(c, i18n.Options{})

	seen := make(map[linguist.Key]int)
	for ctx, m := range c.All() {
		seen[m.Key(ctx.Name)]++
	}

	var mismatches []string

	for ctx, m := range c.All() {
		key := m.Key(ctx.Name)
		if !m.Translation.Type.Active() || seen[key] > 1 || hasControl(m) {
			continue
		}

		poCtx := linguist.POContext(key)

		if !m.Numerus {
			want := ix.Resolve(key.Context, key.Source, key.Comment)
			if got := parsed.GetC(key.Source, poCtx); got != want {
				mismatches = append(mismatches, fmt.Sprintf("%s: po gives %q, catalog gives %q", key, got, want))
			}

			continue
		}

		for _, n := range verifyQuantities {
			want := ix.ResolveN(key.Context, key.Source, key.Comment, n)
			if got := parsed.GetNC(key.Source, key.Source, n, poCtx); got != want {
				mismatches = append(mismatches, fmt.Sprintf("%s n=%d: po gives %q, catalog gives %q", key, n, got, want))
			}
		}
	}

	return mismatches
}

func hasControl(m *linguist.Message) bool {
	control := func(r rune) bool { return r < 0x20 && r != '\n' && r != '\t' }

	if strings.ContainsFunc(m.Source, control) || strings.ContainsFunc(m.Translation.Text, control) {
		return true
	}

	return slices.ContainsFunc(m.Translation.Forms, func(form string) bool {
		return strings.ContainsFunc(form, control)
	})
}
