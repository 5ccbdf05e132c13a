// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/cloudfoundry/jibber_jabber"
	"golang.org/x/text/language"

	"codeberg.org/tscat/tscat/i18n"
	"codeberg.org/tscat/tscat/store"
)

// systemLocale reports the locale of the user's environment.
var systemLocale = jibber_jabber.DetectIETF

type resolveOutput struct {
	Text   string `json:"text"`
	Found  bool   `json:"found"`
	Known  bool   `json:"known"`
	Status string `json:"status,omitempty"`
	Form   *int   `json:"form,omitempty"`
	Defect bool   `json:"defect"`
}

// resolveCmd looks up one message the way the server does. Given a catalog
// directory instead of a file, it picks the catalog matching -lang, or the
// system locale when -lang is empty.
func resolveCmd(args []string, stdout io.Writer) error {
	fs := newFlagSet("resolve")
	contextName := fs.String("context", "", "context name, e.g. QIMessageBox")
	source := fs.String("source", "", "source text")
	comment := fs.String("comment", "", "disambiguating comment")
	n := fs.Int("n", -1, "quantity for numerus messages")
	strict := fs.Bool("strict", false, "mark untranslated results")
	asJSON := fs.Bool("json", false, "print the full lookup result as JSON")
	lang := fs.String("lang", "", "preferred locale when resolving against a directory")
	domain := fs.String("domain", "", "catalog file name prefix when resolving against a directory")

	if err := fs.Parse(args); err != nil {
		return err
	}

	if *source == "" {
		return fmt.Errorf("%w: -source", errMissingFlag)
	}

	path, err := oneFile(fs)
	if err != nil {
		return err
	}

	q := i18n.Query{Context: *contextName, Source: *source, Comment: *comment}
	if *n >= 0 {
		q.N, q.HasN = *n, true
	}

	var tr *i18n.Translator

	if info, err := os.Stat(path); err == nil && info.IsDir() {
		opts := store.Options{Domain: *domain, StrictMissingKeys: *strict}
		if tr, err = dirTranslator(path, opts, *lang); err != nil {
			return err
		}
	} else {
		c, err := readCatalog(path)
		if err != nil {
			return err
		}

		tr = i18n.NewTranslator(i18n.NewIndex(c, i18n.Options{StrictMissingKeys: *strict}))
	}

	res := tr.Lookup(q)

	if !*asJSON {
		_, err := fmt.Fprintln(stdout, res.Text)

		return err
	}

	out := resolveOutput{Text: res.Text, Found: res.Found, Known: res.Known, Defect: res.Defect}
	if res.Known {
		out.Status = res.Status.String()
	}

	if res.FormIndex >= 0 {
		out.Form = &res.FormIndex
	}

	enc := json.NewEncoder(stdout)
	enc.SetEscapeHTML(false)

	return enc.Encode(out)
}

// dirTranslator loads the catalogs in dir and returns the translator best
// matching lang.
func dirTranslator(dir string, opts store.Options, lang string) (*i18n.Translator, error) {
	st, err := store.New(os.DirFS(dir), opts)
	if err != nil {
		return nil, err
	}

	if err := st.Load(context.Background()); err != nil {
		return nil, err
	}

	if lang == "" {
		lang = detectLanguage(systemLocale)
	}

	tag := st.Match(language.Make(lang))

	logger().Debug().Str("dir", dir).Str("preferred", lang).Str("lang", tag.String()).Msg("Picked catalog")

	return st.Translator(tag), nil
}

// detectLanguage returns the locale reported by detector, or "" when it
// cannot tell.
func detectLanguage(detector func() (string, error)) string {
	if lang, err := detector(); err == nil {
		return lang
	}

	return ""
}
