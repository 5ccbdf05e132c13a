// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

// Command tsextract scans Go packages for i18n.Tr, TrC, TrN, TrNC calls and
// i18n.Message literals, and merges the messages it finds into a Qt Linguist
// catalog.
//
// Usage:
//
//	go run ./cmd/tsextract -ts translations/VirtualBox_sl.ts -lang sl_SI ./...
//
// Existing translations are kept. Messages that disappeared from the sources
// become vanished, new ones are added as unfinished.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/tools/go/packages"

	"codeberg.org/tscat/tscat/core/audit"
	"codeberg.org/tscat/tscat/linguist"
)

const filePerm = 0o644

var (
	errNoOutput    = errors.New("-ts is required")
	errInvalidLang = errors.New("a new catalog needs a valid -lang")
)

func logger() *zerolog.Logger {
	l := log.With().Str("sys", "tsextract").Logger()

	return &l
}

func main() {
	audit.SetDefaultLogger()

	tsPath := flag.String("ts", "", "catalog to create or update")
	lang := flag.String("lang", "", "target locale of a new catalog, e.g. sl_SI")
	sourceLang := flag.String("source-lang", "", "source locale written to a new catalog")
	relative := flag.Bool("relative", true, "write line numbers relative to the previous location")
	flag.Parse()

	if err := run(*tsPath, *lang, *sourceLang, *relative, flag.Args()); err != nil {
		log.Fatal().Err(err).Msg("Extraction failed")
	}
}

func run(tsPath, lang, sourceLang string, relative bool, patterns []string) error {
	if tsPath == "" {
		return errNoOutput
	}

	if len(patterns) == 0 {
		patterns = []string{"./..."}
	}

	wd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get working directory: %w", err)
	}

	// Tests are included so that messages only used there are not marked vanished.
	pkgs, err := packages.Load(&packages.Config{Mode: packages.LoadAllSyntax, Tests: true}, patterns...)
	if err != nil {
		return fmt.Errorf("failed to load packages: %w", err)
	}

	if packages.PrintErrors(pkgs) > 0 {
		return errors.New("failed to load packages due to errors")
	}

	baseDir, err := filepath.Abs(filepath.Dir(tsPath))
	if err != nil {
		return err
	}

	if !isInside(baseDir, findProjectRoot(wd)) {
		baseDir = findProjectRoot(wd)
	}

	found := extractRefs(pkgs, baseDir)

	existing, err := readCatalog(tsPath)
	if err != nil {
		return err
	}

	if existing == nil && !linguist.ValidLocale(lang) {
		return fmt.Errorf("%w: %q", errInvalidLang, lang)
	}

	merged := linguist.Merge(existing, found, lang)
	if existing == nil && sourceLang != "" {
		merged.SourceLanguage = sourceLang
	}

	data, err := linguist.Marshal(merged, linguist.MarshalOptions{RelativeLocations: relative})
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(tsPath), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	if err := os.WriteFile(tsPath, data, filePerm); err != nil {
		return fmt.Errorf("failed to write %s: %w", tsPath, err)
	}

	stats := merged.Stats()

	logger().Info().
		Str("path", tsPath).
		Str("lang", merged.Language).
		Int("found", len(found)).
		Int("messages", stats.Messages).
		Int("unfinished", stats.Unfinished).
		Int("vanished", stats.Vanished).
		Msg("Catalog updated")

	return nil
}

// extractRefs traverses all Go source files in the given packages, looking
// for i18n calls and message literals. Test variants of a package repeat its
// files, so each position is only recorded once.
func extractRefs(pkgs []*packages.Package, baseDir string) []linguist.Extracted {
	i18nPkgs := make(map[string]struct{})

	packages.Visit(pkgs, nil, func(p *packages.Package) {
		if isI18nPackage(p.Types) {
			i18nPkgs[p.PkgPath] = struct{}{}
		}
	})

	if len(i18nPkgs) == 0 {
		logger().Warn().Msg("No i18n package among the loaded packages")

		return nil
	}

	var found []linguist.Extracted

	seen := make(map[string]struct{})

	for _, p := range pkgs {
		if p.TypesInfo == nil {
			continue
		}

		e := &extractor{baseDir: baseDir, fset: p.Fset, info: p.TypesInfo, i18nPkgs: i18nPkgs}
		e.inspect(p.Syntax)

		for _, x := range e.found {
			id := fmt.Sprintf("%s:%d\x00%s", x.Locations[0].File, x.Locations[0].Line, x.Source)
			if _, ok := seen[id]; ok {
				continue
			}

			seen[id] = struct{}{}
			found = append(found, x)
		}
	}

	return found
}

// readCatalog returns the catalog at path, or nil when it does not exist yet.
func readCatalog(path string) (*linguist.Catalog, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}

	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	c, err := linguist.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	return c, nil
}

func isInside(dir, root string) bool {
	rel, err := filepath.Rel(root, dir)

	return err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// findProjectRoot attempts to find a stable root directory for source references.
// Preference order:
//  1. git toplevel directory
//  2. nearest parent directory that contains go.mod
//  3. the provided working directory
func findProjectRoot(wd string) string {
	if root := gitTopLevel(wd); root != "" {
		return root
	}

	if root := nearestGoModDir(wd); root != "" {
		return root
	}

	return wd
}

func gitTopLevel(wd string) string {
	cmd := exec.Command("git", "rev-parse", "--show-toplevel")
	cmd.Dir = wd

	out, err := cmd.Output()
	if err != nil {
		return ""
	}

	root := strings.TrimSpace(string(out))
	if root == "" {
		return ""
	}

	return filepath.Clean(root)
}

func nearestGoModDir(start string) string {
	dir := filepath.Clean(start)
	for {
		if fi, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil && !fi.IsDir() {
			return dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}

		dir = parent
	}
}
