// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package store

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"runtime"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/klauspost/compress/zstd"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/language"

	"codeberg.org/tscat/tscat/i18n"
	"codeberg.org/tscat/tscat/linguist"
	"codeberg.org/tscat/tscat/store/lrucache"
)

const (
	catalogExt    = ".ts"
	compressedExt = ".zst"

	defaultCacheSize = 64
)

var (
	ErrNoLocale   = errors.New("cannot determine catalog locale")
	ErrDecompress = errors.New("failed to decompress catalog")
)

// Options configures a Store.
type Options struct {
	// Domain is the file name prefix of catalogs, as in "<domain>_<locale>.ts".
	// When empty, the locale is taken from the trailing part of the name.
	Domain string

	// BaseLocale is the language the source strings are written in.
	// It is always supported and is the matcher's fallback. Defaults to "en".
	BaseLocale string

	StrictMissingKeys bool

	// Concurrency bounds the number of catalogs parsed at once.
	// Defaults to GOMAXPROCS.
	Concurrency int

	// CacheSize is the number of raw catalog files kept to detect unchanged
	// files across reloads.
	CacheSize     int
	CompressCache bool
}

// Locale is one loaded catalog.
type Locale struct {
	Tag        language.Tag
	Path       string
	Translator *i18n.Translator
	Catalog    *linguist.Catalog
	Issues     []linguist.Issue

	// Err is set when the file could not be read or parsed. The translator
	// then serves source text.
	Err error

	// LoadedAt is when the file was last parsed.
	LoadedAt time.Time
}

// Store holds the catalogs of one directory and matches user preferences to them.
//
// Lookups through the translators it hands out never block; [Store.Load]
// replaces each locale's index atomically.
type Store struct {
	fsys    fs.FS
	opts    Options
	baseTag language.Tag
	cache   *lrucache.Cache
	zstdDec *zstd.Decoder

	// base serves source text for the base locale when it has no catalog.
	base *i18n.Translator

	// mu serialises loads. translators outlive reloads so that handed out
	// pointers keep following their locale.
	mu          sync.Mutex
	translators map[string]*i18n.Translator
	loads       atomic.Int64

	snap atomic.Pointer[snapshot]
}

type snapshot struct {
	locales map[string]*Locale // keyed by canonical tag
	tags    []language.Tag     // base first, then sorted
	matcher language.Matcher
}

// New returns a store reading catalogs from fsys. The store serves source text
// until [Store.Load] completes.
func New(fsys fs.FS, opts Options) (*Store, error) {
	if opts.BaseLocale == "" {
		opts.BaseLocale = "en"
	}

	if opts.Concurrency <= 0 {
		opts.Concurrency = runtime.GOMAXPROCS(0)
	}

	if opts.CacheSize <= 0 {
		opts.CacheSize = defaultCacheSize
	}

	baseTag, err := language.Parse(strings.ReplaceAll(opts.BaseLocale, "_", "-"))
	if err != nil {
		return nil, fmt.Errorf("invalid base locale %q: %w", opts.BaseLocale, err)
	}

	cache, err := lrucache.New(opts.CacheSize, opts.CompressCache)
	if err != nil {
		return nil, fmt.Errorf("failed to create catalog cache: %w", err)
	}

	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd decoder: %w", err)
	}

	s := &Store{
		fsys:        fsys,
		opts:        opts,
		baseTag:     baseTag,
		cache:       cache,
		zstdDec:     dec,
		base:        i18n.NewTranslator(nil),
		translators: make(map[string]*i18n.Translator),
	}

	s.snap.Store(s.buildSnapshot(nil))

	return s, nil
}

func logger() zerolog.Logger {
	return log.With().Str("sys", "store").Logger()
}

// Load reads and parses every catalog, then installs them.
//
// Files that fail to load are logged and serve source text; they do not make
// Load fail. Load returns an error only if the directory cannot be listed or
// ctx is done, in which case the previous catalogs stay installed.
func (s *Store) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := time.Now()
	l := logger()

	files, err := s.catalogFiles()
	if err != nil {
		return err
	}

	previous := s.snap.Load()
	loaded := make([]*Locale, len(files))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.Concurrency)

	for i, name := range files {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			loaded[i] = s.loadFile(name, previous)

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return fmt.Errorf("catalog load interrupted: %w", err)
	}

	locales := make(map[string]*Locale, len(loaded))

	for _, loc := range loaded {
		if loc == nil {
			continue
		}

		key := loc.Tag.String()
		if other, ok := locales[key]; ok {
			l.Warn().
				Str("locale", key).
				Str("file", loc.Path).
				Str("kept", other.Path).
				Msg("Skipping duplicate catalog for locale")

			continue
		}

		locales[key] = loc
	}

	s.install(locales)
	s.loads.Add(1)

	l.Info().
		Int("files", len(files)).
		Int("locales", len(locales)).
		Dur("took", time.Since(start)).
		Msg("Loaded catalogs")

	return nil
}

// LoadAsync runs [Store.Load] in the background. The returned channel receives
// its result and is then closed.
func (s *Store) LoadAsync(ctx context.Context) <-chan error {
	done := make(chan error, 1)

	go func() {
		defer close(done)

		done <- s.Load(ctx)
	}()

	return done
}

// Loads returns the number of completed loads.
func (s *Store) Loads() int64 {
	return s.loads.Load()
}

// catalogFiles lists the catalog files at the root of fsys in name order.
func (s *Store) catalogFiles() ([]string, error) {
	entries, err := fs.ReadDir(s.fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog directory: %w", err)
	}

	var files []string

	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !isCatalogFile(name) {
			continue
		}

		if s.opts.Domain != "" && !strings.HasPrefix(name, s.opts.Domain+"_") {
			continue
		}

		files = append(files, name)
	}

	return files, nil
}

func isCatalogFile(name string) bool {
	return strings.HasSuffix(name, catalogExt) || strings.HasSuffix(name, catalogExt+compressedExt)
}

// loadFile reads one catalog. It returns nil when no locale can be determined.
// Files whose bytes match the cached copy reuse the previously parsed catalog.
func (s *Store) loadFile(name string, previous *snapshot) *Locale {
	l := logger().With().Str("file", name).Logger()

	fileTag, fileTagErr := s.localeFromName(name)

	data, err := s.readFile(name)
	if err != nil {
		if fileTagErr != nil {
			l.Warn().Err(err).Msg("Skipping unreadable catalog")

			return nil
		}

		l.Error().Err(err).Str("locale", fileTag.String()).Msg("Failed to read catalog, serving source text")

		return &Locale{Tag: fileTag, Path: name, Err: err, LoadedAt: time.Now()}
	}

	if cached, ok := s.cache.Get(name); ok && bytes.Equal(cached, data) {
		if prev := previous.byPath(name); prev != nil {
			l.Debug().Msg("Catalog unchanged")

			return prev
		}
	}

	s.cache.Add(name, data)

	catalog, err := linguist.Parse(data)
	if err != nil {
		if fileTagErr != nil {
			l.Warn().Err(err).Msg("Skipping unparsable catalog")

			return nil
		}

		l.Error().Err(err).Str("locale", fileTag.String()).Msg("Failed to parse catalog, serving source text")

		return &Locale{Tag: fileTag, Path: name, Err: err, LoadedAt: time.Now()}
	}

	tag := fileTag

	if linguist.ValidLocale(catalog.Language) {
		tag = language.Make(strings.ReplaceAll(catalog.Language, "_", "-"))
	} else if fileTagErr != nil {
		l.Warn().Str("language", catalog.Language).Err(ErrNoLocale).Msg("Skipping catalog")

		return nil
	}

	issues := linguist.Validate(catalog)
	for _, issue := range issues {
		l.Warn().
			Str("locale", tag.String()).
			Str("kind", string(issue.Kind)).
			Str("key", issue.Key.String()).
			Str("detail", issue.Detail).
			Msg("Catalog issue")
	}

	return &Locale{
		Tag:      tag,
		Path:     name,
		Catalog:  catalog,
		Issues:   issues,
		LoadedAt: time.Now(),
	}
}

func (s *Store) readFile(name string) ([]byte, error) {
	data, err := fs.ReadFile(s.fsys, name)
	if err != nil {
		return nil, err
	}

	if strings.HasSuffix(name, compressedExt) {
		decoded, err := s.zstdDec.DecodeAll(data, nil)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrDecompress, err)
		}

		return decoded, nil
	}

	return data, nil
}

// localeFromName derives a tag from "<domain>_<locale>.ts". Without a domain,
// the longest trailing run of "_"-separated parts that forms a locale is used,
// so that both "sl_SI.ts" and "VirtualBox_sl.ts" resolve.
func (s *Store) localeFromName(name string) (language.Tag, error) {
	base := strings.TrimSuffix(strings.TrimSuffix(path.Base(name), compressedExt), catalogExt)

	if s.opts.Domain != "" {
		locale := strings.TrimPrefix(base, s.opts.Domain+"_")
		if !linguist.ValidLocale(locale) {
			return language.Und, fmt.Errorf("%w: %q", ErrNoLocale, name)
		}

		return language.Make(strings.ReplaceAll(locale, "_", "-")), nil
	}

	parts := strings.Split(base, "_")
	for i := range parts {
		if locale := strings.Join(parts[i:], "_"); linguist.ValidLocale(locale) {
			return language.Make(strings.ReplaceAll(locale, "_", "-")), nil
		}
	}

	return language.Und, fmt.Errorf("%w: %q", ErrNoLocale, name)
}

// install swaps the loaded catalogs into the translators and publishes a new snapshot.
func (s *Store) install(locales map[string]*Locale) {
	for key, loc := range locales {
		tr, ok := s.translators[key]
		if !ok {
			tr = i18n.NewTranslator(nil)
			s.translators[key] = tr
		}

		// Reused locales already carry this translator and its index.
		if loc.Translator != tr {
			tr.Swap(i18n.NewIndex(loc.Catalog, i18n.Options{StrictMissingKeys: s.opts.StrictMissingKeys}))
		}

		loc.Translator = tr
	}

	// Locales removed from disk fall back to source text for anyone still holding them.
	for key, tr := range s.translators {
		if _, ok := locales[key]; !ok {
			tr.Swap(nil)
		}
	}

	s.snap.Store(s.buildSnapshot(locales))
}

func (s *Store) buildSnapshot(locales map[string]*Locale) *snapshot {
	if locales == nil {
		locales = make(map[string]*Locale)
	}

	tagsList := make([]language.Tag, 0, len(locales))

	for _, loc := range locales {
		if loc.Tag == s.baseTag {
			continue
		}

		tagsList = append(tagsList, loc.Tag)
	}

	slices.SortFunc(tagsList, func(a, b language.Tag) int { return strings.Compare(a.String(), b.String()) })

	// baseTag is first to make it the default fallback for matching.
	all := append([]language.Tag{s.baseTag}, tagsList...)

	return &snapshot{
		locales: locales,
		tags:    all,
		matcher: language.NewMatcher(all),
	}
}

func (snap *snapshot) byPath(name string) *Locale {
	if snap == nil {
		return nil
	}

	for _, loc := range snap.locales {
		if loc.Path == name {
			return loc
		}
	}

	return nil
}

// match returns the supported tag closest to the given preferences.
func (snap *snapshot) match(preferred ...string) language.Tag {
	_, index := language.MatchStrings(snap.matcher, preferred...)

	return snap.tags[index]
}
