// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
	"golang.org/x/text/language"
)

// validation errors.
var (
	errUnixSocketWithHostPort       = errors.New("unix socket configured - cannot specify Host and Port simultaneously")
	errUnixSocketInvalidPermissions = errors.New("invalid Basic.UnixSocketPermissions value")
	errCatalogDirRequired           = errors.New("Catalog.Dir is required")
	errCatalogDirNotDirectory       = errors.New("Catalog.Dir is not a directory")
	errInvalidBaseLocale            = errors.New("invalid Catalog.BaseLocale")
	errNegativeReloadInterval       = errors.New("Catalog.ReloadInterval cannot be negative")
	errEmptyStateFilepath           = errors.New("filepath for StateFilepath cannot be empty when limiter is enabled")
	errInvalidLimiterRate           = errors.New("Limiter.Rate must be positive")
	errInvalidLimiterBurst          = errors.New("Limiter.Burst must be positive")
	errInvalidIPv4Prefix            = errors.New("IPv4 prefix must be between 0 and 32")
	errInvalidIPv6Prefix            = errors.New("IPv6 prefix must be between 0 and 128")
	errInvalidIPListEntry           = errors.New("invalid IP or CIDR in limiter list")
	errInvalidMetricsPath           = errors.New("Metrics.Path must start with '/'")
	errInvalidLogFormat             = errors.New("Log.Format must be 'console' or 'json'")
)

var (
	fileModeOctalRegexp  = regexp.MustCompile(`^0?[0-7]{3}$`)
	fileModeStringRegexp = regexp.MustCompile(`^(?:[r-][w-][x-]){3}$`)
)

// validateAndSet validates the server configuration and populates some fields.
func (cfg *ServerConfig) validateAndSet() error {
	if err := cfg.validateListener(); err != nil {
		return err
	}

	if err := cfg.validateCatalog(); err != nil {
		return err
	}

	switch cfg.Log.Format {
	case "console", "json":
	default:
		return errInvalidLogFormat
	}

	if cfg.Metrics.Enabled && !strings.HasPrefix(cfg.Metrics.Path, "/") {
		return errInvalidMetricsPath
	}

	// Skip validating Limiter configuration if it's not enabled
	if !cfg.Limiter.Enabled {
		return nil
	}

	return cfg.validateLimiter()
}

func (cfg *ServerConfig) validateListener() error {
	if cfg.Basic.UnixSocket == "" {
		if cfg.Basic.Host == "" {
			cfg.Basic.Host = "localhost"
			log.Info().
				Str("host", cfg.Basic.Host).
				Msg("Binding to default host")
		}

		if cfg.Basic.Port == "" {
			cfg.Basic.Port = "8383"
			log.Info().
				Str("port", cfg.Basic.Port).
				Msg("Using default port")
		}

		return nil
	}

	if cfg.Basic.Host != "" || cfg.Basic.Port != "" {
		return errUnixSocketWithHostPort
	}

	mode, err := parseFileMode(cfg.Basic.RawUnixSocketPermissions)
	if err != nil {
		return err
	}

	cfg.Basic.UnixSocketPermissions = mode

	return nil
}

// parseFileMode accepts an octal mode ("660", "0660") or a symbolic one ("rw-rw----").
// An empty string gives 0o666.
func parseFileMode(raw string) (os.FileMode, error) {
	switch {
	case raw == "":
		return 0o666, nil
	case fileModeOctalRegexp.MatchString(raw):
		mode, _ := strconv.ParseUint(raw, 8, 32)

		return os.FileMode(mode), nil
	case fileModeStringRegexp.MatchString(raw):
		mode := os.FileMode(0)

		for i, c := range raw {
			if c != '-' {
				// Set i-th bit from the end
				const bitsInByte = 8

				mode |= 1 << (bitsInByte - i)
			}
		}

		return mode, nil
	default:
		return 0, errUnixSocketInvalidPermissions
	}
}

func (cfg *ServerConfig) validateCatalog() error {
	if cfg.Catalog.Dir == "" {
		return errCatalogDirRequired
	}

	info, err := os.Stat(cfg.Catalog.Dir)
	if err != nil {
		return fmt.Errorf("Catalog.Dir: %w", err)
	}

	if !info.IsDir() {
		return errCatalogDirNotDirectory
	}

	base, err := language.Parse(strings.ReplaceAll(cfg.Catalog.BaseLocale, "_", "-"))
	if err != nil {
		return fmt.Errorf("%w %q: %w", errInvalidBaseLocale, cfg.Catalog.BaseLocale, err)
	}

	cfg.Catalog.BaseLocale = base.String()

	if cfg.Catalog.ReloadInterval < 0 {
		return errNegativeReloadInterval
	}

	return nil
}

func (cfg *ServerConfig) validateLimiter() error {
	if cfg.Limiter.StateFilepath == "" {
		return errEmptyStateFilepath
	}

	if cfg.Limiter.Rate <= 0 {
		return errInvalidLimiterRate
	}

	if cfg.Limiter.Burst <= 0 {
		return errInvalidLimiterBurst
	}

	if cfg.Limiter.IPv4Prefix < 0 || cfg.Limiter.IPv4Prefix > 32 {
		return errInvalidIPv4Prefix
	}

	if cfg.Limiter.IPv6Prefix < 0 || cfg.Limiter.IPv6Prefix > 128 {
		return errInvalidIPv6Prefix
	}

	for _, entry := range slices.Concat(cfg.Limiter.PassIPs, cfg.Limiter.BlockIPs) {
		if net.ParseIP(entry) != nil {
			continue
		}

		if _, _, err := net.ParseCIDR(entry); err != nil {
			return fmt.Errorf("%w: %q", errInvalidIPListEntry, entry)
		}
	}

	return nil
}
