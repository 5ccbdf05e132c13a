// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

// Command tsinspect checks and converts Qt Linguist catalogs.
//
// Usage:
//
//	tsinspect validate [-strict] file...
//	tsinspect stats [-format yaml|json] file...
//	tsinspect resolve -context C -source S [-comment X] [-n N] [-json] file
//	tsinspect resolve -source S [-lang L] [-domain D] dir
//	tsinspect convert -o out [-relative] [-zstd] file
//	tsinspect export-po [-o out] [-verify] file
//
// Files ending in .zst are decompressed on read.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"codeberg.org/tscat/tscat/core/audit"
)

var (
	errUsage       = errors.New("usage: tsinspect <command> [flags] file...")
	errUnknownCmd  = errors.New("unknown command")
	errNoFiles     = errors.New("no catalog given")
	errInvalid     = errors.New("catalog is not valid")
	errPOMismatch  = errors.New("po export does not match the catalog")
	errMissingFlag = errors.New("missing required flag")
)

type command func(args []string, stdout io.Writer) error

var commands = map[string]command{
	"validate":  validateCmd,
	"stats":     statsCmd,
	"resolve":   resolveCmd,
	"convert":   convertCmd,
	"export-po": exportPOCmd,
}

func logger() *zerolog.Logger {
	l := log.With().Str("sys", "tsinspect").Logger()

	return &l
}

func main() {
	audit.SetDefaultLogger()

	if err := run(os.Args[1:], os.Stdout); err != nil {
		log.Error().Err(err).Msg("tsinspect failed")
		os.Exit(1)
	}
}

func run(args []string, stdout io.Writer) error {
	if len(args) == 0 {
		return fmt.Errorf("%w\ncommands: %s", errUsage, commandNames())
	}

	cmd, ok := commands[args[0]]
	if !ok {
		return fmt.Errorf("%w %q, want one of: %s", errUnknownCmd, args[0], commandNames())
	}

	return cmd(args[1:], stdout)
}

func commandNames() string {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}

	sort.Strings(names)

	return strings.Join(names, ", ")
}
