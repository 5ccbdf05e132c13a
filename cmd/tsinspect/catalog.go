// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/zstd"

	"codeberg.org/tscat/tscat/linguist"
)

const compressedExt = ".zst"

// readFile returns the contents of path, decompressed when it ends in .zst.
func readFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	if !strings.HasSuffix(path, compressedExt) {
		return data, nil
	}

	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd decoder: %w", err)
	}
	defer dec.Close()

	decoded, err := dec.DecodeAll(data, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to decompress %s: %w", path, err)
	}

	return decoded, nil
}

func readCatalog(path string) (*linguist.Catalog, error) {
	data, err := readFile(path)
	if err != nil {
		return nil, err
	}

	c, err := linguist.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return c, nil
}

// writeOutput writes data to path, or to stdout when path is empty or "-".
func writeOutput(path string, data []byte, stdout io.Writer) error {
	if path == "" || path == "-" {
		_, err := stdout.Write(data)

		return err
	}

	return os.WriteFile(path, data, 0o644)
}

// newFlagSet returns a flag set that reports errors instead of exiting.
func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet("tsinspect "+name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	return fs
}

// oneFile returns the single positional argument of fs.
func oneFile(fs *flag.FlagSet) (string, error) {
	switch fs.NArg() {
	case 0:
		return "", errNoFiles
	case 1:
		return fs.Arg(0), nil
	default:
		return "", fmt.Errorf("%w: expected one catalog, got %d", errUsage, fs.NArg())
	}
}
