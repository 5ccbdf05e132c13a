// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/klauspost/compress/zstd"

	"codeberg.org/tscat/tscat/linguist"
)

// convertCmd rewrites a catalog in canonical form, optionally with relative
// locations or zstd compression. Output paths ending in .zst are always
// compressed.
func convertCmd(args []string, stdout io.Writer) error {
	fs := newFlagSet("convert")
	out := fs.String("o", "", "output path, - for stdout")
	relative := fs.Bool("relative", false, "write line numbers relative to the previous location")
	compress := fs.Bool("zstd", false, "compress the output with zstd")

	if err := fs.Parse(args); err != nil {
		return err
	}

	if *out == "" {
		return fmt.Errorf("%w: -o", errMissingFlag)
	}

	path, err := oneFile(fs)
	if err != nil {
		return err
	}

	c, err := readCatalog(path)
	if err != nil {
		return err
	}

	data, err := linguist.Marshal(c, linguist.MarshalOptions{RelativeLocations: *relative})
	if err != nil {
		return err
	}

	size := len(data)

	if *compress || strings.HasSuffix(*out, compressedExt) {
		enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedBetterCompression))
		if err != nil {
			return fmt.Errorf("failed to create zstd encoder: %w", err)
		}

		data = enc.EncodeAll(data, nil)

		if err := enc.Close(); err != nil {
			return err
		}
	}

	if err := writeOutput(*out, data, stdout); err != nil {
		return fmt.Errorf("failed to write %s: %w", *out, err)
	}

	logger().Debug().
		Str("from", path).
		Str("to", *out).
		Int("size", size).
		Int("written", len(data)).
		Msg("Catalog converted")

	return nil
}
