// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package main

import (
	"fmt"
	"io"

	"codeberg.org/tscat/tscat/linguist"
)

// validateCmd parses every catalog and prints its validation issues. Files
// that fail to parse make the command fail; with -strict, so do issues.
func validateCmd(args []string, stdout io.Writer) error {
	fs := newFlagSet("validate")
	strict := fs.Bool("strict", false, "treat validation issues as errors")

	if err := fs.Parse(args); err != nil {
		return err
	}

	if fs.NArg() == 0 {
		return errNoFiles
	}

	failed := 0

	for _, path := range fs.Args() {
		c, err := readCatalog(path)
		if err != nil {
			fmt.Fprintf(stdout, "%s: %v\n", path, err)

			failed++

			continue
		}

		issues := linguist.Validate(c)
		for _, issue := range issues {
			fmt.Fprintf(stdout, "%s: %s\n", path, issue)
		}

		if len(issues) == 0 {
			fmt.Fprintf(stdout, "%s: ok (%d messages)\n", path, c.Stats().Messages)
		} else if *strict {
			failed++
		}
	}

	if failed > 0 {
		return fmt.Errorf("%w: %d of %d files", errInvalid, failed, fs.NArg())
	}

	return nil
}
