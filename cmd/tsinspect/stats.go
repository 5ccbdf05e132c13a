// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/goccy/go-yaml"

	"codeberg.org/tscat/tscat/linguist"
)

type fileStats struct {
	File           string `json:"file" yaml:"file"`
	linguist.Stats `yaml:",inline"`
	Issues         int `json:"issues" yaml:"issues"`
}

func statsCmd(args []string, stdout io.Writer) error {
	fs := newFlagSet("stats")
	format := fs.String("format", "yaml", "output format: yaml or json")

	if err := fs.Parse(args); err != nil {
		return err
	}

	if fs.NArg() == 0 {
		return errNoFiles
	}

	if *format != "yaml" && *format != "json" {
		return fmt.Errorf("%w: unknown format %q", errUsage, *format)
	}

	out := make([]fileStats, 0, fs.NArg())

	for _, path := range fs.Args() {
		c, err := readCatalog(path)
		if err != nil {
			return err
		}

		out = append(out, fileStats{File: path, Stats: c.Stats(), Issues: len(linguist.Validate(c))})
	}

	var (
		data []byte
		err  error
	)

	if *format == "json" {
		data, err = json.MarshalIndent(out, "", "  ")
		data = append(data, '\n')
	} else {
		data, err = yaml.Marshal(out)
	}

	if err != nil {
		return fmt.Errorf("failed to encode stats: %w", err)
	}

	_, err = stdout.Write(data)

	return err
}
