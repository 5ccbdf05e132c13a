// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

// Command genconfig writes the example configuration files under deploy/
// from the defaults of the config package.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/rs/zerolog/log"

	"codeberg.org/tscat/tscat/config"
	"codeberg.org/tscat/tscat/core/audit"
)

const (
	filePerm = 0o644

	placeholderToken = "change-me"

	envFileHeader = `# tscat configuration (via environment variables)
#
# Copy this file to .env and customize the values below.
#
# This file was auto-generated using go run ./cmd/genconfig.

`
	yamlFileHeader = `# tscat configuration (via configuration file)
#
# Copy this file to config.yaml and customize the values below.
#
# This file was auto-generated using go run ./cmd/genconfig.
`

	tokenYAMLComment = `  # -- Bearer token required by POST /api/v1/reload. Leave empty to allow
  # unauthenticated reloads.`
)

// Variables written uncommented in the .env example.
var essentialEnv = map[string]bool{
	"TSCAT_HOST":           true,
	"TSCAT_PORT":           true,
	"TSCAT_CATALOG_DIR":    true,
	"TSCAT_CATALOG_DOMAIN": true,
}

// YAML keys written uncommented in the config example.
var essentialYAML = []string{"host:", "port:", "dir:", "domain:"}

func main() {
	audit.SetDefaultLogger()

	envOut := flag.String("env", "deploy/.env.example", "output path of the .env example")
	yamlOut := flag.String("yaml", "deploy/config.yaml.example", "output path of the YAML example")
	flag.Parse()

	cfg := &config.ServerConfig{}
	cfg.SetDefaults()

	yamlContent, err := yamlExample(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to marshal config to YAML")
	}

	write(*envOut, envExample(cfg))
	write(*yamlOut, yamlContent)
}

func write(path, content string) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		log.Fatal().Err(err).Str("path", path).Msg("Failed to create output directory")
	}

	if err := os.WriteFile(path, []byte(content), filePerm); err != nil {
		log.Fatal().Err(err).Str("path", path).Msg("Failed to write example file")
	}

	log.Info().Str("path", path).Msg("Successfully generated example file")
}

// envExample renders every env-tagged field of cfg, one section per
// top-level struct.
func envExample(cfg *config.ServerConfig) string {
	var sb strings.Builder
	sb.WriteString(envFileHeader)

	val := reflect.ValueOf(*cfg)
	typ := val.Type()

	for i := range typ.NumField() {
		structField := typ.Field(i)
		structValue := val.Field(i)

		if structValue.Kind() != reflect.Struct || structField.Name == "Build" {
			continue
		}

		var section strings.Builder

		innerTyp := structValue.Type()
		for j := range innerTyp.NumField() {
			field := innerTyp.Field(j)
			value := structValue.Field(j)

			tag, ok := field.Tag.Lookup("env")
			if !ok {
				continue
			}

			envVarName := strings.Split(tag, ",")[0]

			switch {
			case envVarName == "TSCAT_RELOAD_TOKEN":
				fmt.Fprintf(&section, "# %s=\"%s\"\n", envVarName, placeholderToken)
			case essentialEnv[envVarName]:
				fmt.Fprintf(&section, "%s=\"%v\"\n", envVarName, value.Interface())
			case value.Kind() == reflect.Slice:
				// Lists are comma separated.
				items := make([]string, value.Len())
				for k := range value.Len() {
					items[k] = fmt.Sprint(value.Index(k).Interface())
				}

				fmt.Fprintf(&section, "# %s=%s\n", envVarName, strings.Join(items, ","))
			case value.Kind() == reflect.String && value.Len() == 0:
				fmt.Fprintf(&section, "# %s=\n", envVarName)
			default:
				fmt.Fprintf(&section, "# %s=%v\n", envVarName, value.Interface())
			}
		}

		// Sections without environment variables, such as Instance, are left out.
		if section.Len() == 0 {
			continue
		}

		fmt.Fprintf(&sb, "## %s\n%s\n", structField.Name, section.String())
	}

	return sb.String()
}

// yamlExample renders cfg as YAML with every setting but the essential ones
// commented out.
func yamlExample(cfg *config.ServerConfig) (string, error) {
	var yamlContent strings.Builder

	encoderOpts := []yaml.EncodeOption{
		config.GetDurationEncoderOption(),
		yaml.Indent(2),
	}
	if err := yaml.NewEncoder(&yamlContent, encoderOpts...).Encode(cfg); err != nil {
		return "", err
	}

	var sb strings.Builder
	sb.WriteString(yamlFileHeader)

	for line := range strings.SplitSeq(yamlContent.String(), "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}

		// Top-level keys (e.g., "basic:") are treated as section headers.
		if !strings.HasPrefix(line, " ") {
			fmt.Fprintf(&sb, "\n%s\n", line)
			continue
		}

		if strings.HasPrefix(trimmed, "reloadToken:") {
			sb.WriteString(tokenYAMLComment + "\n")

			indent := line[:len(line)-len(strings.TrimLeft(line, " "))]
			fmt.Fprintf(&sb, "%s# reloadToken: %s\n", indent, placeholderToken)

			continue
		}

		if isEssentialYAML(trimmed) {
			sb.WriteString(line + "\n")
			continue
		}

		indentSize := len(line) - len(strings.TrimLeft(line, " "))
		fmt.Fprintf(&sb, "%s# %s\n", strings.Repeat(" ", indentSize), trimmed)
	}

	return sb.String(), nil
}

func isEssentialYAML(trimmed string) bool {
	for _, key := range essentialYAML {
		if strings.HasPrefix(trimmed, key) {
			return true
		}
	}

	return false
}
