// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"codeberg.org/tscat/tscat/linguist"
	"codeberg.org/tscat/tscat/plural"
)

const (
	slCatalog = "../../linguist/testdata/VirtualBox_sl.ts"

	diskContext = "UIAddDiskEncryptionPasswordDialog"
	diskSource  = "This virtual machine is password protected. Please enter the %n encryption password(s) below."
)

const csCatalog = `<?xml version="1.0" encoding="utf-8"?>
<!DOCTYPE TS>
<TS version="2.1" language="cs_CZ">
<context>
    <name>UIDiskList</name>
    <message numerus="yes">
        <source>%n disk(s)</source>
        <translation>
            <numerusform>%n disk</numerusform>
            <numerusform>%n disky</numerusform>
        </translation>
    </message>
</context>
</TS>
`

func runCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	err := run(args, &out)

	return out.String(), err
}

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	return path
}

func TestRunUsage(t *testing.T) {
	t.Parallel()

	_, err := runCmd(t)
	require.ErrorIs(t, err, errUsage)

	_, err = runCmd(t, "translate")
	require.ErrorIs(t, err, errUnknownCmd)

	_, err = runCmd(t, "stats")
	require.ErrorIs(t, err, errNoFiles)

	_, err = runCmd(t, "resolve", slCatalog)
	require.ErrorIs(t, err, errMissingFlag)
}

func TestValidate(t *testing.T) {
	t.Parallel()

	out, err := runCmd(t, "validate", slCatalog)
	require.NoError(t, err)
	assert.Equal(t, slCatalog+": ok (11 messages)\n", out)

	cs := writeTemp(t, "app_cs.ts", csCatalog)

	out, err = runCmd(t, "validate", cs)
	require.NoError(t, err)
	assert.Contains(t, out, string(linguist.PluralFormCount))

	_, err = runCmd(t, "validate", "-strict", slCatalog, cs)
	require.ErrorIs(t, err, errInvalid)

	broken := writeTemp(t, "app_pt.ts", `<TS version="2.1" language="pt_BR"><context>`)

	out, err = runCmd(t, "validate", broken)
	require.ErrorIs(t, err, errInvalid)
	assert.True(t, strings.HasPrefix(out, broken+": "))
}

func TestStats(t *testing.T) {
	t.Parallel()

	out, err := runCmd(t, "stats", "-format", "json", slCatalog)
	require.NoError(t, err)

	assert.Equal(t, slCatalog, gjson.Get(out, "0.file").String())
	assert.Equal(t, "sl_SI", gjson.Get(out, "0.language").String())
	assert.Equal(t, int64(11), gjson.Get(out, "0.messages").Int())
	assert.Equal(t, int64(0), gjson.Get(out, "0.issues").Int())

	out, err = runCmd(t, "stats", slCatalog)
	require.NoError(t, err)
	assert.Contains(t, out, "language: sl_SI")
	assert.Contains(t, out, "messages: 11")

	_, err = runCmd(t, "stats", "-format", "toml", slCatalog)
	require.ErrorIs(t, err, errUsage)
}

func TestResolve(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"translated", []string{"-context", "QIMessageBox", "-source", "OK"}, "V redu\n"},
		{"with comment", []string{"-context", "QIMessageBox", "-source", "&Details (%1)", "-comment", "button"}, "&Podrobnosti (%1)\n"},
		{"unfinished", []string{"-context", "UIActionPool", "-source", "Tools"}, "Tools\n"},
		{"missing", []string{"-context", "Nowhere", "-source", "Cancel"}, "Cancel\n"},
		{"strict missing", []string{"-strict", "-context", "Nowhere", "-source", "Cancel"}, "⟦Cancel⟧\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			out, err := runCmd(t, append(append([]string{"resolve"}, tt.args...), slCatalog)...)
			require.NoError(t, err)
			assert.Equal(t, tt.want, out)
		})
	}
}

func TestResolveJSON(t *testing.T) {
	t.Parallel()

	out, err := runCmd(t, "resolve", "-json", "-context", diskContext, "-source", diskSource, "-n", "2", slCatalog)
	require.NoError(t, err)

	assert.True(t, gjson.Get(out, "found").Bool())
	assert.True(t, gjson.Get(out, "known").Bool())
	assert.Equal(t, "finished", gjson.Get(out, "status").String())
	assert.Equal(t, int64(1), gjson.Get(out, "form").Int())
	assert.False(t, gjson.Get(out, "defect").Bool())

	out, err = runCmd(t, "resolve", "-json", "-context", "UIActionPool", "-source", "Tools", slCatalog)
	require.NoError(t, err)

	assert.Equal(t, "Tools", gjson.Get(out, "text").String())
	assert.False(t, gjson.Get(out, "found").Bool())
	assert.Equal(t, "unfinished", gjson.Get(out, "status").String())
	assert.False(t, gjson.Get(out, "form").Exists())
}

func TestResolveDirectory(t *testing.T) {
	t.Parallel()

	sl, err := os.ReadFile(slCatalog)
	require.NoError(t, err)

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "VirtualBox_sl.ts"), sl, 0o644))

	tests := []struct {
		lang string
		want string
	}{
		{"sl", "V redu\n"},
		{"sl-SI", "V redu\n"},
		{"de", "OK\n"},
	}

	for _, tt := range tests {
		out, err := runCmd(t, "resolve", "-domain", "VirtualBox", "-lang", tt.lang, "-context", "QIMessageBox", "-source", "OK", dir)
		require.NoError(t, err, tt.lang)
		assert.Equal(t, tt.want, out, tt.lang)
	}
}

func TestDetectLanguage(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "sl-SI", detectLanguage(func() (string, error) { return "sl-SI", nil }))
	assert.Empty(t, detectLanguage(func() (string, error) { return "", errors.New("no locale") }))
}

func TestConvert(t *testing.T) {
	t.Parallel()

	original, err := readCatalog(slCatalog)
	require.NoError(t, err)

	want, err := linguist.Marshal(original, linguist.MarshalOptions{})
	require.NoError(t, err)

	out, err := runCmd(t, "convert", "-o", "-", slCatalog)
	require.NoError(t, err)
	assert.Equal(t, string(want), out)

	compressed := filepath.Join(t.TempDir(), "VirtualBox_sl.ts.zst")

	_, err = runCmd(t, "convert", "-relative", "-o", compressed, slCatalog)
	require.NoError(t, err)

	raw, err := os.ReadFile(compressed)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x28, 0xb5, 0x2f, 0xfd}, raw[:4], "zstd frame magic")

	back, err := readCatalog(compressed)
	require.NoError(t, err)
	assert.Equal(t, original.Stats(), back.Stats())
	assert.Equal(t, original.Contexts[0].Messages[0].Locations, back.Contexts[0].Messages[0].Locations)

	_, err = runCmd(t, "convert", slCatalog)
	require.ErrorIs(t, err, errMissingFlag)
}

func TestExportPO(t *testing.T) {
	t.Parallel()

	out, err := runCmd(t, "export-po", "-verify", slCatalog)
	require.NoError(t, err)
	assert.Contains(t, out, `"Plural-Forms: nplurals=4;`)
	assert.Contains(t, out, "msgstr \"V redu\"\n")

	path := filepath.Join(t.TempDir(), "sl.po")

	_, err = runCmd(t, "export-po", "-o", path, slCatalog)
	require.NoError(t, err)

	written, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, out, string(written))
}

func TestVerifyPO(t *testing.T) {
	t.Parallel()

	c, err := readCatalog(slCatalog)
	require.NoError(t, err)

	var b strings.Builder
	require.NoError(t, linguist.WritePO(&b, c, plural.ForLanguage(c.Language)))

	assert.Empty(t, verifyPO(c, []byte(b.String())))

	tampered := strings.Replace(b.String(), `msgstr "V redu"`, `msgstr "Prav"`, 1)

	mismatches := verifyPO(c, []byte(tampered))
	require.Len(t, mismatches, 1)
	assert.Contains(t, mismatches[0], "QIMessageBox")
	assert.Contains(t, mismatches[0], `"Prav"`)
}

// Not parallel: swaps the global logger.
func TestLogger(t *testing.T) {
	var buf bytes.Buffer

	saved := log.Logger
	log.Logger = zerolog.New(&buf)

	t.Cleanup(func() { log.Logger = saved })

	logger().Warn().Msg("catalog skipped")

	line := buf.Bytes()
	assert.Equal(t, "tsinspect", gjson.GetBytes(line, "sys").String())
	assert.Equal(t, "warn", gjson.GetBytes(line, "level").String())
	assert.Equal(t, "catalog skipped", gjson.GetBytes(line, "message").String())
}
