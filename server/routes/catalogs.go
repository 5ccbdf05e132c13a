// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package routes

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"codeberg.org/tscat/tscat/linguist"
	"codeberg.org/tscat/tscat/plural"
	"codeberg.org/tscat/tscat/server/middleware"
	"codeberg.org/tscat/tscat/server/utils"
	"codeberg.org/tscat/tscat/store"
)

var errUnknownFormat = errors.New(`query parameter "format" must be "ts" or "po"`)

type statsResponse struct {
	linguist.Stats

	File   string `json:"file"`
	Issues int    `json:"issues"`
}

type issuesResponse struct {
	Language string           `json:"language"`
	Issues   []linguist.Issue `json:"issues"`
}

// brokenCatalog is returned for locales whose file could not be parsed.
func brokenCatalog(loc *store.Locale) error {
	return middleware.NewHTTPError(http.StatusUnprocessableEntity, fmt.Errorf("%s: %w", loc.Path, loc.Err))
}

// CatalogStats reports message counts of the catalog for {lang}.
func (api *API) CatalogStats(w http.ResponseWriter, r *http.Request) error {
	loc, err := api.locale(r)
	if err != nil {
		return err
	}

	if loc.Err != nil {
		return brokenCatalog(loc)
	}

	return utils.WriteJSON(w, http.StatusOK, statsResponse{
		Stats:  loc.Catalog.Stats(),
		File:   loc.Path,
		Issues: len(loc.Issues),
	})
}

// CatalogIssues lists the validation issues of the catalog for {lang}.
func (api *API) CatalogIssues(w http.ResponseWriter, r *http.Request) error {
	loc, err := api.locale(r)
	if err != nil {
		return err
	}

	if loc.Err != nil {
		return brokenCatalog(loc)
	}

	issues := loc.Issues
	if issues == nil {
		issues = []linguist.Issue{}
	}

	return utils.WriteJSON(w, http.StatusOK, issuesResponse{
		Language: loc.Catalog.Language,
		Issues:   issues,
	})
}

// CatalogExport downloads the catalog for {lang} as Qt Linguist XML
// (format=ts, the default) or as a gettext PO file (format=po).
func (api *API) CatalogExport(w http.ResponseWriter, r *http.Request) error {
	loc, err := api.locale(r)
	if err != nil {
		return err
	}

	if loc.Err != nil {
		return brokenCatalog(loc)
	}

	var (
		buf         bytes.Buffer
		contentType string
		ext         string
	)

	switch format := strings.ToLower(r.URL.Query().Get("format")); format {
	case "", "ts":
		contentType, ext = "application/x-linguist+xml; charset=utf-8", ".ts"
		err = linguist.Encode(&buf, loc.Catalog, linguist.MarshalOptions{})
	case "po":
		contentType, ext = "text/x-gettext-translation; charset=utf-8", ".po"
		err = linguist.WritePO(&buf, loc.Catalog, plural.ForTag(loc.Tag))
	default:
		return middleware.NewHTTPError(http.StatusBadRequest, errUnknownFormat)
	}

	if err != nil {
		return err
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", exportName(loc)+ext))
	_, err = buf.WriteTo(w)

	return err
}

// exportName is the file name of loc without compression and catalog suffixes.
func exportName(loc *store.Locale) string {
	name := strings.TrimSuffix(loc.Path, ".zst")
	name = strings.TrimSuffix(name, ".ts")

	if i := strings.LastIndexByte(name, '/'); i >= 0 {
		name = name[i+1:]
	}

	return name
}
