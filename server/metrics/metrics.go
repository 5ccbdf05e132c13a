// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

// Package metrics exposes Prometheus collectors for served requests,
// translation lookups and catalog loads.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"codeberg.org/tscat/tscat/i18n"
	"codeberg.org/tscat/tscat/store"
)

const namespace = "tscat"

//nolint:gochecknoglobals // Package-level registry and collectors required by Prometheus
var (
	registry = prometheus.NewRegistry()

	// RequestsTotal counts served HTTP requests.
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests served",
		},
		[]string{"method", "status"},
	)

	// RequestDurationSeconds measures the time spent serving HTTP requests.
	RequestDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method"},
	)

	// LookupsTotal counts translation lookups by locale and outcome.
	LookupsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lookups_total",
			Help:      "Translation lookups by locale and outcome",
		},
		[]string{"lang", "outcome"},
	)

	// PluralDefectsTotal counts lookups that needed a numerus form the message lacks.
	PluralDefectsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "plural_defects_total",
			Help:      "Lookups that fell back to the last numerus form",
		},
		[]string{"lang"},
	)

	// LoadDurationSeconds measures catalog directory loads.
	LoadDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "catalog_load_duration_seconds",
			Help:      "Duration of catalog directory loads in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"result"},
	)

	// CatalogMessages reports the number of messages per loaded catalog.
	CatalogMessages = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "catalog_messages",
			Help:      "Messages per loaded catalog by status",
		},
		[]string{"lang", "status"},
	)

	// CatalogIssues reports validation issues per loaded catalog.
	CatalogIssues = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "catalog_issues",
			Help:      "Validation issues per loaded catalog",
		},
		[]string{"lang"},
	)

	// CatalogErrors reports whether the catalog of a locale failed to load.
	CatalogErrors = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "catalog_load_failed",
			Help:      "1 if the catalog of the locale could not be read or parsed",
		},
		[]string{"lang"},
	)
)

func init() {
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		RequestsTotal,
		RequestDurationSeconds,
		LookupsTotal,
		PluralDefectsTotal,
		LoadDurationSeconds,
		CatalogMessages,
		CatalogIssues,
		CatalogErrors,
	)
}

// Handler returns the HTTP handler for the metrics endpoint.
func Handler() http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}

// ObserveRequest records a served HTTP request.
func ObserveRequest(method string, status int, d time.Duration) {
	RequestsTotal.WithLabelValues(method, strconv.Itoa(status)).Inc()
	RequestDurationSeconds.WithLabelValues(method).Observe(d.Seconds())
}

// Outcome classifies a lookup result: "translated", "source" when the
// message is known but has no usable translation, or "missing".
func Outcome(res i18n.Result) string {
	switch {
	case res.Found:
		return "translated"
	case res.Known:
		return "source"
	default:
		return "missing"
	}
}

// ObserveLookup records a translation lookup for lang.
func ObserveLookup(lang string, res i18n.Result) {
	LookupsTotal.WithLabelValues(lang, Outcome(res)).Inc()

	if res.Defect {
		PluralDefectsTotal.WithLabelValues(lang).Inc()
	}
}

// ObserveLoad records a finished catalog load and publishes per-locale
// gauges for the locales now served.
func ObserveLoad(d time.Duration, err error, locales []*store.Locale) {
	result := "ok"
	if err != nil {
		result = "error"
	}

	LoadDurationSeconds.WithLabelValues(result).Observe(d.Seconds())

	if err != nil {
		return
	}

	CatalogMessages.Reset()
	CatalogIssues.Reset()
	CatalogErrors.Reset()

	for _, loc := range locales {
		lang := loc.Tag.String()

		if loc.Err != nil {
			CatalogErrors.WithLabelValues(lang).Set(1)

			continue
		}

		CatalogErrors.WithLabelValues(lang).Set(0)
		CatalogIssues.WithLabelValues(lang).Set(float64(len(loc.Issues)))

		stats := loc.Catalog.Stats()
		CatalogMessages.WithLabelValues(lang, "finished").Set(float64(stats.Finished))
		CatalogMessages.WithLabelValues(lang, "unfinished").Set(float64(stats.Unfinished))
		CatalogMessages.WithLabelValues(lang, "vanished").Set(float64(stats.Vanished))
		CatalogMessages.WithLabelValues(lang, "obsolete").Set(float64(stats.Obsolete))
	}
}
