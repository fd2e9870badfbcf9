// FeedVault - NuGet-compatible package feed storage engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedvault

// Package feedmetrics instruments the repository and HTTP surface with
// Prometheus metrics: push/remove counters, rebuild duration, cache size,
// and request latency.
package feedmetrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// PackagesPushedTotal counts successful AddPackage calls.
	PackagesPushedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "feedvault_packages_pushed_total",
			Help: "Total number of packages successfully pushed.",
		},
	)

	// PackagesPushRejectedTotal counts AddPackage calls rejected by an
	// admissibility rule, labeled by reason.
	PackagesPushRejectedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feedvault_packages_push_rejected_total",
			Help: "Total number of rejected package pushes, by reason.",
		},
		[]string{"reason"},
	)

	// PackagesRemovedTotal counts successful RemovePackage calls, labeled
	// by whether the removal was a soft delete (unlist) or hard delete.
	PackagesRemovedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feedvault_packages_removed_total",
			Help: "Total number of packages removed, by delete kind.",
		},
		[]string{"kind"},
	)

	// RebuildDuration observes how long a full cache rebuild takes.
	RebuildDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "feedvault_rebuild_duration_seconds",
			Help:    "Duration of a full cache rebuild from the store.",
			Buckets: prometheus.DefBuckets,
		},
	)

	// RebuildsTotal counts rebuilds, labeled by outcome.
	RebuildsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feedvault_rebuilds_total",
			Help: "Total number of cache rebuilds, by outcome.",
		},
		[]string{"outcome"},
	)

	// CachedPackageCount reports the current number of (id, version)
	// records held in the metadata cache.
	CachedPackageCount = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "feedvault_cached_package_count",
			Help: "Current number of package records held in the metadata cache.",
		},
	)

	// DropFolderIngestedTotal counts files ingested from the drop folder
	// during a scan.
	DropFolderIngestedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "feedvault_drop_folder_ingested_total",
			Help: "Total number of files ingested from the drop folder.",
		},
	)

	// HTTPRequestsTotal counts API requests, labeled by route and status.
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feedvault_http_requests_total",
			Help: "Total number of HTTP requests, by route and status code.",
		},
		[]string{"route", "method", "status"},
	)

	// HTTPRequestDuration observes API request latency, labeled by route.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "feedvault_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds, by route.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method"},
	)
)
