// ServKeep - Game Server Lifecycle Orchestrator
// Copyright 2026 ServKeep contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/servkeep/servkeep

// Package metrics holds the Prometheus collectors for the orchestrator.
//
// Collectors are package-level and registered via promauto against the
// default registry; the API server exposes them on /metrics. Gauges
// mirror the latest observed server state, counters track lifecycle
// actions, warnings, recovery attempts and maintenance work.
package metrics
