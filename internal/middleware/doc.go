// ServKeep - Game Server Lifecycle Orchestrator
// Copyright 2026 ServKeep contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/servkeep/servkeep

// Package middleware holds the HTTP middleware shared by the API server:
// request ID propagation and Prometheus request instrumentation. Both are
// chi-compatible func(http.Handler) http.Handler wrappers.
package middleware
