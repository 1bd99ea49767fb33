// ServKeep - Game Server Lifecycle Orchestrator
// Copyright 2026 ServKeep contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/servkeep/servkeep

// Package api is the admin HTTP surface of the orchestrator.
//
// Writes never touch orchestration state directly: every mutating
// endpoint queues an operator command that the loop applies on its next
// tick, which keeps the loop single-threaded and makes API re-delivery
// harmless. Reads serve the snapshot the loop published at the end of
// its last tick.
//
// Endpoints:
//
//	GET    /healthz                     liveness
//	GET    /metrics                     Prometheus collectors
//	GET    /api/v1/status               orchestrator snapshot
//	POST   /api/v1/actions              schedule restart/stop/update
//	DELETE /api/v1/actions/{kind}       cancel a pending action
//	POST   /api/v1/restarts/skip-next   skip the next periodic restart
//
// The /api/v1 surface accepts an optional static bearer token.
package api
