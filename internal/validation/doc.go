// ServKeep - Game Server Lifecycle Orchestrator
// Copyright 2026 ServKeep contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/servkeep/servkeep

// Package validation provides struct validation using go-playground/validator v10.
//
// A thread-safe singleton validator carries two ServKeep-specific tags on
// top of the built-in set:
//
//   - timeofday: a 24-hour wall-clock time such as "04:00"
//   - actionkind: a scheduled action kind (restart, stop, update)
//
// Failures are translated into readable messages so API handlers can
// return them verbatim:
//
//	type scheduleRequest struct {
//	    Action       string `validate:"required,actionkind"`
//	    DelayMinutes int    `validate:"gte=0,lte=1440"`
//	}
//
//	if verr := validation.ValidateStruct(&req); verr != nil {
//	    respondError(w, http.StatusBadRequest, verr.Error())
//	    return
//	}
package validation
