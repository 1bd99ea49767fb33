// ServKeep - Game Server Lifecycle Orchestrator
// Copyright 2026 ServKeep contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/servkeep/servkeep

package service

import (
	"errors"
	"fmt"
)

// Sentinel errors for the non-retryable service-control failures. Anything
// else coming out of the controller is transient and retry-eligible on a
// later tick.
var (
	// ErrUnitNotFound means the configured service does not exist on this
	// host. Retrying will not help; the config is wrong.
	ErrUnitNotFound = errors.New("service unit not found")

	// ErrPermissionDenied means ServKeep lacks the privileges to control
	// the service. Retrying will not help; the deployment is wrong.
	ErrPermissionDenied = errors.New("permission denied controlling service")
)

// ControlError wraps a service-control failure with the operation that
// produced it.
type ControlError struct {
	Op  string // "start", "stop", "restart", "is-active", ...
	Err error
}

func (e *ControlError) Error() string {
	return fmt.Sprintf("service %s: %v", e.Op, e.Err)
}

func (e *ControlError) Unwrap() error { return e.Err }

// IsFatal reports whether a service-control error is permanent: the admin
// gets notified and no automatic retry happens this cycle.
func IsFatal(err error) bool {
	return errors.Is(err, ErrUnitNotFound) || errors.Is(err, ErrPermissionDenied)
}
