// ServKeep - Game Server Lifecycle Orchestrator
// Copyright 2026 ServKeep contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/servkeep/servkeep

// Package command carries operator requests from the API surface into the
// orchestration loop. The queue is in memory and bounded; the loop drains
// it once per tick, so admission is cheap and draining never blocks.
package command

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/servkeep/servkeep/internal/sched"
)

// Op is the kind of operator request.
type Op string

const (
	OpSchedule Op = "schedule"
	OpCancel   Op = "cancel"
	OpSkipNext Op = "skip_next"
)

// Request is a single operator command awaiting the orchestration loop.
// A schedule request carries either a relative delay or an "HH:mm" clock
// time, never both.
type Request struct {
	ID           uuid.UUID        `json:"id"`
	Op           Op               `json:"op"`
	Action       sched.ActionKind `json:"action,omitempty"`
	DelayMinutes int              `json:"delay_minutes,omitempty"`
	At           string           `json:"at,omitempty"`
	RequestedBy  string           `json:"requested_by"`
	ReceivedAt   time.Time        `json:"received_at"`
}

// queueCap bounds pending requests. The loop drains every few seconds, so
// hitting the cap means the loop is wedged, not that the operator is busy.
const queueCap = 64

// ErrQueueFull is returned when the orchestration loop has stopped
// draining and admission would grow without bound.
var ErrQueueFull = errors.New("command queue full")

// Queue is a bounded FIFO of operator requests.
type Queue struct {
	mu      sync.Mutex
	pending []Request
	now     func() time.Time
}

// NewQueue creates an empty queue.
func NewQueue() *Queue {
	return &Queue{now: time.Now}
}

// Submit admits a request, stamping its ID and arrival time.
func (q *Queue) Submit(op Op, action sched.ActionKind, delayMinutes int, at, requestedBy string) (Request, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.pending) >= queueCap {
		return Request{}, ErrQueueFull
	}
	req := Request{
		ID:           uuid.New(),
		Op:           op,
		Action:       action,
		DelayMinutes: delayMinutes,
		At:           at,
		RequestedBy:  requestedBy,
		ReceivedAt:   q.now(),
	}
	q.pending = append(q.pending, req)
	return req, nil
}

// Drain removes and returns all pending requests in arrival order.
func (q *Queue) Drain() []Request {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.pending) == 0 {
		return nil
	}
	out := q.pending
	q.pending = nil
	return out
}

// Len reports the number of pending requests.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}
