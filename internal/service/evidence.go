// ServKeep - Game Server Lifecycle Orchestrator
// Copyright 2026 ServKeep contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/servkeep/servkeep

package service

import (
	"context"
	"time"

	"github.com/servkeep/servkeep/internal/logwatch"
)

// evidenceTailLines is how much log tail the assessor inspects.
const evidenceTailLines = 200

// TailReader supplies recent server-log lines for evidence assessment.
// *logwatch.Follower satisfies it.
type TailReader interface {
	Tail(n int) ([]string, error)
}

// StopEvidence decides whether a stop of the managed service was
// deliberate, from explicit evidence only:
//
//  1. the orchestrator's own action journal (a stop we issued is
//     intentional by definition), and
//  2. the server log tail: a run that ends in an orderly
//     shutdown-then-exit marker sequence was brought down on purpose,
//     while a crash leaves the log hanging without exit markers.
//
// Time of day is deliberately NOT consulted; a 4 a.m. crash deserves a
// restart as much as a 4 p.m. one.
type StopEvidence struct {
	journal *ActionJournal
	tail    TailReader
	parser  *logwatch.Parser
}

// NewStopEvidence creates the assessor.
func NewStopEvidence(journal *ActionJournal, tail TailReader, parser *logwatch.Parser) *StopEvidence {
	return &StopEvidence{journal: journal, tail: tail, parser: parser}
}

// Assess reports whether the current stop of serviceName looks intentional,
// looking back over the given window.
func (e *StopEvidence) Assess(_ context.Context, _ string, window time.Duration) (bool, error) {
	if e.journal != nil && e.journal.StopIssuedWithin(window) {
		return true, nil
	}
	if e.tail == nil {
		return false, nil
	}

	lines, err := e.tail.Tail(evidenceTailLines)
	if err != nil {
		return false, err
	}

	// Walk the tail and keep the final lifecycle picture: intentional only
	// when the last thing the server said was an orderly shutdown/exit.
	var last logwatch.Kind
	sawShutdownBeforeExit := false
	for _, line := range lines {
		ev := e.parser.Parse(line)
		if ev == nil {
			continue
		}
		if ev.Kind == logwatch.KindOffline && last == logwatch.KindShuttingDown {
			sawShutdownBeforeExit = true
		} else if ev.Kind != logwatch.KindOffline {
			sawShutdownBeforeExit = false
		}
		last = ev.Kind
	}

	if last == logwatch.KindShuttingDown {
		// Shutdown marker written, exit marker not yet flushed.
		return true, nil
	}
	return last == logwatch.KindOffline && sawShutdownBeforeExit, nil
}
