// ServKeep - Game Server Lifecycle Orchestrator
// Copyright 2026 ServKeep contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/servkeep/servkeep

package logwatch

import (
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

// Known log markers in the server report log. The server writes these
// unprompted; ServKeep only reads them.
//
//	10:15:02.421 Server Version: 1.26.158551
//	10:15:40.023 Mission read.
//	10:22:10.512 *** GlobalStats: players: 12 | chars: 12 | zombies: 743 | vehicles: 98 | fps avg 28.4 min 14.2 max 31.0 | frametime 35.2 ms
//	03:59:58.118 !!! Interrupted by signal
//	04:00:01.551 Application terminated normally
const (
	markerStarting    = "Server Version:"
	markerLoading     = "Mission read."
	markerLoadingAlt  = "Loading world"
	markerStats       = "*** GlobalStats:"
	markerInterrupted = "!!! Interrupted"
	markerShutdown    = "Shutting down"
	markerExit        = "Application terminated"
)

var (
	// statsRe captures the global-stats payload. The line doubles as the
	// "server is online" marker; a server mid-load never prints it.
	statsRe = regexp.MustCompile(
		`players:\s*(\d+)\s*\|\s*chars:\s*(\d+)\s*\|\s*zombies:\s*(\d+)\s*\|\s*vehicles:\s*(\d+)\s*\|\s*fps avg\s*([\d.]+)\s*min\s*([\d.]+)\s*max\s*([\d.]+)\s*\|\s*frametime\s*([\d.]+)`)

	// timePrefixRe matches the HH:MM:SS[.fff] wall-clock prefix the server
	// puts on report-log lines.
	timePrefixRe = regexp.MustCompile(`^(\d{2}):(\d{2}):(\d{2})(?:\.(\d{1,3}))?\s`)

	// datePrefixRe matches the full-date prefix used by the admin log.
	datePrefixRe = regexp.MustCompile(`^(\d{4}-\d{2}-\d{2})[ T](\d{2}:\d{2}:\d{2})`)
)

// Parser converts raw server log lines into typed lifecycle events.
//
// Parser is a pure, stateless leaf component: the same line always yields
// the same event (modulo the wall-clock fallback for unstampable lines).
type Parser struct {
	// now supplies the fallback timestamp; replaceable in tests.
	now func() time.Time
}

// NewParser returns a parser using the system clock for timestamp fallback.
func NewParser() *Parser {
	return &Parser{now: time.Now}
}

// NewParserWithClock returns a parser with an injected clock, for tests.
func NewParserWithClock(now func() time.Time) *Parser {
	return &Parser{now: now}
}

// Parse extracts a lifecycle event from a single log line. It returns nil
// for lines that match no known marker; that is the common case, not an
// error. Empty lines, partially written lines, and byte noise are all
// tolerated the same way. Parse never fails.
func (p *Parser) Parse(line string) *LogEvent {
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		return nil
	}
	if !utf8.ValidString(line) {
		line = strings.ToValidUTF8(line, "")
	}

	ts, rest := p.extractTimestamp(line)

	switch {
	case strings.Contains(rest, markerStats):
		ev := &LogEvent{Timestamp: ts, Kind: KindOnline}
		if sample := parseStats(rest); sample != nil {
			ev.Performance = sample
		}
		return ev
	case strings.Contains(rest, markerStarting):
		return &LogEvent{Timestamp: ts, Kind: KindStarting}
	case strings.Contains(rest, markerLoading), strings.Contains(rest, markerLoadingAlt):
		return &LogEvent{Timestamp: ts, Kind: KindLoading}
	case strings.Contains(rest, markerInterrupted), strings.Contains(rest, markerShutdown):
		return &LogEvent{Timestamp: ts, Kind: KindShuttingDown}
	case strings.Contains(rest, markerExit):
		return &LogEvent{Timestamp: ts, Kind: KindOffline}
	default:
		return nil
	}
}

// extractTimestamp pulls the best-effort timestamp prefix off a line,
// returning the timestamp and the remainder. A missing or malformed prefix
// falls back to the wall clock; the date for time-only prefixes is today's.
func (p *Parser) extractTimestamp(line string) (time.Time, string) {
	if m := datePrefixRe.FindStringSubmatch(line); m != nil {
		if ts, err := time.ParseInLocation("2006-01-02 15:04:05", m[1]+" "+m[2], time.Local); err == nil {
			return ts, line[len(m[0]):]
		}
	}

	if m := timePrefixRe.FindStringSubmatch(line); m != nil {
		hour, _ := strconv.Atoi(m[1])
		min, _ := strconv.Atoi(m[2])
		sec, _ := strconv.Atoi(m[3])
		if hour < 24 && min < 60 && sec < 60 {
			now := p.now()
			ts := time.Date(now.Year(), now.Month(), now.Day(), hour, min, sec, 0, time.Local)
			if m[4] != "" {
				ms, _ := strconv.Atoi(m[4])
				ts = ts.Add(time.Duration(ms) * time.Millisecond)
			}
			return ts, line[len(m[0]):]
		}
	}

	return p.now(), line
}

// parseStats decodes the global-stats payload. A stats marker with a
// garbled payload still counts as an Online event, just without a sample.
func parseStats(line string) *PerformanceSample {
	m := statsRe.FindStringSubmatch(line)
	if m == nil {
		return nil
	}

	atoi := func(s string) int {
		n, _ := strconv.Atoi(s)
		return n
	}
	atof := func(s string) float64 {
		f, _ := strconv.ParseFloat(s, 64)
		return f
	}

	return &PerformanceSample{
		PlayerCount: atoi(m[1]),
		Entities: EntityCounts{
			Characters: atoi(m[2]),
			Zombies:    atoi(m[3]),
			Vehicles:   atoi(m[4]),
		},
		AvgFPS:      atof(m[5]),
		MinFPS:      atof(m[6]),
		MaxFPS:      atof(m[7]),
		FrameTimeMs: atof(m[8]),
	}
}
