// ServKeep - Game Server Lifecycle Orchestrator
// Copyright 2026 ServKeep contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/servkeep/servkeep

package logwatch

import (
	"os"
	"path/filepath"
	"testing"
)

func writeLog(t *testing.T, path, content string) {
	t.Helper()
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		t.Fatalf("open log: %v", err)
	}
	defer f.Close()
	if _, err := f.WriteString(content); err != nil {
		t.Fatalf("write log: %v", err)
	}
}

func TestFollowerPoll(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "server.RPT")
	f := NewFollower(path)

	t.Run("missing file yields no lines", func(t *testing.T) {
		lines, err := f.Poll()
		if err != nil {
			t.Fatalf("Poll: %v", err)
		}
		if len(lines) != 0 {
			t.Errorf("expected no lines, got %v", lines)
		}
	})

	t.Run("complete lines are returned once", func(t *testing.T) {
		writeLog(t, path, "line one\nline two\n")
		lines, err := f.Poll()
		if err != nil {
			t.Fatalf("Poll: %v", err)
		}
		if len(lines) != 2 || lines[0] != "line one" || lines[1] != "line two" {
			t.Fatalf("unexpected lines: %v", lines)
		}

		lines, err = f.Poll()
		if err != nil {
			t.Fatalf("Poll: %v", err)
		}
		if len(lines) != 0 {
			t.Errorf("re-poll should yield nothing, got %v", lines)
		}
	})

	t.Run("partial line held until completed", func(t *testing.T) {
		writeLog(t, path, "partial")
		lines, err := f.Poll()
		if err != nil {
			t.Fatalf("Poll: %v", err)
		}
		if len(lines) != 0 {
			t.Errorf("incomplete line must not be returned, got %v", lines)
		}

		writeLog(t, path, " finished\n")
		lines, err = f.Poll()
		if err != nil {
			t.Fatalf("Poll: %v", err)
		}
		if len(lines) != 1 || lines[0] != "partial finished" {
			t.Errorf("expected reassembled line, got %v", lines)
		}
	})
}

func TestFollowerRotation(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "server.RPT")
	f := NewFollower(path)

	writeLog(t, path, "old content line\n")
	if _, err := f.Poll(); err != nil {
		t.Fatalf("Poll: %v", err)
	}

	// Rotate: new, shorter file at the same path.
	if err := os.WriteFile(path, []byte("fresh\n"), 0o600); err != nil {
		t.Fatalf("rotate: %v", err)
	}

	lines, err := f.Poll()
	if err != nil {
		t.Fatalf("Poll after rotation: %v", err)
	}
	if len(lines) != 1 || lines[0] != "fresh" {
		t.Errorf("expected to restart from new file, got %v", lines)
	}
}

func TestFollowerTail(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "server.RPT")
	writeLog(t, path, "a\nb\nc\nd\ntrailing-partial")

	f := NewFollower(path)
	lines, err := f.Tail(2)
	if err != nil {
		t.Fatalf("Tail: %v", err)
	}
	if len(lines) != 2 || lines[0] != "c" || lines[1] != "d" {
		t.Errorf("Tail(2) = %v, want [c d]", lines)
	}

	// Tail must not disturb the follow offset.
	if err := f.SeekEnd(); err != nil {
		t.Fatalf("SeekEnd: %v", err)
	}
	writeLog(t, path, "\nnew\n")
	polled, err := f.Poll()
	if err != nil {
		t.Fatalf("Poll: %v", err)
	}
	if len(polled) != 2 || polled[1] != "new" {
		t.Errorf("expected to resume from end, got %v", polled)
	}
}
