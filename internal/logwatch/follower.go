// ServKeep - Game Server Lifecycle Orchestrator
// Copyright 2026 ServKeep contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/servkeep/servkeep

package logwatch

import (
	"bytes"
	"fmt"
	"io"
	"os"
)

// maxReadPerPoll bounds how much log is consumed in a single poll so a
// runaway log writer cannot wedge a tick.
const maxReadPerPoll = 4 << 20

// Follower incrementally reads new lines appended to the server log file.
// It keeps a byte offset between polls and carries incomplete trailing
// lines over to the next poll, so callers only ever see whole lines.
//
// Log rotation is detected by the file shrinking below the stored offset;
// the follower then restarts from the beginning of the new file.
type Follower struct {
	path    string
	offset  int64
	partial []byte
}

// NewFollower creates a follower for the given log file. The file does not
// need to exist yet; polls before it appears return no lines.
func NewFollower(path string) *Follower {
	return &Follower{path: path}
}

// SeekEnd moves the follower to the current end of the file, skipping
// history. Used at startup after Reconcile has consumed the tail.
func (f *Follower) SeekEnd() error {
	info, err := os.Stat(f.path)
	if os.IsNotExist(err) {
		f.offset = 0
		return nil
	}
	if err != nil {
		return fmt.Errorf("stat %s: %w", f.path, err)
	}
	f.offset = info.Size()
	f.partial = nil
	return nil
}

// Poll returns the complete lines appended since the previous poll.
// A missing file is not an error; it yields no lines.
func (f *Follower) Poll() ([]string, error) {
	file, err := os.Open(f.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", f.path, err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", f.path, err)
	}
	if info.Size() < f.offset {
		// Rotated or truncated; start over.
		f.offset = 0
		f.partial = nil
	}
	if info.Size() == f.offset {
		return nil, nil
	}

	if _, err := file.Seek(f.offset, io.SeekStart); err != nil {
		return nil, fmt.Errorf("seek %s: %w", f.path, err)
	}

	limit := info.Size() - f.offset
	if limit > maxReadPerPoll {
		limit = maxReadPerPoll
	}
	buf := make([]byte, limit)
	n, err := io.ReadFull(file, buf)
	if err != nil && err != io.ErrUnexpectedEOF {
		return nil, fmt.Errorf("read %s: %w", f.path, err)
	}
	f.offset += int64(n)

	data := append(f.partial, buf[:n]...)
	var lines []string
	for {
		idx := bytes.IndexByte(data, '\n')
		if idx < 0 {
			break
		}
		lines = append(lines, string(data[:idx]))
		data = data[idx+1:]
	}
	// Whatever is left is a line still being written.
	f.partial = append([]byte(nil), data...)

	return lines, nil
}

// Tail returns up to n complete lines from the end of the file, for the
// startup reconciliation pass. It does not move the follower's offset.
func (f *Follower) Tail(n int) ([]string, error) {
	if n <= 0 {
		return nil, nil
	}

	file, err := os.Open(f.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", f.path, err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", f.path, err)
	}

	// Read at most maxReadPerPoll bytes from the end; more than enough for
	// any sane tail request.
	start := info.Size() - maxReadPerPoll
	if start < 0 {
		start = 0
	}
	if _, err := file.Seek(start, io.SeekStart); err != nil {
		return nil, fmt.Errorf("seek %s: %w", f.path, err)
	}
	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", f.path, err)
	}

	lines := splitCompleteLines(data)
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return lines, nil
}

// splitCompleteLines splits data on newlines, dropping a trailing partial
// line.
func splitCompleteLines(data []byte) []string {
	var lines []string
	for {
		idx := bytes.IndexByte(data, '\n')
		if idx < 0 {
			return lines
		}
		lines = append(lines, string(bytes.TrimRight(data[:idx], "\r")))
		data = data[idx+1:]
	}
}
