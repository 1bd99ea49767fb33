// ServKeep - Game Server Lifecycle Orchestrator
// Copyright 2026 ServKeep contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/servkeep/servkeep

package backup

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/servkeep/servkeep/internal/logging"
)

// List returns the backup archives in the backup directory, oldest first.
// The timestamped names make lexical order chronological.
func (s *Service) List() ([]string, error) {
	entries, err := os.ReadDir(s.cfg.Dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read backup dir: %w", err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if strings.HasPrefix(e.Name(), namePrefix) &&
			(strings.HasSuffix(e.Name(), ".tar") || strings.HasSuffix(e.Name(), ".tar.gz")) {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// applyRetention deletes the oldest archives beyond MaxBackups.
func (s *Service) applyRetention() error {
	if s.cfg.MaxBackups <= 0 {
		return nil
	}
	names, err := s.List()
	if err != nil {
		return err
	}
	if len(names) <= s.cfg.MaxBackups {
		return nil
	}

	for _, name := range names[:len(names)-s.cfg.MaxBackups] {
		path := filepath.Join(s.cfg.Dir, name)
		if err := os.Remove(path); err != nil {
			return fmt.Errorf("prune %s: %w", name, err)
		}
		logging.Info().Str("archive", path).Msg("Pruned old backup")
	}
	return nil
}
