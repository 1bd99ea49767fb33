// ServKeep - Game Server Lifecycle Orchestrator
// Copyright 2026 ServKeep contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/servkeep/servkeep

package backup

import (
	"archive/tar"
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/klauspost/compress/gzip"

	"github.com/servkeep/servkeep/internal/logging"
)

// namePrefix and timestamp layout for backup archive names:
// servkeep-20260828-040001.tar.gz
const (
	namePrefix = "servkeep-"
	nameLayout = "20060102-150405"
)

// Config holds backup creation and retention settings.
type Config struct {
	// Dir is where archives are written.
	Dir string

	// MaxBackups is how many archives are kept; older ones are pruned
	// after each successful backup.
	MaxBackups int

	// Compress gzips the tar archive.
	Compress bool
}

// Service creates tar archives of the server profile directory and
// enforces the retention policy.
type Service struct {
	cfg Config
	now func() time.Time
}

// NewService creates a backup service. The backup directory is created on
// first use.
func NewService(cfg Config) *Service {
	return &Service{cfg: cfg, now: time.Now}
}

// Create archives sourcePath into the backup directory and applies the
// retention policy. It returns the archive path. The context bounds the
// whole operation; a cancelled context aborts mid-archive and removes the
// partial file.
func (s *Service) Create(ctx context.Context, sourcePath string) (string, error) {
	if sourcePath == "" {
		return "", fmt.Errorf("backup source path is empty")
	}
	if _, err := os.Stat(sourcePath); err != nil {
		return "", fmt.Errorf("backup source: %w", err)
	}
	if err := os.MkdirAll(s.cfg.Dir, 0o750); err != nil {
		return "", fmt.Errorf("create backup dir: %w", err)
	}

	name := namePrefix + s.now().Format(nameLayout) + ".tar"
	if s.cfg.Compress {
		name += ".gz"
	}
	path := filepath.Join(s.cfg.Dir, name)

	started := s.now()
	if err := s.writeArchive(ctx, path, sourcePath); err != nil {
		// Never leave half an archive behind; it would count against
		// retention and lure someone into restoring from it.
		os.Remove(path)
		return "", err
	}

	logging.Info().
		Str("archive", path).
		Dur("took", s.now().Sub(started)).
		Msg("Backup created")

	if err := s.applyRetention(); err != nil {
		logging.Warn().Err(err).Msg("Backup retention pruning failed")
	}
	return path, nil
}

// writeArchive streams sourcePath into a (optionally gzipped) tar file.
func (s *Service) writeArchive(ctx context.Context, path, sourcePath string) error {
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create archive: %w", err)
	}
	defer out.Close()

	var w io.Writer = out
	var gz *gzip.Writer
	if s.cfg.Compress {
		gz, err = gzip.NewWriterLevel(out, gzip.BestSpeed)
		if err != nil {
			return fmt.Errorf("create gzip writer: %w", err)
		}
		defer gz.Close()
		w = gz
	}

	tw := tar.NewWriter(w)

	root := filepath.Clean(sourcePath)
	walkErr := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			// File vanished mid-walk; the server is live, this happens.
			logging.Debug().Str("path", p).Err(err).Msg("Skipping vanished file")
			return nil
		}
		// Regular files and directories only; sockets and pipes have no
		// place in a profile backup.
		if !info.Mode().IsRegular() && !info.IsDir() {
			return nil
		}

		hdr, err := tar.FileInfoHeader(info, "")
		if err != nil {
			return err
		}
		hdr.Name = filepath.ToSlash(rel)
		if info.IsDir() {
			hdr.Name += "/"
			return tw.WriteHeader(hdr)
		}

		// Open before committing the header; a header whose bytes never
		// arrive corrupts every entry after it.
		f, err := os.Open(p)
		if err != nil {
			logging.Debug().Str("path", p).Err(err).Msg("Skipping unreadable file")
			return nil
		}
		defer f.Close()

		if err := tw.WriteHeader(hdr); err != nil {
			return err
		}
		if _, err := io.Copy(tw, f); err != nil {
			return fmt.Errorf("archive %s: %w", rel, err)
		}
		return nil
	})
	if walkErr != nil {
		return fmt.Errorf("walk %s: %w", root, walkErr)
	}

	if err := tw.Close(); err != nil {
		return fmt.Errorf("finalize tar: %w", err)
	}
	if gz != nil {
		if err := gz.Close(); err != nil {
			return fmt.Errorf("finalize gzip: %w", err)
		}
	}
	return out.Sync()
}
