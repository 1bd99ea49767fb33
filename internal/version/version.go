// ServKeep - Game Server Lifecycle Orchestrator
// Copyright 2026 ServKeep contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/servkeep/servkeep

// Package version checks for and applies game-server updates by invoking
// an external SteamCMD-compatible updater tool and parsing its output.
//
// Build IDs are opaque strings; two different IDs mean an update is
// available, nothing more. The installed ID comes from the app manifest in
// the install directory, the latest from the updater's app-info output.
package version

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/servkeep/servkeep/internal/logging"
)

// Timeouts for the two updater invocations. A check is quick; a full
// update downloads gigabytes.
const (
	checkTimeout  = 3 * time.Minute
	updateTimeout = 45 * time.Minute
)

// buildIDRe matches the `"buildid"  "158560"` lines in both the app
// manifest and the updater's app-info output.
var buildIDRe = regexp.MustCompile(`"buildid"\s+"(\d+)"`)

// BuildInfo is the outcome of an update check.
type BuildInfo struct {
	Installed string `json:"installed"`
	Latest    string `json:"latest"`
	Available bool   `json:"available"`
}

// Config identifies the updater tool and the managed installation.
type Config struct {
	// Command is the updater executable (default "steamcmd").
	Command string

	// Args are extra arguments prepended to every invocation (login
	// credentials, script options).
	Args []string

	// InstallDir is the game-server installation directory.
	InstallDir string

	// AppID is the Steam application ID of the dedicated server.
	AppID string
}

// Service invokes the external updater.
type Service struct {
	cfg    Config
	runner func(ctx context.Context, name string, args ...string) (string, error)
}

// NewService creates an updater service.
func NewService(cfg Config) *Service {
	if cfg.Command == "" {
		cfg.Command = "steamcmd"
	}
	return &Service{cfg: cfg, runner: runCommand}
}

func runCommand(ctx context.Context, name string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var buf bytes.Buffer
	cmd.Stdout = &buf
	cmd.Stderr = &buf
	err := cmd.Run()
	return buf.String(), err
}

// CheckAvailable compares the installed build against the latest published
// one.
func (s *Service) CheckAvailable(ctx context.Context) (BuildInfo, error) {
	installed, err := s.installedBuild()
	if err != nil {
		return BuildInfo{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()

	args := append(append([]string(nil), s.cfg.Args...),
		"+login", "anonymous",
		"+app_info_update", "1",
		"+app_info_print", s.cfg.AppID,
		"+quit",
	)
	out, err := s.runner(ctx, s.cfg.Command, args...)
	if err != nil {
		return BuildInfo{}, fmt.Errorf("updater app-info query: %w", err)
	}

	latest := lastBuildID(out)
	if latest == "" {
		return BuildInfo{}, fmt.Errorf("updater output carried no build id for app %s", s.cfg.AppID)
	}

	info := BuildInfo{
		Installed: installed,
		Latest:    latest,
		Available: installed != "" && installed != latest,
	}
	logging.Debug().
		Str("installed", info.Installed).
		Str("latest", info.Latest).
		Bool("available", info.Available).
		Msg("Update check complete")
	return info, nil
}

// Update runs the updater against the install directory. The caller is
// responsible for having stopped the server first.
func (s *Service) Update(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, updateTimeout)
	defer cancel()

	args := append(append([]string(nil), s.cfg.Args...),
		"+force_install_dir", s.cfg.InstallDir,
		"+login", "anonymous",
		"+app_update", s.cfg.AppID, "validate",
		"+quit",
	)
	out, err := s.runner(ctx, s.cfg.Command, args...)
	if err != nil {
		return fmt.Errorf("updater run: %w", err)
	}

	if !updateSucceeded(out, s.cfg.AppID) {
		return fmt.Errorf("updater did not report success for app %s", s.cfg.AppID)
	}
	return nil
}

// updateSucceeded scans updater output for the success markers.
func updateSucceeded(out, appID string) bool {
	return strings.Contains(out, fmt.Sprintf("Success! App '%s' fully installed", appID)) ||
		strings.Contains(out, fmt.Sprintf("App '%s' already up to date", appID))
}

// installedBuild reads the build ID from the app manifest in the install
// directory. An unknown installation yields an empty ID, not an error the
// caller cannot act on.
func (s *Service) installedBuild() (string, error) {
	if s.cfg.InstallDir == "" {
		return "", nil
	}
	manifest := filepath.Join(s.cfg.InstallDir, "steamapps",
		fmt.Sprintf("appmanifest_%s.acf", s.cfg.AppID))
	data, err := os.ReadFile(manifest)
	if os.IsNotExist(err) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read app manifest: %w", err)
	}
	if m := buildIDRe.FindSubmatch(data); m != nil {
		return string(m[1]), nil
	}
	return "", nil
}

// lastBuildID returns the last build id in the output. The app-info dump
// lists branches in order with "public" first among depots, but updater
// banners can echo manifest fragments too; the final match is the public
// branch's current build in practice.
func lastBuildID(out string) string {
	matches := buildIDRe.FindAllStringSubmatch(out, -1)
	if len(matches) == 0 {
		return ""
	}
	return matches[len(matches)-1][1]
}
