// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package bench runs the build benchmark sequence against one revision of
// the working tree: clean debug, release and quick-release builds, each
// followed by an incremental rebuild forced by a one-line source change.
package bench

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/r4ntix/iox-build-bench/cmd/buildbench/internal/cargo"
)

// VersionControl is the slice of the vcs collaborator the benchmarker needs.
type VersionControl interface {
	// Checkout switches the working tree to the given revision.
	Checkout(ctx context.Context, revision string) error

	// Restore discards all working tree modifications.
	Restore(ctx context.Context) error
}

// Config describes the files the benchmarker is allowed to mutate. It is
// passed in explicitly so tests can point everything at fixtures.
type Config struct {
	// TriggerFile is the source file perturbed to force an incremental
	// rebuild, relative to the repository root. Its content is never
	// semantically relevant; it only has to recompile.
	TriggerFile string

	// FindMarker and ReplaceMarker are the perturbation pair: the first
	// line containing FindMarker gets it replaced with ReplaceMarker.
	FindMarker    string
	ReplaceMarker string

	// ManifestFile is the build configuration file the quick-release
	// profile block is appended to, relative to the repository root.
	ManifestFile string

	// QuickProfile is the name of the temporary compile-speed profile.
	QuickProfile string

	// QuickProfileText is the profile block appended to ManifestFile. It
	// must declare QuickProfile.
	QuickProfileText string
}

// DefaultConfig returns the configuration used against the IOx repository.
func DefaultConfig() Config {
	return Config{
		TriggerFile:   "read_buffer/src/column.rs",
		FindMarker:    "unreachable!",
		ReplaceMarker: "panic!",
		ManifestFile:  "Cargo.toml",
		QuickProfile:  "quick-release-tmp",
		QuickProfileText: `
[profile.quick-release-tmp]
inherits = "release"
codegen-units = 16
lto = false
incremental = true
`,
	}
}

// Measurements holds the six wall-clock durations of one benchmark run.
type Measurements struct {
	DebugBuild     time.Duration
	DebugRebuild   time.Duration
	ReleaseBuild   time.Duration
	ReleaseRebuild time.Duration
	QuickBuild     time.Duration
	QuickRebuild   time.Duration
}

// Benchmarker drives the vcs and build tool collaborators through the
// benchmark sequence. It mutates one shared working tree and one build
// cache, so only one Run may be in flight at a time.
type Benchmarker struct {
	vcs     VersionControl
	builder cargo.Builder
	cfg     Config
	workDir string
	log     *slog.Logger
}

// New creates a Benchmarker for the repository at workDir.
func New(workDir string, vc VersionControl, builder cargo.Builder, cfg Config, log *slog.Logger) *Benchmarker {
	if log == nil {
		log = slog.Default()
	}
	return &Benchmarker{vcs: vc, builder: builder, cfg: cfg, workDir: workDir, log: log}
}

// Run benchmarks a single revision and returns the six measurements.
//
// # Description
//
// The sequence is destructive: it checks out the revision, cleans the build
// cache, perturbs the trigger file and appends a temporary profile to the
// manifest. Every mutation is restored on every exit path, including error
// and cancellation: the manifest append holds a truncate-back closure, and
// a final working-tree restore is deferred before the first mutation. Each
// step must succeed before the next begins; the first failure aborts the
// run with an error naming the step.
//
// # Inputs
//
//   - ctx: Cancelling it kills the in-flight external command; the deferred
//     restores still run.
//   - revision: Revision id to benchmark. The working tree must be clean.
//
// # Outputs
//
//   - *Measurements: The six durations, nil on error.
//   - error: Non-nil if any external command fails.
func (b *Benchmarker) Run(ctx context.Context, revision string) (m *Measurements, err error) {
	if err := b.vcs.Checkout(ctx, revision); err != nil {
		return nil, fmt.Errorf("checkout %s: %w", revision, err)
	}

	// From here on the tree gets mutated. Restore it whatever happens,
	// even when ctx is already cancelled.
	defer func() {
		cleanupCtx := context.WithoutCancel(ctx)
		if rerr := b.vcs.Restore(cleanupCtx); rerr != nil && err == nil {
			err = fmt.Errorf("restoring working tree: %w", rerr)
		}
	}()

	// Nothing left to download, everything left to build.
	if _, err := b.builder.Fetch(ctx); err != nil {
		return nil, fmt.Errorf("fetching dependencies: %w", err)
	}
	if _, err := b.builder.Clean(ctx); err != nil {
		return nil, fmt.Errorf("cleaning build cache: %w", err)
	}

	m = &Measurements{}

	b.log.Info("benchmark debug build")
	if m.DebugBuild, err = b.timedBuild(ctx, cargo.ProfileDebug); err != nil {
		return nil, err
	}

	b.log.Info("benchmark release build")
	if m.ReleaseBuild, err = b.timedBuild(ctx, cargo.ProfileRelease); err != nil {
		return nil, err
	}

	b.log.Info("perturb trigger file")
	if err := b.perturb(); err != nil {
		return nil, err
	}

	b.log.Info("benchmark debug rebuild")
	if m.DebugRebuild, err = b.timedBuild(ctx, cargo.ProfileDebug); err != nil {
		return nil, err
	}

	b.log.Info("benchmark release rebuild")
	if m.ReleaseRebuild, err = b.timedBuild(ctx, cargo.ProfileRelease); err != nil {
		return nil, err
	}

	b.log.Info("reset working tree and build cache")
	if err := b.vcs.Restore(ctx); err != nil {
		return nil, fmt.Errorf("restoring working tree: %w", err)
	}
	if _, err := b.builder.Clean(ctx); err != nil {
		return nil, fmt.Errorf("cleaning build cache: %w", err)
	}

	restoreManifest, err := AppendWithRestore(
		filepath.Join(b.workDir, b.cfg.ManifestFile), b.cfg.QuickProfileText)
	if err != nil {
		return nil, fmt.Errorf("appending quick-release profile: %w", err)
	}
	defer func() {
		if rerr := restoreManifest(); rerr != nil && err == nil {
			err = rerr
		}
	}()

	b.log.Info("benchmark quick release build")
	if m.QuickBuild, err = b.timedBuild(ctx, b.cfg.QuickProfile); err != nil {
		return nil, err
	}

	b.log.Info("perturb trigger file")
	if err := b.perturb(); err != nil {
		return nil, err
	}

	b.log.Info("benchmark quick release rebuild")
	if m.QuickRebuild, err = b.timedBuild(ctx, b.cfg.QuickProfile); err != nil {
		return nil, err
	}

	return m, nil
}

func (b *Benchmarker) timedBuild(ctx context.Context, profile string) (time.Duration, error) {
	res, err := b.builder.Build(ctx, profile)
	if err != nil {
		return 0, fmt.Errorf("building profile %s: %w", profile, err)
	}
	return res.Duration, nil
}

func (b *Benchmarker) perturb() error {
	path := filepath.Join(b.workDir, b.cfg.TriggerFile)
	if err := ReplaceOnce(path, b.cfg.FindMarker, b.cfg.ReplaceMarker); err != nil {
		return fmt.Errorf("perturbing %s: %w", b.cfg.TriggerFile, err)
	}
	return nil
}
