// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package cargo is the build tool collaborator. It wraps the cargo binary
// and times every invocation, since wall-clock duration of the full process
// run is the measurement the benchmarker reports.
package cargo

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// =============================================================================
// Error Definitions
// =============================================================================

var (
	// ErrCargoNotFound is returned when the cargo binary is not on PATH.
	ErrCargoNotFound = errors.New("cargo not found")

	// ErrCommandFailed is returned when a cargo invocation exits non-zero.
	ErrCommandFailed = errors.New("cargo command failed")
)

// Well-known profile names. ProfileDebug and ProfileRelease are implicit
// cargo profiles; anything else is passed through --profile.
const (
	ProfileDebug   = "debug"
	ProfileRelease = "release"
)

// =============================================================================
// Interface Definition
// =============================================================================

// Builder abstracts the build tool operations the benchmarker needs.
//
// # Description
//
// Implementations run one build tool command per call, blocking until the
// process exits. There are no timeouts and no retries; cancellation happens
// through the context, which kills the in-flight process.
//
// # Thread Safety
//
// Implementations operate on a single shared build cache and working tree,
// so calls must not be made concurrently.
type Builder interface {
	// Fetch downloads all dependencies without building anything, so later
	// build timings measure compilation rather than network transfer.
	Fetch(ctx context.Context) (*Result, error)

	// Clean purges all cached build artifacts, forcing the next build to
	// start from a clean state.
	Clean(ctx context.Context) (*Result, error)

	// Build compiles the workspace in the named profile. The debug and
	// release profiles keep separate artifact caches, so building one after
	// the other still measures a clean build of each.
	Build(ctx context.Context, profile string) (*Result, error)
}

// Result captures a single cargo invocation.
type Result struct {
	// Duration is wall-clock time from process start to exit.
	Duration time.Duration

	// Stdout contains standard output.
	Stdout string

	// Stderr contains standard error.
	Stderr string

	// Command is the full command line that was executed (for debugging).
	Command string
}

// =============================================================================
// Implementation
// =============================================================================

// Runner is the real Builder backed by the cargo binary.
type Runner struct {
	workDir string
}

var _ Builder = (*Runner)(nil)

// NewRunner creates a Runner rooted at workDir (the crate or workspace root).
func NewRunner(workDir string) *Runner {
	return &Runner{workDir: workDir}
}

// Available reports whether the cargo binary can be found on PATH.
func (r *Runner) Available() bool {
	_, err := exec.LookPath("cargo")
	return err == nil
}

func (r *Runner) Fetch(ctx context.Context) (*Result, error) {
	return r.run(ctx, "fetch")
}

func (r *Runner) Clean(ctx context.Context) (*Result, error) {
	return r.run(ctx, "clean")
}

func (r *Runner) Build(ctx context.Context, profile string) (*Result, error) {
	return r.run(ctx, buildArgs(profile)...)
}

// buildArgs maps a profile name onto a cargo command line.
func buildArgs(profile string) []string {
	switch profile {
	case "", ProfileDebug:
		return []string{"build"}
	case ProfileRelease:
		return []string{"build", "--release"}
	default:
		return []string{"build", "--profile", profile}
	}
}

func (r *Runner) run(ctx context.Context, args ...string) (*Result, error) {
	if _, err := exec.LookPath("cargo"); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCargoNotFound, err)
	}

	cmd := exec.CommandContext(ctx, "cargo", args...)
	cmd.Dir = r.workDir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	started := time.Now()
	err := cmd.Run()
	elapsed := time.Since(started)

	result := &Result{
		Duration: elapsed,
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Command:  "cargo " + strings.Join(args, " "),
	}
	if err != nil {
		return result, fmt.Errorf("%w: %s: %v: %s",
			ErrCommandFailed, result.Command, err, tail(result.Stderr, 10))
	}
	return result, nil
}

// tail returns the last n lines of s, enough context to see the actual
// compile error without dumping the full build log into one log line.
func tail(s string, n int) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "\n")
}
