// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package vcs is the version control collaborator: it walks history, checks
// out revisions and restores the working tree, all by shelling out to git.
package vcs

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"github.com/r4ntix/iox-build-bench/cmd/buildbench/internal/sampler"
)

// GitClient runs git commands in a fixed working directory.
//
// # Thread Safety
//
// GitClient is safe for concurrent use, but the operations it performs
// mutate a single working tree; callers must serialize Checkout/Restore.
type GitClient struct {
	workDir string
}

// NewGitClient creates a GitClient rooted at workDir (the repository root).
func NewGitClient(workDir string) *GitClient {
	return &GitClient{workDir: workDir}
}

// IsGitRepo checks if the working directory is a git repository.
func (g *GitClient) IsGitRepo() bool {
	cmd := exec.Command("git", "rev-parse", "--git-dir")
	cmd.Dir = g.workDir
	return cmd.Run() == nil
}

// Revisions returns a stream over the linear history starting at HEAD,
// most recent first.
//
// # Description
//
// Each call to Next resolves HEAD~N for the next N. When git can no longer
// resolve the ancestor (the root commit has been passed), the stream ends
// with sampler.ErrEndOfHistory rather than an error, so callers terminate
// on real history exhaustion instead of an arbitrary iteration cap.
func (g *GitClient) Revisions(ctx context.Context) sampler.Stream {
	return &revisionStream{client: g, ctx: ctx}
}

type revisionStream struct {
	client *GitClient
	ctx    context.Context
	depth  int
}

func (s *revisionStream) Next() (sampler.Revision, error) {
	ref := fmt.Sprintf("HEAD~%d", s.depth)
	out, err := s.client.run(s.ctx, "show", ref, "-s", "--format=%ct %H")
	if err != nil {
		// git exits non-zero once HEAD~N walks past the root commit.
		if s.ctx.Err() != nil {
			return sampler.Revision{}, s.ctx.Err()
		}
		return sampler.Revision{}, sampler.ErrEndOfHistory
	}
	s.depth++
	return parseRevLine(out)
}

// parseRevLine parses one line of `git show -s --format=%ct %H` output.
func parseRevLine(line string) (sampler.Revision, error) {
	fields := strings.Fields(line)
	if len(fields) != 2 {
		return sampler.Revision{}, fmt.Errorf("malformed revision line %q", line)
	}
	secs, err := strconv.ParseInt(fields[0], 10, 64)
	if err != nil {
		return sampler.Revision{}, fmt.Errorf("malformed commit timestamp %q: %w", fields[0], err)
	}
	return sampler.Revision{Time: secs, ID: fields[1]}, nil
}

// ResolveCommit expands a revision reference (branch, tag, abbreviated hash)
// to the full commit hash.
func (g *GitClient) ResolveCommit(ctx context.Context, ref string) (string, error) {
	out, err := g.run(ctx, "show", ref, "-s", "--format=%H")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// Checkout switches the working tree to the given revision. The tree must
// already be clean; uncommitted changes make the checkout fail.
func (g *GitClient) Checkout(ctx context.Context, revision string) error {
	_, err := g.run(ctx, "checkout", revision)
	return err
}

// Restore discards all working tree modifications back to the committed
// state of the current revision.
func (g *GitClient) Restore(ctx context.Context) error {
	_, err := g.run(ctx, "restore", ".")
	return err
}

func (g *GitClient) run(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = g.workDir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("git %s: %w: %s", strings.Join(args, " "), err, strings.TrimSpace(stderr.String()))
	}
	return stdout.String(), nil
}
