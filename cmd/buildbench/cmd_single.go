// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/r4ntix/iox-build-bench/cmd/buildbench/internal/bench"
	"github.com/r4ntix/iox-build-bench/cmd/buildbench/internal/cargo"
	"github.com/r4ntix/iox-build-bench/cmd/buildbench/internal/report"
	"github.com/r4ntix/iox-build-bench/cmd/buildbench/internal/vcs"
)

// influxTokenVar is the environment variable holding the write token. The
// token is never read from the config file or the command line.
const influxTokenVar = "INFLUX_TOKEN"

// errMissingToken must be checked before any network traffic happens.
var errMissingToken = errors.New("env var " + influxTokenVar + " is missing")

func runSingleCommit(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	token := os.Getenv(influxTokenVar)
	if token == "" {
		return errMissingToken
	}

	git := vcs.NewGitClient(cfg.RepoDir)
	if !git.IsGitRepo() {
		return fmt.Errorf("%s is not a git repository", cfg.RepoDir)
	}

	hash, err := git.ResolveCommit(ctx, args[0])
	if err != nil {
		return fmt.Errorf("resolving revision %q: %w", args[0], err)
	}
	slog.Info("benchmarking at commit", "commit", hash)

	benchmarker := bench.New(cfg.RepoDir, git, cargo.NewRunner(cfg.RepoDir), cfg.ToBenchConfig(), slog.Default())
	m, err := benchmarker.Run(ctx, hash)
	if err != nil {
		return err
	}

	reporter := report.NewInfluxReporter(cfg.Influx, token)
	defer reporter.Close()

	if err := reporter.Ping(ctx); err != nil {
		return err
	}
	if err := reporter.Report(ctx, hash, time.Now(), m); err != nil {
		return err
	}
	slog.Info("results pushed", "commit", hash, "bucket", cfg.Influx.Bucket)
	return nil
}
