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
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/r4ntix/iox-build-bench/cmd/buildbench/internal/bench"
	"github.com/r4ntix/iox-build-bench/cmd/buildbench/internal/cargo"
	"github.com/r4ntix/iox-build-bench/cmd/buildbench/internal/report"
	"github.com/r4ntix/iox-build-bench/cmd/buildbench/internal/sampler"
	"github.com/r4ntix/iox-build-bench/cmd/buildbench/internal/vcs"
)

func runDailyToPresent(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	start, err := time.ParseInLocation("2006-01-02", args[0], time.UTC)
	if err != nil {
		return fmt.Errorf("parsing start date %q: %w", args[0], err)
	}
	outputFile := args[1]

	git := vcs.NewGitClient(cfg.RepoDir)
	if !git.IsGitRepo() {
		return fmt.Errorf("%s is not a git repository", cfg.RepoDir)
	}

	slog.Info("collecting daily benchmarks",
		"start", start.Format("2006-01-02"), "output", outputFile)

	samples, err := sampler.DailySamples(git.Revisions(ctx), start.Unix())
	if err != nil {
		return fmt.Errorf("sampling revisions: %w", err)
	}
	slog.Info("selected revisions", "count", len(samples))

	f, err := os.Create(outputFile)
	if err != nil {
		return fmt.Errorf("creating output file: %w", err)
	}
	defer f.Close()

	csvw, err := report.NewCSVWriter(f)
	if err != nil {
		return err
	}

	benchmarker := bench.New(cfg.RepoDir, git, cargo.NewRunner(cfg.RepoDir), cfg.ToBenchConfig(), slog.Default())

	for _, rev := range samples {
		slog.Info("benchmarking", "date", rev.Date(), "commit", rev.ID)
		m, err := benchmarker.Run(ctx, rev.ID)
		if err != nil {
			// Interrupts abort the batch; a broken revision does not.
			if ctx.Err() != nil {
				return ctx.Err()
			}
			slog.Error("failed to build", "date", rev.Date(), "commit", rev.ID, "error", err)
			continue
		}
		if err := csvw.WriteRow(rev.Date(), rev.ID, m); err != nil {
			return err
		}
	}
	return nil
}
