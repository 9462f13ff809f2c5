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
	"github.com/spf13/cobra"

	"github.com/r4ntix/iox-build-bench/cmd/buildbench/config"
)

// --- Global Command Variables ---
var (
	configPath string
	cfg        config.Config

	rootCmd = &cobra.Command{
		Use:   "buildbench",
		Short: "Benchmark cargo build times across historical revisions",
		Long: `buildbench checks out historical revisions of a cargo workspace and
times clean and incremental builds of the debug, release and a temporary
quick-release profile. Results go to a CSV file (batch mode) or to
InfluxDB (single revision mode).`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cfg, err = config.Load(configPath)
			return err
		},
	}

	dailyCmd = &cobra.Command{
		Use:   "daily-to-present [start-date] [output-file]",
		Short: "Benchmark one revision per weekday from start-date to now, writing CSV",
		Args:  cobra.ExactArgs(2),
		RunE:  runDailyToPresent, // Defined in cmd_daily.go
	}

	singleCmd = &cobra.Command{
		Use:   "single-commit [revision]",
		Short: "Benchmark one revision and push the results to InfluxDB",
		Args:  cobra.ExactArgs(1),
		RunE:  runSingleCommit, // Defined in cmd_single.go
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "",
		"optional yaml file overriding the built-in IOx defaults")

	rootCmd.AddCommand(dailyCmd)
	rootCmd.AddCommand(singleCmd)
}
