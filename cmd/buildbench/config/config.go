// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package config holds the benchmark configuration: which files get
// mutated, what the perturbation markers are, and where results go.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/r4ntix/iox-build-bench/cmd/buildbench/internal/bench"
	"github.com/r4ntix/iox-build-bench/cmd/buildbench/internal/report"
)

// Config is the full tool configuration. Everything has a working default
// for the IOx repository; a yaml file can override individual fields.
type Config struct {
	// RepoDir is the repository the benchmarks run in.
	// Default: current working directory.
	RepoDir string `yaml:"repo_dir"`

	// Bench configures which files the benchmarker mutates.
	Bench BenchConfig `yaml:"bench"`

	// Influx locates the bucket single-commit results are pushed to.
	Influx report.InfluxConfig `yaml:"influx"`
}

// BenchConfig mirrors bench.Config field for field, with yaml tags.
type BenchConfig struct {
	TriggerFile      string `yaml:"trigger_file"`
	FindMarker       string `yaml:"find_marker"`
	ReplaceMarker    string `yaml:"replace_marker"`
	ManifestFile     string `yaml:"manifest_file"`
	QuickProfile     string `yaml:"quick_profile"`
	QuickProfileText string `yaml:"quick_profile_text"`
}

// Default returns the configuration used against the IOx repository.
func Default() Config {
	b := bench.DefaultConfig()
	return Config{
		RepoDir: ".",
		Bench: BenchConfig{
			TriggerFile:      b.TriggerFile,
			FindMarker:       b.FindMarker,
			ReplaceMarker:    b.ReplaceMarker,
			ManifestFile:     b.ManifestFile,
			QuickProfile:     b.QuickProfile,
			QuickProfileText: b.QuickProfileText,
		},
		Influx: report.InfluxConfig{
			URL:    "https://influxdb.aws.influxdata.io",
			Org:    "InfluxData",
			Bucket: "iox-build-bench",
		},
	}
}

// Load returns the defaults overlaid with the yaml file at path. An empty
// path returns the defaults unchanged; fields absent from the file keep
// their default values.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return cfg, nil
}

// ToBenchConfig converts to the benchmarker's explicit configuration record.
func (c Config) ToBenchConfig() bench.Config {
	return bench.Config{
		TriggerFile:      c.Bench.TriggerFile,
		FindMarker:       c.Bench.FindMarker,
		ReplaceMarker:    c.Bench.ReplaceMarker,
		ManifestFile:     c.Bench.ManifestFile,
		QuickProfile:     c.Bench.QuickProfile,
		QuickProfileText: c.Bench.QuickProfileText,
	}
}
