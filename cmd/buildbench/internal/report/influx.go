// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package report

import (
	"context"
	"errors"
	"fmt"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/r4ntix/iox-build-bench/cmd/buildbench/internal/bench"
)

// ErrInfluxUnhealthy is returned when the health probe does not pass.
var ErrInfluxUnhealthy = errors.New("InfluxDB health check failed")

// measurement is the InfluxDB measurement all build points are written to.
const measurement = "build"

// InfluxConfig locates the time-series bucket build points are pushed to.
type InfluxConfig struct {
	URL    string `yaml:"url"`
	Org    string `yaml:"org"`
	Bucket string `yaml:"bucket"`
}

// InfluxReporter pushes one benchmark run as six tagged points sharing a
// single timestamp.
type InfluxReporter struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
}

// NewInfluxReporter creates a reporter. The token comes from the
// environment, never from the config file.
func NewInfluxReporter(cfg InfluxConfig, token string) *InfluxReporter {
	client := influxdb2.NewClient(cfg.URL, token)
	return &InfluxReporter{
		client:   client,
		writeAPI: client.WriteAPIBlocking(cfg.Org, cfg.Bucket),
	}
}

// Ping probes the server's health endpoint. A failed probe is fatal to the
// caller; there is no retry.
func (r *InfluxReporter) Ping(ctx context.Context) error {
	health, err := r.client.Health(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInfluxUnhealthy, err)
	}
	if health.Status != "pass" {
		msg := string(health.Status)
		if health.Message != nil {
			msg = *health.Message
		}
		return fmt.Errorf("%w: %s", ErrInfluxUnhealthy, msg)
	}
	return nil
}

// Report writes the six measurement points for one revision.
func (r *InfluxReporter) Report(ctx context.Context, hash string, ts time.Time, m *bench.Measurements) error {
	if err := r.writeAPI.WritePoint(ctx, buildPoints(hash, ts, m)...); err != nil {
		return fmt.Errorf("writing points for %s: %w", hash, err)
	}
	return nil
}

// Close releases the underlying HTTP client.
func (r *InfluxReporter) Close() {
	r.client.Close()
}

// buildPoints lays out one run as six points tagged by profile and build
// type, all sharing the caller-supplied timestamp.
func buildPoints(hash string, ts time.Time, m *bench.Measurements) []*write.Point {
	durations := []struct {
		profile   string
		buildType string
		d         time.Duration
	}{
		{"debug", "build", m.DebugBuild},
		{"debug", "rebuild", m.DebugRebuild},
		{"release", "build", m.ReleaseBuild},
		{"release", "rebuild", m.ReleaseRebuild},
		{"quick-release", "build", m.QuickBuild},
		{"quick-release", "rebuild", m.QuickRebuild},
	}

	points := make([]*write.Point, 0, len(durations))
	for _, entry := range durations {
		points = append(points, influxdb2.NewPoint(
			measurement,
			map[string]string{
				"profile":    entry.profile,
				"build_type": entry.buildType,
			},
			map[string]interface{}{
				"commit_hash": hash,
				"duration":    entry.d.Seconds(),
			},
			ts,
		))
	}
	return points
}
