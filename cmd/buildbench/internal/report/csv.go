// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package report persists benchmark results, either as CSV rows on local
// disk or as tagged points in an InfluxDB bucket.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/r4ntix/iox-build-bench/cmd/buildbench/internal/bench"
)

// csvHeader is the fixed column layout consumed by the analysis notebooks.
var csvHeader = []string{
	"date", "hash",
	"debug build", "debug rebuild",
	"release build", "release rebuild",
	"qr build", "qr rebuild",
}

// CSVWriter appends one row per benchmarked revision to an io.Writer.
// Every row is flushed immediately so a killed batch run keeps the work
// already done.
type CSVWriter struct {
	w *csv.Writer
}

// NewCSVWriter writes the header row and returns the writer.
func NewCSVWriter(w io.Writer) (*CSVWriter, error) {
	cw := &CSVWriter{w: csv.NewWriter(w)}
	if err := cw.w.Write(csvHeader); err != nil {
		return nil, fmt.Errorf("writing CSV header: %w", err)
	}
	cw.w.Flush()
	if err := cw.w.Error(); err != nil {
		return nil, fmt.Errorf("flushing CSV header: %w", err)
	}
	return cw, nil
}

// WriteRow appends the measurements for one revision. Durations are
// truncated to whole seconds; date must already be formatted YYYY-MM-DD.
func (c *CSVWriter) WriteRow(date, hash string, m *bench.Measurements) error {
	row := []string{
		date, hash,
		seconds(m.DebugBuild), seconds(m.DebugRebuild),
		seconds(m.ReleaseBuild), seconds(m.ReleaseRebuild),
		seconds(m.QuickBuild), seconds(m.QuickRebuild),
	}
	if err := c.w.Write(row); err != nil {
		return fmt.Errorf("writing CSV row for %s: %w", hash, err)
	}
	c.w.Flush()
	if err := c.w.Error(); err != nil {
		return fmt.Errorf("flushing CSV row for %s: %w", hash, err)
	}
	return nil
}

func seconds(d time.Duration) string {
	return strconv.FormatInt(int64(d.Seconds()), 10)
}
