// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package sampler selects one representative revision per weekday between a
// start date and the present by walking the revision history backward.
package sampler

import (
	"errors"
	"fmt"
	"time"
)

// DayInterval is the width of a sampling bucket in seconds.
const DayInterval = 24 * 60 * 60

// ErrEndOfHistory is returned by a Stream when there are no older revisions.
// DailySamples treats it as normal termination, not a failure.
var ErrEndOfHistory = errors.New("end of revision history")

// Revision is a single point in version-controlled history.
type Revision struct {
	// Time is the commit timestamp in seconds since epoch, UTC.
	Time int64

	// ID is the opaque revision identifier (a full commit hash for git).
	ID string
}

// Date returns the revision's commit date formatted as YYYY-MM-DD in UTC.
func (r Revision) Date() string {
	return time.Unix(r.Time, 0).UTC().Format("2006-01-02")
}

// Stream yields revisions from most recent to oldest.
//
// # Description
//
// A Stream abstracts the version control collaborator's history walk. Next
// returns the next-older revision on each call and ErrEndOfHistory once the
// root of the history has been passed. Implementations are not required to
// be safe for concurrent use; DailySamples consumes a Stream sequentially.
type Stream interface {
	Next() (Revision, error)
}

// DailySamples walks a revision stream backward from the present and picks
// the most recent revision at or after each daily threshold, skipping
// thresholds that fall on a Saturday or Sunday (UTC).
//
// # Description
//
// The first threshold is the newest revision's timestamp floored to a day
// boundary. Each time the walk crosses a threshold, the last revision seen
// before the crossing is emitted for that threshold and the threshold moves
// back one day, skipping over weekend days. The walk stops once a revision
// at or before start has been seen, or the stream is exhausted.
//
// # Inputs
//
//   - stream: Revision history, most recent first. Must not be nil.
//   - start: Inclusive lower bound, seconds since epoch.
//
// # Outputs
//
//   - []Revision: Selected samples ordered oldest first, ready to benchmark
//     forward in time. May be empty.
//   - error: Non-nil if the stream fails for a reason other than exhaustion.
//
// Emitted sample timestamps are strictly increasing and no two samples share
// a threshold.
func DailySamples(stream Stream, start int64) ([]Revision, error) {
	last, err := stream.Next()
	if err != nil {
		if errors.Is(err, ErrEndOfHistory) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading newest revision: %w", err)
	}

	threshold := last.Time - (last.Time % DayInterval)

	var picked []Revision
	for last.Time > start {
		next, err := stream.Next()
		if err != nil {
			if errors.Is(err, ErrEndOfHistory) {
				break
			}
			return nil, fmt.Errorf("walking revision history: %w", err)
		}
		if next.Time < threshold {
			picked = append(picked, last)
			threshold -= DayInterval
			for isWeekend(threshold) {
				threshold -= DayInterval
			}
		}
		last = next
	}

	// Collected newest-first; the benchmark pass wants oldest-first.
	for i, j := 0, len(picked)-1; i < j; i, j = i+1, j-1 {
		picked[i], picked[j] = picked[j], picked[i]
	}
	return picked, nil
}

func isWeekend(ts int64) bool {
	switch time.Unix(ts, 0).UTC().Weekday() {
	case time.Saturday, time.Sunday:
		return true
	default:
		return false
	}
}
