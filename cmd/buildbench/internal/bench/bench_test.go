// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package bench

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/r4ntix/iox-build-bench/cmd/buildbench/internal/cargo"
)

const (
	fixtureTrigger  = "fn decode() { unreachable!(\"bad column\") }\n"
	fixtureManifest = "[workspace]\nmembers = [\"read_buffer\"]\n"
)

// benchFixture is a fake repository: a trigger file and a manifest on disk,
// plus fake collaborators that record the call sequence.
type benchFixture struct {
	dir     string
	cfg     Config
	vcs     *fakeVCS
	builder *fakeBuilder
}

func newBenchFixture(t *testing.T) *benchFixture {
	t.Helper()
	dir := t.TempDir()
	cfg := DefaultConfig()
	cfg.TriggerFile = "column.rs"
	cfg.ManifestFile = "Cargo.toml"

	require.NoError(t, os.WriteFile(filepath.Join(dir, cfg.TriggerFile), []byte(fixtureTrigger), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, cfg.ManifestFile), []byte(fixtureManifest), 0o644))

	f := &benchFixture{dir: dir, cfg: cfg}
	f.vcs = &fakeVCS{fixture: f}
	f.builder = &fakeBuilder{fixture: f}
	return f
}

func (f *benchFixture) benchmarker() *Benchmarker {
	return New(f.dir, f.vcs, f.builder, f.cfg, nil)
}

func (f *benchFixture) readTrigger(t *testing.T) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(f.dir, f.cfg.TriggerFile))
	require.NoError(t, err)
	return string(data)
}

func (f *benchFixture) readManifest(t *testing.T) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(f.dir, f.cfg.ManifestFile))
	require.NoError(t, err)
	return string(data)
}

// fakeVCS records calls; Restore rewrites the tracked fixture files back to
// their committed content, like `git restore .` would.
type fakeVCS struct {
	fixture *benchFixture
	calls   []string
}

func (v *fakeVCS) Checkout(_ context.Context, revision string) error {
	v.calls = append(v.calls, "checkout "+revision)
	return nil
}

func (v *fakeVCS) Restore(context.Context) error {
	v.calls = append(v.calls, "restore")
	dir, cfg := v.fixture.dir, v.fixture.cfg
	if err := os.WriteFile(filepath.Join(dir, cfg.TriggerFile), []byte(fixtureTrigger), 0o644); err != nil {
		return err
	}
	// The manifest is left alone so the tests prove the append scope's own
	// restore closure removes the profile block.
	return nil
}

// fakeBuilder returns 1s, 2s, 3s... for successive builds and snapshots the
// trigger file at each build so tests can assert the perturbation ordering.
type fakeBuilder struct {
	fixture      *benchFixture
	calls        []string
	builds       int
	failOnBuild  int // 1-based index of the build call that should fail
	triggerSeen  []bool
	manifestSeen []bool
}

func (b *fakeBuilder) Fetch(context.Context) (*cargo.Result, error) {
	b.calls = append(b.calls, "fetch")
	return &cargo.Result{}, nil
}

func (b *fakeBuilder) Clean(context.Context) (*cargo.Result, error) {
	b.calls = append(b.calls, "clean")
	return &cargo.Result{}, nil
}

func (b *fakeBuilder) Build(_ context.Context, profile string) (*cargo.Result, error) {
	b.calls = append(b.calls, "build "+profile)
	b.builds++

	trigger, err := os.ReadFile(filepath.Join(b.fixture.dir, b.fixture.cfg.TriggerFile))
	if err != nil {
		return nil, err
	}
	manifest, err := os.ReadFile(filepath.Join(b.fixture.dir, b.fixture.cfg.ManifestFile))
	if err != nil {
		return nil, err
	}
	b.triggerSeen = append(b.triggerSeen, string(trigger) != fixtureTrigger)
	b.manifestSeen = append(b.manifestSeen, string(manifest) != fixtureManifest)

	if b.failOnBuild == b.builds {
		return nil, fmt.Errorf("%w: cargo build", cargo.ErrCommandFailed)
	}
	return &cargo.Result{Duration: time.Duration(b.builds) * time.Second}, nil
}

func TestBenchmarker_Run_MeasurementOrder(t *testing.T) {
	f := newBenchFixture(t)

	m, err := f.benchmarker().Run(context.Background(), "abc123")
	require.NoError(t, err)

	// Execution order is debug, release, debug rebuild, release rebuild,
	// quick, quick rebuild; the durations must land in the right fields.
	assert.Equal(t, 1*time.Second, m.DebugBuild)
	assert.Equal(t, 2*time.Second, m.ReleaseBuild)
	assert.Equal(t, 3*time.Second, m.DebugRebuild)
	assert.Equal(t, 4*time.Second, m.ReleaseRebuild)
	assert.Equal(t, 5*time.Second, m.QuickBuild)
	assert.Equal(t, 6*time.Second, m.QuickRebuild)
}

func TestBenchmarker_Run_Sequence(t *testing.T) {
	f := newBenchFixture(t)

	_, err := f.benchmarker().Run(context.Background(), "abc123")
	require.NoError(t, err)

	assert.Equal(t, []string{"checkout abc123", "restore", "restore"}, f.vcs.calls)
	assert.Equal(t, []string{
		"fetch", "clean",
		"build debug", "build release",
		"build debug", "build release",
		"clean",
		"build quick-release-tmp", "build quick-release-tmp",
	}, f.builder.calls)

	// Builds 1-2 run against the clean tree, 3-4 against the perturbed
	// tree, 5 clean again, 6 perturbed again.
	assert.Equal(t, []bool{false, false, true, true, false, true}, f.builder.triggerSeen)
	// The profile block is only present for the two quick-release builds.
	assert.Equal(t, []bool{false, false, false, false, true, true}, f.builder.manifestSeen)
}

func TestBenchmarker_Run_RestoresEverything(t *testing.T) {
	f := newBenchFixture(t)

	_, err := f.benchmarker().Run(context.Background(), "abc123")
	require.NoError(t, err)

	assert.Equal(t, fixtureTrigger, f.readTrigger(t))
	assert.Equal(t, fixtureManifest, f.readManifest(t))
}

func TestBenchmarker_Run_RestoresOnBuildFailure(t *testing.T) {
	for failOn := 1; failOn <= 6; failOn++ {
		t.Run(fmt.Sprintf("build_%d", failOn), func(t *testing.T) {
			f := newBenchFixture(t)
			f.builder.failOnBuild = failOn

			_, err := f.benchmarker().Run(context.Background(), "abc123")
			require.ErrorIs(t, err, cargo.ErrCommandFailed)

			assert.Equal(t, fixtureTrigger, f.readTrigger(t), "trigger file must be restored")
			assert.Equal(t, fixtureManifest, f.readManifest(t), "manifest must be restored")
			assert.Equal(t, "restore", f.vcs.calls[len(f.vcs.calls)-1])
		})
	}
}

func TestBenchmarker_Run_CheckoutFailureIsFatal(t *testing.T) {
	f := newBenchFixture(t)
	failing := &failingVCS{}

	_, err := New(f.dir, failing, f.builder, f.cfg, nil).Run(context.Background(), "abc123")
	require.Error(t, err)
	assert.Empty(t, f.builder.calls, "no build may run after a failed checkout")
	assert.False(t, failing.restored, "nothing to restore before the first mutation")
}

type failingVCS struct{ restored bool }

func (v *failingVCS) Checkout(context.Context, string) error {
	return fmt.Errorf("pathspec did not match")
}

func (v *failingVCS) Restore(context.Context) error {
	v.restored = true
	return nil
}
