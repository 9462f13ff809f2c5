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
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFixture(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestReplaceOnce_FirstOccurrenceOnly(t *testing.T) {
	const src = `fn a() { unreachable!("one") }
fn b() { ok() }
fn c() { unreachable!("two") }
`
	path := writeFixture(t, "column.rs", src)

	require.NoError(t, ReplaceOnce(path, "unreachable!", "panic!"))

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	want := `fn a() { panic!("one") }
fn b() { ok() }
fn c() { unreachable!("two") }
`
	assert.Equal(t, want, string(got), "only the first matching line may change")
}

func TestReplaceOnce_AllOccurrencesWithinLine(t *testing.T) {
	path := writeFixture(t, "column.rs", "unreachable! unreachable!\nunreachable!\n")

	require.NoError(t, ReplaceOnce(path, "unreachable!", "panic!"))

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "panic! panic!\nunreachable!\n", string(got))
}

func TestReplaceOnce_MarkerMissing(t *testing.T) {
	path := writeFixture(t, "column.rs", "fn a() {}\n")

	err := ReplaceOnce(path, "unreachable!", "panic!")
	require.ErrorIs(t, err, ErrMarkerNotFound)

	got, rerr := os.ReadFile(path)
	require.NoError(t, rerr)
	assert.Equal(t, "fn a() {}\n", string(got), "file must be untouched")
}

func TestAppendWithRestore_RoundTrip(t *testing.T) {
	const manifest = "[workspace]\nmembers = [\"read_buffer\"]\n"
	path := writeFixture(t, "Cargo.toml", manifest)

	restore, err := AppendWithRestore(path, DefaultConfig().QuickProfileText)
	require.NoError(t, err)

	appended, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(appended), "[profile.quick-release-tmp]")

	require.NoError(t, restore())

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, manifest, string(got), "restore must be byte-identical")

	// A second restore after the file is already back is a no-op.
	require.NoError(t, restore())
	got, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, manifest, string(got))
}
