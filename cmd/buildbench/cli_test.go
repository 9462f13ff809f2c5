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
	"io"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/r4ntix/iox-build-bench/cmd/buildbench/config"
)

func TestRunSingleCommit_MissingTokenFailsBeforeAnythingElse(t *testing.T) {
	t.Setenv(influxTokenVar, "")
	cfg = config.Default()

	err := runSingleCommit(&cobra.Command{}, []string{"HEAD"})
	require.ErrorIs(t, err, errMissingToken)
}

func TestRunDailyToPresent_RejectsBadStartDate(t *testing.T) {
	cfg = config.Default()

	err := runDailyToPresent(&cobra.Command{}, []string{"06/07/2021", "out.csv"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing start date")
}

func TestUnknownSubcommandExitsNonZero(t *testing.T) {
	rootCmd.SetOut(io.Discard)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetArgs([]string{"not-implemented"})
	defer rootCmd.SetArgs(nil)

	err := rootCmd.Execute()
	require.Error(t, err, "unknown subcommands must fail, not exit 0")
}
