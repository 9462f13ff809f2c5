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
	"errors"
	"fmt"
	"os"
	"strings"
)

// ErrMarkerNotFound is returned when the perturbation marker does not occur
// in the trigger file, which would make the rebuild measurement a no-op.
var ErrMarkerNotFound = errors.New("perturbation marker not found")

// ReplaceOnce rewrites the first line of the file that contains find,
// replacing every occurrence of find within that line. All other lines are
// left byte-identical, even when they also contain find.
//
// The change is textual only; it exists to force the build tool to
// recompile the file and its dependents.
func ReplaceOnce(path, find, replace string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading trigger file: %w", err)
	}

	lines := strings.SplitAfter(string(data), "\n")
	for i, line := range lines {
		if strings.Contains(line, find) {
			lines[i] = strings.ReplaceAll(line, find, replace)
			mode := fileMode(path)
			if err := os.WriteFile(path, []byte(strings.Join(lines, "")), mode); err != nil {
				return fmt.Errorf("writing trigger file: %w", err)
			}
			return nil
		}
	}
	return fmt.Errorf("%w: %q in %s", ErrMarkerNotFound, find, path)
}

// AppendWithRestore appends text to the file and returns a closure that
// truncates the file back to its original length.
//
// # Description
//
// The restore closure is idempotent as long as nothing else writes the
// file: after a `git restore` has already rewritten the file to its
// committed content, truncating to the original length is a no-op. Callers
// defer the closure so the appended block is removed on every exit path.
func AppendWithRestore(path, text string) (func() error, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	origSize := info.Size()

	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, info.Mode())
	if err != nil {
		return nil, fmt.Errorf("opening %s for append: %w", path, err)
	}
	_, werr := f.WriteString(text)
	cerr := f.Close()
	if werr != nil {
		return nil, fmt.Errorf("appending to %s: %w", path, werr)
	}
	if cerr != nil {
		return nil, fmt.Errorf("closing %s: %w", path, cerr)
	}

	restore := func() error {
		if err := os.Truncate(path, origSize); err != nil {
			return fmt.Errorf("restoring %s: %w", path, err)
		}
		return nil
	}
	return restore, nil
}

func fileMode(path string) os.FileMode {
	if info, err := os.Stat(path); err == nil {
		return info.Mode()
	}
	return 0o644
}
