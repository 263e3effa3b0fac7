// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package run validates screening run identity and manages per-run
// artifact directories and their lifecycle.
package run

import (
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

// idPattern is the strict run id format. Descriptive suffixes are
// rejected: run folders must not be renamed or annotated.
var idPattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}-\d{6}$`)

// ErrInvalidRunID marks a run id that does not match the strict
// YYYY-MM-DD-HHMMSS format.
var ErrInvalidRunID = errors.New("invalid run id")

// Scope identifies one screening run: an immutable id and the
// directory owning all of the run's artifacts. Distinct scopes own
// disjoint directories, which is what isolates concurrent runs.
type Scope struct {
	ID  string
	Dir string
}

// NewID mints a run id from a timestamp (UTC).
func NewID(now time.Time) string {
	return now.UTC().Format("2006-01-02-150405")
}

// Validate checks id against the strict format and binds it to a
// directory under screensRoot.
func Validate(screensRoot, id string) (Scope, error) {
	if !idPattern.MatchString(id) {
		return Scope{}, fmt.Errorf("%w: %q (expected YYYY-MM-DD-HHMMSS)", ErrInvalidRunID, id)
	}
	return Scope{ID: id, Dir: filepath.Join(screensRoot, id)}, nil
}

// Resolve joins segments under the run directory. Any segment that
// would escape the run directory is rejected.
func (s Scope) Resolve(segments ...string) (string, error) {
	path := filepath.Join(append([]string{s.Dir}, segments...)...)

	rel, err := filepath.Rel(s.Dir, path)
	if err != nil {
		return "", fmt.Errorf("resolving %v under %s: %w", segments, s.Dir, err)
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("path %v escapes run directory %s", segments, s.Dir)
	}
	return path, nil
}

// Contains reports whether path resolves inside the run directory.
func (s Scope) Contains(path string) bool {
	abs, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	dir, err := filepath.Abs(s.Dir)
	if err != nil {
		return false
	}
	rel, err := filepath.Rel(dir, abs)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
