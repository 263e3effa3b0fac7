// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package run

import (
	"fmt"
	"io"
	"os"
)

// Artifacts tracks intermediate sidecar files produced during a run so
// they can be removed once the run completes. The queue file itself is
// never registered.
type Artifacts struct {
	scope Scope
	paths []string
}

// NewArtifacts returns an artifact tracker for one run scope.
func NewArtifacts(scope Scope) *Artifacts {
	return &Artifacts{scope: scope}
}

// Register records a sidecar path for later cleanup. Paths outside the
// run directory are ignored: cleanup must not reach beyond the run.
func (a *Artifacts) Register(path string) {
	if path == "" || !a.scope.Contains(path) {
		return
	}
	for _, p := range a.paths {
		if p == path {
			return
		}
	}
	a.paths = append(a.paths, path)
}

// Cleanup removes registered sidecars after a successful run. When keep
// is set, or when the run failed, everything is left in place; failed
// runs retain their artifacts for debugging regardless of keep.
// Removal errors are logged to w and never escalated.
func (a *Artifacts) Cleanup(keep, failed bool, w io.Writer) []string {
	if keep || failed {
		return nil
	}

	var cleaned []string
	for _, path := range a.paths {
		if err := os.Remove(path); err != nil {
			if !os.IsNotExist(err) {
				fmt.Fprintf(w, "warning: could not remove artifact %s: %v\n", path, err)
			}
			continue
		}
		cleaned = append(cleaned, path)
	}
	return cleaned
}
