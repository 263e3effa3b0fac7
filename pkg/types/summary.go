// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// RunSummary reports what one screening run did. The counts are enough
// for a caller to judge success or degradation without re-reading the
// queue file.
type RunSummary struct {
	RunID string `json:"run_id"`

	// Fetched is the size of the merged candidate universe.
	Fetched int `json:"fetched"`

	// Filtered is the candidate count after quality and preference gates.
	Filtered int `json:"filtered"`

	// Reconciled is the number of selection entries matched to candidates.
	Reconciled int `json:"reconciled"`

	// Written is the number of records appended to the queue file.
	Written int `json:"written"`

	// SkippedDuplicate counts records already present in the queue.
	SkippedDuplicate int `json:"skipped_duplicate"`

	// UnmatchedSelection counts selection entries with no candidate match.
	UnmatchedSelection int `json:"unmatched_selection"`

	// ValidationRejected counts records dropped by schema validation
	// or an empty thesis.
	ValidationRejected int `json:"validation_rejected"`

	// PagesRequested and PagesFetched describe source coverage across
	// all exchanges; a shortfall marks a degraded (partial) universe.
	PagesRequested int `json:"pages_requested"`
	PagesFetched   int `json:"pages_fetched"`

	QueuePath     string `json:"queue_path,omitempty"`
	CandidatePath string `json:"candidate_path,omitempty"`
}

// Degraded reports whether the source coverage fell short of the request.
func (s RunSummary) Degraded() bool {
	return s.PagesFetched < s.PagesRequested
}
