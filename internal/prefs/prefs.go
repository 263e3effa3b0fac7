// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package prefs loads the user preferences document and enforces its
// market/sector/industry policy on candidate and idea sets.
package prefs

import (
	"fmt"
	"os"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/idea-screener/pkg/types"
)

// usMarket is the market this source domain serves.
const usMarket = "US"

// MarketExcludedError is the loud failure raised when the preferences
// document excludes the US market and the bypass is not set. It is
// distinguishable from "no candidates found" so callers do not mistake
// a policy stop for an exhaustive empty search.
type MarketExcludedError struct {
	Market string
}

func (e *MarketExcludedError) Error() string {
	return fmt.Sprintf("market %s is excluded by the preferences document (use the preference bypass to override)", e.Market)
}

// Load reads a preferences document (YAML; JSON parses as YAML). An
// unreadable or malformed file is a configuration error.
func Load(path string) (types.PreferencesDocument, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return types.PreferencesDocument{}, fmt.Errorf("reading preferences %s: %w", path, err)
	}
	var doc types.PreferencesDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return types.PreferencesDocument{}, fmt.Errorf("parsing preferences %s: %w", path, err)
	}
	return doc, nil
}

// LoadOptional reads the document at path if it exists. A missing file
// means no filtering beyond the default exchange scope.
func LoadOptional(path string) (types.PreferencesDocument, error) {
	if path == "" {
		return types.PreferencesDocument{}, nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return types.PreferencesDocument{}, nil
	}
	return Load(path)
}

// CheckMarket fails fast when the guardrail excludes the US market.
// With ignore set the check is bypassed entirely.
func CheckMarket(doc types.PreferencesDocument, ignore bool) error {
	if ignore {
		return nil
	}
	if !doc.MarketGuardrail.Allows(usMarket) {
		return &MarketExcludedError{Market: usMarket}
	}
	return nil
}

// ApplyRows gates candidate rows on the sector/industry rules. It
// fails with MarketExcludedError before producing any partial output
// when the market guardrail rejects US. ignore bypasses the enforcer
// and returns the input unchanged.
func ApplyRows(rows []types.CandidateRow, doc types.PreferencesDocument, ignore bool) ([]types.CandidateRow, error) {
	if ignore {
		return rows, nil
	}
	if err := CheckMarket(doc, false); err != nil {
		return nil, err
	}
	if doc.SectorFilters.Empty() && doc.IndustryFilters.Empty() {
		return rows, nil
	}

	kept := make([]types.CandidateRow, 0, len(rows))
	for _, row := range rows {
		if doc.SectorFilters.Allows(row.Sector) && doc.IndustryFilters.Allows(row.Industry) {
			kept = append(kept, row)
		}
	}
	return kept, nil
}

// ApplyIdeas gates final idea records before commit, with the same
// semantics as ApplyRows. The enforcer is consulted twice per run:
// once on the fetched universe, once here.
func ApplyIdeas(ideas []types.IdeaRecord, doc types.PreferencesDocument, ignore bool) ([]types.IdeaRecord, error) {
	if ignore {
		return ideas, nil
	}
	if err := CheckMarket(doc, false); err != nil {
		return nil, err
	}
	if doc.SectorFilters.Empty() && doc.IndustryFilters.Empty() {
		return ideas, nil
	}

	kept := make([]types.IdeaRecord, 0, len(ideas))
	for _, idea := range ideas {
		if doc.SectorFilters.Allows(idea.Sector) && doc.IndustryFilters.Allows(idea.Industry) {
			kept = append(kept, idea)
		}
	}
	return kept, nil
}
