// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "strings"

// RuleSet is an allow/deny pair for one preference dimension. An
// explicit deny removes matches; a non-empty allow keeps only matches;
// both empty is a no-op. Matching is case-insensitive.
type RuleSet struct {
	Allow []string `json:"allow,omitempty" yaml:"allow,omitempty"`
	Deny  []string `json:"deny,omitempty" yaml:"deny,omitempty"`
}

// Empty reports whether the rule set constrains nothing.
func (r RuleSet) Empty() bool {
	return len(r.Allow) == 0 && len(r.Deny) == 0
}

// Allows reports whether value passes the rule set.
func (r RuleSet) Allows(value string) bool {
	for _, d := range r.Deny {
		if strings.EqualFold(strings.TrimSpace(d), value) {
			return false
		}
	}
	if len(r.Allow) == 0 {
		return true
	}
	for _, a := range r.Allow {
		if strings.EqualFold(strings.TrimSpace(a), value) {
			return true
		}
	}
	return false
}

// PreferencesDocument holds user-level market/sector/industry policy.
// A zero document applies no filtering beyond the default exchange scope.
type PreferencesDocument struct {
	MarketGuardrail RuleSet `json:"market_guardrail,omitempty" yaml:"market_guardrail,omitempty"`
	SectorFilters   RuleSet `json:"sector_filters,omitempty" yaml:"sector_filters,omitempty"`
	IndustryFilters RuleSet `json:"industry_filters,omitempty" yaml:"industry_filters,omitempty"`
}

// Empty reports whether the document constrains nothing.
func (p PreferencesDocument) Empty() bool {
	return p.MarketGuardrail.Empty() && p.SectorFilters.Empty() && p.IndustryFilters.Empty()
}
