// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package source

import (
	"strconv"
	"strings"
)

// The screener renders missing values as "-" or an empty cell.

// parseNumber parses a plain numeric cell ("12.34", "1,234.5").
func parseNumber(value string) (float64, bool) {
	cleaned := strings.ReplaceAll(strings.TrimSpace(value), ",", "")
	if cleaned == "" || cleaned == "-" {
		return 0, false
	}
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// parsePercent parses a percent cell ("18.30%") into its percent value.
func parsePercent(value string) (float64, bool) {
	cleaned := strings.TrimSpace(value)
	cleaned = strings.TrimSuffix(cleaned, "%")
	return parseNumber(cleaned)
}

// parseMarketCap parses a scaled market cap cell ("1.50B", "300.21M",
// "2.85T") into USD.
func parseMarketCap(value string) (float64, bool) {
	cleaned := strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(value), ",", ""))
	if cleaned == "" || cleaned == "-" {
		return 0, false
	}

	scale := 1.0
	switch {
	case strings.HasSuffix(cleaned, "T"):
		scale = 1e12
		cleaned = strings.TrimSuffix(cleaned, "T")
	case strings.HasSuffix(cleaned, "B"):
		scale = 1e9
		cleaned = strings.TrimSuffix(cleaned, "B")
	case strings.HasSuffix(cleaned, "M"):
		scale = 1e6
		cleaned = strings.TrimSuffix(cleaned, "M")
	case strings.HasSuffix(cleaned, "K"):
		scale = 1e3
		cleaned = strings.TrimSuffix(cleaned, "K")
	}

	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, false
	}
	return v * scale, true
}
