// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package queue validates, deduplicates, and atomically appends idea
// records to a run's append-only JSON Lines queue file.
package queue

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdiddy/idea-screener/pkg/types"
)

// ResultsFilename is the queue file name inside a run directory.
const ResultsFilename = "screener-results.jsonl"

// forbiddenFields are provenance/timestamp keys that must never appear
// in a committed record: the queue schema stays stable across
// producers. Their presence on input is leakage from upstream
// metadata, stripped rather than rejected.
var forbiddenFields = []string{
	"source",
	"generated_at",
	"queued_at",
	"fetched_at",
	"run_id",
	"screen_run_id",
}

// Rejection describes one record excluded by validation.
type Rejection struct {
	Ticker string
	Reason string
}

// AppendResult reports what one append call did.
type AppendResult struct {
	Written          int
	SkippedDuplicate int
	Rejected         []Rejection
}

// Append validates newRecords, deduplicates them against the existing
// queue file's ticker set, and appends the survivors in one atomic
// batch. On any failure the file is left exactly as it was. Running
// the same batch twice never produces duplicate lines.
func Append(path string, newRecords []types.IdeaRecord) (AppendResult, error) {
	existing, tickers, err := readExisting(path)
	if err != nil {
		return AppendResult{}, err
	}

	var res AppendResult
	var lines [][]byte
	for _, rec := range newRecords {
		sanitize(&rec)
		if reason := validate(rec); reason != "" {
			res.Rejected = append(res.Rejected, Rejection{Ticker: rec.Ticker, Reason: reason})
			continue
		}
		if tickers[rec.Ticker] {
			res.SkippedDuplicate++
			continue
		}

		line, err := json.Marshal(rec)
		if err != nil {
			res.Rejected = append(res.Rejected, Rejection{Ticker: rec.Ticker, Reason: fmt.Sprintf("encoding: %v", err)})
			continue
		}
		lines = append(lines, line)
		tickers[rec.Ticker] = true
	}

	if len(lines) == 0 {
		return res, nil
	}

	if err := commit(path, existing, lines); err != nil {
		return AppendResult{}, err
	}
	res.Written = len(lines)
	return res, nil
}

// sanitize strips forbidden provenance fields carried in from upstream
// and normalizes the ticker.
func sanitize(rec *types.IdeaRecord) {
	rec.Ticker = strings.ToUpper(strings.TrimSpace(rec.Ticker))
	for _, key := range forbiddenFields {
		delete(rec.Extra, key)
	}
}

// validate returns a rejection reason, or "" for a valid record.
func validate(rec types.IdeaRecord) string {
	if rec.Ticker == "" {
		return "empty ticker"
	}
	for _, r := range rec.Ticker {
		if (r < 'A' || r > 'Z') && (r < '0' || r > '9') && r != '.' && r != '-' {
			return fmt.Sprintf("ticker %q is not uppercase alphanumeric", rec.Ticker)
		}
	}
	if rec.ExchangeCountry != types.ExchangeCountryUS {
		return fmt.Sprintf("exchange_country %q is not %q", rec.ExchangeCountry, types.ExchangeCountryUS)
	}
	return ""
}

// readExisting loads the queue file bytes and its ticker set. A
// missing file is an empty queue. Malformed lines are tolerated for
// dedup purposes; they stay in the file untouched.
func readExisting(path string) ([]byte, map[string]bool, error) {
	tickers := make(map[string]bool)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, tickers, nil
		}
		return nil, nil, fmt.Errorf("reading queue %s: %w", path, err)
	}

	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var rec types.IdeaRecord
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			continue
		}
		if t := strings.ToUpper(strings.TrimSpace(rec.Ticker)); t != "" {
			tickers[t] = true
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, fmt.Errorf("scanning queue %s: %w", path, err)
	}
	return data, tickers, nil
}

// commit writes existing bytes plus the new lines to a temp file in
// the queue's directory and renames it over the target, so the append
// is all-or-nothing. Existing lines are carried byte-for-byte; a file
// not ending in a newline gets one before the new lines.
func commit(path string, existing []byte, lines [][]byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating queue directory %s: %w", dir, err)
	}

	tmpFile, err := os.CreateTemp(dir, ".queue-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	writeErr := writeAll(tmpFile, existing, lines)
	closeErr := tmpFile.Close()
	if writeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("writing queue batch: %w", writeErr)
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp file: %w", closeErr)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}

func writeAll(f *os.File, existing []byte, lines [][]byte) error {
	if len(existing) > 0 {
		if _, err := f.Write(existing); err != nil {
			return err
		}
		if existing[len(existing)-1] != '\n' {
			if _, err := f.Write([]byte("\n")); err != nil {
				return err
			}
		}
	}
	for _, line := range lines {
		if _, err := f.Write(line); err != nil {
			return err
		}
		if _, err := f.Write([]byte("\n")); err != nil {
			return err
		}
	}
	return f.Sync()
}

// Tickers returns the ticker set currently committed to the queue file.
func Tickers(path string) (map[string]bool, error) {
	_, tickers, err := readExisting(path)
	return tickers, err
}
