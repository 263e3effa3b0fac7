// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package history maintains a SQLite index of past screening runs and
// their committed ideas. The index is derived, out-of-band state for
// lookup and retrieval; the per-run queue file remains the only
// durable contract. Provenance timestamps live here, never in queue
// records.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/idea-screener/pkg/types"
)

const dbFile = "history.db"

// Store manages the screen-history SQLite database.
type Store struct {
	db         *sql.DB
	maxResults int
}

// Open opens or creates the history database at screensRoot/history.db
// and creates the schema if it does not exist.
func Open(screensRoot string, cfg types.HistoryConfig) (*Store, error) {
	if err := os.MkdirAll(screensRoot, 0o755); err != nil {
		return nil, fmt.Errorf("creating screens directory: %w", err)
	}

	dbPath := filepath.Join(screensRoot, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening history database: %w", err)
	}

	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = 20
	}

	s := &Store{db: db, maxResults: maxResults}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating history schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			queue_path TEXT,
			candidate_count INTEGER,
			written INTEGER,
			duplicates INTEGER,
			created_at TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS ideas (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			ticker TEXT NOT NULL,
			run_id TEXT NOT NULL REFERENCES runs(id),
			company TEXT,
			sector TEXT,
			industry TEXT,
			thesis TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_ideas_run_id ON ideas(run_id)`,
		`CREATE INDEX IF NOT EXISTS idx_ideas_ticker ON ideas(ticker)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}

	// FTS5 virtual table over thesis and company with triggers for sync.
	var ftsExists int
	if err := s.db.QueryRow(
		`SELECT count(*) FROM sqlite_master WHERE type='table' AND name='ideas_fts'`,
	).Scan(&ftsExists); err != nil {
		return fmt.Errorf("checking FTS table: %w", err)
	}

	if ftsExists == 0 {
		ftsStatements := []string{
			`CREATE VIRTUAL TABLE ideas_fts USING fts5(thesis, company, content=ideas, content_rowid=rowid)`,
			`CREATE TRIGGER ideas_ai AFTER INSERT ON ideas BEGIN
				INSERT INTO ideas_fts(rowid, thesis, company) VALUES (new.rowid, new.thesis, new.company);
			END`,
			`CREATE TRIGGER ideas_ad AFTER DELETE ON ideas BEGIN
				INSERT INTO ideas_fts(ideas_fts, rowid, thesis, company) VALUES('delete', old.rowid, old.thesis, old.company);
			END`,
		}
		for _, stmt := range ftsStatements {
			if _, err := s.db.Exec(stmt); err != nil {
				return fmt.Errorf("creating FTS infrastructure: %w", err)
			}
		}
	}
	return nil
}

// RecordRun stores a completed run and its committed ideas in one
// transaction. Re-recording a run id replaces its ideas, so a re-run
// of the same append stays idempotent here too.
func (s *Store) RecordRun(ctx context.Context, runID, queuePath string, summary types.RunSummary, ideas []types.IdeaRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, queue_path, candidate_count, written, duplicates, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			queue_path=excluded.queue_path, candidate_count=excluded.candidate_count,
			written=excluded.written, duplicates=excluded.duplicates`,
		runID, queuePath, summary.Fetched, summary.Written, summary.SkippedDuplicate,
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("upserting run: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM ideas WHERE run_id = ?`, runID); err != nil {
		return fmt.Errorf("deleting old ideas: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO ideas (ticker, run_id, company, sector, industry, thesis)
		 VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for _, idea := range ideas {
		if _, err := stmt.ExecContext(ctx,
			idea.Ticker, runID, idea.Company, idea.Sector, idea.Industry, idea.Thesis,
		); err != nil {
			return fmt.Errorf("inserting idea %s: %w", idea.Ticker, err)
		}
	}

	return tx.Commit()
}

// RunEntry is one row from the runs table.
type RunEntry struct {
	ID             string
	QueuePath      string
	CandidateCount int
	Written        int
	Duplicates     int
	CreatedAt      string
}

// ListRuns returns the most recent runs, newest first.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]RunEntry, error) {
	if limit <= 0 {
		limit = s.maxResults
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, queue_path, candidate_count, written, duplicates, created_at
		 FROM runs ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var entries []RunEntry
	for rows.Next() {
		var e RunEntry
		if err := rows.Scan(&e.ID, &e.QueuePath, &e.CandidateCount, &e.Written, &e.Duplicates, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// IdeaEntry is one committed idea with its run id.
type IdeaEntry struct {
	Ticker   string
	RunID    string
	Company  string
	Sector   string
	Industry string
	Thesis   string
}

// Search queries committed ideas. A query string runs FTS5 full-text
// search over thesis and company; an empty query with a ticker filter
// does a structured lookup.
func (s *Store) Search(ctx context.Context, query, ticker string, limit int) ([]IdeaEntry, error) {
	if limit <= 0 {
		limit = s.maxResults
	}
	if strings.TrimSpace(query) == "" && strings.TrimSpace(ticker) == "" {
		return nil, fmt.Errorf("provide a search query or a ticker filter")
	}

	var (
		qb   strings.Builder
		args []any
	)
	if strings.TrimSpace(query) != "" {
		qb.WriteString(
			`SELECT i.ticker, i.run_id, i.company, i.sector, i.industry, i.thesis
			 FROM ideas_fts
			 JOIN ideas i ON i.rowid = ideas_fts.rowid
			 WHERE ideas_fts MATCH ?`)
		args = append(args, query)
		if ticker != "" {
			qb.WriteString(` AND i.ticker = ?`)
			args = append(args, strings.ToUpper(ticker))
		}
		qb.WriteString(` ORDER BY ideas_fts.rank LIMIT ?`)
	} else {
		qb.WriteString(
			`SELECT i.ticker, i.run_id, i.company, i.sector, i.industry, i.thesis
			 FROM ideas i WHERE i.ticker = ?`)
		args = append(args, strings.ToUpper(ticker))
		qb.WriteString(` ORDER BY i.run_id DESC LIMIT ?`)
	}
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, qb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("querying ideas: %w", err)
	}
	defer rows.Close()

	var entries []IdeaEntry
	for rows.Next() {
		var e IdeaEntry
		if err := rows.Scan(&e.Ticker, &e.RunID, &e.Company, &e.Sector, &e.Industry, &e.Thesis); err != nil {
			return nil, fmt.Errorf("scanning idea: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
