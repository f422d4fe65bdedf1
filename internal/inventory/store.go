// Copyright Pritam Panda, 2026. All rights reserved.

// Package inventory persists analysis exports in a SQLite index so tool
// usage can be queried across many analyzed projects: which runs used a
// tool, with which parameters, at which versions.
package inventory

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.yaml.in/yaml/v3"

	"github.com/pritampanda15/biomethod/pkg/types"
)

const (
	indexDir = "index"
	dbFile   = "biomethod.db"
)

// Store manages the inventory SQLite database.
type Store struct {
	db         *sql.DB
	dir        string
	maxResults int
}

// NewStore opens or creates the inventory database at dir/index/biomethod.db,
// creating the schema when absent.
func NewStore(cfg types.InventoryConfig) (*Store, error) {
	dbDir := filepath.Join(cfg.Dir, indexDir)
	if err := os.MkdirAll(dbDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating index directory: %w", err)
	}

	dbPath := filepath.Join(dbDir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = 20
	}

	s := &Store{db: db, dir: cfg.Dir, maxResults: maxResults}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
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
			root TEXT,
			workflow_type TEXT,
			generated_at TEXT,
			source_files TEXT,
			ingested_at TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS findings (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT NOT NULL REFERENCES runs(id),
			tool TEXT NOT NULL,
			category TEXT,
			version TEXT,
			mentions INTEGER,
			params TEXT,
			locations TEXT,
			unknown INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE INDEX IF NOT EXISTS idx_findings_run_id ON findings(run_id)`,
		`CREATE INDEX IF NOT EXISTS idx_findings_tool ON findings(tool)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}

	// FTS5 virtual table with triggers for sync.
	var ftsExists int
	if err := s.db.QueryRow(
		`SELECT count(*) FROM sqlite_master WHERE type='table' AND name='findings_fts'`,
	).Scan(&ftsExists); err != nil {
		return fmt.Errorf("checking FTS table: %w", err)
	}
	if ftsExists == 0 {
		ftsStatements := []string{
			`CREATE VIRTUAL TABLE findings_fts USING fts5(tool, params, content=findings, content_rowid=rowid)`,
			`CREATE TRIGGER findings_ai AFTER INSERT ON findings BEGIN
				INSERT INTO findings_fts(rowid, tool, params) VALUES (new.rowid, new.tool, new.params);
			END`,
			`CREATE TRIGGER findings_ad AFTER DELETE ON findings BEGIN
				INSERT INTO findings_fts(findings_fts, rowid, tool, params) VALUES('delete', old.rowid, old.tool, old.params);
			END`,
			`CREATE TRIGGER findings_au AFTER UPDATE ON findings BEGIN
				INSERT INTO findings_fts(findings_fts, rowid, tool, params) VALUES('delete', old.rowid, old.tool, old.params);
				INSERT INTO findings_fts(rowid, tool, params) VALUES (new.rowid, new.tool, new.params);
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

// Ingest loads one analysis export file (as written by analyze -o) into
// the inventory. Re-ingesting the same run ID replaces its findings.
func (s *Store) Ingest(ctx context.Context, path string, w io.Writer) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading export %s: %w", path, err)
	}
	var exp types.AnalysisExport
	if err := yaml.Unmarshal(data, &exp); err != nil {
		return fmt.Errorf("parsing export %s: %w", path, err)
	}

	runID := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	if err := s.ingestRun(ctx, runID, &exp); err != nil {
		return fmt.Errorf("ingesting %s: %w", runID, err)
	}
	fmt.Fprintf(w, "ingested %s (%d tools, %d unknown)\n", runID, len(exp.Tools), len(exp.Unknown))
	return nil
}

func (s *Store) ingestRun(ctx context.Context, runID string, exp *types.AnalysisExport) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM findings WHERE run_id = ?`, runID); err != nil {
		return fmt.Errorf("deleting old findings: %w", err)
	}

	filesJSON, _ := json.Marshal(exp.SourceFiles)
	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, root, workflow_type, generated_at, source_files, ingested_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			root=excluded.root, workflow_type=excluded.workflow_type,
			generated_at=excluded.generated_at, source_files=excluded.source_files,
			ingested_at=excluded.ingested_at`,
		runID, exp.Root, exp.WorkflowType,
		exp.GeneratedAt.UTC().Format(time.RFC3339Nano), string(filesJSON),
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("upserting run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO findings (run_id, tool, category, version, mentions, params, locations, unknown)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	insert := func(f types.FindingExport, unknown bool) error {
		paramsJSON, _ := json.Marshal(f.Params)
		locsJSON, _ := json.Marshal(f.Locations)
		_, err := stmt.ExecContext(ctx,
			runID, f.Name, string(f.Category), f.Version, f.Mentions,
			string(paramsJSON), string(locsJSON), unknown,
		)
		return err
	}
	for _, f := range exp.Tools {
		if err := insert(f, false); err != nil {
			return fmt.Errorf("inserting finding %s: %w", f.Name, err)
		}
	}
	for _, f := range exp.Unknown {
		if err := insert(f, true); err != nil {
			return fmt.Errorf("inserting unknown finding %s: %w", f.Name, err)
		}
	}

	return tx.Commit()
}
