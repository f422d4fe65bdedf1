// Copyright Pritam Panda, 2026. All rights reserved.

package inventory

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pritampanda15/biomethod/pkg/types"
)

// QueryOptions narrow an inventory query. An empty Query lists findings
// by tool name; a non-empty Query runs a full-text match over tool names
// and recorded parameters.
type QueryOptions struct {
	Query       string
	Tool        string
	Category    string
	RunID       string
	UnknownOnly bool
	MaxResults  int
}

// Finding is one inventory row joined with its run.
type Finding struct {
	RunID        string        `json:"run_id" yaml:"run_id"`
	Root         string        `json:"root,omitempty" yaml:"root,omitempty"`
	WorkflowType string        `json:"workflow_type,omitempty" yaml:"workflow_type,omitempty"`
	Tool         string        `json:"tool" yaml:"tool"`
	Category     string        `json:"category,omitempty" yaml:"category,omitempty"`
	Version      string        `json:"version,omitempty" yaml:"version,omitempty"`
	Mentions     int           `json:"mentions" yaml:"mentions"`
	Params       []types.Param `json:"parameters,omitempty" yaml:"parameters,omitempty"`
	Locations    []string      `json:"locations,omitempty" yaml:"locations,omitempty"`
	Unknown      bool          `json:"unknown,omitempty" yaml:"unknown,omitempty"`
}

// Run describes one ingested analysis.
type Run struct {
	ID           string `json:"id" yaml:"id"`
	Root         string `json:"root,omitempty" yaml:"root,omitempty"`
	WorkflowType string `json:"workflow_type,omitempty" yaml:"workflow_type,omitempty"`
	GeneratedAt  string `json:"generated_at,omitempty" yaml:"generated_at,omitempty"`
	IngestedAt   string `json:"ingested_at,omitempty" yaml:"ingested_at,omitempty"`
	Tools        int    `json:"tools" yaml:"tools"`
}

// Query retrieves findings matching the options, most-mentioned first
// (or by FTS rank when a full-text query is given).
func (s *Store) Query(ctx context.Context, opts QueryOptions) ([]Finding, error) {
	maxResults := opts.MaxResults
	if maxResults <= 0 {
		maxResults = s.maxResults
	}

	var query strings.Builder
	var args []any

	if opts.Query != "" {
		query.WriteString(
			`SELECT f.run_id, r.root, r.workflow_type, f.tool, f.category,
				f.version, f.mentions, f.params, f.locations, f.unknown
			 FROM findings_fts
			 JOIN findings f ON f.rowid = findings_fts.rowid
			 JOIN runs r ON r.id = f.run_id
			 WHERE findings_fts MATCH ?`)
		args = append(args, opts.Query)
	} else {
		query.WriteString(
			`SELECT f.run_id, r.root, r.workflow_type, f.tool, f.category,
				f.version, f.mentions, f.params, f.locations, f.unknown
			 FROM findings f
			 JOIN runs r ON r.id = f.run_id
			 WHERE 1=1`)
	}

	if opts.Tool != "" {
		query.WriteString(` AND f.tool = ?`)
		args = append(args, strings.ToLower(opts.Tool))
	}
	if opts.Category != "" {
		query.WriteString(` AND f.category = ?`)
		args = append(args, opts.Category)
	}
	if opts.RunID != "" {
		query.WriteString(` AND f.run_id = ?`)
		args = append(args, opts.RunID)
	}
	if opts.UnknownOnly {
		query.WriteString(` AND f.unknown = 1`)
	}

	if opts.Query != "" {
		query.WriteString(` ORDER BY rank`)
	} else {
		query.WriteString(` ORDER BY f.mentions DESC, f.tool, f.run_id`)
	}
	query.WriteString(` LIMIT ?`)
	args = append(args, maxResults)

	rows, err := s.db.QueryContext(ctx, query.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("querying findings: %w", err)
	}
	defer rows.Close()

	var findings []Finding
	for rows.Next() {
		var f Finding
		var paramsJSON, locsJSON string
		if err := rows.Scan(&f.RunID, &f.Root, &f.WorkflowType, &f.Tool, &f.Category,
			&f.Version, &f.Mentions, &paramsJSON, &locsJSON, &f.Unknown); err != nil {
			return nil, fmt.Errorf("scanning finding: %w", err)
		}
		if paramsJSON != "" {
			json.Unmarshal([]byte(paramsJSON), &f.Params)
		}
		if locsJSON != "" {
			json.Unmarshal([]byte(locsJSON), &f.Locations)
		}
		findings = append(findings, f)
	}
	return findings, rows.Err()
}

// Runs lists the ingested analyses, newest first.
func (s *Store) Runs(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT r.id, r.root, r.workflow_type, r.generated_at, r.ingested_at,
			(SELECT count(*) FROM findings f WHERE f.run_id = r.id AND f.unknown = 0)
		 FROM runs r
		 ORDER BY r.ingested_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.ID, &r.Root, &r.WorkflowType, &r.GeneratedAt, &r.IngestedAt, &r.Tools); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}
