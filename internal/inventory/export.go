// Copyright Pritam Panda, 2026. All rights reserved.

package inventory

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"go.yaml.in/yaml/v3"
)

const exportLimit = 100000

// ExportYAML writes the inventory to <dir>/index/export.yaml. It supports
// the same filters as Query.
func (s *Store) ExportYAML(ctx context.Context, opts QueryOptions) error {
	findings, err := s.exportFindings(ctx, opts)
	if err != nil {
		return err
	}

	path := filepath.Join(s.dir, indexDir, "export.yaml")
	data, err := yaml.Marshal(findings)
	if err != nil {
		return fmt.Errorf("marshaling YAML: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// ExportJSON writes the inventory to <dir>/index/export.json. It supports
// the same filters as Query.
func (s *Store) ExportJSON(ctx context.Context, opts QueryOptions) error {
	findings, err := s.exportFindings(ctx, opts)
	if err != nil {
		return err
	}

	path := filepath.Join(s.dir, indexDir, "export.json")
	data, err := json.MarshalIndent(findings, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

func (s *Store) exportFindings(ctx context.Context, opts QueryOptions) ([]Finding, error) {
	opts.MaxResults = exportLimit
	findings, err := s.Query(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("querying for export: %w", err)
	}
	return findings, nil
}
