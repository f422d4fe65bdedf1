// Copyright Pritam Panda, 2026. All rights reserved.

package inventory

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.yaml.in/yaml/v3"

	"github.com/pritampanda15/biomethod/pkg/types"
)

func writeExport(t *testing.T, dir, name string, exp types.AnalysisExport) string {
	t.Helper()
	data, err := yaml.Marshal(exp)
	require.NoError(t, err)
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func sampleExport(workflow string) types.AnalysisExport {
	return types.AnalysisExport{
		GeneratedAt:  time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC),
		Root:         "/data/rnaseq-project",
		WorkflowType: workflow,
		SourceFiles:  []string{"main.nf", "align.py"},
		Tools: []types.FindingExport{
			{
				Name:     "star",
				Category: types.CategoryAlignment,
				Version:  "2.7.10a",
				Mentions: 3,
				Params:   []types.Param{{Flag: "--runThreadN", Value: "8"}},
			},
			{
				Name:     "salmon",
				Category: types.CategoryQuantification,
				Mentions: 1,
			},
		},
		Unknown: []types.FindingExport{
			{Name: "run_custom_caller", Mentions: 1},
		},
	}
}

func openStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(types.InventoryConfig{Dir: t.TempDir()})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestIngestAndQuery(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)

	dir := t.TempDir()
	path := writeExport(t, dir, "rnaseq.yaml", sampleExport("nextflow"))
	require.NoError(t, s.Ingest(ctx, path, io.Discard))

	findings, err := s.Query(ctx, QueryOptions{Tool: "star"})
	require.NoError(t, err)
	require.Len(t, findings, 1)
	require.Equal(t, "rnaseq", findings[0].RunID)
	require.Equal(t, "2.7.10a", findings[0].Version)
	require.Equal(t, 3, findings[0].Mentions)
	require.Equal(t, "nextflow", findings[0].WorkflowType)
	require.Equal(t, []types.Param{{Flag: "--runThreadN", Value: "8"}}, findings[0].Params)

	unknown, err := s.Query(ctx, QueryOptions{UnknownOnly: true})
	require.NoError(t, err)
	require.Len(t, unknown, 1)
	require.Equal(t, "run_custom_caller", unknown[0].Tool)
}

func TestFullTextQuery(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)

	dir := t.TempDir()
	require.NoError(t, s.Ingest(ctx, writeExport(t, dir, "rnaseq.yaml", sampleExport("nextflow")), io.Discard))

	findings, err := s.Query(ctx, QueryOptions{Query: "runThreadN"})
	require.NoError(t, err)
	require.Len(t, findings, 1)
	require.Equal(t, "star", findings[0].Tool)
}

func TestReingestReplacesFindings(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)
	dir := t.TempDir()

	require.NoError(t, s.Ingest(ctx, writeExport(t, dir, "rnaseq.yaml", sampleExport("nextflow")), io.Discard))

	updated := sampleExport("snakemake")
	updated.Tools = updated.Tools[:1] // drop salmon
	require.NoError(t, s.Ingest(ctx, writeExport(t, dir, "rnaseq.yaml", updated), io.Discard))

	findings, err := s.Query(ctx, QueryOptions{RunID: "rnaseq"})
	require.NoError(t, err)
	require.Len(t, findings, 2) // star + unknown, no stale salmon
	for _, f := range findings {
		require.NotEqual(t, "salmon", f.Tool)
		require.Equal(t, "snakemake", f.WorkflowType)
	}
}

func TestQueryFiltersAndLimit(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)
	dir := t.TempDir()

	require.NoError(t, s.Ingest(ctx, writeExport(t, dir, "projA.yaml", sampleExport("nextflow")), io.Discard))
	require.NoError(t, s.Ingest(ctx, writeExport(t, dir, "projB.yaml", sampleExport("snakemake")), io.Discard))

	byCategory, err := s.Query(ctx, QueryOptions{Category: string(types.CategoryAlignment)})
	require.NoError(t, err)
	require.Len(t, byCategory, 2)

	limited, err := s.Query(ctx, QueryOptions{MaxResults: 1})
	require.NoError(t, err)
	require.Len(t, limited, 1)
	// mentions DESC puts star first
	require.Equal(t, "star", limited[0].Tool)
}

func TestRuns(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)
	dir := t.TempDir()

	require.NoError(t, s.Ingest(ctx, writeExport(t, dir, "projA.yaml", sampleExport("nextflow")), io.Discard))

	runs, err := s.Runs(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	require.Equal(t, "projA", runs[0].ID)
	require.Equal(t, "/data/rnaseq-project", runs[0].Root)
	require.Equal(t, 2, runs[0].Tools) // unknown not counted
}

func TestIngestBadFile(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)
	dir := t.TempDir()

	path := filepath.Join(dir, "broken.yaml")
	require.NoError(t, os.WriteFile(path, []byte("tools: {not: [valid"), 0o644))
	require.Error(t, s.Ingest(ctx, path, io.Discard))
}
