// Copyright Pritam Panda, 2026. All rights reserved.

package analyze

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pritampanda15/biomethod/internal/registry"
	"github.com/pritampanda15/biomethod/pkg/types"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func newAggregator(t *testing.T) *Aggregator {
	t.Helper()
	reg, err := registry.Load("")
	if err != nil {
		t.Fatalf("registry.Load: %v", err)
	}
	return New(reg)
}

func TestRunEndToEnd(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "align.py", `
import subprocess
subprocess.run("STAR --runThreadN 8 --genomeDir idx --outSAMtype BAM input.fq", shell=True)
subprocess.run("STAR --runThreadN 8 extra.fq", shell=True)
subprocess.run("./run_custom_caller --depth 30 in.bam", shell=True)
`)
	writeFile(t, dir, "de.R", "library(DESeq2)\ndds <- DESeq(dds)\n")

	a := newAggregator(t)
	res, err := a.Run(context.Background(), []string{dir}, types.AnalysisConfig{Recursive: true}, io.Discard)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	star, ok := res.Tools["star"]
	if !ok {
		t.Fatalf("tools = %v, missing star", res.ToolNames())
	}
	if star.Mentions != 2 {
		t.Errorf("star mentions = %d, want 2", star.Mentions)
	}
	// Identical flag/value pairs from the two invocations collapse to one
	// evidence entry.
	count := 0
	for _, p := range star.Evidence() {
		if p.Flag == "--runThreadN" {
			count++
		}
	}
	if count != 1 {
		t.Errorf("--runThreadN evidence entries = %d, want 1", count)
	}
	if !star.HasEvidence(types.Param{Flag: "--genomeDir", Value: "idx"}) {
		t.Errorf("star evidence = %v, missing --genomeDir idx", star.Evidence())
	}

	if _, ok := res.Tools["deseq2"]; !ok {
		t.Errorf("tools = %v, missing deseq2", res.ToolNames())
	}

	unknown, ok := res.Unknown["run_custom_caller"]
	if !ok {
		t.Fatalf("unknown = %v, missing run_custom_caller", res.UnknownNames())
	}
	if !unknown.HasEvidence(types.Param{Flag: "--depth", Value: "30"}) {
		t.Errorf("unknown evidence = %v, missing --depth 30", unknown.Evidence())
	}

	if res.WorkflowType != "python" {
		t.Errorf("workflow type = %q, want python", res.WorkflowType)
	}
	if len(res.SourceFiles) != 2 {
		t.Errorf("source files = %v, want both", res.SourceFiles)
	}
}

func TestRunMergesScriptAndWorkflowMentions(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "align.py", `
import subprocess
subprocess.run(["STAR", "--runThreadN", "4", "--genomeDir", "ref/"])
`)
	writeFile(t, dir, "align.nf", `
process ALIGN {
    script:
    """
    STAR --runThreadN 8 --outSAMtype BAM
    """
}
workflow {}
`)

	a := newAggregator(t)
	res, err := a.Run(context.Background(), []string{dir}, types.AnalysisConfig{Recursive: true}, io.Discard)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	star, ok := res.Tools["star"]
	if !ok {
		t.Fatalf("tools = %v, missing star", res.ToolNames())
	}
	if star.Mentions != 2 {
		t.Errorf("star mentions = %d, want 2", star.Mentions)
	}
	for _, want := range []types.Param{
		{Flag: "--runThreadN", Value: "4"},
		{Flag: "--runThreadN", Value: "8"},
		{Flag: "--genomeDir", Value: "ref/"},
		{Flag: "--outSAMtype", Value: "BAM"},
	} {
		if !star.HasEvidence(want) {
			t.Errorf("star evidence = %v, missing %v", star.Evidence(), want)
		}
	}
}

func TestRunEmptyInput(t *testing.T) {
	dir := t.TempDir()
	a := newAggregator(t)
	var buf strings.Builder
	res, err := a.Run(context.Background(), []string{dir}, types.AnalysisConfig{Recursive: true}, &buf)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(res.Tools) != 0 || len(res.Unknown) != 0 {
		t.Errorf("empty input produced findings: %v %v", res.ToolNames(), res.UnknownNames())
	}
	if !strings.Contains(buf.String(), "no supported source files") {
		t.Errorf("output = %q, want empty-input notice", buf.String())
	}
}

func TestRunWorkflowTypePriority(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "main.nf", `
process QC {
    script:
    """
    fastqc reads.fq
    """
}
workflow {}
`)
	writeFile(t, dir, "helper.py", "import pysam\n")

	a := newAggregator(t)
	res, err := a.Run(context.Background(), []string{dir}, types.AnalysisConfig{Recursive: true}, io.Discard)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.WorkflowType != "nextflow" {
		t.Errorf("workflow type = %q, want nextflow over python", res.WorkflowType)
	}
}

func TestRunContainerVersionBackfill(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "quant.nf", `
process QUANT {
    container 'quay.io/biocontainers/salmon:1.10.1--h7e5ed60_0'
    script:
    """
    salmon quant -l A -o out reads.fq
    """
}
`)
	a := newAggregator(t)
	res, err := a.Run(context.Background(), []string{dir}, types.AnalysisConfig{Recursive: true}, io.Discard)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	salmon, ok := res.Tools["salmon"]
	if !ok {
		t.Fatalf("tools = %v, missing salmon", res.ToolNames())
	}
	if salmon.Version != "1.10.1" {
		t.Errorf("salmon version = %q, want 1.10.1 from the image tag", salmon.Version)
	}
}

func TestRunUnreadableAndBrokenFilesAreDiagnostics(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "good.py", "import subprocess\nsubprocess.run(\"bwa mem ref.fa r.fq\", shell=True)\n")
	writeFile(t, dir, "broken.ipynb", "{ not json")

	a := newAggregator(t)
	res, err := a.Run(context.Background(), []string{dir}, types.AnalysisConfig{Recursive: true}, io.Discard)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if _, ok := res.Tools["bwa"]; !ok {
		t.Errorf("broken neighbor blocked extraction: %v", res.ToolNames())
	}
	if len(res.Diagnostics) == 0 {
		t.Error("broken notebook produced no diagnostic")
	}
}

func TestRunWarningWriterUnderConcurrency(t *testing.T) {
	dir := t.TempDir()
	// Every file produces a warning; workers write them concurrently to a
	// plain (unsynchronized) builder.
	const n = 20
	for i := 0; i < n; i++ {
		writeFile(t, dir, fmt.Sprintf("broken%02d.py", i), "subprocess.run(\"bwa mem\n")
	}

	a := newAggregator(t)
	var buf strings.Builder
	_, err := a.Run(context.Background(), []string{dir}, types.AnalysisConfig{Recursive: true, Workers: 8}, &buf)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	warnings := 0
	for _, line := range strings.Split(buf.String(), "\n") {
		if strings.HasPrefix(line, "warning: ") {
			warnings++
		}
	}
	if warnings != n {
		t.Errorf("intact warning lines = %d, want %d:\n%s", warnings, n, buf.String())
	}
}

func TestDiscover(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.py", "")
	writeFile(t, dir, "workflow/Snakefile", "")
	writeFile(t, dir, "workflow/rules/qc.smk", "")
	writeFile(t, dir, ".hidden/skip.py", "")
	writeFile(t, dir, "notes.txt", "")

	files, err := Discover([]string{dir}, true)
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if len(files) != 3 {
		t.Fatalf("files = %v, want 3", files)
	}

	flat, err := Discover([]string{dir}, false)
	if err != nil {
		t.Fatalf("Discover flat: %v", err)
	}
	if len(flat) != 1 {
		t.Errorf("non-recursive files = %v, want only a.py", flat)
	}

	explicit, err := Discover([]string{filepath.Join(dir, "notes.txt")}, false)
	if err != nil {
		t.Fatalf("Discover explicit: %v", err)
	}
	if len(explicit) != 1 {
		t.Errorf("explicit file not included: %v", explicit)
	}
}

func TestMergeCommutative(t *testing.T) {
	mention := func(name string, rec *types.ToolRecord, flag, value string) types.ResolvedMention {
		return types.ResolvedMention{
			Canonical: name,
			Record:    rec,
			Location:  types.SourceLocation{File: name + ".py", Line: 1, Cell: -1},
			Evidence:  []types.Param{{Flag: flag, Value: value}},
		}
	}
	rec := &types.ToolRecord{Name: "bwa", Category: types.CategoryAlignment}

	build := func(order []types.ResolvedMention) *types.AnalysisResult {
		parts := make([]*types.AnalysisResult, len(order))
		for i, m := range order {
			parts[i] = types.NewAnalysisResult()
			parts[i].Add(m)
		}
		total := types.NewAnalysisResult()
		for _, p := range parts {
			total.Merge(p)
		}
		return total
	}

	ms := []types.ResolvedMention{
		mention("bwa", rec, "-t", "8"),
		mention("bwa", rec, "-t", "8"),
		mention("custom", nil, "--depth", "30"),
	}
	forward := build(ms)
	reversed := build([]types.ResolvedMention{ms[2], ms[1], ms[0]})

	if forward.Tools["bwa"].Mentions != reversed.Tools["bwa"].Mentions {
		t.Error("mention counts differ with merge order")
	}
	fe, re := forward.Tools["bwa"].Evidence(), reversed.Tools["bwa"].Evidence()
	if len(fe) != len(re) || len(fe) != 1 {
		t.Errorf("evidence sets differ with merge order: %v vs %v", fe, re)
	}
	if forward.Unknown["custom"].Mentions != reversed.Unknown["custom"].Mentions {
		t.Error("unknown bucket differs with merge order")
	}
}
