// Copyright Pritam Panda, 2026. All rights reserved.

// Package analyze runs the extraction pipeline over a set of sources: file
// discovery, per-file extraction with bounded parallelism, resolution
// against the registry, and a commutative merge into one result.
package analyze

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/pritampanda15/biomethod/internal/extract"
	"github.com/pritampanda15/biomethod/internal/registry"
	"github.com/pritampanda15/biomethod/internal/resolve"
	"github.com/pritampanda15/biomethod/pkg/types"
)

const defaultFileTimeout = 30 * time.Second

// Aggregator ties a registry and its normalizer to the extraction run.
type Aggregator struct {
	reg  *registry.Registry
	norm *resolve.Normalizer
}

func New(reg *registry.Registry) *Aggregator {
	return &Aggregator{reg: reg, norm: resolve.New(reg)}
}

// Run analyzes every supported source under paths and merges the per-file
// results. Files are processed concurrently under cfg.Workers; a file
// exceeding cfg.FileTimeout is abandoned with a warning. Merge order does
// not affect the outcome. Progress and warnings go to w.
func (a *Aggregator) Run(ctx context.Context, paths []string, cfg types.AnalysisConfig, w io.Writer) (*types.AnalysisResult, error) {
	files, err := Discover(paths, cfg.Recursive)
	if err != nil {
		return nil, err
	}
	result := types.NewAnalysisResult()
	if len(files) == 0 {
		fmt.Fprintln(w, "no supported source files found")
		return result, nil
	}

	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	timeout := cfg.FileTimeout
	if timeout <= 0 {
		timeout = defaultFileTimeout
	}

	fmt.Fprintf(w, "analyzing %d files with %d workers\n", len(files), workers)

	// Workers share the warning writer; serialize their writes.
	ww := &syncWriter{w: w}
	ch := make(chan *types.AnalysisResult, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, file := range files {
		g.Go(func() error {
			ch <- a.analyzeFile(gctx, file, timeout, ww)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	close(ch)

	var kinds []types.SourceKind
	for r := range ch {
		if r.WorkflowType != "" {
			kinds = append(kinds, types.SourceKind(r.WorkflowType))
			r.WorkflowType = ""
		}
		result.Merge(r)
	}
	result.WorkflowType = workflowType(kinds)
	a.containerVersions(result)

	fmt.Fprintf(w, "found %d tools (%d unknown) across %d files\n",
		len(result.Tools), len(result.Unknown), len(result.SourceFiles))
	return result, ctx.Err()
}

// syncWriter guards a shared writer against interleaved writes from
// concurrent workers.
type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *syncWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}

// analyzeFile extracts and resolves one file into a standalone result.
// Failures never propagate as errors: an unreadable or unrecognized file is
// a diagnostic on the result.
func (a *Aggregator) analyzeFile(ctx context.Context, path string, timeout time.Duration, w io.Writer) *types.AnalysisResult {
	res := types.NewAnalysisResult()
	warn := func(reason string) {
		res.AddDiagnostic(types.Diagnostic{File: path, Reason: reason})
		fmt.Fprintf(w, "warning: %s: %s\n", path, reason)
	}

	src, err := os.ReadFile(path)
	if err != nil {
		warn(fmt.Sprintf("unreadable: %v", err))
		return res
	}
	kind, ok := extract.DetectKind(path, src)
	if !ok {
		warn("no extractor recognizes this file")
		return res
	}
	res.WorkflowType = string(kind)

	type extracted struct {
		invs  []types.RawInvocation
		diags []types.Diagnostic
	}
	done := make(chan extracted, 1)
	go func() {
		invs, diags := extract.Run(extract.ForKind(kind, a.reg), path, src)
		done <- extracted{invs: invs, diags: diags}
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	var ex extracted
	select {
	case ex = <-done:
	case <-timer.C:
		// The extraction goroutine is abandoned; its buffered send
		// cannot block.
		warn(fmt.Sprintf("extraction exceeded %s, file skipped", timeout))
		return res
	case <-ctx.Done():
		return res
	}

	for _, d := range ex.diags {
		res.AddDiagnostic(d)
		fmt.Fprintf(w, "warning: %s\n", d)
	}
	mentions := a.norm.ResolveAll(ex.invs)
	if len(mentions) > 0 {
		res.AddSourceFile(path)
	}
	for _, m := range mentions {
		res.Add(m)
	}
	return res
}

// containerVersions backfills finding versions from container image tags
// collected as evidence during extraction.
func (a *Aggregator) containerVersions(result *types.AnalysisResult) {
	for _, f := range result.Tools {
		if f.Version != "" {
			continue
		}
		for _, p := range f.Evidence() {
			if p.Flag != "container" {
				continue
			}
			if _, version, ok := a.reg.MatchContainerImage(p.Value); ok && version != "" {
				f.Version = version
				break
			}
		}
	}
}

// workflowType infers the orchestration flavor from the grammars seen.
// A workflow DSL outranks the scripting language it drives.
func workflowType(kinds []types.SourceKind) string {
	seen := make(map[types.SourceKind]bool, len(kinds))
	for _, k := range kinds {
		seen[k] = true
	}
	switch {
	case seen[types.KindNextflow]:
		return "nextflow"
	case seen[types.KindSnakemake]:
		return "snakemake"
	case seen[types.KindPython] || seen[types.KindNotebook]:
		return "python"
	case seen[types.KindRScript]:
		return "r"
	case len(seen) > 0:
		return "script"
	}
	return ""
}

// Discover expands the given paths into the source files to analyze.
// Directories contribute files with recognized extensions (plus Snakefile);
// explicitly named files are always included and sniffed later.
func Discover(paths []string, recursive bool) ([]string, error) {
	var files []string
	seen := make(map[string]bool)
	add := func(path string) {
		if !seen[path] {
			seen[path] = true
			files = append(files, path)
		}
	}

	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", path, err)
		}
		if !info.IsDir() {
			add(path)
			continue
		}
		err = filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if p != path && (strings.HasPrefix(d.Name(), ".") || !recursive) {
					return fs.SkipDir
				}
				return nil
			}
			if supportedName(d.Name()) {
				add(p)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walking %s: %w", path, err)
		}
	}
	return files, nil
}

var supportedExts = map[string]bool{
	".py": true, ".ipynb": true, ".r": true, ".rmd": true,
	".nf": true, ".smk": true,
}

func supportedName(name string) bool {
	if name == "Snakefile" || strings.HasPrefix(name, "Snakefile.") {
		return true
	}
	return supportedExts[strings.ToLower(filepath.Ext(name))]
}
