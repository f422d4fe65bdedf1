// Copyright Pritam Panda, 2026. All rights reserved.

package types

import "sort"

// ToolFinding accumulates every mention of one canonical tool across a run:
// the matched registry record (nil for unknown tools), the set-union of
// parameter evidence, the mention sites, and a count.
type ToolFinding struct {
	Name      string
	Record    *ToolRecord
	Version   string
	Mentions  int
	Locations []SourceLocation
	evidence  map[Param]struct{}
}

// NewFinding creates an empty finding for the given canonical name.
func NewFinding(name string, rec *ToolRecord) *ToolFinding {
	return &ToolFinding{
		Name:     name,
		Record:   rec,
		evidence: make(map[Param]struct{}),
	}
}

// AddEvidence records a flag/value pair. Duplicate pairs collapse: evidence
// is set-valued, not multiset-valued.
func (f *ToolFinding) AddEvidence(p Param) {
	if f.evidence == nil {
		f.evidence = make(map[Param]struct{})
	}
	f.evidence[p] = struct{}{}
}

// HasEvidence reports whether the exact flag/value pair was observed.
func (f *ToolFinding) HasEvidence(p Param) bool {
	_, ok := f.evidence[p]
	return ok
}

// Evidence returns the observed parameter pairs sorted by flag then value.
func (f *ToolFinding) Evidence() []Param {
	out := make([]Param, 0, len(f.evidence))
	for p := range f.evidence {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Flag != out[j].Flag {
			return out[i].Flag < out[j].Flag
		}
		return out[i].Value < out[j].Value
	})
	return out
}

// Category returns the record's category, or CategoryOther when unresolved.
func (f *ToolFinding) Category() Category {
	if f.Record == nil {
		return CategoryOther
	}
	return f.Record.Category
}

// merge folds another finding for the same tool into this one.
func (f *ToolFinding) merge(other *ToolFinding) {
	if f.Record == nil {
		f.Record = other.Record
	}
	if f.Version == "" {
		f.Version = other.Version
	}
	f.Mentions += other.Mentions
	for _, loc := range other.Locations {
		f.addLocation(loc)
	}
	for p := range other.evidence {
		f.AddEvidence(p)
	}
}

func (f *ToolFinding) addLocation(loc SourceLocation) {
	for _, have := range f.Locations {
		if have == loc {
			return
		}
	}
	f.Locations = append(f.Locations, loc)
}

// AnalysisResult is the pipeline's aggregate output: canonical tool name to
// finding, with unresolved raw tokens kept visible in a separate bucket.
type AnalysisResult struct {
	// Tools maps canonical names to findings for registry-matched tools.
	Tools map[string]*ToolFinding

	// Unknown maps lower-cased raw command tokens to findings for
	// invocations that matched no registry entry. They are retained so the
	// caller can decide between noise and a registry gap.
	Unknown map[string]*ToolFinding

	// SourceFiles lists files that yielded at least one invocation.
	SourceFiles []string

	// WorkflowType is the inferred orchestration flavor of the scanned
	// code: nextflow, snakemake, python, r, or script.
	WorkflowType string

	// Environment describes manifests found alongside the sources.
	Environment EnvironmentInfo

	// Diagnostics accumulates every non-fatal warning raised during the
	// run. A file's findings are never dropped without an entry here.
	Diagnostics []Diagnostic
}

// NewAnalysisResult returns an empty result ready for merging.
func NewAnalysisResult() *AnalysisResult {
	return &AnalysisResult{
		Tools:   make(map[string]*ToolFinding),
		Unknown: make(map[string]*ToolFinding),
	}
}

// Add folds one resolved mention into the result.
func (r *AnalysisResult) Add(m ResolvedMention) {
	bucket := r.Tools
	if !m.Resolved() {
		bucket = r.Unknown
	}
	f, ok := bucket[m.Canonical]
	if !ok {
		f = NewFinding(m.Canonical, m.Record)
		bucket[m.Canonical] = f
	}
	f.Mentions++
	f.addLocation(m.Location)
	for _, p := range m.Evidence {
		f.AddEvidence(p)
	}
}

// AddDiagnostic appends a warning to the run's diagnostics.
func (r *AnalysisResult) AddDiagnostic(d Diagnostic) {
	r.Diagnostics = append(r.Diagnostics, d)
}

// AddSourceFile records a file that produced findings.
func (r *AnalysisResult) AddSourceFile(path string) {
	for _, have := range r.SourceFiles {
		if have == path {
			return
		}
	}
	r.SourceFiles = append(r.SourceFiles, path)
}

// Merge folds another result into this one. The operation is commutative
// and associative over tool keys, evidence sets, and mention counts, so
// per-file results may be merged in any order.
func (r *AnalysisResult) Merge(other *AnalysisResult) {
	for name, f := range other.Tools {
		if have, ok := r.Tools[name]; ok {
			have.merge(f)
		} else {
			nf := NewFinding(name, f.Record)
			nf.merge(f)
			r.Tools[name] = nf
		}
	}
	for name, f := range other.Unknown {
		if have, ok := r.Unknown[name]; ok {
			have.merge(f)
		} else {
			nf := NewFinding(name, nil)
			nf.merge(f)
			r.Unknown[name] = nf
		}
	}
	for _, sf := range other.SourceFiles {
		r.AddSourceFile(sf)
	}
	r.Diagnostics = append(r.Diagnostics, other.Diagnostics...)
	if r.WorkflowType == "" {
		r.WorkflowType = other.WorkflowType
	}
}

// ToolNames returns the canonical names of resolved findings, sorted.
func (r *AnalysisResult) ToolNames() []string {
	names := make([]string, 0, len(r.Tools))
	for n := range r.Tools {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// UnknownNames returns the raw tokens in the unknown bucket, sorted.
func (r *AnalysisResult) UnknownNames() []string {
	names := make([]string, 0, len(r.Unknown))
	for n := range r.Unknown {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// ByCategory groups resolved findings by category, each group sorted by name.
func (r *AnalysisResult) ByCategory() map[Category][]*ToolFinding {
	groups := make(map[Category][]*ToolFinding)
	for _, name := range r.ToolNames() {
		f := r.Tools[name]
		groups[f.Category()] = append(groups[f.Category()], f)
	}
	return groups
}

// Citations returns the unique citation blocks of all resolved tools, sorted.
func (r *AnalysisResult) Citations() []string {
	seen := make(map[string]struct{})
	for _, f := range r.Tools {
		if f.Record != nil && f.Record.Citation != "" {
			seen[f.Record.Citation] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for c := range seen {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}
