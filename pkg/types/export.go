// Copyright Pritam Panda, 2026. All rights reserved.

package types

import (
	"sort"
	"time"
)

// FindingExport is the serializable form of one tool finding, with evidence
// and locations flattened into deterministic sorted order.
type FindingExport struct {
	Name      string   `json:"name" yaml:"name"`
	Category  Category `json:"category" yaml:"category"`
	Version   string   `json:"version,omitempty" yaml:"version,omitempty"`
	Citation  string   `json:"citation,omitempty" yaml:"citation,omitempty"`
	Mentions  int      `json:"mentions" yaml:"mentions"`
	Params    []Param  `json:"parameters,omitempty" yaml:"parameters,omitempty"`
	Locations []string `json:"locations,omitempty" yaml:"locations,omitempty"`
}

// AnalysisExport is the on-disk representation of a completed run, written
// by `biomethod analyze -o` and ingested by the inventory store.
type AnalysisExport struct {
	GeneratedAt  time.Time       `json:"generated_at" yaml:"generated_at"`
	Root         string          `json:"root,omitempty" yaml:"root,omitempty"`
	WorkflowType string          `json:"workflow_type,omitempty" yaml:"workflow_type,omitempty"`
	SourceFiles  []string        `json:"source_files,omitempty" yaml:"source_files,omitempty"`
	Tools        []FindingExport `json:"tools" yaml:"tools"`
	Unknown      []FindingExport `json:"unknown,omitempty" yaml:"unknown,omitempty"`
	Environment  EnvironmentInfo `json:"environment,omitempty" yaml:"environment,omitempty"`
	Diagnostics  []Diagnostic    `json:"diagnostics,omitempty" yaml:"diagnostics,omitempty"`
}

// Export flattens the result into its serializable form.
func (r *AnalysisResult) Export(root string) AnalysisExport {
	exp := AnalysisExport{
		GeneratedAt:  time.Now().UTC(),
		Root:         root,
		WorkflowType: r.WorkflowType,
		Environment:  r.Environment,
		Diagnostics:  r.Diagnostics,
	}
	exp.SourceFiles = append(exp.SourceFiles, r.SourceFiles...)
	sort.Strings(exp.SourceFiles)

	for _, name := range r.ToolNames() {
		exp.Tools = append(exp.Tools, exportFinding(r.Tools[name]))
	}
	for _, name := range r.UnknownNames() {
		exp.Unknown = append(exp.Unknown, exportFinding(r.Unknown[name]))
	}
	return exp
}

func exportFinding(f *ToolFinding) FindingExport {
	fe := FindingExport{
		Name:     f.Name,
		Category: f.Category(),
		Version:  f.Version,
		Mentions: f.Mentions,
		Params:   f.Evidence(),
	}
	if f.Record != nil {
		fe.Citation = f.Record.Citation
	}
	for _, loc := range f.Locations {
		fe.Locations = append(fe.Locations, loc.String())
	}
	sort.Strings(fe.Locations)
	return fe
}
