// Copyright Pritam Panda, 2026. All rights reserved.

package types

import (
	"fmt"
	"strings"
)

// SourceKind identifies the grammar a file is parsed with.
type SourceKind string

const (
	KindPython    SourceKind = "python"
	KindNotebook  SourceKind = "notebook"
	KindRScript   SourceKind = "r"
	KindNextflow  SourceKind = "nextflow"
	KindSnakemake SourceKind = "snakemake"
)

// SourceLocation points at the site of a tool mention. Line is 1-based and
// zero when the grammar does not track lines (workflow blocks). Cell is the
// notebook cell index and -1 outside notebooks. Unit names the enclosing
// process or rule for workflow grammars.
type SourceLocation struct {
	File string `json:"file" yaml:"file"`
	Line int    `json:"line,omitempty" yaml:"line,omitempty"`
	Cell int    `json:"cell,omitempty" yaml:"cell,omitempty"`
	Unit string `json:"unit,omitempty" yaml:"unit,omitempty"`
}

// String renders the location in file:line form with cell/unit qualifiers.
func (l SourceLocation) String() string {
	var b strings.Builder
	b.WriteString(l.File)
	if l.Cell >= 0 && l.Line == 0 {
		fmt.Fprintf(&b, "#cell%d", l.Cell)
	} else if l.Line > 0 {
		fmt.Fprintf(&b, ":%d", l.Line)
	}
	if l.Unit != "" {
		fmt.Fprintf(&b, " (%s)", l.Unit)
	}
	return b.String()
}

// Param is one observed flag/value pair. An empty Value means the flag was
// boolean at the invocation site.
type Param struct {
	Flag  string `json:"flag" yaml:"flag"`
	Value string `json:"value,omitempty" yaml:"value,omitempty"`
}

// RawInvocation is an as-extracted candidate tool reference, prior to
// registry matching. It is produced by an extractor and consumed immediately
// by the normalizer.
type RawInvocation struct {
	// Location is where the candidate was found.
	Location SourceLocation

	// Command is the literal token expected to match a tool name or alias.
	Command string

	// Args are the raw argument tokens following the command, in source
	// order. Order matters only for display and sub-command detection.
	Args []string

	// Params are the named parameters extracted from Args.
	Params []Param
}

// ResolvedMention is a raw invocation after registry resolution. Record is
// nil when the command token matched no registry entry, in which case
// Canonical holds the lower-cased raw token and the mention lands in the
// unknown bucket.
type ResolvedMention struct {
	Canonical string
	Record    *ToolRecord
	Location  SourceLocation
	Evidence  []Param
}

// Resolved reports whether the mention matched a registry entry.
func (m ResolvedMention) Resolved() bool { return m.Record != nil }

// Diagnostic is a structured, non-fatal warning attached to a run: a unit
// that failed to parse, a file no extractor claimed, a probe that timed out.
type Diagnostic struct {
	File     string `json:"file" yaml:"file"`
	Location string `json:"location,omitempty" yaml:"location,omitempty"`
	Reason   string `json:"reason" yaml:"reason"`
}

// String renders the diagnostic for log output.
func (d Diagnostic) String() string {
	if d.Location != "" {
		return fmt.Sprintf("%s [%s]: %s", d.File, d.Location, d.Reason)
	}
	return fmt.Sprintf("%s: %s", d.File, d.Reason)
}
