// Copyright Pritam Panda, 2026. All rights reserved.

// Package extract recognizes external tool invocations in analysis sources.
// Each source grammar (python script, notebook, R script, nextflow,
// snakemake) gets an Extractor that first splits a file into its natural
// syntactic units, then lifts candidate tool calls out of each unit. A
// malformed unit yields a diagnostic and never blocks its neighbors.
package extract

import (
	"bytes"
	"path/filepath"
	"strings"

	"github.com/pritampanda15/biomethod/internal/registry"
	"github.com/pritampanda15/biomethod/pkg/types"
)

// Unit is one syntactic unit of a source file: a statement group, a
// notebook cell, or a workflow process/rule block.
type Unit struct {
	Location types.SourceLocation
	Text     string
}

// Extractor is one grammar's tool-call recognizer.
type Extractor interface {
	// Kind identifies the grammar.
	Kind() types.SourceKind

	// Parse splits source text into units. Invalid units become
	// diagnostics; valid units around them are still returned.
	Parse(file string, src []byte) ([]Unit, []types.Diagnostic)

	// ToolCalls lifts candidate invocations out of one unit.
	ToolCalls(u Unit) ([]types.RawInvocation, []types.Diagnostic)
}

// All returns one extractor per supported grammar.
func All(reg *registry.Registry) []Extractor {
	return []Extractor{
		NewPython(reg),
		NewNotebook(reg),
		NewRScript(reg),
		NewNextflow(reg),
		NewSnakemake(reg),
	}
}

// ForKind returns the extractor for one grammar, or nil for an
// unsupported kind.
func ForKind(kind types.SourceKind, reg *registry.Registry) Extractor {
	for _, e := range All(reg) {
		if e.Kind() == kind {
			return e
		}
	}
	return nil
}

// Run applies one extractor to a whole file: parse into units, then extract
// per unit, accumulating diagnostics from both phases.
func Run(e Extractor, file string, src []byte) ([]types.RawInvocation, []types.Diagnostic) {
	units, diags := e.Parse(file, src)
	var out []types.RawInvocation
	for _, u := range units {
		inv, d := e.ToolCalls(u)
		out = append(out, inv...)
		diags = append(diags, d...)
	}
	return out, diags
}

// kindByExt maps file extensions to grammars. Snakefile has no extension
// and is matched by name.
var kindByExt = map[string]types.SourceKind{
	".py":    types.KindPython,
	".ipynb": types.KindNotebook,
	".r":     types.KindRScript,
	".rmd":   types.KindRScript,
	".nf":    types.KindNextflow,
	".smk":   types.KindSnakemake,
}

// DetectKind maps a file to its grammar. The extension decides when it is
// recognized; otherwise the content is sniffed. The boolean is false when
// neither identifies a supported grammar.
func DetectKind(path string, src []byte) (types.SourceKind, bool) {
	base := filepath.Base(path)
	if base == "Snakefile" || strings.HasPrefix(base, "Snakefile.") {
		return types.KindSnakemake, true
	}
	if kind, ok := kindByExt[strings.ToLower(filepath.Ext(base))]; ok {
		return kind, true
	}
	return SniffKind(src)
}

// SniffKind guesses the grammar from content alone. Workflow DSLs are
// checked before the general-purpose languages they resemble.
func SniffKind(src []byte) (types.SourceKind, bool) {
	text := string(src)

	if bytes.HasPrefix(bytes.TrimSpace(src), []byte("{")) &&
		strings.Contains(text, `"cells"`) && strings.Contains(text, `"cell_type"`) {
		return types.KindNotebook, true
	}

	if line, ok := shebang(src); ok {
		switch {
		case strings.Contains(line, "nextflow"):
			return types.KindNextflow, true
		case strings.Contains(line, "python"):
			return types.KindPython, true
		case strings.Contains(line, "Rscript"):
			return types.KindRScript, true
		}
	}

	if strings.Contains(text, "nextflow.enable.dsl") ||
		(reProcessHeader.MatchString(text) && strings.Contains(text, "workflow")) {
		return types.KindNextflow, true
	}
	if reRuleHeader.MatchString(text) &&
		(strings.Contains(text, "shell:") || strings.Contains(text, "input:")) {
		return types.KindSnakemake, true
	}
	if reRLibrary.MatchString(text) {
		return types.KindRScript, true
	}
	if rePyImport.MatchString(text) || strings.Contains(text, "def ") {
		return types.KindPython, true
	}
	if strings.Contains(text, "<-") {
		return types.KindRScript, true
	}
	return "", false
}

func shebang(src []byte) (string, bool) {
	if !bytes.HasPrefix(src, []byte("#!")) {
		return "", false
	}
	line, _, _ := bytes.Cut(src, []byte("\n"))
	return string(line), true
}
