// Copyright Pritam Panda, 2026. All rights reserved.

// Package report turns an analysis result into publication artifacts: a
// methods-section draft, a BibTeX bibliography, a supplementary parameter
// table, and a reproducibility assessment.
package report

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/pritampanda15/biomethod/pkg/types"
)

// categoryOrder fixes the narrative order of a methods section: QC first,
// then the processing chain, statistics last.
var categoryOrder = []types.Category{
	types.CategoryQualityControl,
	types.CategoryAlignment,
	types.CategoryQuantification,
	types.CategoryVariantCalling,
	types.CategoryDifferentialExpression,
	types.CategorySingleCell,
	types.CategoryOther,
}

var categoryIntro = map[types.Category]string{
	types.CategoryQualityControl:         "Quality control was performed",
	types.CategoryAlignment:              "Reads were aligned to the reference genome",
	types.CategoryQuantification:         "Gene expression was quantified",
	types.CategoryVariantCalling:         "Variant calling was performed",
	types.CategoryDifferentialExpression: "Differential expression analysis was conducted",
	types.CategorySingleCell:             "Single-cell analysis was performed",
	types.CategoryOther:                  "Additional analyses were performed",
}

var workflowSentence = map[string]string{
	"nextflow":  "The analysis was orchestrated with a Nextflow pipeline.",
	"snakemake": "The analysis was orchestrated with a Snakemake workflow.",
}

// reCiteKey pulls the entry key out of a BibTeX block.
var reCiteKey = regexp.MustCompile(`@\w+\{([\w-]+),`)

// Generator renders methods text in one style and format.
type Generator struct {
	cfg types.ReportConfig
}

func NewGenerator(cfg types.ReportConfig) *Generator {
	if cfg.Style == "" {
		cfg.Style = types.StyleGeneric
	}
	if cfg.Format == "" {
		cfg.Format = types.FormatMarkdown
	}
	return &Generator{cfg: cfg}
}

// Methods renders the methods prose: one sentence per tool category, in
// pipeline order, naming every tool with its version and citation marker.
func (g *Generator) Methods(res *types.AnalysisResult) string {
	groups := res.ByCategory()
	var sections []string
	for _, cat := range categoryOrder {
		tools := groups[cat]
		if len(tools) == 0 {
			continue
		}
		mentions := make([]string, 0, len(tools))
		for _, f := range tools {
			mentions = append(mentions, g.mention(f))
		}
		sections = append(sections, fmt.Sprintf("%s using %s.", categoryIntro[cat], joinProse(mentions)))
	}
	if s, ok := workflowSentence[res.WorkflowType]; ok {
		sections = append(sections, s)
	}
	if env := environmentSentence(res.Environment); env != "" {
		sections = append(sections, env)
	}
	return strings.Join(sections, " ")
}

// mention formats one tool reference: name, version, citation marker, and
// (for the verbose PLOS style) the observed parameters.
func (g *Generator) mention(f *types.ToolFinding) string {
	name := f.Name
	if f.Version != "" && g.cfg.Style != types.StyleNature {
		name = fmt.Sprintf("%s (v%s)", name, f.Version)
	}
	if g.cfg.IncludeCitations && f.Record != nil {
		if key := CiteKey(f.Record.Citation); key != "" {
			switch g.cfg.Format {
			case types.FormatLaTeX:
				name = fmt.Sprintf(`%s \cite{%s}`, name, key)
			default:
				name = fmt.Sprintf("%s [%s]", name, key)
			}
		}
	}
	if g.cfg.Style == types.StylePLOS {
		if params := formatParams(f.Evidence()); params != "" {
			name = fmt.Sprintf("%s (parameters: %s)", name, params)
		}
	}
	return name
}

// Document renders the complete methods file in the configured format.
func (g *Generator) Document(res *types.AnalysisResult) string {
	prose := g.Methods(res)
	if g.cfg.Format == types.FormatLaTeX {
		var b strings.Builder
		b.WriteString("\\section{Methods}\n\n")
		b.WriteString(prose)
		b.WriteString("\n")
		if g.cfg.IncludeCitations && len(res.Citations()) > 0 {
			b.WriteString("\n\\bibliographystyle{unsrt}\n\\bibliography{references}\n")
		}
		return b.String()
	}

	var b strings.Builder
	b.WriteString("# Methods\n\n")
	b.WriteString(prose)
	b.WriteString("\n")
	return b.String()
}

// environmentSentence summarizes the declared software environment.
func environmentSentence(env types.EnvironmentInfo) string {
	var parts []string
	if env.CondaEnvironment != "" {
		parts = append(parts, fmt.Sprintf("the conda environment %q", env.CondaEnvironment))
	}
	if n := len(env.Containers); n == 1 {
		parts = append(parts, "a pinned container image")
	} else if n > 1 {
		parts = append(parts, fmt.Sprintf("%d pinned container images", n))
	}
	if len(parts) == 0 {
		return ""
	}
	return fmt.Sprintf("Software dependencies were managed through %s.", joinProse(parts))
}

// joinProse joins items the way running text does: "a", "a and b",
// "a, b, and c".
func joinProse(items []string) string {
	switch len(items) {
	case 0:
		return ""
	case 1:
		return items[0]
	case 2:
		return items[0] + " and " + items[1]
	default:
		return strings.Join(items[:len(items)-1], ", ") + ", and " + items[len(items)-1]
	}
}

// formatParams renders evidence pairs for prose, skipping extraction
// bookkeeping entries.
func formatParams(params []types.Param) string {
	var out []string
	for _, p := range params {
		switch p.Flag {
		case "container", "conda", "wrapper", "subcommand":
			continue
		}
		if p.Value == "" {
			out = append(out, p.Flag)
		} else {
			out = append(out, fmt.Sprintf("%s=%s", p.Flag, p.Value))
		}
	}
	return strings.Join(out, ", ")
}

// CiteKey extracts the entry key from a BibTeX block, or "" when the block
// has none.
func CiteKey(bibtex string) string {
	if m := reCiteKey.FindStringSubmatch(bibtex); m != nil {
		return m[1]
	}
	return ""
}

// Bibliography renders the deduplicated BibTeX bibliography for every
// resolved tool, sorted by entry key via the result's citation ordering.
func Bibliography(res *types.AnalysisResult) string {
	var blocks []string
	seen := make(map[string]bool)
	for _, c := range res.Citations() {
		key := CiteKey(c)
		if key != "" && seen[key] {
			continue
		}
		seen[key] = true
		blocks = append(blocks, strings.TrimSpace(c))
	}
	return strings.Join(blocks, "\n\n")
}
