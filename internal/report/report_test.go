// Copyright Pritam Panda, 2026. All rights reserved.

package report

import (
	"strings"
	"testing"

	"github.com/pritampanda15/biomethod/pkg/types"
)

func sampleResult() *types.AnalysisResult {
	res := types.NewAnalysisResult()
	star := &types.ToolRecord{
		Name:     "star",
		Category: types.CategoryAlignment,
		Citation: "@article{dobin2013star, title={STAR}}",
	}
	salmon := &types.ToolRecord{
		Name:     "salmon",
		Category: types.CategoryQuantification,
		Citation: "@article{patro2017salmon, title={Salmon}}",
	}
	fastqc := &types.ToolRecord{
		Name:     "fastqc",
		Category: types.CategoryQualityControl,
		Citation: "@misc{andrews2010fastqc, title={FastQC}}",
	}
	res.Add(types.ResolvedMention{
		Canonical: "star", Record: star,
		Location: types.SourceLocation{File: "align.py", Line: 3, Cell: -1},
		Evidence: []types.Param{{Flag: "--runThreadN", Value: "8"}},
	})
	res.Add(types.ResolvedMention{Canonical: "salmon", Record: salmon})
	res.Add(types.ResolvedMention{Canonical: "fastqc", Record: fastqc})
	res.Tools["star"].Version = "2.7.10a"
	res.WorkflowType = "nextflow"
	return res
}

func TestMethodsOrderAndContent(t *testing.T) {
	g := NewGenerator(types.ReportConfig{IncludeCitations: true})
	text := g.Methods(sampleResult())

	qc := strings.Index(text, "Quality control")
	align := strings.Index(text, "aligned to the reference")
	quant := strings.Index(text, "quantified")
	if qc < 0 || align < 0 || quant < 0 {
		t.Fatalf("missing category sections: %q", text)
	}
	if !(qc < align && align < quant) {
		t.Errorf("sections out of pipeline order: %q", text)
	}

	if !strings.Contains(text, "star (v2.7.10a) [dobin2013star]") {
		t.Errorf("star mention wrong: %q", text)
	}
	if !strings.Contains(text, "Nextflow pipeline") {
		t.Errorf("workflow sentence missing: %q", text)
	}
}

func TestMethodsNatureStyleDropsVersions(t *testing.T) {
	g := NewGenerator(types.ReportConfig{Style: types.StyleNature, IncludeCitations: true})
	text := g.Methods(sampleResult())
	if strings.Contains(text, "v2.7.10a") {
		t.Errorf("nature style kept a version: %q", text)
	}
	if !strings.Contains(text, "[dobin2013star]") {
		t.Errorf("nature style dropped the citation: %q", text)
	}
}

func TestMethodsPLOSStyleIncludesParameters(t *testing.T) {
	g := NewGenerator(types.ReportConfig{Style: types.StylePLOS})
	text := g.Methods(sampleResult())
	if !strings.Contains(text, "--runThreadN=8") {
		t.Errorf("plos style lost the parameters: %q", text)
	}
}

func TestDocumentLaTeX(t *testing.T) {
	g := NewGenerator(types.ReportConfig{
		Format:           types.FormatLaTeX,
		IncludeCitations: true,
	})
	doc := g.Document(sampleResult())
	if !strings.Contains(doc, `\section{Methods}`) {
		t.Errorf("latex document missing section header: %q", doc)
	}
	if !strings.Contains(doc, `\cite{dobin2013star}`) {
		t.Errorf("latex document missing cite command: %q", doc)
	}
	if strings.Contains(doc, "[dobin2013star]") {
		t.Errorf("latex document carries markdown citation markers: %q", doc)
	}
}

func TestBibliographyDeduplicates(t *testing.T) {
	res := sampleResult()
	// A second tool sharing the citation block must not duplicate it.
	res.Add(types.ResolvedMention{
		Canonical: "star-alias",
		Record: &types.ToolRecord{
			Name:     "star-alias",
			Category: types.CategoryAlignment,
			Citation: "@article{dobin2013star, title={STAR}}",
		},
	})
	bib := Bibliography(res)
	if got := strings.Count(bib, "@article{dobin2013star"); got != 1 {
		t.Errorf("dobin2013star appears %d times", got)
	}
	if !strings.Contains(bib, "@article{patro2017salmon") {
		t.Errorf("bibliography missing salmon: %q", bib)
	}
}

func TestWriteSupplementary(t *testing.T) {
	var buf strings.Builder
	if err := WriteSupplementary(&buf, sampleResult()); err != nil {
		t.Fatalf("WriteSupplementary: %v", err)
	}
	out := buf.String()
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 4 {
		t.Fatalf("rows = %d, want header + 3 tools:\n%s", len(lines), out)
	}
	if !strings.HasPrefix(lines[0], "Tool,Version,Category") {
		t.Errorf("header = %q", lines[0])
	}
	if !strings.Contains(out, "star,2.7.10a,alignment,--runThreadN=8,align.py:3,dobin2013star") {
		t.Errorf("star row missing:\n%s", out)
	}
	if !strings.Contains(out, "salmon,not specified") {
		t.Errorf("unversioned salmon row missing:\n%s", out)
	}
}

func TestCheck(t *testing.T) {
	res := sampleResult()
	res.Add(types.ResolvedMention{
		Canonical: "seurat",
		Record:    &types.ToolRecord{Name: "seurat", Category: types.CategorySingleCell},
		Evidence:  []types.Param{{Flag: "input", Value: "/home/alice/data.rds"}},
	})
	res.Environment.Containers = []string{"quay.io/biocontainers/star:2.7.10a"}

	rep := Check(res)

	byName := make(map[string]bool)
	for _, item := range rep.Checklist {
		byName[item.Name] = item.Passed
	}
	if byName["All software versions recorded"] {
		t.Error("version rule passed despite unversioned tools")
	}
	if byName["Random seeds specified"] {
		t.Error("seed rule passed despite seedless single-cell tool")
	}
	if byName["No hardcoded paths"] {
		t.Error("path rule passed despite /home/ evidence")
	}
	if !byName["Containerization used"] {
		t.Error("container rule failed despite declared images")
	}
	if !byName["Workflow manager used"] {
		t.Error("workflow rule failed for a nextflow run")
	}
	if rep.Score <= 0 || rep.Score >= 100 {
		t.Errorf("score = %v, want strictly between 0 and 100", rep.Score)
	}

	var categories []string
	for _, issue := range rep.Issues {
		categories = append(categories, issue.Category)
	}
	for _, want := range []string{"version", "seed", "path"} {
		found := false
		for _, c := range categories {
			if c == want {
				found = true
			}
		}
		if !found {
			t.Errorf("issue categories %v missing %q", categories, want)
		}
	}
}

func TestCheckSeededPasses(t *testing.T) {
	res := types.NewAnalysisResult()
	res.Add(types.ResolvedMention{
		Canonical: "seurat",
		Record:    &types.ToolRecord{Name: "seurat", Category: types.CategorySingleCell},
		Evidence:  []types.Param{{Flag: "--seed", Value: "42"}},
	})
	res.Tools["seurat"].Version = "5.0.1"

	rep := Check(res)
	for _, item := range rep.Checklist {
		if item.Name == "Random seeds specified" && !item.Passed {
			t.Error("seed rule failed despite --seed evidence")
		}
	}
}
