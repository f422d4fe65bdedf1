// Copyright Pritam Panda, 2026. All rights reserved.

package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/pritampanda15/biomethod/pkg/types"
)

// Issue is one reproducibility finding.
type Issue struct {
	Severity   string `json:"severity" yaml:"severity"`
	Category   string `json:"category" yaml:"category"`
	Message    string `json:"message" yaml:"message"`
	File       string `json:"file,omitempty" yaml:"file,omitempty"`
	Suggestion string `json:"suggestion,omitempty" yaml:"suggestion,omitempty"`
}

// ChecklistItem is one rule of the reproducibility checklist.
type ChecklistItem struct {
	Name   string `json:"name" yaml:"name"`
	Passed bool   `json:"passed" yaml:"passed"`
}

// Reproducibility is the outcome of the checklist run: a 0-100 score, the
// per-rule verdicts, and the individual issues behind the failures.
type Reproducibility struct {
	Score     float64         `json:"score" yaml:"score"`
	Checklist []ChecklistItem `json:"checklist" yaml:"checklist"`
	Issues    []Issue         `json:"issues,omitempty" yaml:"issues,omitempty"`
}

// hardcodedPathMarkers flag parameter values bound to one machine.
var hardcodedPathMarkers = []string{"/home/", "/Users/", `C:\Users`, "/tmp/", "/var/"}

// seedFlags are the parameter names accepted as a recorded random seed.
var seedFlags = map[string]bool{
	"seed": true, "random_seed": true, "random_state": true,
	"-s": true, "--seed": true, "set.seed": true,
}

// stochasticCategories hold tools whose results move without a fixed seed.
var stochasticCategories = map[types.Category]bool{
	types.CategorySingleCell:             true,
	types.CategoryDifferentialExpression: true,
}

// Check runs the reproducibility checklist over an analysis result.
func Check(res *types.AnalysisResult) Reproducibility {
	var rep Reproducibility
	add := func(name string, passed bool) {
		rep.Checklist = append(rep.Checklist, ChecklistItem{Name: name, Passed: passed})
	}

	versioned := true
	for _, name := range res.ToolNames() {
		f := res.Tools[name]
		if f.Version != "" {
			continue
		}
		versioned = false
		rep.Issues = append(rep.Issues, Issue{
			Severity:   "warning",
			Category:   "version",
			Message:    fmt.Sprintf("tool %q has no version recorded", f.Name),
			File:       firstFile(f),
			Suggestion: "pin the exact version used in the analysis",
		})
	}
	add("All software versions recorded", versioned)

	seeded := true
	for _, name := range res.ToolNames() {
		f := res.Tools[name]
		if !stochasticCategories[f.Category()] {
			continue
		}
		if hasSeed(f) {
			continue
		}
		seeded = false
		rep.Issues = append(rep.Issues, Issue{
			Severity:   "info",
			Category:   "seed",
			Message:    fmt.Sprintf("tool %q may benefit from a fixed random seed", f.Name),
			File:       firstFile(f),
			Suggestion: "set a random seed so stochastic steps replay identically",
		})
	}
	add("Random seeds specified", seeded)

	portable := true
	for _, name := range res.ToolNames() {
		f := res.Tools[name]
		for _, p := range f.Evidence() {
			if marker := pathMarker(p.Value); marker != "" {
				portable = false
				rep.Issues = append(rep.Issues, Issue{
					Severity:   "warning",
					Category:   "path",
					Message:    fmt.Sprintf("hardcoded path in %s: %s", f.Name, p.Value),
					File:       firstFile(f),
					Suggestion: "use relative paths or configuration instead",
				})
			}
		}
	}
	add("No hardcoded paths", portable)

	env := res.Environment
	declared := len(env.RequirementsFiles) > 0 || len(env.EnvironmentFiles) > 0
	if !declared {
		rep.Issues = append(rep.Issues, Issue{
			Severity:   "warning",
			Category:   "environment",
			Message:    "no environment specification found",
			Suggestion: "add a requirements.txt or environment.yml",
		})
	}
	add("Environment specification present", declared)

	add("Containerization used", len(env.Containers) > 0 || anyContainerEvidence(res))
	add("Workflow manager used", res.WorkflowType == "nextflow" || res.WorkflowType == "snakemake")
	add("Tool parameters recorded", true)

	passed := 0
	for _, item := range rep.Checklist {
		if item.Passed {
			passed++
		}
	}
	rep.Score = float64(passed) / float64(len(rep.Checklist)) * 100
	return rep
}

func hasSeed(f *types.ToolFinding) bool {
	for _, p := range f.Evidence() {
		if seedFlags[strings.ToLower(p.Flag)] {
			return true
		}
	}
	return false
}

func anyContainerEvidence(res *types.AnalysisResult) bool {
	for _, f := range res.Tools {
		for _, p := range f.Evidence() {
			if p.Flag == "container" {
				return true
			}
		}
	}
	return false
}

func pathMarker(value string) string {
	for _, marker := range hardcodedPathMarkers {
		if strings.Contains(value, marker) {
			return marker
		}
	}
	return ""
}

func firstFile(f *types.ToolFinding) string {
	if len(f.Locations) == 0 {
		return ""
	}
	return f.Locations[0].File
}

// Render writes the assessment in checklist form.
func (r Reproducibility) Render(w io.Writer) {
	fmt.Fprintf(w, "reproducibility score: %.0f%%\n\n", r.Score)
	for _, item := range r.Checklist {
		mark := "x"
		if !item.Passed {
			mark = " "
		}
		fmt.Fprintf(w, "  [%s] %s\n", mark, item.Name)
	}
	if len(r.Issues) > 0 {
		fmt.Fprintln(w)
		for _, issue := range r.Issues {
			fmt.Fprintf(w, "  %s (%s): %s\n", issue.Severity, issue.Category, issue.Message)
			if issue.Suggestion != "" {
				fmt.Fprintf(w, "      %s\n", issue.Suggestion)
			}
		}
	}
}
