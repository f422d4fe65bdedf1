// Copyright Pritam Panda, 2026. All rights reserved.

package types

import (
	"reflect"
	"testing"
)

func TestSourceLocationString(t *testing.T) {
	tests := []struct {
		loc  SourceLocation
		want string
	}{
		{SourceLocation{File: "align.py", Line: 12, Cell: -1}, "align.py:12"},
		{SourceLocation{File: "nb.ipynb", Cell: 3}, "nb.ipynb#cell3"},
		{SourceLocation{File: "main.nf", Line: 8, Cell: -1, Unit: "ALIGN"}, "main.nf:8 (ALIGN)"},
		{SourceLocation{File: "Snakefile", Cell: -1, Unit: "qc"}, "Snakefile (qc)"},
	}
	for _, tt := range tests {
		if got := tt.loc.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}

func TestEvidenceIsSetValued(t *testing.T) {
	f := NewFinding("bwa", nil)
	f.AddEvidence(Param{Flag: "-t", Value: "8"})
	f.AddEvidence(Param{Flag: "-t", Value: "8"})
	f.AddEvidence(Param{Flag: "-t", Value: "4"})
	got := f.Evidence()
	want := []Param{{Flag: "-t", Value: "4"}, {Flag: "-t", Value: "8"}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Evidence() = %v, want %v", got, want)
	}
}

func TestExportDeterministic(t *testing.T) {
	build := func() *AnalysisResult {
		r := NewAnalysisResult()
		rec := &ToolRecord{Name: "salmon", Category: CategoryQuantification, Citation: "@article{patro2017salmon}"}
		r.Add(ResolvedMention{
			Canonical: "salmon",
			Record:    rec,
			Location:  SourceLocation{File: "b.py", Line: 2, Cell: -1},
			Evidence:  []Param{{Flag: "-l", Value: "A"}},
		})
		r.Add(ResolvedMention{
			Canonical: "salmon",
			Record:    rec,
			Location:  SourceLocation{File: "a.py", Line: 1, Cell: -1},
		})
		r.Add(ResolvedMention{
			Canonical: "custom",
			Location:  SourceLocation{File: "a.py", Line: 9, Cell: -1},
		})
		r.AddSourceFile("b.py")
		r.AddSourceFile("a.py")
		return r
	}

	e1, e2 := build().Export("proj"), build().Export("proj")
	e1.GeneratedAt = e2.GeneratedAt
	if !reflect.DeepEqual(e1, e2) {
		t.Errorf("exports differ between identical runs:\n%v\n%v", e1, e2)
	}

	if len(e1.Tools) != 1 || e1.Tools[0].Name != "salmon" {
		t.Fatalf("tools = %v", e1.Tools)
	}
	if e1.Tools[0].Mentions != 2 {
		t.Errorf("mentions = %d, want 2", e1.Tools[0].Mentions)
	}
	wantLocs := []string{"a.py:1", "b.py:2"}
	if !reflect.DeepEqual(e1.Tools[0].Locations, wantLocs) {
		t.Errorf("locations = %v, want %v", e1.Tools[0].Locations, wantLocs)
	}
	if len(e1.Unknown) != 1 || e1.Unknown[0].Name != "custom" {
		t.Errorf("unknown = %v", e1.Unknown)
	}
	wantFiles := []string{"a.py", "b.py"}
	if !reflect.DeepEqual(e1.SourceFiles, wantFiles) {
		t.Errorf("source files = %v, want %v", e1.SourceFiles, wantFiles)
	}
}

func TestByCategoryAndCitations(t *testing.T) {
	r := NewAnalysisResult()
	r.Add(ResolvedMention{
		Canonical: "bwa",
		Record:    &ToolRecord{Name: "bwa", Category: CategoryAlignment, Citation: "@article{li2009bwa}"},
	})
	r.Add(ResolvedMention{
		Canonical: "star",
		Record:    &ToolRecord{Name: "star", Category: CategoryAlignment, Citation: "@article{dobin2013star}"},
	})
	r.Add(ResolvedMention{
		Canonical: "deseq2",
		Record:    &ToolRecord{Name: "deseq2", Category: CategoryDifferentialExpression},
	})

	groups := r.ByCategory()
	if len(groups[CategoryAlignment]) != 2 {
		t.Errorf("alignment group = %v", groups[CategoryAlignment])
	}
	if groups[CategoryAlignment][0].Name != "bwa" {
		t.Errorf("group not sorted: %v", groups[CategoryAlignment])
	}
	cites := r.Citations()
	if len(cites) != 2 {
		t.Errorf("citations = %v, want 2", cites)
	}
}
