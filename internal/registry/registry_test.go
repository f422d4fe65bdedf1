// Copyright Pritam Panda, 2026. All rights reserved.

package registry

import (
	"strings"
	"testing"
)

func TestLoadBuiltin(t *testing.T) {
	r, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if r.Len() == 0 {
		t.Fatal("builtin database is empty")
	}
	for _, name := range []string{"bwa", "samtools", "deseq2", "fastqc"} {
		if _, ok := r.Record(name); !ok {
			t.Errorf("builtin database missing %q", name)
		}
	}
}

func TestLookupNormalization(t *testing.T) {
	r, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	tests := []struct {
		token string
		want  string
	}{
		{"bwa-mem2", "bwa-mem2"},
		{"bwa_mem2", "bwa-mem2"},
		{"BWA-MEM2", "bwa-mem2"},
		{"bwamem2", "bwa-mem2"},
		{"STAR", "star"},
		{"featureCounts", "featurecounts"},
		{"  samtools  ", "samtools"},
		{"DESeq2", "deseq2"},
	}
	for _, tt := range tests {
		rec, ok := r.Lookup(tt.token)
		if !ok {
			t.Errorf("Lookup(%q): no match", tt.token)
			continue
		}
		if rec.Name != tt.want {
			t.Errorf("Lookup(%q) = %q, want %q", tt.token, rec.Name, tt.want)
		}
	}

	if _, ok := r.Lookup("definitely-not-a-tool"); ok {
		t.Error("Lookup matched a token absent from the database")
	}
	if _, ok := r.Lookup(""); ok {
		t.Error("Lookup matched the empty token")
	}
}

func TestDuplicateAliasFailsLoad(t *testing.T) {
	db := `
tools:
  alpha:
    aliases: [shared-name]
  beta:
    aliases: [shared_name]
`
	_, err := LoadBytes([]byte(db))
	if err == nil {
		t.Fatal("LoadBytes accepted a duplicate alias")
	}
	if !strings.Contains(err.Error(), "alias") {
		t.Errorf("error %q does not name the alias collision", err)
	}
}

func TestEmptyDatabaseIsValid(t *testing.T) {
	r, err := LoadBytes([]byte("tools: {}\n"))
	if err != nil {
		t.Fatalf("LoadBytes: %v", err)
	}
	if r.Len() != 0 {
		t.Errorf("Len = %d, want 0", r.Len())
	}
	if _, ok := r.Lookup("bwa"); ok {
		t.Error("empty registry resolved a token")
	}
}

func TestWrapperLookups(t *testing.T) {
	r, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	rec, ok := r.LookupPythonImport("pysam")
	if !ok || rec.Name != "samtools" {
		t.Errorf("LookupPythonImport(pysam) = %v, %v; want samtools", rec, ok)
	}
	rec, ok = r.LookupPythonImport("scanpy.preprocessing")
	if !ok || rec.Name != "scanpy" {
		t.Errorf("LookupPythonImport(scanpy.preprocessing) = %v, %v; want scanpy", rec, ok)
	}
	if _, ok := r.LookupPythonImport("numpy"); ok {
		t.Error("LookupPythonImport matched an unregistered module")
	}

	rec, ok = r.LookupRPackage("DESeq2")
	if !ok || rec.Name != "deseq2" {
		t.Errorf("LookupRPackage(DESeq2) = %v, %v; want deseq2", rec, ok)
	}

	if got := r.RFunctions()["CreateSeuratObject"]; got != "seurat" {
		t.Errorf("RFunctions()[CreateSeuratObject] = %q, want seurat", got)
	}
	if _, ok := r.RFunctions()["createseuratobject"]; ok {
		t.Error("RFunctions matched case-insensitively")
	}
}

func TestMatchContainerImage(t *testing.T) {
	r, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	tests := []struct {
		image   string
		want    string
		version string
	}{
		{"quay.io/biocontainers/salmon:1.10.1--h7e5ed60_0", "salmon", "1.10.1"},
		{"biocontainers/bwa-mem2:v2.2.1", "bwa-mem2", "2.2.1"},
		{"docker.io/staphb/samtools_1.17", "samtools", ""},
		{"ubuntu:22.04", "", ""},
	}
	for _, tt := range tests {
		rec, ver, ok := r.MatchContainerImage(tt.image)
		if tt.want == "" {
			if ok {
				t.Errorf("MatchContainerImage(%q) matched %q, want no match", tt.image, rec.Name)
			}
			continue
		}
		if !ok {
			t.Errorf("MatchContainerImage(%q): no match", tt.image)
			continue
		}
		if rec.Name != tt.want || ver != tt.version {
			t.Errorf("MatchContainerImage(%q) = %q/%q, want %q/%q",
				tt.image, rec.Name, ver, tt.want, tt.version)
		}
	}
}
