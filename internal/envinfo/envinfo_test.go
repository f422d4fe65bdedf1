// Copyright Pritam Panda, 2026. All rights reserved.

package envinfo

import (
	"os"
	"path/filepath"
	"testing"
)

func write(t *testing.T, dir, name, content string) {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestCollect(t *testing.T) {
	dir := t.TempDir()
	write(t, dir, "requirements.txt", `
# pinned analysis deps
pysam==0.21.0
scanpy>=1.9
multiqc[extras]==1.14
-r requirements-dev.txt
`)
	write(t, dir, "environment.yml", `
name: rnaseq
channels:
  - bioconda
dependencies:
  - salmon=1.10.1
  - bioconda::samtools=1.17
  - fastqc
  - pip:
      - pydeseq2==0.4.0
`)
	write(t, dir, "pyproject.toml", `
[project]
name = "pipeline"
dependencies = ["anndata==0.9.1", "click"]
`)
	write(t, dir, "docker/Dockerfile", "FROM quay.io/biocontainers/star:2.7.10a--h9ee0642_0\nRUN echo ok\n")
	write(t, dir, "container.def", "Bootstrap: docker\nFrom: biocontainers/bwa:v0.7.17\n")

	info, diags := Collect(dir)
	if len(diags) != 0 {
		t.Fatalf("unexpected diagnostics: %v", diags)
	}

	wantPins := map[string]string{
		"pysam":    "0.21.0",
		"scanpy":   "",
		"multiqc":  "1.14",
		"salmon":   "1.10.1",
		"samtools": "1.17",
		"fastqc":   "",
		"pydeseq2": "0.4.0",
		"anndata":  "0.9.1",
		"click":    "",
	}
	for name, version := range wantPins {
		got, ok := info.Packages[name]
		if !ok {
			t.Errorf("packages missing %q", name)
			continue
		}
		if got != version {
			t.Errorf("package %s = %q, want %q", name, got, version)
		}
	}

	if info.CondaEnvironment != "rnaseq" {
		t.Errorf("conda environment = %q, want rnaseq", info.CondaEnvironment)
	}
	if len(info.Containers) != 2 {
		t.Errorf("containers = %v, want 2", info.Containers)
	}
	if len(info.RequirementsFiles) != 1 {
		t.Errorf("requirements files = %v", info.RequirementsFiles)
	}
}

func TestCollectEmptyTree(t *testing.T) {
	info, diags := Collect(t.TempDir())
	if len(diags) != 0 {
		t.Fatalf("unexpected diagnostics: %v", diags)
	}
	if info.Packages != nil || info.Containers != nil || info.CondaEnvironment != "" {
		t.Errorf("empty tree produced environment data: %+v", info)
	}
}

func TestCollectBadManifestIsDiagnostic(t *testing.T) {
	dir := t.TempDir()
	write(t, dir, "environment.yml", "dependencies: [unclosed\n")
	write(t, dir, "requirements.txt", "pysam==0.21.0\n")

	info, diags := Collect(dir)
	if len(diags) != 1 {
		t.Fatalf("diagnostics = %v, want one for the bad yaml", diags)
	}
	if info.Packages["pysam"] != "0.21.0" {
		t.Error("bad manifest blocked a good neighbor")
	}
}
