// Copyright Pritam Panda, 2026. All rights reserved.

// Package types defines the shared data model for the biomethod pipeline:
// registry records, raw and resolved invocations, and the aggregate
// analysis result handed to report generation.
package types

// Category classifies a bioinformatics tool by its role in an analysis.
type Category string

const (
	CategoryAlignment              Category = "alignment"
	CategoryQuantification         Category = "quantification"
	CategoryVariantCalling         Category = "variant-calling"
	CategoryQualityControl         Category = "quality-control"
	CategoryDifferentialExpression Category = "differential-expression"
	CategorySingleCell             Category = "single-cell"
	CategoryOther                  Category = "other"
)

// WrapperSet lists the library names that stand in for a direct tool
// invocation in each scripting language. A Python script importing "pysam"
// is using samtools even though no shell command appears.
type WrapperSet struct {
	// Python lists import names (module roots or common aliases like "sc").
	Python []string `json:"python,omitempty" yaml:"python,omitempty"`

	// R lists package names recognized in library()/require() calls.
	R []string `json:"r,omitempty" yaml:"r,omitempty"`

	// RFunctions lists bare function names whose call implies the tool
	// (e.g. DESeqDataSetFromMatrix for DESeq2).
	RFunctions []string `json:"r_functions,omitempty" yaml:"r_functions,omitempty"`
}

// ToolRecord is one canonical entry in the tool registry. Records are
// immutable after load; identity is the canonical Name.
type ToolRecord struct {
	// Name is the canonical registry identifier, independent of how the
	// tool was spelled in source.
	Name string `json:"name" yaml:"-"`

	// Aliases are alternate spellings that resolve to this record
	// (case-insensitive, separator-insensitive).
	Aliases []string `json:"aliases,omitempty" yaml:"aliases,omitempty"`

	// Category is the tool's analysis role.
	Category Category `json:"category" yaml:"category"`

	// Description is a one-line human-readable summary.
	Description string `json:"description,omitempty" yaml:"description,omitempty"`

	// Citation is the tool's reference, usually a BibTeX block.
	Citation string `json:"citation,omitempty" yaml:"citation,omitempty"`

	// Parameters maps recognized flags to display descriptions. Advisory
	// metadata only: unrecognized flags observed in source are still kept.
	Parameters map[string]string `json:"parameters,omitempty" yaml:"parameters,omitempty"`

	// MultiTool marks toolkit commands invoked as "toolkit subcommand"
	// (samtools, bcftools, gatk). The sub-command token is retained as
	// evidence for these.
	MultiTool bool `json:"multi_tool,omitempty" yaml:"multi_tool,omitempty"`

	// Wrappers lists library names treated as equivalent to invoking the
	// tool directly.
	Wrappers WrapperSet `json:"wrappers,omitempty" yaml:"wrappers,omitempty"`

	// VersionArgs overrides the probe command used by version detection,
	// e.g. ["kallisto", "version"]. Defaults to [Name, "--version"].
	VersionArgs []string `json:"version_command,omitempty" yaml:"version_command,omitempty"`
}
