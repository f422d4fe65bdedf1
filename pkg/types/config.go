// Copyright Pritam Panda, 2026. All rights reserved.

package types

import "time"

// RegistryConfig holds settings for loading the tool registry.
type RegistryConfig struct {
	// Path is an external tool database file. Empty means the embedded
	// default database.
	Path string `json:"path,omitempty" yaml:"path,omitempty"`
}

// AnalysisConfig holds settings for the extraction run.
type AnalysisConfig struct {
	// Workers bounds concurrent per-file extraction (default: NumCPU).
	Workers int `json:"workers" yaml:"workers"`

	// FileTimeout abandons a single file's extraction after this duration
	// (default 30s). The file is skipped with a warning, never blocking
	// the aggregate.
	FileTimeout time.Duration `json:"file_timeout" yaml:"file_timeout"`

	// Recursive controls directory traversal.
	Recursive bool `json:"recursive" yaml:"recursive"`

	// DetectVersions enables the installed-version probes after
	// extraction completes.
	DetectVersions bool `json:"detect_versions" yaml:"detect_versions"`
}

// ReportStyle selects the journal flavor of generated prose.
type ReportStyle string

const (
	StyleGeneric ReportStyle = "generic"
	StyleNature  ReportStyle = "nature"
	StylePLOS    ReportStyle = "plos"
)

// ReportFormat selects the methods output format.
type ReportFormat string

const (
	FormatMarkdown ReportFormat = "markdown"
	FormatLaTeX    ReportFormat = "latex"
)

// ReportConfig holds settings for methods-section generation.
type ReportConfig struct {
	Style  ReportStyle  `json:"style" yaml:"style"`
	Format ReportFormat `json:"format" yaml:"format"`

	// IncludeCitations adds inline citation markers and enables the
	// bibliography.
	IncludeCitations bool `json:"include_citations" yaml:"include_citations"`

	// IncludeSupplementary builds the per-tool parameter table.
	IncludeSupplementary bool `json:"include_supplementary" yaml:"include_supplementary"`
}

// InventoryConfig holds settings for the analysis inventory store.
type InventoryConfig struct {
	// Dir is the base directory for the inventory (contains index/).
	Dir string `json:"dir" yaml:"dir"`

	// MaxResults is the default maximum number of query results (default 20).
	MaxResults int `json:"max_results" yaml:"max_results"`
}

// VersionConfig holds settings for installed-version probes.
type VersionConfig struct {
	// Timeout bounds each probe command (default 10s).
	Timeout time.Duration `json:"timeout" yaml:"timeout"`
}

// PipelineConfig groups all stage configurations.
type PipelineConfig struct {
	Registry  RegistryConfig  `json:"registry" yaml:"registry"`
	Analysis  AnalysisConfig  `json:"analysis" yaml:"analysis"`
	Report    ReportConfig    `json:"report" yaml:"report"`
	Inventory InventoryConfig `json:"inventory" yaml:"inventory"`
	Version   VersionConfig   `json:"version" yaml:"version"`
}
