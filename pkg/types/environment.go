// Copyright Pritam Panda, 2026. All rights reserved.

package types

// EnvironmentInfo describes the software environment declared alongside the
// scanned sources: dependency manifests, container images, and pinned
// package versions. It is filled by the envinfo collaborator after
// extraction completes; the core pipeline never inspects installed
// environments itself.
type EnvironmentInfo struct {
	// Packages maps declared package names to pinned versions ("" when the
	// manifest leaves the version open).
	Packages map[string]string `json:"packages,omitempty" yaml:"packages,omitempty"`

	// Containers lists container image references found in Dockerfiles and
	// Singularity definitions.
	Containers []string `json:"containers,omitempty" yaml:"containers,omitempty"`

	// CondaEnvironment is the name field of the first conda environment
	// file encountered.
	CondaEnvironment string `json:"conda_environment,omitempty" yaml:"conda_environment,omitempty"`

	// RequirementsFiles and EnvironmentFiles record which manifests were
	// read, for the report's provenance paragraph.
	RequirementsFiles []string `json:"requirements_files,omitempty" yaml:"requirements_files,omitempty"`
	EnvironmentFiles  []string `json:"environment_files,omitempty" yaml:"environment_files,omitempty"`
}
