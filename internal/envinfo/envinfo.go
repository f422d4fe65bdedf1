// Copyright Pritam Panda, 2026. All rights reserved.

// Package envinfo reads the dependency manifests that ship alongside
// analysis code: pip requirements, conda environment files, pyproject
// declarations, and container build files. The collected pins feed the
// report's software-environment paragraph; nothing here inspects the
// machine the analysis runs on.
package envinfo

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"go.yaml.in/yaml/v3"

	"github.com/pritampanda15/biomethod/pkg/types"
)

// Collect walks root for known manifest files and merges what they
// declare. Unparseable manifests are skipped with a diagnostic; a tree
// without manifests yields an empty EnvironmentInfo.
func Collect(root string) (types.EnvironmentInfo, []types.Diagnostic) {
	info := types.EnvironmentInfo{Packages: make(map[string]string)}
	var diags []types.Diagnostic

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != root && strings.HasPrefix(d.Name(), ".") {
				return fs.SkipDir
			}
			return nil
		}
		name := d.Name()
		lower := strings.ToLower(name)
		var perr error
		switch {
		case strings.HasPrefix(lower, "requirements") && strings.HasSuffix(lower, ".txt"):
			perr = readRequirements(path, &info)
		case lower == "environment.yml" || lower == "environment.yaml":
			perr = readCondaEnv(path, &info)
		case lower == "pyproject.toml":
			perr = readPyproject(path, &info)
		case strings.HasPrefix(name, "Dockerfile"):
			perr = readDockerfile(path, &info)
		case strings.HasSuffix(lower, ".def"):
			perr = readSingularityDef(path, &info)
		}
		if perr != nil {
			diags = append(diags, types.Diagnostic{
				File:   path,
				Reason: fmt.Sprintf("manifest skipped: %v", perr),
			})
		}
		return nil
	})
	if err != nil {
		diags = append(diags, types.Diagnostic{
			File:   root,
			Reason: fmt.Sprintf("environment scan aborted: %v", err),
		})
	}

	sort.Strings(info.Containers)
	sort.Strings(info.RequirementsFiles)
	sort.Strings(info.EnvironmentFiles)
	if len(info.Packages) == 0 {
		info.Packages = nil
	}
	return info, diags
}

// readRequirements parses pip requirement lines. Only the name/version
// pair is kept; extras, markers and options are dropped.
func readRequirements(path string, info *types.EnvironmentInfo) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	info.RequirementsFiles = append(info.RequirementsFiles, path)
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "-") {
			continue
		}
		if i := strings.IndexByte(line, ';'); i >= 0 {
			line = strings.TrimSpace(line[:i])
		}
		name, version := splitSpec(line)
		if name != "" {
			info.Packages[name] = version
		}
	}
	return nil
}

// condaEnvFile is the subset of a conda environment file the report needs.
// Dependencies mixes plain specs with a nested pip map.
type condaEnvFile struct {
	Name         string `yaml:"name"`
	Dependencies []any  `yaml:"dependencies"`
}

func readCondaEnv(path string, info *types.EnvironmentInfo) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var env condaEnvFile
	if err := yaml.Unmarshal(data, &env); err != nil {
		return err
	}
	info.EnvironmentFiles = append(info.EnvironmentFiles, path)
	if info.CondaEnvironment == "" {
		info.CondaEnvironment = env.Name
	}
	for _, dep := range env.Dependencies {
		switch v := dep.(type) {
		case string:
			spec := v
			if _, name, found := strings.Cut(spec, "::"); found {
				spec = name
			}
			name, version := splitSpec(spec)
			if name != "" {
				info.Packages[name] = version
			}
		case map[string]any:
			pip, _ := v["pip"].([]any)
			for _, item := range pip {
				if s, ok := item.(string); ok {
					name, version := splitSpec(s)
					if name != "" {
						info.Packages[name] = version
					}
				}
			}
		}
	}
	return nil
}

// pyprojectFile covers both PEP 621 dependencies and the poetry table.
type pyprojectFile struct {
	Project struct {
		Dependencies []string `toml:"dependencies"`
	} `toml:"project"`
	Tool struct {
		Poetry struct {
			Dependencies map[string]any `toml:"dependencies"`
		} `toml:"poetry"`
	} `toml:"tool"`
}

func readPyproject(path string, info *types.EnvironmentInfo) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var doc pyprojectFile
	if err := toml.Unmarshal(data, &doc); err != nil {
		return err
	}
	info.EnvironmentFiles = append(info.EnvironmentFiles, path)
	for _, spec := range doc.Project.Dependencies {
		name, version := splitSpec(spec)
		if name != "" {
			info.Packages[name] = version
		}
	}
	for name, constraint := range doc.Tool.Poetry.Dependencies {
		if name == "python" {
			continue
		}
		version := ""
		if s, ok := constraint.(string); ok {
			version = strings.TrimLeft(s, "^~>=<")
		}
		info.Packages[name] = version
	}
	return nil
}

func readDockerfile(path string, info *types.EnvironmentInfo) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	info.EnvironmentFiles = append(info.EnvironmentFiles, path)
	for _, line := range strings.Split(string(data), "\n") {
		fields := strings.Fields(line)
		if len(fields) >= 2 && strings.EqualFold(fields[0], "FROM") {
			image := fields[1]
			if !strings.EqualFold(image, "scratch") {
				info.Containers = append(info.Containers, image)
			}
		}
	}
	return nil
}

func readSingularityDef(path string, info *types.EnvironmentInfo) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	info.EnvironmentFiles = append(info.EnvironmentFiles, path)
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if rest, found := strings.CutPrefix(line, "From:"); found {
			if image := strings.TrimSpace(rest); image != "" {
				info.Containers = append(info.Containers, image)
			}
		}
	}
	return nil
}

// splitSpec cuts a requirement spec into name and pinned version. Only
// exact pins (== or conda's =) carry a version; ranges leave it open.
func splitSpec(spec string) (name, version string) {
	spec = strings.TrimSpace(spec)
	if i := strings.IndexByte(spec, '['); i >= 0 {
		// name[extra]==1.0: the extras list is not part of the name.
		if j := strings.IndexByte(spec, ']'); j > i {
			spec = spec[:i] + spec[j+1:]
		}
	}
	for _, op := range []string{"==", ">=", "<=", "~=", "!=", "=", ">", "<"} {
		if head, tail, found := strings.Cut(spec, op); found {
			name = strings.TrimSpace(head)
			if op == "==" || op == "=" {
				version = strings.TrimSpace(tail)
			}
			return name, version
		}
	}
	return spec, ""
}
