// Copyright Pritam Panda, 2026. All rights reserved.

// Package registry loads the canonical tool database and resolves raw
// tokens against it. The registry is immutable after load and safe for
// concurrent lookups.
package registry

import (
	_ "embed"
	"fmt"
	"os"
	"sort"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/pritampanda15/biomethod/pkg/types"
)

//go:embed tools.yaml
var builtinDB []byte

// database is the on-disk shape of a tool database file.
type database struct {
	Tools map[string]*types.ToolRecord `yaml:"tools"`
}

// Registry is the immutable lookup of canonical tool records. Lookup order:
// exact canonical name, exact alias, then a normalized match ignoring
// non-alphanumeric separators. No edit-distance matching: false positives
// on short tool names are worse than false negatives.
type Registry struct {
	records map[string]*types.ToolRecord // canonical name (lower) -> record
	norm    map[string]string            // normalized name/alias -> canonical

	pyWrappers map[string]string // python import name (lower) -> canonical
	rPackages  map[string]string // r package name (lower) -> canonical
	rFunctions map[string]string // r function name (exact) -> canonical
}

// Load reads a tool database from path, or the embedded default database
// when path is empty. A duplicate alias across two tools is a
// configuration-integrity error and fails the load; an empty database is
// not an error (every lookup will miss).
func Load(path string) (*Registry, error) {
	data := builtinDB
	if path != "" {
		var err error
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading tool database %s: %w", path, err)
		}
	}
	return LoadBytes(data)
}

// LoadBytes builds a registry from raw database YAML.
func LoadBytes(data []byte) (*Registry, error) {
	var db database
	if err := yaml.Unmarshal(data, &db); err != nil {
		return nil, fmt.Errorf("parsing tool database: %w", err)
	}

	r := Empty()
	names := make([]string, 0, len(db.Tools))
	for name := range db.Tools {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		rec := db.Tools[name]
		if rec == nil {
			rec = &types.ToolRecord{}
		}
		rec.Name = name
		if rec.Category == "" {
			rec.Category = types.CategoryOther
		}

		key := strings.ToLower(name)
		if _, dup := r.records[key]; dup {
			return nil, fmt.Errorf("duplicate tool entry %q", name)
		}
		r.records[key] = rec

		if err := r.index(normalize(name), name, name); err != nil {
			return nil, err
		}
		for _, alias := range rec.Aliases {
			if err := r.index(normalize(alias), name, alias); err != nil {
				return nil, err
			}
		}
		for _, imp := range rec.Wrappers.Python {
			r.pyWrappers[strings.ToLower(imp)] = key
		}
		for _, pkg := range rec.Wrappers.R {
			r.rPackages[strings.ToLower(pkg)] = key
		}
		for _, fn := range rec.Wrappers.RFunctions {
			r.rFunctions[fn] = key
		}
	}
	return r, nil
}

// Empty returns a registry with no records. Every lookup misses, routing all
// invocations to the unknown bucket.
func Empty() *Registry {
	return &Registry{
		records:    make(map[string]*types.ToolRecord),
		norm:       make(map[string]string),
		pyWrappers: make(map[string]string),
		rPackages:  make(map[string]string),
		rFunctions: make(map[string]string),
	}
}

// index registers one normalized spelling for a canonical name, rejecting
// collisions between distinct tools.
func (r *Registry) index(normKey, canonical, literal string) error {
	if normKey == "" {
		return nil
	}
	if have, ok := r.norm[normKey]; ok && have != canonical {
		return fmt.Errorf("alias %q is declared by both %q and %q", literal, have, canonical)
	}
	r.norm[normKey] = canonical
	return nil
}

// Lookup resolves a raw token against canonical names and aliases. The
// match is case-insensitive and ignores non-alphanumeric separators, so
// bwa_mem2, bwa-mem2 and BWAMEM2 all land on the same record.
func (r *Registry) Lookup(token string) (*types.ToolRecord, bool) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, false
	}
	if rec, ok := r.records[strings.ToLower(token)]; ok {
		return rec, true
	}
	if canonical, ok := r.norm[normalize(token)]; ok {
		return r.records[strings.ToLower(canonical)], true
	}
	return nil, false
}

// Record returns the record for an exact canonical name.
func (r *Registry) Record(name string) (*types.ToolRecord, bool) {
	rec, ok := r.records[strings.ToLower(name)]
	return rec, ok
}

// LookupPythonImport maps a python import path to a tool record, trying the
// full dotted path before the root module.
func (r *Registry) LookupPythonImport(module string) (*types.ToolRecord, bool) {
	module = strings.ToLower(module)
	if canonical, ok := r.pyWrappers[module]; ok {
		return r.records[canonical], true
	}
	root, _, _ := strings.Cut(module, ".")
	if canonical, ok := r.pyWrappers[root]; ok {
		return r.records[canonical], true
	}
	return nil, false
}

// LookupRPackage maps an R package name (from library/require) to a record.
func (r *Registry) LookupRPackage(pkg string) (*types.ToolRecord, bool) {
	if canonical, ok := r.rPackages[strings.ToLower(pkg)]; ok {
		return r.records[canonical], true
	}
	return nil, false
}

// RFunctions returns the map of recognized R function names to canonical
// tool names. Function names are matched case-sensitively: R is
// case-sensitive and DESeq/deseq are different identifiers.
func (r *Registry) RFunctions() map[string]string {
	return r.rFunctions
}

// Len returns the number of canonical records.
func (r *Registry) Len() int { return len(r.records) }

// Names returns all canonical names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.records))
	for _, rec := range r.records {
		names = append(names, rec.Name)
	}
	sort.Strings(names)
	return names
}

// MatchContainerImage finds the tool named in a container image reference
// such as quay.io/biocontainers/salmon:1.10.1--h7e5ed60_0. It matches
// registry names and aliases against the image's path segments, and returns
// the image tag's leading version when present.
func (r *Registry) MatchContainerImage(image string) (*types.ToolRecord, string, bool) {
	ref := strings.ToLower(image)
	version := ""
	if i := strings.LastIndex(ref, ":"); i >= 0 {
		tag := ref[i+1:]
		ref = ref[:i]
		version = leadingVersion(tag)
	}
	for _, seg := range strings.Split(ref, "/") {
		// Image names often carry suffixes (bwa-mem2, samtools_1.17);
		// try the whole segment, then its separator-delimited head.
		if rec, ok := r.Lookup(seg); ok {
			return rec, version, true
		}
		head := seg
		if i := strings.IndexAny(seg, "_."); i > 0 {
			head = seg[:i]
		}
		if head != seg {
			if rec, ok := r.Lookup(head); ok {
				return rec, version, true
			}
		}
	}
	return nil, "", false
}

// leadingVersion trims a container tag down to its version prefix:
// "1.10.1--h7e5ed60_0" becomes "1.10.1", "v2.1" becomes "2.1".
func leadingVersion(tag string) string {
	tag = strings.TrimPrefix(tag, "v")
	end := 0
	for end < len(tag) && (tag[end] == '.' || (tag[end] >= '0' && tag[end] <= '9')) {
		end++
	}
	v := strings.Trim(tag[:end], ".")
	return v
}

// normalize lower-cases a token and strips every non-alphanumeric rune, so
// separator and casing variants collapse to one key.
func normalize(token string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(token)) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}
