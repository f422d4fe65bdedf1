// Copyright Pritam Panda, 2026. All rights reserved.

package extract

import (
	"regexp"
	"strings"

	"github.com/pritampanda15/biomethod/internal/registry"
	"github.com/pritampanda15/biomethod/internal/shellwords"
	"github.com/pritampanda15/biomethod/pkg/types"
)

var (
	reProcessHeader = regexp.MustCompile(`(?m)^[ \t]*process\s+(\w+)\s*\{`)
	reNfContainer   = regexp.MustCompile(`(?m)^[ \t]*container\s+['"]([^'"]+)['"]`)
	reNfConda       = regexp.MustCompile(`(?m)^[ \t]*conda\s+['"]([^'"]+)['"]`)
	reNfParamImage  = regexp.MustCompile(`(?m)^[ \t]*params\.(\w*container\w*)\s*=\s*['"]([^'"]+)['"]`)
	reTripleQuoted  = regexp.MustCompile(`(?s)"""(.*?)"""|'''(.*?)'''`)
)

// Nextflow extracts tool invocations from nextflow pipelines. Each process
// block is one unit; the script body is handed to the shell splitter and
// container/conda directives are matched against the registry. Top-level
// code outside processes forms one extra unit for params-level container
// images.
type Nextflow struct {
	reg *registry.Registry
}

func NewNextflow(reg *registry.Registry) *Nextflow { return &Nextflow{reg: reg} }

func (n *Nextflow) Kind() types.SourceKind { return types.KindNextflow }

// Parse cuts the file into process blocks by brace matching from each
// process header. A header whose block never closes is a diagnostic; blocks
// before it still extract.
func (n *Nextflow) Parse(file string, src []byte) ([]Unit, []types.Diagnostic) {
	text := string(src)
	var (
		units []Unit
		diags []types.Diagnostic
	)

	remainder := []byte(text)
	for _, m := range reProcessHeader.FindAllStringSubmatchIndex(text, -1) {
		name := text[m[2]:m[3]]
		headerLine := 1 + strings.Count(text[:m[0]], "\n")
		body, end, ok := braceBlock(text[m[1]:])
		if !ok {
			diags = append(diags, types.Diagnostic{
				File:     file,
				Location: types.SourceLocation{File: file, Line: headerLine, Cell: -1}.String(),
				Reason:   "process block never closes",
			})
			continue
		}
		units = append(units, Unit{
			Location: types.SourceLocation{File: file, Line: headerLine, Cell: -1, Unit: name},
			Text:     body,
		})
		for i := m[0]; i < m[1]+end; i++ {
			if remainder[i] != '\n' {
				remainder[i] = ' '
			}
		}
	}

	toplevel := string(remainder)
	if strings.TrimSpace(toplevel) != "" {
		units = append(units, Unit{
			Location: types.SourceLocation{File: file, Line: 1, Cell: -1},
			Text:     toplevel,
		})
	}
	return units, diags
}

// braceBlock returns the body of the brace block the input starts inside of
// (opening brace already consumed) and the offset just past its closing
// brace. Quoted strings are skipped so braces inside script bodies do not
// unbalance the count.
func braceBlock(s string) (body string, end int, ok bool) {
	depth := 1
	i := 0
	for i < len(s) {
		switch s[i] {
		case '\'', '"':
			quote := string(s[i])
			if strings.HasPrefix(s[i:], strings.Repeat(quote, 3)) {
				quote = strings.Repeat(quote, 3)
			}
			i += len(quote)
			for i < len(s) && !strings.HasPrefix(s[i:], quote) {
				if s[i] == '\\' {
					i++
				}
				i++
			}
			i += len(quote)
			continue
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[:i], i + 1, true
			}
		}
		i++
	}
	return "", 0, false
}

// ToolCalls extracts from one process block: the container and conda
// directives, then every command in the script body.
func (n *Nextflow) ToolCalls(u Unit) ([]types.RawInvocation, []types.Diagnostic) {
	var out []types.RawInvocation

	for _, m := range reNfContainer.FindAllStringSubmatch(u.Text, -1) {
		if inv, ok := n.containerMention(u, m[1]); ok {
			out = append(out, inv)
		}
	}
	for _, m := range reNfParamImage.FindAllStringSubmatch(u.Text, -1) {
		if inv, ok := n.containerMention(u, m[2]); ok {
			out = append(out, inv)
		}
	}
	for _, m := range reNfConda.FindAllStringSubmatch(u.Text, -1) {
		out = append(out, n.condaMentions(u, m[1])...)
	}

	for _, m := range reTripleQuoted.FindAllStringSubmatchIndex(u.Text, -1) {
		start, stop := m[2], m[3]
		if start < 0 {
			start, stop = m[4], m[5]
		}
		body := u.Text[start:stop]
		baseLine := u.Location.Line + strings.Count(u.Text[:start], "\n")
		out = append(out, n.scriptCommands(u, body, baseLine)...)
	}
	return out, nil
}

// containerMention matches a container image against the registry. Images
// naming no registered tool (plain base images) are not worth an unknown
// entry.
func (n *Nextflow) containerMention(u Unit, image string) (types.RawInvocation, bool) {
	rec, _, ok := n.reg.MatchContainerImage(image)
	if !ok {
		return types.RawInvocation{}, false
	}
	return types.RawInvocation{
		Location: u.Location,
		Command:  rec.Name,
		Params:   []types.Param{{Flag: "container", Value: image}},
	}, true
}

// condaMentions parses a conda directive value: whitespace-separated
// package specs, optionally channel-qualified (bioconda::salmon=1.10.1).
func (n *Nextflow) condaMentions(u Unit, spec string) []types.RawInvocation {
	var out []types.RawInvocation
	for _, pkg := range strings.Fields(spec) {
		if _, name, found := strings.Cut(pkg, "::"); found {
			pkg = name
		}
		name := pkg
		for _, sep := range []string{"==", "=", ">=", "<="} {
			if head, _, found := strings.Cut(name, sep); found {
				name = head
				break
			}
		}
		if rec, ok := n.reg.Lookup(name); ok {
			out = append(out, types.RawInvocation{
				Location: u.Location,
				Command:  rec.Name,
				Params:   []types.Param{{Flag: "conda", Value: pkg}},
			})
		}
	}
	return out
}

// scriptCommands runs the shell splitter over a script body. Nextflow's
// groovy interpolations make many bodies invalid shell; the loose splitter
// fallback still salvages command heads.
func (n *Nextflow) scriptCommands(u Unit, body string, baseLine int) []types.RawInvocation {
	var out []types.RawInvocation
	cmds, _ := shellwords.Scan(body)
	for _, cmd := range cmds {
		head := shellwords.Mask(shellwords.BaseCommand(cmd.Tokens[0]))
		if head == shellwords.Variable || shellwords.Noise(head) {
			continue
		}
		loc := u.Location
		loc.Line = baseLine + cmd.Line - 1
		args := make([]string, 0, len(cmd.Tokens)-1)
		for _, t := range cmd.Tokens[1:] {
			args = append(args, shellwords.Mask(t))
		}
		out = append(out, types.RawInvocation{
			Location: loc,
			Command:  head,
			Args:     args,
			Params:   shellwords.Params(args),
		})
	}
	return out
}
