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
	reRuleHeader    = regexp.MustCompile(`(?m)^(?:rule|checkpoint)\s+(\w+)\s*:`)
	reSmkShell      = regexp.MustCompile(`\bshell\s*[:(]`)
	reSmkWrapper    = regexp.MustCompile(`\bwrapper\s*:\s*['"]([^'"]+)['"]`)
	reSmkContainer  = regexp.MustCompile(`\b(?:container|singularity)\s*:\s*['"]([^'"]+)['"]`)
	reSmkRunSection = regexp.MustCompile(`(?m)^\s*run\s*:\s*$`)
)

// Snakemake extracts tool invocations from Snakefiles: shell directives,
// wrapper references, container directives, and python code in run blocks.
// Each rule or checkpoint block is one unit.
type Snakemake struct {
	reg *registry.Registry
	py  *Python
}

func NewSnakemake(reg *registry.Registry) *Snakemake {
	return &Snakemake{reg: reg, py: NewPython(reg)}
}

func (s *Snakemake) Kind() types.SourceKind { return types.KindSnakemake }

// Parse splits the file at rule headers. A rule's body runs to the next
// non-indented line; everything outside rules forms one top-level unit
// (global container directives, onstart handlers).
func (s *Snakemake) Parse(file string, src []byte) ([]Unit, []types.Diagnostic) {
	lines := strings.Split(string(src), "\n")
	var (
		units    []Unit
		toplevel []string
	)
	for i := 0; i < len(lines); i++ {
		m := reRuleHeader.FindStringSubmatch(lines[i])
		if m == nil {
			toplevel = append(toplevel, lines[i])
			continue
		}
		j := i + 1
		for j < len(lines) {
			line := lines[j]
			if strings.TrimSpace(line) != "" && line[0] != ' ' && line[0] != '\t' {
				break
			}
			j++
		}
		units = append(units, Unit{
			Location: types.SourceLocation{File: file, Line: i + 1, Cell: -1, Unit: m[1]},
			Text:     strings.Join(lines[i:j], "\n"),
		})
		i = j - 1
	}
	if text := strings.Join(toplevel, "\n"); strings.TrimSpace(text) != "" {
		units = append(units, Unit{
			Location: types.SourceLocation{File: file, Line: 1, Cell: -1},
			Text:     text,
		})
	}
	return units, nil
}

// ToolCalls extracts from one rule block: shell directives and shell()
// calls, wrapper references, container directives, and run-block python.
func (s *Snakemake) ToolCalls(u Unit) ([]types.RawInvocation, []types.Diagnostic) {
	var (
		out   []types.RawInvocation
		diags []types.Diagnostic
	)

	for _, idx := range reSmkShell.FindAllStringIndex(u.Text, -1) {
		body, ok := directiveStrings(u.Text[idx[1]:])
		if !ok {
			continue
		}
		out = append(out, s.shellCommands(u, body)...)
	}

	for _, m := range reSmkWrapper.FindAllStringSubmatch(u.Text, -1) {
		if inv, ok := s.wrapperMention(u, m[1]); ok {
			out = append(out, inv)
		}
	}

	for _, m := range reSmkContainer.FindAllStringSubmatch(u.Text, -1) {
		if rec, _, ok := s.reg.MatchContainerImage(m[1]); ok {
			out = append(out, types.RawInvocation{
				Location: u.Location,
				Command:  rec.Name,
				Params:   []types.Param{{Flag: "container", Value: m[1]}},
			})
		}
	}

	if m := reSmkRunSection.FindStringIndex(u.Text); m != nil {
		pyUnits, d := pythonUnits(u.Location.File, u.Text[m[1]:], u.Location)
		diags = append(diags, d...)
		for _, pu := range pyUnits {
			pu.Location = u.Location
			inv, pd := s.py.ToolCalls(pu)
			out = append(out, inv...)
			diags = append(diags, pd...)
		}
	}
	return out, diags
}

// directiveStrings reads the string value of a shell directive: one or more
// adjacent python string literals in any of the four quote styles, joined
// with spaces (implicit concatenation).
func directiveStrings(rest string) (string, bool) {
	var parts []string
	for {
		rest = strings.TrimLeft(rest, " \t\n\\")
		text, ok, terminated := pyStringLiteral(rest)
		if !ok || !terminated {
			break
		}
		parts = append(parts, text)
		rest = rest[literalLen(rest):]
	}
	if len(parts) == 0 {
		return "", false
	}
	return strings.Join(parts, " "), true
}

// wrapperMention resolves a snakemake wrapper path such as
// "v1.25.0/bio/bwa/mem" by looking up the path segments after bio/.
func (s *Snakemake) wrapperMention(u Unit, path string) (types.RawInvocation, bool) {
	segs := strings.Split(path, "/")
	for i, seg := range segs {
		if seg != "bio" || i+1 >= len(segs) {
			continue
		}
		if rec, ok := s.reg.Lookup(segs[i+1]); ok {
			inv := types.RawInvocation{
				Location: u.Location,
				Command:  rec.Name,
				Params:   []types.Param{{Flag: "wrapper", Value: path}},
			}
			if rec.MultiTool && i+2 < len(segs) {
				inv.Args = []string{segs[i+2]}
			}
			return inv, true
		}
	}
	return types.RawInvocation{}, false
}

// shellCommands runs the shell splitter over a directive body. Snakemake's
// {input}/{output} placeholders survive the grammar as literal words and
// are masked afterwards.
func (s *Snakemake) shellCommands(u Unit, body string) []types.RawInvocation {
	var out []types.RawInvocation
	cmds, _ := shellwords.Scan(body)
	for _, cmd := range cmds {
		head := shellwords.Mask(shellwords.BaseCommand(cmd.Tokens[0]))
		if head == shellwords.Variable || shellwords.Noise(head) {
			continue
		}
		args := make([]string, 0, len(cmd.Tokens)-1)
		for _, t := range cmd.Tokens[1:] {
			args = append(args, shellwords.Mask(t))
		}
		out = append(out, types.RawInvocation{
			Location: u.Location,
			Command:  head,
			Args:     args,
			Params:   shellwords.Params(args),
		})
	}
	return out
}
