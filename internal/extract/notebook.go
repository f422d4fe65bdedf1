// Copyright Pritam Panda, 2026. All rights reserved.

package extract

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pritampanda15/biomethod/internal/registry"
	"github.com/pritampanda15/biomethod/internal/shellwords"
	"github.com/pritampanda15/biomethod/pkg/types"
)

// Notebook extracts tool invocations from Jupyter notebooks. Each code cell
// is one unit; cell code is delegated to the python extractor, with `!`
// shell escapes and %%bash cells handed to the shell splitter. One
// malformed cell yields one diagnostic and never blocks its neighbors.
type Notebook struct {
	reg *registry.Registry
	py  *Python
}

func NewNotebook(reg *registry.Registry) *Notebook {
	return &Notebook{reg: reg, py: NewPython(reg)}
}

func (n *Notebook) Kind() types.SourceKind { return types.KindNotebook }

// nbCell decodes the fields of one notebook cell that extraction needs.
// Source is raw because the format allows both a string and a line array.
type nbCell struct {
	CellType string          `json:"cell_type"`
	Source   json.RawMessage `json:"source"`
}

// Parse decodes the notebook envelope and returns one unit per code cell.
// Cells are decoded individually so a malformed cell becomes a per-cell
// diagnostic instead of failing the whole file.
func (n *Notebook) Parse(file string, src []byte) ([]Unit, []types.Diagnostic) {
	var doc struct {
		Cells []json.RawMessage `json:"cells"`
	}
	if err := json.Unmarshal(src, &doc); err != nil {
		return nil, []types.Diagnostic{{
			File:   file,
			Reason: fmt.Sprintf("not a notebook: %v", err),
		}}
	}

	var (
		units []Unit
		diags []types.Diagnostic
	)
	for i, raw := range doc.Cells {
		loc := types.SourceLocation{File: file, Cell: i}
		var cell nbCell
		if err := json.Unmarshal(raw, &cell); err != nil {
			diags = append(diags, types.Diagnostic{
				File:     file,
				Location: loc.String(),
				Reason:   fmt.Sprintf("malformed cell: %v", err),
			})
			continue
		}
		if cell.CellType != "code" {
			continue
		}
		text, err := cellSource(cell.Source)
		if err != nil {
			diags = append(diags, types.Diagnostic{
				File:     file,
				Location: loc.String(),
				Reason:   fmt.Sprintf("malformed cell source: %v", err),
			})
			continue
		}
		if strings.TrimSpace(text) == "" {
			continue
		}
		units = append(units, Unit{Location: loc, Text: text})
	}
	return units, diags
}

// cellSource joins a cell's source, which the format stores as either a
// single string or an array of lines.
func cellSource(raw json.RawMessage) (string, error) {
	var lines []string
	if err := json.Unmarshal(raw, &lines); err == nil {
		return strings.Join(lines, ""), nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", err
	}
	return s, nil
}

// ToolCalls splits a cell into its shell escapes and its python remainder.
// `!cmd` lines and %%bash cells go through the shell splitter; line magics
// are dropped; everything else is python.
func (n *Notebook) ToolCalls(u Unit) ([]types.RawInvocation, []types.Diagnostic) {
	lines := strings.Split(u.Text, "\n")

	if strings.HasPrefix(strings.TrimSpace(lines[0]), "%%") {
		magic := strings.TrimSpace(lines[0])
		if magic == "%%bash" || magic == "%%sh" || strings.HasPrefix(magic, "%%script") {
			return n.shellLines(u, strings.Join(lines[1:], "\n")), nil
		}
		// Other cell magics (%%time, %%capture) wrap python code.
		lines = lines[1:]
	}

	var (
		out     []types.RawInvocation
		pyLines []string
	)
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(trimmed, "!"):
			out = append(out, n.shellLines(u, strings.TrimPrefix(trimmed, "!"))...)
			pyLines = append(pyLines, "")
		case strings.HasPrefix(trimmed, "%"):
			pyLines = append(pyLines, "")
		default:
			pyLines = append(pyLines, line)
		}
	}

	units, diags := pythonUnits(u.Location.File, strings.Join(pyLines, "\n"), u.Location)
	for _, pu := range units {
		// Cell units keep the cell as the location; statement lines
		// within a cell are not tracked.
		pu.Location = u.Location
		inv, d := n.py.ToolCalls(pu)
		out = append(out, inv...)
		diags = append(diags, d...)
	}
	return out, diags
}

// shellLines runs the shell splitter over a `!` escape or %%bash body.
// IPython's {expr} and $var interpolations are masked like any other
// runtime value.
func (n *Notebook) shellLines(u Unit, src string) []types.RawInvocation {
	var out []types.RawInvocation
	cmds, _ := shellwords.Scan(src)
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
