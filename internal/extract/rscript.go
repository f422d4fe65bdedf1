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
	reRLibrary = regexp.MustCompile(`\b(?:library|require)\s*\(\s*["']?([\w.]+)["']?\s*[,)]`)
	reRPLoad   = regexp.MustCompile(`\bp_load\s*\(([^)]*)\)`)
	reRSystem  = regexp.MustCompile(`\bsystem2?\s*\(`)
	reRNamed   = regexp.MustCompile(`([\w.]+)\s*=\s*([^,()]+)`)
)

// RScript extracts tool invocations from R scripts and R Markdown: package
// loads via library/require/p_load, calls to registered tool functions,
// and system/system2 shell-outs. In .Rmd files only fenced {r} chunks are
// scanned.
type RScript struct {
	reg *registry.Registry

	// reFuncs matches any registered R tool function at a call site. Nil
	// when the registry declares none.
	reFuncs *regexp.Regexp
}

func NewRScript(reg *registry.Registry) *RScript {
	r := &RScript{reg: reg}
	fns := reg.RFunctions()
	if len(fns) > 0 {
		names := make([]string, 0, len(fns))
		for fn := range fns {
			names = append(names, regexp.QuoteMeta(fn))
		}
		r.reFuncs = regexp.MustCompile(`\b(` + strings.Join(names, "|") + `)\s*\(`)
	}
	return r
}

func (r *RScript) Kind() types.SourceKind { return types.KindRScript }

// Parse splits the script into statements, joining lines while a bracket
// is open. R Markdown is reduced to its {r} chunk bodies first, with line
// numbering preserved.
func (r *RScript) Parse(file string, src []byte) ([]Unit, []types.Diagnostic) {
	text := string(src)
	if isRMarkdown(file, text) {
		text = rChunkBodies(text)
	}
	return pythonUnits(file, text, types.SourceLocation{File: file, Cell: -1})
}

func isRMarkdown(file, text string) bool {
	lower := strings.ToLower(file)
	if strings.HasSuffix(lower, ".rmd") {
		return true
	}
	return strings.Contains(text, "```{r")
}

// rChunkBodies blanks every line outside ```{r} fences so statement line
// numbers survive the reduction.
func rChunkBodies(text string) string {
	lines := strings.Split(text, "\n")
	in := false
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		switch {
		case !in && strings.HasPrefix(trimmed, "```{r"):
			in = true
			lines[i] = ""
		case in && strings.HasPrefix(trimmed, "```"):
			in = false
			lines[i] = ""
		case !in:
			lines[i] = ""
		}
	}
	return strings.Join(lines, "\n")
}

// ToolCalls recognizes package loads, registered tool-function calls, and
// system shell-outs in one statement.
func (r *RScript) ToolCalls(u Unit) ([]types.RawInvocation, []types.Diagnostic) {
	var out []types.RawInvocation

	for _, m := range reRLibrary.FindAllStringSubmatch(u.Text, -1) {
		if rec, ok := r.reg.LookupRPackage(m[1]); ok {
			out = append(out, types.RawInvocation{
				Location: u.Location,
				Command:  rec.Name,
			})
		}
	}
	for _, m := range reRPLoad.FindAllStringSubmatch(u.Text, -1) {
		for _, item := range strings.Split(m[1], ",") {
			pkg := strings.Trim(strings.TrimSpace(item), `'"`)
			if rec, ok := r.reg.LookupRPackage(pkg); ok {
				out = append(out, types.RawInvocation{
					Location: u.Location,
					Command:  rec.Name,
				})
			}
		}
	}

	if r.reFuncs != nil {
		fns := r.reg.RFunctions()
		for _, m := range r.reFuncs.FindAllStringSubmatchIndex(u.Text, -1) {
			fn := u.Text[m[2]:m[3]]
			inv := types.RawInvocation{
				Location: u.Location,
				Command:  fns[fn],
				Params:   []types.Param{{Flag: fn}},
			}
			span := parenSpan(u.Text[m[1]:])
			for _, kw := range reRNamed.FindAllStringSubmatch(span, -1) {
				inv.Params = append(inv.Params, types.Param{
					Flag:  kw[1],
					Value: shellwords.Mask(strings.Trim(strings.TrimSpace(kw[2]), `'"`)),
				})
			}
			out = append(out, inv)
		}
	}

	out = append(out, r.shellOuts(u)...)
	return out, nil
}

// shellOuts handles system("bwa mem ...") and system2("salmon", c(...)).
// Only literal commands are extracted; a command built in a variable is
// invisible to static scanning.
func (r *RScript) shellOuts(u Unit) []types.RawInvocation {
	var out []types.RawInvocation
	for _, idx := range reRSystem.FindAllStringIndex(u.Text, -1) {
		span := parenSpan(u.Text[idx[1]:])
		rest := strings.TrimLeft(span, " \t\n")
		text, ok, terminated := pyStringLiteral(rest)
		if !ok || !terminated {
			continue
		}

		// system2 passes the command bare and its arguments via c(...).
		if args, found := rVectorTokens(span); found {
			head := shellwords.Mask(shellwords.BaseCommand(text))
			if head == shellwords.Variable || shellwords.Noise(head) {
				continue
			}
			out = append(out, types.RawInvocation{
				Location: u.Location,
				Command:  head,
				Args:     args,
				Params:   shellwords.Params(args),
			})
			continue
		}

		cmds, _ := shellwords.Scan(text)
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
	}
	return out
}

// rVectorTokens extracts the string elements of the first c(...) vector in
// a call span. Non-literal elements become the variable placeholder.
func rVectorTokens(span string) ([]string, bool) {
	i := strings.Index(span, "c(")
	if i < 0 {
		return nil, false
	}
	body := parenSpan(span[i+2:])
	var tokens []string
	for _, item := range strings.Split(body, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		if item[0] == '\'' || item[0] == '"' {
			tokens = append(tokens, strings.Trim(item, `'"`))
		} else {
			tokens = append(tokens, shellwords.Variable)
		}
	}
	return tokens, true
}
