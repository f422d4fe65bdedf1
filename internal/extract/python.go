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
	rePyImport     = regexp.MustCompile(`(?m)^\s*import\s+([\w. ,]+)`)
	rePyFromImport = regexp.MustCompile(`(?m)^\s*from\s+([\w.]+)\s+import\b`)
	rePySubprocess = regexp.MustCompile(
		`\b(?:subprocess\.(?:run|call|check_call|check_output|Popen)|os\.system|os\.popen)\s*\(`)
	rePyAttrCall = regexp.MustCompile(`\b([A-Za-z_]\w*)\.([\w.]+)\s*\(`)
	rePyKwarg    = regexp.MustCompile(`(\w+)\s*=\s*([^,()\[\]]+)`)
)

// Python extracts tool invocations from imperative python scripts: wrapper
// library imports, subprocess/os shell-outs, and calls through imported
// wrapper modules.
type Python struct {
	reg *registry.Registry
}

func NewPython(reg *registry.Registry) *Python { return &Python{reg: reg} }

func (p *Python) Kind() types.SourceKind { return types.KindPython }

// Parse splits the script into logical statements: physical lines joined
// while a bracket, backslash continuation, or triple-quoted string is open.
// A string literal still open at end of file makes the trailing statement a
// diagnostic instead of a unit.
func (p *Python) Parse(file string, src []byte) ([]Unit, []types.Diagnostic) {
	return pythonUnits(file, string(src), types.SourceLocation{File: file, Cell: -1})
}

// pythonUnits is shared with the notebook extractor, which supplies a base
// location carrying the cell index. Cell-based locations keep the cell as
// their granularity; line offsets apply only to whole files.
func pythonUnits(file, src string, base types.SourceLocation) ([]Unit, []types.Diagnostic) {
	var (
		units []Unit
		diags []types.Diagnostic
		st    pyScanState
		buf   strings.Builder
		start = -1
	)

	at := func(line int) types.SourceLocation {
		loc := base
		if base.Cell < 0 {
			loc.Line = base.Line + line
		}
		return loc
	}

	lines := strings.Split(src, "\n")
	flush := func() {
		if start < 0 {
			return
		}
		text := buf.String()
		buf.Reset()
		first := start
		start = -1
		if strings.TrimSpace(text) == "" {
			return
		}
		units = append(units, Unit{Location: at(first), Text: text})
	}

	for i, line := range lines {
		if start < 0 {
			if strings.TrimSpace(line) == "" {
				continue
			}
			start = i + 1
		} else {
			buf.WriteByte('\n')
		}
		buf.WriteString(line)
		st.scan(line)
		if st.open() {
			continue
		}
		if strings.HasSuffix(strings.TrimRight(line, " \t"), "\\") {
			continue
		}
		flush()
	}
	if start >= 0 {
		if st.inString {
			diags = append(diags, types.Diagnostic{
				File:     file,
				Location: at(start).String(),
				Reason:   "unterminated string literal",
			})
		} else {
			flush()
		}
	}
	return units, diags
}

// pyScanState tracks string and bracket nesting across physical lines.
type pyScanState struct {
	depth    int
	inString bool
	triple   bool
	delim    byte
}

func (s *pyScanState) open() bool { return s.depth > 0 || s.inString }

func (s *pyScanState) scan(line string) {
	i := 0
	for i < len(line) {
		c := line[i]
		if s.inString {
			switch {
			case c == '\\':
				i += 2
				continue
			case s.triple && c == s.delim && strings.HasPrefix(line[i:], strings.Repeat(string(s.delim), 3)):
				s.inString = false
				i += 3
				continue
			case !s.triple && c == s.delim:
				s.inString = false
			}
			i++
			continue
		}
		switch c {
		case '#':
			return
		case '\'', '"':
			s.inString = true
			s.delim = c
			if strings.HasPrefix(line[i:], strings.Repeat(string(c), 3)) {
				s.triple = true
				i += 3
				continue
			}
			s.triple = false
		case '(', '[', '{':
			s.depth++
		case ')', ']', '}':
			if s.depth > 0 {
				s.depth--
			}
		}
		i++
	}
	// An unterminated single-quoted string is a syntax error; inString
	// stays set so the statement is reported at end of input.
}

// ToolCalls recognizes three invocation shapes in one statement: imports of
// registered wrapper libraries, subprocess/os shell-outs with a literal
// command, and attribute calls through a wrapper module.
func (p *Python) ToolCalls(u Unit) ([]types.RawInvocation, []types.Diagnostic) {
	var (
		out   []types.RawInvocation
		diags []types.Diagnostic
	)

	for _, m := range rePyImport.FindAllStringSubmatch(u.Text, -1) {
		for _, item := range strings.Split(m[1], ",") {
			mod, _, _ := strings.Cut(strings.TrimSpace(item), " ")
			if rec, ok := p.reg.LookupPythonImport(mod); ok {
				out = append(out, types.RawInvocation{
					Location: u.Location,
					Command:  rec.Name,
				})
			}
		}
	}
	for _, m := range rePyFromImport.FindAllStringSubmatch(u.Text, -1) {
		if rec, ok := p.reg.LookupPythonImport(m[1]); ok {
			out = append(out, types.RawInvocation{
				Location: u.Location,
				Command:  rec.Name,
			})
		}
	}

	for _, idx := range rePySubprocess.FindAllStringIndex(u.Text, -1) {
		inv, d, ok := p.shellOut(u, u.Text[idx[1]:])
		if d != nil {
			diags = append(diags, *d)
		}
		if ok {
			out = append(out, inv...)
		}
	}

	out = append(out, p.wrapperCalls(u)...)
	return out, diags
}

// shellOut parses the first argument of a subprocess-style call. A string
// literal is handed to the shell splitter; a list literal is taken as
// pre-split argv. Dynamic arguments (variables, comprehensions) are skipped:
// static extraction never evaluates.
func (p *Python) shellOut(u Unit, rest string) ([]types.RawInvocation, *types.Diagnostic, bool) {
	rest = strings.TrimLeft(rest, " \t\n")
	if rest == "" {
		return nil, nil, false
	}

	if rest[0] == '[' {
		tokens, ok := pyListTokens(rest)
		if !ok || len(tokens) == 0 {
			return nil, nil, false
		}
		head := shellwords.Mask(tokens[0])
		if head == shellwords.Variable || shellwords.Noise(head) {
			return nil, nil, false
		}
		args := make([]string, 0, len(tokens)-1)
		for _, t := range tokens[1:] {
			args = append(args, shellwords.Mask(t))
		}
		return []types.RawInvocation{{
			Location: u.Location,
			Command:  shellwords.BaseCommand(head),
			Args:     args,
			Params:   shellwords.Params(args),
		}}, nil, true
	}

	text, ok, terminated := pyStringLiteral(rest)
	if !terminated {
		d := &types.Diagnostic{
			File:     u.Location.File,
			Location: u.Location.String(),
			Reason:   "unterminated string literal in subprocess call",
		}
		return nil, d, false
	}
	if !ok {
		return nil, nil, false
	}

	var out []types.RawInvocation
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
	return out, nil, len(out) > 0
}

// wrapperCalls recognizes attribute calls through a registered wrapper
// import, e.g. sc.pp.normalize_total(adata, target_sum=1e4). The method
// path and literal keyword arguments become evidence.
func (p *Python) wrapperCalls(u Unit) []types.RawInvocation {
	var out []types.RawInvocation
	for _, m := range rePyAttrCall.FindAllStringSubmatchIndex(u.Text, -1) {
		head := u.Text[m[2]:m[3]]
		method := u.Text[m[4]:m[5]]
		rec, ok := p.reg.LookupPythonImport(head)
		if !ok {
			continue
		}
		inv := types.RawInvocation{
			Location: u.Location,
			Command:  rec.Name,
			Params:   []types.Param{{Flag: head + "." + method}},
		}
		span := parenSpan(u.Text[m[1]:])
		for _, kw := range rePyKwarg.FindAllStringSubmatch(span, -1) {
			inv.Params = append(inv.Params, types.Param{
				Flag:  kw[1],
				Value: shellwords.Mask(strings.Trim(strings.TrimSpace(kw[2]), `'"`)),
			})
		}
		out = append(out, inv)
	}
	return out
}

// parenSpan returns the text of the balanced parenthesized span that the
// input starts inside of (the opening paren already consumed).
func parenSpan(rest string) string {
	depth := 1
	for i := 0; i < len(rest); i++ {
		switch rest[i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return rest[:i]
			}
		}
	}
	return rest
}

// pyStringLiteral reads a python string literal (optionally f/r/b prefixed,
// single or triple quoted) at the start of the input. Interpolation holes in
// f-strings are replaced with brace markers so the shell splitter masks
// them. Returns the text, whether a literal was present, and whether it was
// terminated.
func pyStringLiteral(s string) (text string, ok, terminated bool) {
	i := 0
	fstring := false
	for i < len(s) && strings.ContainsRune("fFrRbBuU", rune(s[i])) {
		if s[i] == 'f' || s[i] == 'F' {
			fstring = true
		}
		i++
	}
	if i >= len(s) || (s[i] != '\'' && s[i] != '"') {
		return "", false, true
	}
	delim := s[i]
	quote := string(delim)
	if strings.HasPrefix(s[i:], strings.Repeat(quote, 3)) {
		quote = strings.Repeat(quote, 3)
	}
	i += len(quote)

	var b strings.Builder
	for i < len(s) {
		if strings.HasPrefix(s[i:], quote) {
			text = b.String()
			if fstring {
				text = maskFStringHoles(text)
			}
			return text, true, true
		}
		if s[i] == '\\' && i+1 < len(s) {
			b.WriteByte(s[i+1])
			i += 2
			continue
		}
		if len(quote) == 1 && s[i] == '\n' {
			return "", false, false
		}
		b.WriteByte(s[i])
		i++
	}
	return "", false, false
}

// maskFStringHoles replaces {expr} interpolations with a bare brace pair.
// The braces survive shell splitting as literal characters and are masked
// to the variable placeholder by shellwords.Mask.
func maskFStringHoles(text string) string {
	var b strings.Builder
	depth := 0
	for i := 0; i < len(text); i++ {
		switch text[i] {
		case '{':
			if i+1 < len(text) && text[i+1] == '{' {
				b.WriteByte('{')
				i++
				continue
			}
			if depth == 0 {
				b.WriteString("{}")
			}
			depth++
		case '}':
			if depth > 0 {
				depth--
				continue
			}
			if i+1 < len(text) && text[i+1] == '}' {
				i++
			}
			b.WriteByte('}')
		default:
			if depth == 0 {
				b.WriteByte(text[i])
			}
		}
	}
	return b.String()
}

// pyListTokens reads a python list literal of argv tokens. String elements
// contribute their text; any other element contributes the variable
// placeholder. Nested calls inside elements are skipped over, not parsed.
func pyListTokens(s string) ([]string, bool) {
	if s == "" || s[0] != '[' {
		return nil, false
	}
	i := 1
	var tokens []string
	for i < len(s) {
		for i < len(s) && strings.ContainsRune(" \t\n,", rune(s[i])) {
			i++
		}
		if i >= len(s) {
			return nil, false
		}
		if s[i] == ']' {
			return tokens, true
		}
		if s[i] == '\'' || s[i] == '"' || strings.ContainsRune("fFrRbBuU", rune(s[i])) {
			text, ok, terminated := pyStringLiteral(s[i:])
			if ok && terminated {
				tokens = append(tokens, text)
				i += literalLen(s[i:])
				continue
			}
		}
		// Non-literal element: skip to the next top-level comma or the
		// closing bracket.
		depth := 0
		for i < len(s) {
			c := s[i]
			if depth == 0 && (c == ',' || c == ']') {
				break
			}
			switch c {
			case '(', '[', '{':
				depth++
			case ')', '}':
				depth--
			case ']':
				depth--
			}
			i++
		}
		tokens = append(tokens, shellwords.Variable)
	}
	return nil, false
}

// literalLen measures the source length of the string literal at the start
// of the input, prefix and quotes included.
func literalLen(s string) int {
	i := 0
	for i < len(s) && strings.ContainsRune("fFrRbBuU", rune(s[i])) {
		i++
	}
	quote := string(s[i])
	if strings.HasPrefix(s[i:], strings.Repeat(quote, 3)) {
		quote = strings.Repeat(quote, 3)
	}
	i += len(quote)
	for i < len(s) {
		if strings.HasPrefix(s[i:], quote) {
			return i + len(quote)
		}
		if s[i] == '\\' {
			i++
		}
		i++
	}
	return len(s)
}
