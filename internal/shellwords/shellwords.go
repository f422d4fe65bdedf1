// Copyright Pritam Panda, 2026. All rights reserved.

// Package shellwords turns embedded shell fragments into command-word
// sequences. Scripts and workflow directives embed shell as strings; this
// package parses those strings with a real shell grammar so that pipes,
// substitutions and quoting do not leak into tool tokens.
package shellwords

import (
	"strings"

	"mvdan.cc/sh/v3/syntax"

	"github.com/pritampanda15/biomethod/pkg/types"
)

// Variable is the placeholder substituted for any token whose value is not
// statically known (shell expansions, command substitutions, template
// interpolations). Extraction is purely static: values are never evaluated.
const Variable = "<variable>"

// Command is one simple command lifted out of a shell fragment.
type Command struct {
	// Tokens are the command words in order; Tokens[0] is the command
	// itself. Words that expand at runtime are the Variable placeholder.
	Tokens []string

	// Line is the 1-based line of the command within the fragment.
	Line int
}

// Scan parses a shell fragment into its simple commands. It tries the full
// shell grammar first and falls back to a whitespace splitter when the
// fragment is not valid shell (truncated heredocs, templating leftovers).
// The second return reports whether the grammar parse succeeded.
func Scan(src string) ([]Command, bool) {
	cmds, err := Split(src)
	if err != nil {
		return SplitLoose(src), false
	}
	return cmds, true
}

// Split parses src with the POSIX/bash grammar and returns every simple
// command, including those nested in pipelines, conditionals, loops and
// command substitutions.
func Split(src string) ([]Command, error) {
	parser := syntax.NewParser()
	prog, err := parser.Parse(strings.NewReader(src), "fragment")
	if err != nil {
		return nil, err
	}

	var cmds []Command
	syntax.Walk(prog, func(node syntax.Node) bool {
		call, ok := node.(*syntax.CallExpr)
		if !ok || len(call.Args) == 0 {
			return true
		}
		cmd := Command{Line: int(call.Args[0].Pos().Line())}
		for _, word := range call.Args {
			cmd.Tokens = append(cmd.Tokens, wordText(word))
		}
		if cmd.Tokens[0] != "" {
			cmds = append(cmds, cmd)
		}
		return true
	})
	return cmds, nil
}

// wordText renders a parsed word to a static token. Any part that expands
// at runtime collapses the whole word to the Variable placeholder, except
// a trailing expansion glued to a literal prefix ("out_${i}.bam"), where the
// literal prefix would mislead more than help.
func wordText(word *syntax.Word) string {
	var b strings.Builder
	static := true
	for _, part := range word.Parts {
		if !partText(&b, part) {
			static = false
		}
	}
	if !static {
		return Variable
	}
	return b.String()
}

func partText(b *strings.Builder, part syntax.WordPart) bool {
	switch p := part.(type) {
	case *syntax.Lit:
		b.WriteString(p.Value)
		return true
	case *syntax.SglQuoted:
		b.WriteString(p.Value)
		return true
	case *syntax.DblQuoted:
		static := true
		for _, inner := range p.Parts {
			if !partText(b, inner) {
				static = false
			}
		}
		return static
	default:
		// ParamExp, CmdSubst, ArithmExp, ProcSubst: runtime values.
		return false
	}
}

// SplitLoose is the fallback splitter for fragments the shell grammar
// rejects. It masks template and shell interpolations, cuts on command
// separators, and splits the rest on whitespace. Quoting is not honored;
// the goal is salvaging command heads, not fidelity.
func SplitLoose(src string) []Command {
	var cmds []Command
	for i, line := range strings.Split(src, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		for _, seg := range splitSeparators(line) {
			fields := strings.Fields(seg)
			if len(fields) == 0 {
				continue
			}
			cmd := Command{Line: i + 1}
			for _, f := range fields {
				cmd.Tokens = append(cmd.Tokens, Mask(f))
			}
			cmds = append(cmds, cmd)
		}
	}
	return cmds
}

// splitSeparators cuts a line on |, ;, && and ||.
func splitSeparators(line string) []string {
	for _, sep := range []string{"&&", "||", "|", ";"} {
		line = strings.ReplaceAll(line, sep, "\x00")
	}
	return strings.Split(line, "\x00")
}

// Mask replaces tokens carrying shell or template interpolation markers
// with the Variable placeholder.
func Mask(tok string) string {
	if strings.ContainsAny(tok, "${}`") {
		return Variable
	}
	return tok
}

// IsFlag reports whether a token is a command-line flag. A lone "-" is a
// stdin marker, not a flag; a leading negative number is a value.
func IsFlag(tok string) bool {
	if len(tok) < 2 || tok[0] != '-' {
		return false
	}
	c := tok[1]
	return !(c >= '0' && c <= '9')
}

// Params pairs flags in an argument list with their values. A flag consumes
// the following token as its value unless that token is itself a flag, or
// it is a trailing data file (`fastqc --quiet input.fq`): the final token
// stays positional only when it names a file, so `--genomeDir ref/` and
// `--outSAMtype BAM` still pair.
func Params(args []string) []types.Param {
	var params []types.Param
	for i := 0; i < len(args); i++ {
		tok := args[i]
		if !IsFlag(tok) {
			continue
		}
		if flag, value, ok := strings.Cut(tok, "="); ok && IsFlag(flag) {
			params = append(params, types.Param{Flag: flag, Value: Mask(value)})
			continue
		}
		if i+1 < len(args) && !IsFlag(args[i+1]) {
			if i+1 == len(args)-1 && looksLikeInputFile(args[i+1]) {
				params = append(params, types.Param{Flag: tok})
				continue
			}
			params = append(params, types.Param{Flag: tok, Value: Mask(args[i+1])})
			i++
			continue
		}
		params = append(params, types.Param{Flag: tok})
	}
	return params
}

// looksLikeInputFile reports whether a token names a data file: a base name
// carrying a dot extension, like reads.fq or results/in.bam. Bare words
// (BAM), directories (ref/) and numbers do not qualify.
func looksLikeInputFile(tok string) bool {
	base := BaseCommand(tok)
	i := strings.LastIndexByte(base, '.')
	return i > 0 && i < len(base)-1
}

// BaseCommand strips any directory prefix from a command token, so
// /usr/local/bin/STAR and ./bwa resolve like their bare names. Placeholder
// tokens pass through unchanged.
func BaseCommand(tok string) string {
	if tok == Variable {
		return tok
	}
	if i := strings.LastIndexByte(tok, '/'); i >= 0 {
		return tok[i+1:]
	}
	return tok
}

// noiseCommands are shell builtins and coreutils that would flood the
// unknown bucket if surfaced. They are dropped before resolution.
var noiseCommands = map[string]struct{}{
	"cd": {}, "ls": {}, "cp": {}, "mv": {}, "rm": {}, "mkdir": {}, "rmdir": {},
	"touch": {}, "cat": {}, "head": {}, "tail": {}, "less": {}, "more": {},
	"echo": {}, "printf": {}, "export": {}, "set": {}, "unset": {}, "source": {},
	"grep": {}, "egrep": {}, "fgrep": {}, "sed": {}, "awk": {}, "cut": {},
	"sort": {}, "uniq": {}, "wc": {}, "tr": {}, "tee": {}, "xargs": {},
	"find": {}, "which": {}, "chmod": {}, "chown": {}, "ln": {}, "pwd": {},
	"date": {}, "sleep": {}, "wait": {}, "exit": {}, "return": {}, "true": {},
	"false": {}, "test": {}, "read": {}, "shift": {}, "trap": {}, "eval": {},
	"gzip": {}, "gunzip": {}, "zcat": {}, "tar": {}, "unzip": {}, "wget": {},
	"curl": {}, "rsync": {}, "scp": {}, "ssh": {}, "md5sum": {}, "sha256sum": {},
	"basename": {}, "dirname": {}, "realpath": {}, "readlink": {}, "local": {},
	"pip": {}, "pip3": {}, "make": {}, "git": {}, "module": {}, "ulimit": {},
}

// Noise reports whether a command head is a shell builtin or generic
// utility with no bioinformatics meaning.
func Noise(cmd string) bool {
	_, ok := noiseCommands[strings.ToLower(BaseCommand(cmd))]
	return ok
}
