// Copyright Pritam Panda, 2026. All rights reserved.

// Package resolve maps raw extracted invocations onto canonical registry
// records. Resolution is the only place raw command tokens become tool
// identities; extractors never guess and the aggregator never re-matches.
package resolve

import (
	"strings"

	"github.com/pritampanda15/biomethod/internal/registry"
	"github.com/pritampanda15/biomethod/internal/shellwords"
	"github.com/pritampanda15/biomethod/pkg/types"
)

// runnerCommands launch another command rather than doing work themselves.
// When the head token is one of these, resolution retries on the arguments.
var runnerCommands = map[string]struct{}{
	"conda": {}, "mamba": {}, "micromamba": {},
	"docker": {}, "podman": {}, "singularity": {}, "apptainer": {},
	"srun": {}, "sbatch": {}, "qsub": {},
	"time": {}, "nohup": {}, "env": {}, "nice": {}, "stdbuf": {},
	"parallel": {}, "xvfb-run": {},
}

// Normalizer resolves raw invocations against one registry.
type Normalizer struct {
	reg *registry.Registry
}

func New(reg *registry.Registry) *Normalizer { return &Normalizer{reg: reg} }

// Resolve maps one raw invocation to a mention. A registry hit yields the
// canonical record; a multi-tool hit additionally keeps the leading
// sub-command as evidence. A miss on a runner command (conda run, docker
// exec, srun) retries on the wrapped command. A final miss lands in the
// unknown bucket under the lower-cased raw token.
func (n *Normalizer) Resolve(raw types.RawInvocation) types.ResolvedMention {
	if rec, ok := n.reg.Lookup(raw.Command); ok {
		return n.mention(rec, raw)
	}

	if _, runner := runnerCommands[strings.ToLower(shellwords.BaseCommand(raw.Command))]; runner {
		for i, arg := range raw.Args {
			if arg == shellwords.Variable || shellwords.IsFlag(arg) {
				continue
			}
			// Image references and file paths are not the wrapped command.
			if strings.ContainsAny(arg, "/:") {
				continue
			}
			candidate := arg
			if shellwords.Noise(candidate) {
				continue
			}
			if rec, ok := n.reg.Lookup(candidate); ok {
				inner := raw
				inner.Command = candidate
				inner.Args = raw.Args[i+1:]
				inner.Params = shellwords.Params(inner.Args)
				return n.mention(rec, inner)
			}
		}
	}

	return types.ResolvedMention{
		Canonical: strings.ToLower(strings.TrimSpace(raw.Command)),
		Location:  raw.Location,
		Evidence:  raw.Params,
	}
}

// mention builds the resolved form, adding sub-command evidence for
// multi-tool records (samtools index, bcftools call).
func (n *Normalizer) mention(rec *types.ToolRecord, raw types.RawInvocation) types.ResolvedMention {
	m := types.ResolvedMention{
		Canonical: rec.Name,
		Record:    rec,
		Location:  raw.Location,
		Evidence:  raw.Params,
	}
	if rec.MultiTool {
		if sub, ok := leadingSubcommand(raw.Args); ok {
			m.Evidence = append([]types.Param{{Flag: "subcommand", Value: sub}}, m.Evidence...)
		}
	}
	return m
}

// leadingSubcommand returns the first argument when it is a bare word
// rather than a flag, a placeholder, or a file path.
func leadingSubcommand(args []string) (string, bool) {
	if len(args) == 0 {
		return "", false
	}
	first := args[0]
	if first == shellwords.Variable || shellwords.IsFlag(first) {
		return "", false
	}
	if strings.ContainsAny(first, "/.") {
		return "", false
	}
	return strings.ToLower(first), true
}

// ResolveAll resolves a batch, dropping nothing: every raw invocation
// yields exactly one mention.
func (n *Normalizer) ResolveAll(raws []types.RawInvocation) []types.ResolvedMention {
	out := make([]types.ResolvedMention, 0, len(raws))
	for _, raw := range raws {
		out = append(out, n.Resolve(raw))
	}
	return out
}
