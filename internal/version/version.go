// Copyright Pritam Panda, 2026. All rights reserved.

// Package version probes locally installed tools for their versions. The
// probes are best-effort and advisory: a tool that is absent from PATH or
// prints nothing parseable simply stays unversioned.
package version

import (
	"context"
	"fmt"
	"io"
	"os/exec"
	"regexp"
	"sync"
	"time"

	"github.com/pritampanda15/biomethod/pkg/types"
)

const defaultProbeTimeout = 10 * time.Second

// reVersion matches the first dotted version number in probe output.
var reVersion = regexp.MustCompile(`(\d+\.\d+(?:\.\d+)?[\w.-]*)`)

// executor abstracts command execution for testing.
type executor interface {
	LookPath(file string) (string, error)
	CombinedOutput(ctx context.Context, name string, args ...string) ([]byte, error)
}

// osExecutor is the production executor backed by os/exec.
type osExecutor struct{}

func (o *osExecutor) LookPath(file string) (string, error) {
	return exec.LookPath(file)
}

func (o *osExecutor) CombinedOutput(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

var defaultExec executor = &osExecutor{}

// Detector probes tool versions, caching one result per binary so repeated
// findings of the same tool probe once.
type Detector struct {
	exec    executor
	timeout time.Duration

	mu    sync.Mutex
	cache map[string]string
}

// New returns a detector using the local PATH.
func New(cfg types.VersionConfig) *Detector {
	return newDetector(defaultExec, cfg.Timeout)
}

func newDetector(exec executor, timeout time.Duration) *Detector {
	if timeout <= 0 {
		timeout = defaultProbeTimeout
	}
	return &Detector{exec: exec, timeout: timeout, cache: make(map[string]string)}
}

// Detect probes one tool. The probe command comes from the record's
// version_command override, defaulting to `<name> --version`. Output is
// read from both streams and a nonzero exit is tolerated: several tools
// (bwa among them) print their version in a usage message and exit 1.
func (d *Detector) Detect(ctx context.Context, rec *types.ToolRecord) (string, bool) {
	bin := rec.Name
	args := []string{"--version"}
	if len(rec.VersionArgs) > 0 {
		bin = rec.VersionArgs[0]
		args = rec.VersionArgs[1:]
	}

	d.mu.Lock()
	if v, ok := d.cache[bin]; ok {
		d.mu.Unlock()
		return v, v != ""
	}
	d.mu.Unlock()

	v := d.probe(ctx, bin, args)

	d.mu.Lock()
	d.cache[bin] = v
	d.mu.Unlock()
	return v, v != ""
}

func (d *Detector) probe(ctx context.Context, bin string, args []string) string {
	if _, err := d.exec.LookPath(bin); err != nil {
		return ""
	}
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	out, err := d.exec.CombinedOutput(ctx, bin, args...)
	if len(out) == 0 && err != nil {
		return ""
	}
	if m := reVersion.FindSubmatch(out); m != nil {
		return string(m[1])
	}
	return ""
}

// Annotate probes every resolved finding that still has no version and
// fills in what the probes report. Progress goes to w.
func (d *Detector) Annotate(ctx context.Context, result *types.AnalysisResult, w io.Writer) {
	probed, found := 0, 0
	for _, name := range result.ToolNames() {
		f := result.Tools[name]
		if f.Version != "" || f.Record == nil {
			continue
		}
		probed++
		if v, ok := d.Detect(ctx, f.Record); ok {
			f.Version = v
			found++
		}
	}
	if probed > 0 {
		fmt.Fprintf(w, "version probes: %d/%d tools reported a version\n", found, probed)
	}
}
