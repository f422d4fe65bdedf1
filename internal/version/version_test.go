// Copyright Pritam Panda, 2026. All rights reserved.

package version

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pritampanda15/biomethod/pkg/types"
)

// fakeExecutor serves canned probe output and records invocations.
type fakeExecutor struct {
	onPath map[string]bool
	output map[string]string
	err    map[string]error
	calls  []string
}

func (f *fakeExecutor) LookPath(file string) (string, error) {
	if f.onPath[file] {
		return "/usr/bin/" + file, nil
	}
	return "", errors.New("not found")
}

func (f *fakeExecutor) CombinedOutput(_ context.Context, name string, args ...string) ([]byte, error) {
	f.calls = append(f.calls, strings.Join(append([]string{name}, args...), " "))
	return []byte(f.output[name]), f.err[name]
}

func TestDetect(t *testing.T) {
	fake := &fakeExecutor{
		onPath: map[string]bool{"samtools": true, "bwa": true, "kallisto": true},
		output: map[string]string{
			"samtools": "samtools 1.17\nUsing htslib 1.17\n",
			"bwa":      "Program: bwa\nVersion: 0.7.17-r1188\n",
			"kallisto": "kallisto, version 0.48.0\n",
		},
		err: map[string]error{"bwa": errors.New("exit status 1")},
	}
	d := newDetector(fake, 0)
	ctx := context.Background()

	v, ok := d.Detect(ctx, &types.ToolRecord{Name: "samtools"})
	require.True(t, ok)
	assert.Equal(t, "1.17", v)

	// Usage output on stderr with a nonzero exit still yields a version.
	v, ok = d.Detect(ctx, &types.ToolRecord{Name: "bwa", VersionArgs: []string{"bwa"}})
	require.True(t, ok)
	assert.Equal(t, "0.7.17-r1188", v)

	// version_command override picks the probe argv.
	v, ok = d.Detect(ctx, &types.ToolRecord{Name: "kallisto", VersionArgs: []string{"kallisto", "version"}})
	require.True(t, ok)
	assert.Equal(t, "0.48.0", v)
	assert.Contains(t, fake.calls, "kallisto version")

	_, ok = d.Detect(ctx, &types.ToolRecord{Name: "not-installed"})
	assert.False(t, ok)
}

func TestDetectCachesProbes(t *testing.T) {
	fake := &fakeExecutor{
		onPath: map[string]bool{"samtools": true},
		output: map[string]string{"samtools": "samtools 1.17\n"},
	}
	d := newDetector(fake, 0)
	rec := &types.ToolRecord{Name: "samtools"}

	for range 3 {
		_, ok := d.Detect(context.Background(), rec)
		require.True(t, ok)
	}
	assert.Len(t, fake.calls, 1)
}

func TestAnnotate(t *testing.T) {
	fake := &fakeExecutor{
		onPath: map[string]bool{"fastqc": true},
		output: map[string]string{"fastqc": "FastQC v0.12.1\n"},
	}
	d := newDetector(fake, 0)

	res := types.NewAnalysisResult()
	res.Add(types.ResolvedMention{
		Canonical: "fastqc",
		Record:    &types.ToolRecord{Name: "fastqc", Category: types.CategoryQualityControl},
	})
	res.Add(types.ResolvedMention{
		Canonical: "salmon",
		Record:    &types.ToolRecord{Name: "salmon", Category: types.CategoryQuantification},
	})
	res.Tools["salmon"].Version = "1.10.1"

	d.Annotate(context.Background(), res, io.Discard)

	assert.Equal(t, "0.12.1", res.Tools["fastqc"].Version)
	// Already-versioned findings are not probed.
	assert.Equal(t, "1.10.1", res.Tools["salmon"].Version)
	assert.NotContains(t, fake.calls, "salmon --version")
}
