package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/spsolve/config"
	"github.com/katalvlaran/spsolve/fixture"
	"github.com/katalvlaran/spsolve/mtx"
)

// execute runs the root command with args and returns stdout and stderr.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()

	return out.String(), errOut.String(), err
}

func TestExample(t *testing.T) {
	t.Parallel()

	out, _, err := execute(t, "example")
	require.NoError(t, err)
	require.Contains(t, out, "transpose=false")
	require.Contains(t, out, "transpose=true")
	for _, name := range config.Backends {
		require.Contains(t, out, name)
	}
	require.Contains(t, out, "1.000000000000000")
}

func TestSolve_Builtin(t *testing.T) {
	t.Parallel()

	for _, backend := range config.Backends {
		t.Run(backend, func(t *testing.T) {
			out, _, err := execute(t, "solve", "--backend", backend, "--nrhs", "2", "--transpose", "--print")
			require.NoError(t, err)
			require.Contains(t, out, "backend="+backend+" n=10 nnz=32 nrhs=2 transpose=true")
			lines := strings.Split(strings.TrimSpace(out), "\n")
			require.Len(t, lines, 3+20)
			x0, err := strconv.ParseFloat(lines[3], 64)
			require.NoError(t, err)
			require.InDelta(t, 0.1, x0, 1e-12)
		})
	}
}

func TestSolve_MatrixFileAndConfig(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "bbus.mtx")
	require.NoError(t, mtx.Save(path, fixture.Bbus(300)))

	cfgPath := filepath.Join(dir, "spsolve.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("backend: klu\nnrhs: 3\nlog: {level: debug}\n"), 0o644))

	out, errOut, err := execute(t, "--config", cfgPath, "solve", "--matrix", path)
	require.NoError(t, err)
	require.Contains(t, out, "backend=klu n=300")
	require.Contains(t, out, "nrhs=3")
	require.Contains(t, errOut, "configuration loaded", "debug logging from the file")

	// Flags override the file.
	out, _, err = execute(t, "--config", cfgPath, "--log-level", "error", "solve", "--matrix", path, "-b", "rlu")
	require.NoError(t, err)
	require.Contains(t, out, "backend=rlu n=300")
}

func TestSolve_Errors(t *testing.T) {
	t.Parallel()

	for _, tc := range []struct {
		name string
		args []string
		want string
	}{
		{"backend", []string{"solve", "--backend", "mumps"}, "Backend"},
		{"nrhs", []string{"solve", "--nrhs", "0"}, "NRHS"},
		{"missing matrix", []string{"solve", "--matrix", "/nonexistent/a.mtx"}, "no such file"},
		{"missing config", []string{"--config", "/nonexistent/c.yaml", "example"}, "no such file"},
		{"log level", []string{"--log-level", "loud", "example"}, "Level"},
		{"args", []string{"solve", "extra"}, "unknown command"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := execute(t, tc.args...)
			require.Error(t, err)
			require.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestBench(t *testing.T) {
	t.Parallel()

	out, errOut, err := execute(t, "bench", "--order", "200", "--repeat", "2", "--nrhs", "2",
		"--metrics", "--trace")
	require.NoError(t, err)
	require.Contains(t, out, "n=200")
	for _, name := range config.Backends {
		require.Contains(t, out, name)
	}
	require.Contains(t, out, "spsolve_pipeline_stage_duration_seconds")
	require.Contains(t, out, `spsolve_resource_live_handles 0`)
	require.Contains(t, errOut, "spsolve.bench.round")
}

func TestBench_Subset(t *testing.T) {
	t.Parallel()

	out, _, err := execute(t, "bench", "--order", "100", "--repeat", "1", "--backends", "klu,dense")
	require.NoError(t, err)
	require.Contains(t, out, "klu")
	require.NotContains(t, out, "gplu")
	require.NotContains(t, out, "spsolve_pipeline")

	_, _, err = execute(t, "bench", "--backends", "gplu,mumps")
	require.Error(t, err)
}
