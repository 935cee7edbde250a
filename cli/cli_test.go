package cli_test

import (
	"bytes"
	"context"
	"flag"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"q.log/lpstep/cli"
	"q.log/lpstep/history"
	"q.log/lpstep/interior"
)

const wyndor = `name: wyndor
sense: max
objective: [3, 5]
constraints:
  - {coefficients: [1, 0], sense: "<=", rhs: 4}
  - {coefficients: [0, 2], sense: "<=", rhs: 12}
  - {coefficients: [3, 2], sense: "<=", rhs: 18}
`

func writeProblem(t *testing.T, doc string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "problem.yaml")
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))
	return path
}

func newFlagSet() *flag.FlagSet {
	fs := flag.NewFlagSet("lpstep", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

func TestParseConfigDefaults(t *testing.T) {
	cfg, err := cli.ParseConfig(newFlagSet(), []string{"p.yaml"})
	require.NoError(t, err)

	assert.Equal(t, "p.yaml", cfg.Problem)
	assert.Equal(t, "affine-scaling", cfg.Method)
	assert.Equal(t, "fixed", cfg.Policy)
	assert.Equal(t, 0.5, cfg.Alpha)
	assert.Equal(t, 0.95, cfg.Safety)
	assert.Equal(t, 500, cfg.MaxIterations)
	assert.Equal(t, 1e-8, cfg.Tolerance)
	assert.Equal(t, 4, cfg.Precision)
	assert.Equal(t, "en", cfg.Lang)
	assert.False(t, cfg.Trace)
}

func TestParseConfigEnvThenFlags(t *testing.T) {
	t.Setenv("LPSTEP_PROBLEM", "env.yaml")
	t.Setenv("LPSTEP_METHOD", "simplex")
	t.Setenv("LPSTEP_ALPHA", "0.25")
	t.Setenv("LPSTEP_TRACE", "true")

	cfg, err := cli.ParseConfig(newFlagSet(), []string{"-alpha", "0.75"})
	require.NoError(t, err)
	assert.Equal(t, "env.yaml", cfg.Problem)
	assert.Equal(t, "simplex", cfg.Method)
	assert.Equal(t, 0.75, cfg.Alpha)
	assert.True(t, cfg.Trace)
}

func TestParseConfigErrors(t *testing.T) {
	_, err := cli.ParseConfig(newFlagSet(), nil)
	assert.Error(t, err)

	t.Setenv("LPSTEP_MAX_ITERATIONS", "many")
	_, err = cli.ParseConfig(newFlagSet(), []string{"p.yaml"})
	assert.Error(t, err)
}

func TestParsePoint(t *testing.T) {
	x, err := cli.ParsePoint(" 1, 2.5 ,3")
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2.5, 3}, x)

	x, err = cli.ParsePoint("")
	require.NoError(t, err)
	assert.Nil(t, x)

	_, err = cli.ParsePoint("1,,2")
	assert.Error(t, err)
}

func TestParsePolicy(t *testing.T) {
	p, err := cli.ParsePolicy("Adaptive", 0.5, 0.9)
	require.NoError(t, err)
	assert.Equal(t, interior.AdaptiveStep(0.9), p)

	p, err = cli.ParsePolicy("", 0.3, 0.9)
	require.NoError(t, err)
	assert.Equal(t, interior.FixedStep(0.3), p)

	_, err = cli.ParsePolicy("fixed", 1, 0.9)
	assert.ErrorIs(t, err, interior.ErrBadPolicy)

	_, err = cli.ParsePolicy("greedy", 0.5, 0.9)
	assert.ErrorIs(t, err, interior.ErrBadPolicy)
}

func TestRunSimplex(t *testing.T) {
	cfg, err := cli.ParseConfig(newFlagSet(), []string{"-method", "simplex", "-precision", "2", writeProblem(t, wyndor)})
	require.NoError(t, err)

	var out, logs bytes.Buffer
	require.NoError(t, cli.Run(context.Background(), cfg, &out, &logs))
	assert.Equal(t, "status: optimal\nobjective: 36.00\nx: [2.00 6.00]\n", out.String())
}

func TestRunAffineWithTraceAndHistory(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "history.db")
	cfg, err := cli.ParseConfig(newFlagSet(), []string{
		"-policy", "adaptive", "-trace", "-history", dbPath, "-precision", "3", writeProblem(t, wyndor),
	})
	require.NoError(t, err)

	var out, logs bytes.Buffer
	require.NoError(t, cli.Run(context.Background(), cfg, &out, &logs))
	assert.Contains(t, out.String(), "step 0  affine-scaling  running")
	assert.Contains(t, out.String(), "P = I - A~^T (A~ A~^T)^-1 A~\n")
	assert.Contains(t, out.String(), "status: optimal\nobjective: 36.000\n")
	assert.Contains(t, logs.String(), "recording history")

	ctx := context.Background()
	store, err := history.Open(ctx, dbPath)
	require.NoError(t, err)
	defer store.Close()
	sessions, err := store.Sessions(ctx)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, "wyndor", sessions[0].Problem)
	assert.Equal(t, "adaptive(0.95)", sessions[0].Policy)

	steps, err := store.Steps(ctx, sessions[0].ID)
	require.NoError(t, err)
	require.NotEmpty(t, steps)
	assert.Equal(t, "optimal", steps[len(steps)-1].Status)
}

// TestRunReleasesHistory runs twice against one database; each run must
// close its store so the next one can open and append to it.
func TestRunReleasesHistory(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "history.db")
	path := writeProblem(t, wyndor)
	for _, method := range []string{"simplex", "affine"} {
		cfg, err := cli.ParseConfig(newFlagSet(), []string{"-method", method, "-history", dbPath, path})
		require.NoError(t, err)
		require.NoError(t, cli.Run(context.Background(), cfg, io.Discard, io.Discard), method)
	}

	ctx := context.Background()
	store, err := history.Open(ctx, dbPath)
	require.NoError(t, err)
	sessions, err := store.Sessions(ctx)
	require.NoError(t, err)
	assert.Len(t, sessions, 2)
	require.NoError(t, store.Close())
}

func TestRunRejects(t *testing.T) {
	path := writeProblem(t, wyndor)
	cases := map[string]cli.Config{
		"missing file": {Problem: filepath.Join(t.TempDir(), "nope.yaml"), Method: "simplex", Alpha: 0.5, MaxIterations: 10, Tolerance: 1e-8},
		"bad method":   {Problem: path, Method: "ellipsoid", Alpha: 0.5, MaxIterations: 10, Tolerance: 1e-8},
		"bad alpha":    {Problem: path, Method: "affine", Alpha: 1.5, MaxIterations: 10, Tolerance: 1e-8},
		"bad limits":   {Problem: path, Method: "affine", Alpha: 0.5, MaxIterations: 0, Tolerance: 1e-8},
		"bad initial":  {Problem: path, Method: "affine", Alpha: 0.5, MaxIterations: 10, Tolerance: 1e-8, Initial: "1,x"},
		"infeasible":   {Problem: path, Method: "affine", Alpha: 0.5, MaxIterations: 10, Tolerance: 1e-8, Initial: "5,5"},
		"bad language": {Problem: path, Method: "affine", Alpha: 0.5, MaxIterations: 10, Tolerance: 1e-8, Lang: "not a tag!"},
	}
	for name, cfg := range cases {
		t.Run(name, func(t *testing.T) {
			assert.Error(t, cli.Run(context.Background(), cfg, io.Discard, io.Discard))
		})
	}
}
