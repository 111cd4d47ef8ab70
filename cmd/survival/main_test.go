package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/aouyang1/go-survival/dataset"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeConfig(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "survival.yaml")
	cfg := `
log:
  level: warn
inference:
  chains: 2
  iterations: 200
  burn_in: 100
  thin: 1
  seed: 5
predictive:
  seed: 6
store:
  path: ` + filepath.Join(dir, "db", "runs.db") + `
`
	require.Nil(t, os.WriteFile(path, []byte(cfg), 0o644))
	return path
}

func TestWorkflow(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeConfig(t, dir)
	dataPath := filepath.Join(dir, "trial.csv")
	reportPath := filepath.Join(dir, "report.html")

	out, err := execute(t, "simulate", "-o", dataPath, "--n", "120", "--seed", "3")
	require.Nil(t, err)
	assert.Contains(t, out, "wrote 120 observations")

	out, err = execute(t, "fit", "-c", cfgPath, "--data", dataPath)
	require.Nil(t, err)
	assert.Contains(t, out, "Run: 1")
	assert.Contains(t, out, "beta[0]")

	out, err = execute(t, "predict", "-c", cfgPath, "--run", "1", "--report", reportPath)
	require.Nil(t, err)
	assert.Contains(t, out, "truncated")
	assert.Regexp(t, `Above Horizon:\s+0\.0000`, out)
	_, err = os.Stat(reportPath)
	assert.Nil(t, err)

	out, err = execute(t, "predict", "-c", cfgPath, "--run", "1", "--method", "naive")
	require.Nil(t, err)
	assert.Contains(t, out, "naive")

	out, err = execute(t, "summary", "-c", cfgPath)
	require.Nil(t, err)
	assert.Contains(t, out, "trial")

	out, err = execute(t, "summary", "-c", cfgPath, "--run", "1")
	require.Nil(t, err)
	assert.Contains(t, out, "alpha")
}

func TestCommandErrors(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeConfig(t, dir)

	_, err := execute(t, "simulate")
	assert.NotNil(t, err)

	_, err = execute(t, "simulate", "-o", filepath.Join(dir, "hot.csv"), "--log-baseline-hazard", "800")
	assert.ErrorIs(t, err, dataset.ErrDegenerateRate)

	_, err = execute(t, "fit", "-c", cfgPath, "--data", filepath.Join(dir, "missing.csv"))
	assert.NotNil(t, err)

	_, err = execute(t, "predict", "-c", cfgPath, "--run", "42")
	assert.NotNil(t, err)

	_, err = execute(t, "summary", "-c", filepath.Join(dir, "missing.yaml"))
	assert.NotNil(t, err)

	_, err = execute(t, "summary", "-c", cfgPath, "--log-level", "loud")
	assert.NotNil(t, err)
}
