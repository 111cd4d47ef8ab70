package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/aouyang1/go-survival/mcmc"
	"github.com/aouyang1/go-survival/predictive"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.Nil(t, cfg.Validate())
	assert.Equal(t, predictive.MethodTruncated, cfg.Predictive.Method)
	assert.Equal(t, mcmc.DefaultChains, cfg.Inference.Chains)
}

func TestParse(t *testing.T) {
	testData := map[string]struct {
		input  string
		modify func(c *Config)
		err    error
	}{
		"empty keeps defaults": {
			modify: func(c *Config) {},
		},
		"partial override": {
			input: `
log:
  level: debug
  format: json
inference:
  chains: 2
  seed: 7
predictive:
  method: naive
  max_attempts: 100
store:
  path: /tmp/runs.db
`,
			modify: func(c *Config) {
				c.Log.Level = "debug"
				c.Log.Format = "json"
				c.Inference.Chains = 2
				c.Inference.Seed = 7
				c.Predictive.Method = predictive.MethodNaive
				c.Predictive.MaxAttempts = 100
				c.Store.Path = "/tmp/runs.db"
			},
		},
		"prior override": {
			input: `
prior:
  coef_std_dev: 1.5
  log_baseline_hazard_mean: -3
`,
			modify: func(c *Config) {
				c.Prior.CoefStdDev = 1.5
				c.Prior.LogBaselineHazardMean = -3
			},
		},
		"bad yaml": {
			input: "log: [",
		},
		"bad log level": {
			input: "log:\n  level: loud\n",
			err:   ErrInvalidConfig,
		},
		"bad format": {
			input: "log:\n  format: xml\n",
			err:   ErrInvalidConfig,
		},
		"zero chains": {
			input: "inference:\n  chains: 0\n",
			err:   ErrInvalidConfig,
		},
		"unknown method": {
			input: "predictive:\n  method: inverse\n",
			err:   ErrInvalidConfig,
		},
		"non positive prior": {
			input: "prior:\n  coef_std_dev: 0\n",
			err:   ErrInvalidConfig,
		},
		"empty store path": {
			input: "store:\n  path: \"\"\n",
			err:   ErrInvalidConfig,
		},
	}
	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			res, err := Parse([]byte(td.input))
			if td.modify == nil {
				require.NotNil(t, err)
				if td.err != nil {
					assert.ErrorIs(t, err, td.err)
				}
				return
			}
			require.Nil(t, err)

			expected := Default()
			td.modify(expected)
			if diff := cmp.Diff(expected, res); diff != "" {
				t.Errorf("config mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	cfg, err := Load("")
	require.Nil(t, err)
	assert.Equal(t, Default(), cfg)

	path := filepath.Join(t.TempDir(), "survival.yaml")
	out, err := Default().Marshal()
	require.Nil(t, err)
	require.Nil(t, os.WriteFile(path, out, 0o644))

	cfg, err = Load(path)
	require.Nil(t, err)
	assert.Equal(t, Default(), cfg)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.NotNil(t, err)
}
