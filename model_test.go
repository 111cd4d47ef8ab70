package survival

import (
	"bytes"
	"testing"

	"github.com/aouyang1/go-survival/dataset"
	"github.com/aouyang1/go-survival/posterior"
	"github.com/aouyang1/go-survival/stats"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestModelTablePrint(t *testing.T) {
	ds, err := dataset.New(
		[]dataset.Observation{
			{ElapsedTime: 1.5, EventObserved: true, Covariates: []float64{1}},
			{ElapsedTime: 3, EventObserved: false, Covariates: []float64{0}},
		},
		[]string{"treated"},
	)
	require.Nil(t, err)

	testData := map[string]struct {
		m        Model
		contains []string
		missing  []string
	}{
		"empty": {
			m:        Model{},
			contains: []string{"Converged: false", "Param"},
			missing:  []string{"Dataset:", "Priors:", "Sampler:"},
		},
		"full": {
			m: Model{
				Options: NewDefaultOptions(),
				Dataset: ds,
				Summary: []posterior.ParamSummary{
					{Label: "beta[0]", Summary: stats.Summary{Mean: 0.5, StdDev: 0.1, Q05: 0.3, Q50: 0.5, Q95: 0.7}, RHat: 1.01},
					{Label: "alpha", Summary: stats.Summary{Mean: -4.6}},
				},
				Converged: true,
			},
			contains: []string{
				"Observations: 2",
				"Uncensored: 1",
				"Horizon: 3.000",
				"beta ~ N(0.000, 2.000)",
				"alpha ~ N(-4.600, 2.000)",
				"Chains: 4",
				"Converged: true",
				"beta[0]",
				"1.010",
				"...",
			},
		},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			var buf bytes.Buffer
			require.Nil(t, td.m.TablePrint(&buf))
			out := buf.String()
			for _, s := range td.contains {
				assert.Contains(t, out, s)
			}
			for _, s := range td.missing {
				assert.NotContains(t, out, s)
			}
		})
	}
}
