package survival

import (
	"bytes"
	"context"
	"testing"

	"github.com/aouyang1/go-survival/dataset"
	"github.com/aouyang1/go-survival/mcmc"
	"github.com/aouyang1/go-survival/model"
	"github.com/aouyang1/go-survival/predictive"
	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"
)

func simulate(t testing.TB, n int, seed uint64) *dataset.Dataset {
	t.Helper()
	opt := dataset.NewDefaultSimulateOptions()
	opt.N = n
	ds, err := dataset.Simulate(opt, rand.NewSource(seed))
	require.Nil(t, err)
	return ds
}

func testOptions() *Options {
	opt := NewDefaultOptions()
	opt.InferenceConfig.Iterations = 400
	opt.InferenceConfig.BurnIn = 200
	opt.InferenceConfig.Seed = 3
	opt.PredictiveOptions.Seed = 4
	return opt
}

func TestOptionsValidate(t *testing.T) {
	res, err := (*Options)(nil).Validate()
	require.Nil(t, err)
	assert.Equal(t, mcmc.DefaultChains, res.InferenceConfig.Chains)
	assert.Equal(t, predictive.MethodTruncated, res.PredictiveOptions.Method)

	res, err = (&Options{}).Validate()
	require.Nil(t, err)
	assert.NotNil(t, res.PriorOptions)
	assert.NotNil(t, res.InferenceConfig)
	assert.NotNil(t, res.PredictiveOptions)

	_, err = (&Options{PredictiveOptions: &predictive.Options{Method: "bogus"}}).Validate()
	assert.ErrorIs(t, err, predictive.ErrUnknownMethod)

	_, err = (&Options{InferenceConfig: &mcmc.Config{}}).Validate()
	assert.ErrorIs(t, err, mcmc.ErrNonPositiveChains)
}

func TestAnalysisFitPredict(t *testing.T) {
	ctx := context.Background()
	ds := simulate(t, 300, 1)

	opt := testOptions()
	reg := prometheus.NewRegistry()
	opt.Registerer = reg

	a, err := New(opt, nil)
	require.Nil(t, err)

	_, err = a.PosteriorPredictive(ctx, "")
	assert.ErrorIs(t, err, ErrNotFit)
	_, err = a.Model()
	assert.ErrorIs(t, err, ErrNotFit)

	require.Nil(t, a.Fit(ctx, ds))
	assert.True(t, a.Converged())
	assert.Equal(t, 4*400, a.Ensemble().Len())

	summaries, err := a.Ensemble().Summary()
	require.Nil(t, err)
	assert.InDelta(t, 1.0, summaries[0].Mean, 0.6)
	assert.InDelta(t, -4.6, summaries[1].Mean, 0.6)

	samples, err := a.PosteriorPredictive(ctx, "")
	require.Nil(t, err)
	assert.Equal(t, predictive.MethodTruncated, samples.Method())
	for _, v := range samples.Values() {
		assert.LessOrEqual(t, v, ds.Horizon())
	}

	res, err := a.PredictiveCheck(ctx)
	require.Nil(t, err)
	assert.Equal(t, 0.0, res.TruncatedCheck.FracAboveHorizon)
	assert.Greater(t, res.NaiveCheck.FracAboveHorizon, 0.0)
	assert.Less(t, res.TruncatedCheck.PredictedMean, res.NaiveCheck.PredictedMean)

	families, err := reg.Gather()
	require.Nil(t, err)
	assert.NotEmpty(t, families)
}

func TestAnalysisErrors(t *testing.T) {
	_, err := New(&Options{PriorOptions: &model.PriorOptions{}}, nil)
	assert.ErrorIs(t, err, model.ErrNonPositiveStdDev)

	a, err := New(testOptions(), nil)
	require.Nil(t, err)
	assert.ErrorIs(t, a.Fit(context.Background(), nil), model.ErrNoDataset)
	assert.False(t, a.Converged())

	var nilAnalysis *Analysis
	assert.ErrorIs(t, nilAnalysis.Fit(context.Background(), nil), ErrUninitializedAnalysis)

	_, err = NewFromModel(Model{})
	assert.ErrorIs(t, err, ErrNoOptionsInModel)
	_, err = NewFromModel(Model{Options: NewDefaultOptions()})
	assert.ErrorIs(t, err, ErrNoDatasetInModel)
}

func TestModelRoundTrip(t *testing.T) {
	ctx := context.Background()
	ds := simulate(t, 150, 2)

	a, err := New(testOptions(), nil)
	require.Nil(t, err)
	require.Nil(t, a.Fit(ctx, ds))

	m, err := a.Model()
	require.Nil(t, err)
	out, err := json.Marshal(m)
	require.Nil(t, err)

	var loaded Model
	require.Nil(t, json.Unmarshal(out, &loaded))
	b, err := NewFromModel(loaded)
	require.Nil(t, err)

	assert.Equal(t, a.Ensemble().Len(), b.Ensemble().Len())
	assert.Equal(t, a.Dataset().Observations(), b.Dataset().Observations())
	assert.Equal(t, a.Converged(), b.Converged())

	expected, err := a.PosteriorPredictive(ctx, predictive.MethodTruncated)
	require.Nil(t, err)
	actual, err := b.PosteriorPredictive(ctx, predictive.MethodTruncated)
	require.Nil(t, err)
	assert.Equal(t, expected.Values(), actual.Values())

	var buf bytes.Buffer
	require.Nil(t, m.TablePrint(&buf))
	assert.Contains(t, buf.String(), "beta[0]")
	assert.Contains(t, buf.String(), "alpha")
	assert.Contains(t, buf.String(), "Horizon")
}

func TestPlotFit(t *testing.T) {
	ctx := context.Background()
	a, err := New(testOptions(), nil)
	require.Nil(t, err)

	var buf bytes.Buffer
	assert.ErrorIs(t, a.PlotFit(ctx, &buf), ErrNotFit)

	require.Nil(t, a.Fit(ctx, simulate(t, 100, 3)))
	require.Nil(t, a.PlotFit(ctx, &buf))
	assert.Contains(t, buf.String(), "Observed vs Posterior Predictive Event Times")
	assert.Contains(t, buf.String(), "Trace alpha")
}
