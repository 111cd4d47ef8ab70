package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/aouyang1/go-survival/dataset"
	"github.com/aouyang1/go-survival/posterior"
	"github.com/aouyang1/go-survival/predictive"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func openTestStore(t *testing.T) *SQLStore {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "nested", "runs.db"))
	require.Nil(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func testRun(t *testing.T) (*dataset.Dataset, *posterior.Ensemble) {
	t.Helper()
	ds, err := dataset.New([]dataset.Observation{
		{ElapsedTime: 12, EventObserved: true, Covariates: []float64{1}},
		{ElapsedTime: 40, EventObserved: false, Covariates: []float64{0}},
		{ElapsedTime: 33.5, EventObserved: true, Covariates: []float64{0}},
	}, []string{"treated"})
	require.Nil(t, err)

	ens, err := posterior.New([]string{"beta[0]", "alpha"}, []*mat.Dense{
		mat.NewDense(3, 2, []float64{0.1, -4, 0.2, -4.1, 0.3, -4.2}),
		mat.NewDense(3, 2, []float64{0.4, -4.3, 0.5, -4.4, 0.6, -4.5}),
	})
	require.Nil(t, err)
	return ds, ens
}

func TestEnsembleRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	ds, ens := testRun(t)

	id, err := s.SaveEnsemble(ctx, "trial", ds, ens)
	require.Nil(t, err)

	loaded, err := s.LoadEnsemble(ctx, id)
	require.Nil(t, err)

	expected, err := ens.Model()
	require.Nil(t, err)
	actual, err := loaded.Model()
	require.Nil(t, err)
	if diff := cmp.Diff(expected, actual); diff != "" {
		t.Errorf("ensemble mismatch (-want +got):\n%s", diff)
	}

	loadedDS, err := s.LoadDataset(ctx, id)
	require.Nil(t, err)
	if diff := cmp.Diff(ds.Observations(), loadedDS.Observations()); diff != "" {
		t.Errorf("dataset mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, []string{"treated"}, loadedDS.CovariateNames())

	runs, err := s.ListRuns(ctx)
	require.Nil(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, id, runs[0].ID)
	assert.Equal(t, "trial", runs[0].Name)
	assert.Equal(t, 2, runs[0].Chains)
	assert.Equal(t, 3, runs[0].Iterations)
	assert.Equal(t, 40.0, runs[0].Horizon)
	assert.Equal(t, 3, runs[0].Observations)
	assert.Equal(t, []string{"beta[0]", "alpha"}, runs[0].Labels)
}

func TestPredictiveRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	ds, ens := testRun(t)

	id, err := s.SaveEnsemble(ctx, "trial", ds, ens)
	require.Nil(t, err)

	samples, err := predictive.NewSamples(predictive.MethodTruncated, 40, mat.NewDense(2, 2, []float64{1.5, 2, 39, 0.25}))
	require.Nil(t, err)
	require.Nil(t, s.SavePredictive(ctx, id, samples))

	// saving again replaces the earlier samples
	require.Nil(t, s.SavePredictive(ctx, id, samples))

	loaded, err := s.LoadPredictive(ctx, id, predictive.MethodTruncated)
	require.Nil(t, err)
	assert.Equal(t, predictive.MethodTruncated, loaded.Method())
	assert.Equal(t, 40.0, loaded.Horizon())
	assert.True(t, mat.Equal(samples.Matrix(), loaded.Matrix()))

	_, err = s.LoadPredictive(ctx, id, predictive.MethodNaive)
	assert.ErrorIs(t, err, ErrPredictiveNotFound)
}

func TestStoreErrors(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	ds, ens := testRun(t)

	_, err := s.LoadEnsemble(ctx, 42)
	assert.ErrorIs(t, err, ErrRunNotFound)

	_, err = s.LoadDataset(ctx, 42)
	assert.ErrorIs(t, err, ErrRunNotFound)

	_, err = s.SaveEnsemble(ctx, "empty", ds, nil)
	assert.ErrorIs(t, err, ErrNoEnsemble)

	_, err = s.SaveEnsemble(ctx, "empty", nil, ens)
	assert.ErrorIs(t, err, ErrNoDataset)

	samples, err := predictive.NewSamples(predictive.MethodNaive, 40, mat.NewDense(1, 1, []float64{3}))
	require.Nil(t, err)
	assert.ErrorIs(t, s.SavePredictive(ctx, 42, samples), ErrRunNotFound)
	assert.ErrorIs(t, s.SavePredictive(ctx, 42, nil), ErrNoSamples)

	runs, err := s.ListRuns(ctx)
	require.Nil(t, err)
	assert.Empty(t, runs)
}

func TestDeleteRun(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	ds, ens := testRun(t)

	id, err := s.SaveEnsemble(ctx, "trial", ds, ens)
	require.Nil(t, err)
	require.Nil(t, s.DeleteRun(ctx, id))

	_, err = s.LoadEnsemble(ctx, id)
	assert.ErrorIs(t, err, ErrRunNotFound)
	assert.ErrorIs(t, s.DeleteRun(ctx, id), ErrRunNotFound)
}

func TestReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "runs.db")
	ds, ens := testRun(t)

	s, err := Open(path)
	require.Nil(t, err)
	id, err := s.SaveEnsemble(ctx, "trial", ds, ens)
	require.Nil(t, err)
	require.Nil(t, s.Close())

	s, err = Open(path)
	require.Nil(t, err)
	defer s.Close()
	loaded, err := s.LoadEnsemble(ctx, id)
	require.Nil(t, err)
	assert.Equal(t, ens.Len(), loaded.Len())
}
