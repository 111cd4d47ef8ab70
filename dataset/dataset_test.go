package dataset

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	testData := map[string]struct {
		obs        []Observation
		names      []string
		uncensored []float64
		censored   []float64
		horizon    float64
		err        error
	}{
		"no observations": {
			err: ErrNoObservations,
		},
		"zero time": {
			obs: []Observation{{ElapsedTime: 0, EventObserved: true, Covariates: []float64{1}}},
			err: ErrNonPositiveTime,
		},
		"negative time": {
			obs: []Observation{{ElapsedTime: -3, EventObserved: false, Covariates: []float64{1}}},
			err: ErrNonPositiveTime,
		},
		"nan time": {
			obs: []Observation{{ElapsedTime: math.NaN(), EventObserved: true, Covariates: []float64{1}}},
			err: ErrNonPositiveTime,
		},
		"no covariates": {
			obs: []Observation{{ElapsedTime: 1, EventObserved: true}},
			err: ErrNoCovariates,
		},
		"covariate length mismatch": {
			obs: []Observation{
				{ElapsedTime: 1, EventObserved: true, Covariates: []float64{1}},
				{ElapsedTime: 2, EventObserved: true, Covariates: []float64{1, 0}},
			},
			err: ErrCovariateLenMismatch,
		},
		"names mismatch": {
			obs:   []Observation{{ElapsedTime: 1, EventObserved: true, Covariates: []float64{1}}},
			names: []string{"a", "b"},
			err:   ErrCovariateNamesMismatch,
		},
		"mixed": {
			obs: []Observation{
				{ElapsedTime: 23, EventObserved: true, Covariates: []float64{0}},
				{ElapsedTime: 47, EventObserved: false, Covariates: []float64{1}},
				{ElapsedTime: 69, EventObserved: true, Covariates: []float64{1}},
				{ElapsedTime: 255, EventObserved: false, Covariates: []float64{0}},
			},
			uncensored: []float64{23, 69},
			censored:   []float64{47, 255},
			horizon:    255,
		},
		"only uncensored": {
			obs: []Observation{
				{ElapsedTime: 5, EventObserved: true, Covariates: []float64{0}},
				{ElapsedTime: 12, EventObserved: true, Covariates: []float64{1}},
			},
			uncensored: []float64{5, 12},
			censored:   []float64{},
			horizon:    12,
		},
		"only censored": {
			obs: []Observation{
				{ElapsedTime: 30, EventObserved: false, Covariates: []float64{0}},
				{ElapsedTime: 8, EventObserved: false, Covariates: []float64{1}},
			},
			uncensored: []float64{},
			censored:   []float64{30, 8},
			horizon:    30,
		},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			ds, err := New(td.obs, td.names)
			if td.err != nil {
				assert.ErrorIs(t, err, td.err)
				return
			}
			require.Nil(t, err)

			assert.Equal(t, td.uncensored, ds.UncensoredTimes())
			assert.Equal(t, td.censored, ds.CensoredTimes())
			assert.Equal(t, len(td.obs), ds.Uncensored().Len()+ds.Censored().Len())
			assert.Equal(t, len(td.obs), ds.Len())
			assert.Equal(t, td.horizon, ds.Horizon())

			for _, g := range []Group{ds.Uncensored(), ds.Censored()} {
				if g.Len() == 0 {
					assert.Nil(t, g.Matrix())
					continue
				}
				m, n := g.Matrix().Dims()
				assert.Equal(t, g.Len(), m)
				assert.Equal(t, ds.NumCovariates(), n)
			}
		})
	}
}

func TestNewImmutable(t *testing.T) {
	obs := []Observation{
		{ElapsedTime: 10, EventObserved: true, Covariates: []float64{1}},
		{ElapsedTime: 20, EventObserved: false, Covariates: []float64{0}},
	}
	ds, err := New(obs, []string{"metastasized"})
	require.Nil(t, err)

	obs[0].Covariates[0] = 5
	obs[0].ElapsedTime = 99

	res := ds.Observations()
	assert.Equal(t, 10.0, res[0].ElapsedTime)
	assert.Equal(t, []float64{1}, res[0].Covariates)

	res[1].Covariates[0] = 7
	assert.Equal(t, []float64{0}, ds.Observations()[1].Covariates)
	assert.Equal(t, []float64{1}, ds.Uncensored().Covariates(0))
	assert.Equal(t, []string{"metastasized"}, ds.CovariateNames())

	times := ds.Uncensored().Times()
	times[0] = 500
	ds.UncensoredTimes()[0] = 500
	ds.CensoredTimes()[0] = 500
	ds.Uncensored().Covariates(0)[0] = 9
	ds.Uncensored().CovariateRows()[0][0] = 9
	ds.Uncensored().Matrix().Set(0, 0, 9)

	assert.Equal(t, []float64{10}, ds.UncensoredTimes())
	assert.Equal(t, []float64{20}, ds.CensoredTimes())
	assert.Equal(t, 10.0, ds.Uncensored().Time(0))
	assert.Equal(t, 1.0, ds.Uncensored().At(0, 0))
	assert.Equal(t, 20.0, ds.Horizon())
	assert.Equal(t, 10.0, ds.Observations()[0].ElapsedTime)
}

func TestGroupLinearPredictor(t *testing.T) {
	ds, err := NewPartitioned(
		[][]float64{{1, 2}, {0, -1}}, []float64{3, 4},
		nil, nil,
		nil,
	)
	require.Nil(t, err)

	eta, err := ds.Uncensored().LinearPredictor([]float64{0.5, 1}, -2)
	require.Nil(t, err)
	assert.InDeltaSlice(t, []float64{0.5, -3}, eta, 1e-12)

	_, err = ds.Uncensored().LinearPredictor([]float64{1}, 0)
	assert.ErrorIs(t, err, ErrCovariateLenMismatch)

	eta, err = ds.Censored().LinearPredictor([]float64{1}, 0)
	require.Nil(t, err)
	assert.Nil(t, eta)
}

func TestNewPartitioned(t *testing.T) {
	_, err := NewPartitioned([][]float64{{1}}, []float64{1, 2}, nil, nil, nil)
	assert.ErrorIs(t, err, ErrDatasetLenMismatch)

	_, err = NewPartitioned(nil, nil, [][]float64{{1}, {0}}, []float64{3}, nil)
	assert.ErrorIs(t, err, ErrDatasetLenMismatch)

	_, err = NewPartitioned(nil, nil, nil, nil, nil)
	assert.ErrorIs(t, err, ErrNoObservations)

	ds, err := NewPartitioned(
		[][]float64{{1}, {0}}, []float64{4, 9},
		[][]float64{{1}}, []float64{11},
		nil,
	)
	require.Nil(t, err)
	assert.Equal(t, 2, ds.Uncensored().Len())
	assert.Equal(t, 1, ds.Censored().Len())
	assert.Equal(t, 11.0, ds.Horizon())
	assert.Equal(t, []string{"x0"}, ds.CovariateNames())
}

func TestHorizon(t *testing.T) {
	testData := map[string]struct {
		uncensored []float64
		censored   []float64
		expected   float64
		err        error
	}{
		"both empty": {
			err: ErrNoObservations,
		},
		"empty censored": {
			uncensored: []float64{3, 9, 4},
			expected:   9,
		},
		"empty uncensored": {
			censored: []float64{7, 2},
			expected: 7,
		},
		"censored larger": {
			uncensored: []float64{3, 9},
			censored:   []float64{12},
			expected:   12,
		},
		"uncensored larger": {
			uncensored: []float64{30, 9},
			censored:   []float64{12},
			expected:   30,
		},
	}
	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			res, err := Horizon(td.uncensored, td.censored)
			if td.err != nil {
				assert.ErrorIs(t, err, td.err)
				return
			}
			require.Nil(t, err)
			assert.Equal(t, td.expected, res)
		})
	}
}
