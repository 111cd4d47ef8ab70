package dataset

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"
)

func TestSimulateOptionsValidate(t *testing.T) {
	testData := map[string]struct {
		opt *SimulateOptions
		err error
	}{
		"nil uses default": {},
		"zero size": {
			opt: &SimulateOptions{N: 0, Coef: []float64{1}, StudyLength: 1},
			err: ErrNonPositiveSize,
		},
		"no coef": {
			opt: &SimulateOptions{N: 1, StudyLength: 1},
			err: ErrNoCovariates,
		},
		"zero study length": {
			opt: &SimulateOptions{N: 1, Coef: []float64{1}},
			err: ErrNonPositiveStudyLength,
		},
		"bad covariate prob": {
			opt: &SimulateOptions{N: 1, Coef: []float64{1}, StudyLength: 1, CovariateProb: 1.5},
			err: ErrInvalidCovariateProb,
		},
		"overflowing hazard": {
			opt: &SimulateOptions{N: 1, Coef: []float64{1}, LogBaselineHazard: 800, StudyLength: 1},
			err: ErrDegenerateRate,
		},
		"overflowing coefficient": {
			opt: &SimulateOptions{N: 1, Coef: []float64{0, 900}, LogBaselineHazard: -4.6, StudyLength: 1},
			err: ErrDegenerateRate,
		},
		"underflowing hazard": {
			opt: &SimulateOptions{N: 1, Coef: []float64{-800}, StudyLength: 1},
			err: ErrDegenerateRate,
		},
		"nan hazard": {
			opt: &SimulateOptions{N: 1, Coef: []float64{1}, LogBaselineHazard: math.NaN(), StudyLength: 1},
			err: ErrDegenerateRate,
		},
	}
	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			res, err := td.opt.Validate()
			if td.err != nil {
				assert.ErrorIs(t, err, td.err)
				return
			}
			require.Nil(t, err)
			assert.NotNil(t, res)
		})
	}
}

func TestSimulate(t *testing.T) {
	opt := NewDefaultSimulateOptions()
	opt.N = 500

	ds, err := Simulate(opt, rand.NewSource(42))
	require.Nil(t, err)
	assert.Equal(t, 500, ds.Len())
	assert.Equal(t, 1, ds.NumCovariates())
	assert.LessOrEqual(t, ds.Horizon(), opt.StudyLength)
	assert.Greater(t, ds.Uncensored().Len(), 0)
	assert.Greater(t, ds.Censored().Len(), 0)

	again, err := Simulate(opt, rand.NewSource(42))
	require.Nil(t, err)
	assert.Equal(t, ds.Observations(), again.Observations())
}

func TestSimulateDegenerateRate(t *testing.T) {
	opt := NewDefaultSimulateOptions()
	opt.LogBaselineHazard = 800

	done := make(chan error, 1)
	go func() {
		_, err := Simulate(opt, rand.NewSource(1))
		done <- err
	}()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, ErrDegenerateRate)
	case <-time.After(5 * time.Second):
		t.Fatal("simulation did not return for an overflowing hazard")
	}
}
