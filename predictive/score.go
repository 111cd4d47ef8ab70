package predictive

import (
	"errors"
	"fmt"
	"math"

	"github.com/aouyang1/go-survival/dataset"
	"github.com/aouyang1/go-survival/stats"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

var ErrResLenMismatch = errors.New("predicted and actual have different lengths")

// Check compares predictive samples against the observed event times
type Check struct {
	Method Method `json:"method"`

	ObservedMean  float64 `json:"observed_mean"`
	PredictedMean float64 `json:"predicted_mean"`
	Bias          float64 `json:"bias"`

	// fraction of all samples beyond the horizon, always zero for truncated samples
	FracAboveHorizon float64 `json:"frac_above_horizon"`

	// two sample Kolmogorov-Smirnov distance between observed and pooled predictive times
	KS float64 `json:"ks"`

	// errors of each individual's posterior predictive mean against their observed time
	MSE  float64 `json:"mse"`
	MAPE float64 `json:"mape"`
}

// NewCheck summarizes how well the samples reproduce the uncensored times of ds
func NewCheck(s *Samples, ds *dataset.Dataset) (*Check, error) {
	if s == nil {
		return nil, ErrUninitializedSamples
	}
	if ds == nil {
		return nil, ErrNoDataset
	}
	observed := ds.UncensoredTimes()
	if len(observed) == 0 {
		return nil, ErrNoUncensored
	}
	if len(observed) != s.NumIndividuals() {
		return nil, fmt.Errorf("%d observed times for %d individuals, %w", len(observed), s.NumIndividuals(), ErrResLenMismatch)
	}

	values := s.Values()
	var above int
	for _, v := range values {
		if v > s.horizon {
			above++
		}
	}

	predicted := make([]float64, s.NumIndividuals())
	for i := range predicted {
		col, err := s.Individual(i)
		if err != nil {
			return nil, err
		}
		predicted[i] = stat.Mean(col, nil)
	}

	ks, err := stats.TwoSampleKS(observed, values)
	if err != nil {
		return nil, err
	}
	mse, err := MSE(predicted, observed)
	if err != nil {
		return nil, fmt.Errorf("unable to compute mean squared error, %w", err)
	}
	mape, err := MAPE(predicted, observed)
	if err != nil {
		return nil, fmt.Errorf("unable to compute mean average percent error, %w", err)
	}

	obsMean := stat.Mean(observed, nil)
	predMean := floats.Sum(values) / float64(len(values))
	return &Check{
		Method:           s.method,
		ObservedMean:     obsMean,
		PredictedMean:    predMean,
		Bias:             predMean - obsMean,
		FracAboveHorizon: float64(above) / float64(len(values)),
		KS:               ks,
		MSE:              mse,
		MAPE:             mape,
	}, nil
}

func MSE(predicted, actual []float64) (float64, error) {
	if len(predicted) != len(actual) {
		return 0, ErrResLenMismatch
	}

	mse := 0.0
	for i := 0; i < len(actual); i++ {
		if math.IsNaN(actual[i]) || math.IsNaN(predicted[i]) {
			continue
		}
		mse += math.Pow(actual[i]-predicted[i], 2.0)
	}
	mse /= float64(len(actual))
	return mse, nil
}

func MAPE(predicted, actual []float64) (float64, error) {
	if len(predicted) != len(actual) {
		return 0, ErrResLenMismatch
	}

	mape := 0.0
	for i := 0; i < len(actual); i++ {
		if math.IsNaN(actual[i]) || math.IsNaN(predicted[i]) || actual[i] == 0 {
			continue
		}
		mape += math.Abs((actual[i] - predicted[i]) / actual[i])
	}
	mape /= float64(len(actual))
	return mape, nil
}
