// Package predictive draws posterior predictive survival times for individuals with an
// observed event. The truncated sampler restricts draws to the observation horizon so
// predictions stay within the window the data could have produced.
package predictive

import (
	"errors"
	"fmt"
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"
)

// DefaultMaxAttempts bounds the number of candidates drawn for a single truncated sample
const DefaultMaxAttempts = 10000

var (
	ErrDegenerateRate      = errors.New("rate must be finite and positive")
	ErrInvalidHorizon      = errors.New("horizon must be finite and positive")
	ErrAcceptanceUnderflow = errors.New("acceptance probability underflows to zero")
	ErrMaxAttemptsExceeded = errors.New("exceeded maximum attempts without an accepted candidate")
)

func validRate(rate float64) error {
	if math.IsNaN(rate) || math.IsInf(rate, 0) || rate <= 0 {
		return fmt.Errorf("rate %v, %w", rate, ErrDegenerateRate)
	}
	return nil
}

func validHorizon(horizon float64) error {
	if math.IsNaN(horizon) || math.IsInf(horizon, 0) || horizon <= 0 {
		return fmt.Errorf("horizon %v, %w", horizon, ErrInvalidHorizon)
	}
	return nil
}

// AcceptanceProbability is the probability an exponential candidate lands at or before
// the horizon, 1 - exp(-rate*horizon), computed without cancellation for small products.
func AcceptanceProbability(rate, horizon float64) float64 {
	return -math.Expm1(-rate * horizon)
}

// TruncatedMean is the mean of an exponential distribution truncated to (0, horizon]
func TruncatedMean(rate, horizon float64) float64 {
	rh := rate * horizon
	return 1/rate - horizon*math.Exp(-rh)/(-math.Expm1(-rh))
}

// TruncatedCDF is the distribution function of an exponential truncated to (0, horizon]
func TruncatedCDF(rate, horizon, t float64) float64 {
	switch {
	case t <= 0:
		return 0
	case t >= horizon:
		return 1
	}
	return math.Expm1(-rate*t) / math.Expm1(-rate*horizon)
}

// TruncatedExponential draws from an exponential distribution restricted to (0, horizon]
// by rejection. Candidates beyond the horizon are discarded and redrawn up to maxAttempts
// times, with a non-positive maxAttempts using DefaultMaxAttempts. The number of
// candidates drawn is returned alongside the sample.
func TruncatedExponential(rate, horizon float64, src rand.Source, maxAttempts int) (float64, int, error) {
	if err := validRate(rate); err != nil {
		return 0, 0, err
	}
	if err := validHorizon(horizon); err != nil {
		return 0, 0, err
	}
	if AcceptanceProbability(rate, horizon) == 0 {
		return 0, 0, fmt.Errorf("rate %v horizon %v, %w", rate, horizon, ErrAcceptanceUnderflow)
	}
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}

	dist := distuv.Exponential{Rate: rate, Src: src}
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		candidate := dist.Rand()
		if candidate > 0 && candidate <= horizon {
			return candidate, attempt, nil
		}
	}
	return 0, maxAttempts, fmt.Errorf("rate %v horizon %v after %d attempts, %w", rate, horizon, maxAttempts, ErrMaxAttemptsExceeded)
}

// NaiveExponential draws from the unrestricted exponential distribution
func NaiveExponential(rate float64, src rand.Source) (float64, error) {
	if err := validRate(rate); err != nil {
		return 0, err
	}
	dist := distuv.Exponential{Rate: rate, Src: src}
	for {
		if v := dist.Rand(); v > 0 {
			return v, nil
		}
	}
}
