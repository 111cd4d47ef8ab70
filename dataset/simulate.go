package dataset

import (
	"errors"
	"fmt"
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"
)

var (
	ErrNonPositiveSize        = errors.New("number of individuals must be positive")
	ErrNonPositiveStudyLength = errors.New("study length must be positive")
	ErrInvalidCovariateProb   = errors.New("covariate probability must be within [0, 1]")
	ErrDegenerateRate         = errors.New("hazard rate is not a positive finite number")
	ErrSimulationStalled      = errors.New("too many zero length follow ups while simulating")
)

// maxDrawsPerIndividual bounds the redraws of zero length follow ups
const maxDrawsPerIndividual = 100

// SimulateOptions describes a study where every individual enters uniformly at random
// during the study, has an exponential survival time with rate exp(alpha + coef.x) and
// is censored when the study ends before the event.
type SimulateOptions struct {
	N                 int       `json:"n"`
	Coef              []float64 `json:"coef"`
	LogBaselineHazard float64   `json:"log_baseline_hazard"`
	StudyLength       float64   `json:"study_length"`

	// CovariateProb is the probability each binary covariate is set to 1
	CovariateProb float64 `json:"covariate_prob"`
}

// NewDefaultSimulateOptions returns a single binary covariate study with a hazard
// ratio of e^1 between the two groups
func NewDefaultSimulateOptions() *SimulateOptions {
	return &SimulateOptions{
		N:                 44,
		Coef:              []float64{1.0},
		LogBaselineHazard: -4.6,
		StudyLength:       255,
		CovariateProb:     0.6,
	}
}

// Validate runs basic validation on the simulation options
func (s *SimulateOptions) Validate() (*SimulateOptions, error) {
	if s == nil {
		s = NewDefaultSimulateOptions()
	}
	if s.N <= 0 {
		return nil, ErrNonPositiveSize
	}
	if len(s.Coef) == 0 {
		return nil, ErrNoCovariates
	}
	if s.StudyLength <= 0 || math.IsInf(s.StudyLength, 0) || math.IsNaN(s.StudyLength) {
		return nil, ErrNonPositiveStudyLength
	}
	if s.CovariateProb < 0 || s.CovariateProb > 1 {
		return nil, ErrInvalidCovariateProb
	}

	// the hazard is largest and smallest when every covariate pushes it the same way
	lo, hi := s.LogBaselineHazard, s.LogBaselineHazard
	for _, c := range s.Coef {
		lo += math.Min(c, 0)
		hi += math.Max(c, 0)
	}
	for _, lin := range []float64{lo, hi} {
		rate := math.Exp(lin)
		if math.IsNaN(rate) || math.IsInf(rate, 0) || rate <= 0 {
			return nil, fmt.Errorf("log hazard %f gives rate %f, %w", lin, rate, ErrDegenerateRate)
		}
	}
	return s, nil
}

// Simulate generates a censored dataset. Results are reproducible for a given source.
func Simulate(opt *SimulateOptions, src rand.Source) (*Dataset, error) {
	opt, err := opt.Validate()
	if err != nil {
		return nil, err
	}

	rnd := rand.New(src)
	entry := distuv.Uniform{Min: 0, Max: opt.StudyLength, Src: src}

	obs := make([]Observation, 0, opt.N)
	for draws := 0; len(obs) < opt.N; draws++ {
		if draws >= maxDrawsPerIndividual*opt.N {
			return nil, fmt.Errorf("%d draws for %d individuals, %w", draws, len(obs), ErrSimulationStalled)
		}

		cov := make([]float64, len(opt.Coef))
		lin := opt.LogBaselineHazard
		for j := range cov {
			if rnd.Float64() < opt.CovariateProb {
				cov[j] = 1.0
			}
			lin += opt.Coef[j] * cov[j]
		}

		survival := distuv.Exponential{Rate: math.Exp(lin), Src: src}.Rand()
		followUp := opt.StudyLength - entry.Rand()

		o := Observation{
			ElapsedTime:   survival,
			EventObserved: true,
			Covariates:    cov,
		}
		if survival > followUp {
			o.ElapsedTime = followUp
			o.EventObserved = false
		}
		// zero length follow up cannot be recorded
		if o.ElapsedTime <= 0 {
			continue
		}
		obs = append(obs, o)
	}

	ds, err := New(obs, nil)
	if err != nil {
		return nil, fmt.Errorf("unable to build simulated dataset, %w", err)
	}
	return ds, nil
}
