// Package model evaluates the exponential proportional hazards survival model. Survival
// times are independent given covariates, so the log likelihood of a dataset is the sum
// of the event log density over uncensored individuals and the log survival over
// censored individuals.
package model

import (
	"errors"
	"fmt"
	"math"

	"github.com/aouyang1/go-survival/dataset"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

const (
	DefaultCoefMean              = 0.0
	DefaultCoefStdDev            = 2.0
	DefaultLogBaselineHazardMean = -4.6
	DefaultLogBaselineStdDev     = 2.0
)

var (
	ErrNoDataset            = errors.New("no dataset")
	ErrUninitializedModel   = errors.New("uninitialized model")
	ErrNonPositiveStdDev    = errors.New("prior standard deviation must be positive")
	ErrCovariateLenMismatch = errors.New("covariate length does not match number of coefficients")
	ErrGradLenMismatch      = errors.New("gradient length does not match number of parameters")
)

// PriorOptions configures the independent gaussian priors on each coefficient and on the
// log baseline hazard. The log baseline hazard mean should put the implied mean survival
// time, exp(-mean), on the scale of the observed times.
type PriorOptions struct {
	CoefMean              float64 `json:"coef_mean" yaml:"coef_mean"`
	CoefStdDev            float64 `json:"coef_std_dev" yaml:"coef_std_dev" validate:"gt=0"`
	LogBaselineHazardMean float64 `json:"log_baseline_hazard_mean" yaml:"log_baseline_hazard_mean"`
	LogBaselineStdDev     float64 `json:"log_baseline_std_dev" yaml:"log_baseline_std_dev" validate:"gt=0"`
}

// NewDefaultPriorOptions returns N(0, 2) coefficient priors and a N(-4.6, 2) log baseline
// hazard prior which centers the baseline mean survival time around 100.
func NewDefaultPriorOptions() *PriorOptions {
	return &PriorOptions{
		CoefMean:              DefaultCoefMean,
		CoefStdDev:            DefaultCoefStdDev,
		LogBaselineHazardMean: DefaultLogBaselineHazardMean,
		LogBaselineStdDev:     DefaultLogBaselineStdDev,
	}
}

// Validate runs basic validation on the prior options
func (p *PriorOptions) Validate() (*PriorOptions, error) {
	if p == nil {
		p = NewDefaultPriorOptions()
	}
	if p.CoefStdDev <= 0 || p.LogBaselineStdDev <= 0 {
		return nil, ErrNonPositiveStdDev
	}
	return p, nil
}

// ExponentialPH is the exponential proportional hazards model with gaussian priors
type ExponentialPH struct {
	opt *PriorOptions

	coefPrior  distuv.Normal
	alphaPrior distuv.Normal
}

// New initializes a model with the given priors. If none are provided the defaults are used.
func New(opt *PriorOptions) (*ExponentialPH, error) {
	opt, err := opt.Validate()
	if err != nil {
		return nil, err
	}
	return &ExponentialPH{
		opt:        opt,
		coefPrior:  distuv.Normal{Mu: opt.CoefMean, Sigma: opt.CoefStdDev},
		alphaPrior: distuv.Normal{Mu: opt.LogBaselineHazardMean, Sigma: opt.LogBaselineStdDev},
	}, nil
}

// Options returns a copy of the prior options
func (e *ExponentialPH) Options() PriorOptions {
	if e == nil {
		return PriorOptions{}
	}
	return *e.opt
}

// Rate returns the hazard exp(alpha + coef.x) of an individual with covariates x
func Rate(x []float64, p Params) (float64, error) {
	if len(x) != len(p.Coef) {
		return 0, fmt.Errorf("got %d covariates for %d coefficients, %w", len(x), len(p.Coef), ErrCovariateLenMismatch)
	}
	return math.Exp(p.LogBaselineHazard + floats.Dot(p.Coef, x)), nil
}

// linearPredictor computes alpha + X.coef for every row of the group
func linearPredictor(g dataset.Group, p Params) ([]float64, error) {
	eta, err := g.LinearPredictor(p.Coef, p.LogBaselineHazard)
	if err != nil {
		return nil, fmt.Errorf("%w, %w", ErrCovariateLenMismatch, err)
	}
	return eta, nil
}

// LogLikelihood sums the exponential log density log(rate) - rate*t over the uncensored
// group and the exponential log survival -rate*t over the censored group.
func LogLikelihood(p Params, ds *dataset.Dataset) (float64, error) {
	if ds == nil {
		return 0, ErrNoDataset
	}

	uncensored, censored := ds.Uncensored(), ds.Censored()
	etaU, err := linearPredictor(uncensored, p)
	if err != nil {
		return 0, err
	}
	etaC, err := linearPredictor(censored, p)
	if err != nil {
		return 0, err
	}

	var ll float64
	for i, eta := range etaU {
		ll += eta - math.Exp(eta)*uncensored.Time(i)
	}
	for i, eta := range etaC {
		ll -= math.Exp(eta) * censored.Time(i)
	}
	return ll, nil
}

// ObservationLogLikelihood is the contribution of a single individual, branching on
// whether the event was observed.
func ObservationLogLikelihood(p Params, o dataset.Observation) (float64, error) {
	rate, err := Rate(o.Covariates, p)
	if err != nil {
		return 0, err
	}
	if o.EventObserved {
		return distuv.Exponential{Rate: rate}.LogProb(o.ElapsedTime), nil
	}
	return -rate * o.ElapsedTime, nil
}

// LogLikelihoodPerObservation sums ObservationLogLikelihood over every observation
func LogLikelihoodPerObservation(p Params, obs []dataset.Observation) (float64, error) {
	var ll float64
	for i, o := range obs {
		oll, err := ObservationLogLikelihood(p, o)
		if err != nil {
			return 0, fmt.Errorf("at observation %d, %w", i, err)
		}
		ll += oll
	}
	return ll, nil
}

// LogPrior returns the log density of the parameters under the independent gaussian priors
func (e *ExponentialPH) LogPrior(p Params) float64 {
	if e == nil {
		return math.NaN()
	}
	lp := e.alphaPrior.LogProb(p.LogBaselineHazard)
	for _, c := range p.Coef {
		lp += e.coefPrior.LogProb(c)
	}
	return lp
}

// LogPosterior returns the unnormalized log posterior, log prior plus log likelihood
func (e *ExponentialPH) LogPosterior(p Params, ds *dataset.Dataset) (float64, error) {
	if e == nil {
		return 0, ErrUninitializedModel
	}
	ll, err := LogLikelihood(p, ds)
	if err != nil {
		return 0, err
	}
	return e.LogPrior(p) + ll, nil
}

// Gradient stores the gradient of the log posterior with respect to the flat parameter
// vector [coef..., alpha] into grad.
func (e *ExponentialPH) Gradient(grad []float64, p Params, ds *dataset.Dataset) error {
	if e == nil {
		return ErrUninitializedModel
	}
	if ds == nil {
		return ErrNoDataset
	}
	k := len(p.Coef)
	if len(grad) != k+1 {
		return fmt.Errorf("got gradient of length %d for %d parameters, %w", len(grad), k+1, ErrGradLenMismatch)
	}

	sd2 := e.opt.CoefStdDev * e.opt.CoefStdDev
	for j, c := range p.Coef {
		grad[j] = -(c - e.opt.CoefMean) / sd2
	}
	grad[k] = -(p.LogBaselineHazard - e.opt.LogBaselineHazardMean) / (e.opt.LogBaselineStdDev * e.opt.LogBaselineStdDev)

	// d/d(eta) is 1 - rate*t for an observed event and -rate*t when censored
	groups := []struct {
		g     dataset.Group
		event float64
	}{
		{ds.Uncensored(), 1},
		{ds.Censored(), 0},
	}
	for _, grp := range groups {
		eta, err := linearPredictor(grp.g, p)
		if err != nil {
			return err
		}
		for i, v := range eta {
			d := grp.event - math.Exp(v)*grp.g.Time(i)
			for j := 0; j < k; j++ {
				grad[j] += d * grp.g.At(i, j)
			}
			grad[k] += d
		}
	}
	return nil
}

// Hessian stores the hessian of the log posterior with respect to the flat parameter
// vector into hess which must be (k+1)x(k+1). The log posterior is concave so the result
// is negative definite.
func (e *ExponentialPH) Hessian(hess *mat.SymDense, p Params, ds *dataset.Dataset) error {
	if e == nil {
		return ErrUninitializedModel
	}
	if ds == nil {
		return ErrNoDataset
	}
	k := len(p.Coef)
	if hess.SymmetricDim() != k+1 {
		return fmt.Errorf("got hessian of dim %d for %d parameters, %w", hess.SymmetricDim(), k+1, ErrGradLenMismatch)
	}

	for i := 0; i <= k; i++ {
		for j := i; j <= k; j++ {
			hess.SetSym(i, j, 0)
		}
	}
	for j := 0; j < k; j++ {
		hess.SetSym(j, j, -1/(e.opt.CoefStdDev*e.opt.CoefStdDev))
	}
	hess.SetSym(k, k, -1/(e.opt.LogBaselineStdDev*e.opt.LogBaselineStdDev))

	z := make([]float64, k+1)
	z[k] = 1
	for _, g := range []dataset.Group{ds.Uncensored(), ds.Censored()} {
		eta, err := linearPredictor(g, p)
		if err != nil {
			return err
		}
		for i, v := range eta {
			w := math.Exp(v) * g.Time(i)
			for j := 0; j < k; j++ {
				z[j] = g.At(i, j)
			}
			for a := 0; a <= k; a++ {
				for b := a; b <= k; b++ {
					hess.SetSym(a, b, hess.At(a, b)-w*z[a]*z[b])
				}
			}
		}
	}
	return nil
}
