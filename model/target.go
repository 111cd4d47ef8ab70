package model

import (
	"log/slog"
	"math"

	"github.com/aouyang1/go-survival/dataset"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize"
)

// Target binds the model to a dataset and exposes the log posterior over the flat
// parameter vector [coef..., alpha]. It satisfies distmv.LogProber so it can be handed
// to any gonum sampler.
type Target struct {
	model *ExponentialPH
	ds    *dataset.Dataset
	k     int
}

// NewTarget returns the log posterior target of the dataset
func (e *ExponentialPH) NewTarget(ds *dataset.Dataset) (*Target, error) {
	if e == nil {
		return nil, ErrUninitializedModel
	}
	if ds == nil {
		return nil, ErrNoDataset
	}
	return &Target{
		model: e,
		ds:    ds,
		k:     ds.NumCovariates(),
	}, nil
}

// Dim returns the number of parameters
func (t *Target) Dim() int {
	return t.k + 1
}

// Labels returns the parameter names in vector order
func (t *Target) Labels() []string {
	return Labels(t.k)
}

// Initial returns the prior means as a starting location
func (t *Target) Initial() []float64 {
	x := make([]float64, t.Dim())
	for i := 0; i < t.k; i++ {
		x[i] = t.model.opt.CoefMean
	}
	x[t.k] = t.model.opt.LogBaselineHazardMean
	return x
}

// LogProb returns the unnormalized log posterior at x. Invalid inputs return -Inf so the
// location is never accepted by a sampler.
func (t *Target) LogProb(x []float64) float64 {
	p, err := ParamsFromVector(x, t.k)
	if err != nil {
		slog.Error("invalid parameter vector", "error", err.Error())
		return math.Inf(-1)
	}
	lp, err := t.model.LogPosterior(p, t.ds)
	if err != nil || math.IsNaN(lp) {
		return math.Inf(-1)
	}
	return lp
}

// Grad stores the gradient of the log posterior at x into grad
func (t *Target) Grad(grad, x []float64) error {
	p, err := ParamsFromVector(x, t.k)
	if err != nil {
		return err
	}
	return t.model.Gradient(grad, p, t.ds)
}

// Hess stores the hessian of the log posterior at x into hess
func (t *Target) Hess(hess *mat.SymDense, x []float64) error {
	p, err := ParamsFromVector(x, t.k)
	if err != nil {
		return err
	}
	return t.model.Hessian(hess, p, t.ds)
}

// Problem returns the minimization problem of the negative log posterior for finding the
// maximum a posteriori estimate.
func (t *Target) Problem() optimize.Problem {
	return optimize.Problem{
		Func: func(x []float64) float64 {
			return -t.LogProb(x)
		},
		Grad: func(grad, x []float64) {
			if err := t.Grad(grad, x); err != nil {
				slog.Error("unable to compute gradient", "error", err.Error())
				return
			}
			for i := range grad {
				grad[i] = -grad[i]
			}
		},
		Hess: func(hess *mat.SymDense, x []float64) {
			if err := t.Hess(hess, x); err != nil {
				slog.Error("unable to compute hessian", "error", err.Error())
				return
			}
			hess.ScaleSym(-1, hess)
		},
	}
}

// Mode returns the parameter vector maximizing the log posterior starting from the prior
// means
func (t *Target) Mode() ([]float64, error) {
	settings := &optimize.Settings{
		GradientThreshold: 1e-6,
		MajorIterations:   200,
	}
	res, err := optimize.Minimize(t.Problem(), t.Initial(), settings, &optimize.Newton{})
	if err != nil {
		return nil, err
	}
	return res.X, nil
}

// MAP returns the maximum a posteriori estimate
func (t *Target) MAP() (Params, error) {
	x, err := t.Mode()
	if err != nil {
		return Params{}, err
	}
	return ParamsFromVector(x, t.k)
}
