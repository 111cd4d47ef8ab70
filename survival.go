// Package survival fits a Bayesian exponential proportional hazards model to right
// censored survival data and draws posterior predictive survival times restricted to the
// observation horizon.
package survival

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aouyang1/go-survival/dataset"
	"github.com/aouyang1/go-survival/internal/logging"
	"github.com/aouyang1/go-survival/mcmc"
	"github.com/aouyang1/go-survival/model"
	"github.com/aouyang1/go-survival/posterior"
	"github.com/aouyang1/go-survival/predictive"
)

var (
	ErrNotFit                = errors.New("analysis has not been fit")
	ErrNoOptionsInModel      = errors.New("no options set in model")
	ErrNoDatasetInModel      = errors.New("no dataset set in model")
	ErrUninitializedAnalysis = errors.New("analysis is not initialized")
)

// Analysis fits the model to a dataset and draws posterior predictive samples from the
// fit
type Analysis struct {
	opt    *Options
	model  *model.ExponentialPH
	engine mcmc.Engine

	metrics *predictive.Metrics
	logger  *slog.Logger

	ds       *dataset.Dataset
	ensemble *posterior.Ensemble
}

// New creates an analysis with the provided options and inference engine. If no options
// are provided the defaults are used and a nil engine uses the Metropolis engine.
func New(opt *Options, engine mcmc.Engine) (*Analysis, error) {
	opt, err := opt.Validate()
	if err != nil {
		return nil, err
	}
	m, err := model.New(opt.PriorOptions)
	if err != nil {
		return nil, fmt.Errorf("unable to initialize model, %w", err)
	}
	if engine == nil {
		engine = mcmc.NewMetropolisEngine()
	}
	return &Analysis{
		opt:     opt,
		model:   m,
		engine:  engine,
		metrics: predictive.NewMetrics(opt.Registerer),
		logger:  logging.New("survival"),
	}, nil
}

// NewFromModel creates an analysis from a previously fit model skipping inference. This
// should be generated from a previous call to Model().
func NewFromModel(m Model) (*Analysis, error) {
	if m.Options == nil {
		return nil, ErrNoOptionsInModel
	}
	if m.Dataset == nil {
		return nil, ErrNoDatasetInModel
	}
	a, err := New(m.Options, nil)
	if err != nil {
		return nil, err
	}
	ens, err := posterior.NewFromModel(m.Posterior)
	if err != nil {
		return nil, fmt.Errorf("unable to load posterior, %w", err)
	}
	if ens.Dim() != m.Dataset.NumCovariates()+1 {
		return nil, fmt.Errorf("posterior has %d params for %d covariates, %w", ens.Dim(), m.Dataset.NumCovariates(), predictive.ErrDimMismatch)
	}
	a.ds = m.Dataset
	a.ensemble = ens
	return a, nil
}

// Fit draws the posterior of the model given the dataset. Chains that fail to converge
// are logged and reported through Converged rather than failing the fit.
func (a *Analysis) Fit(ctx context.Context, ds *dataset.Dataset) error {
	if a == nil {
		return ErrUninitializedAnalysis
	}
	target, err := a.model.NewTarget(ds)
	if err != nil {
		return fmt.Errorf("unable to create target, %w", err)
	}
	ens, err := a.engine.Sample(ctx, target, a.opt.InferenceConfig)
	if err != nil {
		return fmt.Errorf("unable to sample posterior, %w", err)
	}
	a.ds = ds
	a.ensemble = ens
	a.logger.Info("fit posterior",
		"observations", ds.Len(),
		"uncensored", ds.Uncensored().Len(),
		"draws", ens.Len(),
		"converged", a.Converged(),
	)
	return nil
}

// Converged reports whether every parameter's split rhat is within the configured
// threshold
func (a *Analysis) Converged() bool {
	if a == nil || a.ensemble == nil {
		return false
	}
	return a.ensemble.Converged(a.opt.InferenceConfig.RHatThreshold)
}

// Ensemble returns the posterior draws of the fit
func (a *Analysis) Ensemble() *posterior.Ensemble {
	if a == nil {
		return nil
	}
	return a.ensemble
}

// Dataset returns the dataset used in the fit
func (a *Analysis) Dataset() *dataset.Dataset {
	if a == nil {
		return nil
	}
	return a.ds
}

// Options returns a copy of the validated options
func (a *Analysis) Options() Options {
	if a == nil {
		return Options{}
	}
	return *a.opt
}

// PosteriorPredictive draws a predictive survival time for every uncensored individual
// under every posterior draw using the given method. An empty method uses the configured
// one.
func (a *Analysis) PosteriorPredictive(ctx context.Context, method predictive.Method) (*predictive.Samples, error) {
	if a == nil {
		return nil, ErrUninitializedAnalysis
	}
	if a.ensemble == nil || a.ds == nil {
		return nil, ErrNotFit
	}
	opt := *a.opt.PredictiveOptions
	if method != "" {
		opt.Method = method
	}
	sampler, err := predictive.NewSampler(&opt, a.metrics)
	if err != nil {
		return nil, err
	}
	return sampler.Sample(ctx, a.ensemble, a.ds)
}

// PredictiveCheck draws truncated and naive predictive samples and compares both against
// the observed event times
func (a *Analysis) PredictiveCheck(ctx context.Context) (*Results, error) {
	res := new(Results)
	var err error
	res.Truncated, err = a.PosteriorPredictive(ctx, predictive.MethodTruncated)
	if err != nil {
		return nil, fmt.Errorf("unable to draw truncated samples, %w", err)
	}
	res.Naive, err = a.PosteriorPredictive(ctx, predictive.MethodNaive)
	if err != nil {
		return nil, fmt.Errorf("unable to draw naive samples, %w", err)
	}
	res.TruncatedCheck, err = predictive.NewCheck(res.Truncated, a.ds)
	if err != nil {
		return nil, err
	}
	res.NaiveCheck, err = predictive.NewCheck(res.Naive, a.ds)
	if err != nil {
		return nil, err
	}
	return res, nil
}

// Model generates a serializable representation of the options, dataset and posterior
// draws. This can be used to initialize a new Analysis skipping inference.
func (a *Analysis) Model() (Model, error) {
	if a == nil {
		return Model{}, ErrUninitializedAnalysis
	}
	if a.ensemble == nil {
		return Model{}, ErrNotFit
	}
	pm, err := a.ensemble.Model()
	if err != nil {
		return Model{}, fmt.Errorf("unable to fetch posterior model, %w", err)
	}
	summary, err := a.ensemble.Summary()
	if err != nil {
		return Model{}, fmt.Errorf("unable to summarize posterior, %w", err)
	}
	return Model{
		Options:   a.opt,
		Dataset:   a.ds,
		Posterior: pm,
		Summary:   summary,
		Converged: a.Converged(),
	}, nil
}
