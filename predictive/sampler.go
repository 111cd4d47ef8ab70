package predictive

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aouyang1/go-survival/dataset"
	"github.com/aouyang1/go-survival/internal/logging"
	"github.com/aouyang1/go-survival/internal/randutil"
	"github.com/aouyang1/go-survival/model"
	"github.com/aouyang1/go-survival/posterior"
	"golang.org/x/exp/rand"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"
)

var (
	ErrNoEnsemble           = errors.New("no posterior ensemble provided")
	ErrNoDataset            = errors.New("no dataset provided")
	ErrNoUncensored         = errors.New("dataset has no uncensored observations to predict")
	ErrDimMismatch          = errors.New("ensemble dimension does not match dataset covariates")
	ErrUninitializedSampler = errors.New("sampler is not initialized")
)

// Sampler draws a predictive survival time for every uncensored individual under every
// posterior draw
type Sampler struct {
	opt     *Options
	metrics *Metrics
	logger  *slog.Logger
}

// NewSampler validates the options and attaches the metrics. Metrics may be nil.
func NewSampler(opt *Options, metrics *Metrics) (*Sampler, error) {
	opt, err := opt.Validate()
	if err != nil {
		return nil, err
	}
	return &Sampler{
		opt:     opt,
		metrics: metrics,
		logger:  logging.New("predictive"),
	}, nil
}

// Options returns a copy of the sampler options
func (s *Sampler) Options() Options {
	if s == nil {
		return Options{}
	}
	return *s.opt
}

// Sample returns a draws x individuals matrix of predictive survival times where row d
// uses posterior draw d and column i the i-th uncensored individual. Every draw has its
// own random source derived from the seed and the draw index so the result is the same
// for any parallelization.
func (s *Sampler) Sample(ctx context.Context, ens *posterior.Ensemble, ds *dataset.Dataset) (*Samples, error) {
	if s == nil {
		return nil, ErrUninitializedSampler
	}
	if ens == nil || ens.Len() == 0 {
		return nil, ErrNoEnsemble
	}
	if ds == nil {
		return nil, ErrNoDataset
	}
	n := ds.Uncensored().Len()
	if n == 0 {
		return nil, ErrNoUncensored
	}
	if ens.Dim() != ds.NumCovariates()+1 {
		return nil, fmt.Errorf("ensemble has %d params for %d covariates, %w", ens.Dim(), ds.NumCovariates(), ErrDimMismatch)
	}
	horizon := ds.Horizon()

	covariates := ds.Uncensored().CovariateRows()

	numDraws := ens.Len()
	out := mat.NewDense(numDraws, n, nil)

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(s.opt.Parallelization)
	for d := 0; d < numDraws; d++ {
		d := d
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			p, err := ens.Params(d)
			if err != nil {
				return err
			}
			if err := s.sampleDraw(out.RawRowView(d), p, covariates, horizon, randutil.Source(s.opt.Seed, d)); err != nil {
				s.logger.Error("unable to sample posterior draw", "draw", d, "error", err.Error())
				return fmt.Errorf("posterior draw %d, %w", d, err)
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return &Samples{
		method:  s.opt.Method,
		horizon: horizon,
		draws:   out,
	}, nil
}

func (s *Sampler) sampleDraw(row []float64, p model.Params, covariates [][]float64, horizon float64, src rand.Source) error {
	for i, x := range covariates {
		rate, err := model.Rate(x, p)
		if err != nil {
			return err
		}

		var (
			v        float64
			attempts int
		)
		switch s.opt.Method {
		case MethodNaive:
			v, err = NaiveExponential(rate, src)
			attempts = 1
		default:
			v, attempts, err = TruncatedExponential(rate, horizon, src, s.opt.MaxAttempts)
		}
		s.metrics.observe(s.opt.Method, attempts, err)
		if err != nil {
			return fmt.Errorf("individual %d, %w", i, err)
		}
		row[i] = v
	}
	return nil
}
