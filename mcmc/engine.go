// Package mcmc draws samples from a log density. The Engine interface is the boundary
// between the survival model and the inference backend.
package mcmc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/aouyang1/go-survival/internal/logging"
	"github.com/aouyang1/go-survival/internal/randutil"
	"github.com/aouyang1/go-survival/posterior"
	"golang.org/x/exp/rand"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize"
	"gonum.org/v1/gonum/stat/distmv"
	"gonum.org/v1/gonum/stat/samplemv"
)

// number of draws taken between context checks
const blockSize = 256

var (
	ErrNoTarget         = errors.New("no target density provided")
	ErrInvalidDim       = errors.New("target dimension must be positive")
	ErrInvalidProposal  = errors.New("proposal covariance is not positive definite")
	ErrNonFiniteInitial = errors.New("log density is not finite at the initial location")
)

// LogDensity is an unnormalized log density over a flat parameter vector
type LogDensity interface {
	distmv.LogProber
	Dim() int
	Labels() []string
	Initial() []float64
}

// Optimizable targets expose a minimization problem whose solution is the mode
type Optimizable interface {
	Problem() optimize.Problem
}

// Curvature targets expose the hessian of the log density
type Curvature interface {
	Hess(hess *mat.SymDense, x []float64) error
}

// Engine produces a posterior ensemble from a log density
type Engine interface {
	Sample(ctx context.Context, target LogDensity, cfg *Config) (*posterior.Ensemble, error)
}

// MetropolisEngine is a random walk Metropolis sampler started at the mode with a
// gaussian proposal shaped by the curvature at the mode
type MetropolisEngine struct {
	logger *slog.Logger
}

func NewMetropolisEngine() *MetropolisEngine {
	return &MetropolisEngine{
		logger: logging.New("mcmc"),
	}
}

// Sample runs the configured chains concurrently. Each chain uses its own random source
// derived from the seed and chain index so the ensemble only depends on the config.
func (m *MetropolisEngine) Sample(ctx context.Context, target LogDensity, cfg *Config) (*posterior.Ensemble, error) {
	if target == nil {
		return nil, ErrNoTarget
	}
	cfg, err := cfg.Validate()
	if err != nil {
		return nil, err
	}
	dim := target.Dim()
	if dim <= 0 {
		return nil, ErrInvalidDim
	}

	logger := m.log()
	mode := m.mode(target)
	if lp := target.LogProb(mode); math.IsInf(lp, 0) || math.IsNaN(lp) {
		return nil, fmt.Errorf("log density %f, %w", lp, ErrNonFiniteInitial)
	}
	cov := proposalCovariance(target, mode, cfg.ProposalScale, logger)

	chains := make([]*mat.Dense, cfg.Chains)
	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(cfg.Parallelization)
	for c := 0; c < cfg.Chains; c++ {
		c := c
		eg.Go(func() error {
			draws, err := runChain(ctx, target, mode, cov, cfg, c)
			if err != nil {
				logger.Error("chain failed", "chain", c, "error", err.Error())
				return err
			}
			chains[c] = draws
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	ens, err := posterior.New(target.Labels(), chains)
	if err != nil {
		return nil, err
	}
	if !ens.Converged(cfg.RHatThreshold) {
		for j, label := range ens.Labels() {
			rhat, err := ens.RHat(j)
			if err != nil || rhat <= cfg.RHatThreshold {
				continue
			}
			logger.Warn("chains have not converged", "param", label, "rhat", rhat, "threshold", cfg.RHatThreshold)
		}
	}
	return ens, nil
}

func (m *MetropolisEngine) log() *slog.Logger {
	if m == nil || m.logger == nil {
		return logging.New("mcmc")
	}
	return m.logger
}

// mode searches for the maximum of the target. Targets that cannot be optimized or fail
// to converge start from their initial location.
func (m *MetropolisEngine) mode(target LogDensity) []float64 {
	initial := target.Initial()
	opt, ok := target.(Optimizable)
	if !ok {
		return initial
	}
	settings := &optimize.Settings{
		GradientThreshold: 1e-6,
		MajorIterations:   500,
	}
	res, err := optimize.Minimize(opt.Problem(), initial, settings, &optimize.LBFGS{})
	if err != nil {
		if res != nil && !floats.HasNaN(res.X) && !math.IsInf(target.LogProb(res.X), -1) {
			m.log().Warn("mode search did not converge, starting from best location", "error", err.Error())
			return res.X
		}
		m.log().Warn("unable to find mode, starting from initial location", "error", err.Error())
		return initial
	}
	return res.X
}

// proposalCovariance returns scale^2 times the inverse of the negative hessian at the
// mode. When the hessian is unavailable or not negative definite a scaled identity is
// used instead.
func proposalCovariance(target LogDensity, mode []float64, scale float64, logger *slog.Logger) *mat.SymDense {
	dim := target.Dim()
	if scale == 0 {
		scale = 2.38 / math.Sqrt(float64(dim))
	}

	sigma := mat.NewSymDense(dim, nil)
	if curv, ok := target.(Curvature); ok {
		hess := mat.NewSymDense(dim, nil)
		if err := curv.Hess(hess, mode); err == nil {
			hess.ScaleSym(-1, hess)
			var chol mat.Cholesky
			if chol.Factorize(hess) {
				if err := chol.InverseTo(sigma); err == nil {
					sigma.ScaleSym(scale*scale, sigma)
					return sigma
				}
			}
		}
		logger.Warn("hessian at mode is not usable, falling back to identity proposal")
	}

	for i := 0; i < dim; i++ {
		sigma.SetSym(i, i, scale*scale*DefaultFallbackStdDev*DefaultFallbackStdDev)
	}
	return sigma
}

func runChain(ctx context.Context, target LogDensity, mode []float64, cov *mat.SymDense, cfg *Config, chain int) (*mat.Dense, error) {
	dim := len(mode)
	src := randutil.Source(cfg.Seed, chain)
	proposal, ok := samplemv.NewProposalNormal(cov, src)
	if !ok {
		return nil, ErrInvalidProposal
	}

	// disperse the starting points so the chains can be compared
	start := proposal.ConditionalRand(nil, mode)
	if lp := target.LogProb(start); math.IsInf(lp, 0) || math.IsNaN(lp) {
		start = make([]float64, dim)
		copy(start, mode)
	}

	draws := mat.NewDense(cfg.Iterations, dim, nil)
	if err := sampleBlocks(ctx, draws, start, target, proposal, src, cfg.BurnIn, cfg.Thin); err != nil {
		return nil, err
	}
	return draws, nil
}

// sampleBlocks fills draws with one chain in blocks of blockSize rows, checking ctx
// between blocks. Every kept row is thin steps after the previous one, including
// across block boundaries.
func sampleBlocks(ctx context.Context, draws *mat.Dense, start []float64, target distmv.LogProber, proposal samplemv.MHProposal, src rand.Source, burnIn, thin int) error {
	iterations, dim := draws.Dims()
	for row := 0; row < iterations; {
		if err := ctx.Err(); err != nil {
			return err
		}
		n := min(blockSize, iterations-row)
		block := draws.Slice(row, row+n, 0, dim).(*mat.Dense)
		mh := samplemv.MetropolisHastingser{
			Initial:  start,
			Target:   target,
			Proposal: proposal,
			Src:      src,
			BurnIn:   burnIn,
			Rate:     thin,
		}
		mh.Sample(block)

		// the first row of a block is a single step past Initial
		start = mat.Row(nil, n-1, block)
		burnIn = thin - 1
		row += n
	}
	return nil
}
