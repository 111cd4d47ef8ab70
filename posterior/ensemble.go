// Package posterior holds the draws produced by a sampler and summarizes them
package posterior

import (
	"errors"
	"fmt"

	"github.com/aouyang1/go-survival/model"
	"github.com/aouyang1/go-survival/stats"
	"gonum.org/v1/gonum/mat"
)

var (
	ErrNoChains              = errors.New("no chains provided")
	ErrEmptyChain            = errors.New("chain has no draws")
	ErrChainDimMismatch      = errors.New("chain dimensions are not consistent")
	ErrLabelLenMismatch      = errors.New("number of labels does not match parameter dimension")
	ErrUninitializedEnsemble = errors.New("ensemble is not initialized")
	ErrDrawOutOfBounds       = errors.New("draw index out of bounds")
	ErrParamOutOfBounds      = errors.New("parameter index out of bounds")
	ErrChainOutOfBounds      = errors.New("chain index out of bounds")
)

// DefaultRHatThreshold is the split rhat above which a parameter is considered to not
// have converged
const DefaultRHatThreshold = 1.1

// Ensemble is an immutable collection of posterior draws from one or more chains. Draws
// are ordered by chain then by iteration so draw i belongs to chain i / iterations.
type Ensemble struct {
	labels     []string
	chains     int
	iterations int
	draws      *mat.Dense
}

// New builds an ensemble from per chain draw matrices where each row is a draw and each
// column a parameter. The input is copied.
func New(labels []string, chains []*mat.Dense) (*Ensemble, error) {
	if len(chains) == 0 {
		return nil, ErrNoChains
	}
	if chains[0] == nil || chains[0].IsEmpty() {
		return nil, ErrEmptyChain
	}
	iterations, dim := chains[0].Dims()
	if len(labels) != dim {
		return nil, fmt.Errorf("%d labels for %d parameters, %w", len(labels), dim, ErrLabelLenMismatch)
	}

	draws := mat.NewDense(len(chains)*iterations, dim, nil)
	for c, chain := range chains {
		if chain == nil || chain.IsEmpty() {
			return nil, fmt.Errorf("chain %d, %w", c, ErrEmptyChain)
		}
		r, k := chain.Dims()
		if r != iterations || k != dim {
			return nil, fmt.Errorf("chain %d has shape %dx%d expected %dx%d, %w", c, r, k, iterations, dim, ErrChainDimMismatch)
		}
		draws.Slice(c*iterations, (c+1)*iterations, 0, dim).(*mat.Dense).Copy(chain)
	}

	l := make([]string, len(labels))
	copy(l, labels)
	return &Ensemble{
		labels:     l,
		chains:     len(chains),
		iterations: iterations,
		draws:      draws,
	}, nil
}

// Labels returns the parameter names
func (e *Ensemble) Labels() []string {
	if e == nil {
		return nil
	}
	l := make([]string, len(e.labels))
	copy(l, e.labels)
	return l
}

// Dim returns the number of parameters in each draw
func (e *Ensemble) Dim() int {
	if e == nil {
		return 0
	}
	return len(e.labels)
}

// NumChains returns the number of chains
func (e *Ensemble) NumChains() int {
	if e == nil {
		return 0
	}
	return e.chains
}

// NumIterations returns the number of draws kept per chain
func (e *Ensemble) NumIterations() int {
	if e == nil {
		return 0
	}
	return e.iterations
}

// Len returns the total number of draws across all chains
func (e *Ensemble) Len() int {
	if e == nil {
		return 0
	}
	return e.chains * e.iterations
}

// Draw returns a copy of the i-th parameter vector
func (e *Ensemble) Draw(i int) ([]float64, error) {
	if e == nil {
		return nil, ErrUninitializedEnsemble
	}
	if i < 0 || i >= e.Len() {
		return nil, fmt.Errorf("draw %d of %d, %w", i, e.Len(), ErrDrawOutOfBounds)
	}
	return mat.Row(nil, i, e.draws), nil
}

// Params returns the i-th draw as model parameters. The last parameter is the log
// baseline hazard.
func (e *Ensemble) Params(i int) (model.Params, error) {
	x, err := e.Draw(i)
	if err != nil {
		return model.Params{}, err
	}
	return model.ParamsFromVector(x, len(x)-1)
}

// Column returns every draw of parameter j ordered by chain then iteration
func (e *Ensemble) Column(j int) ([]float64, error) {
	if e == nil {
		return nil, ErrUninitializedEnsemble
	}
	if j < 0 || j >= e.Dim() {
		return nil, fmt.Errorf("parameter %d of %d, %w", j, e.Dim(), ErrParamOutOfBounds)
	}
	return mat.Col(nil, j, e.draws), nil
}

// Chain returns a copy of the draws of chain c
func (e *Ensemble) Chain(c int) (*mat.Dense, error) {
	if e == nil {
		return nil, ErrUninitializedEnsemble
	}
	if c < 0 || c >= e.chains {
		return nil, fmt.Errorf("chain %d of %d, %w", c, e.chains, ErrChainOutOfBounds)
	}
	return mat.DenseCopyOf(e.draws.Slice(c*e.iterations, (c+1)*e.iterations, 0, e.Dim())), nil
}

func (e *Ensemble) chainColumns(j int) [][]float64 {
	out := make([][]float64, e.chains)
	for c := 0; c < e.chains; c++ {
		col := make([]float64, e.iterations)
		for i := 0; i < e.iterations; i++ {
			col[i] = e.draws.At(c*e.iterations+i, j)
		}
		out[c] = col
	}
	return out
}

// RHat returns the split rhat of parameter j
func (e *Ensemble) RHat(j int) (float64, error) {
	if e == nil {
		return 0, ErrUninitializedEnsemble
	}
	if j < 0 || j >= e.Dim() {
		return 0, fmt.Errorf("parameter %d of %d, %w", j, e.Dim(), ErrParamOutOfBounds)
	}
	return stats.SplitRHat(e.chainColumns(j))
}

// Converged reports whether every parameter has a split rhat at or below the threshold.
// A single chain cannot be assessed and is reported as converged.
func (e *Ensemble) Converged(threshold float64) bool {
	if e == nil {
		return false
	}
	if e.chains < 2 {
		return true
	}
	for j := 0; j < e.Dim(); j++ {
		rhat, err := e.RHat(j)
		if err != nil {
			continue
		}
		if rhat > threshold {
			return false
		}
	}
	return true
}
