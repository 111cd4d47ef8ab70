package predictive

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"
)

var (
	ErrUninitializedSamples = errors.New("samples are not initialized")
	ErrIndexOutOfBounds     = errors.New("index out of bounds")
)

// Samples is a draws x individuals matrix of predictive survival times
type Samples struct {
	method  Method
	horizon float64
	draws   *mat.Dense
}

// NewSamples wraps a copy of previously drawn predictive times
func NewSamples(method Method, horizon float64, draws *mat.Dense) (*Samples, error) {
	if draws == nil || draws.IsEmpty() {
		return nil, ErrUninitializedSamples
	}
	if err := validHorizon(horizon); err != nil {
		return nil, err
	}
	return &Samples{
		method:  method,
		horizon: horizon,
		draws:   mat.DenseCopyOf(draws),
	}, nil
}

// Method returns how the samples were drawn
func (s *Samples) Method() Method {
	if s == nil {
		return ""
	}
	return s.method
}

// Horizon returns the observation horizon of the dataset the samples were drawn for
func (s *Samples) Horizon() float64 {
	if s == nil {
		return 0
	}
	return s.horizon
}

func (s *Samples) NumDraws() int {
	if s == nil {
		return 0
	}
	r, _ := s.draws.Dims()
	return r
}

func (s *Samples) NumIndividuals() int {
	if s == nil {
		return 0
	}
	_, c := s.draws.Dims()
	return c
}

// Draw returns the predictive times of every individual under posterior draw d
func (s *Samples) Draw(d int) ([]float64, error) {
	if s == nil {
		return nil, ErrUninitializedSamples
	}
	if d < 0 || d >= s.NumDraws() {
		return nil, fmt.Errorf("draw %d of %d, %w", d, s.NumDraws(), ErrIndexOutOfBounds)
	}
	return mat.Row(nil, d, s.draws), nil
}

// Individual returns the predictive times of individual i across all posterior draws
func (s *Samples) Individual(i int) ([]float64, error) {
	if s == nil {
		return nil, ErrUninitializedSamples
	}
	if i < 0 || i >= s.NumIndividuals() {
		return nil, fmt.Errorf("individual %d of %d, %w", i, s.NumIndividuals(), ErrIndexOutOfBounds)
	}
	return mat.Col(nil, i, s.draws), nil
}

// Values returns every sample flattened in draw order
func (s *Samples) Values() []float64 {
	if s == nil {
		return nil
	}
	r, c := s.draws.Dims()
	out := make([]float64, 0, r*c)
	for d := 0; d < r; d++ {
		out = append(out, s.draws.RawRowView(d)...)
	}
	return out
}

// Matrix returns a copy of the draws x individuals matrix
func (s *Samples) Matrix() *mat.Dense {
	if s == nil {
		return nil
	}
	return mat.DenseCopyOf(s.draws)
}
