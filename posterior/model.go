package posterior

import (
	"gonum.org/v1/gonum/mat"
)

// Model is the serializable form of an ensemble. Draws holds one row per chain where
// each row is the chain's draws flattened in iteration order.
type Model struct {
	Labels     []string    `json:"labels"`
	Chains     int         `json:"chains"`
	Iterations int         `json:"iterations"`
	Draws      [][]float64 `json:"draws"`
}

// Model returns the serializable form of the ensemble
func (e *Ensemble) Model() (Model, error) {
	if e == nil {
		return Model{}, ErrUninitializedEnsemble
	}
	dim := e.Dim()
	draws := make([][]float64, e.chains)
	for c := 0; c < e.chains; c++ {
		row := make([]float64, 0, e.iterations*dim)
		for i := 0; i < e.iterations; i++ {
			row = append(row, e.draws.RawRowView(c*e.iterations+i)...)
		}
		draws[c] = row
	}
	return Model{
		Labels:     e.Labels(),
		Chains:     e.chains,
		Iterations: e.iterations,
		Draws:      draws,
	}, nil
}

// NewFromModel rebuilds an ensemble from its serializable form
func NewFromModel(m Model) (*Ensemble, error) {
	if m.Chains == 0 || len(m.Draws) == 0 {
		return nil, ErrNoChains
	}
	if len(m.Draws) != m.Chains {
		return nil, ErrChainDimMismatch
	}
	dim := len(m.Labels)
	if dim == 0 {
		return nil, ErrLabelLenMismatch
	}
	chains := make([]*mat.Dense, 0, m.Chains)
	for _, d := range m.Draws {
		if len(d) == 0 {
			return nil, ErrEmptyChain
		}
		if len(d) != m.Iterations*dim {
			return nil, ErrChainDimMismatch
		}
		chains = append(chains, mat.NewDense(m.Iterations, dim, d))
	}
	return New(m.Labels, chains)
}
