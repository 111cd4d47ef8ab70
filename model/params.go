package model

import (
	"errors"
	"fmt"
)

var ErrParamsLenMismatch = errors.New("parameter vector length does not match number of covariates")

const (
	LabelCoef              = "beta"
	LabelLogBaselineHazard = "alpha"
)

// Params are the parameters of the exponential proportional hazards model. The hazard of
// an individual with covariates x is exp(LogBaselineHazard + Coef.x).
type Params struct {
	Coef              []float64 `json:"coef"`
	LogBaselineHazard float64   `json:"log_baseline_hazard"`
}

// Vector flattens the parameters into [coef..., log baseline hazard] which is the layout
// used by samplers and optimizers.
func (p Params) Vector() []float64 {
	x := make([]float64, 0, len(p.Coef)+1)
	x = append(x, p.Coef...)
	return append(x, p.LogBaselineHazard)
}

// ParamsFromVector is the inverse of Params.Vector for a model with k covariates
func ParamsFromVector(x []float64, k int) (Params, error) {
	if len(x) != k+1 {
		return Params{}, fmt.Errorf("got %d values for %d covariates, %w", len(x), k, ErrParamsLenMismatch)
	}
	coef := make([]float64, k)
	copy(coef, x[:k])
	return Params{
		Coef:              coef,
		LogBaselineHazard: x[k],
	}, nil
}

// Labels returns the parameter names in vector order, beta[0]...beta[k-1], alpha
func Labels(k int) []string {
	labels := make([]string, 0, k+1)
	for i := 0; i < k; i++ {
		labels = append(labels, fmt.Sprintf("%s[%d]", LabelCoef, i))
	}
	return append(labels, LabelLogBaselineHazard)
}
