// Package stats contains summary statistics used to describe posterior draws and to
// compare predictive samples with observed data.
package stats

import (
	"errors"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

var (
	ErrNoSamples          = errors.New("no samples")
	ErrMinimumChains      = errors.New("need at least 2 chains to compute rhat")
	ErrChainLenMismatch   = errors.New("some chain length is not consistent")
	ErrChainLen           = errors.New("must have at least 4 draws per chain")
	ErrInvalidProbability = errors.New("probability must be within [0, 1]")
)

// Summary describes the marginal distribution of a set of samples
type Summary struct {
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
	Q05    float64 `json:"q05"`
	Q50    float64 `json:"q50"`
	Q95    float64 `json:"q95"`
}

// Summarize computes the mean, standard deviation and the 5%, 50%, 95% quantiles
func Summarize(x []float64) (Summary, error) {
	if len(x) == 0 {
		return Summary{}, ErrNoSamples
	}
	sorted := make([]float64, len(x))
	copy(sorted, x)
	sort.Float64s(sorted)

	mean, std := stat.MeanStdDev(sorted, nil)
	if len(sorted) == 1 {
		std = 0
	}
	return Summary{
		Mean:   mean,
		StdDev: std,
		Q05:    stat.Quantile(0.05, stat.LinInterp, sorted, nil),
		Q50:    stat.Quantile(0.5, stat.LinInterp, sorted, nil),
		Q95:    stat.Quantile(0.95, stat.LinInterp, sorted, nil),
	}, nil
}

// SplitRHat computes the split potential scale reduction factor of Gelman et al. Each
// chain is split in half and the between and within half-chain variances are compared.
// Values close to 1 indicate the chains are sampling the same distribution.
func SplitRHat(chains [][]float64) (float64, error) {
	if len(chains) < 2 {
		return 0, ErrMinimumChains
	}
	n := len(chains[0])
	for _, c := range chains {
		if len(c) < 4 {
			return 0, ErrChainLen
		}
		if len(c) != n {
			return 0, ErrChainLenMismatch
		}
	}

	half := n / 2
	splits := make([][]float64, 0, 2*len(chains))
	for _, c := range chains {
		// drop the middle draw for odd lengths so both halves match
		splits = append(splits, c[:half], c[n-half:])
	}

	m := float64(len(splits))
	means := make([]float64, len(splits))
	vars := make([]float64, len(splits))
	for i, s := range splits {
		means[i], vars[i] = stat.MeanVariance(s, nil)
	}

	nh := float64(half)
	between := nh * stat.Variance(means, nil)
	within := floats.Sum(vars) / m
	if within == 0 {
		if between == 0 {
			return 1, nil
		}
		return math.Inf(1), nil
	}
	varPlus := (nh-1)/nh*within + between/nh
	return math.Sqrt(varPlus / within), nil
}

// KolmogorovSmirnovCDF returns the one sample Kolmogorov-Smirnov distance between the
// empirical distribution of x and the continuous cdf.
func KolmogorovSmirnovCDF(x []float64, cdf func(float64) float64) (float64, error) {
	if len(x) == 0 {
		return 0, ErrNoSamples
	}
	sorted := make([]float64, len(x))
	copy(sorted, x)
	sort.Float64s(sorted)

	n := float64(len(sorted))
	var d float64
	for i, v := range sorted {
		f := cdf(v)
		d = math.Max(d, math.Max(float64(i+1)/n-f, f-float64(i)/n))
	}
	return d, nil
}

// KolmogorovSmirnovCritical returns the asymptotic critical value of the one sample
// Kolmogorov-Smirnov distance at significance alpha for n samples.
func KolmogorovSmirnovCritical(n int, alpha float64) (float64, error) {
	if n <= 0 {
		return 0, ErrNoSamples
	}
	if alpha <= 0 || alpha >= 1 {
		return 0, ErrInvalidProbability
	}
	return math.Sqrt(-0.5*math.Log(alpha/2)) / math.Sqrt(float64(n)), nil
}

// TwoSampleKS returns the two sample Kolmogorov-Smirnov distance between x and y
func TwoSampleKS(x, y []float64) (float64, error) {
	if len(x) == 0 || len(y) == 0 {
		return 0, ErrNoSamples
	}
	xs := make([]float64, len(x))
	ys := make([]float64, len(y))
	copy(xs, x)
	copy(ys, y)
	sort.Float64s(xs)
	sort.Float64s(ys)
	return stat.KolmogorovSmirnov(xs, nil, ys, nil), nil
}
