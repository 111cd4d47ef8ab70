// Package dataset holds right censored survival data partitioned into the individuals
// whose event was observed and the individuals who were censored.
package dataset

import (
	"errors"
	"fmt"
	"math"

	mat_ "github.com/aouyang1/go-survival/mat"
	"gonum.org/v1/gonum/mat"
)

var (
	ErrNoObservations         = errors.New("no observations in dataset")
	ErrNonPositiveTime        = errors.New("elapsed time must be positive and finite")
	ErrNoCovariates           = errors.New("observation has no covariates")
	ErrCovariateLenMismatch   = errors.New("observation has a different number of covariates")
	ErrCovariateNamesMismatch = errors.New("covariate names do not match number of covariates")
	ErrDatasetLenMismatch     = errors.New("covariate rows have a different length than times")
)

// Observation is a single individual's record. ElapsedTime is the time until the event
// or until censoring when EventObserved is false.
type Observation struct {
	ElapsedTime   float64   `json:"elapsed_time"`
	EventObserved bool      `json:"event_observed"`
	Covariates    []float64 `json:"covariates"`
}

// Copy returns a deep copy of the observation
func (o Observation) Copy() Observation {
	cov := make([]float64, len(o.Covariates))
	copy(cov, o.Covariates)
	return Observation{
		ElapsedTime:   o.ElapsedTime,
		EventObserved: o.EventObserved,
		Covariates:    cov,
	}
}

// Group is one side of the partition stored as parallel arrays. The covariate matrix has
// one row per individual and is nil when the group is empty. Groups are read only, every
// accessor returns a copy.
type Group struct {
	x *mat.Dense
	t []float64
}

// Len returns the number of individuals in the group
func (g Group) Len() int {
	return len(g.t)
}

// Time returns the elapsed time of individual i
func (g Group) Time(i int) float64 {
	return g.t[i]
}

// Times returns a copy of the elapsed times
func (g Group) Times() []float64 {
	t := make([]float64, len(g.t))
	copy(t, g.t)
	return t
}

// At returns covariate j of individual i
func (g Group) At(i, j int) float64 {
	return g.x.At(i, j)
}

// Covariates returns a copy of the covariate vector of individual i
func (g Group) Covariates(i int) []float64 {
	if g.x == nil {
		return nil
	}
	return mat.Row(nil, i, g.x)
}

// CovariateRows returns a copy of every covariate vector in group order
func (g Group) CovariateRows() [][]float64 {
	if g.x == nil {
		return nil
	}
	return mat_.Rows(g.x)
}

// Matrix returns a copy of the covariate matrix or nil for an empty group
func (g Group) Matrix() *mat.Dense {
	if g.x == nil {
		return nil
	}
	return mat.DenseCopyOf(g.x)
}

// LinearPredictor returns offset + x.w for every individual. The length of w must
// match the number of covariates.
func (g Group) LinearPredictor(w []float64, offset float64) ([]float64, error) {
	if g.x == nil {
		return nil, nil
	}
	m, k := g.x.Dims()
	if len(w) != k {
		return nil, fmt.Errorf("group has %d covariates for %d weights, %w", k, len(w), ErrCovariateLenMismatch)
	}
	eta := mat.NewVecDense(m, nil)
	eta.MulVec(g.x, mat.NewVecDense(k, w))
	out := eta.RawVector().Data
	for i := range out {
		out[i] += offset
	}
	return out, nil
}

// Dataset is an immutable collection of observations split into uncensored and
// censored groups. Every observation belongs to exactly one group.
type Dataset struct {
	uncensored Group
	censored   Group

	names   []string
	obs     []Observation
	horizon float64
}

// New validates the observations and partitions them by censoring status, preserving
// the input order within each group. Covariate names are optional and default to
// x0, x1, ...
func New(obs []Observation, names []string) (*Dataset, error) {
	if len(obs) == 0 {
		return nil, ErrNoObservations
	}

	k := len(obs[0].Covariates)
	if k == 0 {
		return nil, fmt.Errorf("at observation 0, %w", ErrNoCovariates)
	}
	if names == nil {
		names = DefaultCovariateNames(k)
	}
	if len(names) != k {
		return nil, fmt.Errorf("got %d names for %d covariates, %w", len(names), k, ErrCovariateNamesMismatch)
	}

	var xu, xc [][]float64
	var tu, tc []float64
	obsCopy := make([]Observation, 0, len(obs))
	for i, o := range obs {
		if err := validTime(o.ElapsedTime); err != nil {
			return nil, fmt.Errorf("at observation %d, %w", i, err)
		}
		if len(o.Covariates) != k {
			return nil, fmt.Errorf(
				"at observation %d expected %d covariates but got %d, %w",
				i, k, len(o.Covariates), ErrCovariateLenMismatch,
			)
		}
		o = o.Copy()
		obsCopy = append(obsCopy, o)
		if o.EventObserved {
			xu = append(xu, o.Covariates)
			tu = append(tu, o.ElapsedTime)
			continue
		}
		xc = append(xc, o.Covariates)
		tc = append(tc, o.ElapsedTime)
	}

	uncensored, err := newGroup(xu, tu)
	if err != nil {
		return nil, fmt.Errorf("unable to build uncensored group, %w", err)
	}
	censored, err := newGroup(xc, tc)
	if err != nil {
		return nil, fmt.Errorf("unable to build censored group, %w", err)
	}

	horizon, err := Horizon(tu, tc)
	if err != nil {
		return nil, err
	}

	namesCopy := make([]string, k)
	copy(namesCopy, names)
	return &Dataset{
		uncensored: uncensored,
		censored:   censored,
		names:      namesCopy,
		obs:        obsCopy,
		horizon:    horizon,
	}, nil
}

// NewPartitioned builds a dataset from already partitioned parallel arrays of
// covariate rows and times.
func NewPartitioned(xUncensored [][]float64, tUncensored []float64, xCensored [][]float64, tCensored []float64, names []string) (*Dataset, error) {
	if len(xUncensored) != len(tUncensored) {
		return nil, fmt.Errorf(
			"uncensored covariates have %d rows, but times have a length of %d, %w",
			len(xUncensored), len(tUncensored), ErrDatasetLenMismatch,
		)
	}
	if len(xCensored) != len(tCensored) {
		return nil, fmt.Errorf(
			"censored covariates have %d rows, but times have a length of %d, %w",
			len(xCensored), len(tCensored), ErrDatasetLenMismatch,
		)
	}

	obs := make([]Observation, 0, len(tUncensored)+len(tCensored))
	for i, t := range tUncensored {
		obs = append(obs, Observation{ElapsedTime: t, EventObserved: true, Covariates: xUncensored[i]})
	}
	for i, t := range tCensored {
		obs = append(obs, Observation{ElapsedTime: t, EventObserved: false, Covariates: xCensored[i]})
	}
	return New(obs, names)
}

func newGroup(x [][]float64, t []float64) (Group, error) {
	if len(t) == 0 {
		return Group{}, nil
	}
	xMx, err := mat_.NewDenseFromRows(x)
	if err != nil {
		return Group{}, err
	}
	tCopy := make([]float64, len(t))
	copy(tCopy, t)
	return Group{x: xMx, t: tCopy}, nil
}

func validTime(t float64) error {
	if math.IsNaN(t) || math.IsInf(t, 0) || t <= 0 {
		return fmt.Errorf("got %f, %w", t, ErrNonPositiveTime)
	}
	return nil
}

// Horizon returns the largest elapsed time across both groups. This is the end of the
// observation window of the study. If one group is empty the other is used alone.
func Horizon(uncensored, censored []float64) (float64, error) {
	if len(uncensored) == 0 && len(censored) == 0 {
		return 0, ErrNoObservations
	}
	horizon := math.Inf(-1)
	for _, t := range uncensored {
		horizon = math.Max(horizon, t)
	}
	for _, t := range censored {
		horizon = math.Max(horizon, t)
	}
	return horizon, nil
}

// DefaultCovariateNames returns x0...x{k-1}
func DefaultCovariateNames(k int) []string {
	names := make([]string, k)
	for i := 0; i < k; i++ {
		names[i] = fmt.Sprintf("x%d", i)
	}
	return names
}

// Horizon returns the study horizon, the maximum elapsed time observed in the dataset
func (d *Dataset) Horizon() float64 {
	if d == nil {
		return 0
	}
	return d.horizon
}

// Len returns the total number of observations
func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.obs)
}

// NumCovariates returns the length of every covariate vector
func (d *Dataset) NumCovariates() int {
	if d == nil {
		return 0
	}
	return len(d.names)
}

// CovariateNames returns a copy of the covariate names
func (d *Dataset) CovariateNames() []string {
	if d == nil {
		return nil
	}
	names := make([]string, len(d.names))
	copy(names, d.names)
	return names
}

// Observations returns a copy of the observations in their original order
func (d *Dataset) Observations() []Observation {
	if d == nil {
		return nil
	}
	obs := make([]Observation, 0, len(d.obs))
	for _, o := range d.obs {
		obs = append(obs, o.Copy())
	}
	return obs
}

// Uncensored returns the group of individuals whose event was observed
func (d *Dataset) Uncensored() Group {
	if d == nil {
		return Group{}
	}
	return d.uncensored
}

// Censored returns the group of individuals censored before their event
func (d *Dataset) Censored() Group {
	if d == nil {
		return Group{}
	}
	return d.censored
}

// UncensoredTimes returns a copy of the elapsed times of the uncensored group
func (d *Dataset) UncensoredTimes() []float64 {
	return d.Uncensored().Times()
}

// CensoredTimes returns a copy of the elapsed times of the censored group
func (d *Dataset) CensoredTimes() []float64 {
	return d.Censored().Times()
}
