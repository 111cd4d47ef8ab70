// Package store persists fitted posterior ensembles and their predictive samples
package store

import (
	"context"
	"errors"
	"time"

	"github.com/aouyang1/go-survival/dataset"
	"github.com/aouyang1/go-survival/posterior"
	"github.com/aouyang1/go-survival/predictive"
)

var (
	ErrRunNotFound        = errors.New("run not found")
	ErrPredictiveNotFound = errors.New("predictive samples not found")
	ErrNoEnsemble         = errors.New("no ensemble provided")
	ErrNoDataset          = errors.New("no dataset provided")
	ErrNoSamples          = errors.New("no predictive samples provided")
)

// Run describes a stored fit
type Run struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	CreatedAt    time.Time `json:"created_at"`
	Chains       int       `json:"chains"`
	Iterations   int       `json:"iterations"`
	Labels       []string  `json:"labels"`
	Horizon      float64   `json:"horizon"`
	Observations int       `json:"observations"`
}

// Store is the persistence boundary for fitted runs
type Store interface {
	SaveEnsemble(ctx context.Context, name string, ds *dataset.Dataset, ens *posterior.Ensemble) (int64, error)
	LoadEnsemble(ctx context.Context, runID int64) (*posterior.Ensemble, error)
	LoadDataset(ctx context.Context, runID int64) (*dataset.Dataset, error)
	SavePredictive(ctx context.Context, runID int64, samples *predictive.Samples) error
	LoadPredictive(ctx context.Context, runID int64, method predictive.Method) (*predictive.Samples, error)
	ListRuns(ctx context.Context) ([]Run, error)
	Close() error
}
