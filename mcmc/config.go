package mcmc

import (
	"errors"

	"github.com/aouyang1/go-survival/posterior"
)

const (
	DefaultChains          = 4
	DefaultIterations      = 1000
	DefaultBurnIn          = 500
	DefaultThin            = 1
	DefaultParallelization = 4
	DefaultRHatThreshold   = posterior.DefaultRHatThreshold

	// proposal standard deviation per dimension when the hessian at the mode is unusable
	DefaultFallbackStdDev = 0.1
)

var (
	ErrNonPositiveChains     = errors.New("number of chains must be positive")
	ErrTooFewIterations      = errors.New("iterations must be at least 4 per chain")
	ErrNegativeBurnIn        = errors.New("burn in must be non-negative")
	ErrNonPositiveThin       = errors.New("thin must be positive")
	ErrNegativeProposalScale = errors.New("proposal scale must be non-negative")
	ErrInvalidRHatThreshold  = errors.New("rhat threshold must be at least 1")
)

// Config controls how many draws are taken and how they are produced
type Config struct {
	Chains     int `json:"chains" yaml:"chains" validate:"gte=1"`
	Iterations int `json:"iterations" yaml:"iterations" validate:"gte=4"`
	BurnIn     int `json:"burn_in" yaml:"burn_in" validate:"gte=0"`

	// keep every Thin-th draw after burn in
	Thin int    `json:"thin" yaml:"thin" validate:"gte=1"`
	Seed uint64 `json:"seed" yaml:"seed"`

	// maximum number of chains run at once, zero runs every chain concurrently
	Parallelization int `json:"parallelization" yaml:"parallelization" validate:"gte=0"`

	// multiplier on the proposal standard deviation, zero uses 2.38/sqrt(dim)
	ProposalScale float64 `json:"proposal_scale" yaml:"proposal_scale" validate:"gte=0"`
	RHatThreshold float64 `json:"rhat_threshold" yaml:"rhat_threshold" validate:"gte=1"`
}

func NewDefaultConfig() *Config {
	return &Config{
		Chains:          DefaultChains,
		Iterations:      DefaultIterations,
		BurnIn:          DefaultBurnIn,
		Thin:            DefaultThin,
		Parallelization: DefaultParallelization,
		RHatThreshold:   DefaultRHatThreshold,
	}
}

// Validate checks the config and returns a copy with zero valued optional fields filled
// in. A nil config returns the defaults.
func (c *Config) Validate() (*Config, error) {
	if c == nil {
		return NewDefaultConfig(), nil
	}
	if c.Chains <= 0 {
		return nil, ErrNonPositiveChains
	}
	if c.Iterations < 4 {
		return nil, ErrTooFewIterations
	}
	if c.BurnIn < 0 {
		return nil, ErrNegativeBurnIn
	}
	if c.Thin <= 0 {
		return nil, ErrNonPositiveThin
	}
	if c.ProposalScale < 0 {
		return nil, ErrNegativeProposalScale
	}

	out := *c
	if out.Parallelization <= 0 || out.Parallelization > out.Chains {
		out.Parallelization = out.Chains
	}
	if out.RHatThreshold == 0 {
		out.RHatThreshold = DefaultRHatThreshold
	}
	if out.RHatThreshold < 1 {
		return nil, ErrInvalidRHatThreshold
	}
	return &out, nil
}
