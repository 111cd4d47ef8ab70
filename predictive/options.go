package predictive

import (
	"errors"
	"fmt"
	"runtime"
)

// Method selects how predictive survival times are drawn
type Method string

const (
	// MethodTruncated restricts draws to the observation horizon
	MethodTruncated Method = "truncated"
	// MethodNaive draws from the unrestricted exponential and may exceed the horizon
	MethodNaive Method = "naive"
)

var (
	ErrUnknownMethod       = errors.New("unknown sampling method")
	ErrNegativeMaxAttempts = errors.New("max attempts must be non-negative")
)

// Options configures the predictive sampler
type Options struct {
	Method      Method `json:"method" yaml:"method" validate:"omitempty,oneof=truncated naive"`
	MaxAttempts int    `json:"max_attempts" yaml:"max_attempts" validate:"gte=0"`

	// maximum number of posterior draws processed at once, zero uses the number of cpus
	Parallelization int    `json:"parallelization" yaml:"parallelization" validate:"gte=0"`
	Seed            uint64 `json:"seed" yaml:"seed"`
}

func NewDefaultOptions() *Options {
	return &Options{
		Method:      MethodTruncated,
		MaxAttempts: DefaultMaxAttempts,
	}
}

// Validate checks the options and returns a copy with defaults filled in for zero
// valued fields
func (o *Options) Validate() (*Options, error) {
	if o == nil {
		o = NewDefaultOptions()
	}
	out := *o
	switch out.Method {
	case "":
		out.Method = MethodTruncated
	case MethodTruncated, MethodNaive:
	default:
		return nil, fmt.Errorf("%q, %w", out.Method, ErrUnknownMethod)
	}
	if out.MaxAttempts < 0 {
		return nil, ErrNegativeMaxAttempts
	}
	if out.MaxAttempts == 0 {
		out.MaxAttempts = DefaultMaxAttempts
	}
	if out.Parallelization <= 0 {
		out.Parallelization = runtime.NumCPU()
	}
	return &out, nil
}
