package survival

import (
	"fmt"

	"github.com/aouyang1/go-survival/mcmc"
	"github.com/aouyang1/go-survival/model"
	"github.com/aouyang1/go-survival/predictive"
	"github.com/prometheus/client_golang/prometheus"
)

// Options configures the priors, the posterior sampler and the predictive sampler
type Options struct {
	PriorOptions      *model.PriorOptions `json:"prior_options"`
	InferenceConfig   *mcmc.Config        `json:"inference_config"`
	PredictiveOptions *predictive.Options `json:"predictive_options"`

	// Registerer receives the predictive sampler metrics, nil keeps them unexported
	Registerer prometheus.Registerer `json:"-"`
}

func NewDefaultOptions() *Options {
	return &Options{
		PriorOptions:      model.NewDefaultPriorOptions(),
		InferenceConfig:   mcmc.NewDefaultConfig(),
		PredictiveOptions: predictive.NewDefaultOptions(),
	}
}

// Validate fills in missing sections with defaults and validates each section
func (o *Options) Validate() (*Options, error) {
	if o == nil {
		o = NewDefaultOptions()
	}
	prior, err := o.PriorOptions.Validate()
	if err != nil {
		return nil, fmt.Errorf("invalid prior options, %w", err)
	}
	inference, err := o.InferenceConfig.Validate()
	if err != nil {
		return nil, fmt.Errorf("invalid inference config, %w", err)
	}
	pred, err := o.PredictiveOptions.Validate()
	if err != nil {
		return nil, fmt.Errorf("invalid predictive options, %w", err)
	}
	return &Options{
		PriorOptions:      prior,
		InferenceConfig:   inference,
		PredictiveOptions: pred,
		Registerer:        o.Registerer,
	}, nil
}
