package survival

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/aouyang1/go-survival/dataset"
	"github.com/aouyang1/go-survival/posterior"
)

// Model is the serializable form of a fit analysis
type Model struct {
	Options   *Options                 `json:"options"`
	Dataset   *dataset.Dataset         `json:"dataset"`
	Posterior posterior.Model          `json:"posterior"`
	Summary   []posterior.ParamSummary `json:"summary"`
	Converged bool                     `json:"converged"`
}

// TablePrint writes the priors, sampler settings and posterior summaries
func (m Model) TablePrint(w io.Writer) error {
	if m.Dataset != nil {
		if _, err := fmt.Fprintf(w, "Dataset:\n  Observations: %d    Uncensored: %d    Censored: %d    Horizon: %.3f\n",
			m.Dataset.Len(), m.Dataset.Uncensored().Len(), m.Dataset.Censored().Len(), m.Dataset.Horizon()); err != nil {
			return err
		}
	}

	if m.Options != nil {
		if p := m.Options.PriorOptions; p != nil {
			if _, err := fmt.Fprintf(w, "Priors:\n  beta ~ N(%.3f, %.3f)    alpha ~ N(%.3f, %.3f)\n",
				p.CoefMean, p.CoefStdDev, p.LogBaselineHazardMean, p.LogBaselineStdDev); err != nil {
				return err
			}
		}
		if c := m.Options.InferenceConfig; c != nil {
			if _, err := fmt.Fprintf(w, "Sampler:\n  Chains: %d    Iterations: %d    Burn In: %d    Thin: %d    Seed: %d\n",
				c.Chains, c.Iterations, c.BurnIn, c.Thin, c.Seed); err != nil {
				return err
			}
		}
	}

	if _, err := fmt.Fprintf(w, "Posterior:\n  Converged: %t\n", m.Converged); err != nil {
		return err
	}
	tbl := tabwriter.NewWriter(w, 0, 0, 1, ' ', tabwriter.AlignRight)
	if _, err := fmt.Fprintf(tbl, "  Param\tMean\tStdDev\t5%%\t50%%\t95%%\tRHat\t\n"); err != nil {
		return err
	}
	for _, s := range m.Summary {
		rhat := "..."
		if s.RHat != 0 {
			rhat = fmt.Sprintf("%.3f", s.RHat)
		}
		if _, err := fmt.Fprintf(tbl, "  %s\t%.4f\t%.4f\t%.4f\t%.4f\t%.4f\t%s\t\n",
			s.Label, s.Mean, s.StdDev, s.Q05, s.Q50, s.Q95, rhat); err != nil {
			return err
		}
	}
	return tbl.Flush()
}
