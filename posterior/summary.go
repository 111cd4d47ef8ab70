package posterior

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/aouyang1/go-survival/stats"
)

// ParamSummary describes the marginal posterior of a single parameter
type ParamSummary struct {
	Label string `json:"label"`
	stats.Summary
	RHat float64 `json:"rhat,omitempty"`
}

// Summary returns the marginal summaries of every parameter in label order. RHat is left
// at zero when there are too few chains or draws to compute it.
func (e *Ensemble) Summary() ([]ParamSummary, error) {
	if e == nil {
		return nil, ErrUninitializedEnsemble
	}
	out := make([]ParamSummary, 0, e.Dim())
	for j, label := range e.labels {
		col, err := e.Column(j)
		if err != nil {
			return nil, err
		}
		s, err := stats.Summarize(col)
		if err != nil {
			return nil, fmt.Errorf("unable to summarize %s, %w", label, err)
		}
		ps := ParamSummary{Label: label, Summary: s}
		if rhat, err := e.RHat(j); err == nil {
			ps.RHat = rhat
		}
		out = append(out, ps)
	}
	return out, nil
}

// TablePrint writes the parameter summaries as an aligned table
func (e *Ensemble) TablePrint(w io.Writer, prefix, indent string) error {
	summaries, err := e.Summary()
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "%sPosterior: %d chains x %d draws\n", prefix, e.chains, e.iterations); err != nil {
		return err
	}
	tbl := tabwriter.NewWriter(w, 0, 0, 1, ' ', tabwriter.AlignRight)
	if _, err := fmt.Fprintf(tbl, "%s%sParam\tMean\tStdDev\t5%%\t50%%\t95%%\tRHat\t\n", prefix, indent); err != nil {
		return err
	}
	for _, s := range summaries {
		rhat := "..."
		if s.RHat != 0 {
			rhat = fmt.Sprintf("%.3f", s.RHat)
		}
		if _, err := fmt.Fprintf(tbl, "%s%s%s\t%.4f\t%.4f\t%.4f\t%.4f\t%.4f\t%s\t\n",
			prefix, indent, s.Label,
			s.Mean, s.StdDev, s.Q05, s.Q50, s.Q95, rhat); err != nil {
			return err
		}
	}
	return tbl.Flush()
}
