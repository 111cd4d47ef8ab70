package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/aouyang1/go-survival"
	"github.com/aouyang1/go-survival/predictive"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

func newPredictCmd(a *app) *cobra.Command {
	var (
		runID      int64
		method     string
		reportPath string
	)
	cmd := &cobra.Command{
		Use:   "predict",
		Short: "Draw posterior predictive survival times for a stored run",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			st, err := a.openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			ds, err := st.LoadDataset(ctx, runID)
			if err != nil {
				return err
			}
			ens, err := st.LoadEnsemble(ctx, runID)
			if err != nil {
				return err
			}
			pm, err := ens.Model()
			if err != nil {
				return err
			}

			reg := prometheus.NewRegistry()
			opt := a.options()
			opt.Registerer = reg
			an, err := survival.NewFromModel(survival.Model{
				Options:   opt,
				Dataset:   ds,
				Posterior: pm,
			})
			if err != nil {
				return err
			}

			samples, err := an.PosteriorPredictive(ctx, predictive.Method(method))
			if err != nil {
				return err
			}
			if err := st.SavePredictive(ctx, runID, samples); err != nil {
				return fmt.Errorf("unable to save predictive samples, %w", err)
			}
			check, err := predictive.NewCheck(samples, ds)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if err := printCheck(out, runID, samples, check, rejections(reg)); err != nil {
				return err
			}

			if reportPath == "" {
				return nil
			}
			file, err := os.Create(reportPath)
			if err != nil {
				return err
			}
			defer file.Close()
			if err := an.PlotFit(ctx, file); err != nil {
				return fmt.Errorf("unable to write report, %w", err)
			}
			fmt.Fprintf(out, "Report: %s\n", reportPath)
			return nil
		},
	}

	f := cmd.Flags()
	f.Int64Var(&runID, "run", 0, "Run ID (required)")
	f.StringVar(&method, "method", "", "Sampling method overriding the config (truncated, naive)")
	f.StringVar(&reportPath, "report", "", "Write an HTML report comparing observed and predictive times")
	_ = cmd.MarkFlagRequired("run")
	return cmd
}

func printCheck(w io.Writer, runID int64, s *predictive.Samples, c *predictive.Check, rejected float64) error {
	tbl := tabwriter.NewWriter(w, 0, 0, 1, ' ', tabwriter.AlignRight)
	rows := []struct {
		label string
		value string
	}{
		{"Run", fmt.Sprintf("%d", runID)},
		{"Method", string(c.Method)},
		{"Draws", fmt.Sprintf("%d", s.NumDraws())},
		{"Individuals", fmt.Sprintf("%d", s.NumIndividuals())},
		{"Horizon", fmt.Sprintf("%.3f", s.Horizon())},
		{"Observed Mean", fmt.Sprintf("%.3f", c.ObservedMean)},
		{"Predicted Mean", fmt.Sprintf("%.3f", c.PredictedMean)},
		{"Bias", fmt.Sprintf("%.3f", c.Bias)},
		{"Above Horizon", fmt.Sprintf("%.4f", c.FracAboveHorizon)},
		{"KS", fmt.Sprintf("%.4f", c.KS)},
		{"MSE", fmt.Sprintf("%.3f", c.MSE)},
		{"MAPE", fmt.Sprintf("%.3f", c.MAPE)},
		{"Rejected Candidates", fmt.Sprintf("%.0f", rejected)},
	}
	for _, r := range rows {
		if _, err := fmt.Fprintf(tbl, "%s:\t%s\t\n", r.label, r.value); err != nil {
			return err
		}
	}
	return tbl.Flush()
}

// rejections sums the rejected candidate counter across methods
func rejections(g prometheus.Gatherer) float64 {
	families, err := g.Gather()
	if err != nil {
		return 0
	}
	var total float64
	for _, f := range families {
		if f.GetName() != "survival_predictive_rejections_total" {
			continue
		}
		for _, m := range f.GetMetric() {
			total += m.GetCounter().GetValue()
		}
	}
	return total
}
