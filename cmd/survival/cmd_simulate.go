package main

import (
	"fmt"
	"os"

	"github.com/aouyang1/go-survival/dataset"
	"github.com/spf13/cobra"
	"golang.org/x/exp/rand"
)

func newSimulateCmd(_ *app) *cobra.Command {
	var (
		opt    = dataset.NewDefaultSimulateOptions()
		seed   uint64
		output string
	)
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Simulate a right censored study and write it as CSV",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ds, err := dataset.Simulate(opt, rand.NewSource(seed))
			if err != nil {
				return err
			}
			file, err := os.Create(output)
			if err != nil {
				return err
			}
			defer file.Close()
			if err := dataset.WriteCSV(file, ds); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %d observations (%d uncensored) to %s\n",
				ds.Len(), ds.Uncensored().Len(), output)
			return nil
		},
	}

	f := cmd.Flags()
	f.IntVar(&opt.N, "n", opt.N, "Number of individuals")
	f.Float64SliceVar(&opt.Coef, "coef", opt.Coef, "Covariate coefficients, one per binary covariate")
	f.Float64Var(&opt.LogBaselineHazard, "log-baseline-hazard", opt.LogBaselineHazard, "Log baseline hazard")
	f.Float64Var(&opt.StudyLength, "study-length", opt.StudyLength, "Length of the study window")
	f.Float64Var(&opt.CovariateProb, "covariate-prob", opt.CovariateProb, "Probability each covariate is 1")
	f.Uint64Var(&seed, "seed", 1, "Random seed")
	f.StringVarP(&output, "output", "o", "", "Output CSV path (required)")
	_ = cmd.MarkFlagRequired("output")
	return cmd
}
