package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/aouyang1/go-survival"
	"github.com/aouyang1/go-survival/dataset"
	"github.com/spf13/cobra"
)

func newFitCmd(a *app) *cobra.Command {
	var (
		dataPath string
		name     string
		seed     int64
	)
	cmd := &cobra.Command{
		Use:   "fit",
		Short: "Sample the posterior of a dataset and store the run",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ds, err := readDataset(dataPath)
			if err != nil {
				return err
			}

			opt := a.options()
			if seed >= 0 {
				opt.InferenceConfig.Seed = uint64(seed)
			}
			an, err := survival.New(opt, nil)
			if err != nil {
				return err
			}
			if err := an.Fit(cmd.Context(), ds); err != nil {
				return err
			}

			st, err := a.openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			if name == "" {
				name = strings.TrimSuffix(filepath.Base(dataPath), filepath.Ext(dataPath))
			}
			runID, err := st.SaveEnsemble(cmd.Context(), name, ds, an.Ensemble())
			if err != nil {
				return fmt.Errorf("unable to save run, %w", err)
			}

			m, err := an.Model()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Run: %d\n", runID)
			return m.TablePrint(out)
		},
	}

	f := cmd.Flags()
	f.StringVar(&dataPath, "data", "", "Dataset path, CSV or JSON (required)")
	f.StringVar(&name, "name", "", "Run name, defaults to the dataset file name")
	f.Int64Var(&seed, "seed", -1, "Sampler seed overriding the config")
	_ = cmd.MarkFlagRequired("data")
	return cmd
}

func readDataset(path string) (*dataset.Dataset, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	if strings.EqualFold(filepath.Ext(path), ".json") {
		return dataset.ReadJSON(file)
	}
	return dataset.ReadCSV(file)
}
