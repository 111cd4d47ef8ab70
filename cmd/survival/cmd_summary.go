package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/aouyang1/go-survival"
	"github.com/spf13/cobra"
)

func newSummaryCmd(a *app) *cobra.Command {
	var runID int64
	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Print a stored run or list every run when no run is given",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			st, err := a.openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			out := cmd.OutOrStdout()
			if runID == 0 {
				runs, err := st.ListRuns(ctx)
				if err != nil {
					return err
				}
				tbl := tabwriter.NewWriter(out, 0, 0, 1, ' ', tabwriter.AlignRight)
				fmt.Fprintf(tbl, "ID\tName\tCreated\tChains\tIterations\tObservations\tHorizon\t\n")
				for _, r := range runs {
					fmt.Fprintf(tbl, "%d\t%s\t%s\t%d\t%d\t%d\t%.3f\t\n",
						r.ID, r.Name, r.CreatedAt.Format(time.RFC3339), r.Chains, r.Iterations, r.Observations, r.Horizon)
				}
				return tbl.Flush()
			}

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
			an, err := survival.NewFromModel(survival.Model{
				Options:   a.options(),
				Dataset:   ds,
				Posterior: pm,
			})
			if err != nil {
				return err
			}
			m, err := an.Model()
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Run: %d\n", runID)
			return m.TablePrint(out)
		},
	}
	cmd.Flags().Int64Var(&runID, "run", 0, "Run ID, omit to list runs")
	return cmd
}
