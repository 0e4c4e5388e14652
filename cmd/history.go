package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/VoxDroid/tvrel/internal/ledger"
)

var historyCmd = &cobra.Command{
	Use:   "history [tag]",
	Short: "Show recorded release runs",
	Long:  "Show recorded release runs from the local ledger (per-target outcomes and artifact digests with --details)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		tag := ""
		if len(args) == 1 {
			tag = args[0]
		}
		details, _ := cmd.Flags().GetBool("details")

		dbConn, err := ledger.InitDB()
		if err != nil {
			return err
		}
		defer func() { _ = dbConn.Close() }()

		r := ledger.NewRepository(dbConn)
		runs, err := r.ListRuns(tag)
		if err != nil {
			return err
		}
		if len(runs) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "no recorded runs")
			return nil
		}
		for _, run := range runs {
			finished := "-"
			if run.FinishedAt.Valid {
				finished = run.FinishedAt.String
			}
			fmt.Fprintf(cmd.OutOrStdout(), "#%d\t%s\t%s\t%s\t%s\n", run.ID, run.Tag, run.Status, run.StartedAt, finished)
			if !details {
				continue
			}
			results, err := r.TargetResults(run.ID)
			if err != nil {
				return err
			}
			for _, tr := range results {
				msg := ""
				if tr.Error.Valid {
					msg = tr.Error.String
				}
				fmt.Fprintf(cmd.OutOrStdout(), "  %s\t%s\t%s\n", tr.Triple, tr.Status, msg)
			}
			arts, err := r.Artifacts(run.ID)
			if err != nil {
				return err
			}
			for _, a := range arts {
				fmt.Fprintf(cmd.OutOrStdout(), "  %s\t%s\n", a.Name, a.SHA256)
			}
		}
		return nil
	},
}

func init() {
	historyCmd.Flags().Bool("details", false, "Show per-target outcomes and artifact digests")
	rootCmd.AddCommand(historyCmd)
}
