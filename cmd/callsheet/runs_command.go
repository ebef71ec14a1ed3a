package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"callsheet/internal/runs"
)

func newRunsCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Show recorded production runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			ledger, err := runs.Open(cfg)
			if err != nil {
				return fmt.Errorf("open run ledger: %w", err)
			}
			defer ledger.Close()

			rows, err := ledger.List(cmd.Context(), limit)
			if err != nil {
				return err
			}
			stats, err := ledger.Stats(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(rows) == 0 {
				fmt.Fprintln(out, "No runs recorded")
				return nil
			}

			tableRows := make([][]string, 0, len(rows))
			for _, run := range rows {
				duration := "-"
				if d := run.Duration(); d > 0 {
					duration = d.Round(time.Second).String()
				}
				tableRows = append(tableRows, []string{
					shortID(run.ID),
					run.ProjectID,
					run.ProjectTitle,
					run.State,
					strconv.FormatFloat(run.Progress*100, 'f', 0, 64) + "%",
					duration,
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Run", "Project", "Title", "State", "Progress", "Duration"},
				tableRows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignRight},
			))
			fmt.Fprintf(out, "Total: %d  Completed: %d  Failed: %d  Running: %d\n",
				stats.Total, stats.Completed, stats.Failed, stats.Running)
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of runs to list")
	return cmd
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
