package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"callsheet/internal/status"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the latest production status",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			snapshot, err := status.Read(cfg.Paths.StatusPath)
			if err != nil {
				if errors.Is(err, os.ErrNotExist) {
					fmt.Fprintln(out, "No production has run yet")
					return nil
				}
				return err
			}

			fmt.Fprintf(out, "Project:  %s\n", snapshot.ProjectID)
			fmt.Fprintf(out, "Status:   %s\n", snapshot.State)
			fmt.Fprintf(out, "Progress: %.0f%%\n", snapshot.Progress*100)
			fmt.Fprintf(out, "Phase:    %s\n", snapshot.CurrentPhase)
			if snapshot.State == status.StateProcessing {
				fmt.Fprintf(out, "ETA:      %ds\n", snapshot.EstimatedTimeRemaining)
			}
			fmt.Fprintf(out, "Updated:  %s\n", snapshot.LastUpdated)

			if len(snapshot.ExportJobs) > 0 {
				titler := cases.Title(language.English)
				rows := make([][]string, 0, len(snapshot.ExportJobs))
				for _, job := range snapshot.ExportJobs {
					detail := job.DownloadURL
					if job.Error != "" {
						detail = job.Error
					}
					rows = append(rows, []string{job.ID, titler.String(job.Platform), job.Status, detail})
				}
				fmt.Fprintln(out)
				fmt.Fprintln(out, renderTable(
					[]string{"Job", "Platform", "Status", "Artifact"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft},
				))
			}

			for _, message := range snapshot.Errors {
				fmt.Fprintf(out, "Error: %s\n", message)
			}
			return nil
		},
	}
}
