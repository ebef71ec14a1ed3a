package main

import (
	"fmt"
	"runtime/debug"

	"github.com/spf13/cobra"
)

const version = "0.1.0"

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "callsheet %s\n", version)
			if info, ok := debug.ReadBuildInfo(); ok && info.Main.Sum != "" {
				fmt.Fprintf(out, "build %s\n", info.Main.Sum)
			}
			return nil
		},
	}
}
