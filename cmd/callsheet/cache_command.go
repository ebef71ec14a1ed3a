package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"callsheet/internal/assetcache"
)

func newCacheCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "cache",
		Short: "Show asset cache statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := assetcache.NewStore(cfg.Paths.CacheDir)
			if err != nil {
				return fmt.Errorf("open asset cache: %w", err)
			}
			stats, err := store.Stats()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Location: %s\n", store.Root())
			fmt.Fprintf(out, "Entries:  %d\n", stats.Entries)
			fmt.Fprintf(out, "Size:     %s\n", formatBytes(stats.TotalBytes))
			fmt.Fprintf(out, "Disk free: %.0f%%\n", stats.FreeRatio*100)
			return nil
		},
	}
}

func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
