package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"haptune/internal/ipc"
)

func newCacheCommand(ctx *commandContext) *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Archive cache operations",
	}
	cacheCmd.AddCommand(newCacheListCommand(ctx))
	cacheCmd.AddCommand(newCacheSweepCommand(ctx))
	cacheCmd.AddCommand(newCacheStatsCommand(ctx))
	return cacheCmd
}

func newCacheListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List extracted archive entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				list, err := client.CacheList()
				if err != nil {
					return err
				}
				if len(list.Entries) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "Cache is empty")
					return nil
				}
				rows := make([][]string, 0, len(list.Entries))
				for i, entry := range list.Entries {
					rows = append(rows, []string{
						strconv.Itoa(i + 1),
						entry.SourcePath,
						formatBytes(entry.SizeBytes),
						entry.ModifiedAt.Format("2006-01-02 15:04"),
					})
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(
					[]string{"#", "Source", "Size", "Extracted"},
					rows,
					[]columnAlignment{alignRight, alignLeft, alignRight, alignLeft},
				))
				return nil
			})
		},
	}
}

func newCacheSweepCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Remove cache entries whose source archives changed or vanished",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.CacheSweep()
				if err != nil {
					return err
				}
				if len(resp.Removed) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No stale entries found")
					return nil
				}
				for _, dir := range resp.Removed {
					fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", dir)
				}
				return nil
			})
		},
	}
}

func newCacheStatsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show cache usage and free space",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				stats, err := client.CacheStats()
				if err != nil {
					return err
				}
				stdout := cmd.OutOrStdout()
				fmt.Fprintf(stdout, "Entries:    %d\n", stats.Entries)
				fmt.Fprintf(stdout, "Total size: %s\n", formatBytes(stats.TotalBytes))
				fmt.Fprintf(stdout, "Free space: %s (%.0f%% of filesystem)\n",
					formatBytes(int64(stats.FreeBytes)), stats.FreeRatio*100)
				return nil
			})
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
