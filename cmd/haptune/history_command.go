package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"haptune/internal/ipc"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "Playback history",
	}
	historyCmd.AddCommand(newHistoryListCommand(ctx))
	return historyCmd
}

func newHistoryListCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent playbacks, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.HistoryList(limit)
				if err != nil {
					return err
				}
				if len(resp.Records) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No playbacks recorded")
					return nil
				}
				rows := make([][]string, 0, len(resp.Records))
				for _, rec := range resp.Records {
					state := "playing"
					if rec.CompletedAt != nil {
						state = "complete"
					}
					rows = append(rows, []string{
						rec.StartedAt.Local().Format(time.DateTime),
						rec.Source,
						rec.Tier,
						fmt.Sprintf("%d ms", rec.DurationMS),
						strconv.Itoa(rec.EffectCount),
						strconv.Itoa(rec.AudioCount),
						state,
					})
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(
					[]string{"Started", "Source", "Tier", "Duration", "Effects", "Audio", "State"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignRight, alignLeft},
				))
				return nil
			})
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum records to show")
	return cmd
}
