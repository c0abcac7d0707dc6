package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"haptune/internal/ipc"
)

func newPlayCommand(ctx *commandContext) *cobra.Command {
	var route string

	cmd := &cobra.Command{
		Use:   "play <scene>",
		Short: "Play a haptic scene by path or identifier",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Play(args[0], route)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Playing %s (session %s)\n", args[0], resp.SessionID)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&route, "route", "", "Audio route: default, speaker, or headset")
	return cmd
}
