package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"haptune/internal/ipc"
)

func newClipCommand(ctx *commandContext) *cobra.Command {
	clipCmd := &cobra.Command{
		Use:   "clip",
		Short: "Standalone audio clip operations",
	}

	var route string
	playCmd := &cobra.Command{
		Use:   "play <clip>",
		Short: "Play a standalone audio clip",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.ClipPlay(args[0], route)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Playing clip %s (session %s)\n", args[0], resp.SessionID)
				return nil
			})
		},
	}
	playCmd.Flags().StringVar(&route, "route", "", "Audio route: default, speaker, or headset")

	preloadCmd := &cobra.Command{
		Use:   "preload <clip>",
		Short: "Decode and retain an audio clip",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.ClipPreload(args[0])
				if err != nil {
					return err
				}
				if !resp.Loaded {
					fmt.Fprintf(cmd.OutOrStdout(), "Not preloaded: %s\n", resp.Message)
					return nil
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Preloaded clip %s\n", args[0])
				return nil
			})
		},
	}

	unloadCmd := &cobra.Command{
		Use:   "unload <clip>",
		Short: "Drop a preloaded audio clip",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.ClipUnload(args[0])
				if err != nil {
					return err
				}
				if !resp.Unloaded {
					fmt.Fprintf(cmd.OutOrStdout(), "No preloaded clip named %s\n", args[0])
					return nil
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Unloaded clip %s\n", args[0])
				return nil
			})
		},
	}

	clipCmd.AddCommand(playCmd)
	clipCmd.AddCommand(preloadCmd)
	clipCmd.AddCommand(unloadCmd)
	return clipCmd
}
