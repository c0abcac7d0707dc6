package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"haptune/internal/ipc"
)

func newPreloadCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "preload <scene>",
		Short: "Compile and retain a scene for replay",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Preload(args[0])
				if err != nil {
					return err
				}
				if !resp.Loaded {
					fmt.Fprintf(cmd.OutOrStdout(), "Not preloaded: %s\n", resp.Message)
					return nil
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Preloaded %s\n", args[0])
				return nil
			})
		},
	}
}

func newUnloadCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "unload <scene>",
		Short: "Drop a preloaded scene",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Unload(args[0])
				if err != nil {
					return err
				}
				if !resp.Unloaded {
					fmt.Fprintf(cmd.OutOrStdout(), "No preloaded scene named %s\n", args[0])
					return nil
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Unloaded %s\n", args[0])
				return nil
			})
		},
	}
}

func newUnloadAllCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "unload-all",
		Short: "Drop every preloaded scene and clip",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				if _, err := client.UnloadAll(); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Unloaded all scenes and clips")
				return nil
			})
		},
	}
}
