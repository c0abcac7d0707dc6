package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"haptune/internal/ipc"
)

const (
	ansiBlue  = "\x1b[34m"
	ansiReset = "\x1b[0m"
)

func renderSectionHeader(title string, colorize bool) []string {
	rule := strings.Repeat("-", len(title))
	if colorize {
		title = ansiBlue + title + ansiReset
		rule = ansiBlue + rule + ansiReset
	}
	return []string{title, rule}
}

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show daemon status and preloaded resources",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				status, err := client.Status()
				if err != nil {
					return err
				}

				stdout := cmd.OutOrStdout()
				colorize := shouldColorize(stdout)

				for _, line := range renderSectionHeader("Daemon", colorize) {
					fmt.Fprintln(stdout, line)
				}
				fmt.Fprintf(stdout, "Running:   %s\n", yesNo(status.Running))
				fmt.Fprintf(stdout, "PID:       %d\n", status.PID)
				fmt.Fprintf(stdout, "Tier:      %s\n", status.Tier)
				fmt.Fprintf(stdout, "Socket:    %s\n", status.SocketPath)
				fmt.Fprintf(stdout, "History:   %s\n", status.HistoryDBPath)
				fmt.Fprintln(stdout)

				for _, line := range renderSectionHeader("Preloaded", colorize) {
					fmt.Fprintln(stdout, line)
				}
				if len(status.PreloadedBundles) == 0 && len(status.PreloadedClips) == 0 {
					fmt.Fprintln(stdout, "none")
					return nil
				}
				for _, name := range status.PreloadedBundles {
					fmt.Fprintf(stdout, "scene  %s\n", name)
				}
				for _, name := range status.PreloadedClips {
					fmt.Fprintf(stdout, "clip   %s\n", name)
				}
				return nil
			})
		},
	}
}
