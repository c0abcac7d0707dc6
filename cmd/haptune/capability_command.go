package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"haptune/internal/ipc"
)

func newCapabilityCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "capability",
		Short: "Show the session's device capability snapshot",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				caps, err := client.Capability()
				if err != nil {
					return err
				}

				rows := [][]string{
					{"Tier", caps.Tier},
					{"On/off", yesNo(caps.SupportsOnOff)},
					{"Amplitude control", yesNo(caps.SupportsAmplitudeControl)},
					{"Audio-coupled", yesNo(caps.SupportsAudioCoupled)},
					{"Envelope effects", yesNo(caps.SupportsEnvelopeEffects)},
					{"Resonant frequency", formatHz(caps.ResonantFrequencyHz)},
					{"Q factor", formatFloat(caps.QFactor)},
				}
				if caps.FrequencyMaxHz > 0 {
					rows = append(rows, []string{
						"Frequency response",
						fmt.Sprintf("%.0f-%.0f Hz", caps.FrequencyMinHz, caps.FrequencyMaxHz),
					})
				}
				if caps.MaxControlPoints > 0 {
					rows = append(rows, []string{"Envelope control points", strconv.Itoa(caps.MaxControlPoints)})
				}
				if len(caps.NativePrimitives) > 0 {
					rows = append(rows, []string{"Native primitives", strings.Join(caps.NativePrimitives, ", ")})
				}

				fmt.Fprintln(cmd.OutOrStdout(), renderTable(
					[]string{"Capability", "Value"},
					rows,
					[]columnAlignment{alignLeft, alignLeft},
				))
				return nil
			})
		},
	}
}

func formatHz(value *float64) string {
	if value == nil {
		return "not reported"
	}
	return fmt.Sprintf("%.1f Hz", *value)
}

func formatFloat(value *float64) string {
	if value == nil {
		return "not reported"
	}
	return fmt.Sprintf("%.2f", *value)
}
