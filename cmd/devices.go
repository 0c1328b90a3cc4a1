package main

import (
	"fmt"
	"strconv"

	"github.com/0xlemi/tunechase/internal/audio"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
)

func newDevicesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "devices",
		Short: "List audio input devices",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := audio.Initialize(); err != nil {
				return fmt.Errorf("initialize audio: %w", err)
			}
			defer audio.Terminate()

			devs, err := audio.InputDevices()
			if err != nil {
				return fmt.Errorf("list devices: %w", err)
			}
			if len(devs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No input devices found.")
				return nil
			}

			fmt.Fprintln(cmd.OutOrStdout(), devicesTable(devs))
			return nil
		},
	}
}

func devicesTable(devs []audio.Device) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("#", "NAME", "HOST API", "CHANNELS", "RATE", "DEFAULT")

	for _, d := range devs {
		def := ""
		if d.Default {
			def = "*"
		}
		t.Row(
			strconv.Itoa(d.Index),
			d.Name,
			d.HostAPI,
			strconv.Itoa(d.Channels),
			fmt.Sprintf("%.0f", d.SampleRate),
			def,
		)
	}
	return t.String()
}
