package main

import (
	"github.com/spf13/cobra"

	"github.com/mikey-austin/mpdsub/internal/output"
)

func urlCommand() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "url <id>",
		Short: "Print a playable stream URL for a song or episode",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app := fromContext(cmd)
			return app.printer.Print(output.StreamURL{URL: app.client.StreamURL(args[0], format)})
		},
	}

	cmd.Flags().StringVar(&format, "format", "", "transfer format (raw serves the original file)")

	return cmd
}
