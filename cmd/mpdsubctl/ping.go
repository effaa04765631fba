package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/mikey-austin/mpdsub/internal/output"
)

func pingCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Check the bridge is reachable",
		RunE: func(cmd *cobra.Command, args []string) error {
			app := fromContext(cmd)
			ctx, cancel := withTimeout(context.Background(), app.timeout)
			defer cancel()

			version, err := app.client.Ping(ctx)
			if err != nil {
				return err
			}
			return app.printer.Print(output.PingResult{Server: app.server, Version: version})
		},
	}
}
