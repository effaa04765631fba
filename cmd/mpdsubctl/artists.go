package main

import (
	"context"

	"github.com/spf13/cobra"
)

func artistsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "artists",
		Short: "List every artist in the library",
		RunE: func(cmd *cobra.Command, args []string) error {
			app := fromContext(cmd)
			ctx, cancel := withTimeout(context.Background(), app.timeout)
			defer cancel()

			result, err := app.client.Artists(ctx)
			if err != nil {
				return err
			}
			return app.printer.Print(result)
		},
	}
}
