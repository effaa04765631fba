package main

import (
	"context"

	"github.com/spf13/cobra"
)

func randomCommand() *cobra.Command {
	var count int

	cmd := &cobra.Command{
		Use:   "random",
		Short: "Pick random songs from the library",
		RunE: func(cmd *cobra.Command, args []string) error {
			app := fromContext(cmd)
			ctx, cancel := withTimeout(context.Background(), app.timeout)
			defer cancel()

			result, err := app.client.RandomSongs(ctx, count)
			if err != nil {
				return err
			}
			return app.printer.Print(result)
		},
	}

	cmd.Flags().IntVar(&count, "count", 10, "number of songs")

	return cmd
}
