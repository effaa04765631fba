package main

import (
	"context"

	"github.com/spf13/cobra"
)

func playlistsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "playlists [id]",
		Short: "List playlists, or show one playlist's entries",
		Args:  cobra.RangeArgs(0, 1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app := fromContext(cmd)
			ctx, cancel := withTimeout(context.Background(), app.timeout)
			defer cancel()

			if len(args) == 1 {
				result, err := app.client.Playlist(ctx, args[0])
				if err != nil {
					return err
				}
				return app.printer.Print(result)
			}

			result, err := app.client.Playlists(ctx)
			if err != nil {
				return err
			}
			return app.printer.Print(result)
		},
	}
}
