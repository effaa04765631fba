package main

import (
	"context"
	"strings"

	"github.com/spf13/cobra"
)

func searchCommand() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search artists, albums and songs",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app := fromContext(cmd)
			ctx, cancel := withTimeout(context.Background(), app.timeout)
			defer cancel()

			result, err := app.client.Search(ctx, strings.Join(args, " "), limit)
			if err != nil {
				return err
			}
			return app.printer.Print(result)
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "maximum results per category")

	return cmd
}
