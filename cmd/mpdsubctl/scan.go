package main

import (
	"context"
	"fmt"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

func scanCommand() *cobra.Command {
	var wait bool
	var statusOnly bool

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Trigger a library rescan",
		RunE: func(cmd *cobra.Command, args []string) error {
			app := fromContext(cmd)

			if statusOnly {
				ctx, cancel := withTimeout(context.Background(), app.timeout)
				defer cancel()
				st, err := app.client.ScanStatus(ctx)
				if err != nil {
					return err
				}
				return app.printer.Print(st)
			}

			ctx, cancel := withTimeout(context.Background(), app.timeout)
			st, err := app.client.StartScan(ctx)
			cancel()
			if err != nil {
				return err
			}
			if !wait {
				return app.printer.Print(st)
			}
			return waitForScan(app)
		},
	}

	cmd.Flags().BoolVar(&wait, "wait", false, "poll until the scan finishes")
	cmd.Flags().BoolVar(&statusOnly, "status", false, "report scan status without starting one")

	return cmd
}

func waitForScan(app *app) error {
	var spinner *pterm.SpinnerPrinter
	if !app.json {
		spinner, _ = pterm.DefaultSpinner.Start("scanning")
	}

	for {
		time.Sleep(500 * time.Millisecond)

		ctx, cancel := withTimeout(context.Background(), app.timeout)
		st, err := app.client.ScanStatus(ctx)
		cancel()
		if err != nil {
			if spinner != nil {
				spinner.Fail(err.Error())
			}
			return err
		}
		if st.Scanning {
			if spinner != nil {
				spinner.UpdateText(fmt.Sprintf("scanning, %d songs", st.Count))
			}
			continue
		}
		if spinner != nil {
			spinner.Success(fmt.Sprintf("scan finished, %d songs indexed", st.Count))
			return nil
		}
		return app.printer.Print(st)
	}
}
