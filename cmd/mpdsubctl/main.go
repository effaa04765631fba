package main

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/mikey-austin/mpdsub/internal/client"
	"github.com/mikey-austin/mpdsub/internal/output"
	wire "github.com/mikey-austin/mpdsub/pkg/subsonic"
)

type app struct {
	client  *client.Client
	printer output.Printer
	server  string
	json    bool
	timeout time.Duration
}

func main() {
	root := &cobra.Command{
		Use:          "mpdsubctl",
		Short:        "Query an mpdsub bridge from the command line",
		SilenceUsage: true,
	}

	var (
		server   string
		username string
		password string
		timeout  time.Duration
		jsonOut  bool
		noColor  bool
	)

	root.PersistentFlags().StringVarP(&server, "server", "s", "", "bridge URL (default http://127.0.0.1:3000)")
	root.PersistentFlags().StringVarP(&username, "user", "u", "", "account username")
	root.PersistentFlags().StringVarP(&password, "password", "p", "", "account password")
	root.PersistentFlags().DurationVarP(&timeout, "timeout", "t", 10*time.Second, "request timeout")
	root.PersistentFlags().BoolVarP(&jsonOut, "json", "j", false, "output json")
	root.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable color")

	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if noColor || jsonOut {
			pterm.DisableColor()
		}

		// The same .env that feeds the daemon covers the client.
		_ = godotenv.Load()
		fileCfg, err := loadFileConfig()
		if err != nil {
			return err
		}

		// Flags win over the environment, which wins over the file.
		if server == "" {
			server = envOr("MPDSUB_SERVER", fileCfg.Server)
		}
		if server == "" {
			server = "http://127.0.0.1:3000"
		}
		if username == "" {
			username = envOr("MPDSUB_USERNAME", fileCfg.Username)
		}
		if password == "" {
			password = envOr("MPDSUB_PASSWORD", fileCfg.Password)
		}
		if username == "" || password == "" {
			return errors.New("credentials required (use --user/--password, MPDSUB_* env, or mpdsubctl.toml)")
		}

		c, err := client.New(client.Config{
			Server:   server,
			Username: username,
			Password: password,
			Timeout:  timeout,
		})
		if err != nil {
			return err
		}

		var printer output.Printer
		if jsonOut {
			printer = output.JSONPrinter{}
		} else {
			printer = output.HumanPrinter{}
		}

		cmd.SetContext(context.WithValue(cmd.Context(), appKey{}, &app{
			client:  c,
			printer: printer,
			server:  server,
			json:    jsonOut,
			timeout: timeout,
		}))
		return nil
	}

	root.AddCommand(pingCommand())
	root.AddCommand(searchCommand())
	root.AddCommand(artistsCommand())
	root.AddCommand(playlistsCommand())
	root.AddCommand(randomCommand())
	root.AddCommand(scanCommand())
	root.AddCommand(urlCommand())

	if err := root.Execute(); err != nil {
		os.Exit(exitCode(err))
	}
}

// exitCode maps server error codes to script-friendly exit codes.
func exitCode(err error) int {
	var apiErr *client.Error
	if !errors.As(err, &apiErr) {
		return 1
	}
	switch apiErr.Code {
	case wire.CodeMissingParameter:
		return 2
	case wire.CodeWrongCredentials, wire.CodeNotAuthorized:
		return 3
	case wire.CodeNotFound:
		return 4
	default:
		return 1
	}
}

type appKey struct{}

func fromContext(cmd *cobra.Command) *app {
	val := cmd.Context().Value(appKey{})
	if val == nil {
		return nil
	}
	return val.(*app)
}

func withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, timeout)
}

func envOr(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}
