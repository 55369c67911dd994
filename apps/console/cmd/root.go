// Package cmd is the command tree of the maintenance console.
package cmd

import (
	"context"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"

	"github.com/pkg/errors"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/trezcool/maintenance/apps/console/client"
	"github.com/trezcool/maintenance/core"
	"github.com/trezcool/maintenance/core/session"
	logsvc "github.com/trezcool/maintenance/services/logger"
)

type contextKey string

const appKey contextKey = "console-app"

var readPasswordFunc = term.ReadPassword // mockable

// app holds what every command shares for one run.
type app struct {
	conf        *core.Config
	logger      core.Logger
	api         *client.API
	files       *client.FileStore
	verifier    *client.Verifier
	store       *session.Store
	in          io.Reader
	interactive bool
}

func injectApp(ctx context.Context, a *app) context.Context {
	return context.WithValue(ctx, appKey, a)
}

func mustApp(ctx context.Context) *app {
	a, ok := ctx.Value(appKey).(*app)
	if !ok {
		panic("console: app not found in context")
	}
	return a
}

// Execute runs the console with the configuration from the environment.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd(core.NewConfig(), nil).ExecuteContext(ctx); err != nil {
		pterm.Error.Println(err)
		stop()
		os.Exit(1)
	}
}

// newRootCmd builds the command tree. httpClient may be nil.
func newRootCmd(conf *core.Config, httpClient *http.Client) *cobra.Command {
	var (
		serverURL      string
		credentialsDir string
		verbose        bool
	)

	rootCmd := &cobra.Command{
		Use:           "maintenance",
		Short:         "Maintenance console",
		Long:          `maintenance is the terminal client of the maintenance management API. Log in, then open the section of your role.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			pterm.SetDefaultOutput(cmd.OutOrStdout())

			std := log.New(io.Discard, "", 0)
			if verbose {
				std = log.New(cmd.ErrOrStderr(), "CONSOLE : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
			}
			logger := logsvc.NewRollbarLogger(std, conf)

			files, err := client.NewFileStore(credentialsDir)
			if err != nil {
				return errors.Wrap(err, "creating credential store")
			}
			api := client.NewAPI(serverURL, httpClient)
			verifier := client.NewVerifier(api, files, logger)
			store := session.NewStore(verifier, client.NewDirectory(api, files), logger)
			if err = store.Initialize(cmd.Context()); err != nil {
				return err
			}

			cmd.SetContext(injectApp(cmd.Context(), &app{
				conf:        conf,
				logger:      logger,
				api:         api,
				files:       files,
				verifier:    verifier,
				store:       store,
				in:          cmd.InOrStdin(),
				interactive: cmd.OutOrStdout() == os.Stdout && term.IsTerminal(int(os.Stdout.Fd())),
			}))
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&serverURL, "server", conf.Client.ServerURL, "Maintenance API server URL")
	rootCmd.PersistentFlags().StringVar(&credentialsDir, "credentials-dir", conf.Client.CredentialsDir, "Where to keep the sign-in token (default: user config dir)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log to stderr")

	rootCmd.AddCommand(
		newLoginCmd(),
		newLogoutCmd(),
		newStatusCmd(),
		newOpenCmd(),
		newSectionsCmd(),
		newShellCmd(),
	)
	for _, c := range rootCmd.Commands() {
		c.RunE = closingStore(c.RunE)
	}
	return rootCmd
}

// closingStore closes the session store once run returns, whether it failed or not.
func closingStore(run func(*cobra.Command, []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		defer func() {
			if a, ok := cmd.Context().Value(appKey).(*app); ok {
				a.store.Close()
			}
		}()
		return run(cmd, args)
	}
}
