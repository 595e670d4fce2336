// Command cftrigger triggers Codefresh builds and waits for their outcome.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"cftrigger/internal/config"
	"cftrigger/internal/engine"
	"cftrigger/internal/logger"
)

// Exit codes
const (
	exitOK          = 0
	exitFailure     = 1
	exitConfig      = 2
	exitInterrupted = 130
)

var (
	configPath string
	appConfig  *config.Config
)

// exitError carries a process exit code through cobra
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

// errBuildFailed reports a terminal build status that is not a pass
var errBuildFailed = errors.New("build did not pass")

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "cftrigger",
		Short: "Trigger Codefresh builds and wait for the outcome",
		Long: `cftrigger starts a build of a Codefresh service, polls it until it
finishes and reports a pass or fail verdict with a link to the build page.

The service is either named explicitly or resolved from the git remote of
the current checkout.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath, cmd.Flags().Changed("config"))
			if err != nil {
				return &exitError{code: exitConfig, err: fmt.Errorf("failed to load configuration: %w", err)}
			}
			appConfig = cfg

			logger.Init(config.GetLogLevel(), config.GetLogFormat())
			return nil
		},
	}

	root.PersistentFlags().StringVarP(&configPath, "config", "c", "config.yaml", "Path to the configuration file")

	root.AddCommand(
		newRunCmd(),
		newServicesCmd(),
		newCheckCmd(),
		newHistoryCmd(),
		newServeCmd(),
	)
	return root
}

// exitCode maps a command error to the process exit code
func exitCode(err error) int {
	var exitErr *exitError
	switch {
	case err == nil:
		return exitOK
	case errors.As(err, &exitErr):
		return exitErr.code
	case errors.Is(err, engine.ErrInterrupted):
		return exitInterrupted
	default:
		return exitFailure
	}
}

func main() {
	err := newRootCmd().Execute()
	if err != nil && !errors.Is(err, errBuildFailed) {
		fmt.Fprintln(os.Stderr, errorStyle.Render("Error: "+err.Error()))
		if hint := engine.Hint(err); hint != "" {
			fmt.Fprintln(os.Stderr, hintStyle.Render(hint))
		}
	}
	os.Exit(exitCode(err))
}
