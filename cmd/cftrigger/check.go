package main

import (
	"errors"

	"github.com/spf13/cobra"

	"cftrigger/internal/codefresh"
	"cftrigger/internal/engine"
)

func newCheckCmd() *cobra.Command {
	var user string

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Test the Codefresh credential",
		Long: `Authenticates against the Codefresh API with the configured token.
When a username is given (or codefresh.username is set) it must match
the owner of the token.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if user == "" {
				user = appConfig.Codefresh.Username
			}

			client := codefresh.NewClient(appConfig.Codefresh)
			diag := engine.TestConnection(cmd.Context(), client, user)
			renderDiagnostic(cmd.OutOrStdout(), diag)

			if !diag.OK {
				return &exitError{code: exitFailure, err: errors.New(firstLine(diag.Message))}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&user, "user", "", "Expected Codefresh username")
	return cmd
}
