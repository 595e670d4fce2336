package main

import (
	"github.com/spf13/cobra"

	"cftrigger/internal/codefresh"
	"cftrigger/internal/engine"
)

func newServicesCmd() *cobra.Command {
	var selected string
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "services",
		Short: "List the Codefresh services visible to the token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if selected == "" {
				selected = appConfig.Job.Service
			}

			client := codefresh.NewClient(appConfig.Codefresh)
			options, err := engine.ListServices(cmd.Context(), client, selected)
			if err != nil {
				return err
			}

			if jsonOut {
				return writeJSON(cmd.OutOrStdout(), options)
			}
			renderServices(cmd.OutOrStdout(), options)
			return nil
		},
	}

	cmd.Flags().StringVar(&selected, "selected", "", "Service name to mark as selected (default from job.service)")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print the list as JSON")
	return cmd
}
