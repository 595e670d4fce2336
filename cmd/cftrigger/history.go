package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"cftrigger/internal/storage"
)

func newHistoryCmd() *cobra.Command {
	var limit, offset int
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recorded build invocations, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if limit <= 0 {
				return &exitError{code: exitConfig, err: fmt.Errorf("--limit must be positive")}
			}
			if offset < 0 {
				return &exitError{code: exitConfig, err: fmt.Errorf("--offset must not be negative")}
			}

			store, err := storage.Open(appConfig.Database)
			if errors.Is(err, storage.ErrDisabled) {
				return &exitError{code: exitConfig, err: fmt.Errorf("invocation history is disabled (database.driver is none)")}
			}
			if err != nil {
				return err
			}
			defer store.Close()

			invocations, err := store.GetInvocations(cmd.Context(), limit, offset)
			if err != nil {
				return err
			}

			if jsonOut {
				return writeJSON(cmd.OutOrStdout(), invocations)
			}
			renderHistory(cmd.OutOrStdout(), invocations)
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of invocations to show")
	cmd.Flags().IntVar(&offset, "offset", 0, "Number of invocations to skip")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print the invocations as JSON")
	return cmd
}
