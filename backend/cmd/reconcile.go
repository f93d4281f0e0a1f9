package cmd

import (
	"fmt"

	"skillsync/backend/notify"
	"skillsync/backend/services"

	"github.com/spf13/cobra"
)

func NewReconcileCommand(rootOpts *RootOptions) *cobra.Command {
	var userID string

	cmd := &cobra.Command{
		Use:          "reconcile",
		Short:        "Recount enrollment counters from lesson progress",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := openEnvironment(rootOpts)
			if err != nil {
				return err
			}
			defer env.store.Close()

			r := services.NewReconciler(env.store, notify.NewLogNotifier(env.logger), env.logger)
			if userID != "" {
				fixed, err := r.RecountUser(cmd.Context(), userID)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "corrected %d enrollments\n", fixed)
				return nil
			}

			users, fixed, err := r.RecountAll(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "checked %d users, corrected %d enrollments\n", users, fixed)
			return nil
		},
	}

	cmd.Flags().StringVar(&userID, "user", "", "only this user id")
	return cmd
}
