package cmd

import (
	"fmt"

	"skillsync/backend/models"
	"skillsync/backend/services"

	"github.com/spf13/cobra"
)

func NewPromoteCommand(rootOpts *RootOptions) *cobra.Command {
	var role string

	cmd := &cobra.Command{
		Use:          "promote <user-id>",
		Short:        "Set the role of a user",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := openEnvironment(rootOpts)
			if err != nil {
				return err
			}
			defer env.store.Close()

			accounts := services.NewAccounts(env.store, nil, "", env.logger)
			user, err := accounts.Promote(cmd.Context(), args[0], role)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s (%s) is now %s\n", user.ID, user.Email, user.Role)
			return nil
		},
	}

	cmd.Flags().StringVar(&role, "role", models.RoleAdmin, "learner or admin")
	return cmd
}
