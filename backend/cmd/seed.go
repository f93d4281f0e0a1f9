package cmd

import (
	"fmt"

	"skillsync/backend/seed"
	"skillsync/backend/services"

	"github.com/spf13/cobra"
)

type SeedOptions struct {
	*RootOptions
	File    string
	Replace bool
}

func NewSeedCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SeedOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load the course catalog",
		Long: `Load a YAML course catalog into the store. Without --file the built in
catalog is used. Courses whose title already exists are skipped unless
--replace is given, which deletes the current catalog first.`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := openEnvironment(opts.RootOptions)
			if err != nil {
				return err
			}
			defer env.store.Close()

			catalog, err := seed.Default()
			if opts.File != "" {
				catalog, err = seed.LoadFile(opts.File)
			}
			if err != nil {
				return err
			}

			res, err := seed.Apply(cmd.Context(), services.NewCatalog(env.store, env.logger), catalog, opts.Replace, env.logger)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed %d, created %d, skipped %d courses; %d lessons\n",
				res.Removed, res.Created, res.Skipped, res.Lessons)
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.File, "file", "", "catalog YAML file")
	cmd.Flags().BoolVar(&opts.Replace, "replace", false, "delete existing courses first")

	return cmd
}
