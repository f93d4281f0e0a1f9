// Package cmd is the skillsync command line.
package cmd

import (
	"fmt"
	"log"

	"skillsync/backend/config"
	"skillsync/backend/docstore"
	"skillsync/backend/utils"

	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	// SQLitePath switches the store to a SQLite file, overriding DB_DRIVER.
	SQLitePath string
}

func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "skillsync",
		Short: "SkillSync learning progress backend",
		Long:  "Course catalog, enrollment and lesson progress tracking over a document store.",
	}

	cmd.PersistentFlags().StringVar(&opts.SQLitePath, "sqlite", "", "use a SQLite database at this path")

	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewSeedCommand(opts))
	cmd.AddCommand(NewReconcileCommand(opts))
	cmd.AddCommand(NewPromoteCommand(opts))

	return cmd
}

// environment is what every subcommand needs before doing work.
type environment struct {
	cfg    *config.Config
	logger *log.Logger
	store  *docstore.Store
}

func openEnvironment(opts *RootOptions) (*environment, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if opts.SQLitePath != "" {
		cfg.DBDriver = "sqlite"
		cfg.SQLitePath = opts.SQLitePath
	}

	logger := utils.InitLogger(utils.LoggerConfig{Format: cfg.LogFormat, EnableColors: cfg.LogColors})

	db, err := utils.InitDB(cfg)
	if err != nil {
		return nil, err
	}
	store := docstore.New(db)
	if err := store.Migrate(); err != nil {
		store.Close()
		return nil, err
	}
	return &environment{cfg: cfg, logger: logger, store: store}, nil
}
