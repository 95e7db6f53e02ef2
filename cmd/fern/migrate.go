package main

import (
	"github.com/spf13/cobra"

	"github.com/Ramsey-B/fern/config"
)

func newMigrateCmd(root *rootOptions) *cobra.Command {
	var version uint

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations and exit",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(root.envFiles...)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("version") {
				cfg.DatabaseMigrationVersion = version
			}

			logger, flush, err := newLogger(cfg)
			if err != nil {
				return err
			}
			defer flush()

			a := newApp(cfg, logger, appOptions{migrate: true})
			if err := a.start(cmd.Context()); err != nil {
				return err
			}
			a.stop(cmd.Context())

			logger.Info("Migrations applied")
			return nil
		},
	}
	cmd.Flags().UintVar(&version, "version", 0, "target migration version; 0 applies all")
	return cmd
}
