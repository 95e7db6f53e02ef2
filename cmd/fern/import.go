package main

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/Ramsey-B/fern/config"
	appctx "github.com/Ramsey-B/fern/pkg/context"
)

func newImportCmd(root *rootOptions) *cobra.Command {
	var (
		dryRun         bool
		skipDuplicates bool
		updateExisting bool
		user           string
	)

	cmd := &cobra.Command{
		Use:   "import FILE",
		Short: "Stage the units in a CSV file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(root.envFiles...)
			if err != nil {
				return err
			}
			logger, flush, err := newLogger(cfg)
			if err != nil {
				return err
			}
			defer flush()

			opts := cfg.ImportDefaults()
			if cmd.Flags().Changed("skip-duplicates") {
				opts.SkipDuplicates = skipDuplicates
			}
			if cmd.Flags().Changed("update-existing") {
				opts.UpdateExisting = updateExisting
			}

			ctx := appctx.SetUserID(cmd.Context(), user)
			a := newApp(cfg, logger, appOptions{inMemory: dryRun, platform: !dryRun})
			if err := a.start(ctx); err != nil {
				return err
			}
			defer a.stop(ctx)

			summary, err := a.importer().ImportFile(ctx, args[0], opts)
			if summary != nil {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				if encErr := enc.Encode(summary); encErr != nil {
					return encErr
				}
			}
			return err
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "parse and report without touching the database")
	cmd.Flags().BoolVar(&skipDuplicates, "skip-duplicates", false, "skip rows whose DBID is already staged")
	cmd.Flags().BoolVar(&updateExisting, "update-existing", false, "overwrite attributes of rows whose DBID is already staged")
	cmd.Flags().StringVar(&user, "user", "cli", "recorded as the creator of the import run")
	return cmd
}
