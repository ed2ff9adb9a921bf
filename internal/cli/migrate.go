package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	sqliteRepo "github.com/sakif/refactorium/internal/repository/sqlite"
)

// NewMigrateCommand creates the migrate command. Opening the database
// applies pending migrations, so the command opens it and closes it again.
func NewMigrateCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "migrate",
		Short:         "Apply pending database migrations",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := opts.load()
			if err != nil {
				return err
			}
			if err := ensureDir(cfg.DBPath); err != nil {
				return wrapExit(ExitFailure, "preparing database directory", err)
			}

			ctx := cmd.Context()
			db, err := sqliteRepo.New(ctx, sqliteRepo.Config{
				Path:           cfg.DBPath,
				ConnectTimeout: cfg.DBConnectTimeout,
			}, logger)
			if err != nil {
				return wrapExit(ExitFailure, "migrating database", err)
			}
			defer db.Close()

			fmt.Fprintf(cmd.OutOrStdout(), "database %s is up to date\n", cfg.DBPath)
			return nil
		},
	}
}
