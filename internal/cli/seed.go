package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	sqliteRepo "github.com/sakif/refactorium/internal/repository/sqlite"
	"github.com/sakif/refactorium/internal/service"
)

// SeedOptions holds flags for the seed command.
type SeedOptions struct {
	*RootOptions
	File string
}

// NewSeedCommand creates the seed command.
func NewSeedCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SeedOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load the smell catalog from a YAML file",
		Long: `Load the smell catalog from a YAML file. Smells are upserted by id,
so running the command again with an edited file updates them in place.

Example:
  refactorium seed --file catalog.yaml
  DB_PATH=/var/lib/refactorium/app.db refactorium seed -f catalog.yaml`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeed(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.File, "file", "f", "", "path to the catalog YAML file (required)")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

func runSeed(cmd *cobra.Command, opts *SeedOptions) error {
	cfg, logger, err := opts.load()
	if err != nil {
		return err
	}

	f, err := os.Open(opts.File)
	if err != nil {
		return wrapExit(ExitCommandError, "opening catalog file", err)
	}
	defer f.Close()

	if err := ensureDir(cfg.DBPath); err != nil {
		return wrapExit(ExitFailure, "preparing database directory", err)
	}

	ctx := cmd.Context()
	db, err := sqliteRepo.New(ctx, sqliteRepo.Config{
		Path:           cfg.DBPath,
		ConnectTimeout: cfg.DBConnectTimeout,
	}, logger)
	if err != nil {
		return wrapExit(ExitFailure, "opening database", err)
	}
	defer db.Close()

	n, err := service.NewCatalogService(db, logger).ImportYAML(ctx, f)
	if err != nil {
		return wrapExit(ExitCommandError, "importing catalog", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "imported %d smells into %s\n", n, cfg.DBPath)
	return nil
}
