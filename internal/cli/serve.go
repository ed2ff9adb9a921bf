package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/sakif/refactorium/internal/server"
)

// NewServeCommand creates the serve command.
func NewServeCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: `Run the HTTP API until SIGINT or SIGTERM.

JWT_SECRET is required. GitHub login routes are only mounted when
GITHUB_CLIENT_ID and GITHUB_CLIENT_SECRET are set.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), opts)
		},
	}
}

func runServe(ctx context.Context, opts *RootOptions) error {
	cfg, logger, err := opts.load()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return wrapExit(ExitCommandError, "invalid configuration", err)
	}

	if err := ensureDir(cfg.DBPath); err != nil {
		return wrapExit(ExitFailure, "preparing database directory", err)
	}

	srv, err := server.New(ctx, cfg, logger)
	if err != nil {
		return wrapExit(ExitFailure, "creating server", err)
	}

	logger.Info("configuration loaded",
		slog.String("github_api", cfg.GitHubAPIURL),
		slog.Duration("provider_timeout", cfg.ProviderTimeout),
		slog.Bool("oauth", cfg.OAuthEnabled()),
	)

	if err := srv.Start(); err != nil {
		return wrapExit(ExitFailure, "server stopped", err)
	}
	return nil
}

// ensureDir creates the parent directory of a file-backed database.
func ensureDir(dbPath string) error {
	if dbPath == ":memory:" {
		return nil
	}
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", dir, err)
	}
	return nil
}
