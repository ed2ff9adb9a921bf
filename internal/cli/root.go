// Package cli is the command-line surface of the refactorium binary.
package cli

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/sakif/refactorium/internal/config"
)

// Exit codes.
const (
	ExitSuccess      = 0
	ExitFailure      = 1 // runtime failure (server error, database error)
	ExitCommandError = 2 // bad configuration or arguments
)

// ExitError carries the process exit code for a failed command.
type ExitError struct {
	Code    int
	Message string
	Err     error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error { return e.Err }

func wrapExit(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// ExitCode extracts the exit code from an error returned by Execute.
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// RootOptions holds the flags shared by every command.
type RootOptions struct {
	ConfigFile string

	// lookupEnv is os.LookupEnv outside tests.
	lookupEnv func(string) (string, bool)
}

// load reads the configuration and builds the process logger from it.
func (o *RootOptions) load() (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(o.ConfigFile, o.lookupEnv)
	if err != nil {
		return nil, nil, wrapExit(ExitCommandError, "loading configuration", err)
	}

	level, err := cfg.SlogLevel()
	if err != nil {
		return nil, nil, wrapExit(ExitCommandError, "loading configuration", err)
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	return cfg, logger, nil
}

// NewRootCommand creates the root command. Running it without a subcommand
// starts the server.
func NewRootCommand() *cobra.Command {
	return newRootCommand(os.LookupEnv)
}

func newRootCommand(lookupEnv func(string) (string, bool)) *cobra.Command {
	opts := &RootOptions{lookupEnv: lookupEnv}

	serve := NewServeCommand(opts)

	cmd := &cobra.Command{
		Use:   "refactorium",
		Short: "Refactorium profile and favorites backend",
		Long: `Refactorium serves user profiles synced from GitHub and a per-user
list of favorite code smells.

Settings come from defaults, an optional YAML file (--config) and
environment variables named after the YAML keys (db_path -> DB_PATH).`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          serve.RunE,
	}

	cmd.PersistentFlags().StringVarP(&opts.ConfigFile, "config", "c", "", "path to a YAML config file")

	cmd.AddCommand(serve)
	cmd.AddCommand(NewMigrateCommand(opts))
	cmd.AddCommand(NewSeedCommand(opts))

	return cmd
}
