// Package main is the entry point for the refactorium server.
//
// main stays minimal: all commands live in internal/cli, and the process
// exit code comes from the error they return.
package main

import (
	"fmt"
	"os"

	"github.com/sakif/refactorium/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(cli.ExitCode(err))
	}
}
