package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

// Version is injected at build time via -ldflags
var Version = "dev"

// ExitError carries a process exit status out of a command. A nil Err
// means the command already reported the failure.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("exit status %d", e.Code)
	}
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error { return e.Err }

// ExitCode returns the status main should exit with for err.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return 1
}

// Silent reports whether err was already shown to the user.
func Silent(err error) bool {
	var exitErr *ExitError
	return errors.As(err, &exitErr) && exitErr.Err == nil
}

// NewRootCommand creates and returns the root cobra command for outlog
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "outlog",
		Short: "Terminal output coordinator",
		Long: `outlog prints log lines, animated status rows, a progress bar and
input prompts on one terminal without them corrupting each other.

Every line is also mirrored, without escape sequences, to an output file
and optionally to a SQLite history database.

Configuration is loaded from .outlog/config.yaml if present.
CLI flags override configuration file settings.`,
		Version: Version,
		// Silence usage on errors to avoid duplicate help text
		SilenceUsage: true,
		// main reports errors so an ExitError can stay quiet
		SilenceErrors: true,
	}

	cmd.PersistentFlags().String("config", "", "Path to config file (default: .outlog/config.yaml)")
	cmd.PersistentFlags().String("output-file", "", "File receiving a plain copy of every line (empty disables it)")
	cmd.PersistentFlags().String("exit-message", "", "Message printed when the command ends")
	cmd.PersistentFlags().Bool("debug", false, "Show debug entries")
	cmd.PersistentFlags().Duration("interval", 0, "Animation frame interval (e.g. 250ms)")
	cmd.PersistentFlags().Bool("history", false, "Also record lines in the history database")

	// Add subcommands
	cmd.AddCommand(NewDemoCommand())
	cmd.AddCommand(NewAskCommand())
	cmd.AddCommand(NewRunCommand())
	cmd.AddCommand(NewHistoryCommand())
	cmd.AddCommand(NewInitCommand())

	return cmd
}
