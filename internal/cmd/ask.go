package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// NewAskCommand creates the 'outlog ask' command
func NewAskCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Ask a question and print the answer",
		Long: `Ask a question on the terminal and print the answer to stdout.

The prompt is drawn on stderr so the answer can be captured:

  name=$(outlog ask "Your name?")

Exits with status 2 when no answer arrives before --timeout or the
input ends.`,
		Args: cobra.ExactArgs(1),
		RunE: runAsk,
	}

	cmd.Flags().Duration("timeout", 0, "Give up after this long (0 waits forever)")

	return cmd
}

// runAsk executes the ask command
func runAsk(cmd *cobra.Command, args []string) error {
	opts, err := loadOptions(cmd)
	if err != nil {
		return err
	}

	s, err := openSession(cmd, cmd.ErrOrStderr(), opts)
	if err != nil {
		return err
	}
	defer s.Close()

	timeout, _ := cmd.Flags().GetDuration("timeout")
	question := args[0]
	if !strings.HasSuffix(question, " ") {
		question += " "
	}

	answer, ok, err := s.log.Ask(cmd.Context(), question, timeout)
	if err != nil {
		return fmt.Errorf("ask: %w", err)
	}
	if !ok {
		s.log.Warn("ask", "no answer received")
		return &ExitError{Code: 2}
	}

	fmt.Fprintln(cmd.OutOrStdout(), answer)
	return nil
}
