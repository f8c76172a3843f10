package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/harrison/outlog/internal/config"
	"github.com/harrison/outlog/internal/history"
)

// NewHistoryCommand creates the 'outlog history' command
func NewHistoryCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show lines recorded in the history database",
		Long: `Display lines recorded by sessions that ran with history enabled
(--history or history_db in the config file).

By default the most recent session is shown.`,
		Args: cobra.NoArgs,
		RunE: runHistory,
	}

	cmd.Flags().Int("limit", 20, "Maximum number of lines to show (0 = all)")
	cmd.Flags().String("session", "", "Session id to show (default: most recent)")
	cmd.Flags().Bool("all", false, "Show lines from every session")
	cmd.Flags().Bool("sessions", false, "List session ids instead of lines")

	return cmd
}

// runHistory executes the history command
func runHistory(cmd *cobra.Command, args []string) error {
	output := cmd.OutOrStdout()

	opts, err := loadOptions(cmd)
	if err != nil {
		return err
	}

	dbPath := opts.HistoryDB
	if dbPath == "" {
		dbPath, err = config.DefaultHistoryPath()
		if err != nil {
			return fmt.Errorf("failed to get history database path: %w", err)
		}
	}

	// Check if database exists
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		fmt.Fprintf(output, "No history recorded at %s\n", dbPath)
		return nil
	}

	store, err := history.NewStore(dbPath)
	if err != nil {
		return fmt.Errorf("open history store: %w", err)
	}
	defer store.Close()

	ctx := cmd.Context()
	sessions, err := store.Sessions(ctx)
	if err != nil {
		return err
	}
	if len(sessions) == 0 {
		fmt.Fprintf(output, "No history recorded at %s\n", store.Path())
		return nil
	}

	if list, _ := cmd.Flags().GetBool("sessions"); list {
		for _, id := range sessions {
			fmt.Fprintln(output, id)
		}
		return nil
	}

	limit, _ := cmd.Flags().GetInt("limit")
	session, _ := cmd.Flags().GetString("session")
	if all, _ := cmd.Flags().GetBool("all"); !all && session == "" {
		session = sessions[0]
	}

	records, err := store.Recent(ctx, session, limit)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Fprintf(output, "No lines recorded for session %s\n", session)
		return nil
	}

	printRecords(output, records)
	return nil
}

// printRecords prints one record per line, prefixed with its time
func printRecords(w io.Writer, records []history.Record) {
	gray := color.New(color.FgHiBlack)

	for _, r := range records {
		gray.Fprintf(w, "%s ", r.CreatedAt.Local().Format("2006-01-02 15:04:05"))
		fmt.Fprintln(w, r.Line)
	}
}
