package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/harrison/outlog/internal/config"
	"github.com/harrison/outlog/internal/history"
	"github.com/harrison/outlog/internal/logger"
	"github.com/harrison/outlog/internal/mirror"
	"github.com/harrison/outlog/internal/screen"
	"github.com/harrison/outlog/internal/shutdown"
	"github.com/harrison/outlog/internal/terminal"
)

// loadOptions resolves the configuration for cmd: the config file first,
// then any flag the user set explicitly.
func loadOptions(cmd *cobra.Command) (*config.Options, error) {
	flags := cmd.Flags()

	configPath, _ := flags.GetString("config")
	var opts *config.Options
	var err error

	if configPath != "" {
		opts, err = config.Load(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config from %s: %w", configPath, err)
		}
	} else {
		opts, err = config.LoadFromDir(".")
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
	}

	// Build flag pointers for merge (only values the user set)
	var outputFilePtr *string
	if flags.Changed("output-file") {
		v, _ := flags.GetString("output-file")
		outputFilePtr = &v
	}

	var exitMessagePtr *string
	if flags.Changed("exit-message") {
		v, _ := flags.GetString("exit-message")
		exitMessagePtr = &v
	}

	var debugPtr *bool
	if flags.Changed("debug") {
		v, _ := flags.GetBool("debug")
		debugPtr = &v
	}

	var intervalPtr *time.Duration
	if flags.Changed("interval") {
		v, _ := flags.GetDuration("interval")
		intervalPtr = &v
	}

	opts.MergeWithFlags(outputFilePtr, exitMessagePtr, debugPtr, intervalPtr)

	if enabled, _ := flags.GetBool("history"); enabled && opts.HistoryDB == "" {
		path, err := config.DefaultHistoryPath()
		if err != nil {
			return nil, fmt.Errorf("failed to get history database path: %w", err)
		}
		opts.HistoryDB = path
	}

	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return opts, nil
}

// session is one logger drawing on a command's output stream, plus the
// cleanup that must run however the command ends.
type session struct {
	opts        *config.Options
	interactive bool
	log         *logger.Logger
	history     *history.Store
	shutdown    *shutdown.Coordinator
}

// openSession builds the output stack for out: file mirror, optional
// history sink, screen coordinator and logger. Prompts read from the
// command's input. A termination signal closes the session and exits.
func openSession(cmd *cobra.Command, out io.Writer, opts *config.Options) (*session, error) {
	tmpl, err := opts.Template()
	if err != nil {
		return nil, fmt.Errorf("invalid message_structure: %w", err)
	}

	m := mirror.New()
	if opts.OutputFile != "" {
		if err := mirror.EnsureDir(opts.OutputFile); err != nil {
			return nil, err
		}
		m.AddSink(mirror.NewFileSink(opts.OutputFile, opts.LockOutputFile))
	}

	var store *history.Store
	if opts.HistoryDB != "" {
		store, err = history.NewStore(opts.HistoryDB)
		if err != nil {
			return nil, fmt.Errorf("open history store: %w", err)
		}
		m.AddSink(store)
	}

	term := terminal.New(out)
	colored := term.Interactive() && !color.NoColor

	c := screen.New(term, m, screen.Options{
		AnimationInterval: opts.AnimationInterval,
		AlwaysCut:         opts.AlwaysCutToWidth,
		ChildProcess:      opts.ChildProcess,
		MirrorProgress:    opts.PrintProgress,
		ExitMessage:       opts.ExitMessage,
		Color:             colored,
	})
	c.Prompt().SetInput(cmd.InOrStdin())

	log := logger.New(c, logger.Options{
		Template:     tmpl,
		PrintDebug:   opts.PrintDebug,
		MirrorFrames: opts.AnimationInOutputFile,
		Color:        colored,
	})

	sd := shutdown.NewCoordinator()
	sd.Register("logger", func(context.Context) error {
		return log.Close()
	})
	sd.OnSignal(reportInterrupt(cmd.ErrOrStderr()))
	sd.Listen()

	return &session{
		opts:        opts,
		interactive: term.Interactive(),
		log:         log,
		history:     store,
		shutdown:    sd,
	}, nil
}

// Close restores the terminal and closes every sink. Safe to call twice.
func (s *session) Close() error {
	s.shutdown.Detach()
	return s.shutdown.Run(context.Background())
}

// reportInterrupt writes the cleanup failures of a signal-triggered exit to w.
func reportInterrupt(w io.Writer) func(os.Signal, error) {
	return func(sig os.Signal, err error) {
		if err != nil {
			fmt.Fprintf(w, "Error: cleanup after %v failed: %v\n", sig, err)
		}
	}
}
