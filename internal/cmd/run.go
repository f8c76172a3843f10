package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"github.com/harrison/outlog/internal/config"
	"github.com/harrison/outlog/internal/logger"
)

// NewRunCommand creates the run command
func NewRunCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run -- <command> [args...]",
		Short: "Run a command and relay its output",
		Long: `Run a command and relay its output line by line while an animated
status row keeps ticking below it.

The command runs with OUTLOG_CHILD=1, so an outlog-aware program leaves
cursor setup to this process. Such programs mirror their own lines into
the shared output file; pass --mirror-output=false to avoid copying them
twice.

Examples:
  outlog run -- make test
  outlog run --status "building" --animation bounce -- go build ./...`,
		Args: cobra.MinimumNArgs(1),
		RunE: runRun,
	}

	cmd.Flags().String("status", "", "Status shown while the command runs (default: the command line)")
	cmd.Flags().String("animation", "loading", "Status animation ("+strings.Join(logger.AnimationNames(), ", ")+")")
	cmd.Flags().Bool("mirror-output", true, "Copy relayed lines to the output file")

	return cmd
}

// runRun implements the run command logic
func runRun(cmd *cobra.Command, args []string) error {
	animationName, _ := cmd.Flags().GetString("animation")
	frames := logger.Animation(animationName)
	if frames == nil {
		return fmt.Errorf("unknown animation %q (available: %s)", animationName, strings.Join(logger.AnimationNames(), ", "))
	}

	opts, err := loadOptions(cmd)
	if err != nil {
		return err
	}

	s, err := openSession(cmd, cmd.OutOrStdout(), opts)
	if err != nil {
		return err
	}
	defer s.Close()

	status, _ := cmd.Flags().GetString("status")
	if status == "" {
		status = strings.Join(args, " ")
	}
	mirrored, _ := cmd.Flags().GetBool("mirror-output")

	child := exec.CommandContext(cmd.Context(), args[0], args[1:]...)
	child.Env = append(os.Environ(), config.ChildEnv+"=1")
	child.Stdin = cmd.InOrStdin()

	stdout, err := child.StdoutPipe()
	if err != nil {
		return fmt.Errorf("create stdout pipe: %w", err)
	}
	stderr, err := child.StderrPipe()
	if err != nil {
		return fmt.Errorf("create stderr pipe: %w", err)
	}

	if err := child.Start(); err != nil {
		s.log.Error("run", fmt.Sprintf("failed to start %s: %v", args[0], err))
		return &ExitError{Code: 127}
	}

	r := &relay{
		log:      s.log,
		mirrored: mirrored,
		redraw:   s.interactive,
		status: logger.Entry{
			Type:      logger.TypeInfo,
			Origin:    "run",
			Message:   status,
			Remove:    true,
			Animation: frames,
		},
	}
	r.showStatus(false)

	var wg sync.WaitGroup
	wg.Add(2)
	go r.pump(stdout, &wg)
	go r.pump(stderr, &wg)
	// Pipes must be drained before Wait closes them.
	wg.Wait()

	waitErr := child.Wait()
	s.log.StopAnimation()

	if waitErr != nil {
		var exitErr *exec.ExitError
		if !errors.As(waitErr, &exitErr) {
			return fmt.Errorf("wait for %s: %w", args[0], waitErr)
		}
		code := exitErr.ExitCode()
		if code < 0 {
			code = 1
		}
		s.log.Error("run", fmt.Sprintf("%s failed: %v", args[0], exitErr))
		return &ExitError{Code: code}
	}

	s.log.Info("run", fmt.Sprintf("%s finished", args[0]))
	return nil
}

// relay copies child output lines onto the screen and redraws the status
// row underneath after each one.
type relay struct {
	mu       sync.Mutex
	log      *logger.Logger
	status   logger.Entry
	mirrored bool
	redraw   bool
}

func (r *relay) pump(rd io.Reader, wg *sync.WaitGroup) {
	defer wg.Done()

	scanner := bufio.NewScanner(rd)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		r.line(scanner.Text())
	}
	// Keep draining so the child never blocks on a full pipe.
	if scanner.Err() != nil {
		_, _ = io.Copy(io.Discard, rd)
	}
}

func (r *relay) line(text string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.log.Relay(text, r.mirrored)
	if r.redraw {
		r.showStatus(true)
	}
}

// showStatus draws the status row. Only the first draw is mirrored.
func (r *relay) showStatus(redraw bool) {
	e := r.status
	e.SkipMirror = redraw
	r.log.Log(e)
}
