package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/harrison/outlog/internal/logger"
)

// NewDemoCommand creates the 'outlog demo' command
func NewDemoCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Show every kind of output outlog can draw",
		Long: `Walk through entry types, animations, overwritable lines, the
progress bar and (with --ask) an input prompt.`,
		Args: cobra.NoArgs,
		RunE: runDemo,
	}

	cmd.Flags().Duration("step", 600*time.Millisecond, "Pause between demo steps")
	cmd.Flags().Bool("ask", false, "Include an input prompt")

	return cmd
}

// runDemo executes the demo command
func runDemo(cmd *cobra.Command, args []string) error {
	opts, err := loadOptions(cmd)
	if err != nil {
		return err
	}

	s, err := openSession(cmd, cmd.OutOrStdout(), opts)
	if err != nil {
		return err
	}
	defer s.Close()

	step, _ := cmd.Flags().GetDuration("step")
	ask, _ := cmd.Flags().GetBool("ask")

	d := &demo{log: s.log, ctx: cmd.Context(), step: step}
	if s.history != nil {
		d.session = s.history.Session()
	}
	return d.run(ask)
}

type demo struct {
	log     *logger.Logger
	ctx     context.Context
	step    time.Duration
	session string
}

// pause waits n steps. It returns false once the context is done.
func (d *demo) pause(n int) bool {
	if d.step <= 0 {
		return d.ctx.Err() == nil
	}
	t := time.NewTimer(time.Duration(n) * d.step)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-d.ctx.Done():
		return false
	}
}

func (d *demo) run(ask bool) error {
	log := d.log

	log.Info("demo", "outlog demo")
	if d.session != "" {
		log.Debug("demo", "history session "+d.session)
	}
	if !d.pause(1) {
		return d.ctx.Err()
	}

	// Entry types
	log.Warn("demo", "this is a warning")
	log.Error("demo", "this is an error")
	log.Debug("demo", "debug entries need --debug")
	log.Log(logger.Entry{Type: "notice", Origin: "demo", Message: "unknown types are printed as given"})
	log.Log(logger.Entry{Type: logger.TypeInfo, Message: "no origin and no date", NoDate: true})
	if !d.pause(1) {
		return d.ctx.Err()
	}

	// Animations
	for _, name := range logger.AnimationNames() {
		log.Log(logger.Entry{
			Type:      logger.TypeInfo,
			Origin:    "demo",
			Message:   "animation " + name,
			Animation: logger.Animation(name),
		})
		if !d.pause(4) {
			return d.ctx.Err()
		}
	}
	log.StopAnimation()

	log.Log(logger.Entry{
		Type:      logger.TypeInfo,
		Origin:    "demo",
		Message:   "a removable animation vanishes when it stops",
		Remove:    true,
		Animation: logger.Animation("waiting"),
	})
	if !d.pause(4) {
		return d.ctx.Err()
	}
	log.StopAnimation()

	// Overwritable lines
	for i := 3; i > 0; i-- {
		log.Log(logger.Entry{Type: logger.TypeInfo, Origin: "demo", Message: fmt.Sprintf("this line is replaced in %d", i), Remove: true})
		if !d.pause(1) {
			return d.ctx.Err()
		}
	}
	log.Info("demo", "replaced")

	// Progress bar
	log.CreateProgressBar(false)
	for i := 1; i <= 10; i++ {
		if err := log.IncreaseProgressBar(10); err != nil {
			return err
		}
		if i%3 == 0 {
			log.Info("demo", fmt.Sprintf("messages print above the bar (%d0%%)", i))
		}
		if !d.pause(1) {
			return d.ctx.Err()
		}
	}
	log.RemoveProgressBar()

	// Width handling and multi-row messages
	log.Log(logger.Entry{
		Type:       logger.TypeInfo,
		Origin:     "demo",
		Message:    "this line is cut at the terminal edge " + strings.Repeat("=", 200),
		CutToWidth: true,
	})
	log.Info("demo", "messages may span\nseveral rows")

	if ask {
		answer, ok, err := log.Ask(d.ctx, "What's your name? ", 30*time.Second)
		if err != nil {
			return err
		}
		if ok && answer != "" {
			log.Info("demo", "hello, "+answer)
		} else {
			log.Warn("demo", "no answer")
		}
	}

	log.Info("demo", "done")
	return nil
}
