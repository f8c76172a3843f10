// Package screen owns everything outlog draws on the terminal.
//
// The Coordinator is the only writer to the output stream. It tracks where
// the cursor is, whether the current row may be overwritten, whether a
// progress bar occupies the rows below it and whether an input prompt has
// the terminal. The Animator, ProgressBar and Gate hold their own state but
// draw exclusively through the Coordinator and under its lock, so a timer
// tick can never land between two halves of a log call.
//
// Row layout while a progress bar is shown:
//
//	message row   <- last log line (overwritable or committed)
//	gap row       <- kept blank so overwrites never collide with the bar
//	bar row       <- cursor rests here, column 0
//
// Without a bar the cursor rests at column 0 of the message row.
package screen

import (
	"strings"
	"sync"
	"time"

	"github.com/harrison/outlog/internal/mirror"
	"github.com/harrison/outlog/internal/palette"
	"github.com/harrison/outlog/internal/terminal"
)

// DefaultAnimationInterval is the tick interval used when Options leaves it unset.
const DefaultAnimationInterval = 750 * time.Millisecond

// barOffset is the distance from the message row to the bar row.
const barOffset = 2

// Options configures a Coordinator. The coordinator only reads them.
type Options struct {
	// AnimationInterval is the time between animation frames.
	AnimationInterval time.Duration

	// AlwaysCut truncates every row to the terminal width.
	AlwaysCut bool

	// ChildProcess suppresses the one-time cursor setup and the final
	// cursor restore; the parent process owns those.
	ChildProcess bool

	// MirrorProgress appends a line to the mirror on every progress change.
	MirrorProgress bool

	// ExitMessage is printed and mirrored by Shutdown when non-empty.
	ExitMessage string

	// Color enables the styled progress bar label.
	Color bool
}

// Message is one rendered log line handed to the coordinator.
type Message struct {
	// Line is the terminal form, escape sequences allowed.
	Line string

	// FileLine is mirrored instead of Line when non-empty.
	FileLine string

	// Overwrite leaves the row open so the next message replaces it.
	Overwrite bool

	// CutToWidth truncates every row to the terminal width.
	CutToWidth bool

	// Animation, when set, turns the message into an animated row.
	Animation *Animation

	// SkipMirror keeps the message out of the mirror, for output another
	// process has already written there or a status row being redrawn.
	SkipMirror bool
}

func (m Message) fileLine() string {
	if m.FileLine != "" {
		return m.FileLine
	}
	return m.Line
}

// Coordinator serializes all terminal output.
type Coordinator struct {
	mu     sync.Mutex
	term   *terminal.Terminal
	mirror *mirror.Mirror
	opts   Options
	plain  bool

	started       bool
	current       string // RenderLine
	overwriteNext bool
	barShown      bool
	bar           string
	animShown     bool
	reprint       string // PendingReprintLine
	gated         bool
	closed        bool

	anim     *Animator
	progress *ProgressBar
	prompt   *Gate
}

// New creates a Coordinator drawing on term and mirroring into m (which
// may be nil). A non-interactive terminal switches to plain mode: rows are
// committed with a newline, no cursor control is emitted and animations
// render a single frame.
func New(term *terminal.Terminal, m *mirror.Mirror, opts Options) *Coordinator {
	if opts.AnimationInterval <= 0 {
		opts.AnimationInterval = DefaultAnimationInterval
	}

	c := &Coordinator{
		term:   term,
		mirror: m,
		opts:   opts,
		plain:  !term.Interactive(),
	}
	c.anim = newAnimator(c, opts.AnimationInterval)
	c.progress = newProgressBar(c)
	c.prompt = newGate(c)
	return c
}

// Animation returns the coordinator's animation ticker.
func (c *Coordinator) Animation() *Animator { return c.anim }

// Progress returns the coordinator's progress bar controller.
func (c *Coordinator) Progress() *ProgressBar { return c.progress }

// Prompt returns the coordinator's input prompt gate.
func (c *Coordinator) Prompt() *Gate { return c.prompt }

// Mirror returns the file mirror, possibly nil.
func (c *Coordinator) Mirror() *mirror.Mirror { return c.mirror }

// Dispatch renders and prints a message unless a prompt holds the
// terminal, in which case build is queued and replayed, in arrival order,
// once the prompt resolves. build runs under the coordinator lock and must
// not call back into the coordinator. Dispatch reports whether the message
// was printed immediately.
func (c *Coordinator) Dispatch(build func() Message) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.prompt.enqueueLocked(build) {
		return false
	}
	c.printLocked(build())
	return true
}

// Print writes a prebuilt message. It is refused while a prompt is active.
func (c *Coordinator) Print(msg Message) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.gated {
		return false
	}
	c.printLocked(msg)
	return true
}

// WriteMessage writes line as a normal message row. Refused while a prompt
// is active.
func (c *Coordinator) WriteMessage(line string, overwrite, cutToWidth bool) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.gated {
		return false
	}
	c.writeMessageLocked(line, overwrite, cutToWidth)
	return true
}

// WriteAnimationFrame redraws the overwritable message row in place with
// the cursor hidden. Refused while a prompt is active.
func (c *Coordinator) WriteAnimationFrame(line string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.gated {
		return false
	}
	c.writeAnimationFrameLocked(line)
	return true
}

// StopAnimationDisplay commits the pending reprint line, or clears the
// animated row when there is none. Allowed while a prompt is active.
func (c *Coordinator) StopAnimationDisplay() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopAnimationDisplayLocked()
}

// CreateProgressLine reserves the gap and bar rows below the message row
// and draws line on the bar row.
func (c *Coordinator) CreateProgressLine(line string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.gated {
		return false
	}
	c.createProgressLineLocked(line)
	return true
}

// UpdateProgressLine redraws only the bar row.
func (c *Coordinator) UpdateProgressLine(line string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.gated || !c.barShown {
		return false
	}
	c.updateProgressLineLocked(line)
	return true
}

// RemoveProgressLine clears the bar row and returns the cursor to the
// message row. Allowed while a prompt is active.
func (c *Coordinator) RemoveProgressLine() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.removeProgressLineLocked()
}

// RenderLine returns the content of the message row.
func (c *Coordinator) RenderLine() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// PendingReprint returns the static line that will replace the running
// animation when it stops.
func (c *Coordinator) PendingReprint() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.reprint
}

// ProgressLineShown reports whether the bar row is currently drawn.
func (c *Coordinator) ProgressLineShown() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.barShown
}

// Shutdown stops the animation, removes the progress bar, releases an
// active prompt (replaying its queue, without calling its callback) and
// prints the exit message. It leaves the cursor visible on a clean row.
// Only the first call has any effect.
func (c *Coordinator) Shutdown() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.closed = true

	c.anim.stopLocked()
	c.progress.removeLocked()
	c.prompt.abortLocked()

	if c.opts.ExitMessage != "" {
		prefix := ""
		if !c.opts.ChildProcess && !c.plain {
			prefix = terminal.ShowCursor
		}
		c.writeMessageLocked(prefix+c.opts.ExitMessage, false, false)
		if !c.plain {
			c.term.Write("\n")
		}
		c.mirror.Append(c.opts.ExitMessage, false)
		return
	}

	if c.opts.ChildProcess || c.plain || !c.started {
		return
	}
	if !c.overwriteNext {
		c.term.Write("\n")
	}
	c.term.ClearLine()
	c.term.Write(terminal.ShowCursor + "\r")
}

// setupLocked performs the one-time cursor placement: the cursor moves up
// onto the row above so the first message's leading newline lands on the
// row the process started on.
func (c *Coordinator) setupLocked() {
	if c.started {
		return
	}
	c.started = true
	if c.plain || c.opts.ChildProcess {
		return
	}
	c.term.Write("\r")
	c.term.MoveUp(1)
}

// printLocked is the single path every log message takes.
func (c *Coordinator) printLocked(msg Message) {
	if msg.Animation == nil || len(msg.Animation.Frames) == 0 {
		// A plain message ends the animation; the next one starts at frame 0.
		c.anim.stopLocked()
		c.writeMessageLocked(msg.Line, msg.Overwrite, msg.CutToWidth)
		if !msg.SkipMirror {
			c.mirror.Append(msg.fileLine(), false)
		}
		return
	}

	c.anim.cancelLocked()
	c.stopAnimationDisplayLocked()

	line := c.anim.beginLocked(msg.Animation)
	if c.plain {
		c.writeMessageLocked(line, false, msg.CutToWidth)
	} else {
		c.writeMessageLocked(terminal.HideCursor+line, true, msg.CutToWidth)
		c.current = line
		c.animShown = true
		if !msg.Overwrite {
			c.reprint = msg.Animation.Reprint
		}
		c.anim.armLocked()
	}

	if msg.SkipMirror {
		return
	}
	fileLine := msg.fileLine()
	if msg.Animation.MirrorFrames {
		fileLine = line
	}
	c.mirror.Append(fileLine, true)
}

// writeMessageLocked draws line on the message row (or the next one).
func (c *Coordinator) writeMessageLocked(line string, overwrite, cutToWidth bool) {
	c.setupLocked()
	c.current = line

	rows := terminal.SplitRows(line)

	if c.plain {
		for _, row := range rows {
			c.term.Write(withReset(row) + "\n")
		}
		return
	}

	if c.barShown {
		c.term.ClearLine()
		c.term.MoveUp(barOffset)
	}

	if !c.overwriteNext {
		c.term.Write("\n")
	}
	c.overwriteNext = overwrite

	columns := c.term.Columns()
	for i, row := range rows {
		if i > 0 {
			c.term.Write("\n")
		}
		c.term.ClearLine()

		last := i == len(rows)-1
		if columns > 0 && (cutToWidth || c.opts.AlwaysCut || (last && overwrite)) {
			row = terminal.Cut(row, columns-1)
		}
		c.term.Write(withReset(row) + "\r")
	}

	if c.barShown {
		c.term.Write("\n")
		c.term.ClearLine()
		c.term.Write("\n")
		c.term.ClearLine()
		c.term.Write(c.bar + "\r")
	}
}

// writeAnimationFrameLocked redraws the last row of the message in place.
func (c *Coordinator) writeAnimationFrameLocked(line string) {
	if c.plain {
		return
	}

	rows := terminal.SplitRows(line)
	row := rows[len(rows)-1]
	if columns := c.term.Columns(); columns > 0 {
		row = terminal.Cut(row, columns-1)
	}

	if c.barShown {
		c.term.MoveUp(barOffset)
	}
	c.term.Write("\r")
	c.term.ClearLine()
	c.term.Write(terminal.HideCursor + withReset(row) + "\r")
	if c.barShown {
		c.term.MoveDown(barOffset)
	}
	c.current = line
}

// stopAnimationDisplayLocked takes the animated row off the screen.
func (c *Coordinator) stopAnimationDisplayLocked() {
	if !c.animShown {
		return
	}
	c.animShown = false
	c.term.Write(terminal.ShowCursor)

	if c.reprint != "" {
		line := c.reprint
		c.reprint = ""
		c.writeMessageLocked(line, false, false)
		return
	}

	if c.barShown {
		c.term.MoveUp(barOffset)
	}
	c.term.Write("\r")
	c.term.ClearLine()
	if c.barShown {
		c.term.MoveDown(barOffset)
	}
	c.current = ""
}

func (c *Coordinator) createProgressLineLocked(line string) {
	if c.plain {
		return
	}
	if c.barShown {
		c.updateProgressLineLocked(line)
		return
	}

	c.setupLocked()
	c.term.Write("\n")
	c.term.ClearLine()
	c.term.Write("\n")
	c.term.ClearLine()
	c.term.Write(line + "\r")
	c.bar = line
	c.barShown = true
}

func (c *Coordinator) updateProgressLineLocked(line string) {
	c.term.Write("\r")
	c.term.ClearLine()
	c.term.Write(line + "\r")
	c.bar = line
}

func (c *Coordinator) removeProgressLineLocked() {
	if !c.barShown {
		return
	}
	c.term.ClearLine()
	c.term.MoveUp(barOffset)
	c.bar = ""
	c.barShown = false
}

// withReset closes any style left open in a styled row.
func withReset(row string) string {
	if strings.Contains(row, "\x1b[") && !strings.HasSuffix(row, palette.Reset) {
		return row + palette.Reset
	}
	return row
}
