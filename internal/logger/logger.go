// Package logger is the public front end of outlog.
//
// A Logger turns an Entry (type, origin, message and display flags) into a
// styled line using the configured message template and hands it to the
// screen coordinator, which owns the terminal. Everything the coordinator
// shows is mirrored, without escape sequences, to the output file.
package logger

import (
	"context"
	"fmt"
	"time"

	"github.com/fatih/color"

	"github.com/harrison/outlog/internal/palette"
	"github.com/harrison/outlog/internal/screen"
	"github.com/harrison/outlog/internal/template"
)

// DateLayout formats the {date} field.
const DateLayout = "2006-01-02 15:04:05"

// DefaultStructure is the message template used when none is configured.
const DefaultStructure = "[{animation}] [{type} | {origin}] [{date}] {message}"

// Template field names.
const (
	FieldAnimation = "animation"
	FieldType      = "type"
	FieldOrigin    = "origin"
	FieldDate      = "date"
	FieldMessage   = "message"
)

// Entry is one log request.
type Entry struct {
	// Type is info, warn(ing), err(or) or debug. Other values are printed
	// as given, without color.
	Type string

	// Origin names the part of the program that logged the entry.
	Origin string

	Message string

	// NoDate leaves the {date} field empty.
	NoDate bool

	// Remove makes the line overwritable by the next message.
	Remove bool

	// Animation fills {animation} with frames, advancing on a timer until
	// the next message. Use Animation(name) for the predefined ones.
	Animation []string

	// CutToWidth truncates the line to the terminal width.
	CutToWidth bool

	// Timestamp replaces the current time in the {date} field.
	Timestamp time.Time

	// SkipMirror draws the entry without copying it to the output file.
	SkipMirror bool
}

// Options configures a Logger.
type Options struct {
	// Template is the parsed message structure. Nil uses DefaultStructure.
	Template *template.Template

	// PrintDebug shows debug entries; they are dropped otherwise.
	PrintDebug bool

	// MirrorFrames writes animated lines to the output file with their
	// current frame instead of without the animation field.
	MirrorFrames bool

	// Color enables styled output. New callers usually pass !color.NoColor.
	Color bool

	// Now is the clock used for the {date} field. Defaults to time.Now.
	Now func() time.Time
}

// Logger formats entries and sends them to a screen coordinator.
// It is safe for concurrent use.
type Logger struct {
	screen       *screen.Coordinator
	tmpl         *template.Template
	palette      *palette.Palette
	printDebug   bool
	mirrorFrames bool
	now          func() time.Time
}

// New creates a Logger drawing through c. File mirror errors are reported
// back through the logger as warnings from origin "outlog".
func New(c *screen.Coordinator, opts Options) *Logger {
	if opts.Template == nil {
		opts.Template = template.MustParse(DefaultStructure)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	l := &Logger{
		screen:       c,
		tmpl:         opts.Template,
		palette:      palette.New(opts.Color),
		printDebug:   opts.PrintDebug,
		mirrorFrames: opts.MirrorFrames,
		now:          opts.Now,
	}

	c.Progress().SetFileFormat(l.progressFileLine)
	if m := c.Mirror(); m != nil {
		m.OnError(func(err error) {
			l.Log(Entry{Type: TypeWarn, Origin: "outlog", Message: fmt.Sprintf("writing output file failed: %v", err)})
		})
	}
	return l
}

// Screen returns the coordinator the logger draws through.
func (l *Logger) Screen() *screen.Coordinator {
	return l.screen
}

// Log prints e and returns the finished terminal line. While an input
// prompt is active the entry is queued, Log returns "", and the entry is
// printed once the prompt resolves. Debug entries are dropped unless
// PrintDebug is set.
func (l *Logger) Log(e Entry) string {
	if normalizeType(e.Type) == TypeDebug && !l.printDebug {
		return ""
	}

	var line string
	printed := l.screen.Dispatch(func() screen.Message {
		msg := l.build(e)
		line = msg.Line
		return msg
	})
	if !printed {
		return ""
	}
	return line
}

// Relay prints a preformatted line without applying the template, such as
// output read from a child process. With mirrored false the line is drawn
// but not copied to the output file. Like Log, it is queued while a prompt
// is active and returns "" in that case.
func (l *Logger) Relay(line string, mirrored bool) string {
	printed := l.screen.Dispatch(func() screen.Message {
		return screen.Message{Line: line, SkipMirror: !mirrored}
	})
	if !printed {
		return ""
	}
	return line
}

// Info logs an info entry.
func (l *Logger) Info(origin, message string) string {
	return l.Log(Entry{Type: TypeInfo, Origin: origin, Message: message})
}

// Warn logs a warning.
func (l *Logger) Warn(origin, message string) string {
	return l.Log(Entry{Type: TypeWarn, Origin: origin, Message: message})
}

// Error logs an error entry.
func (l *Logger) Error(origin, message string) string {
	return l.Log(Entry{Type: TypeError, Origin: origin, Message: message})
}

// Debug logs a debug entry.
func (l *Logger) Debug(origin, message string) string {
	return l.Log(Entry{Type: TypeDebug, Origin: origin, Message: message})
}

// build renders e. It runs under the coordinator lock, either right away
// or when a queued entry is replayed, so the date reflects print time.
func (l *Logger) build(e Entry) screen.Message {
	scheme := schemeFor(l.palette, e.Type)

	fields := map[string]string{
		FieldType:    paint(scheme.badge, scheme.label),
		FieldOrigin:  paint(scheme.origin, e.Origin),
		FieldMessage: paint(scheme.message, e.Message),
		FieldDate:    paint(l.palette.Style(color.FgHiCyan), l.date(e)),
	}
	line := l.tmpl.Render(fields)

	msg := screen.Message{
		Line:       line,
		Overwrite:  e.Remove,
		CutToWidth: e.CutToWidth,
		SkipMirror: e.SkipMirror,
	}

	if len(e.Animation) > 0 && l.tmpl.Has(FieldAnimation) {
		anim := &screen.Animation{
			Frames: e.Animation,
			Render: func(frame string) string {
				withFrame := make(map[string]string, len(fields)+1)
				for k, v := range fields {
					withFrame[k] = v
				}
				withFrame[FieldAnimation] = frame
				return l.tmpl.Render(withFrame)
			},
			MirrorFrames: l.mirrorFrames,
		}
		if !e.Remove {
			anim.Reprint = line
		}
		msg.Animation = anim
	}
	return msg
}

func (l *Logger) date(e Entry) string {
	if !e.Timestamp.IsZero() {
		return e.Timestamp.Format(DateLayout)
	}
	if e.NoDate {
		return ""
	}
	return l.now().Format(DateLayout)
}

// progressFileLine renders the mirrored line for a progress change.
func (l *Logger) progressFileLine(percent int) string {
	return l.tmpl.Render(map[string]string{
		FieldType:    "PROGRESS",
		FieldDate:    l.now().Format(DateLayout),
		FieldMessage: fmt.Sprintf("Progress: %d%%", percent),
	})
}

// StopAnimation stops the running animation. Its last line stays on
// screen unless it was logged with Remove.
func (l *Logger) StopAnimation() {
	l.screen.Animation().Stop()
}

// CreateProgressBar starts a progress bar at 0%, replacing any active one.
// Pass deferRender when a SetProgressBar call follows right away.
func (l *Logger) CreateProgressBar(deferRender bool) {
	l.screen.Progress().Create(deferRender)
}

// SetProgressBar moves the progress bar to percent.
func (l *Logger) SetProgressBar(percent float64) error {
	return l.screen.Progress().Set(percent)
}

// IncreaseProgressBar adds amount to the progress bar.
func (l *Logger) IncreaseProgressBar(amount float64) error {
	return l.screen.Progress().Increase(amount)
}

// RemoveProgressBar removes the progress bar.
func (l *Logger) RemoveProgressBar() {
	l.screen.Progress().Remove()
}

// ProgressBar returns the progress bar percentage and whether one is active.
func (l *Logger) ProgressBar() (int, bool) {
	return l.screen.Progress().Get()
}

// Prompt asks question and calls onComplete with the answer, or with
// ok false after timeout. Output logged meanwhile is held back until the
// prompt resolves.
func (l *Logger) Prompt(question string, timeout time.Duration, onComplete func(input string, ok bool)) error {
	return l.screen.Prompt().Prompt(question, timeout, onComplete)
}

// Ask asks question and blocks for the answer.
func (l *Logger) Ask(ctx context.Context, question string, timeout time.Duration) (string, bool, error) {
	return l.screen.Prompt().Ask(ctx, question, timeout)
}

// StopPrompt ends the active prompt, writing text into it.
func (l *Logger) StopPrompt(text string) {
	l.screen.Prompt().Stop(text)
}

// Close restores the terminal, prints the exit message and closes the
// mirror's sinks.
func (l *Logger) Close() error {
	l.screen.Shutdown()
	return l.screen.Mirror().Close()
}
