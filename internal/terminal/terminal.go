// Package terminal wraps the output stream outlog draws on.
//
// It knows whether the stream is an interactive terminal, how many columns
// it has, and how to emit the handful of cursor controls the screen
// coordinator needs. It never decides what to draw.
package terminal

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/x/ansi"
	"github.com/mattn/go-isatty"
	"golang.org/x/term"
)

// Cursor and line control sequences.
const (
	HideCursor = "\x1b[?25l"
	ShowCursor = "\x1b[?25h"
	ClearLine  = "\x1b[2K"
)

// Terminal is an output stream plus its capabilities.
type Terminal struct {
	out         io.Writer
	interactive bool
	columns     func() int
	mu          sync.Mutex
	err         error
}

// New wraps w. When w is an *os.File attached to a TTY, the terminal is
// interactive and its width is read from the device on every call so
// resizes are picked up.
func New(w io.Writer) *Terminal {
	t := &Terminal{out: w, columns: func() int { return 0 }}

	f, ok := w.(*os.File)
	if !ok || f == nil {
		return t
	}

	fd := f.Fd()
	if !isatty.IsTerminal(fd) && !isatty.IsCygwinTerminal(fd) {
		return t
	}

	t.interactive = true
	t.columns = func() int {
		width, _, err := term.GetSize(int(fd))
		if err != nil || width <= 0 {
			return 0
		}
		return width
	}
	return t
}

// NewFixed wraps w with a fixed column count. A positive width makes the
// terminal interactive; zero models piped output.
func NewFixed(w io.Writer, columns int) *Terminal {
	return &Terminal{
		out:         w,
		interactive: columns > 0,
		columns:     func() int { return columns },
	}
}

// Interactive reports whether the stream is a TTY.
func (t *Terminal) Interactive() bool {
	return t.interactive
}

// Columns returns the terminal width, or 0 when it is unavailable.
func (t *Terminal) Columns() int {
	if !t.interactive {
		return 0
	}
	return t.columns()
}

// Write emits s verbatim. The first write error is kept and later writes
// are still attempted; the display is best effort.
func (t *Terminal) Write(s string) {
	if t.out == nil || s == "" {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, err := io.WriteString(t.out, s); err != nil && t.err == nil {
		t.err = err
	}
}

// Err returns the first write error, if any.
func (t *Terminal) Err() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.err
}

// ClearLine erases the row the cursor is on.
func (t *Terminal) ClearLine() {
	t.Write(ClearLine)
}

// MoveUp moves the cursor up n rows. n <= 0 is a no-op.
func (t *Terminal) MoveUp(n int) {
	if n > 0 {
		t.Write(fmt.Sprintf("\x1b[%dA", n))
	}
}

// MoveDown moves the cursor down n rows. n <= 0 is a no-op.
func (t *Terminal) MoveDown(n int) {
	if n > 0 {
		t.Write(fmt.Sprintf("\x1b[%dB", n))
	}
}

// Cut truncates s to at most width printable cells without splitting an
// escape sequence. Styles opened before the cut stay open; callers append
// a reset.
func Cut(s string, width int) string {
	if width <= 0 {
		return ""
	}
	return ansi.Truncate(s, width, "")
}

// SplitRows splits a message into terminal rows.
func SplitRows(s string) []string {
	return strings.Split(s, "\n")
}
