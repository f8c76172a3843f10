package terminal

import (
	"bytes"
	"errors"
	"testing"

	"github.com/charmbracelet/x/ansi"
	"github.com/stretchr/testify/assert"
)

func TestNewNonFileWriterIsNotInteractive(t *testing.T) {
	term := New(&bytes.Buffer{})

	assert.False(t, term.Interactive())
	assert.Equal(t, 0, term.Columns())
}

func TestNewFixed(t *testing.T) {
	tests := []struct {
		name        string
		columns     int
		interactive bool
	}{
		{"tty", 80, true},
		{"piped", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			term := NewFixed(&bytes.Buffer{}, tt.columns)
			assert.Equal(t, tt.interactive, term.Interactive())
			assert.Equal(t, tt.columns, term.Columns())
		})
	}
}

func TestCursorControls(t *testing.T) {
	buf := &bytes.Buffer{}
	term := NewFixed(buf, 80)

	term.ClearLine()
	term.MoveUp(2)
	term.MoveDown(1)
	term.MoveUp(0)
	term.Write("")

	assert.Equal(t, "\x1b[2K\x1b[2A\x1b[1B", buf.String())
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("closed") }

func TestWriteKeepsFirstError(t *testing.T) {
	term := NewFixed(failingWriter{}, 80)

	term.Write("a")
	term.Write("b")

	assert.EqualError(t, term.Err(), "closed")
}

func TestCutKeepsEscapesIntact(t *testing.T) {
	s := "\x1b[96mINFO\x1b[0m message"

	out := Cut(s, 6)
	assert.Equal(t, 6, ansi.StringWidth(out))
	assert.Contains(t, out, "\x1b[96m")
	assert.Contains(t, out, "INFO")

	assert.Equal(t, "abc", Cut("abc", 10))
	assert.Empty(t, Cut("abc", 0))
}

func TestSplitRows(t *testing.T) {
	assert.Equal(t, []string{"a", "b", ""}, SplitRows("a\nb\n"))
	assert.Equal(t, []string{"one"}, SplitRows("one"))
}
