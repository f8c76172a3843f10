package logger

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harrison/outlog/internal/mirror"
	"github.com/harrison/outlog/internal/screen"
	"github.com/harrison/outlog/internal/template"
	"github.com/harrison/outlog/internal/terminal"
)

var fixedTime = time.Date(2024, 1, 2, 3, 4, 5, 0, time.Local)

// syncBuffer is a bytes.Buffer safe to read while a goroutine writes.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

type memorySink struct {
	mu    sync.Mutex
	lines []string
	err   error
}

func (m *memorySink) AppendLine(line string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.lines = append(m.lines, line)
	return nil
}

func (m *memorySink) Lines() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.lines...)
}

type fixture struct {
	log  *Logger
	out  *syncBuffer
	sink *memorySink
}

func newFixture(t *testing.T, columns int, screenOpts screen.Options, opts Options) fixture {
	t.Helper()
	out := &syncBuffer{}
	sink := &memorySink{}
	c := screen.New(terminal.NewFixed(out, columns), mirror.New(sink), screenOpts)
	opts.Now = func() time.Time { return fixedTime }
	return fixture{log: New(c, opts), out: out, sink: sink}
}

func TestLogFormatsEntry(t *testing.T) {
	f := newFixture(t, 0, screen.Options{}, Options{})

	line := f.log.Info("main", "hello")

	want := "[INFO | main] [2024-01-02 03:04:05] hello"
	if line != want {
		t.Errorf("expected %q, got %q", want, line)
	}
	if got := f.out.String(); got != want+"\n" {
		t.Errorf("expected terminal output %q, got %q", want+"\n", got)
	}
	assert.Equal(t, []string{want}, f.sink.Lines())
}

func TestEntryTypes(t *testing.T) {
	tests := []struct {
		kind string
		want string
	}{
		{kind: "info", want: "[INFO | app] hi"},
		{kind: "INFO", want: "[INFO | app] hi"},
		{kind: "warn", want: "[WARN | app] hi"},
		{kind: "warning", want: "[WARN | app] hi"},
		{kind: "err", want: "[ERROR | app] hi"},
		{kind: "error", want: "[ERROR | app] hi"},
		{kind: "notice", want: "[notice | app] hi"},
		{kind: "", want: "[app] hi"},
	}

	for _, tt := range tests {
		t.Run(tt.kind, func(t *testing.T) {
			f := newFixture(t, 0, screen.Options{}, Options{})
			got := f.log.Log(Entry{Type: tt.kind, Origin: "app", Message: "hi", NoDate: true})
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDebugEntriesAreFiltered(t *testing.T) {
	f := newFixture(t, 0, screen.Options{}, Options{})

	if got := f.log.Debug("app", "hidden"); got != "" {
		t.Errorf("expected debug entry to be dropped, got %q", got)
	}
	assert.Empty(t, f.out.String())
	assert.Empty(t, f.sink.Lines())

	f = newFixture(t, 0, screen.Options{}, Options{PrintDebug: true})
	got := f.log.Log(Entry{Type: "DEBUG", Origin: "app", Message: "shown", NoDate: true})
	assert.Equal(t, "[DEBUG | app] shown", got)
}

func TestDateField(t *testing.T) {
	f := newFixture(t, 0, screen.Options{}, Options{})

	assert.Equal(t, "[INFO] hi", f.log.Log(Entry{Type: "info", Message: "hi", NoDate: true}))

	stamp := time.Date(2020, 5, 6, 7, 8, 9, 0, time.Local)
	assert.Equal(t, "[INFO] [2020-05-06 07:08:09] hi",
		f.log.Log(Entry{Type: "info", Message: "hi", NoDate: true, Timestamp: stamp}))
}

func TestColoredOutput(t *testing.T) {
	f := newFixture(t, 0, screen.Options{}, Options{Color: true})

	info := f.log.Log(Entry{Type: "info", Origin: "app", Message: "ok", NoDate: true})
	assert.Equal(t, "[\x1b[96mINFO\x1b[0m | \x1b[96mapp\x1b[0m] ok", info)

	failure := f.log.Log(Entry{Type: "error", Origin: "app", Message: "boom", NoDate: true})
	assert.Contains(t, failure, "\x1b[31;7mERROR")
	assert.True(t, strings.HasSuffix(failure, "\x1b[31mboom\x1b[0m"))

	dated := f.log.Info("", "x")
	assert.Contains(t, dated, "\x1b[96m2024-01-02 03:04:05\x1b[0m")

	assert.Equal(t, []string{
		"[INFO | app] ok",
		"[ERROR | app] boom",
		"[INFO] [2024-01-02 03:04:05] x",
	}, f.sink.Lines())
}

func TestCustomTemplate(t *testing.T) {
	tmpl := template.MustParse("{date} ({type}) {message}")
	f := newFixture(t, 0, screen.Options{}, Options{Template: tmpl})

	assert.Equal(t, "2024-01-02 03:04:05 (WARN) careful", f.log.Warn("app", "careful"))
}

func TestAnimatedEntry(t *testing.T) {
	f := newFixture(t, 80, screen.Options{AnimationInterval: time.Hour}, Options{})
	c := f.log.Screen()

	f.log.Log(Entry{Type: "info", Message: "loading", NoDate: true, Animation: Animation("loading")})

	assert.Equal(t, "[/] [INFO] loading", c.RenderLine())
	assert.Equal(t, "[INFO] loading", c.PendingReprint())
	assert.True(t, c.Animation().Running())
	assert.Equal(t, []string{"[INFO] loading"}, f.sink.Lines())

	f.log.StopAnimation()
	assert.False(t, c.Animation().Running())
	assert.Equal(t, "[INFO] loading", c.RenderLine())
}

func TestAnimatedEntryMirrorsFrames(t *testing.T) {
	f := newFixture(t, 80, screen.Options{AnimationInterval: time.Hour}, Options{MirrorFrames: true})

	f.log.Log(Entry{Type: "info", Message: "wait", NoDate: true, Remove: true, Animation: Animation("waiting")})
	f.log.StopAnimation()

	assert.Equal(t, []string{"[   ] [INFO] wait"}, f.sink.Lines())
}

func TestPromptQueuesEntries(t *testing.T) {
	f := newFixture(t, 80, screen.Options{}, Options{})
	r, w := io.Pipe()
	defer w.Close()
	f.log.Screen().Prompt().SetInput(r)

	type result struct {
		input string
		lines []string
	}
	results := make(chan result, 1)

	err := f.log.Prompt("Name? ", 0, func(input string, ok bool) {
		results <- result{input: input, lines: f.sink.Lines()}
	})
	require.NoError(t, err)

	assert.Empty(t, f.log.Info("", "first"))
	assert.Empty(t, f.log.Info("", "second"))

	_, err = io.WriteString(w, "Bob\n")
	require.NoError(t, err)

	select {
	case res := <-results:
		assert.Equal(t, "Bob", res.input)
		assert.Equal(t, []string{
			"[INFO] [2024-01-02 03:04:05] first",
			"[INFO] [2024-01-02 03:04:05] second",
		}, res.lines)
	case <-time.After(2 * time.Second):
		t.Fatal("prompt did not complete")
	}
}

func TestProgressFileLine(t *testing.T) {
	f := newFixture(t, 80, screen.Options{MirrorProgress: true}, Options{})

	require.NoError(t, f.log.SetProgressBar(45))
	percent, ok := f.log.ProgressBar()
	assert.True(t, ok)
	assert.Equal(t, 45, percent)

	f.log.RemoveProgressBar()
	_, ok = f.log.ProgressBar()
	assert.False(t, ok)

	assert.Equal(t, []string{"[PROGRESS] [2024-01-02 03:04:05] Progress: 45%"}, f.sink.Lines())
}

func TestMirrorErrorsAreLoggedOnce(t *testing.T) {
	f := newFixture(t, 0, screen.Options{}, Options{})
	f.sink.err = errors.New("disk full")

	f.log.Info("app", "one")
	f.log.Info("app", "two")

	require.Eventually(t, func() bool {
		return strings.Contains(f.out.String(), "[WARN | outlog]")
	}, 2*time.Second, 5*time.Millisecond)

	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 1, strings.Count(f.out.String(), "writing output file failed: disk full"))
}

func TestCloseRestoresTerminal(t *testing.T) {
	f := newFixture(t, 80, screen.Options{ExitMessage: "Goodbye!"}, Options{})

	f.log.Info("", "working")
	require.NoError(t, f.log.Close())

	assert.Contains(t, f.out.String(), "Goodbye!")
	assert.Equal(t, "Goodbye!", f.sink.Lines()[1])
}

func TestRelayBypassesTemplate(t *testing.T) {
	f := newFixture(t, 0, screen.Options{}, Options{})

	assert.Equal(t, "raw child line", f.log.Relay("raw child line", true))
	f.log.Relay("already mirrored", false)

	assert.Equal(t, "raw child line\nalready mirrored\n", f.out.String())
	assert.Equal(t, []string{"raw child line"}, f.sink.Lines())
}

func TestSkipMirrorStatusRedraw(t *testing.T) {
	f := newFixture(t, 80, screen.Options{AnimationInterval: time.Hour}, Options{})
	status := Entry{Type: "info", Message: "busy", NoDate: true, Remove: true, Animation: Animation("loading")}

	f.log.Log(status)
	f.log.Relay("child output", true)
	status.SkipMirror = true
	f.log.Log(status)
	f.log.StopAnimation()

	assert.Equal(t, []string{"[INFO] busy", "child output"}, f.sink.Lines())
}

func TestAnimationTable(t *testing.T) {
	assert.Equal(t, []string{"arrows", "bounce", "bouncearrows", "loading", "progress", "waiting"}, AnimationNames())
	assert.Nil(t, Animation("unknown"))

	a, b := Animation("loading"), Animation("loading")
	if &a[0] != &b[0] {
		t.Error("expected Animation to return the shared frame slice")
	}
}
