package screen

import (
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harrison/outlog/internal/terminal"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}

// fakeTicker replaces the animator's ticker with a channel the test drives.
func fakeTicker(c *Coordinator) chan time.Time {
	ticks := make(chan time.Time)
	c.anim.ticker = func(time.Duration) (<-chan time.Time, func()) {
		return ticks, func() {}
	}
	return ticks
}

func spinner(frames []string, reprint string, overwrite bool) func() Message {
	anim := &Animation{
		Frames:  frames,
		Render:  func(frame string) string { return "[" + frame + "] working" },
		Reprint: reprint,
	}
	return func() Message {
		return Message{Line: "working", Overwrite: overwrite, Animation: anim}
	}
}

func TestRepeatedAnimationKeepsIndex(t *testing.T) {
	c, _, _ := newTestCoordinator(t, 80, Options{AnimationInterval: 100 * time.Millisecond})
	clock := &fakeClock{now: time.Unix(1000, 0)}
	c.anim.now = clock.Now
	fakeTicker(c)

	frames := []string{"a", "b", "c"}

	c.Dispatch(spinner(frames, "", true))
	assert.Equal(t, 0, c.Animation().State().Index)

	clock.Advance(10 * time.Millisecond)
	c.Dispatch(spinner(frames, "", true))
	assert.Equal(t, 0, c.Animation().State().Index)

	clock.Advance(100 * time.Millisecond)
	c.Dispatch(spinner(frames, "", true))
	assert.Equal(t, 1, c.Animation().State().Index)
	assert.Equal(t, "[b] working", c.RenderLine())

	c.Animation().Stop()
}

func TestDifferentFramesRestartAtZero(t *testing.T) {
	c, _, _ := newTestCoordinator(t, 80, Options{AnimationInterval: 100 * time.Millisecond})
	clock := &fakeClock{now: time.Unix(1000, 0)}
	c.anim.now = clock.Now
	fakeTicker(c)

	c.Dispatch(spinner([]string{"a", "b"}, "", true))
	clock.Advance(time.Second)
	c.Dispatch(spinner([]string{"a", "b"}, "", true))

	// Equal contents but a different slice is a different animation.
	assert.Equal(t, 0, c.Animation().State().Index)
	c.Animation().Stop()
}

func TestStopResetsAnimationIdentity(t *testing.T) {
	c, _, _ := newTestCoordinator(t, 80, Options{AnimationInterval: 100 * time.Millisecond})
	clock := &fakeClock{now: time.Unix(1000, 0)}
	c.anim.now = clock.Now
	fakeTicker(c)

	frames := []string{"a", "b", "c"}
	c.Dispatch(spinner(frames, "", true))
	clock.Advance(time.Second)
	c.Dispatch(spinner(frames, "", true))
	require.Equal(t, 1, c.Animation().State().Index)

	c.Animation().Stop()
	assert.False(t, c.Animation().Running())

	clock.Advance(time.Second)
	c.Dispatch(spinner(frames, "", true))
	assert.Equal(t, 0, c.Animation().State().Index)
	c.Animation().Stop()
}

func TestPlainMessageResetsAnimation(t *testing.T) {
	c, _, _ := newTestCoordinator(t, 80, Options{AnimationInterval: 100 * time.Millisecond})
	ticks := fakeTicker(c)

	frames := []string{"a", "b", "c"}
	c.Dispatch(spinner(frames, "", true))
	ticks <- time.Now()
	ticks <- time.Now()
	require.Eventually(t, func() bool {
		return c.Animation().State().Index == 2
	}, time.Second, time.Millisecond)

	c.Dispatch(plainMessage("plain"))
	state := c.Animation().State()
	assert.Nil(t, state.Frames)
	assert.Equal(t, 0, state.Index)
	assert.False(t, state.Active)

	c.Dispatch(spinner(frames, "", true))
	assert.Equal(t, 0, c.Animation().State().Index)
	assert.Equal(t, "[a] working", c.RenderLine())
	c.Animation().Stop()
}

func TestTicksAdvanceWithoutLogCalls(t *testing.T) {
	c, buf, _ := newTestCoordinator(t, 80, Options{AnimationInterval: 100 * time.Millisecond})
	ticks := fakeTicker(c)

	c.Dispatch(spinner([]string{"a", "b", "c"}, "", true))
	require.True(t, c.Animation().Running())

	ticks <- time.Now()
	ticks <- time.Now()

	require.Eventually(t, func() bool {
		return c.Animation().State().Index == 2
	}, time.Second, time.Millisecond)
	assert.Equal(t, "[c] working", c.RenderLine())

	ticks <- time.Now()
	require.Eventually(t, func() bool {
		return c.Animation().State().Index == 0
	}, time.Second, time.Millisecond)

	c.Animation().Stop()
	assert.Contains(t, buf.String(), "\r\x1b[2K"+terminal.HideCursor+"[b] working\r")
	assert.Contains(t, buf.String(), "\r\x1b[2K"+terminal.HideCursor+"[c] working\r")
}

func TestRealTickerAdvances(t *testing.T) {
	c, _, _ := newTestCoordinator(t, 80, Options{AnimationInterval: 20 * time.Millisecond})

	c.Dispatch(spinner([]string{"a", "b", "c", "d"}, "", true))
	defer c.Animation().Stop()

	assert.Eventually(t, func() bool {
		return c.Animation().State().Index >= 2
	}, 2*time.Second, 5*time.Millisecond)
}

func TestNonAnimatedMessageCancelsTicker(t *testing.T) {
	c, _, _ := newTestCoordinator(t, 80, Options{AnimationInterval: 100 * time.Millisecond})
	fakeTicker(c)

	c.Dispatch(spinner([]string{"a", "b"}, "", true))
	c.mu.Lock()
	gen := c.anim.generation
	c.mu.Unlock()

	c.Dispatch(plainMessage("done"))

	assert.False(t, c.Animation().Running())
	assert.False(t, c.anim.tick(gen), "stale tick must be rejected")
	assert.Equal(t, "done", c.RenderLine())
}

func TestStopCommitsPendingReprint(t *testing.T) {
	c, buf, sink := newTestCoordinator(t, 80, Options{})
	fakeTicker(c)

	c.Dispatch(spinner([]string{"a", "b"}, "working", false))
	assert.Equal(t, "working", c.PendingReprint())

	buf.Reset()
	c.Animation().Stop()

	assert.Empty(t, c.PendingReprint())
	assert.Equal(t, terminal.ShowCursor+"\x1b[2Kworking\r", buf.String())
	assert.Equal(t, []string{"working"}, sink.Lines())
}

func TestStopWithoutReprintClearsRow(t *testing.T) {
	c, buf, _ := newTestCoordinator(t, 80, Options{})
	fakeTicker(c)

	c.Dispatch(spinner([]string{"a", "b"}, "working", true))
	assert.Empty(t, c.PendingReprint())

	buf.Reset()
	c.Animation().Stop()

	assert.Equal(t, terminal.ShowCursor+"\r\x1b[2K", buf.String())
	assert.Empty(t, c.RenderLine())
}

func TestAnimationWithProgressBarDrawsAboveBar(t *testing.T) {
	c, buf, _ := newTestCoordinator(t, 40, Options{})
	ticks := fakeTicker(c)

	c.Progress().Create(false)
	c.Dispatch(spinner([]string{"a", "b"}, "", true))

	buf.Reset()
	ticks <- time.Now()
	require.Eventually(t, func() bool {
		return c.Animation().State().Index == 1
	}, time.Second, time.Millisecond)

	c.Animation().Stop()
	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "\x1b[2A\r\x1b[2K"+terminal.HideCursor+"[b] working\r\x1b[2B"), out)
}

func TestAnimationFramesMirrorOnce(t *testing.T) {
	c, _, sink := newTestCoordinator(t, 80, Options{})
	fakeTicker(c)

	frames := []string{"a", "b"}
	c.Dispatch(spinner(frames, "", true))
	c.Dispatch(spinner(frames, "", true))
	c.Dispatch(spinner(frames, "", true))
	c.Animation().Stop()

	assert.Equal(t, []string{"working"}, sink.Lines())
}

func TestPlainModeRendersSingleFrame(t *testing.T) {
	c, buf, _ := newTestCoordinator(t, 0, Options{})

	c.Dispatch(spinner([]string{"a", "b"}, "working", false))

	assert.False(t, c.Animation().Running())
	assert.Equal(t, "[a] working\n", buf.String())
}
