package screen

import (
	"time"
)

// Animation describes an animated message.
type Animation struct {
	// Frames is the frame sequence. Two animations are the same animation
	// when they share the same backing array, so callers reuse one slice
	// per animation to keep the frame index across repeated log calls.
	Frames []string

	// Render builds the full line for a frame.
	Render func(frame string) string

	// Reprint is committed in place of the animated row when the
	// animation stops. Empty clears the row instead.
	Reprint string

	// MirrorFrames mirrors the line with the current frame instead of
	// Message.FileLine.
	MirrorFrames bool
}

// AnimationState is a snapshot of the running animation.
type AnimationState struct {
	Frames      []string
	Index       int
	LastAdvance time.Time
	Active      bool
}

// tickerFunc starts a ticker and returns its channel and a stop function.
type tickerFunc func(d time.Duration) (<-chan time.Time, func())

func realTicker(d time.Duration) (<-chan time.Time, func()) {
	t := time.NewTicker(d)
	return t.C, t.Stop
}

// Animator advances the frame of the animated message row on a fixed
// interval. It holds no lock of its own; every method takes the
// coordinator lock.
type Animator struct {
	c        *Coordinator
	interval time.Duration
	now      func() time.Time
	ticker   tickerFunc

	state  AnimationState
	render func(frame string) string

	// generation invalidates ticks that were already in flight when the
	// animation was cancelled or restarted.
	generation uint64
	stopTicker func()
	quit       chan struct{}
}

func newAnimator(c *Coordinator, interval time.Duration) *Animator {
	return &Animator{
		c:        c,
		interval: interval,
		now:      time.Now,
		ticker:   realTicker,
	}
}

// State returns a copy of the animation state.
func (a *Animator) State() AnimationState {
	a.c.mu.Lock()
	defer a.c.mu.Unlock()
	return a.state
}

// Running reports whether the ticker is armed.
func (a *Animator) Running() bool {
	a.c.mu.Lock()
	defer a.c.mu.Unlock()
	return a.stopTicker != nil
}

// Stop cancels the ticker, commits or clears the animated row and forgets
// the animation so the next animated message starts at its first frame.
func (a *Animator) Stop() {
	a.c.mu.Lock()
	defer a.c.mu.Unlock()
	a.stopLocked()
}

func (a *Animator) stopLocked() {
	a.cancelLocked()
	a.c.stopAnimationDisplayLocked()
	a.state = AnimationState{}
	a.render = nil
}

// beginLocked selects the frame for a new animated message and returns the
// rendered line. A repeat of the running animation keeps its index and
// advances at most once, only when a full interval has passed since the
// last advance.
func (a *Animator) beginLocked(anim *Animation) string {
	now := a.now()

	if sameFrames(a.state.Frames, anim.Frames) {
		if now.Sub(a.state.LastAdvance) >= a.interval {
			a.state.Index = (a.state.Index + 1) % len(a.state.Frames)
			a.state.LastAdvance = now
		}
	} else {
		a.state = AnimationState{
			Frames:      anim.Frames,
			LastAdvance: now,
		}
	}

	a.state.Active = true
	a.render = anim.Render
	return a.renderFrame()
}

func (a *Animator) renderFrame() string {
	frame := a.state.Frames[a.state.Index]
	if a.render == nil {
		return frame
	}
	return a.render(frame)
}

// armLocked starts the ticker for the current animation.
func (a *Animator) armLocked() {
	a.cancelLocked()
	a.state.Active = true

	a.generation++
	gen := a.generation
	ticks, stop := a.ticker(a.interval)
	quit := make(chan struct{})
	a.stopTicker = stop
	a.quit = quit

	go a.run(gen, ticks, quit)
}

// cancelLocked stops the ticker but keeps the frame sequence and index so
// a repeated animated message continues where it left off.
func (a *Animator) cancelLocked() {
	a.generation++
	a.state.Active = false
	if a.stopTicker == nil {
		return
	}
	a.stopTicker()
	close(a.quit)
	a.stopTicker = nil
	a.quit = nil
}

func (a *Animator) run(gen uint64, ticks <-chan time.Time, quit <-chan struct{}) {
	for {
		select {
		case <-quit:
			return
		case <-ticks:
			if !a.tick(gen) {
				return
			}
		}
	}
}

// tick advances one frame. It reports false once the generation is stale.
func (a *Animator) tick(gen uint64) bool {
	a.c.mu.Lock()
	defer a.c.mu.Unlock()

	if gen != a.generation || !a.state.Active || len(a.state.Frames) == 0 {
		return false
	}
	if a.c.gated {
		return true
	}

	a.state.Index = (a.state.Index + 1) % len(a.state.Frames)
	a.state.LastAdvance = a.now()
	a.c.writeAnimationFrameLocked(a.renderFrame())
	return true
}

func sameFrames(a, b []string) bool {
	return len(a) > 0 && len(a) == len(b) && &a[0] == &b[0]
}
