package screen

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/fatih/color"

	"github.com/harrison/outlog/internal/palette"
)

// ErrInvalidAmount is returned for a NaN or infinite progress amount.
var ErrInvalidAmount = errors.New("progress amount must be a finite number")

// barReserved is the number of columns taken by the label and brackets
// around the fill: "Progress: [100%] [" plus the closing "]".
const barReserved = 19

// ProgressState is the state of the active progress bar.
type ProgressState struct {
	Percent int
}

// ProgressBar owns the single progress bar. Like the Animator it shares
// the coordinator lock.
type ProgressBar struct {
	c     *Coordinator
	state *ProgressState

	// suspended is set while a prompt hides the bar.
	suspended bool
	fileLine  func(percent int) string
}

func newProgressBar(c *Coordinator) *ProgressBar {
	return &ProgressBar{
		c: c,
		fileLine: func(percent int) string {
			return fmt.Sprintf("Progress: %d%%", percent)
		},
	}
}

// SetFileFormat replaces the formatter for mirrored progress lines.
func (p *ProgressBar) SetFileFormat(fn func(percent int) string) {
	p.c.mu.Lock()
	defer p.c.mu.Unlock()
	if fn != nil {
		p.fileLine = fn
	}
}

// Create starts a new bar at 0%, replacing any active one. With
// deferRender the bar is not drawn until the next Set or Increase.
func (p *ProgressBar) Create(deferRender bool) {
	p.c.mu.Lock()
	defer p.c.mu.Unlock()

	p.state = &ProgressState{}
	if deferRender {
		return
	}
	p.mirrorLocked()
	p.showLocked()
}

// Set moves the bar to percent, rounded and clamped to [0, 100]. A bar is
// created first when none is active.
func (p *ProgressBar) Set(percent float64) error {
	if math.IsNaN(percent) || math.IsInf(percent, 0) {
		return ErrInvalidAmount
	}

	p.c.mu.Lock()
	defer p.c.mu.Unlock()

	if p.state == nil {
		p.state = &ProgressState{}
	}
	p.state.Percent = clampPercent(round(percent))
	p.mirrorLocked()
	p.showLocked()
	return nil
}

// Increase adds amount, rounded, saturating at 100 and never dropping
// below 0. A zero amount, or a bar already at 100, changes nothing.
func (p *ProgressBar) Increase(amount float64) error {
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return ErrInvalidAmount
	}

	p.c.mu.Lock()
	defer p.c.mu.Unlock()

	// A new bar stays hidden until its first real change.
	if p.state == nil {
		p.state = &ProgressState{}
	}

	step := round(amount)
	if step == 0 || p.state.Percent >= 100 {
		return nil
	}

	p.state.Percent = clampPercent(p.state.Percent + step)
	p.mirrorLocked()
	p.showLocked()
	return nil
}

// Remove deletes the bar and its terminal row. No-op without a bar.
func (p *ProgressBar) Remove() {
	p.c.mu.Lock()
	defer p.c.mu.Unlock()
	p.removeLocked()
}

// Get returns the current percentage and whether a bar is active.
func (p *ProgressBar) Get() (int, bool) {
	p.c.mu.Lock()
	defer p.c.mu.Unlock()

	if p.state == nil {
		return 0, false
	}
	return p.state.Percent, true
}

func (p *ProgressBar) removeLocked() {
	if p.state == nil {
		return
	}
	p.state = nil
	p.suspended = false
	p.c.removeProgressLineLocked()
}

// hideLocked takes the bar off the screen but keeps its state.
func (p *ProgressBar) hideLocked() {
	if !p.c.barShown {
		return
	}
	p.c.removeProgressLineLocked()
	p.suspended = true
}

// restoreLocked redraws a bar hidden by hideLocked.
func (p *ProgressBar) restoreLocked() {
	if !p.suspended {
		return
	}
	p.suspended = false
	p.showLocked()
}

func (p *ProgressBar) showLocked() {
	if p.state == nil {
		return
	}
	if p.c.gated {
		p.suspended = true
		return
	}

	columns := p.c.term.Columns()
	if columns <= 0 {
		return
	}

	line := RenderBar(p.state.Percent, columns, p.c.opts.Color)
	if p.c.barShown {
		p.c.updateProgressLineLocked(line)
		return
	}
	p.c.createProgressLineLocked(line)
}

func (p *ProgressBar) mirrorLocked() {
	if !p.c.opts.MirrorProgress || p.state == nil {
		return
	}
	p.c.mirror.Append(p.fileLine(p.state.Percent), false)
}

// RenderBar draws the bar for a terminal of the given width: a label with
// the space-padded percentage followed by a '#' fill proportional to
// percent across columns-19 cells.
func RenderBar(percent, columns int, colored bool) string {
	percent = clampPercent(percent)

	space := columns - barReserved
	if space < 0 {
		space = 0
	}
	fill := int(math.Floor(float64(space)*float64(percent)/100 + 0.5))

	var b strings.Builder
	if colored {
		b.WriteString(palette.Sequence(color.BgHiGreen))
		b.WriteString(palette.Sequence(color.FgBlack))
	}
	fmt.Fprintf(&b, "Progress: [%3d%%]", percent)
	if colored {
		b.WriteString(palette.Reset)
	}
	b.WriteString(" [")
	b.WriteString(strings.Repeat("#", fill))
	b.WriteString(strings.Repeat(" ", space-fill))
	b.WriteString("]")
	return b.String()
}

// round rounds half up, so -2.5 becomes -2. Inputs far outside the
// percent range are bounded first so the conversion cannot overflow.
func round(x float64) int {
	x = max(-1000, min(1000, x))
	return int(math.Floor(x + 0.5))
}

func clampPercent(p int) int {
	return max(0, min(100, p))
}
