package screen

import (
	"bufio"
	"context"
	"errors"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/mattn/go-isatty"

	"github.com/harrison/outlog/internal/terminal"
)

// ErrPromptActive is returned when a prompt is requested while another
// one is still waiting for input.
var ErrPromptActive = errors.New("an input prompt is already active")

type promptState int

const (
	promptIdle promptState = iota
	promptAwaiting
)

// pending is the single completion slot of the gate.
type pending struct {
	question   string
	onComplete func(input string, ok bool)
	stop       chan string
	abort      chan struct{}
	done       chan struct{}
}

// Gate suspends all other output while one line of input is read. Log
// requests arriving meanwhile are queued and replayed in arrival order
// before the prompt's callback runs.
type Gate struct {
	c *Coordinator

	input io.Reader
	echo  bool

	readOnce sync.Once
	lines    chan string

	// Guarded by the coordinator lock.
	state   promptState
	queue   []func() Message
	current *pending
}

func newGate(c *Coordinator) *Gate {
	g := &Gate{c: c}
	g.SetInput(os.Stdin)
	return g
}

// SetInput replaces the reader prompts take their input from. It must be
// called before the first prompt. A TTY input echoes the user's Enter, which
// moves the cursor down a row that has to be taken back afterwards.
func (g *Gate) SetInput(r io.Reader) {
	g.input = r
	g.echo = false
	if f, ok := r.(*os.File); ok && f != nil {
		g.echo = isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
}

// SetEcho overrides whether the input source echoes the Enter key.
func (g *Gate) SetEcho(echo bool) {
	g.echo = echo
}

// Active reports whether a prompt is waiting for input.
func (g *Gate) Active() bool {
	g.c.mu.Lock()
	defer g.c.mu.Unlock()
	return g.state == promptAwaiting
}

// Queued returns the number of log requests waiting for the prompt.
func (g *Gate) Queued() int {
	g.c.mu.Lock()
	defer g.c.mu.Unlock()
	return len(g.queue)
}

// Prompt shows question and waits, without blocking the caller, for one
// line of input. onComplete receives the trimmed input with ok true, or an
// empty string with ok false when timeout (0 disables it) elapses or the
// input reaches EOF. It runs after every queued message has been printed.
func (g *Gate) Prompt(question string, timeout time.Duration, onComplete func(input string, ok bool)) error {
	p, err := g.begin(question, onComplete)
	if err != nil {
		return err
	}
	go g.await(p, timeout)
	return nil
}

// Ask is the blocking form of Prompt. Cancelling ctx ends the prompt like
// Stop with no text.
func (g *Gate) Ask(ctx context.Context, question string, timeout time.Duration) (string, bool, error) {
	var (
		input string
		ok    bool
	)
	p, err := g.begin(question, func(in string, received bool) {
		input, ok = in, received
	})
	if err != nil {
		return "", false, err
	}
	go g.await(p, timeout)

	select {
	case <-p.done:
	case <-ctx.Done():
		g.stopPending(p, "")
		<-p.done
	}
	return input, ok, nil
}

// Stop ends the active prompt as if text had been entered. Non-empty text
// is written onto the prompt row before it closes. No-op without a prompt.
func (g *Gate) Stop(text string) {
	g.c.mu.Lock()
	p := g.current
	g.c.mu.Unlock()

	if p != nil {
		g.stopPending(p, text)
	}
}

func (g *Gate) stopPending(p *pending, text string) {
	select {
	case p.stop <- text:
	default:
	}
}

// begin moves Idle to AwaitingInput: the animation is stopped, the bar is
// hidden and the question is written with the cursor left after it.
func (g *Gate) begin(question string, onComplete func(string, bool)) (*pending, error) {
	c := g.c
	c.mu.Lock()
	defer c.mu.Unlock()

	if g.state != promptIdle {
		return nil, ErrPromptActive
	}

	c.anim.stopLocked()
	c.progress.hideLocked()

	c.setupLocked()
	if c.plain {
		c.term.Write(question)
	} else {
		if !c.overwriteNext {
			c.term.Write("\n")
		}
		c.overwriteNext = false
		c.term.ClearLine()
		c.term.Write(terminal.ShowCursor + question)
	}
	c.current = question

	p := &pending{
		question:   question,
		onComplete: onComplete,
		stop:       make(chan string, 1),
		abort:      make(chan struct{}),
		done:       make(chan struct{}),
	}
	g.state = promptAwaiting
	g.current = p
	c.gated = true

	g.startReader()
	return p, nil
}

// startReader launches the single goroutine that reads input lines for
// every prompt of the process.
func (g *Gate) startReader() {
	g.readOnce.Do(func() {
		g.lines = make(chan string)
		go func(r io.Reader, lines chan<- string) {
			defer close(lines)
			if r == nil {
				return
			}
			reader := bufio.NewReader(r)
			for {
				line, err := reader.ReadString('\n')
				if line != "" || err == nil {
					lines <- strings.TrimRight(line, "\r\n")
				}
				if err != nil {
					return
				}
			}
		}(g.input, g.lines)
	})
}

func (g *Gate) await(p *pending, timeout time.Duration) {
	var expired <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		expired = timer.C
	}

	select {
	case line, ok := <-g.lines:
		if !ok {
			g.resolve(p, "", false, false, "")
			return
		}
		g.resolve(p, strings.TrimSpace(line), true, g.echo, "")
	case <-expired:
		g.resolve(p, "", false, false, "")
	case text := <-p.stop:
		g.resolve(p, strings.TrimSpace(text), true, false, text)
	case <-p.abort:
		close(p.done)
	}
}

// resolve moves AwaitingInput to Idle, replays the queue and runs the
// callback outside the lock.
func (g *Gate) resolve(p *pending, input string, ok, echoed bool, injected string) {
	c := g.c
	c.mu.Lock()
	if g.current != p {
		c.mu.Unlock()
		close(p.done)
		return
	}
	g.endLocked(echoed, injected)
	c.mu.Unlock()

	if p.onComplete != nil {
		p.onComplete(input, ok)
	}
	close(p.done)
}

// abortLocked releases an active prompt during shutdown. The queue is
// replayed, the callback is not called.
func (g *Gate) abortLocked() {
	p := g.current
	if p == nil {
		return
	}
	g.endLocked(false, "")
	close(p.abort)
}

// endLocked restores the display and drains the queue.
func (g *Gate) endLocked(echoed bool, injected string) {
	c := g.c

	c.term.Write(injected)
	if c.plain {
		c.term.Write("\n")
	} else {
		if echoed {
			c.term.MoveUp(1)
		}
		c.term.Write("\r")
		c.overwriteNext = false
	}

	g.state = promptIdle
	g.current = nil
	c.gated = false

	c.progress.restoreLocked()

	queue := g.queue
	g.queue = nil
	for _, build := range queue {
		c.printLocked(build())
	}
}

// enqueueLocked queues build while a prompt is active.
func (g *Gate) enqueueLocked(build func() Message) bool {
	if g.state == promptIdle {
		return false
	}
	g.queue = append(g.queue, build)
	return true
}
