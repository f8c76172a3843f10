// Package shutdown runs cleanup when the process ends.
//
// Hooks run exactly once, last registered first, whether the process ends
// normally (the caller invokes Run) or because of a termination signal
// (Listen invokes Run and then exits with 128 plus the signal number).
package shutdown

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"
)

// DefaultTimeout bounds the hooks run after a signal.
const DefaultTimeout = 2 * time.Second

// HookFunc is a cleanup step.
type HookFunc func(context.Context) error

type hook struct {
	name string
	fn   HookFunc
}

// Coordinator runs registered shutdown hooks exactly once in LIFO order.
type Coordinator struct {
	mu    sync.Mutex
	hooks []hook
	ran   bool

	exit    func(code int)
	timeout time.Duration

	sigCh    chan os.Signal
	detached chan struct{}
	onSignal func(os.Signal, error)
}

// NewCoordinator creates a Coordinator that exits through os.Exit.
func NewCoordinator() *Coordinator {
	return &Coordinator{
		exit:    os.Exit,
		timeout: DefaultTimeout,
	}
}

// SetExitFunc replaces os.Exit, mainly for tests.
func (c *Coordinator) SetExitFunc(fn func(code int)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if fn != nil {
		c.exit = fn
	}
}

// OnSignal registers fn to observe the signal and the hooks' combined
// error right before the process exits.
func (c *Coordinator) OnSignal(fn func(os.Signal, error)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onSignal = fn
}

// Register adds a hook. Hooks registered after Run are ignored.
func (c *Coordinator) Register(name string, fn HookFunc) {
	if fn == nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ran {
		return
	}
	c.hooks = append(c.hooks, hook{name: name, fn: fn})
}

// Run executes every hook once, newest first. Later calls return nil.
func (c *Coordinator) Run(ctx context.Context) error {
	c.mu.Lock()
	if c.ran {
		c.mu.Unlock()
		return nil
	}
	c.ran = true
	hooks := make([]hook, len(c.hooks))
	copy(hooks, c.hooks)
	c.mu.Unlock()

	var errs []error
	for i := len(hooks) - 1; i >= 0; i-- {
		h := hooks[i]

		hookCtx, cancel := perHookContext(ctx, i+1)
		err := h.fn(hookCtx)
		cancel()
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", h.name, err))
		}
	}

	return errors.Join(errs...)
}

// Listen installs the signal handler. On the first termination signal the
// hooks run and the process exits with ExitCode(sig). Calling Listen
// twice is a no-op.
func (c *Coordinator) Listen() {
	c.mu.Lock()
	if c.sigCh != nil {
		c.mu.Unlock()
		return
	}
	c.sigCh = make(chan os.Signal, 1)
	c.detached = make(chan struct{})
	sigCh, detached := c.sigCh, c.detached
	c.mu.Unlock()

	signal.Notify(sigCh, terminationSignals...)

	go func() {
		select {
		case sig := <-sigCh:
			c.handle(sig)
		case <-detached:
		}
	}()
}

// Detach removes the signal handler installed by Listen.
func (c *Coordinator) Detach() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sigCh == nil {
		return
	}
	signal.Stop(c.sigCh)
	close(c.detached)
	c.sigCh = nil
	c.detached = nil
}

func (c *Coordinator) handle(sig os.Signal) {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	err := c.Run(ctx)
	cancel()

	c.mu.Lock()
	exit, observe := c.exit, c.onSignal
	c.mu.Unlock()

	if observe != nil {
		observe(sig, err)
	}
	exit(ExitCode(sig))
}

// ExitCode maps a signal to the conventional shell exit status.
func ExitCode(sig os.Signal) int {
	if s, ok := sig.(syscall.Signal); ok {
		return 128 + int(s)
	}
	return 1
}

func perHookContext(ctx context.Context, hooksRemaining int) (context.Context, context.CancelFunc) {
	deadline, ok := ctx.Deadline()
	if !ok || hooksRemaining <= 0 {
		return ctx, func() {}
	}

	remaining := time.Until(deadline)
	if remaining <= 0 {
		return context.WithTimeout(ctx, time.Millisecond)
	}

	perHook := remaining / time.Duration(hooksRemaining)
	if perHook <= 0 {
		perHook = remaining
	}
	return context.WithTimeout(ctx, perHook)
}
