//go:build !windows

package shutdown

import (
	"context"
	"os"
	"syscall"
	"testing"
	"time"
)

func TestListenRunsHooksAndExits(t *testing.T) {
	c := NewCoordinator()
	codes := make(chan int, 1)
	c.SetExitFunc(func(code int) { codes <- code })

	cleaned := make(chan struct{}, 1)
	c.Register("restore terminal", func(context.Context) error {
		cleaned <- struct{}{}
		return nil
	})

	var observed os.Signal
	c.OnSignal(func(sig os.Signal, err error) {
		observed = sig
	})

	c.Listen()
	defer c.Detach()

	if err := syscall.Kill(os.Getpid(), syscall.SIGUSR1); err != nil {
		t.Fatalf("send signal: %v", err)
	}

	select {
	case code := <-codes:
		if want := ExitCode(syscall.SIGUSR1); code != want {
			t.Errorf("exit code = %d, want %d", code, want)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("signal was not handled")
	}

	select {
	case <-cleaned:
	default:
		t.Error("expected cleanup hook to run before exit")
	}
	if observed != syscall.SIGUSR1 {
		t.Errorf("observed signal = %v, want SIGUSR1", observed)
	}
}
