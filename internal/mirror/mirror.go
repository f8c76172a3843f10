// Package mirror keeps an escape-free copy of everything outlog prints.
//
// A Mirror fans sanitized lines out to one or more sinks (the output file,
// optionally a history database). Sink failures never reach the caller:
// they are reported asynchronously through an error hook, once per
// distinct error, because the terminal remains the primary channel.
package mirror

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/harrison/outlog/internal/filelock"
)

// Sink receives sanitized lines in order.
type Sink interface {
	AppendLine(line string) error
}

// Mirror sanitizes lines and appends them to its sinks.
type Mirror struct {
	mu       sync.Mutex
	sinks    []Sink
	last     string
	hasLast  bool
	onError  func(error)
	reported map[string]bool
}

// New creates a Mirror writing to the given sinks. Nil sinks are skipped.
func New(sinks ...Sink) *Mirror {
	m := &Mirror{reported: make(map[string]bool)}
	for _, s := range sinks {
		if s != nil {
			m.sinks = append(m.sinks, s)
		}
	}
	return m
}

// OnError installs the hook that receives sink failures. The hook runs on
// its own goroutine, so it may log through the same screen that is
// currently writing.
func (m *Mirror) OnError(fn func(error)) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onError = fn
}

// AddSink appends another sink.
func (m *Mirror) AddSink(s Sink) {
	if m == nil || s == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sinks = append(m.sinks, s)
}

// Append sanitizes line and writes it to every sink. When refresh is true
// the line comes from re-rendering an animation, and it is dropped if it
// is identical to the previous line.
func (m *Mirror) Append(line string, refresh bool) {
	if m == nil {
		return
	}

	clean := Sanitize(line)

	m.mu.Lock()
	defer m.mu.Unlock()

	if refresh && m.hasLast && clean == m.last {
		return
	}
	m.last = clean
	m.hasLast = true

	for _, s := range m.sinks {
		if err := s.AppendLine(clean); err != nil {
			m.report(err)
		}
	}
}

// report must be called with m.mu held.
func (m *Mirror) report(err error) {
	if m.onError == nil || m.reported[err.Error()] {
		return
	}
	m.reported[err.Error()] = true
	go m.onError(err)
}

// Close closes every sink that implements io.Closer-like Close() error.
func (m *Mirror) Close() error {
	if m == nil {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	var first error
	for _, s := range m.sinks {
		if c, ok := s.(interface{ Close() error }); ok {
			if err := c.Close(); err != nil && first == nil {
				first = err
			}
		}
	}
	return first
}

// FileSink appends newline-terminated lines to a file, opening it per
// write so several processes can share it.
type FileSink struct {
	path string
	lock *filelock.FileLock
	mu   sync.Mutex
}

// NewFileSink creates a FileSink for path. With locked set, every append
// holds an exclusive flock on path+".lock" so a parent and its child
// processes never interleave partial lines.
func NewFileSink(path string, locked bool) *FileSink {
	fs := &FileSink{path: path}
	if locked {
		fs.lock = filelock.NewFileLock(path + ".lock")
	}
	return fs
}

// AppendLine writes line plus a newline at the end of the file.
func (f *FileSink) AppendLine(line string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.lock != nil {
		if err := f.lock.Lock(); err != nil {
			return fmt.Errorf("append to %s: %w", f.path, err)
		}
		defer f.lock.Unlock()
	}

	if err := filelock.AppendLine(f.path, line); err != nil {
		return fmt.Errorf("append to %s: %w", f.path, err)
	}
	return nil
}

// EnsureDir creates the parent directory of path.
func EnsureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	return nil
}
