// Package archive writes log archive transfers to their destination.
package archive

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"go.uber.org/atomic"
)

var (
	// ErrAborted is returned once the transfer was cancelled or the
	// destination failed. Bytes already written are left as they are.
	ErrAborted = errors.New("archive transfer aborted")
	// ErrTerminalOutput refuses to dump binary archive data to a terminal.
	ErrTerminalOutput = errors.New("refusing to write archive data to a terminal, redirect stdout or pass a file path")
)

// StdoutPath selects standard output as the destination.
const StdoutPath = "-"

// Sink copies archive chunks to dst until quit reports true.
type Sink struct {
	dst     io.Writer
	quit    func() bool
	written atomic.Int64
	failed  atomic.Bool
}

// NewSink wraps dst. quit may be nil.
func NewSink(dst io.Writer, quit func() bool) *Sink {
	if quit == nil {
		quit = func() bool { return false }
	}
	return &Sink{dst: dst, quit: quit}
}

// Write implements io.Writer.
func (s *Sink) Write(p []byte) (int, error) {
	if s.failed.Load() || s.quit() {
		s.failed.Store(true)
		return 0, ErrAborted
	}
	n, err := s.dst.Write(p)
	s.written.Add(int64(n))
	if err != nil {
		s.failed.Store(true)
		return n, fmt.Errorf("%w: %v", ErrAborted, err)
	}
	return n, nil
}

// Written returns the number of bytes delivered so far. Safe for concurrent use.
func (s *Sink) Written() int64 {
	return s.written.Load()
}

// Open returns the destination for path. StdoutPath maps to stdout unless it
// is a terminal.
func Open(path string, stdout *os.File) (io.WriteCloser, error) {
	if path == StdoutPath {
		fd := stdout.Fd()
		if isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd) {
			return nil, ErrTerminalOutput
		}
		return nopCloser{stdout}, nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open archive output %s: %w", path, err)
	}
	return f, nil
}

type nopCloser struct {
	io.Writer
}

func (nopCloser) Close() error { return nil }
