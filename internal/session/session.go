// Package session wires the parsers, filters, trigger machine and writer
// for one relay connection.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"go.uber.org/atomic"
	"go.uber.org/zap"

	"devsyslog/internal/emit"
	"devsyslog/internal/filter"
	"devsyslog/internal/legacy"
	"devsyslog/internal/ostrace"
	"devsyslog/internal/trigger"
)

// ErrModeMismatch is returned when a session that consumed one wire format
// is fed the other.
var ErrModeMismatch = errors.New("session already consumes the other stream format")

type mode int

const (
	modeUnset mode = iota
	modeLegacy
	modeTrace
)

// Options configures a Session.
type Options struct {
	Filters        *filter.Registry
	Triggers       []string
	Untriggers     []string
	ShowDeviceName bool
	Output         io.Writer
	Colors         emit.ColorMode
	Logger         *zap.SugaredLogger
	// Location is used to render trace timestamps. Defaults to time.Local.
	Location *time.Location
}

// Session owns all per-connection state. It is not safe for concurrent
// feeding; Quit may be called from any goroutine.
type Session struct {
	filters    *filter.Registry
	trig       *trigger.Machine
	asm        *legacy.Assembler
	out        *emit.Writer
	log        *zap.SugaredLogger
	loc        *time.Location
	showDevice bool

	mode mode
	quit atomic.Bool
}

// New builds a session from opts.
func New(opts Options) *Session {
	filters := opts.Filters
	if filters == nil {
		filters = filter.New()
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	loc := opts.Location
	if loc == nil {
		loc = time.Local
	}
	out := opts.Output
	if out == nil {
		out = io.Discard
	}
	return &Session{
		filters:    filters,
		trig:       trigger.New(opts.Triggers, opts.Untriggers),
		asm:        legacy.NewAssembler(),
		out:        emit.New(out, opts.Colors),
		log:        logger,
		loc:        loc,
		showDevice: opts.ShowDeviceName,
	}
}

// IsArmed reports the trigger state.
func (s *Session) IsArmed() bool {
	return s.trig.Armed()
}

// ShouldQuit reports whether the session was asked to stop.
func (s *Session) ShouldQuit() bool {
	return s.quit.Load()
}

// Quit asks the session to stop after the record in flight.
func (s *Session) Quit() {
	s.quit.Store(true)
}

// Notice writes an uncoloured status line such as a connection notice.
func (s *Session) Notice(format string, args ...any) error {
	return s.out.Line(fmt.Sprintf(format, args...))
}

func (s *Session) setMode(m mode) error {
	if s.mode == modeUnset {
		s.mode = m
		return nil
	}
	if s.mode != m {
		return ErrModeMismatch
	}
	return nil
}

// DropPartial discards a partially assembled legacy record, for use when
// the underlying stream is replaced.
func (s *Session) DropPartial() {
	s.asm.Reset()
}

// FeedLegacy consumes one byte of the legacy stream. Input is ignored once
// the session has quit.
func (s *Session) FeedLegacy(b byte) error {
	_, err := s.feedLegacy(b)
	return err
}

func (s *Session) feedLegacy(b byte) (bool, error) {
	if err := s.setMode(modeLegacy); err != nil {
		return false, err
	}
	if s.ShouldQuit() {
		return false, nil
	}
	rec, ok := s.asm.Feed(b)
	if !ok {
		return false, nil
	}
	return true, s.handleLegacy(rec)
}

// FeedTrace consumes one whole trace packet. Malformed packets are logged
// and skipped; packets after a quit are ignored.
func (s *Session) FeedTrace(buf []byte) error {
	if err := s.setMode(modeTrace); err != nil {
		return err
	}
	if s.ShouldQuit() {
		return nil
	}
	pkt, err := ostrace.Parse(buf)
	if err != nil {
		s.log.Warnw("dropping trace packet", "len", len(buf), "error", err)
		return nil
	}
	if !pkt.Header.Expected() {
		s.log.Warnf("unexpected packet data %02x %08x", pkt.Header.Marker, pkt.Header.Type)
	}
	return s.handleTrace(pkt)
}

// RunLegacy feeds r until EOF, cancellation or a quit request. The quit and
// context checks happen after every completed record; a quit requested
// from outside also stops the loop mid-record.
func (s *Session) RunLegacy(ctx context.Context, r io.Reader) error {
	buf := make([]byte, 4096)
	for {
		n, err := r.Read(buf)
		for _, b := range buf[:n] {
			done, ferr := s.feedLegacy(b)
			if ferr != nil {
				return ferr
			}
			if done || s.ShouldQuit() {
				if stop, cerr := s.stopRequested(ctx); stop {
					return cerr
				}
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("read legacy stream: %w", err)
		}
	}
}

// PacketSource yields whole trace packets with their boundaries intact.
type PacketSource interface {
	ReadPacket() ([]byte, error)
}

// RunTrace feeds packets from src until EOF, cancellation or a quit request.
func (s *Session) RunTrace(ctx context.Context, src PacketSource) error {
	for {
		if stop, err := s.stopRequested(ctx); stop {
			return err
		}
		pkt, err := src.ReadPacket()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("read trace packet: %w", err)
		}
		if err := s.FeedTrace(pkt); err != nil {
			return err
		}
	}
}

func (s *Session) stopRequested(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return true, err
	}
	return s.ShouldQuit(), nil
}
