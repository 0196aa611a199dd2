// Package relay talks to a forwarded syslog or trace relay service.
package relay

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// Frame types used by the trace relay.
const (
	FrameBigEndian    byte = 1
	FrameLittleEndian byte = 2
	FrameArchive      byte = 3
)

// DefaultMaxFrame bounds a single frame payload.
const DefaultMaxFrame = 64 << 20

var (
	ErrUnexpectedFrame = errors.New("unexpected frame type")
	ErrFrameTooLarge   = errors.New("frame exceeds size limit")
)

// Frame is one type-tagged payload.
type Frame struct {
	Type    byte
	Payload []byte
}

// FrameReader splits the trace relay byte stream into frames, keeping packet
// boundaries intact.
type FrameReader struct {
	r   *bufio.Reader
	max uint32
}

// NewFrameReader reads frames from r.
func NewFrameReader(r io.Reader) *FrameReader {
	return &FrameReader{r: bufio.NewReader(r), max: DefaultMaxFrame}
}

// ReadFrame reads the next frame. A clean end of stream before the type byte
// returns io.EOF; a stream cut inside a frame returns io.ErrUnexpectedEOF.
func (f *FrameReader) ReadFrame() (Frame, error) {
	t, err := f.r.ReadByte()
	if err != nil {
		return Frame{}, err
	}
	var hdr [4]byte
	if _, err := io.ReadFull(f.r, hdr[:]); err != nil {
		return Frame{}, noEOF(err)
	}
	var n uint32
	switch t {
	case FrameBigEndian:
		n = binary.BigEndian.Uint32(hdr[:])
	case FrameLittleEndian, FrameArchive:
		n = binary.LittleEndian.Uint32(hdr[:])
	default:
		return Frame{}, fmt.Errorf("%w %d", ErrUnexpectedFrame, t)
	}
	if n > f.max {
		return Frame{}, fmt.Errorf("%w: %d > %d", ErrFrameTooLarge, n, f.max)
	}
	payload := make([]byte, n)
	if _, err := io.ReadFull(f.r, payload); err != nil {
		return Frame{}, noEOF(err)
	}
	return Frame{Type: t, Payload: payload}, nil
}

// ReadPacket returns the payload of the next log frame.
func (f *FrameReader) ReadPacket() ([]byte, error) {
	fr, err := f.ReadFrame()
	if err != nil {
		return nil, err
	}
	if fr.Type == FrameArchive {
		return nil, fmt.Errorf("%w %d in activity stream", ErrUnexpectedFrame, fr.Type)
	}
	return fr.Payload, nil
}

func noEOF(err error) error {
	if errors.Is(err, io.EOF) {
		return io.ErrUnexpectedEOF
	}
	return err
}
