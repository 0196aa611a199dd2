// Package ostrace decodes packets of the binary trace relay.
package ostrace

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"strings"
	"time"
)

// HeaderSize is the fixed size of the packed header.
const HeaderSize = 0x81

const (
	expectedMarker = 0x02
	typeActivity   = 0x08
	typeLog        = 0x02
)

// ErrMalformedPacket is returned for packets whose declared lengths do not
// fit the buffer.
var ErrMalformedPacket = errors.New("malformed trace packet")

// Header mirrors the packed little-endian packet header.
type Header struct {
	Marker       uint8
	Type         uint32
	HeaderSize   uint32
	PID          uint32
	ProcID       uint64
	ProcUUID     [16]byte
	ProcPathLen  uint16
	AID          uint64
	PAID         uint64
	TimeSec      uint64
	TimeUsec     uint32
	Unk06        uint8
	Level        uint8
	Unk07        [6]uint8
	Timestamp    uint64
	ThreadID     uint32
	Unk13        uint32
	ImageUUID    [16]byte
	ImagePathLen uint16
	MessageLen   uint32
	Offset       uint32
	SubsystemLen uint16
	Unk14        uint16
	CategoryLen  uint16
	Unk15        uint16
	Unk16        uint32
}

// Expected reports whether marker and type hold the values the relay normally sends.
func (h *Header) Expected() bool {
	return h.Marker == expectedMarker && (h.Type == typeActivity || h.Type == typeLog)
}

// Packet is a decoded trace packet.
type Packet struct {
	Header    Header
	ProcPath  string
	ImagePath string
	Message   string
	Subsystem string
	Category  string
}

// Parse decodes buf. Field offsets come only from the header-declared
// lengths, so a packet whose lengths overrun buf is rejected before any
// string is sliced.
func Parse(buf []byte) (*Packet, error) {
	if len(buf) < HeaderSize {
		return nil, fmt.Errorf("%w: %d bytes, need at least %d", ErrMalformedPacket, len(buf), HeaderSize)
	}
	var p Packet
	if err := binary.Read(bytes.NewReader(buf[:HeaderSize]), binary.LittleEndian, &p.Header); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPacket, err)
	}
	h := &p.Header

	lengths := [...]uint64{
		uint64(h.ProcPathLen),
		uint64(h.ImagePathLen),
		uint64(h.MessageLen),
		uint64(h.SubsystemLen),
		uint64(h.CategoryLen),
	}
	total := uint64(h.HeaderSize)
	for _, l := range lengths {
		total += l
	}
	if uint64(h.HeaderSize) < HeaderSize || total > uint64(len(buf)) {
		return nil, fmt.Errorf("%w: header %d + fields %d exceed %d bytes",
			ErrMalformedPacket, h.HeaderSize, total-uint64(h.HeaderSize), len(buf))
	}

	off := uint64(h.HeaderSize)
	fields := [...]*string{&p.ProcPath, &p.ImagePath, &p.Message, &p.Subsystem, &p.Category}
	for i, dst := range fields {
		*dst = cString(buf[off : off+lengths[i]])
		off += lengths[i]
	}
	return &p, nil
}

// cString cuts b at the first NUL.
func cString(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	return string(b)
}

// ShortName returns the part of path after the last '/'.
func ShortName(path string) string {
	if i := strings.LastIndexByte(path, '/'); i >= 0 {
		return path[i+1:]
	}
	return path
}

// ProcessShortName returns the short name of the process path.
func (p *Packet) ProcessShortName() string {
	return ShortName(p.ProcPath)
}

// ImageShortName returns the short name of the image path, or "" when there
// is no image or it names the process itself.
func (p *Packet) ImageShortName() string {
	if p.ImagePath == "" {
		return ""
	}
	short := ShortName(p.ImagePath)
	if short == p.ProcessShortName() {
		return ""
	}
	return short
}

// PID returns the sender pid.
func (p *Packet) PID() int {
	return int(p.Header.PID)
}

// Level returns the decoded severity.
func (p *Packet) Level() Level {
	return LevelFor(p.Header.Level)
}

// Time returns the wall-clock time of the packet.
func (p *Packet) Time() time.Time {
	return time.Unix(int64(p.Header.TimeSec), int64(p.Header.TimeUsec)*int64(time.Microsecond))
}
