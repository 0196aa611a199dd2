package legacy

import (
	"bytes"
	"math"
)

// TimestampLen is the width of the fixed timestamp prefix, trailing space included.
const TimestampLen = 16

// Kind says how far structured parsing got.
type Kind int

const (
	// KindRaw records are too short or fail the timestamp layout check.
	KindRaw Kind = iota
	// KindNoDevice records have no space after the device name.
	KindNoDevice
	// KindNoProcess records have a device name but no "name[pid] " prefix.
	KindNoProcess
	// KindStructured records were fully split.
	KindStructured
)

// Level is a recognised bracketed level token.
type Level int

const (
	LevelNone Level = iota
	LevelNotice
	LevelError
	LevelWarning
	LevelDebug
)

var levelTokens = []struct {
	level Level
	token string
}{
	{LevelNotice, "<Notice>:"},
	{LevelError, "<Error>:"},
	{LevelWarning, "<Warning>:"},
	{LevelDebug, "<Debug>:"},
}

// String returns the level name without brackets.
func (l Level) String() string {
	switch l {
	case LevelNotice:
		return "Notice"
	case LevelError:
		return "Error"
	case LevelWarning:
		return "Warning"
	case LevelDebug:
		return "Debug"
	default:
		return ""
	}
}

// Span is an offset and length into a record.
type Span struct {
	Off int
	Len int
}

// End returns the offset just past the span.
func (s Span) End() int { return s.Off + s.Len }

// Fields is a view over one record. It does not own the bytes.
type Fields struct {
	rec  []byte
	Kind Kind

	// Device is the device name, starting right after the timestamp.
	Device Span
	// Body is the offset of the text following the device name and its space.
	Body int
	// Name is the process name up to '(' or '['.
	Name Span
	// Decoration covers "(short)[pid] " following Name.
	Decoration Span
	PID        int
	Level      Level
	// LevelToken covers the level token, empty when Level is LevelNone.
	LevelToken Span
	// MessageOff is where the remaining message bytes begin.
	MessageOff int
}

// Record returns the underlying record bytes.
func (f Fields) Record() []byte { return f.rec }

// Bytes returns the bytes covered by s.
func (f Fields) Bytes(s Span) []byte { return f.rec[s.Off:s.End()] }

// Timestamp returns the fixed-width timestamp prefix.
func (f Fields) Timestamp() []byte { return f.rec[:TimestampLen] }

// DeviceName returns the device name.
func (f Fields) DeviceName() string { return string(f.Bytes(f.Device)) }

// BodyText returns everything after the device name. Trigger and message
// filters run against it.
func (f Fields) BodyText() string { return string(f.rec[f.Body:]) }

// ProcessName returns the process name.
func (f Fields) ProcessName() string { return string(f.Bytes(f.Name)) }

// Rest returns the raw bytes following the level token.
func (f Fields) Rest() []byte { return f.rec[f.MessageOff:] }

// Message returns the message text with the separating space removed.
func (f Fields) Message() string {
	rest := f.Rest()
	if f.Level != LevelNone && len(rest) > 0 && rest[0] == ' ' {
		rest = rest[1:]
	}
	return string(rest)
}

// Parse splits a record (without its sentinel) into fields. It never fails;
// Kind reports which fallback applies.
func Parse(rec []byte) Fields {
	f := Fields{rec: rec, Kind: KindRaw}
	if len(rec) < TimestampLen {
		return f
	}
	if rec[3] != ' ' || rec[6] != ' ' || rec[15] != ' ' {
		return f
	}

	f.Kind = KindNoDevice
	devEnd, ok := scan(rec, TimestampLen, len(rec), ' ')
	if !ok {
		return f
	}
	f.Device = Span{Off: TimestampLen, Len: devEnd - TimestampLen}
	f.Body = devEnd + 1

	f.Kind = KindNoProcess
	lb, ok := scan(rec, f.Body, len(rec), '[')
	if !ok {
		return f
	}
	nameEnd := lb
	if paren, ok := scan(rec, f.Body, lb, '('); ok {
		nameEnd = paren
	}
	rb, ok := scan(rec, lb, len(rec), ']')
	if !ok {
		return f
	}
	if rb+1 >= len(rec) || rec[rb+1] != ' ' {
		return f
	}

	f.Kind = KindStructured
	f.Name = Span{Off: f.Body, Len: nameEnd - f.Body}
	f.Decoration = Span{Off: nameEnd, Len: rb + 2 - nameEnd}
	f.PID = parsePID(rec[lb+1 : rb])

	p := rb + 2
	f.MessageOff = p
	for _, lt := range levelTokens {
		if bytes.HasPrefix(rec[p:], []byte(lt.token)) {
			f.Level = lt.level
			f.LevelToken = Span{Off: p, Len: len(lt.token)}
			f.MessageOff = p + len(lt.token)
			break
		}
	}
	return f
}

// scan returns the index of the first c in rec[from:to].
func scan(rec []byte, from, to int, c byte) (int, bool) {
	if from < 0 || from > to || to > len(rec) {
		return 0, false
	}
	i := bytes.IndexByte(rec[from:to], c)
	if i < 0 {
		return 0, false
	}
	return from + i, true
}

// parsePID reads a leading decimal integer the way strtol does and yields
// 0 when there are no digits.
func parsePID(b []byte) int {
	i := 0
	for i < len(b) && (b[i] == ' ' || b[i] == '\t') {
		i++
	}
	neg := false
	if i < len(b) && (b[i] == '-' || b[i] == '+') {
		neg = b[i] == '-'
		i++
	}
	var v int64
	for ; i < len(b) && b[i] >= '0' && b[i] <= '9'; i++ {
		v = v*10 + int64(b[i]-'0')
		if v > math.MaxInt32 {
			v = math.MaxInt32
		}
	}
	if neg {
		v = -v
	}
	return int(v)
}
