package ostrace

import (
	"fmt"
	"time"
)

// Level is the severity carried in the header level byte.
type Level int

const (
	LevelUnknown Level = iota
	LevelNotice
	LevelInfo
	LevelDebug
	LevelError
	LevelFault
)

// LevelFor maps the wire byte to a Level.
func LevelFor(b uint8) Level {
	switch b {
	case 0x00:
		return LevelNotice
	case 0x01:
		return LevelInfo
	case 0x02:
		return LevelDebug
	case 0x10:
		return LevelError
	case 0x11:
		return LevelFault
	default:
		return LevelUnknown
	}
}

func (l Level) String() string {
	switch l {
	case LevelNotice:
		return "Notice"
	case LevelInfo:
		return "Info"
	case LevelDebug:
		return "Debug"
	case LevelError:
		return "Error"
	case LevelFault:
		return "Fault"
	default:
		return "Unknown"
	}
}

const timestampLayout = "Jan _2 15:04:05"

// FormatTimestamp renders t in loc as "Mon dd hh:mm:ss.uuuuuu".
func FormatTimestamp(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	t = t.In(loc)
	return fmt.Sprintf("%s.%06d", t.Format(timestampLayout), t.Nanosecond()/int(time.Microsecond))
}
