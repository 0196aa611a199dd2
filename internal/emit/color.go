package emit

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Color names a slot of the record palette.
type Color int

const (
	// NoColor writes the segment without an escape.
	NoColor Color = iota
	Reset
	LightGray
	DarkYellow
	BrightCyan
	Cyan
	Green
	Red
	Yellow
	Magenta
	White
)

// palette uses the 16 basic ANSI indexes so output matches the device tools.
var palette = map[Color]lipgloss.Color{
	LightGray:  lipgloss.Color("7"),
	DarkYellow: lipgloss.Color("3"),
	BrightCyan: lipgloss.Color("14"),
	Cyan:       lipgloss.Color("6"),
	Green:      lipgloss.Color("10"),
	Red:        lipgloss.Color("9"),
	Yellow:     lipgloss.Color("11"),
	Magenta:    lipgloss.Color("13"),
	White:      lipgloss.Color("15"),
}

var resetSeq = termenv.CSI + termenv.ResetSeq + "m"

// escape returns the foreground sequence for c under the ANSI profile.
func escape(c Color) string {
	switch c {
	case NoColor:
		return ""
	case Reset:
		return resetSeq
	}
	lc, ok := palette[c]
	if !ok {
		return ""
	}
	tc := termenv.ANSI.Color(string(lc))
	if tc == nil {
		return ""
	}
	return termenv.CSI + tc.Sequence(false) + "m"
}

// ColorMode selects when escapes are written.
type ColorMode int

const (
	ColorAuto ColorMode = iota
	ColorAlways
	ColorNever
)

func (m ColorMode) String() string {
	switch m {
	case ColorAlways:
		return "always"
	case ColorNever:
		return "never"
	default:
		return "auto"
	}
}

// ParseColorMode accepts auto, always and never.
func ParseColorMode(s string) (ColorMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return ColorAuto, nil
	case "always", "on", "true":
		return ColorAlways, nil
	case "never", "off", "false":
		return ColorNever, nil
	}
	return ColorAuto, fmt.Errorf("invalid color mode %q", s)
}
