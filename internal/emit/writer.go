// Package emit renders coloured records and flushes them one at a time.
package emit

import (
	"bufio"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Segment is a piece of text printed in one colour.
type Segment struct {
	Color Color
	Text  string
}

// Writer serialises records to a sink.
type Writer struct {
	out    *bufio.Writer
	colors bool
}

// New wraps w. In auto mode colours are enabled when the renderer for w
// detects a colour-capable terminal.
func New(w io.Writer, mode ColorMode) *Writer {
	return &Writer{
		out:    bufio.NewWriter(w),
		colors: colorsEnabled(w, mode),
	}
}

func colorsEnabled(w io.Writer, mode ColorMode) bool {
	switch mode {
	case ColorAlways:
		return true
	case ColorNever:
		return false
	}
	return lipgloss.NewRenderer(w).ColorProfile() != termenv.Ascii
}

// WriteRecord writes every segment preceded by its escape, closes the record
// with a reset unless the last segment already is one, and flushes.
func (w *Writer) WriteRecord(segs ...Segment) error {
	for _, s := range segs {
		if w.colors {
			w.out.WriteString(escape(s.Color))
		}
		w.out.WriteString(s.Text)
	}
	if w.colors && (len(segs) == 0 || segs[len(segs)-1].Color != Reset) {
		w.out.WriteString(resetSeq)
	}
	return w.out.Flush()
}

// Line writes an uncoloured status line.
func (w *Writer) Line(text string) error {
	w.out.WriteString(text)
	w.out.WriteByte('\n')
	return w.out.Flush()
}
