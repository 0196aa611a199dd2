// Package legacy parses records of the NUL-terminated syslog relay stream.
package legacy

const growStep = 1024

// Assembler accumulates bytes until the NUL sentinel completes a record.
// At most one record is buffered at a time.
type Assembler struct {
	buf []byte
	n   int
}

// NewAssembler returns an assembler with one growth step of capacity.
func NewAssembler() *Assembler {
	return &Assembler{buf: make([]byte, growStep)}
}

// Feed appends b. When b is the sentinel it returns the completed record
// without the sentinel and resets the cursor. The returned slice aliases the
// internal buffer and is valid until the next call to Feed.
func (a *Assembler) Feed(b byte) ([]byte, bool) {
	if a.n >= len(a.buf)-1 {
		grown := make([]byte, len(a.buf)+growStep)
		copy(grown, a.buf[:a.n])
		a.buf = grown
	}
	a.buf[a.n] = b
	a.n++
	if b != 0 {
		return nil, false
	}
	record := a.buf[:a.n-1]
	a.n = 0
	return record, true
}

// Reset drops any partially assembled record.
func (a *Assembler) Reset() {
	a.n = 0
}
