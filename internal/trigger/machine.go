// Package trigger gates record output on trigger and untrigger substrings.
package trigger

import "strings"

// Verdict is the outcome of evaluating one record.
type Verdict int

const (
	// Pass lets the record continue to the message and process filters.
	Pass Verdict = iota
	// Suppress drops the record.
	Suppress
	// Quit drops the record and ends the session.
	Quit
)

func (v Verdict) String() string {
	switch v {
	case Pass:
		return "pass"
	case Suppress:
		return "suppress"
	case Quit:
		return "quit"
	default:
		return "unknown"
	}
}

// Machine tracks whether output is armed.
type Machine struct {
	triggers   []string
	untriggers []string

	armed         bool
	pendingDisarm bool
}

// New builds a machine. It starts armed only when neither triggers nor
// untriggers are configured.
func New(triggers, untriggers []string) *Machine {
	return &Machine{
		triggers:   append([]string(nil), triggers...),
		untriggers: append([]string(nil), untriggers...),
		armed:      len(triggers) == 0 && len(untriggers) == 0,
	}
}

// Armed reports the current state.
func (m *Machine) Armed() bool {
	return m.armed
}

// Configured reports whether any trigger or untrigger is set.
func (m *Machine) Configured() bool {
	return len(m.triggers) > 0 || len(m.untriggers) > 0
}

// Evaluate runs the transition rules for one record. A disarm caused by an
// untrigger only takes effect on Commit so the matching record still prints.
func (m *Machine) Evaluate(message string) Verdict {
	m.pendingDisarm = false
	switch {
	case len(m.untriggers) > 0 && m.armed:
		if containsAny(message, m.untriggers) {
			m.pendingDisarm = true
		}
		return Pass
	case len(m.triggers) > 0 && !m.armed:
		if !containsAny(message, m.triggers) {
			return Suppress
		}
		m.armed = true
		return Pass
	case len(m.triggers) == 0 && len(m.untriggers) > 0 && !m.armed:
		return Quit
	}
	return Pass
}

// Commit applies a pending disarm after the record was emitted.
func (m *Machine) Commit() {
	if m.pendingDisarm {
		m.armed = false
		m.pendingDisarm = false
	}
}

// Discard forgets a pending disarm for a record that was not emitted.
func (m *Machine) Discard() {
	m.pendingDisarm = false
}

func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}
