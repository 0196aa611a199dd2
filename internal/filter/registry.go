package filter

import (
	"strconv"
	"strings"
)

// Registry holds the message and process filters configured for one session.
// It is built once during setup and then only queried.
type Registry struct {
	messages  []string
	reverse   []string
	pids      []int
	names     []string
	excluding bool
}

// New returns an empty registry that lets every record through.
func New() *Registry {
	return &Registry{}
}

// AddMessageFilter adds an include substring.
func (r *Registry) AddMessageFilter(s string) {
	r.messages = append(r.messages, s)
}

// AddReverseMessageFilter adds an exclude substring.
func (r *Registry) AddReverseMessageFilter(s string) {
	r.reverse = append(r.reverse, s)
}

// AddProcessOrPIDFilter splits s on '|' and routes every non-empty token to
// the pid set when it parses as a decimal integer, or to the name set otherwise.
func (r *Registry) AddProcessOrPIDFilter(s string) {
	for _, token := range strings.Split(s, "|") {
		if token == "" {
			continue
		}
		if pid, err := strconv.Atoi(token); err == nil {
			r.pids = append(r.pids, pid)
			continue
		}
		r.names = append(r.names, token)
	}
}

// RemoveProcessName drops every name filter equal to name.
func (r *Registry) RemoveProcessName(name string) {
	kept := r.names[:0]
	for _, n := range r.names {
		if n != name {
			kept = append(kept, n)
		}
	}
	r.names = kept
}

// SetExcluding turns the process filters into a deny list.
func (r *Registry) SetExcluding(excluding bool) {
	r.excluding = excluding
}

// Excluding reports whether the process filters act as a deny list.
func (r *Registry) Excluding() bool {
	return r.excluding
}

// HasProcessFilters reports whether any pid or name filter is configured.
func (r *Registry) HasProcessFilters() bool {
	return len(r.pids) > 0 || len(r.names) > 0
}

// Active reports whether any message or process filter is configured.
func (r *Registry) Active() bool {
	return len(r.messages) > 0 || len(r.reverse) > 0 || r.HasProcessFilters()
}

// PIDs returns a copy of the pid filters in insertion order.
func (r *Registry) PIDs() []int {
	return append([]int(nil), r.pids...)
}

// Names returns a copy of the process-name filters in insertion order.
func (r *Registry) Names() []string {
	return append([]string(nil), r.names...)
}

// MessagePasses applies the include and exclude substring filters to message.
func (r *Registry) MessagePasses(message string) bool {
	if len(r.messages) > 0 && !containsAny(message, r.messages) {
		return false
	}
	return !containsAny(message, r.reverse)
}

// ProcessPasses applies the pid and process-name filters. A name filter
// matches when it starts with name, which mirrors a fixed-length compare
// over the name span of the record.
func (r *Registry) ProcessPasses(pid int, name string) bool {
	if !r.HasProcessFilters() {
		return true
	}
	matched := false
	for _, p := range r.pids {
		if p == pid {
			matched = true
			break
		}
	}
	if !matched {
		for _, n := range r.names {
			if strings.HasPrefix(n, name) {
				matched = true
				break
			}
		}
	}
	return matched != r.excluding
}

func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}
