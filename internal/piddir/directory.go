// Package piddir answers pid and process-name queries against the device
// process list.
package piddir

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strconv"
)

// Info is the per-process metadata reported by the trace relay.
type Info struct {
	ProcessName string `plist:"ProcessName"`
}

// Entry is one listed process.
type Entry struct {
	PID  int
	Name string
}

// Provider fetches the current process list keyed by pid in wire form.
type Provider interface {
	LookupAll(ctx context.Context) (map[string]Info, error)
}

// Directory is an immutable snapshot of one process list query.
type Directory struct {
	entries []Entry
	byPID   map[int]Entry
}

// New indexes raw. Keys that are not the canonical decimal form of a pid are
// ignored, so every pid appears at most once.
func New(raw map[string]Info) *Directory {
	d := &Directory{
		entries: make([]Entry, 0, len(raw)),
		byPID:   make(map[int]Entry, len(raw)),
	}
	for key, info := range raw {
		pid, err := strconv.Atoi(key)
		if err != nil || strconv.Itoa(pid) != key {
			continue
		}
		e := Entry{PID: pid, Name: info.ProcessName}
		d.entries = append(d.entries, e)
		d.byPID[pid] = e
	}
	sort.Slice(d.entries, func(i, j int) bool { return d.entries[i].PID < d.entries[j].PID })
	return d
}

// Fetch queries p once and indexes the result.
func Fetch(ctx context.Context, p Provider) (*Directory, error) {
	raw, err := p.LookupAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch pid list: %w", err)
	}
	return New(raw), nil
}

// List returns all entries sorted by pid ascending.
func (d *Directory) List() []Entry {
	return append([]Entry(nil), d.entries...)
}

// Valid reports whether pid is running.
func (d *Directory) Valid(pid int) bool {
	_, ok := d.byPID[pid]
	return ok
}

// PIDFor returns the lowest pid whose process name equals name.
func (d *Directory) PIDFor(name string) (int, bool) {
	for _, e := range d.entries {
		if e.Name == name {
			return e.PID, true
		}
	}
	return 0, false
}

// WriteList prints one "<pid> <name>" line per entry.
func (d *Directory) WriteList(w io.Writer) error {
	for _, e := range d.entries {
		if _, err := fmt.Fprintf(w, "%d %s\n", e.PID, e.Name); err != nil {
			return err
		}
	}
	return nil
}
