package tui

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"devsyslog/internal/app"
	"devsyslog/internal/piddir"
)

type stubController struct {
	dir    *piddir.Directory
	err    error
	params app.PidListParams
	calls  int
}

func (s *stubController) PidList(_ context.Context, params app.PidListParams) (*piddir.Directory, error) {
	s.calls++
	s.params = params
	return s.dir, s.err
}

func loadedModel(t *testing.T, ctrl *stubController) *Model {
	t.Helper()
	m := New(ctrl, "relay:1")
	m.Update(tea.WindowSizeMsg{Width: 80, Height: 40})
	msg := m.Init()()
	m.Update(msg)
	return m
}

func testDirectory() *piddir.Directory {
	return piddir.New(map[string]piddir.Info{
		"1":  {ProcessName: "launchd"},
		"42": {ProcessName: "SpringBoard"},
		"80": {ProcessName: "Mail"},
	})
}

func TestInitLoadsProcesses(t *testing.T) {
	ctrl := &stubController{dir: testDirectory()}
	m := loadedModel(t, ctrl)

	if ctrl.calls != 1 || ctrl.params.Endpoint != "relay:1" || ctrl.params.Timeout != loadTimeout {
		t.Fatalf("unexpected controller usage: calls=%d params=%+v", ctrl.calls, ctrl.params)
	}
	if m.loading {
		t.Fatalf("expected loading to finish")
	}
	if got := len(m.list.Items()); got != 3 {
		t.Fatalf("expected 3 items, got %d", got)
	}
	view := m.View()
	if !strings.Contains(view, "Relay relay:1: 3 processes") || !strings.Contains(view, "launchd") {
		t.Fatalf("unexpected view:\n%s", view)
	}
}

func TestEnterPicksHighlightedProcess(t *testing.T) {
	m := loadedModel(t, &stubController{dir: testDirectory()})

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil {
		t.Fatalf("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatalf("expected tea.QuitMsg")
	}
	chosen := m.Chosen()
	if len(chosen) != 1 || chosen[0].PID != 1 || chosen[0].Name != "launchd" {
		t.Fatalf("unexpected selection %+v", chosen)
	}
}

func TestMarkedProcessesArePicked(t *testing.T) {
	m := loadedModel(t, &stubController{dir: testDirectory()})

	m.Update(tea.KeyMsg{Type: tea.KeyDown})
	m.Update(tea.KeyMsg{Type: tea.KeySpace})
	m.Update(tea.KeyMsg{Type: tea.KeyDown})
	m.Update(tea.KeyMsg{Type: tea.KeySpace})
	if len(m.marked) != 2 {
		t.Fatalf("expected 2 marked, got %v", m.marked)
	}

	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	chosen := m.Chosen()
	if len(chosen) != 2 || chosen[0].PID != 42 || chosen[1].PID != 80 {
		t.Fatalf("unexpected selection %+v", chosen)
	}
}

func TestLoadErrorIsShown(t *testing.T) {
	m := loadedModel(t, &stubController{err: errors.New("connect to relay: refused")})

	view := m.View()
	if !strings.Contains(view, "Error: connect to relay: refused") {
		t.Fatalf("expected error in view:\n%s", view)
	}
	if _, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter}); cmd != nil {
		t.Fatalf("enter without processes must not quit")
	}
}

func TestReloadQueriesAgain(t *testing.T) {
	ctrl := &stubController{dir: testDirectory()}
	m := loadedModel(t, ctrl)

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'r'}})
	if cmd == nil || !m.loading {
		t.Fatalf("expected reload command")
	}
	m.Update(cmd())
	if ctrl.calls != 2 {
		t.Fatalf("expected second query, got %d", ctrl.calls)
	}
}
