package tui

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"devsyslog/internal/app"
	"devsyslog/internal/piddir"
)

const loadTimeout = 4 * time.Second

// Controller defines the subset of app.App behaviour the browser needs.
type Controller interface {
	PidList(context.Context, app.PidListParams) (*piddir.Directory, error)
}

// Model is the Bubble Tea state of the device process browser.
type Model struct {
	controller Controller
	endpoint   string

	list    list.Model
	entries []piddir.Entry
	marked  map[int]bool
	chosen  []piddir.Entry

	err     error
	loading bool

	width  int
	height int

	lastUpdated time.Time
}

// New constructs a browser for the relay at endpoint.
func New(ctrl Controller, endpoint string) *Model {
	delegate := list.NewDefaultDelegate()
	lst := list.New([]list.Item{}, delegate, 0, 0)
	lst.Title = "Device processes"
	lst.SetShowHelp(false)
	lst.SetStatusBarItemName("process", "processes")
	lst.DisableQuitKeybindings()

	return &Model{
		controller: ctrl,
		endpoint:   endpoint,
		list:       lst,
		loading:    true,
		marked:     make(map[int]bool),
	}
}

// Run shows the browser and returns the processes the user picked. The
// result is empty when the user quit without choosing.
func Run(ctrl Controller, endpoint string) ([]piddir.Entry, error) {
	prog := tea.NewProgram(New(ctrl, endpoint), tea.WithAltScreen())
	final, err := prog.Run()
	if err != nil {
		return nil, err
	}
	m, ok := final.(*Model)
	if !ok {
		return nil, nil
	}
	return m.Chosen(), nil
}

// Chosen returns the processes picked with enter.
func (m *Model) Chosen() []piddir.Entry {
	return append([]piddir.Entry(nil), m.chosen...)
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return loadProcessesCmd(m.controller, m.endpoint)
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if m.height > 4 {
			m.list.SetSize(msg.Width, msg.Height-4)
		}

	case processesLoadedMsg:
		m.loading = false
		m.err = nil
		m.entries = msg.entries
		marked := make(map[int]bool)
		for _, e := range msg.entries {
			if m.marked[e.PID] {
				marked[e.PID] = true
			}
		}
		m.marked = marked
		m.lastUpdated = time.Now()
		return m, m.list.SetItems(m.items())

	case errMsg:
		m.loading = false
		m.err = msg.err

	case tea.KeyMsg:
		if m.list.SettingFilter() {
			break
		}
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "r":
			m.loading = true
			return m, loadProcessesCmd(m.controller, m.endpoint)
		case " ":
			return m, m.toggleCurrent()
		case "enter":
			m.chosen = m.selection()
			if len(m.chosen) > 0 {
				return m, tea.Quit
			}
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// View implements tea.Model.
func (m *Model) View() string {
	var b strings.Builder

	statusStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42"))
	status := fmt.Sprintf("Relay %s: %d processes", m.endpoint, len(m.entries))
	if m.err != nil {
		statusStyle = statusStyle.Foreground(lipgloss.Color("203"))
		status = fmt.Sprintf("Relay %s unavailable", m.endpoint)
	}
	b.WriteString(statusStyle.Render(status))
	b.WriteByte('\n')

	if m.loading {
		b.WriteString("Loading process list…\n")
	} else if m.err != nil {
		errStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
		b.WriteString(errStyle.Render(fmt.Sprintf("Error: %v", m.err)))
		b.WriteByte('\n')
	}

	if len(m.list.Items()) == 0 && !m.loading && m.err == nil {
		b.WriteString("No processes reported.\n")
	} else {
		b.WriteString(m.list.View())
		b.WriteByte('\n')
	}

	help := "Commands: q quit • r reload • / filter • space mark • enter pick"
	if count := len(m.marked); count > 0 {
		help += fmt.Sprintf(" • marked=%d", count)
	}
	if !m.lastUpdated.IsZero() {
		help += fmt.Sprintf(" • last update %s", m.lastUpdated.Format(time.Kitchen))
	}
	helpStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	b.WriteString(helpStyle.Render(help))

	return b.String()
}

// processItem adapts piddir.Entry to the bubbles list item interface.
type processItem struct {
	Entry  piddir.Entry
	Marked bool
}

func (p processItem) Title() string {
	mark := " "
	if p.Marked {
		mark = "✓"
	}
	return fmt.Sprintf("[%s] %s", mark, valueOrDash(p.Entry.Name))
}

func (p processItem) Description() string {
	return fmt.Sprintf("pid=%d", p.Entry.PID)
}

func (p processItem) FilterValue() string {
	return fmt.Sprintf("%s %d", p.Entry.Name, p.Entry.PID)
}

func (m *Model) items() []list.Item {
	items := make([]list.Item, 0, len(m.entries))
	for _, e := range m.entries {
		items = append(items, processItem{Entry: e, Marked: m.marked[e.PID]})
	}
	return items
}

func (m *Model) toggleCurrent() tea.Cmd {
	item, ok := m.list.SelectedItem().(processItem)
	if !ok {
		return nil
	}
	if m.marked[item.Entry.PID] {
		delete(m.marked, item.Entry.PID)
	} else {
		m.marked[item.Entry.PID] = true
	}
	return m.list.SetItems(m.items())
}

// selection returns the marked processes, or the highlighted one when
// nothing is marked.
func (m *Model) selection() []piddir.Entry {
	if len(m.marked) > 0 {
		out := make([]piddir.Entry, 0, len(m.marked))
		for _, e := range m.entries {
			if m.marked[e.PID] {
				out = append(out, e)
			}
		}
		sort.Slice(out, func(i, j int) bool { return out[i].PID < out[j].PID })
		return out
	}
	if item, ok := m.list.SelectedItem().(processItem); ok {
		return []piddir.Entry{item.Entry}
	}
	return nil
}

func valueOrDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}

type processesLoadedMsg struct {
	entries []piddir.Entry
}

type errMsg struct{ err error }

func (e errMsg) Error() string { return e.err.Error() }

func loadProcessesCmd(ctrl Controller, endpoint string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
		defer cancel()
		dir, err := ctrl.PidList(ctx, app.PidListParams{
			Endpoint: endpoint,
			Timeout:  loadTimeout,
		})
		if err != nil {
			return errMsg{err}
		}
		return processesLoadedMsg{entries: dir.List()}
	}
}
