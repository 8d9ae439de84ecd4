// Package tui renders the assistant surface and simulates the domain
// collaborators: the marker list plays the map, the action keys play the
// action bar. Everything it knows about the assistant arrives through
// the read model; there is no business logic here beyond rendering.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jask/wayfind/internal/assist"
	"github.com/jask/wayfind/internal/bus"
	"github.com/jask/wayfind/internal/config"
	"github.com/jask/wayfind/internal/events"
	"github.com/jask/wayfind/internal/store"
)

var (
	titleStyle     = lipgloss.NewStyle().Bold(true)
	bubbleStyle    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	hiddenStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	statusBarStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("252")).Background(lipgloss.Color("236")).Padding(0, 2)
	footerStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("255")).Background(lipgloss.Color("238")).Padding(0, 2)
	selectedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	typingCursor   = "▋"
)

// AssistViewMsg carries the engine's render model into the update loop.
type AssistViewMsg struct {
	View assist.View
}

type historyMsg struct {
	entries []store.ShownMessage
	err     error
}

type appState string

const (
	viewMap     appState = "map"
	viewSearch  appState = "search"
	viewHistory appState = "history"
)

type keyMap struct {
	Select     key.Binding
	Deselect   key.Binding
	Search     key.Binding
	Directions key.Binding
	Save       key.Binding
	Settle     key.Binding
	History    key.Binding
	UpDown     key.Binding
	Quit       key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		Select:     key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "select")),
		Deselect:   key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "deselect")),
		Search:     key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "search")),
		Directions: key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "directions")),
		Save:       key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "save")),
		Settle:     key.NewBinding(key.WithKeys("v"), key.WithHelp("v", "settle viewport")),
		History:    key.NewBinding(key.WithKeys("h"), key.WithHelp("h", "history")),
		UpDown:     key.NewBinding(key.WithKeys("up", "down"), key.WithHelp("↑/↓", "move")),
		Quit:       key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

// App ties the assistant surface to the simulated map.
type App struct {
	ctx      context.Context
	cfg      config.Config
	bus      *bus.Bus
	history  *store.Store
	keys     keyMap
	state    appState
	assist   assist.View
	markers  []events.Item
	visible  []events.Item
	cursor   int
	selected string
	query    string
	entries  []store.ShownMessage
	status   string
	width    int
	height   int
}

func New(ctx context.Context, cfg config.Config, b *bus.Bus, history *store.Store, markers []events.Item) *App {
	return &App{
		ctx:     ctx,
		cfg:     cfg,
		bus:     b,
		history: history,
		keys:    newKeyMap(),
		state:   viewMap,
		markers: markers,
		visible: markers,
	}
}

func (a *App) Init() tea.Cmd {
	return nil
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch m := msg.(type) {
	case AssistViewMsg:
		a.assist = m.View
		return a, nil
	case historyMsg:
		if m.err != nil {
			a.status = fmt.Sprintf("History load failed: %v", m.err)
			a.state = viewMap
			return a, nil
		}
		a.entries = m.entries
		return a, nil
	case tea.WindowSizeMsg:
		a.width = m.Width
		a.height = m.Height
		return a, nil
	case tea.KeyMsg:
		return a.handleKey(m)
	}
	return a, nil
}

func (a *App) handleKey(m tea.KeyMsg) (tea.Model, tea.Cmd) {
	if a.state == viewSearch {
		return a.handleSearchKey(m)
	}
	if a.state == viewHistory {
		switch m.String() {
		case "esc", "h":
			a.state = viewMap
		case "q", "ctrl+c":
			return a, tea.Quit
		}
		return a, nil
	}

	switch m.String() {
	case "q", "ctrl+c":
		return a, tea.Quit
	case "up", "k":
		if a.cursor > 0 {
			a.cursor--
		}
	case "down", "j":
		if a.cursor < len(a.visible)-1 {
			a.cursor++
		}
	case "enter":
		if a.cursor < len(a.visible) {
			item := a.visible[a.cursor]
			a.selected = item.ID
			a.bus.Emit(events.SelectItem, events.SelectItemPayload{Item: item})
		}
	case "esc":
		a.selected = ""
		a.bus.Emit(events.DeselectItem, events.DeselectItemPayload{})
	case "/":
		a.state = viewSearch
		a.query = ""
	case "d":
		a.bus.Emit(events.ActionPressed, events.ActionPressedPayload{Action: "directions"})
	case "s":
		a.bus.Emit(events.ActionPressed, events.ActionPressedPayload{Action: "save"})
	case "v":
		a.bus.Emit(events.ViewportChanged, events.ViewportChangedPayload{
			Viewport: events.Viewport{ZoomKm: 2},
			Markers:  a.visible,
		})
	case "h":
		a.state = viewHistory
		return a, a.loadHistory()
	}
	return a, nil
}

func (a *App) handleSearchKey(m tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.String() {
	case "esc":
		a.state = viewMap
		a.visible = a.markers
		a.cursor = 0
		return a, nil
	case "enter":
		a.state = viewMap
		a.visible = RankMarkers(a.query, a.markers)
		a.cursor = 0
		a.bus.Emit(events.ActionPressed, events.ActionPressedPayload{Action: "search"})
		return a, nil
	case "backspace":
		if len(a.query) > 0 {
			runes := []rune(a.query)
			a.query = string(runes[:len(runes)-1])
		}
		return a, nil
	case "ctrl+c":
		return a, tea.Quit
	}
	switch m.Type {
	case tea.KeyRunes:
		a.query += string(m.Runes)
	case tea.KeySpace:
		a.query += " "
	}
	return a, nil
}

func (a *App) loadHistory() tea.Cmd {
	return func() tea.Msg {
		if a.history == nil {
			return historyMsg{}
		}
		entries, err := a.history.RecentMessages(a.ctx, 20)
		return historyMsg{entries: entries, err: err}
	}
}

func (a *App) View() string {
	var b strings.Builder
	b.WriteString(a.renderAssistant())
	b.WriteString("\n\n")

	switch a.state {
	case viewHistory:
		b.WriteString(a.renderHistory())
	case viewSearch:
		b.WriteString(titleStyle.Render("Search") + "\n")
		b.WriteString("> " + a.query + typingCursor + "\n")
	default:
		b.WriteString(a.renderMarkers())
	}

	b.WriteString("\n")
	b.WriteString(a.renderBar(statusBarStyle, a.status))
	b.WriteString("\n")
	b.WriteString(a.renderBar(footerStyle, a.helpText()))
	return b.String()
}

func (a *App) renderAssistant() string {
	if !a.assist.Visible {
		return hiddenStyle.Render(fmt.Sprintf("(%s is resting — select something to wake them)", a.cfg.UI.AssistantName))
	}
	text := a.assist.CurrentText
	if a.assist.IsTyping {
		text += typingCursor
	}
	if text == "" {
		text = " "
	}
	header := titleStyle.Render(a.cfg.UI.AssistantName)
	return header + "\n" + bubbleStyle.Width(a.bubbleWidth()).Render(text)
}

func (a *App) bubbleWidth() int {
	if a.width == 0 {
		return 60
	}
	w := a.width - 4
	if w < 20 {
		w = 20
	}
	return w
}

func (a *App) renderMarkers() string {
	lines := []string{titleStyle.Render("Nearby")}
	for i, m := range a.visible {
		prefix := "  "
		if i == a.cursor {
			prefix = "> "
		}
		line := prefix + m.Title
		if m.DistanceKm > 0 {
			line += fmt.Sprintf("  (%.1f km)", m.DistanceKm)
		}
		if m.ID == a.selected {
			line = selectedStyle.Render(line)
		}
		lines = append(lines, line)
	}
	if len(a.visible) == 0 {
		lines = append(lines, "  nothing around here")
	}
	return strings.Join(lines, "\n")
}

func (a *App) renderHistory() string {
	lines := []string{titleStyle.Render("What I've said lately")}
	if len(a.entries) == 0 {
		lines = append(lines, "  nothing yet")
	}
	for _, e := range a.entries {
		lines = append(lines, fmt.Sprintf("  %s  %s", e.ShownAt.Local().Format("15:04:05"), e.Text))
	}
	return strings.Join(lines, "\n")
}

func (a *App) helpText() string {
	bindings := []key.Binding{
		a.keys.Select, a.keys.Deselect, a.keys.Search, a.keys.Directions,
		a.keys.Save, a.keys.Settle, a.keys.History, a.keys.UpDown, a.keys.Quit,
	}
	parts := make([]string, 0, len(bindings))
	for _, binding := range bindings {
		help := binding.Help()
		parts = append(parts, help.Key+" "+help.Desc)
	}
	return strings.Join(parts, "  ")
}

func (a *App) renderBar(style lipgloss.Style, text string) string {
	flat := strings.ReplaceAll(text, "\n", " ")
	if a.width == 0 {
		return style.Render(flat)
	}
	if w := lipgloss.Width(flat); w < a.width {
		flat += strings.Repeat(" ", a.width-w)
	}
	return style.Render(flat)
}
