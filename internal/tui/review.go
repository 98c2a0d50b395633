// Package tui is the interactive slot-review screen used by the decide
// command. Each slot can be toggled in or out of the accepted set before
// the decision is applied.
package tui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"

	"planweave/internal/models"
)

type KeyMap struct {
	Up     key.Binding
	Down   key.Binding
	Toggle key.Binding
	Accept key.Binding
	Quit   key.Binding
	Help   key.Binding
}

func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Toggle, k.Accept, k.Quit, k.Help}
}

func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Toggle},
		{k.Accept, k.Quit, k.Help},
	}
}

func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		Toggle: key.NewBinding(
			key.WithKeys(" ", "x"),
			key.WithHelp("space", "toggle slot"),
		),
		Accept: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "apply decision"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c", "esc"),
			key.WithHelp("q", "cancel"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "toggle help"),
		),
	}
}

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true).
			Padding(0, 1)

	cursorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205"))

	acceptedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42"))

	droppedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Strikethrough(true)

	fillerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")).
			Italic(true)
)

// Model drives the review list for one plan's slots.
type Model struct {
	slots    []models.Slot
	accepted []bool
	cursor   int
	keys     KeyMap
	help     help.Model
	width    int

	confirmed bool
	quitting  bool
}

func NewModel(slots []models.Slot) Model {
	accepted := make([]bool, len(slots))
	for i := range accepted {
		accepted[i] = true
	}
	return Model{
		slots:    slots,
		accepted: accepted,
		keys:     DefaultKeyMap(),
		help:     help.New(),
	}
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.quitting = true
			return m, tea.Quit
		case key.Matches(msg, m.keys.Accept):
			m.confirmed = true
			m.quitting = true
			return m, tea.Quit
		case key.Matches(msg, m.keys.Up):
			if m.cursor > 0 {
				m.cursor--
			}
		case key.Matches(msg, m.keys.Down):
			if m.cursor < len(m.slots)-1 {
				m.cursor++
			}
		case key.Matches(msg, m.keys.Toggle):
			if len(m.accepted) > 0 {
				m.accepted[m.cursor] = !m.accepted[m.cursor]
			}
		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
		}
	}

	return m, nil
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	lines := []string{titleStyle.Render("Review proposed slots")}
	lines = append(lines, "")

	for i, slot := range m.slots {
		cursor := "  "
		if i == m.cursor {
			cursor = cursorStyle.Render("> ")
		}

		mark := droppedStyle.Render("[ ]")
		if m.accepted[i] {
			mark = acceptedStyle.Render("[x]")
		}

		label := fmt.Sprintf("%s–%s  %s",
			slot.StartAt.Format("Mon 15:04"),
			slot.EndAt.Format("15:04"),
			slot.Title,
		)
		if slot.TaskID == nil {
			label = fillerStyle.Render(label + "  (new)")
		} else if !m.accepted[i] {
			label = droppedStyle.Render(label)
		}

		lines = append(lines, cursor+mark+" "+label)
	}

	lines = append(lines, "", m.help.View(m.keys))
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

// AcceptedSlotIDs returns the toggled-on slot ids, or nil when every slot
// stayed accepted.
func (m Model) AcceptedSlotIDs() []uuid.UUID {
	all := true
	var ids []uuid.UUID
	for i, ok := range m.accepted {
		if ok {
			ids = append(ids, m.slots[i].SlotID)
		} else {
			all = false
		}
	}
	if all {
		return nil
	}
	return ids
}

// Confirmed reports whether the user applied the decision rather than
// cancelling out.
func (m Model) Confirmed() bool {
	return m.confirmed
}
