// Package tui is a terminal client for a bridge table built on Bubble Tea.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"

	"github.com/lox/bridgetable/internal/client"
	"github.com/lox/bridgetable/internal/protocol"
)

// Sender delivers one payload to the server.
type Sender interface {
	Send(text string) error
}

// EventMsg carries one server event into the model.
type EventMsg client.Event

// DisconnectedMsg is delivered once the event stream ends.
type DisconnectedMsg struct{}

// Model is the Bubble Tea model for a seat at the table.
type Model struct {
	sender Sender
	events <-chan client.Event
	logger *log.Logger

	logViewport viewport.Model
	input       textinput.Model

	lines        []string
	snapshot     *protocol.Snapshot
	admin        bool
	disconnected bool
	quitting     bool
	focusedPane  int // 0 = log, 1 = input

	width       int
	height      int
	initialized bool
}

// New creates a model that sends typed lines through sender and renders
// everything read from events.
func New(sender Sender, events <-chan client.Event, logger *log.Logger) *Model {
	vp := viewport.New(10, 5)
	vp.SetContent("")

	ti := textinput.New()
	ti.Placeholder = "Chat, !command, @action or a card code such as S13"
	ti.Focus()
	ti.CharLimit = 200
	ti.Width = 100
	ti.PromptStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#04B575")).Bold(true)
	ti.TextStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FAFAFA"))
	ti.Prompt = "> "

	return &Model{
		sender:      sender,
		events:      events,
		logger:      logger.WithPrefix("tui"),
		logViewport: vp,
		input:       ti,
		focusedPane: 1,
	}
}

// Init starts the cursor and the event listener.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.waitForEvent())
}

func (m *Model) waitForEvent() tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-m.events
		if !ok {
			return DisconnectedMsg{}
		}
		return EventMsg(ev)
	}
}

// Update handles messages in the TUI
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case EventMsg:
		m.apply(client.Event(msg))
		return m, m.waitForEvent()

	case DisconnectedMsg:
		if !m.disconnected {
			m.disconnected = true
			m.addLine(ErrorStyle.Render("Disconnected from server. Ctrl+C to quit."))
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.logger.Debug("Updating dimensions", "width", m.width, "height", m.height)

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			m.quitting = true
			return m, tea.Sequence(tea.ClearScreen, tea.Quit)
		case "tab":
			if m.focusedPane == 0 {
				m.focusedPane = 1
				m.input.Focus()
			} else {
				m.focusedPane = 0
				m.input.Blur()
			}
		case "enter":
			if m.focusedPane == 1 {
				m.submit(m.input.Value())
				m.input.SetValue("")
			}
		case "up", "k":
			if m.focusedPane == 0 {
				m.logViewport.ScrollUp(1)
			}
		case "down", "j":
			if m.focusedPane == 0 {
				m.logViewport.ScrollDown(1)
			}
		case "pgup":
			if m.focusedPane == 0 {
				m.logViewport.HalfPageUp()
			}
		case "pgdown":
			if m.focusedPane == 0 {
				m.logViewport.HalfPageDown()
			}
		case "home":
			if m.focusedPane == 0 {
				m.logViewport.GotoTop()
			}
		case "end":
			if m.focusedPane == 0 {
				m.logViewport.GotoBottom()
			}
		}
	}

	var cmd tea.Cmd
	if m.focusedPane == 1 {
		m.input, cmd = m.input.Update(msg)
		cmds = append(cmds, cmd)
	}
	m.logViewport, cmd = m.logViewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

// submit sends one typed line.
func (m *Model) submit(line string) {
	payload := Normalize(line)
	if payload == "" {
		return
	}
	if m.disconnected {
		m.addLine(ErrorStyle.Render("Not connected."))
		return
	}
	if err := m.sender.Send(payload); err != nil {
		m.logger.Warn("Send failed", "error", err)
		m.addLine(ErrorStyle.Render(fmt.Sprintf("Send failed: %v", err)))
	}
}

// apply folds one server event into the model.
func (m *Model) apply(ev client.Event) {
	switch ev.Kind {
	case protocol.ServerSnapshot:
		m.snapshot = ev.Snapshot
	case protocol.ServerRejection:
		m.addLine(ErrorStyle.Render(strings.TrimPrefix(ev.Text, string(protocol.RejectionPrefix))))
	case protocol.ServerNotice:
		if isAdminGrant(ev.Text) {
			m.admin = true
		}
		m.addLine(NoticeStyle.Render(ev.Text))
	default:
		m.addLine(GameLogStyle.Render(ev.Text))
	}
}

func isAdminGrant(text string) bool {
	return text == protocol.Notice("You are the admin.") ||
		text == protocol.Private("You are now the admin!")
}

func (m *Model) addLine(line string) {
	m.lines = append(m.lines, line)
	m.logViewport.SetContent(strings.Join(m.lines, "\n"))
	m.logViewport.GotoBottom()
}

// Lines returns the rendered log.
func (m *Model) Lines() []string {
	return append([]string(nil), m.lines...)
}

// Snapshot returns the latest table state, if any.
func (m *Model) Snapshot() *protocol.Snapshot {
	return m.snapshot
}

// IsAdmin reports whether the server has told us we hold the admin role.
func (m *Model) IsAdmin() bool {
	return m.admin
}

// View renders the TUI
func (m *Model) View() string {
	if m.quitting {
		return ""
	}
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	actionContent := m.renderActionPane()
	actionHeight := lipgloss.Height(actionContent)
	actionStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#626262")).
		Width(max(m.width-2, 1)).
		Height(max(actionHeight, 1))
	if m.focusedPane == 1 {
		actionStyle = actionStyle.BorderForeground(lipgloss.Color("#04B575"))
	}
	actionPane := actionStyle.Render(actionContent)

	paneHeight := max(m.height-actionHeight-4, 1)

	sidebarContent := m.renderTablePane()
	sidebarWidth := max(lipgloss.Width(sidebarContent), 30)
	sidebarPane := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#626262")).
		Width(sidebarWidth).
		Height(paneHeight).
		Render(sidebarContent)

	logWidth := max(m.width-sidebarWidth-4, 1)
	m.logViewport.Width = logWidth
	m.logViewport.Height = paneHeight
	if !m.initialized && logWidth > 1 && paneHeight > 1 {
		m.logViewport.GotoBottom()
		m.initialized = true
	}

	logStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#626262")).
		Width(logWidth).
		Height(paneHeight)
	if m.focusedPane == 0 {
		logStyle = logStyle.BorderForeground(lipgloss.Color("#04B575"))
	}
	logPane := logStyle.Render(m.logViewport.View())

	topRow := lipgloss.JoinHorizontal(lipgloss.Top, logPane, sidebarPane)
	return lipgloss.JoinVertical(lipgloss.Top, topRow, actionPane)
}

// renderTablePane draws every seat starting with the viewer, then the seats
// to the left, across and to the right.
func (m *Model) renderTablePane() string {
	var content strings.Builder
	content.WriteString(HeaderStyle.Render(" Table "))
	content.WriteString("\n\n")

	if m.snapshot == nil {
		content.WriteString(InfoStyle.Render("Waiting for the table..."))
		return content.String()
	}

	played := make(map[string]string, len(m.snapshot.Played))
	for _, p := range m.snapshot.Played {
		played[p.Name] = p.Card
	}

	for i, hand := range m.snapshot.Hands {
		name := SeatStyle.Render(hand.Name)
		if i == 0 {
			name = ViewerStyle.Render(hand.Name + " (you)")
		}
		content.WriteString(name)
		if card := played[hand.Name]; card != "" && card != protocol.EmptySlot {
			content.WriteString("  played ")
			content.WriteString(renderCard(card))
		}
		content.WriteString("\n  ")
		content.WriteString(renderHand(hand.Cards))
		content.WriteString("\n\n")
	}

	return content.String()
}

func (m *Model) renderActionPane() string {
	var content strings.Builder

	content.WriteString(m.input.View())
	content.WriteString("\n")

	help := "Tab to scroll log • Enter to send • Ctrl+C to quit"
	if m.focusedPane == 0 {
		help = "Log focused: ↑↓ scroll, PgUp/PgDn half page, Home/End, Tab to input"
	}
	if m.admin {
		help += " • admin: !deal !dummy <name> !scold <name> <text> !shutdown"
	}
	content.WriteString(InfoStyle.Render(help))

	return content.String()
}
