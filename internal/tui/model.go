// Package tui is the terminal chat surface.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/dialysiscare/carebot/internal/model/chat"
	"github.com/dialysiscare/carebot/internal/model/persona"
	"github.com/dialysiscare/carebot/internal/render"
	chatService "github.com/dialysiscare/carebot/internal/service/chat"
)

const (
	headerHeight = 4
	footerHeight = 4
)

// Options configures the terminal chat.
type Options struct {
	// Markdown renders assistant replies with glamour.
	Markdown bool
}

// Model is the bubbletea model of one conversation.
type Model struct {
	session     *chatService.Session
	persona     persona.Persona
	events      <-chan chat.Event
	unsubscribe func()

	textinput textinput.Model
	viewport  viewport.Model
	spinner   spinner.Model
	styles    Styles
	renderer  *glamour.TermRenderer
	markdown  bool

	snapshot chat.Snapshot
	width    int
	height   int
	err      error
}

type (
	snapshotMsg chat.Snapshot
	eventMsg    chat.Event
	// closedMsg means the subscription channel closed. The session may still be
	// running if it dropped this listener for falling behind.
	closedMsg       struct{}
	sessionEndedMsg struct{}
	subscribedMsg   struct {
		events <-chan chat.Event
		cancel func()
	}
)

// NewModel builds the chat screen for session. events is the session subscription that
// drives re-rendering.
func NewModel(session *chatService.Session, p persona.Persona, events <-chan chat.Event, opts Options) Model {
	styles := DefaultStyles()

	ti := textinput.New()
	ti.Placeholder = p.Placeholder
	ti.Prompt = "│ "
	ti.PromptStyle = styles.Prompt
	ti.CharLimit = 2000
	ti.Width = 76
	ti.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styles.Spinner

	m := Model{
		session:   session,
		persona:   p,
		events:    events,
		textinput: ti,
		viewport:  viewport.New(80, 16),
		spinner:   sp,
		styles:    styles,
		markdown:  opts.Markdown,
	}
	if m.markdown {
		m.renderer = newRenderer(80)
	}
	return m
}

func newRenderer(width int) *glamour.TermRenderer {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return nil
	}
	return r
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(
		textinput.Blink,
		m.spinner.Tick,
		m.refresh(),
		waitForEvent(m.events),
	)
}

// refresh loads the current snapshot from the session loop.
func (m Model) refresh() tea.Cmd {
	session := m.session
	return func() tea.Msg {
		snap, err := session.Snapshot()
		if err != nil {
			return sessionEndedMsg{}
		}
		return snapshotMsg(snap)
	}
}

// resubscribe replaces a lost subscription, or reports that the session is gone.
func (m Model) resubscribe() tea.Cmd {
	session := m.session
	return func() tea.Msg {
		events, cancel, err := session.Subscribe()
		if err != nil {
			return sessionEndedMsg{}
		}
		return subscribedMsg{events: events, cancel: cancel}
	}
}

func waitForEvent(events <-chan chat.Event) tea.Cmd {
	if events == nil {
		return nil
	}
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return closedMsg{}
		}
		return eventMsg(ev)
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var (
		tiCmd tea.Cmd
		vpCmd tea.Cmd
		spCmd tea.Cmd
	)

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyEnter:
			// Alt+Enter is the terminal's Shift+Enter and does not send
			if !msg.Alt {
				return m.handleSubmit()
			}
			return m, nil
		}

		m.textinput, tiCmd = m.textinput.Update(msg)
		if err := m.session.SetInput(m.textinput.Value()); err != nil {
			m.err = err
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.viewport.Width = max(msg.Width-2, 10)
		m.viewport.Height = max(msg.Height-headerHeight-footerHeight, 3)
		m.textinput.Width = max(msg.Width-4, 10)
		if m.markdown {
			m.renderer = newRenderer(max(msg.Width-6, 20))
		}
		m.syncViewport()

	case spinner.TickMsg:
		m.spinner, spCmd = m.spinner.Update(msg)
		return m, spCmd

	case eventMsg:
		return m, tea.Batch(m.refresh(), waitForEvent(m.events))

	case snapshotMsg:
		m.snapshot = chat.Snapshot(msg)
		m.syncViewport()

	case closedMsg:
		return m, m.resubscribe()

	case subscribedMsg:
		if m.unsubscribe != nil {
			m.unsubscribe()
		}
		m.events = msg.events
		m.unsubscribe = msg.cancel
		// events missed while unsubscribed are covered by the fresh snapshot
		return m, tea.Batch(m.refresh(), waitForEvent(m.events))

	case sessionEndedMsg:
		return m, tea.Quit
	}

	m.viewport, vpCmd = m.viewport.Update(msg)
	return m, tea.Batch(tiCmd, vpCmd, spCmd)
}

// handleSubmit sends the pending input. Blank input leaves everything as it was.
func (m Model) handleSubmit() (tea.Model, tea.Cmd) {
	accepted, err := m.session.SubmitInput()
	if err != nil {
		m.err = err
		return m, nil
	}
	if !accepted {
		return m, nil
	}
	m.err = nil
	m.textinput.Reset()
	return m, m.refresh()
}

func (m *Model) syncViewport() {
	m.viewport.SetContent(m.renderHistory())
	m.viewport.GotoBottom()
}

func (m Model) renderHistory() string {
	var b strings.Builder
	for i, msg := range m.snapshot.Messages {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(m.renderMessage(msg))
	}
	return b.String()
}

func (m Model) renderMessage(msg chat.Message) string {
	label := m.styles.UserLabel.Render("You")
	body := m.styles.UserBody.Render(msg.Content)
	if msg.Role == chat.RoleAssistant {
		label = m.styles.BotLabel.Render(m.persona.Name)
		body = m.styles.BotBody.Render(m.renderMarkdown(msg.Content))
	}
	return fmt.Sprintf("%s %s\n%s\n", label, m.styles.Time.Render(render.Clock(msg.CreatedAt)), body)
}

func (m Model) renderMarkdown(content string) string {
	if m.renderer == nil {
		return content
	}
	out, err := m.renderer.Render(content)
	if err != nil {
		return content
	}
	return strings.TrimRight(out, "\n")
}

func (m Model) View() string {
	header := lipgloss.JoinVertical(lipgloss.Left,
		m.styles.Header.Render(m.persona.Name)+" "+m.styles.Tagline.Render(m.persona.Title),
		m.styles.Disclaimer.Render(m.persona.Disclaimer),
	)

	status := " "
	if m.snapshot.Typing {
		status = m.spinner.View() + " " + m.styles.Typing.Render(m.persona.Name+" is typing...")
	}
	if m.err != nil {
		status = m.styles.Error.Render(m.err.Error())
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		header,
		m.viewport.View(),
		status,
		m.textinput.View(),
		m.styles.Hint.Render(m.persona.InputHint),
	)
}

// Run opens the terminal chat on session until the user quits.
func Run(session *chatService.Session, p persona.Persona, opts Options) error {
	events, cancel, err := session.Subscribe()
	if err != nil {
		return err
	}
	defer cancel()

	final, err := tea.NewProgram(NewModel(session, p, events, opts), tea.WithAltScreen()).Run()
	if fm, ok := final.(Model); ok && fm.unsubscribe != nil {
		fm.unsubscribe()
	}
	return err
}
