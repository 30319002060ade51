// Package shell is a minimal bubbletea harness for a single interactive
// conversation: line-buffered input, streamed assistant text, and an
// approval prompt rendered with lipgloss. It is deliberately thin — no
// session/skill/MCP/plugin selectors, no task-progress widgets — just
// raw-mode input and the turn driver's streaming callback and approval
// gate.
package shell

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/yanmxa/gencode/internal/message"
)

var (
	userStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	assistantStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("15"))
	noticeStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Italic(true)
	promptStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("11"))
	errorStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

// Turn is the function the model calls once per submitted line. It
// streams assistant text through onChunk as it arrives and returns once
// the turn reaches a terminal outcome.
type Turn func(ctx context.Context, input string, onChunk func(message.StreamChunk)) (outcome string, reason string, err error)

// Model drives one terminal session: a scrollback of rendered lines, a
// single-line input box, and an optional pending approval prompt. Pass
// Model.Ask as the turn driver's approval callback so a mid-turn
// confirmation renders in this same View loop instead of a separate
// prompt.
type Model struct {
	runTurn    Turn
	program    *tea.Program
	cancel     context.CancelFunc
	input      textinput.Model
	lines      []string
	streaming  strings.Builder
	busy       bool
	quitting   bool
	pending    *approvalRequest
	width      int
	mdRenderer *glamour.TermRenderer
}

type approvalRequest struct {
	id     string
	answer chan bool
}

// New constructs a Model ready to Run. runTurn is called once per
// submitted line.
func New(runTurn Turn) *Model {
	ti := textinput.New()
	ti.Placeholder = "ask vtcode..."
	ti.Focus()
	ti.CharLimit = 0
	ti.Width = 76
	m := &Model{runTurn: runTurn, input: ti, width: 80}
	m.mdRenderer = newMarkdownRenderer(m.width)
	return m
}

// newMarkdownRenderer builds the renderer used to echo a finished assistant
// turn as formatted markdown. Returns nil on failure, in which case the
// caller falls back to the plain assistant style.
func newMarkdownRenderer(width int) *glamour.TermRenderer {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return nil
	}
	return r
}

// Ask blocks until the user answers a pending approval prompt, rendering
// it via the bubbletea View loop. Intended to be passed as
// turn.Options.Approve (through a small adapter in the caller) so the
// turn driver's dispatcher can surface it mid-turn. Ask runs on the turn
// goroutine, not bubbletea's Update goroutine, so the request carries
// its own answer channel rather than mutating m.pending directly.
func (m *Model) Ask(requestID string) bool {
	req := &approvalRequest{id: requestID, answer: make(chan bool, 1)}
	m.program.Send(approvalAskedMsg{req: req})
	return <-req.answer
}

// Run starts the bubbletea program and blocks until the user exits
// (Ctrl+D) or an unrecoverable error occurs.
func (m *Model) Run(ctx context.Context) error {
	m.program = tea.NewProgram(m, tea.WithContext(ctx))
	_, err := m.program.Run()
	return err
}

func (m *Model) Init() tea.Cmd { return textinput.Blink }

type streamChunkMsg message.StreamChunk
type turnDoneMsg struct {
	outcome string
	reason  string
	err     error
}
type approvalAskedMsg struct{ req *approvalRequest }

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.mdRenderer = newMarkdownRenderer(m.width)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case streamChunkMsg:
		if msg.Type == message.ChunkTypeText {
			m.streaming.WriteString(msg.Text)
		}
		return m, nil

	case turnDoneMsg:
		m.busy = false
		if m.streaming.Len() > 0 {
			m.lines = append(m.lines, m.renderAssistantText(m.streaming.String()))
			m.streaming.Reset()
		}
		if msg.err != nil {
			m.lines = append(m.lines, errorStyle.Render("error: "+msg.err.Error()))
		} else if msg.outcome != "completed" {
			m.lines = append(m.lines, noticeStyle.Render(fmt.Sprintf("[%s] %s", msg.outcome, msg.reason)))
		}
		return m, nil

	case approvalAskedMsg:
		m.pending = msg.req
		return m, nil
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.pending != nil {
		switch msg.String() {
		case "y", "Y":
			m.answerPending(true)
		case "n", "N", "esc":
			m.answerPending(false)
		}
		return m, nil
	}

	switch msg.Type {
	case tea.KeyCtrlC:
		if m.cancel != nil {
			m.cancel()
		}
		return m, nil
	case tea.KeyCtrlD:
		m.quitting = true
		return m, tea.Quit
	case tea.KeyEnter:
		line := strings.TrimSpace(m.input.Value())
		if m.busy || line == "" {
			return m, nil
		}
		m.input.Reset()
		m.lines = append(m.lines, userStyle.Render("> "+line))
		return m, m.startTurn(line)
	default:
		if m.busy {
			return m, nil
		}
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
}

// renderAssistantText echoes a completed assistant turn through the
// markdown renderer, falling back to the plain style on a render failure
// or an unset renderer.
func (m *Model) renderAssistantText(text string) string {
	if m.mdRenderer == nil {
		return assistantStyle.Render(text)
	}
	rendered, err := m.mdRenderer.Render(text)
	if err != nil {
		return assistantStyle.Render(text)
	}
	return strings.TrimRight(rendered, "\n")
}

func (m *Model) answerPending(ok bool) {
	if m.pending == nil {
		return
	}
	m.pending.answer <- ok
	m.pending = nil
}

func (m *Model) startTurn(input string) tea.Cmd {
	m.busy = true
	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel

	onChunk := func(c message.StreamChunk) {
		m.program.Send(streamChunkMsg(c))
	}
	return func() tea.Msg {
		outcome, reason, err := m.runTurn(ctx, input, onChunk)
		return turnDoneMsg{outcome: outcome, reason: reason, err: err}
	}
}

func (m *Model) View() string {
	var b strings.Builder
	for _, l := range m.lines {
		b.WriteString(l)
		b.WriteString("\n")
	}
	if m.streaming.Len() > 0 {
		b.WriteString(assistantStyle.Render(m.streaming.String()))
		b.WriteString("\n")
	}
	if m.pending != nil {
		b.WriteString(promptStyle.Render(fmt.Sprintf("approve %s? [y/N] ", m.pending.id)))
	} else if m.quitting {
		b.WriteString(noticeStyle.Render("goodbye"))
	} else if m.busy {
		b.WriteString(noticeStyle.Render("… thinking"))
	} else {
		b.WriteString(m.input.View())
	}
	return b.String()
}
