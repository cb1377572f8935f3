package bubbletea

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/kswierk/vox"
)

var _ tea.Model = Model{}

// Model is the Bubble Tea model for the vox TUI.
type Model struct {
	// Input is the text input component. Exported for test access.
	Input textinput.Model
	// Viewport is the scrollable output area. Exported for test access.
	Viewport viewport.Model

	conv   *vox.Conversation
	theme  vox.Theme
	styles Styles

	blocks []MessageBlock

	// active accumulates consecutive text deltas into one bubble. It is
	// reset whenever a non-text delta or a new utterance arrives.
	active     *AssistantBlock
	activeTool *ToolBlock

	lastUsage *vox.Usage
	streaming bool
	ready     bool
}

// New creates a new TUI Model backed by the given conversation.
func New(conv *vox.Conversation, theme vox.Theme) Model {
	ti := textinput.New()
	ti.Placeholder = "Say something..."
	ti.Prompt = ""
	ti.Focus()
	ti.CharLimit = 0

	return Model{
		Input:  ti,
		conv:   conv,
		theme:  theme,
		styles: NewStyles(theme),
	}
}

// Streaming reports whether a response is currently expected.
func (m Model) Streaming() bool { return m.streaming }

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.handleWindowSize(msg), nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case UtteranceMsg:
		m.blocks = append(m.blocks, NewUserBlock(msg.Text, m.styles))
		m.active = nil
		m.activeTool = nil
		m.streaming = true
		m = m.refreshViewport()
		return m, nil

	case DeltaMsg:
		m = m.processDelta(msg.Delta)
		m = m.refreshViewport()
		return m, nil
	}

	// Pass remaining messages to sub-components.
	var cmds []tea.Cmd
	var cmd tea.Cmd
	m.Viewport, cmd = m.Viewport.Update(msg)
	cmds = append(cmds, cmd)
	m.Input, cmd = m.Input.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Initializing..."
	}

	var b strings.Builder
	b.WriteString(m.Viewport.View())
	b.WriteString("\n")
	b.WriteString(m.statusLine())
	b.WriteString("\n")
	b.WriteString(m.Input.View())
	return b.String()
}

func (m Model) handleWindowSize(msg tea.WindowSizeMsg) Model {
	inputH := 1
	statusH := 1
	borderH := 2 // newlines between sections
	vpHeight := msg.Height - inputH - statusH - borderH
	if vpHeight < 1 {
		vpHeight = 1
	}

	if !m.ready {
		m.Viewport = viewport.New(msg.Width, vpHeight)
		m.Viewport.SetContent(m.renderContent())
		m.Viewport.GotoBottom()
		m.ready = true
	} else {
		m.Viewport.Width = msg.Width
		m.Viewport.Height = vpHeight
	}

	m.Input.Width = msg.Width
	return m
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC:
		return m, tea.Quit

	case tea.KeyEnter:
		text := strings.TrimSpace(m.Input.Value())
		if text == "" {
			return m, nil
		}
		m.Input.SetValue("")
		// Fire-and-forget: no cancellation of an in-flight session. The
		// user message and the response deltas come back as messages via
		// the Notifier.
		m.conv.Send(text)
		return m, nil
	}

	// Forward non-character keys to the viewport for scrolling; 'j'/'k'
	// style keys would conflict with typing.
	var cmds []tea.Cmd
	var cmd tea.Cmd
	if msg.Type != tea.KeyRunes {
		m.Viewport, cmd = m.Viewport.Update(msg)
		cmds = append(cmds, cmd)
	}
	m.Input, cmd = m.Input.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

// processDelta routes one decoded delta to the appropriate block.
func (m Model) processDelta(d vox.Delta) Model {
	if d.Usage != nil {
		m.lastUsage = d.Usage
		// Usage rides on the final content chunk; the response is done.
		m.streaming = false
	}
	if d.Terminal {
		m.streaming = false
	}

	switch d.Kind {
	case vox.KindText:
		if d.Text == "" {
			return m
		}
		if m.active == nil {
			m.active = NewAssistantBlock()
			m.blocks = append(m.blocks, m.active)
		}
		m.active.Append(d.Text)

	case vox.KindError:
		m.blocks = append(m.blocks, NewErrorBlock(d.Text, m.styles))
		m.active = nil
		m.activeTool = nil

	case vox.KindToolStart:
		tool := NewToolBlock(d.Text, m.styles)
		m.blocks = append(m.blocks, tool)
		m.activeTool = tool
		m.active = nil

	case vox.KindToolEnd:
		if m.activeTool != nil {
			m.activeTool.End(d.Text)
			m.activeTool = nil
		} else {
			tool := NewToolBlock(d.Text, m.styles)
			tool.End("")
			m.blocks = append(m.blocks, tool)
		}
		m.active = nil

	case vox.KindUser:
		m.blocks = append(m.blocks, NewUserBlock(d.Text, m.styles))
		m.active = nil
	}
	return m
}

func (m Model) refreshViewport() Model {
	m.Viewport.SetContent(m.renderContent())
	m.Viewport.GotoBottom()
	return m
}

func (m Model) renderContent() string {
	if len(m.blocks) == 0 {
		return ""
	}
	var b strings.Builder
	for i, block := range m.blocks {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(block.View(m.Viewport.Width))
	}
	return b.String()
}

func (m Model) statusLine() string {
	var parts []string
	if m.streaming {
		parts = append(parts, "Responding...")
	} else {
		parts = append(parts, "Enter to send, Ctrl+C to quit")
	}
	if m.lastUsage != nil {
		parts = append(parts, fmt.Sprintf("tokens %d↑ %d↓", m.lastUsage.PromptTokens, m.lastUsage.CompletionTokens))
	}
	return m.styles.Muted.Render(strings.Join(parts, "  ·  "))
}
