package bubbletea

import (
	"strings"

	"github.com/charmbracelet/glamour"
)

var _ MessageBlock = (*AssistantBlock)(nil)

// AssistantBlock accumulates streamed response text and renders it as
// markdown. The render is cached per width and invalidated on each append.
type AssistantBlock struct {
	content  strings.Builder
	rendered string
	width    int
}

// NewAssistantBlock creates an empty block for streaming assistant text.
func NewAssistantBlock() *AssistantBlock { return &AssistantBlock{} }

// Append adds a text delta from the stream.
func (b *AssistantBlock) Append(text string) {
	b.content.WriteString(text)
	b.rendered = ""
}

// Text returns the accumulated raw text.
func (b *AssistantBlock) Text() string { return b.content.String() }

func (b *AssistantBlock) View(width int) string {
	if b.content.Len() == 0 {
		return ""
	}
	if b.rendered == "" || width != b.width {
		b.width = width
		b.rendered = renderMarkdown(b.content.String(), width)
	}
	return b.rendered
}

// renderMarkdown renders source with glamour, falling back to the raw text
// when the renderer fails.
func renderMarkdown(source string, width int) string {
	if width <= 0 {
		width = 80
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return source
	}
	out, err := r.Render(source)
	if err != nil {
		return source
	}
	return strings.TrimRight(out, "\n")
}
