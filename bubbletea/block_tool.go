package bubbletea

import "github.com/charmbracelet/lipgloss"

var _ MessageBlock = (*ToolBlock)(nil)

// ToolBlock renders a tool lifecycle marker (toolStart/toolEnd deltas).
type ToolBlock struct {
	text   string
	ended  bool
	styles Styles
}

// NewToolBlock creates a ToolBlock for a toolStart delta.
func NewToolBlock(text string, styles Styles) *ToolBlock {
	return &ToolBlock{text: text, styles: styles}
}

// End marks the tool as finished, optionally replacing the marker text.
func (b *ToolBlock) End(text string) {
	b.ended = true
	if text != "" {
		b.text = text
	}
}

func (b *ToolBlock) View(width int) string {
	marker := "⚙ "
	if b.ended {
		marker = "✓ "
	}
	text := b.text
	if text == "" {
		text = "tool"
	}
	content := b.styles.Tool.Render(marker + text)
	return lipgloss.NewStyle().Width(width).Render(content)
}
