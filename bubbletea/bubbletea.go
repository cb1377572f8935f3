// Package bubbletea provides a Bubble Tea TUI for the vox chat client.
//
// The tea.Program Update loop is the presentation-side sequencing point:
// conversation callbacks are forwarded into it as messages via
// [Notifier], so rendering state is only ever touched from Update.
package bubbletea

import (
	"context"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/kswierk/vox"
)

// DeltaMsg delivers one decoded response delta to the Update loop.
type DeltaMsg struct {
	Delta vox.Delta
}

// UtteranceMsg delivers a finalized user utterance to the Update loop.
type UtteranceMsg struct {
	Text string
}

// Interface compliance check.
var _ vox.Notifier = (*Notifier)(nil)

// Notifier implements [vox.Notifier] by forwarding conversation callbacks
// into a Bubble Tea program as messages. Program.Send is safe from any
// goroutine and preserves call order, so the conversation's dispatch
// ordering carries through to Update. Callbacks arriving before Attach are
// dropped.
type Notifier struct {
	mu sync.Mutex
	p  *tea.Program
}

// NewNotifier creates an unattached Notifier.
func NewNotifier() *Notifier { return &Notifier{} }

// Attach binds the notifier to a program.
func (n *Notifier) Attach(p *tea.Program) {
	n.mu.Lock()
	n.p = p
	n.mu.Unlock()
}

func (n *Notifier) program() *tea.Program {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.p
}

// OnDelta implements vox.Notifier.
func (n *Notifier) OnDelta(text string, kind vox.MessageKind, usage *vox.Usage) {
	if p := n.program(); p != nil {
		p.Send(DeltaMsg{Delta: vox.Delta{Text: text, Kind: kind, Usage: usage}})
	}
}

// OnUserUtterance implements vox.Notifier.
func (n *Notifier) OnUserUtterance(text string) {
	if p := n.program(); p != nil {
		p.Send(UtteranceMsg{Text: text})
	}
}

// Run creates and runs the Bubble Tea program, attaching the notifier before
// the first callback can arrive. It blocks until the program exits. When the
// context is cancelled the program quits.
func Run(ctx context.Context, m Model, n *Notifier) error {
	p := tea.NewProgram(m, tea.WithAltScreen())
	if n != nil {
		n.Attach(p)
	}
	go func() {
		<-ctx.Done()
		p.Quit()
	}()
	_, err := p.Run()
	return err
}
