package vox

// Notifier receives conversation side effects on behalf of the presentation
// layer. The Conversation invokes both methods from its single dispatch
// goroutine, so implementations never observe concurrent overlapping calls
// and need no internal ordering logic.
type Notifier interface {
	// OnDelta is invoked once per decoded chunk, in wire order within a
	// session. Usage is nil except on deltas carrying token statistics.
	OnDelta(text string, kind MessageKind, usage *Usage)

	// OnUserUtterance is invoked once per finalized user input, before any
	// response delta for that utterance.
	OnUserUtterance(text string)
}

// nopNotifier discards all notifications.
type nopNotifier struct{}

func (nopNotifier) OnDelta(string, MessageKind, *Usage) {}
func (nopNotifier) OnUserUtterance(string)              {}
