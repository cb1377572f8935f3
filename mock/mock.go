// Package mock provides test doubles for vox interfaces using function fields.
package mock

import (
	"context"

	"github.com/kswierk/vox"
)

// Interface compliance checks.
var (
	_ vox.Completer = (*Completer)(nil)
	_ vox.Stream    = (*Stream)(nil)
	_ vox.Notifier  = (*Notifier)(nil)
)

// Completer is a test double for vox.Completer.
// Set StreamFn before calling Stream.
type Completer struct {
	StreamFn func(ctx context.Context, utterance string) (vox.Stream, error)
}

// Stream delegates to StreamFn.
func (c *Completer) Stream(ctx context.Context, utterance string) (vox.Stream, error) {
	return c.StreamFn(ctx, utterance)
}

// Stream is a test double for vox.Stream.
// NextFn panics when nil to catch missing setup. StateFn and CloseFn are
// nil-safe (zero value and no-op) because test code commonly calls
// defer stream.Close() and these methods rarely need custom behavior.
type Stream struct {
	NextFn  func() (vox.Delta, error)
	StateFn func() vox.StreamState
	CloseFn func() error
}

// Next delegates to NextFn.
func (s *Stream) Next() (vox.Delta, error) {
	return s.NextFn()
}

// State delegates to StateFn. Returns StateIdle when StateFn is nil.
func (s *Stream) State() vox.StreamState {
	if s.StateFn == nil {
		return vox.StateIdle
	}
	return s.StateFn()
}

// Close delegates to CloseFn. Returns nil when CloseFn is not set.
func (s *Stream) Close() error {
	if s.CloseFn == nil {
		return nil
	}
	return s.CloseFn()
}

// Notifier is a test double for vox.Notifier. Nil function fields are no-ops.
type Notifier struct {
	OnDeltaFn         func(text string, kind vox.MessageKind, usage *vox.Usage)
	OnUserUtteranceFn func(text string)
}

// OnDelta delegates to OnDeltaFn.
func (n *Notifier) OnDelta(text string, kind vox.MessageKind, usage *vox.Usage) {
	if n.OnDeltaFn != nil {
		n.OnDeltaFn(text, kind, usage)
	}
}

// OnUserUtterance delegates to OnUserUtteranceFn.
func (n *Notifier) OnUserUtterance(text string) {
	if n.OnUserUtteranceFn != nil {
		n.OnUserUtteranceFn(text)
	}
}
