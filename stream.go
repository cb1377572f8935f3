package vox

import "context"

// StreamState indicates where a Stream is in its lifecycle.
type StreamState int

const (
	StateIdle       StreamState = iota // before Next() is ever called
	StateConnecting                    // request issued, awaiting response headers
	StateStreaming                     // mid-stream, receiving deltas
	StateCompleted                     // sentinel seen or server closed cleanly
	StateFailed                        // transport or protocol failure
)

// String returns a short lowercase label for the state.
func (s StreamState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateStreaming:
		return "streaming"
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Stream is a pull-based iterator over decoded deltas. It is finite and not
// restartable. Cancellation flows through the context passed to
// Completer.Stream().
//
// Next() returns the next delta in wire order. It returns io.EOF on normal
// completion (terminal sentinel or clean server close; the sentinel itself is
// consumed, never surfaced). Any other error is terminal and marks the
// stream Failed, so callers can distinguish "server finished" from
// "connection broke". After Close(), Next() returns ErrStreamClosed.
type Stream interface {
	Next() (Delta, error)
	State() StreamState
	Close() error
}

// Completer is a strategy interface for the remote completion service.
type Completer interface {
	// Stream issues a completion request for one user utterance and returns
	// a Stream of decoded deltas.
	Stream(ctx context.Context, utterance string) (Stream, error)
}
