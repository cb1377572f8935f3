package vox_test

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/kswierk/vox"
	"github.com/kswierk/vox/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// deltaCall records one OnDelta invocation.
type deltaCall struct {
	text  string
	kind  vox.MessageKind
	usage *vox.Usage
}

// recorder is a Notifier that records calls. The Conversation serializes
// all notifications, but the test goroutine reads concurrently, so access
// is guarded.
type recorder struct {
	mu         sync.Mutex
	deltas     []deltaCall
	utterances []string
}

func (r *recorder) notifier() *mock.Notifier {
	return &mock.Notifier{
		OnDeltaFn: func(text string, kind vox.MessageKind, usage *vox.Usage) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.deltas = append(r.deltas, deltaCall{text: text, kind: kind, usage: usage})
		},
		OnUserUtteranceFn: func(text string) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.utterances = append(r.utterances, text)
		},
	}
}

func (r *recorder) deltaCalls() []deltaCall {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]deltaCall(nil), r.deltas...)
}

func (r *recorder) utteranceCalls() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.utterances...)
}

// scriptedStream returns a mock stream yielding the given deltas in order,
// then the final error.
func scriptedStream(deltas []vox.Delta, final error) *mock.Stream {
	i := 0
	return &mock.Stream{
		NextFn: func() (vox.Delta, error) {
			if i < len(deltas) {
				d := deltas[i]
				i++
				return d, nil
			}
			return vox.Delta{}, final
		},
	}
}

// drained waits until no session is outstanding.
func drained(t *testing.T, conv *vox.Conversation) {
	t.Helper()
	require.Eventually(t, func() bool { return conv.InFlight() == 0 },
		5*time.Second, time.Millisecond)
}

func texts(msgs []vox.Message) []string {
	out := make([]string, len(msgs))
	for i, m := range msgs {
		out[i] = m.Text
	}
	return out
}

func TestConversation_SendAppendsUserMessageBeforeResponse(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	completer := &mock.Completer{
		StreamFn: func(_ context.Context, _ string) (vox.Stream, error) {
			<-release
			return scriptedStream(nil, io.EOF), nil
		},
	}
	rec := &recorder{}
	conv := vox.NewConversation(completer, rec.notifier())
	defer conv.Close()

	conv.Send("hello")

	// The user message is in the buffer before any response delta exists.
	require.Eventually(t, func() bool { return len(conv.Messages()) == 1 },
		5*time.Second, time.Millisecond)
	msgs := conv.Messages()
	assert.Equal(t, "hello", msgs[0].Text)
	assert.Equal(t, vox.KindUser, msgs[0].Kind)
	assert.Equal(t, []string{"hello"}, rec.utteranceCalls())
	assert.Empty(t, rec.deltaCalls())

	close(release)
	drained(t, conv)
	assert.Len(t, conv.Messages(), 1)
}

func TestConversation_DeltasDeliveredInWireOrder(t *testing.T) {
	t.Parallel()

	usage := &vox.Usage{PromptTokens: 3, CompletionTokens: 7, TotalTokens: 10}
	completer := &mock.Completer{
		StreamFn: func(_ context.Context, _ string) (vox.Stream, error) {
			return scriptedStream([]vox.Delta{
				{Text: "Hel", Kind: vox.KindText},
				{Text: "lo", Kind: vox.KindText, Usage: usage},
			}, io.EOF), nil
		},
	}
	rec := &recorder{}
	conv := vox.NewConversation(completer, rec.notifier())
	defer conv.Close()

	conv.Send("hi")
	drained(t, conv)

	require.Eventually(t, func() bool { return len(rec.deltaCalls()) == 2 },
		5*time.Second, time.Millisecond)
	calls := rec.deltaCalls()
	assert.Equal(t, deltaCall{text: "Hel", kind: vox.KindText}, calls[0])
	assert.Equal(t, deltaCall{text: "lo", kind: vox.KindText, usage: usage}, calls[1])

	assert.Equal(t, []string{"hi", "Hel", "lo"}, texts(conv.Messages()))
}

func TestConversation_TransportFailureAfterDeltas(t *testing.T) {
	t.Parallel()

	completer := &mock.Completer{
		StreamFn: func(_ context.Context, _ string) (vox.Stream, error) {
			return scriptedStream([]vox.Delta{
				{Text: "one", Kind: vox.KindText},
				{Text: "two", Kind: vox.KindText},
			}, errors.New("connection reset")), nil
		},
	}
	rec := &recorder{}
	conv := vox.NewConversation(completer, rec.notifier())
	defer conv.Close()

	conv.Send("hi")
	drained(t, conv)

	// Exactly 3 notifications: 2 normal deltas plus 1 terminal error.
	require.Eventually(t, func() bool { return len(rec.deltaCalls()) == 3 },
		5*time.Second, time.Millisecond)
	calls := rec.deltaCalls()
	assert.Equal(t, vox.KindText, calls[0].kind)
	assert.Equal(t, vox.KindText, calls[1].kind)
	assert.Equal(t, vox.KindError, calls[2].kind)
	assert.Contains(t, calls[2].text, "connection reset")

	// The two prior deltas are already in the buffer, not retracted.
	msgs := conv.Messages()
	require.Len(t, msgs, 4)
	assert.Equal(t, []string{"hi", "one", "two", calls[2].text}, texts(msgs))
	assert.Equal(t, vox.KindError, msgs[3].Kind)
}

func TestConversation_ConnectFailure(t *testing.T) {
	t.Parallel()

	completer := &mock.Completer{
		StreamFn: func(_ context.Context, _ string) (vox.Stream, error) {
			return nil, errors.New("connection refused")
		},
	}
	rec := &recorder{}
	conv := vox.NewConversation(completer, rec.notifier())
	defer conv.Close()

	conv.Send("hi")
	drained(t, conv)

	require.Eventually(t, func() bool { return len(rec.deltaCalls()) == 1 },
		5*time.Second, time.Millisecond)
	call := rec.deltaCalls()[0]
	assert.Equal(t, vox.KindError, call.kind)
	assert.Contains(t, call.text, "connection refused")
}

func TestConversation_NormalCompletionProducesNoExtraCallback(t *testing.T) {
	t.Parallel()

	completer := &mock.Completer{
		StreamFn: func(_ context.Context, _ string) (vox.Stream, error) {
			return scriptedStream(nil, io.EOF), nil
		},
	}
	rec := &recorder{}
	conv := vox.NewConversation(completer, rec.notifier())
	defer conv.Close()

	conv.Send("hi")
	drained(t, conv)

	assert.Empty(t, rec.deltaCalls())
	assert.Equal(t, []string{"hi"}, texts(conv.Messages()))
}

func TestConversation_TwoConcurrentSessions(t *testing.T) {
	t.Parallel()

	// Session "a" is gated so session "b" completes while "a" is still in
	// flight. Neither cancels the other; both append to the buffer.
	aGate := make(chan struct{})
	completer := &mock.Completer{
		StreamFn: func(_ context.Context, utterance string) (vox.Stream, error) {
			switch utterance {
			case "a":
				i := 0
				return &mock.Stream{
					NextFn: func() (vox.Delta, error) {
						if i == 0 {
							<-aGate
						}
						deltas := []string{"a1", "a2"}
						if i < len(deltas) {
							d := vox.Delta{Text: deltas[i], Kind: vox.KindText}
							i++
							return d, nil
						}
						return vox.Delta{}, io.EOF
					},
				}, nil
			default:
				return scriptedStream([]vox.Delta{
					{Text: "b1", Kind: vox.KindText},
					{Text: "b2", Kind: vox.KindText},
				}, io.EOF), nil
			}
		},
	}
	rec := &recorder{}
	conv := vox.NewConversation(completer, rec.notifier(), vox.WithCapacity(20))
	defer conv.Close()

	conv.Send("a")
	conv.Send("b")

	// "b" finishes while "a" is blocked on its first delta.
	require.Eventually(t, func() bool { return len(rec.deltaCalls()) == 2 },
		5*time.Second, time.Millisecond)
	assert.GreaterOrEqual(t, conv.InFlight(), 1, "session a still outstanding")
	close(aGate)
	drained(t, conv)

	require.Eventually(t, func() bool { return len(rec.deltaCalls()) == 4 },
		5*time.Second, time.Millisecond)

	// Intra-session order holds for both sessions.
	order := make(map[string]int)
	for i, c := range rec.deltaCalls() {
		order[c.text] = i
	}
	assert.Less(t, order["a1"], order["a2"])
	assert.Less(t, order["b1"], order["b2"])

	got := texts(conv.Messages())
	assert.ElementsMatch(t, []string{"a", "b", "a1", "a2", "b1", "b2"}, got)
}

func TestConversation_EvictionAcrossAppends(t *testing.T) {
	t.Parallel()

	completer := &mock.Completer{
		StreamFn: func(_ context.Context, _ string) (vox.Stream, error) {
			return scriptedStream([]vox.Delta{
				{Text: "r1", Kind: vox.KindText},
				{Text: "r2", Kind: vox.KindText},
				{Text: "r3", Kind: vox.KindText},
			}, io.EOF), nil
		},
	}
	conv := vox.NewConversation(completer, nil, vox.WithCapacity(3))
	defer conv.Close()

	conv.Send("hi")
	drained(t, conv)

	require.Eventually(t, func() bool { return len(conv.Messages()) == 3 },
		5*time.Second, time.Millisecond)
	assert.Equal(t, []string{"r1", "r2", "r3"}, texts(conv.Messages()))
}

func TestConversation_CloseIsIdempotent(t *testing.T) {
	t.Parallel()

	completer := &mock.Completer{
		StreamFn: func(_ context.Context, _ string) (vox.Stream, error) {
			return scriptedStream(nil, io.EOF), nil
		},
	}
	conv := vox.NewConversation(completer, nil)

	require.NoError(t, conv.Close())
	require.NoError(t, conv.Close())

	// Send after Close is a no-op, not a panic.
	conv.Send("hi")
	assert.Nil(t, conv.Messages())
}

func TestConversation_CloseAbortsBlockedSession(t *testing.T) {
	t.Parallel()

	completer := &mock.Completer{
		StreamFn: func(ctx context.Context, _ string) (vox.Stream, error) {
			return &mock.Stream{
				NextFn: func() (vox.Delta, error) {
					<-ctx.Done()
					return vox.Delta{}, ctx.Err()
				},
			}, nil
		},
	}
	conv := vox.NewConversation(completer, nil)

	conv.Send("hi")
	require.Eventually(t, func() bool { return conv.InFlight() == 1 },
		5*time.Second, time.Millisecond)

	done := make(chan struct{})
	go func() {
		conv.Close()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Close did not unblock the in-flight session")
	}
}
