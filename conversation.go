// Package vox implements the streaming-response ingestion core of a
// voice-driven chat client: a server-sent-event completion stream is decoded
// into typed deltas that feed a bounded, ordered conversation buffer
// observed by the presentation layer.
package vox

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
)

// Conversation orchestrates the conversation between the user and a
// Completer. It exclusively owns the ConversationBuffer and routes every
// mutation through a single dispatch goroutine: user utterances and response
// deltas are appended in the order that goroutine receives them, so the
// buffer needs no locking and the Notifier never observes overlapping calls.
//
// Within one session, deltas are delivered in wire order. Two sessions in
// flight at once interleave in dispatch arrival order with no ordering
// guarantee between them.
type Conversation struct {
	completer Completer
	buffer    *ConversationBuffer
	notifier  Notifier
	log       *slog.Logger

	dispatch chan func()
	closing  chan struct{}
	done     chan struct{}

	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	closeOnce sync.Once
	inFlight  atomic.Int32
}

// ConversationOption configures a Conversation.
type ConversationOption func(*Conversation)

// WithCapacity sets the conversation buffer capacity.
// Zero or negative selects DefaultCapacity.
func WithCapacity(n int) ConversationOption {
	return func(c *Conversation) { c.buffer = NewConversationBuffer(n) }
}

// WithLogger sets the logger for session lifecycle events.
func WithLogger(l *slog.Logger) ConversationOption {
	return func(c *Conversation) { c.log = l }
}

// NewConversation creates a Conversation and starts its dispatch goroutine.
// A nil notifier discards notifications. Call Close to release it.
func NewConversation(completer Completer, notifier Notifier, opts ...ConversationOption) *Conversation {
	ctx, cancel := context.WithCancel(context.Background())
	c := &Conversation{
		completer: completer,
		buffer:    NewConversationBuffer(DefaultCapacity),
		notifier:  notifier,
		log:       slog.New(slog.DiscardHandler),
		dispatch:  make(chan func()),
		closing:   make(chan struct{}),
		done:      make(chan struct{}),
		ctx:       ctx,
		cancel:    cancel,
	}
	for _, o := range opts {
		o(c)
	}
	if c.notifier == nil {
		c.notifier = nopNotifier{}
	}
	go c.run()
	return c
}

func (c *Conversation) run() {
	defer close(c.done)
	for {
		select {
		case <-c.closing:
			return
		case fn := <-c.dispatch:
			fn()
		}
	}
}

// deliver marshals fn onto the dispatch goroutine. Once deliver returns true
// the function is already received, so successive deliveries from one
// goroutine run in call order. During shutdown fn is dropped.
func (c *Conversation) deliver(fn func()) bool {
	select {
	case <-c.closing:
		return false
	case c.dispatch <- fn:
		return true
	}
}

// Send finalizes one user utterance: the user message is appended to the
// buffer and announced, then a streaming session starts in the background.
// Send is fire-and-forget: results arrive through the Notifier, and a
// transport failure surfaces as a single error-kind delta rather than a
// return value.
//
// Send never cancels a session already in flight. Two outstanding sessions
// both run to completion and both append to the buffer.
func (c *Conversation) Send(utterance string) {
	select {
	case <-c.closing:
		return
	default:
	}

	// The user message is enqueued before the session goroutine exists, so
	// it always precedes that session's deltas in the buffer.
	c.deliver(func() {
		c.buffer.Append(NewMessage(utterance, KindUser))
		c.notifier.OnUserUtterance(utterance)
	})

	c.wg.Add(1)
	c.inFlight.Add(1)
	go c.session(utterance)
}

// session drives one request/response cycle on its own goroutine so the
// network read never blocks the dispatch goroutine.
func (c *Conversation) session(utterance string) {
	defer c.wg.Done()
	defer c.inFlight.Add(-1)

	stream, err := c.completer.Stream(c.ctx, utterance)
	if err != nil {
		c.log.Warn("session connect failed", "error", err)
		c.forward(Delta{Text: err.Error(), Kind: KindError, Terminal: true})
		return
	}
	defer stream.Close()

	for {
		delta, err := stream.Next()
		if err == io.EOF {
			c.log.Debug("session completed", "state", stream.State())
			return
		}
		if err != nil {
			// Exactly one synthetic terminal delta; deltas already
			// delivered are not retracted.
			c.log.Warn("session failed", "error", err)
			c.forward(Delta{Text: err.Error(), Kind: KindError, Terminal: true})
			return
		}
		c.forward(delta)
	}
}

// forward appends the delta as a message and notifies, on the dispatch
// goroutine.
func (c *Conversation) forward(d Delta) {
	c.deliver(func() {
		c.buffer.Append(NewMessage(d.Text, d.Kind))
		c.notifier.OnDelta(d.Text, d.Kind, d.Usage)
	})
}

// Messages returns a snapshot of the conversation buffer in insertion order.
// The snapshot is taken on the dispatch goroutine so it never observes a
// partial append. Returns nil after Close.
func (c *Conversation) Messages() []Message {
	ch := make(chan []Message, 1)
	if !c.deliver(func() { ch <- c.buffer.Messages() }) {
		return nil
	}
	return <-ch
}

// InFlight reports the number of sessions currently outstanding.
func (c *Conversation) InFlight() int {
	return int(c.inFlight.Load())
}

// Close stops the dispatch goroutine and aborts in-flight sessions. It is
// idempotent and always returns nil.
func (c *Conversation) Close() error {
	c.closeOnce.Do(func() {
		close(c.closing)
		c.cancel()
		c.wg.Wait()
		<-c.done
	})
	return nil
}
