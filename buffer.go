package vox

// DefaultCapacity is the conversation buffer capacity used when none is
// configured.
const DefaultCapacity = 10

// ConversationBuffer is an ordered, append-only-with-eviction sequence of
// messages with a fixed capacity. Insertion is always at the tail; when an
// append would exceed capacity, entries are evicted from the head until
// exactly capacity remain. This is FIFO eviction over a fixed-capacity
// ordered log, not an LRU: only insertion order matters, access order is
// irrelevant. There is no deduplication and no update-in-place.
//
// The buffer is not safe for concurrent use. The Conversation dispatch
// goroutine is its only writer.
type ConversationBuffer struct {
	capacity int
	messages []Message
}

// NewConversationBuffer creates a buffer holding at most capacity messages.
// A capacity of zero or less selects DefaultCapacity.
func NewConversationBuffer(capacity int) *ConversationBuffer {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &ConversationBuffer{capacity: capacity}
}

// Append inserts msg at the tail, evicting from the head down to capacity.
func (b *ConversationBuffer) Append(msg Message) {
	b.messages = append(b.messages, msg)
	if excess := len(b.messages) - b.capacity; excess > 0 {
		b.messages = append(b.messages[:0], b.messages[excess:]...)
	}
}

// Len returns the number of buffered messages.
func (b *ConversationBuffer) Len() int { return len(b.messages) }

// Capacity returns the fixed capacity.
func (b *ConversationBuffer) Capacity() int { return b.capacity }

// Messages returns a copy of the buffered messages in insertion order.
func (b *ConversationBuffer) Messages() []Message {
	out := make([]Message, len(b.messages))
	copy(out, b.messages)
	return out
}
