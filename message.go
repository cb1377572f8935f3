package vox

import "github.com/google/uuid"

// Message is a conversation buffer entry. Immutable after creation. ID
// establishes identity for equality and ordering only and is never reused.
type Message struct {
	ID   string
	Text string
	Kind MessageKind
}

// NewMessage creates a Message with a fresh unique ID.
func NewMessage(text string, kind MessageKind) Message {
	return Message{ID: uuid.NewString(), Text: text, Kind: kind}
}
