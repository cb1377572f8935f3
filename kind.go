package vox

// MessageKind classifies a conversation message. It determines both how the
// presentation layer renders the message and which side effects it triggers.
type MessageKind string

const (
	KindText      MessageKind = "text"
	KindError     MessageKind = "error"
	KindToolStart MessageKind = "toolStart"
	KindToolEnd   MessageKind = "toolEnd"
	KindUser      MessageKind = "user"
)

// ParseMessageKind maps a wire `type` value to a MessageKind. An absent or
// unrecognized value falls back to KindText so the client tolerates kinds
// added server-side without a coordinated upgrade.
func ParseMessageKind(raw string) MessageKind {
	switch k := MessageKind(raw); k {
	case KindText, KindError, KindToolStart, KindToolEnd, KindUser:
		return k
	default:
		return KindText
	}
}
