package vox

// Delta is one decoded unit of a streamed response: a token fragment plus
// metadata. Produced by the chunk decoder, consumed once, never mutated.
type Delta struct {
	Text     string      // token text, possibly empty
	Kind     MessageKind // KindText when the wire payload omits a type
	Usage    *Usage      // nil except on deltas carrying usage statistics
	Terminal bool        // set on the synthetic final delta of a failed session
}
