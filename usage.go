package vox

// Usage tracks token consumption for one completion as reported by the
// server. It rides on a subset of deltas, typically the terminal one, and is
// immutable once constructed.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}
