// Package chatd implements [vox.Completer] for the local chat daemon.
//
// The daemon exposes a single completion endpoint: the client POSTs the raw
// utterance as text/plain and the response body is an SSE stream. Each
// `data:` line carries one JSON chunk in the OpenAI streaming shape, and the
// literal payload [DONE] marks normal completion. The connection is opened
// lazily on the first Next() so a fire-and-forget caller observes transport
// failures as stream errors rather than synchronous ones.
package chatd

import (
	"encoding/json"
	"fmt"

	"github.com/kswierk/vox"
)

const (
	defaultBaseURL = "http://127.0.0.1:8440"
	chatPath       = "/chat"

	dataPrefix   = "data: "
	doneSentinel = "[DONE]"
)

// chunk is the wire form of one streamed completion delta.
type chunk struct {
	ID      string        `json:"id"`
	Object  string        `json:"object"`
	Created int64         `json:"created"`
	Model   string        `json:"model"`
	Choices []chunkChoice `json:"choices"`
	Usage   *chunkUsage   `json:"usage,omitempty"`
}

type chunkChoice struct {
	Index int        `json:"index"`
	Delta chunkDelta `json:"delta"`
}

type chunkDelta struct {
	Role    string `json:"role,omitempty"`
	Content string `json:"content,omitempty"`
	Type    string `json:"type,omitempty"`
}

type chunkUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// decodeChunk parses one event payload into a [vox.Delta]. Token text comes
// from choices[0].delta.content (empty when absent) and the kind from
// choices[0].delta.type, falling back to text for absent or unrecognized
// values. A payload that fails to parse, or that has neither choices nor
// usage, is reported as an error so the stream can drop it and keep reading.
func decodeChunk(payload string) (vox.Delta, error) {
	var ck chunk
	if err := json.Unmarshal([]byte(payload), &ck); err != nil {
		return vox.Delta{}, fmt.Errorf("chatd: malformed chunk: %w", err)
	}

	var delta vox.Delta
	if ck.Usage != nil {
		delta.Usage = &vox.Usage{
			PromptTokens:     ck.Usage.PromptTokens,
			CompletionTokens: ck.Usage.CompletionTokens,
			TotalTokens:      ck.Usage.TotalTokens,
		}
	}

	if len(ck.Choices) == 0 {
		if delta.Usage != nil {
			// Usage-only chunk, typically the last one before the sentinel.
			delta.Kind = vox.KindText
			return delta, nil
		}
		return vox.Delta{}, fmt.Errorf("chatd: chunk has no choices")
	}

	delta.Text = ck.Choices[0].Delta.Content
	delta.Kind = vox.ParseMessageKind(ck.Choices[0].Delta.Type)
	return delta, nil
}
