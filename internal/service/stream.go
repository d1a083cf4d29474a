package service

import (
	"encoding/json"
	"strings"
)

// StreamChunk is one decoded server-sent event of a streamed completion.
type StreamChunk struct {
	Content string
	// ThinkingContent holds reasoning tokens from providers that emit them.
	ThinkingContent string
	Role            string
	Done            bool
}

// StreamChunkParser decodes provider-specific stream chunks.
type StreamChunkParser interface {
	ParseChunk(data []byte) (*StreamChunk, error)
}

// StreamCallback is called for each chunk in streaming mode.
type StreamCallback func(chunk *StreamChunk) error

// deltaParser decodes OpenAI-format chunks. Providers only differ in whether
// a reasoning channel travels next to the delta.
type deltaParser struct {
	reasoning bool
}

func (p deltaParser) ParseChunk(data []byte) (*StreamChunk, error) {
	var raw struct {
		Choices []struct {
			Delta struct {
				Role             string `json:"role"`
				Content          string `json:"content"`
				ReasoningContent string `json:"reasoning_content"`
			} `json:"delta"`
			FinishReason *string `json:"finish_reason"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}

	chunk := &StreamChunk{}
	if len(raw.Choices) == 0 {
		return chunk, nil
	}
	choice := raw.Choices[0]
	chunk.Role = choice.Delta.Role
	chunk.Content = choice.Delta.Content
	if p.reasoning {
		chunk.ThinkingContent = choice.Delta.ReasoningContent
	}
	chunk.Done = choice.FinishReason != nil && *choice.FinishReason != ""
	return chunk, nil
}

// Provider names reported in logs.
const (
	providerNVIDIA     = "nvidia"
	providerOpenAI     = "openai"
	providerCompatible = "openai-compatible"
)

// parserFor picks the stream parser for an API base URL. NVIDIA NIM sends
// reasoning_content alongside the answer.
func parserFor(baseURL string) (StreamChunkParser, string) {
	switch {
	case strings.Contains(baseURL, "api.nvidia.com"):
		return deltaParser{reasoning: true}, providerNVIDIA
	case strings.Contains(baseURL, "api.openai.com"):
		return deltaParser{}, providerOpenAI
	default:
		return deltaParser{}, providerCompatible
	}
}
