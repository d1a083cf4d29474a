package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NunoFAntunes/realtor-buddy/internal/apperrors"
	"github.com/NunoFAntunes/realtor-buddy/internal/config"
)

func testOpenAIConfig(base string) config.OpenAIConfig {
	return config.OpenAIConfig{
		APIKey:          "sk-test",
		APIBase:         base,
		ChatModel:       "test-model",
		ChatTemperature: 0.1,
		ChatMaxTokens:   256,
		ChatExtraBody:   `{"chat_template_kwargs":{"thinking":false}}`,
		Timeout:         time.Second,
	}
}

func TestOpenAIGenerate(t *testing.T) {
	var got ChatCompletionRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id":"1","choices":[{"index":0,"message":{"role":"assistant","content":"SELECT * FROM agency_properties"}}],"usage":{"prompt_tokens":10,"completion_tokens":5}}`)
	}))
	defer srv.Close()

	gen := NewOpenAIGenerator(testOpenAIConfig(srv.URL), nil)
	sql, err := gen.Generate(context.Background(), GenerationRequest{Prompt: "find flats", Attempt: 1})
	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM agency_properties", sql)

	assert.Equal(t, "test-model", got.Model)
	assert.InDelta(t, 0.1, got.Temperature, 1e-9)
	assert.Equal(t, 256, got.MaxTokens)
	assert.False(t, got.Stream)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "system", got.Messages[0].Role)
	assert.Equal(t, "find flats", got.Messages[1].Content)
	assert.Contains(t, got.ExtraBody, "chat_template_kwargs")
}

func TestOpenAIGenerateStream(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "text/event-stream", r.Header.Get("Accept"))
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"role\":\"assistant\",\"reasoning_content\":\"thinking...\"}}]}\n\n")
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\"SELECT id \"}}]}\n\n")
		fmt.Fprint(w, "data: not json\n\n")
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\"FROM agency_properties\"},\"finish_reason\":\"stop\"}]}\n\n")
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	defer srv.Close()

	cfg := testOpenAIConfig(srv.URL)
	cfg.Stream = true
	gen := NewOpenAIGenerator(cfg, nil)

	sql, err := gen.Generate(context.Background(), GenerationRequest{Prompt: "p"})
	require.NoError(t, err)
	assert.Equal(t, "SELECT id FROM agency_properties", sql)
}

func TestOpenAIGenerateErrors(t *testing.T) {
	t.Run("status", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "overloaded", http.StatusServiceUnavailable)
		}))
		defer srv.Close()

		_, err := NewOpenAIGenerator(testOpenAIConfig(srv.URL), nil).Generate(context.Background(), GenerationRequest{})
		assert.ErrorIs(t, err, apperrors.ErrGeneration)
		assert.Contains(t, err.Error(), "503")
	})

	t.Run("empty", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"choices":[{"message":{"role":"assistant","content":"   "}}]}`)
		}))
		defer srv.Close()

		_, err := NewOpenAIGenerator(testOpenAIConfig(srv.URL), nil).Generate(context.Background(), GenerationRequest{})
		assert.ErrorIs(t, err, apperrors.ErrGeneration)
	})

	t.Run("timeout", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			<-r.Context().Done()
		}))
		defer srv.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()
		_, err := NewOpenAIGenerator(testOpenAIConfig(srv.URL), nil).Generate(ctx, GenerationRequest{})
		assert.ErrorIs(t, err, apperrors.ErrGenerationTimeout)
	})

	t.Run("no key", func(t *testing.T) {
		cfg := testOpenAIConfig("http://127.0.0.1:1")
		cfg.APIKey = ""
		_, err := NewOpenAIGenerator(cfg, nil).Generate(context.Background(), GenerationRequest{})
		assert.ErrorIs(t, err, apperrors.ErrGeneration)
	})
}

func TestOpenAIHealth(t *testing.T) {
	var status atomic.Int32
	status.Store(http.StatusOK)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/models", r.URL.Path)
		w.WriteHeader(int(status.Load()))
	}))
	defer srv.Close()

	gen := NewOpenAIGenerator(testOpenAIConfig(srv.URL+"/"), nil)
	assert.NoError(t, gen.Health(context.Background()))

	status.Store(http.StatusUnauthorized)
	assert.ErrorIs(t, gen.Health(context.Background()), apperrors.ErrGeneration)
}

func TestParserFor(t *testing.T) {
	tests := []struct {
		base      string
		provider  string
		reasoning bool
	}{
		{"https://integrate.api.nvidia.com/v1", providerNVIDIA, true},
		{"https://api.openai.com/v1", providerOpenAI, false},
		{"http://localhost:8000/v1", providerCompatible, false},
	}
	for _, tt := range tests {
		t.Run(tt.provider, func(t *testing.T) {
			parser, provider := parserFor(tt.base)
			assert.Equal(t, tt.provider, provider)
			assert.Equal(t, deltaParser{reasoning: tt.reasoning}, parser)
		})
	}
}

func TestDeltaParser(t *testing.T) {
	data := []byte(`{"choices":[{"delta":{"content":"a","reasoning_content":"r"},"finish_reason":"stop"}]}`)

	chunk, err := deltaParser{reasoning: true}.ParseChunk(data)
	require.NoError(t, err)
	assert.Equal(t, "a", chunk.Content)
	assert.Equal(t, "r", chunk.ThinkingContent)
	assert.True(t, chunk.Done)

	chunk, err = deltaParser{}.ParseChunk(data)
	require.NoError(t, err)
	assert.Empty(t, chunk.ThinkingContent)

	chunk, err = deltaParser{}.ParseChunk([]byte(`{"choices":[{"delta":{"content":"b"},"finish_reason":null}]}`))
	require.NoError(t, err)
	assert.Equal(t, "b", chunk.Content)
	assert.False(t, chunk.Done)

	_, err = deltaParser{}.ParseChunk([]byte(`{`))
	assert.Error(t, err)
}
