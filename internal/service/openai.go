package service

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/NunoFAntunes/realtor-buddy/internal/apperrors"
	"github.com/NunoFAntunes/realtor-buddy/internal/config"
	"github.com/NunoFAntunes/realtor-buddy/internal/logger"
	"github.com/NunoFAntunes/realtor-buddy/internal/utils"
)

const systemPrompt = "You translate real estate searches into PostgreSQL for a Croatian property database. " +
	"Reply with one SQL SELECT statement and nothing else."

// OpenAIGenerator produces SQL through any OpenAI-compatible chat
// completions endpoint.
type OpenAIGenerator struct {
	config      config.OpenAIConfig
	httpClient  *http.Client
	chunkParser StreamChunkParser
	extraBody   map[string]any
	log         *zap.Logger
}

// NewOpenAIGenerator picks the stream parser from the API base URL.
func NewOpenAIGenerator(cfg config.OpenAIConfig, log *zap.Logger) *OpenAIGenerator {
	log = logger.OrNop(log)

	parser, provider := parserFor(cfg.APIBase)
	log.Info("chat completions provider", zap.String("provider", provider), zap.String("api_base", cfg.APIBase))

	var extra map[string]any
	if cfg.ChatExtraBody != "" {
		if err := json.Unmarshal([]byte(cfg.ChatExtraBody), &extra); err != nil {
			log.Warn("ignoring invalid chat extra body", zap.Error(err))
			extra = nil
		}
	}

	return &OpenAIGenerator{
		config:      cfg,
		chunkParser: parser,
		extraBody:   extra,
		httpClient:  &http.Client{Timeout: cfg.Timeout},
		log:         log,
	}
}

func (c *OpenAIGenerator) Name() string { return "openai" }

// ChatCompletionRequest represents a chat completion request
type ChatCompletionRequest struct {
	Model       string         `json:"model"`
	Messages    []ChatMessage  `json:"messages"`
	Temperature float64        `json:"temperature,omitempty"`
	TopP        float64        `json:"top_p,omitempty"`
	MaxTokens   int            `json:"max_tokens,omitempty"`
	Stream      bool           `json:"stream,omitempty"`
	ExtraBody   map[string]any `json:"extra_body,omitempty"`
}

// ChatMessage represents a single message in the conversation
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatCompletionResponse represents the API response
type ChatCompletionResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Index        int         `json:"index"`
		Message      ChatMessage `json:"message"`
		FinishReason string      `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

// Generate sends the prompt and returns the model's raw answer. Reasoning
// tokens are discarded.
func (c *OpenAIGenerator) Generate(ctx context.Context, req GenerationRequest) (string, error) {
	chat := ChatCompletionRequest{
		Messages: []ChatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: req.Prompt},
		},
	}

	var (
		content string
		err     error
	)
	if c.config.Stream {
		var b strings.Builder
		err = c.ChatCompletionStream(ctx, chat, func(chunk *StreamChunk) error {
			b.WriteString(chunk.Content)
			return nil
		})
		content = b.String()
	} else {
		var resp *ChatCompletionResponse
		resp, err = c.ChatCompletion(ctx, chat)
		if err == nil {
			if len(resp.Choices) == 0 {
				err = errors.New("response has no choices")
			} else {
				content = resp.Choices[0].Message.Content
				c.log.Debug("completion usage",
					zap.Int("prompt_tokens", resp.Usage.PromptTokens),
					zap.Int("completion_tokens", resp.Usage.CompletionTokens))
			}
		}
	}
	if err != nil {
		return "", classifyUpstream(ctx, err)
	}

	if strings.TrimSpace(content) == "" {
		return "", fmt.Errorf("%w: empty completion", apperrors.ErrGeneration)
	}
	c.log.Debug("model answer", zap.Int("attempt", req.Attempt), zap.String("content", utils.Truncate(content, 500)))
	return content, nil
}

// ChatCompletion performs a chat completion request
func (c *OpenAIGenerator) ChatCompletion(ctx context.Context, req ChatCompletionRequest) (*ChatCompletionResponse, error) {
	resp, err := c.post(ctx, req, false)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var result ChatCompletionResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return &result, nil
}

// ChatCompletionStream performs a streaming chat completion request,
// reading server-sent events until [DONE] or end of body.
func (c *OpenAIGenerator) ChatCompletionStream(ctx context.Context, req ChatCompletionRequest, callback StreamCallback) error {
	resp, err := c.post(ctx, req, true)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	reader := bufio.NewReader(resp.Body)
	for {
		line, err := reader.ReadBytes('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("failed to read stream: %w", err)
		}
		eof := err != nil

		line = bytes.TrimSpace(line)
		if data, ok := bytes.CutPrefix(line, []byte("data:")); ok {
			data = bytes.TrimSpace(data)
			if bytes.Equal(data, []byte("[DONE]")) {
				return nil
			}
			chunk, perr := c.chunkParser.ParseChunk(data)
			if perr != nil {
				c.log.Warn("failed to parse stream chunk", zap.Error(perr))
			} else if cerr := callback(chunk); cerr != nil {
				return fmt.Errorf("callback error: %w", cerr)
			}
		}
		if eof {
			return nil
		}
	}
}

// Health checks that the API answers an authenticated model listing.
func (c *OpenAIGenerator) Health(ctx context.Context) error {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimRight(c.config.APIBase, "/")+"/models", nil)
	if err != nil {
		return err
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.config.APIKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("%w: %w", apperrors.ErrGeneration, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: models endpoint returned status %d", apperrors.ErrGeneration, resp.StatusCode)
	}
	return nil
}

func (c *OpenAIGenerator) post(ctx context.Context, req ChatCompletionRequest, stream bool) (*http.Response, error) {
	if !c.config.Enabled() {
		return nil, errors.New("OpenAI API is not enabled (missing API key)")
	}
	c.applyDefaults(&req)
	req.Stream = stream

	reqBody, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := strings.TrimRight(c.config.APIBase, "/") + "/chat/completions"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	if stream {
		httpReq.Header.Set("Accept", "text/event-stream")
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		resp.Body.Close()
		return nil, fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, utils.Truncate(string(body), 300))
	}
	return resp, nil
}

func (c *OpenAIGenerator) applyDefaults(req *ChatCompletionRequest) {
	if req.Model == "" {
		req.Model = c.config.ChatModel
	}
	if req.Temperature == 0 && c.config.ChatTemperature > 0 {
		req.Temperature = c.config.ChatTemperature
	}
	if req.TopP == 0 && c.config.ChatTopP > 0 {
		req.TopP = c.config.ChatTopP
	}
	if req.MaxTokens == 0 && c.config.ChatMaxTokens > 0 {
		req.MaxTokens = c.config.ChatMaxTokens
	}
	if req.ExtraBody == nil {
		req.ExtraBody = c.extraBody
	}
}

// classifyUpstream maps transport failures onto the generation sentinels.
func classifyUpstream(ctx context.Context, err error) error {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) ||
		(errors.As(err, &netErr) && netErr.Timeout()) {
		return fmt.Errorf("%w: %w", apperrors.ErrGenerationTimeout, err)
	}
	return fmt.Errorf("%w: %w", apperrors.ErrGeneration, err)
}
