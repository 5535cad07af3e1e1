package openai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"interviewgpt/internal/config"
	"interviewgpt/internal/domain"
	"interviewgpt/internal/llm"
	"interviewgpt/internal/port"
)

const (
	apiURL   = "https://api.openai.com/v1/chat/completions"
	provider = "openai"
)

// Client implements port.Provider using the OpenAI Chat Completions API.
type Client struct {
	apiKey   string
	model    string
	endpoint string
	client   *http.Client
}

// NewClient creates an OpenAI client from a provider config.
func NewClient(cfg *config.ProviderConfig) *Client {
	endpoint := apiURL
	if cfg.BaseURL != "" {
		endpoint = strings.TrimRight(cfg.BaseURL, "/") + "/chat/completions"
	}
	return newClient(cfg, endpoint)
}

// NewClientWithEndpoint creates a client pointing at a custom API endpoint (for testing).
func NewClientWithEndpoint(cfg *config.ProviderConfig, endpoint string) *Client {
	return newClient(cfg, endpoint)
}

func newClient(cfg *config.ProviderConfig, endpoint string) *Client {
	model := cfg.Model
	if model == "" {
		model = "gpt-4o-mini"
	}
	timeout := cfg.Timeout()
	if timeout == 0 {
		timeout = 120 * time.Second
	}
	return &Client{
		apiKey:   cfg.APIKey,
		model:    model,
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
	}
}

type chatMessage struct {
	Role    string      `json:"role"`
	Content interface{} `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature *float64      `json:"temperature,omitempty"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Stream      bool          `json:"stream,omitempty"`
}

func (c *Client) Complete(ctx context.Context, req port.CompletionRequest) (*port.CompletionResult, error) {
	if c.apiKey == "" {
		return nil, llm.MissingAPIKey(provider)
	}

	model := req.Model
	if model == "" {
		model = c.model
	}
	body := chatRequest{
		Model:     model,
		MaxTokens: req.MaxTokens,
		Stream:    req.Stream,
	}
	if req.Temperature > 0 {
		t := req.Temperature
		body.Temperature = &t
	}
	for _, m := range req.Messages {
		body.Messages = append(body.Messages, chatMessage{Role: string(m.Role), Content: m.Content})
	}

	resp, err := c.post(ctx, body)
	if err != nil {
		return nil, err
	}

	if req.Stream {
		return &port.CompletionResult{
			Fragments: &fragmentStream{ctx: ctx, body: resp.Body, events: llm.NewEventReader(resp.Body)},
			Model:     model,
		}, nil
	}

	defer func() { _ = resp.Body.Close() }()
	text, err := readText(ctx, resp.Body)
	if err != nil {
		return nil, err
	}
	return &port.CompletionResult{Text: text, Model: model}, nil
}

// Transcribe reads the text off a page image using the vision-capable chat model.
func (c *Client) Transcribe(ctx context.Context, image []byte, contentType string) (string, error) {
	if c.apiKey == "" {
		return "", llm.MissingAPIKey(provider)
	}

	dataURI := fmt.Sprintf("data:%s;base64,%s", contentType, base64.StdEncoding.EncodeToString(image))
	body := chatRequest{
		Model: c.model,
		Messages: []chatMessage{{
			Role: string(domain.RoleUser),
			Content: []map[string]interface{}{
				{"type": "image_url", "image_url": map[string]interface{}{"url": dataURI}},
				{"type": "text", "text": llm.TranscribePrompt},
			},
		}},
	}

	resp, err := c.post(ctx, body)
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()
	return readText(ctx, resp.Body)
}

// post sends the request and returns the response only for 2xx statuses.
func (c *Client) post(ctx context.Context, body chatRequest) (*http.Response, error) {
	bodyBytes, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if body.Stream {
		req.Header.Set("Accept", "text/event-stream")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, llm.TransportError(ctx, provider, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer func() { _ = resp.Body.Close() }()
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
		return nil, llm.StatusError(provider, resp, respBody)
	}
	return resp, nil
}

// apiResponse models the OpenAI Chat Completions API response.
type apiResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
}

func readText(ctx context.Context, r io.Reader) (string, error) {
	respBody, err := io.ReadAll(r)
	if err != nil {
		return "", llm.TransportError(ctx, provider, err)
	}

	var resp apiResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return "", &llm.UpstreamError{Provider: provider, Status: http.StatusBadGateway, Message: "malformed response body"}
	}
	if len(resp.Choices) == 0 {
		return "", &llm.UpstreamError{Provider: provider, Status: http.StatusBadGateway, Message: "empty response: no choices"}
	}
	return resp.Choices[0].Message.Content, nil
}

// streamChunk models one chat.completion.chunk event.
type streamChunk struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

type fragmentStream struct {
	ctx      context.Context
	body     io.ReadCloser
	events   *llm.EventReader
	finished bool
	done     bool
}

func (s *fragmentStream) Next() (string, error) {
	for {
		if s.done {
			return "", io.EOF
		}
		ev, err := s.events.Next()
		if errors.Is(err, io.EOF) {
			s.done = true
			if s.finished {
				return "", io.EOF
			}
			return "", fmt.Errorf("openai stream ended before completion: %w", domain.ErrNetwork)
		}
		if err != nil {
			return "", llm.TransportError(s.ctx, provider, err)
		}
		if ev.Data == "[DONE]" {
			s.done = true
			return "", io.EOF
		}

		var chunk streamChunk
		if err := json.Unmarshal([]byte(ev.Data), &chunk); err != nil {
			continue
		}
		if chunk.Error != nil {
			s.done = true
			return "", &llm.UpstreamError{Provider: provider, Status: http.StatusBadGateway, Message: chunk.Error.Message}
		}
		if len(chunk.Choices) == 0 {
			continue
		}
		if chunk.Choices[0].FinishReason != "" {
			s.finished = true
		}
		if text := chunk.Choices[0].Delta.Content; text != "" {
			return text, nil
		}
	}
}

func (s *fragmentStream) Close() error {
	s.done = true
	return s.body.Close()
}
