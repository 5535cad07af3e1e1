package claude

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
	apiURL           = "https://api.anthropic.com/v1/messages"
	apiVersion       = "2023-06-01"
	provider         = "claude"
	defaultMaxTokens = 1024
)

// Client implements port.Provider using the Anthropic Messages API.
type Client struct {
	apiKey   string
	model    string
	endpoint string
	client   *http.Client
}

// NewClient creates a Claude client from a provider config.
func NewClient(cfg *config.ProviderConfig) *Client {
	endpoint := apiURL
	if cfg.BaseURL != "" {
		endpoint = strings.TrimRight(cfg.BaseURL, "/") + "/v1/messages"
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
		model = "claude-sonnet-4-20250514"
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

type message struct {
	Role    string      `json:"role"`
	Content interface{} `json:"content"`
}

type messagesRequest struct {
	Model       string    `json:"model"`
	System      string    `json:"system,omitempty"`
	Messages    []message `json:"messages"`
	MaxTokens   int       `json:"max_tokens"`
	Temperature *float64  `json:"temperature,omitempty"`
	Stream      bool      `json:"stream,omitempty"`
}

func (c *Client) Complete(ctx context.Context, req port.CompletionRequest) (*port.CompletionResult, error) {
	if c.apiKey == "" {
		return nil, llm.MissingAPIKey(provider)
	}

	model := req.Model
	if model == "" {
		model = c.model
	}
	body := messagesRequest{
		Model:     model,
		MaxTokens: req.MaxTokens,
		Stream:    req.Stream,
	}
	if body.MaxTokens <= 0 {
		body.MaxTokens = defaultMaxTokens
	}
	if req.Temperature > 0 {
		// Anthropic caps temperature at 1.0
		t := min(req.Temperature, 1.0)
		body.Temperature = &t
	}

	// The system persona travels as a top-level field, not as a message.
	var system []string
	for _, m := range req.Messages {
		if m.Role == domain.RoleSystem {
			system = append(system, m.Content)
			continue
		}
		body.Messages = append(body.Messages, message{Role: string(m.Role), Content: m.Content})
	}
	body.System = strings.Join(system, "\n\n")

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

// Transcribe reads the text off a page image using a vision-capable Claude model.
func (c *Client) Transcribe(ctx context.Context, image []byte, contentType string) (string, error) {
	if c.apiKey == "" {
		return "", llm.MissingAPIKey(provider)
	}

	body := messagesRequest{
		Model:     c.model,
		MaxTokens: 4096,
		Messages: []message{{
			Role: string(domain.RoleUser),
			Content: []map[string]interface{}{
				{
					"type": "image",
					"source": map[string]interface{}{
						"type":       "base64",
						"media_type": contentType,
						"data":       base64.StdEncoding.EncodeToString(image),
					},
				},
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

func (c *Client) post(ctx context.Context, body messagesRequest) (*http.Response, error) {
	bodyBytes, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("anthropic-version", apiVersion)

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

// apiResponse models the Anthropic Messages API response.
type apiResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
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

	var sb strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	if sb.Len() == 0 && len(resp.Content) == 0 {
		return "", &llm.UpstreamError{Provider: provider, Status: http.StatusBadGateway, Message: "empty response: no content blocks"}
	}
	return sb.String(), nil
}

// streamEvent covers the event payloads the stream consumer cares about.
type streamEvent struct {
	Type  string `json:"type"`
	Delta struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"delta"`
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

type fragmentStream struct {
	ctx    context.Context
	body   io.ReadCloser
	events *llm.EventReader
	done   bool
}

func (s *fragmentStream) Next() (string, error) {
	for {
		if s.done {
			return "", io.EOF
		}
		ev, err := s.events.Next()
		if errors.Is(err, io.EOF) {
			s.done = true
			return "", fmt.Errorf("claude stream ended before message_stop: %w", domain.ErrNetwork)
		}
		if err != nil {
			return "", llm.TransportError(s.ctx, provider, err)
		}

		var payload streamEvent
		if err := json.Unmarshal([]byte(ev.Data), &payload); err != nil {
			continue
		}
		switch payload.Type {
		case "content_block_delta":
			if payload.Delta.Type == "text_delta" && payload.Delta.Text != "" {
				return payload.Delta.Text, nil
			}
		case "message_stop":
			s.done = true
			return "", io.EOF
		case "error":
			s.done = true
			if payload.Error.Type == "rate_limit_error" {
				return "", llm.NewRateLimitError(provider, errors.New(payload.Error.Message), 0)
			}
			return "", &llm.UpstreamError{Provider: provider, Status: http.StatusBadGateway, Message: payload.Error.Message}
		}
	}
}

func (s *fragmentStream) Close() error {
	s.done = true
	return s.body.Close()
}
