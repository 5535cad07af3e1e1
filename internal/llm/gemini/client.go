package gemini

import (
	"context"
	"errors"
	"io"
	"iter"
	"net/http"
	"sync"
	"time"

	"google.golang.org/genai"

	"interviewgpt/internal/config"
	"interviewgpt/internal/domain"
	"interviewgpt/internal/llm"
	"interviewgpt/internal/port"
)

const provider = "gemini"

// Client implements port.Provider using Google's Gemini API through the genai SDK.
type Client struct {
	apiKey  string
	model   string
	baseURL string
	timeout time.Duration

	once    sync.Once
	sdk     *genai.Client
	initErr error
}

// NewClient creates a Gemini client from a provider config. The SDK client is built on first use.
func NewClient(cfg *config.ProviderConfig) *Client {
	return NewClientWithEndpoint(cfg, cfg.BaseURL)
}

// NewClientWithEndpoint creates a client pointing at a custom API base URL (for testing).
func NewClientWithEndpoint(cfg *config.ProviderConfig, baseURL string) *Client {
	model := cfg.Model
	if model == "" {
		model = "gemini-2.0-flash"
	}
	timeout := cfg.Timeout()
	if timeout == 0 {
		timeout = 120 * time.Second
	}
	return &Client{
		apiKey:  cfg.APIKey,
		model:   model,
		baseURL: baseURL,
		timeout: timeout,
	}
}

func (c *Client) sdkClient(ctx context.Context) (*genai.Client, error) {
	c.once.Do(func() {
		c.sdk, c.initErr = genai.NewClient(ctx, &genai.ClientConfig{
			APIKey:      c.apiKey,
			Backend:     genai.BackendGeminiAPI,
			HTTPClient:  &http.Client{Timeout: c.timeout},
			HTTPOptions: genai.HTTPOptions{BaseURL: c.baseURL},
		})
	})
	return c.sdk, c.initErr
}

func (c *Client) Complete(ctx context.Context, req port.CompletionRequest) (*port.CompletionResult, error) {
	if c.apiKey == "" {
		return nil, llm.MissingAPIKey(provider)
	}
	sdk, err := c.sdkClient(ctx)
	if err != nil {
		return nil, err
	}

	model := req.Model
	if model == "" {
		model = c.model
	}
	contents, genCfg := buildRequest(req)

	if !req.Stream {
		resp, err := sdk.Models.GenerateContent(ctx, model, contents, genCfg)
		if err != nil {
			return nil, classify(ctx, err)
		}
		return &port.CompletionResult{Text: resp.Text(), Model: model}, nil
	}

	next, stop := iter.Pull2(sdk.Models.GenerateContentStream(ctx, model, contents, genCfg))
	stream := &fragmentStream{ctx: ctx, next: next, stop: stop}

	// Pull the first chunk now so HTTP-level failures surface from Complete.
	first, err := stream.pull()
	if err != nil && !errors.Is(err, io.EOF) {
		stop()
		return nil, err
	}
	stream.pending = first
	stream.exhausted = errors.Is(err, io.EOF)
	return &port.CompletionResult{Fragments: stream, Model: model}, nil
}

// Transcribe reads the text off a page image with a multimodal Gemini model.
func (c *Client) Transcribe(ctx context.Context, image []byte, contentType string) (string, error) {
	if c.apiKey == "" {
		return "", llm.MissingAPIKey(provider)
	}
	sdk, err := c.sdkClient(ctx)
	if err != nil {
		return "", err
	}

	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromBytes(image, contentType),
			genai.NewPartFromText(llm.TranscribePrompt),
		}, genai.RoleUser),
	}
	resp, err := sdk.Models.GenerateContent(ctx, c.model, contents, nil)
	if err != nil {
		return "", classify(ctx, err)
	}
	return resp.Text(), nil
}

// buildRequest maps chat messages onto Gemini contents. System messages become the system instruction.
func buildRequest(req port.CompletionRequest) ([]*genai.Content, *genai.GenerateContentConfig) {
	genCfg := &genai.GenerateContentConfig{}
	if req.Temperature > 0 {
		genCfg.Temperature = genai.Ptr(float32(req.Temperature))
	}
	if req.MaxTokens > 0 {
		genCfg.MaxOutputTokens = int32(req.MaxTokens)
	}

	var contents []*genai.Content
	for _, m := range req.Messages {
		switch m.Role {
		case domain.RoleSystem:
			genCfg.SystemInstruction = genai.NewContentFromText(m.Content, genai.RoleUser)
		case domain.RoleAssistant:
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleModel))
		default:
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleUser))
		}
	}
	return contents, genCfg
}

// classify maps SDK errors onto the provider error taxonomy.
func classify(ctx context.Context, err error) error {
	code, msg := 0, ""
	var apiErr genai.APIError
	var apiErrPtr *genai.APIError
	switch {
	case errors.As(err, &apiErr):
		code, msg = apiErr.Code, apiErr.Message
	case errors.As(err, &apiErrPtr):
		code, msg = apiErrPtr.Code, apiErrPtr.Message
	default:
		return llm.TransportError(ctx, provider, err)
	}
	if code == http.StatusTooManyRequests {
		return llm.NewRateLimitError(provider, err, 0)
	}
	return &llm.UpstreamError{Provider: provider, Status: code, Message: msg}
}

type fragmentStream struct {
	ctx       context.Context
	next      func() (*genai.GenerateContentResponse, error, bool)
	stop      func()
	pending   string
	exhausted bool
	closed    bool
}

// pull returns the next non-empty chunk text, or io.EOF when the iterator ends.
func (s *fragmentStream) pull() (string, error) {
	for {
		resp, err, ok := s.next()
		if !ok {
			return "", io.EOF
		}
		if err != nil {
			return "", classify(s.ctx, err)
		}
		if resp == nil {
			continue
		}
		if text := resp.Text(); text != "" {
			return text, nil
		}
	}
}

func (s *fragmentStream) Next() (string, error) {
	if s.closed {
		return "", io.EOF
	}
	if s.pending != "" {
		text := s.pending
		s.pending = ""
		return text, nil
	}
	if s.exhausted {
		return "", io.EOF
	}
	text, err := s.pull()
	if err != nil {
		s.exhausted = true
	}
	return text, err
}

func (s *fragmentStream) Close() error {
	if !s.closed {
		s.closed = true
		s.stop()
	}
	return nil
}
