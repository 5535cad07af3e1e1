package prompt

import (
	"fmt"
	"strings"

	"interviewgpt/internal/config"
	"interviewgpt/internal/domain"
	"interviewgpt/internal/port"
)

// Persona is the fixed system instruction that opens every completion request.
const Persona = `You are an expert interviewer specializing in behavioral interviews for software engineers. ` +
	`In the first message, you'll receive a resume. Analyze it and ask questions one by one based on it. ` +
	`Start with the first question, then wait for the user's reply, and continue until you've asked all questions. ` +
	`Finally, provide feedback to help the user improve.`

// Assembler builds completion requests from conversation history.
type Assembler struct {
	model       string
	temperature float64
	maxTokens   int
	stream      bool
	maxTurns    int
}

// NewAssembler creates an Assembler using the configured model parameters and turn limit.
func NewAssembler(llmCfg *config.LLMConfig, maxTurns int) *Assembler {
	return &Assembler{
		model:       llmCfg.Model,
		temperature: llmCfg.Temperature,
		maxTokens:   llmCfg.MaxTokens,
		stream:      llmCfg.Stream,
		maxTurns:    maxTurns,
	}
}

// StreamingEnabled reports whether requests are built for streaming by default.
func (a *Assembler) StreamingEnabled() bool {
	return a.stream
}

// Assemble builds the request for the next assistant reply.
//
// With an empty history the resume becomes the only user message. Otherwise the
// full history is sent, followed by newUserText when it is not empty (an empty
// newUserText re-requests a reply to the trailing user turn).
func (a *Assembler) Assemble(history []domain.Turn, newUserText, resumeText string) (*port.CompletionRequest, error) {
	if len(history) == 0 {
		if strings.TrimSpace(resumeText) == "" {
			return nil, fmt.Errorf("resume text: %w", domain.ErrEmptyMessage)
		}
		return a.build([]domain.Message{{Role: domain.RoleUser, Content: resumeText}})
	}

	msgs := make([]domain.Message, 0, len(history)+1)
	for _, t := range history {
		msgs = append(msgs, t.Message())
	}
	if newUserText != "" {
		if strings.TrimSpace(newUserText) == "" {
			return nil, domain.ErrEmptyMessage
		}
		msgs = append(msgs, domain.Message{Role: domain.RoleUser, Content: newUserText})
	}
	return a.build(msgs)
}

// AssembleMessages builds a request from client-supplied messages, as used by the stateless chat endpoint.
//
// Leading assistant messages, such as a greeting shown by the client before the
// user typed anything, are dropped: the conversation sent upstream opens with the
// user. What remains must end with a user message.
func (a *Assembler) AssembleMessages(msgs []domain.Message) (*port.CompletionRequest, error) {
	if len(msgs) == 0 {
		return nil, fmt.Errorf("messages: %w", domain.ErrEmptyMessage)
	}
	if err := checkRoles(msgs); err != nil {
		return nil, err
	}
	for len(msgs) > 0 && msgs[0].Role == domain.RoleAssistant {
		msgs = msgs[1:]
	}
	if len(msgs) == 0 || msgs[len(msgs)-1].Role != domain.RoleUser {
		return nil, fmt.Errorf("last message must come from the user: %w", domain.ErrInvalidHistory)
	}
	return a.build(msgs)
}

func checkRoles(msgs []domain.Message) error {
	for i, m := range msgs {
		if !m.Role.Valid() || m.Role == domain.RoleSystem {
			return fmt.Errorf("message %d has role %q: %w", i, m.Role, domain.ErrInvalidRole)
		}
	}
	return nil
}

func (a *Assembler) build(msgs []domain.Message) (*port.CompletionRequest, error) {
	if err := checkRoles(msgs); err != nil {
		return nil, err
	}
	if msgs[len(msgs)-1].Role != domain.RoleUser {
		return nil, fmt.Errorf("last message must come from the user: %w", domain.ErrInvalidState)
	}

	total := len(msgs) + 1
	if a.maxTurns > 0 && total > a.maxTurns {
		return nil, fmt.Errorf("%d messages exceeds limit of %d: %w", total, a.maxTurns, domain.ErrConversationTooLong)
	}

	out := make([]domain.Message, 0, total)
	out = append(out, domain.Message{Role: domain.RoleSystem, Content: Persona})
	out = append(out, msgs...)

	return &port.CompletionRequest{
		Messages:    out,
		Model:       a.model,
		Temperature: a.temperature,
		MaxTokens:   a.maxTokens,
		Stream:      a.stream,
	}, nil
}
