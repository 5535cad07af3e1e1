// Package conversation implements the interview conversation state machine.
//
// A conversation moves Empty -> AwaitingFirstReply -> Active and never leaves
// Active. Turns are append-only with strictly increasing sequence numbers. A
// Conversation is not safe for concurrent use; callers serialise access per session.
package conversation

import (
	"fmt"
	"strings"
	"time"

	"interviewgpt/internal/domain"
)

// Conversation is the ordered turn log of one interview session.
type Conversation struct {
	state         domain.ConversationState
	turns         []domain.Turn
	pendingResume string
	now           func() time.Time
}

// New creates an empty conversation.
func New() *Conversation {
	return &Conversation{state: domain.StateEmpty, now: time.Now}
}

// Restore rebuilds a conversation from persisted state.
func Restore(state domain.ConversationState, turns []domain.Turn) *Conversation {
	c := New()
	c.state = state
	c.turns = append([]domain.Turn(nil), turns...)
	if c.state == "" {
		c.state = domain.StateEmpty
	}
	return c
}

// State returns the current lifecycle state.
func (c *Conversation) State() domain.ConversationState {
	return c.state
}

// Begin records the resume and waits for the opening question. Nothing is committed yet.
func (c *Conversation) Begin(resumeText string) error {
	if c.state != domain.StateEmpty {
		return c.illegal("begin")
	}
	if strings.TrimSpace(resumeText) == "" {
		return fmt.Errorf("resume text: %w", domain.ErrEmptyMessage)
	}
	c.pendingResume = resumeText
	c.state = domain.StateAwaitingFirstReply
	return nil
}

// Activate commits the hidden resume turn and the opening question together.
func (c *Conversation) Activate(openingQuestion string) error {
	if c.state != domain.StateAwaitingFirstReply {
		return c.illegal("activate")
	}
	if strings.TrimSpace(openingQuestion) == "" {
		return fmt.Errorf("opening question: %w", domain.ErrEmptyMessage)
	}
	c.append(domain.RoleUser, c.pendingResume, true)
	c.append(domain.RoleAssistant, openingQuestion, false)
	c.pendingResume = ""
	c.state = domain.StateActive
	return nil
}

// Abort discards a begun conversation whose opening request failed.
func (c *Conversation) Abort() error {
	if c.state != domain.StateAwaitingFirstReply {
		return c.illegal("abort")
	}
	c.pendingResume = ""
	c.state = domain.StateEmpty
	return nil
}

// AppendUser adds a user answer. Only legal when no earlier answer is still waiting for a reply.
func (c *Conversation) AppendUser(text string) (domain.Turn, error) {
	if c.state != domain.StateActive {
		return domain.Turn{}, c.illegal("append user turn")
	}
	if c.PendingReply() {
		return domain.Turn{}, fmt.Errorf("previous answer is still awaiting a reply: %w", domain.ErrInvalidState)
	}
	if strings.TrimSpace(text) == "" {
		return domain.Turn{}, domain.ErrEmptyMessage
	}
	return c.append(domain.RoleUser, text, false), nil
}

// AppendAssistant adds the reply to the pending user turn.
func (c *Conversation) AppendAssistant(text string) (domain.Turn, error) {
	if c.state != domain.StateActive {
		return domain.Turn{}, c.illegal("append assistant turn")
	}
	if !c.PendingReply() {
		return domain.Turn{}, fmt.Errorf("no user turn awaiting a reply: %w", domain.ErrInvalidState)
	}
	return c.append(domain.RoleAssistant, text, false), nil
}

// PendingReply reports whether the last turn is a user turn without an answer.
func (c *Conversation) PendingReply() bool {
	if c.state != domain.StateActive || len(c.turns) == 0 {
		return false
	}
	return c.turns[len(c.turns)-1].Role == domain.RoleUser
}

// Turns returns a copy of every turn, hidden ones included.
func (c *Conversation) Turns() []domain.Turn {
	return append([]domain.Turn(nil), c.turns...)
}

// VisibleTurns returns the turns a client renders.
func (c *Conversation) VisibleTurns() []domain.Turn {
	out := make([]domain.Turn, 0, len(c.turns))
	for _, t := range c.turns {
		if !t.Hidden {
			out = append(out, t)
		}
	}
	return out
}

func (c *Conversation) append(role domain.Role, content string, hidden bool) domain.Turn {
	seq := 1
	if n := len(c.turns); n > 0 {
		seq = c.turns[n-1].Seq + 1
	}
	t := domain.Turn{
		Seq:       seq,
		Role:      role,
		Content:   content,
		Hidden:    hidden,
		CreatedAt: c.now().UTC(),
	}
	c.turns = append(c.turns, t)
	return t
}

func (c *Conversation) illegal(op string) error {
	return fmt.Errorf("cannot %s in state %s: %w", op, c.state, domain.ErrInvalidState)
}
