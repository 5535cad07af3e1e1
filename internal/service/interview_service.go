package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"interviewgpt/internal/config"
	"interviewgpt/internal/conversation"
	"interviewgpt/internal/domain"
	"interviewgpt/internal/llm"
	"interviewgpt/internal/port"
	"interviewgpt/internal/prompt"
	"interviewgpt/internal/transcript"
)

// UploadInput is the DTO for a resume upload.
type UploadInput struct {
	FileName    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// InterviewService defines the interview orchestration contract.
type InterviewService interface {
	ExtractText(ctx context.Context, input UploadInput) (*domain.ExtractedText, error)
	StartInterview(ctx context.Context, input UploadInput) (*domain.SessionInfo, string, error)
	SendMessage(ctx context.Context, sessionID uuid.UUID, text string, onFragment func(string)) (string, error)
	RetryReply(ctx context.Context, sessionID uuid.UUID, onFragment func(string)) (string, error)
	Chat(ctx context.Context, messages []domain.Message, onFragment func(string)) (string, error)
	GetConversation(ctx context.Context, sessionID uuid.UUID) (*domain.SessionInfo, error)
	EndInterview(ctx context.Context, sessionID uuid.UUID) error
	ExportTranscript(ctx context.Context, sessionID uuid.UUID, format domain.ExportFormat) ([]byte, error)
}

type interviewService struct {
	stager    port.Stager
	extractor port.TextExtractor
	client    port.CompletionClient
	assembler *prompt.Assembler
	sessions  port.SessionStore
	locker    port.SessionLocker
	uploadCfg *config.UploadConfig
	retryCfg  *config.InterviewConfig
}

// NewInterviewService creates a new InterviewService implementation.
func NewInterviewService(
	stager port.Stager,
	extractor port.TextExtractor,
	client port.CompletionClient,
	assembler *prompt.Assembler,
	sessions port.SessionStore,
	locker port.SessionLocker,
	uploadCfg *config.UploadConfig,
	retryCfg *config.InterviewConfig,
) InterviewService {
	return &interviewService{
		stager:    stager,
		extractor: extractor,
		client:    client,
		assembler: assembler,
		sessions:  sessions,
		locker:    locker,
		uploadCfg: uploadCfg,
		retryCfg:  retryCfg,
	}
}

func (s *interviewService) ExtractText(ctx context.Context, input UploadInput) (*domain.ExtractedText, error) {
	doc, err := s.readUpload(input)
	if err != nil {
		return nil, err
	}
	return s.extract(ctx, doc)
}

func (s *interviewService) StartInterview(ctx context.Context, input UploadInput) (*domain.SessionInfo, string, error) {
	doc, err := s.readUpload(input)
	if err != nil {
		return nil, "", err
	}

	resume, err := s.extract(ctx, doc)
	if err != nil {
		return nil, "", err
	}

	conv := conversation.New()
	if err := conv.Begin(resume.Text); err != nil {
		return nil, "", err
	}

	opening, err := s.openingQuestion(ctx, resume.Text)
	if err != nil {
		_ = conv.Abort()
		log.Warn().Err(err).Str("file", doc.FileName).Msg("interviewService.StartInterview: opening request failed")
		return nil, "", err
	}
	if err := conv.Activate(opening); err != nil {
		_ = conv.Abort()
		return nil, "", err
	}

	now := time.Now().UTC()
	rec := &port.SessionRecord{
		ID:        uuid.New(),
		State:     conv.State(),
		Turns:     conv.Turns(),
		Resume:    resume,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.sessions.Create(ctx, rec); err != nil {
		return nil, "", fmt.Errorf("creating session: %w", err)
	}

	log.Info().
		Str("session_id", rec.ID.String()).
		Str("method", string(resume.Method)).
		Int("pages", resume.PagesRead).
		Msg("interviewService.StartInterview: interview started")

	return sessionInfo(rec, conv), opening, nil
}

func (s *interviewService) SendMessage(ctx context.Context, sessionID uuid.UUID, text string, onFragment func(string)) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", domain.ErrEmptyMessage
	}

	unlock, err := s.locker.TryLock(ctx, sessionID)
	if err != nil {
		return "", err
	}
	defer unlock()

	rec, conv, err := s.load(ctx, sessionID)
	if err != nil {
		return "", err
	}
	if _, err := conv.AppendUser(text); err != nil {
		return "", err
	}

	req, err := s.assembler.Assemble(conv.Turns(), "", "")
	if err != nil {
		return "", err
	}

	// The answer is stored before the model is called so a failed reply can be retried.
	if err := s.save(ctx, rec, conv); err != nil {
		return "", err
	}

	return s.reply(ctx, rec, conv, req, onFragment)
}

func (s *interviewService) RetryReply(ctx context.Context, sessionID uuid.UUID, onFragment func(string)) (string, error) {
	unlock, err := s.locker.TryLock(ctx, sessionID)
	if err != nil {
		return "", err
	}
	defer unlock()

	rec, conv, err := s.load(ctx, sessionID)
	if err != nil {
		return "", err
	}
	if !conv.PendingReply() {
		return "", fmt.Errorf("no answer is awaiting a reply: %w", domain.ErrInvalidState)
	}

	req, err := s.assembler.Assemble(conv.Turns(), "", "")
	if err != nil {
		return "", err
	}
	return s.reply(ctx, rec, conv, req, onFragment)
}

func (s *interviewService) Chat(ctx context.Context, messages []domain.Message, onFragment func(string)) (string, error) {
	req, err := s.assembler.AssembleMessages(messages)
	if err != nil {
		return "", err
	}
	return s.complete(ctx, req, onFragment)
}

func (s *interviewService) GetConversation(ctx context.Context, sessionID uuid.UUID) (*domain.SessionInfo, error) {
	rec, conv, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return sessionInfo(rec, conv), nil
}

func (s *interviewService) EndInterview(ctx context.Context, sessionID uuid.UUID) error {
	unlock, err := s.locker.TryLock(ctx, sessionID)
	if err != nil {
		return err
	}
	defer unlock()

	if err := s.sessions.Delete(ctx, sessionID); err != nil {
		return err
	}
	log.Info().Str("session_id", sessionID.String()).Msg("interviewService.EndInterview: session deleted")
	return nil
}

func (s *interviewService) ExportTranscript(ctx context.Context, sessionID uuid.UUID, format domain.ExportFormat) ([]byte, error) {
	if format != domain.ExportCSV && format != domain.ExportXLSX {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedFormat, format)
	}
	rec, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := transcript.Write(&buf, format, rec.Turns); err != nil {
		return nil, fmt.Errorf("writing transcript: %w", err)
	}
	return buf.Bytes(), nil
}

// readUpload validates an upload and reads it into memory. Nothing is staged or
// sent upstream for a file that fails here.
func (s *interviewService) readUpload(input UploadInput) (*domain.Document, error) {
	if input.Body == nil {
		return nil, domain.ErrMissingFile
	}

	maxBytes := s.uploadCfg.MaxBytes()
	if input.Size > maxBytes {
		return nil, domain.ErrFileTooLarge
	}

	if !strings.EqualFold(filepath.Ext(input.FileName), ".pdf") {
		return nil, domain.ErrInvalidFileType
	}
	if ct := declaredType(input.ContentType); ct != "" && ct != domain.ContentTypePDF {
		return nil, domain.ErrInvalidFileType
	}

	data, err := io.ReadAll(io.LimitReader(input.Body, maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("reading upload: %w", err)
	}
	if int64(len(data)) > maxBytes {
		return nil, domain.ErrFileTooLarge
	}
	if len(data) == 0 {
		return nil, domain.ErrMissingFile
	}

	// Magic-byte check on the first 512 bytes.
	sniff := data
	if len(sniff) > 512 {
		sniff = sniff[:512]
	}
	if http.DetectContentType(sniff) != domain.ContentTypePDF {
		return nil, domain.ErrInvalidFileType
	}

	return &domain.Document{
		FileName:    input.FileName,
		ContentType: domain.ContentTypePDF,
		Size:        int64(len(data)),
		Data:        data,
	}, nil
}

// extract stages the document, extracts its text and always releases the staged copy.
func (s *interviewService) extract(ctx context.Context, doc *domain.Document) (*domain.ExtractedText, error) {
	staged, err := s.stager.Stage(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("staging upload: %w", err)
	}
	defer func() {
		if err := staged.Release(context.WithoutCancel(ctx)); err != nil {
			log.Warn().Err(err).Str("key", staged.Key()).Msg("interviewService.extract: failed to release staged upload")
		}
	}()

	data, err := staged.Bytes(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading staged upload: %w", err)
	}

	text, err := s.extractor.Extract(ctx, data)
	if err != nil {
		log.Info().Err(err).Str("file", doc.FileName).Msg("interviewService.extract: extraction failed")
		return nil, err
	}
	return text, nil
}

func (s *interviewService) openingQuestion(ctx context.Context, resumeText string) (string, error) {
	req, err := s.assembler.Assemble(nil, "", resumeText)
	if err != nil {
		return "", err
	}
	return s.complete(ctx, req, nil)
}

// reply completes req and commits the answer as the next assistant turn.
func (s *interviewService) reply(
	ctx context.Context,
	rec *port.SessionRecord,
	conv *conversation.Conversation,
	req *port.CompletionRequest,
	onFragment func(string),
) (string, error) {
	text, err := s.complete(ctx, req, onFragment)
	if err != nil {
		log.Warn().Err(err).Str("session_id", rec.ID.String()).Msg("interviewService.reply: completion failed, answer left pending")
		return "", err
	}
	if _, err := conv.AppendAssistant(text); err != nil {
		return "", err
	}
	if err := s.save(context.WithoutCancel(ctx), rec, conv); err != nil {
		return "", err
	}
	return text, nil
}

// complete runs one completion with the rate-limit retry policy. Streaming is
// used only when the caller consumes fragments and streaming is enabled.
func (s *interviewService) complete(ctx context.Context, req *port.CompletionRequest, onFragment func(string)) (string, error) {
	call := *req
	call.Stream = req.Stream && onFragment != nil

	for attempt := 0; ; attempt++ {
		emitted := false
		forward := onFragment
		if onFragment != nil {
			forward = func(frag string) {
				emitted = true
				onFragment(frag)
			}
		}

		text, err := s.completeOnce(ctx, call, forward)
		if err == nil {
			if strings.TrimSpace(text) == "" {
				return "", fmt.Errorf("model returned an empty reply: %w", domain.ErrUpstream)
			}
			return text, nil
		}

		if emitted || attempt >= s.retryCfg.RateLimitRetries {
			return "", err
		}
		wait, ok := s.retryWait(err)
		if !ok {
			return "", err
		}

		log.Info().Dur("wait", wait).Int("attempt", attempt+1).Msg("interviewService.complete: rate limited, retrying")
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return "", ctx.Err()
		case <-timer.C:
		}
	}
}

func (s *interviewService) completeOnce(ctx context.Context, req port.CompletionRequest, onFragment func(string)) (string, error) {
	result, err := s.client.Complete(ctx, req)
	if err != nil {
		return "", err
	}
	if !result.Streaming() {
		return result.Text, nil
	}
	return llm.Collect(result.Fragments, onFragment)
}

// retryWait returns how long to wait before retrying err. The provider's
// Retry-After hint wins over the configured backoff; waits beyond the cap are not retried.
func (s *interviewService) retryWait(err error) (time.Duration, bool) {
	var rl *llm.RateLimitError
	if !errors.As(err, &rl) {
		return 0, false
	}
	wait := s.retryCfg.RetryBackoff
	if rl.RetryAfter > wait {
		wait = rl.RetryAfter
	}
	if s.retryCfg.MaxRetryWait > 0 && wait > s.retryCfg.MaxRetryWait {
		return 0, false
	}
	return wait, true
}

func (s *interviewService) load(ctx context.Context, sessionID uuid.UUID) (*port.SessionRecord, *conversation.Conversation, error) {
	rec, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, nil, err
	}
	return rec, conversation.Restore(rec.State, rec.Turns), nil
}

func (s *interviewService) save(ctx context.Context, rec *port.SessionRecord, conv *conversation.Conversation) error {
	rec.State = conv.State()
	rec.Turns = conv.Turns()
	rec.UpdatedAt = time.Now().UTC()
	if err := s.sessions.Save(ctx, rec); err != nil {
		return fmt.Errorf("saving session: %w", err)
	}
	return nil
}

func sessionInfo(rec *port.SessionRecord, conv *conversation.Conversation) *domain.SessionInfo {
	return &domain.SessionInfo{
		ID:        rec.ID,
		State:     conv.State(),
		Turns:     conv.VisibleTurns(),
		Resume:    rec.Resume,
		CreatedAt: rec.CreatedAt,
		UpdatedAt: rec.UpdatedAt,
	}
}

// declaredType strips parameters from a Content-Type header value.
func declaredType(ct string) string {
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = ct[:i]
	}
	return strings.ToLower(strings.TrimSpace(ct))
}
