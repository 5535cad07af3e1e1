package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"interviewgpt/internal/config"
	"interviewgpt/internal/domain"
	"interviewgpt/internal/handler"
	"interviewgpt/internal/llm"
	"interviewgpt/mocks"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var uploadCfg = &config.UploadConfig{MaxFileSizeMB: 1}

func multipartBody(t *testing.T, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, _ = part.Write(content)
	require.NoError(t, writer.Close())
	return body, writer.FormDataContentType()
}

func newContext(method, path string, body *bytes.Buffer, contentType string) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	if body == nil {
		c.Request, _ = http.NewRequest(method, path, http.NoBody)
	} else {
		c.Request, _ = http.NewRequest(method, path, body)
	}
	if contentType != "" {
		c.Request.Header.Set("Content-Type", contentType)
	}
	return c, w
}

func jsonBody(t *testing.T, v interface{}) *bytes.Buffer {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewBuffer(data)
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) handler.ErrorResponse {
	t.Helper()
	var resp handler.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestExtractHandler_ExtractText_Success(t *testing.T) {
	svc := new(mocks.MockInterviewService)
	h := handler.NewExtractHandler(svc, uploadCfg)

	svc.On("ExtractText", mock.Anything, mock.AnythingOfType("service.UploadInput")).Return(&domain.ExtractedText{Text: "Jane Doe", Method: domain.ExtractionOCR, PageCount: 3, PagesRead: 3}, nil)

	body, ct := multipartBody(t, "resume.pdf", []byte("%PDF-1.4 test"))
	c, w := newContext(http.MethodPost, "/api/v1/extract-text", body, ct)

	h.ExtractText(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp handler.ExtractTextResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "Jane Doe", resp.Text)
	assert.Equal(t, domain.ExtractionOCR, resp.Method)
	assert.Equal(t, 3, resp.Pages)
	svc.AssertExpectations(t)
}

func TestExtractHandler_ExtractText_NoFile(t *testing.T) {
	svc := new(mocks.MockInterviewService)
	h := handler.NewExtractHandler(svc, uploadCfg)

	c, w := newContext(http.MethodPost, "/api/v1/extract-text", nil, "")

	h.ExtractText(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	resp := decodeError(t, w)
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, "MISSING_FILE", resp.Code)
	svc.AssertNotCalled(t, "ExtractText", mock.Anything, mock.Anything)
}

func TestExtractHandler_ExtractText_BodyTooLarge(t *testing.T) {
	svc := new(mocks.MockInterviewService)
	h := handler.NewExtractHandler(svc, uploadCfg)

	body, ct := multipartBody(t, "resume.pdf", make([]byte, 3<<20))
	c, w := newContext(http.MethodPost, "/api/v1/extract-text", body, ct)

	h.ExtractText(c)

	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestExtractHandler_ExtractText_InvalidType(t *testing.T) {
	svc := new(mocks.MockInterviewService)
	h := handler.NewExtractHandler(svc, uploadCfg)

	svc.On("ExtractText", mock.Anything, mock.Anything).Return(nil, domain.ErrInvalidFileType)

	body, ct := multipartBody(t, "resume.docx", []byte("PK"))
	c, w := newContext(http.MethodPost, "/api/v1/extract-text", body, ct)

	h.ExtractText(c)

	assert.Equal(t, http.StatusUnsupportedMediaType, w.Code)
	assert.Equal(t, "INVALID_FILE_TYPE", decodeError(t, w).Code)
}

func TestInterviewHandler_Start_Success(t *testing.T) {
	svc := new(mocks.MockInterviewService)
	h := handler.NewInterviewHandler(svc, uploadCfg)

	id := uuid.New()
	turns := []domain.Turn{{Seq: 2, Role: domain.RoleAssistant, Content: "Tell me about yourself."}}
	svc.On("StartInterview", mock.Anything, mock.Anything).
		Return(&domain.SessionInfo{ID: id, State: domain.StateActive, Turns: turns}, "Tell me about yourself.", nil)

	body, ct := multipartBody(t, "resume.pdf", []byte("%PDF-1.4 test"))
	c, w := newContext(http.MethodPost, "/api/v1/interviews", body, ct)

	h.Start(c)

	assert.Equal(t, http.StatusCreated, w.Code)
	var resp handler.StartInterviewResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, id, resp.SessionID)
	assert.Equal(t, "Tell me about yourself.", resp.Text)
	assert.Len(t, resp.Turns, 1)
}

func TestInterviewHandler_Start_RateLimited(t *testing.T) {
	svc := new(mocks.MockInterviewService)
	h := handler.NewInterviewHandler(svc, uploadCfg)

	svc.On("StartInterview", mock.Anything, mock.Anything).
		Return(nil, "", llm.NewRateLimitError("openai", errors.New("429"), 12))

	body, ct := multipartBody(t, "resume.pdf", []byte("%PDF-1.4 test"))
	c, w := newContext(http.MethodPost, "/api/v1/interviews", body, ct)

	h.Start(c)

	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "12", w.Header().Get("Retry-After"))
	resp := decodeError(t, w)
	assert.Equal(t, "Rate limit exceeded. Please try again later.", resp.Error)
}

func TestInterviewHandler_Get(t *testing.T) {
	svc := new(mocks.MockInterviewService)
	h := handler.NewInterviewHandler(svc, uploadCfg)
	id := uuid.New()

	svc.On("GetConversation", mock.Anything, id).
		Return(&domain.SessionInfo{ID: id, State: domain.StateActive}, nil)

	c, w := newContext(http.MethodGet, "/api/v1/interviews/"+id.String(), nil, "")
	c.Params = gin.Params{{Key: "id", Value: id.String()}}

	h.Get(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp handler.ConversationResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, domain.StateActive, resp.State)
}

func TestInterviewHandler_Get_InvalidID(t *testing.T) {
	svc := new(mocks.MockInterviewService)
	h := handler.NewInterviewHandler(svc, uploadCfg)

	c, w := newContext(http.MethodGet, "/api/v1/interviews/nope", nil, "")
	c.Params = gin.Params{{Key: "id", Value: "nope"}}

	h.Get(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_ID", decodeError(t, w).Code)
}

func TestInterviewHandler_Get_NotFound(t *testing.T) {
	svc := new(mocks.MockInterviewService)
	h := handler.NewInterviewHandler(svc, uploadCfg)
	id := uuid.New()

	svc.On("GetConversation", mock.Anything, id).Return(nil, domain.ErrSessionNotFound)

	c, w := newContext(http.MethodGet, "/api/v1/interviews/"+id.String(), nil, "")
	c.Params = gin.Params{{Key: "id", Value: id.String()}}

	h.Get(c)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestInterviewHandler_SendMessage_JSON(t *testing.T) {
	svc := new(mocks.MockInterviewService)
	h := handler.NewInterviewHandler(svc, uploadCfg)
	id := uuid.New()

	svc.On("SendMessage", mock.Anything, id, "I led a migration.", false).Return("What was hard?", nil)

	c, w := newContext(http.MethodPost, "/", jsonBody(t, handler.SendMessageRequest{Content: "I led a migration."}), "application/json")
	c.Params = gin.Params{{Key: "id", Value: id.String()}}

	h.SendMessage(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp handler.ReplyResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "What was hard?", resp.Response)
}

func TestInterviewHandler_SendMessage_MissingContent(t *testing.T) {
	svc := new(mocks.MockInterviewService)
	h := handler.NewInterviewHandler(svc, uploadCfg)
	id := uuid.New()

	c, w := newContext(http.MethodPost, "/", bytes.NewBufferString(`{"stream":true}`), "application/json")
	c.Params = gin.Params{{Key: "id", Value: id.String()}}

	h.SendMessage(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	svc.AssertNotCalled(t, "SendMessage", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestInterviewHandler_SendMessage_Stream(t *testing.T) {
	svc := new(mocks.MockInterviewService)
	h := handler.NewInterviewHandler(svc, uploadCfg)
	id := uuid.New()

	svc.On("SendMessage", mock.Anything, id, "answer", true).
		Return("Hello world", nil, []string{"Hello ", "world"})

	c, w := newContext(http.MethodPost, "/", jsonBody(t, handler.SendMessageRequest{Content: "answer", Stream: true}), "application/json")
	c.Params = gin.Params{{Key: "id", Value: id.String()}}

	h.SendMessage(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/event-stream", w.Header().Get("Content-Type"))
	body := w.Body.String()
	assert.Equal(t, 2, strings.Count(body, "event:fragment"))
	assert.Contains(t, body, `"text":"Hello "`)
	assert.Contains(t, body, "event:done")
	assert.Contains(t, body, `"response":"Hello world"`)
	assert.Less(t, strings.Index(body, `"text":"Hello "`), strings.Index(body, `"text":"world"`))
}

func TestInterviewHandler_SendMessage_StreamFailsBeforeOutput(t *testing.T) {
	svc := new(mocks.MockInterviewService)
	h := handler.NewInterviewHandler(svc, uploadCfg)
	id := uuid.New()

	svc.On("SendMessage", mock.Anything, id, "answer", true).
		Return("", &llm.UpstreamError{Provider: "openai", Status: 500, Message: "secret internal detail"})

	c, w := newContext(http.MethodPost, "/", jsonBody(t, handler.SendMessageRequest{Content: "answer", Stream: true}), "application/json")
	c.Params = gin.Params{{Key: "id", Value: id.String()}}

	h.SendMessage(c)

	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.NotContains(t, w.Body.String(), "secret internal detail")
	assert.Equal(t, "UPSTREAM_ERROR", decodeError(t, w).Code)
}

func TestInterviewHandler_SendMessage_StreamFailsMidway(t *testing.T) {
	svc := new(mocks.MockInterviewService)
	h := handler.NewInterviewHandler(svc, uploadCfg)
	id := uuid.New()

	svc.On("SendMessage", mock.Anything, id, "answer", true).
		Return("", fmt.Errorf("stream ended early: %w", domain.ErrNetwork), []string{"Hel"})

	c, w := newContext(http.MethodPost, "/", jsonBody(t, handler.SendMessageRequest{Content: "answer", Stream: true}), "application/json")
	c.Params = gin.Params{{Key: "id", Value: id.String()}}

	h.SendMessage(c)

	assert.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "event:fragment")
	assert.Contains(t, body, "event:error")
	assert.Contains(t, body, "NETWORK_ERROR")
	assert.NotContains(t, body, "event:done")
}

func TestInterviewHandler_SendMessage_Busy(t *testing.T) {
	svc := new(mocks.MockInterviewService)
	h := handler.NewInterviewHandler(svc, uploadCfg)
	id := uuid.New()

	svc.On("SendMessage", mock.Anything, id, "answer", false).Return("", domain.ErrConversationBusy)

	c, w := newContext(http.MethodPost, "/", jsonBody(t, handler.SendMessageRequest{Content: "answer"}), "application/json")
	c.Params = gin.Params{{Key: "id", Value: id.String()}}

	h.SendMessage(c)

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "CONVERSATION_BUSY", decodeError(t, w).Code)
}

func TestInterviewHandler_Retry_NoBody(t *testing.T) {
	svc := new(mocks.MockInterviewService)
	h := handler.NewInterviewHandler(svc, uploadCfg)
	id := uuid.New()

	svc.On("RetryReply", mock.Anything, id, false).Return("Let's continue.", nil)

	c, w := newContext(http.MethodPost, "/", nil, "")
	c.Params = gin.Params{{Key: "id", Value: id.String()}}

	h.Retry(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Let's continue.")
	svc.AssertExpectations(t)
}

func TestInterviewHandler_Transcript(t *testing.T) {
	svc := new(mocks.MockInterviewService)
	h := handler.NewInterviewHandler(svc, uploadCfg)
	id := uuid.New()

	svc.On("ExportTranscript", mock.Anything, id, domain.ExportXLSX).Return([]byte("xlsx-bytes"), nil)

	c, w := newContext(http.MethodGet, "/?format=XLSX", nil, "")
	c.Params = gin.Params{{Key: "id", Value: id.String()}}

	h.Transcript(c)

	assert.Equal(t, http.StatusOK, w.Code)
	disposition := w.Header().Get("Content-Disposition")
	assert.Contains(t, disposition, "attachment")
	assert.Contains(t, disposition, "interview_"+id.String()[:8]+"_"+time.Now().UTC().Format("2006-01-02")+".xlsx")
	assert.Contains(t, w.Header().Get("Content-Type"), "spreadsheetml")
	assert.Equal(t, "xlsx-bytes", w.Body.String())
}

func TestInterviewHandler_Transcript_DefaultsToCSV(t *testing.T) {
	svc := new(mocks.MockInterviewService)
	h := handler.NewInterviewHandler(svc, uploadCfg)
	id := uuid.New()

	svc.On("ExportTranscript", mock.Anything, id, domain.ExportCSV).Return([]byte("Seq,Role"), nil)

	c, w := newContext(http.MethodGet, "/", nil, "")
	c.Params = gin.Params{{Key: "id", Value: id.String()}}

	h.Transcript(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), ".csv")
}

func TestInterviewHandler_End(t *testing.T) {
	svc := new(mocks.MockInterviewService)
	h := handler.NewInterviewHandler(svc, uploadCfg)
	id := uuid.New()

	svc.On("EndInterview", mock.Anything, id).Return(nil)

	c, w := newContext(http.MethodDelete, "/", nil, "")
	c.Params = gin.Params{{Key: "id", Value: id.String()}}

	h.End(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestChatHandler_Chat_Success(t *testing.T) {
	svc := new(mocks.MockInterviewService)
	h := handler.NewChatHandler(svc)

	msgs := []domain.Message{{Role: domain.RoleUser, Content: "resume"}}
	svc.On("Chat", mock.Anything, msgs, false).Return("First question?", nil)

	req := handler.ChatRequest{Messages: []handler.ChatMessage{{Role: "user", Content: "resume"}}}
	c, w := newContext(http.MethodPost, "/api/v1/chat", jsonBody(t, req), "application/json")

	h.Chat(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok","response":"First question?"}`, w.Body.String())
}

func TestChatHandler_Chat_MissingMessages(t *testing.T) {
	svc := new(mocks.MockInterviewService)
	h := handler.NewChatHandler(svc)

	c, w := newContext(http.MethodPost, "/api/v1/chat", bytes.NewBufferString(`{"messages":[]}`), "application/json")

	h.Chat(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid request: messages array required", decodeError(t, w).Error)
}

func TestChatHandler_Chat_MissingAPIKey(t *testing.T) {
	svc := new(mocks.MockInterviewService)
	h := handler.NewChatHandler(svc)

	svc.On("Chat", mock.Anything, mock.Anything, false).Return("", llm.MissingAPIKey("openai"))

	req := handler.ChatRequest{Messages: []handler.ChatMessage{{Role: "user", Content: "hi"}}}
	c, w := newContext(http.MethodPost, "/api/v1/chat", jsonBody(t, req), "application/json")

	h.Chat(c)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	resp := decodeError(t, w)
	assert.Equal(t, "CONFIGURATION_ERROR", resp.Code)
	assert.Equal(t, "Missing API key", resp.Error)
}

func TestHealthHandler(t *testing.T) {
	h := handler.NewHealthHandler(map[string]handler.ReadinessCheck{
		"redis": func(context.Context) error { return errors.New("connection refused") },
	})

	c, w := newContext(http.MethodGet, "/healthz", nil, "")
	h.Liveness(c)
	assert.Equal(t, http.StatusOK, w.Code)

	c, w = newContext(http.MethodGet, "/readyz", nil, "")
	h.Readiness(c)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "redis not reachable")

	c, w = newContext(http.MethodGet, "/readyz", nil, "")
	handler.NewHealthHandler(nil).Readiness(c)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestMapDomainError(t *testing.T) {
	tests := []struct {
		err    error
		status int
		code   string
	}{
		{domain.ErrInvalidFileType, http.StatusUnsupportedMediaType, "INVALID_FILE_TYPE"},
		{domain.ErrMissingFile, http.StatusBadRequest, "MISSING_FILE"},
		{domain.ErrFileTooLarge, http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE"},
		{domain.ErrMalformedDocument, http.StatusUnprocessableEntity, "MALFORMED_DOCUMENT"},
		{domain.ErrNoExtractableText, http.StatusUnprocessableEntity, "NO_EXTRACTABLE_TEXT"},
		{domain.ErrInvalidRole, http.StatusBadRequest, "INVALID_ROLE"},
		{domain.ErrEmptyMessage, http.StatusBadRequest, "EMPTY_MESSAGE"},
		{domain.ErrInvalidHistory, http.StatusBadRequest, "INVALID_HISTORY"},
		{domain.ErrConversationTooLong, http.StatusUnprocessableEntity, "CONVERSATION_TOO_LONG"},
		{domain.ErrSessionNotFound, http.StatusNotFound, "SESSION_NOT_FOUND"},
		{domain.ErrConversationBusy, http.StatusConflict, "CONVERSATION_BUSY"},
		{domain.ErrInvalidState, http.StatusConflict, "INVALID_STATE"},
		{domain.ErrUnsupportedFormat, http.StatusBadRequest, "UNSUPPORTED_FORMAT"},
		{llm.NewRateLimitError("gemini", errors.New("quota"), 0), http.StatusTooManyRequests, "RATE_LIMITED"},
		{llm.MissingAPIKey("claude"), http.StatusInternalServerError, "CONFIGURATION_ERROR"},
		{&llm.UpstreamError{Provider: "openai", Status: 504}, http.StatusBadGateway, "UPSTREAM_ERROR"},
		{fmt.Errorf("dial: %w", domain.ErrNetwork), http.StatusServiceUnavailable, "NETWORK_ERROR"},
		{errors.New("unexpected"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			status, code, _ := handler.MapDomainError(tt.err)
			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.code, code)
		})
	}
}
