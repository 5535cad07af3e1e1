package handler

import (
	"errors"
	"math"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"interviewgpt/internal/domain"
	"interviewgpt/internal/llm"
	"interviewgpt/internal/middleware"
)

const (
	statusOK    = "ok"
	statusError = "error"
)

// RespondOK sends a 200 success response.
func RespondOK(c *gin.Context, body interface{}) {
	c.JSON(http.StatusOK, body)
}

// RespondCreated sends a 201 success response.
func RespondCreated(c *gin.Context, body interface{}) {
	c.JSON(http.StatusCreated, body)
}

// RespondError sends an error response with the given status code.
func RespondError(c *gin.Context, status int, code, msg string) {
	c.JSON(status, ErrorResponse{Status: statusError, Code: code, Error: msg})
}

// MapDomainError translates domain errors to HTTP status codes and error codes.
// Messages are fixed so internal error text never reaches the client.
func MapDomainError(err error) (status int, code, msg string) {
	switch {
	case errors.Is(err, domain.ErrMissingFile):
		return http.StatusBadRequest, "MISSING_FILE", "No file uploaded"
	case errors.Is(err, domain.ErrInvalidFileType):
		return http.StatusUnsupportedMediaType, "INVALID_FILE_TYPE", "Invalid file type. Only PDF files are accepted."
	case errors.Is(err, domain.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE", "File exceeds maximum allowed size"
	case errors.Is(err, domain.ErrMalformedDocument):
		return http.StatusUnprocessableEntity, "MALFORMED_DOCUMENT", "The PDF could not be opened"
	case errors.Is(err, domain.ErrNoExtractableText):
		return http.StatusUnprocessableEntity, "NO_EXTRACTABLE_TEXT", "No text could be extracted from the PDF"
	case errors.Is(err, domain.ErrInvalidRole):
		return http.StatusBadRequest, "INVALID_ROLE", "Invalid message role; allowed: user, assistant"
	case errors.Is(err, domain.ErrInvalidHistory):
		return http.StatusBadRequest, "INVALID_HISTORY", "Messages must end with a user message"
	case errors.Is(err, domain.ErrEmptyMessage):
		return http.StatusBadRequest, "EMPTY_MESSAGE", "Message content must not be empty"
	case errors.Is(err, domain.ErrUnsupportedFormat):
		return http.StatusBadRequest, "UNSUPPORTED_FORMAT", "Unsupported transcript format; allowed: csv, xlsx"
	case errors.Is(err, domain.ErrConversationTooLong):
		return http.StatusUnprocessableEntity, "CONVERSATION_TOO_LONG", "The interview has reached its maximum length"
	case errors.Is(err, domain.ErrSessionNotFound):
		return http.StatusNotFound, "SESSION_NOT_FOUND", "Interview session not found or expired"
	case errors.Is(err, domain.ErrConversationBusy):
		return http.StatusConflict, "CONVERSATION_BUSY", "Another request for this interview is in progress"
	case errors.Is(err, domain.ErrInvalidState):
		return http.StatusConflict, "INVALID_STATE", "The interview is not ready for this action"
	case errors.Is(err, domain.ErrRateLimited):
		return http.StatusTooManyRequests, "RATE_LIMITED", "Rate limit exceeded. Please try again later."
	case errors.Is(err, domain.ErrConfiguration):
		return http.StatusInternalServerError, "CONFIGURATION_ERROR", "Missing API key"
	case errors.Is(err, domain.ErrUpstream):
		return http.StatusBadGateway, "UPSTREAM_ERROR", "The language model returned an error"
	case errors.Is(err, domain.ErrNetwork):
		return http.StatusServiceUnavailable, "NETWORK_ERROR", "The language model could not be reached"
	default:
		return http.StatusInternalServerError, "INTERNAL_ERROR", "An internal error occurred"
	}
}

// HandleError maps a domain error and sends the appropriate error response.
func HandleError(c *gin.Context, err error) {
	status, code, msg := MapDomainError(err)
	logError(c, status, err)
	if secs := retryAfterSeconds(err); secs > 0 {
		c.Header("Retry-After", strconv.Itoa(secs))
	}
	RespondError(c, status, code, msg)
}

func logError(c *gin.Context, status int, err error) {
	if status >= 500 || status == http.StatusTooManyRequests {
		log.Error().Err(err).Str("request_id", middleware.GetRequestID(c)).Int("status", status).Msg("handler: request failed")
	}
}

// retryAfterSeconds returns the provider's Retry-After hint rounded up, or 0.
func retryAfterSeconds(err error) int {
	var rl *llm.RateLimitError
	if !errors.As(err, &rl) || rl.RetryAfter <= 0 {
		return 0
	}
	return int(math.Ceil(rl.RetryAfter.Seconds()))
}

// parseSessionID reads the :id path parameter. Returns false if it is not a
// valid UUID (error response already written).
func parseSessionID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_ID", "invalid interview id")
		return uuid.Nil, false
	}
	return id, true
}
