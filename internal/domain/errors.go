package domain

import "errors"

var (
	ErrInvalidFileType     = errors.New("invalid file type")
	ErrMissingFile         = errors.New("no file uploaded")
	ErrFileTooLarge        = errors.New("file exceeds maximum allowed size")
	ErrMalformedDocument   = errors.New("malformed document")
	ErrNoExtractableText   = errors.New("no extractable text")
	ErrConfiguration       = errors.New("configuration error")
	ErrRateLimited         = errors.New("rate limited")
	ErrUpstream            = errors.New("upstream error")
	ErrNetwork             = errors.New("network error")
	ErrInvalidRole         = errors.New("invalid message role")
	ErrEmptyMessage        = errors.New("message content is empty")
	ErrInvalidHistory      = errors.New("invalid message history")
	ErrConversationTooLong = errors.New("conversation exceeds maximum number of turns")
	ErrInvalidState        = errors.New("operation not allowed in current conversation state")
	ErrConversationBusy    = errors.New("another operation is in progress for this conversation")
	ErrSessionNotFound     = errors.New("interview session not found")
	ErrUnsupportedFormat   = errors.New("unsupported export format")
)
