package domain

// Role tags a conversation turn.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Valid reports whether r is one of the closed set of roles.
func (r Role) Valid() bool {
	switch r {
	case RoleSystem, RoleUser, RoleAssistant:
		return true
	}
	return false
}

// ConversationState is the lifecycle of an interview conversation.
type ConversationState string

const (
	StateEmpty              ConversationState = "empty"
	StateAwaitingFirstReply ConversationState = "awaiting_first_reply"
	StateActive             ConversationState = "active"
)

// ExtractionMethod records how resume text was obtained.
type ExtractionMethod string

const (
	ExtractionTextLayer ExtractionMethod = "text_layer"
	ExtractionOCR       ExtractionMethod = "ocr"
)

// ContentTypePDF is the only media type accepted for upload.
const ContentTypePDF = "application/pdf"

// ContentTypePNG is the raster format pages are rendered to for OCR.
const ContentTypePNG = "image/png"

// ExportFormat is a transcript download format.
type ExportFormat string

const (
	ExportCSV  ExportFormat = "csv"
	ExportXLSX ExportFormat = "xlsx"
)
