package port

import (
	"context"

	"interviewgpt/internal/domain"
)

// TextFragment is a positioned run of text on a page, in layout order.
type TextFragment struct {
	Text      string
	EndOfLine bool
}

// PDFDocument is an opened, page-addressable document. Pages are zero-based.
type PDFDocument interface {
	NumPage() int
	Fragments(page int) ([]TextFragment, error)
	RenderPNG(page int) ([]byte, error)
	Close() error
}

// DocumentOpener opens raw PDF bytes.
type DocumentOpener interface {
	Open(data []byte) (PDFDocument, error)
}

// TextExtractor produces resume text from PDF bytes.
type TextExtractor interface {
	Extract(ctx context.Context, data []byte) (*domain.ExtractedText, error)
}
