package extract

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"interviewgpt/internal/config"
	"interviewgpt/internal/domain"
	"interviewgpt/internal/port"
)

// Extractor reads resume text from a PDF, falling back to OCR when the text layer is empty.
type Extractor struct {
	opener      port.DocumentOpener
	ocr         port.ImageTranscriber
	allPages    bool
	ocrMaxPages int
}

// NewExtractor creates an Extractor. ocr may be nil, in which case OCR yields nothing.
func NewExtractor(opener port.DocumentOpener, ocr port.ImageTranscriber, cfg *config.ExtractConfig) *Extractor {
	maxPages := cfg.OCRMaxPages
	if maxPages <= 0 {
		maxPages = 1
	}
	return &Extractor{
		opener:      opener,
		ocr:         ocr,
		allPages:    cfg.AllPages,
		ocrMaxPages: maxPages,
	}
}

// Extract returns the non-empty text of the document or a classified error.
func (e *Extractor) Extract(ctx context.Context, data []byte) (*domain.ExtractedText, error) {
	doc, err := e.opener.Open(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrMalformedDocument, err)
	}
	defer func() { _ = doc.Close() }()

	pageCount := doc.NumPage()
	if pageCount <= 0 {
		return nil, fmt.Errorf("%w: document has no pages", domain.ErrMalformedDocument)
	}
	pages := 1
	if e.allPages {
		pages = pageCount
	}

	pageTexts := make([]string, 0, pages)
	for i := 0; i < pages; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		frags, err := doc.Fragments(i)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrMalformedDocument, err)
		}
		pageTexts = append(pageTexts, MergeFragments(frags))
	}

	if text := strings.TrimSpace(strings.Join(pageTexts, "\n")); text != "" {
		return &domain.ExtractedText{
			Text:      text,
			Method:    domain.ExtractionTextLayer,
			PageCount: pageCount,
			PagesRead: pages,
		}, nil
	}

	ocrPages := min(pages, e.ocrMaxPages)
	log.Info().Int("pages", ocrPages).Msg("extract.Extractor: text layer empty, falling back to OCR")

	text, err := e.recognize(ctx, doc, ocrPages)
	if err != nil {
		return nil, err
	}
	if text == "" {
		return nil, domain.ErrNoExtractableText
	}
	return &domain.ExtractedText{
		Text:      text,
		Method:    domain.ExtractionOCR,
		PageCount: pageCount,
		PagesRead: ocrPages,
	}, nil
}

func (e *Extractor) recognize(ctx context.Context, doc port.PDFDocument, pages int) (string, error) {
	if e.ocr == nil {
		return "", nil
	}

	outputs := make([]string, 0, pages)
	for i := 0; i < pages; i++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		img, err := doc.RenderPNG(i)
		if err != nil {
			return "", fmt.Errorf("%w: %v", domain.ErrMalformedDocument, err)
		}
		out, err := e.ocr.Transcribe(ctx, img, domain.ContentTypePNG)
		if err != nil {
			return "", fmt.Errorf("ocr page %d: %w", i+1, err)
		}
		outputs = append(outputs, strings.TrimSpace(out))
	}
	return strings.TrimSpace(strings.Join(outputs, "\n")), nil
}
