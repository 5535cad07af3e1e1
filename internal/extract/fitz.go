package extract

import (
	"bytes"
	"fmt"
	"image/png"

	"github.com/gen2brain/go-fitz"

	"interviewgpt/internal/port"
)

const defaultRenderDPI = 150

// FitzOpener opens PDFs with MuPDF through go-fitz.
type FitzOpener struct {
	// DPI used when rasterising pages for OCR. Zero means 150.
	DPI float64
}

// Open parses the PDF held in data.
func (o FitzOpener) Open(data []byte) (port.PDFDocument, error) {
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return nil, fmt.Errorf("opening pdf: %w", err)
	}
	dpi := o.DPI
	if dpi <= 0 {
		dpi = defaultRenderDPI
	}
	return &fitzDocument{doc: doc, dpi: dpi}, nil
}

type fitzDocument struct {
	doc *fitz.Document
	dpi float64
}

func (d *fitzDocument) NumPage() int {
	return d.doc.NumPage()
}

func (d *fitzDocument) Fragments(page int) ([]port.TextFragment, error) {
	text, err := d.doc.Text(page)
	if err != nil {
		return nil, fmt.Errorf("reading text of page %d: %w", page+1, err)
	}
	return SplitFragments(text), nil
}

func (d *fitzDocument) RenderPNG(page int) ([]byte, error) {
	img, err := d.doc.ImageDPI(page, d.dpi)
	if err != nil {
		return nil, fmt.Errorf("rendering page %d: %w", page+1, err)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encoding page %d as png: %w", page+1, err)
	}
	return buf.Bytes(), nil
}

func (d *fitzDocument) Close() error {
	return d.doc.Close()
}
