package extract_test

import (
	"bytes"
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"interviewgpt/internal/config"
	"interviewgpt/internal/domain"
	"interviewgpt/internal/extract"
)

// buildPDF writes a one-page PDF whose content stream draws each line with Helvetica.
func buildPDF(lines ...string) []byte {
	var content bytes.Buffer
	content.WriteString("BT /F1 12 Tf 72 720 Td 14 TL\n")
	for _, l := range lines {
		fmt.Fprintf(&content, "(%s) Tj T*\n", l)
	}
	content.WriteString("ET")

	objects := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [3 0 R] /Count 1 >>",
		"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << /Font << /F1 5 0 R >> >> /Contents 4 0 R >>",
		fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", content.Len(), content.String()),
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>",
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}
	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", len(objects)+1)
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)
	return buf.Bytes()
}

func TestFitzOpener_ExtractsTextLayer(t *testing.T) {
	e := extract.NewExtractor(extract.FitzOpener{}, nil, &config.ExtractConfig{AllPages: true, OCRMaxPages: 1})

	out, err := e.Extract(context.Background(), buildPDF("Jane Doe", "Senior Go Engineer"))

	require.NoError(t, err)
	assert.Contains(t, out.Text, "Jane Doe")
	assert.Contains(t, out.Text, "Senior Go Engineer")
	assert.Equal(t, 1, out.PageCount)
	assert.Equal(t, domain.ExtractionTextLayer, out.Method)
}

func TestFitzOpener_JoinsLinesWithNewline(t *testing.T) {
	e := extract.NewExtractor(extract.FitzOpener{}, nil, &config.ExtractConfig{AllPages: true, OCRMaxPages: 1})

	out, err := e.Extract(context.Background(), buildPDF("Jane Doe, Software Engineer", "5 years Go experience"))

	require.NoError(t, err)
	assert.Equal(t, "Jane Doe, Software Engineer\n5 years Go experience", out.Text)
	assert.Equal(t, 1, out.PagesRead)
}

func TestFitzOpener_RendersPNG(t *testing.T) {
	doc, err := extract.FitzOpener{DPI: 36}.Open(buildPDF("Jane Doe"))
	require.NoError(t, err)
	defer func() { _ = doc.Close() }()

	img, err := doc.RenderPNG(0)

	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(img, []byte("\x89PNG")))
}

func TestFitzOpener_NotAPDF(t *testing.T) {
	e := extract.NewExtractor(extract.FitzOpener{}, nil, &config.ExtractConfig{AllPages: true})

	_, err := e.Extract(context.Background(), []byte("this is not a pdf"))

	assert.ErrorIs(t, err, domain.ErrMalformedDocument)
}

func TestFitzOpener_BlankPageHasNoText(t *testing.T) {
	e := extract.NewExtractor(extract.FitzOpener{}, nil, &config.ExtractConfig{AllPages: true, OCRMaxPages: 1})

	_, err := e.Extract(context.Background(), buildPDF())

	assert.ErrorIs(t, err, domain.ErrNoExtractableText)
}
