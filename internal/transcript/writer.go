package transcript

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"interviewgpt/internal/domain"
)

// UTF-8 BOM bytes for Excel compatibility on Windows.
var BOM = []byte{0xEF, 0xBB, 0xBF}

// columns defines the transcript header row.
var columns = []string{
	"Seq",
	"Role",
	"Content",
	"Created At",
}

// Writer wraps csv.Writer for exporting a transcript as CSV.
type Writer struct {
	csv *csv.Writer
}

// NewWriter creates a Writer that writes CSV to w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{csv: csv.NewWriter(w)}
}

// WriteHeader writes the header row.
func (w *Writer) WriteHeader() error {
	return w.csv.Write(columns)
}

// WriteTurns writes one row per visible turn.
func (w *Writer) WriteTurns(turns []domain.Turn) error {
	for i := range turns {
		if turns[i].Hidden {
			continue
		}
		if err := w.csv.Write(turnToRow(&turns[i], true)); err != nil {
			return err
		}
	}
	return nil
}

// Flush flushes the underlying csv.Writer buffer.
func (w *Writer) Flush() {
	w.csv.Flush()
}

// Error returns any error from the underlying csv.Writer.
func (w *Writer) Error() error {
	return w.csv.Error()
}

// WriteCSV writes a complete CSV transcript, BOM included.
func WriteCSV(out io.Writer, turns []domain.Turn) error {
	if _, err := out.Write(BOM); err != nil {
		return err
	}
	w := NewWriter(out)
	if err := w.WriteHeader(); err != nil {
		return err
	}
	if err := w.WriteTurns(turns); err != nil {
		return err
	}
	w.Flush()
	return w.Error()
}

// Write renders turns in the requested format.
func Write(out io.Writer, format domain.ExportFormat, turns []domain.Turn) error {
	switch format {
	case domain.ExportCSV:
		return WriteCSV(out, turns)
	case domain.ExportXLSX:
		return WriteXLSX(out, turns)
	default:
		return fmt.Errorf("%w: %s", domain.ErrUnsupportedFormat, format)
	}
}

// ContentType returns the media type for an export format.
func ContentType(format domain.ExportFormat) string {
	if format == domain.ExportXLSX {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/csv; charset=utf-8"
}

// BuildFilename returns the Content-Disposition filename.
// Format: interview_{first 8 chars of session id}_{YYYY-MM-DD}.{ext}
func BuildFilename(sessionID uuid.UUID, format domain.ExportFormat, now time.Time) string {
	return fmt.Sprintf("interview_%s_%s.%s", sessionID.String()[:8], now.Format("2006-01-02"), format)
}

// turnToRow converts a turn to a row. CSV output neutralises leading formula characters.
func turnToRow(t *domain.Turn, escape bool) []string {
	content := t.Content
	if escape {
		content = escapeFormula(content)
	}
	return []string{
		strconv.Itoa(t.Seq),
		string(t.Role),
		content,
		t.CreatedAt.Format(time.RFC3339),
	}
}

func escapeFormula(s string) string {
	if s != "" && strings.ContainsRune("=+-@\t\r", rune(s[0])) {
		return "'" + s
	}
	return s
}
