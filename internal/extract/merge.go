package extract

import (
	"strings"

	"interviewgpt/internal/port"
)

// MergeFragments concatenates page fragments in layout order. A fragment marked
// end-of-line is followed by a newline, any other by a single space.
func MergeFragments(frags []port.TextFragment) string {
	var sb strings.Builder
	for i, f := range frags {
		sb.WriteString(f.Text)
		if i == len(frags)-1 {
			break
		}
		if f.EndOfLine {
			sb.WriteByte('\n')
		} else {
			sb.WriteByte(' ')
		}
	}
	return sb.String()
}

// SplitFragments breaks plain page text into word fragments. The last word of a
// line carries EndOfLine; a blank line becomes an empty end-of-line fragment.
func SplitFragments(text string) []port.TextFragment {
	text = strings.TrimRight(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	if strings.TrimSpace(text) == "" {
		return nil
	}

	var frags []port.TextFragment
	for _, line := range strings.Split(text, "\n") {
		words := strings.Fields(line)
		if len(words) == 0 {
			frags = append(frags, port.TextFragment{EndOfLine: true})
			continue
		}
		for i, w := range words {
			frags = append(frags, port.TextFragment{Text: w, EndOfLine: i == len(words)-1})
		}
	}
	return frags
}
