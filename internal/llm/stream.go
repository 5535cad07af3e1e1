package llm

import (
	"bufio"
	"errors"
	"io"
	"strings"

	"interviewgpt/internal/port"
)

// Collect drains a fragment stream in arrival order and closes it.
// onFragment, when set, sees every non-empty fragment before it is appended.
func Collect(stream port.FragmentStream, onFragment func(string)) (string, error) {
	defer func() { _ = stream.Close() }()

	var sb strings.Builder
	for {
		frag, err := stream.Next()
		if errors.Is(err, io.EOF) {
			return sb.String(), nil
		}
		if err != nil {
			return sb.String(), err
		}
		if frag == "" {
			continue
		}
		if onFragment != nil {
			onFragment(frag)
		}
		sb.WriteString(frag)
	}
}

// Event is one Server-Sent Event from a provider stream.
type Event struct {
	Name string
	Data string
}

// EventReader parses a Server-Sent Events body.
type EventReader struct {
	scanner *bufio.Scanner
}

// NewEventReader creates a new SSE reader.
func NewEventReader(r io.Reader) *EventReader {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	return &EventReader{scanner: scanner}
}

// Next returns the next event with a data payload, or io.EOF when the body ends.
func (r *EventReader) Next() (*Event, error) {
	var ev Event
	var data []string
	for r.scanner.Scan() {
		line := r.scanner.Text()
		switch {
		case line == "":
			if len(data) > 0 {
				ev.Data = strings.Join(data, "\n")
				return &ev, nil
			}
			ev = Event{}
		case strings.HasPrefix(line, ":"):
			// comment / keep-alive
		case strings.HasPrefix(line, "event:"):
			ev.Name = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			data = append(data, strings.TrimPrefix(strings.TrimPrefix(line, "data:"), " "))
		}
	}
	if err := r.scanner.Err(); err != nil {
		return nil, err
	}
	if len(data) > 0 {
		ev.Data = strings.Join(data, "\n")
		return &ev, nil
	}
	return nil, io.EOF
}
