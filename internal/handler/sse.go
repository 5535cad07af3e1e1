package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// replyFunc runs one completion. onFragment is nil for a non-streaming reply.
type replyFunc func(onFragment func(string)) (string, error)

// respondReply answers with a JSON reply, or with an SSE stream of
// "fragment" events closed by a "done" or "error" event.
func respondReply(c *gin.Context, stream bool, run replyFunc) {
	if !stream {
		reply, err := run(nil)
		if err != nil {
			HandleError(c, err)
			return
		}
		RespondOK(c, ReplyResponse{Status: statusOK, Response: reply})
		return
	}

	s := &eventStream{c: c}
	reply, err := run(s.fragment)
	s.finish(reply, err)
}

// eventStream writes Server-Sent Events. Headers go out with the first event,
// so a failure before any output still gets a regular JSON error response.
type eventStream struct {
	c       *gin.Context
	started bool
}

func (s *eventStream) start() {
	if s.started {
		return
	}
	s.started = true
	h := s.c.Writer.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	s.c.Status(http.StatusOK)
}

func (s *eventStream) fragment(text string) {
	s.start()
	s.c.SSEvent("fragment", FragmentEvent{Text: text})
	s.c.Writer.Flush()
}

func (s *eventStream) finish(reply string, err error) {
	if err != nil && !s.started {
		HandleError(s.c, err)
		return
	}

	s.start()
	if err != nil {
		status, code, msg := MapDomainError(err)
		logError(s.c, status, err)
		s.c.SSEvent("error", ErrorResponse{Status: statusError, Code: code, Error: msg})
	} else {
		s.c.SSEvent("done", DoneEvent{Response: reply})
	}
	s.c.Writer.Flush()
}
