package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"interviewgpt/internal/domain"
	"interviewgpt/internal/service"
)

// multipartOverhead is the slack allowed on top of the file size for form boundaries and headers.
const multipartOverhead = 1 << 20

// readUpload pulls the "file" form field. Returns false if the request has no
// usable file (error response already written). The caller must run cleanup.
func readUpload(c *gin.Context, maxBytes int64) (input service.UploadInput, cleanup func(), ok bool) {
	if c.Request.Body != nil {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes+multipartOverhead)
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			HandleError(c, domain.ErrFileTooLarge)
		} else {
			HandleError(c, domain.ErrMissingFile)
		}
		return service.UploadInput{}, nil, false
	}

	input = service.UploadInput{
		FileName:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Body:        file,
	}
	return input, func() { _ = file.Close() }, true
}
