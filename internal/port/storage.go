package port

import (
	"context"
	"io"

	"interviewgpt/internal/domain"
)

// UploadInput encapsulates the parameters needed to upload an object.
type UploadInput struct {
	Bucket      string
	Key         string
	Body        io.Reader
	ContentType string
	Size        int64
}

// UploadOutput contains the result of a successful upload.
type UploadOutput struct {
	Location string
	ETag     string
}

// ObjectStorage abstracts cloud object storage operations.
type ObjectStorage interface {
	Upload(ctx context.Context, input UploadInput) (*UploadOutput, error)
	Download(ctx context.Context, bucket, key string) ([]byte, error)
	Delete(ctx context.Context, bucket, key string) error
}

// StagedDocument is an uploaded file held for the duration of one extraction.
type StagedDocument interface {
	Key() string
	Bytes(ctx context.Context) ([]byte, error)
	Release(ctx context.Context) error
}

// Stager places uploads somewhere extraction can read them back from.
type Stager interface {
	Stage(ctx context.Context, doc *domain.Document) (StagedDocument, error)
}
