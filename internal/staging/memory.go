package staging

import (
	"context"

	"interviewgpt/internal/domain"
	"interviewgpt/internal/port"
)

// MemoryStager keeps the upload in process memory.
type MemoryStager struct{}

func (MemoryStager) Stage(_ context.Context, doc *domain.Document) (port.StagedDocument, error) {
	return &memoryDocument{key: stagedName(doc.FileName), data: doc.Data}, nil
}

type memoryDocument struct {
	key  string
	data []byte
}

func (d *memoryDocument) Key() string { return d.key }

func (d *memoryDocument) Bytes(context.Context) ([]byte, error) {
	if d.data == nil {
		return nil, errReleased
	}
	return d.data, nil
}

func (d *memoryDocument) Release(context.Context) error {
	d.data = nil
	return nil
}
