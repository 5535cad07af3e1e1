package staging

import (
	"bytes"
	"context"
	"path"

	"interviewgpt/internal/domain"
	"interviewgpt/internal/port"
)

// ObjectStager stages uploads in object storage. Released objects are deleted.
type ObjectStager struct {
	storage port.ObjectStorage
	bucket  string
	prefix  string
}

// NewObjectStager creates an ObjectStager writing under prefix in bucket.
func NewObjectStager(storage port.ObjectStorage, bucket, prefix string) *ObjectStager {
	return &ObjectStager{storage: storage, bucket: bucket, prefix: prefix}
}

func (s *ObjectStager) Stage(ctx context.Context, doc *domain.Document) (port.StagedDocument, error) {
	key := path.Join(s.prefix, stagedName(doc.FileName))
	_, err := s.storage.Upload(ctx, port.UploadInput{
		Bucket:      s.bucket,
		Key:         key,
		Body:        bytes.NewReader(doc.Data),
		ContentType: doc.ContentType,
		Size:        int64(len(doc.Data)),
	})
	if err != nil {
		return nil, err
	}
	return &objectDocument{stager: s, key: key}, nil
}

type objectDocument struct {
	stager *ObjectStager
	key    string
}

func (d *objectDocument) Key() string { return d.key }

func (d *objectDocument) Bytes(ctx context.Context) ([]byte, error) {
	return d.stager.storage.Download(ctx, d.stager.bucket, d.key)
}

func (d *objectDocument) Release(ctx context.Context) error {
	return d.stager.storage.Delete(ctx, d.stager.bucket, d.key)
}
