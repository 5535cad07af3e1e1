package staging

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"interviewgpt/internal/domain"
	"interviewgpt/internal/port"
)

var errReleased = errors.New("staged document already released")

// LocalStager writes uploads to a private directory on local disk.
type LocalStager struct {
	dir string
}

// NewLocalStager creates the staging directory if needed. An empty dir uses the OS temp directory.
func NewLocalStager(dir string) (*LocalStager, error) {
	if dir == "" {
		dir = filepath.Join(os.TempDir(), "interview-uploads")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("creating staging dir: %w", err)
	}
	return &LocalStager{dir: dir}, nil
}

func (s *LocalStager) Stage(_ context.Context, doc *domain.Document) (port.StagedDocument, error) {
	path := filepath.Join(s.dir, stagedName(doc.FileName))
	if err := os.WriteFile(path, doc.Data, 0o600); err != nil {
		return nil, fmt.Errorf("staging upload: %w", err)
	}
	return &localDocument{path: path}, nil
}

type localDocument struct {
	path string
}

func (d *localDocument) Key() string { return d.path }

func (d *localDocument) Bytes(context.Context) ([]byte, error) {
	data, err := os.ReadFile(d.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, errReleased
	}
	if err != nil {
		return nil, fmt.Errorf("reading staged upload: %w", err)
	}
	return data, nil
}

func (d *localDocument) Release(context.Context) error {
	if err := os.Remove(d.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("removing staged upload: %w", err)
	}
	return nil
}
