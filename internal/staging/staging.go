// Package staging holds uploaded resumes while they are being extracted.
// Every staged document is released once extraction finishes.
package staging

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"interviewgpt/internal/config"
	"interviewgpt/internal/port"
	s3storage "interviewgpt/internal/storage/s3"
)

// New builds the stager selected by cfg.Staging.Backend.
func New(ctx context.Context, cfg *config.Config) (port.Stager, error) {
	switch cfg.Staging.Backend {
	case "", "memory":
		return MemoryStager{}, nil
	case "local":
		return NewLocalStager(cfg.Staging.LocalDir)
	case "s3":
		storage, err := s3storage.NewS3Client(ctx, &cfg.S3)
		if err != nil {
			return nil, err
		}
		return NewObjectStager(storage, cfg.S3.Bucket, cfg.Staging.Prefix), nil
	default:
		return nil, fmt.Errorf("unknown staging backend: %s", cfg.Staging.Backend)
	}
}

// stagedName returns a collision-free name that keeps the original file name readable.
func stagedName(fileName string) string {
	return uuid.NewString() + "-" + sanitizeFileName(fileName)
}

func sanitizeFileName(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	if name == "." || name == "/" || name == "" {
		return "upload.pdf"
	}
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			return r
		}
		return '_'
	}, name)
}
