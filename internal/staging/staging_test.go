package staging_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"interviewgpt/internal/config"
	"interviewgpt/internal/domain"
	"interviewgpt/internal/port"
	"interviewgpt/internal/staging"
	"interviewgpt/mocks"
)

func resumeDoc() *domain.Document {
	data := []byte("%PDF-1.4 resume")
	return &domain.Document{
		FileName:    "Jane Doe resume.pdf",
		ContentType: domain.ContentTypePDF,
		Size:        int64(len(data)),
		Data:        data,
	}
}

func TestMemoryStager(t *testing.T) {
	ctx := context.Background()
	staged, err := staging.MemoryStager{}.Stage(ctx, resumeDoc())
	require.NoError(t, err)

	assert.True(t, strings.HasSuffix(staged.Key(), "-Jane_Doe_resume.pdf"))
	data, err := staged.Bytes(ctx)
	require.NoError(t, err)
	assert.Equal(t, []byte("%PDF-1.4 resume"), data)

	require.NoError(t, staged.Release(ctx))
	_, err = staged.Bytes(ctx)
	assert.Error(t, err)
}

func TestLocalStager(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	stager, err := staging.NewLocalStager(dir)
	require.NoError(t, err)

	staged, err := stager.Stage(ctx, resumeDoc())
	require.NoError(t, err)
	assert.Equal(t, dir, filepath.Dir(staged.Key()))

	data, err := staged.Bytes(ctx)
	require.NoError(t, err)
	assert.Equal(t, []byte("%PDF-1.4 resume"), data)

	require.NoError(t, staged.Release(ctx))
	_, statErr := os.Stat(staged.Key())
	assert.True(t, os.IsNotExist(statErr))

	// Releasing twice is harmless.
	assert.NoError(t, staged.Release(ctx))
}

func TestLocalStager_PathTraversalInName(t *testing.T) {
	dir := t.TempDir()
	stager, err := staging.NewLocalStager(dir)
	require.NoError(t, err)

	doc := resumeDoc()
	doc.FileName = "../../etc/passwd"
	staged, err := stager.Stage(context.Background(), doc)
	require.NoError(t, err)
	defer func() { _ = staged.Release(context.Background()) }()

	assert.Equal(t, dir, filepath.Dir(staged.Key()))
}

func TestObjectStager(t *testing.T) {
	ctx := context.Background()
	storage := new(mocks.MockObjectStorage)
	storage.On("Upload", mock.Anything, mock.MatchedBy(func(in port.UploadInput) bool {
		return in.Bucket == "uploads-bucket" &&
			strings.HasPrefix(in.Key, "resumes/") &&
			in.ContentType == domain.ContentTypePDF &&
			in.Size == int64(len("%PDF-1.4 resume"))
	})).Return(&port.UploadOutput{Location: "s3://uploads-bucket/x"}, nil)

	stager := staging.NewObjectStager(storage, "uploads-bucket", "resumes")
	staged, err := stager.Stage(ctx, resumeDoc())
	require.NoError(t, err)

	storage.On("Download", mock.Anything, "uploads-bucket", staged.Key()).Return([]byte("%PDF-1.4 resume"), nil)
	storage.On("Delete", mock.Anything, "uploads-bucket", staged.Key()).Return(nil)

	data, err := staged.Bytes(ctx)
	require.NoError(t, err)
	assert.Equal(t, []byte("%PDF-1.4 resume"), data)

	require.NoError(t, staged.Release(ctx))
	storage.AssertExpectations(t)
}

func TestObjectStager_UploadFails(t *testing.T) {
	storage := new(mocks.MockObjectStorage)
	storage.On("Upload", mock.Anything, mock.Anything).Return(nil, errors.New("s3 upload: access denied"))

	_, err := staging.NewObjectStager(storage, "b", "p").Stage(context.Background(), resumeDoc())

	assert.Error(t, err)
}

func TestNew(t *testing.T) {
	cfg := &config.Config{}

	cfg.Staging.Backend = "memory"
	s, err := staging.New(context.Background(), cfg)
	require.NoError(t, err)
	assert.IsType(t, staging.MemoryStager{}, s)

	cfg.Staging.Backend = "local"
	cfg.Staging.LocalDir = t.TempDir()
	s, err = staging.New(context.Background(), cfg)
	require.NoError(t, err)
	assert.IsType(t, &staging.LocalStager{}, s)

	cfg.Staging.Backend = "ftp"
	_, err = staging.New(context.Background(), cfg)
	assert.Error(t, err)
}
