package document

import (
	"context"

	"github.com/juparave/gapaudit/internal/domain"
)

// FileState is the processing state reported by the vendor file service
type FileState string

const (
	FileProcessing FileState = "processing"
	FileReady      FileState = "ready"
	FileFailed     FileState = "error"
)

// FileService is the remote file-processing API
type FileService interface {
	Upload(ctx context.Context, path, mimeType, displayName string) (*domain.RemoteFile, FileState, error)
	Status(ctx context.Context, file *domain.RemoteFile) (FileState, error)
	Delete(ctx context.Context, file *domain.RemoteFile) error
}
