package document

import (
	"context"
	"fmt"

	"github.com/juparave/gapaudit/internal/domain"
	"google.golang.org/genai"
)

// GeminiFiles implements FileService on top of the Gemini Files API
type GeminiFiles struct {
	client *genai.Client
}

// NewGeminiFiles creates a FileService bound to an existing genai client
func NewGeminiFiles(client *genai.Client) *GeminiFiles {
	return &GeminiFiles{client: client}
}

// Upload sends the file at path to the Files API
func (g *GeminiFiles) Upload(ctx context.Context, path, mimeType, displayName string) (*domain.RemoteFile, FileState, error) {
	f, err := g.client.Files.UploadFromPath(ctx, path, &genai.UploadFileConfig{
		MIMEType:    mimeType,
		DisplayName: displayName,
	})
	if err != nil {
		return nil, "", fmt.Errorf("uploading file: %w", err)
	}

	return &domain.RemoteFile{
		Name:     f.Name,
		URI:      f.URI,
		MIMEType: f.MIMEType,
	}, mapState(f.State), nil
}

// Status fetches the current processing state
func (g *GeminiFiles) Status(ctx context.Context, file *domain.RemoteFile) (FileState, error) {
	f, err := g.client.Files.Get(ctx, file.Name, nil)
	if err != nil {
		return "", fmt.Errorf("getting file %s: %w", file.Name, err)
	}
	if f.URI != "" {
		file.URI = f.URI
	}
	return mapState(f.State), nil
}

// Delete releases the remote file
func (g *GeminiFiles) Delete(ctx context.Context, file *domain.RemoteFile) error {
	if _, err := g.client.Files.Delete(ctx, file.Name, nil); err != nil {
		return fmt.Errorf("deleting file %s: %w", file.Name, err)
	}
	return nil
}

func mapState(s genai.FileState) FileState {
	switch s {
	case genai.FileStateActive:
		return FileReady
	case genai.FileStateFailed:
		return FileFailed
	default:
		// unspecified is reported while the upload is still being indexed
		return FileProcessing
	}
}
