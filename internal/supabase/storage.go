package supabase

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	storage "github.com/supabase-community/storage-go"

	"videoai-studio-backend/internal/apperr"
)

type StorageClient struct {
	client  *storage.Client
	bucket  string
	baseURL string
}

// NewStorageClient borrows the storage client the supabase client already
// carries, so storage auth stays in one place.
func NewStorageClient(client *Client, bucket string) *StorageClient {
	return &StorageClient{
		client:  client.Supabase.Storage,
		bucket:  bucket,
		baseURL: strings.TrimSuffix(client.Config.SupabaseURL, "/"),
	}
}

// UploadMedia stores generated media under
// users/{user_id}/projects/{project_id}/{filename} and returns the storage
// path plus the public URL.
func (s *StorageClient) UploadMedia(userID, projectID uuid.UUID, filename string, data []byte, contentType string) (string, string, error) {
	storagePath := fmt.Sprintf("users/%s/projects/%s/%s", userID.String(), projectID.String(), filename)

	if contentType == "" {
		contentType = contentTypeForName(filename)
	}
	upsert := true
	_, err := s.client.UploadFile(s.bucket, storagePath, bytes.NewReader(data), storage.FileOptions{
		ContentType: &contentType,
		Upsert:      &upsert,
	})
	if err != nil {
		return "", "", &apperr.StorageError{Op: "upload", Err: err}
	}

	return storagePath, s.GetPublicURL(storagePath), nil
}

func (s *StorageClient) GetPublicURL(storagePath string) string {
	return fmt.Sprintf("%s/storage/v1/object/public/%s/%s", s.baseURL, s.bucket, storagePath)
}

func (s *StorageClient) DeleteFile(storagePath string) error {
	_, err := s.client.RemoveFile(s.bucket, []string{storagePath})
	if err != nil {
		return &apperr.StorageError{Op: "delete", Err: err}
	}
	return nil
}

// DeleteProjectFiles removes every stored object belonging to a project.
func (s *StorageClient) DeleteProjectFiles(userID, projectID uuid.UUID) error {
	prefix := fmt.Sprintf("users/%s/projects/%s/", userID.String(), projectID.String())

	files, err := s.client.ListFiles(s.bucket, prefix, storage.FileSearchOptions{
		Limit: 1000,
	})
	if err != nil {
		return &apperr.StorageError{Op: "list", Err: err}
	}

	if len(files) > 0 {
		filePaths := make([]string, len(files))
		for i, file := range files {
			filePaths[i] = file.Name
		}
		if _, err := s.client.RemoveFile(s.bucket, filePaths); err != nil {
			return &apperr.StorageError{Op: "delete", Err: err}
		}
	}

	return nil
}

func contentTypeForName(name string) string {
	switch filepath.Ext(name) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".webp":
		return "image/webp"
	case ".mp4":
		return "video/mp4"
	case ".mp3":
		return "audio/mpeg"
	case ".wav":
		return "audio/wav"
	}
	return "application/octet-stream"
}
