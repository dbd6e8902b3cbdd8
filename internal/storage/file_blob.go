package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// fileBlobStore implements interfaces.FileStore on disk. Each blob is a data
// file plus a JSON sidecar holding the content type.
type fileBlobStore struct {
	m *FileManager
}

type blobMeta struct {
	ContentType string    `json:"content_type"`
	Size        int       `json:"size"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (s *fileBlobStore) blobPath(category, key string) string {
	return filepath.Join(s.m.contentPath, "files", sanitizeKey(category)+"_"+sanitizeKey(key))
}

func (s *fileBlobStore) SaveFile(ctx context.Context, category, key string, data []byte, contentType string) error {
	path := s.blobPath(category, key)
	if err := writeAtomic(path, data); err != nil {
		return fmt.Errorf("failed to save file %s/%s: %w", category, key, err)
	}
	meta := blobMeta{ContentType: contentType, Size: len(data), UpdatedAt: time.Now()}
	return writeJSON(path+".meta.json", &meta)
}

func (s *fileBlobStore) GetFile(ctx context.Context, category, key string) ([]byte, string, error) {
	path := s.blobPath(category, key)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, "", fmt.Errorf("file not found: %s/%s", category, key)
		}
		return nil, "", fmt.Errorf("failed to read file %s/%s: %w", category, key, err)
	}
	var meta blobMeta
	contentType := "application/octet-stream"
	if err := readJSON(path+".meta.json", &meta); err == nil && meta.ContentType != "" {
		contentType = meta.ContentType
	}
	return data, contentType, nil
}

func (s *fileBlobStore) DeleteFile(ctx context.Context, category, key string) error {
	path := s.blobPath(category, key)
	if err := removeIfExists(path); err != nil {
		return err
	}
	return removeIfExists(path + ".meta.json")
}

func (s *fileBlobStore) HasFile(ctx context.Context, category, key string) (bool, error) {
	_, err := os.Stat(s.blobPath(category, key))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
