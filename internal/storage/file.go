// Package storage provides persistence with pluggable backends: local JSON
// areas for development and tests, SurrealDB for deployments.
package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dmaguire/rampart/internal/common"
	"github.com/dmaguire/rampart/internal/interfaces"
)

// Directory layout under the internal and content areas.
var (
	internalSubdirs = []string{"users", "user_kv", "otp", "activity"}
	contentSubdirs  = []string{"courses", "enrollments", "materials", "posts", "files", "raw"}
)

// FileManager implements interfaces.StorageManager over local JSON files.
type FileManager struct {
	internalPath string
	contentPath  string
	logger       *common.Logger

	userStore     *fileUserStore
	courseStore   *fileCourseStore
	blogStore     *fileBlogStore
	otpStore      *fileOTPStore
	activityStore *fileActivityStore
	fileStore     *fileBlobStore
}

// NewFileManager creates a file-backed StorageManager and ensures the
// directory layout exists.
func NewFileManager(logger *common.Logger, config *common.StorageConfig) (*FileManager, error) {
	internalPath := config.Internal.Path
	if internalPath == "" {
		internalPath = "data/internal"
	}
	contentPath := config.Content.Path
	if contentPath == "" {
		contentPath = "data/content"
	}

	for _, sub := range internalSubdirs {
		if err := os.MkdirAll(filepath.Join(internalPath, sub), 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory %s: %w", sub, err)
		}
	}
	for _, sub := range contentSubdirs {
		if err := os.MkdirAll(filepath.Join(contentPath, sub), 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory %s: %w", sub, err)
		}
	}

	m := &FileManager{
		internalPath: internalPath,
		contentPath:  contentPath,
		logger:       logger,
	}
	m.userStore = &fileUserStore{m: m}
	m.courseStore = &fileCourseStore{m: m}
	m.blogStore = &fileBlogStore{m: m}
	m.otpStore = &fileOTPStore{m: m}
	m.activityStore = &fileActivityStore{m: m}
	m.fileStore = &fileBlobStore{m: m}

	logger.Debug().
		Str("internal", internalPath).
		Str("content", contentPath).
		Msg("file storage manager opened")
	return m, nil
}

func (m *FileManager) UserStore() interfaces.UserStore         { return m.userStore }
func (m *FileManager) CourseStore() interfaces.CourseStore     { return m.courseStore }
func (m *FileManager) BlogStore() interfaces.BlogStore         { return m.blogStore }
func (m *FileManager) OTPStore() interfaces.OTPStore           { return m.otpStore }
func (m *FileManager) ActivityStore() interfaces.ActivityStore { return m.activityStore }
func (m *FileManager) FileStore() interfaces.FileStore         { return m.fileStore }

func (m *FileManager) DataPath() string {
	return m.contentPath
}

// WriteRaw writes arbitrary binary data under the raw content area.
func (m *FileManager) WriteRaw(subdir, key string, data []byte) error {
	dir := filepath.Join(m.contentPath, "raw", sanitizeKey(subdir))
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create raw directory: %w", err)
	}
	return writeAtomic(filepath.Join(dir, sanitizeKey(key)), data)
}

func (m *FileManager) Close() error {
	return nil
}

// sanitizeKey makes a key safe for use as a filename. Replaces /, \, : with
// _ and collapses ".." to "_" to prevent path traversal.
func sanitizeKey(key string) string {
	r := strings.NewReplacer("/", "_", "\\", "_", ":", "_", "..", "_")
	return r.Replace(key)
}

// jsonPath returns the file path for a key in a subdirectory.
func jsonPath(base, subdir, key string) string {
	return filepath.Join(base, subdir, sanitizeKey(key)+".json")
}

// readJSON reads and unmarshals a JSON file. A missing file returns
// errNotFound.
func readJSON(path string, dest interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return errNotFound
		}
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}

// writeJSON marshals data to indented JSON and writes it atomically.
func writeJSON(path string, data interface{}) error {
	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	jsonData = append(jsonData, '\n')
	return writeAtomic(path, jsonData)
}

// writeAtomic writes bytes to a temp file in the target directory, then
// renames it into place.
func writeAtomic(path string, data []byte) error {
	tmpFile, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	if _, err := tmpFile.Write(data); err != nil {
		tmpFile.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}

// removeIfExists deletes a file, treating a missing file as success.
func removeIfExists(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove %s: %w", path, err)
	}
	return nil
}

// listJSON unmarshals every JSON file in a directory through decode.
func listJSON(dir string, decode func(data []byte) error) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read directory %s: %w", dir, err)
	}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			continue
		}
		if err := decode(data); err != nil {
			return err
		}
	}
	return nil
}

// Compile-time check
var _ interfaces.StorageManager = (*FileManager)(nil)
