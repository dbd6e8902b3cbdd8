// Package content manages uploaded course materials, extracting document
// text for search and preview.
package content

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"strings"

	"github.com/google/uuid"
	"github.com/ledongthuc/pdf"

	"github.com/dmaguire/rampart/internal/common"
	"github.com/dmaguire/rampart/internal/interfaces"
	"github.com/dmaguire/rampart/internal/models"
)

var (
	ErrMaterialNotFound = errors.New("material not found")
	ErrFileTooLarge     = errors.New("file exceeds upload limit")
)

const (
	// MaxUploadBytes caps material uploads.
	MaxUploadBytes = 25 * 1024 * 1024

	fileCategory = "material"

	// maxExtractedChars caps stored extracted text so a dense document
	// doesn't bloat the metadata record.
	maxExtractedChars = 200_000
)

// Service implements interfaces.ContentService.
type Service struct {
	storage interfaces.StorageManager
	logger  *common.Logger
}

// NewService creates the content service.
func NewService(storage interfaces.StorageManager, logger *common.Logger) *Service {
	return &Service{storage: storage, logger: logger}
}

// UploadMaterial stores a document and its metadata. PDF text is extracted
// for search; extraction failure is not fatal, the document is still stored.
func (s *Service) UploadMaterial(ctx context.Context, courseID string, header *multipart.FileHeader) (*models.CourseMaterial, error) {
	if header.Size > MaxUploadBytes {
		return nil, ErrFileTooLarge
	}

	file, err := header.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open upload: %w", err)
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, MaxUploadBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}
	if int64(len(data)) > MaxUploadBytes {
		return nil, ErrFileTooLarge
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	material := &models.CourseMaterial{
		MaterialID:  uuid.New().String(),
		CourseID:    courseID,
		Filename:    header.Filename,
		ContentType: contentType,
		SizeBytes:   int64(len(data)),
	}

	if isPDF(contentType, header.Filename) {
		text, pages, err := extractPDFText(data)
		if err != nil {
			s.logger.Warn().Err(err).Str("filename", header.Filename).Msg("PDF text extraction failed")
		} else {
			material.ExtractedText = text
			material.PageCount = pages
		}
	}

	if err := s.storage.FileStore().SaveFile(ctx, fileCategory, material.MaterialID, data, contentType); err != nil {
		return nil, fmt.Errorf("failed to store file: %w", err)
	}
	if err := s.storage.CourseStore().SaveMaterial(ctx, material); err != nil {
		// Roll back the blob so a failed metadata write doesn't strand it.
		if delErr := s.storage.FileStore().DeleteFile(ctx, fileCategory, material.MaterialID); delErr != nil {
			s.logger.Warn().Err(delErr).Msg("failed to clean up orphaned upload")
		}
		return nil, fmt.Errorf("failed to save material: %w", err)
	}

	s.logger.Debug().
		Str("material_id", material.MaterialID).
		Str("course_id", courseID).
		Int64("size", material.SizeBytes).
		Msg("material uploaded")
	return material, nil
}

func (s *Service) GetMaterial(ctx context.Context, materialID string) (*models.CourseMaterial, error) {
	material, err := s.storage.CourseStore().GetMaterial(ctx, materialID)
	if err != nil {
		return nil, ErrMaterialNotFound
	}
	return material, nil
}

func (s *Service) GetMaterialData(ctx context.Context, materialID string) ([]byte, string, error) {
	if _, err := s.storage.CourseStore().GetMaterial(ctx, materialID); err != nil {
		return nil, "", ErrMaterialNotFound
	}
	return s.storage.FileStore().GetFile(ctx, fileCategory, materialID)
}

func (s *Service) ListMaterials(ctx context.Context, courseID string) ([]*models.CourseMaterial, error) {
	return s.storage.CourseStore().ListMaterials(ctx, courseID)
}

func (s *Service) DeleteMaterial(ctx context.Context, materialID string) error {
	if _, err := s.storage.CourseStore().GetMaterial(ctx, materialID); err != nil {
		return ErrMaterialNotFound
	}
	if err := s.storage.FileStore().DeleteFile(ctx, fileCategory, materialID); err != nil {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return s.storage.CourseStore().DeleteMaterial(ctx, materialID)
}

func isPDF(contentType, filename string) bool {
	return contentType == "application/pdf" || strings.HasSuffix(strings.ToLower(filename), ".pdf")
}

// extractPDFText pulls plain text and the page count from PDF bytes.
func extractPDFText(data []byte) (string, int, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", 0, fmt.Errorf("failed to parse PDF: %w", err)
	}

	pages := reader.NumPage()
	var b strings.Builder
	for i := 1; i <= pages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		b.WriteString(text)
		b.WriteString("\n")
		if b.Len() > maxExtractedChars {
			break
		}
	}

	text := b.String()
	if len(text) > maxExtractedChars {
		text = text[:maxExtractedChars]
	}
	return strings.TrimSpace(text), pages, nil
}

// Compile-time check
var _ interfaces.ContentService = (*Service)(nil)
