package surrealdb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/surrealdb/surrealdb.go"
	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"

	"github.com/dmaguire/rampart/internal/common"
	"github.com/dmaguire/rampart/internal/interfaces"
	"github.com/dmaguire/rampart/internal/models"
)

// ContentStore implements interfaces.CourseStore on SurrealDB.
type ContentStore struct {
	db     *surrealdb.DB
	logger *common.Logger
}

func NewContentStore(db *surrealdb.DB, logger *common.Logger) *ContentStore {
	return &ContentStore{
		db:     db,
		logger: logger,
	}
}

func (s *ContentStore) GetCourse(ctx context.Context, courseID string) (*models.Course, error) {
	course, err := surrealdb.Select[models.Course](ctx, s.db, surrealmodels.NewRecordID("course", courseID))
	if err != nil {
		return nil, fmt.Errorf("failed to select course: %w", err)
	}
	if course == nil {
		return nil, errors.New("course not found")
	}
	return course, nil
}

func (s *ContentStore) GetCourseBySlug(ctx context.Context, slug string) (*models.Course, error) {
	sql := "SELECT * FROM course WHERE slug = $slug LIMIT 1"
	vars := map[string]any{"slug": slug}

	results, err := surrealdb.Query[[]models.Course](ctx, s.db, sql, vars)
	if err != nil {
		return nil, fmt.Errorf("failed to query course by slug: %w", err)
	}
	if results != nil && len(*results) > 0 && len((*results)[0].Result) > 0 {
		return &(*results)[0].Result[0], nil
	}
	return nil, errors.New("course not found")
}

func (s *ContentStore) SaveCourse(ctx context.Context, course *models.Course) error {
	course.ModifiedAt = time.Now()
	if course.CreatedAt.IsZero() {
		course.CreatedAt = course.ModifiedAt
	}

	sql := "UPSERT type::record('course', $id) CONTENT $course"
	vars := map[string]any{"id": course.CourseID, "course": course}

	for attempt := 1; attempt <= 3; attempt++ {
		_, err := surrealdb.Query[[]models.Course](ctx, s.db, sql, vars)
		if err == nil {
			return nil
		}
		if attempt == 3 {
			return fmt.Errorf("failed to save course after retries: %w", err)
		}
	}
	return nil
}

func (s *ContentStore) DeleteCourse(ctx context.Context, courseID string) error {
	_, err := surrealdb.Delete[models.Course](ctx, s.db, surrealmodels.NewRecordID("course", courseID))
	if err != nil && !isNotFoundError(err) {
		return fmt.Errorf("failed to delete course: %w", err)
	}
	return nil
}

func (s *ContentStore) ListCourses(ctx context.Context, opts interfaces.CourseListOptions) ([]*models.Course, error) {
	sql := "SELECT * FROM course WHERE 1 = 1"
	vars := map[string]any{}

	if opts.Category != "" {
		sql += " AND category = $category"
		vars["category"] = opts.Category
	}
	if opts.Level != "" {
		sql += " AND level = $level"
		vars["level"] = opts.Level
	}
	if opts.InstructorID != "" {
		sql += " AND instructor_id = $instructor_id"
		vars["instructor_id"] = opts.InstructorID
	}
	if opts.PublishedOnly {
		sql += " AND published = true"
	}
	sql += " ORDER BY created_at DESC"
	if opts.Limit > 0 {
		sql += fmt.Sprintf(" LIMIT %d", opts.Limit)
	}

	results, err := surrealdb.Query[[]models.Course](ctx, s.db, sql, vars)
	if err != nil {
		return nil, fmt.Errorf("failed to list courses: %w", err)
	}

	if results != nil && len(*results) > 0 {
		var mapped []*models.Course
		for i := range (*results)[0].Result {
			mapped = append(mapped, &(*results)[0].Result[i])
		}
		return mapped, nil
	}
	return nil, nil
}

// Enrollment ID format: enrollment:<userID>_<courseID>
func enrollmentID(userID, courseID string) string {
	return userID + "_" + courseID
}

func (s *ContentStore) GetEnrollment(ctx context.Context, userID, courseID string) (*models.Enrollment, error) {
	enrollment, err := surrealdb.Select[models.Enrollment](ctx, s.db, surrealmodels.NewRecordID("enrollment", enrollmentID(userID, courseID)))
	if err != nil {
		return nil, fmt.Errorf("failed to select enrollment: %w", err)
	}
	if enrollment == nil {
		return nil, errors.New("enrollment not found")
	}
	return enrollment, nil
}

func (s *ContentStore) SaveEnrollment(ctx context.Context, enrollment *models.Enrollment) error {
	sql := "UPSERT type::record('enrollment', $id) CONTENT $enrollment"
	vars := map[string]any{
		"id":         enrollmentID(enrollment.UserID, enrollment.CourseID),
		"enrollment": enrollment,
	}

	for attempt := 1; attempt <= 3; attempt++ {
		_, err := surrealdb.Query[[]models.Enrollment](ctx, s.db, sql, vars)
		if err == nil {
			return nil
		}
		if attempt == 3 {
			return fmt.Errorf("failed to save enrollment after retries: %w", err)
		}
	}
	return nil
}

func (s *ContentStore) listEnrollments(ctx context.Context, sql string, vars map[string]any) ([]*models.Enrollment, error) {
	results, err := surrealdb.Query[[]models.Enrollment](ctx, s.db, sql, vars)
	if err != nil {
		return nil, fmt.Errorf("failed to list enrollments: %w", err)
	}
	if results != nil && len(*results) > 0 {
		var mapped []*models.Enrollment
		for i := range (*results)[0].Result {
			mapped = append(mapped, &(*results)[0].Result[i])
		}
		return mapped, nil
	}
	return nil, nil
}

func (s *ContentStore) ListEnrollmentsByUser(ctx context.Context, userID string) ([]*models.Enrollment, error) {
	return s.listEnrollments(ctx, "SELECT * FROM enrollment WHERE user_id = $user_id", map[string]any{"user_id": userID})
}

func (s *ContentStore) ListEnrollmentsByCourse(ctx context.Context, courseID string) ([]*models.Enrollment, error) {
	return s.listEnrollments(ctx, "SELECT * FROM enrollment WHERE course_id = $course_id", map[string]any{"course_id": courseID})
}

func (s *ContentStore) ListAllEnrollments(ctx context.Context) ([]*models.Enrollment, error) {
	return s.listEnrollments(ctx, "SELECT * FROM enrollment", map[string]any{})
}

func (s *ContentStore) GetMaterial(ctx context.Context, materialID string) (*models.CourseMaterial, error) {
	material, err := surrealdb.Select[models.CourseMaterial](ctx, s.db, surrealmodels.NewRecordID("material", materialID))
	if err != nil {
		return nil, fmt.Errorf("failed to select material: %w", err)
	}
	if material == nil {
		return nil, errors.New("material not found")
	}
	return material, nil
}

func (s *ContentStore) SaveMaterial(ctx context.Context, material *models.CourseMaterial) error {
	if material.UploadedAt.IsZero() {
		material.UploadedAt = time.Now()
	}

	sql := "UPSERT type::record('material', $id) CONTENT $material"
	vars := map[string]any{"id": material.MaterialID, "material": material}

	for attempt := 1; attempt <= 3; attempt++ {
		_, err := surrealdb.Query[[]models.CourseMaterial](ctx, s.db, sql, vars)
		if err == nil {
			return nil
		}
		if attempt == 3 {
			return fmt.Errorf("failed to save material after retries: %w", err)
		}
	}
	return nil
}

func (s *ContentStore) DeleteMaterial(ctx context.Context, materialID string) error {
	_, err := surrealdb.Delete[models.CourseMaterial](ctx, s.db, surrealmodels.NewRecordID("material", materialID))
	if err != nil && !isNotFoundError(err) {
		return fmt.Errorf("failed to delete material: %w", err)
	}
	return nil
}

func (s *ContentStore) ListMaterials(ctx context.Context, courseID string) ([]*models.CourseMaterial, error) {
	sql := "SELECT * FROM material WHERE course_id = $course_id ORDER BY uploaded_at ASC"
	vars := map[string]any{"course_id": courseID}

	results, err := surrealdb.Query[[]models.CourseMaterial](ctx, s.db, sql, vars)
	if err != nil {
		return nil, fmt.Errorf("failed to list materials: %w", err)
	}
	if results != nil && len(*results) > 0 {
		var mapped []*models.CourseMaterial
		for i := range (*results)[0].Result {
			mapped = append(mapped, &(*results)[0].Result[i])
		}
		return mapped, nil
	}
	return nil, nil
}

// Compile-time check
var _ interfaces.CourseStore = (*ContentStore)(nil)
