// Package catalog manages the course catalog and student enrollments.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dmaguire/rampart/internal/common"
	"github.com/dmaguire/rampart/internal/interfaces"
	"github.com/dmaguire/rampart/internal/models"
)

var (
	ErrCourseNotFound  = errors.New("course not found")
	ErrNotPublished    = errors.New("course is not published")
	ErrForbidden       = errors.New("not allowed to modify this course")
	ErrNotEnrolled     = errors.New("not enrolled in this course")
	ErrInvalidProgress = errors.New("progress must be between 0 and 100")
)

// Service implements interfaces.CatalogService.
type Service struct {
	storage  interfaces.StorageManager
	activity ActivityRecorder
	logger   *common.Logger
}

// ActivityRecorder is the subset of the activity recorder the catalog emits to.
type ActivityRecorder interface {
	Record(ctx context.Context, eventType, userID, subject string)
}

// NewService creates the catalog service.
func NewService(storage interfaces.StorageManager, activity ActivityRecorder, logger *common.Logger) *Service {
	return &Service{storage: storage, activity: activity, logger: logger}
}

// GetCourse retrieves a course by ID, falling back to slug lookup.
func (s *Service) GetCourse(ctx context.Context, idOrSlug string) (*models.Course, error) {
	store := s.storage.CourseStore()
	if course, err := store.GetCourse(ctx, idOrSlug); err == nil {
		return course, nil
	}
	course, err := store.GetCourseBySlug(ctx, idOrSlug)
	if err != nil {
		return nil, ErrCourseNotFound
	}
	return course, nil
}

func (s *Service) ListCourses(ctx context.Context, opts interfaces.CourseListOptions) ([]*models.Course, error) {
	return s.storage.CourseStore().ListCourses(ctx, opts)
}

// SaveCourse creates or updates a course. New courses get an ID and slug.
// Only the owning instructor or an admin may modify an existing course.
func (s *Service) SaveCourse(ctx context.Context, actor *models.User, course *models.Course) (*models.Course, error) {
	if actor == nil {
		return nil, ErrForbidden
	}
	if strings.TrimSpace(course.Title) == "" {
		return nil, fmt.Errorf("course title is required")
	}

	store := s.storage.CourseStore()
	isNew := course.CourseID == ""
	wasPublished := false

	if isNew {
		course.CourseID = uuid.New().String()
		if course.InstructorID == "" {
			course.InstructorID = actor.UserID
		}
	} else {
		existing, err := store.GetCourse(ctx, course.CourseID)
		if err != nil {
			return nil, ErrCourseNotFound
		}
		if actor.Role != models.RoleAdmin && existing.InstructorID != actor.UserID {
			return nil, ErrForbidden
		}
		course.InstructorID = existing.InstructorID
		course.CreatedAt = existing.CreatedAt
		wasPublished = existing.Published
	}

	if course.Slug == "" {
		course.Slug = Slugify(course.Title)
	}
	if course.Level == "" {
		course.Level = models.LevelBeginner
	}

	if err := store.SaveCourse(ctx, course); err != nil {
		return nil, fmt.Errorf("failed to save course: %w", err)
	}

	if course.Published && !wasPublished && s.activity != nil {
		s.activity.Record(ctx, "course_published", actor.UserID, course.CourseID)
	}

	s.logger.Debug().Str("course_id", course.CourseID).Bool("new", isNew).Msg("course saved")
	return course, nil
}

// Enroll enrolls a student in a published course. Re-enrolling returns the
// existing enrollment untouched.
func (s *Service) Enroll(ctx context.Context, userID, courseID string) (*models.Enrollment, error) {
	store := s.storage.CourseStore()

	course, err := store.GetCourse(ctx, courseID)
	if err != nil {
		return nil, ErrCourseNotFound
	}
	if !course.Published {
		return nil, ErrNotPublished
	}

	if existing, err := store.GetEnrollment(ctx, userID, courseID); err == nil {
		return existing, nil
	}

	enrollment := &models.Enrollment{
		UserID:     userID,
		CourseID:   course.CourseID,
		EnrolledAt: time.Now(),
	}
	if err := store.SaveEnrollment(ctx, enrollment); err != nil {
		return nil, fmt.Errorf("failed to save enrollment: %w", err)
	}

	if s.activity != nil {
		s.activity.Record(ctx, "enrollment", userID, course.CourseID)
	}
	return enrollment, nil
}

// UpdateProgress records a student's progress. Reaching 100 sets the
// completion time once; completion is never un-set by a lower value.
func (s *Service) UpdateProgress(ctx context.Context, userID, courseID string, progressPct float64) (*models.Enrollment, error) {
	if progressPct < 0 || progressPct > 100 {
		return nil, ErrInvalidProgress
	}

	store := s.storage.CourseStore()
	enrollment, err := store.GetEnrollment(ctx, userID, courseID)
	if err != nil {
		return nil, ErrNotEnrolled
	}

	enrollment.ProgressPct = progressPct
	if progressPct >= 100 && enrollment.CompletedAt == nil {
		now := time.Now()
		enrollment.CompletedAt = &now
	}

	if err := store.SaveEnrollment(ctx, enrollment); err != nil {
		return nil, fmt.Errorf("failed to save enrollment: %w", err)
	}
	return enrollment, nil
}

func (s *Service) ListEnrollments(ctx context.Context, userID string) ([]*models.Enrollment, error) {
	return s.storage.CourseStore().ListEnrollmentsByUser(ctx, userID)
}

// Slugify converts a title to a URL-safe lowercase slug.
func Slugify(title string) string {
	var b strings.Builder
	prevDash := false
	for _, r := range strings.ToLower(strings.TrimSpace(title)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			prevDash = false
		default:
			if !prevDash && b.Len() > 0 {
				b.WriteByte('-')
				prevDash = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

// Compile-time check
var _ interfaces.CatalogService = (*Service)(nil)
