// Package interfaces defines service contracts for Rampart
package interfaces

import (
	"context"
	"time"

	"github.com/dmaguire/rampart/internal/models"
)

// StorageManager coordinates all storage backends
type StorageManager interface {
	// Storage accessors
	UserStore() UserStore
	CourseStore() CourseStore
	BlogStore() BlogStore
	OTPStore() OTPStore
	ActivityStore() ActivityStore
	FileStore() FileStore

	// DataPath returns the base data directory path (e.g. /app/data).
	DataPath() string

	// WriteRaw writes arbitrary binary data to a subdirectory atomically.
	// Key is sanitized for safe filenames (e.g. "enrollments-2026.png").
	WriteRaw(subdir, key string, data []byte) error

	// Lifecycle
	Close() error
}

// UserStore manages user accounts and per-user preferences.
type UserStore interface {
	// User accounts
	GetUser(ctx context.Context, userID string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	SaveUser(ctx context.Context, user *models.User) error
	DeleteUser(ctx context.Context, userID string) error
	ListUsers(ctx context.Context) ([]*models.User, error)

	// Per-user key-value preferences
	GetUserKV(ctx context.Context, userID, key string) (*models.UserKeyValue, error)
	SetUserKV(ctx context.Context, userID, key, value string) error
	DeleteUserKV(ctx context.Context, userID, key string) error
	ListUserKV(ctx context.Context, userID string) ([]*models.UserKeyValue, error)

	Close() error
}

// CourseStore manages courses, enrollments, and uploaded materials.
type CourseStore interface {
	// Courses
	GetCourse(ctx context.Context, courseID string) (*models.Course, error)
	GetCourseBySlug(ctx context.Context, slug string) (*models.Course, error)
	SaveCourse(ctx context.Context, course *models.Course) error
	DeleteCourse(ctx context.Context, courseID string) error
	ListCourses(ctx context.Context, opts CourseListOptions) ([]*models.Course, error)

	// Enrollments
	GetEnrollment(ctx context.Context, userID, courseID string) (*models.Enrollment, error)
	SaveEnrollment(ctx context.Context, enrollment *models.Enrollment) error
	ListEnrollmentsByUser(ctx context.Context, userID string) ([]*models.Enrollment, error)
	ListEnrollmentsByCourse(ctx context.Context, courseID string) ([]*models.Enrollment, error)
	ListAllEnrollments(ctx context.Context) ([]*models.Enrollment, error)

	// Materials
	GetMaterial(ctx context.Context, materialID string) (*models.CourseMaterial, error)
	SaveMaterial(ctx context.Context, material *models.CourseMaterial) error
	DeleteMaterial(ctx context.Context, materialID string) error
	ListMaterials(ctx context.Context, courseID string) ([]*models.CourseMaterial, error)
}

// CourseListOptions configures course catalog queries.
type CourseListOptions struct {
	Category      string
	Level         string
	InstructorID  string
	PublishedOnly bool
	Limit         int
}

// BlogStore manages blog posts.
type BlogStore interface {
	GetPost(ctx context.Context, postID string) (*models.BlogPost, error)
	GetPostBySlug(ctx context.Context, slug string) (*models.BlogPost, error)
	SavePost(ctx context.Context, post *models.BlogPost) error
	DeletePost(ctx context.Context, postID string) error
	ListPosts(ctx context.Context, opts PostListOptions) ([]*models.BlogPost, error)
}

// PostListOptions configures blog queries.
type PostListOptions struct {
	Tag           string
	AuthorID      string
	PublishedOnly bool
	Limit         int
}

// OTPStore manages one-time-code challenges.
type OTPStore interface {
	SaveChallenge(ctx context.Context, challenge *models.OTPChallenge) error
	GetChallenge(ctx context.Context, challengeID string) (*models.OTPChallenge, error)
	GetActiveChallenge(ctx context.Context, email, purpose string) (*models.OTPChallenge, error)
	PurgeExpired(ctx context.Context, before time.Time) (int, error)
}

// ActivityStore manages platform activity events for the admin feed
// and analytics aggregates.
type ActivityStore interface {
	Record(ctx context.Context, event *models.ActivityEvent) error
	List(ctx context.Context, opts ActivityListOptions) ([]*models.ActivityEvent, error)
}

// ActivityListOptions configures activity queries.
type ActivityListOptions struct {
	Type  string
	Since *time.Time
	Limit int
}

// FileStore provides binary file storage in the database.
type FileStore interface {
	SaveFile(ctx context.Context, category, key string, data []byte, contentType string) error
	GetFile(ctx context.Context, category, key string) ([]byte, string, error) // data, contentType, error
	DeleteFile(ctx context.Context, category, key string) error
	HasFile(ctx context.Context, category, key string) (bool, error)
}
