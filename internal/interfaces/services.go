// Package interfaces defines service contracts for Rampart
package interfaces

import (
	"context"
	"mime/multipart"

	"github.com/dmaguire/rampart/internal/models"
)

// CatalogService manages the course catalog and enrollments.
type CatalogService interface {
	// GetCourse retrieves a course by ID or slug.
	GetCourse(ctx context.Context, idOrSlug string) (*models.Course, error)

	// ListCourses returns catalog entries matching the options.
	ListCourses(ctx context.Context, opts CourseListOptions) ([]*models.Course, error)

	// SaveCourse creates or updates a course. Only the owning instructor
	// or an admin may modify an existing course.
	SaveCourse(ctx context.Context, actor *models.User, course *models.Course) (*models.Course, error)

	// Enroll enrolls a student in a published course. Idempotent.
	Enroll(ctx context.Context, userID, courseID string) (*models.Enrollment, error)

	// UpdateProgress records a student's progress through a course.
	UpdateProgress(ctx context.Context, userID, courseID string, progressPct float64) (*models.Enrollment, error)

	// ListEnrollments returns a student's enrollments.
	ListEnrollments(ctx context.Context, userID string) ([]*models.Enrollment, error)
}

// ContentService manages uploaded course materials.
type ContentService interface {
	// UploadMaterial stores a document and extracts its text for search.
	UploadMaterial(ctx context.Context, courseID string, header *multipart.FileHeader) (*models.CourseMaterial, error)

	// GetMaterial retrieves material metadata.
	GetMaterial(ctx context.Context, materialID string) (*models.CourseMaterial, error)

	// GetMaterialData retrieves the raw document bytes and content type.
	GetMaterialData(ctx context.Context, materialID string) ([]byte, string, error)

	// ListMaterials returns materials for a course.
	ListMaterials(ctx context.Context, courseID string) ([]*models.CourseMaterial, error)

	// DeleteMaterial removes a material and its stored file.
	DeleteMaterial(ctx context.Context, materialID string) error
}

// BlogService manages blog posts.
type BlogService interface {
	GetPost(ctx context.Context, idOrSlug string) (*models.BlogPost, error)
	ListPosts(ctx context.Context, opts PostListOptions) ([]*models.BlogPost, error)

	// SavePost creates or updates a post. When the excerpt is empty one is
	// generated from the body.
	SavePost(ctx context.Context, actor *models.User, post *models.BlogPost) (*models.BlogPost, error)
	DeletePost(ctx context.Context, actor *models.User, postID string) error
}

// AnalyticsService computes dashboard aggregates and renders chart images.
type AnalyticsService interface {
	// Summary computes the admin dashboard aggregates.
	Summary(ctx context.Context) (*models.DashboardSummary, error)

	// EnrollmentChart renders a PNG bar chart of enrollments per month.
	EnrollmentChart(ctx context.Context, months int) ([]byte, error)

	// SignupChart renders a PNG bar chart of signups per month.
	SignupChart(ctx context.Context, months int) ([]byte, error)
}

// OTPService issues and verifies one-time codes.
type OTPService interface {
	// Issue creates a challenge for an email address and returns it. The
	// plaintext code is delivered out of band and never returned to callers
	// except through the configured sender.
	Issue(ctx context.Context, email, purpose string) (*models.OTPChallenge, error)

	// Verify checks a submitted code against the active challenge.
	Verify(ctx context.Context, email, purpose, code string) error

	// Resend re-issues the code for an active challenge, subject to the
	// resend cooldown.
	Resend(ctx context.Context, email, purpose string) (*models.OTPChallenge, error)
}
