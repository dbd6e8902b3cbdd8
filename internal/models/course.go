package models

import "time"

// Course levels shown in the catalog filters.
const (
	LevelBeginner     = "beginner"
	LevelIntermediate = "intermediate"
	LevelAdvanced     = "advanced"
)

// Course represents a training course in the catalog.
type Course struct {
	CourseID     string    `json:"course_id"`
	Title        string    `json:"title"`
	Slug         string    `json:"slug"`
	Description  string    `json:"description"`
	Category     string    `json:"category"` // e.g. "network-security", "web-exploitation"
	Level        string    `json:"level"`
	PriceCents   int64     `json:"price_cents"`
	InstructorID string    `json:"instructor_id"`
	Published    bool      `json:"published"`
	CreatedAt    time.Time `json:"created_at"`
	ModifiedAt   time.Time `json:"modified_at"`
}

// Enrollment links a student to a course with progress tracking.
type Enrollment struct {
	UserID      string     `json:"user_id"`
	CourseID    string     `json:"course_id"`
	ProgressPct float64    `json:"progress_pct"`
	EnrolledAt  time.Time  `json:"enrolled_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// CourseMaterial is an uploaded document attached to a course.
// Text is extracted server-side for search and preview.
type CourseMaterial struct {
	MaterialID    string    `json:"material_id"`
	CourseID      string    `json:"course_id"`
	Filename      string    `json:"filename"`
	ContentType   string    `json:"content_type"`
	SizeBytes     int64     `json:"size_bytes"`
	ExtractedText string    `json:"extracted_text,omitempty"`
	PageCount     int       `json:"page_count,omitempty"`
	UploadedAt    time.Time `json:"uploaded_at"`
}
