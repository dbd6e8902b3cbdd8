package models

import "time"

// ActivityEvent is a platform event broadcast to the admin live feed and
// aggregated by the analytics service.
type ActivityEvent struct {
	EventID   string    `json:"event_id"`
	Type      string    `json:"type"` // "signup", "login", "enrollment", "course_published", "post_published"
	UserID    string    `json:"user_id,omitempty"`
	Subject   string    `json:"subject,omitempty"` // course/post ID when applicable
	Timestamp time.Time `json:"timestamp"`
}

// MonthlyCount is one bucket of a per-month aggregate series.
type MonthlyCount struct {
	Month time.Time `json:"month"`
	Count int       `json:"count"`
}

// DashboardSummary backs the analytics widgets on the admin dashboard.
type DashboardSummary struct {
	TotalUsers        int            `json:"total_users"`
	TotalCourses      int            `json:"total_courses"`
	TotalEnrollments  int            `json:"total_enrollments"`
	TotalPosts        int            `json:"total_posts"`
	UsersByRole       map[string]int `json:"users_by_role"`
	EnrollmentsByMonth []MonthlyCount `json:"enrollments_by_month"`
	SignupsByMonth     []MonthlyCount `json:"signups_by_month"`
}
