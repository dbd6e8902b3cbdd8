// Package analytics computes admin dashboard aggregates and renders
// chart images from platform activity.
package analytics

import (
	"context"
	"fmt"
	"time"

	"github.com/dmaguire/rampart/internal/common"
	"github.com/dmaguire/rampart/internal/interfaces"
	"github.com/dmaguire/rampart/internal/models"
)

const defaultChartMonths = 6

// Service implements interfaces.AnalyticsService.
type Service struct {
	storage interfaces.StorageManager
	logger  *common.Logger
	now     func() time.Time
}

// NewService creates the analytics service.
func NewService(storage interfaces.StorageManager, logger *common.Logger) *Service {
	return &Service{storage: storage, logger: logger, now: time.Now}
}

// Summary computes the admin dashboard aggregates.
func (s *Service) Summary(ctx context.Context) (*models.DashboardSummary, error) {
	users, err := s.storage.UserStore().ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	courses, err := s.storage.CourseStore().ListCourses(ctx, interfaces.CourseListOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to list courses: %w", err)
	}
	enrollments, err := s.storage.CourseStore().ListAllEnrollments(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list enrollments: %w", err)
	}
	posts, err := s.storage.BlogStore().ListPosts(ctx, interfaces.PostListOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}

	byRole := make(map[string]int)
	for _, u := range users {
		byRole[models.NormalizeRole(u.Role)]++
	}

	enrollSeries, err := s.monthlyCounts(ctx, "enrollment", defaultChartMonths)
	if err != nil {
		return nil, err
	}
	signupSeries, err := s.monthlyCounts(ctx, "signup", defaultChartMonths)
	if err != nil {
		return nil, err
	}

	return &models.DashboardSummary{
		TotalUsers:         len(users),
		TotalCourses:       len(courses),
		TotalEnrollments:   len(enrollments),
		TotalPosts:         len(posts),
		UsersByRole:        byRole,
		EnrollmentsByMonth: enrollSeries,
		SignupsByMonth:     signupSeries,
	}, nil
}

// EnrollmentChart renders a PNG bar chart of enrollments per month.
func (s *Service) EnrollmentChart(ctx context.Context, months int) ([]byte, error) {
	series, err := s.monthlyCounts(ctx, "enrollment", months)
	if err != nil {
		return nil, err
	}
	return renderMonthlyChart("Enrollments", series)
}

// SignupChart renders a PNG bar chart of signups per month.
func (s *Service) SignupChart(ctx context.Context, months int) ([]byte, error) {
	series, err := s.monthlyCounts(ctx, "signup", months)
	if err != nil {
		return nil, err
	}
	return renderMonthlyChart("Signups", series)
}

// monthlyCounts buckets activity events of one type into calendar months,
// oldest first, padding empty months so charts keep a stable axis.
func (s *Service) monthlyCounts(ctx context.Context, eventType string, months int) ([]models.MonthlyCount, error) {
	if months <= 0 {
		months = defaultChartMonths
	}

	now := s.now().UTC()
	start := monthStart(now).AddDate(0, -(months - 1), 0)

	events, err := s.storage.ActivityStore().List(ctx, interfaces.ActivityListOptions{
		Type:  eventType,
		Since: &start,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list %s events: %w", eventType, err)
	}

	buckets := make(map[time.Time]int)
	for _, e := range events {
		buckets[monthStart(e.Timestamp.UTC())]++
	}

	series := make([]models.MonthlyCount, 0, months)
	for i := 0; i < months; i++ {
		month := start.AddDate(0, i, 0)
		series = append(series, models.MonthlyCount{Month: month, Count: buckets[month]})
	}
	return series, nil
}

func monthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// Compile-time check
var _ interfaces.AnalyticsService = (*Service)(nil)
