package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"sort"
	"time"

	"github.com/dmaguire/rampart/internal/interfaces"
	"github.com/dmaguire/rampart/internal/models"
)

// fileCourseStore implements interfaces.CourseStore over the content area.
type fileCourseStore struct {
	m *FileManager
}

func (s *fileCourseStore) GetCourse(ctx context.Context, courseID string) (*models.Course, error) {
	var course models.Course
	if err := readJSON(jsonPath(s.m.contentPath, "courses", courseID), &course); err != nil {
		return nil, err
	}
	return &course, nil
}

func (s *fileCourseStore) GetCourseBySlug(ctx context.Context, slug string) (*models.Course, error) {
	var found *models.Course
	err := listJSON(filepath.Join(s.m.contentPath, "courses"), func(data []byte) error {
		var course models.Course
		if err := json.Unmarshal(data, &course); err != nil {
			return nil
		}
		if course.Slug == slug {
			found = &course
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if found == nil {
		return nil, errNotFound
	}
	return found, nil
}

func (s *fileCourseStore) SaveCourse(ctx context.Context, course *models.Course) error {
	if course.CourseID == "" {
		return fmt.Errorf("course ID is required")
	}
	course.ModifiedAt = time.Now()
	if course.CreatedAt.IsZero() {
		course.CreatedAt = course.ModifiedAt
	}
	return writeJSON(jsonPath(s.m.contentPath, "courses", course.CourseID), course)
}

func (s *fileCourseStore) DeleteCourse(ctx context.Context, courseID string) error {
	return removeIfExists(jsonPath(s.m.contentPath, "courses", courseID))
}

func (s *fileCourseStore) ListCourses(ctx context.Context, opts interfaces.CourseListOptions) ([]*models.Course, error) {
	var courses []*models.Course
	err := listJSON(filepath.Join(s.m.contentPath, "courses"), func(data []byte) error {
		var course models.Course
		if err := json.Unmarshal(data, &course); err != nil {
			return nil
		}
		if opts.Category != "" && course.Category != opts.Category {
			return nil
		}
		if opts.Level != "" && course.Level != opts.Level {
			return nil
		}
		if opts.InstructorID != "" && course.InstructorID != opts.InstructorID {
			return nil
		}
		if opts.PublishedOnly && !course.Published {
			return nil
		}
		courses = append(courses, &course)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(courses, func(i, j int) bool { return courses[i].CreatedAt.After(courses[j].CreatedAt) })
	if opts.Limit > 0 && len(courses) > opts.Limit {
		courses = courses[:opts.Limit]
	}
	return courses, nil
}

func enrollmentKey(userID, courseID string) string {
	return userID + "_" + courseID
}

func (s *fileCourseStore) GetEnrollment(ctx context.Context, userID, courseID string) (*models.Enrollment, error) {
	var enrollment models.Enrollment
	if err := readJSON(jsonPath(s.m.contentPath, "enrollments", enrollmentKey(userID, courseID)), &enrollment); err != nil {
		return nil, err
	}
	return &enrollment, nil
}

func (s *fileCourseStore) SaveEnrollment(ctx context.Context, enrollment *models.Enrollment) error {
	if enrollment.UserID == "" || enrollment.CourseID == "" {
		return fmt.Errorf("user ID and course ID are required")
	}
	return writeJSON(jsonPath(s.m.contentPath, "enrollments", enrollmentKey(enrollment.UserID, enrollment.CourseID)), enrollment)
}

func (s *fileCourseStore) listEnrollments(filter func(*models.Enrollment) bool) ([]*models.Enrollment, error) {
	var enrollments []*models.Enrollment
	err := listJSON(filepath.Join(s.m.contentPath, "enrollments"), func(data []byte) error {
		var enrollment models.Enrollment
		if err := json.Unmarshal(data, &enrollment); err != nil {
			return nil
		}
		if filter == nil || filter(&enrollment) {
			enrollments = append(enrollments, &enrollment)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return enrollments, nil
}

func (s *fileCourseStore) ListEnrollmentsByUser(ctx context.Context, userID string) ([]*models.Enrollment, error) {
	return s.listEnrollments(func(e *models.Enrollment) bool { return e.UserID == userID })
}

func (s *fileCourseStore) ListEnrollmentsByCourse(ctx context.Context, courseID string) ([]*models.Enrollment, error) {
	return s.listEnrollments(func(e *models.Enrollment) bool { return e.CourseID == courseID })
}

func (s *fileCourseStore) ListAllEnrollments(ctx context.Context) ([]*models.Enrollment, error) {
	return s.listEnrollments(nil)
}

func (s *fileCourseStore) GetMaterial(ctx context.Context, materialID string) (*models.CourseMaterial, error) {
	var material models.CourseMaterial
	if err := readJSON(jsonPath(s.m.contentPath, "materials", materialID), &material); err != nil {
		return nil, err
	}
	return &material, nil
}

func (s *fileCourseStore) SaveMaterial(ctx context.Context, material *models.CourseMaterial) error {
	if material.MaterialID == "" {
		return fmt.Errorf("material ID is required")
	}
	if material.UploadedAt.IsZero() {
		material.UploadedAt = time.Now()
	}
	return writeJSON(jsonPath(s.m.contentPath, "materials", material.MaterialID), material)
}

func (s *fileCourseStore) DeleteMaterial(ctx context.Context, materialID string) error {
	return removeIfExists(jsonPath(s.m.contentPath, "materials", materialID))
}

func (s *fileCourseStore) ListMaterials(ctx context.Context, courseID string) ([]*models.CourseMaterial, error) {
	var materials []*models.CourseMaterial
	err := listJSON(filepath.Join(s.m.contentPath, "materials"), func(data []byte) error {
		var material models.CourseMaterial
		if err := json.Unmarshal(data, &material); err != nil {
			return nil
		}
		if material.CourseID == courseID {
			materials = append(materials, &material)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(materials, func(i, j int) bool { return materials[i].UploadedAt.Before(materials[j].UploadedAt) })
	return materials, nil
}
