package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dmaguire/rampart/internal/models"
)

func createTestCourse(t *testing.T, srv *Server, token string, published bool) *models.Course {
	t.Helper()
	req := authedRequest(t, srv, http.MethodPost, "/api/courses", jsonBody(t, map[string]interface{}{
		"title":       "Web Exploitation Basics",
		"description": "Hands-on introduction to common web vulnerabilities",
		"category":    "web",
		"level":       "beginner",
		"published":   published,
	}), token)
	rec := httptest.NewRecorder()
	srv.handleCourseList(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("createTestCourse: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var course models.Course
	decodeData(t, rec, &course)
	return &course
}

func TestHandleCourseCreate_RequiresInstructor(t *testing.T) {
	srv := newTestServer(t)
	student := signupTestUser(t, srv, "Sam", "sam@example.com", "secretpass", "")

	req := authedRequest(t, srv, http.MethodPost, "/api/courses", jsonBody(t, map[string]interface{}{
		"title": "Nope",
	}), student.Token)
	rec := httptest.NewRecorder()
	srv.handleCourseList(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Errorf("expected 403, got %d", rec.Code)
	}
}

func TestHandleCourseCreateAndGet(t *testing.T) {
	srv := newTestServer(t)
	instructor := signupTestUser(t, srv, "Ivan", "ivan@example.com", "secretpass", "instructor")

	course := createTestCourse(t, srv, instructor.Token, true)
	if course.CourseID == "" {
		t.Error("expected a course ID")
	}
	if course.Slug == "" {
		t.Error("expected a generated slug")
	}
	if course.InstructorID != instructor.User.UserID {
		t.Errorf("expected instructor %q, got %q", instructor.User.UserID, course.InstructorID)
	}

	// Fetch by slug
	req := httptest.NewRequest(http.MethodGet, "/api/courses/"+course.Slug, nil)
	rec := httptest.NewRecorder()
	srv.routeCourses(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var got models.Course
	decodeData(t, rec, &got)
	if got.CourseID != course.CourseID {
		t.Errorf("slug lookup returned wrong course %q", got.CourseID)
	}
}

func TestHandleCourseList_StudentsSeePublishedOnly(t *testing.T) {
	srv := newTestServer(t)
	instructor := signupTestUser(t, srv, "Ivan", "ivan@example.com", "secretpass", "instructor")
	createTestCourse(t, srv, instructor.Token, true)

	// Draft course
	req := authedRequest(t, srv, http.MethodPost, "/api/courses", jsonBody(t, map[string]interface{}{
		"title":     "Draft Course",
		"published": false,
	}), instructor.Token)
	rec := httptest.NewRecorder()
	srv.handleCourseList(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("draft create failed: %d", rec.Code)
	}

	// Anonymous listing sees only the published course.
	req = httptest.NewRequest(http.MethodGet, "/api/courses", nil)
	rec = httptest.NewRecorder()
	srv.handleCourseList(rec, req)
	var courses []*models.Course
	decodeData(t, rec, &courses)
	if len(courses) != 1 {
		t.Errorf("expected 1 published course, got %d", len(courses))
	}

	// The instructor sees both.
	req = authedRequest(t, srv, http.MethodGet, "/api/courses", nil, instructor.Token)
	rec = httptest.NewRecorder()
	srv.handleCourseList(rec, req)
	decodeData(t, rec, &courses)
	if len(courses) != 2 {
		t.Errorf("expected 2 courses for the instructor, got %d", len(courses))
	}
}

func TestHandleCourseEnrollAndProgress(t *testing.T) {
	srv := newTestServer(t)
	instructor := signupTestUser(t, srv, "Ivan", "ivan@example.com", "secretpass", "instructor")
	student := signupTestUser(t, srv, "Sam", "sam@example.com", "secretpass", "")
	course := createTestCourse(t, srv, instructor.Token, true)

	// Enroll
	req := authedRequest(t, srv, http.MethodPost, "/api/courses/"+course.CourseID+"/enroll", jsonBody(t, map[string]string{}), student.Token)
	rec := httptest.NewRecorder()
	srv.routeCourses(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("enroll: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var enrollment models.Enrollment
	decodeData(t, rec, &enrollment)
	if enrollment.CourseID != course.CourseID {
		t.Errorf("unexpected enrollment %+v", enrollment)
	}

	// Enrolling again is idempotent.
	req = authedRequest(t, srv, http.MethodPost, "/api/courses/"+course.CourseID+"/enroll", jsonBody(t, map[string]string{}), student.Token)
	rec = httptest.NewRecorder()
	srv.routeCourses(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("re-enroll: expected 200, got %d", rec.Code)
	}

	// Progress to completion.
	req = authedRequest(t, srv, http.MethodPut, "/api/courses/"+course.CourseID+"/progress", jsonBody(t, map[string]float64{
		"progress_pct": 100,
	}), student.Token)
	rec = httptest.NewRecorder()
	srv.routeCourses(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("progress: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	decodeData(t, rec, &enrollment)
	if enrollment.ProgressPct != 100 {
		t.Errorf("expected 100%% progress, got %v", enrollment.ProgressPct)
	}
	if enrollment.CompletedAt == nil {
		t.Error("expected completion timestamp at 100%%")
	}

	// Enrollment listing
	req = authedRequest(t, srv, http.MethodGet, "/api/enrollments", nil, student.Token)
	rec = httptest.NewRecorder()
	srv.handleEnrollmentList(rec, req)
	var enrollments []*models.Enrollment
	decodeData(t, rec, &enrollments)
	if len(enrollments) != 1 {
		t.Errorf("expected 1 enrollment, got %d", len(enrollments))
	}
}

func TestHandleCourseEnroll_UnpublishedRejected(t *testing.T) {
	srv := newTestServer(t)
	instructor := signupTestUser(t, srv, "Ivan", "ivan@example.com", "secretpass", "instructor")
	student := signupTestUser(t, srv, "Sam", "sam@example.com", "secretpass", "")
	course := createTestCourse(t, srv, instructor.Token, false)

	req := authedRequest(t, srv, http.MethodPost, "/api/courses/"+course.CourseID+"/enroll", jsonBody(t, map[string]string{}), student.Token)
	rec := httptest.NewRecorder()
	srv.routeCourses(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Errorf("expected 403, got %d", rec.Code)
	}
}

func TestHandleCourseUpdate_OwnershipEnforced(t *testing.T) {
	srv := newTestServer(t)
	owner := signupTestUser(t, srv, "Ivan", "ivan@example.com", "secretpass", "instructor")
	other := signupTestUser(t, srv, "Olga", "olga@example.com", "secretpass", "instructor")
	course := createTestCourse(t, srv, owner.Token, true)

	req := authedRequest(t, srv, http.MethodPut, "/api/courses/"+course.CourseID, jsonBody(t, map[string]interface{}{
		"title": "Hijacked",
	}), other.Token)
	rec := httptest.NewRecorder()
	srv.routeCourses(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Errorf("expected 403, got %d: %s", rec.Code, rec.Body.String())
	}

	// An admin may edit any course.
	_, adminToken := makeTestAdmin(t, srv, "admin@example.com")
	req = authedRequest(t, srv, http.MethodPut, "/api/courses/"+course.CourseID, jsonBody(t, map[string]interface{}{
		"title":     "Web Exploitation, Revised",
		"published": true,
	}), adminToken)
	rec = httptest.NewRecorder()
	srv.routeCourses(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("admin edit: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var updated models.Course
	decodeData(t, rec, &updated)
	if updated.InstructorID != course.InstructorID {
		t.Errorf("admin edit must preserve the owner, got %q", updated.InstructorID)
	}
}
