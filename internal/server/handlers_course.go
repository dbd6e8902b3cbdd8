package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/dmaguire/rampart/internal/common"
	"github.com/dmaguire/rampart/internal/interfaces"
	"github.com/dmaguire/rampart/internal/models"
	"github.com/dmaguire/rampart/internal/services/catalog"
	"github.com/dmaguire/rampart/internal/services/content"
)

// handleCourseList handles GET /api/courses and POST /api/courses.
func (s *Server) handleCourseList(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		q := r.URL.Query()
		opts := interfaces.CourseListOptions{
			Category:      q.Get("category"),
			Level:         q.Get("level"),
			InstructorID:  q.Get("instructor"),
			PublishedOnly: true,
		}
		// Instructors and admins see their unpublished drafts too.
		if uc := common.UserContextFromContext(r.Context()); uc != nil && uc.Role != models.RoleStudent {
			opts.PublishedOnly = false
		}
		courses, err := s.app.CatalogService.ListCourses(r.Context(), opts)
		if err != nil {
			WriteError(w, http.StatusInternalServerError, "failed to list courses")
			return
		}
		WriteData(w, http.StatusOK, courses)

	case http.MethodPost:
		s.handleCourseSave(w, r, "")

	default:
		RequireMethod(w, r, http.MethodGet, http.MethodPost)
	}
}

// routeCourses dispatches /api/courses/{id} and its sub-resources.
func (s *Server) routeCourses(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/courses/")
	if rest == "" {
		WriteError(w, http.StatusBadRequest, "course ID is required in path")
		return
	}

	parts := strings.SplitN(rest, "/", 2)
	courseID := parts[0]
	sub := ""
	if len(parts) == 2 {
		sub = parts[1]
	}

	switch sub {
	case "":
		switch r.Method {
		case http.MethodGet:
			s.handleCourseGet(w, r, courseID)
		case http.MethodPut:
			s.handleCourseSave(w, r, courseID)
		default:
			RequireMethod(w, r, http.MethodGet, http.MethodPut)
		}
	case "enroll":
		s.handleCourseEnroll(w, r, courseID)
	case "progress":
		s.handleCourseProgress(w, r, courseID)
	case "materials":
		s.handleCourseMaterials(w, r, courseID)
	default:
		WriteError(w, http.StatusNotFound, "unknown course resource")
	}
}

func (s *Server) handleCourseGet(w http.ResponseWriter, r *http.Request, idOrSlug string) {
	course, err := s.app.CatalogService.GetCourse(r.Context(), idOrSlug)
	if err != nil {
		WriteError(w, http.StatusNotFound, "course not found")
		return
	}
	WriteData(w, http.StatusOK, course)
}

// handleCourseSave handles POST /api/courses (create) and PUT /api/courses/{id}.
func (s *Server) handleCourseSave(w http.ResponseWriter, r *http.Request, courseID string) {
	user := s.requireUser(w, r)
	if user == nil {
		return
	}
	if user.Role != models.RoleInstructor && user.Role != models.RoleAdmin {
		WriteError(w, http.StatusForbidden, "instructor access required")
		return
	}

	var course models.Course
	if !DecodeJSON(w, r, &course) {
		return
	}
	if courseID != "" {
		course.CourseID = courseID
	}

	saved, err := s.app.CatalogService.SaveCourse(r.Context(), user, &course)
	if err != nil {
		switch {
		case errors.Is(err, catalog.ErrForbidden):
			WriteError(w, http.StatusForbidden, err.Error())
		case errors.Is(err, catalog.ErrCourseNotFound):
			WriteError(w, http.StatusNotFound, err.Error())
		default:
			WriteError(w, http.StatusBadRequest, err.Error())
		}
		return
	}
	WriteData(w, http.StatusOK, saved)
}

// handleCourseEnroll handles POST /api/courses/{id}/enroll.
func (s *Server) handleCourseEnroll(w http.ResponseWriter, r *http.Request, courseID string) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}
	user := s.requireUser(w, r)
	if user == nil {
		return
	}

	enrollment, err := s.app.CatalogService.Enroll(r.Context(), user.UserID, courseID)
	if err != nil {
		switch {
		case errors.Is(err, catalog.ErrCourseNotFound):
			WriteError(w, http.StatusNotFound, err.Error())
		case errors.Is(err, catalog.ErrNotPublished):
			WriteError(w, http.StatusForbidden, err.Error())
		default:
			WriteError(w, http.StatusInternalServerError, "failed to enroll")
		}
		return
	}
	WriteData(w, http.StatusOK, enrollment)
}

// handleCourseProgress handles PUT /api/courses/{id}/progress.
func (s *Server) handleCourseProgress(w http.ResponseWriter, r *http.Request, courseID string) {
	if !RequireMethod(w, r, http.MethodPut) {
		return
	}
	user := s.requireUser(w, r)
	if user == nil {
		return
	}

	var req struct {
		ProgressPct float64 `json:"progress_pct"`
	}
	if !DecodeJSON(w, r, &req) {
		return
	}

	enrollment, err := s.app.CatalogService.UpdateProgress(r.Context(), user.UserID, courseID, req.ProgressPct)
	if err != nil {
		switch {
		case errors.Is(err, catalog.ErrNotEnrolled):
			WriteError(w, http.StatusNotFound, err.Error())
		case errors.Is(err, catalog.ErrInvalidProgress):
			WriteError(w, http.StatusBadRequest, err.Error())
		default:
			WriteError(w, http.StatusInternalServerError, "failed to update progress")
		}
		return
	}
	WriteData(w, http.StatusOK, enrollment)
}

// handleEnrollmentList handles GET /api/enrollments — the caller's enrollments.
func (s *Server) handleEnrollmentList(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	user := s.requireUser(w, r)
	if user == nil {
		return
	}
	enrollments, err := s.app.CatalogService.ListEnrollments(r.Context(), user.UserID)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "failed to list enrollments")
		return
	}
	WriteData(w, http.StatusOK, enrollments)
}

// handleCourseMaterials handles GET and POST /api/courses/{id}/materials.
func (s *Server) handleCourseMaterials(w http.ResponseWriter, r *http.Request, courseID string) {
	switch r.Method {
	case http.MethodGet:
		materials, err := s.app.ContentService.ListMaterials(r.Context(), courseID)
		if err != nil {
			WriteError(w, http.StatusInternalServerError, "failed to list materials")
			return
		}
		WriteData(w, http.StatusOK, materials)

	case http.MethodPost:
		user := s.requireUser(w, r)
		if user == nil {
			return
		}
		if user.Role != models.RoleInstructor && user.Role != models.RoleAdmin {
			WriteError(w, http.StatusForbidden, "instructor access required")
			return
		}
		if course, err := s.app.CatalogService.GetCourse(r.Context(), courseID); err != nil {
			WriteError(w, http.StatusNotFound, "course not found")
			return
		} else if user.Role != models.RoleAdmin && course.InstructorID != user.UserID {
			WriteError(w, http.StatusForbidden, "not allowed to modify this course")
			return
		}

		if err := r.ParseMultipartForm(content.MaxUploadBytes); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid multipart upload")
			return
		}
		files := r.MultipartForm.File["file"]
		if len(files) == 0 {
			WriteError(w, http.StatusBadRequest, "file field is required")
			return
		}

		material, err := s.app.ContentService.UploadMaterial(r.Context(), courseID, files[0])
		if err != nil {
			if errors.Is(err, content.ErrFileTooLarge) {
				WriteError(w, http.StatusRequestEntityTooLarge, err.Error())
				return
			}
			s.logger.Error().Err(err).Msg("Material upload failed")
			WriteError(w, http.StatusInternalServerError, "failed to store material")
			return
		}
		WriteData(w, http.StatusOK, material)

	default:
		RequireMethod(w, r, http.MethodGet, http.MethodPost)
	}
}

// routeMaterials dispatches /api/materials/{id} and /api/materials/{id}/download.
func (s *Server) routeMaterials(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/materials/")
	if rest == "" {
		WriteError(w, http.StatusBadRequest, "material ID is required in path")
		return
	}

	if id, ok := strings.CutSuffix(rest, "/download"); ok {
		s.handleMaterialDownload(w, r, id)
		return
	}

	switch r.Method {
	case http.MethodGet:
		material, err := s.app.ContentService.GetMaterial(r.Context(), rest)
		if err != nil {
			WriteError(w, http.StatusNotFound, "material not found")
			return
		}
		WriteData(w, http.StatusOK, material)
	case http.MethodDelete:
		user := s.requireUser(w, r)
		if user == nil {
			return
		}
		if user.Role != models.RoleInstructor && user.Role != models.RoleAdmin {
			WriteError(w, http.StatusForbidden, "instructor access required")
			return
		}
		if err := s.app.ContentService.DeleteMaterial(r.Context(), rest); err != nil {
			WriteError(w, http.StatusNotFound, "material not found")
			return
		}
		WriteData(w, http.StatusOK, map[string]interface{}{"deleted": true})
	default:
		RequireMethod(w, r, http.MethodGet, http.MethodDelete)
	}
}

func (s *Server) handleMaterialDownload(w http.ResponseWriter, r *http.Request, materialID string) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	data, contentType, err := s.app.ContentService.GetMaterialData(r.Context(), materialID)
	if err != nil {
		WriteError(w, http.StatusNotFound, "material not found")
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}
