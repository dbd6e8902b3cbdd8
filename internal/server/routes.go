package server

import (
	"net/http"
	"time"

	"github.com/dmaguire/rampart/internal/common"
)

// registerRoutes sets up all REST API routes on the mux.
func (s *Server) registerRoutes(mux *http.ServeMux) {
	// System
	mux.HandleFunc("/api/health", s.handleHealth)
	mux.HandleFunc("/api/version", s.handleVersion)
	mux.HandleFunc("/api/shutdown", s.handleShutdown)

	// Auth
	mux.HandleFunc("/api/auth/signup", s.handleAuthSignup)
	mux.HandleFunc("/api/auth/login", s.handleAuthLogin)
	mux.HandleFunc("/api/auth/verify", s.handleAuthVerify)
	mux.HandleFunc("/api/auth/otp/verify", s.handleOTPVerify)
	mux.HandleFunc("/api/auth/otp/resend", s.handleOTPResend)
	mux.HandleFunc("/api/auth/login/google", s.handleOAuthLoginGoogle)
	mux.HandleFunc("/api/auth/callback/google", s.handleOAuthCallbackGoogle)

	// Profile
	mux.HandleFunc("/api/user/profile", s.routeUserProfile)

	// Courses and enrollments
	mux.HandleFunc("/api/courses/", s.routeCourses)
	mux.HandleFunc("/api/courses", s.handleCourseList)
	mux.HandleFunc("/api/enrollments", s.handleEnrollmentList)
	mux.HandleFunc("/api/materials/", s.routeMaterials)

	// Blog
	mux.HandleFunc("/api/posts/", s.routePosts)
	mux.HandleFunc("/api/posts", s.handleBlogList)

	// Admin — analytics, users, live activity feed
	mux.HandleFunc("/api/admin/summary", s.handleAdminSummary)
	mux.HandleFunc("/api/admin/charts/", s.handleAdminChart)
	mux.HandleFunc("/api/admin/users/", s.routeAdminUsers)
	mux.HandleFunc("/api/admin/users", s.handleAdminListUsers)
	mux.HandleFunc("/api/admin/activity", s.handleAdminActivity)
	mux.HandleFunc("/api/admin/ws/activity", s.handleAdminActivityWS)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet, http.MethodHead) {
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet, http.MethodHead) {
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{
		"version": common.GetVersion(),
		"build":   common.GetBuild(),
		"commit":  common.GetGitCommit(),
	})
}

// handleShutdown handles POST /api/shutdown (dev mode only).
func (s *Server) handleShutdown(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	if s.app.Config.IsProduction() {
		WriteError(w, http.StatusForbidden, "Shutdown endpoint disabled in production")
		return
	}

	s.logger.Info().Msg("Shutdown requested via HTTP endpoint")

	w.WriteHeader(http.StatusOK)
	w.Write([]byte("Shutting down gracefully...\n"))

	if flusher, ok := w.(http.Flusher); ok {
		flusher.Flush()
	}

	if s.shutdownChan != nil {
		go func() {
			time.Sleep(100 * time.Millisecond)
			s.shutdownChan <- struct{}{}
		}()
	}
}
