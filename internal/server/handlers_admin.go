package server

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dmaguire/rampart/internal/models"
)

// requireAdmin resolves the authenticated user and checks for the admin role.
func (s *Server) requireAdmin(w http.ResponseWriter, r *http.Request) *models.User {
	user := s.requireUser(w, r)
	if user == nil {
		return nil
	}
	if user.Role != models.RoleAdmin {
		WriteError(w, http.StatusForbidden, "Admin access required")
		return nil
	}
	return user
}

// handleAdminSummary handles GET /api/admin/summary — dashboard aggregates.
func (s *Server) handleAdminSummary(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	if s.requireAdmin(w, r) == nil {
		return
	}

	summary, err := s.app.AnalyticsService.Summary(r.Context())
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to compute dashboard summary")
		WriteError(w, http.StatusInternalServerError, "failed to compute summary")
		return
	}
	WriteData(w, http.StatusOK, summary)
}

// handleAdminChart handles GET /api/admin/charts/{name} — PNG chart images.
func (s *Server) handleAdminChart(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	if s.requireAdmin(w, r) == nil {
		return
	}

	months := 6
	if v := r.URL.Query().Get("months"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 36 {
			months = n
		}
	}

	name := strings.TrimPrefix(r.URL.Path, "/api/admin/charts/")
	var (
		data []byte
		err  error
	)
	switch name {
	case "enrollments":
		data, err = s.app.AnalyticsService.EnrollmentChart(r.Context(), months)
	case "signups":
		data, err = s.app.AnalyticsService.SignupChart(r.Context(), months)
	default:
		WriteError(w, http.StatusNotFound, "unknown chart")
		return
	}
	if err != nil {
		s.logger.Error().Err(err).Str("chart", name).Msg("Chart render failed")
		WriteError(w, http.StatusInternalServerError, "failed to render chart")
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// handleAdminListUsers handles GET /api/admin/users.
func (s *Server) handleAdminListUsers(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	if s.requireAdmin(w, r) == nil {
		return
	}

	users, err := s.app.Storage.UserStore().ListUsers(r.Context())
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "failed to list users")
		return
	}

	public := make([]*models.User, len(users))
	for i, u := range users {
		public[i] = u.Public()
	}
	WriteData(w, http.StatusOK, public)
}

// routeAdminUsers dispatches /api/admin/users/{id}/role.
func (s *Server) routeAdminUsers(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/admin/users/")
	userID, ok := strings.CutSuffix(rest, "/role")
	if !ok || userID == "" {
		WriteError(w, http.StatusNotFound, "unknown admin resource")
		return
	}
	s.handleAdminSetRole(w, r, userID)
}

// handleAdminSetRole handles PUT /api/admin/users/{id}/role.
func (s *Server) handleAdminSetRole(w http.ResponseWriter, r *http.Request, userID string) {
	if !RequireMethod(w, r, http.MethodPut) {
		return
	}
	admin := s.requireAdmin(w, r)
	if admin == nil {
		return
	}

	var req struct {
		Role string `json:"role"`
	}
	if !DecodeJSON(w, r, &req) {
		return
	}
	role := models.NormalizeRole(req.Role)

	// An admin cannot demote themselves; that would lock the last admin out.
	if userID == admin.UserID && role != models.RoleAdmin {
		WriteError(w, http.StatusForbidden, "cannot change your own role")
		return
	}

	store := s.app.Storage.UserStore()
	user, err := store.GetUser(r.Context(), userID)
	if err != nil {
		WriteError(w, http.StatusNotFound, "user not found")
		return
	}

	user.Role = role
	user.ModifiedAt = time.Now()
	if err := store.SaveUser(r.Context(), user); err != nil {
		WriteError(w, http.StatusInternalServerError, "failed to save user")
		return
	}
	WriteData(w, http.StatusOK, user.Public())
}

// handleAdminActivity handles GET /api/admin/activity — recent events.
func (s *Server) handleAdminActivity(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	if s.requireAdmin(w, r) == nil {
		return
	}

	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			limit = n
		}
	}

	events, err := s.app.Activity.Recent(r.Context(), limit)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "failed to list activity")
		return
	}
	WriteData(w, http.StatusOK, events)
}

// handleAdminActivityWS handles GET /api/admin/ws/activity — WebSocket upgrade
// for the live activity feed. Must authenticate before the upgrade.
func (s *Server) handleAdminActivityWS(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	// Browsers cannot set Authorization on WebSocket requests; accept the
	// token as a query parameter for this endpoint only.
	if token := r.URL.Query().Get("token"); token != "" && r.Header.Get("Authorization") == "" {
		_, claims, err := validateJWT(token, []byte(s.app.Config.Auth.JWTSecret))
		if err != nil {
			writeBearerChallenge(w, "invalid or expired token")
			return
		}
		sub, _ := claims["sub"].(string)
		user, err := s.app.Storage.UserStore().GetUser(r.Context(), sub)
		if err != nil || user.Role != models.RoleAdmin {
			WriteError(w, http.StatusForbidden, "Admin access required")
			return
		}
		s.app.ActivityHub.ServeWS(w, r)
		return
	}

	if s.requireAdmin(w, r) == nil {
		return
	}
	s.app.ActivityHub.ServeWS(w, r)
}
