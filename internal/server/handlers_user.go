package server

import (
	"net/http"
	"net/mail"
	"strings"
	"time"

	"github.com/dmaguire/rampart/internal/common"
	"github.com/dmaguire/rampart/internal/models"
)

// requireUser resolves the authenticated user or writes a 401.
func (s *Server) requireUser(w http.ResponseWriter, r *http.Request) *models.User {
	uc := common.UserContextFromContext(r.Context())
	if uc == nil {
		writeBearerChallenge(w, "authentication required")
		return nil
	}
	user, err := s.app.Storage.UserStore().GetUser(r.Context(), uc.UserID)
	if err != nil {
		writeBearerChallenge(w, "user not found")
		return nil
	}
	return user
}

// routeUserProfile dispatches /api/user/profile by method.
func (s *Server) routeUserProfile(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.handleProfileGet(w, r)
	case http.MethodPut, http.MethodPatch:
		s.handleProfileUpdate(w, r)
	default:
		RequireMethod(w, r, http.MethodGet, http.MethodPut, http.MethodPatch)
	}
}

// handleProfileGet handles GET /api/user/profile.
func (s *Server) handleProfileGet(w http.ResponseWriter, r *http.Request) {
	user := s.requireUser(w, r)
	if user == nil {
		return
	}
	WriteData(w, http.StatusOK, user.Public())
}

// handleProfileUpdate handles PUT /api/user/profile — partial profile update.
// Omitted fields are left untouched; there is no way to clear a field.
func (s *Server) handleProfileUpdate(w http.ResponseWriter, r *http.Request) {
	user := s.requireUser(w, r)
	if user == nil {
		return
	}

	var patch models.ProfilePatch
	if !DecodeJSON(w, r, &patch) {
		return
	}

	if patch.Empty() {
		WriteData(w, http.StatusOK, user.Public())
		return
	}

	ctx := r.Context()
	store := s.app.Storage.UserStore()

	if patch.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*patch.Email))
		if _, err := mail.ParseAddress(email); err != nil {
			WriteError(w, http.StatusBadRequest, "a valid email is required")
			return
		}
		if existing, err := store.GetUserByEmail(ctx, email); err == nil && existing.UserID != user.UserID {
			WriteError(w, http.StatusConflict, "email is already in use")
			return
		}
		patch.Email = &email
	}
	if patch.Name != nil && strings.TrimSpace(*patch.Name) == "" {
		WriteError(w, http.StatusBadRequest, "name cannot be blank")
		return
	}

	merged := models.MergeProfile(user, &patch)
	merged.ModifiedAt = time.Now()

	if err := store.SaveUser(ctx, merged); err != nil {
		s.logger.Error().Err(err).Str("user_id", user.UserID).Msg("Failed to save profile")
		WriteError(w, http.StatusInternalServerError, "failed to save profile")
		return
	}

	WriteData(w, http.StatusOK, merged.Public())
}
