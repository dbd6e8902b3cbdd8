package server

import (
	"errors"
	"fmt"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/dmaguire/rampart/internal/common"
	"github.com/dmaguire/rampart/internal/models"
	"github.com/dmaguire/rampart/internal/services/otp"
)

const minPasswordLength = 8

// --- JWT helpers ---

// signJWT creates a signed HMAC-SHA256 JWT for the given user and provider.
func signJWT(user *models.User, provider string, config *common.AuthConfig) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":      user.UserID,
		"email":    user.Email,
		"name":     user.Name,
		"role":     user.Role,
		"provider": provider,
		"iss":      "rampart-server",
		"iat":      now.Unix(),
		"exp":      now.Add(config.GetTokenExpiry()).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(config.JWTSecret))
}

// validateJWT parses and validates a JWT token string using the given secret.
func validateJWT(tokenString string, secret []byte) (*jwt.Token, jwt.MapClaims, error) {
	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		return nil, nil, err
	}
	return token, claims, nil
}

// truncatePassword caps a password at bcrypt's 72-byte input limit.
func truncatePassword(password string) []byte {
	b := []byte(password)
	if len(b) > 72 {
		b = b[:72]
	}
	return b
}

// --- Auth handlers ---

// handleAuthSignup handles POST /api/auth/signup — create an account.
func (s *Server) handleAuthSignup(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var req struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
		Role     string `json:"role"`
	}
	if !DecodeJSON(w, r, &req) {
		return
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if _, err := mail.ParseAddress(req.Email); err != nil {
		WriteError(w, http.StatusBadRequest, "a valid email is required")
		return
	}
	if req.Name == "" {
		WriteError(w, http.StatusBadRequest, "name is required")
		return
	}
	if len(req.Password) < minPasswordLength {
		WriteError(w, http.StatusBadRequest, fmt.Sprintf("password must be at least %d characters", minPasswordLength))
		return
	}

	// Admin accounts are provisioned out of band, never self-served.
	role := models.NormalizeRole(req.Role)
	if role == models.RoleAdmin {
		WriteError(w, http.StatusForbidden, "admin accounts cannot be self-registered")
		return
	}

	ctx := r.Context()
	store := s.app.Storage.UserStore()

	if _, err := store.GetUserByEmail(ctx, req.Email); err == nil {
		WriteError(w, http.StatusConflict, "an account with this email already exists")
		return
	}

	hash, err := bcrypt.GenerateFromPassword(truncatePassword(req.Password), bcrypt.DefaultCost)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to hash password")
		WriteError(w, http.StatusInternalServerError, "failed to create account")
		return
	}

	user := &models.User{
		UserID:       uuid.New().String(),
		Email:        req.Email,
		Name:         req.Name,
		PasswordHash: string(hash),
		Role:         role,
		Provider:     "email",
		CreatedAt:    time.Now(),
	}
	if err := store.SaveUser(ctx, user); err != nil {
		s.logger.Error().Err(err).Msg("Failed to save user")
		WriteError(w, http.StatusInternalServerError, "failed to create account")
		return
	}

	// Verification code delivery is best-effort; the account works either way.
	if _, err := s.app.OTPService.Issue(ctx, user.Email, models.OTPPurposeSignup); err != nil {
		s.logger.Warn().Err(err).Str("email", user.Email).Msg("Failed to issue signup code")
	}

	s.app.Activity.Record(ctx, "signup", user.UserID, "")

	token, err := signJWT(user, "email", &s.app.Config.Auth)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to sign JWT")
		WriteError(w, http.StatusInternalServerError, "failed to sign token")
		return
	}

	WriteData(w, http.StatusOK, models.AuthResult{Token: token, User: user.Public()})
}

// handleAuthLogin handles POST /api/auth/login — email/password login.
func (s *Server) handleAuthLogin(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !DecodeJSON(w, r, &req) {
		return
	}

	ctx := r.Context()
	user, err := s.app.Storage.UserStore().GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil || user.PasswordHash == "" {
		WriteError(w, http.StatusUnauthorized, "invalid email or password")
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), truncatePassword(req.Password)); err != nil {
		WriteError(w, http.StatusUnauthorized, "invalid email or password")
		return
	}

	s.app.Activity.Record(ctx, "login", user.UserID, "")

	token, err := signJWT(user, "email", &s.app.Config.Auth)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to sign JWT")
		WriteError(w, http.StatusInternalServerError, "failed to sign token")
		return
	}

	WriteData(w, http.StatusOK, models.AuthResult{Token: token, User: user.Public()})
}

// handleAuthVerify handles GET /api/auth/verify — check a bearer token.
// The bearer middleware has already validated the token and resolved the
// user, so reaching this handler with an identity means the token is good.
func (s *Server) handleAuthVerify(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	uc := common.UserContextFromContext(r.Context())
	if uc == nil {
		writeBearerChallenge(w, "authentication required")
		return
	}

	user, err := s.app.Storage.UserStore().GetUser(r.Context(), uc.UserID)
	if err != nil {
		writeBearerChallenge(w, "user not found")
		return
	}

	WriteData(w, http.StatusOK, user.Public())
}

// --- One-time code handlers ---

// handleOTPVerify handles POST /api/auth/otp/verify — check a submitted code.
func (s *Server) handleOTPVerify(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var req struct {
		Email   string `json:"email"`
		Purpose string `json:"purpose"`
		Code    string `json:"code"`
	}
	if !DecodeJSON(w, r, &req) {
		return
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Purpose == "" {
		req.Purpose = models.OTPPurposeSignup
	}

	ctx := r.Context()
	if err := s.app.OTPService.Verify(ctx, req.Email, req.Purpose, req.Code); err != nil {
		switch {
		case errors.Is(err, otp.ErrTooManyAttempts):
			WriteError(w, http.StatusTooManyRequests, "too many attempts, request a new code")
		case errors.Is(err, otp.ErrCodeExpired):
			WriteError(w, http.StatusGone, "code has expired, request a new one")
		default:
			WriteError(w, http.StatusUnauthorized, "invalid code")
		}
		return
	}

	// A verified signup code marks the account email as confirmed.
	if req.Purpose == models.OTPPurposeSignup {
		store := s.app.Storage.UserStore()
		if user, err := store.GetUserByEmail(ctx, req.Email); err == nil && !user.Verified {
			user.Verified = true
			user.ModifiedAt = time.Now()
			if err := store.SaveUser(ctx, user); err != nil {
				s.logger.Warn().Err(err).Str("email", req.Email).Msg("Failed to mark user verified")
			}
		}
	}

	WriteData(w, http.StatusOK, map[string]interface{}{"verified": true})
}

// handleOTPResend handles POST /api/auth/otp/resend — re-issue a code.
func (s *Server) handleOTPResend(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var req struct {
		Email   string `json:"email"`
		Purpose string `json:"purpose"`
	}
	if !DecodeJSON(w, r, &req) {
		return
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" {
		WriteError(w, http.StatusBadRequest, "email is required")
		return
	}
	if req.Purpose == "" {
		req.Purpose = models.OTPPurposeSignup
	}

	if _, err := s.app.OTPService.Resend(r.Context(), req.Email, req.Purpose); err != nil {
		if errors.Is(err, otp.ErrCooldownActive) {
			WriteError(w, http.StatusTooManyRequests, "a code was sent recently, wait before requesting another")
			return
		}
		s.logger.Error().Err(err).Str("email", req.Email).Msg("Failed to resend code")
		WriteError(w, http.StatusInternalServerError, "failed to resend code")
		return
	}

	WriteData(w, http.StatusOK, map[string]interface{}{"sent": true})
}
