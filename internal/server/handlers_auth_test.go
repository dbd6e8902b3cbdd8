package server

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dmaguire/rampart/internal/common"
	"github.com/dmaguire/rampart/internal/models"
	"github.com/dmaguire/rampart/internal/services/otp"
)

// --- JWT helpers ---

func TestSignAndValidateJWT_RoundTrip(t *testing.T) {
	cfg := &common.AuthConfig{
		JWTSecret:   "test-secret-key",
		TokenExpiry: "1h",
	}
	user := &models.User{
		UserID: "alice",
		Email:  "alice@example.com",
		Role:   models.RoleStudent,
	}

	token, err := signJWT(user, "email", cfg)
	if err != nil {
		t.Fatalf("signJWT failed: %v", err)
	}
	if token == "" {
		t.Fatal("expected non-empty token")
	}

	parsed, claims, err := validateJWT(token, []byte(cfg.JWTSecret))
	if err != nil {
		t.Fatalf("validateJWT failed: %v", err)
	}
	if !parsed.Valid {
		t.Error("expected token to be valid")
	}
	if claims["sub"] != "alice" {
		t.Errorf("expected sub=alice, got %v", claims["sub"])
	}
	if claims["role"] != models.RoleStudent {
		t.Errorf("expected role=STUDENT, got %v", claims["role"])
	}
	if claims["iss"] != "rampart-server" {
		t.Errorf("expected iss=rampart-server, got %v", claims["iss"])
	}
}

func TestValidateJWT_ExpiredToken(t *testing.T) {
	cfg := &common.AuthConfig{
		JWTSecret:   "test-secret-key",
		TokenExpiry: "-1h", // negative duration = already expired
	}
	token, err := signJWT(&models.User{UserID: "alice"}, "email", cfg)
	if err != nil {
		t.Fatalf("signJWT failed: %v", err)
	}

	_, _, err = validateJWT(token, []byte(cfg.JWTSecret))
	if err == nil {
		t.Error("expected error for expired token")
	}
}

func TestValidateJWT_WrongSecret(t *testing.T) {
	cfg := &common.AuthConfig{
		JWTSecret:   "correct-secret",
		TokenExpiry: "1h",
	}
	token, err := signJWT(&models.User{UserID: "alice"}, "email", cfg)
	if err != nil {
		t.Fatalf("signJWT failed: %v", err)
	}

	_, _, err = validateJWT(token, []byte("wrong-secret"))
	if err == nil {
		t.Error("expected error for wrong secret")
	}
}

// --- Signup ---

func TestHandleAuthSignup_Success(t *testing.T) {
	srv := newTestServer(t)

	result := signupTestUser(t, srv, "Alice", "alice@example.com", "secretpass", "")
	if result.Token == "" {
		t.Error("expected a token")
	}
	if result.User == nil {
		t.Fatal("expected a user")
	}
	if result.User.Role != models.RoleStudent {
		t.Errorf("expected default role STUDENT, got %q", result.User.Role)
	}
	if result.User.PasswordHash != "" {
		t.Error("password hash must not appear in response")
	}
	if result.User.Verified {
		t.Error("new email accounts start unverified")
	}
}

func TestHandleAuthSignup_InstructorRole(t *testing.T) {
	srv := newTestServer(t)

	result := signupTestUser(t, srv, "Ivan", "ivan@example.com", "secretpass", "instructor")
	if result.User.Role != models.RoleInstructor {
		t.Errorf("expected INSTRUCTOR, got %q", result.User.Role)
	}
}

func TestHandleAuthSignup_AdminRoleRejected(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/signup", jsonBody(t, map[string]string{
		"name":     "Eve",
		"email":    "eve@example.com",
		"password": "secretpass",
		"role":     "admin",
	}))
	rec := httptest.NewRecorder()
	srv.handleAuthSignup(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Errorf("expected 403, got %d", rec.Code)
	}
}

func TestHandleAuthSignup_DuplicateEmail(t *testing.T) {
	srv := newTestServer(t)
	signupTestUser(t, srv, "Alice", "alice@example.com", "secretpass", "")

	req := httptest.NewRequest(http.MethodPost, "/api/auth/signup", jsonBody(t, map[string]string{
		"name":     "Alice Again",
		"email":    "alice@example.com",
		"password": "otherpass1",
	}))
	rec := httptest.NewRecorder()
	srv.handleAuthSignup(rec, req)
	if rec.Code != http.StatusConflict {
		t.Errorf("expected 409, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestHandleAuthSignup_ShortPassword(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/signup", jsonBody(t, map[string]string{
		"name":     "Alice",
		"email":    "alice@example.com",
		"password": "short",
	}))
	rec := httptest.NewRecorder()
	srv.handleAuthSignup(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

// --- Login ---

func TestHandleAuthLogin_Success(t *testing.T) {
	srv := newTestServer(t)
	signupTestUser(t, srv, "Alice", "alice@example.com", "secretpass", "")

	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", jsonBody(t, map[string]string{
		"email":    "Alice@Example.com",
		"password": "secretpass",
	}))
	rec := httptest.NewRecorder()
	srv.handleAuthLogin(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var result models.AuthResult
	decodeData(t, rec, &result)
	if result.Token == "" {
		t.Error("expected a token")
	}
	if result.User.Email != "alice@example.com" {
		t.Errorf("unexpected email %q", result.User.Email)
	}
	if strings.Contains(rec.Body.String(), "$2a$") {
		t.Error("bcrypt hash must not appear in response")
	}
}

func TestHandleAuthLogin_WrongPassword(t *testing.T) {
	srv := newTestServer(t)
	signupTestUser(t, srv, "Alice", "alice@example.com", "secretpass", "")

	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", jsonBody(t, map[string]string{
		"email":    "alice@example.com",
		"password": "wrongpass",
	}))
	rec := httptest.NewRecorder()
	srv.handleAuthLogin(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}
}

func TestHandleAuthLogin_UnknownEmail(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", jsonBody(t, map[string]string{
		"email":    "nobody@example.com",
		"password": "whatever1",
	}))
	rec := httptest.NewRecorder()
	srv.handleAuthLogin(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}
}

// --- Verify ---

func TestHandleAuthVerify_Success(t *testing.T) {
	srv := newTestServer(t)
	result := signupTestUser(t, srv, "Alice", "alice@example.com", "secretpass", "")

	req := authedRequest(t, srv, http.MethodGet, "/api/auth/verify", nil, result.Token)
	rec := httptest.NewRecorder()
	srv.handleAuthVerify(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var user models.User
	decodeData(t, rec, &user)
	if user.UserID != result.User.UserID {
		t.Errorf("expected user %q, got %q", result.User.UserID, user.UserID)
	}
}

func TestHandleAuthVerify_Anonymous(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/auth/verify", nil)
	rec := httptest.NewRecorder()
	srv.handleAuthVerify(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}
}

// --- Bearer middleware ---

func TestBearerMiddleware_ValidToken(t *testing.T) {
	srv := newTestServer(t)
	result := signupTestUser(t, srv, "Alice", "alice@example.com", "secretpass", "")

	var captured *common.UserContext
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = common.UserContextFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})
	handler := bearerTokenMiddleware(srv.app.Config, srv.app.Storage.UserStore())(next)

	req := httptest.NewRequest(http.MethodGet, "/api/auth/verify", nil)
	req.Header.Set("Authorization", "Bearer "+result.Token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if captured == nil || captured.UserID != result.User.UserID {
		t.Errorf("expected user context for %q, got %+v", result.User.UserID, captured)
	}
}

func TestBearerMiddleware_BadToken(t *testing.T) {
	srv := newTestServer(t)

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler must not run with a bad token")
	})
	handler := bearerTokenMiddleware(srv.app.Config, srv.app.Storage.UserStore())(next)

	req := httptest.NewRequest(http.MethodGet, "/api/auth/verify", nil)
	req.Header.Set("Authorization", "Bearer not-a-jwt")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}
	if rec.Header().Get("WWW-Authenticate") == "" {
		t.Error("expected a WWW-Authenticate challenge")
	}
}

func TestBearerMiddleware_AnonymousPassesThrough(t *testing.T) {
	srv := newTestServer(t)

	called := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		if common.UserContextFromContext(r.Context()) != nil {
			t.Error("anonymous request must not carry a user context")
		}
	})
	handler := bearerTokenMiddleware(srv.app.Config, srv.app.Storage.UserStore())(next)

	req := httptest.NewRequest(http.MethodGet, "/api/courses", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if !called {
		t.Error("expected next handler to run")
	}
}

// --- OTP resend ---

func TestHandleOTPResend_AfterSignup(t *testing.T) {
	srv := newTestServer(t)
	srv.app.OTPService = otp.NewService(srv.app.Storage.OTPStore(), otp.NewLogSender(srv.logger),
		&common.OTPConfig{ResendCooldown: "0s", CodeExpiry: "10m", MaxAttempts: 5}, srv.logger)
	signupTestUser(t, srv, "Alice", "alice@example.com", "secretpass", "")

	req := httptest.NewRequest(http.MethodPost, "/api/auth/otp/resend", jsonBody(t, map[string]string{
		"email":   "alice@example.com",
		"purpose": "signup",
	}))
	rec := httptest.NewRecorder()
	srv.handleOTPResend(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestHandleOTPResend_CooldownActive(t *testing.T) {
	srv := newTestServer(t)
	signupTestUser(t, srv, "Alice", "alice@example.com", "secretpass", "")

	// Signup just issued a code; an immediate resend is inside the cooldown.
	req := httptest.NewRequest(http.MethodPost, "/api/auth/otp/resend", jsonBody(t, map[string]string{
		"email":   "alice@example.com",
		"purpose": "signup",
	}))
	rec := httptest.NewRecorder()
	srv.handleOTPResend(rec, req)
	if rec.Code != http.StatusTooManyRequests {
		t.Errorf("expected 429, got %d: %s", rec.Code, rec.Body.String())
	}
}
