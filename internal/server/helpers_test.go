package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/dmaguire/rampart/internal/app"
	"github.com/dmaguire/rampart/internal/common"
	"github.com/dmaguire/rampart/internal/models"
	"github.com/dmaguire/rampart/internal/services/activity"
	"github.com/dmaguire/rampart/internal/services/analytics"
	"github.com/dmaguire/rampart/internal/services/blog"
	"github.com/dmaguire/rampart/internal/services/catalog"
	"github.com/dmaguire/rampart/internal/services/content"
	"github.com/dmaguire/rampart/internal/services/otp"
	"github.com/dmaguire/rampart/internal/storage"
)

// newTestServer creates a test server backed by real file storage and a
// full service wiring, minus external clients.
func newTestServer(t *testing.T) *Server {
	t.Helper()
	dir := t.TempDir()
	logger := common.NewSilentLogger()
	cfg := common.NewDefaultConfig()
	cfg.Auth.JWTSecret = "test-secret-key"
	cfg.Auth.TokenExpiry = "1h"
	cfg.Storage.Internal.Path = filepath.Join(dir, "internal")
	cfg.Storage.Content.Path = filepath.Join(dir, "content")

	mgr, err := storage.NewManager(logger, cfg)
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}
	t.Cleanup(func() { mgr.Close() })

	hub := activity.NewHub(logger)
	go hub.Run()
	t.Cleanup(hub.Stop)
	recorder := activity.NewRecorder(mgr.ActivityStore(), hub, logger)

	a := &app.App{
		Config:           cfg,
		Logger:           logger,
		Storage:          mgr,
		CatalogService:   catalog.NewService(mgr, recorder, logger),
		ContentService:   content.NewService(mgr, logger),
		BlogService:      blog.NewService(mgr, nil, logger),
		AnalyticsService: analytics.NewService(mgr, logger),
		OTPService:       otp.NewService(mgr.OTPStore(), otp.NewLogSender(logger), &cfg.Auth.OTP, logger),
		ActivityHub:      hub,
		Activity:         recorder,
	}
	return &Server{
		app:               a,
		logger:            logger,
		googleTokenURL:    googleTokenEndpoint,
		googleUserinfoURL: googleUserinfoEndpoint,
	}
}

func jsonBody(t *testing.T, v interface{}) *bytes.Buffer {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("failed to marshal JSON: %v", err)
	}
	return bytes.NewBuffer(data)
}

// decodeData unmarshals the "data" field of a success envelope into v.
func decodeData(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	var env struct {
		Status string          `json:"status"`
		Data   json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("failed to decode envelope: %v (%s)", err, rec.Body.String())
	}
	if env.Status != "ok" {
		t.Fatalf("expected status ok, got %q: %s", env.Status, rec.Body.String())
	}
	if err := json.Unmarshal(env.Data, v); err != nil {
		t.Fatalf("failed to decode data: %v", err)
	}
}

// signupTestUser registers a user via the handler and returns the auth result.
func signupTestUser(t *testing.T, srv *Server, name, email, password, role string) *models.AuthResult {
	t.Helper()
	payload := map[string]string{
		"name":     name,
		"email":    email,
		"password": password,
	}
	if role != "" {
		payload["role"] = role
	}
	req := httptest.NewRequest(http.MethodPost, "/api/auth/signup", jsonBody(t, payload))
	rec := httptest.NewRecorder()
	srv.handleAuthSignup(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("signupTestUser: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var result models.AuthResult
	decodeData(t, rec, &result)
	return &result
}

// makeTestAdmin creates an admin account directly in storage and returns it
// with a signed token. Admin signup is blocked at the API.
func makeTestAdmin(t *testing.T, srv *Server, email string) (*models.User, string) {
	t.Helper()
	user := &models.User{
		UserID:    "admin-" + email,
		Email:     email,
		Name:      "Admin",
		Role:      models.RoleAdmin,
		Provider:  "email",
		CreatedAt: time.Now(),
	}
	if err := srv.app.Storage.UserStore().SaveUser(context.Background(), user); err != nil {
		t.Fatalf("failed to save admin: %v", err)
	}
	token, err := signJWT(user, "email", &srv.app.Config.Auth)
	if err != nil {
		t.Fatalf("failed to sign admin token: %v", err)
	}
	return user, token
}

// authedRequest builds a request with a Bearer token already resolved into
// a UserContext, the way the middleware would.
func authedRequest(t *testing.T, srv *Server, method, path string, body *bytes.Buffer, token string) *http.Request {
	t.Helper()
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, path, body)
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	_, claims, err := validateJWT(token, []byte(srv.app.Config.Auth.JWTSecret))
	if err != nil {
		t.Fatalf("invalid test token: %v", err)
	}
	sub, _ := claims["sub"].(string)
	user, err := srv.app.Storage.UserStore().GetUser(req.Context(), sub)
	if err != nil {
		t.Fatalf("test token user not found: %v", err)
	}
	uc := &common.UserContext{UserID: user.UserID, Email: user.Email, Name: user.Name, Role: user.Role}
	return req.WithContext(common.WithUserContext(req.Context(), uc))
}
