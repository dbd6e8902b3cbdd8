// End-to-end flows through the HTTP API using the session client, backed
// by real file storage.
package api

import (
	"context"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"sync"
	"testing"

	"github.com/dmaguire/rampart/internal/app"
	"github.com/dmaguire/rampart/internal/common"
	"github.com/dmaguire/rampart/internal/models"
	"github.com/dmaguire/rampart/internal/server"
	"github.com/dmaguire/rampart/internal/services/activity"
	"github.com/dmaguire/rampart/internal/services/analytics"
	"github.com/dmaguire/rampart/internal/services/blog"
	"github.com/dmaguire/rampart/internal/services/catalog"
	"github.com/dmaguire/rampart/internal/services/content"
	"github.com/dmaguire/rampart/internal/services/otp"
	"github.com/dmaguire/rampart/internal/session"
	"github.com/dmaguire/rampart/internal/storage"
)

// startTestAPI boots the full server stack on an httptest listener.
func startTestAPI(t *testing.T) *httptest.Server {
	t.Helper()
	dir := t.TempDir()
	logger := common.NewSilentLogger()
	cfg := common.NewDefaultConfig()
	cfg.Auth.JWTSecret = "e2e-test-secret"
	cfg.Storage.Internal.Path = filepath.Join(dir, "internal")
	cfg.Storage.Content.Path = filepath.Join(dir, "content")

	mgr, err := storage.NewManager(logger, cfg)
	if err != nil {
		t.Fatalf("storage init failed: %v", err)
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

	srv := server.NewServer(a)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

type recordingNav struct {
	mu     sync.Mutex
	routes []string
}

func (n *recordingNav) NavigateTo(route string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.routes = append(n.routes, route)
}

func (n *recordingNav) last() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.routes) == 0 {
		return ""
	}
	return n.routes[len(n.routes)-1]
}

type recordingNotifier struct {
	mu        sync.Mutex
	errors    []string
	successes []string
}

func (n *recordingNotifier) Success(message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.successes = append(n.successes, message)
}

func (n *recordingNotifier) Error(message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.errors = append(n.errors, message)
}

func newSessionController(t *testing.T, ts *httptest.Server) (*session.Controller, *recordingNav, session.TokenStore, *session.Client) {
	t.Helper()
	logger := common.NewSilentLogger()
	store := session.NewFileStore(filepath.Join(t.TempDir(), "session.json"), logger)
	client := session.NewClient(session.WithBaseURL(ts.URL), session.WithLogger(logger))
	nav := &recordingNav{}
	ctrl := session.NewController(client, store, nav, &recordingNotifier{}, logger)
	return ctrl, nav, store, client
}

func TestSignupLoginLogoutFlow(t *testing.T) {
	ts := startTestAPI(t)
	ctrl, nav, store, client := newSessionController(t, ts)
	ctx := context.Background()

	// Signup lands on the student dashboard with a persisted session.
	user, err := ctrl.Signup(ctx, "Alice", "alice@example.com", "secretpass", "")
	if err != nil {
		t.Fatalf("signup failed: %v", err)
	}
	if user.Role != models.RoleStudent {
		t.Errorf("expected STUDENT, got %q", user.Role)
	}
	if nav.last() != session.RouteStudentDashboard {
		t.Errorf("expected student dashboard, got %q", nav.last())
	}
	if _, ok := store.Token(); !ok {
		t.Fatal("expected a persisted token")
	}

	// A fresh verifier accepts the stored session.
	verifier := session.NewVerifier(client, store, common.NewSilentLogger())
	restored, ok := verifier.Verify(ctx)
	if !ok {
		t.Fatal("expected the stored session to verify")
	}
	if restored.Email != "alice@example.com" {
		t.Errorf("unexpected restored user %q", restored.Email)
	}

	// Logout clears it.
	ctrl.Logout()
	if nav.last() != session.RouteLogin {
		t.Errorf("expected login route after logout, got %q", nav.last())
	}
	if _, ok := store.Token(); ok {
		t.Error("expected the token to be cleared")
	}

	// Login again with the same credentials.
	if _, err := ctrl.Login(ctx, "alice@example.com", "secretpass"); err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if nav.last() != session.RouteStudentDashboard {
		t.Errorf("expected student dashboard after login, got %q", nav.last())
	}
}

func TestInstructorNavigation(t *testing.T) {
	ts := startTestAPI(t)
	ctrl, nav, _, _ := newSessionController(t, ts)

	if _, err := ctrl.Signup(context.Background(), "Ivan", "ivan@example.com", "secretpass", "instructor"); err != nil {
		t.Fatalf("signup failed: %v", err)
	}
	if nav.last() != session.RouteInstructorDashboard {
		t.Errorf("expected instructor dashboard, got %q", nav.last())
	}
}

func TestStaleTokenClearedOnVerify(t *testing.T) {
	ts := startTestAPI(t)
	_, _, store, client := newSessionController(t, ts)

	store.SetToken("not-a-valid-jwt")
	store.SetUser(&models.User{UserID: "ghost", Role: models.RoleStudent})

	verifier := session.NewVerifier(client, store, common.NewSilentLogger())
	if _, ok := verifier.Verify(context.Background()); ok {
		t.Fatal("expected verification to fail for a stale token")
	}
	if _, ok := store.Token(); ok {
		t.Error("expected the stale token to be cleared")
	}
}

func TestProfileUpdateRoundTrip(t *testing.T) {
	ts := startTestAPI(t)
	ctrl, _, _, _ := newSessionController(t, ts)
	ctx := context.Background()

	if _, err := ctrl.Signup(ctx, "Alice", "alice@example.com", "secretpass", ""); err != nil {
		t.Fatalf("signup failed: %v", err)
	}

	bio := "CTF enthusiast"
	updated, err := ctrl.UpdateProfile(ctx, &models.ProfilePatch{Bio: &bio})
	if err != nil {
		t.Fatalf("profile update failed: %v", err)
	}
	if updated.Bio != bio {
		t.Errorf("expected patched bio, got %q", updated.Bio)
	}
	if updated.Name != "Alice" || updated.Email != "alice@example.com" {
		t.Errorf("untouched fields must survive, got %+v", updated)
	}

	// The merged profile is what the session now holds.
	current, ok := ctrl.CurrentUser()
	if !ok || current.Bio != bio {
		t.Errorf("expected the session profile to carry the patch, got %+v", current)
	}
}

func TestOAuthCallbackRoundTrip(t *testing.T) {
	ts := startTestAPI(t)
	ctrl, nav, _, _ := newSessionController(t, ts)

	// The shape the server's OAuth callback redirect produces.
	userJSON := `{"user_id":"google_1","email":"alice@example.com","name":"Alice","role":"ADMIN"}`
	callback := "http://localhost:3000/auth/callback?token=some-jwt&user=" + url.QueryEscape(userJSON)

	user, err := ctrl.ConsumeOAuthCallback(callback)
	if err != nil {
		t.Fatalf("callback consume failed: %v", err)
	}
	if user.Role != models.RoleAdmin {
		t.Errorf("expected ADMIN, got %q", user.Role)
	}
	if nav.last() != session.RouteAdminDashboard {
		t.Errorf("expected admin dashboard, got %q", nav.last())
	}
}
