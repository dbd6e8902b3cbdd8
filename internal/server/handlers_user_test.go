package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dmaguire/rampart/internal/models"
)

func TestHandleProfileGet(t *testing.T) {
	srv := newTestServer(t)
	result := signupTestUser(t, srv, "Alice", "alice@example.com", "secretpass", "")

	req := authedRequest(t, srv, http.MethodGet, "/api/user/profile", nil, result.Token)
	rec := httptest.NewRecorder()
	srv.routeUserProfile(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var user models.User
	decodeData(t, rec, &user)
	if user.Name != "Alice" {
		t.Errorf("expected Alice, got %q", user.Name)
	}
	if user.PasswordHash != "" {
		t.Error("password hash must not appear in response")
	}
}

func TestHandleProfileUpdate_MergesFields(t *testing.T) {
	srv := newTestServer(t)
	result := signupTestUser(t, srv, "Alice", "alice@example.com", "secretpass", "")

	// Patch only the bio; name and email must survive.
	req := authedRequest(t, srv, http.MethodPut, "/api/user/profile", jsonBody(t, map[string]string{
		"bio": "Security researcher",
	}), result.Token)
	rec := httptest.NewRecorder()
	srv.routeUserProfile(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var user models.User
	decodeData(t, rec, &user)
	if user.Bio != "Security researcher" {
		t.Errorf("expected patched bio, got %q", user.Bio)
	}
	if user.Name != "Alice" {
		t.Errorf("name must be preserved, got %q", user.Name)
	}
	if user.Email != "alice@example.com" {
		t.Errorf("email must be preserved, got %q", user.Email)
	}
}

func TestHandleProfileUpdate_EmptyPatchIsNoop(t *testing.T) {
	srv := newTestServer(t)
	result := signupTestUser(t, srv, "Alice", "alice@example.com", "secretpass", "")

	req := authedRequest(t, srv, http.MethodPut, "/api/user/profile", jsonBody(t, map[string]string{}), result.Token)
	rec := httptest.NewRecorder()
	srv.routeUserProfile(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var user models.User
	decodeData(t, rec, &user)
	if user.Name != "Alice" || user.Email != "alice@example.com" {
		t.Errorf("empty patch must return the unchanged profile, got %+v", user)
	}
}

func TestHandleProfileUpdate_EmailConflict(t *testing.T) {
	srv := newTestServer(t)
	signupTestUser(t, srv, "Bob", "bob@example.com", "secretpass", "")
	result := signupTestUser(t, srv, "Alice", "alice@example.com", "secretpass", "")

	req := authedRequest(t, srv, http.MethodPut, "/api/user/profile", jsonBody(t, map[string]string{
		"email": "bob@example.com",
	}), result.Token)
	rec := httptest.NewRecorder()
	srv.routeUserProfile(rec, req)
	if rec.Code != http.StatusConflict {
		t.Errorf("expected 409, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestHandleProfileUpdate_BlankNameRejected(t *testing.T) {
	srv := newTestServer(t)
	result := signupTestUser(t, srv, "Alice", "alice@example.com", "secretpass", "")

	req := authedRequest(t, srv, http.MethodPut, "/api/user/profile", jsonBody(t, map[string]string{
		"name": "   ",
	}), result.Token)
	rec := httptest.NewRecorder()
	srv.routeUserProfile(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestHandleProfileUpdate_Anonymous(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest(http.MethodPut, "/api/user/profile", jsonBody(t, map[string]string{"bio": "x"}))
	rec := httptest.NewRecorder()
	srv.routeUserProfile(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}
}
