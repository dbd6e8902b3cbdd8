package common

import (
	"context"
	"testing"
)

func TestUserContext_RoundTrip(t *testing.T) {
	ctx := context.Background()

	// Absent by default
	if uc := UserContextFromContext(ctx); uc != nil {
		t.Error("Expected nil UserContext from empty context")
	}

	// Store and retrieve
	uc := &UserContext{
		UserID: "user-123",
		Email:  "alice@example.com",
		Name:   "Alice",
		Role:   "INSTRUCTOR",
	}
	ctx = WithUserContext(ctx, uc)

	got := UserContextFromContext(ctx)
	if got == nil {
		t.Fatal("Expected non-nil UserContext")
	}
	if got.UserID != "user-123" {
		t.Errorf("Expected user-123, got %s", got.UserID)
	}
	if got.Role != "INSTRUCTOR" {
		t.Errorf("Expected INSTRUCTOR, got %s", got.Role)
	}
}

func TestResolveUserID(t *testing.T) {
	ctx := context.Background()

	if got := ResolveUserID(ctx); got != "" {
		t.Errorf("Expected empty user ID for anonymous context, got %q", got)
	}

	ctx = WithUserContext(ctx, &UserContext{UserID: "u1", Role: "ADMIN"})
	if got := ResolveUserID(ctx); got != "u1" {
		t.Errorf("Expected u1, got %q", got)
	}
	if got := ResolveRole(ctx); got != "ADMIN" {
		t.Errorf("Expected ADMIN, got %q", got)
	}
}
