// Package session implements the client-side session and authentication
// flow used by the Rampart CLI and any other local consumer: durable token
// persistence, startup verification, the auth flow controller, and the OTP
// resend countdown.
package session

import (
	"context"
	"errors"

	"github.com/dmaguire/rampart/internal/models"
)

// Dashboard routes by role. Unrecognized roles fall through to the student
// dashboard rather than a dead end.
const (
	RouteAdminDashboard      = "/dashboard/admin"
	RouteInstructorDashboard = "/dashboard/instructor"
	RouteStudentDashboard    = "/dashboard"
	RouteLogin               = "/login"
)

// RouteForRole maps a role to its post-auth dashboard route.
func RouteForRole(role string) string {
	switch models.NormalizeRole(role) {
	case models.RoleAdmin:
		return RouteAdminDashboard
	case models.RoleInstructor:
		return RouteInstructorDashboard
	default:
		return RouteStudentDashboard
	}
}

// ErrMalformedCallback indicates an OAuth callback URL missing or carrying a
// corrupt token or user parameter. Distinct from a backend rejection.
var ErrMalformedCallback = errors.New("malformed oauth callback")

// ErrResendUnavailable indicates a resend was requested while the cooldown
// is still counting down.
var ErrResendUnavailable = errors.New("resend not available until cooldown expires")

// ErrNotAuthenticated indicates an operation that needs a session was called
// without one.
var ErrNotAuthenticated = errors.New("not authenticated")

// TokenStore persists the bearer token and user profile across process
// restarts. Implementations fail open: any storage error reads as absent and
// writes are best-effort, never fatal.
type TokenStore interface {
	Token() (string, bool)
	SetToken(token string)
	User() (*models.User, bool)
	SetUser(user *models.User)
	Clear()
}

// AuthAPI is the external authentication service consumed by the controller
// and verifier.
type AuthAPI interface {
	Login(ctx context.Context, email, password string) (*models.AuthResult, error)
	Signup(ctx context.Context, name, email, password, role string) (*models.AuthResult, error)
	VerifyToken(ctx context.Context, token string) error
	UpdateProfile(ctx context.Context, token string, patch *models.ProfilePatch) (*models.User, error)
	ResendCode(ctx context.Context, email, purpose string) error
}

// Navigator receives post-action navigation targets.
type Navigator interface {
	NavigateTo(route string)
}

// Notifier receives user-visible success and failure messages.
type Notifier interface {
	Success(message string)
	Error(message string)
}

// NavigatorFunc adapts a function to the Navigator interface.
type NavigatorFunc func(route string)

func (f NavigatorFunc) NavigateTo(route string) { f(route) }
