package session

import (
	"context"
	"encoding/json"
	"net/url"

	"github.com/dmaguire/rampart/internal/common"
	"github.com/dmaguire/rampart/internal/models"
)

// Controller is the single entry point for session-mutating operations and
// the only writer to the TokenStore. It does not serialize concurrent
// operations: two overlapping calls both run and the last store write wins.
// Callers prevent double submits at the surface layer.
type Controller struct {
	api    AuthAPI
	store  TokenStore
	nav    Navigator
	notify Notifier
	logger *common.Logger
}

// NewController creates the auth flow controller.
func NewController(api AuthAPI, store TokenStore, nav Navigator, notify Notifier, logger *common.Logger) *Controller {
	if logger == nil {
		logger = common.NewSilentLogger()
	}
	return &Controller{api: api, store: store, nav: nav, notify: notify, logger: logger}
}

// CurrentUser returns the stored user, if any.
func (c *Controller) CurrentUser() (*models.User, bool) {
	return c.store.User()
}

// Token returns the stored bearer token, if any.
func (c *Controller) Token() (string, bool) {
	return c.store.Token()
}

// Login authenticates and, on success, persists the session and navigates to
// the role's dashboard. On failure no state changes.
func (c *Controller) Login(ctx context.Context, email, password string) (*models.User, error) {
	result, err := c.api.Login(ctx, email, password)
	if err != nil {
		c.logger.Debug().Err(err).Str("email", email).Msg("login failed")
		c.notify.Error("Login failed: " + err.Error())
		return nil, err
	}
	c.establish(result)
	c.notify.Success("Welcome back, " + result.User.Name)
	return result.User, nil
}

// Signup registers an account and, on success, persists the session and
// navigates to the role's dashboard.
func (c *Controller) Signup(ctx context.Context, name, email, password, role string) (*models.User, error) {
	result, err := c.api.Signup(ctx, name, email, password, role)
	if err != nil {
		c.logger.Debug().Err(err).Str("email", email).Msg("signup failed")
		c.notify.Error("Signup failed: " + err.Error())
		return nil, err
	}
	c.establish(result)
	c.notify.Success("Account created")
	return result.User, nil
}

// ConsumeOAuthCallback ingests the redirect from the OAuth provider. The
// callback URL carries a token query parameter and a user parameter holding
// URL-encoded JSON. A missing or corrupt parameter is a malformed callback:
// no state changes, the user sees a specific message, and navigation goes to
// the login page.
func (c *Controller) ConsumeOAuthCallback(rawURL string) (*models.User, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return nil, c.rejectCallback("The sign-in response could not be read.")
	}

	query := parsed.Query()
	token := query.Get("token")
	rawUser := query.Get("user")
	if token == "" || rawUser == "" {
		return nil, c.rejectCallback("The sign-in response was incomplete. Please try again.")
	}

	user, err := decodeCallbackUser(rawUser)
	if err != nil {
		return nil, c.rejectCallback("The sign-in response could not be read. Please try again.")
	}

	c.establish(&models.AuthResult{Token: token, User: user})
	c.notify.Success("Signed in with " + providerLabel(user.Provider))
	return user, nil
}

func (c *Controller) rejectCallback(message string) error {
	c.logger.Debug().Msg("oauth callback rejected: " + message)
	c.notify.Error(message)
	c.nav.NavigateTo(RouteLogin)
	return ErrMalformedCallback
}

// decodeCallbackUser parses the user query parameter. net/url has already
// percent-decoded the value; it must hold a JSON object.
func decodeCallbackUser(raw string) (*models.User, error) {
	var user models.User
	if err := json.Unmarshal([]byte(raw), &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func providerLabel(provider string) string {
	switch provider {
	case "google", "":
		return "Google"
	default:
		return provider
	}
}

// Logout clears the persisted session and navigates to the login page.
// Logging out while already logged out is a no-op success.
func (c *Controller) Logout() {
	c.store.Clear()
	c.nav.NavigateTo(RouteLogin)
}

// UpdateProfile sends a partial profile update and persists the merged user
// the server returns. Fields not present in the patch are preserved. An
// empty patch succeeds without touching anything.
func (c *Controller) UpdateProfile(ctx context.Context, patch *models.ProfilePatch) (*models.User, error) {
	if patch.Empty() {
		user, _ := c.store.User()
		return user, nil
	}

	token, ok := c.store.Token()
	if !ok {
		c.notify.Error("You are not signed in.")
		return nil, ErrNotAuthenticated
	}

	user, err := c.api.UpdateProfile(ctx, token, patch)
	if err != nil {
		c.logger.Debug().Err(err).Msg("profile update failed")
		c.notify.Error("Profile update failed: " + err.Error())
		return nil, err
	}

	c.store.SetUser(user)
	c.notify.Success("Profile updated")
	return user, nil
}

// establish persists a fresh session and navigates by role.
func (c *Controller) establish(result *models.AuthResult) {
	c.store.SetToken(result.Token)
	c.store.SetUser(result.User)
	c.nav.NavigateTo(RouteForRole(result.User.Role))
}
