package server

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dmaguire/rampart/internal/models"
)

const (
	googleTokenEndpoint    = "https://oauth2.googleapis.com/token"
	googleUserinfoEndpoint = "https://www.googleapis.com/oauth2/v2/userinfo"
)

// --- OAuth state parameter encoding ---

type oauthStatePayload struct {
	Callback string `json:"callback"`
	Nonce    string `json:"nonce"`
	TS       int64  `json:"ts"`
}

// encodeOAuthState encodes a callback URL into a signed state parameter.
func encodeOAuthState(callback string, secret []byte) (string, error) {
	nonce := make([]byte, 16)
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}
	payload := oauthStatePayload{
		Callback: callback,
		Nonce:    base64.RawURLEncoding.EncodeToString(nonce),
		TS:       time.Now().Unix(),
	}
	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal state: %w", err)
	}
	payloadB64 := base64.RawURLEncoding.EncodeToString(payloadJSON)

	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(payloadB64))
	sig := base64.RawURLEncoding.EncodeToString(mac.Sum(nil))

	return payloadB64 + "." + sig, nil
}

// decodeOAuthState validates and decodes a state parameter, returning the callback URL.
func decodeOAuthState(state string, secret []byte) (string, error) {
	parts := strings.SplitN(state, ".", 2)
	if len(parts) != 2 {
		return "", fmt.Errorf("invalid state format")
	}
	payloadB64, sigB64 := parts[0], parts[1]

	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(payloadB64))
	expectedSig := base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
	if !hmac.Equal([]byte(sigB64), []byte(expectedSig)) {
		return "", fmt.Errorf("invalid state signature")
	}

	payloadJSON, err := base64.RawURLEncoding.DecodeString(payloadB64)
	if err != nil {
		return "", fmt.Errorf("invalid state encoding: %w", err)
	}
	var payload oauthStatePayload
	if err := json.Unmarshal(payloadJSON, &payload); err != nil {
		return "", fmt.Errorf("invalid state payload: %w", err)
	}

	// Check expiry (10 minutes)
	if time.Since(time.Unix(payload.TS, 0)) > 10*time.Minute {
		return "", fmt.Errorf("state expired")
	}

	return payload.Callback, nil
}

// --- OAuth handlers ---

// handleOAuthLoginGoogle handles GET /api/auth/login/google — redirect to Google OAuth.
func (s *Server) handleOAuthLoginGoogle(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	cfg := s.app.Config.Auth.Google
	if cfg.ClientID == "" {
		WriteError(w, http.StatusInternalServerError, "Google OAuth not configured")
		return
	}

	// The front end may supply its own callback; default to the configured site.
	callback := r.URL.Query().Get("callback")
	if callback == "" {
		callback = strings.TrimRight(s.app.Config.SiteURL, "/") + "/auth/callback"
	}
	if err := validateCallbackURL(callback, s.app.Config.IsProduction()); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid callback URL")
		return
	}

	state, err := encodeOAuthState(callback, []byte(s.app.Config.Auth.JWTSecret))
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to encode OAuth state")
		WriteError(w, http.StatusInternalServerError, "failed to generate state")
		return
	}

	redirectURI := s.oauthRedirectURI(r)

	authURL := fmt.Sprintf(
		"https://accounts.google.com/o/oauth2/v2/auth?client_id=%s&redirect_uri=%s&response_type=code&scope=openid%%20email%%20profile&state=%s",
		url.QueryEscape(cfg.ClientID),
		url.QueryEscape(redirectURI),
		url.QueryEscape(state),
	)

	http.Redirect(w, r, authURL, http.StatusFound)
}

// handleOAuthCallbackGoogle handles GET /api/auth/callback/google.
// On success the browser is redirected to the front-end callback with the
// bearer token and the user profile as query parameters.
func (s *Server) handleOAuthCallbackGoogle(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	// Check if provider sent an error (e.g., user denied consent)
	if errParam := r.URL.Query().Get("error"); errParam != "" {
		stateParam := r.URL.Query().Get("state")
		if callback, err := decodeOAuthState(stateParam, []byte(s.app.Config.Auth.JWTSecret)); err == nil {
			redirectWithError(w, r, callback, errParam)
		} else {
			WriteError(w, http.StatusBadRequest, "OAuth error: "+errParam)
		}
		return
	}

	code := r.URL.Query().Get("code")
	stateParam := r.URL.Query().Get("state")

	callback, err := decodeOAuthState(stateParam, []byte(s.app.Config.Auth.JWTSecret))
	if err != nil {
		s.logger.Error().Err(err).Msg("Invalid OAuth state")
		WriteError(w, http.StatusBadRequest, "invalid state parameter")
		return
	}

	cfg := s.app.Config.Auth.Google
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		redirectWithError(w, r, callback, "provider_not_configured")
		return
	}

	// Exchange code for token
	tokenResp, err := http.PostForm(s.googleTokenURL, url.Values{
		"code":          {code},
		"client_id":     {cfg.ClientID},
		"client_secret": {cfg.ClientSecret},
		"redirect_uri":  {s.oauthRedirectURI(r)},
		"grant_type":    {"authorization_code"},
	})
	if err != nil {
		s.logger.Error().Err(err).Msg("Google token exchange failed")
		redirectWithError(w, r, callback, "exchange_failed")
		return
	}
	defer tokenResp.Body.Close()

	var tokenData models.GoogleTokenResponse
	if err := json.NewDecoder(tokenResp.Body).Decode(&tokenData); err != nil || tokenData.AccessToken == "" {
		redirectWithError(w, r, callback, "exchange_failed")
		return
	}

	// Get user info
	infoReq, _ := http.NewRequestWithContext(r.Context(), http.MethodGet, s.googleUserinfoURL, nil)
	infoReq.Header.Set("Authorization", "Bearer "+tokenData.AccessToken)
	infoResp, err := http.DefaultClient.Do(infoReq)
	if err != nil {
		redirectWithError(w, r, callback, "profile_failed")
		return
	}
	defer infoResp.Body.Close()

	var profile models.GoogleProfile
	if err := json.NewDecoder(infoResp.Body).Decode(&profile); err != nil {
		redirectWithError(w, r, callback, "profile_failed")
		return
	}

	user := s.findOrCreateOAuthUser(r.Context(), "google_"+profile.ID, profile.Email, profile.Name, profile.Picture)
	if user == nil {
		redirectWithError(w, r, callback, "user_creation_failed")
		return
	}

	jwtToken, err := signJWT(user, "google", &s.app.Config.Auth)
	if err != nil {
		redirectWithError(w, r, callback, "token_failed")
		return
	}

	if err := validateCallbackURL(callback, s.app.Config.IsProduction()); err != nil {
		s.logger.Error().Err(err).Str("callback", callback).Msg("Invalid callback URL in OAuth state")
		WriteError(w, http.StatusBadRequest, "invalid callback URL in state")
		return
	}

	redirectURL, err := buildCallbackRedirectURL(callback, jwtToken, user)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "failed to build redirect URL")
		return
	}
	http.Redirect(w, r, redirectURL, http.StatusFound)
}

// findOrCreateOAuthUser looks up or creates a user for the Google provider.
// It first checks by provider-specific userID, then by email for account linking.
func (s *Server) findOrCreateOAuthUser(ctx context.Context, userID, email, name, avatarURL string) *models.User {
	store := s.app.Storage.UserStore()

	// 1. Check by provider-specific userID
	user, err := store.GetUser(ctx, userID)
	if err == nil {
		changed := false
		if email != "" && user.Email != email {
			user.Email = email
			changed = true
		}
		if name != "" && user.Name != name {
			user.Name = name
			changed = true
		}
		if avatarURL != "" && user.AvatarURL != avatarURL {
			user.AvatarURL = avatarURL
			changed = true
		}
		if changed {
			user.ModifiedAt = time.Now()
			store.SaveUser(ctx, user)
		}
		return user
	}

	// 2. Check by email for account linking
	if email != "" {
		existing, err := store.GetUserByEmail(ctx, email)
		if err == nil {
			if name != "" && existing.Name != name {
				existing.Name = name
				existing.ModifiedAt = time.Now()
				store.SaveUser(ctx, existing)
			}
			return existing
		}
	}

	// 3. Create new user. Google accounts arrive with a verified email.
	user = &models.User{
		UserID:    userID,
		Email:     email,
		Name:      name,
		AvatarURL: avatarURL,
		Provider:  "google",
		Role:      models.RoleStudent,
		Verified:  true,
		CreatedAt: time.Now(),
	}
	if err := store.SaveUser(ctx, user); err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Msg("Failed to create OAuth user")
		return nil
	}
	s.app.Activity.Record(ctx, "signup", user.UserID, "")
	return user
}

// --- Callback URL helpers ---

// validateCallbackURL ensures the callback is a safe http(s) URL.
func validateCallbackURL(callback string, isProduction bool) error {
	if callback == "" {
		return fmt.Errorf("empty callback URL")
	}

	// Block protocol-relative URLs
	if strings.HasPrefix(callback, "//") {
		return fmt.Errorf("protocol-relative URLs not allowed")
	}

	u, err := url.Parse(callback)
	if err != nil {
		return fmt.Errorf("invalid callback URL: %w", err)
	}

	switch u.Scheme {
	case "https":
		// Always allowed
	case "http":
		if isProduction {
			return fmt.Errorf("http callbacks not allowed in production")
		}
	default:
		return fmt.Errorf("callback scheme %q not allowed", u.Scheme)
	}

	if u.Host == "" {
		return fmt.Errorf("callback URL must have a host")
	}

	return nil
}

// buildCallbackRedirectURL appends the token and the user profile JSON as
// query parameters to the callback URL.
func buildCallbackRedirectURL(callback, jwtToken string, user *models.User) (string, error) {
	u, err := url.Parse(callback)
	if err != nil {
		return "", fmt.Errorf("invalid callback URL: %w", err)
	}
	userJSON, err := json.Marshal(user.Public())
	if err != nil {
		return "", fmt.Errorf("failed to marshal user: %w", err)
	}
	q := u.Query()
	q.Set("token", jwtToken)
	q.Set("user", string(userJSON))
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// redirectWithError redirects to the callback URL with an error query parameter.
func redirectWithError(w http.ResponseWriter, r *http.Request, callback, errorCode string) {
	u, err := url.Parse(callback)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "invalid callback URL")
		return
	}
	q := u.Query()
	q.Set("error", errorCode)
	u.RawQuery = q.Encode()
	http.Redirect(w, r, u.String(), http.StatusFound)
}

// oauthRedirectURI builds the server-side redirect URI for OAuth callbacks.
func (s *Server) oauthRedirectURI(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https" {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s/api/auth/callback/google", scheme, r.Host)
}
