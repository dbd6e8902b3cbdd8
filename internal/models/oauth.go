package models

// GoogleProfile is the subset of Google's v2 userinfo response the platform
// consumes when completing a social login.
type GoogleProfile struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"verified_email"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
}

// GoogleTokenResponse is Google's token-exchange response.
type GoogleTokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
	IDToken     string `json:"id_token"`
}

// AuthResult is what a successful login, signup, or OAuth callback yields:
// a bearer token and the authenticated user.
type AuthResult struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
}
