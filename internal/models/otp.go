package models

import "time"

// OTP purposes. A challenge is only valid for the purpose it was issued for.
const (
	OTPPurposeSignup        = "signup"
	OTPPurposePasswordReset = "password_reset"
)

// OTPChallenge is a server-side one-time-code record. The code itself is
// stored only as a bcrypt hash.
type OTPChallenge struct {
	ChallengeID string    `json:"challenge_id"`
	Email       string    `json:"email"`
	CodeHash    string    `json:"code_hash"`
	Purpose     string    `json:"purpose"`
	Attempts    int       `json:"attempts"`
	Used        bool      `json:"used"`
	ExpiresAt   time.Time `json:"expires_at"`
	LastSentAt  time.Time `json:"last_sent_at"`
	CreatedAt   time.Time `json:"created_at"`
}

// Expired reports whether the challenge is past its expiry at the given time.
func (c *OTPChallenge) Expired(now time.Time) bool {
	return now.After(c.ExpiresAt)
}
