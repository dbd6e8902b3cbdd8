package models

import (
	"strings"
	"time"
)

// Roles form a closed set. Unrecognized values fall back to RoleStudent for
// navigation purposes but are stored as received.
const (
	RoleStudent    = "STUDENT"
	RoleInstructor = "INSTRUCTOR"
	RoleAdmin      = "ADMIN"
)

// NormalizeRole uppercases a role and maps unknown values to RoleStudent.
func NormalizeRole(role string) string {
	switch strings.ToUpper(strings.TrimSpace(role)) {
	case RoleAdmin:
		return RoleAdmin
	case RoleInstructor:
		return RoleInstructor
	default:
		return RoleStudent
	}
}

// User represents a platform account.
// Auth and identity plus the profile fields shown on dashboard pages.
type User struct {
	UserID       string    `json:"user_id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"password_hash,omitempty"`
	Role         string    `json:"role"`
	Provider     string    `json:"provider,omitempty"` // "email", "google"
	AvatarURL    string    `json:"avatar_url,omitempty"`
	Bio          string    `json:"bio,omitempty"`
	Phone        string    `json:"phone,omitempty"`
	Verified     bool      `json:"verified"`
	CreatedAt    time.Time `json:"created_at"`
	ModifiedAt   time.Time `json:"modified_at"`
}

// Public returns a copy safe for API responses (no password hash).
func (u *User) Public() *User {
	c := *u
	c.PasswordHash = ""
	return &c
}

// ProfilePatch carries a partial profile update. Nil fields mean "no change";
// there is no way to clear a field by omission.
type ProfilePatch struct {
	Name      *string `json:"name,omitempty"`
	Email     *string `json:"email,omitempty"`
	AvatarURL *string `json:"avatar_url,omitempty"`
	Bio       *string `json:"bio,omitempty"`
	Phone     *string `json:"phone,omitempty"`
}

// Empty reports whether the patch carries no changes.
func (p *ProfilePatch) Empty() bool {
	return p == nil || (p.Name == nil && p.Email == nil && p.AvatarURL == nil && p.Bio == nil && p.Phone == nil)
}

// MergeProfile applies a patch onto a user, field by field. Only provided
// fields overwrite; everything else is preserved. Returns the merged copy
// without mutating the original.
func MergeProfile(u *User, patch *ProfilePatch) *User {
	merged := *u
	if patch == nil {
		return &merged
	}
	if patch.Name != nil {
		merged.Name = *patch.Name
	}
	if patch.Email != nil {
		merged.Email = *patch.Email
	}
	if patch.AvatarURL != nil {
		merged.AvatarURL = *patch.AvatarURL
	}
	if patch.Bio != nil {
		merged.Bio = *patch.Bio
	}
	if patch.Phone != nil {
		merged.Phone = *patch.Phone
	}
	return &merged
}
