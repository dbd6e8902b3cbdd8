package models

import "time"

// UserKeyValue represents a per-user preference key-value pair
// (dashboard layout, notification settings, theme).
type UserKeyValue struct {
	UserID   string    `json:"user_id"`
	Key      string    `json:"key"`
	Value    string    `json:"value"`
	Version  int       `json:"version"`
	DateTime time.Time `json:"datetime"`
}
