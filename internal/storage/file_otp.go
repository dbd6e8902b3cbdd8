package storage

import (
	"context"
	"encoding/json"
	"path/filepath"
	"sort"
	"time"

	"github.com/dmaguire/rampart/internal/interfaces"
	"github.com/dmaguire/rampart/internal/models"
)

// fileOTPStore implements interfaces.OTPStore over the internal area.
type fileOTPStore struct {
	m *FileManager
}

func (s *fileOTPStore) SaveChallenge(ctx context.Context, challenge *models.OTPChallenge) error {
	if challenge.CreatedAt.IsZero() {
		challenge.CreatedAt = time.Now()
	}
	return writeJSON(jsonPath(s.m.internalPath, "otp", challenge.ChallengeID), challenge)
}

func (s *fileOTPStore) GetChallenge(ctx context.Context, challengeID string) (*models.OTPChallenge, error) {
	var challenge models.OTPChallenge
	if err := readJSON(jsonPath(s.m.internalPath, "otp", challengeID), &challenge); err != nil {
		return nil, err
	}
	return &challenge, nil
}

func (s *fileOTPStore) GetActiveChallenge(ctx context.Context, email, purpose string) (*models.OTPChallenge, error) {
	now := time.Now()
	var active *models.OTPChallenge
	err := listJSON(filepath.Join(s.m.internalPath, "otp"), func(data []byte) error {
		var challenge models.OTPChallenge
		if err := json.Unmarshal(data, &challenge); err != nil {
			return nil
		}
		if challenge.Email != email || challenge.Purpose != purpose {
			return nil
		}
		if challenge.Used || challenge.Expired(now) {
			return nil
		}
		// Newest wins when multiple are live.
		if active == nil || challenge.CreatedAt.After(active.CreatedAt) {
			active = &challenge
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if active == nil {
		return nil, errNotFound
	}
	return active, nil
}

func (s *fileOTPStore) PurgeExpired(ctx context.Context, before time.Time) (int, error) {
	var expired []string
	err := listJSON(filepath.Join(s.m.internalPath, "otp"), func(data []byte) error {
		var challenge models.OTPChallenge
		if err := json.Unmarshal(data, &challenge); err != nil {
			return nil
		}
		if challenge.ExpiresAt.Before(before) {
			expired = append(expired, challenge.ChallengeID)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	for _, id := range expired {
		if err := removeIfExists(jsonPath(s.m.internalPath, "otp", id)); err != nil {
			return 0, err
		}
	}
	return len(expired), nil
}

// fileActivityStore implements interfaces.ActivityStore over the internal area.
type fileActivityStore struct {
	m *FileManager
}

func (s *fileActivityStore) Record(ctx context.Context, event *models.ActivityEvent) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	return writeJSON(jsonPath(s.m.internalPath, "activity", event.EventID), event)
}

func (s *fileActivityStore) List(ctx context.Context, opts interfaces.ActivityListOptions) ([]*models.ActivityEvent, error) {
	var events []*models.ActivityEvent
	err := listJSON(filepath.Join(s.m.internalPath, "activity"), func(data []byte) error {
		var event models.ActivityEvent
		if err := json.Unmarshal(data, &event); err != nil {
			return nil
		}
		if opts.Type != "" && event.Type != opts.Type {
			return nil
		}
		if opts.Since != nil && event.Timestamp.Before(*opts.Since) {
			return nil
		}
		events = append(events, &event)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(events, func(i, j int) bool { return events[i].Timestamp.After(events[j].Timestamp) })
	if opts.Limit > 0 && len(events) > opts.Limit {
		events = events[:opts.Limit]
	}
	return events, nil
}
