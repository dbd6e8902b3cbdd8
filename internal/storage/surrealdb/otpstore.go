package surrealdb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/surrealdb/surrealdb.go"
	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"

	"github.com/dmaguire/rampart/internal/common"
	"github.com/dmaguire/rampart/internal/interfaces"
	"github.com/dmaguire/rampart/internal/models"
)

// OTPStore implements interfaces.OTPStore on SurrealDB.
type OTPStore struct {
	db     *surrealdb.DB
	logger *common.Logger
}

func NewOTPStore(db *surrealdb.DB, logger *common.Logger) *OTPStore {
	return &OTPStore{
		db:     db,
		logger: logger,
	}
}

func (s *OTPStore) SaveChallenge(ctx context.Context, challenge *models.OTPChallenge) error {
	if challenge.CreatedAt.IsZero() {
		challenge.CreatedAt = time.Now()
	}

	sql := "UPSERT type::record('otp_challenge', $id) CONTENT $challenge"
	vars := map[string]any{"id": challenge.ChallengeID, "challenge": challenge}

	for attempt := 1; attempt <= 3; attempt++ {
		_, err := surrealdb.Query[[]models.OTPChallenge](ctx, s.db, sql, vars)
		if err == nil {
			return nil
		}
		if attempt == 3 {
			return fmt.Errorf("failed to save challenge after retries: %w", err)
		}
	}
	return nil
}

func (s *OTPStore) GetChallenge(ctx context.Context, challengeID string) (*models.OTPChallenge, error) {
	challenge, err := surrealdb.Select[models.OTPChallenge](ctx, s.db, surrealmodels.NewRecordID("otp_challenge", challengeID))
	if err != nil {
		return nil, fmt.Errorf("failed to select challenge: %w", err)
	}
	if challenge == nil {
		return nil, errors.New("challenge not found")
	}
	return challenge, nil
}

func (s *OTPStore) GetActiveChallenge(ctx context.Context, email, purpose string) (*models.OTPChallenge, error) {
	sql := `SELECT * FROM otp_challenge
		WHERE email = $email AND purpose = $purpose AND used = false AND expires_at > $now
		ORDER BY created_at DESC LIMIT 1`
	vars := map[string]any{
		"email":   email,
		"purpose": purpose,
		"now":     time.Now(),
	}

	results, err := surrealdb.Query[[]models.OTPChallenge](ctx, s.db, sql, vars)
	if err != nil {
		return nil, fmt.Errorf("failed to query active challenge: %w", err)
	}
	if results != nil && len(*results) > 0 && len((*results)[0].Result) > 0 {
		return &(*results)[0].Result[0], nil
	}
	return nil, errors.New("challenge not found")
}

func (s *OTPStore) PurgeExpired(ctx context.Context, before time.Time) (int, error) {
	sql := "DELETE otp_challenge WHERE expires_at < $before RETURN BEFORE"
	vars := map[string]any{"before": before}

	results, err := surrealdb.Query[[]models.OTPChallenge](ctx, s.db, sql, vars)
	if err != nil {
		return 0, fmt.Errorf("failed to purge expired challenges: %w", err)
	}
	count := 0
	if results != nil && len(*results) > 0 {
		count = len((*results)[0].Result)
	}
	return count, nil
}

// Compile-time check
var _ interfaces.OTPStore = (*OTPStore)(nil)

// ActivityStore implements interfaces.ActivityStore on SurrealDB.
type ActivityStore struct {
	db     *surrealdb.DB
	logger *common.Logger
}

func NewActivityStore(db *surrealdb.DB, logger *common.Logger) *ActivityStore {
	return &ActivityStore{
		db:     db,
		logger: logger,
	}
}

func (s *ActivityStore) Record(ctx context.Context, event *models.ActivityEvent) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	sql := "UPSERT type::record('activity', $id) CONTENT $event"
	vars := map[string]any{"id": event.EventID, "event": event}

	if _, err := surrealdb.Query[[]models.ActivityEvent](ctx, s.db, sql, vars); err != nil {
		return fmt.Errorf("failed to record activity: %w", err)
	}
	return nil
}

func (s *ActivityStore) List(ctx context.Context, opts interfaces.ActivityListOptions) ([]*models.ActivityEvent, error) {
	sql := "SELECT * FROM activity WHERE 1 = 1"
	vars := map[string]any{}

	if opts.Type != "" {
		sql += " AND type = $type"
		vars["type"] = opts.Type
	}
	if opts.Since != nil {
		sql += " AND timestamp >= $since"
		vars["since"] = *opts.Since
	}
	sql += " ORDER BY timestamp DESC"
	if opts.Limit > 0 {
		sql += fmt.Sprintf(" LIMIT %d", opts.Limit)
	}

	results, err := surrealdb.Query[[]models.ActivityEvent](ctx, s.db, sql, vars)
	if err != nil {
		return nil, fmt.Errorf("failed to list activity: %w", err)
	}
	if results != nil && len(*results) > 0 {
		var mapped []*models.ActivityEvent
		for i := range (*results)[0].Result {
			mapped = append(mapped, &(*results)[0].Result[i])
		}
		return mapped, nil
	}
	return nil, nil
}

// Compile-time check
var _ interfaces.ActivityStore = (*ActivityStore)(nil)
