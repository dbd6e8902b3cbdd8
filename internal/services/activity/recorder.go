package activity

import (
	"context"

	"github.com/google/uuid"

	"github.com/dmaguire/rampart/internal/common"
	"github.com/dmaguire/rampart/internal/interfaces"
	"github.com/dmaguire/rampart/internal/models"
)

// Recorder persists activity events and fans them out to the live feed.
// Recording is best-effort: a storage failure is logged, never propagated,
// so event emission can't fail a user-facing operation.
type Recorder struct {
	store  interfaces.ActivityStore
	hub    *Hub
	logger *common.Logger
}

// NewRecorder creates an activity recorder. Hub may be nil when no live
// feed is running (CLI, tests).
func NewRecorder(store interfaces.ActivityStore, hub *Hub, logger *common.Logger) *Recorder {
	return &Recorder{store: store, hub: hub, logger: logger}
}

// Record stores an event and broadcasts it.
func (r *Recorder) Record(ctx context.Context, eventType, userID, subject string) {
	event := models.ActivityEvent{
		EventID: uuid.New().String(),
		Type:    eventType,
		UserID:  userID,
		Subject: subject,
	}

	if err := r.store.Record(ctx, &event); err != nil {
		r.logger.Warn().Err(err).Str("type", eventType).Msg("failed to record activity event")
		return
	}
	if r.hub != nil {
		r.hub.Broadcast(event)
	}
}

// Recent returns the latest events for the admin feed backlog.
func (r *Recorder) Recent(ctx context.Context, limit int) ([]*models.ActivityEvent, error) {
	if limit <= 0 {
		limit = 50
	}
	return r.store.List(ctx, interfaces.ActivityListOptions{Limit: limit})
}
