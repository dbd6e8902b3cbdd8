package session

import (
	"context"
	"sync/atomic"

	"github.com/dmaguire/rampart/internal/common"
	"github.com/dmaguire/rampart/internal/models"
)

// Verifier decides at startup whether a persisted session is still
// trustworthy. It runs exactly once per process; consumers can gate
// role-protected work on Loading().
type Verifier struct {
	api     AuthAPI
	store   TokenStore
	logger  *common.Logger
	loading atomic.Bool
	done    atomic.Bool
}

// NewVerifier creates a startup session verifier.
func NewVerifier(api AuthAPI, store TokenStore, logger *common.Logger) *Verifier {
	if logger == nil {
		logger = common.NewSilentLogger()
	}
	v := &Verifier{api: api, store: store, logger: logger}
	v.loading.Store(true)
	return v
}

// Loading reports whether the startup check is still pending.
func (v *Verifier) Loading() bool {
	return v.loading.Load()
}

// Verify checks the persisted token against the backend. On success it
// returns the persisted user. On a missing token, a rejection, or any
// transport failure the store is cleared silently and (nil, false) is
// returned: an expired session presents as simply not being logged in.
// A second call returns the logged-out result without re-checking.
func (v *Verifier) Verify(ctx context.Context) (*models.User, bool) {
	if !v.done.CompareAndSwap(false, true) {
		return nil, false
	}
	defer v.loading.Store(false)

	token, ok := v.store.Token()
	if !ok {
		return nil, false
	}

	if err := v.api.VerifyToken(ctx, token); err != nil {
		v.logger.Debug().Err(err).Msg("persisted session rejected, clearing")
		v.store.Clear()
		return nil, false
	}

	user, ok := v.store.User()
	if !ok {
		// Token verified but no profile alongside it. Treat as dead.
		v.store.Clear()
		return nil, false
	}

	v.logger.Debug().Str("user_id", user.UserID).Msg("persisted session restored")
	return user, true
}
