package session

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmaguire/rampart/internal/models"
)

func TestVerifyRestoresValidSession(t *testing.T) {
	store := &memStore{}
	store.SetToken("tok")
	store.SetUser(&models.User{UserID: "u1", Role: models.RoleStudent})
	api := &fakeAPI{}

	v := NewVerifier(api, store, nil)
	assert.True(t, v.Loading())

	user, ok := v.Verify(context.Background())
	require.True(t, ok)
	assert.Equal(t, "u1", user.UserID)
	assert.False(t, v.Loading())
	assert.Equal(t, 1, api.verifyCalls)
}

func TestVerifyRejectionClearsSilently(t *testing.T) {
	store := &memStore{}
	store.SetToken("tok")
	store.SetUser(&models.User{UserID: "u1"})
	api := &fakeAPI{verifyErr: errors.New("401 unauthorized")}

	v := NewVerifier(api, store, nil)
	_, ok := v.Verify(context.Background())
	assert.False(t, ok)

	_, hasToken := store.Token()
	assert.False(t, hasToken)
	_, hasUser := store.User()
	assert.False(t, hasUser)
}

func TestVerifyNoPersistedToken(t *testing.T) {
	api := &fakeAPI{}
	v := NewVerifier(api, &memStore{}, nil)

	_, ok := v.Verify(context.Background())
	assert.False(t, ok)
	assert.Zero(t, api.verifyCalls, "no token means no network call")
}

func TestVerifyTokenWithoutProfileClears(t *testing.T) {
	store := &memStore{}
	store.SetToken("tok")
	api := &fakeAPI{}

	v := NewVerifier(api, store, nil)
	_, ok := v.Verify(context.Background())
	assert.False(t, ok)

	_, hasToken := store.Token()
	assert.False(t, hasToken)
}

func TestVerifyRunsOnce(t *testing.T) {
	store := &memStore{}
	store.SetToken("tok")
	store.SetUser(&models.User{UserID: "u1"})
	api := &fakeAPI{}

	v := NewVerifier(api, store, nil)
	_, ok := v.Verify(context.Background())
	require.True(t, ok)

	_, ok = v.Verify(context.Background())
	assert.False(t, ok)
	assert.Equal(t, 1, api.verifyCalls)
}
