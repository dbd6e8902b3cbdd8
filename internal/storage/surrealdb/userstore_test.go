package surrealdb

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmaguire/rampart/internal/models"
)

func TestUserStoreSaveAndGet(t *testing.T) {
	db := testDB(t)
	store := NewUserStore(db, testLogger())
	ctx := context.Background()

	user := &models.User{
		UserID:       "user1",
		Email:        "dana@example.com",
		Name:         "Dana",
		PasswordHash: "$2a$10$abcdefghijklmnopqrstuv",
		Role:         models.RoleStudent,
		Provider:     "email",
	}
	require.NoError(t, store.SaveUser(ctx, user))

	got, err := store.GetUser(ctx, "user1")
	require.NoError(t, err)
	assert.Equal(t, "dana@example.com", got.Email)
	assert.Equal(t, models.RoleStudent, got.Role)
	assert.False(t, got.CreatedAt.IsZero())
}

func TestUserStoreGetByEmail(t *testing.T) {
	db := testDB(t)
	store := NewUserStore(db, testLogger())
	ctx := context.Background()

	require.NoError(t, store.SaveUser(ctx, &models.User{
		UserID: "user2",
		Email:  "kim@example.com",
		Role:   models.RoleInstructor,
	}))

	got, err := store.GetUserByEmail(ctx, "kim@example.com")
	require.NoError(t, err)
	assert.Equal(t, "user2", got.UserID)

	_, err = store.GetUserByEmail(ctx, "nobody@example.com")
	assert.Error(t, err)
}

func TestUserStoreUpdateOverwrites(t *testing.T) {
	db := testDB(t)
	store := NewUserStore(db, testLogger())
	ctx := context.Background()

	user := &models.User{UserID: "user3", Email: "a@example.com", Bio: "old"}
	require.NoError(t, store.SaveUser(ctx, user))

	user.Bio = "new"
	require.NoError(t, store.SaveUser(ctx, user))

	got, err := store.GetUser(ctx, "user3")
	require.NoError(t, err)
	assert.Equal(t, "new", got.Bio)
}

func TestUserStoreDelete(t *testing.T) {
	db := testDB(t)
	store := NewUserStore(db, testLogger())
	ctx := context.Background()

	require.NoError(t, store.SaveUser(ctx, &models.User{UserID: "user4", Email: "x@example.com"}))
	require.NoError(t, store.DeleteUser(ctx, "user4"))

	_, err := store.GetUser(ctx, "user4")
	assert.Error(t, err)

	// Deleting a missing user is not an error.
	assert.NoError(t, store.DeleteUser(ctx, "user4"))
}

func TestUserStoreKVRoundTrip(t *testing.T) {
	db := testDB(t)
	store := NewUserStore(db, testLogger())
	ctx := context.Background()

	require.NoError(t, store.SetUserKV(ctx, "user5", "theme", "dark"))
	require.NoError(t, store.SetUserKV(ctx, "user5", "sidebar", "collapsed"))

	kv, err := store.GetUserKV(ctx, "user5", "theme")
	require.NoError(t, err)
	assert.Equal(t, "dark", kv.Value)

	all, err := store.ListUserKV(ctx, "user5")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	require.NoError(t, store.DeleteUserKV(ctx, "user5", "theme"))
	_, err = store.GetUserKV(ctx, "user5", "theme")
	assert.Error(t, err)
}
