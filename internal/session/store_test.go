package session

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmaguire/rampart/internal/models"
)

func TestFileStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	store := NewFileStore(path, nil)

	_, ok := store.Token()
	assert.False(t, ok)

	store.SetToken("tok-abc")
	store.SetUser(&models.User{UserID: "u1", Email: "a@example.com", Role: models.RoleAdmin})

	// A fresh store over the same path sees the persisted session.
	reopened := NewFileStore(path, nil)
	token, ok := reopened.Token()
	require.True(t, ok)
	assert.Equal(t, "tok-abc", token)

	user, ok := reopened.User()
	require.True(t, ok)
	assert.Equal(t, models.RoleAdmin, user.Role)
}

func TestFileStoreClear(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	store := NewFileStore(path, nil)
	store.SetToken("tok")
	store.SetUser(&models.User{UserID: "u1"})

	store.Clear()

	_, ok := store.Token()
	assert.False(t, ok)
	_, ok = store.User()
	assert.False(t, ok)

	// Clearing again is harmless.
	store.Clear()
}

func TestFileStoreCorruptFileFailsOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0600))

	store := NewFileStore(path, nil)
	_, ok := store.Token()
	assert.False(t, ok)
	_, ok = store.User()
	assert.False(t, ok)

	// Writing through a corrupt file starts fresh.
	store.SetToken("tok")
	token, ok := store.Token()
	require.True(t, ok)
	assert.Equal(t, "tok", token)
}

func TestFileStoreCreatesParentDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "session.json")
	store := NewFileStore(path, nil)
	store.SetToken("tok")

	token, ok := store.Token()
	require.True(t, ok)
	assert.Equal(t, "tok", token)
}
