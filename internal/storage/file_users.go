package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"sort"
	"time"

	"github.com/dmaguire/rampart/internal/models"
)

// fileUserStore implements interfaces.UserStore over the internal area.
type fileUserStore struct {
	m *FileManager
}

func (s *fileUserStore) GetUser(ctx context.Context, userID string) (*models.User, error) {
	var user models.User
	if err := readJSON(jsonPath(s.m.internalPath, "users", userID), &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *fileUserStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var found *models.User
	err := listJSON(filepath.Join(s.m.internalPath, "users"), func(data []byte) error {
		var user models.User
		if err := json.Unmarshal(data, &user); err != nil {
			return nil
		}
		if user.Email == email {
			found = &user
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if found == nil {
		return nil, errNotFound
	}
	return found, nil
}

func (s *fileUserStore) SaveUser(ctx context.Context, user *models.User) error {
	if user.UserID == "" {
		return fmt.Errorf("user ID is required")
	}
	user.ModifiedAt = time.Now()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = user.ModifiedAt
	}
	return writeJSON(jsonPath(s.m.internalPath, "users", user.UserID), user)
}

func (s *fileUserStore) DeleteUser(ctx context.Context, userID string) error {
	return removeIfExists(jsonPath(s.m.internalPath, "users", userID))
}

func (s *fileUserStore) ListUsers(ctx context.Context) ([]*models.User, error) {
	var users []*models.User
	err := listJSON(filepath.Join(s.m.internalPath, "users"), func(data []byte) error {
		var user models.User
		if err := json.Unmarshal(data, &user); err != nil {
			return nil
		}
		users = append(users, &user)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(users, func(i, j int) bool { return users[i].CreatedAt.Before(users[j].CreatedAt) })
	return users, nil
}

func kvKey(userID, key string) string {
	return userID + "_" + key
}

func (s *fileUserStore) GetUserKV(ctx context.Context, userID, key string) (*models.UserKeyValue, error) {
	var kv models.UserKeyValue
	if err := readJSON(jsonPath(s.m.internalPath, "user_kv", kvKey(userID, key)), &kv); err != nil {
		return nil, err
	}
	return &kv, nil
}

func (s *fileUserStore) SetUserKV(ctx context.Context, userID, key, value string) error {
	kv := models.UserKeyValue{
		UserID:   userID,
		Key:      key,
		Value:    value,
		DateTime: time.Now(),
	}
	if prev, err := s.GetUserKV(ctx, userID, key); err == nil {
		kv.Version = prev.Version + 1
	}
	return writeJSON(jsonPath(s.m.internalPath, "user_kv", kvKey(userID, key)), &kv)
}

func (s *fileUserStore) DeleteUserKV(ctx context.Context, userID, key string) error {
	return removeIfExists(jsonPath(s.m.internalPath, "user_kv", kvKey(userID, key)))
}

func (s *fileUserStore) ListUserKV(ctx context.Context, userID string) ([]*models.UserKeyValue, error) {
	var kvs []*models.UserKeyValue
	err := listJSON(filepath.Join(s.m.internalPath, "user_kv"), func(data []byte) error {
		var kv models.UserKeyValue
		if err := json.Unmarshal(data, &kv); err != nil {
			return nil
		}
		if kv.UserID == userID {
			kvs = append(kvs, &kv)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return kvs, nil
}

func (s *fileUserStore) Close() error {
	return nil
}
