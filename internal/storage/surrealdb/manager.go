// Package surrealdb implements the storage interfaces on SurrealDB.
package surrealdb

import (
	"context"
	"fmt"

	"github.com/surrealdb/surrealdb.go"

	"github.com/dmaguire/rampart/internal/common"
	"github.com/dmaguire/rampart/internal/interfaces"
)

// Manager implements interfaces.StorageManager using SurrealDB.
type Manager struct {
	db     *surrealdb.DB
	logger *common.Logger

	userStore     *UserStore
	contentStore  *ContentStore
	blogStore     *BlogStore
	otpStore      *OTPStore
	activityStore *ActivityStore
	fileStore     *FileStore
}

// NewManager creates a new StorageManager connected to SurrealDB.
func NewManager(logger *common.Logger, config *common.Config) (*Manager, error) {
	ctx := context.Background()

	db, err := surrealdb.New(config.Storage.Address)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to SurrealDB: %w", err)
	}

	if _, err := db.SignIn(ctx, map[string]interface{}{
		"user": config.Storage.Username,
		"pass": config.Storage.Password,
	}); err != nil {
		return nil, fmt.Errorf("failed to sign in to SurrealDB: %w", err)
	}

	if err := db.Use(ctx, config.Storage.Namespace, config.Storage.Database); err != nil {
		return nil, fmt.Errorf("failed to select namespace/database: %w", err)
	}

	// Define tables up front (SurrealDB v3 errors on querying non-existent tables)
	tables := []string{"user", "user_kv", "course", "enrollment", "material", "post", "otp_challenge", "activity", "files"}
	for _, table := range tables {
		sql := fmt.Sprintf("DEFINE TABLE IF NOT EXISTS %s SCHEMALESS", table)
		if _, err := surrealdb.Query[any](ctx, db, sql, nil); err != nil {
			return nil, fmt.Errorf("failed to define table %s: %w", table, err)
		}
	}

	m := &Manager{
		db:     db,
		logger: logger,
	}
	m.userStore = NewUserStore(db, logger)
	m.contentStore = NewContentStore(db, logger)
	m.blogStore = NewBlogStore(db, logger)
	m.otpStore = NewOTPStore(db, logger)
	m.activityStore = NewActivityStore(db, logger)
	m.fileStore = NewFileStore(db, logger)

	logger.Info().
		Str("address", config.Storage.Address).
		Str("namespace", config.Storage.Namespace).
		Str("database", config.Storage.Database).
		Msg("SurrealDB storage manager initialized")

	return m, nil
}

func (m *Manager) UserStore() interfaces.UserStore {
	return m.userStore
}

func (m *Manager) CourseStore() interfaces.CourseStore {
	return m.contentStore
}

func (m *Manager) BlogStore() interfaces.BlogStore {
	return m.blogStore
}

func (m *Manager) OTPStore() interfaces.OTPStore {
	return m.otpStore
}

func (m *Manager) ActivityStore() interfaces.ActivityStore {
	return m.activityStore
}

func (m *Manager) FileStore() interfaces.FileStore {
	return m.fileStore
}

func (m *Manager) DataPath() string {
	return ""
}

// WriteRaw stores binary data (e.g. charts) in the database via FileStore.
func (m *Manager) WriteRaw(subdir, key string, data []byte) error {
	return m.fileStore.SaveFile(context.Background(), "raw", subdir+"/"+key, data, "application/octet-stream")
}

func (m *Manager) Close() error {
	m.db.Close(context.Background())
	return nil
}

// Compile-time check
var _ interfaces.StorageManager = (*Manager)(nil)
