package storage

import (
	"fmt"

	"github.com/dmaguire/rampart/internal/common"
	"github.com/dmaguire/rampart/internal/interfaces"
	"github.com/dmaguire/rampart/internal/storage/surrealdb"
)

// Backend mode constants.
const (
	ModeFile    = "file"
	ModeSurreal = "surreal"
)

// NewManager creates a StorageManager based on the configured mode.
// Supported modes: "file" (default), "surreal".
func NewManager(logger *common.Logger, config *common.Config) (interfaces.StorageManager, error) {
	mode := config.Storage.Mode
	if mode == "" {
		mode = ModeFile
	}

	switch mode {
	case ModeFile:
		return NewFileManager(logger, &config.Storage)

	case ModeSurreal:
		return surrealdb.NewManager(logger, config)

	default:
		return nil, fmt.Errorf("unknown storage mode: %s (supported: file, surreal)", mode)
	}
}
