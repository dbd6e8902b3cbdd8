// Package app wires configuration, storage, clients, and services into a
// single application core shared by the server and CLI entry points.
package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dmaguire/rampart/internal/clients/gemini"
	"github.com/dmaguire/rampart/internal/common"
	"github.com/dmaguire/rampart/internal/interfaces"
	"github.com/dmaguire/rampart/internal/services/activity"
	"github.com/dmaguire/rampart/internal/services/analytics"
	"github.com/dmaguire/rampart/internal/services/blog"
	"github.com/dmaguire/rampart/internal/services/catalog"
	"github.com/dmaguire/rampart/internal/services/content"
	"github.com/dmaguire/rampart/internal/services/otp"
	"github.com/dmaguire/rampart/internal/storage"
)

// App holds all initialized services, clients, and shared infrastructure.
type App struct {
	Config           *common.Config
	Logger           *common.Logger
	Storage          interfaces.StorageManager
	GeminiClient     interfaces.GeminiClient
	CatalogService   interfaces.CatalogService
	ContentService   interfaces.ContentService
	BlogService      interfaces.BlogService
	AnalyticsService interfaces.AnalyticsService
	OTPService       interfaces.OTPService
	ActivityHub      *activity.Hub
	Activity         *activity.Recorder
	StartupTime      time.Time
}

// getBinaryDir returns the directory containing the executable.
func getBinaryDir() string {
	exe, err := os.Executable()
	if err != nil {
		return "."
	}
	return filepath.Dir(exe)
}

// NewApp initializes storage, clients, and services.
// configPath may be empty, in which case the default resolution logic is used.
func NewApp(configPath string) (*App, error) {
	startupStart := time.Now()

	common.LoadVersionFromFile()

	binDir := getBinaryDir()

	// Load configuration - check provided path, RAMPART_CONFIG, then binary dir, then fallback
	if configPath == "" {
		configPath = os.Getenv("RAMPART_CONFIG")
	}
	if configPath == "" {
		configPath = filepath.Join(binDir, "rampart.toml")
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			configPath = "config/rampart.toml" // fallback for development
		}
	}

	config, err := common.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	// Resolve relative storage paths to the binary directory
	if config.Storage.Internal.Path != "" && !filepath.IsAbs(config.Storage.Internal.Path) {
		config.Storage.Internal.Path = filepath.Join(binDir, config.Storage.Internal.Path)
	}
	if config.Storage.Content.Path != "" && !filepath.IsAbs(config.Storage.Content.Path) {
		config.Storage.Content.Path = filepath.Join(binDir, config.Storage.Content.Path)
	}
	if config.Logging.FilePath != "" && !filepath.IsAbs(config.Logging.FilePath) {
		config.Logging.FilePath = filepath.Join(binDir, config.Logging.FilePath)
	}

	logger := common.NewLoggerFromConfig(config.Logging)

	storageManager, err := storage.NewManager(logger, config)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	ctx := context.Background()

	var geminiClient *gemini.Client
	if config.Clients.Gemini.APIKey != "" {
		geminiClient, err = gemini.NewClient(ctx, config.Clients.Gemini.APIKey,
			gemini.WithLogger(logger),
			gemini.WithModel(config.Clients.Gemini.Model),
		)
		if err != nil {
			logger.Warn().Err(err).Msg("Failed to initialize Gemini client - excerpt generation will be unavailable")
		}
	}

	// Keep the interface nil when the client is absent so services can
	// skip excerpt generation cleanly.
	var geminiAPI interfaces.GeminiClient
	if geminiClient != nil {
		geminiAPI = geminiClient
	}

	hub := activity.NewHub(logger)
	go hub.Run()
	recorder := activity.NewRecorder(storageManager.ActivityStore(), hub, logger)

	catalogService := catalog.NewService(storageManager, recorder, logger)
	contentService := content.NewService(storageManager, logger)
	blogService := blog.NewService(storageManager, geminiAPI, logger)
	analyticsService := analytics.NewService(storageManager, logger)
	otpService := otp.NewService(storageManager.OTPStore(), otp.NewLogSender(logger), &config.Auth.OTP, logger)

	a := &App{
		Config:           config,
		Logger:           logger,
		Storage:          storageManager,
		GeminiClient:     geminiAPI,
		CatalogService:   catalogService,
		ContentService:   contentService,
		BlogService:      blogService,
		AnalyticsService: analyticsService,
		OTPService:       otpService,
		ActivityHub:      hub,
		Activity:         recorder,
		StartupTime:      startupStart,
	}

	logger.Info().Dur("startup", time.Since(startupStart)).Msg("App initialized")

	return a, nil
}

// Close releases all resources held by the App.
// Shutdown order: stop the activity hub, close storage.
func (a *App) Close() {
	if a.ActivityHub != nil {
		a.ActivityHub.Stop()
		a.ActivityHub = nil
	}
	if a.Storage != nil {
		a.Storage.Close()
		a.Storage = nil
	}
}
