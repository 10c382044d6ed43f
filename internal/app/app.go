package app

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"occurrences/internal/config"
	"occurrences/internal/logger"
	"occurrences/internal/model"
	"occurrences/internal/repository"
	"occurrences/internal/repository/rediskv"
	"occurrences/internal/repository/sqlite"
	"occurrences/internal/routes"
	"occurrences/internal/services"
	"occurrences/internal/services/capture"
	"occurrences/internal/services/geo"
	"occurrences/internal/services/imaging"
	"occurrences/internal/services/notify"
	"occurrences/internal/services/queue"
	"occurrences/internal/services/store"
	"occurrences/internal/services/websocket"
)

type App struct {
	config      *config.Config
	logger      *logger.Logger
	kv          repository.KeyValueStore
	hubService  *websocket.HubService
	manager     *services.Manager
	coordinator *capture.Coordinator
}

func NewApp() (*App, error) {
	cfg := config.Load()
	l := logger.NewLogger(cfg)

	kv, err := OpenStorage(context.Background(), cfg)
	if err != nil {
		return nil, err
	}

	hub := websocket.NewHubService(l)
	notifications := notify.NewService(hub, l, cfg.NotificationDuration)

	records := store.NewRecordStore(kv, notifications, l)
	offline := queue.NewPersistentQueue(kv, nil, notifications, l)
	mng := services.NewManager(records, offline, notifications, hub, kv, l)

	devices := capture.NewGocvManager(cfg.CaptureDevices, cfg.JPEGQuality, l)
	coordinator := capture.NewCoordinator(devices, mng, records, notifications, l, capture.Options{
		GeolocationTimeout: cfg.GeolocationTimeout,
		Imaging: imaging.Options{
			MaxDimension: cfg.ImageMaxDimension,
			Quality:      cfg.JPEGQuality,
		},
		Locator: staticLocator(cfg),
	})

	return &App{
		config:      cfg,
		logger:      l,
		kv:          kv,
		hubService:  hub,
		manager:     mng,
		coordinator: coordinator,
	}, nil
}

// OpenStorage returns the key/value backend selected by StorageBackend.
func OpenStorage(ctx context.Context, cfg *config.Config) (repository.KeyValueStore, error) {
	switch cfg.StorageBackend {
	case "redis":
		return rediskv.New(ctx, cfg.RedisAddress, cfg.RedisPassword, cfg.RedisDB, cfg.RedisPrefix)
	case "sqlite", "":
		if err := os.MkdirAll(filepath.Dir(cfg.DatabasePath), 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
		db, err := sqlite.New(cfg.DatabasePath)
		if err != nil {
			return nil, err
		}
		return sqlite.NewKVRepository(db), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
	}
}

// staticLocator is used when the browser sends no position of its own.
func staticLocator(cfg *config.Config) geo.Provider {
	if cfg.StaticLatitude == nil || cfg.StaticLongitude == nil {
		return geo.Static{}
	}
	return geo.Static{Position: &model.Coordinates{
		Latitude:  *cfg.StaticLatitude,
		Longitude: *cfg.StaticLongitude,
	}}
}

func (a *App) Run() error {
	ctx := context.Background()

	// Start background services
	go a.hubService.Run()
	a.manager.Start(ctx)
	if err := a.coordinator.Start(ctx); err != nil {
		a.logger.Warning("Capture disabled until a camera is available: %v", err)
	}

	// Setup routes
	router := routes.SetupRoutes(a.manager, a.coordinator, a.hubService, a.config, a.logger)

	fmt.Printf("🚀 Occurrence Reporting Server\n")
	fmt.Printf("📍 URL: http://localhost:%d\n", a.config.Port)
	fmt.Printf("🔑 Password: %s\n", a.config.Password)
	fmt.Printf("💾 Storage: %s\n", a.config.StorageBackend)
	fmt.Printf("📷 Cameras: %v\n", a.config.CaptureDevices)
	fmt.Printf("📋 %s\n", a.manager)

	return http.ListenAndServe(fmt.Sprintf(":%d", a.config.Port), router)
}

// Close releases the camera, the live update hub and the storage backend.
func (a *App) Close() error {
	a.coordinator.Stop()
	a.hubService.Stop()
	return a.kv.Close()
}
