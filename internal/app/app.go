package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"changewatch/internal/config"
	"changewatch/internal/handler"
	"changewatch/internal/logger"
	"changewatch/internal/repository/sqlite"
	"changewatch/internal/route"
	"changewatch/internal/service"
	"changewatch/internal/service/notify"
	"changewatch/internal/service/pipeline"
	"changewatch/internal/service/storage"
	"changewatch/internal/service/strategy"
	"changewatch/internal/service/websocket"
	"changewatch/internal/similarity"
)

const shutdownTimeout = 5 * time.Second

// App is the upload server: HTTP surface, comparison worker, live feed and history.
type App struct {
	config      *config.Config
	logger      *logger.Logger
	strategy    similarity.Strategy
	db          *sqlite.DB
	uploadStore *storage.UploadStore
	hubService  *websocket.HubService
	manager     *service.Manager
}

func NewApp(cfg *config.Config, logger *logger.Logger) (*App, error) {
	s, err := strategy.New(cfg, logger)
	if err != nil {
		return nil, err
	}

	db, err := sqlite.New(cfg.DatabasePath)
	if err != nil {
		strategy.Close(s)
		return nil, err
	}

	store := storage.NewUploadStore(cfg, logger)
	if err := store.EnsureDir(); err != nil {
		strategy.Close(s)
		db.Close()
		return nil, err
	}

	hub := websocket.NewHubService(logger)
	p := pipeline.New(s, notify.New(cfg, logger), logger)
	mng := service.NewManager(p, store, hub, sqlite.NewComparisonRepository(db), cfg, logger)

	return &App{
		config:      cfg,
		logger:      logger,
		strategy:    s,
		db:          db,
		uploadStore: store,
		hubService:  hub,
		manager:     mng,
	}, nil
}

// Run serves HTTP until ctx is done, then shuts the server down gracefully.
// It returns only after the UDP listener has exited.
func (a *App) Run(ctx context.Context) error {
	go a.hubService.Run(ctx)

	// Deferred in this order so cancel runs before the wait.
	var ingest sync.WaitGroup
	defer ingest.Wait()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if a.config.UDPPort > 0 {
		ingest.Add(1)
		go func() {
			defer ingest.Done()
			handler.UDPCameraHandler(ctx, a.manager, a.logger, a.config)
		}()
	}

	router := route.SetupRoutes(a.manager, a.config, a.logger)

	fmt.Printf("🚀 Server running on http://localhost:%d\n", a.config.Port)
	fmt.Printf("📁 Uploads: %s (keeping %d)\n", a.uploadStore.Dir(), a.config.RetainImages)
	fmt.Printf("🧮 Strategy: %s (threshold %.2f)\n", a.strategy.Name, a.strategy.Threshold)
	if a.config.SerialPort != "" {
		fmt.Printf("💡 Indicator: %s @ %d baud\n", a.config.SerialPort, a.config.SerialBaud)
	}

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", a.config.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		a.logger.Info("Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	}
}

// Close stops the comparison worker and releases the model and database.
func (a *App) Close() error {
	a.manager.Stop()

	var errs []error
	if err := strategy.Close(a.strategy); err != nil {
		errs = append(errs, fmt.Errorf("failed to release strategy: %w", err))
	}
	if err := a.db.Close(); err != nil {
		errs = append(errs, fmt.Errorf("failed to close database: %w", err))
	}
	return errors.Join(errs...)
}
