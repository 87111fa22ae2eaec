package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"smart-schedule/core/cache"
	"smart-schedule/core/config"
	"smart-schedule/core/constants"
	"smart-schedule/core/database"
	"smart-schedule/core/logger"
	"smart-schedule/core/metrics"
	"smart-schedule/modules/availability"
	availabilityService "smart-schedule/modules/availability/service"
	"smart-schedule/modules/notification"
	notificationService "smart-schedule/modules/notification/service"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// App holds the long-lived dependencies shared by the HTTP server and the CLI.
type App struct {
	Config   *config.Config
	DB       database.Database
	Cache    cache.Cache
	Notifier notificationService.NoSlotsNotifier
}

// Bootstrap loads config and opens every connection the engine needs.
func Bootstrap(configPath string) (*App, error) {
	cfg, err := config.Init(configPath)
	if err != nil {
		return nil, err
	}
	logger.Init(cfg.App.Env, cfg.App.LogLevel)

	db, err := database.InitDB(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}
	app := &App{Config: cfg, DB: db}

	if cfg.Availability.CacheBackend == "redis" {
		redisClient, err := cache.NewRedisCache(cfg.Redis)
		if err != nil {
			app.Close()
			return nil, err
		}
		app.Cache = redisClient
	}

	notifier, err := notification.Init(cfg, db)
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("failed to init notifier: %w", err)
	}
	app.Notifier = notifier

	return app, nil
}

// AvailabilityService builds the engine on top of the app's connections.
func (a *App) AvailabilityService() (availabilityService.AvailabilityService, error) {
	return availability.NewService(a.Config, a.DB, a.Cache, a.Notifier)
}

func (a *App) Close() {
	if a.Notifier != nil {
		if err := a.Notifier.Close(); err != nil {
			logger.Warn("Server:Close:Notifier:Error", "error", err)
		}
	}
	if a.Cache != nil {
		if err := a.Cache.Close(); err != nil {
			logger.Warn("Server:Close:Cache:Error", "error", err)
		}
	}
	if a.DB != nil {
		if err := a.DB.Close(); err != nil {
			logger.Warn("Server:Close:Database:Error", "error", err)
		}
	}
}

// New builds the echo instance with every route registered.
func New(a *App) (*echo.Echo, error) {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:       true,
		LogStatus:    true,
		LogMethod:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			logger.Info("HTTP:Request",
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency", v.Latency,
				"request_id", v.RequestID,
			)
			return nil
		},
	}))

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{})))

	if err := availability.Init(e, a.Config, a.DB, a.Cache, a.Notifier); err != nil {
		return nil, err
	}
	return e, nil
}

// Run starts the HTTP server and blocks until SIGINT or SIGTERM.
func Run() error {
	app, err := Bootstrap(os.Getenv("CONFIG_FILE"))
	if err != nil {
		return err
	}
	defer app.Close()

	e, err := New(app)
	if err != nil {
		return err
	}

	addr := fmt.Sprintf("%s:%d", app.Config.Server.Host, app.Config.Server.Port)
	serverErr := make(chan error, 1)
	go func() {
		logger.Info("Server:Run:Listening", "addr", addr)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case err, ok := <-serverErr:
		if ok {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("Server:Run:ShuttingDown")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), constants.DefaultShutdownTimeout)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}
