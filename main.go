package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/onurcolak/telegram-webhook-relay/environments"
	"github.com/onurcolak/telegram-webhook-relay/handlers"
	"github.com/onurcolak/telegram-webhook-relay/internal/auth"
	"github.com/onurcolak/telegram-webhook-relay/internal/dispatcher"
	"github.com/onurcolak/telegram-webhook-relay/internal/domain"
	"github.com/onurcolak/telegram-webhook-relay/internal/listener"
	"github.com/onurcolak/telegram-webhook-relay/internal/middlewares"
	"github.com/onurcolak/telegram-webhook-relay/internal/provider"
	"github.com/onurcolak/telegram-webhook-relay/internal/repository"
	"github.com/onurcolak/telegram-webhook-relay/internal/session"
	"github.com/onurcolak/telegram-webhook-relay/internal/status"
	"github.com/onurcolak/telegram-webhook-relay/pkg/database"
	"github.com/onurcolak/telegram-webhook-relay/pkg/logger"
	"github.com/onurcolak/telegram-webhook-relay/pkg/redis"
	"github.com/onurcolak/telegram-webhook-relay/pkg/validator"
	"github.com/onurcolak/telegram-webhook-relay/pkg/webhook"
	"github.com/onurcolak/telegram-webhook-relay/routes"

	_ "github.com/onurcolak/telegram-webhook-relay/docs" // swagger docs
)

const (
	connectTimeout    = 30 * time.Second
	reconnectInterval = 10 * time.Second
	drainTimeout      = 5 * time.Second
)

// @title Telegram Webhook Relay API
// @version 1.0
// @description Relays new Telegram channel messages to a webhook

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /

// @schemes http https
func main() {
	cfg := environments.Load()

	logger.Init(cfg.Log.Level, cfg.Log.Format)
	defer logger.Sync()

	if err := cfg.Validate(); err != nil {
		logger.Fatalf("%v", err)
	}

	logger.Infof("Starting Telegram Webhook Relay for channel %d...", cfg.Telegram.ChannelID)

	// Optional delivery log (and sql session backend)
	var db *sqlx.DB
	if cfg.Database.Enabled {
		var err error
		db, err = database.Open(cfg.Database)
		if err != nil {
			logger.Fatalf("Failed to connect to database: %v", err)
		}

		if err := database.RunMigrations(db); err != nil {
			logger.Fatalf("Failed to run migrations: %v", err)
		}
	}

	// Optional redis: dedupe, outcome cache (and redis session backend)
	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		var err error
		redisClient, err = redis.NewRedisClient(cfg.Redis)
		if err != nil {
			if cfg.Session.Storage == environments.SessionStorageRedis {
				logger.Fatalf("Redis is required for session storage: %v", err)
			}
			logger.Warnf("Redis not available, dedupe and caching disabled: %v", err)
			redisClient = nil
		}
	}

	sessionBackend, err := session.NewBackend(cfg.Session, db, redisClient)
	if err != nil {
		logger.Fatalf("Failed to set up session storage: %v", err)
	}
	logger.Infof("Session %q stored in %s backend", cfg.Session.Name, sessionBackend.Name())

	sessionStore := session.NewStore(sessionBackend)

	tgClient := provider.NewTelegramClient(provider.TelegramConfig{
		AppID:          cfg.Telegram.AppID,
		AppHash:        cfg.Telegram.AppHash,
		SessionStorage: sessionStore,
		Logger:         logger.Named("telegram"),
	})

	webhookClient := webhook.NewWebhookClient(cfg.Webhook)
	logger.Infof("Webhook configured: %s", webhookClient.GetURL())

	opts := []dispatcher.Option{}
	if db != nil {
		opts = append(opts, dispatcher.WithRepository(repository.NewDeliveryRepository(db)))
	}
	if redisClient != nil {
		opts = append(opts, dispatcher.WithCache(redisClient))
	}
	if cfg.Alert.WebhookURL != "" && cfg.Alert.FailureThreshold > 0 {
		opts = append(opts, dispatcher.WithAlerts(webhook.NewAlertClient(cfg.Alert.WebhookURL, cfg.Webhook.Timeout)))
	}

	relay := dispatcher.New(webhookClient, dispatcher.Config{
		ChannelID:      cfg.Telegram.ChannelID,
		AlertThreshold: cfg.Alert.FailureThreshold,
	}, opts...)
	if !relay.HasDeliveryLog() {
		logger.Infof("Delivery log disabled, failed deliveries are only logged")
	}

	channelListener := listener.New(tgClient, cfg.Telegram.ChannelID, relay)
	machine := auth.NewMachine(tgClient, channelListener)
	reporter := status.NewReporter(tgClient, machine, channelListener, cfg.Telegram.ChannelID, webhookClient.IsConfigured())

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go connect(ctx, tgClient, sessionStore, machine, reconnectInterval)

	loginHandler := handlers.NewLoginHandler(machine, reporter, cfg.Telegram.ChannelID)
	healthHandler := handlers.NewHealthHandler(reporter, channelListener, relay, db, redisClient)
	deliveryHandler := handlers.NewDeliveryHandler(relay)
	listenerHandler := handlers.NewListenerHandler(ctx, machine, channelListener, relay)

	e := echo.New()
	e.HideBanner = true
	e.Validator = validator.New()
	e.Renderer = handlers.NewTemplateRenderer()

	// Middleware
	e.Use(middleware.Logger())
	e.Use(middleware.RequestID())
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders: []string{
			echo.HeaderOrigin,
			echo.HeaderContentType,
			echo.HeaderAccept,
			echo.HeaderAuthorization,
			middlewares.APIKeyHeader,
		},
	}))

	routes.RegisterRoutes(e, loginHandler, healthHandler, deliveryHandler, listenerHandler, cfg)

	go func() {
		addr := ":" + cfg.Server.Port
		logger.Infof("Server starting on http://localhost%s", addr)
		logger.Infof("Swagger docs available at http://localhost%s/swagger/index.html", addr)
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Infof("Shutting down gracefully...")

	cancel()

	// The listener goes first so no handler is mid-flight when the connection closes.
	logger.Infof("Stopping listener...")
	if err := channelListener.Stop(); err != nil {
		logger.Errorf("Error stopping listener: %v", err)
	}

	drainCtx, drainCancel := context.WithTimeout(context.Background(), drainTimeout)
	defer drainCancel()

	if err := relay.Wait(drainCtx); err != nil {
		logger.Warnf("Abandoning in-flight deliveries: %v", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	logger.Infof("Shutting down HTTP server...")
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("Server forced to shutdown: %v", err)
	} else {
		logger.Infof("HTTP server stopped successfully")
	}

	logger.Infof("Disconnecting from Telegram...")
	if err := tgClient.Disconnect(); err != nil {
		logger.Errorf("Error disconnecting from Telegram: %v", err)
	}

	if db != nil {
		logger.Infof("Closing database connection...")
		if err := db.Close(); err != nil {
			logger.Errorf("Error closing database: %v", err)
		}
	}

	if redisClient != nil {
		logger.Infof("Closing Redis connection...")
		if err := redisClient.Close(); err != nil {
			logger.Errorf("Error closing Redis: %v", err)
		}
	}

	logger.Infof("Graceful shutdown completed")
}

// connect keeps the Telegram connection up until the session is authorized,
// restoring a persisted session after every successful (re)connect. From then
// on the listener owns reconnection. The HTTP server stays up meanwhile and
// reports "disconnected".
func connect(ctx context.Context, client provider.Client, store *session.Store, machine *auth.Machine, interval time.Duration) {
	for machine.State() != domain.StateAuthorized {
		if !client.IsConnected() {
			connectCtx, cancel := context.WithTimeout(ctx, connectTimeout)
			err := client.Connect(connectCtx)
			cancel()

			switch {
			case ctx.Err() != nil:
				return
			case err != nil:
				logger.Errorf("Failed to connect to Telegram: %v (retrying in %v)", err, interval)
			case store.IsAuthorized(ctx, client):
				if result := machine.Restore(ctx); result.Err != nil {
					logger.Warnf("Session restore: %v", result.Err)
				}
				continue
			default:
				logger.Infof("No authorized session, open the login page to sign in")
			}
		}

		select {
		case <-time.After(interval):
		case <-ctx.Done():
			return
		}
	}
}
