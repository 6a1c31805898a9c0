package routes

import (
	"github.com/labstack/echo/v4"
	echoSwagger "github.com/swaggo/echo-swagger"

	"github.com/onurcolak/telegram-webhook-relay/environments"
	"github.com/onurcolak/telegram-webhook-relay/handlers"
	"github.com/onurcolak/telegram-webhook-relay/internal/middlewares"
)

// RegisterRoutes registers the login pages, health and the admin API.
func RegisterRoutes(
	e *echo.Echo,
	loginHandler *handlers.LoginHandler,
	healthHandler *handlers.HealthHandler,
	deliveryHandler *handlers.DeliveryHandler,
	listenerHandler *handlers.ListenerHandler,
	cfg *environments.Config,
) {
	e.GET("/", loginHandler.Home)
	e.GET("/health", healthHandler.Health)
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	// One limiter store covers all three login steps.
	loginLimit := middlewares.LoginRateLimit(cfg.Server.LoginRateLimit)

	e.POST("/send_code", loginHandler.SendCode, loginLimit)
	e.POST("/verify_code", loginHandler.VerifyCode, loginLimit)
	e.POST("/verify_password", loginHandler.VerifyPassword, loginLimit)

	v1 := e.Group("/api/v1", middlewares.APIKeyAuth(cfg.Auth.AdminAPIKey))

	deliveries := v1.Group("/deliveries")

	deliveries.GET("", deliveryHandler.GetDeliveries)
	deliveries.GET("/stats", deliveryHandler.GetStats)
	deliveries.GET("/cached", deliveryHandler.GetCachedDeliveries)
	deliveries.POST("/:id/replay", deliveryHandler.ReplayDelivery)

	listener := v1.Group("/listener")

	listener.GET("/status", listenerHandler.GetListenerStatus)
	listener.POST("/start", listenerHandler.StartListener)
}
