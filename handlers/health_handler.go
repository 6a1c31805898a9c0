package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/labstack/echo/v4"

	"github.com/onurcolak/telegram-webhook-relay/internal/domain"
	"github.com/onurcolak/telegram-webhook-relay/pkg/redis"
)

type listenerStatus interface {
	Status() domain.ListenerStatus
}

type dispatchStats interface {
	Stats() domain.DispatchStats
}

// HealthHandler reports relay status plus the optional database and Redis.
type HealthHandler struct {
	reporter     statusReporter
	listener     listenerStatus
	dispatcher   dispatchStats
	db           *sqlx.DB
	redis        *redis.Client
	checkTimeout time.Duration
}

// NewHealthHandler accepts nil db and redis when those components are disabled.
func NewHealthHandler(
	reporter statusReporter,
	listener listenerStatus,
	dispatcher dispatchStats,
	db *sqlx.DB,
	redisClient *redis.Client,
) *HealthHandler {
	return &HealthHandler{
		reporter:     reporter,
		listener:     listener,
		dispatcher:   dispatcher,
		db:           db,
		redis:        redisClient,
		checkTimeout: 2 * time.Second,
	}
}

type HealthResponse struct {
	domain.Status
	Timestamp  string                    `json:"timestamp"`
	Listener   domain.ListenerStatus     `json:"listener"`
	Deliveries domain.DispatchStats      `json:"deliveries"`
	Components map[string]map[string]any `json:"components"`
}

// Health returns the relay status and basic component statuses (DB and Redis).
// @Summary Health check
// @Description Returns connected / authorized / listening flags, delivery counters and DB and Redis connectivity
// @Tags health
// @Accept json
// @Produce json
// @Success 200 {object} HealthResponse
// @Router /health [get]
func (h *HealthHandler) Health(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.checkTimeout)
	defer cancel()

	resp := HealthResponse{
		Status:    h.reporter.Status(ctx),
		Timestamp: time.Now().Format(time.RFC3339),
	}
	if h.listener != nil {
		resp.Listener = h.listener.Status()
	}
	if h.dispatcher != nil {
		resp.Deliveries = h.dispatcher.Stats()
	}

	dbStatus := "disabled"
	if h.db != nil {
		if err := h.db.PingContext(ctx); err != nil {
			dbStatus = "down"
		} else {
			dbStatus = "up"
		}
	}

	redisStatus := "disabled"
	if h.redis != nil {
		if err := h.redis.Ping(ctx); err != nil {
			redisStatus = "down"
		} else {
			redisStatus = "up"
		}
	}

	resp.Components = map[string]map[string]any{
		"database": {"status": dbStatus},
		"redis":    {"status": redisStatus},
	}

	return c.JSON(http.StatusOK, resp)
}
