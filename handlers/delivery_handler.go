package handlers

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/onurcolak/telegram-webhook-relay/internal/dispatcher"
	"github.com/onurcolak/telegram-webhook-relay/internal/domain"
	"github.com/onurcolak/telegram-webhook-relay/pkg/response"
)

type deliveryService interface {
	GetDeliveries(ctx context.Context, status *domain.DeliveryStatus, page, pageSize int) ([]domain.Delivery, int64, error)
	GetStats(ctx context.Context) (domain.DeliveryStats, error)
	GetCachedDeliveries(ctx context.Context) (map[int64]*domain.DeliveryCache, error)
	Replay(ctx context.Context, id int64) (*domain.Delivery, error)
}

type DeliveryHandler struct {
	service deliveryService
}

func NewDeliveryHandler(service deliveryService) *DeliveryHandler {
	return &DeliveryHandler{service: service}
}

// GetDeliveries godoc
// @Summary Get deliveries
// @Description Retrieves a paginated list of webhook deliveries with optional status filter
// @Tags deliveries
// @Accept json
// @Produce json
// @Param x-relay-auth-key header string true "Admin API key"
// @Param page query int false "Page number (default: 1)"
// @Param pageSize query int false "Page size (default: 20, max: 100)"
// @Param status query string false "Filter by status (delivered, rejected, failed)"
// @Success 200 {object} response.PaginatedResponse
// @Failure 400 {object} response.ErrorResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /api/v1/deliveries [get]
func (h *DeliveryHandler) GetDeliveries(c echo.Context) error {
	page, pageSize, err := parsePaginationParams(c)
	if err != nil {
		return response.BadRequest(c, err)
	}

	var status *domain.DeliveryStatus
	if statusStr := c.QueryParam("status"); statusStr != "" {
		parsed := domain.DeliveryStatus(statusStr)
		switch parsed {
		case domain.DeliveryDelivered, domain.DeliveryRejected, domain.DeliveryFailedStatus:
		default:
			return response.BadRequestWithMessage(c, "status must be one of delivered, rejected, failed")
		}
		status = &parsed
	}

	deliveries, totalCount, err := h.service.GetDeliveries(c.Request().Context(), status, page, pageSize)
	if err != nil {
		return deliveryError(c, err)
	}

	return response.Paginated(c, deliveries, page, pageSize, totalCount)
}

// GetStats godoc
// @Summary Get delivery statistics
// @Description Returns count of logged deliveries by status
// @Tags deliveries
// @Accept json
// @Produce json
// @Param x-relay-auth-key header string true "Admin API key"
// @Success 200 {object} response.SuccessResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /api/v1/deliveries/stats [get]
func (h *DeliveryHandler) GetStats(c echo.Context) error {
	stats, err := h.service.GetStats(c.Request().Context())
	if err != nil {
		return deliveryError(c, err)
	}

	return response.Ok(c, map[string]any{
		"delivered": stats.Delivered,
		"rejected":  stats.Rejected,
		"failed":    stats.Failed,
		"total":     stats.Delivered + stats.Rejected + stats.Failed,
	})
}

// GetCachedDeliveries godoc
// @Summary Get cached delivery outcomes from Redis
// @Description Returns the latest outcome per message id seen in the last 24 hours
// @Tags deliveries
// @Accept json
// @Produce json
// @Param x-relay-auth-key header string true "Admin API key"
// @Success 200 {object} response.SuccessResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /api/v1/deliveries/cached [get]
func (h *DeliveryHandler) GetCachedDeliveries(c echo.Context) error {
	cached, err := h.service.GetCachedDeliveries(c.Request().Context())
	if err != nil {
		return deliveryError(c, err)
	}

	return response.Ok(c, cached)
}

// ReplayDelivery godoc
// @Summary Replay a failed delivery
// @Description Posts the stored payload of a failed or rejected delivery once more and records the outcome
// @Tags deliveries
// @Accept json
// @Produce json
// @Param x-relay-auth-key header string true "Admin API key"
// @Param id path int true "Delivery ID"
// @Success 200 {object} response.SuccessResponse
// @Failure 400 {object} response.ErrorResponse
// @Failure 404 {object} response.ErrorResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /api/v1/deliveries/{id}/replay [post]
func (h *DeliveryHandler) ReplayDelivery(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return response.BadRequest(c, fmt.Errorf("invalid delivery id"))
	}

	delivery, err := h.service.Replay(c.Request().Context(), id)
	if err != nil {
		return deliveryError(c, err)
	}

	return response.OkWithMessage(c, "Delivery replayed", delivery)
}

func deliveryError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, dispatcher.ErrDeliveryNotFound):
		return response.NotFound(c, err.Error())
	case errors.Is(err, dispatcher.ErrNotReplayable):
		return response.BadRequest(c, err)
	case errors.Is(err, dispatcher.ErrLogNotConfigured), errors.Is(err, dispatcher.ErrCacheNotAvailable):
		return response.ServiceUnavailable(c, err)
	default:
		return response.InternalServerError(c, err)
	}
}

func parsePaginationParams(c echo.Context) (int, int, error) {
	const (
		defaultPage     = 1
		defaultPageSize = 20
		maxPageSize     = 100
	)

	pageStr := c.QueryParam("page")
	pageSizeStr := c.QueryParam("pageSize")

	page := defaultPage
	if pageStr != "" {
		p, err := strconv.Atoi(pageStr)
		if err != nil || p <= 0 {
			return 0, 0, fmt.Errorf("page must be a positive integer")
		}
		page = p
	}

	pageSize := defaultPageSize
	if pageSizeStr != "" {
		ps, err := strconv.Atoi(pageSizeStr)
		if err != nil || ps <= 0 || ps > maxPageSize {
			return 0, 0, fmt.Errorf("pageSize must be between 1 and %d", maxPageSize)
		}

		pageSize = ps
	}

	return page, pageSize, nil
}
