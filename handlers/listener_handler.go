package handlers

import (
	"context"

	"github.com/labstack/echo/v4"

	"github.com/onurcolak/telegram-webhook-relay/internal/domain"
	"github.com/onurcolak/telegram-webhook-relay/pkg/response"
)

type listenerStarter interface {
	EnsureListening(ctx context.Context) error
}

type ListenerHandler struct {
	starter    listenerStarter
	listener   listenerStatus
	dispatcher dispatchStats
	ctx        context.Context
}

// NewListenerHandler uses ctx, the process context, for starting the
// listener so it does not inherit a request's lifetime.
func NewListenerHandler(
	ctx context.Context,
	starter listenerStarter,
	listener listenerStatus,
	dispatcher dispatchStats,
) *ListenerHandler {
	return &ListenerHandler{
		starter:    starter,
		listener:   listener,
		dispatcher: dispatcher,
		ctx:        ctx,
	}
}

type listenerStatusResponse struct {
	Listener   domain.ListenerStatus `json:"listener"`
	Deliveries domain.DispatchStats  `json:"deliveries"`
}

// StartListener godoc
// @Summary Start the channel listener
// @Description Starts listening if the session is authorized and the listener is not running yet
// @Tags listener
// @Accept json
// @Produce json
// @Param x-relay-auth-key header string true "Admin API key"
// @Success 200 {object} response.SuccessResponse
// @Failure 409 {object} response.ErrorResponse
// @Failure 502 {object} response.ErrorResponse
// @Router /api/v1/listener/start [post]
func (h *ListenerHandler) StartListener(c echo.Context) error {
	if h.listener.Status().Listening {
		return response.OkWithMessage(c, "Listener is already running", h.status())
	}

	if err := h.starter.EnsureListening(h.ctx); err != nil {
		if domain.KindOf(err) == domain.KindInvalidState {
			return response.Conflict(c, err)
		}
		return response.BadGateway(c, err)
	}

	return response.OkWithMessage(c, "Listener started successfully", h.status())
}

// GetListenerStatus godoc
// @Summary Get listener status
// @Description Returns the channel subscription state and delivery counters since start
// @Tags listener
// @Accept json
// @Produce json
// @Param x-relay-auth-key header string true "Admin API key"
// @Success 200 {object} response.SuccessResponse
// @Router /api/v1/listener/status [get]
func (h *ListenerHandler) GetListenerStatus(c echo.Context) error {
	return response.Ok(c, h.status())
}

func (h *ListenerHandler) status() listenerStatusResponse {
	return listenerStatusResponse{
		Listener:   h.listener.Status(),
		Deliveries: h.dispatcher.Stats(),
	}
}
