package status

import (
	"context"
	"fmt"
	"time"

	"github.com/onurcolak/telegram-webhook-relay/internal/domain"
)

const authorizationTimeout = 2 * time.Second

type providerState interface {
	IsConnected() bool
	IsAuthorized(ctx context.Context) (bool, error)
}

type authState interface {
	State() domain.AuthState
}

type listenerState interface {
	IsListening() bool
}

// Reporter derives the relay status from the live components. It only reads.
type Reporter struct {
	provider          providerState
	auth              authState
	listener          listenerState
	channelID         int64
	webhookConfigured bool
}

func NewReporter(
	provider providerState,
	auth authState,
	listener listenerState,
	channelID int64,
	webhookConfigured bool,
) *Reporter {
	return &Reporter{
		provider:          provider,
		auth:              auth,
		listener:          listener,
		channelID:         channelID,
		webhookConfigured: webhookConfigured,
	}
}

// Status never fails: a provider query error becomes status "error".
func (r *Reporter) Status(ctx context.Context) (status domain.Status) {
	status = domain.Status{
		ChannelID:         r.channelID,
		WebhookConfigured: r.webhookConfigured,
	}

	defer func() {
		if rec := recover(); rec != nil {
			status.Status = domain.HealthError
			status.Error = fmt.Sprint(rec)
		}
	}()

	status.AuthState = r.auth.State()
	status.Listening = r.listener.IsListening()
	status.Connected = r.provider.IsConnected()

	if !status.Connected {
		status.Status = domain.HealthDisconnected
		return status
	}

	qctx, cancel := context.WithTimeout(ctx, authorizationTimeout)
	defer cancel()

	authorized, err := r.provider.IsAuthorized(qctx)
	if err != nil {
		status.Status = domain.HealthError
		status.Error = err.Error()
		return status
	}
	status.Authorized = authorized

	switch {
	case authorized && status.Listening:
		status.Status = domain.HealthOK
	case authorized:
		status.Status = domain.HealthNotListening
	default:
		status.Status = domain.HealthPendingLogin
	}

	return status
}
