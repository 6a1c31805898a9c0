package status

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/onurcolak/telegram-webhook-relay/internal/domain"
)

type fakeProvider struct {
	connected  bool
	authorized bool
	err        error
	panicMsg   string
	deadline   bool
}

func (f *fakeProvider) IsConnected() bool { return f.connected }

func (f *fakeProvider) IsAuthorized(ctx context.Context) (bool, error) {
	if f.panicMsg != "" {
		panic(f.panicMsg)
	}
	_, f.deadline = ctx.Deadline()
	return f.authorized, f.err
}

type fakeAuth struct{ state domain.AuthState }

func (f fakeAuth) State() domain.AuthState { return f.state }

type fakeListener struct{ listening bool }

func (f fakeListener) IsListening() bool { return f.listening }

func TestReporter_Status(t *testing.T) {
	tests := []struct {
		name      string
		provider  *fakeProvider
		auth      domain.AuthState
		listening bool
		want      domain.Status
	}{
		{
			name:     "before login",
			provider: &fakeProvider{connected: true},
			auth:     domain.StateUnauthenticated,
			want: domain.Status{
				Status:            domain.HealthPendingLogin,
				Connected:         true,
				ChannelID:         555,
				WebhookConfigured: true,
				AuthState:         domain.StateUnauthenticated,
			},
		},
		{
			name:      "after login",
			provider:  &fakeProvider{connected: true, authorized: true},
			auth:      domain.StateAuthorized,
			listening: true,
			want: domain.Status{
				Status:            domain.HealthOK,
				Connected:         true,
				Authorized:        true,
				Listening:         true,
				ChannelID:         555,
				WebhookConfigured: true,
				AuthState:         domain.StateAuthorized,
			},
		},
		{
			name:     "authorized but not listening",
			provider: &fakeProvider{connected: true, authorized: true},
			auth:     domain.StateAuthorized,
			want: domain.Status{
				Status:            domain.HealthNotListening,
				Connected:         true,
				Authorized:        true,
				ChannelID:         555,
				WebhookConfigured: true,
				AuthState:         domain.StateAuthorized,
			},
		},
		{
			name:     "disconnected",
			provider: &fakeProvider{},
			auth:     domain.StateUnauthenticated,
			want: domain.Status{
				Status:            domain.HealthDisconnected,
				ChannelID:         555,
				WebhookConfigured: true,
				AuthState:         domain.StateUnauthenticated,
			},
		},
		{
			name:     "provider error",
			provider: &fakeProvider{connected: true, err: errors.New("rpc timeout")},
			auth:     domain.StateCodeRequested,
			want: domain.Status{
				Status:            domain.HealthError,
				Connected:         true,
				ChannelID:         555,
				WebhookConfigured: true,
				AuthState:         domain.StateCodeRequested,
				Error:             "rpc timeout",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewReporter(tt.provider, fakeAuth{tt.auth}, fakeListener{tt.listening}, 555, true)
			assert.Equal(t, tt.want, r.Status(context.Background()))
		})
	}
}

func TestReporter_BoundsProviderQuery(t *testing.T) {
	provider := &fakeProvider{connected: true}
	r := NewReporter(provider, fakeAuth{domain.StateUnauthenticated}, fakeListener{}, 555, false)

	r.Status(context.Background())
	assert.True(t, provider.deadline)
}

func TestReporter_RecoversFromPanic(t *testing.T) {
	provider := &fakeProvider{connected: true, panicMsg: "nil session"}
	r := NewReporter(provider, fakeAuth{domain.StateAuthorized}, fakeListener{true}, 555, true)

	var status domain.Status
	assert.NotPanics(t, func() { status = r.Status(context.Background()) })
	assert.Equal(t, domain.HealthError, status.Status)
	assert.Equal(t, "nil session", status.Error)
	assert.Equal(t, int64(555), status.ChannelID)
}

func TestReporter_DoesNotMutate(t *testing.T) {
	provider := &fakeProvider{connected: true, authorized: true}
	r := NewReporter(provider, fakeAuth{domain.StateAuthorized}, fakeListener{true}, 555, true)

	first := r.Status(context.Background())
	second := r.Status(context.Background())
	assert.Equal(t, first, second)
}
