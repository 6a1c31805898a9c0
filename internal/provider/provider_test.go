package provider

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/gotd/td/telegram/auth"
	"github.com/gotd/td/tg"
	"github.com/gotd/td/tgerr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/onurcolak/telegram-webhook-relay/internal/domain"
)

func TestPeerChannelID(t *testing.T) {
	tests := []struct {
		in   int64
		want int64
	}{
		{1234567, 1234567},
		{-1001234567, 1234567},
		{-1234567, 1234567},
		{-100, 100},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, PeerChannelID(tt.in), "PeerChannelID(%d)", tt.in)
	}
}

func TestMapError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		kind domain.ErrorKind
	}{
		{"invalid phone", tgerr.New(400, "PHONE_NUMBER_INVALID"), domain.KindInvalidPhone},
		{"banned phone", tgerr.New(400, "PHONE_NUMBER_BANNED"), domain.KindInvalidPhone},
		{"invalid code", tgerr.New(400, "PHONE_CODE_INVALID"), domain.KindInvalidCode},
		{"empty code", tgerr.New(400, "PHONE_CODE_EMPTY"), domain.KindInvalidCode},
		{"expired code", tgerr.New(400, "PHONE_CODE_EXPIRED"), domain.KindInvalidCode},
		{"delivery unavailable", tgerr.New(400, "SEND_CODE_UNAVAILABLE"), domain.KindCodeDeliveryUnavailable},
		{"flood wait", tgerr.New(420, "FLOOD_WAIT_30"), domain.KindRateLimited},
		{"password flood", tgerr.New(400, "PHONE_PASSWORD_FLOOD"), domain.KindRateLimited},
		{"wrong password", auth.ErrPasswordInvalid, domain.KindInvalidPassword},
		{"wrong password rpc", tgerr.New(400, "PASSWORD_HASH_INVALID"), domain.KindInvalidPassword},
		{"unknown rpc", tgerr.New(500, "INTERNAL"), domain.KindProvider},
		{"network", errors.New("connection reset"), domain.KindProvider},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.kind, domain.KindOf(mapError(tt.err)))
		})
	}
}

func TestMapError_FloodWaitDuration(t *testing.T) {
	err := mapError(fmt.Errorf("send code: %w", tgerr.New(420, "FLOOD_WAIT_30")))

	assert.Equal(t, 30*time.Second, domain.RetryAfterOf(err))
}

func TestMapError_Signals(t *testing.T) {
	assert.ErrorIs(t, mapError(auth.ErrPasswordAuthNeeded), domain.ErrSecondFactorRequired)
	assert.ErrorIs(t, mapError(tgerr.New(401, "SESSION_PASSWORD_NEEDED")), domain.ErrSecondFactorRequired)
	assert.ErrorIs(t, mapError(tgerr.New(400, "PHONE_CODE_EXPIRED")), domain.ErrCodeExpired)
	assert.NoError(t, mapError(nil))
}

func TestMapError_KeepsDomainErrors(t *testing.T) {
	in := domain.NewError(domain.KindInvalidState, "no code requested", nil)

	assert.Same(t, in, mapError(in))
}

func newTestClient(t *testing.T) *TelegramClient {
	t.Helper()
	return NewTelegramClient(TelegramConfig{AppID: 1, AppHash: "hash"})
}

func channelUpdate(channelID int64, id int, text string, date time.Time) *tg.UpdateNewChannelMessage {
	return &tg.UpdateNewChannelMessage{
		Message: &tg.Message{
			ID:      id,
			Message: text,
			Date:    int(date.Unix()),
			PeerID:  &tg.PeerChannel{ChannelID: channelID},
		},
	}
}

func TestSubscribe_OnlyOnce(t *testing.T) {
	c := newTestClient(t)
	noop := func(context.Context, domain.InboundMessageEvent) {}

	require.NoError(t, c.Subscribe(555, noop))
	assert.ErrorIs(t, c.Subscribe(555, noop), ErrAlreadySubscribed)
}

func TestOnNewChannelMessage_FiltersChannel(t *testing.T) {
	c := newTestClient(t)

	var got []domain.InboundMessageEvent
	require.NoError(t, c.Subscribe(-1001234567, func(_ context.Context, e domain.InboundMessageEvent) {
		got = append(got, e)
	}))

	date := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	ctx := context.Background()

	require.NoError(t, c.onNewChannelMessage(ctx, tg.Entities{}, channelUpdate(1234567, 42, "hello", date)))
	require.NoError(t, c.onNewChannelMessage(ctx, tg.Entities{}, channelUpdate(7654321, 43, "other channel", date)))
	require.NoError(t, c.onNewChannelMessage(ctx, tg.Entities{}, &tg.UpdateNewChannelMessage{
		Message: &tg.MessageService{ID: 44, PeerID: &tg.PeerChannel{ChannelID: 1234567}},
	}))

	require.Len(t, got, 1)
	assert.Equal(t, domain.InboundMessageEvent{
		ID:        42,
		Text:      "hello",
		Date:      date,
		ChannelID: -1001234567,
	}, got[0])
}

func TestOnNewChannelMessage_WithoutSubscription(t *testing.T) {
	c := newTestClient(t)

	err := c.onNewChannelMessage(context.Background(), tg.Entities{}, channelUpdate(1, 1, "x", time.Now()))

	assert.NoError(t, err)
}

func TestLoginCallsRequireConnection(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	assert.False(t, c.IsConnected())

	_, err := c.IsAuthorized(ctx)
	assert.ErrorIs(t, err, domain.ErrProvider)

	assert.ErrorIs(t, c.RequestLoginCode(ctx, "+5511999999999"), domain.ErrProvider)
	assert.ErrorIs(t, c.SignIn(ctx, "+5511999999999", "12345"), domain.ErrInvalidState)
	assert.ErrorIs(t, c.RunUntilDisconnected(ctx), ErrNotConnected)
	assert.NoError(t, c.Disconnect())
}

type stubUpdatesAPI struct{}

func (stubUpdatesAPI) UpdatesGetState(context.Context) (*tg.UpdatesState, error) {
	return &tg.UpdatesState{Pts: 1, Qts: 0, Seq: 1, Date: int(time.Now().Unix())}, nil
}

func (stubUpdatesAPI) UpdatesGetDifference(context.Context, *tg.UpdatesGetDifferenceRequest) (tg.UpdatesDifferenceClass, error) {
	return &tg.UpdatesDifferenceEmpty{Date: int(time.Now().Unix()), Seq: 1}, nil
}

func (stubUpdatesAPI) UpdatesGetChannelDifference(context.Context, *tg.UpdatesGetChannelDifferenceRequest) (tg.UpdatesChannelDifferenceClass, error) {
	return &tg.UpdatesChannelDifferenceEmpty{Final: true, Pts: 1}, nil
}

func TestRunUpdates_CanRunAgainAfterEnding(t *testing.T) {
	c := newTestClient(t)

	for run := 1; run <= 3; run++ {
		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		err := c.runUpdates(ctx, stubUpdatesAPI{}, 42)
		cancel()

		if err != nil {
			assert.NotContains(t, err.Error(), "already authorized", "run %d", run)
		}
	}
}
