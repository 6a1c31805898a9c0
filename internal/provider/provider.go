// Package provider adapts the Telegram user-account client to the small
// capability the relay needs: connection lifecycle, the login steps and a
// single channel subscription.
package provider

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/onurcolak/telegram-webhook-relay/internal/domain"
)

// MessageHandler receives new channel messages. It runs on the provider's
// update goroutine and must not block.
type MessageHandler func(ctx context.Context, event domain.InboundMessageEvent)

// Client is the account-level capability. Login errors are *domain.Error values.
type Client interface {
	Connect(ctx context.Context) error
	Disconnect() error
	IsConnected() bool
	IsAuthorized(ctx context.Context) (bool, error)
	RequestLoginCode(ctx context.Context, phone string) error
	SignIn(ctx context.Context, phone, code string) error
	SignInPassword(ctx context.Context, password string) error
	Subscribe(channelID int64, handler MessageHandler) error
	RunUntilDisconnected(ctx context.Context) error
}

var (
	ErrNotConnected      = errors.New("provider client is not connected")
	ErrDisconnected      = errors.New("provider connection closed")
	ErrAlreadySubscribed = errors.New("channel subscription already registered")
)

// PeerChannelID converts a configured channel id to the bare id carried by
// channel peers. Both the bare form (1234567) and the marked form used by
// Bot API style tooling (-1001234567) are accepted.
func PeerChannelID(id int64) int64 {
	if id >= 0 {
		return id
	}
	s := strconv.FormatInt(-id, 10)
	if strings.HasPrefix(s, "100") && len(s) > 3 {
		if bare, err := strconv.ParseInt(s[3:], 10, 64); err == nil {
			return bare
		}
	}
	return -id
}
