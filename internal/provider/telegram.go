package provider

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gotd/td/session"
	"github.com/gotd/td/telegram"
	"github.com/gotd/td/telegram/auth"
	"github.com/gotd/td/telegram/updates"
	updhook "github.com/gotd/td/telegram/updates/hook"
	"github.com/gotd/td/tg"
	"go.uber.org/zap"

	"github.com/onurcolak/telegram-webhook-relay/internal/domain"
	"github.com/onurcolak/telegram-webhook-relay/pkg/logger"
)

type TelegramConfig struct {
	AppID          int
	AppHash        string
	SessionStorage session.Storage
	Logger         *zap.Logger
}

type subscription struct {
	channelID int64
	peerID    int64
	handler   MessageHandler
}

// TelegramClient implements Client on top of gotd. The MTProto connection
// lives inside client.Run on a goroutine owned by Connect/Disconnect.
type TelegramClient struct {
	client *telegram.Client
	gaps   *updates.Manager

	mu        sync.Mutex
	cancel    context.CancelFunc
	done      chan struct{}
	connected atomic.Bool

	loginMu  sync.Mutex
	codeHash string

	sub atomic.Pointer[subscription]
}

var _ Client = (*TelegramClient)(nil)

func NewTelegramClient(cfg TelegramConfig) *TelegramClient {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	dispatcher := tg.NewUpdateDispatcher()
	gaps := updates.New(updates.Config{
		Handler: dispatcher,
		Logger:  log.Named("updates"),
	})

	c := &TelegramClient{gaps: gaps}
	dispatcher.OnNewChannelMessage(c.onNewChannelMessage)

	c.client = telegram.NewClient(cfg.AppID, cfg.AppHash, telegram.Options{
		SessionStorage: cfg.SessionStorage,
		UpdateHandler:  gaps,
		Logger:         log,
		Middlewares: []telegram.Middleware{
			updhook.UpdateHook(gaps.Handle),
		},
	})

	return c
}

// Connect starts the MTProto connection and returns once it is usable.
// Calling it while connected is a no-op.
func (c *TelegramClient) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.done != nil {
		select {
		case <-c.done:
		default:
			return nil
		}
	}

	runCtx, cancel := context.WithCancel(context.Background())
	ready := make(chan struct{})
	done := make(chan struct{})
	runErr := make(chan error, 1)

	go func() {
		defer close(done)
		err := c.client.Run(runCtx, func(ctx context.Context) error {
			c.connected.Store(true)
			close(ready)
			<-ctx.Done()
			return ctx.Err()
		})
		c.connected.Store(false)
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Warnf("Telegram connection ended: %v", err)
		}
		runErr <- err
	}()

	select {
	case <-ready:
	case err := <-runErr:
		cancel()
		return fmt.Errorf("failed to connect to telegram: %w", err)
	case <-ctx.Done():
		cancel()
		<-done
		return ctx.Err()
	}

	c.cancel = cancel
	c.done = done

	logger.Infof("Connected to Telegram")
	return nil
}

// Disconnect closes the connection and waits for the client goroutine.
func (c *TelegramClient) Disconnect() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.done == nil {
		return nil
	}

	c.cancel()
	<-c.done

	c.cancel = nil
	c.done = nil

	logger.Infof("Disconnected from Telegram")
	return nil
}

func (c *TelegramClient) IsConnected() bool {
	return c.connected.Load()
}

func (c *TelegramClient) IsAuthorized(ctx context.Context) (bool, error) {
	if !c.IsConnected() {
		return false, domain.ProviderError(ErrNotConnected)
	}

	status, err := c.client.Auth().Status(ctx)
	if err != nil {
		return false, mapError(err)
	}

	return status.Authorized, nil
}

func (c *TelegramClient) RequestLoginCode(ctx context.Context, phone string) error {
	if !c.IsConnected() {
		return domain.ProviderError(ErrNotConnected)
	}

	sent, err := c.client.Auth().SendCode(ctx, phone, auth.SendCodeOptions{})
	if err != nil {
		return mapError(err)
	}

	code, ok := sent.(*tg.AuthSentCode)
	if !ok {
		return domain.ProviderError(fmt.Errorf("unexpected sent code response %T", sent))
	}

	c.loginMu.Lock()
	c.codeHash = code.PhoneCodeHash
	c.loginMu.Unlock()

	return nil
}

func (c *TelegramClient) SignIn(ctx context.Context, phone, code string) error {
	c.loginMu.Lock()
	hash := c.codeHash
	c.loginMu.Unlock()

	if hash == "" {
		return domain.NewError(domain.KindInvalidState, "no login code was requested for this session", nil)
	}

	if _, err := c.client.Auth().SignIn(ctx, phone, code, hash); err != nil {
		return mapError(err)
	}

	c.loginMu.Lock()
	c.codeHash = ""
	c.loginMu.Unlock()

	return nil
}

func (c *TelegramClient) SignInPassword(ctx context.Context, password string) error {
	if _, err := c.client.Auth().Password(ctx, password); err != nil {
		return mapError(err)
	}

	c.loginMu.Lock()
	c.codeHash = ""
	c.loginMu.Unlock()

	return nil
}

// Subscribe registers the handler for new messages of one channel. Only one
// subscription may exist for the lifetime of the client.
func (c *TelegramClient) Subscribe(channelID int64, handler MessageHandler) error {
	sub := &subscription{
		channelID: channelID,
		peerID:    PeerChannelID(channelID),
		handler:   handler,
	}
	if !c.sub.CompareAndSwap(nil, sub) {
		return ErrAlreadySubscribed
	}
	return nil
}

// RunUntilDisconnected drives update delivery (including gap recovery) until
// ctx is cancelled or the connection ends. Cancellation returns nil.
func (c *TelegramClient) RunUntilDisconnected(ctx context.Context) error {
	c.mu.Lock()
	done := c.done
	c.mu.Unlock()

	if done == nil {
		return ErrNotConnected
	}

	self, err := c.client.Self(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("failed to resolve current user: %w", err)
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		select {
		case <-done:
			cancel()
		case <-runCtx.Done():
		}
	}()

	started := time.Now()
	err = c.runUpdates(runCtx, c.client.API(), self.ID)

	if ctx.Err() != nil {
		return nil
	}

	select {
	case <-done:
		return fmt.Errorf("%w after %v", ErrDisconnected, time.Since(started).Round(time.Second))
	default:
	}

	return err
}

// runUpdates runs the gap-recovering update loop once. The manager keeps its
// per-user state until Reset, and refuses another Run while it holds any.
func (c *TelegramClient) runUpdates(ctx context.Context, api updates.API, selfID int64) error {
	defer c.gaps.Reset()

	return c.gaps.Run(ctx, api, selfID, updates.AuthOptions{
		OnStart: func(ctx context.Context) {
			logger.Infof("Receiving updates for user %d", selfID)
		},
	})
}

func (c *TelegramClient) onNewChannelMessage(ctx context.Context, _ tg.Entities, update *tg.UpdateNewChannelMessage) error {
	sub := c.sub.Load()
	if sub == nil {
		return nil
	}

	msg, ok := update.Message.(*tg.Message)
	if !ok {
		return nil
	}

	peer, ok := msg.PeerID.(*tg.PeerChannel)
	if !ok || peer.ChannelID != sub.peerID {
		return nil
	}

	sub.handler(ctx, domain.InboundMessageEvent{
		ID:        int64(msg.ID),
		Text:      msg.Message,
		Date:      time.Unix(int64(msg.Date), 0).UTC(),
		ChannelID: sub.channelID,
	})

	return nil
}
