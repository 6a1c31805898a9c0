package listener

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/onurcolak/telegram-webhook-relay/internal/domain"
	"github.com/onurcolak/telegram-webhook-relay/internal/provider"
	"github.com/onurcolak/telegram-webhook-relay/pkg/logger"
)

const (
	initialBackoff = 5 * time.Second
	maxBackoff     = 5 * time.Minute
	stableRun      = time.Minute
)

type channelClient interface {
	Connect(ctx context.Context) error
	Subscribe(channelID int64, handler provider.MessageHandler) error
	RunUntilDisconnected(ctx context.Context) error
}

type eventDispatcher interface {
	Dispatch(event domain.InboundMessageEvent)
}

// Listener owns the single channel subscription of the process and the
// background task that keeps the provider's update loop running.
type Listener struct {
	client     channelClient
	channelID  int64
	dispatcher eventDispatcher

	initialBackoff time.Duration
	maxBackoff     time.Duration

	mu        sync.RWMutex
	started   bool
	running   bool
	active    bool // update loop currently inside RunUntilDisconnected
	lastError string
	cancel    context.CancelFunc
	doneChan  chan struct{}
	startedAt time.Time

	restarts atomic.Int64
	received atomic.Int64
}

func New(client channelClient, channelID int64, dispatcher eventDispatcher) *Listener {
	return &Listener{
		client:         client,
		channelID:      channelID,
		dispatcher:     dispatcher,
		initialBackoff: initialBackoff,
		maxBackoff:     maxBackoff,
	}
}

// Start subscribes to the channel and spawns the update task. Only the first
// call does anything; later calls, including after Stop, return nil.
func (l *Listener) Start(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.started {
		logger.Debugf("Listener already started for channel %d", l.channelID)
		return nil
	}

	if err := l.client.Subscribe(l.channelID, l.handle); err != nil {
		return err
	}

	// The task outlives the request that triggered login.
	taskCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))

	l.started = true
	l.running = true
	l.active = true
	l.cancel = cancel
	l.doneChan = make(chan struct{})
	l.startedAt = time.Now()

	logger.Infof("Listening for new messages in channel %d", l.channelID)

	go l.run(taskCtx)

	return nil
}

func (l *Listener) run(ctx context.Context) {
	defer close(l.doneChan)

	backoff := l.initialBackoff

	for {
		runStarted := time.Now()
		err := l.client.RunUntilDisconnected(ctx)

		if ctx.Err() != nil {
			logger.Warnf("Listener context cancelled")
			return
		}

		l.setInactive(err)

		if time.Since(runStarted) > stableRun {
			backoff = l.initialBackoff
		}

		if err != nil {
			logger.Warnf("Update loop for channel %d stopped: %v (restarting in %v)", l.channelID, err, backoff)
		} else {
			logger.Warnf("Update loop for channel %d returned (restarting in %v)", l.channelID, backoff)
		}

		for {
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				logger.Warnf("Listener context cancelled")
				return
			}

			backoff = min(backoff*2, l.maxBackoff)

			if err := l.client.Connect(ctx); err != nil {
				if ctx.Err() != nil {
					return
				}
				logger.Errorf("Reconnection failed: %v (next attempt in %v)", err, backoff)
				continue
			}
			break
		}

		l.restarts.Add(1)
		l.setActive()
		logger.Infof("Update loop for channel %d restarted", l.channelID)
	}
}

func (l *Listener) setInactive(err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.active = false
	if err != nil {
		l.lastError = err.Error()
	} else {
		l.lastError = provider.ErrDisconnected.Error()
	}
}

func (l *Listener) setActive() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.active = true
}

func (l *Listener) handle(_ context.Context, event domain.InboundMessageEvent) {
	l.received.Add(1)
	logger.Debugf("Received message %d from channel %d", event.ID, l.channelID)
	l.dispatcher.Dispatch(event)
}

// Stop cancels the update task and waits for it to return.
func (l *Listener) Stop() error {
	l.mu.Lock()

	if !l.running {
		l.mu.Unlock()
		return nil
	}

	l.running = false
	cancel := l.cancel
	doneChan := l.doneChan
	l.mu.Unlock()

	cancel()

	<-doneChan

	logger.Infof("Listener stopped")
	return nil
}

// IsListening reports whether the update loop is up. A started listener that
// is backing off between failed runs is not listening.
func (l *Listener) IsListening() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.running && l.active
}

func (l *Listener) Status() domain.ListenerStatus {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return domain.ListenerStatus{
		Listening: l.running && l.active,
		ChannelID: l.channelID,
		LastError: l.lastError,
		StartedAt: l.startedAt,
		Restarts:  l.restarts.Load(),
		Received:  l.received.Load(),
	}
}
