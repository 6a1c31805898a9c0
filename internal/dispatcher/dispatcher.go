// Package dispatcher turns channel messages into webhook deliveries.
//
// Every event is posted once. Failures are logged and, when a database is
// configured, recorded so an operator can replay them; nothing is retried
// automatically. Posts run concurrently, so two deliveries may complete out
// of order.
package dispatcher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/onurcolak/telegram-webhook-relay/internal/domain"
	"github.com/onurcolak/telegram-webhook-relay/pkg/logger"
	"github.com/onurcolak/telegram-webhook-relay/pkg/webhook"
)

const (
	seenTTL      = 24 * time.Hour
	cacheTimeout = 2 * time.Second
)

var (
	ErrDeliveryNotFound  = errors.New("delivery not found")
	ErrNotReplayable     = errors.New("only failed or rejected deliveries can be replayed")
	ErrLogNotConfigured  = errors.New("delivery log not configured")
	ErrCacheNotAvailable = errors.New("redis client not configured")
)

// Small internal interfaces so we can test without touching real DB/Redis/webhook.
type webhookClient interface {
	Send(ctx context.Context, deliveryID string, payload any) (*webhook.Result, error)
}

type deliveryRepository interface {
	Create(ctx context.Context, d *domain.Delivery) (*domain.Delivery, error)
	GetByID(ctx context.Context, id int64) (*domain.Delivery, error)
	GetAll(ctx context.Context, status *domain.DeliveryStatus, page, pageSize int) ([]domain.Delivery, int64, error)
	GetStats(ctx context.Context) (domain.DeliveryStats, error)
	UpdateOutcome(ctx context.Context, id int64, status domain.DeliveryStatus, statusCode int, lastError *string) error
}

type deliveryCache interface {
	MarkSeen(ctx context.Context, channelID, messageID int64, ttl time.Duration) (bool, error)
	CacheDelivery(ctx context.Context, messageID int64, cache domain.DeliveryCache) error
	GetAllCachedDeliveries(ctx context.Context) (map[int64]*domain.DeliveryCache, error)
}

type Config struct {
	ChannelID      int64
	AlertThreshold int
}

type Option func(*Dispatcher)

// WithRepository records every outcome in the delivery log.
func WithRepository(repo deliveryRepository) Option {
	return func(d *Dispatcher) { d.repo = repo }
}

// WithCache enables message dedupe and the short-lived outcome cache.
func WithCache(cache deliveryCache) Option {
	return func(d *Dispatcher) { d.cache = cache }
}

// WithAlerts posts an alert through client once per streak of
// AlertThreshold consecutive undelivered outcomes.
func WithAlerts(client webhookClient) Option {
	return func(d *Dispatcher) { d.alerts = client }
}

type Dispatcher struct {
	webhook webhookClient
	repo    deliveryRepository
	cache   deliveryCache
	alerts  webhookClient
	config  Config

	baseCtx context.Context
	wg      sync.WaitGroup

	mu                  sync.RWMutex
	stats               domain.DispatchStats
	alertSentForStreak  bool
	consecutiveFailures int
}

func New(webhook webhookClient, config Config, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		webhook: webhook,
		config:  config,
		baseCtx: context.Background(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Dispatch hands event to a delivery goroutine and returns immediately, so a
// slow endpoint never holds up the provider's update loop.
func (d *Dispatcher) Dispatch(event domain.InboundMessageEvent) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				logger.Errorf("Delivery of message %d panicked: %v", event.ID, r)
			}
		}()

		d.process(d.baseCtx, event)
	}()
}

func (d *Dispatcher) process(ctx context.Context, event domain.InboundMessageEvent) {
	if d.isDuplicate(ctx, event) {
		d.mu.Lock()
		d.stats.Duplicates++
		d.mu.Unlock()
		logger.Infof("Skipping message %d: already relayed", event.ID)
		return
	}

	outcome := d.Deliver(ctx, event)
	if outcome.Payload == nil {
		logger.Errorf("Failed to encode message %d: %v", event.ID, outcome.Err)
		return
	}

	d.record(ctx, outcome)
	d.track(outcome)
}

// Deliver posts event once and reports the outcome without touching the
// delivery log, dedupe or alerting.
func (d *Dispatcher) Deliver(ctx context.Context, event domain.InboundMessageEvent) domain.DeliveryOutcome {
	payload, err := json.Marshal(domain.NewWebhookEnvelope(event, d.config.ChannelID))
	if err != nil {
		return domain.DeliveryOutcome{
			MessageID: event.ID,
			Status:    domain.DeliveryFailedStatus,
			At:        time.Now(),
			Err:       domain.DeliveryFailed(err),
		}
	}
	return d.send(ctx, event.ID, payload)
}

func (d *Dispatcher) send(ctx context.Context, messageID int64, payload []byte) domain.DeliveryOutcome {
	outcome := domain.DeliveryOutcome{
		DeliveryID: uuid.NewString(),
		MessageID:  messageID,
		At:         time.Now(),
		Payload:    payload,
	}

	result, err := d.webhook.Send(ctx, outcome.DeliveryID, payload)
	if err != nil {
		outcome.Status = domain.DeliveryFailedStatus
		outcome.Err = domain.DeliveryFailed(err)
		logger.Errorf("Message %d not delivered (delivery %s): %v", messageID, outcome.DeliveryID, outcome.Err)
		return outcome
	}

	outcome.StatusCode = result.StatusCode
	outcome.Duration = result.Duration

	if result.Success() {
		outcome.Status = domain.DeliveryDelivered
		logger.Infof("Message %d delivered in %v (status: %d)", messageID, result.Duration, result.StatusCode)
	} else {
		outcome.Status = domain.DeliveryRejected
		logger.Warnf("Message %d delivered but webhook answered %d in %v", messageID, result.StatusCode, result.Duration)
	}

	return outcome
}

// isDuplicate fails open: a cache error never blocks a delivery.
func (d *Dispatcher) isDuplicate(ctx context.Context, event domain.InboundMessageEvent) bool {
	if d.cache == nil {
		return false
	}

	cctx, cancel := context.WithTimeout(ctx, cacheTimeout)
	defer cancel()

	fresh, err := d.cache.MarkSeen(cctx, d.config.ChannelID, event.ID, seenTTL)
	if err != nil {
		logger.Warnf("Dedupe check for message %d failed, delivering anyway: %v", event.ID, err)
		return false
	}
	return !fresh
}

func (d *Dispatcher) record(ctx context.Context, outcome domain.DeliveryOutcome) {
	if d.repo != nil {
		delivery := &domain.Delivery{
			DeliveryID: outcome.DeliveryID,
			ChannelID:  d.config.ChannelID,
			MessageID:  outcome.MessageID,
			Status:     outcome.Status,
			StatusCode: outcome.StatusCode,
			LastError:  errorText(outcome.Err),
			Payload:    string(outcome.Payload),
		}
		if _, err := d.repo.Create(ctx, delivery); err != nil {
			logger.Warnf("Failed to record delivery of message %d: %v", outcome.MessageID, err)
		}
	}

	d.cacheOutcome(ctx, outcome)
}

func (d *Dispatcher) cacheOutcome(ctx context.Context, outcome domain.DeliveryOutcome) {
	if d.cache == nil {
		return
	}

	cctx, cancel := context.WithTimeout(ctx, cacheTimeout)
	defer cancel()

	err := d.cache.CacheDelivery(cctx, outcome.MessageID, domain.DeliveryCache{
		DeliveryID:  outcome.DeliveryID,
		Status:      outcome.Status,
		StatusCode:  outcome.StatusCode,
		DeliveredAt: outcome.At,
	})
	if err != nil {
		logger.Warnf("Failed to cache delivery of message %d to Redis: %v", outcome.MessageID, err)
	}
}

func (d *Dispatcher) track(outcome domain.DeliveryOutcome) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stats.LastDeliveryAt = outcome.At

	switch outcome.Status {
	case domain.DeliveryDelivered:
		d.stats.Delivered++
		if d.consecutiveFailures > 0 {
			logger.Debugf("Resetting consecutive failure count (was: %d)", d.consecutiveFailures)
		}
		d.consecutiveFailures = 0
		d.alertSentForStreak = false
		return
	case domain.DeliveryRejected:
		d.stats.Rejected++
	default:
		d.stats.Failed++
	}

	d.consecutiveFailures++

	threshold := d.config.AlertThreshold
	if threshold <= 0 || d.alerts == nil || d.alertSentForStreak {
		return
	}

	if d.consecutiveFailures >= threshold {
		d.alertSentForStreak = true
		go d.sendAlert(d.consecutiveFailures, outcome)
	}
}

func (d *Dispatcher) sendAlert(consecutiveFailures int, last domain.DeliveryOutcome) {
	alertPayload := map[string]any{
		"alert":               "consecutive_delivery_failures",
		"channelId":           d.config.ChannelID,
		"consecutiveFailures": consecutiveFailures,
		"lastMessageId":       last.MessageID,
		"lastStatus":          last.Status,
		"lastStatusCode":      last.StatusCode,
		"timestamp":           time.Now().Format(time.RFC3339),
		"message":             fmt.Sprintf("%d consecutive webhook deliveries failed", consecutiveFailures),
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	result, err := d.alerts.Send(ctx, "", alertPayload)
	if err != nil {
		logger.Errorf("Failed to send alert to webhook: %v", err)
		return
	}

	if !result.Success() {
		logger.Warnf("Alert webhook returned status %d", result.StatusCode)
		return
	}

	d.mu.Lock()
	d.stats.LastAlertSentAt = time.Now()
	d.mu.Unlock()

	logger.Infof("Alert sent (consecutive failures: %d)", consecutiveFailures)
}

// Replay re-posts a logged failed or rejected delivery once and records the new outcome.
func (d *Dispatcher) Replay(ctx context.Context, id int64) (*domain.Delivery, error) {
	if d.repo == nil {
		return nil, ErrLogNotConfigured
	}

	delivery, err := d.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if delivery == nil {
		return nil, fmt.Errorf("%w: %d", ErrDeliveryNotFound, id)
	}
	if delivery.Status == domain.DeliveryDelivered {
		return nil, fmt.Errorf("%w (delivery %d is %s)", ErrNotReplayable, id, delivery.Status)
	}

	logger.Infof("Replaying delivery %d of message %d", id, delivery.MessageID)

	outcome := d.send(ctx, delivery.MessageID, []byte(delivery.Payload))

	if err := d.repo.UpdateOutcome(ctx, id, outcome.Status, outcome.StatusCode, errorText(outcome.Err)); err != nil {
		return nil, err
	}

	d.cacheOutcome(ctx, outcome)
	d.track(outcome)

	return d.repo.GetByID(ctx, id)
}

// Wait blocks until in-flight deliveries finish or ctx expires.
func (d *Dispatcher) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("waiting for in-flight deliveries: %w", ctx.Err())
	}
}

func (d *Dispatcher) Stats() domain.DispatchStats {
	d.mu.RLock()
	defer d.mu.RUnlock()

	stats := d.stats
	stats.ConsecutiveFailures = d.consecutiveFailures
	return stats
}

func (d *Dispatcher) HasDeliveryLog() bool {
	return d.repo != nil
}

func (d *Dispatcher) GetDeliveries(
	ctx context.Context,
	status *domain.DeliveryStatus,
	page, pageSize int,
) ([]domain.Delivery, int64, error) {
	if d.repo == nil {
		return nil, 0, ErrLogNotConfigured
	}
	return d.repo.GetAll(ctx, status, page, pageSize)
}

func (d *Dispatcher) GetStats(ctx context.Context) (domain.DeliveryStats, error) {
	if d.repo == nil {
		return domain.DeliveryStats{}, ErrLogNotConfigured
	}
	return d.repo.GetStats(ctx)
}

func (d *Dispatcher) GetCachedDeliveries(ctx context.Context) (map[int64]*domain.DeliveryCache, error) {
	if d.cache == nil {
		return nil, ErrCacheNotAvailable
	}
	return d.cache.GetAllCachedDeliveries(ctx)
}

func errorText(err error) *string {
	if err == nil {
		return nil
	}
	s := err.Error()
	return &s
}
