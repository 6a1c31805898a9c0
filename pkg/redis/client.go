package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/valkey-io/valkey-go"

	"github.com/onurcolak/telegram-webhook-relay/environments"
	"github.com/onurcolak/telegram-webhook-relay/internal/domain"
	"github.com/onurcolak/telegram-webhook-relay/pkg/logger"
)

type Client struct {
	client valkey.Client
}

const (
	seenKeyPrefix     = "relay:seen:"
	deliveryKeyPrefix = "relay:delivery:"
	sessionKeyPrefix  = "telegram:session:"

	deliveryTTL = 24 * time.Hour
)

func NewRedisClient(cfg environments.RedisConfig) (*Client, error) {
	client, err := valkey.NewClient(valkey.ClientOption{
		InitAddress: []string{fmt.Sprintf("%s:%s", cfg.Host, cfg.Port)},
		Password:    cfg.Password,
		SelectDB:    cfg.DB,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Valkey client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Do(ctx, client.B().Ping().Build()).Error(); err != nil {
		client.Close()

		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.Infof("Connected to Redis (via Valkey client)")

	return &Client{client: client}, nil
}

// MarkSeen records a channel message id and reports whether it was new.
func (c *Client) MarkSeen(ctx context.Context, channelID, messageID int64, ttl time.Duration) (bool, error) {
	key := fmt.Sprintf("%s%d:%d", seenKeyPrefix, channelID, messageID)

	err := c.client.Do(ctx, c.client.B().Set().Key(key).Value("1").Nx().Ex(ttl).Build()).Error()
	if err != nil {
		if valkey.IsValkeyNil(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to mark message as seen: %w", err)
	}

	return true, nil
}

func (c *Client) CacheDelivery(ctx context.Context, messageID int64, cache domain.DeliveryCache) error {
	data, err := json.Marshal(cache)
	if err != nil {
		return fmt.Errorf("failed to marshal cache data: %w", err)
	}

	key := fmt.Sprintf("%s%d", deliveryKeyPrefix, messageID)

	err = c.client.Do(ctx, c.client.B().Set().Key(key).Value(string(data)).Ex(deliveryTTL).Build()).Error()
	if err != nil {
		return fmt.Errorf("failed to cache delivery: %w", err)
	}

	logger.Debugf("Cached delivery of message %d -> %s in Redis", messageID, cache.Status)

	return nil
}

func (c *Client) GetAllCachedDeliveries(ctx context.Context) (map[int64]*domain.DeliveryCache, error) {
	pattern := fmt.Sprintf("%s*", deliveryKeyPrefix)

	var keys []string
	var cursor uint64
	for {
		result := c.client.Do(ctx, c.client.B().Scan().Cursor(cursor).Match(pattern).Count(100).Build())
		if result.Error() != nil {
			return nil, fmt.Errorf("failed to scan cache keys: %w", result.Error())
		}

		scanResult, err := result.AsScanEntry()
		if err != nil {
			return nil, fmt.Errorf("failed to parse scan result: %w", err)
		}

		keys = append(keys, scanResult.Elements...)
		cursor = scanResult.Cursor

		if cursor == 0 {
			break
		}
	}

	result := make(map[int64]*domain.DeliveryCache, len(keys))

	for _, key := range keys {
		data, err := c.client.Do(ctx, c.client.B().Get().Key(key).Build()).ToString()
		if err != nil {
			continue
		}

		var cache domain.DeliveryCache
		if err := json.Unmarshal([]byte(data), &cache); err != nil {
			continue
		}

		var messageID int64
		if _, err := fmt.Sscanf(key, deliveryKeyPrefix+"%d", &messageID); err != nil {
			logger.Warnf("failed to parse message id from redis key %q: %v", key, err)
			continue
		}

		result[messageID] = &cache
	}

	return result, nil
}

// LoadSession returns nil, nil when no session is stored.
func (c *Client) LoadSession(ctx context.Context, name string) ([]byte, error) {
	data, err := c.client.Do(ctx, c.client.B().Get().Key(sessionKeyPrefix+name).Build()).AsBytes()
	if err != nil {
		if valkey.IsValkeyNil(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return data, nil
}

func (c *Client) StoreSession(ctx context.Context, name string, data []byte) error {
	err := c.client.Do(ctx, c.client.B().Set().Key(sessionKeyPrefix+name).Value(valkey.BinaryString(data)).Build()).Error()
	if err != nil {
		return fmt.Errorf("failed to store session: %w", err)
	}
	return nil
}

func (c *Client) Close() error {
	c.client.Close()
	return nil
}

func (c *Client) Ping(ctx context.Context) error {
	return c.client.Do(ctx, c.client.B().Ping().Build()).Error()
}
