package session

import (
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/onurcolak/telegram-webhook-relay/environments"
	"github.com/onurcolak/telegram-webhook-relay/pkg/redis"
)

// NewBackend picks the backend named by SESSION_STORAGE. db and cache may be
// nil when the matching backend is not selected.
func NewBackend(cfg environments.SessionConfig, db *sqlx.DB, cache *redis.Client) (Backend, error) {
	switch cfg.Storage {
	case environments.SessionStorageFile, "":
		return NewFileBackend(cfg.Dir, cfg.Name), nil
	case environments.SessionStorageSQL:
		if db == nil {
			return nil, fmt.Errorf("session storage %q requires a database", cfg.Storage)
		}
		return NewSQLBackend(db, cfg.Name), nil
	case environments.SessionStorageRedis:
		if cache == nil {
			return nil, fmt.Errorf("session storage %q requires redis", cfg.Storage)
		}
		return NewRedisBackend(cache, cfg.Name), nil
	default:
		return nil, fmt.Errorf("unsupported session storage: %s", cfg.Storage)
	}
}
