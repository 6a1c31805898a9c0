// Package session persists the MTProto session so a restart does not require
// logging in again.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	tdsession "github.com/gotd/td/session"

	"github.com/onurcolak/telegram-webhook-relay/pkg/logger"
)

// ErrNotFound is returned by backends when no session has been stored yet.
var ErrNotFound = errors.New("session not found")

// Backend stores the raw session bytes under one fixed name.
type Backend interface {
	Load(ctx context.Context) ([]byte, error)
	Save(ctx context.Context, data []byte) error
	Name() string
}

type authorizationChecker interface {
	IsAuthorized(ctx context.Context) (bool, error)
}

// Store adapts a Backend to gotd's session.Storage. Unreadable or corrupt data is
// reported as "no session" so the client falls through to the login flow.
type Store struct {
	backend Backend
}

var _ tdsession.Storage = (*Store)(nil)

// sessionEnvelope mirrors the layout gotd writes through StoreSession.
type sessionEnvelope struct {
	Version int
	Data    tdsession.Data
}

func NewStore(backend Backend) *Store {
	return &Store{backend: backend}
}

// Load returns the persisted session, if a usable one exists.
func (s *Store) Load(ctx context.Context) ([]byte, bool) {
	data, err := s.backend.Load(ctx)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			logger.Warnf("Failed to load session from %s backend: %v", s.backend.Name(), err)
		}
		return nil, false
	}

	if len(data) == 0 {
		logger.Warnf("Ignoring empty session data in %s backend", s.backend.Name())
		return nil, false
	}

	var envelope sessionEnvelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		logger.Warnf("Ignoring corrupt session data in %s backend (%d bytes): %v", s.backend.Name(), len(data), err)
		return nil, false
	}

	return data, true
}

// IsAuthorized asks the provider whether the current session is accepted.
// Any failure is reported as not authorized.
func (s *Store) IsAuthorized(ctx context.Context, client authorizationChecker) bool {
	ok, err := client.IsAuthorized(ctx)
	if err != nil {
		logger.Warnf("Could not verify stored session: %v", err)
		return false
	}
	return ok
}

func (s *Store) LoadSession(ctx context.Context) ([]byte, error) {
	data, ok := s.Load(ctx)
	if !ok {
		return nil, tdsession.ErrNotFound
	}
	return data, nil
}

func (s *Store) StoreSession(ctx context.Context, data []byte) error {
	if err := s.backend.Save(ctx, data); err != nil {
		return fmt.Errorf("failed to store session in %s backend: %w", s.backend.Name(), err)
	}
	logger.Debugf("Session persisted to %s backend", s.backend.Name())
	return nil
}
