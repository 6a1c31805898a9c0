// Package auth drives the interactive Telegram login: phone, then the code
// sent by Telegram, then the 2FA password when the account has one.
//
// One Machine exists per process. Concurrent logins for different phone
// numbers are not supported; a new RequestCode replaces the attempt in flight.
package auth

import (
	"context"
	"errors"
	"sync"

	"github.com/onurcolak/telegram-webhook-relay/internal/domain"
	"github.com/onurcolak/telegram-webhook-relay/pkg/logger"
	"github.com/onurcolak/telegram-webhook-relay/pkg/validator"
)

type loginClient interface {
	IsAuthorized(ctx context.Context) (bool, error)
	RequestLoginCode(ctx context.Context, phone string) error
	SignIn(ctx context.Context, phone, code string) error
	SignInPassword(ctx context.Context, password string) error
}

type listenerStarter interface {
	Start(ctx context.Context) error
}

// Result is the state after an operation together with the reason it did
// not advance, if any.
type Result struct {
	State domain.AuthState
	Err   error
}

type Machine struct {
	client   loginClient
	listener listenerStarter

	// mu serializes every transition and the provider call behind it.
	mu    sync.Mutex
	state domain.AuthState
	phone string
}

func NewMachine(client loginClient, listener listenerStarter) *Machine {
	return &Machine{
		client:   client,
		listener: listener,
		state:    domain.StateUnauthenticated,
	}
}

// Restore checks whether the persisted session is still accepted and, if so,
// moves straight to Authorized and starts listening.
func (m *Machine) Restore(ctx context.Context) Result {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state == domain.StateAuthorized {
		return m.result(nil)
	}

	ok, err := m.client.IsAuthorized(ctx)
	if err != nil {
		logger.Warnf("Could not check stored session: %v", err)
		return m.result(domain.ProviderError(err))
	}
	if !ok {
		logger.Infof("No authorized session, waiting for login")
		return m.result(nil)
	}

	logger.Infof("Restored authorized session")
	return m.result(m.authorize(ctx))
}

func (m *Machine) RequestCode(ctx context.Context, phone string) Result {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state == domain.StateAuthorized {
		return m.result(domain.ErrAlreadyAuthorized)
	}

	if err := validator.ValidatePhone(phone); err != nil {
		return m.result(domain.NewError(domain.KindInvalidPhone, err.Error(), nil))
	}

	authorized, err := m.client.IsAuthorized(ctx)
	if err != nil {
		return m.result(asLoginError(err))
	}
	if authorized {
		if err := m.authorize(ctx); err != nil {
			return m.result(err)
		}
		return m.result(domain.ErrAlreadyAuthorized)
	}

	err = m.client.RequestLoginCode(ctx, phone)
	switch {
	case err == nil:
		logger.Infof("Login code requested for %s", maskPhone(phone))
	case errors.Is(err, domain.ErrCodeDeliveryUnavailable):
		// A code received earlier through another channel can still be submitted.
		logger.Warnf("Telegram cannot deliver a new code to %s: %v", maskPhone(phone), err)
	default:
		logger.Warnf("Login code request for %s failed: %v", maskPhone(phone), err)
		return m.result(asLoginError(err))
	}

	m.state = domain.StateCodeRequested
	m.phone = phone

	return m.result(asLoginError(err))
}

// SubmitCode signs in with the code Telegram sent. An empty phone means the
// one given to RequestCode.
func (m *Machine) SubmitCode(ctx context.Context, phone, code string) Result {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state == domain.StateAuthorized {
		return m.result(domain.ErrAlreadyAuthorized)
	}
	if m.state != domain.StateCodeRequested {
		return m.result(domain.NewError(domain.KindInvalidState, "request a login code first", nil))
	}

	if phone == "" {
		phone = m.phone
	}
	if err := validator.ValidatePhone(phone); err != nil {
		return m.result(domain.NewError(domain.KindInvalidPhone, err.Error(), nil))
	}
	if code == "" {
		return m.result(domain.NewError(domain.KindInvalidCode, "login code is required", nil))
	}

	err := m.client.SignIn(ctx, phone, code)
	switch {
	case err == nil:
		logger.Infof("Signed in as %s", maskPhone(phone))
		return m.result(m.authorize(ctx))

	case errors.Is(err, domain.ErrSecondFactorRequired):
		logger.Infof("Account %s requires its 2FA password", maskPhone(phone))
		m.state = domain.StatePasswordRequired
		m.phone = phone
		return m.result(nil)

	case errors.Is(err, domain.ErrCodeExpired):
		logger.Warnf("Login code for %s expired, restarting login", maskPhone(phone))
		m.state = domain.StateUnauthenticated
		m.phone = ""
		return m.result(asLoginError(err))

	default:
		logger.Warnf("Sign in for %s failed: %v", maskPhone(phone), err)
		return m.result(asLoginError(err))
	}
}

func (m *Machine) SubmitPassword(ctx context.Context, password string) Result {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state == domain.StateAuthorized {
		return m.result(domain.ErrAlreadyAuthorized)
	}
	if m.state != domain.StatePasswordRequired {
		return m.result(domain.NewError(domain.KindInvalidState, "no 2FA password was requested", nil))
	}
	if password == "" {
		return m.result(domain.NewError(domain.KindInvalidPassword, "password is required", nil))
	}

	if err := m.client.SignInPassword(ctx, password); err != nil {
		logger.Warnf("2FA sign in for %s failed: %v", maskPhone(m.phone), err)
		return m.result(asLoginError(err))
	}

	logger.Infof("Signed in as %s with 2FA", maskPhone(m.phone))
	return m.result(m.authorize(ctx))
}

// EnsureListening starts the listener of an authorized session. The listener
// ignores repeated starts.
func (m *Machine) EnsureListening(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != domain.StateAuthorized {
		return domain.NewError(domain.KindInvalidState, "sign in before starting the listener", nil)
	}

	if err := m.listener.Start(ctx); err != nil {
		return domain.ProviderError(err)
	}
	return nil
}

func (m *Machine) State() domain.AuthState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Phone is the number of the login in progress, if any.
func (m *Machine) Phone() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.phone
}

// authorize enters the terminal state and starts the listener. Callers hold mu.
func (m *Machine) authorize(ctx context.Context) error {
	m.state = domain.StateAuthorized
	m.phone = ""

	if err := m.listener.Start(ctx); err != nil {
		logger.Errorf("Authorized but failed to start listener: %v", err)
		return domain.ProviderError(err)
	}
	return nil
}

func (m *Machine) result(err error) Result {
	return Result{State: m.state, Err: err}
}

// asLoginError keeps domain errors as they are and wraps anything else as a
// provider error, so every login failure has a kind.
func asLoginError(err error) error {
	if err == nil {
		return nil
	}
	if domain.KindOf(err) != "" {
		return err
	}
	return domain.ProviderError(err)
}

func maskPhone(phone string) string {
	if len(phone) <= 4 {
		return "****"
	}
	return phone[:len(phone)-4] + "****"
}
