package provider

import (
	"errors"

	"github.com/gotd/td/telegram/auth"
	"github.com/gotd/td/tgerr"

	"github.com/onurcolak/telegram-webhook-relay/internal/domain"
)

// mapError translates gotd and RPC errors into the domain taxonomy so the
// login flow never depends on provider error types.
func mapError(err error) error {
	if err == nil {
		return nil
	}

	var de *domain.Error
	if errors.As(err, &de) {
		return err
	}

	if errors.Is(err, auth.ErrPasswordAuthNeeded) || tgerr.Is(err, "SESSION_PASSWORD_NEEDED") {
		return domain.ErrSecondFactorRequired
	}

	if errors.Is(err, auth.ErrPasswordInvalid) || tgerr.Is(err, "PASSWORD_HASH_INVALID") {
		return domain.NewError(domain.KindInvalidPassword, "incorrect 2FA password", err)
	}

	if d, ok := tgerr.AsFloodWait(err); ok {
		return domain.RateLimited(d, err)
	}

	switch {
	case tgerr.Is(err, "PHONE_NUMBER_INVALID", "PHONE_NUMBER_BANNED"):
		return domain.NewError(domain.KindInvalidPhone, "phone number rejected by Telegram", err)
	case tgerr.Is(err, "PHONE_CODE_EXPIRED"):
		return domain.NewError(domain.KindInvalidCode, "login code expired", domain.ErrCodeExpired)
	case tgerr.Is(err, "PHONE_CODE_INVALID", "PHONE_CODE_EMPTY"):
		return domain.NewError(domain.KindInvalidCode, "invalid login code", err)
	case tgerr.Is(err, "SEND_CODE_UNAVAILABLE"):
		return domain.NewError(domain.KindCodeDeliveryUnavailable, "Telegram cannot deliver another login code", err)
	case tgerr.Is(err, "PHONE_PASSWORD_FLOOD"):
		return domain.RateLimited(0, err)
	}

	return domain.ProviderError(err)
}
