package middlewares

import (
	"crypto/subtle"
	"fmt"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/onurcolak/telegram-webhook-relay/pkg/response"
)

const (
	APIKeyHeader = "x-relay-auth-key"
	bearerPrefix = "Bearer "
)

func secureCompare(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// requestAPIKey reads the key from x-relay-auth-key, falling back to an
// "Authorization: Bearer" header.
func requestAPIKey(c echo.Context) string {
	if key := c.Request().Header.Get(APIKeyHeader); key != "" {
		return key
	}

	authz := c.Request().Header.Get(echo.HeaderAuthorization)
	if strings.HasPrefix(authz, bearerPrefix) {
		return strings.TrimSpace(strings.TrimPrefix(authz, bearerPrefix))
	}

	return ""
}

// APIKeyAuth guards the admin API. Without a configured key every request is refused.
func APIKeyAuth(apiKey string) echo.MiddlewareFunc {
	if apiKey == "" {
		return func(next echo.HandlerFunc) echo.HandlerFunc {
			return func(c echo.Context) error {
				return response.InternalServerError(
					c,
					fmt.Errorf("ADMIN_API_KEY is not configured, admin API disabled"),
				)
			}
		}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := requestAPIKey(c)
			if token == "" || !secureCompare(token, apiKey) {
				return response.Unauthorized(c)
			}

			return next(c)
		}
	}
}
