// Package middleware resolves the viewer behind a request's bearer token.
package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/anonto42/nano-midea/feedgate/internal/models"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// ErrInvalidToken is returned by verifiers for tokens they cannot accept
var ErrInvalidToken = errors.New("invalid token")

const userContextKey = "user"

// TokenVerifier resolves a bearer token to a known user
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (*models.User, error)
}

// Verifiers tries each verifier in order and returns the first user found
type Verifiers []TokenVerifier

func (vs Verifiers) Verify(ctx context.Context, token string) (*models.User, error) {
	err := ErrInvalidToken
	for _, v := range vs {
		user, verr := v.Verify(ctx, token)
		if verr == nil {
			return user, nil
		}
		err = verr
	}
	return nil, err
}

// Identity attaches the request's user to the context. With required set, requests without a
// valid token are rejected; otherwise they continue as anonymous.
func Identity(verifier TokenVerifier, required bool, logger *zap.Logger) echo.MiddlewareFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				if required {
					return echo.NewHTTPError(http.StatusUnauthorized, "Missing Authorization header")
				}
				return next(c)
			}

			// Expecting "Bearer <token>"
			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
				return echo.NewHTTPError(http.StatusUnauthorized, "Invalid Authorization header format")
			}

			user, err := verifier.Verify(c.Request().Context(), parts[1])
			if err != nil {
				if required {
					return echo.NewHTTPError(http.StatusUnauthorized, "Invalid token")
				}
				logger.Debug("continuing anonymously", zap.Error(err))
				return next(c)
			}

			SetUser(c, user)
			return next(c)
		}
	}
}

// SetUser stores the authenticated user on the request context
func SetUser(c echo.Context, user *models.User) {
	c.Set(userContextKey, user)
}

// CurrentUser returns the authenticated user, or nil for anonymous requests
func CurrentUser(c echo.Context) *models.User {
	user, _ := c.Get(userContextKey).(*models.User)
	return user
}
