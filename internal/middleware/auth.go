// Package middleware provides the per-request authentication gate, the
// authorization check for protected routes, and rate limiting.
package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/avetisk/fullstack-auth/internal/model"
	"github.com/avetisk/fullstack-auth/internal/token"
)

// identityKey is the Echo context key under which the gate stores the
// resolved user.
const identityKey = "identity"

// UserLookup resolves a verified token subject to a full user record.
type UserLookup interface {
	GetByEmail(ctx context.Context, email string) (model.User, error)
}

// Identity returns the user the gate attached to the request, if any.
func Identity(c echo.Context) (model.User, bool) {
	u, ok := c.Get(identityKey).(model.User)
	return u, ok
}

// setIdentity attaches the resolved user; only the gate writes it.
func setIdentity(c echo.Context, u model.User) {
	c.Set(identityKey, u)
}

// ResolveIdentity is the authentication gate.  It reads the access-token
// cookie, verifies it, and resolves the subject to a user which is attached
// to the request context.  Every failure mode (missing cookie, bad
// signature, expiry, unknown subject) degrades silently to an
// unauthenticated request; the gate never writes a response.  It is
// idempotent: a request that already carries an identity is passed through
// untouched.
func ResolveIdentity(signer *token.Signer, users UserLookup, cookieName string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if _, ok := Identity(c); ok {
				return next(c)
			}
			cookie, err := c.Cookie(cookieName)
			if err != nil || cookie.Value == "" {
				return next(c)
			}
			claims, err := signer.VerifyAccessToken(cookie.Value)
			if err != nil {
				// invalid token: continue without authentication
				return next(c)
			}

			ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
			defer cancel()
			u, err := users.GetByEmail(ctx, claims.Subject)
			if err != nil {
				return next(c)
			}
			setIdentity(c, u)
			return next(c)
		}
	}
}

// RequireAuth is the authorization stage for protected routes.  It rejects
// requests the gate left unauthenticated with 401; the gate itself never
// does.
func RequireAuth() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if _, ok := Identity(c); !ok {
				return c.JSON(http.StatusUnauthorized, echo.Map{"message": "Unauthorized"})
			}
			return next(c)
		}
	}
}
