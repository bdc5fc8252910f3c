package middleware // middleware provides shared request processing for handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/personal-finance-api/internal/auth"
	"github.com/iliyamo/personal-finance-api/internal/model"
	"github.com/iliyamo/personal-finance-api/internal/repository"
)

// Context keys set by Auth for downstream handlers.
const (
	ctxUserID = "user_id"
	ctxUser   = "user"
)

// Auth returns the authorization guard for protected routes. Per request it
// extracts the bearer token, verifies it as an access token, resolves the
// identity from the store and attaches the sanitized user to the context.
//
// Status mapping: no bearer credential at all is 401; a credential that is
// present but malformed, forged or expired is 403, so clients can tell
// "log in" apart from "refresh and retry". An identity that no longer
// exists is 401, never 404, to avoid confirming deleted account ids.
func Auth(codec *auth.Codec, users repository.UserStore) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get(echo.HeaderAuthorization)
			if !strings.HasPrefix(header, "Bearer ") {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
			}
			raw := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))

			claims, err := codec.VerifyAccess(raw)
			if err != nil {
				return c.JSON(http.StatusForbidden, echo.Map{"error": err.Error()})
			}

			ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
			defer cancel()

			user, err := users.FindByID(ctx, claims.Subject)
			if err != nil {
				if errors.Is(err, repository.ErrUserNotFound) {
					return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unknown identity"})
				}
				c.Logger().Errorf("auth: resolve identity: %v", err)
				return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
			}

			c.Set(ctxUserID, user.ID)
			c.Set(ctxUser, user.Public())
			return next(c)
		}
	}
}

// UserID returns the authenticated user's id, or "" outside Auth.
func UserID(c echo.Context) string {
	if v, ok := c.Get(ctxUserID).(string); ok {
		return v
	}
	return ""
}

// CurrentUser returns the sanitized user attached by Auth.
func CurrentUser(c echo.Context) (model.PublicUser, bool) {
	u, ok := c.Get(ctxUser).(model.PublicUser)
	return u, ok
}
