package middleware

import (
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Ramsey-B/fern/pkg/context"
)

const (
	HeaderUserID    = "X-User-ID"
	HeaderUserRoles = "X-User-Roles"
)

// TestAuth takes the user id and comma separated roles from headers when auth
// is disabled.
//
// WARNING: Only use this when AUTH_ENABLED=false. Do not enable in production.
func TestAuth() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()

			if userID := c.Request().Header.Get(HeaderUserID); userID != "" {
				ctx = context.SetUserID(ctx, userID)
			}

			if roles := c.Request().Header.Get(HeaderUserRoles); roles != "" {
				ctx = context.SetRoles(ctx, strings.Split(roles, ","))
			}

			c.SetRequest(c.Request().WithContext(ctx))

			return next(c)
		}
	}
}
