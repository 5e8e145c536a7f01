package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

type contextKey string

const (
	UserIDKey   contextKey = "user_id"
	UserRoleKey contextKey = "user_role"
)

// RoleSource resolves a user id to their currently stored role.
type RoleSource interface {
	RoleByID(ctx context.Context, userID string) (string, error)
}

// JWTMiddleware verifies the bearer token on every request and attaches the
// caller's id and role to the request context. Missing, malformed, or
// expired tokens short-circuit with 401 before the handler runs.
//
// When roles is non-nil the role baked into the token is ignored and the
// stored role is attached instead, so a demotion takes effect on the next
// request rather than at token expiry.
func JWTMiddleware(secret []byte, roles RoleSource) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization format")
			}

			claims, err := ParseToken(secret, parts[1])
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}

			ctx := c.Request().Context()
			role := claims.Role
			if roles != nil {
				stored, err := roles.RoleByID(ctx, claims.UserID)
				if err != nil {
					return echo.NewHTTPError(http.StatusUnauthorized, "unknown user")
				}
				role = stored
			}
			ctx = context.WithValue(ctx, UserIDKey, claims.UserID)
			ctx = context.WithValue(ctx, UserRoleKey, role)
			c.SetRequest(c.Request().WithContext(ctx))

			return next(c)
		}
	}
}

func UserIDFromContext(ctx context.Context) string {
	uid, _ := ctx.Value(UserIDKey).(string)
	return uid
}

func RoleFromContext(ctx context.Context) string {
	role, _ := ctx.Value(UserRoleKey).(string)
	return role
}
