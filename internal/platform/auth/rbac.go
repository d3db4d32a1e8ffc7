package auth

import (
	"net/http"
	"slices"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// RoleAdmin passes every role check.
const RoleAdmin = "admin"

// HasAnyRole reports whether held grants at least one of required.
func HasAnyRole(held []string, required ...string) bool {
	if slices.Contains(held, RoleAdmin) {
		return true
	}
	return slices.ContainsFunc(required, func(r string) bool {
		return slices.Contains(held, r)
	})
}

// RequireRole rejects callers that hold none of roles. Denials are logged on
// the request logger so an operator can see which role was missing.
func RequireRole(roles ...string) echo.MiddlewareFunc {
	want := strings.Join(roles, " or ")
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()
			held := RolesFromContext(ctx)
			if HasAnyRole(held, roles...) {
				return next(c)
			}

			zerolog.Ctx(ctx).Warn().
				Str("user_id", UserIDFromContext(ctx)).
				Strs("roles", held).
				Strs("required", roles).
				Str("path", c.Path()).
				Msg("role check denied")

			return echo.NewHTTPError(http.StatusForbidden, "required role: "+want)
		}
	}
}
