package session

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Middleware rejects requests to protected routes before any handler
// runs, so no protected payload is ever written for an unauthenticated
// caller. The response carries the login location as a redirect hint; the
// view layer decides how to present it.
func (g *Guard) Middleware(loginPath string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if g.Admit(true) == Redirecting {
				return c.JSON(http.StatusUnauthorized, map[string]any{
					"status":   http.StatusUnauthorized,
					"message":  http.StatusText(http.StatusUnauthorized),
					"redirect": loginPath,
				})
			}
			return next(c)
		}
	}
}
