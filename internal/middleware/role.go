package middleware // middleware provides shared request processing for handlers

import (
	"errors"
	"net/http" // http package defines standard HTTP status codes

	"github.com/labstack/echo/v4" // echo provides middleware chaining and context

	"github.com/iliyamo/planetarium-booking/internal/access"
)

// RequireRole returns a middleware function that enforces that the
// authenticated user has one of the specified roles.  The roles
// accepted should correspond to the values stored in the JWT's "role"
// claim.  If the user's role is not in the allowed set, the request
// is aborted with a 403 Forbidden response.  It assumes JWTAuth has
// already stored the role under "role".
func RequireRole(roles ...string) echo.MiddlewareFunc {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, ok := c.Get("role").(string)
			if !ok || !allowed[role] {
				return c.JSON(http.StatusForbidden, echo.Map{"error": access.ErrForbidden.Error()})
			}
			return next(c)
		}
	}
}

// StaffOrReadOnly lets any authenticated principal use safe methods
// (GET, HEAD, OPTIONS) and restricts every other method to staff.
func StaffOrReadOnly() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			p := PrincipalFrom(c)
			var err error
			switch c.Request().Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
				err = access.CanReadCatalog(p)
			default:
				err = access.CanMutateCatalog(p)
			}
			if err != nil {
				return c.JSON(AccessStatus(err), echo.Map{"error": err.Error()})
			}
			return next(c)
		}
	}
}

// AccessStatus maps an access error to its HTTP status.
func AccessStatus(err error) int {
	if errors.Is(err, access.ErrUnauthorized) {
		return http.StatusUnauthorized
	}
	return http.StatusForbidden
}
