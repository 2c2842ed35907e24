package middleware

// identity.go holds the helpers that move the authenticated principal
// through the Echo context.  JWTAuth stores it; handlers and the other
// middleware read it back.

import (
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/planetarium-booking/internal/access"
)

const principalKey = "principal"

// PrincipalFrom returns the principal attached by JWTAuth, or the zero
// (unauthenticated) principal.
func PrincipalFrom(c echo.Context) access.Principal {
	if p, ok := c.Get(principalKey).(access.Principal); ok {
		return p
	}
	return access.Principal{}
}

// WithPrincipal attaches p to the context.  Tests use it to skip token
// issuance.
func WithPrincipal(c echo.Context, p access.Principal) {
	c.Set(principalKey, p)
}

// userID returns the principal's id as a string, or "guest" when the
// request is anonymous.
func userID(c echo.Context) string {
	p := PrincipalFrom(c)
	if !p.Authenticated() {
		return "guest"
	}
	return strconv.FormatUint(p.UserID, 10)
}
