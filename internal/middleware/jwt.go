package middleware // declare the middleware package; contains reusable HTTP middleware functions

import (
	"net/http" // HTTP status codes for responses
	"strings"  // string utilities for prefix checking and trimming

	"github.com/labstack/echo/v4" // Echo framework used for defining middleware and handlers

	"github.com/iliyamo/planetarium-booking/internal/access" // principal type shared with the booking core
	"github.com/iliyamo/planetarium-booking/internal/model"  // role constants
	"github.com/iliyamo/planetarium-booking/internal/utils"  // token parsing
)

// JWTAuth returns an Echo middleware that validates a Bearer access token and
// attaches an access.Principal built from its claims to the request
// context.  The provided secret must match the one used when issuing
// tokens.  Handlers read the principal with PrincipalFrom; the raw
// subject and role are also stored under "user_id" and "role" for the
// rate limiter and RequireRole.
func JWTAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			// A valid header should start with "Bearer " followed by the JWT.
			auth := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": access.ErrUnauthorized.Error()})
			}
			raw := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))

			claims, err := utils.ParseAccessToken(secret, raw)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
			}

			p := access.Principal{
				UserID: claims.UserID,
				Email:  claims.Email,
				Staff:  claims.Role == model.RoleStaff,
			}
			c.Set(principalKey, p)
			c.Set("user_id", claims.UserID)
			c.Set("role", claims.Role)
			return next(c)
		}
	}
}
