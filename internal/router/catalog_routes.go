package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/planetarium-booking/internal/handler"
	"github.com/iliyamo/planetarium-booking/internal/middleware"
)

// RegisterCatalog registers the catalogue under /v1.  Every route needs a
// valid JWT; writes additionally need the staff role.  extra runs after
// authentication (rate limiting, response cache, cache invalidation) so
// it can key on the principal.
func RegisterCatalog(e *echo.Echo, h *handler.CatalogHandler, jwtSecret string, extra ...echo.MiddlewareFunc) {
	mws := append([]echo.MiddlewareFunc{
		middleware.JWTAuth(jwtSecret),
		middleware.StaffOrReadOnly(),
	}, extra...)
	g := e.Group("/v1", mws...)

	// ---- Themes ----
	g.POST("/show-themes", h.CreateTheme)
	g.GET("/show-themes", h.ListThemes)

	// ---- Shows ----
	g.POST("/astronomy-shows", h.CreateShow)
	g.GET("/astronomy-shows", h.ListShows)
	g.GET("/astronomy-shows/:id", h.GetShow)

	// ---- Domes ----
	g.POST("/planetarium-domes", h.CreateDome)
	g.GET("/planetarium-domes", h.ListDomes)

	// ---- Sessions ----
	g.POST("/show-sessions", h.CreateSession)
	g.GET("/show-sessions", h.ListSessions)
	g.GET("/show-sessions/:id", h.GetSession)
	g.PUT("/show-sessions/:id", h.UpdateSession)
	g.PATCH("/show-sessions/:id", h.UpdateSession) // alias for clients that use PATCH
	g.DELETE("/show-sessions/:id", h.DeleteSession)
	g.GET("/show-sessions/:id/availability", h.Availability)
}
