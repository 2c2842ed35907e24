package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/planetarium-booking/internal/handler"
	"github.com/iliyamo/planetarium-booking/internal/middleware"
)

// RegisterReservations registers reservation endpoints under /v1.  All
// routes require a valid JWT; which reservations a caller sees is decided
// by the booking service.  bookingLimit guards only reservation creation
// and may be nil.
func RegisterReservations(e *echo.Echo, h *handler.ReservationHandler, jwtSecret string, bookingLimit echo.MiddlewareFunc, extra ...echo.MiddlewareFunc) {
	mws := append([]echo.MiddlewareFunc{middleware.JWTAuth(jwtSecret)}, extra...)
	g := e.Group("/v1/reservations", mws...)

	if bookingLimit != nil {
		g.POST("", h.Create, bookingLimit)
	} else {
		g.POST("", h.Create)
	}
	g.GET("", h.List)
	g.GET("/:id", h.Get)
	g.GET("/:id/tickets/:ticket_id/qrcode", h.TicketQRCode)
}
