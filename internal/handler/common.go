package handler // handler defines http handlers

import (
	"errors"   // errors.As / errors.Is on domain errors
	"log"      // logger for unexpected failures
	"net/http" // http defines status codes
	"strconv"  // strconv converts path params to integers

	"github.com/labstack/echo/v4" // echo defines request context types

	"github.com/iliyamo/planetarium-booking/internal/access"
	"github.com/iliyamo/planetarium-booking/internal/booking"
	"github.com/iliyamo/planetarium-booking/internal/middleware"
	"github.com/iliyamo/planetarium-booking/internal/repository"
)

// principal returns the identity attached by the JWT middleware.
func principal(c echo.Context) access.Principal {
	return middleware.PrincipalFrom(c)
}

// parseID reads a positive integer path parameter.
func parseID(c echo.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return id, true
}

// errorStatus maps domain errors onto HTTP status codes.
func errorStatus(err error) int {
	var ticketErr *booking.TicketError
	switch {
	case errors.Is(err, access.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, access.ErrForbidden):
		return http.StatusForbidden
	case errors.As(err, &ticketErr):
		// A ticket naming an unknown session is a bad request, not a
		// missing resource.
		if errors.Is(err, booking.ErrSeatAlreadyTaken) {
			return http.StatusConflict
		}
		return http.StatusBadRequest
	case errors.Is(err, booking.ErrSeatAlreadyTaken):
		return http.StatusConflict
	case errors.Is(err, booking.ErrInvalidSeat),
		errors.Is(err, booking.ErrEmptyBatch),
		errors.Is(err, booking.ErrInvalidDome),
		errors.Is(err, repository.ErrInvalidReference):
		return http.StatusBadRequest
	case errors.Is(err, booking.ErrSessionNotFound),
		errors.Is(err, booking.ErrReservationNotFound),
		errors.Is(err, booking.ErrTicketNotFound),
		errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, repository.ErrConflict):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// writeError renders err as {"error": ...}.  Ticket errors also carry
// the offending request so clients can highlight it.  Internal failures
// are logged and reported without details.
func writeError(c echo.Context, logger *log.Logger, err error) error {
	status := errorStatus(err)
	if status == http.StatusInternalServerError {
		logger.Printf("%s %s: %v", c.Request().Method, c.Path(), err)
		return c.JSON(status, echo.Map{"error": "internal error"})
	}
	body := echo.Map{"error": err.Error()}
	var ticketErr *booking.TicketError
	if errors.As(err, &ticketErr) {
		body["error"] = ticketErr.Err.Error()
		body["ticket"] = echo.Map{
			"index":        ticketErr.Index,
			"row":          ticketErr.Request.Row,
			"seat":         ticketErr.Request.Seat,
			"show_session": ticketErr.Request.SessionID,
		}
		var rangeErr *booking.SeatRangeError
		if errors.As(err, &rangeErr) {
			body["error"] = rangeErr.Error()
			body["field"] = rangeErr.Field
		}
	}
	return c.JSON(status, body)
}

// defaultLogger returns l or the standard logger.
func defaultLogger(l *log.Logger) *log.Logger {
	if l == nil {
		return log.Default()
	}
	return l
}
