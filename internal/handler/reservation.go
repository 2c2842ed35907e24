package handler

import (
	"context"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/planetarium-booking/internal/booking"
	"github.com/iliyamo/planetarium-booking/internal/utils"
)

// qrSize is the edge length in pixels of ticket QR codes.
const qrSize = 256

// ReservationHandler serves /v1/reservations.  Visibility of existing
// reservations is decided by the booking service from the request's
// principal.
type ReservationHandler struct {
	Booking *booking.Service
	Logger  *log.Logger
}

// NewReservationHandler constructs a ReservationHandler.
func NewReservationHandler(svc *booking.Service, logger *log.Logger) *ReservationHandler {
	return &ReservationHandler{Booking: svc, Logger: defaultLogger(logger)}
}

type ticketReq struct {
	Row       int    `json:"row"`
	Seat      int    `json:"seat"`
	SessionID uint64 `json:"show_session"`
}

type reservationReq struct {
	Tickets []ticketReq `json:"tickets"`
}

type reservationListResp struct {
	Count    int         `json:"count"`
	Next     *string     `json:"next"`
	Previous *string     `json:"previous"`
	Results  interface{} `json:"results"`
}

// Create handles POST /v1/reservations.  Seat checks happen inside the
// booking transaction so the body is only bound, not validated.
func (h *ReservationHandler) Create(c echo.Context) error {
	var req reservationReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	reqs := make([]booking.TicketRequest, len(req.Tickets))
	for i, t := range req.Tickets {
		reqs[i] = booking.TicketRequest{Row: t.Row, Seat: t.Seat, SessionID: t.SessionID}
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	r, err := h.Booking.CreateReservation(ctx, principal(c), reqs)
	if err != nil {
		return writeError(c, h.Logger, err)
	}
	return c.JSON(http.StatusCreated, r)
}

// List handles GET /v1/reservations?page=&page_size=.
func (h *ReservationHandler) List(c echo.Context) error {
	page, err := pageParams(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	res, err := h.Booking.ListReservations(ctx, principal(c), page)
	if err != nil {
		return writeError(c, h.Logger, err)
	}
	if res.Number > 1 && len(res.Results) == 0 {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "invalid page"})
	}
	out := reservationListResp{Count: res.Count, Results: res.Results}
	if res.HasNext {
		out.Next = pageURL(c, res.Number+1, res.Size)
	}
	if res.HasPrevious {
		out.Previous = pageURL(c, res.Number-1, res.Size)
	}
	return c.JSON(http.StatusOK, out)
}

// Get handles GET /v1/reservations/:id.
func (h *ReservationHandler) Get(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	r, err := h.Booking.GetReservation(ctx, principal(c), id)
	if err != nil {
		return writeError(c, h.Logger, err)
	}
	return c.JSON(http.StatusOK, r)
}

// TicketQRCode handles GET /v1/reservations/:id/tickets/:ticket_id/qrcode
// and returns a PNG encoding the ticket identity.
func (h *ReservationHandler) TicketQRCode(c echo.Context) error {
	resID, ok := parseID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	ticketID, ok := parseID(c, "ticket_id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid ticket id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	t, err := h.Booking.Ticket(ctx, principal(c), resID, ticketID)
	if err != nil {
		return writeError(c, h.Logger, err)
	}
	png, err := utils.GenerateQRCode(utils.TicketQRContent(resID, t.ID, t.SessionID, t.Row, t.Seat), qrSize)
	if err != nil {
		return writeError(c, h.Logger, err)
	}
	return c.Blob(http.StatusOK, "image/png", png)
}

// pageParams reads page and page_size.  Absent values are left zero for
// the service to default; the service also clamps page_size.
func pageParams(c echo.Context) (booking.Page, error) {
	var p booking.Page
	if raw := c.QueryParam("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return p, errInvalidParam("page")
		}
		p.Number = n
	}
	if raw := c.QueryParam("page_size"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return p, errInvalidParam("page_size")
		}
		p.Size = n
	}
	return p, nil
}

type errInvalidParam string

func (e errInvalidParam) Error() string { return string(e) + " must be a positive integer" }

// pageURL rebuilds the request URL with page and page_size replaced.
func pageURL(c echo.Context, number, size int) *string {
	req := c.Request()
	q := req.URL.Query()
	q.Set("page", strconv.Itoa(number))
	q.Set("page_size", strconv.Itoa(size))
	u := url.URL{
		Scheme:   c.Scheme(),
		Host:     req.Host,
		Path:     req.URL.Path,
		RawQuery: q.Encode(),
	}
	s := u.String()
	return &s
}
