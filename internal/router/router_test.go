package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/planetarium-booking/internal/booking"
	"github.com/iliyamo/planetarium-booking/internal/config"
	"github.com/iliyamo/planetarium-booking/internal/handler"
)

func newTestServer() *echo.Echo {
	e := echo.New()
	e.Validator = handler.NewRequestValidator()
	svc := booking.NewService(booking.NewMemoryStore(), nil, booking.Options{})
	RegisterRoutes(e, nil)
	RegisterAuth(e, handler.NewAuthHandler(config.Config{JWTSecret: "s"}, nil, nil), "s")
	RegisterCatalog(e, &handler.CatalogHandler{Booking: svc}, "s")
	RegisterReservations(e, handler.NewReservationHandler(svc, nil), "s", nil)
	return e
}

func TestRoutesRegistered(t *testing.T) {
	e := newTestServer()
	have := map[string]bool{}
	for _, r := range e.Routes() {
		have[r.Method+" "+r.Path] = true
	}
	for _, want := range []string{
		"GET /healthz",
		"POST /v1/auth/register",
		"POST /v1/auth/login",
		"POST /v1/auth/refresh",
		"POST /v1/auth/refresh-access",
		"POST /v1/auth/logout",
		"GET /v1/me",
		"POST /v1/show-themes",
		"GET /v1/astronomy-shows/:id",
		"GET /v1/planetarium-domes",
		"DELETE /v1/show-sessions/:id",
		"GET /v1/show-sessions/:id/availability",
		"POST /v1/reservations",
		"GET /v1/reservations/:id/tickets/:ticket_id/qrcode",
	} {
		if !have[want] {
			t.Errorf("route %q not registered", want)
		}
	}
}

func TestProtectedRoutesNeedToken(t *testing.T) {
	e := newTestServer()
	for _, target := range []string{"/v1/show-themes", "/v1/show-sessions/1/availability", "/v1/reservations", "/v1/me"} {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("GET %s = %d, want 401", target, rec.Code)
		}
	}

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("healthz = %d, want 200", rec.Code)
	}
}
