package handler

// catalog.go holds the catalogue endpoints: show themes, astronomy
// shows, planetarium domes and show sessions.  Access control is applied
// by the router (JWT + StaffOrReadOnly); handlers only validate input and
// translate repository errors.

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gosimple/slug"
	"github.com/jinzhu/copier"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/planetarium-booking/internal/booking"
	"github.com/iliyamo/planetarium-booking/internal/model"
	"github.com/iliyamo/planetarium-booking/internal/repository"
)

// ThemeStore is implemented by repository.ThemeRepo.
type ThemeStore interface {
	Create(ctx context.Context, t *model.Theme) error
	List(ctx context.Context) ([]model.Theme, error)
}

// ShowStore is implemented by repository.ShowRepo.
type ShowStore interface {
	Create(ctx context.Context, s *model.Show, themeIDs []uint64) error
	GetByID(ctx context.Context, id uint64) (model.Show, error)
	List(ctx context.Context, f repository.ShowFilter) ([]model.Show, error)
}

// DomeStore is implemented by repository.DomeRepo.
type DomeStore interface {
	Create(ctx context.Context, d *model.Dome) error
	List(ctx context.Context) ([]model.Dome, error)
}

// SessionStore is implemented by repository.SessionRepo.
type SessionStore interface {
	Create(ctx context.Context, showID, domeID uint64, showTime time.Time) (model.Session, error)
	Update(ctx context.Context, id, showID, domeID uint64, showTime time.Time) (model.Session, error)
	Delete(ctx context.Context, id uint64) error
	List(ctx context.Context, f repository.SessionFilter) ([]model.SessionListItem, error)
}

// CatalogHandler serves the catalogue routes.  Booking answers the
// session detail and availability reads.
type CatalogHandler struct {
	Themes   ThemeStore
	Shows    ShowStore
	Domes    DomeStore
	Sessions SessionStore
	Booking  *booking.Service
	Logger   *log.Logger
}

// maxSlugAttempts bounds the "-2", "-3" suffix search for a free slug.
const maxSlugAttempts = 5

// ----- DTOs -----

type themeReq struct {
	Name string `json:"name" validate:"required,max=255"`
}

// showReq fields are copied onto model.Show by name; ThemeIDs has no
// counterpart there and is passed to the repository separately.
type showReq struct {
	Title       string   `json:"title" validate:"required,max=255"`
	Description string   `json:"description"`
	Image       *string  `json:"image"`
	ThemeIDs    []uint64 `json:"themes"`
}

// domeReq carries the geometry unvalidated; booking.ValidateDome owns
// the rows/seats rules.
type domeReq struct {
	Name       string `json:"name" validate:"required,max=255"`
	Rows       int    `json:"rows"`
	SeatsInRow int    `json:"seats_in_row"`
}

type domeResp struct {
	model.Dome
	Capacity int `json:"capacity"`
}

type sessionReq struct {
	ShowID   uint64    `json:"astronomy_show" validate:"required"`
	DomeID   uint64    `json:"planetarium_dome" validate:"required"`
	ShowTime time.Time `json:"show_time" validate:"required"`
}

type sessionDetail struct {
	model.Session
	TicketsAvailable int            `json:"tickets_available"`
	TakenPlaces      []booking.Seat `json:"taken_places"`
}

func (h *CatalogHandler) logger() *log.Logger { return defaultLogger(h.Logger) }

// bindValid binds the body into req and runs the registered validator.
// It writes the 400 response itself and reports false on failure.
func bindValid(c echo.Context, req interface{}) (bool, error) {
	if err := c.Bind(req); err != nil {
		return false, c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if err := c.Validate(req); err != nil {
		return false, c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	return true, nil
}

// ----- themes -----

// CreateTheme handles POST /v1/show-themes.
func (h *CatalogHandler) CreateTheme(c echo.Context) error {
	var req themeReq
	if ok, err := bindValid(c, &req); !ok {
		return err
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	t := model.Theme{Name: strings.TrimSpace(req.Name)}
	if err := h.Themes.Create(ctx, &t); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "theme already exists"})
		}
		return writeError(c, h.logger(), err)
	}
	return c.JSON(http.StatusCreated, t)
}

// ListThemes handles GET /v1/show-themes.
func (h *CatalogHandler) ListThemes(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	list, err := h.Themes.List(ctx)
	if err != nil {
		return writeError(c, h.logger(), err)
	}
	return c.JSON(http.StatusOK, list)
}

// ----- shows -----

// CreateShow handles POST /v1/astronomy-shows.  The slug is derived from
// the title; a taken slug gets a numeric suffix.
func (h *CatalogHandler) CreateShow(c echo.Context) error {
	var req showReq
	if ok, err := bindValid(c, &req); !ok {
		return err
	}
	var show model.Show
	if err := copier.Copy(&show, &req); err != nil {
		return writeError(c, h.logger(), err)
	}
	show.Title = strings.TrimSpace(show.Title)

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	base := slug.Make(show.Title)
	if base == "" {
		base = "show"
	}
	for attempt := 1; ; attempt++ {
		show.Slug = base
		if attempt > 1 {
			show.Slug = fmt.Sprintf("%s-%d", base, attempt)
		}
		err := h.Shows.Create(ctx, &show, req.ThemeIDs)
		if err == nil {
			return c.JSON(http.StatusCreated, show)
		}
		if errors.Is(err, repository.ErrInvalidReference) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown theme"})
		}
		if !errors.Is(err, repository.ErrConflict) || attempt == maxSlugAttempts {
			if errors.Is(err, repository.ErrConflict) {
				return c.JSON(http.StatusConflict, echo.Map{"error": "slug already exists"})
			}
			return writeError(c, h.logger(), err)
		}
	}
}

// ListShows handles GET /v1/astronomy-shows?title=&theme=1,2.
func (h *CatalogHandler) ListShows(c echo.Context) error {
	f := repository.ShowFilter{Title: strings.TrimSpace(c.QueryParam("title"))}
	if raw := c.QueryParam("theme"); raw != "" {
		ids, err := parseIDList(raw)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "theme must be a comma separated list of ids"})
		}
		f.ThemeIDs = ids
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	list, err := h.Shows.List(ctx, f)
	if err != nil {
		return writeError(c, h.logger(), err)
	}
	return c.JSON(http.StatusOK, list)
}

// GetShow handles GET /v1/astronomy-shows/:id.
func (h *CatalogHandler) GetShow(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	show, err := h.Shows.GetByID(ctx, id)
	if err != nil {
		return writeError(c, h.logger(), err)
	}
	return c.JSON(http.StatusOK, show)
}

// ----- domes -----

// CreateDome handles POST /v1/planetarium-domes.
func (h *CatalogHandler) CreateDome(c echo.Context) error {
	var req domeReq
	if ok, err := bindValid(c, &req); !ok {
		return err
	}
	var dome model.Dome
	if err := copier.Copy(&dome, &req); err != nil {
		return writeError(c, h.logger(), err)
	}
	dome.Name = strings.TrimSpace(dome.Name)
	if err := booking.ValidateDome(dome); err != nil {
		return writeError(c, h.logger(), err)
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Domes.Create(ctx, &dome); err != nil {
		return writeError(c, h.logger(), err)
	}
	return c.JSON(http.StatusCreated, domeResp{Dome: dome, Capacity: dome.Capacity()})
}

// ListDomes handles GET /v1/planetarium-domes.
func (h *CatalogHandler) ListDomes(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	list, err := h.Domes.List(ctx)
	if err != nil {
		return writeError(c, h.logger(), err)
	}
	out := make([]domeResp, 0, len(list))
	for _, d := range list {
		out = append(out, domeResp{Dome: d, Capacity: d.Capacity()})
	}
	return c.JSON(http.StatusOK, out)
}

// ----- sessions -----

// CreateSession handles POST /v1/show-sessions.
func (h *CatalogHandler) CreateSession(c echo.Context) error {
	var req sessionReq
	if ok, err := bindValid(c, &req); !ok {
		return err
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	s, err := h.Sessions.Create(ctx, req.ShowID, req.DomeID, req.ShowTime)
	if err != nil {
		return writeError(c, h.logger(), err)
	}
	return c.JSON(http.StatusCreated, s)
}

// UpdateSession handles PUT /v1/show-sessions/:id.
func (h *CatalogHandler) UpdateSession(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req sessionReq
	if ok, err := bindValid(c, &req); !ok {
		return err
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	s, err := h.Sessions.Update(ctx, id, req.ShowID, req.DomeID, req.ShowTime)
	if err != nil {
		return writeError(c, h.logger(), err)
	}
	return c.JSON(http.StatusOK, s)
}

// DeleteSession handles DELETE /v1/show-sessions/:id.  Tickets of the
// session are removed with it.
func (h *CatalogHandler) DeleteSession(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Sessions.Delete(ctx, id); err != nil {
		return writeError(c, h.logger(), err)
	}
	return c.NoContent(http.StatusNoContent)
}

// ListSessions handles GET /v1/show-sessions?date=YYYY-MM-DD&show=<id>.
func (h *CatalogHandler) ListSessions(c echo.Context) error {
	var f repository.SessionFilter
	if raw := c.QueryParam("date"); raw != "" {
		d, err := time.Parse(time.DateOnly, raw)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "date must be YYYY-MM-DD"})
		}
		f.Date = &d
	}
	if raw := c.QueryParam("show"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "show must be an id"})
		}
		f.ShowID = id
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	list, err := h.Sessions.List(ctx, f)
	if err != nil {
		return writeError(c, h.logger(), err)
	}
	return c.JSON(http.StatusOK, list)
}

// GetSession handles GET /v1/show-sessions/:id: the session with its
// dome, show title, free seat count and taken places.
func (h *CatalogHandler) GetSession(c echo.Context) error {
	a, ok, err := h.availability(c)
	if !ok {
		return err
	}
	return c.JSON(http.StatusOK, sessionDetail{
		Session:          a.Session,
		TicketsAvailable: a.TicketsAvailable,
		TakenPlaces:      a.TakenPlaces,
	})
}

// Availability handles GET /v1/show-sessions/:id/availability.
func (h *CatalogHandler) Availability(c echo.Context) error {
	a, ok, err := h.availability(c)
	if !ok {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{
		"session":           a.Session,
		"tickets_available": a.TicketsAvailable,
	})
}

func (h *CatalogHandler) availability(c echo.Context) (booking.Availability, bool, error) {
	id, ok := parseID(c, "id")
	if !ok {
		return booking.Availability{}, false, c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	a, err := h.Booking.Availability(ctx, principal(c), id)
	if err != nil {
		return booking.Availability{}, false, writeError(c, h.logger(), err)
	}
	return a, true, nil
}

// parseIDList parses "1,2,3" into ids, ignoring empty items.
func parseIDList(raw string) ([]uint64, error) {
	var ids []uint64
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseUint(part, 10, 64)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}
