package middleware

import (
	"bytes"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/planetarium-booking/internal/access"
	"github.com/iliyamo/planetarium-booking/internal/config"
	"github.com/iliyamo/planetarium-booking/internal/model"
	"github.com/iliyamo/planetarium-booking/internal/utils"
)

const testSecret = "test-secret"

func bearer(t *testing.T, userID uint64, role string) string {
	t.Helper()
	at, err := utils.NewAccessToken(testSecret, userID, "u@example.com", role, 5)
	if err != nil {
		t.Fatal(err)
	}
	return "Bearer " + at.Token
}

func newTestEcho() *echo.Echo {
	e := echo.New()
	g := e.Group("/v1", JWTAuth(testSecret), StaffOrReadOnly())
	echoPrincipal := func(c echo.Context) error {
		p := PrincipalFrom(c)
		return c.JSON(http.StatusOK, echo.Map{"user_id": p.UserID, "staff": p.Staff})
	}
	g.GET("/astronomy-shows", echoPrincipal)
	g.POST("/astronomy-shows", echoPrincipal)
	return e
}

func TestJWTAuthAndStaffGate(t *testing.T) {
	e := newTestEcho()
	tests := []struct {
		name   string
		method string
		auth   string
		want   int
	}{
		{"no token", http.MethodGet, "", http.StatusUnauthorized},
		{"garbage token", http.MethodGet, "Bearer nope", http.StatusUnauthorized},
		{"customer reads", http.MethodGet, bearer(t, 5, model.RoleCustomer), http.StatusOK},
		{"customer writes", http.MethodPost, bearer(t, 5, model.RoleCustomer), http.StatusForbidden},
		{"staff writes", http.MethodPost, bearer(t, 6, model.RoleStaff), http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/v1/astronomy-shows", strings.NewReader("{}"))
			if tt.auth != "" {
				req.Header.Set("Authorization", tt.auth)
			}
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Fatalf("status = %d, want %d (%s)", rec.Code, tt.want, rec.Body.String())
			}
		})
	}
}

func TestJWTAuthSetsPrincipal(t *testing.T) {
	e := newTestEcho()
	req := httptest.NewRequest(http.MethodPost, "/v1/astronomy-shows", nil)
	req.Header.Set("Authorization", bearer(t, 6, model.RoleStaff))
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if body := rec.Body.String(); !strings.Contains(body, `"user_id":6`) || !strings.Contains(body, `"staff":true`) {
		t.Fatalf("unexpected body %s", body)
	}
}

func TestRequireRole(t *testing.T) {
	e := echo.New()
	h := RequireRole(model.RoleStaff)(func(c echo.Context) error { return c.NoContent(http.StatusNoContent) })
	for role, want := range map[string]int{model.RoleStaff: http.StatusNoContent, model.RoleCustomer: http.StatusForbidden} {
		c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
		c.Set("role", role)
		_ = h(c)
		if got := c.Response().Status; got != want {
			t.Fatalf("role %s: status %d, want %d", role, got, want)
		}
	}
}

func TestUserIDKey(t *testing.T) {
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	if got := userID(c); got != "guest" {
		t.Fatalf("anonymous key = %q", got)
	}
	WithPrincipal(c, access.Principal{UserID: 12})
	if got := userID(c); got != "12" {
		t.Fatalf("principal key = %q", got)
	}
}

func TestBuildRateKey(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/v1/reservations", nil)
	req.Header.Set(echo.HeaderXRealIP, "10.0.0.1")
	c := e.NewContext(req, httptest.NewRecorder())
	c.SetPath("/v1/reservations")
	WithPrincipal(c, access.Principal{UserID: 3})

	cfg := config.RateLimitConfig{Prefix: "rl", KeyStrategy: "ip_user_route"}
	if got, want := buildRateKey(cfg, c), "rl:ip:10.0.0.1:user:3:route:POST /v1/reservations"; got != want {
		t.Fatalf("key = %q, want %q", got, want)
	}
	booking := cfg.Booking()
	if !strings.HasPrefix(buildRateKey(booking, c), "rl:booking:") {
		t.Fatalf("booking bucket shares the general prefix")
	}
}

func TestCacheGroup(t *testing.T) {
	for path, want := range map[string]string{
		"/v1/astronomy-shows":   "/v1/astronomy-shows",
		"/v1/astronomy-shows/3": "/v1/astronomy-shows",
		"/v1/show-themes/":      "/v1/show-themes",
		"/healthz":              "/healthz",
	} {
		if got := cacheGroup(path); got != want {
			t.Fatalf("cacheGroup(%q) = %q, want %q", path, got, want)
		}
	}
	cfg := config.CacheConfig{Prefix: "pc", Paths: []string{"/v1/astronomy-shows"}}
	if !cfg.Cacheable("/v1/astronomy-shows/3") || cfg.Cacheable("/v1/show-sessions/1/availability") {
		t.Fatal("unexpected cacheable decision")
	}
	if got := cacheGroupPrefix(cfg, "/v1/astronomy-shows/3"); got != "pc:/v1/astronomy-shows:" {
		t.Fatalf("prefix = %q", got)
	}
}

func TestRedisMiddlewaresPassThroughWithoutClient(t *testing.T) {
	e := echo.New()
	e.Use(NewTokenBucket(config.RateLimitConfig{Enabled: true}, nil))
	e.Use(NewRedisCache(config.CacheConfig{Enabled: true, Methods: map[string]bool{"GET": true}}, nil))
	e.Use(InvalidateCache(config.CacheConfig{Enabled: true}, nil, log.New(&bytes.Buffer{}, "", 0)))
	e.POST("/v1/show-themes", func(c echo.Context) error { return c.NoContent(http.StatusCreated) })

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/show-themes", nil))
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestPayloadRoundTrip(t *testing.T) {
	hdr := http.Header{"Content-Type": {"application/json"}}
	bs, err := encodePayload(http.StatusOK, hdr, []byte(`{"a":1}`))
	if err != nil {
		t.Fatal(err)
	}
	status, gotHdr, body, ok := decodePayload(bs)
	if !ok || status != http.StatusOK || gotHdr.Get("Content-Type") != "application/json" || string(body) != `{"a":1}` {
		t.Fatalf("decode mismatch: %d %v %q %v", status, gotHdr, body, ok)
	}
	if _, _, _, ok := decodePayload([]byte{1, 2}); ok {
		t.Fatal("short payload accepted")
	}
}

func TestBuildRateKeyStrategies(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/v1/show-themes", nil)
	req.Header.Set(echo.HeaderXRealIP, "10.0.0.2")
	c := e.NewContext(req, httptest.NewRecorder())
	c.SetPath("/v1/show-themes")

	for strategy, want := range map[string]string{
		"ip":         "rl:ip:10.0.0.2",
		"user":       "rl:user:guest",
		"user_route": "rl:user:guest:route:GET /v1/show-themes",
		"bogus":      "rl:ip:10.0.0.2:user:guest:route:GET /v1/show-themes",
	} {
		cfg := config.RateLimitConfig{Prefix: "rl", KeyStrategy: strategy}
		if got := buildRateKey(cfg, c); got != want {
			t.Errorf("strategy %q: key = %q, want %q", strategy, got, want)
		}
	}
}

func TestParseBucketResult(t *testing.T) {
	res, err := parseBucketResult([]interface{}{int64(0), int64(0), int64(1500)})
	if err != nil {
		t.Fatal(err)
	}
	if res.Allowed || res.RetrySeconds() != 2 {
		t.Fatalf("result = %+v, retry %d", res, res.RetrySeconds())
	}
	if res, _ := parseBucketResult([]interface{}{int64(1), "4", int64(0)}); !res.Allowed || res.Remaining != 4 {
		t.Fatalf("allowed result = %+v", res)
	}
	if _, err := parseBucketResult("OK"); err == nil {
		t.Fatal("malformed reply accepted")
	}
}
