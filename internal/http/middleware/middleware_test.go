package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docmerge/internal/config"
	"docmerge/internal/tokens"
)

func testConfig() config.Config {
	cfg := config.Defaults()
	cfg.RateLimiter.Interval = time.Hour
	return cfg
}

func newApp(cfg config.Config, store *tokens.Store) *fiber.App {
	app := fiber.New()
	Register(app, cfg, store)
	app.Get("/ping", func(c *fiber.Ctx) error { return c.SendString("ok") })
	app.Get("/panic", func(c *fiber.Ctx) error { panic("boom") })
	return app
}

func get(t *testing.T, app *fiber.App, path string, headers map[string]string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func TestRegister_AddsHealthAndRequestID(t *testing.T) {
	app := newApp(testConfig(), nil)

	assert.Equal(t, fiber.StatusOK, get(t, app, "/ops/health", nil).StatusCode)
	assert.Equal(t, fiber.StatusOK, get(t, app, "/ops/ready", nil).StatusCode)

	resp := get(t, app, "/ping", nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("X-Request-Id"))
}

func TestRegister_RecoversFromPanics(t *testing.T) {
	app := newApp(testConfig(), nil)
	assert.Equal(t, fiber.StatusInternalServerError, get(t, app, "/panic", nil).StatusCode)
}

func TestAPIKeyAuth_Modes(t *testing.T) {
	store := tokens.NewStore()
	app := newApp(testConfig(), store)

	// Store not loaded yet: readiness fails and keyed requests get 503.
	assert.Equal(t, fiber.StatusServiceUnavailable, get(t, app, "/ops/ready", nil).StatusCode)
	assert.Equal(t, fiber.StatusServiceUnavailable, get(t, app, "/ping", map[string]string{"X-API-Key": "k"}).StatusCode)

	store.Replace(map[string]int{"good": 0})
	assert.Equal(t, fiber.StatusOK, get(t, app, "/ops/ready", nil).StatusCode)
	assert.Equal(t, fiber.StatusOK, get(t, app, "/ping", nil).StatusCode, "no key means public access")
	assert.Equal(t, fiber.StatusOK, get(t, app, "/ping", map[string]string{"X-API-Key": "good"}).StatusCode)
	assert.Equal(t, fiber.StatusUnauthorized, get(t, app, "/ping", map[string]string{"X-API-Key": "bad"}).StatusCode)
}

func TestTokenRateLimitMiddleware(t *testing.T) {
	store := tokens.NewStore()
	store.Replace(map[string]int{"limited": 2})
	app := newApp(testConfig(), store)
	hdr := map[string]string{"X-API-Key": "limited"}

	for i := 0; i < 2; i++ {
		assert.Equal(t, fiber.StatusOK, get(t, app, "/ping", hdr).StatusCode, "request %d", i+1)
	}
	assert.Equal(t, fiber.StatusTooManyRequests, get(t, app, "/ping", hdr).StatusCode)
}

func TestTokenLimiters_CachePerLimit(t *testing.T) {
	l := newTokenLimiters(testConfig(), newRateLimitStore(testConfig()))
	a := l.get(5)
	b := l.get(5)
	c := l.get(6)
	assert.NotNil(t, a)
	assert.NotNil(t, b)
	assert.NotNil(t, c)
	assert.Len(t, l.handlers, 2)
}

func TestUserRateLimitMiddleware(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimiter.EnableUserLimiter = true
	cfg.RateLimiter.UserLimit = 2
	app := newApp(cfg, nil)

	makeReq := func() *http.Request {
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.Header.Set("User-Agent", "test-agent")
		req.RemoteAddr = "1.2.3.4:5678"
		return req
	}

	for i := 0; i < 2; i++ {
		resp, err := app.Test(makeReq(), -1)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode, "request %d", i+1)
	}

	resp, err := app.Test(makeReq(), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusTooManyRequests, resp.StatusCode)
}

func TestTokenLimitOverridesUserLimit(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimiter.EnableUserLimiter = true
	cfg.RateLimiter.UserLimit = 2
	store := tokens.NewStore()
	store.Replace(map[string]int{"test-token": 100})
	app := newApp(cfg, store)

	anon := map[string]string{"User-Agent": "test-agent"}
	for i := 0; i < 2; i++ {
		assert.Equal(t, fiber.StatusOK, get(t, app, "/ping", anon).StatusCode, "anonymous request %d", i+1)
	}
	assert.Equal(t, fiber.StatusTooManyRequests, get(t, app, "/ping", anon).StatusCode)

	keyed := map[string]string{"User-Agent": "test-agent", "X-API-Key": "test-token"}
	assert.Equal(t, fiber.StatusOK, get(t, app, "/ping", keyed).StatusCode, "token requests skip the user limiter")
}

func TestUserRateLimitMiddleware_DisabledWithoutLimit(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimiter.EnableUserLimiter = true
	app := newApp(cfg, nil)
	for i := 0; i < 5; i++ {
		assert.Equal(t, fiber.StatusOK, get(t, app, "/ping", nil).StatusCode)
	}
}

func TestUserRateLimitMiddleware_DisabledByFlag(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimiter.EnableUserLimiter = false
	cfg.RateLimiter.UserLimit = 1
	app := newApp(cfg, nil)
	for i := 0; i < 3; i++ {
		assert.Equal(t, fiber.StatusOK, get(t, app, "/ping", nil).StatusCode, "request %d", i+1)
	}
}

func TestNewRateLimitStore_FallsBackToMemory(t *testing.T) {
	cfg := testConfig()
	cfg.Cache.RedisHost = "127.0.0.1:1"
	s := newRateLimitStore(cfg)
	require.NotNil(t, s)
	require.NoError(t, s.Set("k", []byte("v"), time.Minute))
	v, err := s.Get("k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), v)
}
