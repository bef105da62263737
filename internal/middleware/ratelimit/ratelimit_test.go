package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLimitedApp(limit int, window time.Duration) (*fiber.App, *RateLimiter) {
	rl := New(Config{RequestsPerWindow: limit, WindowDuration: window})

	app := fiber.New()
	app.Use(rl.Middleware())
	app.Get("/", func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})
	return app, rl
}

func TestRateLimiterAllowsUpToLimit(t *testing.T) {
	app, rl := newLimitedApp(3, time.Minute)
	defer rl.Stop()

	for i := 0; i < 3; i++ {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	}

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
}

func TestRateLimiterWindowRollover(t *testing.T) {
	app, rl := newLimitedApp(1, 50*time.Millisecond)
	defer rl.Stop()

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)

	time.Sleep(60 * time.Millisecond)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRateLimiterTracksClientsSeparately(t *testing.T) {
	rl := New(Config{RequestsPerWindow: 1, WindowDuration: time.Minute})
	defer rl.Stop()

	assert.True(t, rl.allow("10.0.0.1"))
	assert.False(t, rl.allow("10.0.0.1"))
	assert.True(t, rl.allow("10.0.0.2"))
}

func TestRateLimiterDefaults(t *testing.T) {
	rl := New(Config{})
	defer rl.Stop()

	assert.Equal(t, 120, rl.limit)
	assert.Equal(t, time.Minute, rl.duration)
}
