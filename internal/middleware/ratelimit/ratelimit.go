package ratelimit

import (
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/inferwatch/backend/pkg/logger"
)

type window struct {
	count int
	start time.Time
}

// RateLimiter enforces a fixed-window per-client request cap. Inference
// endpoints are expensive upstream, so the default cap is deliberately low.
type RateLimiter struct {
	mu       sync.Mutex
	windows  map[string]*window
	limit    int
	duration time.Duration
	stopCh   chan struct{}
}

type Config struct {
	RequestsPerWindow int
	WindowDuration    time.Duration
}

func New(cfg Config) *RateLimiter {
	if cfg.RequestsPerWindow == 0 {
		cfg.RequestsPerWindow = 120
	}
	if cfg.WindowDuration == 0 {
		cfg.WindowDuration = time.Minute
	}

	rl := &RateLimiter{
		windows:  make(map[string]*window),
		limit:    cfg.RequestsPerWindow,
		duration: cfg.WindowDuration,
		stopCh:   make(chan struct{}),
	}

	go rl.sweep()

	return rl
}

func (rl *RateLimiter) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		key := c.IP()

		if !rl.allow(key) {
			logger.Warn("Rate limit exceeded",
				zap.String("ip", key),
				zap.String("path", c.Path()),
			)
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Rate limit exceeded. Please try again later.",
			})
		}

		return c.Next()
	}
}

func (rl *RateLimiter) allow(key string) bool {
	now := time.Now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	w, ok := rl.windows[key]
	if !ok || now.Sub(w.start) >= rl.duration {
		rl.windows[key] = &window{count: 1, start: now}
		return true
	}

	if w.count >= rl.limit {
		return false
	}

	w.count++
	return true
}

// sweep drops stale windows so the map does not grow unbounded.
func (rl *RateLimiter) sweep() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-rl.stopCh:
			return
		case <-ticker.C:
			now := time.Now()
			rl.mu.Lock()
			for key, w := range rl.windows {
				if now.Sub(w.start) >= 2*rl.duration {
					delete(rl.windows, key)
				}
			}
			rl.mu.Unlock()
		}
	}
}

func (rl *RateLimiter) Stop() {
	close(rl.stopCh)
}
