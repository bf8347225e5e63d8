package middleware

import (
	"context"
	"sync"
	"time"

	"github.com/futig/jd-assessment/internal/pkg/metrics"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

const (
	warningInterval   = 30 * time.Second
	cleanupInterval   = 10 * time.Minute
	inactiveThreshold = time.Hour
)

// userLimit tracks rate limit state for a single user
type userLimit struct {
	mu            sync.Mutex
	tokens        float64
	lastRefill    time.Time
	warningsSent  int
	lastWarningAt time.Time
}

// RateLimiterMiddleware is a per-user token bucket: burst tokens at most,
// refilled at requestsPerMinute.
type RateLimiterMiddleware struct {
	mu     sync.Mutex
	limits map[int64]*userLimit

	maxTokens  float64
	refillRate float64 // tokens per second

	bot  Sender
	now  func() time.Time
	stop chan struct{}
	once sync.Once
}

func NewRateLimiterMiddleware(requestsPerMinute, burst int, bot Sender) *RateLimiterMiddleware {
	rl := &RateLimiterMiddleware{
		limits:     make(map[int64]*userLimit),
		maxTokens:  float64(burst),
		refillRate: float64(requestsPerMinute) / 60.0,
		bot:        bot,
		now:        time.Now,
		stop:       make(chan struct{}),
	}

	go rl.cleanupInactiveUsers()

	return rl
}

// Close stops the cleanup goroutine.
func (rl *RateLimiterMiddleware) Close() {
	rl.once.Do(func() { close(rl.stop) })
}

func (rl *RateLimiterMiddleware) Handle(ctx context.Context, update tgbotapi.Update, next Next) {
	userID, chatID, ok := origin(update)
	if !ok {
		next(ctx, update)
		return
	}

	allowed, warning := rl.allow(userID)
	if allowed {
		next(ctx, update)
		return
	}

	ctxzap.Warn(ctx, "rate limit exceeded", zap.Int64("user_id", userID))
	metrics.TelegramUpdates.WithLabelValues(kind(update), "rate_limited").Inc()

	if warning != "" {
		if _, err := rl.bot.Send(tgbotapi.NewMessage(chatID, warning)); err != nil {
			ctxzap.Error(ctx, "failed to send rate limit warning", zap.Error(err))
		}
	}
}

// allow takes a token for userID. A refused request may carry a warning
// to show, at most once per warningInterval.
func (rl *RateLimiterMiddleware) allow(userID int64) (bool, string) {
	now := rl.now()

	rl.mu.Lock()
	limit, exists := rl.limits[userID]
	if !exists {
		limit = &userLimit{tokens: rl.maxTokens, lastRefill: now}
		rl.limits[userID] = limit
	}
	rl.mu.Unlock()

	limit.mu.Lock()
	defer limit.mu.Unlock()

	elapsed := now.Sub(limit.lastRefill).Seconds()
	limit.tokens = min(rl.maxTokens, limit.tokens+elapsed*rl.refillRate)
	limit.lastRefill = now

	if limit.tokens >= 1.0 {
		limit.tokens--
		limit.warningsSent = 0
		return true, ""
	}

	if now.Sub(limit.lastWarningAt) <= warningInterval {
		return false, ""
	}
	limit.warningsSent++
	limit.lastWarningAt = now

	switch limit.warningsSent {
	case 1:
		return false, "⚠️ Too many requests. Please wait a moment."
	case 2:
		return false, "⚠️ Rate limit exceeded. Wait about 30 seconds before trying again."
	default:
		return false, "🛑 You are sending requests too often. Please wait a minute."
	}
}

func (rl *RateLimiterMiddleware) cleanupInactiveUsers() {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-rl.stop:
			return
		case <-ticker.C:
			rl.evictIdle()
		}
	}
}

func (rl *RateLimiterMiddleware) evictIdle() {
	now := rl.now()

	rl.mu.Lock()
	defer rl.mu.Unlock()
	for userID, limit := range rl.limits {
		limit.mu.Lock()
		idle := now.Sub(limit.lastRefill) > inactiveThreshold
		limit.mu.Unlock()
		if idle {
			delete(rl.limits, userID)
		}
	}
}
