package middleware

import (
	"log/slog"
	"sync"
	"time"

	"github.com/m3rciful/docbot/core/logger"
	tghelpers "github.com/m3rciful/docbot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

// Update kinds recognised by RateLimitOptions.Exclude.
const (
	kindCallback    = "callback"
	kindMessage     = "message"
	kindInlineQuery = "inline_query"
	kindOther       = "other"
)

// pruneEvery is how many admitted updates pass between sweeps of stale senders.
const pruneEvery = 512

// RateLimitOptions configures RateLimitMiddleware.
type RateLimitOptions struct {
	Interval  time.Duration
	Exclude   map[string]struct{}
	OnLimited tele.HandlerFunc

	now func() time.Time
}

type limiter struct {
	interval time.Duration
	now      func() time.Time

	mu       sync.Mutex
	lastSeen map[int64]time.Time
	admitted int
}

func newLimiter(interval time.Duration, now func() time.Time) *limiter {
	if now == nil {
		now = time.Now
	}
	return &limiter{interval: interval, now: now, lastSeen: make(map[int64]time.Time)}
}

// allow records an update from userID and reports whether it is admitted.
func (l *limiter) allow(userID int64) bool {
	now := l.now()
	l.mu.Lock()
	defer l.mu.Unlock()
	if last, ok := l.lastSeen[userID]; ok && now.Sub(last) < l.interval {
		return false
	}
	l.lastSeen[userID] = now
	l.admitted++
	if l.admitted%pruneEvery == 0 {
		for id, t := range l.lastSeen {
			if now.Sub(t) >= l.interval {
				delete(l.lastSeen, id)
			}
		}
	}
	return true
}

func (l *limiter) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.lastSeen)
}

func updateKind(upd tele.Update) string {
	switch {
	case upd.Callback != nil:
		return kindCallback
	case upd.Message != nil:
		return kindMessage
	case upd.Query != nil:
		return kindInlineQuery
	}
	return kindOther
}

// RateLimitMiddleware drops updates that arrive from the same user sooner
// than opts.Interval after the previous admitted one.
func RateLimitMiddleware(opts RateLimitOptions) tele.MiddlewareFunc {
	lim := newLimiter(opts.Interval, opts.now)
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			user := c.Sender()
			if user == nil || opts.Interval <= 0 {
				return next(c)
			}
			kind := updateKind(c.Update())
			if _, skip := opts.Exclude[kind]; skip {
				return next(c)
			}
			if lim.allow(user.ID) {
				return next(c)
			}
			logger.Warn(tghelpers.BuildContext(c), "tg", "tg.rate_limit",
				slog.String("update_kind", kind),
				slog.String("status", "rate_limited"),
			)
			if opts.OnLimited != nil {
				_ = opts.OnLimited(c)
			}
			return nil
		}
	}
}
