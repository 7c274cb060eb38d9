package services

import (
	"context"
	"fmt"
	"strconv"
	"time"
)

const (
	messagesMinuteWindow = time.Minute
	messages10SecWindow  = 10 * time.Second
)

// WindowStore keeps fixed-window counters
type WindowStore interface {
	IncrementWindow(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error)
	WindowState(ctx context.Context, key string) (int64, time.Duration, error)
}

// Limiter enforces per-user message quotas over a one minute and a ten
// second window. A zero quota disables that window.
type Limiter struct {
	store     WindowStore
	perMinute int
	per10Sec  int
}

// NewLimiter creates a limiter
func NewLimiter(store WindowStore, perMinute, per10Sec int) *Limiter {
	return &Limiter{
		store:     store,
		perMinute: max(perMinute, 0),
		per10Sec:  max(per10Sec, 0),
	}
}

// AllowMessage counts one send and reports whether it is within quota. When
// it is not, the first value is the number of seconds to wait.
func (l *Limiter) AllowMessage(ctx context.Context, userID int64) (int64, bool, error) {
	if userID <= 0 {
		return 0, false, fmt.Errorf("invalid user id")
	}
	if l.store == nil {
		return 0, false, fmt.Errorf("rate limiter store is nil")
	}

	retryAfterSec := int64(0)
	for _, w := range l.windows(userID) {
		count, ttl, err := l.store.IncrementWindow(ctx, w.key, w.length)
		if err != nil {
			return 0, false, err
		}
		if count > int64(w.quota) {
			retryAfterSec = max(retryAfterSec, ceilSeconds(ttl))
		}
	}

	if retryAfterSec > 0 {
		return retryAfterSec, false, nil
	}
	return 0, true, nil
}

// RetryAfter reports how long userID must wait before the next send, without
// counting a send.
func (l *Limiter) RetryAfter(ctx context.Context, userID int64) (int64, error) {
	if userID <= 0 {
		return 0, fmt.Errorf("invalid user id")
	}
	if l.store == nil {
		return 0, fmt.Errorf("rate limiter store is nil")
	}

	retryAfterSec := int64(0)
	for _, w := range l.windows(userID) {
		count, ttl, err := l.store.WindowState(ctx, w.key)
		if err != nil {
			return 0, err
		}
		if count >= int64(w.quota) {
			retryAfterSec = max(retryAfterSec, ceilSeconds(ttl))
		}
	}
	return retryAfterSec, nil
}

type window struct {
	key    string
	length time.Duration
	quota  int
}

func (l *Limiter) windows(userID int64) []window {
	id := strconv.FormatInt(userID, 10)
	var out []window
	if l.perMinute > 0 {
		out = append(out, window{key: "rate:messages:min:" + id, length: messagesMinuteWindow, quota: l.perMinute})
	}
	if l.per10Sec > 0 {
		out = append(out, window{key: "rate:messages:10s:" + id, length: messages10SecWindow, quota: l.per10Sec})
	}
	return out
}

func ceilSeconds(d time.Duration) int64 {
	if d <= 0 {
		return 0
	}
	sec := int64(d / time.Second)
	if d%time.Second != 0 {
		sec++
	}
	return max(sec, 1)
}
