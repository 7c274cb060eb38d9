package countdown

import (
	"context"
	"fmt"
	"time"
)

const (
	// Expired is shown once the match expiry has been reached
	Expired = "EXPIRED"
	// Placeholder is shown while no match is loaded
	Placeholder = "--:--:--"

	maxHours = 99
)

// Format renders the time left until expiresAt as HH:MM:SS. Zero or negative
// remaining time is Expired.
func Format(expiresAt, now time.Time) string {
	remaining := expiresAt.Sub(now)
	if remaining <= 0 {
		return Expired
	}

	total := int64(remaining / time.Second)
	hours := total / 3600
	minutes := (total % 3600) / 60
	seconds := total % 60
	if hours > maxHours {
		hours, minutes, seconds = maxHours, 59, 59
	}
	return fmt.Sprintf("%02d:%02d:%02d", hours, minutes, seconds)
}

// Display is Format with the no-match placeholder
func Display(expiresAt *time.Time, now time.Time) string {
	if expiresAt == nil {
		return Placeholder
	}
	return Format(*expiresAt, now)
}

// Ticker recomputes the countdown on a fixed interval
type Ticker struct {
	interval time.Duration
	now      func() time.Time
}

// NewTicker creates a ticker; now defaults to time.Now
func NewTicker(interval time.Duration, now func() time.Time) *Ticker {
	if interval <= 0 {
		interval = time.Second
	}
	if now == nil {
		now = time.Now
	}
	return &Ticker{interval: interval, now: now}
}

// Run emits the countdown immediately and then every interval until ctx is
// done or Expired has been emitted.
func (t *Ticker) Run(ctx context.Context, expiresAt time.Time, emit func(string)) {
	if emitAndCheck(emit, Format(expiresAt, t.now())) {
		return
	}

	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if ctx.Err() != nil {
				return
			}
			if emitAndCheck(emit, Format(expiresAt, t.now())) {
				return
			}
		}
	}
}

func emitAndCheck(emit func(string), value string) bool {
	emit(value)
	return value == Expired
}
