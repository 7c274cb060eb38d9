package controller

import (
	"context"
	"sync"
	"time"

	"aponte/internal/countdown"
	"aponte/internal/models"
)

// MatchController holds the match of the day and drives its countdown
type MatchController struct {
	ticker *countdown.Ticker
	now    func() time.Time

	mu     sync.Mutex
	match  *models.MatchOfTheDay
	emit   func(string)
	cancel context.CancelFunc
	done   chan struct{}
}

// NewMatchController creates a match controller; now defaults to time.Now
func NewMatchController(interval time.Duration, now func() time.Time) *MatchController {
	if now == nil {
		now = time.Now
	}
	return &MatchController{
		ticker: countdown.NewTicker(interval, now),
		now:    now,
	}
}

// SetMatch swaps the loaded match. A running countdown restarts on the new
// expiry; a nil match stops it and shows the placeholder.
func (c *MatchController) SetMatch(match *models.MatchOfTheDay) {
	c.mu.Lock()
	c.match = match
	emit := c.emit
	c.mu.Unlock()

	if emit != nil {
		c.StartCountdown(emit)
	}
}

// Match returns the loaded match or nil
func (c *MatchController) Match() *models.MatchOfTheDay {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.match
}

// Display renders the countdown once
func (c *MatchController) Display() string {
	c.mu.Lock()
	match := c.match
	c.mu.Unlock()
	if match == nil {
		return countdown.Placeholder
	}
	return countdown.Format(match.ExpiresAt, c.now())
}

// StartCountdown emits the countdown every interval while a match is loaded.
// Any previous countdown is stopped first.
func (c *MatchController) StartCountdown(emit func(string)) {
	c.StopCountdown()

	c.mu.Lock()
	c.emit = emit
	match := c.match
	if match == nil {
		c.mu.Unlock()
		emit(countdown.Placeholder)
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	c.cancel, c.done = cancel, done
	c.mu.Unlock()

	go func() {
		defer close(done)
		c.ticker.Run(ctx, match.ExpiresAt, emit)
	}()
}

// StopCountdown cancels the running countdown and waits for it to exit
func (c *MatchController) StopCountdown() {
	c.mu.Lock()
	cancel, done := c.cancel, c.done
	c.cancel, c.done = nil, nil
	c.emit = nil
	c.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
}
