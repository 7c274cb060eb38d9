package controller

import (
	"context"
	"strings"
	"sync"

	"aponte/internal/models"
	"aponte/internal/poller"
	"aponte/internal/validate"

	"github.com/rs/zerolog"
)

// ChatController runs the message poller only while the chat view is active,
// a match is loaded and a session token is present.
type ChatController struct {
	api    API
	poller *poller.Poller
	logger zerolog.Logger
	guard  Guard

	// lifecycle serializes start/stop of the poll loop
	lifecycle sync.Mutex

	mu       sync.Mutex
	parent   context.Context
	active   bool
	match    *models.MatchOfTheDay
	onUpdate func(poller.Update)
	running  int64
	cancel   context.CancelFunc
	done     chan struct{}
}

// NewChatController creates a chat controller around p
func NewChatController(api API, p *poller.Poller, logger zerolog.Logger) *ChatController {
	return &ChatController{
		api:    api,
		poller: p,
		logger: logger,
		parent: context.Background(),
	}
}

// Activate marks the chat view active. onUpdate receives every replacement
// of the message list and should scroll to Update.ScrollTo.
func (c *ChatController) Activate(ctx context.Context, onUpdate func(poller.Update)) {
	c.mu.Lock()
	c.parent = ctx
	c.active = true
	c.onUpdate = onUpdate
	c.mu.Unlock()
	c.reconcile()
}

// Deactivate marks the chat view inactive and stops polling before returning
func (c *ChatController) Deactivate() {
	c.mu.Lock()
	c.active = false
	c.mu.Unlock()
	c.reconcile()
}

// SetMatch swaps the current match. Messages are never carried across matches.
func (c *ChatController) SetMatch(match *models.MatchOfTheDay) {
	c.mu.Lock()
	previous := c.match
	c.match = match
	c.mu.Unlock()

	if match == nil || (previous != nil && previous.ID != match.ID) {
		c.poller.Reset()
	}
	c.reconcile()
}

// Polling reports whether a poll loop is running
func (c *ChatController) Polling() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cancel != nil
}

// Messages returns the held messages of the current match
func (c *ChatController) Messages() []models.Message {
	c.mu.Lock()
	match := c.match
	c.mu.Unlock()
	if match == nil {
		return nil
	}
	return c.poller.Messages(match.ID)
}

// Send posts text to the current match and asks the poller to refresh
func (c *ChatController) Send(ctx context.Context, text string) (*models.Message, error) {
	text = strings.TrimSpace(text)
	if err := validate.NonEmpty("text", text); err != nil {
		return nil, err
	}

	c.mu.Lock()
	match := c.match
	c.mu.Unlock()
	if match == nil {
		return nil, ErrNoMatch
	}
	if c.api.Token() == "" {
		return nil, ErrUnauthenticated
	}

	var sent *models.Message
	err := c.guard.Do(func() error {
		msg, err := c.api.SendMessage(ctx, match.ID, text)
		if err != nil {
			c.logger.Error().Err(err).Int64("match_id", match.ID).Msg("Failed to send message")
			return err
		}
		sent = msg
		return nil
	})
	if err != nil {
		return nil, err
	}

	c.poller.Nudge()
	return sent, nil
}

// Nudge triggers an immediate poll when matchID is the current match
func (c *ChatController) Nudge(matchID int64) {
	c.mu.Lock()
	running := c.running
	c.mu.Unlock()
	if running != 0 && running == matchID {
		c.poller.Nudge()
	}
}

// reconcile starts or stops the poll loop to match the current conditions.
// onUpdate callbacks must not call back into Deactivate or SetMatch synchronously.
func (c *ChatController) reconcile() {
	c.lifecycle.Lock()
	defer c.lifecycle.Unlock()

	c.mu.Lock()
	want := int64(0)
	if c.active && c.match != nil && c.api.Token() != "" {
		want = c.match.ID
	}
	if want == c.running && (want == 0) == (c.cancel == nil) {
		c.mu.Unlock()
		return
	}

	cancel, done := c.cancel, c.done
	c.cancel, c.done, c.running = nil, nil, 0
	c.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
	if want == 0 {
		return
	}

	c.mu.Lock()
	ctx, stop := context.WithCancel(c.parent)
	finished := make(chan struct{})
	c.cancel, c.done, c.running = stop, finished, want
	onUpdate := c.onUpdate
	c.mu.Unlock()

	c.logger.Debug().Int64("match_id", want).Msg("Message polling started")
	go func() {
		defer close(finished)
		if err := c.poller.Run(ctx, want, onUpdate); err != nil {
			c.logger.Error().Err(err).Int64("match_id", want).Msg("Message polling stopped")
		}
	}()
}
