package services

import (
	"context"
	"time"

	"aponte/internal/metrics"
	"aponte/internal/models"

	"github.com/rs/zerolog/log"
)

// Notifier tells users that something changed for them
type Notifier interface {
	MessagesChanged(ctx context.Context, userID, matchID int64, preview string)
	MatchAssigned(ctx context.Context, userID, matchID int64)
}

// Pusher delivers a mobile push notification
type Pusher interface {
	Push(ctx context.Context, deviceToken, alert string, matchID int64) error
}

// PushTokens looks up the device token of a user
type PushTokens interface {
	PushToken(ctx context.Context, userID int64) (string, error)
}

// Dispatcher notifies over the websocket when the user is connected and
// falls back to APNs otherwise. Failures are logged, never returned.
type Dispatcher struct {
	hub     *WSHub
	pusher  Pusher
	tokens  PushTokens
	metrics *metrics.Metrics
}

// NewDispatcher creates a dispatcher. pusher may be nil to disable push.
func NewDispatcher(hub *WSHub, pusher Pusher, tokens PushTokens, m *metrics.Metrics) *Dispatcher {
	return &Dispatcher{hub: hub, pusher: pusher, tokens: tokens, metrics: m}
}

func (d *Dispatcher) MessagesChanged(ctx context.Context, userID, matchID int64, preview string) {
	event := models.Event{Type: models.EventMessagesChanged, MatchID: matchID, Timestamp: time.Now().UnixMilli()}
	d.deliver(ctx, userID, event, preview)
}

func (d *Dispatcher) MatchAssigned(ctx context.Context, userID, matchID int64) {
	d.metrics.MatchAssigned()
	event := models.Event{Type: models.EventMatchAssigned, MatchID: matchID, Timestamp: time.Now().UnixMilli()}
	d.deliver(ctx, userID, event, "You have a new match today!")
}

func (d *Dispatcher) deliver(ctx context.Context, userID int64, event models.Event, alert string) {
	if d.hub != nil && d.hub.IsOnline(userID) {
		err := d.hub.SendToUser(userID, event)
		if err == nil {
			return
		}
		log.Warn().Err(err).Int64("user_id", userID).Str("type", event.Type).Msg("Failed to send realtime event")
	}

	if d.pusher == nil || d.tokens == nil {
		return
	}

	// push outlives the request
	ctx = context.WithoutCancel(ctx)
	go func() {
		pushCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()

		token, err := d.tokens.PushToken(pushCtx, userID)
		if err != nil {
			log.Error().Err(err).Int64("user_id", userID).Msg("Failed to load push token")
			return
		}
		if token == "" {
			return
		}

		if err := d.pusher.Push(pushCtx, token, alert, event.MatchID); err != nil {
			d.metrics.Push("failed")
			log.Error().Err(err).Int64("user_id", userID).Msg("Failed to send push notification")
			return
		}
		d.metrics.Push("sent")
	}()
}
