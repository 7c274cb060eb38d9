package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"aponte/internal/models"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// Handlers receive decoded events. Nil handlers are skipped.
type Handlers struct {
	MessagesChanged func(matchID int64)
	MatchAssigned   func()
}

// URLSource returns the websocket URL to dial, including the session token
type URLSource func() (string, error)

// Listener keeps a websocket to the backend open and turns its events into
// handler calls. Events are hints only; polling stays the source of truth.
type Listener struct {
	url      URLSource
	dialer   *websocket.Dialer
	handlers Handlers
	retry    time.Duration
	logger   zerolog.Logger
}

// NewListener creates a listener. retry is the pause before reconnecting.
func NewListener(url URLSource, handlers Handlers, retry time.Duration, logger zerolog.Logger) *Listener {
	if retry <= 0 {
		retry = 5 * time.Second
	}
	return &Listener{
		url:      url,
		dialer:   &websocket.Dialer{HandshakeTimeout: 10 * time.Second},
		handlers: handlers,
		retry:    retry,
		logger:   logger,
	}
}

// Run connects and dispatches events until ctx is done, reconnecting after
// failures.
func (l *Listener) Run(ctx context.Context) error {
	for {
		if err := l.session(ctx); err != nil && ctx.Err() == nil {
			l.logger.Warn().Err(err).Dur("retry_in", l.retry).Msg("Realtime connection lost")
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(l.retry):
		}
	}
}

func (l *Listener) session(ctx context.Context) error {
	target, err := l.url()
	if err != nil {
		return fmt.Errorf("failed to build events url: %w", err)
	}

	conn, _, err := l.dialer.DialContext(ctx, target, nil)
	if err != nil {
		return fmt.Errorf("failed to dial events: %w", err)
	}
	defer conn.Close()

	stop := context.AfterFunc(ctx, func() {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
		conn.Close()
	})
	defer stop()

	l.logger.Info().Msg("Realtime connection established")

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure) || ctx.Err() != nil {
				return nil
			}
			return err
		}

		var event models.Event
		if err := json.Unmarshal(raw, &event); err != nil {
			l.logger.Error().Err(err).Msg("Failed to parse realtime event")
			continue
		}
		l.dispatch(event)
	}
}

func (l *Listener) dispatch(event models.Event) {
	switch event.Type {
	case models.EventMessagesChanged:
		if l.handlers.MessagesChanged != nil && event.MatchID > 0 {
			l.handlers.MessagesChanged(event.MatchID)
		}
	case models.EventMatchAssigned:
		if l.handlers.MatchAssigned != nil {
			l.handlers.MatchAssigned()
		}
	case models.EventError:
		l.logger.Warn().Str("message", event.Message).Msg("Backend reported realtime error")
	default:
		l.logger.Debug().Str("type", event.Type).Msg("Ignoring realtime event")
	}
}
