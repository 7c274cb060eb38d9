package poller

import (
	"context"
	"fmt"
	"sync"
	"time"

	"aponte/internal/models"

	"github.com/rs/zerolog"
)

// Source fetches the full message list of one match
type Source interface {
	ListMessages(ctx context.Context, matchID int64) ([]models.Message, error)
}

// Update is delivered when the held message list was replaced
type Update struct {
	MatchID  int64
	Messages []models.Message
	// ScrollTo is the index of the newest message, -1 for an empty list
	ScrollTo int
}

// Poller re-fetches a match's messages on a fixed interval and replaces the
// held list when its ChangeDetector reports a change.
type Poller struct {
	source   Source
	detector ChangeDetector
	interval time.Duration
	logger   zerolog.Logger
	nudge    chan struct{}

	mu      sync.Mutex
	matchID int64
	held    []models.Message
}

// New creates a poller. A nil detector means FingerprintDetector.
func New(source Source, detector ChangeDetector, interval time.Duration, logger zerolog.Logger) *Poller {
	if detector == nil {
		detector = FingerprintDetector{}
	}
	if interval <= 0 {
		interval = time.Second
	}
	return &Poller{
		source:   source,
		detector: detector,
		interval: interval,
		logger:   logger,
		nudge:    make(chan struct{}, 1),
	}
}

// Run polls matchID until ctx is done. The first fetch happens immediately.
// A response that arrives after ctx is done is dropped.
func (p *Poller) Run(ctx context.Context, matchID int64, onUpdate func(Update)) error {
	if matchID <= 0 {
		return fmt.Errorf("invalid match id %d", matchID)
	}

	p.mu.Lock()
	if p.matchID != matchID {
		p.matchID = matchID
		p.held = nil
	}
	p.mu.Unlock()

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.poll(ctx, matchID, onUpdate)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		case <-p.nudge:
		}
		if ctx.Err() != nil {
			return nil
		}
		p.poll(ctx, matchID, onUpdate)
	}
}

// Nudge asks a running poller to fetch now instead of waiting for the tick
func (p *Poller) Nudge() {
	select {
	case p.nudge <- struct{}{}:
	default:
	}
}

// Messages returns a copy of the held list for matchID
func (p *Poller) Messages(matchID int64) []models.Message {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.matchID != matchID {
		return nil
	}
	out := make([]models.Message, len(p.held))
	copy(out, p.held)
	return out
}

// Reset forgets the held list
func (p *Poller) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.matchID = 0
	p.held = nil
}

func (p *Poller) poll(ctx context.Context, matchID int64, onUpdate func(Update)) {
	fetched, err := p.source.ListMessages(ctx, matchID)
	if ctx.Err() != nil {
		return
	}
	if err != nil {
		p.logger.Warn().Err(err).Int64("match_id", matchID).Msg("Failed to poll messages")
		return
	}

	fetched = onlyMatch(fetched, matchID)

	p.mu.Lock()
	if p.matchID != matchID || !p.detector.Changed(p.held, fetched) {
		p.mu.Unlock()
		return
	}
	p.held = fetched
	update := Update{MatchID: matchID, Messages: append([]models.Message(nil), fetched...), ScrollTo: len(fetched) - 1}
	p.mu.Unlock()

	p.logger.Debug().Int64("match_id", matchID).Int("count", len(fetched)).Msg("Messages replaced")
	if onUpdate != nil {
		onUpdate(update)
	}
}

// onlyMatch keeps the messages that belong to matchID; anything else,
// including messages without a match id, is dropped
func onlyMatch(messages []models.Message, matchID int64) []models.Message {
	out := messages[:0:0]
	for _, m := range messages {
		if m.MatchID == matchID {
			out = append(out, m)
		}
	}
	return out
}
