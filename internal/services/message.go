package services

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"aponte/internal/models"

	"github.com/rs/zerolog/log"
)

const maxMessageRunes = 2000

// MessageStore is the persistence the message service needs
type MessageStore interface {
	Create(ctx context.Context, msg *models.Message) error
	ListByMatch(ctx context.Context, matchID int64) ([]models.Message, error)
}

// SendLimiter throttles message sends per user
type SendLimiter interface {
	AllowMessage(ctx context.Context, userID int64) (int64, bool, error)
}

// MessageService handles chat inside a match
type MessageService struct {
	messages MessageStore
	matches  *MatchService
	limiter  SendLimiter
	notifier Notifier
}

// NewMessageService creates a new message service. limiter and notifier may be nil.
func NewMessageService(messages MessageStore, matches *MatchService, limiter SendLimiter, notifier Notifier) *MessageService {
	return &MessageService{
		messages: messages,
		matches:  matches,
		limiter:  limiter,
		notifier: notifier,
	}
}

// List returns the messages of a match the user belongs to, oldest first
func (s *MessageService) List(ctx context.Context, userID, matchID int64) ([]models.Message, error) {
	if _, err := s.matches.Member(ctx, matchID, userID); err != nil {
		return nil, err
	}
	return s.messages.ListByMatch(ctx, matchID)
}

// Send stores a message from userID and tells the partner to refetch
func (s *MessageService) Send(ctx context.Context, userID, matchID int64, text string) (*models.Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, invalid("text is required")
	}
	if utf8.RuneCountInString(text) > maxMessageRunes {
		return nil, invalid("text is longer than %d characters", maxMessageRunes)
	}

	match, err := s.matches.Member(ctx, matchID, userID)
	if err != nil {
		return nil, err
	}
	if s.matches.Expired(match) {
		return nil, ErrMatchExpired
	}

	if s.limiter != nil {
		retryAfter, allowed, err := s.limiter.AllowMessage(ctx, userID)
		if err != nil {
			// the limiter store being down should not stop the chat
			log.Error().Err(err).Int64("user_id", userID).Msg("Rate limiter unavailable")
		} else if !allowed {
			return nil, &RateLimitError{RetryAfterSec: retryAfter}
		}
	}

	msg := &models.Message{
		MatchID:    matchID,
		SenderID:   userID,
		ReceiverID: match.PartnerOf(userID),
		Text:       text,
	}
	if err := s.messages.Create(ctx, msg); err != nil {
		return nil, fmt.Errorf("failed to store message: %w", err)
	}

	if s.notifier != nil {
		s.notifier.MessagesChanged(ctx, msg.ReceiverID, matchID, text)
	}
	return msg, nil
}
