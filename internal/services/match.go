package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"aponte/internal/models"

	"github.com/rs/zerolog/log"
)

// MatchStore is the persistence the match service needs
type MatchStore interface {
	GetByID(ctx context.Context, id int64) (*models.Match, error)
	ActiveForUser(ctx context.Context, userID int64, now time.Time) (*models.Match, error)
	AssignDaily(ctx context.Context, userID int64, now, expiresAt time.Time) (*models.Match, bool, error)
}

// MatchService hands out the daily match
type MatchService struct {
	matches  MatchStore
	profiles ProfileStore
	notifier Notifier
	now      func() time.Time
}

// NewMatchService creates a new match service. notifier may be nil.
func NewMatchService(matches MatchStore, profiles ProfileStore, notifier Notifier) *MatchService {
	return &MatchService{
		matches:  matches,
		profiles: profiles,
		notifier: notifier,
		now:      time.Now,
	}
}

// NextMidnightUTC returns the first UTC midnight strictly after t
func NextMidnightUTC(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day()+1, 0, 0, 0, 0, time.UTC)
}

// Today returns userID's match of the day, assigning one if needed. It
// returns nil when userID has no profile yet or nobody is available.
func (s *MatchService) Today(ctx context.Context, userID int64) (*models.MatchOfTheDay, error) {
	if _, err := s.profiles.GetByUserID(ctx, userID); err != nil {
		if errors.Is(err, ErrNotFound) {
			log.Debug().Int64("user_id", userID).Msg("No profile, skipping match assignment")
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}

	now := s.now().UTC()

	match, created, err := s.matches.AssignDaily(ctx, userID, now, NextMidnightUTC(now))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to assign match: %w", err)
	}

	partnerID := match.PartnerOf(userID)
	if created {
		log.Info().
			Int64("match_id", match.ID).
			Int64("user_id", userID).
			Int64("partner_id", partnerID).
			Time("expires_at", match.ExpiresAt).
			Msg("Match assigned")
		if s.notifier != nil {
			s.notifier.MatchAssigned(ctx, partnerID, match.ID)
		}
	}

	partner, err := s.profiles.GetByUserID(ctx, partnerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load matched profile: %w", err)
	}

	return &models.MatchOfTheDay{
		ID:             match.ID,
		MatchedProfile: *withPhotoURL(partner),
		ExpiresAt:      match.ExpiresAt,
	}, nil
}

// Member returns the match if userID belongs to it, ErrForbidden otherwise
func (s *MatchService) Member(ctx context.Context, matchID, userID int64) (*models.Match, error) {
	match, err := s.matches.GetByID(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if match.PartnerOf(userID) == 0 {
		return nil, ErrForbidden
	}
	return match, nil
}

// Expired reports whether the match is over
func (s *MatchService) Expired(match *models.Match) bool {
	return !s.now().Before(match.ExpiresAt)
}
