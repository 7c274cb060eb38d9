package controller

import (
	"context"
	"fmt"
	"sync"

	"aponte/internal/models"
	"aponte/internal/navigation"
	"aponte/internal/session"
	"aponte/internal/validate"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Snapshot is the in-memory view of the signed-in user. Profile is nil while
// loading or after a failed fetch; Match is nil when there is no match today.
type Snapshot struct {
	Authenticated bool
	Session       models.Session
	Profile       *models.Profile
	Match         *models.MatchOfTheDay
	CacheBust     string
}

// SessionController restores, creates and destroys the session and keeps the
// profile and match of the day loaded.
type SessionController struct {
	api    API
	store  session.Store
	nav    navigation.Navigator
	logger zerolog.Logger
	guard  Guard

	mu         sync.Mutex
	snap       Snapshot
	matchSinks []matchSink
}

type matchSink func(*models.MatchOfTheDay)

// NewSessionController creates a session controller
func NewSessionController(api API, store session.Store, nav navigation.Navigator, logger zerolog.Logger) *SessionController {
	return &SessionController{
		api:    api,
		store:  store,
		nav:    nav,
		logger: logger,
		snap:   Snapshot{CacheBust: uuid.NewString()},
	}
}

// OnMatchChanged registers fn to be told whenever the loaded match changes
func (c *SessionController) OnMatchChanged(fn func(*models.MatchOfTheDay)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.matchSinks = append(c.matchSinks, fn)
}

// Bootstrap restores a stored session. Without one it navigates to Login
// and makes no network calls.
func (c *SessionController) Bootstrap(ctx context.Context) (Snapshot, error) {
	sess, err := c.store.Load(ctx)
	if err != nil {
		c.logger.Error().Err(err).Msg("Failed to read stored session")
		sess = nil
	}
	if !sess.Valid() {
		c.logger.Info().Msg("No stored session, sending user to login")
		c.nav.Reset(navigation.Login{})
		return c.Snapshot(), nil
	}

	c.api.SetToken(sess.Token)
	c.mu.Lock()
	c.snap.Authenticated = true
	c.snap.Session = *sess
	c.mu.Unlock()

	c.nav.Reset(navigation.Main{Tab: navigation.TabMatch})
	c.Reload(ctx)
	return c.Snapshot(), nil
}

// Login validates credentials locally, authenticates and stores the session
func (c *SessionController) Login(ctx context.Context, email, password string) error {
	if err := validate.Email(email); err != nil {
		return err
	}
	if err := validate.Password(password); err != nil {
		return err
	}

	return c.guard.Do(func() error {
		sess, err := c.api.Login(ctx, email, password)
		if err != nil {
			c.logger.Warn().Err(err).Str("email", email).Msg("Login failed")
			return err
		}
		return c.Establish(ctx, *sess)
	})
}

// Establish stores a freshly issued session, moves to the main screen and
// loads the user's data.
func (c *SessionController) Establish(ctx context.Context, sess models.Session) error {
	if err := c.store.Save(ctx, sess); err != nil {
		return fmt.Errorf("failed to store session: %w", err)
	}

	c.api.SetToken(sess.Token)
	c.mu.Lock()
	c.snap.Authenticated = true
	c.snap.Session = sess
	c.mu.Unlock()

	c.logger.Info().Int64("user_id", sess.UserID).Msg("Session established")
	c.nav.Reset(navigation.Main{Tab: navigation.TabMatch})
	c.Reload(ctx)
	return nil
}

// Reload fetches today's match and the profile. A failed match fetch means
// no match today; a failed profile fetch leaves the profile loading.
func (c *SessionController) Reload(ctx context.Context) {
	c.mu.Lock()
	sess := c.snap.Session
	authenticated := c.snap.Authenticated
	c.mu.Unlock()
	if !authenticated {
		return
	}

	match, err := c.api.TodayMatch(ctx)
	if err != nil {
		c.logger.Warn().Err(err).Int64("user_id", sess.UserID).Msg("Failed to load match of the day")
		match = nil
	}

	profile, err := c.api.GetProfile(ctx, sess.UserID)
	if err != nil {
		c.logger.Error().Err(err).Int64("user_id", sess.UserID).Msg("Failed to load profile")
		profile = nil
	}

	c.mu.Lock()
	c.snap.Match = match
	c.snap.Profile = profile
	sinks := append([]matchSink(nil), c.matchSinks...)
	c.mu.Unlock()

	for _, sink := range sinks {
		sink(match)
	}
}

// Logout clears the stored session and returns to the welcome screen
func (c *SessionController) Logout(ctx context.Context) error {
	if err := c.store.Clear(ctx); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}

	c.api.SetToken("")
	c.mu.Lock()
	c.snap = Snapshot{CacheBust: uuid.NewString()}
	sinks := append([]matchSink(nil), c.matchSinks...)
	c.mu.Unlock()

	for _, sink := range sinks {
		sink(nil)
	}

	c.logger.Info().Msg("Logged out")
	c.nav.Reset(navigation.Welcome{})
	return nil
}

// BustImageCache rotates the token appended to photo URLs
func (c *SessionController) BustImageCache() string {
	bust := uuid.NewString()
	c.mu.Lock()
	c.snap.CacheBust = bust
	c.mu.Unlock()
	return bust
}

// PhotoURL returns the cache-busted photo URL of a profile
func (c *SessionController) PhotoURL(profileID int64) string {
	c.mu.Lock()
	bust := c.snap.CacheBust
	c.mu.Unlock()
	return c.api.PhotoURL(profileID, bust)
}

// Snapshot returns a copy of the current state
func (c *SessionController) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snap
}
