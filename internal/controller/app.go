package controller

import (
	"time"

	"aponte/internal/models"
	"aponte/internal/navigation"
	"aponte/internal/poller"
	"aponte/internal/session"

	"github.com/rs/zerolog"
)

// Options tunes the controllers built by NewApp
type Options struct {
	PollInterval      time.Duration
	CountdownInterval time.Duration
	ChangeDetection   string
	WithInterests     bool
	Now               func() time.Time
}

// App wires the controllers together around one API client and route stack
type App struct {
	API     API
	Nav     *navigation.Stack
	Session *SessionController
	Match   *MatchController
	Chat    *ChatController
	Editor  *ProfileEditor

	logger  zerolog.Logger
	options Options
}

// NewApp builds the controllers. Match changes loaded by the session are
// forwarded to the match and chat controllers.
func NewApp(api API, store session.Store, logger zerolog.Logger, opts Options) *App {
	nav := navigation.NewStack(navigation.Welcome{})
	sess := NewSessionController(api, store, nav, logger.With().Str("component", "session").Logger())

	p := poller.New(api, poller.DetectorFor(opts.ChangeDetection), opts.PollInterval,
		logger.With().Str("component", "poller").Logger())

	app := &App{
		API:     api,
		Nav:     nav,
		Session: sess,
		Match:   NewMatchController(opts.CountdownInterval, opts.Now),
		Chat:    NewChatController(api, p, logger.With().Str("component", "chat").Logger()),
		Editor:  NewProfileEditor(api, sess, logger.With().Str("component", "profile").Logger()),
		logger:  logger,
		options: opts,
	}

	sess.OnMatchChanged(func(m *models.MatchOfTheDay) {
		app.Match.SetMatch(m)
		app.Chat.SetMatch(m)
	})
	return app
}

// NewRegistration starts a fresh registration flow
func (a *App) NewRegistration() *Registration {
	r := NewRegistration(a.API, a.Session, a.Nav, a.logger.With().Str("component", "registration").Logger(), a.options.WithInterests)
	if a.options.Now != nil {
		r.now = a.options.Now
	}
	return r
}

// Close stops every background job
func (a *App) Close() {
	a.Match.StopCountdown()
	a.Chat.Deactivate()
}
