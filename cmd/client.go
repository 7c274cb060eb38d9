package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"aponte/internal/apiclient"
	"aponte/internal/config"
	"aponte/internal/controller"
	"aponte/internal/countdown"
	"aponte/internal/models"
	"aponte/internal/poller"
	"aponte/internal/realtime"
	"aponte/internal/session"

	"github.com/rs/zerolog/log"
)

// clientApp is the client core plus the concrete API client behind it
type clientApp struct {
	*controller.App
	client *apiclient.Client
	cfg    *config.Config
}

func newClientApp(cfg *config.Config) (*clientApp, error) {
	client, err := apiclient.NewClient(cfg.API.BaseURL, cfg.API.Timeout)
	if err != nil {
		return nil, err
	}
	app := controller.NewApp(client, session.NewFileStore(cfg.Session.Path), log.Logger, controller.Options{
		PollInterval:      cfg.Poll.Interval,
		CountdownInterval: cfg.Countdown.Interval,
		ChangeDetection:   cfg.Poll.ChangeDetection,
		WithInterests:     cfg.Registration.WithInterests,
	})
	return &clientApp{App: app, client: client, cfg: cfg}, nil
}

// signedIn restores the stored session or fails with a hint to log in
func (a *clientApp) signedIn(ctx context.Context) (controller.Snapshot, error) {
	snap, err := a.Session.Bootstrap(ctx)
	if err != nil {
		return snap, err
	}
	if !snap.Authenticated {
		return snap, errors.New("not signed in, run `aponte login` first")
	}
	return snap, nil
}

// listen runs the realtime listener when enabled. A message event nudges the
// chat poller; a match event reloads the session.
func (a *clientApp) listen(ctx context.Context) {
	if !a.cfg.Realtime.Enabled {
		return
	}
	l := realtime.NewListener(a.client.EventsURL, realtime.Handlers{
		MessagesChanged: a.Chat.Nudge,
		MatchAssigned:   func() { a.Session.Reload(ctx) },
	}, 5*time.Second, log.Logger.With().Str("component", "realtime").Logger())
	go l.Run(ctx)
}

func userFacing(err error) error {
	if err == nil {
		return nil
	}
	log.Debug().Err(err).Msg("Command failed")
	return errors.New(controller.UserMessage(err))
}

func runLogin(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("login", flag.ExitOnError)
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "account password")
	_ = fs.Parse(args)

	app, err := newClientApp(cfg)
	if err != nil {
		return err
	}
	defer app.Close()

	if err := app.Session.Login(ctx, strings.TrimSpace(*email), *password); err != nil {
		return userFacing(err)
	}
	printStatus(app, app.Session.Snapshot())
	return nil
}

func runRegister(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("register", flag.ExitOnError)
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "account password, at least 6 characters")
	name := fs.String("name", "", "display name")
	birthDate := fs.String("birth-date", "", "birth date as YYYY-MM-DD")
	bio := fs.String("bio", "", "short bio")
	photo := fs.String("photo", "", "optional profile photo file")
	interests := fs.String("interests", "", "comma separated interests")
	_ = fs.Parse(args)

	app, err := newClientApp(cfg)
	if err != nil {
		return err
	}
	defer app.Close()

	reg := app.NewRegistration()
	reg.Form = controller.RegistrationForm{
		Email:     strings.TrimSpace(*email),
		Password:  *password,
		Name:      strings.TrimSpace(*name),
		BirthDate: strings.TrimSpace(*birthDate),
		Bio:       strings.TrimSpace(*bio),
		Interests: splitList(*interests),
	}
	if *photo != "" {
		upload, closeFn, err := openPhoto(*photo)
		if err != nil {
			return err
		}
		defer closeFn()
		reg.Form.Photo = upload
	}

	for {
		step := reg.Current()
		done, err := reg.Next(ctx)
		if err != nil {
			var stageErr *controller.StageError
			if errors.As(err, &stageErr) {
				return fmt.Errorf("registration stopped at %q: %s", stageErr.Stage, controller.UserMessage(err))
			}
			return fmt.Errorf("%s: %s", step, controller.UserMessage(err))
		}
		if done {
			break
		}
		current, total := reg.Progress()
		log.Debug().Str("step", reg.Current().String()).Int("current", current).Int("total", total).Msg("Registration step")
	}

	fmt.Println("Welcome to Aponte!")
	printStatus(app, app.Session.Snapshot())
	return nil
}

func runLogout(ctx context.Context, cfg *config.Config, _ []string) error {
	app, err := newClientApp(cfg)
	if err != nil {
		return err
	}
	defer app.Close()

	if err := app.Session.Logout(ctx); err != nil {
		return err
	}
	fmt.Println("Signed out.")
	return nil
}

func runStatus(ctx context.Context, cfg *config.Config, _ []string) error {
	app, err := newClientApp(cfg)
	if err != nil {
		return err
	}
	defer app.Close()

	snap, err := app.Session.Bootstrap(ctx)
	if err != nil {
		return err
	}
	printStatus(app, snap)
	return nil
}

func printStatus(app *clientApp, snap controller.Snapshot) {
	if !snap.Authenticated {
		fmt.Println("Not signed in.")
		return
	}
	fmt.Printf("Signed in as user %d\n", snap.Session.UserID)

	if snap.Profile == nil {
		fmt.Println("Profile: loading")
	} else {
		fmt.Printf("Profile: %s (%s)\n", snap.Profile.Name, snap.Profile.LastLocation)
		if snap.Profile.PhotoURL != "" {
			fmt.Printf("Photo:   %s\n", app.Session.PhotoURL(snap.Profile.ID))
		}
	}

	if snap.Match == nil {
		fmt.Printf("Match:   none today (%s)\n", countdown.Placeholder)
		return
	}
	fmt.Printf("Match:   %s, ends in %s\n", snap.Match.MatchedProfile.Name, app.Match.Display())
}

func runMatch(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("match", flag.ExitOnError)
	watch := fs.Bool("watch", false, "keep the countdown running until interrupted")
	_ = fs.Parse(args)

	app, err := newClientApp(cfg)
	if err != nil {
		return err
	}
	defer app.Close()

	snap, err := app.signedIn(ctx)
	if err != nil {
		return err
	}

	if snap.Match != nil {
		p := snap.Match.MatchedProfile
		fmt.Printf("Today's match: %s\n", p.Name)
		if p.Bio != "" {
			fmt.Printf("  %s\n", p.Bio)
		}
		if p.LastLocation != "" {
			fmt.Printf("  from %s\n", p.LastLocation)
		}
	} else {
		fmt.Println("No match today.")
	}

	if !*watch {
		fmt.Println(app.Match.Display())
		return nil
	}

	app.listen(ctx)
	app.Match.StartCountdown(func(value string) {
		fmt.Printf("\r%s ", value)
	})
	<-ctx.Done()
	fmt.Println()
	return nil
}

func runChat(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("chat", flag.ExitOnError)
	send := fs.String("send", "", "send a message to today's match")
	watch := fs.Bool("watch", false, "follow new messages until interrupted")
	_ = fs.Parse(args)

	app, err := newClientApp(cfg)
	if err != nil {
		return err
	}
	defer app.Close()

	snap, err := app.signedIn(ctx)
	if err != nil {
		return err
	}
	if snap.Match == nil {
		return userFacing(controller.ErrNoMatch)
	}

	printer := &messagePrinter{me: snap.Session.UserID, partner: snap.Match.MatchedProfile.Name, seen: map[int64]bool{}}

	if *send != "" {
		msg, err := app.Chat.Send(ctx, *send)
		if err != nil {
			return userFacing(err)
		}
		printer.print([]models.Message{*msg})
	}

	if !*watch {
		if *send != "" {
			return nil
		}
		messages, err := app.API.ListMessages(ctx, snap.Match.ID)
		if err != nil {
			return userFacing(err)
		}
		printer.print(messages)
		return nil
	}

	app.listen(ctx)
	app.Chat.Activate(ctx, func(u poller.Update) {
		printer.print(u.Messages)
	})
	<-ctx.Done()
	return nil
}

// messagePrinter prints each message once
type messagePrinter struct {
	mu      sync.Mutex
	me      int64
	partner string
	seen    map[int64]bool
}

func (p *messagePrinter) print(messages []models.Message) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, m := range messages {
		if p.seen[m.ID] {
			continue
		}
		p.seen[m.ID] = true
		who := p.partner
		if m.SenderID == p.me {
			who = "me"
		}
		fmt.Printf("[%s] %s: %s\n", m.CreatedAt.Local().Format("15:04"), who, m.Text)
	}
}

func runProfile(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("profile", flag.ExitOnError)
	name := fs.String("name", "", "new display name")
	bio := fs.String("bio", "", "new bio")
	location := fs.String("location", "", "new last location")
	interests := fs.String("interests", "", "comma separated interests")
	photo := fs.String("photo", "", "replace the profile photo with this file")
	clearPhoto := fs.Bool("clear-photo", false, "remove the profile photo")
	_ = fs.Parse(args)

	if *photo != "" && *clearPhoto {
		return errors.New("-photo and -clear-photo are exclusive")
	}

	app, err := newClientApp(cfg)
	if err != nil {
		return err
	}
	defer app.Close()

	if _, err := app.signedIn(ctx); err != nil {
		return err
	}

	draft, err := app.Editor.Open()
	if err != nil {
		return userFacing(err)
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "name":
			draft.Name = strings.TrimSpace(*name)
		case "bio":
			draft.Bio = strings.TrimSpace(*bio)
		case "location":
			draft.LastLocation = strings.TrimSpace(*location)
		case "interests":
			draft.Interests = splitList(*interests)
		}
	})

	switch {
	case *clearPhoto:
		draft.Photo = models.ClearPhoto()
	case *photo != "":
		upload, closeFn, err := openPhoto(*photo)
		if err != nil {
			return err
		}
		defer closeFn()
		draft.Photo = models.ReplacePhoto(*upload)
	}

	saved, err := app.Editor.Save(ctx, draft)
	if err != nil {
		return userFacing(err)
	}
	fmt.Printf("Saved profile of %s.\n", saved.Name)
	printStatus(app, app.Session.Snapshot())
	return nil
}

func runPushToken(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("push-token", flag.ExitOnError)
	token := fs.String("token", "", "APNs device token, empty to unregister")
	_ = fs.Parse(args)

	app, err := newClientApp(cfg)
	if err != nil {
		return err
	}
	defer app.Close()

	if _, err := app.signedIn(ctx); err != nil {
		return err
	}
	if err := app.client.RegisterPushToken(ctx, strings.TrimSpace(*token)); err != nil {
		return userFacing(err)
	}
	fmt.Println("Push token updated.")
	return nil
}

// openPhoto opens path as a photo upload; the caller closes it
func openPhoto(path string) (*models.PhotoUpload, func(), error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open photo: %w", err)
	}
	return &models.PhotoUpload{
		Filename:    filepath.Base(path),
		ContentType: mime.TypeByExtension(strings.ToLower(filepath.Ext(path))),
		Body:        f,
	}, func() { f.Close() }, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
