package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"time"

	"aponte/internal/config"
	"aponte/internal/handlers"
	"aponte/internal/metrics"
	"aponte/internal/repository"
	"aponte/internal/services"

	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

func runServe(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	port := fs.Int("port", cfg.Server.Port, "listen port")
	_ = fs.Parse(args)
	cfg.Server.Port = *port

	if cfg.JWT.Secret == "" {
		return errors.New("jwt.secret is not configured")
	}

	// Connect to database
	db, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	if err := db.Ping(ctx); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}
	if err := repository.EnsureSchema(ctx, db); err != nil {
		return err
	}
	log.Info().Msg("Database connection established")

	m := metrics.New()

	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	profileRepo := repository.NewProfileRepository(db)
	matchRepo := repository.NewMatchRepository(db)
	messageRepo := repository.NewMessageRepository(db)

	objects, err := services.NewS3Store(ctx, cfg.AWS)
	if err != nil {
		return fmt.Errorf("failed to create photo storage: %w", err)
	}

	var limiter services.SendLimiter
	if cfg.Redis.Addr != "" {
		rdb := goredis.NewClient(&goredis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Warn().Err(err).Str("addr", cfg.Redis.Addr).Msg("Redis unreachable, sends pass until it recovers")
		}
		limiter = services.NewLimiter(repository.NewRateRepository(rdb),
			cfg.RateLimit.MessagesPerMinute, cfg.RateLimit.MessagesPer10Sec)
	} else {
		log.Warn().Msg("Redis is not configured, message rate limiting disabled")
	}

	var pusher services.Pusher
	apns, err := services.NewAPNsPusher(cfg.APNs)
	switch {
	case err != nil:
		return fmt.Errorf("failed to create APNs client: %w", err)
	case apns != nil:
		pusher = apns
	default:
		log.Info().Msg("APNs is not configured, offline users get no push")
	}

	// Initialize services
	wsHub := services.NewWSHub(m)
	userService := services.NewUserService(userRepo, cfg.JWT.Secret)
	dispatcher := services.NewDispatcher(wsHub, pusher, userService, m)
	profileService := services.NewProfileService(profileRepo)
	matchService := services.NewMatchService(matchRepo, profileRepo, dispatcher)
	messageService := services.NewMessageService(messageRepo, matchService, limiter, dispatcher)
	photoService := services.NewPhotoService(profileRepo, objects)

	router := handlers.NewRouter(handlers.RouterDeps{
		Users:     handlers.NewUserHandler(userService),
		Profiles:  handlers.NewProfileHandler(profileService),
		Matches:   handlers.NewMatchHandler(matchService, messageService),
		Photos:    handlers.NewPhotoHandler(photoService),
		WebSocket: handlers.NewWebSocketHandler(wsHub, userService),
		Tokens:    userService,
		Metrics:   m,
	})

	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info().
			Str("host", cfg.Server.Host).
			Int("port", cfg.Server.Port).
			Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	// hijacked websocket connections are not closed by Shutdown
	wsHub.CloseAll()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
	return nil
}
