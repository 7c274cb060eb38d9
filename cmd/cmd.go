package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"aponte/internal/config"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type command struct {
	summary string
	run     func(ctx context.Context, cfg *config.Config, args []string) error
}

var commands = map[string]command{
	"serve":      {"run the development backend", runServe},
	"login":      {"sign in and store the session", runLogin},
	"register":   {"create an account and profile", runRegister},
	"logout":     {"forget the stored session", runLogout},
	"status":     {"show the signed-in user, profile and match", runStatus},
	"match":      {"show today's match with a live countdown", runMatch},
	"chat":       {"read, watch or send messages to today's match", runChat},
	"profile":    {"edit the profile and photo", runProfile},
	"push-token": {"register a device token for push notifications", runPushToken},
}

func Run() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "failed to load .env: %v\n", err)
	}

	global := flag.NewFlagSet("aponte", flag.ExitOnError)
	configPath := global.String("config", "config.yaml", "path to the YAML config file")
	global.Usage = func() { usage(global) }
	_ = global.Parse(os.Args[1:])

	if global.NArg() == 0 {
		usage(global)
		os.Exit(2)
	}

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Setup logger
	setupLogger(cfg.Log.Level)

	name, args := global.Arg(0), global.Args()[1:]
	cmd, ok := commands[name]
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", name)
		usage(global)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := cmd.run(ctx, cfg, args); err != nil {
		stop()
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func usage(flags *flag.FlagSet) {
	fmt.Fprintf(os.Stderr, "usage: aponte [-config file] <command> [flags]\n\ncommands:\n")
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(os.Stderr, "  %-11s %s\n", name, commands[name].summary)
	}
	fmt.Fprintln(os.Stderr, "\nglobal flags:")
	flags.PrintDefaults()
}

// setupLogger configures zerolog logger
func setupLogger(level string) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	switch level {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}
