package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/jonathan/referat-bot/internal/bot"
	"github.com/jonathan/referat-bot/internal/config"
	"github.com/jonathan/referat-bot/internal/db"
	"github.com/jonathan/referat-bot/internal/ratelimit"
	"github.com/jonathan/referat-bot/internal/server"
)

var (
	servePort       int
	serveConfigPath string
	serveDebug      bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the Telegram bot and the HTTP server",
	Long: `Start the Telegram bot (long polling) together with an HTTP server that answers
health probes, exposes Prometheus metrics and, when JWT_SECRET is set, a small admin API.

Configuration is read from --config (optional), then environment variables.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 8000, "Port to listen on (overrides PORT)")
	serveCmd.Flags().StringVar(&serveConfigPath, "config", "", "Path to config.json file")
	serveCmd.Flags().BoolVar(&serveDebug, "debug", false, "Log Telegram API traffic")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig(serveConfigPath, os.Getenv)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("port") {
		cfg.Port = servePort
	}
	if err := cfg.RequireBot(); err != nil {
		return err
	}
	timeout, err := cfg.Timeout()
	if err != nil {
		return err
	}

	store, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer store.Close()
	if err := store.EnsureSchema(ctx, cfg.AdminID); err != nil {
		return err
	}

	sessions, closeSessions, err := openSessions(ctx, cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("failed to open session store: %w", err)
	}
	defer closeSessions()

	runner, release, err := buildRunner(cfg)
	if err != nil {
		return err
	}
	defer release()

	limiter := ratelimit.NewLimiter(ratelimit.LoadConfig(cfg.GenerationRatePerHour))
	defer limiter.Stop()

	var jwtService *server.JWTService
	if jwtCfg, err := config.NewJWTConfig(os.Getenv); err != nil {
		log.Printf("[SERVER] admin API disabled: %v", err)
	} else {
		jwtService = server.NewJWTService(jwtCfg)
	}

	api, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return fmt.Errorf("failed to connect to Telegram: %w", err)
	}
	api.Debug = serveDebug
	log.Printf("[BOT] authorized as @%s", api.Self.UserName)
	if cfg.BotUsername == config.Defaults().BotUsername && api.Self.UserName != "" {
		cfg.BotUsername = api.Self.UserName
	}

	opts := []bot.Option{bot.WithLimiter(limiter)}
	if jwtService != nil {
		opts = append(opts, bot.WithTokenIssuer(jwtService))
	}
	b := bot.New(api, store, sessions, runner, bot.Config{
		SuperAdminID:      cfg.AdminID,
		AdminUsername:     cfg.AdminUsername,
		BotUsername:       cfg.BotUsername,
		CardNumber:        cfg.CardNumber,
		PDFEnabled:        cfg.PDFEnabled,
		MaxConcurrent:     cfg.MaxConcurrentGenerations,
		GenerationTimeout: timeout,
		BroadcastRate:     cfg.BroadcastPerSecond,
	}, opts...)

	srv := server.New(server.Config{Port: cfg.Port}, store, jwtService, limiter)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Start(gctx)
	})
	g.Go(func() error {
		u := tgbotapi.NewUpdate(0)
		u.Timeout = 60
		updates := api.GetUpdatesChan(u)
		go func() {
			<-gctx.Done()
			api.StopReceivingUpdates()
		}()
		return b.Run(gctx, updates)
	})

	err = g.Wait()
	log.Println("[BOT] stopped")
	return err
}
