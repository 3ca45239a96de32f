package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	relaybot "github.com/set-night/relaybot"
	"github.com/set-night/relaybot/internal/config"
	"github.com/set-night/relaybot/internal/domain"
	"github.com/set-night/relaybot/internal/handler"
	"github.com/set-night/relaybot/internal/httpapi"
	"github.com/set-night/relaybot/internal/logger"
	"github.com/set-night/relaybot/internal/middleware"
	"github.com/set-night/relaybot/internal/repository"
	"github.com/set-night/relaybot/internal/repository/memory"
	"github.com/set-night/relaybot/internal/service"
	"github.com/set-night/relaybot/internal/state"
	"github.com/set-night/relaybot/internal/telegram"
)

// store is everything the services persist.
type store interface {
	service.SettingsRepository
	service.ChatRepository
	service.LotteryRepository
}

var commands = []models.BotCommand{
	{Command: "start", Description: "How this bot works"},
	{Command: "create_lottery", Description: "Start a lottery in this group (admin)"},
	{Command: "viewlottery", Description: "Manage active lotteries (admin)"},
	{Command: "next", Description: "Finish the prize list"},
	{Command: "cancel", Description: "Abort lottery creation"},
	{Command: "login", Description: "Bind this chat as admin"},
	{Command: "logout", Description: "Release the admin binding"},
}

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Setup structured logging
	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{Dsn: cfg.SentryDSN}); err != nil {
			slog.Error("failed to init sentry", "error", err)
		} else {
			defer sentry.Flush(2 * time.Second)
		}
	}
	slog.SetDefault(logger.New(os.Stdout, logger.Options{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
		Sentry: cfg.SentryDSN != "",
	}))

	// Setup context with graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		slog.Error("bot stopped with error", "error", err)
		os.Exit(1)
	}
	slog.Info("bot stopped gracefully")
}

func run(ctx context.Context, cfg *config.Config) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	db, closeDB, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeDB()

	sessions, closeSessions, err := openSessions(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeSessions()

	token, err := botToken(ctx, cfg, db)
	if err != nil {
		return err
	}

	admin := service.NewAdminService(db, sessions)
	if err := admin.SeedPassword(ctx, cfg.AdminPasswordHash); err != nil {
		return err
	}

	// Handler pointer for use in default handler closure
	var h *handler.Handler

	opts := []bot.Option{
		bot.WithMiddlewares(
			middleware.Logging(),
			middleware.Recover(),
			middleware.RateLimit(middleware.NewChatLimiter(config.ChatRateLimit, config.ChatRateBurst)),
			middleware.Recorder(db),
		),
		bot.WithDefaultHandler(func(ctx context.Context, b *bot.Bot, update *models.Update) {
			if h == nil {
				return
			}
			h.Dispatch(ctx, b, update)
		}),
	}
	b, err := bot.New(token, opts...)
	if err != nil {
		return fmt.Errorf("create bot: %w", err)
	}

	me, err := b.GetMe(ctx)
	if err != nil {
		return fmt.Errorf("get bot info: %w", err)
	}
	slog.Info("bot info retrieved", "id", me.ID, "username", me.Username)

	// Initialize services
	tg := telegram.NewSender(b, cfg.SendRatePerSecond)
	tgLogger := telegram.NewTelegramLogger(b, cfg)
	render := service.NewRenderer(cfg.TimeLocation())
	announcer := service.NewAnnouncer(db, tg, render)
	drawer := service.NewDrawService(db, tg, announcer, render, tgLogger)
	scheduler := service.NewScheduler(db, drawer, announcer, cfg.SweepInterval)

	h = handler.New(handler.Deps{
		Bot:           b,
		Cfg:           cfg,
		Messenger:     tg,
		Admin:         admin,
		Relay:         service.NewRelayService(db, admin, tg),
		Wizard:        service.NewWizardService(sessions, db, tg, scheduler, render),
		Participation: service.NewParticipationService(db, tg, announcer, render),
		Scheduler:     scheduler,
		Render:        render,
		Chats:         db,
		Lotteries:     db,
		TgLogger:      tgLogger,
		BotUsername:   me.Username,
	})

	// Register all handlers
	h.Register()

	if _, err := b.SetMyCommands(ctx, &bot.SetMyCommandsParams{Commands: commands}); err != nil {
		slog.Warn("failed to publish command list", "error", err)
	}

	if err := scheduler.RestoreOnStartup(ctx); err != nil {
		slog.Error("failed to restore scheduled draws", "error", err)
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		scheduler.Run(ctx)
	}()

	var webhook http.Handler
	if cfg.WebhookEnabled() {
		webhook = b.WebhookHandler()
	}
	srv := httpapi.New(cfg, scheduler, webhook)
	errCh := make(chan error, 1)
	wg.Add(1)
	go func() {
		defer wg.Done()
		err := srv.Run(ctx, cfg.HTTPAddr)
		if err != nil {
			cancel()
		}
		errCh <- err
	}()

	err = startUpdates(ctx, cfg, b)
	cancel()
	wg.Wait()
	if err != nil {
		return err
	}
	return <-errCh
}

// startUpdates blocks until ctx is done, receiving updates by webhook or by
// long polling.
func startUpdates(ctx context.Context, cfg *config.Config, b *bot.Bot) error {
	if cfg.WebhookEnabled() {
		_, err := b.SetWebhook(ctx, &bot.SetWebhookParams{
			URL:                cfg.WebhookURL,
			SecretToken:        cfg.WebhookSecret,
			DropPendingUpdates: cfg.DropPendingUpdates,
		})
		if err != nil {
			return fmt.Errorf("set webhook: %w", err)
		}
		slog.Info("starting bot", "mode", "webhook", "url", cfg.WebhookURL)
		b.StartWebhook(ctx)
		return nil
	}

	if _, err := b.DeleteWebhook(ctx, &bot.DeleteWebhookParams{DropPendingUpdates: cfg.DropPendingUpdates}); err != nil {
		slog.Warn("failed to delete webhook", "error", err)
	}
	slog.Info("starting bot", "mode", "polling")
	b.Start(ctx)
	return nil
}

// openStore connects Postgres and applies migrations, or falls back to the
// in-memory store when DATABASE_URL is empty.
func openStore(ctx context.Context, cfg *config.Config) (store, func(), error) {
	if cfg.DatabaseURL == "" {
		slog.Warn("DATABASE_URL not set, using in-memory store")
		return memory.New(), func() {}, nil
	}

	pool, err := repository.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to database: %w", err)
	}

	migrationsFS, err := fs.Sub(relaybot.MigrationsFS, "migrations")
	if err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("load embedded migrations: %w", err)
	}
	if err := repository.RunMigrations(cfg.DatabaseURL, migrationsFS); err != nil {
		pool.Close()
		return nil, nil, err
	}
	return repository.NewStore(pool), pool.Close, nil
}

// openSessions picks Redis when REDIS_URL is set.
func openSessions(ctx context.Context, cfg *config.Config) (service.SessionStore, func(), error) {
	if cfg.RedisURL == "" {
		return state.NewMemoryStore(), func() {}, nil
	}
	client, err := state.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		return nil, nil, err
	}
	closeFn := func() {
		if err := client.Close(); err != nil {
			slog.Warn("failed to close redis", "error", err)
		}
	}
	return state.NewRedisStore(client, config.SessionRetention), closeFn, nil
}

// botToken prefers BOT_TOKEN and falls back to the stored setting.
func botToken(ctx context.Context, cfg *config.Config, settings service.SettingsRepository) (string, error) {
	if cfg.BotToken != "" {
		return cfg.BotToken, nil
	}
	token, err := settings.GetSetting(ctx, config.SettingBotToken)
	if errors.Is(err, domain.ErrNotFound) || (err == nil && token == "") {
		return "", errors.New("bot token not configured: set BOT_TOKEN or the bot_token setting")
	}
	if err != nil {
		return "", fmt.Errorf("read bot token: %w", err)
	}
	return token, nil
}
