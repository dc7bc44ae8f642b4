package main

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/planwise/sprintbot/internal/bot"
	"github.com/planwise/sprintbot/internal/config"
	"github.com/planwise/sprintbot/internal/health"
	"github.com/planwise/sprintbot/internal/metrics"
	"github.com/planwise/sprintbot/internal/mgmt"
	"github.com/planwise/sprintbot/internal/store"
	"github.com/planwise/sprintbot/internal/telegram"
)

func main() {
	// Setup structured logging
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	logger := zerolog.New(os.Stdout).With().Timestamp().Caller().Logger()

	if os.Getenv("ENVIRONMENT") == "development" {
		logger = logger.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	log.Logger = logger

	// Load config
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}

	// Set log level
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err == nil {
		zerolog.SetGlobalLevel(level)
	}

	logger.Info().
		Str("environment", cfg.Environment).
		Str("db_path", cfg.DBPath).
		Str("mgmt_addr", cfg.MgmtListenAddr).
		Bool("telegram_enabled", cfg.TelegramEnabled()).
		Msg("starting sprintbot")

	// Context with graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	// Storage
	st, err := store.New(cfg.DBPath, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open store")
	}
	defer st.Close()

	// Metrics
	m := metrics.New()

	// Health checker
	checker := health.NewChecker(logger)
	checker.Register("sqlite", func(ctx context.Context) health.Status {
		if err := st.Ping(); err != nil {
			return health.StatusDown
		}
		return health.StatusOK
	})

	// Identity resolution lives here regardless of transport: the management
	// API needs it to drop cached lookups when user rows change.
	auth := bot.NewAuthenticator(st, cfg.AuthCacheSize, m, logger)
	if err := auth.Prime(ctx); err != nil {
		logger.Warn().Err(err).Msg("failed to prime identity cache (non-fatal)")
	}

	// WaitGroup for in-flight work
	var wg sync.WaitGroup

	// --- Management API ---
	mgmtServer := mgmt.NewServer(mgmt.ServerConfig{
		ListenAddr: cfg.MgmtListenAddr,
		APIKey:     cfg.MgmtAPIKey,
	}, st, checker, m, auth, logger)

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := mgmtServer.Start(); err != nil {
			logger.Error().Err(err).Msg("management API server error")
		}
	}()

	// --- Telegram (optional — only if a token is provided) ---
	if cfg.TelegramEnabled() {
		client, tgErr := telegram.New(cfg.TelegramBotToken, logger)
		if tgErr != nil {
			logger.Fatal().Err(tgErr).Msg("failed to init telegram client")
		}

		resp := bot.NewResponder(client, m, logger)

		registry := bot.NewRegistry()
		registry.Register("/start", bot.Authenticated(resp, bot.NewStartCommand(resp)))
		registry.Register("/help", bot.NewHelpCommand(resp))
		registry.Register("/whoami", bot.NewWhoamiCommand(resp))
		registry.Register("/tasklist", bot.Authenticated(resp, bot.NewTaskListCommand(resp, st)))
		registry.Register("/tasknew", bot.Authenticated(resp, bot.NewTaskNewCommand(resp, st)))
		registry.Register("/donetasks", bot.Authenticated(resp, bot.NewDoneTasksCommand(resp, st)))
		registry.Register("task", bot.Authenticated(resp, bot.NewTaskCommand(resp, st)))

		proc := bot.NewProcessor(
			registry,
			bot.NewMemorySessions(),
			auth,
			resp,
			client.Username(),
			m,
			logger,
		)

		wg.Add(1)
		go func() {
			defer wg.Done()
			client.Run(ctx, proc, cfg.TelegramPollTimeout)
		}()
	} else {
		logger.Info().Msg("Telegram not configured — running in mgmt-only mode")
	}

	// Wait for shutdown signal
	sig := <-sigCh
	logger.Info().Str("signal", sig.String()).Msg("shutting down gracefully")

	// Cancel context to signal all goroutines
	cancel()

	if err := mgmtServer.Shutdown(); err != nil {
		logger.Error().Err(err).Msg("management API server shutdown error")
	}

	// Wait for in-flight work to complete
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		logger.Info().Msg("all goroutines stopped")
	case <-time.After(15 * time.Second):
		logger.Warn().Msg("forced shutdown after timeout")
	}

	logger.Info().Msg("sprintbot stopped")
}
