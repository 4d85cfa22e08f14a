// Package main is the entry point for the Telegram Casino Bot.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"telegram-casino-bot/internal/bot"
	"telegram-casino-bot/internal/config"
	"telegram-casino-bot/internal/game"
	"telegram-casino-bot/internal/game/blackjack"
	"telegram-casino-bot/internal/game/dicegame"
	"telegram-casino-bot/internal/game/highlow"
	"telegram-casino-bot/internal/handler"
	"telegram-casino-bot/internal/ledger"
	"telegram-casino-bot/internal/model"
	"telegram-casino-bot/internal/pkg/db"
	"telegram-casino-bot/internal/pkg/timer"
	"telegram-casino-bot/internal/repository"
	"telegram-casino-bot/internal/session"
)

func main() {
	// Configure zerolog
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	// Load configuration
	cfg, err := config.Load("config")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log.Info().Msg("Configuration loaded successfully")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize database connection pool
	dbPool, err := db.NewPool(ctx, &cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer dbPool.Close()

	if err := runMigrations(ctx, dbPool); err != nil {
		log.Fatal().Err(err).Msg("Failed to run database migrations")
	}

	// Initialize repositories
	playRepo := repository.NewPlayRepository(dbPool.Pool)
	accountRepo := repository.NewAccountRepository(dbPool.Pool)
	tallyRepo := repository.NewTallyRepository(dbPool.Pool)

	// The ledger is the only path that moves money
	ldg := ledger.New(accountRepo, cfg.Economy.DailyReward, cfg.Economy.DailyCooldown())

	// Register the game rule engines
	registry := game.NewRegistry()
	if err := registry.Register(model.KindBlackJack, blackjack.New); err != nil {
		log.Fatal().Err(err).Msg("Failed to register blackjack")
	}
	if err := registry.Register(model.KindHighLow, highlow.New(highlow.Config{
		GrowthNum: cfg.Games.HighLow.PayoutNum,
		GrowthDen: cfg.Games.HighLow.PayoutDen,
		MaxStreak: cfg.Games.HighLow.MaxStreak,
	})); err != nil {
		log.Fatal().Err(err).Msg("Failed to register high-low")
	}
	if err := registry.Register(model.KindDice, dicegame.New()); err != nil {
		log.Fatal().Err(err).Msg("Failed to register dice")
	}

	log.Info().
		Int("game_count", len(registry.Kinds())).
		Msg("Games registered")

	// Initialize the Telegram surface
	teleBot, err := bot.NewTeleBot(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create bot")
	}

	// Session manager ties plays, games, balances, and messages together
	manager := session.NewManager(
		playRepo,
		tallyRepo,
		ldg,
		registry,
		bot.NewRenderer(teleBot),
		timer.Real(),
		session.Config{
			SweepInterval: cfg.Session.SweepInterval,
			ReplayTimeout: cfg.Session.ReplayTimeout,
			FallbackBet:   cfg.Economy.FallbackBet,
		},
	)

	telegramBot := bot.New(teleBot, &bot.Dependencies{
		Config:         cfg,
		Manager:        manager,
		GameHandler:    handler.NewGameHandler(cfg, ldg, playRepo),
		AccountHandler: handler.NewAccountHandler(ldg, tallyRepo),
	})

	// Setup graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go manager.Run(ctx)
	go func() {
		log.Info().Msg("Bot is starting...")
		telegramBot.Start()
	}()

	sig := <-sigChan
	log.Info().Str("signal", sig.String()).Msg("Received shutdown signal")

	cancel()
	telegramBot.Stop()
	log.Info().Msg("Bot stopped gracefully")
}

// runMigrations executes database migrations.
func runMigrations(ctx context.Context, pool *db.Pool) error {
	log.Info().Msg("Running database migrations...")

	// Migration 1: Create accounts table
	_, err := pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS accounts (
			user_id BIGINT PRIMARY KEY,
			cash BIGINT NOT NULL DEFAULT 0,
			last_earned_at BIGINT NOT NULL DEFAULT 0,
			last_updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
	`)
	if err != nil {
		return err
	}
	log.Info().Msg("Migration 1: accounts table created")

	// Migration 2: Create plays table
	_, err = pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS plays (
			id UUID PRIMARY KEY,
			user_id BIGINT NOT NULL,
			kind VARCHAR(32) NOT NULL,
			chat_id BIGINT NOT NULL,
			message_id BIGINT NOT NULL,
			bet BIGINT NOT NULL,
			started BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE UNIQUE INDEX IF NOT EXISTS idx_plays_message ON plays(chat_id, message_id);
	`)
	if err != nil {
		return err
	}
	log.Info().Msg("Migration 2: plays table created")

	// Migration 3: Create game_tallies table
	_, err = pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS game_tallies (
			user_id BIGINT NOT NULL,
			kind VARCHAR(32) NOT NULL,
			wins BIGINT NOT NULL DEFAULT 0,
			losses BIGINT NOT NULL DEFAULT 0,
			PRIMARY KEY (user_id, kind)
		);
	`)
	if err != nil {
		return err
	}
	log.Info().Msg("Migration 3: game_tallies table created")

	log.Info().Msg("All migrations completed successfully")
	return nil
}
