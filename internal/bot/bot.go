package bot

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"

	"telegram-casino-bot/internal/config"
	"telegram-casino-bot/internal/handler"
	"telegram-casino-bot/internal/model"
	"telegram-casino-bot/internal/session"
)

// Bot wraps the telebot instance with application dependencies.
type Bot struct {
	bot     *tele.Bot
	cfg     *config.Config
	manager *session.Manager

	gameHandler    *handler.GameHandler
	accountHandler *handler.AccountHandler
}

// Dependencies holds everything the bot handlers need.
type Dependencies struct {
	Config         *config.Config
	Manager        *session.Manager
	GameHandler    *handler.GameHandler
	AccountHandler *handler.AccountHandler
}

// New creates a Bot instance with the given dependencies. The underlying
// telebot instance is created here so the caller can build the renderer
// from it before the session manager runs.
func New(teleBot *tele.Bot, deps *Dependencies) *Bot {
	b := &Bot{
		bot:            teleBot,
		cfg:            deps.Config,
		manager:        deps.Manager,
		gameHandler:    deps.GameHandler,
		accountHandler: deps.AccountHandler,
	}

	b.registerMiddleware()
	b.registerHandlers()

	return b
}

// NewTeleBot creates the underlying telebot instance with long polling.
func NewTeleBot(cfg *config.Config) (*tele.Bot, error) {
	if cfg.Bot.Token == "" {
		return nil, fmt.Errorf("bot token is required")
	}

	pref := tele.Settings{
		Token:  cfg.Bot.Token,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
	}

	teleBot, err := tele.NewBot(pref)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}
	return teleBot, nil
}

// registerMiddleware registers all middleware.
func (b *Bot) registerMiddleware() {
	b.bot.Use(RecoveryMiddleware())
	b.bot.Use(WhitelistMiddleware(b.cfg))
	b.bot.Use(LoggingMiddleware())
}

// registerHandlers registers all command and callback handlers.
func (b *Bot) registerHandlers() {
	b.bot.Handle("/blackjack", b.gameHandler.HandleBlackJack)
	b.bot.Handle("/highlow", b.gameHandler.HandleHighLow)
	b.bot.Handle("/dice", b.gameHandler.HandleDice)

	b.bot.Handle("/balance", b.accountHandler.HandleBalance)
	b.bot.Handle("/claim", b.accountHandler.HandleClaim)
	b.bot.Handle("/stats", b.accountHandler.HandleStats)

	b.bot.Handle(tele.OnCallback, b.handleCallback)
}

// handleCallback turns a button press into a session event.
func (b *Bot) handleCallback(c tele.Context) error {
	callback := c.Callback()
	if callback == nil || callback.Message == nil || c.Sender() == nil {
		return nil
	}

	// Telebot v3 may add a \f prefix to callback data.
	actionID := strings.TrimPrefix(callback.Data, "\f")

	ev := session.Event{
		Ref: model.MessageRef{
			ChatID:    callback.Message.Chat.ID,
			MessageID: int64(callback.Message.ID),
		},
		UserID:   c.Sender().ID,
		ActionID: actionID,
	}

	if err := b.manager.HandleAction(context.Background(), ev); err != nil {
		log.Error().Err(err).
			Str("action", actionID).
			Int64("chat_id", ev.Ref.ChatID).
			Int64("message_id", ev.Ref.MessageID).
			Msg("failed to handle action")
	}

	return c.Respond(&tele.CallbackResponse{})
}

// Start starts the bot polling. Blocks until Stop is called.
func (b *Bot) Start() {
	log.Info().Msg("Starting bot...")
	b.bot.Start()
}

// Stop stops the bot gracefully.
func (b *Bot) Stop() {
	log.Info().Msg("Stopping bot...")
	b.bot.Stop()
}
