// Package handler provides Telegram bot command handlers.
package handler

import (
	"context"
	"fmt"
	"strconv"

	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"

	"telegram-casino-bot/internal/config"
	"telegram-casino-bot/internal/ledger"
	"telegram-casino-bot/internal/model"
	"telegram-casino-bot/internal/repository"
)

// GameHandler handles the commands that open wager rounds. It sends the
// placeholder message and inserts the play record; the session manager
// picks the play up from there.
type GameHandler struct {
	cfg    *config.Config
	ledger *ledger.Ledger
	plays  *repository.PlayRepository
}

// NewGameHandler creates a new GameHandler.
func NewGameHandler(cfg *config.Config, ldg *ledger.Ledger, plays *repository.PlayRepository) *GameHandler {
	return &GameHandler{cfg: cfg, ledger: ldg, plays: plays}
}

// HandleBlackJack handles the /blackjack <bet|all> command.
func (h *GameHandler) HandleBlackJack(c tele.Context) error {
	return h.openRound(c, model.KindBlackJack, h.cfg.Games.BlackJack.MaxBet)
}

// HandleHighLow handles the /highlow <bet|all> command.
func (h *GameHandler) HandleHighLow(c tele.Context) error {
	return h.openRound(c, model.KindHighLow, h.cfg.Games.HighLow.MaxBet)
}

// HandleDice handles the /dice <bet|all> command.
func (h *GameHandler) HandleDice(c tele.Context) error {
	return h.openRound(c, model.KindDice, h.cfg.Games.Dice.MaxBet)
}

// openRound parses the bet, clamps it to what the player can cover, sends
// the placeholder message, and records the play. The stake is not touched
// here: escrow happens when the session manager activates the play.
func (h *GameHandler) openRound(c tele.Context, kind model.GameKind, maxBet int64) error {
	ctx := context.Background()
	sender := c.Sender()
	if sender == nil {
		return nil
	}

	balance, err := h.ledger.Balance(ctx, sender.ID)
	if err != nil {
		log.Error().Err(err).Int64("user_id", sender.ID).Msg("failed to read balance")
		return c.Reply("❌ Something went wrong, try again later.")
	}

	bet, err := parseBet(c.Args(), balance)
	if err != nil {
		return c.Reply(fmt.Sprintf("Usage: /%s <amount|all>", kind))
	}

	if bet > maxBet {
		bet = maxBet
	}
	if bet > balance {
		bet = balance
	}
	if bet < 1 {
		// Broke players still get to play at the minimum stake.
		bet = h.cfg.Economy.FallbackBet
	}

	msg, err := c.Bot().Send(c.Chat(), fmt.Sprintf("🎰 Setting up %s, bet %d...", kind, bet))
	if err != nil {
		return fmt.Errorf("failed to send game message: %w", err)
	}

	ref := model.MessageRef{ChatID: c.Chat().ID, MessageID: int64(msg.ID)}
	play, err := h.plays.Insert(ctx, sender.ID, kind, ref, bet)
	if err != nil {
		log.Error().Err(err).Int64("user_id", sender.ID).Msg("failed to insert play")
		return c.Reply("❌ Something went wrong, try again later.")
	}

	log.Info().
		Str("play_id", play.ID).
		Str("kind", string(kind)).
		Int64("user_id", sender.ID).
		Int64("bet", bet).
		Msg("round opened")
	return nil
}

// parseBet interprets the first command argument as a stake. "all" bets the
// whole balance. A missing argument defaults to the whole balance too.
func parseBet(args []string, balance int64) (int64, error) {
	if len(args) == 0 || args[0] == "all" {
		return balance, nil
	}

	bet, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || bet < 1 {
		return 0, fmt.Errorf("invalid bet %q", args[0])
	}
	return bet, nil
}
