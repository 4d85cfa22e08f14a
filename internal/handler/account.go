package handler

import (
	"context"
	"errors"
	"fmt"
	"time"

	tele "gopkg.in/telebot.v3"

	"telegram-casino-bot/internal/ledger"
	"telegram-casino-bot/internal/repository"
)

// AccountHandler handles wallet and statistics commands.
type AccountHandler struct {
	ledger  *ledger.Ledger
	tallies *repository.TallyRepository
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(ldg *ledger.Ledger, tallies *repository.TallyRepository) *AccountHandler {
	return &AccountHandler{ledger: ldg, tallies: tallies}
}

// HandleBalance handles the /balance command.
func (h *AccountHandler) HandleBalance(c tele.Context) error {
	sender := c.Sender()
	if sender == nil {
		return nil
	}

	balance, err := h.ledger.Balance(context.Background(), sender.ID)
	if err != nil {
		return c.Reply("❌ Something went wrong, try again later.")
	}

	return c.Reply(fmt.Sprintf("💰 Balance: %d coins", balance))
}

// HandleClaim handles the /claim command that grants the daily reward.
func (h *AccountHandler) HandleClaim(c tele.Context) error {
	sender := c.Sender()
	if sender == nil {
		return nil
	}

	cash, remaining, err := h.ledger.ClaimDaily(context.Background(), sender.ID, time.Now())
	if err != nil {
		if errors.Is(err, ledger.ErrOnCooldown) {
			return c.Reply(fmt.Sprintf("⏰ Come back in %s.", formatDuration(remaining)))
		}
		return c.Reply("❌ Something went wrong, try again later.")
	}

	return c.Reply(fmt.Sprintf("✅ Daily reward claimed! Balance: %d coins", cash))
}

// HandleStats handles the /stats command showing per-game win/loss counts.
func (h *AccountHandler) HandleStats(c tele.Context) error {
	sender := c.Sender()
	if sender == nil {
		return nil
	}

	tallies, err := h.tallies.ForUser(context.Background(), sender.ID)
	if err != nil {
		return c.Reply("❌ Something went wrong, try again later.")
	}
	if len(tallies) == 0 {
		return c.Reply("📊 No games played yet.")
	}

	msg := "📊 Your record\n"
	for _, tally := range tallies {
		msg += fmt.Sprintf("%s: %d wins, %d losses\n", tally.Kind, tally.Wins, tally.Losses)
	}
	return c.Reply(msg)
}

func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%dh%dm%ds", h, m, s)
}
