package bot

import (
	"context"
	"errors"
	"strconv"
	"strings"

	tele "gopkg.in/telebot.v3"

	"telegram-casino-bot/internal/game"
	"telegram-casino-bot/internal/model"
	"telegram-casino-bot/internal/session"
)

// Renderer paints game UIs onto Telegram messages by editing them in place.
type Renderer struct {
	bot *tele.Bot
}

// NewRenderer creates a Renderer over the given bot.
func NewRenderer(b *tele.Bot) *Renderer {
	return &Renderer{bot: b}
}

func editable(ref model.MessageRef) tele.Editable {
	return &tele.StoredMessage{
		MessageID: strconv.FormatInt(ref.MessageID, 10),
		ChatID:    ref.ChatID,
	}
}

// Render replaces the message content with the UI's text and buttons.
func (r *Renderer) Render(_ context.Context, ref model.MessageRef, ui game.UI) error {
	_, err := r.bot.Edit(editable(ref), renderText(ui), buildMarkup(ui.Buttons))
	return mapEditError(err)
}

// Close strips the buttons and leaves a final text on the message.
func (r *Renderer) Close(_ context.Context, ref model.MessageRef, text string) error {
	_, err := r.bot.Edit(editable(ref), text)
	return mapEditError(err)
}

// Exists tests the message by clearing its reply markup. Telegram answers
// "message to edit not found" for deleted messages and "message is not
// modified" for ones that are still there but unchanged.
func (r *Renderer) Exists(_ context.Context, ref model.MessageRef) (bool, error) {
	_, err := r.bot.EditReplyMarkup(editable(ref), &tele.ReplyMarkup{})
	err = mapEditError(err)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, session.ErrMessageGone) {
		return false, nil
	}
	return false, err
}

// mapEditError normalizes Telegram edit failures. "not modified" is a
// success for our purposes, a missing message maps to ErrMessageGone.
func mapEditError(err error) error {
	if err == nil {
		return nil
	}
	msg := err.Error()
	if strings.Contains(msg, "message is not modified") {
		return nil
	}
	if strings.Contains(msg, "message to edit not found") ||
		strings.Contains(msg, "MESSAGE_ID_INVALID") {
		return session.ErrMessageGone
	}
	return err
}

func renderText(ui game.UI) string {
	var b strings.Builder
	b.WriteString(ui.Header)
	if ui.Body != "" {
		b.WriteString("\n\n")
		b.WriteString(ui.Body)
	}
	if ui.Footer != "" {
		b.WriteString("\n\n")
		b.WriteString(ui.Footer)
	}
	return b.String()
}

// buildMarkup lays the action buttons out in rows of at most three.
func buildMarkup(buttons []game.Button) *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{}
	var row []tele.InlineButton
	for _, btn := range buttons {
		row = append(row, tele.InlineButton{Text: btn.Label, Data: btn.ActionID})
		if len(row) == 3 {
			markup.InlineKeyboard = append(markup.InlineKeyboard, row)
			row = nil
		}
	}
	if len(row) > 0 {
		markup.InlineKeyboard = append(markup.InlineKeyboard, row)
	}
	return markup
}
