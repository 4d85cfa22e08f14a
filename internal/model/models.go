// Package model defines the data records for the casino bot.
package model

import "time"

// GameKind identifies one of the supported wager games.
type GameKind string

const (
	KindBlackJack GameKind = "blackjack"
	KindHighLow   GameKind = "highlow"
	KindDice      GameKind = "dice"
)

// Kinds lists every supported game kind.
func Kinds() []GameKind {
	return []GameKind{KindBlackJack, KindHighLow, KindDice}
}

// MessageRef identifies the chat message a game is rendered into.
// Message ids are only unique per chat, so sessions key on the pair.
type MessageRef struct {
	ChatID    int64
	MessageID int64
}

// Play is the durable record for one user's active or about-to-start game.
// Started=false means escrow and the initial deal have not happened yet;
// Started=true means an in-memory session should exist for it.
type Play struct {
	ID        string    `db:"id"`
	UserID    int64     `db:"user_id"`
	Kind      GameKind  `db:"kind"`
	ChatID    int64     `db:"chat_id"`
	MessageID int64     `db:"message_id"`
	Bet       int64     `db:"bet"`
	Started   bool      `db:"started"`
	CreatedAt time.Time `db:"created_at"`
}

// Ref returns the message reference the play is rendered into.
func (p *Play) Ref() MessageRef {
	return MessageRef{ChatID: p.ChatID, MessageID: p.MessageID}
}

// CashAccount holds a user's balance. One row per user, created with zero
// cash on first economic interaction. All mutations go through the ledger.
type CashAccount struct {
	UserID        int64     `db:"user_id"`
	Cash          int64     `db:"cash"`
	LastEarnedAt  int64     `db:"last_earned_at"`
	LastUpdatedAt time.Time `db:"last_updated_at"`
}

// GameTally counts finished games per user and game kind.
type GameTally struct {
	UserID int64    `db:"user_id"`
	Kind   GameKind `db:"kind"`
	Wins   int64    `db:"wins"`
	Losses int64    `db:"losses"`
}
