package application

import (
	"context"

	"github.com/srishtipnt/Parabot/domain"
)

// Outbound is a text message. Mentions are rendered by the transport after
// the text.
type Outbound struct {
	Text     string
	Mentions []domain.Member
}

// Group is what the transport knows about a group chat at call time.
type Group struct {
	Title   string
	Members []domain.Member
}

// Messenger is the outbound side of the chat transport.
type Messenger interface {
	SendText(ctx context.Context, chatID int64, msg Outbound) error
	SendPoll(ctx context.Context, chatID int64, question string, options []string) error
	React(ctx context.Context, chatID int64, messageID int, emoji string) error
	DeleteMessage(ctx context.Context, chatID int64, messageID int) error
	GroupInfo(ctx context.Context, chatID int64) (Group, error)
	IsAdmin(ctx context.Context, chatID, userID int64) (bool, error)
	SelfID() int64
}

func text(s string) Outbound { return Outbound{Text: s} }
