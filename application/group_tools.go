package application

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/srishtipnt/Parabot/domain"
)

// MaxPollOptions is the Bot API limit on poll answers.
const MaxPollOptions = 10

// GroupTools serves the stateless group commands: poll, tagall and react.
type GroupTools struct {
	messenger Messenger
	settings
}

func NewGroupTools(messenger Messenger, opts ...Option) *GroupTools {
	return &GroupTools{messenger: messenger, settings: newSettings(opts)}
}

// ParsePoll splits "<question>? <opt1>, <opt2>" into the question (with its
// question mark) and the non-empty options.
func ParsePoll(args string) (string, []string, error) {
	sep := strings.Index(args, "?")
	if sep == -1 {
		return "", nil, errors.New("invalid format: use a question mark (?) to separate the question and options")
	}
	question := strings.TrimSpace(args[:sep+1])
	var options []string
	for _, opt := range strings.Split(args[sep+1:], ",") {
		if opt = strings.TrimSpace(opt); opt != "" {
			options = append(options, opt)
		}
	}

	switch {
	case question == "?":
		return "", nil, errors.New("the poll question cannot be empty")
	case len(options) < 2:
		return "", nil, errors.New("a poll must have at least two options")
	case len(options) > MaxPollOptions:
		return "", nil, fmt.Errorf("a poll cannot have more than %d options", MaxPollOptions)
	}
	return question, options, nil
}

func (g *GroupTools) HandlePoll(ctx context.Context, chatID int64, args string) error {
	question, options, err := ParsePoll(args)
	if err == nil {
		if err = g.messenger.SendPoll(ctx, chatID, question, options); err == nil {
			return nil
		}
	}
	log.Warn().Err(err).Int64("chat_id", chatID).Msg("poll command")
	usage := fmt.Sprintf("Please make sure your format is correct.\n\nUsage:\n%spoll <Question>? <Option 1>, <Option 2>", g.prefix)
	return g.messenger.SendText(ctx, chatID, text(usage))
}

func (g *GroupTools) HandleTagAll(ctx context.Context, chatID int64) error {
	group, err := g.messenger.GroupInfo(ctx, chatID)
	if err == nil {
		self := g.messenger.SelfID()
		var members []domain.Member
		for _, m := range group.Members {
			if m.UserID != self {
				members = append(members, m)
			}
		}
		if err = g.messenger.SendText(ctx, chatID, Outbound{Text: "📣 Calling everyone!", Mentions: members}); err == nil {
			return nil
		}
	}
	log.Error().Err(err).Int64("chat_id", chatID).Msg("tagall command")
	return g.messenger.SendText(ctx, chatID, text("Sorry, I couldn't tag everyone. Am I an admin in this group?"))
}

// HandleReact puts emoji on the quoted message and removes the command
// message. Failures stay silent to keep the chat clean.
func (g *GroupTools) HandleReact(ctx context.Context, chatID int64, commandMessageID int, quoted *Quoted, args string) error {
	emoji := strings.TrimSpace(args)
	if emoji == "" {
		return nil
	}
	if quoted == nil {
		return g.messenger.SendText(ctx, chatID, text("You must reply to a message to react to it."))
	}
	if err := g.messenger.React(ctx, chatID, quoted.MessageID, emoji); err != nil {
		log.Warn().Err(err).Int64("chat_id", chatID).Msg("sending reaction")
		return nil
	}
	if err := g.messenger.DeleteMessage(ctx, chatID, commandMessageID); err != nil {
		log.Debug().Err(err).Int64("chat_id", chatID).Msg("deleting react command")
	}
	return nil
}
