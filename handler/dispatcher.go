package handler

import (
	"context"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/srishtipnt/Parabot/application"
	"github.com/srishtipnt/Parabot/domain"
)

// Inbound is a chat message as the dispatcher sees it, independent of the
// transport.
type Inbound struct {
	ChatID         int64
	SenderID       int64
	SenderName     string
	SenderUsername string
	IsGroup        bool
	MessageID      int
	Text           string
	Quoted         *application.Quoted
}

type Services struct {
	Reminders     *application.ReminderService
	TeamReminders *application.TeamReminderService
	Pins          *application.PinService
	Tools         *application.GroupTools
	Spam          *application.SpamService
	PublicMode    *application.PublicMode
	Roster        domain.RosterRepository
}

// Dispatcher parses the command prefix, applies the access gate and routes
// to the feature services. It owns the selection-list caches.
type Dispatcher struct {
	prefix    string
	ownerID   int64
	messenger application.Messenger
	Services

	reminderLists *application.ReminderList
	teamLists     *application.TeamReminderList
	pinLists      *application.PinList
}

func NewDispatcher(prefix string, ownerID int64, messenger application.Messenger, services Services) *Dispatcher {
	return &Dispatcher{
		prefix:        prefix,
		ownerID:       ownerID,
		messenger:     messenger,
		Services:      services,
		reminderLists: application.NewReminderList(),
		teamLists:     application.NewTeamReminderList(),
		pinLists:      application.NewPinList(),
	}
}

// splitCommand returns the lower-cased command word and the raw rest.
func splitCommand(s string) (string, string) {
	s = strings.TrimSpace(s)
	i := strings.IndexFunc(s, unicode.IsSpace)
	if i == -1 {
		return strings.ToLower(s), ""
	}
	return strings.ToLower(s[:i]), strings.TrimSpace(s[i+1:])
}

func (d *Dispatcher) Dispatch(ctx context.Context, in Inbound) {
	if in.IsGroup {
		d.observe(ctx, in)
	}

	body := strings.TrimSpace(in.Text)
	if !strings.HasPrefix(body, d.prefix) {
		return
	}
	command, args := splitCommand(body[len(d.prefix):])
	if command == "" {
		return
	}

	logger := log.With().
		Str("request_id", uuid.NewString()).
		Str("command", command).
		Int64("chat_id", in.ChatID).
		Int64("sender_id", in.SenderID).
		Logger()
	ctx = logger.WithContext(ctx)

	isOwner := in.SenderID == d.ownerID
	isAdmin := false
	if in.IsGroup && !isOwner {
		var err error
		if isAdmin, err = d.messenger.IsAdmin(ctx, in.ChatID, in.SenderID); err != nil {
			logger.Warn().Err(err).Msg("fetching member role")
		}
	}
	if !isOwner && !isAdmin && in.IsGroup && !d.PublicMode.Enabled(in.ChatID) {
		logger.Debug().Msg("ignoring command in private-mode group")
		return
	}

	defer func() {
		if r := recover(); r != nil {
			logger.Error().Interface("panic", r).Msg("command handler panicked")
			d.oops(ctx, in.ChatID, logger)
		}
	}()

	start := time.Now()
	if err := d.route(ctx, in, command, args, isOwner || isAdmin); err != nil {
		logger.Error().Err(err).Msg("handling command")
		d.oops(ctx, in.ChatID, logger)
		return
	}
	logger.Debug().Dur("took", time.Since(start)).Msg("command handled")
}

func (d *Dispatcher) route(ctx context.Context, in Inbound, command, args string, privileged bool) error {
	switch command {
	case "pmode", "pmod":
		return d.PublicMode.Handle(ctx, in.ChatID, in.IsGroup, privileged, args)
	case "help":
		return d.reply(ctx, in.ChatID, HelpText(d.prefix))

	case "r":
		return d.Reminders.HandleRemind(ctx, in.ChatID, in.SenderID, args)
	case "lr":
		return d.Reminders.HandleList(ctx, in.ChatID, in.SenderID, d.reminderLists)
	case "cr":
		return d.Reminders.HandleCancel(ctx, in.ChatID, in.SenderID, args, d.reminderLists)

	case "tr", "ltr", "ctr", "poll", "tagall":
		if !in.IsGroup {
			return d.reply(ctx, in.ChatID, "This command only works in groups.")
		}
		return d.routeGroup(ctx, in, command, args)

	case "pin":
		if strings.HasPrefix(strings.ToLower(args), "as ") {
			return d.Pins.HandlePinAs(ctx, in.ChatID, in.SenderID, in.Quoted, args[3:])
		}
		return d.Pins.HandlePin(ctx, in.ChatID, in.SenderID, in.Quoted)
	case "pinall":
		return d.Pins.HandleList(ctx, in.ChatID, in.SenderID, in.IsGroup, d.pinLists)
	case "unpin":
		return d.Pins.HandleUnpin(ctx, in.ChatID, in.SenderID, args, d.pinLists)
	case "vp":
		return d.Pins.HandleView(ctx, in.ChatID, in.SenderID, args, d.pinLists)

	case "react":
		return d.Tools.HandleReact(ctx, in.ChatID, in.MessageID, in.Quoted, args)
	case "spam":
		return d.Spam.HandleSpam(ctx, in.ChatID, in.SenderID, args)
	case "stopspam":
		return d.Spam.HandleStop(ctx, in.ChatID, in.SenderID, privileged)
	}
	return d.reply(ctx, in.ChatID, "Sorry, I don't understand that command. Type "+d.prefix+"help to see all available commands.")
}

func (d *Dispatcher) routeGroup(ctx context.Context, in Inbound, command, args string) error {
	switch command {
	case "tr":
		return d.TeamReminders.HandleRemind(ctx, in.ChatID, in.SenderID, args)
	case "ltr":
		return d.TeamReminders.HandleList(ctx, in.ChatID, in.SenderID, d.teamLists)
	case "ctr":
		return d.TeamReminders.HandleCancel(ctx, in.ChatID, in.SenderID, args, d.teamLists)
	case "poll":
		return d.Tools.HandlePoll(ctx, in.ChatID, args)
	default:
		return d.Tools.HandleTagAll(ctx, in.ChatID)
	}
}

// observe keeps the roster current so group reminders reach people who
// joined after they were set.
func (d *Dispatcher) observe(ctx context.Context, in Inbound) {
	if d.Roster == nil || in.SenderID == 0 {
		return
	}
	member := domain.Member{
		ChatID:   in.ChatID,
		UserID:   in.SenderID,
		Name:     in.SenderName,
		Username: in.SenderUsername,
		SeenAt:   time.Now().UTC(),
	}
	if err := d.Roster.Upsert(ctx, member); err != nil {
		log.Warn().Err(err).Int64("chat_id", in.ChatID).Msg("updating roster")
	}
}

func (d *Dispatcher) reply(ctx context.Context, chatID int64, msg string) error {
	return d.messenger.SendText(ctx, chatID, application.Outbound{Text: msg})
}

func (d *Dispatcher) oops(ctx context.Context, chatID int64, logger zerolog.Logger) {
	if err := d.reply(ctx, chatID, "Oops! Something went wrong while processing your request."); err != nil {
		logger.Error().Err(err).Msg("sending error reply")
	}
}
