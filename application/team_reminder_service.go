package application

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/srishtipnt/Parabot/domain"
)

// TeamReminderList is the per-(group, setter) snapshot behind ".ltr" and
// ".ctr <n>".
type TeamReminderList = SelectionCache[domain.TeamKey, domain.TeamReminder]

func NewTeamReminderList() *TeamReminderList {
	return NewSelectionCache[domain.TeamKey, domain.TeamReminder]()
}

type TeamReminderService struct {
	repository domain.TeamReminderRepository
	messenger  Messenger
	resolver   TimeResolver
	timers     *TimerRegistry
	settings
}

func NewTeamReminderService(repository domain.TeamReminderRepository, messenger Messenger, resolver TimeResolver, timers *TimerRegistry, opts ...Option) *TeamReminderService {
	return &TeamReminderService{
		repository: repository,
		messenger:  messenger,
		resolver:   resolver,
		timers:     timers,
		settings:   newSettings(opts),
	}
}

func (s *TeamReminderService) CreateReminder(ctx context.Context, setterID, chatID int64, body string) (domain.TeamReminder, error) {
	now := s.now()
	task, fireAt, err := parseRequest(s.resolver, body, now)
	if err != nil {
		remindersRejected.WithLabelValues(kindTeam).Inc()
		return domain.TeamReminder{}, err
	}

	reminder := domain.NewTeamReminder(setterID, chatID, task, fireAt)
	id, err := s.repository.Insert(ctx, reminder)
	if err != nil {
		return domain.TeamReminder{}, fmt.Errorf("save team reminder: %w", err)
	}
	reminder.ID = id

	if err := s.arm(reminder, fireAt.Sub(now)); err != nil && !scheduledElsewhere(err) {
		return domain.TeamReminder{}, err
	}
	remindersCreated.WithLabelValues(kindTeam).Inc()
	log.Info().
		Str("reminder_id", id.Hex()).
		Int64("chat_id", chatID).
		Int64("setter_id", setterID).
		Time("fire_at", fireAt).
		Msg("team reminder scheduled")
	return reminder, nil
}

// ListReminders returns only the reminders the setter created in this group.
func (s *TeamReminderService) ListReminders(ctx context.Context, key domain.TeamKey, list *TeamReminderList) ([]domain.TeamReminder, error) {
	reminders, err := s.repository.FindPending(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("find team reminders: %w", err)
	}
	list.Remember(key, reminders)
	return reminders, nil
}

func (s *TeamReminderService) CancelReminder(ctx context.Context, key domain.TeamKey, arg string, list *TeamReminderList) (Cancellation[domain.TeamReminder], error) {
	target, n, err := pick(ctx, list, key, arg, domain.ErrNothingInGroup,
		func(ctx context.Context) ([]domain.TeamReminder, error) {
			return s.repository.FindPending(ctx, key)
		})
	if err != nil {
		return Cancellation[domain.TeamReminder]{}, err
	}
	if target.SetterID != key.SetterID {
		return Cancellation[domain.TeamReminder]{}, domain.ErrNotSetter
	}
	defer list.Forget(key)

	if s.timers.Cancel(target.ID) == CancelFiring {
		// fulfillment already claimed it
		return Cancellation[domain.TeamReminder]{Reminder: target, Index: n}, nil
	}
	removed, err := s.repository.Delete(ctx, target.ID, key.SetterID)
	if err != nil {
		return Cancellation[domain.TeamReminder]{}, fmt.Errorf("delete team reminder: %w", err)
	}
	s.timers.Forget(target.ID)
	if removed {
		remindersCancelled.WithLabelValues(kindTeam).Inc()
	}
	return Cancellation[domain.TeamReminder]{Reminder: target, Index: n, Removed: removed}, nil
}

func (s *TeamReminderService) Rearm(ctx context.Context) (int, error) {
	end := s.timers.BeginSweep()
	defer end()
	reminders, err := s.repository.FindAllPending(ctx)
	if err != nil {
		return 0, fmt.Errorf("find pending team reminders: %w", err)
	}
	now := s.now()
	armed := 0
	for _, r := range reminders {
		delay := r.FireAt.Sub(now)
		if delay < 0 {
			delay = 0
		}
		if err := s.arm(r, delay); err != nil {
			continue
		}
		armed++
	}
	remindersRearmed.WithLabelValues(kindTeam).Add(float64(armed))
	return armed, nil
}

func (s *TeamReminderService) arm(r domain.TeamReminder, delay time.Duration) error {
	if err := s.timers.Arm(r.ID, delay, func() { s.fulfill(r) }); err != nil {
		return fmt.Errorf("arm team reminder %s: %w", r.ID.Hex(), err)
	}
	return nil
}

// fulfill tags the group's members as known right now, not when the reminder
// was set. On failure the setter is told privately. The row is deleted either
// way.
func (s *TeamReminderService) fulfill(r domain.TeamReminder) {
	ctx, cancel := context.WithTimeout(context.Background(), s.fireTimeout)
	defer cancel()

	outcome := "delivered"
	if err := s.deliver(ctx, r); err != nil {
		outcome = "failed"
		log.Error().Err(err).Str("reminder_id", r.ID.Hex()).Int64("chat_id", r.ChatID).Msg("sending group reminder")
		notice := fmt.Sprintf("I couldn't send the group reminder for \"%s\".", r.Text)
		if err := s.messenger.SendText(ctx, r.SetterID, text(notice)); err != nil {
			log.Error().Err(err).Int64("setter_id", r.SetterID).Msg("notifying setter of failed group reminder")
		}
	}

	cleanupCtx, cleanupCancel := context.WithTimeout(context.Background(), s.fireTimeout)
	defer cleanupCancel()
	if _, err := s.repository.Delete(cleanupCtx, r.ID, r.SetterID); err != nil {
		log.Error().Err(err).Str("reminder_id", r.ID.Hex()).Msg("failed to delete fired team reminder")
	} else {
		s.timers.Forget(r.ID)
	}
	remindersFired.WithLabelValues(kindTeam, outcome).Inc()
	log.Info().Str("reminder_id", r.ID.Hex()).Str("outcome", outcome).Msg("team reminder fired")
}

func (s *TeamReminderService) deliver(ctx context.Context, r domain.TeamReminder) error {
	group, err := s.messenger.GroupInfo(ctx, r.ChatID)
	if err != nil {
		return fmt.Errorf("group info: %w", err)
	}
	self := s.messenger.SelfID()
	setterName := "@" + strconv.FormatInt(r.SetterID, 10)
	mentions := make([]domain.Member, 0, len(group.Members))
	for _, m := range group.Members {
		if m.UserID == self {
			continue
		}
		if m.UserID == r.SetterID && m.Name != "" {
			setterName = m.Name
		}
		mentions = append(mentions, m)
	}

	msg := Outbound{
		Text:     fmt.Sprintf("🔔 Group Reminder (set by %s):\n\n%s", setterName, r.Text),
		Mentions: mentions,
	}
	return s.messenger.SendText(ctx, r.ChatID, msg)
}

func (s *TeamReminderService) HandleRemind(ctx context.Context, chatID, senderID int64, args string) error {
	reminder, err := s.CreateReminder(ctx, senderID, chatID, args)
	if err != nil {
		return s.messenger.SendText(ctx, chatID, text(s.createFailure(err, "tr <task> at <time>")))
	}
	reply := fmt.Sprintf("✅ Tag-All reminder set!\nI will remind everyone here for \"%s\" on %s.", reminder.Text, s.formatTime(reminder.FireAt))
	return s.messenger.SendText(ctx, chatID, text(reply))
}

func (s *TeamReminderService) HandleList(ctx context.Context, chatID, senderID int64, list *TeamReminderList) error {
	key := domain.TeamKey{ChatID: chatID, SetterID: senderID}
	reminders, err := s.ListReminders(ctx, key, list)
	if err != nil {
		log.Error().Err(err).Int64("chat_id", chatID).Msg("list team reminders")
		return s.messenger.SendText(ctx, chatID, text("Sorry, I couldn't load your group reminders right now."))
	}
	if len(reminders) == 0 {
		return s.messenger.SendText(ctx, chatID, text("You have no active reminders in this group."))
	}

	var b strings.Builder
	b.WriteString("📋 Your Active Reminders in This Group:\n\n")
	for i, r := range reminders {
		fmt.Fprintf(&b, "%d. %s\n  - (Time: %s)\n", i+1, r.Text, s.formatTime(r.FireAt))
	}
	fmt.Fprintf(&b, "\nTo cancel, use %sctr <number>", s.prefix)
	return s.messenger.SendText(ctx, chatID, text(b.String()))
}

func (s *TeamReminderService) HandleCancel(ctx context.Context, chatID, senderID int64, args string, list *TeamReminderList) error {
	key := domain.TeamKey{ChatID: chatID, SetterID: senderID}
	c, err := s.CancelReminder(ctx, key, args, list)
	if err != nil {
		return s.messenger.SendText(ctx, chatID, text(s.cancelFailure(err)))
	}
	if !c.Removed {
		return s.messenger.SendText(ctx, chatID, text(fmt.Sprintf("Group reminder #%d (\"%s\") was already delivered.", c.Index, c.Reminder.Text)))
	}
	return s.messenger.SendText(ctx, chatID, text(fmt.Sprintf("✅ Your group reminder #%d (\"%s\") has been canceled.", c.Index, c.Reminder.Text)))
}
