package application

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/srishtipnt/Parabot/domain"
)

// ReminderList is the per-user snapshot behind ".lr" and ".cr <n>".
type ReminderList = SelectionCache[int64, domain.Reminder]

func NewReminderList() *ReminderList { return NewSelectionCache[int64, domain.Reminder]() }

// Cancellation is the outcome of a successful cancel-by-index. Removed is
// false when the row was already gone, e.g. the reminder fired meanwhile.
type Cancellation[T any] struct {
	Reminder T
	Index    int
	Removed  bool
}

type ReminderService struct {
	repository domain.ReminderRepository
	messenger  Messenger
	resolver   TimeResolver
	timers     *TimerRegistry
	settings
}

func NewReminderService(repository domain.ReminderRepository, messenger Messenger, resolver TimeResolver, timers *TimerRegistry, opts ...Option) *ReminderService {
	return &ReminderService{
		repository: repository,
		messenger:  messenger,
		resolver:   resolver,
		timers:     timers,
		settings:   newSettings(opts),
	}
}

// CreateReminder resolves the time in body, stores the reminder and arms its
// countdown.
func (s *ReminderService) CreateReminder(ctx context.Context, ownerID, chatID int64, body string) (domain.Reminder, error) {
	now := s.now()
	task, fireAt, err := parseRequest(s.resolver, body, now)
	if err != nil {
		remindersRejected.WithLabelValues(kindPersonal).Inc()
		return domain.Reminder{}, err
	}

	reminder := domain.NewReminder(ownerID, chatID, task, fireAt)
	id, err := s.repository.Insert(ctx, reminder)
	if err != nil {
		return domain.Reminder{}, fmt.Errorf("save reminder: %w", err)
	}
	reminder.ID = id

	if err := s.arm(reminder, fireAt.Sub(now)); err != nil && !scheduledElsewhere(err) {
		return domain.Reminder{}, err
	}
	remindersCreated.WithLabelValues(kindPersonal).Inc()
	log.Info().
		Str("reminder_id", id.Hex()).
		Int64("owner_id", ownerID).
		Time("fire_at", fireAt).
		Msg("reminder scheduled")
	return reminder, nil
}

// ListReminders returns the owner's pending reminders by fire time and
// remembers the snapshot for a later CancelReminder.
func (s *ReminderService) ListReminders(ctx context.Context, ownerID int64, list *ReminderList) ([]domain.Reminder, error) {
	reminders, err := s.repository.FindPending(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("find reminders: %w", err)
	}
	list.Remember(ownerID, reminders)
	return reminders, nil
}

// CancelReminder removes the arg-th reminder of the owner's last listing, or
// of a fresh query when no listing is cached.
func (s *ReminderService) CancelReminder(ctx context.Context, ownerID int64, arg string, list *ReminderList) (Cancellation[domain.Reminder], error) {
	target, n, err := pick(ctx, list, ownerID, arg, domain.ErrNothingToCancel,
		func(ctx context.Context) ([]domain.Reminder, error) {
			return s.repository.FindPending(ctx, ownerID)
		})
	if err != nil {
		return Cancellation[domain.Reminder]{}, err
	}
	defer list.Forget(ownerID)

	if s.timers.Cancel(target.ID) == CancelFiring {
		// fulfillment already claimed it
		return Cancellation[domain.Reminder]{Reminder: target, Index: n}, nil
	}
	removed, err := s.repository.Delete(ctx, target.ID, ownerID)
	if err != nil {
		return Cancellation[domain.Reminder]{}, fmt.Errorf("delete reminder: %w", err)
	}
	s.timers.Forget(target.ID)
	if removed {
		remindersCancelled.WithLabelValues(kindPersonal).Inc()
	}
	return Cancellation[domain.Reminder]{Reminder: target, Index: n, Removed: removed}, nil
}

// Rearm arms every pending reminder that has no live countdown and was not
// cancelled or fired after the snapshot was read. Overdue rows fire right
// away.
func (s *ReminderService) Rearm(ctx context.Context) (int, error) {
	end := s.timers.BeginSweep()
	defer end()
	reminders, err := s.repository.FindAllPending(ctx)
	if err != nil {
		return 0, fmt.Errorf("find pending reminders: %w", err)
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
	remindersRearmed.WithLabelValues(kindPersonal).Add(float64(armed))
	return armed, nil
}

func (s *ReminderService) arm(r domain.Reminder, delay time.Duration) error {
	if err := s.timers.Arm(r.ID, delay, func() { s.fulfill(r) }); err != nil {
		return fmt.Errorf("arm reminder %s: %w", r.ID.Hex(), err)
	}
	return nil
}

// fulfill delivers the reminder to its owner's private chat, then deletes the
// row whether or not delivery worked.
func (s *ReminderService) fulfill(r domain.Reminder) {
	ctx, cancel := context.WithTimeout(context.Background(), s.fireTimeout)
	defer cancel()

	outcome := "delivered"
	if err := s.messenger.SendText(ctx, r.OwnerID, text("🔔 Reminder: "+r.Text)); err != nil {
		outcome = "failed"
		log.Error().Err(err).Str("reminder_id", r.ID.Hex()).Int64("owner_id", r.OwnerID).Msg("reminder delivery failed")
	}
	cleanupCtx, cleanupCancel := context.WithTimeout(context.Background(), s.fireTimeout)
	defer cleanupCancel()
	if _, err := s.repository.Delete(cleanupCtx, r.ID, r.OwnerID); err != nil {
		log.Error().Err(err).Str("reminder_id", r.ID.Hex()).Msg("failed to delete fired reminder")
	} else {
		s.timers.Forget(r.ID)
	}
	remindersFired.WithLabelValues(kindPersonal, outcome).Inc()
	log.Info().Str("reminder_id", r.ID.Hex()).Str("outcome", outcome).Msg("reminder fired")
}

func (s *ReminderService) HandleRemind(ctx context.Context, chatID, senderID int64, args string) error {
	reminder, err := s.CreateReminder(ctx, senderID, chatID, args)
	if err != nil {
		return s.messenger.SendText(ctx, chatID, text(s.createFailure(err, "r <task> in <time>")))
	}
	reply := fmt.Sprintf("✅ Reminder set! I will remind you to \"%s\" on %s.", reminder.Text, s.formatTime(reminder.FireAt))
	return s.messenger.SendText(ctx, chatID, text(reply))
}

func (s *ReminderService) HandleList(ctx context.Context, chatID, senderID int64, list *ReminderList) error {
	reminders, err := s.ListReminders(ctx, senderID, list)
	if err != nil {
		log.Error().Err(err).Int64("owner_id", senderID).Msg("list reminders")
		return s.messenger.SendText(ctx, chatID, text("Sorry, I couldn't load your reminders right now."))
	}
	if len(reminders) == 0 {
		return s.messenger.SendText(ctx, chatID, text("You have no active reminders."))
	}

	var b strings.Builder
	b.WriteString("📋 Your Active Reminders:\n\n")
	for i, r := range reminders {
		fmt.Fprintf(&b, "%d. %s\n  - (Time: %s)\n", i+1, r.Text, s.formatTime(r.FireAt))
	}
	fmt.Fprintf(&b, "\nTo cancel, use %scr <number>", s.prefix)
	return s.messenger.SendText(ctx, chatID, text(b.String()))
}

func (s *ReminderService) HandleCancel(ctx context.Context, chatID, senderID int64, args string, list *ReminderList) error {
	c, err := s.CancelReminder(ctx, senderID, args, list)
	if err != nil {
		return s.messenger.SendText(ctx, chatID, text(s.cancelFailure(err)))
	}
	if !c.Removed {
		return s.messenger.SendText(ctx, chatID, text(fmt.Sprintf("Reminder #%d (\"%s\") was already delivered.", c.Index, c.Reminder.Text)))
	}
	return s.messenger.SendText(ctx, chatID, text(fmt.Sprintf("✅ Reminder #%d (\"%s\") has been canceled.", c.Index, c.Reminder.Text)))
}

func (s settings) createFailure(err error, usage string) string {
	if domain.IsUserError(err) {
		return fmt.Sprintf("Error: %s\n\nUsage:\n%s%s", err.Error(), s.prefix, usage)
	}
	log.Error().Err(err).Msg("create reminder")
	return "Error: I couldn't save the reminder. Please try again later."
}

func (s settings) cancelFailure(err error) string {
	if domain.IsUserError(err) {
		return err.Error()
	}
	log.Error().Err(err).Msg("cancel reminder")
	return "Sorry, I couldn't cancel that reminder right now."
}
