// Package memstore keeps every repository in process memory. It backs the
// STORE_DRIVER=memory mode and the service tests.
package memstore

import (
	"context"
	"sort"
	"sync"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/srishtipnt/Parabot/domain"
)

type Store struct {
	mu            sync.Mutex
	reminders     map[primitive.ObjectID]domain.Reminder
	teamReminders map[primitive.ObjectID]domain.TeamReminder
	pins          map[primitive.ObjectID]domain.Pin
	contacts      map[[2]int64]domain.Contact
	publicChats   map[int64]struct{}
	roster        map[int64]map[int64]domain.Member
}

func New() *Store {
	return &Store{
		reminders:     make(map[primitive.ObjectID]domain.Reminder),
		teamReminders: make(map[primitive.ObjectID]domain.TeamReminder),
		pins:          make(map[primitive.ObjectID]domain.Pin),
		contacts:      make(map[[2]int64]domain.Contact),
		publicChats:   make(map[int64]struct{}),
		roster:        make(map[int64]map[int64]domain.Member),
	}
}

func (s *Store) Reminders() domain.ReminderRepository         { return reminderRepo{s} }
func (s *Store) TeamReminders() domain.TeamReminderRepository { return teamReminderRepo{s} }
func (s *Store) Pins() domain.PinRepository                   { return pinRepo{s} }
func (s *Store) Contacts() domain.ContactRepository           { return contactRepo{s} }
func (s *Store) Settings() domain.SettingsRepository          { return settingsRepo{s} }
func (s *Store) Roster() domain.RosterRepository              { return rosterRepo{s} }

type reminderRepo struct{ s *Store }

func (r reminderRepo) Insert(_ context.Context, rem domain.Reminder) (primitive.ObjectID, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if rem.ID.IsZero() {
		rem.ID = primitive.NewObjectID()
	}
	r.s.reminders[rem.ID] = rem
	return rem.ID, nil
}

func (r reminderRepo) FindPending(_ context.Context, ownerID int64) ([]domain.Reminder, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []domain.Reminder
	for _, rem := range r.s.reminders {
		if rem.OwnerID == ownerID && !rem.Delivered {
			out = append(out, rem)
		}
	}
	sortReminders(out)
	return out, nil
}

func (r reminderRepo) FindAllPending(_ context.Context) ([]domain.Reminder, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []domain.Reminder
	for _, rem := range r.s.reminders {
		if !rem.Delivered {
			out = append(out, rem)
		}
	}
	sortReminders(out)
	return out, nil
}

func (r reminderRepo) Delete(_ context.Context, id primitive.ObjectID, ownerID int64) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	rem, ok := r.s.reminders[id]
	if !ok || rem.OwnerID != ownerID {
		return false, nil
	}
	delete(r.s.reminders, id)
	return true, nil
}

type teamReminderRepo struct{ s *Store }

func (r teamReminderRepo) Insert(_ context.Context, rem domain.TeamReminder) (primitive.ObjectID, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if rem.ID.IsZero() {
		rem.ID = primitive.NewObjectID()
	}
	r.s.teamReminders[rem.ID] = rem
	return rem.ID, nil
}

func (r teamReminderRepo) FindPending(_ context.Context, key domain.TeamKey) ([]domain.TeamReminder, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []domain.TeamReminder
	for _, rem := range r.s.teamReminders {
		if rem.ChatID == key.ChatID && rem.SetterID == key.SetterID && !rem.Delivered {
			out = append(out, rem)
		}
	}
	sortTeamReminders(out)
	return out, nil
}

func (r teamReminderRepo) FindAllPending(_ context.Context) ([]domain.TeamReminder, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []domain.TeamReminder
	for _, rem := range r.s.teamReminders {
		if !rem.Delivered {
			out = append(out, rem)
		}
	}
	sortTeamReminders(out)
	return out, nil
}

func (r teamReminderRepo) Delete(_ context.Context, id primitive.ObjectID, setterID int64) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	rem, ok := r.s.teamReminders[id]
	if !ok || rem.SetterID != setterID {
		return false, nil
	}
	delete(r.s.teamReminders, id)
	return true, nil
}

// Map iteration order is random, so ties on FireAt fall back to the ObjectID,
// which grows with insertion time.
func sortReminders(rs []domain.Reminder) {
	sort.Slice(rs, func(i, j int) bool {
		if !rs[i].FireAt.Equal(rs[j].FireAt) {
			return rs[i].FireAt.Before(rs[j].FireAt)
		}
		return rs[i].ID.Hex() < rs[j].ID.Hex()
	})
}

func sortTeamReminders(rs []domain.TeamReminder) {
	sort.Slice(rs, func(i, j int) bool {
		if !rs[i].FireAt.Equal(rs[j].FireAt) {
			return rs[i].FireAt.Before(rs[j].FireAt)
		}
		return rs[i].ID.Hex() < rs[j].ID.Hex()
	})
}

type pinRepo struct{ s *Store }

func (r pinRepo) Insert(_ context.Context, pin domain.Pin) (primitive.ObjectID, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if pin.ID.IsZero() {
		pin.ID = primitive.NewObjectID()
	}
	r.s.pins[pin.ID] = pin
	return pin.ID, nil
}

func (r pinRepo) Find(_ context.Context, pinnerID, originChatID int64) ([]domain.Pin, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []domain.Pin
	for _, p := range r.s.pins {
		if p.PinnerID != pinnerID {
			continue
		}
		if originChatID != 0 && p.OriginChatID != originChatID {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].PinnedAt.Equal(out[j].PinnedAt) {
			return out[i].PinnedAt.After(out[j].PinnedAt)
		}
		return out[i].ID.Hex() > out[j].ID.Hex()
	})
	return out, nil
}

func (r pinRepo) Delete(_ context.Context, id primitive.ObjectID, pinnerID int64) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.pins[id]
	if !ok || p.PinnerID != pinnerID {
		return false, nil
	}
	delete(r.s.pins, id)
	return true, nil
}

type contactRepo struct{ s *Store }

func (r contactRepo) Find(_ context.Context, ownerID, contactID int64) (*domain.Contact, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.contacts[[2]int64{ownerID, contactID}]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (r contactRepo) Save(_ context.Context, c domain.Contact) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.contacts[[2]int64{c.OwnerID, c.ContactID}] = c
	return nil
}

type settingsRepo struct{ s *Store }

func (r settingsRepo) PublicChats(_ context.Context) ([]int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]int64, 0, len(r.s.publicChats))
	for id := range r.s.publicChats {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

func (r settingsRepo) EnablePublic(_ context.Context, chatID int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.publicChats[chatID] = struct{}{}
	return nil
}

func (r settingsRepo) DisablePublic(_ context.Context, chatID int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.publicChats, chatID)
	return nil
}

type rosterRepo struct{ s *Store }

func (r rosterRepo) Upsert(_ context.Context, m domain.Member) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	chat, ok := r.s.roster[m.ChatID]
	if !ok {
		chat = make(map[int64]domain.Member)
		r.s.roster[m.ChatID] = chat
	}
	chat[m.UserID] = m
	return nil
}

func (r rosterRepo) Remove(_ context.Context, chatID, userID int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.roster[chatID], userID)
	return nil
}

func (r rosterRepo) Members(_ context.Context, chatID int64) ([]domain.Member, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]domain.Member, 0, len(r.s.roster[chatID]))
	for _, m := range r.s.roster[chatID] {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out, nil
}
