package memstore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/srishtipnt/Parabot/domain"
)

var t0 = time.Date(2024, time.March, 1, 10, 0, 0, 0, time.UTC)

func TestReminders(t *testing.T) {
	s := New()
	repo := s.Reminders()
	ctx := context.Background()

	late, err := repo.Insert(ctx, domain.NewReminder(1, 1, "late", t0.Add(2*time.Hour)))
	require.NoError(t, err)
	_, err = repo.Insert(ctx, domain.NewReminder(1, 1, "early", t0.Add(time.Hour)))
	require.NoError(t, err)
	_, err = repo.Insert(ctx, domain.NewReminder(2, 2, "other", t0))
	require.NoError(t, err)

	mine, err := repo.FindPending(ctx, 1)
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, "early", mine[0].Text)
	assert.Equal(t, "late", mine[1].Text)

	all, err := repo.FindAllPending(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)
	assert.Equal(t, "other", all[0].Text)

	removed, err := repo.Delete(ctx, late, 2)
	require.NoError(t, err)
	assert.False(t, removed, "delete is guarded by owner")

	removed, err = repo.Delete(ctx, late, 1)
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = repo.Delete(ctx, late, 1)
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestTeamReminders(t *testing.T) {
	s := New()
	repo := s.TeamReminders()
	ctx := context.Background()

	id, err := repo.Insert(ctx, domain.NewTeamReminder(7, -100, "retro", t0))
	require.NoError(t, err)
	_, err = repo.Insert(ctx, domain.NewTeamReminder(8, -100, "not mine", t0))
	require.NoError(t, err)

	got, err := repo.FindPending(ctx, domain.TeamKey{ChatID: -100, SetterID: 7})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, id, got[0].ID)

	removed, err := repo.Delete(ctx, id, 8)
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestPinsNewestFirst(t *testing.T) {
	s := New()
	repo := s.Pins()
	ctx := context.Background()

	for i, text := range []string{"first", "second", "third"} {
		_, err := repo.Insert(ctx, domain.Pin{PinnerID: 1, Text: text, OriginChatID: -100, PinnedAt: t0.Add(time.Duration(i) * time.Minute)})
		require.NoError(t, err)
	}
	_, err := repo.Insert(ctx, domain.Pin{PinnerID: 1, Text: "elsewhere", OriginChatID: -200, PinnedAt: t0})
	require.NoError(t, err)

	inGroup, err := repo.Find(ctx, 1, -100)
	require.NoError(t, err)
	require.Len(t, inGroup, 3)
	assert.Equal(t, "third", inGroup[0].Text)
	assert.Equal(t, "first", inGroup[2].Text)

	everywhere, err := repo.Find(ctx, 1, 0)
	require.NoError(t, err)
	assert.Len(t, everywhere, 4)
}

func TestContactsAndSettings(t *testing.T) {
	s := New()
	ctx := context.Background()

	c, err := s.Contacts().Find(ctx, 1, 2)
	require.NoError(t, err)
	assert.Nil(t, c)

	require.NoError(t, s.Contacts().Save(ctx, domain.Contact{OwnerID: 1, ContactID: 2, Name: "Bob"}))
	require.NoError(t, s.Contacts().Save(ctx, domain.Contact{OwnerID: 1, ContactID: 2, Name: "Robert"}))
	c, err = s.Contacts().Find(ctx, 1, 2)
	require.NoError(t, err)
	require.NotNil(t, c)
	assert.Equal(t, "Robert", c.Name)

	settings := s.Settings()
	require.NoError(t, settings.EnablePublic(ctx, -1))
	require.NoError(t, settings.EnablePublic(ctx, -1))
	require.NoError(t, settings.EnablePublic(ctx, -2))
	require.NoError(t, settings.DisablePublic(ctx, -2))
	chats, err := settings.PublicChats(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int64{-1}, chats)
}

func TestRoster(t *testing.T) {
	s := New()
	roster := s.Roster()
	ctx := context.Background()

	require.NoError(t, roster.Upsert(ctx, domain.Member{ChatID: -1, UserID: 20, Name: "Zed"}))
	require.NoError(t, roster.Upsert(ctx, domain.Member{ChatID: -1, UserID: 10, Name: "Ann"}))
	require.NoError(t, roster.Upsert(ctx, domain.Member{ChatID: -1, UserID: 20, Name: "Zed Z"}))
	require.NoError(t, roster.Upsert(ctx, domain.Member{ChatID: -2, UserID: 30, Name: "Elsewhere"}))

	members, err := roster.Members(ctx, -1)
	require.NoError(t, err)
	require.Len(t, members, 2)
	assert.Equal(t, int64(10), members[0].UserID)
	assert.Equal(t, "Zed Z", members[1].Name)

	require.NoError(t, roster.Remove(ctx, -1, 10))
	members, err = roster.Members(ctx, -1)
	require.NoError(t, err)
	assert.Len(t, members, 1)
}
