package application

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/srishtipnt/Parabot/domain/memstore"
)

func newPinFixture() (*PinService, *fakeMessenger, *memstore.Store) {
	store := memstore.New()
	messenger := newFakeMessenger()
	tick := baseTime
	clock := func() time.Time {
		tick = tick.Add(time.Second)
		return tick
	}
	return NewPinService(store.Pins(), store.Contacts(), messenger, WithClock(clock)), messenger, store
}

func TestPinService_PinLearnsSenderName(t *testing.T) {
	svc, messenger, store := newPinFixture()
	ctx := context.Background()

	q := &Quoted{MessageID: 5, SenderID: bob, SenderName: "Bob", Text: "the wifi password is hunter2"}
	require.NoError(t, svc.HandlePin(ctx, group, alice, q))
	assert.Equal(t, "✅ Message pinned!", messenger.last().Msg.Text)

	contact, err := store.Contacts().Find(ctx, alice, bob)
	require.NoError(t, err)
	require.NotNil(t, contact)
	assert.Equal(t, "Bob", contact.Name)

	pins, err := store.Pins().Find(ctx, alice, group)
	require.NoError(t, err)
	require.Len(t, pins, 1)
	assert.Equal(t, bob, pins[0].SenderID)
}

func TestPinService_PinNeedsReplyAndName(t *testing.T) {
	svc, messenger, _ := newPinFixture()
	ctx := context.Background()

	require.NoError(t, svc.HandlePin(ctx, group, alice, nil))
	assert.Equal(t, "You must reply to a message to pin it.", messenger.last().Msg.Text)

	require.NoError(t, svc.HandlePin(ctx, group, alice, &Quoted{SenderID: bob, Text: "hi", Forwarded: true}))
	assert.Contains(t, messenger.last().Msg.Text, ".pin as <Original Sender's Name>")

	require.NoError(t, svc.HandlePin(ctx, group, alice, &Quoted{SenderID: bob, Text: "hi"}))
	assert.Contains(t, messenger.last().Msg.Text, ".pin as <Their Name>")
}

func TestPinService_PinAsForwardedKeepsLabel(t *testing.T) {
	svc, messenger, store := newPinFixture()
	ctx := context.Background()

	require.NoError(t, svc.HandlePinAs(ctx, group, alice, &Quoted{SenderID: bob, Text: "fwd", Forwarded: true}, "  Dana "))
	assert.Equal(t, "✅ Got it! I've saved the pin from Dana.", messenger.last().Msg.Text)

	pins, err := store.Pins().Find(ctx, alice, 0)
	require.NoError(t, err)
	require.Len(t, pins, 1)
	assert.Equal(t, "Dana", pins[0].SenderLabel)
	assert.Zero(t, pins[0].SenderID)
}

func TestPinService_ListViewUnpin(t *testing.T) {
	svc, messenger, _ := newPinFixture()
	ctx := context.Background()
	messenger.setGroup(group, Group{Title: "Friends"})

	require.NoError(t, svc.HandlePinAs(ctx, group, alice, &Quoted{SenderID: bob, Text: "older pin"}, "Bob"))
	require.NoError(t, svc.HandlePin(ctx, group, alice, &Quoted{SenderID: bob, Text: strings.Repeat("x", 80)}))
	require.NoError(t, svc.HandlePin(ctx, -600, alice, &Quoted{SenderID: bob, Text: "other group"}))

	list := NewPinList()
	require.NoError(t, svc.HandleList(ctx, group, alice, true, list))
	msgs := messenger.messages()
	private := msgs[len(msgs)-2]
	assert.Equal(t, alice, private.ChatID)
	assert.True(t, strings.HasPrefix(private.Msg.Text, "📌 Pins from the group \"Friends\":\n\n1. (from Bob) \""+strings.Repeat("x", 60)+"...\"\n2. (from Bob) \"older pin\""))
	assert.NotContains(t, private.Msg.Text, "other group")
	assert.Equal(t, "✅ I've sent your list of pinned messages to you privately.", messenger.last().Msg.Text)

	require.NoError(t, svc.HandleView(ctx, alice, alice, "2", list))
	assert.Equal(t, "📌 Pin #2 (from Bob):\n\nolder pin", messenger.last().Msg.Text)

	require.NoError(t, svc.HandleView(ctx, alice, alice, "9", list))
	assert.Equal(t, "Please provide a valid number from 1 to 2.", messenger.last().Msg.Text)

	require.NoError(t, svc.HandleUnpin(ctx, alice, alice, "2", list))
	assert.Equal(t, `✅ Pin #2 ("older pin") has been removed.`, messenger.last().Msg.Text)

	require.NoError(t, svc.HandleUnpin(ctx, alice, alice, "1", list))
	assert.Equal(t, "I don't have a recent list for you. Please run the .pinall command first, then try again.", messenger.last().Msg.Text)
}

func TestPinService_EmptyListInPrivate(t *testing.T) {
	svc, messenger, _ := newPinFixture()
	require.NoError(t, svc.HandleList(context.Background(), alice, alice, false, NewPinList()))
	assert.Equal(t, []string{"You have no pinned messages."}, messenger.textsTo(alice))
}

func TestSnippet(t *testing.T) {
	assert.Equal(t, "short", snippet("short", 10))
	assert.Equal(t, "héll...", snippet("héllo wörld", 4))
	assert.Equal(t, "", snippet("", 3))
}
