package handler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/telebot.v3"
)

func TestInboundFromMessage_Group(t *testing.T) {
	m := &telebot.Message{
		ID:     42,
		Text:   ".pin",
		Chat:   &telebot.Chat{ID: -100, Type: telebot.ChatSuperGroup},
		Sender: &telebot.User{ID: 7, FirstName: "Ada", LastName: "Lovelace", Username: "ada"},
		ReplyTo: &telebot.Message{
			ID:     41,
			Sender: &telebot.User{ID: 8, Username: "bob"},
			Text:   "original",
		},
	}

	in := InboundFromMessage(m)
	assert.Equal(t, int64(-100), in.ChatID)
	assert.Equal(t, int64(7), in.SenderID)
	assert.Equal(t, "Ada Lovelace", in.SenderName)
	assert.Equal(t, "ada", in.SenderUsername)
	assert.True(t, in.IsGroup)
	assert.Equal(t, 42, in.MessageID)

	require.NotNil(t, in.Quoted)
	assert.Equal(t, 41, in.Quoted.MessageID)
	assert.Equal(t, int64(8), in.Quoted.SenderID)
	assert.Equal(t, "bob", in.Quoted.SenderName)
	assert.False(t, in.Quoted.Forwarded)
}

func TestInboundFromMessage_ForwardedCaption(t *testing.T) {
	m := &telebot.Message{
		ID:     3,
		Text:   ".pin as Carol",
		Chat:   &telebot.Chat{ID: 7, Type: telebot.ChatPrivate},
		Sender: &telebot.User{ID: 7},
		ReplyTo: &telebot.Message{
			ID:             2,
			Sender:         &telebot.User{ID: 8},
			OriginalSender: &telebot.User{ID: 9, FirstName: "Carol"},
			Caption:        "photo caption",
		},
	}

	in := InboundFromMessage(m)
	assert.False(t, in.IsGroup)
	require.NotNil(t, in.Quoted)
	assert.True(t, in.Quoted.Forwarded)
	assert.Equal(t, int64(9), in.Quoted.SenderID)
	assert.Equal(t, "Carol", in.Quoted.SenderName)
	assert.Equal(t, "photo caption", in.Quoted.Text)
}
