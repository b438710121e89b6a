package handler

import (
	"context"

	"github.com/rs/zerolog/log"
	"gopkg.in/telebot.v3"

	"github.com/srishtipnt/Parabot/application"
	"github.com/srishtipnt/Parabot/domain"
	"github.com/srishtipnt/Parabot/infrastructure"
)

// BotHandler feeds telebot updates into the dispatcher and keeps the group
// roster in step with joins and leaves.
type BotHandler struct {
	bot        *telebot.Bot
	dispatcher *Dispatcher
	roster     domain.RosterRepository
}

func NewBotHandler(bot *telebot.Bot, dispatcher *Dispatcher, roster domain.RosterRepository) *BotHandler {
	return &BotHandler{bot: bot, dispatcher: dispatcher, roster: roster}
}

func (h *BotHandler) HandleMessages() {
	h.bot.Handle(telebot.OnText, func(c telebot.Context) error {
		m := c.Message()
		if m == nil || m.Sender == nil {
			return nil
		}
		h.dispatcher.Dispatch(context.Background(), InboundFromMessage(m))
		return nil
	})

	h.bot.Handle(telebot.OnUserJoined, func(c telebot.Context) error {
		m := c.Message()
		if m == nil {
			return nil
		}
		joined := m.UsersJoined
		if len(joined) == 0 && m.UserJoined != nil {
			joined = []telebot.User{*m.UserJoined}
		}
		for i := range joined {
			if joined[i].IsBot {
				continue
			}
			member := infrastructure.MemberFromUser(m.Chat.ID, &joined[i])
			if err := h.roster.Upsert(context.Background(), member); err != nil {
				log.Warn().Err(err).Int64("chat_id", m.Chat.ID).Msg("adding joined member")
			}
		}
		return nil
	})

	h.bot.Handle(telebot.OnUserLeft, func(c telebot.Context) error {
		m := c.Message()
		if m == nil || m.UserLeft == nil {
			return nil
		}
		if err := h.roster.Remove(context.Background(), m.Chat.ID, m.UserLeft.ID); err != nil {
			log.Warn().Err(err).Int64("chat_id", m.Chat.ID).Msg("removing departed member")
		}
		return nil
	})
}

// InboundFromMessage converts a telebot message. The sender must be set.
func InboundFromMessage(m *telebot.Message) Inbound {
	in := Inbound{
		ChatID:         m.Chat.ID,
		SenderID:       m.Sender.ID,
		SenderName:     infrastructure.DisplayName(m.Sender),
		SenderUsername: m.Sender.Username,
		IsGroup:        m.Chat.Type == telebot.ChatGroup || m.Chat.Type == telebot.ChatSuperGroup,
		MessageID:      m.ID,
		Text:           m.Text,
	}
	if r := m.ReplyTo; r != nil {
		q := &application.Quoted{
			MessageID: r.ID,
			Text:      r.Text,
			Forwarded: r.IsForwarded(),
		}
		if q.Text == "" {
			q.Text = r.Caption
		}
		if r.Sender != nil {
			q.SenderID = r.Sender.ID
			q.SenderName = infrastructure.DisplayName(r.Sender)
		}
		if r.OriginalSender != nil {
			q.SenderID = r.OriginalSender.ID
			q.SenderName = infrastructure.DisplayName(r.OriginalSender)
		}
		in.Quoted = q
	}
	return in
}
