package infrastructure

import (
	"context"
	"fmt"
	"html"
	"sort"
	"strconv"
	"strings"
	"time"

	"gopkg.in/telebot.v3"

	"github.com/srishtipnt/Parabot/application"
	"github.com/srishtipnt/Parabot/domain"
)

// TelegramMessenger implements application.Messenger on the Bot API.
type TelegramMessenger struct {
	bot    *telebot.Bot
	roster domain.RosterRepository
}

func NewTelegramBot(token string) (*telebot.Bot, error) {
	return telebot.NewBot(telebot.Settings{
		Token:  token,
		Poller: &telebot.LongPoller{Timeout: 10 * time.Second},
	})
}

func NewTelegramMessenger(bot *telebot.Bot, roster domain.RosterRepository) *TelegramMessenger {
	return &TelegramMessenger{bot: bot, roster: roster}
}

func (m *TelegramMessenger) SendText(ctx context.Context, chatID int64, msg application.Outbound) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := m.bot.Send(telebot.ChatID(chatID), RenderHTML(msg), telebot.ModeHTML)
	return err
}

func (m *TelegramMessenger) SendPoll(ctx context.Context, chatID int64, question string, options []string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	poll := &telebot.Poll{Type: telebot.PollRegular, Question: question}
	poll.AddOptions(options...)
	_, err := m.bot.Send(telebot.ChatID(chatID), poll)
	return err
}

func (m *TelegramMessenger) React(ctx context.Context, chatID int64, messageID int, emoji string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := m.bot.Raw("setMessageReaction", map[string]interface{}{
		"chat_id":    chatID,
		"message_id": messageID,
		"reaction":   []map[string]string{{"type": "emoji", "emoji": emoji}},
	})
	return err
}

func (m *TelegramMessenger) DeleteMessage(ctx context.Context, chatID int64, messageID int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return m.bot.Delete(&telebot.StoredMessage{MessageID: strconv.Itoa(messageID), ChatID: chatID})
}

// GroupInfo merges the observed roster with the chat's administrators.
func (m *TelegramMessenger) GroupInfo(ctx context.Context, chatID int64) (application.Group, error) {
	chat, err := m.bot.ChatByID(chatID)
	if err != nil {
		return application.Group{}, fmt.Errorf("chat %d: %w", chatID, err)
	}
	members, err := m.roster.Members(ctx, chatID)
	if err != nil {
		return application.Group{}, fmt.Errorf("roster of %d: %w", chatID, err)
	}
	admins, err := m.bot.AdminsOf(chat)
	if err != nil {
		return application.Group{}, fmt.Errorf("admins of %d: %w", chatID, err)
	}

	byID := make(map[int64]domain.Member, len(members)+len(admins))
	for _, mem := range members {
		byID[mem.UserID] = mem
	}
	for _, a := range admins {
		if a.User == nil {
			continue
		}
		if _, ok := byID[a.User.ID]; !ok {
			byID[a.User.ID] = MemberFromUser(chatID, a.User)
		}
	}

	merged := make([]domain.Member, 0, len(byID))
	for _, mem := range byID {
		merged = append(merged, mem)
	}
	sort.Slice(merged, func(i, j int) bool { return merged[i].UserID < merged[j].UserID })
	return application.Group{Title: chat.Title, Members: merged}, nil
}

func (m *TelegramMessenger) IsAdmin(ctx context.Context, chatID, userID int64) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	member, err := m.bot.ChatMemberOf(&telebot.Chat{ID: chatID}, &telebot.User{ID: userID})
	if err != nil {
		return false, err
	}
	return member.Role == telebot.Administrator || member.Role == telebot.Creator, nil
}

func (m *TelegramMessenger) SelfID() int64 {
	if m.bot.Me == nil {
		return 0
	}
	return m.bot.Me.ID
}

// RenderHTML escapes the text and appends one tg:// link per mention.
func RenderHTML(msg application.Outbound) string {
	out := html.EscapeString(msg.Text)
	if len(msg.Mentions) == 0 {
		return out
	}
	links := make([]string, 0, len(msg.Mentions))
	for _, mem := range msg.Mentions {
		name := mem.Name
		if name == "" {
			name = strconv.FormatInt(mem.UserID, 10)
		}
		links = append(links, fmt.Sprintf(`<a href="tg://user?id=%d">@%s</a>`, mem.UserID, html.EscapeString(name)))
	}
	return out + "\n\n" + strings.Join(links, " ")
}

// MemberFromUser builds a roster entry for u in chatID.
func MemberFromUser(chatID int64, u *telebot.User) domain.Member {
	return domain.Member{
		ChatID:   chatID,
		UserID:   u.ID,
		Name:     DisplayName(u),
		Username: u.Username,
		SeenAt:   time.Now().UTC(),
	}
}

func DisplayName(u *telebot.User) string {
	if u == nil {
		return ""
	}
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		name = u.Username
	}
	return name
}
