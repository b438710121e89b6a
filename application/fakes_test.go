package application

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/srishtipnt/Parabot/domain"
)

type sent struct {
	ChatID int64
	Msg    Outbound
}

type poll struct {
	ChatID   int64
	Question string
	Options  []string
}

// fakeMessenger records outbound traffic. sendErr fails every SendText to
// the chats it lists.
type fakeMessenger struct {
	mu        sync.Mutex
	sent      []sent
	polls     []poll
	reactions []string
	deleted   []int
	sendErr   map[int64]error
	groupErr  error
	groups    map[int64]Group
	admins    map[int64]bool
	self      int64
}

func newFakeMessenger() *fakeMessenger {
	return &fakeMessenger{
		sendErr: make(map[int64]error),
		groups:  make(map[int64]Group),
		admins:  make(map[int64]bool),
		self:    999,
	}
}

func (f *fakeMessenger) SendText(_ context.Context, chatID int64, msg Outbound) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.sendErr[chatID]; err != nil {
		return err
	}
	f.sent = append(f.sent, sent{ChatID: chatID, Msg: msg})
	return nil
}

func (f *fakeMessenger) SendPoll(_ context.Context, chatID int64, question string, options []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.polls = append(f.polls, poll{ChatID: chatID, Question: question, Options: options})
	return nil
}

func (f *fakeMessenger) React(_ context.Context, _ int64, messageID int, emoji string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reactions = append(f.reactions, emoji)
	return nil
}

func (f *fakeMessenger) DeleteMessage(_ context.Context, _ int64, messageID int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, messageID)
	return nil
}

func (f *fakeMessenger) GroupInfo(_ context.Context, chatID int64) (Group, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.groupErr != nil {
		return Group{}, f.groupErr
	}
	g, ok := f.groups[chatID]
	if !ok {
		return Group{}, errors.New("unknown chat")
	}
	return g, nil
}

func (f *fakeMessenger) IsAdmin(_ context.Context, _ int64, userID int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.admins[userID], nil
}

func (f *fakeMessenger) SelfID() int64 { return f.self }

func (f *fakeMessenger) setGroup(chatID int64, g Group) {
	f.mu.Lock()
	f.groups[chatID] = g
	f.mu.Unlock()
}

func (f *fakeMessenger) messages() []sent {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]sent, len(f.sent))
	copy(out, f.sent)
	return out
}

func (f *fakeMessenger) last() sent {
	msgs := f.messages()
	if len(msgs) == 0 {
		return sent{}
	}
	return msgs[len(msgs)-1]
}

func (f *fakeMessenger) textsTo(chatID int64) []string {
	var out []string
	for _, m := range f.messages() {
		if m.ChatID == chatID {
			out = append(out, m.Msg.Text)
		}
	}
	return out
}

// fixedResolver treats everything after the marker " in " as the time
// expression and resolves it to a fixed offset from now.
type fixedResolver struct {
	marker string
	after  time.Duration
	err    error
}

func (r fixedResolver) Resolve(body string, now time.Time) (*Resolution, error) {
	if r.err != nil {
		return nil, r.err
	}
	marker := r.marker
	if marker == "" {
		marker = " in "
	}
	i := strings.LastIndex(body, marker)
	if i == -1 {
		return nil, nil
	}
	return &Resolution{At: now.Add(r.after), Index: i, Text: body[i:]}, nil
}

var baseTime = time.Date(2024, time.March, 1, 10, 0, 0, 0, time.UTC)

func fixedClock() func() time.Time {
	return func() time.Time { return baseTime }
}

func member(chatID, userID int64, name string) domain.Member {
	return domain.Member{ChatID: chatID, UserID: userID, Name: name}
}
