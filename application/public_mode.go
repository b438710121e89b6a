package application

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/srishtipnt/Parabot/domain"
)

// PublicMode is the in-memory view of the groups where anyone may use the
// bot. Writes go to the settings store first.
type PublicMode struct {
	repository domain.SettingsRepository
	messenger  Messenger

	mu    sync.RWMutex
	chats map[int64]struct{}
}

func NewPublicMode(repository domain.SettingsRepository, messenger Messenger) *PublicMode {
	return &PublicMode{
		repository: repository,
		messenger:  messenger,
		chats:      make(map[int64]struct{}),
	}
}

func (p *PublicMode) Load(ctx context.Context) error {
	ids, err := p.repository.PublicChats(ctx)
	if err != nil {
		return fmt.Errorf("load public chats: %w", err)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.chats = make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		p.chats[id] = struct{}{}
	}
	log.Info().Int("chats", len(ids)).Msg("public mode loaded")
	return nil
}

func (p *PublicMode) Enabled(chatID int64) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	_, ok := p.chats[chatID]
	return ok
}

func (p *PublicMode) set(ctx context.Context, chatID int64, on bool) error {
	var err error
	if on {
		err = p.repository.EnablePublic(ctx, chatID)
	} else {
		err = p.repository.DisablePublic(ctx, chatID)
	}
	if err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if on {
		p.chats[chatID] = struct{}{}
	} else {
		delete(p.chats, chatID)
	}
	return nil
}

// Handle serves "pmode [on|off]". Only privileged callers may change it.
func (p *PublicMode) Handle(ctx context.Context, chatID int64, isGroup, privileged bool, args string) error {
	current := p.Enabled(chatID)
	status := "OFF"
	if current {
		status = "ON"
	}
	if !privileged {
		return p.messenger.SendText(ctx, chatID, text(fmt.Sprintf(
			"Public mode is currently %s for this group. Only the owner or a group admin can change it.", status)))
	}
	if !isGroup {
		return p.messenger.SendText(ctx, chatID, text("This command can only be used in a group chat."))
	}

	var reply string
	switch strings.ToLower(strings.TrimSpace(args)) {
	case "on":
		if current {
			reply = "Public mode is already ON for this group."
			break
		}
		if err := p.set(ctx, chatID, true); err != nil {
			log.Error().Err(err).Int64("chat_id", chatID).Msg("enable public mode")
			reply = "Sorry, a database error occurred. Public mode was not changed."
			break
		}
		reply = "✅ Public mode is now ON for this group."
	case "off":
		if !current {
			reply = "Public mode is already OFF for this group."
			break
		}
		if err := p.set(ctx, chatID, false); err != nil {
			log.Error().Err(err).Int64("chat_id", chatID).Msg("disable public mode")
			reply = "Sorry, a database error occurred. Public mode was not changed."
			break
		}
		reply = "✅ Public mode is now OFF for this group."
	default:
		reply = fmt.Sprintf("Public mode is currently %s for this group.", status)
	}
	return p.messenger.SendText(ctx, chatID, text(reply))
}
