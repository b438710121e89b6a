package application

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/srishtipnt/Parabot/domain"
)

const pinSnippetLen = 60

// Quoted is the message a command replied to.
type Quoted struct {
	MessageID  int
	SenderID   int64
	SenderName string
	Text       string
	Forwarded  bool
}

// PinList is the per-user snapshot behind ".pinall", ".vp" and ".unpin".
type PinList = SelectionCache[int64, domain.Pin]

func NewPinList() *PinList { return NewSelectionCache[int64, domain.Pin]() }

type PinService struct {
	pins      domain.PinRepository
	contacts  domain.ContactRepository
	messenger Messenger
	settings
}

func NewPinService(pins domain.PinRepository, contacts domain.ContactRepository, messenger Messenger, opts ...Option) *PinService {
	return &PinService{pins: pins, contacts: contacts, messenger: messenger, settings: newSettings(opts)}
}

// HandlePin saves the quoted message. The sender must have a name in the
// pinner's contacts; the transport's display name is learned when there is
// one, otherwise the pinner is asked for "pin as <name>".
func (s *PinService) HandlePin(ctx context.Context, chatID, pinnerID int64, quoted *Quoted) error {
	if quoted == nil {
		return s.reply(ctx, chatID, "You must reply to a message to pin it.")
	}
	if quoted.Forwarded {
		return s.reply(ctx, chatID, fmt.Sprintf(
			"This is a forwarded message. Please reply again with the format:\n\n%spin as <Original Sender's Name>", s.prefix))
	}
	if quoted.SenderID == 0 {
		return s.reply(ctx, chatID, "Sorry, I couldn't identify the original sender.")
	}

	contact, err := s.contacts.Find(ctx, pinnerID, quoted.SenderID)
	if err != nil {
		log.Error().Err(err).Int64("pinner_id", pinnerID).Msg("find contact")
		return s.reply(ctx, chatID, "Sorry, a database error occurred. The pin was not saved.")
	}
	if contact == nil {
		if quoted.SenderName == "" {
			return s.reply(ctx, chatID, fmt.Sprintf(
				"I haven't learned the name for this sender in your contacts. To save this pin and their name, please reply again with the format:\n\n%spin as <Their Name>", s.prefix))
		}
		learned := domain.Contact{OwnerID: pinnerID, ContactID: quoted.SenderID, Name: quoted.SenderName}
		if err := s.contacts.Save(ctx, learned); err != nil {
			log.Warn().Err(err).Int64("pinner_id", pinnerID).Msg("save learned contact")
		}
	}

	if err := s.save(ctx, pinnerID, chatID, quoted, quoted.SenderID, ""); err != nil {
		log.Error().Err(err).Int64("pinner_id", pinnerID).Msg("save pin")
		return s.reply(ctx, chatID, "Sorry, a database error occurred. The pin was not saved.")
	}
	return s.reply(ctx, chatID, "✅ Message pinned!")
}

// HandlePinAs saves the quoted message and records name for its sender.
func (s *PinService) HandlePinAs(ctx context.Context, chatID, pinnerID int64, quoted *Quoted, name string) error {
	if quoted == nil {
		return s.reply(ctx, chatID, "You must use this command in reply to a message.")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return s.reply(ctx, chatID, fmt.Sprintf("Please give a name: %spin as <Their Name>", s.prefix))
	}

	if quoted.SenderID == 0 || quoted.Forwarded {
		if err := s.save(ctx, pinnerID, chatID, quoted, 0, name); err != nil {
			log.Error().Err(err).Int64("pinner_id", pinnerID).Msg("save pin")
			return s.reply(ctx, chatID, "Sorry, a critical error occurred while saving the pin.")
		}
		return s.reply(ctx, chatID, fmt.Sprintf("✅ Got it! I've saved the pin from %s.", name))
	}

	contact := domain.Contact{OwnerID: pinnerID, ContactID: quoted.SenderID, Name: name}
	if err := s.contacts.Save(ctx, contact); err != nil {
		log.Error().Err(err).Int64("pinner_id", pinnerID).Msg("save contact")
		return s.reply(ctx, chatID, "Sorry, a database error occurred. The contact was not saved.")
	}
	if err := s.save(ctx, pinnerID, chatID, quoted, quoted.SenderID, ""); err != nil {
		log.Error().Err(err).Int64("pinner_id", pinnerID).Msg("save pin")
		return s.reply(ctx, chatID, "Sorry, a critical error occurred while saving the pin.")
	}
	return s.reply(ctx, chatID, fmt.Sprintf("✅ Got it! I've saved the pin and will remember this user as %s for you.", name))
}

// HandleList sends the pin list to the requester privately. In a group only
// pins taken there are listed, and the group gets a short confirmation.
func (s *PinService) HandleList(ctx context.Context, chatID, senderID int64, isGroup bool, list *PinList) error {
	var origin int64
	if isGroup {
		origin = chatID
	}
	pins, err := s.pins.Find(ctx, senderID, origin)
	if err != nil {
		log.Error().Err(err).Int64("pinner_id", senderID).Msg("find pins")
		return s.reply(ctx, chatID, "Sorry, I couldn't load your pins right now.")
	}

	if len(pins) == 0 {
		msg := "You have no pinned messages."
		if isGroup {
			msg = "You have no messages pinned from this group."
		}
		if err := s.reply(ctx, senderID, msg); err != nil {
			return err
		}
	} else {
		list.Remember(senderID, pins)

		var b strings.Builder
		if isGroup {
			title := "this group"
			if group, err := s.messenger.GroupInfo(ctx, chatID); err == nil && group.Title != "" {
				title = fmt.Sprintf("the group \"%s\"", group.Title)
			}
			fmt.Fprintf(&b, "📌 Pins from %s:\n\n", title)
		} else {
			b.WriteString("📌 Your Pinned Messages (All):\n\n")
		}
		for i, p := range pins {
			fmt.Fprintf(&b, "%d. (from %s) \"%s\"\n", i+1, s.senderName(ctx, senderID, p), snippet(p.Text, pinSnippetLen))
		}
		fmt.Fprintf(&b, "\nTo view, use %svp <number>\nTo remove, use %sunpin <number>", s.prefix, s.prefix)
		if err := s.reply(ctx, senderID, b.String()); err != nil {
			return err
		}
	}

	if isGroup {
		return s.reply(ctx, chatID, "✅ I've sent your list of pinned messages to you privately.")
	}
	return nil
}

func (s *PinService) HandleView(ctx context.Context, chatID, senderID int64, args string, list *PinList) error {
	pin, n, err := s.selected(senderID, args, list)
	if err != nil {
		return s.reply(ctx, chatID, err.Error())
	}
	return s.reply(ctx, chatID, fmt.Sprintf("📌 Pin #%d (from %s):\n\n%s", n, s.senderName(ctx, senderID, pin), pin.Text))
}

func (s *PinService) HandleUnpin(ctx context.Context, chatID, senderID int64, args string, list *PinList) error {
	pin, n, err := s.selected(senderID, args, list)
	if err != nil {
		return s.reply(ctx, chatID, err.Error())
	}
	if _, err := s.pins.Delete(ctx, pin.ID, senderID); err != nil {
		log.Error().Err(err).Str("pin_id", pin.ID.Hex()).Msg("delete pin")
		return s.reply(ctx, chatID, "Sorry, I couldn't remove that pin right now.")
	}
	list.Forget(senderID)
	return s.reply(ctx, chatID, fmt.Sprintf("✅ Pin #%d (\"%s\") has been removed.", n, snippet(pin.Text, 20)))
}

// selected resolves against the cached list only; pins have no query
// fallback.
func (s *PinService) selected(senderID int64, args string, list *PinList) (domain.Pin, int, error) {
	pins, ok := list.Recall(senderID)
	if !ok {
		return domain.Pin{}, 0, domain.UserErrorf("I don't have a recent list for you. Please run the %spinall command first, then try again.", s.prefix)
	}
	n, ok := parseIndex(args)
	if !ok || n < 1 || n > len(pins) {
		return domain.Pin{}, 0, &domain.IndexError{Max: len(pins)}
	}
	return pins[n-1], n, nil
}

func (s *PinService) save(ctx context.Context, pinnerID, chatID int64, quoted *Quoted, senderID int64, label string) error {
	body := quoted.Text
	if body == "" {
		body = "Unsupported message type"
	}
	_, err := s.pins.Insert(ctx, domain.Pin{
		PinnerID:     pinnerID,
		Text:         body,
		SenderID:     senderID,
		SenderLabel:  label,
		OriginChatID: chatID,
		PinnedAt:     s.now().UTC().Truncate(time.Millisecond),
	})
	return err
}

func (s *PinService) senderName(ctx context.Context, ownerID int64, p domain.Pin) string {
	switch {
	case p.SenderID != 0:
		c, err := s.contacts.Find(ctx, ownerID, p.SenderID)
		if err == nil && c != nil {
			return c.Name
		}
		return fmt.Sprintf("user %d", p.SenderID)
	case p.SenderLabel != "":
		return p.SenderLabel
	}
	return "Unknown Sender"
}

func (s *PinService) reply(ctx context.Context, chatID int64, msg string) error {
	return s.messenger.SendText(ctx, chatID, text(msg))
}

func snippet(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
