package telegram

import (
	"context"
	"strconv"
	"strings"

	"github.com/ds124wfegd/eventbot/internal/entity"
)

const Platform = "telegram"

// Adapter exposes a Bot as a chat channel. Identities are lower-cased
// @usernames, falling back to numeric ids.
type Adapter struct {
	bot *Bot
}

func NewAdapter(bot *Bot) *Adapter {
	return &Adapter{bot: bot}
}

// SelfID is the bot's @username, or its numeric id when it has none.
func (a *Adapter) SelfID() string {
	if handle := a.bot.Handle(); handle != "" {
		return handle
	}
	if id := a.bot.SelfID(); id != 0 {
		return strconv.FormatInt(id, 10)
	}
	return ""
}

// ChatMessage converts a webhook update. ok is false for updates that carry
// no text message.
func (a *Adapter) ChatMessage(u *Update) (*entity.ChatMessage, bool) {
	m := u.Message
	if m == nil || m.Text == "" {
		return nil, false
	}

	return &entity.ChatMessage{
		ID:        strconv.FormatInt(m.Chat.ID, 10) + ":" + strconv.FormatInt(m.MessageID, 10),
		Platform:  Platform,
		ChannelID: strconv.FormatInt(m.Chat.ID, 10),
		AuthorID:  identity(m.From),
		Text:      m.Text,
		Mentions:  Mentions(m),
	}, true
}

func (a *Adapter) Reply(ctx context.Context, msg *entity.ChatMessage, text string) error {
	replyTo := ""
	if i := strings.LastIndexByte(msg.ID, ':'); i >= 0 {
		replyTo = msg.ID[i+1:]
	}
	return a.bot.SendMessage(ctx, msg.ChannelID, text, replyTo)
}

func identity(u *User) string {
	if u == nil {
		return ""
	}
	if u.Username != "" {
		return "@" + strings.ToLower(u.Username)
	}
	return strconv.FormatInt(u.ID, 10)
}
