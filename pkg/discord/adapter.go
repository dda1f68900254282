// Package discord connects the bot to a Discord gateway session.
package discord

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/ds124wfegd/eventbot/internal/entity"
	"github.com/sirupsen/logrus"
)

const (
	Platform = "discord"

	// MaxMessageLength is Discord's limit for message content.
	MaxMessageLength = 2000
)

type Adapter struct {
	session *discordgo.Session
}

func New(token string) (*Adapter, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("failed to create discord session: %w", err)
	}
	session.Identify.Intents = discordgo.IntentGuildMessages |
		discordgo.IntentDirectMessages |
		discordgo.IntentMessageContent

	return &Adapter{session: session}, nil
}

// Start registers handle for every created message and opens the gateway.
func (a *Adapter) Start(ctx context.Context, handle func(ctx context.Context, msg *entity.ChatMessage)) error {
	a.session.AddHandler(func(s *discordgo.Session, r *discordgo.Ready) {
		logrus.WithField("user", r.User.String()).Info("Discord bot is online")
	})
	a.session.AddHandler(func(s *discordgo.Session, m *discordgo.MessageCreate) {
		if m.Message == nil || m.Author == nil {
			return
		}
		handle(ctx, ChatMessage(m.Message))
	})

	if err := a.session.Open(); err != nil {
		return fmt.Errorf("failed to open discord session: %w", err)
	}
	return nil
}

func (a *Adapter) Close() error {
	return a.session.Close()
}

func (a *Adapter) SelfID() string {
	if a.session.State == nil || a.session.State.User == nil {
		return ""
	}
	return a.session.State.User.ID
}

// Reply answers msg in its channel as a threaded reply.
func (a *Adapter) Reply(ctx context.Context, msg *entity.ChatMessage, text string) error {
	ref := &discordgo.MessageReference{MessageID: msg.ID, ChannelID: msg.ChannelID}
	_, err := a.session.ChannelMessageSendReply(msg.ChannelID, truncate(text, MaxMessageLength), ref, discordgo.WithContext(ctx))
	return err
}

// ChatMessage converts a gateway message.
func ChatMessage(m *discordgo.Message) *entity.ChatMessage {
	msg := &entity.ChatMessage{
		ID:        m.ID,
		Platform:  Platform,
		ChannelID: m.ChannelID,
		Text:      m.Content,
	}
	if m.Author != nil {
		msg.AuthorID = m.Author.ID
	}
	for _, u := range m.Mentions {
		if u != nil {
			msg.Mentions = append(msg.Mentions, u.ID)
		}
	}
	return msg
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit-1]) + "…"
}
