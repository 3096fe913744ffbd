package discord

import (
	"context"
	"fmt"
	"time"
	"unicode/utf8"

	"dealership-backend/internal/model"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"
)

const previewLength = 200

// Bot posts buyer enquiries to a staff channel and answers prefix commands.
type Bot struct {
	session   *discordgo.Session
	channelID string
	commands  *CommandHandler
	log       zerolog.Logger
}

// NewBot returns nil when no token is configured.
func NewBot(token, channelID string, commands *CommandHandler, log zerolog.Logger) (*Bot, error) {
	log = log.With().Str("component", "discord").Logger()
	if token == "" {
		log.Info().Msg("no bot token configured, bot disabled")
		return nil, nil
	}

	s, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, err
	}
	s.Identify.Intents = discordgo.IntentsGuildMessages | discordgo.IntentsMessageContent

	bot := &Bot{session: s, channelID: channelID, commands: commands, log: log}
	s.AddHandler(bot.onMessageCreate)
	return bot, nil
}

// Start opens the Discord gateway connection.
func (b *Bot) Start() error {
	if b == nil || b.session == nil {
		return nil
	}
	if err := b.session.Open(); err != nil {
		return err
	}
	b.log.Info().Msg("bot connected")
	return nil
}

// Stop closes the Discord gateway connection.
func (b *Bot) Stop() {
	if b == nil || b.session == nil {
		return
	}
	_ = b.session.Close()
	b.log.Info().Msg("bot disconnected")
}

// NewBuyerMessage posts an alert for a buyer message without blocking the caller.
func (b *Bot) NewBuyerMessage(_ context.Context, msg *model.Message) {
	if b == nil || b.session == nil || b.channelID == "" {
		return
	}
	embed := alertEmbed(msg)
	go func() {
		if _, err := b.session.ChannelMessageSendEmbed(b.channelID, embed); err != nil {
			b.log.Warn().Err(err).Int64("message_id", msg.ID).Msg("send alert")
		}
	}()
}

func alertEmbed(msg *model.Message) *discordgo.MessageEmbed {
	sender := msg.SenderName
	if sender == "" {
		sender = fmt.Sprintf("Kullanıcı #%d", msg.SenderID)
	}
	listing := "-"
	if msg.ListingID != nil {
		listing = fmt.Sprintf("#%d", *msg.ListingID)
	}
	return &discordgo.MessageEmbed{
		Title:       "Yeni müşteri mesajı",
		Description: preview(msg.Body),
		Color:       0x3498DB,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Gönderen", Value: sender, Inline: true},
			{Name: "İlan", Value: listing, Inline: true},
			{Name: "Konuşma", Value: "`" + msg.ConversationKey + "`"},
		},
		Timestamp: msg.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func preview(body string) string {
	if utf8.RuneCountInString(body) <= previewLength {
		return body
	}
	runes := []rune(body)
	return string(runes[:previewLength]) + "…"
}

func (b *Bot) onMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	// Ignore own messages
	if m.Author == nil || (s.State != nil && s.State.User != nil && m.Author.ID == s.State.User.ID) {
		return
	}
	if len(m.Content) == 0 || m.Content[0] != '!' || b.commands == nil {
		return
	}
	b.commands.Handle(s, m)
}
