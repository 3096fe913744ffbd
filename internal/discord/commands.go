package discord

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"dealership-backend/internal/model"

	"github.com/bwmarrin/discordgo"
)

// OnlineCounter reports live realtime connections.
type OnlineCounter interface {
	OnlineCount() int
}

// UnreadCounter reports conversations with unread messages.
type UnreadCounter interface {
	UnreadConversationCount(ctx context.Context, subjectID int64, role model.Role) (int, error)
}

// CommandHandler processes bot prefix commands.
type CommandHandler struct {
	online OnlineCounter
	unread UnreadCounter
}

func NewCommandHandler(online OnlineCounter, unread UnreadCounter) *CommandHandler {
	return &CommandHandler{online: online, unread: unread}
}

// Handle dispatches a prefix command.
func (h *CommandHandler) Handle(s *discordgo.Session, m *discordgo.MessageCreate) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if reply := h.reply(ctx, m.Content); reply != nil {
		s.ChannelMessageSendEmbed(m.ChannelID, reply)
	}
}

func (h *CommandHandler) reply(ctx context.Context, content string) *discordgo.MessageEmbed {
	parts := strings.Fields(content)
	if len(parts) == 0 {
		return nil
	}

	switch strings.ToLower(parts[0]) {
	case "!status":
		return h.cmdStatus()
	case "!unread":
		if len(parts) < 2 {
			return textEmbed("Kullanım: `!unread <admin_id>`")
		}
		return h.cmdUnread(ctx, parts[1])
	case "!help":
		return textEmbed("`!status` bağlı kullanıcılar\n`!unread <admin_id>` okunmamış konuşmalar")
	}
	return nil
}

func (h *CommandHandler) cmdStatus() *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title: "Sohbet sunucusu",
		Color: 0x2ECC71,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Açık bağlantı", Value: strconv.Itoa(h.online.OnlineCount()), Inline: true},
		},
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}

func (h *CommandHandler) cmdUnread(ctx context.Context, arg string) *discordgo.MessageEmbed {
	adminID, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || adminID <= 0 {
		return textEmbed("Geçersiz admin id")
	}
	n, err := h.unread.UnreadConversationCount(ctx, adminID, model.RoleAdmin)
	if err != nil {
		return textEmbed("Sayım alınamadı")
	}
	return textEmbed(fmt.Sprintf("Admin #%d için %d okunmamış konuşma", adminID, n))
}

func textEmbed(text string) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{Description: text, Color: 0x95A5A6}
}
