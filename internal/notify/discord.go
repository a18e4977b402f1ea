package notify

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

const embedColor = 0xffffff

// DiscordPoster sends channel messages and embeds through one bot session.
type DiscordPoster struct {
	session *discordgo.Session
	logger  *zap.Logger
}

// NewDiscordPoster opens a bot session with the given token.
func NewDiscordPoster(token string, logger *zap.Logger) (*DiscordPoster, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("discord session: %w", err)
	}
	session.Identify.Intents = discordgo.IntentsGuilds | discordgo.IntentsGuildMessages

	if err := session.Open(); err != nil {
		return nil, fmt.Errorf("discord connect: %w", err)
	}

	return &DiscordPoster{session: session, logger: logger}, nil
}

// Close tears down the gateway connection.
func (d *DiscordPoster) Close() {
	if err := d.session.Close(); err != nil {
		d.logger.Warn("discord close", zap.Error(err))
	}
}

// SendMessage posts plain content, with the image attached by URL.
func (d *DiscordPoster) SendMessage(ctx context.Context, channelID, message, imageURL string) error {
	send := &discordgo.MessageSend{Content: message}
	if imageURL != "" {
		send.Embeds = []*discordgo.MessageEmbed{{
			Image: &discordgo.MessageEmbedImage{URL: imageURL},
		}}
	}

	_, err := d.session.ChannelMessageSendComplex(channelID, send, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("send to channel %s: %w", channelID, err)
	}
	return nil
}

// SendEmbed posts a structured embed, mentioning the configured role.
func (d *DiscordPoster) SendEmbed(ctx context.Context, channelID string, embed Embed) error {
	fields := make([]*discordgo.MessageEmbedField, 0, len(embed.Fields))
	for _, f := range embed.Fields {
		fields = append(fields, &discordgo.MessageEmbedField{Name: f.Name, Value: f.Value})
	}

	msg := &discordgo.MessageEmbed{
		Title:       embed.Title,
		URL:         embed.URL,
		Description: embed.Description,
		Color:       embedColor,
		Fields:      fields,
	}
	if embed.ImageURL != "" {
		msg.Image = &discordgo.MessageEmbedImage{URL: embed.ImageURL}
	}
	if embed.FooterText != "" {
		msg.Footer = &discordgo.MessageEmbedFooter{Text: embed.FooterText, IconURL: embed.FooterIcon}
	}

	send := &discordgo.MessageSend{Embeds: []*discordgo.MessageEmbed{msg}}
	if embed.MentionRole != "" {
		send.Content = fmt.Sprintf("<@&%s>", embed.MentionRole)
	}

	_, err := d.session.ChannelMessageSendComplex(channelID, send, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("send embed to channel %s: %w", channelID, err)
	}
	return nil
}
