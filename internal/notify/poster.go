// Package notify delivers formatted announcements to the outbound
// destinations. Senders are capability interfaces with one production
// implementation each.
package notify

import "context"

// SocialPoster publishes short announcements with an optional image.
type SocialPoster interface {
	// Tweet posts the message. imageURL may be empty; a failed media
	// upload degrades to a text-only post.
	Tweet(ctx context.Context, message, imageURL string) error

	// PostMedia uploads the image and returns the platform media id.
	PostMedia(ctx context.Context, imageURL string) (string, error)
}

// Embed is the structured chat message shape. Wire rendering is the
// implementation's concern.
type Embed struct {
	Title       string
	URL         string
	Description string
	ImageURL    string
	Fields      []EmbedField
	FooterText  string
	FooterIcon  string
	MentionRole string
}

// EmbedField is one name/value pair in an embed.
type EmbedField struct {
	Name  string
	Value string
}

// ChatPoster publishes messages to chat channels.
type ChatPoster interface {
	SendMessage(ctx context.Context, channelID, message, imageURL string) error
	SendEmbed(ctx context.Context, channelID string, embed Embed) error
}
