package discordutil

import (
	"unicode/utf8"

	"github.com/bwmarrin/discordgo"
	"github.com/pkg/errors"
)

// Red is the color of failure embeds.
const Red = 0xff0000

const (
	// maxEmbedsPerMessage is how many embeds Discord accepts in one message.
	maxEmbedsPerMessage = 10
	// maxEmbedsLength is the character limit over all embeds of one message.
	maxEmbedsLength = 6000
)

// Sender delivers a message to some destination: a channel, a webhook or a
// user's DMs.
type Sender interface {
	Send(message *discordgo.MessageSend) error
}

// ChannelSender sends to a text channel.
type ChannelSender struct {
	Session   Session
	ChannelID string
}

func (c ChannelSender) Send(message *discordgo.MessageSend) error {
	_, err := c.Session.ChannelMessageSendComplex(c.ChannelID, message)
	return errors.Wrapf(err, "unable to send message to channel: %s", c.ChannelID)
}

// UserSender sends to a user's DM channel, opening it first.
type UserSender struct {
	Session Session
	UserID  string
}

func (u UserSender) Send(message *discordgo.MessageSend) error {
	channel, err := u.Session.UserChannelCreate(u.UserID)
	if err != nil {
		return errors.Wrapf(err, "unable to open DM channel with: %s", u.UserID)
	}
	_, err = u.Session.ChannelMessageSendComplex(channel.ID, message)
	return errors.Wrapf(err, "unable to send DM to: %s", u.UserID)
}

// WebhookSender executes a webhook.
type WebhookSender struct {
	Session Session
	Webhook *discordgo.Webhook
}

func (w WebhookSender) Send(message *discordgo.MessageSend) error {
	_, err := w.Session.WebhookExecute(w.Webhook.ID, w.Webhook.Token, false, &discordgo.WebhookParams{
		Content:         message.Content,
		Embeds:          message.Embeds,
		Components:      message.Components,
		AllowedMentions: message.AllowedMentions,
	})
	return errors.Wrapf(err, "unable to execute webhook: %s", w.Webhook.ID)
}

// EmbedLength counts the characters of embed that Discord holds against the
// per message limit.
func EmbedLength(embed *discordgo.MessageEmbed) int {
	n := utf8.RuneCountInString(embed.Title) + utf8.RuneCountInString(embed.Description)
	if embed.Footer != nil {
		n += utf8.RuneCountInString(embed.Footer.Text)
	}
	if embed.Author != nil {
		n += utf8.RuneCountInString(embed.Author.Name)
	}
	for _, field := range embed.Fields {
		n += utf8.RuneCountInString(field.Name) + utf8.RuneCountInString(field.Value)
	}
	return n
}

// BatchEmbeds groups embeds in order into messages of at most ten embeds and
// 6000 characters.
func BatchEmbeds(embeds []*discordgo.MessageEmbed) [][]*discordgo.MessageEmbed {
	var (
		batches [][]*discordgo.MessageEmbed
		batch   []*discordgo.MessageEmbed
		length  int
	)
	for _, embed := range embeds {
		n := EmbedLength(embed)
		if len(batch) > 0 && (len(batch) == maxEmbedsPerMessage || length+n > maxEmbedsLength) {
			batches = append(batches, batch)
			batch, length = nil, 0
		}
		batch = append(batch, embed)
		length += n
	}
	if len(batch) > 0 {
		batches = append(batches, batch)
	}
	return batches
}

// SendEmbeds sends embeds in as few messages as Discord's limits allow.
func SendEmbeds(sender Sender, embeds ...*discordgo.MessageEmbed) error {
	for _, batch := range BatchEmbeds(embeds) {
		if err := sender.Send(&discordgo.MessageSend{Embeds: batch}); err != nil {
			return err
		}
	}
	return nil
}

// FailEmbed is the red embed shown when something goes wrong.
func FailEmbed(description string) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       "Uh-oh!",
		Description: description,
		Color:       Red,
	}
}

// DisplayName is the global name of the user, falling back to the username.
func DisplayName(user *discordgo.User) string {
	if user.GlobalName != "" {
		return user.GlobalName
	}
	return user.Username
}

// FormatName renders user as name#discriminator. Users migrated to unique
// usernames have discriminator "0" and are shown by name only.
func FormatName(user *discordgo.User) string {
	if user == nil {
		return ""
	}
	if user.Discriminator == "" || user.Discriminator == "0" {
		return DisplayName(user)
	}
	return DisplayName(user) + "#" + user.Discriminator
}

// FormatMemberName is FormatName preferring the member's guild nickname.
func FormatMemberName(member *discordgo.Member) string {
	if member == nil {
		return ""
	}
	if member.Nick == "" {
		return FormatName(member.User)
	}
	if member.User == nil || member.User.Discriminator == "" || member.User.Discriminator == "0" {
		return member.Nick
	}
	return member.Nick + "#" + member.User.Discriminator
}
