package bot

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/pkg/errors"

	"github.com/scoala-bot/scoala/pkg/discordutil"
)

const (
	defaultCheckPermsReason = "Acest membru are același statut ca tine, sau mai mare."
	checkChannelDelay       = 10 * time.Second
)

// Context is created for every command invocation and wraps the message
// that triggered it.
type Context struct {
	ctx     context.Context
	Bot     *Bot
	Session discordutil.Session
	Message *discordgo.Message

	Command     *Command
	Prefix      string
	InvokedWith string

	args map[string]interface{}

	repliedOnce sync.Once
	replied     *discordgo.MessageReference
}

func newContext(ctx context.Context, b *Bot, m *discordgo.Message) *Context {
	return &Context{
		ctx:     ctx,
		Bot:     b,
		Session: b.session,
		Message: m,
	}
}

// Ctx is the context commands pass to blocking calls.
func (c *Context) Ctx() context.Context {
	return c.ctx
}

// HTTPClient is the bot's shared HTTP client.
func (c *Context) HTTPClient() *http.Client {
	return c.Bot.HTTPClient()
}

// AuthorID is the ID of whoever sent the message.
func (c *Context) AuthorID() string {
	if c.Message.Author == nil {
		return ""
	}
	return c.Message.Author.ID
}

// IsOwner reports whether the author owns the bot.
func (c *Context) IsOwner() bool {
	return c.AuthorID() == c.Bot.config.OwnerID
}

// RepliedReference is the reference to the message the invoking message
// replies to, or nil.
func (c *Context) RepliedReference() *discordgo.MessageReference {
	c.repliedOnce.Do(func() {
		if c.Message.ReferencedMessage != nil {
			c.replied = c.Message.ReferencedMessage.Reference()
		}
	})
	return c.replied
}

// TriggerTyping shows the typing indicator. Missing permissions are
// ignored.
func (c *Context) TriggerTyping() error {
	err := c.Session.ChannelTyping(c.Message.ChannelID)
	if err != nil && !discordutil.IsForbidden(err) {
		return errors.Wrap(err, "unable to trigger typing")
	}
	return nil
}

// SendComplex sends data to the invoking channel.
func (c *Context) SendComplex(data *discordgo.MessageSend) (*discordgo.Message, error) {
	if data.AllowedMentions == nil {
		data.AllowedMentions = allowedMentions()
	}
	message, err := c.Session.ChannelMessageSendComplex(c.Message.ChannelID, data)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to send message to channel: %s", c.Message.ChannelID)
	}
	return message, nil
}

// Send sends content to the invoking channel.
func (c *Context) Send(content string) (*discordgo.Message, error) {
	return c.SendComplex(&discordgo.MessageSend{Content: content})
}

// Reply sends content as a reply to the invoking message.
func (c *Context) Reply(content string) (*discordgo.Message, error) {
	return c.SendComplex(&discordgo.MessageSend{
		Content:   content,
		Reference: c.Message.Reference(),
	})
}

// ReplyEmbed replies to the invoking message with embeds.
func (c *Context) ReplyEmbed(embeds ...*discordgo.MessageEmbed) (*discordgo.Message, error) {
	return c.SendComplex(&discordgo.MessageSend{
		Embeds:    embeds,
		Reference: c.Message.Reference(),
	})
}

// ReplyDeleteAfter replies and deletes the reply after delay.
func (c *Context) ReplyDeleteAfter(content string, delay time.Duration) (*discordgo.Message, error) {
	message, err := c.Reply(content)
	if err != nil {
		return nil, err
	}
	c.Bot.deleteLater(delay, message)
	return message, nil
}

// BetterReply replies to the message the author replied to, or to the
// invoking message when there is none.
func (c *Context) BetterReply(content string) (*discordgo.Message, error) {
	ref := c.RepliedReference()
	if ref == nil {
		return c.Reply(content)
	}
	return c.SendComplex(&discordgo.MessageSend{
		Content:   content,
		Reference: ref,
	})
}

// React adds a reaction to the invoking message.
func (c *Context) React(emoji string) error {
	err := c.Session.MessageReactionAdd(c.Message.ChannelID, c.Message.ID, emoji)
	return errors.Wrapf(err, "unable to react with %s", emoji)
}

// ResetCooldown refills the cooldown of the invoked command.
func (c *Context) ResetCooldown() {
	if c.Command != nil {
		c.Command.ResetCooldown(c.Message)
	}
}

// CheckChannel makes sure the command is used in one of the homework
// channels. Anywhere else both the message and the warning are deleted
// after a while.
func (c *Context) CheckChannel() (bool, error) {
	if c.Bot.allowedChannel(c.Message.ChannelID, c.AuthorID()) {
		return true, nil
	}

	c.Bot.deleteLater(checkChannelDelay, c.Message)
	_, err := c.ReplyDeleteAfter(
		"Scuze! Această comandă poate fi folosită numai în <#"+c.Bot.config.AllowedChannels[0]+">",
		checkChannelDelay,
	)
	return false, err
}

// CheckPerms makes sure the author ranks above member. An empty reason uses
// the default message.
func (c *Context) CheckPerms(member *discordgo.Member, reason string) (bool, error) {
	if c.IsOwner() {
		return true, nil
	}
	if reason == "" {
		reason = defaultCheckPermsReason
	}

	roles, err := c.Session.GuildRoles(c.Message.GuildID)
	if err != nil {
		return false, errors.Wrapf(err, "unable to fetch roles of guild: %s", c.Message.GuildID)
	}
	author := c.Message.Member
	if author == nil {
		author, err = c.Session.GuildMember(c.Message.GuildID, c.AuthorID())
		if err != nil {
			return false, errors.Wrapf(err, "unable to fetch member: %s", c.AuthorID())
		}
	}

	if topRolePosition(roles, author) <= topRolePosition(roles, member) {
		_, err = c.Reply(reason)
		return false, err
	}
	return true, nil
}

func topRolePosition(roles []*discordgo.Role, member *discordgo.Member) int {
	var top int
	for _, role := range roles {
		for _, roleID := range member.Roles {
			if role.ID == roleID && role.Position > top {
				top = role.Position
			}
		}
	}
	return top
}

func allowedMentions() *discordgo.MessageAllowedMentions {
	return &discordgo.MessageAllowedMentions{
		Parse:       []discordgo.AllowedMentionType{discordgo.AllowedMentionTypeUsers},
		RepliedUser: true,
	}
}
