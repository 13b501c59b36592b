package discordutil

import (
	"regexp"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/scoala-bot/scoala/pkg/helper"
)

var rawMentionRegex = regexp.MustCompile(`<(@[!&]?|#)([0-9]{15,20})>`)

// MentionResolver looks up the names mentions point to. Lookups return false
// when the entity is unknown.
type MentionResolver interface {
	InGuild() bool
	MemberName(userID string, useNickname bool) (string, bool)
	RoleName(roleID string) (string, bool)
	ChannelName(channelID string) (string, bool)
}

// CleanContentOptions controls CleanContent.
type CleanContentOptions struct {
	FixChannelMentions bool
	UseNicknames       bool
	EscapeMarkdown     bool
	RemoveMarkdown     bool
}

// DefaultCleanContentOptions resolves nicknames and leaves markdown alone.
var DefaultCleanContentOptions = CleanContentOptions{UseNicknames: true}

// CleanContent replaces mentions in text with the names they point to.
// Whatever mention survives is broken up so nothing in the result can ping.
func CleanContent(resolver MentionResolver, text string, opts CleanContentOptions) string {
	inGuild := resolver.InGuild()
	result := rawMentionRegex.ReplaceAllStringFunc(text, func(match string) string {
		groups := rawMentionRegex.FindStringSubmatch(match)
		kind, id := groups[1], groups[2]
		switch kind {
		case "@", "@!":
			if name, ok := resolver.MemberName(id, opts.UseNicknames && inGuild); ok {
				return "@" + name
			}
			return "@deleted-user"
		case "@&":
			if !inGuild {
				return "@deleted-role"
			}
			if name, ok := resolver.RoleName(id); ok {
				return "@" + name
			}
			return "@deleted-role"
		}
		if !opts.FixChannelMentions || !inGuild {
			return match
		}
		if name, ok := resolver.ChannelName(id); ok {
			return "#" + name
		}
		return "#deleted-channel"
	})

	switch {
	case opts.EscapeMarkdown:
		result = helper.EscapeMarkdown(result)
	case opts.RemoveMarkdown:
		result = helper.RemoveMarkdown(result)
	}
	return helper.EscapeMentions(result)
}

type stateResolver struct {
	state   *discordgo.State
	guildID string
}

// NewStateResolver resolves mentions from the gateway state cache. An empty
// guildID means the text came from DMs.
func NewStateResolver(state *discordgo.State, guildID string) MentionResolver {
	return &stateResolver{state: state, guildID: guildID}
}

func (r *stateResolver) InGuild() bool {
	return r.guildID != ""
}

func (r *stateResolver) MemberName(userID string, useNickname bool) (string, bool) {
	if r.InGuild() {
		member, err := r.state.Member(r.guildID, userID)
		if err != nil || member.User == nil {
			return "", false
		}
		if useNickname && member.Nick != "" {
			return member.Nick, true
		}
		if useNickname {
			return DisplayName(member.User), true
		}
		return member.User.Username, true
	}

	// Outside guilds any cached copy of the user will do.
	r.state.RLock()
	guilds := make([]string, 0, len(r.state.Guilds))
	for _, guild := range r.state.Guilds {
		guilds = append(guilds, guild.ID)
	}
	r.state.RUnlock()
	for _, guildID := range guilds {
		member, err := r.state.Member(guildID, userID)
		if err == nil && member.User != nil {
			return member.User.Username, true
		}
	}
	return "", false
}

func (r *stateResolver) RoleName(roleID string) (string, bool) {
	role, err := r.state.Role(r.guildID, roleID)
	if err != nil {
		return "", false
	}
	return role.Name, true
}

func (r *stateResolver) ChannelName(channelID string) (string, bool) {
	channel, err := r.state.Channel(channelID)
	if err != nil || channel.GuildID != r.guildID {
		return "", false
	}
	return channel.Name, true
}

// ContentKey is the cooldown key for a message's content: the lower-cased
// text, or the first attachment's URL for attachment-only messages.
func ContentKey(m *discordgo.Message) string {
	content := strings.ToLower(m.Content)
	if content == "" && len(m.Attachments) > 0 {
		content = m.Attachments[0].URL
	}
	return content
}

// CooldownKeyContentChannel buckets identical messages per channel.
func CooldownKeyContentChannel(m *discordgo.Message) string {
	return m.ChannelID + ":" + ContentKey(m)
}

// CooldownKeyContentUser buckets identical messages per author.
func CooldownKeyContentUser(m *discordgo.Message) string {
	var authorID string
	if m.Author != nil {
		authorID = m.Author.ID
	}
	return authorID + ":" + ContentKey(m)
}

type sessionResolver struct {
	session Session
	guildID string
}

// NewSessionResolver resolves mentions through REST calls, for when no
// gateway state is around.
func NewSessionResolver(s Session, guildID string) MentionResolver {
	return &sessionResolver{session: s, guildID: guildID}
}

func (r *sessionResolver) InGuild() bool {
	return r.guildID != ""
}

func (r *sessionResolver) MemberName(userID string, useNickname bool) (string, bool) {
	if !r.InGuild() {
		user, err := r.session.User(userID)
		if err != nil {
			return "", false
		}
		return user.Username, true
	}
	member, err := r.session.GuildMember(r.guildID, userID)
	if err != nil || member.User == nil {
		return "", false
	}
	switch {
	case useNickname && member.Nick != "":
		return member.Nick, true
	case useNickname:
		return DisplayName(member.User), true
	}
	return member.User.Username, true
}

func (r *sessionResolver) RoleName(roleID string) (string, bool) {
	roles, err := r.session.GuildRoles(r.guildID)
	if err != nil {
		return "", false
	}
	for _, role := range roles {
		if role.ID == roleID {
			return role.Name, true
		}
	}
	return "", false
}

func (r *sessionResolver) ChannelName(channelID string) (string, bool) {
	channel, err := r.session.Channel(channelID)
	if err != nil || channel.GuildID != r.guildID {
		return "", false
	}
	return channel.Name, true
}
