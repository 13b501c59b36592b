package discordutil

import (
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scoala-bot/scoala/pkg/discordutil/discordtest"
)

var _ Session = (*discordtest.Session)(nil)

func TestRESTErrorStatus(t *testing.T) {
	notFound := errors.Wrap(discordtest.RESTError(http.StatusNotFound), "fetching message")
	assert.True(t, IsRESTError(notFound))
	assert.True(t, IsNotFound(notFound))
	assert.False(t, IsForbidden(notFound))

	assert.True(t, IsForbidden(discordtest.RESTError(http.StatusForbidden)))
	assert.False(t, IsRESTError(errors.New("boom")))
}

func TestTryDelete(t *testing.T) {
	s := discordtest.New()
	TryDelete(s, 0,
		&discordgo.Message{ID: "1", ChannelID: "c"},
		nil,
		&discordgo.Message{ID: "2", ChannelID: "c"},
	)
	assert.Equal(t, []string{"1", "2"}, s.DeletedIDs())
}

func TestTryDeleteDelayed(t *testing.T) {
	var delays []time.Duration
	var scheduled []func()
	afterFunc = func(d time.Duration, f func()) *time.Timer {
		delays = append(delays, d)
		scheduled = append(scheduled, f)
		return nil
	}
	defer func() { afterFunc = time.AfterFunc }()

	s := discordtest.New()
	TryDelete(s, 8*time.Second, &discordgo.Message{ID: "1", ChannelID: "c"})
	assert.Empty(t, s.DeletedIDs())
	require.Len(t, scheduled, 1)
	assert.Equal(t, 8*time.Second, delays[0])

	scheduled[0]()
	assert.Equal(t, []string{"1"}, s.DeletedIDs())
}

func TestTryDeleteIDs(t *testing.T) {
	s := discordtest.New()

	require.NoError(t, TryDeleteIDs(s, "", 0))
	assert.True(t, errors.Is(TryDeleteIDs(s, "", 0, "1"), ErrMissingArgument))
	assert.True(t, errors.Is(TryDeleteIDs(s, "c", 0), ErrMissingArgument))

	require.NoError(t, TryDeleteIDs(s, "c", 0, "1", "2", "3"))
	assert.Equal(t, []string{"1", "2", "3"}, s.DeletedIDs())
}

func TestTryDM(t *testing.T) {
	s := discordtest.New()
	s.ForbiddenDMs["2"] = true

	TryDM(s, &discordgo.MessageSend{Content: "salut"}, "1", "2", "3")

	require.Len(t, s.DMsTo("1"), 1)
	assert.Empty(t, s.DMsTo("2"))
	require.Len(t, s.DMsTo("3"), 1)
	assert.Equal(t, "salut", s.DMsTo("3")[0].Content)
}

func TestSendEmbeds(t *testing.T) {
	s := discordtest.New()
	sender := ChannelSender{Session: s, ChannelID: "c"}

	require.NoError(t, SendEmbeds(sender))
	assert.Empty(t, s.SentTo("c"))

	require.NoError(t, SendEmbeds(sender, FailEmbed("x")))
	require.Len(t, s.SentTo("c"), 1)

	var embeds []*discordgo.MessageEmbed
	for i := 0; i < 23; i++ {
		embeds = append(embeds, &discordgo.MessageEmbed{Title: fmt.Sprint(i)})
	}
	require.NoError(t, SendEmbeds(sender, embeds...))
	sent := s.SentTo("c")
	require.Len(t, sent, 4)
	assert.Len(t, sent[1].Embeds, 10)
	assert.Len(t, sent[2].Embeds, 10)
	assert.Len(t, sent[3].Embeds, 3)
	assert.Equal(t, "22", sent[3].Embeds[2].Title)
}

func TestEmbedLength(t *testing.T) {
	embed := &discordgo.MessageEmbed{
		Title:       "Teme",
		Description: "ăîș",
		Footer:      &discordgo.MessageEmbedFooter{Text: "3 teme"},
		Fields:      []*discordgo.MessageEmbedField{{Name: "Expiră", Value: "mâine"}},
	}
	assert.Equal(t, 4+3+6+6+5, EmbedLength(embed))
}

func TestBatchEmbedsByLength(t *testing.T) {
	var embeds []*discordgo.MessageEmbed
	for i := 0; i < 5; i++ {
		embeds = append(embeds, &discordgo.MessageEmbed{Description: strings.Repeat("x", 2500)})
	}
	batches := BatchEmbeds(embeds)
	require.Len(t, batches, 3)
	assert.Len(t, batches[0], 2)
	assert.Len(t, batches[1], 2)
	assert.Len(t, batches[2], 1)

	// An embed over the limit still goes out, alone.
	batches = BatchEmbeds([]*discordgo.MessageEmbed{
		{Description: "a"},
		{Description: strings.Repeat("x", 6001)},
		{Description: "b"},
	})
	require.Len(t, batches, 3)

	s := discordtest.New()
	require.NoError(t, SendEmbeds(ChannelSender{Session: s, ChannelID: "c"}, embeds...))
	for _, message := range s.SentTo("c") {
		total := 0
		for _, embed := range message.Embeds {
			total += EmbedLength(embed)
		}
		assert.LessOrEqual(t, total, maxEmbedsLength)
	}
}

func TestSendEmbedsError(t *testing.T) {
	s := discordtest.New()
	s.SendErr = discordtest.RESTError(http.StatusForbidden)
	err := SendEmbeds(UserSender{Session: s, UserID: "1"}, FailEmbed("x"))
	assert.True(t, IsForbidden(err))
}

func TestWebhookSender(t *testing.T) {
	s := discordtest.New()
	webhook, err := s.WebhookCreate("c", "Școală", "")
	require.NoError(t, err)

	require.NoError(t, SendEmbeds(WebhookSender{Session: s, Webhook: webhook}, FailEmbed("x"), FailEmbed("y")))
	sent := s.SentByWebhook(webhook.ID)
	require.Len(t, sent, 1)
	assert.Len(t, sent[0].Embeds, 2)
}

func TestFailEmbed(t *testing.T) {
	embed := FailEmbed("ceva nu a mers")
	assert.Equal(t, "Uh-oh!", embed.Title)
	assert.Equal(t, "ceva nu a mers", embed.Description)
	assert.Equal(t, Red, embed.Color)
}

func TestFormatName(t *testing.T) {
	assert.Equal(t, "ana#1234", FormatName(&discordgo.User{Username: "ana", Discriminator: "1234"}))
	assert.Equal(t, "Ana", FormatName(&discordgo.User{Username: "ana", GlobalName: "Ana", Discriminator: "0"}))
	assert.Equal(t, "", FormatName(nil))

	member := &discordgo.Member{Nick: "Anuța", User: &discordgo.User{Username: "ana", Discriminator: "1234"}}
	assert.Equal(t, "Anuța#1234", FormatMemberName(member))
	member.Nick = ""
	assert.Equal(t, "ana#1234", FormatMemberName(member))
}

func TestSplitMessageParts(t *testing.T) {
	assert.Nil(t, SplitMessageParts(nil, 10))
	assert.Equal(t, []string{"ab\ncd\n"}, SplitMessageParts([]string{"ab", "cd"}, 10))
	assert.Equal(t, []string{"abcd\n", "efgh\n"}, SplitMessageParts([]string{"abcd", "efgh"}, 6))

	// Lines longer than the limit still go out on their own.
	assert.Equal(t, []string{"abcdefgh\n", "a\n"}, SplitMessageParts([]string{"abcdefgh", "a"}, 4))

	// Length is counted in characters, not bytes.
	assert.Equal(t, []string{"ăăă\năăă\n"}, SplitMessageParts([]string{"ăăă", "ăăă"}, 8))

	for _, part := range SplitMessageParts(strings.Split(strings.Repeat("temă\n", 1000), "\n"), MaxMessageLength) {
		assert.LessOrEqual(t, len([]rune(part)), MaxMessageLength)
	}
}

type mapResolver struct {
	guild    bool
	members  map[string][2]string
	roles    map[string]string
	channels map[string]string
}

func (r mapResolver) InGuild() bool { return r.guild }

func (r mapResolver) MemberName(userID string, useNickname bool) (string, bool) {
	names, ok := r.members[userID]
	if !ok {
		return "", false
	}
	if useNickname {
		return names[1], true
	}
	return names[0], true
}

func (r mapResolver) RoleName(roleID string) (string, bool) {
	name, ok := r.roles[roleID]
	return name, ok
}

func (r mapResolver) ChannelName(channelID string) (string, bool) {
	name, ok := r.channels[channelID]
	return name, ok
}

func TestCleanContent(t *testing.T) {
	guild := mapResolver{
		guild:    true,
		members:  map[string][2]string{"938097236024360960": {"ana", "Anuța"}},
		roles:    map[string]string{"983594507020951554": "Elevi"},
		channels: map[string]string{"983612117158600714": "teme"},
	}

	got := CleanContent(guild, "<@938097236024360960> <@!938097236024360960> <@&983594507020951554>", DefaultCleanContentOptions)
	assert.Equal(t, "@Anuța @Anuța @Elevi", got)

	got = CleanContent(guild, "<@938097236024360960>", CleanContentOptions{})
	assert.Equal(t, "@ana", got)

	got = CleanContent(guild, "<@111111111111111111> <@&111111111111111111>", DefaultCleanContentOptions)
	assert.Equal(t, "@deleted-user @deleted-role", got)

	got = CleanContent(guild, "vezi <#983612117158600714>", DefaultCleanContentOptions)
	assert.Equal(t, "vezi <#983612117158600714>", got)
	got = CleanContent(guild, "vezi <#983612117158600714> <#111111111111111111>", CleanContentOptions{FixChannelMentions: true})
	assert.Equal(t, "vezi #teme #deleted-channel", got)

	got = CleanContent(guild, "**<@938097236024360960>**", CleanContentOptions{UseNicknames: true, EscapeMarkdown: true})
	assert.Equal(t, `\*\*@Anuța\*\*`, got)
	got = CleanContent(guild, "**<@938097236024360960>**", CleanContentOptions{UseNicknames: true, RemoveMarkdown: true})
	assert.Equal(t, "@Anuța", got)

	got = CleanContent(guild, "@everyone @here", DefaultCleanContentOptions)
	assert.Equal(t, "@\u200beveryone @\u200bhere", got)
}

func TestCleanContentDM(t *testing.T) {
	dm := mapResolver{
		members:  map[string][2]string{"938097236024360960": {"ana", "Anuța"}},
		roles:    map[string]string{"983594507020951554": "Elevi"},
		channels: map[string]string{"983612117158600714": "teme"},
	}

	got := CleanContent(dm, "<@938097236024360960> <@&983594507020951554> <#983612117158600714>", CleanContentOptions{UseNicknames: true, FixChannelMentions: true})
	assert.Equal(t, "@ana @deleted-role <#983612117158600714>", got)
}

func TestCooldownKeys(t *testing.T) {
	m := &discordgo.Message{ChannelID: "c", Content: "Salut", Author: &discordgo.User{ID: "u"}}
	assert.Equal(t, "c:salut", CooldownKeyContentChannel(m))
	assert.Equal(t, "u:salut", CooldownKeyContentUser(m))

	m.Content = ""
	m.Attachments = []*discordgo.MessageAttachment{{URL: "https://cdn.discordapp.com/a.png"}}
	assert.Equal(t, "c:https://cdn.discordapp.com/a.png", CooldownKeyContentChannel(m))

	m.Attachments = nil
	assert.Equal(t, "u:", CooldownKeyContentUser(m))
}

func TestSessionResolver(t *testing.T) {
	s := discordtest.New()
	s.Members["938097236024360960"] = &discordgo.Member{
		Nick: "Anuța",
		User: &discordgo.User{ID: "938097236024360960", Username: "ana"},
	}
	s.Roles = []*discordgo.Role{{ID: "983594507020951554", Name: "Elevi"}}
	s.Channels["983612117158600714"] = &discordgo.Channel{ID: "983612117158600714", GuildID: "g", Name: "teme"}
	s.Users["938097236024360960"] = &discordgo.User{ID: "938097236024360960", Username: "ana"}

	text := "<@938097236024360960> <@&983594507020951554> <#983612117158600714>"
	opts := CleanContentOptions{UseNicknames: true, FixChannelMentions: true}

	got := CleanContent(NewSessionResolver(s, "g"), text, opts)
	assert.Equal(t, "@Anuța @Elevi #teme", got)

	got = CleanContent(NewSessionResolver(s, ""), text, opts)
	assert.Equal(t, "@ana @deleted-role <#983612117158600714>", got)
}
