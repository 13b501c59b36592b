package bot

import (
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/scoala-bot/scoala/pkg/discordutil"
	"github.com/scoala-bot/scoala/pkg/helper"
)

// commands is every text command the bot knows.
func (b *Bot) commands() []*Command {
	commands := []*Command{
		b.helpCommand(),
		{
			Name:        "ping",
			Help:        "Arată latența botului.",
			IgnoreExtra: true,
			Run:         b.ping,
		},
		{
			Name:        "uptime",
			Help:        "Arată de cât timp e botul online.",
			IgnoreExtra: true,
			Run:         b.uptime,
		},
		{
			Name:      "avertizeaza",
			Aliases:   []string{"avertizează", "warn"},
			Help:      "Trimite un avertisment în privat unui membru.",
			GuildOnly: true,
			Params: []Param{
				{Name: "membru", Kind: ParamMember},
				{Name: "motiv", Kind: ParamRest},
			},
			Cooldown: &Cooldown{
				Rate:   1,
				Per:    30 * time.Second,
				Bucket: BucketContentUser,
			},
			MaxConcurrency: 1,
			Run:            b.warn,
		},
	}
	return append(commands, b.homeworkCommands()...)
}

func (b *Bot) ping(c *Context) error {
	_, err := c.Reply(fmt.Sprintf("🏓 Pong! `%dms`", b.latency().Milliseconds()))
	return err
}

func (b *Bot) uptime(c *Context) error {
	uptime := helper.TimePhaser(b.Uptime().Seconds())
	if uptime == "" {
		uptime = "0 seconds"
	}
	_, err := c.Reply(fmt.Sprintf("Sunt online de **%s**.", uptime))
	return err
}

func (b *Bot) warn(c *Context) error {
	member := c.MemberArg("membru")
	if member == nil || member.User == nil {
		return &MemberNotFoundError{}
	}
	if member.User.ID == c.AuthorID() {
		_, err := c.Reply("Nu te poți avertiza singur.")
		return err
	}
	ok, err := c.CheckPerms(member, "")
	if !ok || err != nil {
		return err
	}

	reason := discordutil.CleanContent(b.resolver(c.Message.GuildID), c.StringArg("motiv"), discordutil.DefaultCleanContentOptions)
	warning := &discordgo.MessageEmbed{
		Title:       "Avertisment",
		Description: reason,
		Color:       discordutil.Red,
		Footer: &discordgo.MessageEmbedFooter{
			Text: "De la " + discordutil.FormatName(c.Message.Author),
		},
		Timestamp: b.now().Format(time.RFC3339),
	}

	name := discordutil.FormatMemberName(member)
	err = discordutil.SendEmbeds(discordutil.UserSender{Session: c.Session, UserID: member.User.ID}, warning)
	switch {
	case discordutil.IsForbidden(err):
		_, err = c.Reply(fmt.Sprintf("Nu i-am putut trimite mesaj lui **%s**.", helper.EscapeMarkdown(name)))
		return err
	case err != nil:
		return err
	}
	b.log.Infow("member warned",
		"member", member.User.ID,
		"by", c.AuthorID(),
	)
	_, err = c.Reply(fmt.Sprintf("Am avertizat pe **%s**.", helper.EscapeMarkdown(name)))
	return err
}
