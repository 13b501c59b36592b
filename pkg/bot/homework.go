package bot

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"

	"github.com/scoala-bot/scoala/pkg/discordutil"
	"github.com/scoala-bot/scoala/pkg/helper"
	"github.com/scoala-bot/scoala/pkg/repository"
)

const (
	homeworkColor = 0x5865f2
	// maxEmbedDescription is the longest embed description discord accepts.
	maxEmbedDescription = 4096
	thumbsUp            = "👍"
)

func (b *Bot) homeworkCommands() []*Command {
	return []*Command{
		{
			Name:    "teme",
			Aliases: []string{"homework", "hw"},
			Help:    "Arată temele, toate sau doar cele de la o materie.",
			Params:  []Param{{Name: "materie", Kind: ParamRest, Optional: true}},
			Checks:  []Check{(*Context).CheckChannel},
			Cooldown: &Cooldown{
				Rate:   2,
				Per:    10 * time.Second,
				Bucket: BucketChannel,
			},
			Run: b.listHomeworks,
		},
		{
			Name:        "tema",
			Help:        "Arată o temă după id.",
			Params:      []Param{{Name: "id", Kind: ParamString}},
			IgnoreExtra: true,
			Checks:      []Check{(*Context).CheckChannel},
			Run:         b.showHomework,
		},
		{
			Name:    "adauga",
			Aliases: []string{"adaugă", "add"},
			Help:    "Adaugă o temă. Termenul e de forma `2d`, `12h30m`, sau `-` pentru o temă fără termen.",
			Params: []Param{
				{Name: "materie", Kind: ParamString},
				{Name: "expiră", Kind: ParamDuration},
				{Name: "temă", Kind: ParamRest},
			},
			Checks: []Check{(*Context).CheckChannel},
			Cooldown: &Cooldown{
				Rate:   1,
				Per:    10 * time.Second,
				Bucket: BucketUser,
			},
			Run: b.addHomeworkCommand,
		},
		{
			Name:        "sterge",
			Aliases:     []string{"șterge", "delete"},
			Help:        "Șterge o temă după id.",
			Params:      []Param{{Name: "id", Kind: ParamString}},
			IgnoreExtra: true,
			OwnerOnly:   true,
			Run:         b.deleteHomeworkCommand,
		},
		{
			Name:        "anunta",
			Aliases:     []string{"anunță"},
			Help:        "Anunță temele în canalul curent.",
			Params:      []Param{{Name: "materie", Kind: ParamRest, Optional: true}},
			OwnerOnly:   true,
			GuildOnly:   true,
			IgnoreExtra: true,
			Run:         b.announceHomeworks,
		},
	}
}

// homeworkEmbeds lists the homework whose subject matches query, soonest
// deadline first. Expired homework is left out.
func (b *Bot) homeworkEmbeds(ctx context.Context, query string) ([]*discordgo.MessageEmbed, error) {
	homeworks, err := b.repository.List(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "error listing homework")
	}

	now := b.now()
	var lines []string
	for _, homework := range homeworks {
		if homework.Expired(now) || !helper.MatchSubject(query, homework.Subject) {
			continue
		}
		lines = append(lines, homeworkLine(homework))
	}
	if len(lines) == 0 {
		return nil, nil
	}

	var embeds []*discordgo.MessageEmbed
	for i, part := range discordutil.SplitMessageParts(lines, maxEmbedDescription) {
		embed := &discordgo.MessageEmbed{
			Color:       homeworkColor,
			Description: part,
		}
		if i == 0 {
			embed.Title = "Teme"
		}
		embeds = append(embeds, embed)
	}
	last := embeds[len(embeds)-1]
	last.Footer = &discordgo.MessageEmbedFooter{Text: fmt.Sprintf("%d teme", len(lines))}
	last.Timestamp = now.Format(time.RFC3339)
	return embeds, nil
}

func homeworkLine(homework repository.Homework) string {
	line := fmt.Sprintf("`%s` **%s**: %s", homework.ID, helper.EscapeMarkdown(homework.Subject), homework.Assignment)
	if homework.ExpirationDate != nil {
		line += fmt.Sprintf(" (expiră <t:%d:R>)", homework.ExpirationDate.Unix())
	}
	return line
}

func homeworkEmbed(homework repository.Homework, now time.Time) *discordgo.MessageEmbed {
	expires := "fără termen"
	if homework.ExpirationDate != nil {
		expires = fmt.Sprintf("<t:%d:f> (%s)",
			homework.ExpirationDate.Unix(),
			humanize.RelTime(*homework.ExpirationDate, now, "ago", "from now"),
		)
	}
	return &discordgo.MessageEmbed{
		Title:       homework.Subject,
		Description: homework.Assignment,
		Color:       homeworkColor,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Expiră", Value: expires},
		},
		Footer:    &discordgo.MessageEmbedFooter{Text: "id: " + homework.ID},
		Timestamp: now.Format(time.RFC3339),
	}
}

func noHomeworkMessage(query string) string {
	if query == "" {
		return "Nu există teme."
	}
	return fmt.Sprintf("Nu există teme la `%s`.", helper.EscapeMarkdown(query))
}

func (b *Bot) listHomeworks(c *Context) error {
	if err := c.TriggerTyping(); err != nil {
		return err
	}
	query := c.StringArg("materie")
	embeds, err := b.homeworkEmbeds(c.Ctx(), query)
	if err != nil {
		return err
	}
	if len(embeds) == 0 {
		_, err = c.Reply(noHomeworkMessage(query))
		return err
	}
	return discordutil.SendEmbeds(discordutil.ChannelSender{Session: c.Session, ChannelID: c.Message.ChannelID}, embeds...)
}

func (b *Bot) showHomework(c *Context) error {
	id := c.StringArg("id")
	homework, err := b.repository.Get(c.Ctx(), id)
	if errors.Is(err, repository.ErrNotFound) {
		_, err = c.Reply(fmt.Sprintf("Nu există nicio temă cu id-ul `%s`.", helper.EscapeMarkdown(id)))
		return err
	}
	if err != nil {
		return errors.Wrapf(err, "error getting homework: %s", id)
	}
	_, err = c.ReplyEmbed(homeworkEmbed(homework, b.now()))
	return err
}

// addHomework stores a homework due after the given duration. A zero
// duration means no deadline.
func (b *Bot) addHomework(ctx context.Context, subject string, after time.Duration, assignment string) (repository.Homework, error) {
	homework := repository.Homework{
		Subject:    strings.TrimSpace(subject),
		Assignment: strings.TrimSpace(assignment),
	}
	if after > 0 {
		expires := b.now().Add(after).UTC()
		homework.ExpirationDate = &expires
	}
	homework, err := b.repository.Insert(ctx, homework)
	if err != nil {
		return repository.Homework{}, errors.Wrap(err, "error adding homework")
	}
	b.log.Infow("homework added",
		"id", homework.ID,
		"subject", homework.Subject,
		"expiration_date", homework.ExpirationDate,
	)
	return homework, nil
}

// resolver looks up mention names, from the gateway cache when connected.
func (b *Bot) resolver(guildID string) discordutil.MentionResolver {
	if b.discord != nil && b.discord.State != nil {
		return discordutil.NewStateResolver(b.discord.State, guildID)
	}
	return discordutil.NewSessionResolver(b.session, guildID)
}

func (b *Bot) addHomeworkCommand(c *Context) error {
	resolver := b.resolver(c.Message.GuildID)
	homework, err := b.addHomework(
		c.Ctx(),
		discordutil.CleanContent(resolver, c.StringArg("materie"), discordutil.DefaultCleanContentOptions),
		c.DurationArg("expiră"),
		// Assignments pasted as a code block are stored as plain text.
		discordutil.CleanContent(resolver, helper.CleanCode(c.StringArg("temă")), discordutil.DefaultCleanContentOptions),
	)
	if errors.Is(err, repository.ErrInvalidHomework) {
		c.ResetCooldown()
		_, err = c.Reply("Materia și tema nu pot fi goale.")
		return err
	}
	if err != nil {
		return err
	}
	if err := c.React(thumbsUp); err != nil {
		b.log.Errorw("error reacting with :+1:", "error", err)
	}
	_, err = c.ReplyEmbed(homeworkEmbed(homework, b.now()))
	return err
}

func (b *Bot) deleteHomeworkCommand(c *Context) error {
	id := c.StringArg("id")
	err := b.repository.Delete(c.Ctx(), id)
	if errors.Is(err, repository.ErrNotFound) {
		_, err = c.Reply(fmt.Sprintf("Nu există nicio temă cu id-ul `%s`.", helper.EscapeMarkdown(id)))
		return err
	}
	if err != nil {
		return errors.Wrapf(err, "error deleting homework: %s", id)
	}
	b.log.Infow("homework deleted", "id", id)
	return c.React(thumbsUp)
}

func (b *Bot) announceHomeworks(c *Context) error {
	query := c.StringArg("materie")
	embeds, err := b.homeworkEmbeds(c.Ctx(), query)
	if err != nil {
		return err
	}
	if len(embeds) == 0 {
		_, err = c.ReplyDeleteAfter(noHomeworkMessage(query), notOwnerDelay)
		return err
	}

	webhook, err := b.GetWebhook(c.Message.ChannelID, "", b.avatarURL())
	if err != nil {
		return err
	}
	err = discordutil.SendEmbeds(discordutil.WebhookSender{Session: c.Session, Webhook: webhook}, embeds...)
	if err != nil {
		return err
	}
	b.deleteLater(0, c.Message)
	return nil
}
