package bot

import (
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/pkg/errors"

	"github.com/scoala-bot/scoala/pkg/discordutil"
	"github.com/scoala-bot/scoala/pkg/helper"
	"github.com/scoala-bot/scoala/pkg/repository"
)

var slashCommands = []*discordgo.ApplicationCommand{
	{
		Name:        "teme",
		Description: "Arată temele",
		Options: []*discordgo.ApplicationCommandOption{{
			Type:        discordgo.ApplicationCommandOptionString,
			Name:        "materie",
			Description: "Doar temele de la această materie",
		}},
	},
	{
		Name:        "adauga",
		Description: "Adaugă o temă",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "materie",
				Description: "Materia",
				Required:    true,
			},
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "tema",
				Description: "Ce e de făcut",
				Required:    true,
			},
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "expira",
				Description: "Peste cât timp expiră, ex. 2d sau 12h30m",
			},
		},
	},
	{
		Name:        "sterge",
		Description: "Șterge o temă",
		Options: []*discordgo.ApplicationCommandOption{{
			Type:        discordgo.ApplicationCommandOptionString,
			Name:        "id",
			Description: "Id-ul temei",
			Required:    true,
		}},
	},
}

// registerSlashCommands overwrites the slash commands of every test guild.
func (b *Bot) registerSlashCommands(applicationID string) error {
	for _, guildID := range b.config.TestGuilds {
		_, err := b.session.ApplicationCommandBulkOverwrite(applicationID, guildID, slashCommands)
		if err != nil {
			return errors.Wrapf(err, "unable to register slash commands in guild: %s", guildID)
		}
		b.log.Debugw("slash commands registered", "guild", guildID, "count", len(slashCommands))
	}
	return nil
}

func optionString(options []*discordgo.ApplicationCommandInteractionDataOption, name string) string {
	for _, option := range options {
		if option.Name == name && option.Type == discordgo.ApplicationCommandOptionString {
			return option.StringValue()
		}
	}
	return ""
}

func (b *Bot) handleSlashCommand(i *Interaction) {
	data := i.ApplicationCommandData()
	var err error
	switch data.Name {
	case "teme":
		err = b.slashListHomeworks(i, optionString(data.Options, "materie"))
	case "adauga":
		err = b.slashAddHomework(i,
			optionString(data.Options, "materie"),
			optionString(data.Options, "expira"),
			optionString(data.Options, "tema"),
		)
	case "sterge":
		err = b.slashDeleteHomework(i, optionString(data.Options, "id"))
	default:
		b.log.Debugw("unknown slash command", "name", data.Name)
		return
	}
	if err != nil {
		b.InteractionReraise(i, Item{View: "/" + data.Name}, err)
	}
}

func (b *Bot) respondEphemeral(i *Interaction, content string) error {
	return b.RespondMessage(i, &discordgo.InteractionResponseData{
		Content: content,
		Flags:   discordgo.MessageFlagsEphemeral,
	})
}

func (b *Bot) slashListHomeworks(i *Interaction, query string) error {
	embeds, err := b.homeworkEmbeds(b.ctx, query)
	if err != nil {
		return err
	}
	if len(embeds) == 0 {
		return b.RespondMessage(i, &discordgo.InteractionResponseData{Content: noHomeworkMessage(query)})
	}
	for _, batch := range discordutil.BatchEmbeds(embeds) {
		err = b.RespondMessage(i, &discordgo.InteractionResponseData{Embeds: batch})
		if err != nil {
			return err
		}
	}
	return nil
}

func (b *Bot) slashAddHomework(i *Interaction, subject, expires, assignment string) error {
	if !b.allowedChannel(i.ChannelID, i.User().ID) {
		return b.respondEphemeral(i, "Scuze! Această comandă poate fi folosită numai în <#"+b.config.AllowedChannels[0]+">")
	}
	resolver := b.resolver(i.GuildID)
	homework, err := b.addHomework(
		b.ctx,
		discordutil.CleanContent(resolver, subject, discordutil.DefaultCleanContentOptions),
		helper.ParseDuration(expires),
		discordutil.CleanContent(resolver, helper.CleanCode(assignment), discordutil.DefaultCleanContentOptions),
	)
	if errors.Is(err, repository.ErrInvalidHomework) {
		return b.respondEphemeral(i, "Materia și tema nu pot fi goale.")
	}
	if err != nil {
		return err
	}
	return b.RespondMessage(i, &discordgo.InteractionResponseData{
		Embeds: []*discordgo.MessageEmbed{homeworkEmbed(homework, b.now())},
	})
}

func (b *Bot) slashDeleteHomework(i *Interaction, id string) error {
	if i.User().ID != b.config.OwnerID {
		return b.respondEphemeral(i, "Nu poți folosi această comandă deoarece nu deții acest bot.")
	}
	err := b.repository.Delete(b.ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return b.respondEphemeral(i, fmt.Sprintf("Nu există nicio temă cu id-ul `%s`.", helper.EscapeMarkdown(id)))
	}
	if err != nil {
		return errors.Wrapf(err, "error deleting homework: %s", id)
	}
	b.log.Infow("homework deleted", "id", id)
	return b.respondEphemeral(i, fmt.Sprintf("Tema `%s` a fost ștearsă.", id))
}

// allowedChannel is CheckChannel for interactions.
func (b *Bot) allowedChannel(channelID, userID string) bool {
	if userID == b.config.OwnerID || len(b.config.AllowedChannels) == 0 {
		return true
	}
	for _, allowed := range b.config.AllowedChannels {
		if channelID == allowed {
			return true
		}
	}
	return false
}
