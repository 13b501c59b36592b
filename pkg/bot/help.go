package bot

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/pkg/errors"
)

const (
	helpPagePrefix   = "comenzi:"
	commandsPerPage  = 5
	helpColor        = 0x00ff00
	helpThumbnailURL = "https://i.imgur.com/pKEZq6F.png"
)

func (b *Bot) helpCommand() *Command {
	return &Command{
		Name:        "comenzi",
		Aliases:     []string{"help", "ajutor"},
		Help:        "Arată toate comenzile, sau detalii despre o comandă.",
		Params:      []Param{{Name: "comanda", Kind: ParamString, Optional: true}},
		IgnoreExtra: true,
		Run:         b.help,
	}
}

func (b *Bot) help(c *Context) error {
	if c.HasArg("comanda") {
		name := strings.TrimLeft(c.StringArg("comanda"), "!?.")
		cmd, ok := b.router.Command(name)
		if !ok || cmd.Hidden {
			_, err := c.Reply(fmt.Sprintf("Nu există nicio comandă numită `%s`.", name))
			return err
		}
		_, err := c.ReplyEmbed(commandHelpEmbed(cmd))
		return err
	}

	embed, components := b.helpPage(0, c.AuthorID())
	_, err := c.SendComplex(&discordgo.MessageSend{
		Embeds:     []*discordgo.MessageEmbed{embed},
		Components: components,
		Reference:  c.Message.Reference(),
	})
	return err
}

func commandHelpEmbed(cmd *Command) *discordgo.MessageEmbed {
	fields := []*discordgo.MessageEmbedField{{
		Name:  "Folosire",
		Value: "`" + cmd.Usage() + "`",
	}}
	if len(cmd.Aliases) != 0 {
		fields = append(fields, &discordgo.MessageEmbedField{
			Name:  "Alias-uri",
			Value: "`" + strings.Join(cmd.Aliases, "`, `") + "`",
		})
	}
	return &discordgo.MessageEmbed{
		Title:       "!" + cmd.Name,
		Description: cmd.Help,
		Color:       helpColor,
		Fields:      fields,
		Timestamp:   time.Now().Format(time.RFC3339),
	}
}

func (b *Bot) visibleCommands() []*Command {
	var out []*Command
	for _, cmd := range b.router.Commands() {
		if !cmd.Hidden {
			out = append(out, cmd)
		}
	}
	return out
}

// helpPage renders one page of the command list. Only authorID may turn the
// pages.
func (b *Bot) helpPage(page int, authorID string) (*discordgo.MessageEmbed, []discordgo.MessageComponent) {
	commands := b.visibleCommands()
	pages := (len(commands) + commandsPerPage - 1) / commandsPerPage
	if pages == 0 {
		pages = 1
	}
	if page < 0 {
		page = 0
	}
	if page >= pages {
		page = pages - 1
	}

	var lines []string
	start := page * commandsPerPage
	for i := start; i < start+commandsPerPage && i < len(commands); i++ {
		lines = append(lines, fmt.Sprintf("`%s` - %s", commands[i].Usage(), commands[i].Help))
	}

	embed := &discordgo.MessageEmbed{
		Title: "Comenzi",
		Thumbnail: &discordgo.MessageEmbedThumbnail{
			URL: helpThumbnailURL,
		},
		Color:       helpColor,
		Description: strings.Join(lines, "\n"),
		Footer: &discordgo.MessageEmbedFooter{
			Text: fmt.Sprintf("Pagina %d/%d", page+1, pages),
		},
		Timestamp: time.Now().Format(time.RFC3339), // Discord wants ISO8601; RFC3339 is an extension of ISO8601 and should be completely compatible.
	}
	components := []discordgo.MessageComponent{
		discordgo.ActionsRow{
			Components: []discordgo.MessageComponent{
				discordgo.Button{
					Label:    "◀",
					Style:    discordgo.SecondaryButton,
					CustomID: helpPageID(page-1, authorID),
					Disabled: page == 0,
				},
				discordgo.Button{
					Label:    "▶",
					Style:    discordgo.SecondaryButton,
					CustomID: helpPageID(page+1, authorID),
					Disabled: page >= pages-1,
				},
			},
		},
	}
	return embed, components
}

func helpPageID(page int, authorID string) string {
	return fmt.Sprintf("%s%d:%s", helpPagePrefix, page, authorID)
}

func parseHelpPageID(customID string) (int, string, error) {
	parts := strings.Split(strings.TrimPrefix(customID, helpPagePrefix), ":")
	if len(parts) != 2 {
		return 0, "", errors.Errorf("invalid help page id: %q", customID)
	}
	page, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, "", errors.Wrapf(err, "invalid help page id: %q", customID)
	}
	return page, parts[1], nil
}

func (b *Bot) handleHelpPage(i *Interaction, data discordgo.MessageComponentInteractionData) error {
	page, authorID, err := parseHelpPageID(data.CustomID)
	if err != nil {
		return err
	}
	if i.User().ID != authorID {
		return b.RespondMessage(i, &discordgo.InteractionResponseData{
			Content: "Nu poți folosi aceste butoane.",
			Flags:   discordgo.MessageFlagsEphemeral,
		})
	}

	embed, components := b.helpPage(page, authorID)
	return b.Respond(i, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseUpdateMessage,
		Data: &discordgo.InteractionResponseData{
			Embeds:     []*discordgo.MessageEmbed{embed},
			Components: components,
		},
	})
}
