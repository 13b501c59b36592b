package bot

import (
	"fmt"
	"strings"
	"sync"

	"github.com/bwmarrin/discordgo"
	"github.com/pkg/errors"

	"github.com/scoala-bot/scoala/pkg/discordutil"
)

// Interaction is an interaction that remembers whether it was answered.
type Interaction struct {
	*discordgo.Interaction

	mu        sync.Mutex
	responded bool
}

// Responded reports whether the interaction already got its response.
func (i *Interaction) Responded() bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.responded
}

// User is whoever triggered the interaction, in a guild or in DMs.
func (i *Interaction) User() *discordgo.User {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User
	}
	if i.Interaction.User != nil {
		return i.Interaction.User
	}
	return &discordgo.User{}
}

// Respond answers the interaction.
func (b *Bot) Respond(i *Interaction, resp *discordgo.InteractionResponse) error {
	err := b.session.InteractionRespond(i.Interaction, resp)
	if err != nil {
		return errors.Wrapf(err, "unable to respond to interaction: %s", i.ID)
	}
	i.mu.Lock()
	i.responded = true
	i.mu.Unlock()
	return nil
}

// RespondMessage answers the interaction with a message, or sends a follow-up
// when it was answered already.
func (b *Bot) RespondMessage(i *Interaction, data *discordgo.InteractionResponseData) error {
	if data.AllowedMentions == nil {
		data.AllowedMentions = allowedMentions()
	}
	if !i.Responded() {
		return b.Respond(i, &discordgo.InteractionResponse{
			Type: discordgo.InteractionResponseChannelMessageWithSource,
			Data: data,
		})
	}
	_, err := b.session.FollowupMessageCreate(i.Interaction, true, &discordgo.WebhookParams{
		Content:         data.Content,
		Embeds:          data.Embeds,
		Components:      data.Components,
		AllowedMentions: data.AllowedMentions,
		Flags:           data.Flags,
	})
	return errors.Wrapf(err, "unable to send follow-up to interaction: %s", i.ID)
}

// Item is the component an interaction error came from.
type Item struct {
	View string
	Type discordgo.ComponentType
	Row  int
}

func componentTypeName(t discordgo.ComponentType) string {
	switch t {
	case discordgo.ActionsRowComponent:
		return "ComponentType.action_row"
	case discordgo.ButtonComponent:
		return "ComponentType.button"
	case discordgo.SelectMenuComponent:
		return "ComponentType.string_select"
	case discordgo.TextInputComponent:
		return "ComponentType.text_input"
	}
	return fmt.Sprintf("ComponentType.%d", t)
}

// InteractionReraise reports err to the owner and tells the user, privately,
// that something went wrong.
func (b *Bot) InteractionReraise(i *Interaction, item Item, err error) {
	user := i.User()
	b.log.Errorw("error handling interaction",
		"view", item.View,
		"user", user.ID,
		"error", err,
	)

	content := fmt.Sprintf("**An error occurred with a view for the user `%s` (**%s**), here is the error:**\n"+
		"`View:` **%s**\n"+
		"`Item Type:` **%s**\n"+
		"`Item Row:` **%d**",
		discordutil.FormatName(user), user.ID,
		item.View,
		componentTypeName(item.Type),
		item.Row,
	)
	if reportErr := b.ReportToOwner(content, err); reportErr != nil {
		b.log.Errorw("error reporting to owner", "error", reportErr)
	}

	replyErr := b.RespondMessage(i, &discordgo.InteractionResponseData{
		Content: "> " + disagreeEmoji + " An error occurred",
		Flags:   discordgo.MessageFlagsEphemeral,
	})
	if replyErr != nil {
		b.log.Errorw("error answering failed interaction", "error", replyErr, "original_error", err)
	}
}

func (b *Bot) handleInteraction(i *Interaction) {
	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		b.handleSlashCommand(i)
	case discordgo.InteractionMessageComponent:
		data := i.MessageComponentData()
		var err error
		switch {
		case strings.HasPrefix(data.CustomID, helpPagePrefix):
			err = b.handleHelpPage(i, data)
		default:
			b.log.Debugw("unknown component", "custom_id", data.CustomID)
			return
		}
		if err != nil {
			b.InteractionReraise(i, Item{View: "HelpPaginator", Type: data.ComponentType}, err)
		}
	}
}
