// Package discordtest provides an in-memory discordutil.Session that records
// what the bot sends.
package discordtest

import (
	"net/http"
	"strconv"
	"sync"

	"github.com/bwmarrin/discordgo"
)

// SentMessage is a message sent through a channel or a webhook.
type SentMessage struct {
	ChannelID string
	WebhookID string
	Message   *discordgo.MessageSend
}

// InteractionReply is a response or follow-up to an interaction.
type InteractionReply struct {
	Followup bool
	Response *discordgo.InteractionResponse
	Params   *discordgo.WebhookParams
}

// Session is a fake discordutil.Session. Messages, members, roles and
// channels are served from its maps; unknown IDs answer with a 404.
type Session struct {
	mu sync.Mutex

	Messages map[string]*discordgo.Message
	Channels map[string]*discordgo.Channel
	Users    map[string]*discordgo.User
	Members  map[string]*discordgo.Member
	Roles    []*discordgo.Role
	Webhooks map[string][]*discordgo.Webhook

	// SendErr, when set, fails every message send.
	SendErr error
	// ForbiddenDMs lists users whose DMs are closed.
	ForbiddenDMs map[string]bool

	Sent         []SentMessage
	Deleted      []string
	Typing       []string
	Reactions    []string
	Replies      []InteractionReply
	WebhooksMade []*discordgo.Webhook
	// AppCommands holds the registered slash commands by guild ID.
	AppCommands map[string][]*discordgo.ApplicationCommand

	nextID int
}

// New returns an empty fake session.
func New() *Session {
	return &Session{
		Messages:     make(map[string]*discordgo.Message),
		Channels:     make(map[string]*discordgo.Channel),
		Users:        make(map[string]*discordgo.User),
		Members:      make(map[string]*discordgo.Member),
		Webhooks:     make(map[string][]*discordgo.Webhook),
		ForbiddenDMs: make(map[string]bool),
		AppCommands:  make(map[string][]*discordgo.ApplicationCommand),
	}
}

// RESTError builds the error discordgo returns for an HTTP status.
func RESTError(status int) error {
	return &discordgo.RESTError{
		Response: &http.Response{StatusCode: status, Status: http.StatusText(status)},
		Message:  &discordgo.APIErrorMessage{Message: http.StatusText(status)},
	}
}

func (s *Session) id() string {
	s.nextID++
	return strconv.Itoa(s.nextID)
}

// SentTo returns the messages sent to channelID, in order.
func (s *Session) SentTo(channelID string) []*discordgo.MessageSend {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*discordgo.MessageSend
	for _, sent := range s.Sent {
		if sent.ChannelID == channelID {
			out = append(out, sent.Message)
		}
	}
	return out
}

// DMsTo returns the messages sent to userID's DM channel.
func (s *Session) DMsTo(userID string) []*discordgo.MessageSend {
	return s.SentTo(DMChannelID(userID))
}

// DMChannelID is the fake DM channel ID for userID.
func DMChannelID(userID string) string {
	return "dm-" + userID
}

// DeletedIDs returns the IDs of deleted messages.
func (s *Session) DeletedIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.Deleted...)
}

// InteractionReplies returns the interaction responses and follow-ups.
func (s *Session) InteractionReplies() []InteractionReply {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]InteractionReply(nil), s.Replies...)
}

func (s *Session) ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.SendErr != nil {
		return nil, s.SendErr
	}
	s.Sent = append(s.Sent, SentMessage{ChannelID: channelID, Message: data})
	message := &discordgo.Message{ID: "sent-" + s.id(), ChannelID: channelID, Content: data.Content, Embeds: data.Embeds}
	s.Messages[message.ID] = message
	return message, nil
}

func (s *Session) ChannelMessageDelete(channelID, messageID string, _ ...discordgo.RequestOption) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Deleted = append(s.Deleted, messageID)
	return nil
}

func (s *Session) ChannelMessage(channelID, messageID string, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	message, ok := s.Messages[messageID]
	if !ok || message.ChannelID != channelID {
		return nil, RESTError(http.StatusNotFound)
	}
	return message, nil
}

func (s *Session) ChannelTyping(channelID string, _ ...discordgo.RequestOption) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Typing = append(s.Typing, channelID)
	return nil
}

func (s *Session) MessageReactionAdd(channelID, messageID, emojiID string, _ ...discordgo.RequestOption) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Reactions = append(s.Reactions, messageID+":"+emojiID)
	return nil
}

// ReactionsAdded returns the added reactions as "messageID:emoji".
func (s *Session) ReactionsAdded() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.Reactions...)
}

func (s *Session) Channel(channelID string, _ ...discordgo.RequestOption) (*discordgo.Channel, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	channel, ok := s.Channels[channelID]
	if !ok {
		return nil, RESTError(http.StatusNotFound)
	}
	return channel, nil
}

func (s *Session) UserChannelCreate(recipientID string, _ ...discordgo.RequestOption) (*discordgo.Channel, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ForbiddenDMs[recipientID] {
		return nil, RESTError(http.StatusForbidden)
	}
	return &discordgo.Channel{ID: DMChannelID(recipientID), Type: discordgo.ChannelTypeDM}, nil
}

func (s *Session) User(userID string, _ ...discordgo.RequestOption) (*discordgo.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.Users[userID]
	if !ok {
		return nil, RESTError(http.StatusNotFound)
	}
	return user, nil
}

func (s *Session) GuildMember(guildID, userID string, _ ...discordgo.RequestOption) (*discordgo.Member, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	member, ok := s.Members[userID]
	if !ok {
		return nil, RESTError(http.StatusNotFound)
	}
	return member, nil
}

func (s *Session) GuildRoles(guildID string, _ ...discordgo.RequestOption) ([]*discordgo.Role, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Roles, nil
}

func (s *Session) ChannelWebhooks(channelID string, _ ...discordgo.RequestOption) ([]*discordgo.Webhook, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Webhooks[channelID], nil
}

func (s *Session) WebhookCreate(channelID, name, avatar string, _ ...discordgo.RequestOption) (*discordgo.Webhook, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	webhook := &discordgo.Webhook{
		ID:        "webhook-" + s.id(),
		ChannelID: channelID,
		Name:      name,
		Avatar:    avatar,
		Token:     "token",
	}
	s.Webhooks[channelID] = append(s.Webhooks[channelID], webhook)
	s.WebhooksMade = append(s.WebhooksMade, webhook)
	return webhook, nil
}

func (s *Session) WebhookExecute(webhookID, token string, wait bool, data *discordgo.WebhookParams, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.SendErr != nil {
		return nil, s.SendErr
	}
	s.Sent = append(s.Sent, SentMessage{
		WebhookID: webhookID,
		Message: &discordgo.MessageSend{
			Content:         data.Content,
			Embeds:          data.Embeds,
			AllowedMentions: data.AllowedMentions,
		},
	})
	return &discordgo.Message{ID: "sent-" + s.id(), WebhookID: webhookID, Content: data.Content}, nil
}

// SentByWebhook returns the messages executed through webhookID.
func (s *Session) SentByWebhook(webhookID string) []*discordgo.MessageSend {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*discordgo.MessageSend
	for _, sent := range s.Sent {
		if sent.WebhookID == webhookID {
			out = append(out, sent.Message)
		}
	}
	return out
}

func (s *Session) InteractionRespond(interaction *discordgo.Interaction, resp *discordgo.InteractionResponse, _ ...discordgo.RequestOption) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Replies = append(s.Replies, InteractionReply{Response: resp})
	return nil
}

func (s *Session) FollowupMessageCreate(interaction *discordgo.Interaction, wait bool, data *discordgo.WebhookParams, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Replies = append(s.Replies, InteractionReply{Followup: true, Params: data})
	return &discordgo.Message{ID: "followup-" + s.id()}, nil
}

func (s *Session) ApplicationCommandBulkOverwrite(appID string, guildID string, commands []*discordgo.ApplicationCommand, _ ...discordgo.RequestOption) ([]*discordgo.ApplicationCommand, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.AppCommands[guildID] = commands
	return commands, nil
}

// RegisteredCommands returns the slash commands registered in guildID.
func (s *Session) RegisteredCommands(guildID string) []*discordgo.ApplicationCommand {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.AppCommands[guildID]
}
