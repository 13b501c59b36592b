package bot

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/gregjones/httpcache"
	"github.com/pkg/errors"

	"github.com/scoala-bot/scoala/pkg/discordutil"
	"github.com/scoala-bot/scoala/pkg/repository"
)

const (
	presenceName       = "you study | !comenzi"
	defaultWebhookName = "Școală"
	webhookReason      = "Used GetWebhook but webhook didn't exist"
	stateMessageCount  = 100000
	disagreeEmoji      = "<:disagree:938412196663271514>"
)

// Config holds the IDs the bot treats specially.
type Config struct {
	OwnerID string
	// AllowedChannels are where homework commands may be used, the first
	// one is suggested to users.
	AllowedChannels []string
	// TestGuilds get the slash commands.
	TestGuilds []string
	Prefixes   []string
}

// DefaultConfig is the configuration of the Școală server.
func DefaultConfig() Config {
	return Config{
		OwnerID:         "938097236024360960",
		AllowedChannels: []string{"983612117158600714", "983596968456618004"},
		TestGuilds:      []string{"983594507020951554"},
		Prefixes:        []string{"!", "?", "."},
	}
}

type logger interface {
	Debugw(string, ...interface{})
	Infow(string, ...interface{})
	Errorw(string, ...interface{})
}

// Bot is the Școală discord bot.
type Bot struct {
	ctx        context.Context
	log        logger
	discord    *discordgo.Session
	session    discordutil.Session
	repository repository.Repository
	config     Config
	router     *Router

	readyOnce sync.Once
	mu        sync.RWMutex
	startedAt time.Time

	httpOnce      sync.Once
	httpClient    *http.Client
	newHTTPClient func() *http.Client

	tryDelete func(discordutil.Session, time.Duration, ...*discordgo.Message)
	now       func() time.Time
}

// New returns the bot talking to discord through the given session.
func New(
	log logger,
	discord *discordgo.Session,
	repository repository.Repository,
	config Config,
) *Bot {
	b := newBot(log, discord, repository, config)
	b.discord = discord
	return b
}

func newBot(
	log logger,
	session discordutil.Session,
	repository repository.Repository,
	config Config,
) *Bot {
	b := &Bot{
		ctx:           context.Background(),
		log:           log,
		session:       session,
		repository:    repository,
		config:        config,
		router:        NewRouter(config.Prefixes...),
		newHTTPClient: newCachingHTTPClient,
		tryDelete:     discordutil.TryDelete,
		now:           time.Now,
	}
	b.router.Register(b.commands()...)
	return b
}

func newCachingHTTPClient() *http.Client {
	return &http.Client{
		Transport: httpcache.NewMemoryCacheTransport(),
		Timeout:   30 * time.Second,
	}
}

// Bot connects to discord and serves commands until ctx is done.
func (b *Bot) Bot(ctx context.Context) error {
	if b.discord == nil {
		return errors.New("bot has no gateway session")
	}
	b.ctx = ctx
	b.discord.Identify.Intents = discordgo.IntentsAll
	b.discord.State.MaxMessageCount = stateMessageCount

	b.discord.AddHandler(b.readyHandler)
	// Add handler to listen for prefixed commands.
	b.discord.AddHandler(b.messageCreateHandler)
	// Add handler to listen for slash commands and button presses.
	b.discord.AddHandler(b.interactionCreateHandler)

	err := b.discord.Open()
	if err != nil {
		return errors.Wrap(err, "unable to connect to discord")
	}
	b.log.Infow("Școală bot running", "prefixes", b.config.Prefixes)

	<-ctx.Done()
	return errors.Wrap(b.discord.Close(), "error closing discord session")
}

// Router returns the command router.
func (b *Bot) Router() *Router {
	return b.router
}

func (b *Bot) readyHandler(s *discordgo.Session, r *discordgo.Ready) {
	b.onReady(r.User.ID, s.UpdateStatusComplex)
}

// onReady runs once per process, the gateway may send Ready again on
// reconnects.
func (b *Bot) onReady(applicationID string, setPresence func(discordgo.UpdateStatusData) error) {
	b.readyOnce.Do(func() {
		b.mu.Lock()
		b.startedAt = b.now()
		b.mu.Unlock()

		err := setPresence(discordgo.UpdateStatusData{
			Status: string(discordgo.StatusDoNotDisturb),
			Activities: []*discordgo.Activity{{
				Name: presenceName,
				Type: discordgo.ActivityTypeWatching,
			}},
		})
		if err != nil {
			b.log.Errorw("error changing presence", "error", err)
		}

		err = b.registerSlashCommands(applicationID)
		if err != nil {
			b.log.Errorw("error registering slash commands", "error", err)
		}
	})
	b.log.Infow("Bot is ready!")
}

// Uptime is how long ago the bot first became ready.
func (b *Bot) Uptime() time.Duration {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.startedAt.IsZero() {
		return 0
	}
	return b.now().Sub(b.startedAt)
}

func (b *Bot) messageCreateHandler(s *discordgo.Session, m *discordgo.MessageCreate) {
	// Ignore bots, the bot itself included.
	if m.Author == nil || m.Author.Bot {
		return
	}
	b.router.Dispatch(b.ctx, b, m.Message)
}

func (b *Bot) interactionCreateHandler(s *discordgo.Session, i *discordgo.InteractionCreate) {
	b.handleInteraction(&Interaction{Interaction: i.Interaction})
}

// HTTPClient is the HTTP client shared by every command, created on first
// use.
func (b *Bot) HTTPClient() *http.Client {
	b.httpOnce.Do(func() {
		b.httpClient = b.newHTTPClient()
	})
	return b.httpClient
}

// GetWebhook returns the webhook of the channel called name, creating it
// when missing. An empty name means the bot's own webhook.
func (b *Bot) GetWebhook(channelID, name, avatarURL string) (*discordgo.Webhook, error) {
	if name == "" {
		name = defaultWebhookName
	}
	webhooks, err := b.session.ChannelWebhooks(channelID)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to list webhooks of channel: %s", channelID)
	}
	for _, webhook := range webhooks {
		if webhook.Name != "" && strings.EqualFold(webhook.Name, name) {
			return webhook, nil
		}
	}

	var avatar string
	if avatarURL != "" {
		avatar, err = b.fetchAvatar(avatarURL)
		if err != nil {
			return nil, err
		}
	}
	webhook, err := b.session.WebhookCreate(channelID, name, avatar, discordgo.WithAuditLogReason(webhookReason))
	if err != nil {
		return nil, errors.Wrapf(err, "unable to create webhook in channel: %s", channelID)
	}
	return webhook, nil
}

// fetchAvatar downloads an image as the data URI discord expects.
func (b *Bot) fetchAvatar(url string) (string, error) {
	resp, err := b.HTTPClient().Get(url)
	if err != nil {
		return "", errors.Wrapf(err, "unable to download avatar: %s", url)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", errors.Errorf("unable to download avatar: %s, status: %s", url, resp.Status)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", errors.Wrapf(err, "unable to read avatar: %s", url)
	}
	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}
	return fmt.Sprintf("data:%s;base64,%s", contentType, base64.StdEncoding.EncodeToString(data)), nil
}

// ReferenceToMessage resolves ref. Nil is returned when the message is gone
// or does not live in a text channel or thread.
func (b *Bot) ReferenceToMessage(ref *discordgo.MessageReference) (*discordgo.Message, error) {
	if ref == nil || ref.MessageID == "" {
		return nil, nil
	}
	channel, err := b.session.Channel(ref.ChannelID)
	if err != nil {
		if discordutil.IsNotFound(err) {
			return nil, nil
		}
		return nil, errors.Wrapf(err, "unable to fetch channel: %s", ref.ChannelID)
	}
	switch channel.Type {
	case discordgo.ChannelTypeGuildText,
		discordgo.ChannelTypeGuildNews,
		discordgo.ChannelTypeGuildPublicThread,
		discordgo.ChannelTypeGuildPrivateThread,
		discordgo.ChannelTypeGuildNewsThread:
	default:
		return nil, nil
	}

	message, err := b.session.ChannelMessage(ref.ChannelID, ref.MessageID)
	if err != nil {
		if discordutil.IsNotFound(err) {
			return nil, nil
		}
		return nil, errors.Wrapf(err, "unable to fetch message: %s", ref.MessageID)
	}
	return message, nil
}

// Owner sends to the owner's DMs.
func (b *Bot) Owner() discordutil.Sender {
	return discordutil.UserSender{Session: b.session, UserID: b.config.OwnerID}
}

// ReportToOwner DMs the owner content along with err and its stack trace.
func (b *Bot) ReportToOwner(content string, err error) error {
	return b.Owner().Send(&discordgo.MessageSend{
		Content: content,
		Embeds:  []*discordgo.MessageEmbed{traceEmbed(err)},
	})
}

func (b *Bot) deleteLater(delay time.Duration, messages ...*discordgo.Message) {
	b.tryDelete(b.session, delay, messages...)
}

// memberByName searches the state cache for a member by nickname, name or
// name#discriminator.
func (b *Bot) memberByName(guildID, name string) *discordgo.Member {
	if b.discord == nil || b.discord.State == nil {
		return nil
	}
	guild, err := b.discord.State.Guild(guildID)
	if err != nil {
		return nil
	}

	b.discord.State.RLock()
	defer b.discord.State.RUnlock()
	for _, member := range guild.Members {
		if member.User == nil {
			continue
		}
		if strings.EqualFold(member.Nick, name) ||
			strings.EqualFold(member.User.Username, name) ||
			strings.EqualFold(member.User.GlobalName, name) ||
			strings.EqualFold(discordutil.FormatName(member.User), name) {
			return member
		}
	}
	return nil
}

// latency is the gateway heartbeat latency.
func (b *Bot) latency() time.Duration {
	if b.discord == nil {
		return 0
	}
	return b.discord.HeartbeatLatency()
}

// avatarURL is the bot's own avatar, used for its webhooks.
func (b *Bot) avatarURL() string {
	if b.discord == nil || b.discord.State == nil || b.discord.State.User == nil {
		return ""
	}
	return b.discord.State.User.AvatarURL("")
}
