package notifier

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/scoala-bot/scoala/pkg/discordutil"
	"github.com/scoala-bot/scoala/pkg/helper"
	"github.com/scoala-bot/scoala/pkg/repository"
)

const (
	expiredColor        = 0x99aab5
	maxEmbedDescription = 4096
)

type notifierHandler struct {
	ctx           context.Context
	log           *zap.Logger
	checkInterval time.Duration
	repository    homeworkRepository
	// sender announces removed homework, nil only logs it.
	sender discordutil.Sender
	now    func() time.Time
}

type homeworkRepository interface {
	DeleteExpired(ctx context.Context, now time.Time) ([]repository.Homework, error)
}

// NewNotifierHandler returns the sweeper removing expired homework every
// checkInterval.
func NewNotifierHandler(
	ctx context.Context,
	log *zap.Logger,
	checkInterval time.Duration,
	repository homeworkRepository,
	sender discordutil.Sender,
) *notifierHandler {
	notifier := notifierHandler{
		ctx:           ctx,
		log:           log,
		checkInterval: checkInterval,
		repository:    repository,
		sender:        sender,
		now:           time.Now,
	}
	return &notifier
}

// Start blocks until the context is done. A non-positive interval disables
// the sweeper.
func (n *notifierHandler) Start() {
	if n.checkInterval <= 0 {
		n.log.Info("expired homework sweeper disabled", zap.Duration("interval", n.checkInterval))
		return
	}
	ticker := time.NewTicker(n.checkInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			err := n.tick()
			if err != nil {
				n.log.Error("notifier error", zap.Error(err))
			}
		case <-n.ctx.Done():
			return
		}
	}
}

// tick is called every ticker interval.
func (n *notifierHandler) tick() error {
	expired, err := n.repository.DeleteExpired(n.ctx, n.now())
	if err != nil {
		return errors.Wrap(err, "error deleting expired homework")
	}
	if len(expired) == 0 {
		return nil
	}
	for _, homework := range expired {
		n.log.Info("homework expired",
			zap.String("id", homework.ID),
			zap.String("subject", homework.Subject),
		)
	}
	if n.sender == nil {
		return nil
	}

	err = discordutil.SendEmbeds(n.sender, expiredEmbeds(expired, n.now())...)
	return errors.Wrap(err, "error announcing expired homework")
}

func expiredEmbeds(expired []repository.Homework, now time.Time) []*discordgo.MessageEmbed {
	lines := make([]string, 0, len(expired))
	for _, homework := range expired {
		lines = append(lines, fmt.Sprintf("~~**%s**: %s~~", helper.EscapeMarkdown(homework.Subject), homework.Assignment))
	}

	var embeds []*discordgo.MessageEmbed
	for i, part := range discordutil.SplitMessageParts(lines, maxEmbedDescription) {
		embed := &discordgo.MessageEmbed{
			Color:       expiredColor,
			Description: part,
		}
		if i == 0 {
			embed.Title = "Teme expirate"
		}
		embeds = append(embeds, embed)
	}
	last := embeds[len(embeds)-1]
	last.Footer = &discordgo.MessageEmbedFooter{
		Text: fmt.Sprintf("%d teme șterse", len(expired)),
	}
	// Discord wants ISO8601; RFC3339 is an extension of ISO8601 and should be completely compatible.
	last.Timestamp = now.Format(time.RFC3339)
	return embeds
}
