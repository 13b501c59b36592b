package discordutil

import (
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/pkg/errors"
)

// ErrMissingArgument is returned when a channel is given without message IDs
// or the other way around.
var ErrMissingArgument = errors.New("missing argument")

// afterFunc schedules delayed deletions.
var afterFunc = time.AfterFunc

// TryDelete deletes every message, ignoring failures. With a positive delay
// the deletion happens in the background after delay.
func TryDelete(s Session, delay time.Duration, messages ...*discordgo.Message) {
	for _, message := range messages {
		if message == nil {
			continue
		}
		deleteLater(s, delay, message.ChannelID, message.ID)
	}
}

// TryDeleteIDs deletes the messages with the given IDs from channelID,
// ignoring failures.
func TryDeleteIDs(s Session, channelID string, delay time.Duration, messageIDs ...string) error {
	switch {
	case channelID == "" && len(messageIDs) == 0:
		return nil
	case channelID == "":
		return errors.Wrap(ErrMissingArgument, "if message IDs are given, channel is required")
	case len(messageIDs) == 0:
		return errors.Wrap(ErrMissingArgument, "if channel is given, message IDs are required")
	}
	for _, messageID := range messageIDs {
		deleteLater(s, delay, channelID, messageID)
	}
	return nil
}

func deleteLater(s Session, delay time.Duration, channelID, messageID string) {
	if delay <= 0 {
		_ = s.ChannelMessageDelete(channelID, messageID)
		return
	}
	afterFunc(delay, func() {
		_ = s.ChannelMessageDelete(channelID, messageID)
	})
}

// TryDM sends the same message to every user, ignoring failures.
func TryDM(s Session, message *discordgo.MessageSend, userIDs ...string) {
	for _, userID := range userIDs {
		_ = UserSender{Session: s, UserID: userID}.Send(message)
	}
}
