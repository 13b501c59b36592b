package discordutil

import (
	"strings"
	"unicode/utf8"
)

// MaxMessageLength is the longest message content Discord accepts.
const MaxMessageLength = 2000

// SplitMessageParts joins lines into as few messages as possible, none of
// them longer than maxLength characters.
func SplitMessageParts(lines []string, maxLength int) []string {
	var (
		messages []string
		length   int
		buf      strings.Builder
	)
	for _, line := range lines {
		lineWithNewline := line + "\n"
		lineLength := utf8.RuneCountInString(lineWithNewline)
		// Current buffer would overflow, flush it and start over with
		// this line.
		if length+lineLength > maxLength && buf.Len() > 0 {
			messages = append(messages, buf.String())
			buf.Reset()
			length = 0
		}
		buf.WriteString(lineWithNewline)
		length += lineLength
	}
	if buf.Len() > 0 {
		messages = append(messages, buf.String())
	}
	return messages
}
