package helper

import (
	"encoding/base64"
	"regexp"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
)

// CleanCode strips a surrounding code block (and its language line).
func CleanCode(content string) string {
	if strings.HasPrefix(content, "```") && strings.HasSuffix(content, "```") {
		lines := strings.Split(content, "\n")
		body := strings.Join(lines[1:], "\n")
		if len(body) < 3 {
			return ""
		}
		return body[:len(body)-3]
	}
	return content
}

// FormatAmount drops thousands separators: "1,000.000" -> "1000000".
func FormatAmount(num string) string {
	return strings.NewReplacer(",", "", " ", "", ".", "").Replace(num)
}

const (
	urlPattern         = `<[^: >]+:/[^ >]+>|(?:https?|steam)://[^\s<]+[^<.,:;"'\]\s]`
	markdownPattern    = `[_\\~|\*` + "`" + `]|^>(?:>>)?\s|\[.+\]\(.+\)|^#{1,3}|^\s*-`
	markdownAndURLExpr = `(?m)(?:` + urlPattern + `|` + markdownPattern + `)`
)

var (
	markdownRegex = regexp.MustCompile(markdownAndURLExpr)
	urlRegex      = regexp.MustCompile(`^(?:` + urlPattern + `)$`)
	mentionRegex  = regexp.MustCompile(`@(everyone|here|[!&]?[0-9]{17,20})`)
)

// EscapeMarkdown escapes markdown so that **hello** becomes \*\*hello\*\*.
// Links are left untouched.
func EscapeMarkdown(text string) string {
	return markdownRegex.ReplaceAllStringFunc(text, func(match string) string {
		if urlRegex.MatchString(match) {
			return match
		}
		return `\` + match
	})
}

// RemoveMarkdown removes markdown so that **hello** becomes hello.
// Links are left untouched.
func RemoveMarkdown(text string) string {
	return markdownRegex.ReplaceAllStringFunc(text, func(match string) string {
		if urlRegex.MatchString(match) {
			return match
		}
		return ""
	})
}

// EscapeMentions breaks @everyone, @here and user/role mentions with a zero
// width space so they never ping.
func EscapeMentions(text string) string {
	return mentionRegex.ReplaceAllString(text, "@\u200b$1")
}

// HumanJoin joins seq as a sentence: "a, b or c".
func HumanJoin(seq []string, delim, final string) string {
	switch len(seq) {
	case 0:
		return ""
	case 1:
		return seq[0]
	case 2:
		return seq[0] + " " + final + " " + seq[1]
	}
	return strings.Join(seq[:len(seq)-1], delim) + " " + final + " " + seq[len(seq)-1]
}

// FormatPosition adds the english ordinal suffix to n, keeping thousands
// separators: 1 -> "1st", 11 -> "11th", 1001 -> "1,001st".
func FormatPosition(n int) string {
	s := humanize.Comma(int64(n))
	switch {
	case strings.HasSuffix(s, "1") && !strings.HasSuffix(s, "11"):
		return s + "st"
	case strings.HasSuffix(s, "2") && !strings.HasSuffix(s, "12"):
		return s + "nd"
	case strings.HasSuffix(s, "3") && !strings.HasSuffix(s, "13"):
		return s + "rd"
	}
	return s + "th"
}

// FormatPositionString is FormatPosition for a number given as text.
func FormatPositionString(n string) (string, error) {
	v, err := strconv.Atoi(strings.TrimSpace(n))
	if err != nil {
		return "", errors.Wrapf(err, "invalid position: %q", n)
	}
	return FormatPosition(v), nil
}

// ValidateToken checks the token has three dot separated parts and that the
// first one is a base64 encoded user ID. Discord leaves out the padding.
func ValidateToken(token string) bool {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return false
	}
	userID, err := base64.RawStdEncoding.DecodeString(strings.TrimRight(parts[0], "="))
	if err != nil {
		return false
	}
	_, err = strconv.ParseUint(string(userID), 10, 64)
	return err == nil
}
