package bot

import (
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/bwmarrin/discordgo"
	"github.com/pkg/errors"

	"github.com/scoala-bot/scoala/pkg/discordutil"
	"github.com/scoala-bot/scoala/pkg/helper"
)

// ParamKind is how an argument is converted.
type ParamKind int

const (
	// ParamString takes one word, or one quoted group of words.
	ParamString ParamKind = iota
	// ParamInt takes one integer.
	ParamInt
	// ParamRest takes the rest of the message as is.
	ParamRest
	// ParamMember takes a guild member by mention, ID or name.
	ParamMember
	// ParamUser takes a user by mention or ID.
	ParamUser
	// ParamDuration takes a duration like 1d2h or 30m.
	ParamDuration
)

// Param describes one command parameter.
type Param struct {
	Name     string
	Kind     ParamKind
	Optional bool
}

// quotes maps opening quotes to their closing counterpart.
var quotes = map[rune]rune{
	'"': '"',
	'„': '”',
	'“': '”',
	'«': '»',
}

// stringView walks over the arguments of a command.
type stringView struct {
	buf   string
	index int
}

func newStringView(s string) *stringView {
	return &stringView{buf: s}
}

func (v *stringView) eof() bool {
	return v.index >= len(v.buf)
}

func (v *stringView) skipWhitespace() {
	for !v.eof() {
		r, size := utf8.DecodeRuneInString(v.buf[v.index:])
		if !unicode.IsSpace(r) {
			return
		}
		v.index += size
	}
}

func (v *stringView) next() (rune, bool) {
	if v.eof() {
		return 0, false
	}
	r, size := utf8.DecodeRuneInString(v.buf[v.index:])
	v.index += size
	return r, true
}

func (v *stringView) rest() string {
	v.skipWhitespace()
	rest := strings.TrimSpace(v.buf[v.index:])
	v.index = len(v.buf)
	return rest
}

// quotedWord reads the next word. A word starting with a quote runs up to
// the closing quote, which must be followed by whitespace or the end.
func (v *stringView) quotedWord() (string, error) {
	v.skipWhitespace()
	first, ok := v.next()
	if !ok {
		return "", nil
	}

	var word strings.Builder
	closeQuote, quoted := quotes[first]
	if !quoted {
		word.WriteRune(first)
	}
	for {
		current, ok := v.next()
		if !ok {
			if quoted {
				return "", &ExpectedClosingQuoteError{CloseQuote: string(closeQuote)}
			}
			return word.String(), nil
		}

		if quoted && current == '\\' {
			escaped, ok := v.next()
			if !ok {
				return "", &ExpectedClosingQuoteError{CloseQuote: string(closeQuote)}
			}
			if escaped != closeQuote {
				word.WriteRune(current)
			}
			word.WriteRune(escaped)
			continue
		}

		if quoted && current == closeQuote {
			after, ok := v.next()
			if ok && !unicode.IsSpace(after) {
				return "", &InvalidEndOfQuotedStringError{Char: string(after)}
			}
			return word.String(), nil
		}

		if !quoted && unicode.IsSpace(current) {
			return word.String(), nil
		}
		word.WriteRune(current)
	}
}

var (
	userMentionRegex = regexp.MustCompile(`^<@!?([0-9]{15,20})>$`)
	snowflakeRegex   = regexp.MustCompile(`^[0-9]{15,20}$`)
)

// parseArgs fills the parameters of command from text.
func (c *Context) parseArgs(text string) error {
	view := newStringView(text)
	c.args = make(map[string]interface{}, len(c.Command.Params))

	for _, param := range c.Command.Params {
		var (
			raw string
			err error
		)
		if param.Kind == ParamRest {
			raw = view.rest()
		} else {
			raw, err = view.quotedWord()
			if err != nil {
				return err
			}
		}
		if raw == "" {
			if param.Optional {
				continue
			}
			return &MissingRequiredArgumentError{Param: param.Name}
		}

		value, err := c.convert(param, raw)
		if err != nil {
			return err
		}
		c.args[param.Name] = value
	}

	view.skipWhitespace()
	if !c.Command.IgnoreExtra && !view.eof() {
		return &TooManyArgumentsError{Command: c.Command.Name}
	}
	return nil
}

func (c *Context) convert(param Param, raw string) (interface{}, error) {
	switch param.Kind {
	case ParamInt:
		n, err := strconv.Atoi(raw)
		if err != nil {
			return nil, &BadArgumentError{Param: param.Name, Argument: raw, Err: err}
		}
		return n, nil
	case ParamMember:
		return c.convertMember(raw)
	case ParamUser:
		return c.convertUser(raw)
	case ParamDuration:
		return helper.ParseDuration(raw), nil
	}
	return raw, nil
}

func mentionedID(raw string) (string, bool) {
	if match := userMentionRegex.FindStringSubmatch(raw); match != nil {
		return match[1], true
	}
	if snowflakeRegex.MatchString(raw) {
		return raw, true
	}
	return "", false
}

func (c *Context) convertMember(raw string) (*discordgo.Member, error) {
	if c.Message.GuildID == "" {
		return nil, &MemberNotFoundError{Argument: raw}
	}
	if id, ok := mentionedID(raw); ok {
		member, err := c.Session.GuildMember(c.Message.GuildID, id)
		if err != nil {
			if discordutil.IsRESTError(err) {
				return nil, &MemberNotFoundError{Argument: raw}
			}
			return nil, errors.Wrapf(err, "unable to fetch member: %s", id)
		}
		if member.User == nil {
			return nil, &MemberNotFoundError{Argument: raw}
		}
		if member.GuildID == "" {
			member.GuildID = c.Message.GuildID
		}
		return member, nil
	}
	if member := c.Bot.memberByName(c.Message.GuildID, raw); member != nil {
		return member, nil
	}
	return nil, &MemberNotFoundError{Argument: raw}
}

func (c *Context) convertUser(raw string) (*discordgo.User, error) {
	id, ok := mentionedID(raw)
	if !ok {
		return nil, &UserNotFoundError{Argument: raw}
	}
	user, err := c.Session.User(id)
	if err != nil {
		if discordutil.IsRESTError(err) {
			return nil, &UserNotFoundError{Argument: raw}
		}
		return nil, errors.Wrapf(err, "unable to fetch user: %s", id)
	}
	return user, nil
}

// StringArg returns a string, int or rest parameter as text.
func (c *Context) StringArg(name string) string {
	switch v := c.args[name].(type) {
	case string:
		return v
	case int:
		return strconv.Itoa(v)
	}
	return ""
}

// IntArg returns an int parameter.
func (c *Context) IntArg(name string) int {
	v, _ := c.args[name].(int)
	return v
}

// MemberArg returns a member parameter, nil when it was not given.
func (c *Context) MemberArg(name string) *discordgo.Member {
	v, _ := c.args[name].(*discordgo.Member)
	return v
}

// UserArg returns a user parameter, nil when it was not given.
func (c *Context) UserArg(name string) *discordgo.User {
	v, _ := c.args[name].(*discordgo.User)
	return v
}

// DurationArg returns a duration parameter.
func (c *Context) DurationArg(name string) time.Duration {
	v, _ := c.args[name].(time.Duration)
	return v
}

// HasArg reports whether an optional parameter was given.
func (c *Context) HasArg(name string) bool {
	_, ok := c.args[name]
	return ok
}
