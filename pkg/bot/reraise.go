package bot

import (
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/pkg/errors"

	"github.com/scoala-bot/scoala/pkg/helper"
)

const (
	notOwnerDelay       = 8 * time.Second
	maxConcurrencyDelay = 5 * time.Second
	// maxTraceLength keeps error reports inside the embed description limit.
	maxTraceLength = 4000
)

// Reraise answers a failed invocation. Known errors become a localized reply
// (or nothing); anything else is reported to the owner.
func (c *Context) Reraise(err error) {
	var (
		notOwner        *NotOwnerError
		onCooldown      *CommandOnCooldownError
		disabled        *DisabledCommandError
		maxConcurrency  *MaxConcurrencyReachedError
		missingArgument *MissingRequiredArgumentError
		memberNotFound  *MemberNotFoundError
		userNotFound    *UserNotFoundError
		checkFailure    *CheckFailureError
		closingQuote    *ExpectedClosingQuoteError
		endOfQuoted     *InvalidEndOfQuotedStringError
		tooMany         *TooManyArgumentsError
		badArgument     *BadArgumentError
		notFound        *CommandNotFoundError
		replyErr        error
	)

	switch {
	case errors.As(err, &notOwner):
		_, replyErr = c.ReplyDeleteAfter("Nu poți folosi această comandă deoarece nu deții acest bot.", notOwnerDelay)
		c.deleteInvoking(notOwnerDelay)

	case errors.As(err, &onCooldown):
		var wait string
		seconds := onCooldown.RetryAfter.Seconds()
		if seconds > 60 {
			wait = helper.TimePhaser(seconds)
		} else {
			wait = fmt.Sprintf("%.2f secunde", seconds)
		}
		_, replyErr = c.Reply(fmt.Sprintf("Ești in cooldown, mai ai **`%s`**.", wait))

	case errors.As(err, &disabled):
		c.ResetCooldown()
		_, replyErr = c.Reply("Această comandă este dezactivată!")

	case errors.As(err, &maxConcurrency):
		c.deleteInvoking(maxConcurrencyDelay)
		_, replyErr = c.ReplyDeleteAfter("Deja folosești această comandă.", maxConcurrencyDelay)

	case errors.As(err, &missingArgument):
		_, replyErr = c.Reply(c.missingArgumentsMessage(missingArgument.Param))

	case errors.As(err, &memberNotFound):
		_, replyErr = c.Reply("Nu s-a putut găsi acel membru.")
		c.ResetCooldown()

	case errors.As(err, &userNotFound):
		_, replyErr = c.Reply("Nu s-a putut găsi acel user.")
		c.ResetCooldown()

	case errors.As(err, &checkFailure):
		c.ResetCooldown()

	case errors.As(err, &closingQuote):
		c.ResetCooldown()
		_, replyErr = c.Reply(fmt.Sprintf("Îți lipsește `%s` la sfârșit.", closingQuote.CloseQuote))

	case errors.As(err, &endOfQuoted):
		c.ResetCooldown()
		_, replyErr = c.Reply(fmt.Sprintf("Îți lipsește un spațiu după ghilimele, nu `%s`", endOfQuoted.Char))

	case errors.As(err, &tooMany), errors.As(err, &badArgument), errors.As(err, &notFound):

	default:
		c.Bot.log.Errorw("error running command",
			"command", c.commandName(),
			"error", err,
		)
		reportErr := c.Bot.ReportToOwner(
			fmt.Sprintf("**An error occurred with the command `%s`, here is the error:**", c.commandName()),
			err,
		)
		if reportErr != nil {
			c.Bot.log.Errorw("error reporting to owner", "error", reportErr)
		}
		_, replyErr = c.Reply("A apărut o eroare. Această informație a fost trimisă creatorului meu pentru a fi rezolvată")
	}

	if replyErr != nil {
		c.Bot.log.Errorw("error answering failed command",
			"command", c.commandName(),
			"error", replyErr,
			"original_error", err,
		)
	}
}

func (c *Context) commandName() string {
	if c.Command == nil {
		return c.InvokedWith
	}
	return c.Command.Name
}

func (c *Context) deleteInvoking(delay time.Duration) {
	if c.Message.ID == "" {
		return
	}
	c.Bot.deleteLater(delay, c.Message)
}

// missingArgumentsMessage lists param and every parameter after it.
func (c *Context) missingArgumentsMessage(param string) string {
	var missing []string
	found := false
	for _, p := range c.Command.Params {
		if p.Name == param {
			found = true
		}
		if found {
			missing = append(missing, "`"+p.Name+"`")
		}
	}
	return "Îți lipsesc următorii parametri:\n " +
		"\u2800\u2800" + helper.HumanJoin(missing, ", ", "și") + "\n\n" +
		"Dacă nu știi cum se folosește această comandă, scrie " +
		"`!comenzi " + c.Command.Name + "` pentru mai multe informații."
}

// traceEmbed renders err with its stack trace.
func traceEmbed(err error) *discordgo.MessageEmbed {
	trace := []rune(fmt.Sprintf("%+v", err))
	if len(trace) > maxTraceLength {
		trace = trace[:maxTraceLength]
	}
	return &discordgo.MessageEmbed{
		Description: "```go\n" + string(trace) + "\n```",
		Timestamp:   time.Now().Format(time.RFC3339), // Discord wants ISO8601; RFC3339 is an extension of ISO8601 and should be completely compatible.
	}
}
