package bot

import (
	"fmt"
	"time"
)

// Errors produced while invoking a command. Context.Reraise turns them into
// replies.

// NotOwnerError means an owner-only command was used by someone else.
type NotOwnerError struct{}

func (e *NotOwnerError) Error() string { return "you do not own this bot" }

// CommandOnCooldownError means the cooldown bucket is exhausted.
type CommandOnCooldownError struct {
	RetryAfter time.Duration
}

func (e *CommandOnCooldownError) Error() string {
	return fmt.Sprintf("you are on cooldown, try again in %.2fs", e.RetryAfter.Seconds())
}

// DisabledCommandError means the command is switched off.
type DisabledCommandError struct {
	Command string
}

func (e *DisabledCommandError) Error() string {
	return fmt.Sprintf("command %s is disabled", e.Command)
}

// MaxConcurrencyReachedError means the user already runs this command.
type MaxConcurrencyReachedError struct {
	Limit int
}

func (e *MaxConcurrencyReachedError) Error() string {
	return fmt.Sprintf("too many people are using this command, limit is %d per user", e.Limit)
}

// MissingRequiredArgumentError names the first required parameter without
// a value.
type MissingRequiredArgumentError struct {
	Param string
}

func (e *MissingRequiredArgumentError) Error() string {
	return fmt.Sprintf("%s is a required argument that is missing", e.Param)
}

// MemberNotFoundError means the argument named no member of the guild.
type MemberNotFoundError struct {
	Argument string
}

func (e *MemberNotFoundError) Error() string {
	return fmt.Sprintf("member %q not found", e.Argument)
}

// UserNotFoundError means the argument named no user.
type UserNotFoundError struct {
	Argument string
}

func (e *UserNotFoundError) Error() string {
	return fmt.Sprintf("user %q not found", e.Argument)
}

// CheckFailureError means one of the command checks did not pass.
type CheckFailureError struct {
	Check string
}

func (e *CheckFailureError) Error() string {
	return fmt.Sprintf("the check %s failed", e.Check)
}

// ExpectedClosingQuoteError means a quoted argument was never closed.
type ExpectedClosingQuoteError struct {
	CloseQuote string
}

func (e *ExpectedClosingQuoteError) Error() string {
	return fmt.Sprintf("expected closing %s", e.CloseQuote)
}

// InvalidEndOfQuotedStringError means a closing quote was followed by
// something other than whitespace.
type InvalidEndOfQuotedStringError struct {
	Char string
}

func (e *InvalidEndOfQuotedStringError) Error() string {
	return fmt.Sprintf("expected space after closing quotation but received %q", e.Char)
}

// TooManyArgumentsError means arguments were left after every parameter
// got its value.
type TooManyArgumentsError struct {
	Command string
}

func (e *TooManyArgumentsError) Error() string {
	return fmt.Sprintf("too many arguments passed to %s", e.Command)
}

// BadArgumentError means an argument could not be converted.
type BadArgumentError struct {
	Param    string
	Argument string
	Err      error
}

func (e *BadArgumentError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("converting %q for parameter %s failed: %s", e.Argument, e.Param, e.Err)
	}
	return fmt.Sprintf("converting %q for parameter %s failed", e.Argument, e.Param)
}

func (e *BadArgumentError) Unwrap() error { return e.Err }

// CommandNotFoundError means no command goes by the invoked name.
type CommandNotFoundError struct {
	Name string
}

func (e *CommandNotFoundError) Error() string {
	return fmt.Sprintf("command %q is not found", e.Name)
}
