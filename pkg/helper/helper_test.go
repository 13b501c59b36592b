package helper

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimePhaser(t *testing.T) {
	assert.Equal(t, "1 minutes 30 seconds", TimePhaser(90))
	assert.Equal(t, "1 hours", TimePhaser(3600))
	assert.Equal(t, "1 days 1 hours 1 minutes 1 seconds", TimePhaser(90061))
	assert.Equal(t, "1 months", TimePhaser(30*24*3600))
	assert.Equal(t, "2 months 3 days", TimePhaser(63*24*3600))
	assert.Equal(t, "1 minutes 2 seconds", TimePhaser(61.5))
	assert.Equal(t, "", TimePhaser(0))
}

func TestParseDuration(t *testing.T) {
	assert.Equal(t, 26*time.Hour, ParseDuration("1d2h"))
	assert.Equal(t, 90*time.Minute, ParseDuration("1h 30m"))
	assert.Equal(t, 10*time.Minute, ParseDuration("10M"))
	assert.Equal(t, 45*time.Second, ParseDuration("45s"))
	assert.Equal(t, time.Duration(0), ParseDuration("mâine"))
	assert.Equal(t, time.Duration(0), ParseDuration(""))
}

func TestFormatPosition(t *testing.T) {
	cases := map[int]string{
		0:    "0th",
		1:    "1st",
		2:    "2nd",
		3:    "3rd",
		4:    "4th",
		11:   "11th",
		12:   "12th",
		13:   "13th",
		21:   "21st",
		22:   "22nd",
		101:  "101st",
		111:  "111th",
		1001: "1,001st",
	}
	for n, want := range cases {
		assert.Equal(t, want, FormatPosition(n), "position %d", n)
	}

	got, err := FormatPositionString(" 23 ")
	require.NoError(t, err)
	assert.Equal(t, "23rd", got)

	_, err = FormatPositionString("primul")
	assert.Error(t, err)
}

func TestValidateToken(t *testing.T) {
	assert.True(t, ValidateToken("OTM4MDk3MjM2MDI0MzYwOTYw.GaBcDe.abcdefghijklmnop"))
	assert.True(t, ValidateToken("MTIzNDU2Nzg5MDEyMzQ1Njc4OQ.GaBcDe.abcdefghijklmnop"))

	assert.False(t, ValidateToken(""))
	assert.False(t, ValidateToken("OTM4MDk3MjM2MDI0MzYwOTYw"))
	assert.False(t, ValidateToken("OTM4MDk3MjM2MDI0MzYwOTYw.GaBcDe"))
	assert.False(t, ValidateToken("OTM4MDk3MjM2MDI0MzYwOTYw.a.b.c"))
	assert.False(t, ValidateToken("!!!!.GaBcDe.abcdef"))
	assert.False(t, ValidateToken("aGVsbG8=.GaBcDe.abcdef"))
}

func TestEscapeMarkdown(t *testing.T) {
	assert.Equal(t, `\*\*hello\*\*`, EscapeMarkdown("**hello**"))
	assert.Equal(t, `a\_b \~\~c\~\~`, EscapeMarkdown("a_b ~~c~~"))
	assert.Equal(t, `\> citat`, EscapeMarkdown("> citat"))
	assert.Equal(t, "vezi https://example.com/a_b", EscapeMarkdown("vezi https://example.com/a_b"))
}

func TestRemoveMarkdown(t *testing.T) {
	assert.Equal(t, "hello", RemoveMarkdown("**hello**"))
	assert.Equal(t, "hello world", RemoveMarkdown("__hello__ ~~world~~"))
	assert.Equal(t, "cod", RemoveMarkdown("`cod`"))
	assert.Equal(t, "vezi https://example.com/a_b", RemoveMarkdown("vezi https://example.com/a_b"))
}

func TestEscapeMentions(t *testing.T) {
	assert.Equal(t, "@\u200beveryone salut", EscapeMentions("@everyone salut"))
	assert.Equal(t, "@\u200bhere", EscapeMentions("@here"))
	assert.Equal(t, "<@\u200b938097236024360960>", EscapeMentions("<@938097236024360960>"))
	assert.Equal(t, "<@\u200b!938097236024360960>", EscapeMentions("<@!938097236024360960>"))
	assert.Equal(t, "<@\u200b&983594507020951554>", EscapeMentions("<@&983594507020951554>"))
	assert.Equal(t, "mail@domeniu.ro", EscapeMentions("mail@domeniu.ro"))
}

func TestHumanJoin(t *testing.T) {
	assert.Equal(t, "", HumanJoin(nil, ", ", "și"))
	assert.Equal(t, "`a`", HumanJoin([]string{"`a`"}, ", ", "și"))
	assert.Equal(t, "`a` și `b`", HumanJoin([]string{"`a`", "`b`"}, ", ", "și"))
	assert.Equal(t, "a, b, c or d", HumanJoin([]string{"a", "b", "c", "d"}, ", ", "or"))
}

func TestCleanCode(t *testing.T) {
	assert.Equal(t, "print(1)\n", CleanCode("```py\nprint(1)\n```"))
	assert.Equal(t, "nu e cod", CleanCode("nu e cod"))
	assert.Equal(t, "", CleanCode("``````"))
}

func TestFormatAmount(t *testing.T) {
	assert.Equal(t, "1000000000", FormatAmount("1,000.000 000"))
	assert.Equal(t, "42", FormatAmount("42"))
}

func TestMatchSubject(t *testing.T) {
	assert.True(t, MatchSubject("mate", "Matematică"))
	assert.True(t, MatchSubject("romana", "Română"))
	assert.True(t, MatchSubject("MATEMATICĂ", "matematica"))
	assert.True(t, MatchSubject("limba romana", "Limba și literatura română"))
	assert.True(t, MatchSubject("", "Fizică"))

	assert.False(t, MatchSubject("fizica", "Chimie"))
	assert.False(t, MatchSubject("istorie", "Geografie"))
}
