package notifier

import (
	"context"
	"net/http"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/scoala-bot/scoala/pkg/discordutil"
	"github.com/scoala-bot/scoala/pkg/discordutil/discordtest"
	"github.com/scoala-bot/scoala/pkg/repository"
)

var testNow = time.Date(2026, 10, 18, 8, 0, 0, 0, time.UTC)

func timePtr(t time.Time) *time.Time {
	return &t
}

func testRepository(t *testing.T) repository.Repository {
	repo, err := repository.NewJSONRepository(filepath.Join(t.TempDir(), "homeworks.json"))
	require.NoError(t, err)

	for _, homework := range []repository.Homework{
		{Subject: "Matematică", Assignment: "ex. 1", ExpirationDate: timePtr(testNow.Add(-time.Hour))},
		{Subject: "Fizică", Assignment: "problema *2*", ExpirationDate: timePtr(testNow.Add(-time.Minute))},
		{Subject: "Română", Assignment: "eseu", ExpirationDate: timePtr(testNow.Add(time.Hour))},
		{Subject: "Desen", Assignment: "natură statică"},
	} {
		_, err := repo.Insert(context.Background(), homework)
		require.NoError(t, err)
	}
	return repo
}

func newTestNotifier(t *testing.T, repo repository.Repository, sender discordutil.Sender) *notifierHandler {
	n := NewNotifierHandler(context.Background(), zaptest.NewLogger(t), time.Hour, repo, sender)
	n.now = func() time.Time { return testNow }
	return n
}

func TestTickAnnouncesExpired(t *testing.T) {
	repo := testRepository(t)
	session := discordtest.New()
	n := newTestNotifier(t, repo, discordutil.ChannelSender{Session: session, ChannelID: "anunturi"})

	require.NoError(t, n.tick())

	left, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, left, 2)
	assert.Equal(t, "Română", left[0].Subject)
	assert.Equal(t, "Desen", left[1].Subject)

	sent := session.SentTo("anunturi")
	require.Len(t, sent, 1)
	require.Len(t, sent[0].Embeds, 1)
	embed := sent[0].Embeds[0]
	assert.Equal(t, "Teme expirate", embed.Title)
	assert.Equal(t, "~~**Matematică**: ex. 1~~\n~~**Fizică**: problema *2*~~", embed.Description)
	assert.Equal(t, "2 teme șterse", embed.Footer.Text)

	// Nothing left to sweep, nothing sent.
	require.NoError(t, n.tick())
	assert.Len(t, session.SentTo("anunturi"), 1)
}

func TestTickWithoutSender(t *testing.T) {
	repo := testRepository(t)
	n := newTestNotifier(t, repo, nil)

	require.NoError(t, n.tick())
	left, err := repo.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, left, 2)
}

func TestTickSendError(t *testing.T) {
	session := discordtest.New()
	session.SendErr = discordtest.RESTError(http.StatusForbidden)
	n := newTestNotifier(t, testRepository(t), discordutil.ChannelSender{Session: session, ChannelID: "anunturi"})

	err := n.tick()
	require.Error(t, err)
	assert.True(t, discordutil.IsForbidden(err))
}

func TestExpiredEmbedsSplit(t *testing.T) {
	var expired []repository.Homework
	for i := 0; i < 30; i++ {
		expired = append(expired, repository.Homework{Subject: "Biologie", Assignment: strings.Repeat("a", 300)})
	}
	embeds := expiredEmbeds(expired, testNow)
	require.Greater(t, len(embeds), 1)
	assert.Equal(t, "Teme expirate", embeds[0].Title)
	assert.Nil(t, embeds[0].Footer)
	assert.Equal(t, "30 teme șterse", embeds[len(embeds)-1].Footer.Text)
}

func TestTickLongAnnouncementFitsMessages(t *testing.T) {
	repo, err := repository.NewJSONRepository(filepath.Join(t.TempDir(), "homeworks.json"))
	require.NoError(t, err)
	for i := 0; i < 40; i++ {
		_, err := repo.Insert(context.Background(), repository.Homework{
			Subject:        "Biologie",
			Assignment:     strings.Repeat("a", 300),
			ExpirationDate: timePtr(testNow.Add(-time.Hour)),
		})
		require.NoError(t, err)
	}
	session := discordtest.New()
	n := newTestNotifier(t, repo, discordutil.ChannelSender{Session: session, ChannelID: "anunturi"})

	require.NoError(t, n.tick())
	sent := session.SentTo("anunturi")
	require.Greater(t, len(sent), 1)
	for _, message := range sent {
		total := 0
		for _, embed := range message.Embeds {
			total += discordutil.EmbedLength(embed)
		}
		assert.LessOrEqual(t, total, 6000)
	}
	last := sent[len(sent)-1].Embeds
	assert.Equal(t, "40 teme șterse", last[len(last)-1].Footer.Text)
}

func TestStartDisabled(t *testing.T) {
	for _, interval := range []time.Duration{0, -time.Minute} {
		repo := testRepository(t)
		n := NewNotifierHandler(context.Background(), zaptest.NewLogger(t), interval, repo, nil)

		done := make(chan struct{})
		go func() {
			n.Start()
			close(done)
		}()
		select {
		case <-done:
		case <-time.After(5 * time.Second):
			t.Fatalf("Start with interval %s did not return", interval)
		}
		left, err := repo.List(context.Background())
		require.NoError(t, err)
		assert.Len(t, left, 4)
	}
}

func TestStartStopsWithContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	n := NewNotifierHandler(ctx, zaptest.NewLogger(t), time.Millisecond, testRepository(t), nil)

	done := make(chan struct{})
	go func() {
		n.Start()
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("notifier did not stop")
	}
}
