package bot

import (
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"golang.org/x/time/rate"

	"github.com/scoala-bot/scoala/pkg/discordutil"
)

// BucketType is what a cooldown is keyed on.
type BucketType int

const (
	// BucketUser is one bucket per author.
	BucketUser BucketType = iota
	// BucketChannel is one bucket per channel.
	BucketChannel
	// BucketContentChannel is one bucket per identical message per channel.
	BucketContentChannel
	// BucketContentUser is one bucket per identical message per author.
	BucketContentUser
)

func (b BucketType) key(m *discordgo.Message) string {
	switch b {
	case BucketChannel:
		return m.ChannelID
	case BucketContentChannel:
		return discordutil.CooldownKeyContentChannel(m)
	case BucketContentUser:
		return discordutil.CooldownKeyContentUser(m)
	}
	if m.Author == nil {
		return ""
	}
	return m.Author.ID
}

// Cooldown allows Rate uses every Per.
type Cooldown struct {
	Rate   int
	Per    time.Duration
	Bucket BucketType
}

type cooldownMapping struct {
	mu       sync.Mutex
	cooldown Cooldown
	buckets  map[string]*rate.Limiter
}

func newCooldownMapping(cooldown Cooldown) *cooldownMapping {
	return &cooldownMapping{
		cooldown: cooldown,
		buckets:  make(map[string]*rate.Limiter),
	}
}

// updateRateLimit takes a token for m and returns how long to wait when the
// bucket is empty, 0 otherwise.
func (c *cooldownMapping) updateRateLimit(m *discordgo.Message, now time.Time) time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.evictFull(now)
	key := c.cooldown.Bucket.key(m)
	limiter, ok := c.buckets[key]
	if !ok {
		every := c.cooldown.Per / time.Duration(c.cooldown.Rate)
		limiter = rate.NewLimiter(rate.Every(every), c.cooldown.Rate)
		c.buckets[key] = limiter
	}

	reservation := limiter.ReserveN(now, 1)
	delay := reservation.DelayFrom(now)
	if delay > 0 {
		reservation.CancelAt(now)
		return delay
	}
	return 0
}

// evictFull drops buckets that refilled completely, they behave the same as
// a missing bucket. Content keyed buckets would otherwise pile up.
func (c *cooldownMapping) evictFull(now time.Time) {
	for key, limiter := range c.buckets {
		if limiter.TokensAt(now) >= float64(limiter.Burst()) {
			delete(c.buckets, key)
		}
	}
}

func (c *cooldownMapping) reset(m *discordgo.Message) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.buckets, c.cooldown.Bucket.key(m))
}

// concurrency limits how many invocations of a command one user runs at
// the same time.
type concurrency struct {
	mu      sync.Mutex
	limit   int
	running map[string]int
}

func newConcurrency(limit int) *concurrency {
	return &concurrency{
		limit:   limit,
		running: make(map[string]int),
	}
}

func (c *concurrency) acquire(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.running[key] >= c.limit {
		return false
	}
	c.running[key]++
	return true
}

func (c *concurrency) release(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.running[key]--
	if c.running[key] <= 0 {
		delete(c.running, key)
	}
}
