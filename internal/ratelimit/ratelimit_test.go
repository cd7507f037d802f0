package ratelimit

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock drives a limiter without sleeping
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestLimiter(config *Config) (*Limiter, *fakeClock) {
	clock := &fakeClock{now: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	l := NewLimiter(config)
	l.now = clock.Now
	return l, clock
}

func TestTokenBucket(t *testing.T) {
	start := time.Now()
	bucket := newTokenBucket(3, 1.0, start)

	for i := 0; i < 3; i++ {
		ok, _, _ := bucket.take(start)
		assert.True(t, ok, "request %d", i+1)
	}
	ok, remaining, next := bucket.take(start)
	assert.False(t, ok)
	assert.Equal(t, 0, remaining)
	assert.Equal(t, time.Second, next)

	ok, _, _ = bucket.take(start.Add(1100 * time.Millisecond))
	assert.True(t, ok, "one token refilled")
}

func TestLimiter_GenerateRule(t *testing.T) {
	l, clock := newTestLimiter(&Config{Enabled: true, Rules: DefaultRules(6)})
	defer l.Stop()

	// burst of 3
	for i := 0; i < 3; i++ {
		ok, info := l.Allow("42", ActionGenerate)
		require.True(t, ok, "request %d", i+1)
		assert.Equal(t, 6, info.Limit)
	}
	ok, info := l.Allow("42", ActionGenerate)
	assert.False(t, ok)
	assert.InDelta(t, (10 * time.Minute).Seconds(), info.RetryAfter.Seconds(), 0.01)

	// another user has its own bucket
	ok, _ = l.Allow("43", ActionGenerate)
	assert.True(t, ok)

	clock.Advance(11 * time.Minute)
	ok, _ = l.Allow("42", ActionGenerate)
	assert.True(t, ok)
}

func TestLimiter_DefaultAndUnlimited(t *testing.T) {
	l, _ := newTestLimiter(&Config{
		Enabled:       true,
		DefaultLimit:  2,
		DefaultWindow: time.Minute,
		Rules:         DefaultRules(10),
	})
	defer l.Stop()

	assert.True(t, first(l.Allow("1.2.3.4", "/")))
	assert.True(t, first(l.Allow("1.2.3.4", "/")))
	assert.False(t, first(l.Allow("1.2.3.4", "/")))

	for i := 0; i < 50; i++ {
		assert.True(t, first(l.Allow("1.2.3.4", "/health")))
	}
}

func TestLimiter_WhitelistBlacklistDisabled(t *testing.T) {
	l, _ := newTestLimiter(&Config{
		Enabled:       true,
		DefaultLimit:  1,
		DefaultWindow: time.Hour,
		Whitelist:     map[string]bool{"admin": true},
		Blacklist:     map[string]bool{"spammer": true},
	})
	defer l.Stop()

	for i := 0; i < 5; i++ {
		assert.True(t, first(l.Allow("admin", ActionGenerate)))
	}
	assert.False(t, first(l.Allow("spammer", ActionGenerate)))

	disabled := NewLimiter(&Config{Enabled: false})
	defer disabled.Stop()
	assert.True(t, first(disabled.Allow("x", ActionGenerate)))
}

func TestLimiter_Cleanup(t *testing.T) {
	l, clock := newTestLimiter(&Config{Enabled: true, DefaultLimit: 5, DefaultWindow: time.Minute, IdleTTL: time.Hour})
	defer l.Stop()

	l.Allow("a", "/x")
	clock.Advance(30 * time.Minute)
	l.Allow("b", "/x")
	require.Equal(t, 2, l.Size())

	clock.Advance(45 * time.Minute)
	l.cleanupBuckets()
	assert.Equal(t, 1, l.Size())
}

func TestLimiter_Concurrent(t *testing.T) {
	l, _ := newTestLimiter(&Config{Enabled: true, DefaultLimit: 100, DefaultWindow: time.Hour})
	defer l.Stop()

	var wg sync.WaitGroup
	var mu sync.Mutex
	allowed := 0
	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if ok, _ := l.Allow("c", "/x"); ok {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 100, allowed)
}

func TestMatchRule(t *testing.T) {
	rules := DefaultRules(10)

	tests := []struct {
		action string
		want   string
	}{
		{ActionGenerate, ActionGenerate},
		{"/admin/stats", "/admin/"},
		{"/health", "/health"},
		{"/unknown", ""},
	}
	for _, tt := range tests {
		t.Run(tt.action, func(t *testing.T) {
			r := MatchRule(tt.action, rules)
			if tt.want == "" {
				assert.Nil(t, r)
				return
			}
			require.NotNil(t, r)
			assert.Equal(t, tt.want, r.Action)
		})
	}
}

func TestLoadConfig(t *testing.T) {
	t.Setenv("RATE_LIMIT_DEFAULT_LIMIT", "50")
	t.Setenv("RATE_LIMIT_WHITELIST", " 1.1.1.1 , 42 ,")

	cfg := LoadConfig(7)
	assert.True(t, cfg.Enabled)
	assert.Equal(t, 50, cfg.DefaultLimit)
	assert.Equal(t, map[string]bool{"1.1.1.1": true, "42": true}, cfg.Whitelist)
	assert.Equal(t, 7, MatchRule(ActionGenerate, cfg.Rules).Limit)

	t.Setenv("RATE_LIMIT_ENABLED", "false")
	assert.False(t, LoadConfig(7).Enabled)
}

func TestStop_Idempotent(t *testing.T) {
	l := NewLimiter(nil)
	l.Stop()
	l.Stop()
	assert.Equal(t, 0, l.Size())
}

func first(ok bool, _ Info) bool { return ok }
