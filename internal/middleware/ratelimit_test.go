package middleware

import (
	"io"
	"testing"
	"time"

	"github.com/reformadoai/tgbot-go/internal/config"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLimiter(t *testing.T) (*CooldownLimiter, *time.Time) {
	t.Helper()

	clock := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	cfg := &config.Config{RateLimit: config.RateLimitConfig{Enabled: true}}
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	rl, ok := NewRateLimiter(cfg, logger).(*CooldownLimiter)
	require.True(t, ok)
	rl.now = func() time.Time { return clock }
	return rl, &clock
}

func TestAllowFirstActionNeverThrottled(t *testing.T) {
	rl, _ := newTestLimiter(t)
	assert.True(t, rl.Allow(42, ActionChat, 2*time.Second))
}

func TestAllowEnforcesWindow(t *testing.T) {
	rl, clock := newTestLimiter(t)
	window := 5 * time.Second

	assert.True(t, rl.Allow(42, ActionAnalyze, window))
	assert.False(t, rl.Allow(42, ActionAnalyze, window), "immediate repeat must be dropped")

	*clock = clock.Add(window - time.Millisecond)
	assert.False(t, rl.Allow(42, ActionAnalyze, window))

	*clock = clock.Add(time.Millisecond)
	assert.True(t, rl.Allow(42, ActionAnalyze, window), "elapsed >= window must be allowed")
}

func TestAllowIsolatesActionClasses(t *testing.T) {
	rl, _ := newTestLimiter(t)

	assert.True(t, rl.Allow(42, ActionChat, 2*time.Second))
	assert.True(t, rl.Allow(42, ActionBooks, 5*time.Second), "different action class has its own cooldown")
	assert.False(t, rl.Allow(42, ActionChat, 2*time.Second))
}

func TestAllowIsolatesUsers(t *testing.T) {
	rl, _ := newTestLimiter(t)

	assert.True(t, rl.Allow(1, ActionChat, 2*time.Second))
	assert.True(t, rl.Allow(2, ActionChat, 2*time.Second))
	assert.False(t, rl.Allow(1, ActionChat, 2*time.Second))
}

func TestReset(t *testing.T) {
	rl, _ := newTestLimiter(t)

	assert.True(t, rl.Allow(42, ActionPro, 5*time.Second))
	rl.Reset(42, ActionPro)
	assert.True(t, rl.Allow(42, ActionPro, 5*time.Second))
}

func TestDisabledLimiterAlwaysAllows(t *testing.T) {
	cfg := &config.Config{RateLimit: config.RateLimitConfig{Enabled: false}}
	rl := NewRateLimiter(cfg, logrus.New())

	for i := 0; i < 10; i++ {
		assert.True(t, rl.Allow(42, ActionChat, time.Hour))
	}
}

func TestSweepRemovesStaleEntries(t *testing.T) {
	rl, clock := newTestLimiter(t)
	window := 2 * time.Second

	// One user acts, then falls idle far past the sweep cutoff.
	require.True(t, rl.Allow(9999, ActionChat, window))
	*clock = clock.Add(time.Hour)

	// Drive enough accepted calls to trip the periodic sweep.
	for i := int64(0); i < sweepEvery; i++ {
		require.True(t, rl.Allow(i, ActionChat, window))
	}

	rl.mu.Lock()
	_, stalePresent := rl.last[ActionChat][9999]
	rl.mu.Unlock()
	assert.False(t, stalePresent, "entry older than the cutoff must be evicted")
}

func TestSweepKeepsRecentEntries(t *testing.T) {
	rl, clock := newTestLimiter(t)
	window := 2 * time.Second

	require.True(t, rl.Allow(9999, ActionChat, window))
	// Cutoff is max(60s, 30*window) = 60s; 30s idle is still fresh.
	*clock = clock.Add(30 * time.Second)

	for i := int64(0); i < sweepEvery; i++ {
		require.True(t, rl.Allow(i, ActionChat, window))
	}

	rl.mu.Lock()
	_, present := rl.last[ActionChat][9999]
	rl.mu.Unlock()
	assert.True(t, present, "entry inside the cutoff must survive the sweep")
}
