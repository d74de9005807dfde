package middleware

import (
	"sync"
	"time"

	"github.com/reformadoai/tgbot-go/internal/config"
	"github.com/sirupsen/logrus"
)

// Action classes throttled independently of each other.
const (
	ActionChat    = "chat"
	ActionAnalyze = "analizar"
	ActionBooks   = "libros"
	ActionPro     = "pro"
)

// sweepEvery is how many accepted calls pass between stale-entry sweeps.
const sweepEvery = 250

// RateLimiter interface for per-user throttling
type RateLimiter interface {
	Allow(userID int64, action string, window time.Duration) bool
	Reset(userID int64, action string)
}

// CooldownLimiter enforces a minimum spacing between accepted actions from
// the same user. A denied action is dropped silently; the caller sends no
// "slow down" notice.
type CooldownLimiter struct {
	enabled  bool
	mu       sync.Mutex
	last     map[string]map[int64]time.Time
	accepted uint64
	now      func() time.Time
	logger   *logrus.Logger
}

// NewRateLimiter creates a new rate limiter
func NewRateLimiter(cfg *config.Config, logger *logrus.Logger) RateLimiter {
	if !cfg.RateLimit.Enabled {
		return &CooldownLimiter{enabled: false}
	}

	return &CooldownLimiter{
		enabled: true,
		last:    make(map[string]map[int64]time.Time),
		now:     time.Now,
		logger:  logger,
	}
}

// Allow records now for (userID, action) and returns true iff no prior
// accepted action exists inside the window. The first action of a user is
// never throttled.
func (r *CooldownLimiter) Allow(userID int64, action string, window time.Duration) bool {
	if !r.enabled {
		return true
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	class, ok := r.last[action]
	if !ok {
		class = make(map[int64]time.Time)
		r.last[action] = class
	}

	if prev, ok := class[userID]; ok && now.Sub(prev) < window {
		r.logger.WithFields(logrus.Fields{
			"user_id": userID,
			"action":  action,
		}).Debug("Cooldown active, dropping action")
		return false
	}

	class[userID] = now
	r.accepted++
	if r.accepted%sweepEvery == 0 {
		r.sweep(now, window)
	}
	return true
}

// Reset clears the cooldown record for a user and action class.
func (r *CooldownLimiter) Reset(userID int64, action string) {
	if !r.enabled {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if class, ok := r.last[action]; ok {
		delete(class, userID)
	}
}

// sweep drops entries old enough that they can no longer throttle anything.
// Called with the mutex held.
func (r *CooldownLimiter) sweep(now time.Time, window time.Duration) {
	maxAge := 30 * window
	if maxAge < time.Minute {
		maxAge = time.Minute
	}
	cutoff := now.Add(-maxAge)

	removed := 0
	for _, class := range r.last {
		for userID, ts := range class {
			if ts.Before(cutoff) {
				delete(class, userID)
				removed++
			}
		}
	}

	if removed > 0 {
		r.logger.WithField("removed", removed).Debug("Swept stale cooldown entries")
	}
}
