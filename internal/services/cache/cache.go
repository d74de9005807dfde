package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/reformadoai/tgbot-go/internal/config"
	"github.com/sirupsen/logrus"
)

// Service defines response cache operations
type Service interface {
	Get(ctx context.Context, prompt, model string) (string, bool)
	Set(ctx context.Context, prompt, model, answer string) error
	Clear(ctx context.Context) error
}

type entry struct {
	Answer    string
	Model     string
	CreatedAt time.Time
}

// Cache is an in-memory TTL cache of backend responses. It holds no user
// state and lives only as long as the process.
type Cache struct {
	enabled bool
	cache   *cache.Cache
	logger  *logrus.Logger
	maxSize int
}

// NewCache creates a new cache service
func NewCache(cfg *config.Config, logger *logrus.Logger) Service {
	if !cfg.Cache.Enabled {
		return &Cache{enabled: false}
	}

	return &Cache{
		enabled: true,
		cache:   cache.New(cfg.Cache.TTL, cfg.Cache.TTL*2),
		logger:  logger,
		maxSize: cfg.Cache.MaxSize,
	}
}

// Get retrieves a cached response
func (c *Cache) Get(ctx context.Context, prompt, model string) (string, bool) {
	if !c.enabled {
		return "", false
	}

	key := c.generateKey(prompt, model)
	if val, found := c.cache.Get(key); found {
		e := val.(*entry)
		c.logger.WithFields(logrus.Fields{
			"model": model,
			"age":   time.Since(e.CreatedAt),
		}).Debug("Response cache hit")
		return e.Answer, true
	}

	return "", false
}

// Set stores a response in cache
func (c *Cache) Set(ctx context.Context, prompt, model, answer string) error {
	if !c.enabled {
		return nil
	}

	if c.cache.ItemCount() >= c.maxSize {
		c.logger.Warn("Cache size limit reached, clearing expired entries")
		c.cache.DeleteExpired()
	}

	key := c.generateKey(prompt, model)
	c.cache.SetDefault(key, &entry{
		Answer:    answer,
		Model:     model,
		CreatedAt: time.Now(),
	})

	return nil
}

// Clear removes all cached entries
func (c *Cache) Clear(ctx context.Context) error {
	if !c.enabled {
		return nil
	}

	c.cache.Flush()
	c.logger.Info("Response cache cleared")
	return nil
}

func (c *Cache) generateKey(prompt, model string) string {
	data := fmt.Sprintf("%s:%s", model, prompt)
	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}
