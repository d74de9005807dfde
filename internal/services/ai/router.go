package ai

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/reformadoai/tgbot-go/internal/config"
	"github.com/reformadoai/tgbot-go/internal/middleware"
	"github.com/reformadoai/tgbot-go/internal/models"
	"github.com/reformadoai/tgbot-go/internal/services/cache"
	"github.com/sirupsen/logrus"
)

// ErrAccessDenied is returned when a non-operator requests the privileged
// tier. The backend is never called in that case.
var ErrAccessDenied = errors.New("privileged tier access denied")

// Router binds each tier to a model identifier at startup and guards the
// privileged tier behind the operator check.
type Router struct {
	backend Service
	gate    *middleware.Gate
	cache   cache.Service
	metrics *middleware.Metrics
	ownerID string
	tiers   map[models.Tier]string
	logger  *logrus.Logger
}

// NewRouter creates the tier router.
func NewRouter(
	backend Service,
	gate *middleware.Gate,
	respCache cache.Service,
	metrics *middleware.Metrics,
	cfg *config.Config,
	logger *logrus.Logger,
) *Router {
	return &Router{
		backend: backend,
		gate:    gate,
		cache:   respCache,
		metrics: metrics,
		ownerID: canonicalID(cfg.Bot.OwnerID),
		tiers: map[models.Tier]string{
			models.TierStandard:   cfg.Gemini.StandardModel,
			models.TierPrivileged: cfg.Gemini.PrivilegedModel,
		},
		logger: logger,
	}
}

// canonicalID normalizes an identity for comparison so a numeric/string
// mismatch can never bypass the operator check.
func canonicalID(id string) string {
	return strings.TrimSpace(id)
}

// Route validates access for the requested tier and returns the model bound
// to it. The standard tier is open to everyone.
func (r *Router) Route(identity models.Identity, tier models.Tier) (string, error) {
	if tier == models.TierPrivileged {
		if canonicalID(strconv.FormatInt(identity.UserID, 10)) != r.ownerID {
			r.logger.WithFields(logrus.Fields{
				"user_id":  identity.UserID,
				"username": identity.Username,
			}).Info("Privileged tier request denied")
			r.metrics.RecordAccessDenied()
			return "", ErrAccessDenied
		}
	}

	model, ok := r.tiers[tier]
	if !ok || model == "" {
		return "", fmt.Errorf("no model bound to tier %s", tier)
	}
	return model, nil
}

// Ask routes the request, consults the response cache, and invokes the
// backend under the concurrency gate. Only the backend call holds a slot.
func (r *Router) Ask(ctx context.Context, identity models.Identity, tier models.Tier, prompt string) (string, error) {
	model, err := r.Route(identity, tier)
	if err != nil {
		return "", err
	}

	if answer, found := r.cache.Get(ctx, prompt, model); found {
		r.metrics.RecordCacheHit()
		return answer, nil
	}
	r.metrics.RecordCacheMiss()

	var answer string
	start := time.Now()
	err = r.gate.Do(ctx, func() error {
		var genErr error
		answer, genErr = r.backend.Generate(ctx, model, prompt)
		return genErr
	})

	status := "success"
	if err != nil {
		status = "error"
	}
	r.metrics.RecordBackendRequest(model, status, time.Since(start))

	if err != nil {
		return "", err
	}

	if err := r.cache.Set(ctx, prompt, model, answer); err != nil {
		r.logger.WithError(err).Warn("Failed to cache response")
	}

	return answer, nil
}
