package handlers

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/reformadoai/tgbot-go/internal/config"
	"github.com/reformadoai/tgbot-go/internal/middleware"
	"github.com/reformadoai/tgbot-go/internal/models"
	"github.com/reformadoai/tgbot-go/internal/services/ai"
	"github.com/reformadoai/tgbot-go/pkg/logger"
	"github.com/sirupsen/logrus"
)

// MessageHandler handles free-text chat messages.
type MessageHandler struct {
	config      *config.Config
	router      *ai.Router
	rateLimiter middleware.RateLimiter
	deliverer   *Deliverer
	metrics     *middleware.Metrics
	logger      *logrus.Logger
	botUsername string
	botID       int64
}

// NewMessageHandler creates a new message handler
func NewMessageHandler(
	cfg *config.Config,
	router *ai.Router,
	rateLimiter middleware.RateLimiter,
	deliverer *Deliverer,
	metrics *middleware.Metrics,
	logger *logrus.Logger,
	botUsername string,
	botID int64,
) *MessageHandler {
	return &MessageHandler{
		config:      cfg,
		router:      router,
		rateLimiter: rateLimiter,
		deliverer:   deliverer,
		metrics:     metrics,
		logger:      logger,
		botUsername: botUsername,
		botID:       botID,
	}
}

// HandleMessage runs the pipeline for one free-text update. Non-triggering
// and throttled messages are silent no-ops; backend failures on this passive
// path are swallowed so casual group conversations are not spammed.
func (h *MessageHandler) HandleMessage(ctx context.Context, msg *tgbotapi.Message) error {
	if msg == nil || msg.IsCommand() || msg.From == nil {
		return nil
	}
	if msg.From.ID == h.botID {
		return nil
	}

	reason := ResolveTrigger(msg, h.botUsername, h.botID)
	if reason == models.TriggerNone {
		return nil
	}
	h.metrics.RecordTrigger(reason.String())

	identity := identityOf(msg)
	if !h.rateLimiter.Allow(identity.UserID, middleware.ActionChat, h.config.RateLimit.ChatWindow) {
		h.metrics.RecordThrottled(middleware.ActionChat)
		return nil
	}

	turn := models.Turn{
		Text:   stripMention(messageText(msg), h.botUsername),
		Chat:   chatKind(msg.Chat),
		Reason: reason,
	}

	logger.WithUpdate(h.logger, msg.Chat.ID, identity.UserID).
		WithField("reason", turn.Reason.String()).
		Debug("Handling chat message")

	h.deliverer.Typing(msg.Chat.ID)

	out, err := h.router.Ask(ctx, identity, models.TierStandard, buildChatPrompt(turn.Text))
	if err != nil {
		logger.WithUpdate(h.logger, msg.Chat.ID, identity.UserID).
			WithError(err).Error("Chat generation failed")
		return nil
	}

	h.deliverer.Deliver(ctx, msg.Chat.ID, msg.MessageID, out)
	return nil
}
