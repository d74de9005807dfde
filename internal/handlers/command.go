package handlers

import (
	"context"
	"html"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/reformadoai/tgbot-go/internal/config"
	"github.com/reformadoai/tgbot-go/internal/i18n"
	"github.com/reformadoai/tgbot-go/internal/middleware"
	"github.com/reformadoai/tgbot-go/internal/models"
	"github.com/reformadoai/tgbot-go/internal/services/ai"
	"github.com/sirupsen/logrus"
)

// CommandHandler handles the bot commands
type CommandHandler struct {
	config      *config.Config
	router      *ai.Router
	rateLimiter middleware.RateLimiter
	deliverer   *Deliverer
	localizer   *i18n.Localizer
	metrics     *middleware.Metrics
	logger      *logrus.Logger
	lang        string
}

// NewCommandHandler creates a new command handler
func NewCommandHandler(
	cfg *config.Config,
	router *ai.Router,
	rateLimiter middleware.RateLimiter,
	deliverer *Deliverer,
	localizer *i18n.Localizer,
	metrics *middleware.Metrics,
	logger *logrus.Logger,
) *CommandHandler {
	return &CommandHandler{
		config:      cfg,
		router:      router,
		rateLimiter: rateLimiter,
		deliverer:   deliverer,
		localizer:   localizer,
		metrics:     metrics,
		logger:      logger,
		lang:        cfg.I18n.DefaultLanguage,
	}
}

// Commands returns the command menu registered with the platform at startup.
func Commands() []tgbotapi.BotCommand {
	return []tgbotapi.BotCommand{
		{Command: "start", Description: "Instrucciones"},
		{Command: "analizar", Description: "Analizar texto (Gemini 3 Flash)"},
		{Command: "libros", Description: "Bibliografía"},
		{Command: "pro", Description: "Consulta avanzada (solo admin)"},
	}
}

// HandleCommand dispatches one command update.
func (h *CommandHandler) HandleCommand(ctx context.Context, msg *tgbotapi.Message) error {
	if msg == nil || msg.From == nil {
		return nil
	}

	switch msg.Command() {
	case "start":
		h.handleStart(msg)
	case "analizar":
		h.handleAnalyze(ctx, msg)
	case "libros":
		h.handleBooks(ctx, msg)
	case "pro":
		h.handlePro(ctx, msg)
	default:
		// Unknown commands are ignored, same as non-triggering messages.
	}
	return nil
}

func (h *CommandHandler) handleStart(msg *tgbotapi.Message) {
	name := msg.From.FirstName
	if name == "" {
		name = "hermano"
	}

	welcome := h.localizer.Get(h.lang, i18n.MsgWelcome, map[string]interface{}{
		"Name": html.EscapeString(name),
	})
	h.deliverer.SendNotice(msg.Chat.ID, 0, welcome)
}

func (h *CommandHandler) handleAnalyze(ctx context.Context, msg *tgbotapi.Message) {
	identity := identityOf(msg)
	if !h.rateLimiter.Allow(identity.UserID, middleware.ActionAnalyze, h.config.RateLimit.CommandWindow) {
		h.metrics.RecordThrottled(middleware.ActionAnalyze)
		return
	}

	// The replied-to message wins; otherwise analyze the argument text.
	text := ""
	if msg.ReplyToMessage != nil {
		text = messageText(msg.ReplyToMessage)
	}
	if text == "" {
		text = strings.TrimSpace(msg.CommandArguments())
	}
	if text == "" {
		h.deliverer.SendNotice(msg.Chat.ID, msg.MessageID, h.localizer.Get(h.lang, i18n.MsgUsageAnalyze, nil))
		return
	}

	h.deliverer.Typing(msg.Chat.ID)

	out, err := h.router.Ask(ctx, identity, models.TierStandard, buildAnalyzePrompt(text))
	if err != nil {
		h.logger.WithError(err).WithFields(logrus.Fields{
			"chat_id": msg.Chat.ID,
			"user_id": identity.UserID,
		}).Error("Analyze command failed")
		h.deliverer.SendNotice(msg.Chat.ID, msg.MessageID, h.localizer.Get(h.lang, i18n.MsgErrorAnalyze, nil))
		return
	}

	h.deliverer.Deliver(ctx, msg.Chat.ID, msg.MessageID, out)
}

func (h *CommandHandler) handleBooks(ctx context.Context, msg *tgbotapi.Message) {
	identity := identityOf(msg)
	if !h.rateLimiter.Allow(identity.UserID, middleware.ActionBooks, h.config.RateLimit.CommandWindow) {
		h.metrics.RecordThrottled(middleware.ActionBooks)
		return
	}

	topic := strings.TrimSpace(msg.CommandArguments())
	if topic == "" {
		h.deliverer.SendNotice(msg.Chat.ID, msg.MessageID, h.localizer.Get(h.lang, i18n.MsgUsageBooks, nil))
		return
	}

	h.deliverer.Typing(msg.Chat.ID)

	out, err := h.router.Ask(ctx, identity, models.TierStandard, buildBooksPrompt(topic))
	if err != nil {
		h.logger.WithError(err).WithFields(logrus.Fields{
			"chat_id": msg.Chat.ID,
			"user_id": identity.UserID,
		}).Error("Books command failed")
		h.deliverer.SendNotice(msg.Chat.ID, msg.MessageID, h.localizer.Get(h.lang, i18n.MsgErrorBooks, nil))
		return
	}

	h.deliverer.Deliver(ctx, msg.Chat.ID, msg.MessageID, out)
}

func (h *CommandHandler) handlePro(ctx context.Context, msg *tgbotapi.Message) {
	identity := identityOf(msg)
	if !h.rateLimiter.Allow(identity.UserID, middleware.ActionPro, h.config.RateLimit.CommandWindow) {
		h.metrics.RecordThrottled(middleware.ActionPro)
		return
	}

	// Access check comes before argument parsing so non-operators never see
	// the usage text.
	if _, err := h.router.Route(identity, models.TierPrivileged); err != nil {
		h.deliverer.SendNotice(msg.Chat.ID, msg.MessageID, h.localizer.Get(h.lang, i18n.MsgAccessDenied, nil))
		return
	}

	query := strings.TrimSpace(msg.CommandArguments())
	if query == "" {
		h.deliverer.SendNotice(msg.Chat.ID, msg.MessageID, h.localizer.Get(h.lang, i18n.MsgUsagePro, nil))
		return
	}

	h.deliverer.Typing(msg.Chat.ID)

	out, err := h.router.Ask(ctx, identity, models.TierPrivileged, query)
	if err != nil {
		h.logger.WithError(err).WithFields(logrus.Fields{
			"chat_id": msg.Chat.ID,
			"user_id": identity.UserID,
		}).Error("Pro command failed")
		h.deliverer.SendNotice(msg.Chat.ID, msg.MessageID, h.localizer.Get(h.lang, i18n.MsgErrorPro, nil))
		return
	}

	h.deliverer.Deliver(ctx, msg.Chat.ID, msg.MessageID, out)
}
