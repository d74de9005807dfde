package handlers

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/reformadoai/tgbot-go/internal/config"
	"github.com/reformadoai/tgbot-go/internal/middleware"
	"github.com/reformadoai/tgbot-go/pkg/chunker"
	"github.com/reformadoai/tgbot-go/pkg/markdown"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// Sender is the slice of the Telegram client the handlers use.
// *tgbotapi.BotAPI satisfies it.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Deliverer sends responses as ordered, platform-sized chunks. A chunk whose
// rendered HTML the platform rejects is retried once as plain text; a chunk
// that fails both ways is logged and skipped so the rest still goes out.
type Deliverer struct {
	bot      Sender
	limiter  *rate.Limiter
	maxChars int
	metrics  *middleware.Metrics
	logger   *logrus.Logger
}

// NewDeliverer creates the delivery layer. Outbound sends are paced globally
// to stay under the platform's flood limits.
func NewDeliverer(bot Sender, cfg *config.Config, metrics *middleware.Metrics, logger *logrus.Logger) *Deliverer {
	sendsPerSecond := cfg.Bot.SendsPerSecond
	if sendsPerSecond <= 0 {
		sendsPerSecond = 20
	}

	return &Deliverer{
		bot:      bot,
		limiter:  rate.NewLimiter(rate.Limit(sendsPerSecond), 1),
		maxChars: cfg.Bot.MaxMessageChars,
		metrics:  metrics,
		logger:   logger,
	}
}

// Deliver chunks the response and sends every chunk in order, replying to
// replyTo (0 for no reply threading). Partial delivery is acceptable.
func (d *Deliverer) Deliver(ctx context.Context, chatID int64, replyTo int, response string) {
	sc := chunker.NewScanner(response, d.maxChars)
	for sc.Next() {
		if err := d.limiter.Wait(ctx); err != nil {
			d.logger.WithError(err).Warn("Delivery aborted while pacing sends")
			return
		}

		if err := d.sendChunk(chatID, replyTo, sc.Text()); err != nil {
			d.logger.WithError(err).WithField("chat_id", chatID).Error("Failed to deliver chunk")
			d.metrics.RecordDeliveryFailure()
		}
	}
}

func (d *Deliverer) sendChunk(chatID int64, replyTo int, piece string) error {
	msg := tgbotapi.NewMessage(chatID, markdown.ToTelegramHTML(piece))
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyToMessageID = replyTo

	_, err := d.bot.Send(msg)
	if err == nil {
		d.metrics.RecordChunkDelivered("html")
		return nil
	}
	d.logger.WithError(err).Warn("Formatted send rejected, retrying as plain text")

	plain := tgbotapi.NewMessage(chatID, piece)
	plain.ReplyToMessageID = replyTo
	if _, err := d.bot.Send(plain); err != nil {
		return err
	}
	d.metrics.RecordChunkDelivered("plain")
	return nil
}

// SendNotice sends one short pre-formatted HTML message (usage hints,
// welcome, error notices) with the same plain-text fallback, unchunked.
func (d *Deliverer) SendNotice(chatID int64, replyTo int, html string) {
	msg := tgbotapi.NewMessage(chatID, html)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyToMessageID = replyTo

	if _, err := d.bot.Send(msg); err == nil {
		return
	}

	plain := tgbotapi.NewMessage(chatID, html)
	plain.ReplyToMessageID = replyTo
	if _, err := d.bot.Send(plain); err != nil {
		d.logger.WithError(err).WithField("chat_id", chatID).Error("Failed to send notice")
	}
}

// Typing shows the typing indicator; failures only get logged.
func (d *Deliverer) Typing(chatID int64) {
	action := tgbotapi.NewChatAction(chatID, tgbotapi.ChatTyping)
	if _, err := d.bot.Request(action); err != nil {
		d.logger.WithError(err).Debug("Failed to send typing action")
	}
}
