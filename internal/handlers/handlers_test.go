package handlers

import (
	"context"
	"errors"
	"io"
	"sync"
	"sync/atomic"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/reformadoai/tgbot-go/internal/config"
	"github.com/reformadoai/tgbot-go/internal/i18n"
	"github.com/reformadoai/tgbot-go/internal/middleware"
	"github.com/reformadoai/tgbot-go/internal/services/ai"
	"github.com/reformadoai/tgbot-go/internal/services/cache"
	"github.com/sirupsen/logrus"
)

const (
	testBotUsername = "reformado_bot"
	testBotID       = int64(424242)
	testOwnerID     = int64(777)
)

// fakeSender records what would have gone to Telegram.
type fakeSender struct {
	mu       sync.Mutex
	sent     []tgbotapi.MessageConfig
	typing   int
	failHTML bool
	failAll  bool
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	msg, ok := c.(tgbotapi.MessageConfig)
	if !ok {
		return tgbotapi.Message{}, nil
	}
	if f.failAll || (f.failHTML && msg.ParseMode == tgbotapi.ModeHTML) {
		return tgbotapi.Message{}, errors.New("Bad Request: can't parse entities")
	}
	f.sent = append(f.sent, msg)
	return tgbotapi.Message{MessageID: len(f.sent)}, nil
}

func (f *fakeSender) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.typing++
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (f *fakeSender) messages() []tgbotapi.MessageConfig {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]tgbotapi.MessageConfig, len(f.sent))
	copy(out, f.sent)
	return out
}

// countingBackend is an ai.Service that records calls instead of generating.
type countingBackend struct {
	calls      int64
	lastModel  string
	lastPrompt string
	response   string
	err        error
}

func (b *countingBackend) Generate(ctx context.Context, modelID, prompt string) (string, error) {
	atomic.AddInt64(&b.calls, 1)
	b.lastModel = modelID
	b.lastPrompt = prompt
	if b.err != nil {
		return "", b.err
	}
	return b.response, nil
}

func testConfig() *config.Config {
	return &config.Config{
		Bot: config.BotConfig{
			Token:           "test-token",
			OwnerID:         "777",
			MaxMessageChars: 3900,
			SendsPerSecond:  1000,
		},
		Gemini: config.GeminiConfig{
			StandardModel:   "gemini-3-flash-preview",
			PrivilegedModel: "gemini-3-pro-preview",
		},
		RateLimit: config.RateLimitConfig{
			Enabled:       true,
			ChatWindow:    2 * time.Second,
			CommandWindow: 5 * time.Second,
		},
		Gate:  config.GateConfig{MaxConcurrent: 4},
		Cache: config.CacheConfig{Enabled: false},
		I18n:  config.I18nConfig{DefaultLanguage: "es"},
	}
}

type fixture struct {
	bot      *fakeSender
	backend  *countingBackend
	commands *CommandHandler
	messages *MessageHandler
}

// newFixture wires the full pipeline around a fake sender and backend.
// The zero-value localizer resolves every message to its ID, so tests
// assert on message IDs rather than catalog text.
func newFixture() *fixture {
	cfg := testConfig()
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	bot := &fakeSender{}
	backend := &countingBackend{response: "respuesta de prueba"}
	metrics := middleware.NewMetrics()

	router := ai.NewRouter(
		backend,
		middleware.NewGate(cfg.Gate.MaxConcurrent),
		cache.NewCache(cfg, logger),
		metrics,
		cfg,
		logger,
	)
	limiter := middleware.NewRateLimiter(cfg, logger)
	deliverer := NewDeliverer(bot, cfg, metrics, logger)
	localizer := &i18n.Localizer{}

	return &fixture{
		bot:      bot,
		backend:  backend,
		commands: NewCommandHandler(cfg, router, limiter, deliverer, localizer, metrics, logger),
		messages: NewMessageHandler(cfg, router, limiter, deliverer, metrics, logger, testBotUsername, testBotID),
	}
}

func privateChat() *tgbotapi.Chat {
	return &tgbotapi.Chat{ID: 100, Type: "private"}
}

func groupChat() *tgbotapi.Chat {
	return &tgbotapi.Chat{ID: -200, Type: "group"}
}

func textMessage(chat *tgbotapi.Chat, from int64, text string) *tgbotapi.Message {
	return &tgbotapi.Message{
		MessageID: 1,
		From:      &tgbotapi.User{ID: from, UserName: "usuario"},
		Chat:      chat,
		Text:      text,
	}
}

// commandMessage builds a message whose entities mark text as a command,
// the way Telegram delivers it.
func commandMessage(chat *tgbotapi.Chat, from int64, text string) *tgbotapi.Message {
	cmdLen := len(text)
	for i, r := range text {
		if r == ' ' {
			cmdLen = i
			break
		}
	}
	return &tgbotapi.Message{
		MessageID: 1,
		From:      &tgbotapi.User{ID: from, UserName: "usuario"},
		Chat:      chat,
		Text:      text,
		Entities:  []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: cmdLen}},
	}
}
