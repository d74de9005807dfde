package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/joho/godotenv"
	"github.com/reformadoai/tgbot-go/internal/config"
	"github.com/reformadoai/tgbot-go/internal/handlers"
	"github.com/reformadoai/tgbot-go/internal/i18n"
	"github.com/reformadoai/tgbot-go/internal/middleware"
	"github.com/reformadoai/tgbot-go/internal/services/ai"
	"github.com/reformadoai/tgbot-go/internal/services/cache"
	"github.com/reformadoai/tgbot-go/pkg/logger"
	"github.com/sirupsen/logrus"
)

func main() {
	// Parse command line flags
	configPath := flag.String("config", "configs/config.yaml", "Path to configuration file")
	envFile := flag.String("env", ".env", "Path to .env file")
	flag.Parse()

	// Load .env file if exists
	if err := godotenv.Load(*envFile); err != nil {
		// It's okay if .env doesn't exist
		fmt.Printf("Warning: .env file not found: %v\n", err)
	}

	// Load configuration; missing required values abort startup here.
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log, err := logger.NewLogger(&cfg.Logging)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	log.Info("Starting ReformadoAI bot...")

	// Initialize bot
	bot, err := tgbotapi.NewBotAPI(cfg.Bot.Token)
	if err != nil {
		log.WithError(err).Fatal("Failed to create bot")
	}

	bot.Debug = cfg.Logging.Level == "debug"
	log.WithField("username", bot.Self.UserName).Info("Bot authorized")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize services
	backend := ai.NewGemini(&cfg.Gemini, log)
	gate := middleware.NewGate(cfg.Gate.MaxConcurrent)
	responseCache := cache.NewCache(cfg, log)
	metrics := middleware.NewMetrics()
	rateLimiter := middleware.NewRateLimiter(cfg, log)

	router := ai.NewRouter(backend, gate, responseCache, metrics, cfg, log)
	log.WithFields(logrus.Fields{
		"standard":   cfg.Gemini.StandardModel,
		"privileged": cfg.Gemini.PrivilegedModel,
	}).Info("Model tiers bound")

	// Initialize i18n
	localizer, err := i18n.NewLocalizer(&cfg.I18n)
	if err != nil {
		log.WithError(err).Fatal("Failed to initialize i18n")
	}

	// Start metrics and liveness server
	if cfg.Monitoring.Metrics.Enabled {
		go func() {
			log.WithFields(logrus.Fields{
				"port": cfg.Monitoring.Metrics.Port,
				"path": cfg.Monitoring.Metrics.Path,
			}).Info("Starting metrics server")

			if err := middleware.StartMetricsServer(cfg.Monitoring.Metrics.Port, cfg.Monitoring.Metrics.Path); err != nil {
				log.WithError(err).Error("Metrics server failed")
			}
		}()
	}

	// Initialize handlers
	deliverer := handlers.NewDeliverer(bot, cfg, metrics, log)
	commandHandler := handlers.NewCommandHandler(cfg, router, rateLimiter, deliverer, localizer, metrics, log)
	messageHandler := handlers.NewMessageHandler(cfg, router, rateLimiter, deliverer, metrics, log, bot.Self.UserName, bot.Self.ID)

	// Register the command menu
	if _, err := bot.Request(tgbotapi.NewSetMyCommands(handlers.Commands()...)); err != nil {
		log.WithError(err).Error("Failed to register command menu")
	} else {
		log.Info("Command menu registered")
	}

	// Discard updates queued while the bot was down
	if _, err := bot.Request(tgbotapi.DeleteWebhookConfig{DropPendingUpdates: true}); err != nil {
		log.WithError(err).Warn("Failed to drop pending updates")
	}

	u := tgbotapi.NewUpdate(0)
	u.Timeout = cfg.Bot.UpdateTimeout
	updates := bot.GetUpdatesChan(u)
	log.Info("Using long polling")

	// Setup graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Main dispatch loop: each update is handled as its own task so a slow
	// backend call never blocks the receive loop.
	go func() {
		for update := range updates {
			if update.Message == nil {
				continue
			}

			chatType := "private"
			if !update.Message.Chat.IsPrivate() {
				chatType = "group"
			}
			metrics.RecordMessageReceived(chatType)

			go dispatch(ctx, update.Message, commandHandler, messageHandler, metrics, log)
		}
	}()

	// Wait for shutdown signal
	<-sigChan
	log.Info("Shutdown signal received")

	// Cancel context to stop in-flight work, then give it a moment
	cancel()
	time.Sleep(2 * time.Second)

	log.Info("Bot stopped")
}

func dispatch(
	ctx context.Context,
	msg *tgbotapi.Message,
	commandHandler *handlers.CommandHandler,
	messageHandler *handlers.MessageHandler,
	metrics *middleware.Metrics,
	log *logrus.Logger,
) {
	var err error
	if msg.IsCommand() {
		metrics.RecordCommandExecuted(msg.Command())
		err = commandHandler.HandleCommand(ctx, msg)
	} else {
		err = messageHandler.HandleMessage(ctx, msg)
	}

	if err != nil {
		log.WithError(err).Error("Failed to handle update")
		metrics.RecordMessageProcessed("error")
		return
	}
	metrics.RecordMessageProcessed("success")
}
