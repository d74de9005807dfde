package handlers

import (
	"strings"
	"unicode"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/reformadoai/tgbot-go/internal/models"
)

// ResolveTrigger decides whether an inbound free-text message should run the
// pipeline at all. A TriggerNone result has no side effects: no typing
// indicator, no backend call, no cooldown consumed.
func ResolveTrigger(msg *tgbotapi.Message, botUsername string, botID int64) models.TriggerReason {
	if msg == nil || messageText(msg) == "" {
		return models.TriggerNone
	}

	if msg.Chat.IsPrivate() {
		return models.TriggerPrivateChat
	}

	if mentionsBot(messageText(msg), botUsername) {
		return models.TriggerMention
	}

	if msg.ReplyToMessage != nil && msg.ReplyToMessage.From != nil && msg.ReplyToMessage.From.ID == botID {
		return models.TriggerReplyToBot
	}

	return models.TriggerNone
}

// mentionsBot reports whether text contains @username as its own token, so
// that a longer mention like @usernamebot2 does not trigger.
func mentionsBot(text, botUsername string) bool {
	if botUsername == "" {
		return false
	}

	needle := strings.ToLower("@" + botUsername)
	haystack := strings.ToLower(text)

	for from := 0; ; {
		i := strings.Index(haystack[from:], needle)
		if i < 0 {
			return false
		}
		end := from + i + len(needle)
		if end >= len(haystack) {
			return true
		}
		next, _ := utf8.DecodeRuneInString(haystack[end:])
		if !isUsernameRune(next) {
			return true
		}
		from = end
	}
}

// Telegram usernames are [A-Za-z0-9_]; anything else ends the token.
func isUsernameRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_'
}

// messageText returns the message text, or the caption for media messages.
func messageText(msg *tgbotapi.Message) string {
	if msg == nil {
		return ""
	}
	if msg.Text != "" {
		return msg.Text
	}
	return msg.Caption
}

// stripMention removes the bot's @mention so the prompt reads naturally.
func stripMention(text, botUsername string) string {
	if botUsername == "" {
		return strings.TrimSpace(text)
	}
	cleaned := strings.ReplaceAll(text, "@"+botUsername, "")
	return strings.TrimSpace(cleaned)
}

// chatKind maps a Telegram chat to the pipeline's chat-context kind.
func chatKind(chat *tgbotapi.Chat) models.ChatKind {
	if chat != nil && chat.IsPrivate() {
		return models.ChatPrivate
	}
	return models.ChatGroup
}

// identityOf extracts the throttling/access subject of a message.
func identityOf(msg *tgbotapi.Message) models.Identity {
	if msg == nil || msg.From == nil {
		return models.Identity{}
	}
	return models.Identity{UserID: msg.From.ID, Username: msg.From.UserName}
}
