package handlers

import (
	"context"
	"strconv"

	"github.com/Freeeeeet/appointment_bot/internal/service"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

// UserID ключ пользователя в хранилище. Это id чата: по нему же уходят напоминания.
func UserID(chatID int64) string {
	return strconv.FormatInt(chatID, 10)
}

// Reply отправляет ответ автомата с клавиатурой, если она нужна
func (h *Handlers) Reply(ctx context.Context, b *bot.Bot, chatID int64, res service.Result) {
	text, markup := Render(res)
	h.sendMessage(ctx, b, chatID, text, markup)
}

// sendMessage отправляет сообщение и логирует если не удалось
func (h *Handlers) sendMessage(ctx context.Context, b *bot.Bot, chatID int64, text string, markup *models.InlineKeyboardMarkup) {
	params := &bot.SendMessageParams{
		ChatID: chatID,
		Text:   text,
	}
	if markup != nil {
		params.ReplyMarkup = markup
	}

	if _, err := b.SendMessage(ctx, params); err != nil {
		h.logger.Error("Failed to send message",
			zap.Int64("chat_id", chatID),
			zap.Error(err))
	}
}
