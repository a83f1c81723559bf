package callbacks

import (
	"context"

	"github.com/Freeeeeet/appointment_bot/internal/controller/keyboard"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

// answerCallback отвечает на callback query (без alert)
func (h *Handler) answerCallback(ctx context.Context, b *bot.Bot, callbackID, text string) {
	_, err := b.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{
		CallbackQueryID: callbackID,
		Text:            text,
	})
	if err != nil {
		h.logger.Warn("Failed to answer callback", zap.Error(err))
	}
}

// removeKeyboard убирает кнопки со старого меню, чтобы их не нажимали повторно
func (h *Handler) removeKeyboard(ctx context.Context, b *bot.Bot, msg *models.Message) {
	_, err := b.EditMessageReplyMarkup(ctx, &bot.EditMessageReplyMarkupParams{
		ChatID:      msg.Chat.ID,
		MessageID:   msg.ID,
		ReplyMarkup: keyboard.Empty(),
	})
	if err != nil {
		h.logger.Debug("Failed to remove keyboard", zap.Error(err))
	}
}

// messageFromCallback извлекает сообщение из callback query
func messageFromCallback(callback *models.CallbackQuery) *models.Message {
	if callback.Message.Message != nil {
		return callback.Message.Message
	}
	return nil
}
