package callbacks

import (
	"context"
	"strconv"
	"strings"

	"github.com/Freeeeeet/appointment_bot/internal/controller/handlers"
	"github.com/Freeeeeet/appointment_bot/internal/controller/keyboard"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

// HandleCallbackQuery точка входа для всех callback query
func (h *Handler) HandleCallbackQuery(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.CallbackQuery == nil {
		return
	}
	h.route(ctx, b, update.CallbackQuery)
}

// route распределяет callback query по соответствующим обработчикам.
// Кнопка превращается в то же текстовое сообщение, которое пользователь мог бы набрать сам.
func (h *Handler) route(ctx context.Context, b *bot.Bot, callback *models.CallbackQuery) {
	data := callback.Data

	h.logger.Debug("Routing callback",
		zap.String("data", data),
		zap.Int64("user_id", callback.From.ID))

	msg := messageFromCallback(callback)
	if msg == nil {
		h.answerCallback(ctx, b, callback.ID, "This menu has expired, please ask again.")
		return
	}

	var text string
	switch {
	case data == keyboard.Noop:
		h.answerCallback(ctx, b, callback.ID, "")
		return

	case strings.HasPrefix(data, keyboard.PickPrefix):
		n, err := keyboard.ParsePick(data)
		if err != nil {
			h.logger.Warn("Invalid pick callback", zap.String("data", data), zap.Error(err))
			h.answerCallback(ctx, b, callback.ID, "❌ Unknown option")
			return
		}
		text = strconv.Itoa(n)

	case strings.HasPrefix(data, keyboard.BookPrefix):
		text = "book " + strings.TrimPrefix(data, keyboard.BookPrefix)

	default:
		h.logger.Warn("Unknown callback",
			zap.String("data", data),
			zap.Int64("user_id", callback.From.ID))
		h.answerCallback(ctx, b, callback.ID, "❌ Unknown option")
		return
	}

	h.answerCallback(ctx, b, callback.ID, "")
	h.removeKeyboard(ctx, b, msg)

	chatID := msg.Chat.ID
	res := h.conversation.HandleMessage(ctx, handlers.UserID(chatID), text)
	h.replies.Reply(ctx, b, chatID, res)
}
