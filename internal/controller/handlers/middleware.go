package handlers

import (
	"context"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

// LogUpdates пишет в лог каждое обработанное обновление и его длительность
func LogUpdates(logger *zap.Logger) bot.Middleware {
	return func(next bot.HandlerFunc) bot.HandlerFunc {
		return func(ctx context.Context, b *bot.Bot, update *models.Update) {
			start := time.Now()
			next(ctx, b, update)

			fields := []zap.Field{
				zap.Int64("update_id", update.ID),
				zap.Duration("took", time.Since(start)),
			}
			switch {
			case update.Message != nil:
				fields = append(fields, zap.Int64("chat_id", update.Message.Chat.ID), zap.String("kind", "message"))
			case update.CallbackQuery != nil:
				fields = append(fields, zap.Int64("user_id", update.CallbackQuery.From.ID), zap.String("kind", "callback"))
			}
			logger.Debug("Update handled", fields...)
		}
	}
}
