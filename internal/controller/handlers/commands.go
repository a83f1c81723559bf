package handlers

import (
	"context"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

const welcomeText = "👋 Hi! I'm your appointment assistant.\n\n" +
	"Just tell me when you'd like to come in, for example \"book Friday at 2pm\", " +
	"or ask \"what's available on Monday?\" and I'll show you free times.\n\n" +
	"I'll remind you a day before and an hour before your appointment."

const helpText = "📚 What I can do:\n\n" +
	"• \"book Friday at 2pm\" - book a time\n" +
	"• \"any openings tomorrow?\" - see free times\n" +
	"• \"reschedule to Monday 10am\" - move your appointment\n" +
	"• \"when is my appointment?\" - check your booking\n" +
	"• \"cancel\" - cancel your booking\n\n" +
	"Commands:\n" +
	"/mybooking - Show my appointment\n" +
	"/cancel - Cancel my appointment\n" +
	"/help - Show this help"

// HandleStart обрабатывает команду /start
func (h *Handlers) HandleStart(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	h.sendMessage(ctx, b, update.Message.Chat.ID, welcomeText, nil)
}

// HandleHelp обрабатывает команду /help
func (h *Handlers) HandleHelp(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	h.sendMessage(ctx, b, update.Message.Chat.ID, helpText, nil)
}

// HandleMyBooking обрабатывает команду /mybooking
func (h *Handlers) HandleMyBooking(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID
	h.Reply(ctx, b, chatID, h.conversation.Lookup(ctx, UserID(chatID)))
}

// HandleCancel обрабатывает команду /cancel
func (h *Handlers) HandleCancel(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID
	h.Reply(ctx, b, chatID, h.conversation.Cancel(ctx, UserID(chatID)))
}

// HandleTextMessage обрабатывает произвольный текст через автомат диалога
func (h *Handlers) HandleTextMessage(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil || update.Message.Text == "" {
		return
	}
	chatID := update.Message.Chat.ID
	h.Reply(ctx, b, chatID, h.conversation.HandleMessage(ctx, UserID(chatID), update.Message.Text))
}
