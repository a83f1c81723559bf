package notify

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/go-telegram/bot"
	"golang.org/x/time/rate"
)

const chatTimeout = 5 * time.Second

// Bot API режет рассылку больше ~30 сообщений в секунду
const (
	chatRate  rate.Limit = 25
	chatBurst            = 5
)

// TelegramSender отправляет сообщения через Bot API. Идентификатор пользователя это chat id.
type TelegramSender struct {
	bot     *bot.Bot
	limiter *rate.Limiter
	timeout time.Duration
}

func NewTelegramSender(b *bot.Bot) *TelegramSender {
	return &TelegramSender{
		bot:     b,
		limiter: rate.NewLimiter(chatRate, chatBurst),
		timeout: chatTimeout,
	}
}

func (s *TelegramSender) Name() string { return "telegram" }

func (s *TelegramSender) Send(ctx context.Context, userID, text string) error {
	chatID, err := strconv.ParseInt(userID, 10, 64)
	if err != nil {
		return fmt.Errorf("parse chat id %q: %w", userID, ErrInvalidDestination)
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("wait telegram rate limit: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	_, err = s.bot.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: chatID,
		Text:   text,
	})
	if err != nil {
		return fmt.Errorf("send telegram message: %w", err)
	}
	return nil
}
