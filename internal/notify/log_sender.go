package notify

import (
	"context"

	"go.uber.org/zap"
)

// LogSender пишет сообщения в лог вместо отправки. Используется для прогона без доставки.
type LogSender struct {
	logger *zap.Logger
}

func NewLogSender(logger *zap.Logger) *LogSender {
	return &LogSender{logger: logger}
}

func (s *LogSender) Name() string { return "log" }

func (s *LogSender) Send(_ context.Context, userID, text string) error {
	s.logger.Info("Chat message (dry run)",
		zap.String("user_id", userID),
		zap.String("text", text))
	return nil
}

func (s *LogSender) SendEmail(_ context.Context, address, subject, body string) error {
	s.logger.Info("Email (dry run)",
		zap.String("address", address),
		zap.String("subject", subject),
		zap.Int("body_len", len(body)))
	return nil
}
