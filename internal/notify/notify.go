// Package notify доставляет напоминания по чату и почте
package notify

import (
	"context"
	"errors"
)

// ErrInvalidDestination адрес получателя не подходит каналу
var ErrInvalidDestination = errors.New("invalid destination")

// ChatSender отправляет текст в чат пользователя
type ChatSender interface {
	Send(ctx context.Context, userID, text string) error
	Name() string
}

// EmailSender отправляет письмо
type EmailSender interface {
	SendEmail(ctx context.Context, address, subject, body string) error
	Name() string
}
