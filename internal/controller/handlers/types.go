package handlers

import (
	"context"

	"github.com/Freeeeeet/appointment_bot/internal/service"
	"go.uber.org/zap"
)

// Conversation то, что нужно обработчикам от автомата диалога
type Conversation interface {
	HandleMessage(ctx context.Context, userID, text string) service.Result
	Lookup(ctx context.Context, userID string) service.Result
	Cancel(ctx context.Context, userID string) service.Result
}

// Handlers содержит все зависимости для обработки команд
type Handlers struct {
	conversation Conversation
	logger       *zap.Logger
}

// NewHandlers создаёт новый обработчик команд
func NewHandlers(conversation Conversation, logger *zap.Logger) *Handlers {
	return &Handlers{
		conversation: conversation,
		logger:       logger,
	}
}
