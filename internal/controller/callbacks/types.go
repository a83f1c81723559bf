package callbacks

import (
	"github.com/Freeeeeet/appointment_bot/internal/controller/handlers"
	"go.uber.org/zap"
)

// Handler обработчик нажатий на inline кнопки
type Handler struct {
	conversation handlers.Conversation
	replies      *handlers.Handlers
	logger       *zap.Logger
}

// NewHandler создаёт новый обработчик callbacks с зависимостями
func NewHandler(conversation handlers.Conversation, replies *handlers.Handlers, logger *zap.Logger) *Handler {
	return &Handler{
		conversation: conversation,
		replies:      replies,
		logger:       logger,
	}
}
