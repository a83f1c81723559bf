package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/Freeeeeet/appointment_bot/internal/repository"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const readyTimeout = 2 * time.Second

// HealthServer HTTP-проверки для оркестратора: /healthz жив ли процесс, /readyz читается ли хранилище
type HealthServer struct {
	srv    *http.Server
	logger *zap.Logger
}

func NewHealthServer(addr string, store repository.BookingStore, logger *zap.Logger) *HealthServer {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/readyz", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), readyTimeout)
		defer cancel()

		bookings, err := store.Load(ctx)
		if err != nil {
			logger.Warn("Readiness check failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready", "records": len(bookings)})
	})

	return &HealthServer{
		srv: &http.Server{
			Addr:              addr,
			Handler:           r,
			ReadHeaderTimeout: 5 * time.Second,
		},
		logger: logger,
	}
}

// Handler роутер без запуска сервера
func (h *HealthServer) Handler() http.Handler {
	return h.srv.Handler
}

// Start слушает в отдельной горутине
func (h *HealthServer) Start() {
	go func() {
		h.logger.Info("Health server listening", zap.String("addr", h.srv.Addr))
		if err := h.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			h.logger.Error("Health server failed", zap.Error(err))
		}
	}()
}

// Stop корректно останавливает сервер
func (h *HealthServer) Stop(ctx context.Context) error {
	return h.srv.Shutdown(ctx)
}
